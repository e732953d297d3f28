package main

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/chainview/internal/analytics"
	"github.com/dgnsrekt/chainview/internal/snapshot"
)

func spreadsCmd() *cobra.Command {
	var (
		req       = snapshot.DefaultRequest()
		markAbove float64
	)

	cmd := &cobra.Command{
		Use:   "spreads",
		Short: "List one-strike-wide credit spreads out of the money",
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := newEngine(newClient()).Chain(cmd.Context(), req)
			if err != nil {
				return err
			}
			if view.Price == nil {
				return fmt.Errorf("no current price for %s", view.Request.Symbol)
			}

			scan := analytics.ScanCreditSpreads(view.Table, view.Price)
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "%s credit spreads with mark >= $%.2f (expiration: %s)\n", view.Request.Symbol, markAbove, view.Expiration)
			fmt.Fprintf(out, "%s now: %.2f\n\n", view.Request.Symbol, *view.Price)

			fmt.Fprintln(out, "CALL credit spreads (short low strike, long high strike)")
			renderSpreads(out, analytics.FilterMarkAbove(scan.Calls, markAbove))
			fmt.Fprintln(out)
			fmt.Fprintln(out, "PUT credit spreads (short high strike, long low strike)")
			renderSpreads(out, analytics.FilterMarkAbove(scan.Puts, markAbove))
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Symbol, "symbol", req.Symbol, "underlying symbol")
	cmd.Flags().StringVar(&req.ExpiryMode, "expiry-mode", req.ExpiryMode, "expiration selection: dte or friday")
	cmd.Flags().IntVar(&req.DTE, "dte", req.DTE, "days to expiry in dte mode (0 or 1)")
	cmd.Flags().Float64Var(&markAbove, "mark-above", 0.20, "minimum mark credit to list")

	return cmd
}

func renderSpreads(w io.Writer, spreads []analytics.CreditSpread) {
	if len(spreads) == 0 {
		fmt.Fprintln(w, "  none")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Spread", "Mark", "Bid", "Ask", "Distance", "Width"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, s := range spreads {
		table.Append([]string{
			fmt.Sprintf("%s/%s", strikeLabel(s.ShortStrike), strikeLabel(s.LongStrike)),
			money(s.MarkCredit),
			money(s.BidCredit),
			money(s.AskCredit),
			fmt.Sprintf("%.2f", s.Distance),
			strikeLabel(s.Width),
		})
	}
	table.Render()
}
