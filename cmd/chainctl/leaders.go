package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/chainview/internal/analytics"
	"github.com/dgnsrekt/chainview/internal/chain"
	"github.com/dgnsrekt/chainview/internal/series"
	"github.com/dgnsrekt/chainview/internal/snapshot"
)

func leadersCmd() *cobra.Command {
	var (
		req      = snapshot.DefaultRequest()
		top      int
		lastMins bool
		wait     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "leaders",
		Short: "Rank option legs by volume now, or by volume traded over a wait interval",
		Example: `  chainctl leaders --top 20
  chainctl leaders --last-5-min --top 30`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			engine := newEngine(newClient())
			out := cmd.OutOrStdout()

			view, err := engine.Chain(ctx, req)
			if err != nil {
				return err
			}
			if view.Table.Len() == 0 {
				fmt.Fprintln(out, "No option data in chain.")
				return nil
			}

			if !lastMins {
				noteExpiration(out, view)
				renderLeaders(out, view, "top volume now", "Volume", analytics.VolumeLeaders(view.Table, top))
				return nil
			}

			first := series.Project(view.Table, time.Now())
			logger.Info("waiting for second chain", zap.Duration("wait", wait))
			fmt.Fprintf(out, "Waiting %s...\n", wait)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}

			// Drop cached fetches so the second chain is fresh
			engine.Reset()
			later, err := engine.Chain(ctx, req)
			if err != nil {
				return err
			}

			leaders := volumeIncrease(req.Normalize().SeriesKey(), first, later.Table, time.Now(), wait, top)
			noteExpiration(out, later)
			renderLeaders(out, later, fmt.Sprintf("top volume in last %s", wait), "Delta", leaders)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Symbol, "symbol", req.Symbol, "underlying symbol")
	cmd.Flags().StringVar(&req.ExpiryMode, "expiry-mode", req.ExpiryMode, "expiration selection: dte or friday")
	cmd.Flags().IntVar(&req.DTE, "dte", req.DTE, "days to expiry in dte mode (0 or 1)")
	cmd.Flags().IntVar(&top, "top", 20, "number of leaders to show")
	cmd.Flags().BoolVar(&lastMins, "last-5-min", false, "fetch twice and rank by volume increase")
	cmd.Flags().DurationVar(&wait, "wait", 5*time.Minute, "interval between fetches with --last-5-min")

	return cmd
}

// volumeIncrease ranks legs of later by volume traded since first, using a
// two-entry series so the comparison follows the dashboard's hot-strike rules.
func volumeIncrease(key series.Key, first series.Slim, later *chain.Table, at time.Time, wait time.Duration, top int) []analytics.Leader {
	buf := series.NewBuffer(wait+time.Minute, 2)
	buf.Append(key, first, first.Timestamp)
	prior := buf.Append(key, series.Project(later, at), at)

	ref, ok := series.Closest(prior, at.Add(-wait))
	if !ok {
		return nil
	}
	calls, puts := series.HotStrikes(later, ref, top)
	return analytics.DeltaLeaders(calls, puts, top)
}

func noteExpiration(w io.Writer, view *snapshot.ChainView) {
	if view.Expiration != view.Today.Format("2006-01-02") {
		fmt.Fprintf(w, "Note: using nearest expiration (not same-day): %s\n\n", view.Expiration)
	}
}

func renderLeaders(w io.Writer, view *snapshot.ChainView, title, valueLabel string, leaders []analytics.Leader) {
	fmt.Fprintf(w, "%s volume leaders (expiration: %s), %s\n", view.Request.Symbol, view.Expiration, title)
	if len(leaders) == 0 {
		fmt.Fprintln(w, "  none")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Rank", "Strike", "Side", valueLabel, "Bid", "Ask"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for i, l := range leaders {
		table.Append([]string{
			fmt.Sprintf("%d", i+1),
			strikeLabel(l.Strike),
			strings.ToLower(string(l.Side)),
			thousands(l.Value),
			optMoney(l.Bid),
			optMoney(l.Ask),
		})
	}
	table.Render()
}
