package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func tokenCmd() *cobra.Command {
	var minutes int

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a freshly issued access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if minutes < 1 {
				return fmt.Errorf("--minutes must be at least 1")
			}
			token, err := newClient().AccessToken(cmd.Context(), minutes)
			if err != nil {
				return fmt.Errorf("requesting token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().IntVar(&minutes, "minutes", 60, "token validity in minutes")

	return cmd
}
