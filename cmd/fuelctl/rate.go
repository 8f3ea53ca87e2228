package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newRateCmd(root *rootOptions) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "rate CURRENCY",
		Short: "Show the exchange rate applied to a currency on a day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var day time.Time
			if date != "" {
				d, err := time.Parse(time.DateOnly, date)
				if err != nil {
					return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
				}
				day = d
			}

			a, _, err := root.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			snap, err := a.Rates.Rate(cmd.Context(), strings.ToUpper(args[0]), day)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "1 %s = %.6f %s (fixing %s, %s)\n",
				a.Rates.ReportingCurrency(), snap.Rate, snap.Currency, snap.RateDate, snap.Kind)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day of the rate (YYYY-MM-DD); latest when empty")
	return cmd
}
