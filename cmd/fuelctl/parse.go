package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newParseCmd(root *rootOptions) *cobra.Command {
	var provider, file string
	var summary bool

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse a statement without storing anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := providerFlag(provider)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}

			a, _, err := root.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			res, detected, err := a.Imports.Preview(cmd.Context(), p, filepath.Base(file), data)
			if err != nil {
				return err
			}
			if !summary {
				return printJSON(cmd.OutOrStdout(), res)
			}

			m := res.Metadata
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "provider:     %s\n", detected)
			if m.Layout != "" {
				fmt.Fprintf(out, "layout:       %s\n", m.Layout)
			}
			fmt.Fprintf(out, "transactions: %d\n", m.Total)
			fmt.Fprintf(out, "skipped rows: %d\n", m.Skipped)
			fmt.Fprintf(out, "total:        %.2f %s\n", m.TotalReporting, a.Rates.ReportingCurrency())
			if m.Total > 0 {
				fmt.Fprintf(out, "period:       %s - %s\n", m.PeriodStart.Format("2006-01-02 15:04"), m.PeriodEnd.Format("2006-01-02 15:04"))
			}
			fmt.Fprintf(out, "vehicles:     %d\n", len(m.Vehicles))
			for _, w := range m.Warnings {
				fmt.Fprintf(out, "warning: %s\n", w)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "provider_a, provider_b or toll (detected when empty)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "statement file")
	cmd.Flags().BoolVar(&summary, "summary", false, "print totals instead of every transaction")
	cmd.MarkFlagRequired("file")
	return cmd
}
