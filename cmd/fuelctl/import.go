package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fleetdesk/fuelrecon/internal/domain"
	"github.com/fleetdesk/fuelrecon/internal/ingestion"
)

func newImportCmd(root *rootOptions) *cobra.Command {
	var company, provider, file, importedBy string
	var seed bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Parse a statement and store its new transactions as a batch",
		Example: `  fuelctl import --company demo-fleet --file testdata/provider_a_march.csv
  fuelctl import --company demo-fleet --provider toll --file march.pdf`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := providerFlag(provider)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}

			a, cfg, err := root.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if seed {
				if err := a.SeedVehicles(cfg.SeedVehiclesPath); err != nil {
					return err
				}
			}

			res, err := a.Imports.Import(cmd.Context(), ingestion.ImportRequest{
				CompanyID:  company,
				Provider:   p,
				FileName:   filepath.Base(file),
				Data:       data,
				ImportedBy: importedBy,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVar(&company, "company", "", "company the statement belongs to")
	cmd.Flags().StringVar(&provider, "provider", "", "provider_a, provider_b or toll (detected when empty)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "statement file (CSV, XLSX, PDF or extracted text)")
	cmd.Flags().StringVar(&importedBy, "imported-by", "", "user recorded on the batch")
	cmd.Flags().BoolVar(&seed, "seed-vehicles", false, "load the configured fleet snapshot first")
	cmd.MarkFlagRequired("company")
	cmd.MarkFlagRequired("file")
	return cmd
}

func providerFlag(s string) (domain.Provider, error) {
	if s == "" {
		return "", nil
	}
	p, ok := domain.ParseProvider(s)
	if !ok {
		return "", fmt.Errorf("%w: %q", ingestion.ErrUnsupportedProvider, s)
	}
	return p, nil
}
