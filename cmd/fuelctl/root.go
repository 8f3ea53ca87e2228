package main

import (
	"encoding/json"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/fleetdesk/fuelrecon/internal/app"
	"github.com/fleetdesk/fuelrecon/internal/config"
	"github.com/fleetdesk/fuelrecon/internal/logger"
)

type rootOptions struct {
	configPath string
	verbose    bool
	appOpts    []app.Option
}

func newRootCmd(appOpts ...app.Option) *cobra.Command {
	opts := &rootOptions{appOpts: appOpts}
	cmd := &cobra.Command{
		Use:           "fuelctl",
		Short:         "Import fuel card and toll statements",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "config.yaml", "path to the YAML config file")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(newImportCmd(opts), newParseCmd(opts), newRateCmd(opts))
	return cmd
}

func (o *rootOptions) load(cmd *cobra.Command) (config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return cfg, zerolog.Nop(), err
	}
	level := cfg.LogLevel
	if o.verbose {
		level = "debug"
	}
	return cfg, logger.NewFormat(level, cfg.LogFormat, cmd.ErrOrStderr()), nil
}

func (o *rootOptions) open(cmd *cobra.Command) (*app.App, config.Config, error) {
	cfg, log, err := o.load(cmd)
	if err != nil {
		return nil, cfg, err
	}
	a, err := app.New(cfg, log, o.appOpts...)
	return a, cfg, err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
