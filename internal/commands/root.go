package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/klabast/wb-services/lineup-planner/internal/app"
	"github.com/klabast/wb-services/lineup-planner/internal/config"
	appLog "github.com/klabast/wb-services/lineup-planner/internal/log"
)

// DefaultConfigPath is used when --config is not given
const DefaultConfigPath = "./lineup-planner.yaml"

type rootOptions struct {
	configPath string
	catalog    string
}

// environment is everything a subcommand needs after startup
type environment struct {
	cfg     *config.Config
	catalog *app.Catalog
	export  app.ExportOptions
}

// NewRootCommand builds the lineup-planner command tree
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "lineup-planner",
		Short:         "Plan who sees which band at a festival and export the schedule",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", DefaultConfigPath, "Path to the YAML config file")
	root.PersistentFlags().StringVar(&opts.catalog, "catalog", "", "Lineup source (YAML or .ics, file or URL); overrides the config")

	root.AddCommand(
		newServeCommand(opts),
		newExportCommand(opts),
		newShowCommand(opts),
	)
	return root
}

// load reads the config, applies the log level and loads the catalog
func (o *rootOptions) load(ctx context.Context) (*environment, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))

	if o.catalog != "" {
		cfg.Catalog = o.catalog
	}

	export, err := app.ExportOptionsFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", cfg.Timezone, err)
	}

	catalog, err := app.LoadCatalog(ctx, cfg.Catalog, export.Location, app.RosterFromConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	return &environment{cfg: cfg, catalog: catalog, export: export}, nil
}
