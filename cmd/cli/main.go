package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"taxonomy-crawler/internal/config"
	"taxonomy-crawler/pkg/logger"
)

type rootOptions struct {
	configPath string
	dataPath   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "taxo",
		Short:         "Crawl a site and explore its taxonomy classification",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ./configs/config.yaml)")
	root.PersistentFlags().StringVar(&opts.dataPath, "data", "", "record snapshot, JSON array or NDJSON (default bootstrap.path)")

	root.AddCommand(
		newCrawlCmd(opts),
		newStatsCmd(opts),
		newResolveCmd(opts),
		newListCmd(opts),
		newExportCmd(opts),
	)
	return root
}

func (o *rootOptions) load() (*config.Config, *logger.Logger, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFromFile(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, err
	}
	if o.dataPath == "" {
		o.dataPath = cfg.Bootstrap.Path
	}
	return cfg, logger.New(cfg.Logging.Level, cfg.Logging.Format), nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
