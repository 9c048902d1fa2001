package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"geotext/internal/config"
	"geotext/internal/logging"
)

var (
	cfgPath   string
	verbose   bool
	storeFlag string

	cfg *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "geotext",
	Short: "Map the places mentioned in a novel and search its paragraphs",
	Long: `geotext splits a Project Gutenberg style text into chapters and paragraphs,
resolves the places it mentions to coordinates and ranks paragraphs by topic
similarity to a phrase.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfgPath == "" {
			cfg, _, err = config.LoadDefault()
		} else {
			cfg, err = config.Load(cfgPath)
		}
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if storeFlag != "" {
			cfg.Store.Type = storeFlag
		}
		opts := logging.Options{Level: cfg.Log.Level, File: cfg.Log.File}
		if verbose {
			opts.Level = "debug"
		}
		return logging.Init(opts)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Close()
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to YAML or TOML config file (default ./geotext.yaml or ~/.config/geotext/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&storeFlag, "store", "", "Location store: sqlite, bolt or memory")
}
