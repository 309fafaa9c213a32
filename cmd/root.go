package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"kbsearch/internal/api"
	"kbsearch/internal/config"
	"kbsearch/internal/logging"
)

var flagServer string

var rootCmd = &cobra.Command{
	Use:   "kbsearch",
	Short: "Terminal client for a local note-search backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "backend base URL (default from config file, else http://127.0.0.1:8000)")
}

// env bundles the objects every subcommand needs.
type env struct {
	cfg *config.Config
	log *zap.Logger
	api *api.Client
}

func loadEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load client config: %w", err)
	}
	if flagServer != "" {
		cfg.ServerURL = flagServer
	}

	log := logging.New(cfg.LogFile)
	return &env{
		cfg: cfg,
		log: log,
		api: api.NewClient(cfg.ServerURL, log),
	}, nil
}
