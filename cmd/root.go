// Package cmd implements the leadworker command-line interface.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"sjsage522/leadworker/config"
	"sjsage522/leadworker/logger"
	apperrors "sjsage522/leadworker/pkg/errors"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "leadworker",
	Short:         "Discover business leads from map search results",
	Long:          `leadworker crawls map search results for a niche and location and stores new businesses with a website as leads.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command until it finishes or a shutdown signal arrives
func Execute() error {
	// Load environment variables
	_ = godotenv.Load()

	// Initialize logger first
	logger.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.AddCommand(newDiscoverCommand())
	rootCmd.AddCommand(newBatchCommand())
	rootCmd.AddCommand(newLeadsCommand())
}

// loadConfig loads and validates the configuration from the environment
func loadConfig() (*config.Config, error) {
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, apperrors.NewConfiguration("invalid configuration", err)
	}
	return cfg, nil
}
