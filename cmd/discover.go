package cmd

import (
	"context"
	"fmt"
	"os"

	"sjsage522/leadworker/config"
	"sjsage522/leadworker/helpers"
	"sjsage522/leadworker/internal/discovery"
	"sjsage522/leadworker/logger"
	"sjsage522/leadworker/services/worker"

	"github.com/spf13/cobra"
)

func newDiscoverCommand() *cobra.Command {
	var (
		q         discovery.Query
		skipCheck bool
	)

	cmd := &cobra.Command{
		Use:     "discover",
		Short:   "Find new leads for one niche and location",
		Example: `  leadworker discover --niche dentists --location "Austin, TX" --limit 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := preflight(ctx, cfg, q, !skipCheck); err != nil {
				return err
			}

			services, err := initializeServices(ctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize services: %w", err)
			}
			defer services.Cleanup()

			crawler, err := newCrawler(cfg, services.Store)
			if err != nil {
				return err
			}

			res := crawler.Crawl(ctx, q)
			renderResults(os.Stdout, []worker.JobResult{{Job: worker.Job{Query: q}, Result: res}})
			if res.Outcome == discovery.OutcomeError {
				return res.Err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&q.Niche, "niche", "", "business niche to search for, e.g. dentists")
	cmd.Flags().StringVar(&q.Location, "location", "", "location to search in, e.g. \"Austin, TX\"")
	cmd.Flags().IntVar(&q.Target, "limit", 10, "number of new leads to find")
	cmd.Flags().BoolVar(&skipCheck, "skip-connectivity-check", false, "do not check the search surface before crawling")
	_ = cmd.MarkFlagRequired("niche")
	_ = cmd.MarkFlagRequired("location")

	return cmd
}

// preflight rejects a crawl before any browser is launched: bad input,
// missing store credentials or an unreachable search surface
func preflight(ctx context.Context, cfg *config.Config, q discovery.Query, checkConnectivity bool) error {
	if err := q.Validate(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("store credentials: %w", err)
	}
	if !checkConnectivity {
		return nil
	}

	logger.LogInfo("preflight", "Checking connectivity to %s", cfg.SearchURL)
	if err := helpers.CheckConnectivity(ctx, cfg.SearchURL); err != nil {
		return fmt.Errorf("search surface unreachable: %w", err)
	}
	logger.LogInfo("preflight", "Connectivity check passed")
	return nil
}
