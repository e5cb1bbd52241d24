package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"sjsage522/leadworker/internal/discovery"
	"sjsage522/leadworker/logger"
	"sjsage522/leadworker/services/worker"

	"github.com/spf13/cobra"
)

func newBatchCommand() *cobra.Command {
	var (
		jobArgs     []string
		every       time.Duration
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run several isolated discovery crawls",
		Example: `  leadworker batch --jobs "dentists:Austin, TX:10" --jobs "plumbers:Denver, CO:5"
  leadworker batch --jobs "roofers:Miami, FL:20" --every 6h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			jobs, err := parseJobs(jobArgs)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("every") {
				every = cfg.DiscoveryInterval
			}
			if !cmd.Flags().Changed("concurrency") {
				concurrency = cfg.WorkerConcurrency
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

			logger.ForWorker().Info().
				Int("jobs", len(jobs)).
				Int("concurrency", concurrency).
				Dur("interval", every).
				Msg("Starting lead worker")

			w := worker.NewWorker(ctx, crawler, jobs, services.Publisher, concurrency, every)
			results := w.Start()
			renderResults(os.Stdout, results)

			if failed := countFailed(results); failed == len(results) {
				return fmt.Errorf("all %d discovery jobs failed", failed)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&jobArgs, "jobs", nil, `discovery job as "niche:location:limit" (repeatable)`)
	cmd.Flags().DurationVar(&every, "every", 0, "repeat the batch at this interval until interrupted")
	cmd.Flags().IntVar(&concurrency, "concurrency", 2, "crawls to run at the same time")
	_ = cmd.MarkFlagRequired("jobs")

	return cmd
}

// parseJob reads "niche:location:limit". The location may itself contain
// colons; the limit defaults to 10 when omitted.
func parseJob(arg string) (worker.Job, error) {
	first := strings.Index(arg, ":")
	if first < 0 {
		return worker.Job{}, fmt.Errorf("invalid job %q: want niche:location[:limit]", arg)
	}
	niche, rest := arg[:first], arg[first+1:]

	location, target := rest, 10
	if last := strings.LastIndex(rest, ":"); last >= 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(rest[last+1:])); err == nil {
			location, target = rest[:last], n
		}
	}

	q := discovery.Query{
		Niche:    strings.TrimSpace(niche),
		Location: strings.TrimSpace(location),
		Target:   target,
	}
	if err := q.Validate(); err != nil {
		return worker.Job{}, fmt.Errorf("invalid job %q: %w", arg, err)
	}
	return worker.Job{Query: q}, nil
}

func parseJobs(jobArgs []string) ([]worker.Job, error) {
	if len(jobArgs) == 0 {
		return nil, fmt.Errorf("at least one --jobs entry is required")
	}
	jobs := make([]worker.Job, 0, len(jobArgs))
	for _, arg := range jobArgs {
		job, err := parseJob(arg)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func countFailed(results []worker.JobResult) int {
	n := 0
	for _, r := range results {
		if r.Result.Outcome == discovery.OutcomeError {
			n++
		}
	}
	return n
}
