package worker

import (
	"context"
	"errors"
	"time"

	"sjsage522/leadworker/internal/discovery"
	"sjsage522/leadworker/logger"
	apperrors "sjsage522/leadworker/pkg/errors"
	"sjsage522/leadworker/services/publisher"

	"golang.org/x/sync/errgroup"
)

// Runner executes one isolated discovery crawl
type Runner interface {
	Crawl(ctx context.Context, q discovery.Query) discovery.Result
}

var _ Runner = (*discovery.Crawler)(nil)

// Job is one niche/location pair with its quota
type Job struct {
	Query discovery.Query
}

// JobResult pairs a job with the result of its crawl
type JobResult struct {
	Job    Job
	Result discovery.Result
}

// Worker runs discovery jobs and maintains the lead stream
type Worker struct {
	ctx         context.Context
	runner      Runner
	jobs        []Job
	publisher   publisher.Publisher
	concurrency int
	interval    time.Duration
	log         *logger.Logger
}

// NewWorker creates a new worker. pub may be nil when no stream is configured.
func NewWorker(
	ctx context.Context,
	runner Runner,
	jobs []Job,
	pub publisher.Publisher,
	concurrency int,
	interval time.Duration,
) *Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Worker{
		ctx:         ctx,
		runner:      runner,
		jobs:        jobs,
		publisher:   pub,
		concurrency: concurrency,
		interval:    interval,
		log:         logger.ForWorker(),
	}
}

// Start runs all jobs, then repeats every interval until the context is
// canceled. A non-positive interval runs a single cycle.
func (w *Worker) Start() []JobResult {
	for {
		start := time.Now()
		results := w.RunOnce()
		w.log.Info().
			Int("jobs", len(results)).
			Int("accepted", totalAccepted(results)).
			Dur("elapsed", time.Since(start)).
			Msg("Discovery cycle finished")

		if w.interval <= 0 {
			return results
		}

		select {
		case <-w.ctx.Done():
			return results
		case <-time.After(w.interval):
		}
	}
}

// RunOnce runs every job concurrently, at most concurrency at a time, and
// trims the stream afterwards. Results keep the order of the jobs.
func (w *Worker) RunOnce() []JobResult {
	results := make([]JobResult, len(w.jobs))

	var g errgroup.Group
	g.SetLimit(w.concurrency)

	for i, job := range w.jobs {
		g.Go(func() error {
			if w.ctx.Err() != nil {
				results[i] = JobResult{Job: job, Result: w.canceled(job)}
				return nil
			}
			results[i] = JobResult{Job: job, Result: w.runner.Crawl(w.ctx, job.Query)}
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		if r.Result.Outcome == discovery.OutcomeError {
			w.logFailure(r)
		}
	}

	if w.publisher != nil {
		if err := w.publisher.TrimStreams(w.ctx); err != nil {
			logger.LogError("StreamTrimming", err, "Failed to trim lead stream")
		}
	}
	return results
}

func (w *Worker) logFailure(r JobResult) {
	query := r.Job.Query.SearchText()

	var le *apperrors.LeadError
	switch {
	case apperrors.IsType(r.Result.Err, apperrors.ErrorTypeFatalSetup):
		logger.LogError("worker", r.Result.Err, "Search surface could not be prepared for %s", query)
	case errors.As(r.Result.Err, &le) && le.IsFatal():
		logger.LogError("worker", r.Result.Err, "Discovery failed for %s", query)
	default:
		w.log.Warn().Err(r.Result.Err).Str("query", query).Msg("Discovery stopped")
	}
}

func (w *Worker) canceled(job Job) discovery.Result {
	return discovery.Result{
		Query:   job.Query,
		Outcome: discovery.OutcomeError,
		Err:     w.ctx.Err(),
	}
}

func totalAccepted(results []JobResult) int {
	n := 0
	for _, r := range results {
		n += r.Result.Accepted
	}
	return n
}
