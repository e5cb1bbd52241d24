package discovery

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"sjsage522/leadworker/helpers"
	"sjsage522/leadworker/internal/browser"
	"sjsage522/leadworker/internal/lead"
	"sjsage522/leadworker/logger"
	apperrors "sjsage522/leadworker/pkg/errors"
)

const screenshotTimeout = 10 * time.Second

// Outcome is the terminal state of a crawl
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeExhausted Outcome = "exhausted"
	OutcomeError     Outcome = "error"
)

// Result summarizes a finished crawl. Accepted counts only new leads;
// store duplicates are reported in Duplicates.
type Result struct {
	Query    Query
	Engine   string
	Accepted int
	Outcome  Outcome
	Err      error

	Duplicates  int
	RepeatSeen  int
	Unusable    int
	Failed      int
	StoreErrors int
	Scrolls     int

	Duration time.Duration
}

// Crawler runs incremental discovery crawls against the results feed
type Crawler struct {
	launcher  browser.Launcher
	store     LeadStore
	opts      Options
	boot      *Bootstrapper
	scroller  *Scroller
	extractor *Extractor
	log       *logger.Logger
}

// NewCrawler creates a crawler. The store is shared by every crawl.
func NewCrawler(launcher browser.Launcher, store LeadStore, opts Options) *Crawler {
	opts = opts.withDefaults()
	log := logger.ForCrawler(launcher.Engine())

	return &Crawler{
		launcher:  launcher,
		store:     store,
		opts:      opts,
		boot:      NewBootstrapper(launcher, opts, log),
		scroller:  NewScroller(opts.ScrollDelay, opts.ElementTimeout),
		extractor: NewExtractor(launcher.Engine(), opts.SettleDelay, opts.ElementTimeout),
		log:       log,
	}
}

// Engine returns the engine identifier of the underlying launcher
func (c *Crawler) Engine() string {
	return c.launcher.Engine()
}

// crawlRun is the state owned by a single Crawl call
type crawlRun struct {
	query  Query
	result *Result
	run    *RunSet
	gate   *Gate

	// labels holds every label seen; resolved holds labels whose detail
	// panel was read and need not be opened again.
	labels   *RunSet
	resolved *RunSet
	log      *logger.Logger
}

// Crawl discovers up to q.Target new leads. It never panics on automation
// failures; the terminal state and any error are reported in the Result.
func (c *Crawler) Crawl(ctx context.Context, q Query) (res Result) {
	start := time.Now()
	res = Result{Query: q, Engine: c.Engine()}
	log := c.log.WithFields(logger.Fields{
		"niche":    q.Niche,
		"location": q.Location,
		"target":   q.Target,
	})

	defer func() {
		res.Duration = time.Since(start)
		ev := log.Info()
		if res.Outcome == OutcomeError {
			ev = log.Error().Err(res.Err)
		}
		ev.Int("accepted", res.Accepted).
			Str("outcome", string(res.Outcome)).
			Int("duplicates", res.Duplicates).
			Int("unusable", res.Unusable).
			Int("failed", res.Failed).
			Int("store_errors", res.StoreErrors).
			Int("scrolls", res.Scrolls).
			Dur("duration", res.Duration).
			Msgf("Discovery complete. Found %d new leads", res.Accepted)
	}()

	if err := q.Validate(); err != nil {
		res.Outcome, res.Err = OutcomeError, err
		return res
	}

	log.Info().Str("query", q.SearchText()).Msg("Starting discovery")

	session, err := c.boot.Open(ctx)
	if err != nil {
		res.Outcome, res.Err = OutcomeError, err
		return res
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close browser session")
		}
	}()

	if err := c.boot.Prepare(ctx, session, q); err != nil {
		c.screenshot(ctx, session, q, log)
		res.Outcome, res.Err = OutcomeError, err
		return res
	}

	run := NewRunSet()
	cr := &crawlRun{
		query:    q,
		result:   &res,
		run:      run,
		gate:     NewGate(c.store, run),
		labels:   NewRunSet(),
		resolved: NewRunSet(),
		log:      log,
	}

	stale := 0
	for {
		fresh, err := c.extractBatch(ctx, session, cr)
		if err != nil {
			c.fail(ctx, session, cr, "listing extraction failed", err)
			return res
		}

		if res.Accepted >= q.Target {
			res.Outcome = OutcomeSuccess
			return res
		}

		if res.Scrolls > 0 && c.opts.MaxStaleScrolls > 0 {
			if fresh == 0 {
				stale++
			} else {
				stale = 0
			}
			if stale >= c.opts.MaxStaleScrolls {
				log.Info().Int("stale_scrolls", stale).Msg("Feed stopped growing")
				res.Outcome = OutcomeExhausted
				return res
			}
		}

		more, err := c.scroller.Scroll(ctx, session)
		if err != nil {
			c.fail(ctx, session, cr, "scroll failed", err)
			return res
		}
		if !more {
			log.Info().Msg("No feed found, stopping")
			res.Outcome = OutcomeExhausted
			return res
		}
		res.Scrolls++

		end, err := c.scroller.ReachedEnd(ctx, session)
		if err != nil {
			c.fail(ctx, session, cr, "end marker check failed", err)
			return res
		}
		if end {
			log.Info().Msg("End of results reached")
			res.Outcome = OutcomeExhausted
			return res
		}
	}
}

// extractBatch processes every visible listing until the quota is met. It
// returns how many listings were seen for the first time. Only automation
// failures on the listing collection itself, or cancellation, are returned.
func (c *Crawler) extractBatch(ctx context.Context, s browser.Session, cr *crawlRun) (int, error) {
	listings, err := c.extractor.Listings(ctx, s)
	if err != nil {
		return 0, err
	}

	res := cr.result
	fresh := 0
	for _, listing := range listings {
		if res.Accepted >= cr.query.Target {
			break
		}
		if err := ctx.Err(); err != nil {
			return fresh, err
		}

		label, err := c.extractor.Label(ctx, listing)
		if err != nil {
			res.Failed++
			cr.log.Debug().Err(err).Msg("Skipping unreadable listing")
			continue
		}
		if label == "" {
			res.Unusable++
			continue
		}
		if !cr.labels.Has(label) {
			cr.labels.Add(label)
			fresh++
		}
		if cr.resolved.Has(label) {
			continue
		}

		cand, err := c.extractor.Resolve(ctx, s, listing, label)
		if err != nil {
			res.Failed++
			cr.log.Debug().Err(err).Str("company", label).Msg("Skipping listing")
			continue
		}
		cr.resolved.Add(label)
		if !cand.Usable() {
			res.Unusable++
			cr.log.Debug().Str("company", label).Msg("Listing has no website")
			continue
		}

		c.admit(ctx, cr, cand)
	}
	return fresh, nil
}

// admit runs the dedup gate and persists new leads
func (c *Crawler) admit(ctx context.Context, cr *crawlRun, cand Candidate) {
	res := cr.result
	log := cr.log.WithFields(logger.Fields{"company": cand.Label, "website": cand.Website})

	d := cr.gate.Check(ctx, cand.Website)
	if d.StoreErr != nil {
		res.StoreErrors++
		log.Warn().Err(d.StoreErr).Msg("Lead existence check failed, treating as new")
	}

	switch d.Verdict {
	case SeenInRun:
		res.RepeatSeen++
		return
	case KnownToStore:
		res.Duplicates++
		log.Info().Msg("Duplicate, skipping")
		return
	}

	l := lead.NewDiscovered(cr.query.Niche, cr.query.Location, cand.Label, cand.Website, c.Engine())
	res.Accepted++
	if err := c.store.UpsertDiscovered(ctx, l); err != nil {
		res.StoreErrors++
		log.Error().Err(err).Msg("Failed to save lead")
		return
	}
	log.Info().
		Int("accepted", res.Accepted).
		Int("target", cr.query.Target).
		Msg("Valid lead found and saved")
}

func (c *Crawler) fail(ctx context.Context, s browser.Session, cr *crawlRun, msg string, err error) {
	c.screenshot(ctx, s, cr.query, cr.log)
	cr.result.Outcome = OutcomeError
	cr.result.Err = apperrors.NewBrowser(c.Engine(), msg, err)
}

// screenshot captures a diagnostic image. Best-effort.
func (c *Crawler) screenshot(ctx context.Context, s browser.Session, q Query, log *logger.Logger) {
	if c.opts.ScreenshotPath == "" {
		return
	}
	path := screenshotPath(c.opts.ScreenshotPath, q)

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), screenshotTimeout)
	defer cancel()

	if err := s.Screenshot(sctx, path); err != nil {
		log.Warn().Err(err).Msg("Failed to capture diagnostic screenshot")
		return
	}
	log.Info().Str("path", path).Msg("Screenshot saved")
}

// screenshotPath inserts the query slug before the extension of base so
// concurrent crawls do not overwrite each other's capture.
//
//	error_screenshot.png + "dentists"/"Austin, TX" -> error_screenshot-dentists-austin-tx.png
func screenshotPath(base string, q Query) string {
	slug := helpers.Slugify(q.Niche + " " + q.Location)
	if slug == "" {
		return base
	}
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "-" + slug + ext
}
