package discovery

import (
	"context"

	"sjsage522/leadworker/helpers"
	"sjsage522/leadworker/internal/browser"
	"sjsage522/leadworker/logger"
	apperrors "sjsage522/leadworker/pkg/errors"
)

// Bootstrapper opens a browser session and brings it to a populated results feed
type Bootstrapper struct {
	launcher  browser.Launcher
	opts      Options
	consent   []Locator
	searchBox []Locator
	log       *logger.Logger
}

// NewBootstrapper creates a bootstrapper with the default locator chains
func NewBootstrapper(launcher browser.Launcher, opts Options, log *logger.Logger) *Bootstrapper {
	return &Bootstrapper{
		launcher:  launcher,
		opts:      opts.withDefaults(),
		consent:   ConsentLocators(),
		searchBox: SearchBoxLocators(),
		log:       log,
	}
}

// Open launches a browser session
func (b *Bootstrapper) Open(ctx context.Context) (browser.Session, error) {
	ua := b.opts.UserAgent
	if ua == "" {
		ua = helpers.RandomUserAgent()
	}

	s, err := b.launcher.Launch(ctx, browser.Options{
		Headless:   b.opts.Headless,
		ChromePath: b.opts.ChromePath,
		UserAgent:  ua,
		Width:      viewportWidth,
		Height:     viewportHeight,

		ElementTimeout: b.opts.ElementTimeout,
	})
	if err != nil {
		return nil, apperrors.NewFatalSetup(b.launcher.Engine(), "failed to launch browser", err)
	}
	return s, nil
}

// Prepare navigates s to the search surface, submits q and waits for the
// results feed. Any failure is a fatal setup error.
func (b *Bootstrapper) Prepare(ctx context.Context, s browser.Session, q Query) error {
	engine := b.launcher.Engine()

	if err := s.Navigate(ctx, b.opts.SearchURL, b.opts.NavigationTimeout); err != nil {
		return apperrors.NewFatalSetup(engine, "search surface unreachable", err)
	}

	b.dismissConsent(ctx, s)

	box, err := b.searchInput(ctx, s)
	if err != nil {
		return apperrors.NewFatalSetup(engine, "search input not found", err)
	}
	if err := box.Type(ctx, q.SearchText()); err != nil {
		return apperrors.NewFatalSetup(engine, "failed to type query", err)
	}
	if err := s.PressKey(ctx, browser.KeyEnter); err != nil {
		return apperrors.NewFatalSetup(engine, "failed to submit query", err)
	}

	if _, err := s.WaitVisible(ctx, FeedSelector, b.opts.FeedTimeout); err != nil {
		return apperrors.NewFatalSetup(engine, "results feed did not appear", err)
	}

	b.log.Debug().Str("query", q.SearchText()).Msg("Results feed ready")
	return nil
}

// dismissConsent clicks the first consent button found. Best-effort.
func (b *Bootstrapper) dismissConsent(ctx context.Context, s browser.Session) {
	el, loc, err := firstMatch(ctx, s, b.consent)
	if el == nil {
		if err != nil {
			b.log.Debug().Err(err).Msg("Consent lookup failed")
		}
		return
	}

	if err := el.Click(ctx); err != nil {
		b.log.Debug().Err(err).Str("selector", loc.Selector().String()).Msg("Consent click failed")
		return
	}
	if err := pause(ctx, b.opts.ConsentDelay); err != nil {
		b.log.Debug().Err(err).Msg("Consent settle interrupted")
	}
}

// searchInput returns the first search box strategy with a match, falling
// back to waiting on the last one
func (b *Bootstrapper) searchInput(ctx context.Context, s browser.Session) (browser.Element, error) {
	_, loc, _ := firstMatch(ctx, s, b.searchBox)
	if loc == nil {
		loc = b.searchBox[len(b.searchBox)-1]
	}
	return s.WaitVisible(ctx, loc.Selector(), b.opts.SearchBoxTimeout)
}
