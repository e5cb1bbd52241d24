package discovery

import (
	"context"
	"time"

	"sjsage522/leadworker/helpers"
	"sjsage522/leadworker/internal/browser"
	"sjsage522/leadworker/internal/lead"
	apperrors "sjsage522/leadworker/pkg/errors"
)

// Candidate is a listing as read from the page
type Candidate struct {
	Label   string
	Website string
}

// Usable reports whether the candidate can become a lead
func (c Candidate) Usable() bool {
	return c.Label != "" && c.Website != ""
}

// Extractor reads listings out of the results feed
type Extractor struct {
	engine     string
	settle     DelayPolicy
	timeout    time.Duration
	strategies []WebsiteStrategy
}

// NewExtractor creates an extractor with the default website strategies.
// Every element read or click is bounded by timeout.
func NewExtractor(engine string, settle DelayPolicy, timeout time.Duration) *Extractor {
	return &Extractor{
		engine:     engine,
		settle:     settle,
		timeout:    timeout,
		strategies: DefaultWebsiteStrategies(),
	}
}

// Listings returns the listings currently in the feed, in document order
func (e *Extractor) Listings(ctx context.Context, s browser.Session) ([]browser.Element, error) {
	return s.QueryAll(ctx, ListingSelector)
}

// Label returns the cleaned display name of a listing
func (e *Extractor) Label(ctx context.Context, listing browser.Element) (string, error) {
	tctx, cancel := boundElement(ctx, e.timeout)
	defer cancel()

	label, _, err := listing.Attribute(tctx, "aria-label")
	if err != nil {
		return "", apperrors.NewExtraction(e.engine, "read listing label", err)
	}
	return helpers.CleanText(label), nil
}

// Resolve opens the listing's detail panel and resolves its website. A
// candidate without a website is returned with an empty Website.
func (e *Extractor) Resolve(ctx context.Context, s browser.Session, listing browser.Element, label string) (Candidate, error) {
	if err := e.click(ctx, listing); err != nil {
		return Candidate{}, apperrors.NewExtraction(e.engine, "open listing "+label, err)
	}
	if err := pause(ctx, e.settle); err != nil {
		return Candidate{}, err
	}

	c := Candidate{Label: label}
	for _, strategy := range e.strategies {
		raw, ok := e.resolveWith(ctx, s, strategy)
		if !ok {
			continue
		}
		if website, ok := lead.NormalizeURL(raw); ok {
			c.Website = website
			break
		}
	}
	return c, nil
}

func (e *Extractor) click(ctx context.Context, listing browser.Element) error {
	tctx, cancel := boundElement(ctx, e.timeout)
	defer cancel()
	return listing.Click(tctx)
}

func (e *Extractor) resolveWith(ctx context.Context, s browser.Session, strategy WebsiteStrategy) (string, bool) {
	tctx, cancel := boundElement(ctx, e.timeout)
	defer cancel()
	return strategy.Resolve(tctx, s)
}

// boundElement derives a context for one element operation. A zero timeout
// leaves ctx unbounded.
func boundElement(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
