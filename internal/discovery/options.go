package discovery

import (
	"time"

	"sjsage522/leadworker/internal/browser"
)

const (
	// DefaultSearchURL is the map search surface
	DefaultSearchURL = "https://www.google.com/maps"
	// EndOfListMarker is rendered once the feed has no more results
	EndOfListMarker = "You've reached the end of the list"

	viewportWidth  = 1280
	viewportHeight = 800
)

var (
	// FeedSelector matches the scrollable results container
	FeedSelector = browser.CSS(`div[role="feed"]`)
	// ListingSelector matches one result in the feed
	ListingSelector = browser.CSS(`div[role="article"]`)
)

// Options tunes a crawl
type Options struct {
	SearchURL  string
	UserAgent  string
	Headless   bool
	ChromePath string

	NavigationTimeout time.Duration
	SearchBoxTimeout  time.Duration
	FeedTimeout       time.Duration

	// ElementTimeout bounds each read or click on a single element
	ElementTimeout time.Duration

	ConsentDelay DelayPolicy
	SettleDelay  DelayPolicy
	ScrollDelay  DelayPolicy

	// MaxStaleScrolls ends the crawl after this many consecutive scrolls that
	// reveal no new listings. Zero disables the check.
	MaxStaleScrolls int

	// ScreenshotPath receives a diagnostic capture when a crawl fails
	ScreenshotPath string
}

// DefaultOptions returns the production timings
func DefaultOptions() Options {
	return Options{
		SearchURL:         DefaultSearchURL,
		Headless:          true,
		NavigationTimeout: 60 * time.Second,
		SearchBoxTimeout:  30 * time.Second,
		FeedTimeout:       30 * time.Second,
		ElementTimeout:    10 * time.Second,
		ConsentDelay:      FixedDelay(2 * time.Second),
		SettleDelay:       FixedDelay(time.Second),
		ScrollDelay:       RandomDelay{Min: 2 * time.Second, Max: 5 * time.Second},
		MaxStaleScrolls:   5,
		ScreenshotPath:    "error_screenshot.png",
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.SearchURL == "" {
		o.SearchURL = d.SearchURL
	}
	if o.NavigationTimeout <= 0 {
		o.NavigationTimeout = d.NavigationTimeout
	}
	if o.SearchBoxTimeout <= 0 {
		o.SearchBoxTimeout = d.SearchBoxTimeout
	}
	if o.FeedTimeout <= 0 {
		o.FeedTimeout = d.FeedTimeout
	}
	if o.ElementTimeout <= 0 {
		o.ElementTimeout = d.ElementTimeout
	}
	if o.ConsentDelay == nil {
		o.ConsentDelay = d.ConsentDelay
	}
	if o.SettleDelay == nil {
		o.SettleDelay = d.SettleDelay
	}
	if o.ScrollDelay == nil {
		o.ScrollDelay = d.ScrollDelay
	}
	return o
}
