package discovery

import (
	"context"
	"fmt"
	"time"

	"sjsage522/leadworker/internal/browser"
)

// Scroller reveals more results by paging the feed
type Scroller struct {
	delay   DelayPolicy
	timeout time.Duration
}

// NewScroller creates a scroller that pauses with delay after each page.
// Focusing the feed is bounded by timeout.
func NewScroller(delay DelayPolicy, timeout time.Duration) *Scroller {
	return &Scroller{delay: delay, timeout: timeout}
}

// Scroll pages the feed down once. It returns false when there is no feed.
func (sc *Scroller) Scroll(ctx context.Context, s browser.Session) (bool, error) {
	feeds, err := s.QueryAll(ctx, FeedSelector)
	if err != nil {
		return false, fmt.Errorf("locate feed: %w", err)
	}
	if len(feeds) == 0 {
		return false, nil
	}

	fctx, cancel := boundElement(ctx, sc.timeout)
	err = feeds[0].Focus(fctx)
	cancel()
	if err != nil {
		return false, fmt.Errorf("focus feed: %w", err)
	}
	if err := s.PressKey(ctx, browser.KeyPageDown); err != nil {
		return false, fmt.Errorf("page down: %w", err)
	}
	if err := pause(ctx, sc.delay); err != nil {
		return false, err
	}
	return true, nil
}

// ReachedEnd reports whether the end-of-list marker is showing
func (sc *Scroller) ReachedEnd(ctx context.Context, s browser.Session) (bool, error) {
	return s.TextVisible(ctx, EndOfListMarker)
}
