package discovery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"sjsage522/leadworker/internal/browser"
	"sjsage522/leadworker/internal/lead"
)

// fakeListing is one scripted result in the feed
type fakeListing struct {
	label    string
	website  string
	clickErr error
	labelErr error
	// stuck makes Click hang until its context ends
	stuck bool
}

// MockSession is a scripted browser session. batch returns the listings
// visible after the given number of scrolls.
type MockSession struct {
	batch func(scrolls int) []fakeListing

	navigateErr      error
	searchBoxMissing bool
	searchBoxRole    bool
	consent          bool
	feedErr          error
	feedGoneAfter    int // feed disappears once scrolls reach this; 0 never
	endAfter         int // end marker shows once scrolls reach this; 0 never
	listErrAfter     int // listing query fails once scrolls reach this; 0 never

	scrolls        int
	current        *fakeListing
	typed          string
	keys           []browser.Key
	clicks         []string
	consentClicked bool
	screenshots    []string
	closed         bool
}

var _ browser.Session = (*MockSession)(nil)

func (m *MockSession) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	return m.navigateErr
}

func (m *MockSession) feedPresent() bool {
	return m.feedGoneAfter == 0 || m.scrolls < m.feedGoneAfter
}

func (m *MockSession) QueryAll(ctx context.Context, sel browser.Selector) ([]browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch sel.Expr {
	case ListingSelector.Expr:
		if m.listErrAfter > 0 && m.scrolls >= m.listErrAfter {
			return nil, errors.New("target closed")
		}
		var out []browser.Element
		for _, l := range m.batch(m.scrolls) {
			out = append(out, &MockElement{session: m, listing: l})
		}
		return out, nil
	case FeedSelector.Expr:
		if m.feedPresent() {
			return []browser.Element{&MockElement{session: m}}, nil
		}
		return nil, nil
	case authorityLink:
		if m.current != nil && m.current.website != "" {
			return []browser.Element{&MockElement{session: m, href: m.current.website}}, nil
		}
		return nil, nil
	case `input#searchboxinput`:
		if m.searchBoxMissing || m.searchBoxRole {
			return nil, nil
		}
		return []browser.Element{&MockElement{session: m}}, nil
	case `[role="searchbox"], input[type="search"]`:
		if m.searchBoxRole {
			return []browser.Element{&MockElement{session: m}}, nil
		}
		return nil, nil
	case `button[aria-label="Accept all"]`:
		if m.consent {
			return []browser.Element{&MockElement{session: m, consent: true}}, nil
		}
		return nil, nil
	}
	return nil, nil
}

func (m *MockSession) WaitVisible(ctx context.Context, sel browser.Selector, timeout time.Duration) (browser.Element, error) {
	switch sel.Expr {
	case FeedSelector.Expr:
		if m.feedErr != nil {
			return nil, m.feedErr
		}
		return &MockElement{session: m}, nil
	default:
		els, _ := m.QueryAll(ctx, sel)
		if len(els) == 0 {
			return nil, fmt.Errorf("%s: %w", sel, browser.ErrNotFound)
		}
		return els[0], nil
	}
}

func (m *MockSession) PressKey(ctx context.Context, key browser.Key) error {
	m.keys = append(m.keys, key)
	if key == browser.KeyPageDown {
		m.scrolls++
	}
	return nil
}

func (m *MockSession) TextVisible(ctx context.Context, text string) (bool, error) {
	if text != EndOfListMarker {
		return false, nil
	}
	return m.endAfter > 0 && m.scrolls >= m.endAfter, nil
}

func (m *MockSession) Screenshot(ctx context.Context, path string) error {
	m.screenshots = append(m.screenshots, path)
	return nil
}

func (m *MockSession) Close() error {
	m.closed = true
	return nil
}

// MockElement is a node handed out by MockSession
type MockElement struct {
	session *MockSession
	listing fakeListing
	href    string
	html    string
	consent bool
}

var _ browser.Element = (*MockElement)(nil)

func (e *MockElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	switch name {
	case "aria-label":
		if e.listing.labelErr != nil {
			return "", false, e.listing.labelErr
		}
		return e.listing.label, e.listing.label != "", nil
	case "href":
		return e.href, e.href != "", nil
	}
	return "", false, nil
}

func (e *MockElement) Click(ctx context.Context) error {
	if e.consent {
		e.session.consentClicked = true
		return nil
	}
	if e.listing.clickErr != nil {
		return e.listing.clickErr
	}
	if e.listing.stuck {
		<-ctx.Done()
		return ctx.Err()
	}
	l := e.listing
	e.session.current = &l
	e.session.clicks = append(e.session.clicks, l.label)
	return nil
}

func (e *MockElement) Focus(ctx context.Context) error {
	return nil
}

func (e *MockElement) Type(ctx context.Context, text string) error {
	e.session.typed = text
	return nil
}

func (e *MockElement) OuterHTML(ctx context.Context) (string, error) {
	return e.html, nil
}

// MockLauncher hands out a prepared session
type MockLauncher struct {
	session   *MockSession
	launchErr error
	launched  int
	opts      browser.Options
}

var _ browser.Launcher = (*MockLauncher)(nil)

func (l *MockLauncher) Launch(ctx context.Context, opts browser.Options) (browser.Session, error) {
	l.launched++
	l.opts = opts
	if l.launchErr != nil {
		return nil, l.launchErr
	}
	return l.session, nil
}

func (l *MockLauncher) Engine() string {
	return "google_maps_mock"
}

// MockStore is an in-memory LeadStore
type MockStore struct {
	mu          sync.Mutex
	leads       map[string]lead.Lead
	order       []string
	existsCalls []string
	existsErr   error
	upsertErr   error
}

var _ LeadStore = (*MockStore)(nil)

func NewMockStore(existing ...string) *MockStore {
	s := &MockStore{leads: make(map[string]lead.Lead)}
	for _, u := range existing {
		s.leads[u] = lead.Lead{WebsiteURL: u, Status: lead.StatusProcessed}
	}
	return s
}

func (s *MockStore) Exists(ctx context.Context, websiteURL string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.existsCalls = append(s.existsCalls, websiteURL)
	if s.existsErr != nil {
		return false, s.existsErr
	}
	_, ok := s.leads[websiteURL]
	return ok, nil
}

func (s *MockStore) UpsertDiscovered(ctx context.Context, l lead.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.leads[l.WebsiteURL] = l
	s.order = append(s.order, l.WebsiteURL)
	return nil
}

// staticBatch returns the same listings regardless of scroll position
func staticBatch(listings ...fakeListing) func(int) []fakeListing {
	return func(int) []fakeListing {
		return listings
	}
}

// growingBatch reveals perScroll unique listings per scroll, cumulatively
func growingBatch(perScroll int) func(int) []fakeListing {
	return func(scrolls int) []fakeListing {
		n := (scrolls + 1) * perScroll
		out := make([]fakeListing, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, fakeListing{
				label:   fmt.Sprintf("Business %d", i),
				website: fmt.Sprintf("https://business%d.example", i),
			})
		}
		return out
	}
}

func testOptions() Options {
	return Options{
		ConsentDelay:   NoDelay{},
		SettleDelay:    NoDelay{},
		ScrollDelay:    NoDelay{},
		ElementTimeout: 50 * time.Millisecond,
		ScreenshotPath: "error_screenshot.png",
	}
}
