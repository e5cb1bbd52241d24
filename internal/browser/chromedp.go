package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"sjsage522/leadworker/internal/lead"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/go-rod/stealth"
)

// ChromedpLauncher starts sessions on a locally spawned Chrome via chromedp
type ChromedpLauncher struct{}

// NewChromedpLauncher creates a chromedp launcher
func NewChromedpLauncher() *ChromedpLauncher {
	return &ChromedpLauncher{}
}

// Engine returns the engine identifier
func (l *ChromedpLauncher) Engine() string {
	return lead.EngineChromedp
}

// Launch spawns Chrome and opens a tab with the stealth script installed
func (l *ChromedpLauncher) Launch(ctx context.Context, opts Options) (Session, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-notifications", true),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.Width > 0 && opts.Height > 0 {
		allocOpts = append(allocOpts, chromedp.WindowSize(opts.Width, opts.Height))
	}
	if opts.ChromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ChromePath))
	}

	// The browser lives until Close, not until the launching context ends.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	s := &chromedpSession{
		ctx: tabCtx,
		cancel: func() {
			tabCancel()
			allocCancel()
		},
		elementTimeout: opts.ElementTimeout,
	}

	// The first Run allocates the browser and must use the tab context itself.
	if err := chromedp.Run(tabCtx); err != nil {
		s.cancel()
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	err := s.run(ctx, 0, chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := page.AddScriptToEvaluateOnNewDocument(stealth.JS).Do(ctx)
		return err
	}))
	if err != nil {
		s.cancel()
		return nil, fmt.Errorf("install stealth script: %w", err)
	}

	return s, nil
}

type chromedpSession struct {
	ctx    context.Context
	cancel func()

	elementTimeout time.Duration
}

// run executes actions on the tab, bounded by timeout and by the caller's ctx
func (s *chromedpSession) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(s.ctx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(s.ctx)
	}
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return nil
}

func (s *chromedpSession) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	return s.run(ctx, timeout, chromedp.Navigate(url))
}

func (s *chromedpSession) QueryAll(ctx context.Context, sel Selector) ([]Element, error) {
	var nodes []*cdp.Node
	err := s.run(ctx, 0, chromedp.Nodes(sel.Expr, &nodes, chromedpBy(sel, true), chromedp.AtLeast(0)))
	if err != nil {
		return nil, err
	}

	elements := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		elements = append(elements, &chromedpElement{session: s, id: n.NodeID})
	}
	return elements, nil
}

func (s *chromedpSession) WaitVisible(ctx context.Context, sel Selector, timeout time.Duration) (Element, error) {
	var nodes []*cdp.Node
	err := s.run(ctx, timeout, chromedp.Nodes(sel.Expr, &nodes, chromedpBy(sel, false), chromedp.NodeVisible))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s: %w", sel, ErrNotFound)
		}
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%s: %w", sel, ErrNotFound)
	}
	return &chromedpElement{session: s, id: nodes[0].NodeID}, nil
}

func (s *chromedpSession) PressKey(ctx context.Context, key Key) error {
	switch key {
	case KeyEnter:
		return s.run(ctx, 0, chromedp.KeyEvent(kb.Enter))
	case KeyPageDown:
		return s.run(ctx, 0, chromedp.KeyEvent(kb.PageDown))
	default:
		return fmt.Errorf("unsupported key %q", key)
	}
}

func (s *chromedpSession) TextVisible(ctx context.Context, text string) (bool, error) {
	quoted, err := json.Marshal(text)
	if err != nil {
		return false, err
	}

	var found bool
	script := fmt.Sprintf(`!!document.body && document.body.innerText.includes(%s)`, quoted)
	if err := s.run(ctx, 0, chromedp.Evaluate(script, &found)); err != nil {
		return false, err
	}
	return found, nil
}

func (s *chromedpSession) Screenshot(ctx context.Context, path string) error {
	var buf []byte
	if err := s.run(ctx, 0, chromedp.FullScreenshot(&buf, 90)); err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}

func (s *chromedpSession) Close() error {
	err := chromedp.Cancel(s.ctx)
	s.cancel()
	return err
}

type chromedpElement struct {
	session *chromedpSession
	id      cdp.NodeID
}

func (e *chromedpElement) ids() []cdp.NodeID {
	return []cdp.NodeID{e.id}
}

func (e *chromedpElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	var (
		value string
		ok    bool
	)
	err := e.session.run(ctx, e.session.elementTimeout, chromedp.AttributeValue(e.ids(), name, &value, &ok, chromedp.ByNodeID))
	if err != nil {
		return "", false, err
	}
	return value, ok, nil
}

func (e *chromedpElement) Click(ctx context.Context) error {
	return e.session.run(ctx, e.session.elementTimeout, chromedp.Click(e.ids(), chromedp.ByNodeID))
}

func (e *chromedpElement) Focus(ctx context.Context) error {
	return e.session.run(ctx, e.session.elementTimeout, chromedp.Focus(e.ids(), chromedp.ByNodeID))
}

func (e *chromedpElement) Type(ctx context.Context, text string) error {
	return e.session.run(ctx, e.session.elementTimeout, chromedp.SendKeys(e.ids(), text, chromedp.ByNodeID))
}

func (e *chromedpElement) OuterHTML(ctx context.Context) (string, error) {
	var html string
	if err := e.session.run(ctx, e.session.elementTimeout, chromedp.OuterHTML(e.ids(), &html, chromedp.ByNodeID)); err != nil {
		return "", err
	}
	return html, nil
}

// chromedpBy maps a selector to a chromedp query option. XPath always goes
// through DOM.performSearch.
func chromedpBy(sel Selector, all bool) chromedp.QueryOption {
	if sel.By == ByXPath {
		return chromedp.BySearch
	}
	if all {
		return chromedp.ByQueryAll
	}
	return chromedp.ByQuery
}
