package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"sjsage522/leadworker/internal/lead"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// RodLauncher starts sessions through go-rod with the stealth page preset
type RodLauncher struct{}

// NewRodLauncher creates a rod launcher
func NewRodLauncher() *RodLauncher {
	return &RodLauncher{}
}

// Engine returns the engine identifier
func (l *RodLauncher) Engine() string {
	return lead.EngineRod
}

// Launch starts Chrome, connects to it and opens a stealth page
func (l *RodLauncher) Launch(ctx context.Context, opts Options) (Session, error) {
	ln := launcher.New().
		Headless(opts.Headless).
		NoSandbox(true).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-dev-shm-usage")
	if opts.ChromePath != "" {
		ln = ln.Bin(opts.ChromePath)
	}

	u, err := ln.Context(ctx).Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		ln.Kill()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	s := &rodSession{browser: b, launcher: ln, elementTimeout: opts.ElementTimeout}

	pg, err := stealth.Page(b)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("create stealth page: %w", err)
	}
	s.page = pg

	if opts.UserAgent != "" {
		if err := pg.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: opts.UserAgent}); err != nil {
			s.Close()
			return nil, fmt.Errorf("set user agent: %w", err)
		}
	}
	if opts.Width > 0 && opts.Height > 0 {
		err := pg.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             opts.Width,
			Height:            opts.Height,
			DeviceScaleFactor: 1,
		})
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("set viewport: %w", err)
		}
	}

	return s, nil
}

type rodSession struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page

	elementTimeout time.Duration
}

func (s *rodSession) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	p := s.page.Context(tctx)
	if err := p.Navigate(url); err != nil {
		return err
	}
	return p.WaitLoad()
}

func (s *rodSession) QueryAll(ctx context.Context, sel Selector) ([]Element, error) {
	p := s.page.Context(ctx)

	var (
		found rod.Elements
		err   error
	)
	if sel.By == ByXPath {
		found, err = p.ElementsX(sel.Expr)
	} else {
		found, err = p.Elements(sel.Expr)
	}
	if err != nil {
		return nil, err
	}

	elements := make([]Element, 0, len(found))
	for _, el := range found {
		elements = append(elements, &rodElement{el: el, timeout: s.elementTimeout})
	}
	return elements, nil
}

func (s *rodSession) WaitVisible(ctx context.Context, sel Selector, timeout time.Duration) (Element, error) {
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	p := s.page.Context(tctx)

	var (
		el  *rod.Element
		err error
	)
	if sel.By == ByXPath {
		el, err = p.ElementX(sel.Expr)
	} else {
		el, err = p.Element(sel.Expr)
	}
	if err == nil {
		err = el.WaitVisible()
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%s: %w", sel, ErrNotFound)
		}
		return nil, err
	}

	// Detach from the wait deadline before handing the element out.
	return &rodElement{el: el.Context(context.Background()), timeout: s.elementTimeout}, nil
}

func (s *rodSession) PressKey(ctx context.Context, key Key) error {
	var k input.Key
	switch key {
	case KeyEnter:
		k = input.Enter
	case KeyPageDown:
		k = input.PageDown
	default:
		return fmt.Errorf("unsupported key %q", key)
	}
	return s.page.Context(ctx).Keyboard.Press(k)
}

func (s *rodSession) TextVisible(ctx context.Context, text string) (bool, error) {
	res, err := s.page.Context(ctx).Eval(`(t) => !!document.body && document.body.innerText.includes(t)`, text)
	if err != nil {
		return false, err
	}
	return res.Value.Bool(), nil
}

func (s *rodSession) Screenshot(ctx context.Context, path string) error {
	buf, err := s.page.Context(ctx).Screenshot(true, nil)
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}

func (s *rodSession) Close() error {
	err := s.browser.Close()
	s.launcher.Kill()
	s.launcher.Cleanup()
	return err
}

type rodElement struct {
	el      *rod.Element
	timeout time.Duration
}

// bound returns the element scoped to ctx and the element timeout
func (e *rodElement) bound(ctx context.Context) (*rod.Element, context.CancelFunc) {
	if e.timeout <= 0 {
		return e.el.Context(ctx), func() {}
	}
	tctx, cancel := context.WithTimeout(ctx, e.timeout)
	return e.el.Context(tctx), cancel
}

func (e *rodElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	el, cancel := e.bound(ctx)
	defer cancel()

	v, err := el.Attribute(name)
	if err != nil {
		return "", false, err
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

func (e *rodElement) Click(ctx context.Context) error {
	el, cancel := e.bound(ctx)
	defer cancel()
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (e *rodElement) Focus(ctx context.Context) error {
	el, cancel := e.bound(ctx)
	defer cancel()
	return el.Focus()
}

func (e *rodElement) Type(ctx context.Context, text string) error {
	el, cancel := e.bound(ctx)
	defer cancel()
	return el.Input(text)
}

func (e *rodElement) OuterHTML(ctx context.Context) (string, error) {
	el, cancel := e.bound(ctx)
	defer cancel()
	return el.HTML()
}
