// Package browser defines the automation capability set the discovery
// crawler needs and provides chromedp and rod implementations of it.
package browser

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by WaitVisible when the selector never became visible
var ErrNotFound = errors.New("element not found")

// By selects how a selector expression is interpreted
type By int

const (
	// ByCSS interprets the expression as a CSS selector
	ByCSS By = iota
	// ByXPath interprets the expression as an XPath expression
	ByXPath
)

// Selector is a query expression with its dialect
type Selector struct {
	Expr string
	By   By
}

// CSS builds a CSS selector
func CSS(expr string) Selector {
	return Selector{Expr: expr, By: ByCSS}
}

// XPath builds an XPath selector
func XPath(expr string) Selector {
	return Selector{Expr: expr, By: ByXPath}
}

func (s Selector) String() string {
	if s.By == ByXPath {
		return "xpath:" + s.Expr
	}
	return s.Expr
}

// Key is a keyboard key understood by every engine
type Key string

const (
	KeyEnter    Key = "Enter"
	KeyPageDown Key = "PageDown"
)

// Options configures a new browser session
type Options struct {
	Headless   bool
	ChromePath string
	UserAgent  string
	Width      int
	Height     int

	// ElementTimeout bounds every Element operation. Zero means no limit
	// beyond the caller's context.
	ElementTimeout time.Duration
}

// Launcher starts browser sessions
type Launcher interface {
	Launch(ctx context.Context, opts Options) (Session, error)
	// Engine returns the identifier recorded on leads found through this launcher
	Engine() string
}

// Session is a single page-level automation session
type Session interface {
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	// QueryAll returns every element currently matching sel without waiting
	QueryAll(ctx context.Context, sel Selector) ([]Element, error)
	// WaitVisible blocks until sel is visible or the timeout elapses
	WaitVisible(ctx context.Context, sel Selector, timeout time.Duration) (Element, error)
	PressKey(ctx context.Context, key Key) error
	// TextVisible reports whether text occurs in the rendered page
	TextVisible(ctx context.Context, text string) (bool, error)
	Screenshot(ctx context.Context, path string) error
	Close() error
}

// Element is a handle to a DOM node in a session
type Element interface {
	// Attribute returns the attribute value and whether it was present
	Attribute(ctx context.Context, name string) (string, bool, error)
	Click(ctx context.Context) error
	Focus(ctx context.Context) error
	Type(ctx context.Context, text string) error
	OuterHTML(ctx context.Context) (string, error)
}
