package discovery

import (
	"context"
	"fmt"

	"sjsage522/leadworker/internal/browser"
)

// Locator is one strategy for finding an element on the page
type Locator interface {
	// Selector is the expression this locator waits on
	Selector() browser.Selector
	// TryLocate returns the first element currently matching, without waiting
	TryLocate(ctx context.Context, s browser.Session) (browser.Element, bool, error)
}

type selectorLocator struct {
	sel browser.Selector
}

// ByCSS locates elements with a CSS selector
func ByCSS(expr string) Locator {
	return selectorLocator{sel: browser.CSS(expr)}
}

// ByRole locates elements by ARIA role, including the implicit searchbox
// role of search inputs
func ByRole(role string) Locator {
	expr := fmt.Sprintf(`[role=%q]`, role)
	if role == "searchbox" {
		expr += `, input[type="search"]`
	}
	return selectorLocator{sel: browser.CSS(expr)}
}

// ByText locates tag elements whose normalized text contains text
func ByText(tag, text string) Locator {
	return selectorLocator{sel: browser.XPath(fmt.Sprintf(`//%s[contains(normalize-space(.), %q)]`, tag, text))}
}

func (l selectorLocator) Selector() browser.Selector {
	return l.sel
}

func (l selectorLocator) TryLocate(ctx context.Context, s browser.Session) (browser.Element, bool, error) {
	elements, err := s.QueryAll(ctx, l.sel)
	if err != nil {
		return nil, false, err
	}
	if len(elements) == 0 {
		return nil, false, nil
	}
	return elements[0], true, nil
}

// firstMatch tries locators in order and returns the first hit. Errors from
// individual locators are skipped; the first one is returned if nothing matched.
func firstMatch(ctx context.Context, s browser.Session, locators []Locator) (browser.Element, Locator, error) {
	var firstErr error
	for _, loc := range locators {
		el, ok, err := loc.TryLocate(ctx, s)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if ok {
			return el, loc, nil
		}
	}
	return nil, nil, firstErr
}

// ConsentLocators finds the cookie/consent acceptance button
func ConsentLocators() []Locator {
	return []Locator{
		ByCSS(`button[aria-label="Accept all"]`),
		ByCSS(`button[aria-label="I agree"]`),
		ByText("button", "Accept all"),
		ByText("button", "I agree"),
		ByText("button", "Agree to all"),
	}
}

// SearchBoxLocators finds the search input across locales and versions
func SearchBoxLocators() []Locator {
	return []Locator{
		ByCSS(`input#searchboxinput`),
		ByRole("searchbox"),
		ByCSS(`input[name="q"]`),
	}
}
