package discovery

import (
	"context"
	"strings"

	"sjsage522/leadworker/internal/browser"

	"github.com/PuerkitoBio/goquery"
)

const (
	authorityLink   = `a[data-item-id="authority"]`
	websiteAriaLink = `a[aria-label^="Website"]`
)

// WebsiteStrategy resolves the website href of the listing whose detail
// panel is currently open
type WebsiteStrategy interface {
	Resolve(ctx context.Context, s browser.Session) (string, bool)
}

// LinkStrategy reads the href of the first live element matching Selector
type LinkStrategy struct {
	Selector browser.Selector
}

// Resolve implements WebsiteStrategy
func (l LinkStrategy) Resolve(ctx context.Context, s browser.Session) (string, bool) {
	links, err := s.QueryAll(ctx, l.Selector)
	if err != nil || len(links) == 0 {
		return "", false
	}

	href, ok, err := links[0].Attribute(ctx, "href")
	if err != nil || !ok {
		return "", false
	}
	href = strings.TrimSpace(href)
	return href, href != ""
}

// PanelStrategy snapshots the detail panel markup and searches it offline
type PanelStrategy struct {
	Panel browser.Selector
	Links string
}

// Resolve implements WebsiteStrategy
func (p PanelStrategy) Resolve(ctx context.Context, s browser.Session) (string, bool) {
	panels, err := s.QueryAll(ctx, p.Panel)
	if err != nil {
		return "", false
	}

	for _, panel := range panels {
		html, err := panel.OuterHTML(ctx)
		if err != nil {
			continue
		}
		if href, ok := findLink(html, p.Links); ok {
			return href, true
		}
	}
	return "", false
}

func findLink(html, selector string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}

	var href string
	doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if v, ok := sel.Attr("href"); ok && strings.TrimSpace(v) != "" {
			href = strings.TrimSpace(v)
			return false
		}
		return true
	})
	return href, href != ""
}

// DefaultWebsiteStrategies is the ordered chain used by the extractor
func DefaultWebsiteStrategies() []WebsiteStrategy {
	return []WebsiteStrategy{
		LinkStrategy{Selector: browser.CSS(authorityLink)},
		LinkStrategy{Selector: browser.CSS(websiteAriaLink)},
		PanelStrategy{
			Panel: browser.CSS(`div[role="main"]`),
			Links: authorityLink + ", " + websiteAriaLink,
		},
	}
}
