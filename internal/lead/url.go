package lead

import (
	"net/url"
	"strings"
)

var trackingParams = map[string]bool{
	"gclid":   true,
	"fbclid":  true,
	"msclkid": true,
	"mc_cid":  true,
	"mc_eid":  true,
	"mkt_tok": true,
}

// NormalizeURL canonicalizes a website href scraped from a listing.
// Redirect wrappers of the form /url?q=<target> are unwrapped when they are
// relative or served by a Google host. Only http(s) URLs with a host are
// accepted.
func NormalizeURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	if u.Path == "/url" && isRedirectHost(u.Hostname()) {
		if target := u.Query().Get("q"); target != "" {
			u, err = url.Parse(strings.TrimSpace(target))
			if err != nil {
				return "", false
			}
		}
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	u.Host = strings.ToLower(u.Host)
	if u.Host == "" {
		return "", false
	}
	u.Fragment = ""
	u.RawFragment = ""

	q := u.Query()
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") || trackingParams[lk] {
			q.Del(k)
		}
	}
	u.RawQuery = q.Encode()

	if u.Path == "/" {
		u.Path = ""
		u.RawPath = ""
	}

	return u.String(), true
}

// isRedirectHost reports whether host serves the /url redirect wrapper. An
// empty host is a relative href on the map page itself.
func isRedirectHost(host string) bool {
	host = strings.ToLower(host)
	if host == "" || strings.HasSuffix(host, ".google.com") {
		return true
	}

	rest, ok := strings.CutPrefix(strings.TrimPrefix(host, "www."), "google.")
	if !ok {
		return false
	}
	// google.com, google.de, google.co.uk, google.com.au
	labels := strings.Split(rest, ".")
	if len(labels) > 2 {
		return false
	}
	for _, l := range labels {
		if l == "" || len(l) > 3 {
			return false
		}
	}
	return true
}
