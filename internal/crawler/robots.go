package crawler

import (
	"context"
	"net/url"
	"regexp"
)

var disallowAllRe = regexp.MustCompile(`(?im)^\s*Disallow:\s*/\s*$`)

// Allowed reports whether robots.txt of base permits crawling. Only a
// blanket "Disallow: /" blocks; an unreachable robots.txt allows.
func (h *HTTPClient) Allowed(ctx context.Context, base string) bool {
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return true
	}
	robots := &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/robots.txt"}
	txt, err := h.FetchText(ctx, robots.String())
	if err != nil || txt == "" {
		return true
	}
	return !disallowAllRe.MatchString(txt)
}
