// Package htmlscan inspects HTML bodies for client-side redirect mechanisms
// and login-form markers. OAuth landing pages frequently bounce through
// meta-refresh or JS redirects that never show up as 3xx responses.
package htmlscan

import (
	"io"
	"net/url"
	"regexp"
	"strings"
)

var (
	metaRefreshRe = regexp.MustCompile(`(?i)<meta[^>]*http-equiv\s*=\s*["']?refresh["']?[^>]*content\s*=\s*["']\d+;\s*url=([^"'>]+)`)
	jsRedirectRe  = regexp.MustCompile(`(?i)(?:window\.|document\.)?location(?:\.href)?\s*=\s*['"]([^'"#]+)['"]`)
	formRe        = regexp.MustCompile(`(?i)<\s*form\b`)
	passwordRe    = regexp.MustCompile(`(?i)<\s*input[^>]+type\s*=\s*["']?password`)
)

// IsHTML checks whether the content type indicates an HTML body worth
// fetching.
func IsHTML(ct string) bool {
	return strings.Contains(ct, "text/html")
}

// NextRedirect inspects body for a meta-refresh or JS redirect and returns
// the resolved target plus the mechanism used.
func NextRedirect(body []byte, base *url.URL) (next *url.URL, via string, ok bool) {
	if m := metaRefreshRe.FindSubmatch(body); m != nil {
		if u, err := url.Parse(string(m[1])); err == nil {
			return base.ResolveReference(u), "meta-refresh", true
		}
	}
	if m := jsRedirectRe.FindSubmatch(body); m != nil {
		if u, err := url.Parse(string(m[1])); err == nil {
			return base.ResolveReference(u), "js", true
		}
	}
	return nil, "", false
}

// HasLoginForm reports whether body contains a form with a password input.
func HasLoginForm(body []byte) bool {
	return formRe.Match(body) && passwordRe.Match(body)
}

// ReadAndScan reads up to limit bytes from r and runs NextRedirect on them.
func ReadAndScan(r io.Reader, limit int64, base *url.URL) (next *url.URL, via string, body []byte, ok bool) {
	buf := make([]byte, limit)
	n, _ := io.ReadFull(io.LimitReader(r, limit), buf)
	buf = buf[:n]
	next, via, ok = NextRedirect(buf, base)
	return next, via, buf, ok
}
