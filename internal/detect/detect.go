// Package detect flags auth-flow weaknesses observed on individual URLs of
// the redirect chain: credentials leaking into URLs, scheme downgrades,
// redirects into internal hosts, and authorize requests without CSRF state.
package detect

import (
	"net"
	"net/url"
	"strings"

	"github.com/selimozcann/AuthFlowHunter/internal/model"
)

var tokenKeys = map[string]bool{
	"token":         true,
	"access_token":  true,
	"id_token":      true,
	"refresh_token": true,
	"code":          true,
	"session":       true,
	"bearer":        true,
}

var privateCIDRs []*net.IPNet

func init() {
	for _, c := range []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"127.0.0.0/8",
		"169.254.0.0/16",
		"::1/128",
		"fc00::/7",
	} {
		_, n, _ := net.ParseCIDR(c)
		privateCIDRs = append(privateCIDRs, n)
	}
}

// IsInternalHost returns true if the host is loopback, RFC1918, or a
// cluster-internal name.
func IsInternalHost(host string) bool {
	host = strings.ToLower(host)
	if host == "localhost" || strings.HasSuffix(host, ".internal") || strings.HasSuffix(host, ".svc") {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		for _, n := range privateCIDRs {
			if n.Contains(ip) {
				return true
			}
		}
	}
	return false
}

// SameBaseDomain compares the eTLD+1 of two URLs, ignoring a www prefix.
// A cheap approximation; good enough to tell "redirected to the IdP" from
// "still on the gateway".
func SameBaseDomain(a, b string) bool {
	return baseDomain(a) != "" && baseDomain(a) == baseDomain(b)
}

func baseDomain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	parts := strings.Split(host, ".")
	if len(parts) < 2 {
		return host
	}
	return strings.Join(parts[len(parts)-2:], ".")
}

// TokenLeak reports OAuth tokens or codes exposed in the query string or
// fragment of u.
func TokenLeak(u *url.URL, hop int) *model.Finding {
	for k := range u.Query() {
		if tokenKeys[strings.ToLower(k)] {
			return &model.Finding{Type: "TOKEN_LEAK", Severity: "medium", AtHop: hop, Detail: k + " in query"}
		}
	}
	if frag := u.Fragment; frag != "" {
		for _, part := range strings.Split(frag, "&") {
			kv := strings.SplitN(part, "=", 2)
			if tokenKeys[strings.ToLower(kv[0])] {
				return &model.Finding{Type: "TOKEN_LEAK", Severity: "high", AtHop: hop, Detail: kv[0] + " in fragment"}
			}
		}
	}
	return nil
}

// HTTPSDowngrade reports a hop where the chain fell from https to http.
func HTTPSDowngrade(prev, next *url.URL, hop int) *model.Finding {
	if prev.Scheme == "https" && next.Scheme == "http" {
		return &model.Finding{Type: "HTTPS_DOWNGRADE", Severity: "medium", AtHop: hop, Detail: prev.String() + " -> " + next.String()}
	}
	return nil
}

// InternalRedirect reports a redirect that lands on an internal host.
func InternalRedirect(u *url.URL, hop int) *model.Finding {
	if IsInternalHost(u.Hostname()) {
		return &model.Finding{Type: "INTERNAL_REDIRECT", Severity: "high", AtHop: hop, Detail: u.Host}
	}
	return nil
}

// MissingState reports an OAuth authorize request that carries no state
// parameter. Without it the flow is open to login CSRF.
func MissingState(u *url.URL, hop int) *model.Finding {
	path := strings.ToLower(u.Path)
	if !strings.Contains(path, "authorize") && !strings.Contains(path, "oauth") {
		return nil
	}
	q := u.Query()
	if q.Get("client_id") == "" && q.Get("response_type") == "" {
		return nil
	}
	if q.Get("state") == "" {
		return &model.Finding{Type: "MISSING_STATE", Severity: "medium", AtHop: hop, Detail: "authorize request without state parameter"}
	}
	return nil
}
