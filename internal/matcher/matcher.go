// Package matcher implements keyword-set matching over rendered page
// content. Target pages are third-party login UIs whose markup is not under
// our control, so classification is best-effort substring matching rather
// than structured parsing.
package matcher

import "strings"

// Matcher reports whether page content matches an indicator set.
type Matcher interface {
	// Match reports whether any indicator occurs in content.
	Match(content string) bool
	// First returns the first indicator found in content.
	First(content string) (string, bool)
}

// Keywords is a Matcher backed by a list of lowercase substrings.
type Keywords []string

func (k Keywords) Match(content string) bool {
	_, ok := k.First(content)
	return ok
}

func (k Keywords) First(content string) (string, bool) {
	c := strings.ToLower(content)
	for _, kw := range k {
		if strings.Contains(c, kw) {
			return kw, true
		}
	}
	return "", false
}

// Default indicator sets for OAuth provider pages.
var (
	Success     = Keywords{"echo", "success", "authenticated", "welcome"}
	Errors      = Keywords{"error", "unauthorized", "forbidden", "failed"}
	ErrorLine   = Keywords{"error", "unauthorized", "forbidden", "failed", "invalid", "denied"}
	LoginForm   = Keywords{"login", "username", "password", "sign in"}
	Redirect    = Keywords{"redirect", "302", "oauth"}
	OAuthServer = Keywords{"openshift", "oauth.openshift", "console-openshift"}
	AuthProxy   = Keywords{"kube-auth-proxy", "oauth2"}
	GatewayWASM = Keywords{"byoidc", "wasm", "plugin"}
)

// PatternGroups maps a label to the indicator group probed during debug
// capture. Mirrors the content analysis done after every checkpoint.
func PatternGroups() map[string]Keywords {
	return map[string]Keywords{
		"login_form":          LoginForm,
		"error_messages":      Errors,
		"redirect_indicators": Redirect,
		"success_indicators":  Success,
		"wasm_plugin":         GatewayWASM,
		"kube_auth_proxy":     AuthProxy,
		"openshift_oauth":     OAuthServer,
	}
}

// ExtractLines returns up to max lines of content that match m, each
// truncated to width characters. Used to surface error detail in verdicts.
func ExtractLines(content string, m Matcher, max, width int) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !m.Match(line) {
			continue
		}
		if len(line) > width {
			line = line[:width]
		}
		out = append(out, line)
		if len(out) >= max {
			break
		}
	}
	return out
}
