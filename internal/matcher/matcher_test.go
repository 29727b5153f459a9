package matcher_test

import (
	"strings"
	"testing"

	"github.com/selimozcann/AuthFlowHunter/internal/matcher"
)

func TestKeywordsMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		set     matcher.Keywords
		content string
		want    bool
	}{
		{"hit", matcher.Keywords{"welcome"}, "Welcome back", true},
		{"caseInsensitive", matcher.Keywords{"oauth"}, "https://idp/OAUTH/authorize", true},
		{"miss", matcher.Keywords{"welcome"}, "goodbye", false},
		{"empty", matcher.Keywords{}, "anything", false},
		{"defaultErrors", matcher.Errors, "403 Forbidden", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.set.Match(tt.content); got != tt.want {
				t.Fatalf("Match(%q) = %t, want %t", tt.content, got, tt.want)
			}
		})
	}
}

func TestKeywordsFirst(t *testing.T) {
	t.Parallel()
	set := matcher.Keywords{"unauthorized", "error"}
	kw, ok := set.First("an ERROR happened")
	if !ok || kw != "error" {
		t.Fatalf("First = %q, %t", kw, ok)
	}
}

func TestExtractLines(t *testing.T) {
	t.Parallel()
	content := "ok line\nerror: first\nfine\nunauthorized access\nerror: third\n"

	lines := matcher.ExtractLines(content, matcher.ErrorLine, 2, 200)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0] != "error: first" || lines[1] != "unauthorized access" {
		t.Fatalf("unexpected lines: %v", lines)
	}

	long := "error: " + strings.Repeat("x", 300)
	truncated := matcher.ExtractLines(long, matcher.ErrorLine, 1, 200)
	if len(truncated) != 1 || len(truncated[0]) != 200 {
		t.Fatalf("expected a single 200-char line, got %d chars", len(truncated[0]))
	}
}

func TestPatternGroups(t *testing.T) {
	t.Parallel()
	groups := matcher.PatternGroups()
	for _, label := range []string{"login_form", "error_messages", "success_indicators"} {
		if _, ok := groups[label]; !ok {
			t.Fatalf("missing pattern group %q", label)
		}
	}
	if !groups["login_form"].Match("<input name='password'>") {
		t.Fatal("login_form group should match a password input")
	}
}
