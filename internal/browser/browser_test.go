package browser_test

import (
	"testing"

	"github.com/selimozcann/AuthFlowHunter/internal/browser"
)

func TestResolveBin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		arg     string
		want    string
		wantErr bool
	}{
		{"empty", "", "", false},
		{"chrome", "chrome", "", false},
		{"chromiumCased", "Chromium", "", false},
		{"firefox", "firefox", "", true},
		{"explicitPath", "/usr/bin/my-chrome", "/usr/bin/my-chrome", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := browser.ResolveBin(tt.arg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %t", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("bin = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDefaultSelectorsCoverCommonForms(t *testing.T) {
	t.Parallel()
	sel := browser.DefaultSelectors()
	if len(sel.Username) == 0 || len(sel.Password) == 0 || len(sel.Submit) == 0 {
		t.Fatalf("selectors = %+v", sel)
	}
	if sel.Password[0] != "input[name='password']" {
		t.Fatalf("first password selector = %q", sel.Password[0])
	}
}

func TestLoginFormFound(t *testing.T) {
	t.Parallel()
	if (browser.LoginForm{HasUsername: true}).Found() {
		t.Fatal("username alone must not count as found")
	}
	if !(browser.LoginForm{HasUsername: true, HasPassword: true}).Found() {
		t.Fatal("both fields should count as found")
	}
}
