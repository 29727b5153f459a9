package verdict_test

import (
	"strings"
	"testing"

	"github.com/selimozcann/AuthFlowHunter/internal/matcher"
	"github.com/selimozcann/AuthFlowHunter/internal/model"
	"github.com/selimozcann/AuthFlowHunter/internal/verdict"
)

func TestEvaluateInitialRedirect(t *testing.T) {
	t.Parallel()
	eng := verdict.New(nil, nil)

	tests := []struct {
		name     string
		snap     model.PageSnapshot
		wantPass bool
		wantMsg  string
	}{
		{
			name:     "oauthURL",
			snap:     model.PageSnapshot{URL: "https://idp.example/oauth/login", Content: "sign in"},
			wantPass: true,
			wantMsg:  "Successfully redirected to OAuth login",
		},
		{
			name:     "loginURLUpperCase",
			snap:     model.PageSnapshot{URL: "https://idp.example/LOGIN", Content: "please sign in"},
			wantPass: true,
			wantMsg:  "Successfully redirected to OAuth login",
		},
		{
			name:     "errorPage",
			snap:     model.PageSnapshot{URL: "https://gw.example/", Content: "internal error occurred"},
			wantPass: false,
			wantMsg:  "Error page detected",
		},
		{
			name:     "noRedirect",
			snap:     model.PageSnapshot{URL: "https://gw.example/", Content: "plain landing page"},
			wantPass: false,
			wantMsg:  "Unexpected page - no redirect detected",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			res := eng.EvaluateInitialRedirect(tt.snap, "https://gw.example/")
			if res.Passed != tt.wantPass {
				t.Fatalf("passed = %t, want %t (%s)", res.Passed, tt.wantPass, res.Message)
			}
			if res.Message != tt.wantMsg {
				t.Fatalf("message = %q, want %q", res.Message, tt.wantMsg)
			}
			if res.Name != verdict.CheckpointInitial {
				t.Fatalf("checkpoint name = %q", res.Name)
			}
		})
	}
}

func TestEvaluateLoginSubmission(t *testing.T) {
	t.Parallel()
	eng := verdict.New(nil, nil)
	found := verdict.FormProbe{UsernameFound: true, PasswordFound: true, Submitted: true}

	t.Run("urlChanged", func(t *testing.T) {
		res := eng.EvaluateLoginSubmission("https://x/login", "https://x/app", found, model.PageSnapshot{URL: "https://x/app"})
		if !res.Passed {
			t.Fatalf("expected pass, got %q", res.Message)
		}
	})

	t.Run("urlUnchanged", func(t *testing.T) {
		res := eng.EvaluateLoginSubmission("https://x/login", "https://x/login", found, model.PageSnapshot{URL: "https://x/login"})
		if res.Passed {
			t.Fatal("expected failure")
		}
		if !strings.Contains(res.Message, "URL unchanged") {
			t.Fatalf("message = %q, want mention of URL unchanged", res.Message)
		}
	})

	t.Run("formMissingUnauthorized", func(t *testing.T) {
		snap := model.PageSnapshot{URL: "https://x/login", Content: "401 unauthorized"}
		res := eng.EvaluateLoginSubmission(snap.URL, snap.URL, verdict.FormProbe{}, snap)
		if res.Passed {
			t.Fatal("expected failure")
		}
		if !strings.Contains(res.Message, "Unauthorized") {
			t.Fatalf("message = %q, want mention of Unauthorized", res.Message)
		}
	})

	t.Run("formMissingErrorTakesPriority", func(t *testing.T) {
		snap := model.PageSnapshot{URL: "https://x/login", Content: "error: unauthorized"}
		res := eng.EvaluateLoginSubmission(snap.URL, snap.URL, verdict.FormProbe{}, snap)
		if res.Message != "Error detected on login page" {
			t.Fatalf("message = %q", res.Message)
		}
	})

	t.Run("formMissingPlainPage", func(t *testing.T) {
		snap := model.PageSnapshot{URL: "https://x/login", Content: "nothing to see"}
		res := eng.EvaluateLoginSubmission(snap.URL, snap.URL, verdict.FormProbe{}, snap)
		if res.Message != "Login form elements not found" {
			t.Fatalf("message = %q", res.Message)
		}
		if res.Kind != model.FailElementNotFound {
			t.Fatalf("kind = %q", res.Kind)
		}
	})
}

func TestEvaluateFinalState(t *testing.T) {
	t.Parallel()
	eng := verdict.New(matcher.Keywords{"welcome"}, matcher.Keywords{"error"})

	t.Run("successOnly", func(t *testing.T) {
		res := eng.EvaluateFinalState(model.PageSnapshot{Content: "welcome, authenticated user"})
		if !res.Passed {
			t.Fatalf("expected pass, got %q", res.Message)
		}
	})

	t.Run("errorTakesPriority", func(t *testing.T) {
		res := eng.EvaluateFinalState(model.PageSnapshot{Content: "welcome\nerror: token expired"})
		if res.Passed {
			t.Fatal("expected failure when an error indicator is present")
		}
		if !strings.Contains(res.Message, "error: token expired") {
			t.Fatalf("message = %q, want extracted error line", res.Message)
		}
	})

	t.Run("unclear", func(t *testing.T) {
		res := eng.EvaluateFinalState(model.PageSnapshot{Content: "some unrelated content"})
		if res.Passed {
			t.Fatal("expected failure")
		}
		if res.Message != "Unclear authentication result" {
			t.Fatalf("message = %q", res.Message)
		}
	})
}

func TestLedgerAggregate(t *testing.T) {
	t.Parallel()

	pass := model.CheckpointResult{Passed: true}
	fail := model.CheckpointResult{Passed: false}

	t.Run("allPass", func(t *testing.T) {
		l := &verdict.Ledger{}
		l.Record(pass)
		l.Record(pass)
		l.Record(pass)
		if !l.Aggregate() {
			t.Fatal("expected overall pass")
		}
	})

	t.Run("anyFail", func(t *testing.T) {
		l := &verdict.Ledger{}
		if !l.Record(pass) {
			t.Fatal("Record should report pass")
		}
		if l.Record(fail) {
			t.Fatal("Record should report failure so callers can short-circuit")
		}
		if l.Aggregate() {
			t.Fatal("expected overall fail")
		}
		if l.Len() != 2 {
			t.Fatalf("len = %d, want 2", l.Len())
		}
	})

	t.Run("empty", func(t *testing.T) {
		l := &verdict.Ledger{}
		if l.Aggregate() {
			t.Fatal("empty ledger must not pass")
		}
	})
}
