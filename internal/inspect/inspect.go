// Package inspect runs advisory checks over a completed flow report. The
// inspectors never change the pass/fail verdict; they surface weaknesses
// the checkpoint heuristics deliberately ignore.
package inspect

import (
	"context"
	"net/url"
	"strings"

	"github.com/selimozcann/AuthFlowHunter/internal/detect"
	"github.com/selimozcann/AuthFlowHunter/internal/model"
	"github.com/selimozcann/AuthFlowHunter/internal/verdict"
)

// Inspector analyses a flow report and returns additional findings.
type Inspector interface {
	Name() string
	Inspect(ctx context.Context, rep *model.Report) []model.Finding
}

// Default returns the built-in inspectors.
func Default() []Inspector {
	return []Inspector{&SessionCookie{}, &FinalURLLeak{}}
}

// Run applies every inspector and appends its findings to the report.
func Run(ctx context.Context, rep *model.Report, inspectors []Inspector) {
	for _, ins := range inspectors {
		for _, f := range ins.Inspect(ctx, rep) {
			f.Source = ins.Name()
			rep.Findings = append(rep.Findings, f)
		}
	}
}

// SessionCookie warns when login submission "succeeded" (URL changed) but
// no session-looking cookie ever appeared. This is the stricter signal the
// URL-change heuristic lacks.
type SessionCookie struct{}

func (s *SessionCookie) Name() string { return "session-cookie" }

var sessionCookieMarkers = []string{"session", "token", "auth", "_oauth"}

func (s *SessionCookie) Inspect(ctx context.Context, rep *model.Report) []model.Finding {
	var after *model.CheckpointResult
	for i := range rep.Checkpoints {
		cp := &rep.Checkpoints[i]
		if cp.Name == verdict.CheckpointLogin || cp.Name == verdict.CheckpointFinal {
			if cp.Passed {
				after = cp
			}
		}
	}
	if after == nil {
		return nil
	}
	for _, c := range after.Snapshot.Cookies {
		lowered := strings.ToLower(c.Name)
		for _, m := range sessionCookieMarkers {
			if strings.Contains(lowered, m) {
				return nil
			}
		}
	}
	return []model.Finding{{
		Type:     "NO_SESSION_COOKIE",
		Severity: "medium",
		Detail:   "login reported success but no session/auth cookie was observed",
	}}
}

// FinalURLLeak flags tokens or authorization codes left in the final URL.
type FinalURLLeak struct{}

func (f *FinalURLLeak) Name() string { return "final-url-leak" }

func (f *FinalURLLeak) Inspect(ctx context.Context, rep *model.Report) []model.Finding {
	u, err := url.Parse(rep.FinalURL())
	if err != nil {
		return nil
	}
	if finding := detect.TokenLeak(u, len(rep.Checkpoints)); finding != nil {
		return []model.Finding{*finding}
	}
	return nil
}
