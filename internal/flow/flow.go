// Package flow orchestrates the three-checkpoint authentication run:
// Initial Gateway Access -> OAuth Login Form -> Post-Login Redirect.
// Checkpoints execute strictly in sequence and the run stops at the first
// failure; each attempted checkpoint contributes exactly one ledger entry.
package flow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/selimozcann/AuthFlowHunter/internal/browser"
	"github.com/selimozcann/AuthFlowHunter/internal/config"
	"github.com/selimozcann/AuthFlowHunter/internal/matcher"
	"github.com/selimozcann/AuthFlowHunter/internal/model"
	"github.com/selimozcann/AuthFlowHunter/internal/podlog"
	"github.com/selimozcann/AuthFlowHunter/internal/verdict"
)

// Options wires the run. Driver is required; Logs may be nil to skip pod
// log capture.
type Options struct {
	Target      string
	Credentials browser.Credentials
	Selectors   browser.FormSelectors
	Waits       config.Waits
	Engine      *verdict.Engine
	Driver      browser.Driver
	Logs        *podlog.Fetcher
	PodSources  []podlog.Source
	Logger      *slog.Logger
}

func (o *Options) defaults() {
	if o.Engine == nil {
		o.Engine = verdict.New(nil, nil)
	}
	if len(o.Selectors.Username) == 0 {
		o.Selectors = browser.DefaultSelectors()
	}
	if o.Waits.Initial <= 0 {
		o.Waits.Initial = 8 * time.Second
	}
	if o.Waits.Login <= 0 {
		o.Waits.Login = 8 * time.Second
	}
	if o.Waits.Final <= 0 {
		o.Waits.Final = 10 * time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Run executes the flow. The driver is released on every exit path,
// including cancellation. The returned report always carries a verdict;
// only driver faults before the first checkpoint surface as Report.Error.
func Run(ctx context.Context, opts Options) model.Report {
	opts.defaults()
	log := opts.Logger

	rep := model.Report{Target: opts.Target, StartedAt: time.Now()}
	defer func() {
		rep.DurationMs = time.Since(rep.StartedAt).Milliseconds()
	}()
	defer func() {
		if err := opts.Driver.Close(); err != nil {
			log.Warn("flow: driver close", "error", err)
		}
	}()

	ledger := &verdict.Ledger{}

	// Checkpoint 1: initial redirect to the login page.
	log.Info("flow: navigating", "url", opts.Target)
	res := opts.runInitial(ctx)
	if !ledger.Record(res) {
		return finish(&rep, ledger, opts)
	}

	// Checkpoint 2: locate and submit the login form.
	res = opts.runLogin(ctx, res.Snapshot)
	if !ledger.Record(res) {
		return finish(&rep, ledger, opts)
	}

	// Checkpoint 3: final redirect to the protected resource.
	res = opts.runFinal(ctx)
	ledger.Record(res)
	return finish(&rep, ledger, opts)
}

func (o *Options) runInitial(ctx context.Context) model.CheckpointResult {
	if err := o.Driver.Navigate(ctx, o.Target); err != nil {
		return verdict.Fault(verdict.CheckpointInitial, classify(ctx, err), err)
	}
	o.settle(ctx, o.Waits.Initial, "redirects")

	snap, err := o.Driver.Snapshot(ctx)
	if err != nil {
		return verdict.Fault(verdict.CheckpointInitial, classify(ctx, err), err)
	}
	res := o.Engine.EvaluateInitialRedirect(snap, o.Target)
	o.attachDebug(ctx, &res)
	return res
}

func (o *Options) runLogin(ctx context.Context, pre model.PageSnapshot) model.CheckpointResult {
	form, err := o.Driver.FindLoginForm(ctx, o.Selectors)
	if err != nil {
		return verdict.Fault(verdict.CheckpointLogin, classify(ctx, err), err)
	}

	probe := verdict.FormProbe{UsernameFound: form.HasUsername, PasswordFound: form.HasPassword}
	if !probe.Found() {
		res := o.Engine.EvaluateLoginSubmission(pre.URL, pre.URL, probe, pre)
		o.attachDebug(ctx, &res)
		return res
	}

	o.Logger.Info("flow: submitting credentials", "username", o.Credentials.Username)
	if err := o.Driver.SubmitLogin(ctx, o.Selectors, o.Credentials); err != nil {
		return verdict.Fault(verdict.CheckpointLogin, classify(ctx, err), err)
	}
	probe.Submitted = true
	o.settle(ctx, o.Waits.Login, "login response")

	post, err := o.Driver.Snapshot(ctx)
	if err != nil {
		return verdict.Fault(verdict.CheckpointLogin, classify(ctx, err), err)
	}
	res := o.Engine.EvaluateLoginSubmission(pre.URL, post.URL, probe, post)
	o.attachDebug(ctx, &res)
	return res
}

func (o *Options) runFinal(ctx context.Context) model.CheckpointResult {
	o.settle(ctx, o.Waits.Final, "final redirect")

	snap, err := o.Driver.Snapshot(ctx)
	if err != nil {
		return verdict.Fault(verdict.CheckpointFinal, classify(ctx, err), err)
	}
	res := o.Engine.EvaluateFinalState(snap)
	o.attachDebug(ctx, &res)
	return res
}

// settle sleeps for the configured window unless the context ends first.
func (o *Options) settle(ctx context.Context, d time.Duration, what string) {
	o.Logger.Debug("flow: waiting", "for", what, "duration", d)
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

func classify(ctx context.Context, err error) model.FailureKind {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		return model.FailTimeout
	}
	return model.FailUnknown
}

func finish(rep *model.Report, ledger *verdict.Ledger, opts Options) model.Report {
	rep.Checkpoints = ledger.Results()
	rep.Passed = ledger.Aggregate()
	rep.Network = opts.Driver.NetworkEvents()
	return *rep
}

// patternSummary is shared with debug capture; exported groups come from
// the matcher package.
var patternSummary = matcher.PatternGroups
