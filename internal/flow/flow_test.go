package flow_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/selimozcann/AuthFlowHunter/internal/browser"
	"github.com/selimozcann/AuthFlowHunter/internal/config"
	"github.com/selimozcann/AuthFlowHunter/internal/flow"
	"github.com/selimozcann/AuthFlowHunter/internal/model"
	"github.com/selimozcann/AuthFlowHunter/internal/verdict"
)

// fakeDriver scripts the page states the flow will observe. Snapshots are
// consumed in order; the last one repeats.
type fakeDriver struct {
	snapshots []model.PageSnapshot
	snapIdx   int
	form      browser.LoginForm

	navigateErr error
	snapshotErr error
	submitErr   error

	navigated []string
	submitted bool
	closed    int
}

func (d *fakeDriver) Navigate(ctx context.Context, url string) error {
	d.navigated = append(d.navigated, url)
	return d.navigateErr
}

func (d *fakeDriver) Snapshot(ctx context.Context) (model.PageSnapshot, error) {
	if d.snapshotErr != nil {
		return model.PageSnapshot{}, d.snapshotErr
	}
	snap := d.snapshots[d.snapIdx]
	if d.snapIdx < len(d.snapshots)-1 {
		d.snapIdx++
	}
	return snap, nil
}

func (d *fakeDriver) FindLoginForm(ctx context.Context, sel browser.FormSelectors) (browser.LoginForm, error) {
	return d.form, nil
}

func (d *fakeDriver) SubmitLogin(ctx context.Context, sel browser.FormSelectors, creds browser.Credentials) error {
	d.submitted = true
	return d.submitErr
}

func (d *fakeDriver) NetworkEvents() []model.NetworkEvent {
	return []model.NetworkEvent{{URL: "https://idp.example/oauth/authorize", Status: 302}}
}

func (d *fakeDriver) Close() error {
	d.closed++
	return nil
}

func fastOpts(d *fakeDriver) flow.Options {
	return flow.Options{
		Target:      "https://gw.example/",
		Credentials: browser.Credentials{Username: "developer", Password: "developer"},
		Waits:       config.Waits{Initial: time.Millisecond, Login: time.Millisecond, Final: time.Millisecond},
		Driver:      d,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestRunAllCheckpointsPass(t *testing.T) {
	t.Parallel()
	d := &fakeDriver{
		snapshots: []model.PageSnapshot{
			{URL: "https://idp.example/oauth/login", Content: "sign in"},
			{URL: "https://gw.example/app", Content: "processing"},
			{URL: "https://gw.example/app", Content: "welcome, you are authenticated"},
		},
		form: browser.LoginForm{HasUsername: true, HasPassword: true, HasSubmit: true},
	}

	rep := flow.Run(context.Background(), fastOpts(d))

	if !rep.Passed {
		t.Fatalf("expected overall pass: %+v", rep.Checkpoints)
	}
	if len(rep.Checkpoints) != 3 {
		t.Fatalf("got %d checkpoints, want 3", len(rep.Checkpoints))
	}
	for i, want := range []string{verdict.CheckpointInitial, verdict.CheckpointLogin, verdict.CheckpointFinal} {
		if rep.Checkpoints[i].Name != want {
			t.Fatalf("checkpoint %d = %q, want %q", i, rep.Checkpoints[i].Name, want)
		}
	}
	if !d.submitted {
		t.Fatal("credentials were never submitted")
	}
	if d.closed != 1 {
		t.Fatalf("driver closed %d times, want 1", d.closed)
	}
	if len(rep.Network) == 0 {
		t.Fatal("network events missing from report")
	}
}

func TestRunStopsAfterInitialFailure(t *testing.T) {
	t.Parallel()
	d := &fakeDriver{
		snapshots: []model.PageSnapshot{
			{URL: "https://gw.example/", Content: "internal error occurred"},
		},
		form: browser.LoginForm{HasUsername: true, HasPassword: true},
	}

	rep := flow.Run(context.Background(), fastOpts(d))

	if rep.Passed {
		t.Fatal("expected overall failure")
	}
	if len(rep.Checkpoints) != 1 {
		t.Fatalf("got %d checkpoints, want 1 (later checkpoints must not run)", len(rep.Checkpoints))
	}
	if d.submitted {
		t.Fatal("login must not be attempted after the first checkpoint fails")
	}
	if d.closed != 1 {
		t.Fatalf("driver closed %d times, want 1", d.closed)
	}
}

func TestRunFormNotFound(t *testing.T) {
	t.Parallel()
	d := &fakeDriver{
		snapshots: []model.PageSnapshot{
			{URL: "https://idp.example/oauth/login", Content: "401 unauthorized"},
		},
	}

	rep := flow.Run(context.Background(), fastOpts(d))

	if rep.Passed {
		t.Fatal("expected overall failure")
	}
	if len(rep.Checkpoints) != 2 {
		t.Fatalf("got %d checkpoints, want 2", len(rep.Checkpoints))
	}
	login := rep.Checkpoints[1]
	if login.Passed {
		t.Fatal("login checkpoint should fail without a form")
	}
	if login.Message != "Unauthorized error detected" {
		t.Fatalf("message = %q", login.Message)
	}
	if d.submitted {
		t.Fatal("submit must not run when the form is missing")
	}
}

func TestRunNavigateFault(t *testing.T) {
	t.Parallel()
	d := &fakeDriver{navigateErr: errors.New("browser crashed")}

	rep := flow.Run(context.Background(), fastOpts(d))

	if rep.Passed || len(rep.Checkpoints) != 1 {
		t.Fatalf("report = %+v", rep)
	}
	res := rep.Checkpoints[0]
	if res.Kind != model.FailUnknown {
		t.Fatalf("kind = %q", res.Kind)
	}
	if d.closed != 1 {
		t.Fatal("driver must be closed on fault paths")
	}
}

func TestRunTimeoutClassification(t *testing.T) {
	t.Parallel()
	d := &fakeDriver{navigateErr: context.DeadlineExceeded}

	rep := flow.Run(context.Background(), fastOpts(d))

	if rep.Checkpoints[0].Kind != model.FailTimeout {
		t.Fatalf("kind = %q, want %q", rep.Checkpoints[0].Kind, model.FailTimeout)
	}
}

func TestRunCancelledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := &fakeDriver{snapshotErr: ctx.Err()}
	rep := flow.Run(ctx, fastOpts(d))

	if rep.Passed {
		t.Fatal("cancelled run must not pass")
	}
	if rep.Checkpoints[0].Kind != model.FailTimeout {
		t.Fatalf("kind = %q", rep.Checkpoints[0].Kind)
	}
	if d.closed != 1 {
		t.Fatal("driver must be closed on cancellation")
	}
}

func TestRunDebugDetails(t *testing.T) {
	t.Parallel()
	d := &fakeDriver{
		snapshots: []model.PageSnapshot{
			{
				URL:     "https://idp.example/oauth/login",
				Title:   "Log in",
				Content: "sign in <input name='password'>",
				Length:  34,
				Cookies: []model.Cookie{{Name: "csrf", Value: "v"}},
			},
		},
		form: browser.LoginForm{},
	}

	rep := flow.Run(context.Background(), fastOpts(d))

	res := rep.Checkpoints[0]
	if res.Details["page_title"] != "Log in" {
		t.Fatalf("page_title = %v", res.Details["page_title"])
	}
	if res.Details["cookie_count"] != "1" {
		t.Fatalf("cookie_count = %v", res.Details["cookie_count"])
	}
	if res.Details["pattern_login_form"] != "true" {
		t.Fatalf("pattern_login_form = %v", res.Details["pattern_login_form"])
	}
}
