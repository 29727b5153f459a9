// Package verdict classifies page snapshots taken at fixed checkpoints of
// an OAuth redirect flow and composes them into an overall result. The
// engine always produces a CheckpointResult; classification never errors.
package verdict

import (
	"fmt"
	"strings"
	"time"

	"github.com/selimozcann/AuthFlowHunter/internal/matcher"
	"github.com/selimozcann/AuthFlowHunter/internal/model"
)

// Checkpoint names, in flow order.
const (
	CheckpointInitial = "Initial Gateway Access"
	CheckpointLogin   = "OAuth Login Form"
	CheckpointFinal   = "Post-Login Redirect"
)

// Engine evaluates checkpoint snapshots against indicator sets.
type Engine struct {
	Success matcher.Matcher
	Errors  matcher.Matcher
}

// New returns an Engine with the given indicator sets. Nil matchers fall
// back to the defaults.
func New(success, errs matcher.Matcher) *Engine {
	if success == nil {
		success = matcher.Success
	}
	if errs == nil {
		errs = matcher.Errors
	}
	return &Engine{Success: success, Errors: errs}
}

// redirectMarkers identify an authentication redirect in the current URL.
var redirectMarkers = matcher.Keywords{"oauth", "login"}

// EvaluateInitialRedirect classifies the page reached after navigating to
// the gateway and letting asynchronous redirects settle.
func (e *Engine) EvaluateInitialRedirect(snap model.PageSnapshot, origin string) model.CheckpointResult {
	res := model.CheckpointResult{
		Name:     CheckpointInitial,
		Snapshot: snap,
		At:       time.Now(),
		Details:  map[string]string{"original_url": origin, "current_url": snap.URL},
	}

	switch {
	case redirectMarkers.Match(snap.URL):
		res.Passed = true
		res.Message = "Successfully redirected to OAuth login"
	case strings.Contains(snap.Content, "error"):
		res.Message = "Error page detected"
		res.Kind = model.FailUnexpectedPage
	default:
		res.Message = "Unexpected page - no redirect detected"
		res.Kind = model.FailUnexpectedPage
	}
	return res
}

// FormProbe describes the outcome of locating and submitting the login form.
type FormProbe struct {
	UsernameFound bool
	PasswordFound bool
	Submitted     bool
}

// Found reports whether both credential fields were located.
func (p FormProbe) Found() bool { return p.UsernameFound && p.PasswordFound }

// EvaluateLoginSubmission classifies the login step. When the credential
// fields were missing, the page content decides the diagnostic, checked in
// priority order: generic error, unauthorized, form not found. When the form
// was submitted, any URL change counts as success. That heuristic is weak
// (a redirect to an error page also changes the URL) and kept deliberately.
func (e *Engine) EvaluateLoginSubmission(preURL, postURL string, probe FormProbe, snap model.PageSnapshot) model.CheckpointResult {
	res := model.CheckpointResult{
		Name:     CheckpointLogin,
		Snapshot: snap,
		At:       time.Now(),
		Details: map[string]string{
			"pre_login_url":      preURL,
			"post_login_url":     postURL,
			"has_username_field": fmt.Sprintf("%t", probe.UsernameFound),
			"has_password_field": fmt.Sprintf("%t", probe.PasswordFound),
		},
	}

	if !probe.Found() {
		switch {
		case strings.Contains(snap.Content, "error"):
			res.Message = "Error detected on login page"
			res.Kind = model.FailUnexpectedPage
		case strings.Contains(snap.Content, "unauthorized"):
			res.Message = "Unauthorized error detected"
			res.Kind = model.FailUnexpectedPage
		default:
			res.Message = "Login form elements not found"
			res.Kind = model.FailElementNotFound
		}
		return res
	}

	if postURL != preURL {
		res.Passed = true
		res.Message = "Form submitted successfully - URL changed"
	} else {
		res.Message = "Form submission failed - URL unchanged"
		res.Kind = model.FailUnexpectedPage
	}
	return res
}

// EvaluateFinalState classifies the page reached after the post-login
// redirect. Error indicators take priority over success indicators.
func (e *Engine) EvaluateFinalState(snap model.PageSnapshot) model.CheckpointResult {
	res := model.CheckpointResult{
		Name:     CheckpointFinal,
		Snapshot: snap,
		At:       time.Now(),
		Details:  map[string]string{"final_url": snap.URL, "page_title": snap.Title},
	}

	successFound := e.Success.Match(snap.Content)
	errorFound := e.Errors.Match(snap.Content)

	switch {
	case successFound && !errorFound:
		res.Passed = true
		res.Message = "Authentication successful - reached protected resource"
	case errorFound:
		detail := "Unknown error"
		if lines := matcher.ExtractLines(snap.Content, e.Errors, 1, 200); len(lines) > 0 {
			detail = lines[0]
		}
		res.Message = "Authentication failed: " + detail
		res.Kind = model.FailUnexpectedPage
	default:
		res.Message = "Unclear authentication result"
		res.Kind = model.FailUnknown
	}
	return res
}

// Fault builds a failing result for a checkpoint that could not be
// evaluated (navigation timeout, driver error). The engine's contract is to
// always yield a verdict rather than raise.
func Fault(name string, kind model.FailureKind, err error) model.CheckpointResult {
	return model.CheckpointResult{
		Name:    name,
		Message: err.Error(),
		Kind:    kind,
		At:      time.Now(),
	}
}
