// Package browser drives a real browser through the authentication flow.
// The flow orchestrator only depends on the Driver interface; the rod
// implementation lives in rod.go.
package browser

import (
	"context"

	"github.com/selimozcann/AuthFlowHunter/internal/model"
)

// FormSelectors are CSS selector priority lists for locating the login
// form. The first selector that matches wins. OAuth provider login pages
// vary, so several common shapes are probed.
type FormSelectors struct {
	Username []string `yaml:"username"`
	Password []string `yaml:"password"`
	Submit   []string `yaml:"submit"`
}

// DefaultSelectors covers the login form shapes seen on common providers.
func DefaultSelectors() FormSelectors {
	return FormSelectors{
		Username: []string{
			"input[name='username']",
			"input[id='username']",
			"input[type='text']",
			"#inputUsername",
			".form-control[name='username']",
		},
		Password: []string{
			"input[name='password']",
			"input[id='password']",
			"input[type='password']",
			"#inputPassword",
			".form-control[name='password']",
		},
		Submit: []string{
			"button[type='submit']",
			"input[type='submit']",
			".btn-primary",
			"#submit",
			".login-button",
		},
	}
}

// Credentials are the login form inputs.
type Credentials struct {
	Username string
	Password string
}

// LoginForm reports which form elements a driver located.
type LoginForm struct {
	HasUsername bool
	HasPassword bool
	HasSubmit   bool
}

// Found reports whether both credential fields were located.
func (f LoginForm) Found() bool { return f.HasUsername && f.HasPassword }

// Driver is the browser capability the flow consumes. FindLoginForm returns
// a form with Found()==false (not an error) when the elements are absent;
// errors are reserved for driver faults. Close must be safe to call on
// every exit path.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	Snapshot(ctx context.Context) (model.PageSnapshot, error)
	FindLoginForm(ctx context.Context, sel FormSelectors) (LoginForm, error)
	SubmitLogin(ctx context.Context, sel FormSelectors, creds Credentials) error
	NetworkEvents() []model.NetworkEvent
	Close() error
}
