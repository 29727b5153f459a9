package browser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/selimozcann/AuthFlowHunter/internal/model"
)

// Config configures the rod-backed driver.
type Config struct {
	// Bin is an explicit browser binary. Empty = let the launcher find a
	// local Chromium-family install.
	Bin string

	// Headless runs the browser without a visible window.
	Headless bool

	// Insecure ignores certificate errors. Gateways under test commonly
	// run behind self-signed certs.
	Insecure bool

	// NavigateTimeout bounds a single navigation. Default: 60s.
	NavigateTimeout time.Duration

	// ElementTimeout bounds a single selector probe. Default: 2s.
	ElementTimeout time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.NavigateTimeout <= 0 {
		c.NavigateTimeout = 60 * time.Second
	}
	if c.ElementTimeout <= 0 {
		c.ElementTimeout = 2 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Rod drives a Chromium-family browser through go-rod.
type Rod struct {
	cfg     Config
	lnch    *launcher.Launcher
	browser *rod.Browser
	page    *rod.Page

	evCancel context.CancelFunc

	mu     sync.Mutex
	events []model.NetworkEvent
	closed bool
}

// Launch starts the browser, opens a stealth page, and begins collecting
// network events. The caller must Close the returned driver on every exit
// path.
func Launch(ctx context.Context, cfg Config) (*Rod, error) {
	cfg.defaults()

	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(true).
		Set("disable-dev-shm-usage").
		Set("disable-blink-features", "AutomationControlled")
	if cfg.Insecure {
		l = l.Set("ignore-certificate-errors")
	}
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}

	wsURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("browser: launch: %w", err)
	}

	b := rod.New().ControlURL(wsURL).Context(ctx)
	if err := b.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	if cfg.Insecure {
		if err := b.IgnoreCertErrors(true); err != nil {
			cfg.Logger.Warn("browser: ignore cert errors failed", "error", err)
		}
	}

	page, err := stealth.Page(b)
	if err != nil {
		_ = b.Close()
		l.Cleanup()
		return nil, fmt.Errorf("browser: create page: %w", err)
	}

	d := &Rod{cfg: cfg, lnch: l, browser: b, page: page}
	d.watchNetwork(ctx)

	cfg.Logger.Info("browser: launched", "headless", cfg.Headless, "bin", cfg.Bin)
	return d, nil
}

// watchNetwork subscribes to CDP request/response events for the page.
func (d *Rod) watchNetwork(ctx context.Context) {
	evCtx, cancel := context.WithCancel(ctx)
	d.evCancel = cancel

	wait := d.page.Context(evCtx).EachEvent(
		func(e *proto.NetworkRequestWillBeSent) {
			d.record(model.NetworkEvent{Kind: "request", Method: e.Request.Method, URL: e.Request.URL})
		},
		func(e *proto.NetworkResponseReceived) {
			d.record(model.NetworkEvent{Kind: "response", URL: e.Response.URL, Status: e.Response.Status})
		},
	)
	go wait()
}

func (d *Rod) record(ev model.NetworkEvent) {
	d.mu.Lock()
	d.events = append(d.events, ev)
	d.mu.Unlock()
}

// Navigate loads url and waits for the load event. Redirect settling is the
// caller's concern; pages behind OAuth flows keep redirecting after load.
func (d *Rod) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, d.cfg.NavigateTimeout)
	defer cancel()

	if err := d.page.Context(navCtx).Navigate(url); err != nil {
		return fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	if err := d.page.Context(navCtx).WaitLoad(); err != nil {
		d.cfg.Logger.Warn("browser: wait load timeout", "url", url, "error", err)
	}
	return nil
}

// Snapshot captures the current URL, title, lowercased page source, and
// cookies (values truncated).
func (d *Rod) Snapshot(ctx context.Context) (model.PageSnapshot, error) {
	page := d.page.Context(ctx)

	info, err := page.Info()
	if err != nil {
		return model.PageSnapshot{}, fmt.Errorf("browser: page info: %w", err)
	}
	html, err := page.HTML()
	if err != nil {
		return model.PageSnapshot{}, fmt.Errorf("browser: page source: %w", err)
	}

	snap := model.PageSnapshot{
		URL:     info.URL,
		Title:   info.Title,
		Content: strings.ToLower(html),
		Length:  len(html),
	}

	cookies, err := page.Cookies(nil)
	if err != nil {
		d.cfg.Logger.Warn("browser: cookie capture failed", "error", err)
	} else {
		for _, c := range cookies {
			snap.Cookies = append(snap.Cookies, model.TruncateCookie(c.Name, c.Value))
		}
	}
	return snap, nil
}

// firstMatch probes selectors in priority order and returns the first
// element found, or nil when none match.
func (d *Rod) firstMatch(ctx context.Context, selectors []string) *rod.Element {
	page := d.page.Context(ctx)
	for _, sel := range selectors {
		el, err := page.Timeout(d.cfg.ElementTimeout).Element(sel)
		if err == nil && el != nil {
			return el
		}
	}
	return nil
}

// FindLoginForm probes the selector lists without interacting with the page.
func (d *Rod) FindLoginForm(ctx context.Context, sel FormSelectors) (LoginForm, error) {
	form := LoginForm{
		HasUsername: d.firstMatch(ctx, sel.Username) != nil,
		HasPassword: d.firstMatch(ctx, sel.Password) != nil,
		HasSubmit:   d.firstMatch(ctx, sel.Submit) != nil,
	}
	return form, nil
}

// SubmitLogin fills the credential fields and submits the form, pressing
// Enter in the password field when no submit button is present.
func (d *Rod) SubmitLogin(ctx context.Context, sel FormSelectors, creds Credentials) error {
	user := d.firstMatch(ctx, sel.Username)
	pass := d.firstMatch(ctx, sel.Password)
	if user == nil || pass == nil {
		return fmt.Errorf("browser: login form elements not found")
	}

	if err := fill(user, creds.Username); err != nil {
		return fmt.Errorf("browser: fill username: %w", err)
	}
	if err := fill(pass, creds.Password); err != nil {
		return fmt.Errorf("browser: fill password: %w", err)
	}

	if submit := d.firstMatch(ctx, sel.Submit); submit != nil {
		if err := submit.Click(proto.InputMouseButtonLeft, 1); err != nil {
			return fmt.Errorf("browser: click submit: %w", err)
		}
		return nil
	}
	if err := pass.Type(input.Enter); err != nil {
		return fmt.Errorf("browser: submit via enter: %w", err)
	}
	return nil
}

func fill(el *rod.Element, text string) error {
	if err := el.SelectAllText(); err == nil {
		_ = el.Type(input.Backspace)
	}
	return el.Input(text)
}

// NetworkEvents returns a copy of the events captured so far.
func (d *Rod) NetworkEvents() []model.NetworkEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]model.NetworkEvent(nil), d.events...)
}

// Close tears down the page, browser, and launched process. Safe to call
// more than once.
func (d *Rod) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	if d.evCancel != nil {
		d.evCancel()
	}
	if d.page != nil {
		_ = d.page.Close()
	}
	var err error
	if d.browser != nil {
		err = d.browser.Close()
	}
	if d.lnch != nil {
		d.lnch.Cleanup()
	}
	d.cfg.Logger.Info("browser: closed")
	return err
}

// ResolveBin maps a browser name to a binary hint. Only Chromium-family
// browsers are supported; rod speaks CDP.
func ResolveBin(name string) (string, error) {
	switch strings.ToLower(name) {
	case "", "auto", "chrome", "chromium":
		return "", nil
	case "firefox":
		return "", fmt.Errorf("browser: firefox is not supported (CDP only); use chrome or chromium")
	default:
		// Treat anything else as an explicit binary path.
		return name, nil
	}
}
