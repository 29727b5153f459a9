// Package preflight traces the gateway's redirect chain at the HTTP level
// before any browser is launched. It answers "does this gateway redirect to
// a login page at all" cheaply, and records per-hop findings the browser
// run would not surface.
package preflight

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/selimozcann/AuthFlowHunter/internal/detect"
	"github.com/selimozcann/AuthFlowHunter/internal/htmlscan"
	"github.com/selimozcann/AuthFlowHunter/internal/model"
)

const bodyLimit = 512 * 1024

// Result is the outcome of one preflight trace.
type Result struct {
	Target   string
	Chain    []model.Hop
	Findings []model.Finding
	Error    string
	// LoginReached is true when the chain ended on a page that looks like
	// a login form or an oauth/login URL.
	LoginReached bool
}

// Tracer follows redirects manually, including meta-refresh and JS hops.
type Tracer struct {
	Client   *http.Client
	MaxChain int
}

// New creates a Tracer. maxChain bounds the hop count including synthetic
// client-side hops.
func New(c *http.Client, maxChain int) *Tracer {
	if maxChain <= 0 {
		maxChain = 15
	}
	return &Tracer{Client: c, MaxChain: maxChain}
}

// Trace follows the chain starting at target.
func (t *Tracer) Trace(ctx context.Context, target string) Result {
	res := Result{Target: target}
	current := target
	seen := make(map[string]struct{})
	var prevURL *url.URL

	for i := 0; i < t.MaxChain; i++ {
		if _, ok := seen[current]; ok {
			res.Findings = append(res.Findings, model.Finding{Type: "CHAIN_LOOP", Severity: "info", AtHop: i, Detail: current})
			break
		}
		seen[current] = struct{}{}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, current, nil)
		if err != nil {
			res.Error = err.Error()
			break
		}
		start := time.Now()
		resp, err := t.Client.Do(req)
		elapsed := time.Since(start).Milliseconds()
		if err != nil {
			res.Error = err.Error()
			break
		}

		hop := model.Hop{Index: i, URL: current, Status: resp.StatusCode, Via: "http-location", TimeMs: elapsed}
		u := resp.Request.URL

		t.inspect(&res, u, prevURL, i)

		if resp.StatusCode >= 300 && resp.StatusCode < 400 {
			loc := resp.Header.Get("Location")
			_ = resp.Body.Close()
			if loc == "" {
				hop.Final = true
				res.Chain = append(res.Chain, hop)
				break
			}
			nextURL, perr := url.Parse(loc)
			if perr != nil {
				hop.Final = true
				res.Chain = append(res.Chain, hop)
				break
			}
			res.Chain = append(res.Chain, hop)
			prevURL = u
			current = u.ResolveReference(nextURL).String()
			continue
		}

		if htmlscan.IsHTML(resp.Header.Get("Content-Type")) {
			next, via, body, found := htmlscan.ReadAndScan(resp.Body, bodyLimit, u)
			_ = resp.Body.Close()
			if htmlscan.HasLoginForm(body) {
				res.LoginReached = true
			}
			if found {
				res.Chain = append(res.Chain, hop)
				i++
				if i >= t.MaxChain {
					res.Findings = append(res.Findings, model.Finding{Type: "CHAIN_TOO_LONG", Severity: "info", AtHop: i})
					break
				}
				current = next.String()
				res.Chain = append(res.Chain, model.Hop{Index: i, URL: current, Via: via})
				prevURL = u
				t.inspect(&res, next, nil, i)
				continue
			}
			hop.Final = true
			res.Chain = append(res.Chain, hop)
		} else {
			_ = resp.Body.Close()
			hop.Final = true
			res.Chain = append(res.Chain, hop)
		}
		break
	}

	if len(res.Chain) >= t.MaxChain {
		res.Findings = append(res.Findings, model.Finding{Type: "CHAIN_TOO_LONG", Severity: "info", AtHop: t.MaxChain})
	}
	if !res.LoginReached {
		res.LoginReached = finalLooksLikeLogin(res.Chain)
	}
	return res
}

func (t *Tracer) inspect(res *Result, u, prev *url.URL, hop int) {
	if f := detect.TokenLeak(u, hop); f != nil {
		res.Findings = append(res.Findings, *f)
	}
	if f := detect.MissingState(u, hop); f != nil {
		res.Findings = append(res.Findings, *f)
	}
	if f := detect.InternalRedirect(u, hop); f != nil {
		res.Findings = append(res.Findings, *f)
	}
	if prev != nil {
		if f := detect.HTTPSDowngrade(prev, u, hop); f != nil {
			res.Findings = append(res.Findings, *f)
		}
	}
}

var loginMarkers = []string{"oauth", "login"}

func finalLooksLikeLogin(chain []model.Hop) bool {
	if len(chain) == 0 {
		return false
	}
	last := chain[len(chain)-1].URL
	u, err := url.Parse(last)
	if err != nil {
		return false
	}
	lowered := strings.ToLower(u.String())
	for _, m := range loginMarkers {
		if strings.Contains(lowered, m) {
			return true
		}
	}
	return false
}
