// Package httpclient builds the HTTP client used for preflight probing.
// Redirects are never followed automatically so every hop stays observable,
// and TLS verification can be disabled for gateways behind self-signed
// certificates.
package httpclient

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// Config holds settings for the preflight client.
type Config struct {
	Timeout  time.Duration
	Headers  http.Header
	Cookie   string
	Insecure bool
	Retries  int
}

// injectingRoundTripper adds configured headers and cookies to every request
// and retries transport errors and 5xx responses with exponential backoff.
type injectingRoundTripper struct {
	base    http.RoundTripper
	headers http.Header
	cookie  string
	retries int
}

func (t *injectingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.base == nil {
		t.base = http.DefaultTransport
	}

	var resp *http.Response
	var err error

	for attempt := 0; ; attempt++ {
		r := req.Clone(req.Context())
		for k, vs := range t.headers {
			r.Header.Del(k)
			for _, v := range vs {
				r.Header.Add(k, v)
			}
		}
		if t.cookie != "" {
			r.Header.Set("Cookie", t.cookie)
		}

		resp, err = t.base.RoundTrip(r)
		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}
		if attempt >= t.retries {
			if err != nil {
				return nil, err
			}
			return resp, nil
		}
		if resp != nil {
			_ = resp.Body.Close()
		}
		time.Sleep(time.Duration(100*(1<<attempt)) * time.Millisecond)
	}
}

// New returns a client with automatic redirects disabled.
func New(cfg Config) *http.Client {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.Insecure}, // #nosec G402
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2: true,
	}
	return &http.Client{
		Transport: &injectingRoundTripper{
			base:    transport,
			headers: cfg.Headers,
			cookie:  cfg.Cookie,
			retries: cfg.Retries,
		},
		Timeout: cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
