// Package statuscolor renders color-coded redirect chains and checkpoint
// marks on the terminal.
package statuscolor

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/selimozcann/AuthFlowHunter/internal/model"
)

const (
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
	colorReset  = "\033[0m"
)

func colorFor(status int) string {
	switch {
	case status == 0:
		return colorGray
	case status >= 300 && status < 400:
		return colorGreen
	case status >= 400:
		return colorRed
	default:
		return colorYellow
	}
}

// Sprint returns a colorized status code (3xx green, 4xx/5xx red).
func Sprint(status int) string {
	if status == 0 {
		return fmt.Sprintf("%s-%s", colorGray, colorReset)
	}
	return fmt.Sprintf("%s%d%s", colorFor(status), status, colorReset)
}

// PrintChain fetches target and follows up to 10 redirects, printing each
// hop. Used by the quick single-URL probe.
func PrintChain(target string) error {
	client := &http.Client{CheckRedirect: func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	for i := 0; i < 10; i++ {
		resp, err := client.Get(target)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s\n", target, Sprint(resp.StatusCode))
		_ = resp.Body.Close()
		if resp.StatusCode >= 300 && resp.StatusCode < 400 {
			loc := resp.Header.Get("Location")
			if loc == "" {
				break
			}
			u, err := url.Parse(loc)
			if err != nil {
				return fmt.Errorf("invalid location: %w", err)
			}
			target = resp.Request.URL.ResolveReference(u).String()
			continue
		}
		break
	}
	return nil
}

// PrintHops prints a pre-fetched preflight chain with colorized statuses.
func PrintHops(hops []model.Hop) {
	for _, h := range hops {
		fmt.Printf("[%d] %s %s via %s (%dms)\n", h.Index, h.URL, Sprint(h.Status), h.Via, h.TimeMs)
	}
}
