// Package podlog captures recent log lines from backend workloads while the
// flow runs, via `oc logs` / `kubectl logs`. Capture is diagnostic only:
// every failure is folded into the returned text, never into an error, so a
// broken cluster connection can't abort a verification run.
package podlog

import (
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Source names one workload to pull logs from.
type Source struct {
	Name      string `yaml:"name"`
	Namespace string `yaml:"namespace"`
	Selector  string `yaml:"selector"`
	Container string `yaml:"container,omitempty"`
	TailLines int    `yaml:"tail,omitempty"`
}

// DefaultSources covers the gateway, the auth proxy, and the OAuth server.
func DefaultSources() []Source {
	return []Source{
		{
			Name:      "Gateway Pod (istio-proxy with WASM)",
			Namespace: "openshift-ingress",
			Selector:  "gateway.networking.k8s.io/gateway-name=odh-gateway",
			Container: "istio-proxy",
			TailLines: 20,
		},
		{
			Name:      "kube-auth-proxy",
			Namespace: "openshift-ingress",
			Selector:  "app=kube-auth-proxy",
			TailLines: 10,
		},
		{
			Name:      "OAuth Server",
			Namespace: "openshift-authentication",
			Selector:  "app=oauth-openshift",
			TailLines: 5,
		},
	}
}

// Runner executes a command and returns its combined output. Swapped out in
// tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands through os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Config tunes the fetcher.
type Config struct {
	// Tool is the CLI used to fetch logs. Default: "oc".
	Tool string
	// Timeout bounds a single log fetch. Default: 10s.
	Timeout time.Duration
	// Workers bounds concurrent fetches. Default: 3.
	Workers int

	Runner Runner
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Tool == "" {
		c.Tool = "oc"
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.Workers <= 0 {
		c.Workers = 3
	}
	if c.Runner == nil {
		c.Runner = ExecRunner{}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Fetcher pulls recent logs from a set of sources.
type Fetcher struct {
	cfg Config
}

// New creates a Fetcher.
func New(cfg Config) *Fetcher {
	cfg.defaults()
	return &Fetcher{cfg: cfg}
}

// Fetch grabs the tail of each source's logs, fanning out across a bounded
// worker pool. The result maps source name to log text; failures appear as
// "ERROR: ..." entries.
func (f *Fetcher) Fetch(ctx context.Context, sources []Source) map[string]string {
	out := make(map[string]string, len(sources))
	mu := &sync.Mutex{}

	jobs := make(chan Source)
	wg := sync.WaitGroup{}
	for i := 0; i < f.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for src := range jobs {
				text := f.fetchOne(ctx, src)
				mu.Lock()
				out[src.Name] = text
				mu.Unlock()
			}
		}()
	}

	for _, src := range sources {
		if ctx.Err() != nil {
			break
		}
		jobs <- src
	}
	close(jobs)
	wg.Wait()
	return out
}

func (f *Fetcher) fetchOne(ctx context.Context, src Source) string {
	tail := src.TailLines
	if tail <= 0 {
		tail = 10
	}
	args := []string{"logs", "--tail", strconv.Itoa(tail), "-n", src.Namespace}
	if src.Selector != "" {
		args = append(args, "-l", src.Selector)
	}
	if src.Container != "" {
		args = append(args, "-c", src.Container)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	out, err := f.cfg.Runner.Run(fetchCtx, f.cfg.Tool, args...)
	if err != nil {
		msg := diagnose(fetchCtx, err)
		f.cfg.Logger.Warn("podlog: fetch failed", "source", src.Name, "error", msg)
		return "ERROR: " + msg
	}
	text := strings.TrimSpace(string(out))
	f.cfg.Logger.Debug("podlog: fetched", "source", src.Name, "lines", len(strings.Split(text, "\n")))
	return text
}

func diagnose(ctx context.Context, err error) string {
	if ctx.Err() == context.DeadlineExceeded {
		return "Command timeout"
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if msg := strings.TrimSpace(string(exitErr.Stderr)); msg != "" {
			return msg
		}
	}
	return err.Error()
}

// Tail returns the last n lines of text, for compact console echoing.
func Tail(text string, n int) []string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) <= n {
		return lines
	}
	return lines[len(lines)-n:]
}
