package podlog_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/selimozcann/AuthFlowHunter/internal/podlog"
)

type fakeRunner struct {
	mu    sync.Mutex
	calls [][]string
	out   map[string]string
	err   error
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.mu.Lock()
	r.calls = append(r.calls, append([]string{name}, args...))
	r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	key := strings.Join(args, " ")
	if out, ok := r.out[key]; ok {
		return []byte(out), nil
	}
	return []byte("line1\nline2\n"), nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFetchBuildsLogsCommand(t *testing.T) {
	t.Parallel()
	runner := &fakeRunner{}
	f := podlog.New(podlog.Config{Tool: "oc", Runner: runner, Logger: quietLogger()})

	src := podlog.Source{
		Name:      "Gateway",
		Namespace: "openshift-ingress",
		Selector:  "app=gw",
		Container: "istio-proxy",
		TailLines: 20,
	}
	got := f.Fetch(context.Background(), []podlog.Source{src})

	if got["Gateway"] != "line1\nline2" {
		t.Fatalf("logs = %q", got["Gateway"])
	}
	want := []string{"oc", "logs", "--tail", "20", "-n", "openshift-ingress", "-l", "app=gw", "-c", "istio-proxy"}
	if len(runner.calls) != 1 || !reflect.DeepEqual(runner.calls[0], want) {
		t.Fatalf("command = %v, want %v", runner.calls, want)
	}
}

func TestFetchDefaultsTail(t *testing.T) {
	t.Parallel()
	runner := &fakeRunner{}
	f := podlog.New(podlog.Config{Runner: runner, Logger: quietLogger()})

	f.Fetch(context.Background(), []podlog.Source{{Name: "x", Namespace: "ns"}})

	cmd := strings.Join(runner.calls[0], " ")
	if !strings.Contains(cmd, "--tail 10") {
		t.Fatalf("command = %q, want default tail of 10", cmd)
	}
	if strings.Contains(cmd, "-l") || strings.Contains(cmd, "-c") {
		t.Fatalf("command = %q, selector and container must be omitted", cmd)
	}
}

func TestFetchFailureBecomesErrorEntry(t *testing.T) {
	t.Parallel()
	runner := &fakeRunner{err: errors.New("connection refused")}
	f := podlog.New(podlog.Config{Runner: runner, Logger: quietLogger()})

	got := f.Fetch(context.Background(), []podlog.Source{{Name: "x", Namespace: "ns"}})
	if got["x"] != "ERROR: connection refused" {
		t.Fatalf("entry = %q", got["x"])
	}
}

func TestFetchFanOut(t *testing.T) {
	t.Parallel()
	runner := &fakeRunner{}
	f := podlog.New(podlog.Config{Workers: 2, Runner: runner, Logger: quietLogger()})

	var sources []podlog.Source
	for i := 0; i < 8; i++ {
		sources = append(sources, podlog.Source{Name: fmt.Sprintf("src-%d", i), Namespace: "ns"})
	}
	got := f.Fetch(context.Background(), sources)

	if len(got) != 8 {
		t.Fatalf("got %d entries, want 8", len(got))
	}
	for _, src := range sources {
		if got[src.Name] == "" {
			t.Fatalf("missing logs for %s", src.Name)
		}
	}
}

func TestTail(t *testing.T) {
	t.Parallel()
	text := "a\nb\nc\nd\n"
	if got := podlog.Tail(text, 2); !reflect.DeepEqual(got, []string{"c", "d"}) {
		t.Fatalf("tail = %v", got)
	}
	if got := podlog.Tail("only", 3); !reflect.DeepEqual(got, []string{"only"}) {
		t.Fatalf("tail = %v", got)
	}
}

func TestDefaultSourcesCoverStack(t *testing.T) {
	t.Parallel()
	sources := podlog.DefaultSources()
	if len(sources) != 3 {
		t.Fatalf("got %d sources, want 3", len(sources))
	}
	for _, src := range sources {
		if src.Namespace == "" || src.Selector == "" {
			t.Fatalf("incomplete source: %+v", src)
		}
	}
}
