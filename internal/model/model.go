package model

import "time"

// FailureKind classifies why a checkpoint failed. Empty for passing results.
type FailureKind string

const (
	FailTimeout         FailureKind = "timeout"
	FailElementNotFound FailureKind = "element_not_found"
	FailUnexpectedPage  FailureKind = "unexpected_page"
	FailSubprocess      FailureKind = "subprocess"
	FailUnknown         FailureKind = "unknown"
)

// Cookie is a browser cookie with its value truncated for reporting.
type Cookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// TruncateCookie shortens a cookie value the same way the report displays it.
func TruncateCookie(name, value string) Cookie {
	if len(value) > 50 {
		value = value[:50] + "..."
	}
	return Cookie{Name: name, Value: value}
}

// PageSnapshot is browser page state captured once per checkpoint.
// Content is the rendered page source, lowercased for indicator matching.
type PageSnapshot struct {
	URL     string   `json:"url"`
	Title   string   `json:"title"`
	Content string   `json:"-"`
	Length  int      `json:"content_length"`
	Cookies []Cookie `json:"cookies,omitempty"`
}

// CheckpointResult is the verdict for a single checkpoint. It is created by
// the verdict engine and never mutated afterward.
type CheckpointResult struct {
	Name     string            `json:"checkpoint"`
	Passed   bool              `json:"passed"`
	Message  string            `json:"message"`
	Kind     FailureKind       `json:"failure_kind,omitempty"`
	Snapshot PageSnapshot      `json:"snapshot"`
	Details  map[string]string `json:"details,omitempty"`
	At       time.Time         `json:"at"`
}

// Finding is an advisory observation about the flow, separate from the
// pass/fail verdict (leaked token, missing session cookie, downgrade...).
type Finding struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	AtHop    int    `json:"at_hop,omitempty"`
	Detail   string `json:"detail"`
	Source   string `json:"source,omitempty"`
}

// Hop is one step of the HTTP-level preflight redirect chain.
type Hop struct {
	Index  int    `json:"index"`
	URL    string `json:"url"`
	Status int    `json:"status"`
	Via    string `json:"via"`
	TimeMs int64  `json:"time_ms"`
	Final  bool   `json:"final"`
}

// NetworkEvent is a request or response observed through CDP while the flow
// was running.
type NetworkEvent struct {
	Kind   string `json:"kind"` // "request" or "response"
	Method string `json:"method,omitempty"`
	URL    string `json:"url"`
	Status int    `json:"status,omitempty"`
}

// Report is the complete outcome of one flow run.
type Report struct {
	Target      string             `json:"target"`
	StartedAt   time.Time          `json:"started_at"`
	DurationMs  int64              `json:"duration_ms"`
	Preflight   []Hop              `json:"preflight,omitempty"`
	Checkpoints []CheckpointResult `json:"checkpoints"`
	Findings    []Finding          `json:"findings,omitempty"`
	PodLogs     map[string]string  `json:"pod_logs,omitempty"`
	Network     []NetworkEvent     `json:"network,omitempty"`
	Passed      bool               `json:"passed"`
	Error       string             `json:"error,omitempty"`
}

// FinalURL returns the URL of the last captured snapshot, or the target when
// no checkpoint ran.
func (r Report) FinalURL() string {
	if len(r.Checkpoints) == 0 {
		return r.Target
	}
	return r.Checkpoints[len(r.Checkpoints)-1].Snapshot.URL
}
