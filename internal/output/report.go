// Package output renders a flow report to the console, to JSONL, and to a
// standalone HTML page.
package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/selimozcann/AuthFlowHunter/internal/model"
	"github.com/selimozcann/AuthFlowHunter/internal/podlog"
)

// Record is one JSONL line describing a complete run.
type Record struct {
	Timestamp   string                   `json:"timestamp"`
	Target      string                   `json:"target"`
	FinalURL    string                   `json:"final_url"`
	Passed      bool                     `json:"passed"`
	Checkpoints []model.CheckpointResult `json:"checkpoints"`
	Preflight   []model.Hop              `json:"preflight,omitempty"`
	Findings    []model.Finding          `json:"findings,omitempty"`
	DurationMs  int64                    `json:"duration_ms"`
	Error       string                   `json:"error,omitempty"`
}

// Summary holds the counters printed at the end of a run.
type Summary struct {
	Total    int
	Passed   int
	Failed   int
	Findings int
}

// BuildRecord converts a report into its JSONL form.
func BuildRecord(rep model.Report) Record {
	return Record{
		Timestamp:   rep.StartedAt.UTC().Format(time.RFC3339),
		Target:      rep.Target,
		FinalURL:    rep.FinalURL(),
		Passed:      rep.Passed,
		Checkpoints: append([]model.CheckpointResult(nil), rep.Checkpoints...),
		Preflight:   append([]model.Hop(nil), rep.Preflight...),
		Findings:    append([]model.Finding(nil), rep.Findings...),
		DurationMs:  rep.DurationMs,
		Error:       rep.Error,
	}
}

// BuildSummary derives the run counters.
func BuildSummary(rep model.Report) Summary {
	sum := Summary{Total: len(rep.Checkpoints), Findings: len(rep.Findings)}
	for _, cp := range rep.Checkpoints {
		if cp.Passed {
			sum.Passed++
		} else {
			sum.Failed++
		}
	}
	return sum
}

// WriteJSONL appends the record as one JSON line to w.
func WriteJSONL(w io.Writer, rec Record) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		return err
	}
	return bw.Flush()
}

// Console writes the human-readable report.
type Console struct {
	W       io.Writer
	Verbose bool
}

var (
	passMark = color.New(color.FgGreen, color.Bold).Sprint("PASS")
	failMark = color.New(color.FgRed, color.Bold).Sprint("FAIL")
	dim      = color.New(color.FgHiBlack).SprintFunc()
	warn     = color.New(color.FgYellow).SprintFunc()
)

// PrintReport renders the whole run: checkpoints, findings, pod logs,
// summary.
func (c Console) PrintReport(rep model.Report) {
	for _, cp := range rep.Checkpoints {
		c.printCheckpoint(cp)
	}

	if len(rep.Findings) > 0 {
		fmt.Fprintln(c.W, "Findings:")
		for _, f := range rep.Findings {
			fmt.Fprintf(c.W, "  - [%s] %s: %s\n", warn(strings.ToUpper(f.Severity)), f.Type, f.Detail)
		}
	}

	if c.Verbose && len(rep.PodLogs) > 0 {
		for name, text := range rep.PodLogs {
			fmt.Fprintf(c.W, "%s\n", dim("--- "+name+" ---"))
			for _, line := range podlog.Tail(text, 3) {
				if strings.TrimSpace(line) != "" {
					fmt.Fprintf(c.W, "    %s\n", dim(line))
				}
			}
		}
	}

	c.PrintSummary(rep)
}

func (c Console) printCheckpoint(cp model.CheckpointResult) {
	mark := failMark
	if cp.Passed {
		mark = passMark
	}
	fmt.Fprintf(c.W, "%s %s: %s\n", mark, cp.Name, cp.Message)

	if !c.Verbose {
		return
	}
	fmt.Fprintf(c.W, "    %s\n", dim("url: "+cp.Snapshot.URL))
	if cp.Snapshot.Title != "" {
		fmt.Fprintf(c.W, "    %s\n", dim("title: "+cp.Snapshot.Title))
	}
	if important, ok := cp.Details["important_content"]; ok {
		for _, line := range strings.Split(important, "\n") {
			fmt.Fprintf(c.W, "    %s\n", warn("! "+line))
		}
	}
}

// PrintSummary renders the final counters and the overall verdict.
func (c Console) PrintSummary(rep model.Report) {
	sum := BuildSummary(rep)
	fmt.Fprintln(c.W, strings.Repeat("=", 60))
	fmt.Fprintf(c.W, "Checkpoints: %d  passed: %d  failed: %d  findings: %d  duration: %dms\n",
		sum.Total, sum.Passed, sum.Failed, sum.Findings, rep.DurationMs)
	if rep.Error != "" {
		fmt.Fprintf(c.W, "Error: %s\n", rep.Error)
	}
	if rep.Passed {
		fmt.Fprintf(c.W, "%s overall: authentication flow is working\n", passMark)
	} else {
		fmt.Fprintf(c.W, "%s overall: authentication flow failed\n", failMark)
	}
}
