package verdict

import "github.com/selimozcann/AuthFlowHunter/internal/model"

// Ledger is the append-only record of checkpoint results for one run.
// It has a single writer (the flow orchestrator); results are never mutated
// after being recorded. Fail-fast ordering is the caller's responsibility:
// the ledger only aggregates what was attempted.
type Ledger struct {
	results []model.CheckpointResult
}

// Record appends a result and returns whether it passed, so callers can
// short-circuit the flow on the first failure.
func (l *Ledger) Record(res model.CheckpointResult) bool {
	l.results = append(l.results, res)
	return res.Passed
}

// Results returns a copy of the recorded sequence, in checkpoint order.
func (l *Ledger) Results() []model.CheckpointResult {
	return append([]model.CheckpointResult(nil), l.results...)
}

// Len returns the number of attempted checkpoints.
func (l *Ledger) Len() int { return len(l.results) }

// Aggregate reports the overall flow verdict: pass iff every recorded
// checkpoint passed and at least one was attempted.
func (l *Ledger) Aggregate() bool {
	if len(l.results) == 0 {
		return false
	}
	for _, r := range l.results {
		if !r.Passed {
			return false
		}
	}
	return true
}
