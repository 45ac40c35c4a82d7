// Package study holds the persistent trial history of one design-space
// exploration: the trial model and the embedded store with the monotonic
// trial-id and batch-id counters that survive resumes.
package study

import (
	"time"

	"github.com/chipflow-eda/dse-core/internal/metrics"
	"github.com/chipflow-eda/dse-core/internal/space"
)

// Status is the lifecycle state of a trial.
type Status string

const (
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// Trial is one evaluated parameter assignment and its outcome. Objective
// values and the violation score are meaningful only when Status is
// Complete; Failed trials carry the sentinel worst-case values.
type Trial struct {
	ID      int64            `json:"id"`
	BatchID int64            `json:"batch_id"`
	Slot    int              `json:"slot"`
	Params  space.Assignment `json:"params"`
	Status  Status           `json:"status"`

	Metrics *metrics.PPA `json:"metrics,omitempty"`

	Performance  float64 `json:"performance"`
	Area         float64 `json:"area"`
	TimingMargin float64 `json:"timing_margin"`
	// Violation is the signed feasibility score: <= 0 feasible (more
	// negative = more margin), > 0 infeasible (larger = more severe).
	Violation float64 `json:"violation"`

	// FailureKind records the classified failure for Failed trials
	// ("build_failed", "timeout", "parse_failed").
	FailureKind string `json:"failure_kind,omitempty"`
	Error       string `json:"error,omitempty"`

	CreatedAtUnixMs   int64 `json:"created_at_unix_ms"`
	CompletedAtUnixMs int64 `json:"completed_at_unix_ms,omitempty"`
}

// Feasible reports whether the trial completed and satisfies all
// constraints. The boundary value 0 is feasible.
func (t *Trial) Feasible() bool {
	return t.Status == StatusComplete && t.Violation <= 0
}

// Terminal reports whether the trial reached a final state.
func (t *Trial) Terminal() bool {
	return t.Status == StatusComplete || t.Status == StatusFailed
}

func nowUnixMs() int64 {
	return time.Now().UTC().UnixMilli()
}

// NewTrial creates a pending trial.
func NewTrial(id int64, params space.Assignment) *Trial {
	return &Trial{
		ID:              id,
		Params:          params,
		Status:          StatusPending,
		CreatedAtUnixMs: nowUnixMs(),
	}
}

// MarkComplete transitions the trial to Complete with its objective values.
func (t *Trial) MarkComplete(ppa *metrics.PPA, performance, area, timingMargin, violation float64) {
	t.Status = StatusComplete
	t.Metrics = ppa
	t.Performance = performance
	t.Area = area
	t.TimingMargin = timingMargin
	t.Violation = violation
	t.CompletedAtUnixMs = nowUnixMs()
}

// MarkFailed transitions the trial to Failed with sentinel objective
// values. Both facts matter downstream: the sampler needs the
// infeasibility, the report needs the failed-ness.
func (t *Trial) MarkFailed(kind, message string, performance, area, timingMargin, violation float64) {
	t.Status = StatusFailed
	t.FailureKind = kind
	t.Error = message
	t.Performance = performance
	t.Area = area
	t.TimingMargin = timingMargin
	t.Violation = violation
	t.CompletedAtUnixMs = nowUnixMs()
}
