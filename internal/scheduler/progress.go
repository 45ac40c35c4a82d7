package scheduler

import (
	"time"

	"github.com/chipflow-eda/dse-core/internal/study"
	"github.com/chipflow-eda/dse-core/pkg/logger"
	"github.com/chipflow-eda/dse-core/pkg/utils"
)

// Progress describes the state of a run after one trial finished.
type Progress struct {
	Trial     *study.Trial
	Completed int
	Failed    int
	Total     int
	Elapsed   time.Duration
	Remaining time.Duration
}

// Done is the number of terminal trials so far in this run.
func (p Progress) Done() int {
	return p.Completed + p.Failed
}

// ProgressObserver is notified once per finished trial.
type ProgressObserver interface {
	TrialFinished(p Progress)
}

// NopObserver discards progress updates.
type NopObserver struct{}

func (NopObserver) TrialFinished(Progress) {}

// LogObserver reports progress through the default logger.
type LogObserver struct{}

func (LogObserver) TrialFinished(p Progress) {
	logger.Info("trial finished",
		"trial", p.Trial.ID,
		"status", p.Trial.Status,
		"done", p.Done(),
		"total", p.Total,
		"elapsed", utils.FormatDuration(p.Elapsed),
		"remaining", utils.FormatDuration(p.Remaining))
}

// tracker accumulates per-run counters for progress reports.
type tracker struct {
	total     int
	completed int
	failed    int
	started   time.Time
}

func newTracker(total int) *tracker {
	return &tracker{total: total, started: time.Now()}
}

func (tr *tracker) progress(t *study.Trial) Progress {
	switch t.Status {
	case study.StatusComplete:
		tr.completed++
	case study.StatusFailed:
		tr.failed++
	}
	elapsed := time.Since(tr.started)
	return Progress{
		Trial:     t,
		Completed: tr.completed,
		Failed:    tr.failed,
		Total:     tr.total,
		Elapsed:   elapsed,
		Remaining: utils.EstimateRemaining(elapsed, tr.completed+tr.failed, tr.total),
	}
}
