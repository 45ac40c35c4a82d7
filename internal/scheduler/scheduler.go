// Package scheduler runs the batched exploration loop: propose, persist,
// dispatch one batch to the evaluator, record the outcomes.
package scheduler

import (
	"context"
	"fmt"

	"github.com/chipflow-eda/dse-core/internal/evaluator"
	"github.com/chipflow-eda/dse-core/internal/objective"
	"github.com/chipflow-eda/dse-core/internal/sampler"
	"github.com/chipflow-eda/dse-core/internal/study"
	"github.com/chipflow-eda/dse-core/pkg/logger"
)

// Quota splits the total compute budget evenly across the configured
// parallelism. Every variant gets at least one unit, so oversubscribed
// configurations degrade instead of stalling.
func Quota(budget, parallelism int) int {
	if parallelism <= 0 {
		return budget
	}
	q := budget / parallelism
	if q < 1 {
		return 1
	}
	return q
}

// Options configures a Scheduler.
type Options struct {
	Store     *study.Store
	Sampler   sampler.Sampler
	Design    objective.Design
	Evaluator evaluator.Evaluator

	// Parallelism is the requested batch width. Designs without batched
	// build support are clamped to 1.
	Parallelism int

	// ComputeBudget is the total compute units split across a batch.
	ComputeBudget int

	// Observer receives a callback after every finished trial. Optional.
	Observer ProgressObserver
}

// Scheduler drives the exploration loop over a single study.
type Scheduler struct {
	store         *study.Store
	sampler       sampler.Sampler
	design        objective.Design
	eval          evaluator.Evaluator
	parallelism   int
	computeBudget int
	observer      ProgressObserver
}

// New validates the design adapter and builds a scheduler. A design
// without batched build support forces the batch width down to one; the
// loop itself is identical either way.
func New(opts Options) (*Scheduler, error) {
	if err := objective.ValidateDesign(opts.Design); err != nil {
		return nil, err
	}

	p := opts.Parallelism
	if p < 1 {
		p = 1
	}
	if p > 1 && !opts.Design.ParallelBuild().Supported {
		logger.Warn("design does not support batched builds, running sequentially",
			"design", opts.Design.Name(), "requested_parallelism", p)
		p = 1
	}

	obs := opts.Observer
	if obs == nil {
		obs = NopObserver{}
	}

	return &Scheduler{
		store:         opts.Store,
		sampler:       opts.Sampler,
		design:        opts.Design,
		eval:          opts.Evaluator,
		parallelism:   p,
		computeBudget: opts.ComputeBudget,
		observer:      obs,
	}, nil
}

// Parallelism returns the effective batch width after design clamping.
func (s *Scheduler) Parallelism() int {
	return s.parallelism
}

// Run evaluates nTrials new trials in batches of up to the configured
// width. Per-trial build failures are recorded and the loop continues;
// storage errors and context cancellation abort the run.
func (s *Scheduler) Run(ctx context.Context, nTrials int) error {
	if nTrials <= 0 {
		return nil
	}

	quota := Quota(s.computeBudget, s.parallelism)
	track := newTracker(nTrials)

	remaining := nTrials
	for remaining > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		width := s.parallelism
		if width > remaining {
			width = remaining
		}

		trials, items, err := s.proposeBatch(width, quota)
		if err != nil {
			return err
		}
		if err := s.dispatch(ctx, trials, items, track); err != nil {
			return err
		}
		remaining -= width
	}
	return nil
}

// proposeBatch creates and persists the batch's trials in Pending state,
// one per slot, with their build arguments prepared. The batch id is not
// assigned here: that happens in dispatch, immediately before the
// evaluator call, so the persisted sequence never runs ahead of reality
// by more than the one in-flight batch.
func (s *Scheduler) proposeBatch(width, quota int) ([]*study.Trial, []evaluator.Item, error) {
	history, err := s.store.Trials()
	if err != nil {
		return nil, nil, err
	}

	sp := s.design.Space()
	pb := s.design.ParallelBuild()

	trials := make([]*study.Trial, 0, width)
	items := make([]evaluator.Item, 0, width)
	for slot := 0; slot < width; slot++ {
		params, err := s.sampler.Propose(history)
		if err != nil {
			return nil, nil, fmt.Errorf("proposing slot %d: %w", slot, err)
		}
		if err := sp.CheckAssignment(params); err != nil {
			return nil, nil, fmt.Errorf("proposal for slot %d rejected: %w", slot, err)
		}

		var args evaluator.BuildArgs
		if pb.Supported {
			args, err = pb.Options(params, slot)
		} else {
			args, err = s.design.BuildOptions(params)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("build options for slot %d: %w", slot, err)
		}

		t := study.NewTrial(s.store.NextTrialID(), params)
		t.Slot = slot
		if err := s.store.PutTrial(t); err != nil {
			return nil, nil, err
		}

		trials = append(trials, t)
		items = append(items, evaluator.Item{
			Slot:   slot,
			Params: params,
			Quota:  quota,
			Args:   args,
		})
	}
	return trials, items, nil
}

// dispatch stamps the batch id, marks the trials running, performs the
// single blocking evaluator call, and records every outcome. The batch id
// is persisted before the evaluator sees it; a crash between those two
// points burns an id, which is harmless because the sequence only ever
// needs to be strictly increasing.
func (s *Scheduler) dispatch(ctx context.Context, trials []*study.Trial, items []evaluator.Item, track *tracker) error {
	batchID, err := s.store.NextBatchID()
	if err != nil {
		return err
	}

	for i := range trials {
		trials[i].BatchID = batchID
		trials[i].Status = study.StatusRunning
		items[i].BatchID = batchID
		if err := s.store.PutTrial(trials[i]); err != nil {
			return err
		}
	}

	logger.Debug("dispatching batch",
		"batch_id", batchID, "width", len(items), "quota", items[0].Quota)

	results, err := s.eval.EvaluateBatch(ctx, items)
	if err != nil {
		return fmt.Errorf("batch %d: %w", batchID, err)
	}
	if len(results) != len(items) {
		return fmt.Errorf("batch %d: evaluator returned %d results for %d items",
			batchID, len(results), len(items))
	}

	bySlot := make(map[int]evaluator.Result, len(results))
	for _, r := range results {
		bySlot[r.Slot] = r
	}

	for _, t := range trials {
		r, ok := bySlot[t.Slot]
		if !ok {
			return fmt.Errorf("batch %d: evaluator returned no result for slot %d", batchID, t.Slot)
		}
		s.record(t, r)
		if err := s.store.PutTrial(t); err != nil {
			return err
		}
		s.sampler.Observe(t)
		s.observer.TrialFinished(track.progress(t))
	}
	return nil
}

// record maps one evaluator result onto its trial.
func (s *Scheduler) record(t *study.Trial, r evaluator.Result) {
	if r.Failure != nil {
		fv := objective.FailedValues()
		t.MarkFailed(string(r.Failure.Kind), r.Failure.Message,
			fv.Performance, fv.Area, fv.TimingMargin, fv.Violation)
		logger.Warn("trial failed",
			"trial", t.ID, "batch_id", t.BatchID, "slot", t.Slot,
			"kind", r.Failure.Kind)
		return
	}

	v := objective.Evaluate(s.design, r.Metrics, t.Params)
	t.MarkComplete(r.Metrics, v.Performance, v.Area, v.TimingMargin, v.Violation)
	logger.Debug("trial complete",
		"trial", t.ID, "batch_id", t.BatchID, "slot", t.Slot,
		"performance", v.Performance, "area", v.Area, "violation", v.Violation)
}
