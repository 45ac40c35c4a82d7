package evaluator

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/chipflow-eda/dse-core/internal/metrics"
	"github.com/chipflow-eda/dse-core/pkg/logger"
)

// BazelEvaluator drives a Bazel-style build graph: one external build
// invocation per batch, carrying the merged per-slot options plus the
// batch-id cache-buster, producing one metrics file per slot. The build
// system schedules the actual parallelism; the evaluator hands it the
// total compute budget as a jobs limit.
type BazelEvaluator struct {
	// Command is the build tool binary, normally "bazel".
	Command string
	// WorkspaceRoot is the working directory for the build and the base
	// for relative metrics-file paths.
	WorkspaceRoot string
	// Timeout bounds the whole batch invocation. Zero means no limit.
	Timeout time.Duration
}

// NewBazelEvaluator creates a batch build evaluator.
func NewBazelEvaluator(command, workspaceRoot string, timeout time.Duration) *BazelEvaluator {
	if command == "" {
		command = "bazel"
	}
	return &BazelEvaluator{
		Command:       command,
		WorkspaceRoot: workspaceRoot,
		Timeout:       timeout,
	}
}

// EvaluateBatch runs one build for all items and parses one metrics file
// per item. A build failure or timeout fails every item in the batch; a
// metrics parse failure fails only its own item.
func (e *BazelEvaluator) EvaluateBatch(ctx context.Context, items []Item) ([]Result, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("evaluate batch: no items")
	}
	for i := range items {
		if err := items[i].Args.Validate(); err != nil {
			return nil, fmt.Errorf("evaluate batch: slot %d: %w", items[i].Slot, err)
		}
	}

	batchID := items[0].BatchID
	totalJobs := 0
	argv := []string{"build"}
	for i := range items {
		argv = append(argv, items[i].Args.FlagArgs()...)
		totalJobs += items[i].Quota
	}
	// The batch id rides on a define so the build graph sees a changed
	// input for every reused slot, defeating artifact caching across
	// batches.
	argv = append(argv, "--define="+BatchIDDefine+"="+strconv.FormatInt(batchID, 10))
	argv = append(argv, "--jobs="+strconv.Itoa(totalJobs))
	for i := range items {
		argv = append(argv, items[i].Args.Target)
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if e.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	logger.Debug("running batch build", "command", e.Command, "batch_id", batchID, "items", len(items), "jobs", totalJobs)

	cmd := exec.CommandContext(runCtx, e.Command, argv...)
	cmd.Dir = e.WorkspaceRoot
	output, err := cmd.CombinedOutput()

	if err != nil {
		var failure *Failure
		switch {
		case ctx.Err() != nil:
			// The run itself was cancelled, not this batch.
			return nil, ctx.Err()
		case errors.Is(runCtx.Err(), context.DeadlineExceeded):
			failure = timeoutFailure(fmt.Sprintf("batch build timed out after %s", e.Timeout))
		default:
			failure = buildFailure(fmt.Sprintf("batch build failed: %v: %s", err, tail(string(output), 1000)))
		}
		results := make([]Result, len(items))
		for i := range items {
			results[i] = Result{Slot: items[i].Slot, Failure: failure}
		}
		return results, nil
	}

	results := make([]Result, len(items))
	for i := range items {
		results[i] = e.collect(&items[i])
	}
	return results, nil
}

func (e *BazelEvaluator) collect(item *Item) Result {
	path := item.Args.MetricsFile
	if !filepath.IsAbs(path) && e.WorkspaceRoot != "" {
		path = filepath.Join(e.WorkspaceRoot, path)
	}
	ppa, err := metrics.ParseFile(path)
	if err != nil {
		return Result{Slot: item.Slot, Failure: parseFailure(err.Error())}
	}
	return Result{Slot: item.Slot, Metrics: ppa}
}
