package evaluator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chipflow-eda/dse-core/internal/metrics"
	"github.com/chipflow-eda/dse-core/pkg/logger"
)

// CommandEvaluator runs one external build process per batch item,
// concurrently, bounded by the batch size. It suits designs whose build
// flow has no batch-capable entry point. The slot, quota and batch id are
// passed in the environment so any caching layer underneath the command
// sees the batch id as an input.
type CommandEvaluator struct {
	// Command is the program executed per item.
	Command string
	// WorkspaceRoot is the working directory for each process.
	WorkspaceRoot string
	// Timeout bounds each item individually. Zero means no limit.
	Timeout time.Duration
}

// NewCommandEvaluator creates a per-item process evaluator.
func NewCommandEvaluator(command, workspaceRoot string, timeout time.Duration) *CommandEvaluator {
	return &CommandEvaluator{
		Command:       command,
		WorkspaceRoot: workspaceRoot,
		Timeout:       timeout,
	}
}

// EvaluateBatch launches one process per item. Items fail independently:
// a timeout or build error on one slot leaves its siblings' results
// intact.
func (e *CommandEvaluator) EvaluateBatch(ctx context.Context, items []Item) ([]Result, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("evaluate batch: no items")
	}
	if e.Command == "" {
		return nil, fmt.Errorf("evaluate batch: command must not be empty")
	}
	for i := range items {
		if err := items[i].Args.Validate(); err != nil {
			return nil, fmt.Errorf("evaluate batch: slot %d: %w", items[i].Slot, err)
		}
	}

	results := make([]Result, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(items))
	for i := range items {
		i := i
		g.Go(func() error {
			results[i] = e.runItem(gctx, &items[i])
			return nil
		})
	}
	// Workers never return errors; per-item failures are classified in
	// their Result. Wait only joins the group.
	_ = g.Wait()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return results, nil
}

func (e *CommandEvaluator) runItem(ctx context.Context, item *Item) Result {
	runCtx := ctx
	var cancel context.CancelFunc
	if e.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	logger.Debug("running item build", "command", e.Command, "slot", item.Slot, "batch_id", item.BatchID, "quota", item.Quota)

	cmd := exec.CommandContext(runCtx, e.Command, item.Args.Argv()...)
	cmd.Dir = e.WorkspaceRoot
	cmd.Env = append(os.Environ(),
		BatchIDDefine+"="+strconv.FormatInt(item.BatchID, 10),
		"DSE_SLOT="+strconv.Itoa(item.Slot),
		"DSE_QUOTA="+strconv.Itoa(item.Quota),
		"DSE_METRICS_FILE="+item.Args.MetricsFile,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return Result{Slot: item.Slot, Failure: timeoutFailure(
				fmt.Sprintf("slot %d timed out after %s", item.Slot, e.Timeout))}
		}
		return Result{Slot: item.Slot, Failure: buildFailure(
			fmt.Sprintf("slot %d build failed: %v: %s", item.Slot, err, tail(string(output), 1000)))}
	}

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
