package evaluator

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chipflow-eda/dse-core/internal/space"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}

func commandItems(dir string, n int) []Item {
	items := make([]Item, n)
	for i := range items {
		items[i] = Item{
			Slot:    i,
			Params:  space.Assignment{"n_lanes": int64(8)},
			Quota:   4,
			BatchID: 7,
			Args: BuildArgs{
				Target:      "//fake:target",
				MetricsFile: filepath.Join(dir, "ppa_"+string(rune('a'+i))+".txt"),
			},
		}
	}
	return items
}

func TestCommandEvaluatorSuccess(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "build.sh", `
printf 'cell_area: 100\nslack: %s\n' "$DSE_SLOT" > "$DSE_METRICS_FILE"
`)

	eval := NewCommandEvaluator(script, dir, 30*time.Second)
	items := commandItems(dir, 2)

	results, err := eval.EvaluateBatch(context.Background(), items)
	if err != nil {
		t.Fatalf("EvaluateBatch failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	for i, res := range results {
		if res.Failure != nil {
			t.Fatalf("slot %d unexpectedly failed: %v", i, res.Failure)
		}
		if res.Slot != i {
			t.Errorf("result %d has slot %d", i, res.Slot)
		}
		slack, ok := res.Metrics.Get("slack")
		if !ok || slack != float64(i) {
			t.Errorf("slot %d: expected slack %d from env wiring, got %v", i, i, slack)
		}
	}
}

func TestCommandEvaluatorBatchIDInEnvironment(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "build.sh", `
printf 'batch_seen: %s\n' "$DSE_BATCH_ID" > "$DSE_METRICS_FILE"
`)

	eval := NewCommandEvaluator(script, dir, 30*time.Second)
	items := commandItems(dir, 1)
	items[0].BatchID = 41

	results, err := eval.EvaluateBatch(context.Background(), items)
	if err != nil {
		t.Fatalf("EvaluateBatch failed: %v", err)
	}
	if got := results[0].Metrics.GetOr("batch_seen", -1); got != 41 {
		t.Errorf("expected batch id 41 visible to the build, got %v", got)
	}
}

func TestCommandEvaluatorPartialFailureIsolation(t *testing.T) {
	dir := t.TempDir()
	// Slot 0 produces a garbage metrics file; slot 1 succeeds.
	script := writeScript(t, dir, "build.sh", `
if [ "$DSE_SLOT" = "0" ]; then
  printf 'not a metrics file' > "$DSE_METRICS_FILE"
else
  printf 'cell_area: 150\nslack: 2\n' > "$DSE_METRICS_FILE"
fi
`)

	eval := NewCommandEvaluator(script, dir, 30*time.Second)
	results, err := eval.EvaluateBatch(context.Background(), commandItems(dir, 2))
	if err != nil {
		t.Fatalf("EvaluateBatch failed: %v", err)
	}

	if results[0].Failure == nil || results[0].Failure.Kind != FailureParse {
		t.Errorf("expected slot 0 parse failure, got %+v", results[0].Failure)
	}
	if results[1].Failure != nil {
		t.Fatalf("slot 1 must be unaffected by slot 0 failure, got %v", results[1].Failure)
	}
	if area, _ := results[1].Metrics.Get("cell_area"); area != 150 {
		t.Errorf("slot 1 metrics corrupted: area = %v", area)
	}
}

func TestCommandEvaluatorBuildFailure(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "build.sh", `
echo "synthesis exploded" >&2
exit 3
`)

	eval := NewCommandEvaluator(script, dir, 30*time.Second)
	results, err := eval.EvaluateBatch(context.Background(), commandItems(dir, 1))
	if err != nil {
		t.Fatalf("EvaluateBatch failed: %v", err)
	}
	if results[0].Failure == nil || results[0].Failure.Kind != FailureBuild {
		t.Fatalf("expected build failure, got %+v", results[0].Failure)
	}
}

func TestCommandEvaluatorTimeout(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "build.sh", `
sleep 5
`)

	eval := NewCommandEvaluator(script, dir, 100*time.Millisecond)
	results, err := eval.EvaluateBatch(context.Background(), commandItems(dir, 1))
	if err != nil {
		t.Fatalf("EvaluateBatch failed: %v", err)
	}
	if results[0].Failure == nil || results[0].Failure.Kind != FailureTimeout {
		t.Fatalf("expected timeout failure, got %+v", results[0].Failure)
	}
}

func TestCommandEvaluatorEmptyBatch(t *testing.T) {
	eval := NewCommandEvaluator("true", "", 0)
	if _, err := eval.EvaluateBatch(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty batch")
	}
}
