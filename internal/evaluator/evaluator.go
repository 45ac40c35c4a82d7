// Package evaluator is the boundary to the external build-and-measure
// pipeline. Given a batch of per-slot build requests it returns, per item,
// either a PPA metrics record or a classified failure. The batch id is an
// observable input of every request: slots are recycled across batches, and
// the id is the only thing guaranteeing that an underlying build cache does
// not serve a previous batch's artifacts for a reused slot.
package evaluator

import (
	"context"

	"github.com/chipflow-eda/dse-core/internal/metrics"
	"github.com/chipflow-eda/dse-core/internal/space"
)

// BatchIDDefine is the define / environment key carrying the cache-busting
// batch id into every build invocation.
const BatchIDDefine = "DSE_BATCH_ID"

// FailureKind classifies per-item evaluation failures.
type FailureKind string

const (
	// FailureBuild means the external build step errored.
	FailureBuild FailureKind = "build_failed"
	// FailureTimeout means the evaluation exceeded its allotted time.
	FailureTimeout FailureKind = "timeout"
	// FailureParse means the metrics file was missing or malformed.
	FailureParse FailureKind = "parse_failed"
)

// Failure is a classified per-item evaluation failure.
type Failure struct {
	Kind    FailureKind
	Message string
}

// Item is one evaluation request: a variant slot, its parameter
// assignment, the compute quota it may use, the cache-busting batch id,
// and the prepared build invocation.
type Item struct {
	Slot    int
	Params  space.Assignment
	Quota   int
	BatchID int64
	Args    BuildArgs
}

// Result is the outcome for one item. Exactly one of Metrics and Failure
// is set.
type Result struct {
	Slot    int
	Metrics *metrics.PPA
	Failure *Failure
}

// Evaluator runs one batch of evaluations. Implementations must return one
// Result per Item, in item order, and must not let one item's failure
// discard its siblings' results. The returned error is reserved for
// whole-batch problems (malformed requests, cancelled run); per-item
// problems are classified Failures.
type Evaluator interface {
	EvaluateBatch(ctx context.Context, items []Item) ([]Result, error)
}

func buildFailure(msg string) *Failure {
	return &Failure{Kind: FailureBuild, Message: msg}
}

func timeoutFailure(msg string) *Failure {
	return &Failure{Kind: FailureTimeout, Message: msg}
}

func parseFailure(msg string) *Failure {
	return &Failure{Kind: FailureParse, Message: msg}
}

// tail returns the last n bytes of s, for attaching build output to
// failure messages without flooding the study.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
