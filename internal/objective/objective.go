// Package objective defines the design adapter contract and the objective
// values derived from build metrics.
//
// The sign convention for constraints follows the usual optimizer form:
// a violation of zero or less is feasible, anything positive is infeasible.
package objective

import (
	"math"

	"github.com/chipflow-eda/dse-core/internal/evaluator"
	"github.com/chipflow-eda/dse-core/internal/metrics"
	"github.com/chipflow-eda/dse-core/internal/space"
	"github.com/chipflow-eda/dse-core/pkg/config"
	"github.com/chipflow-eda/dse-core/pkg/utils"
)

// Sentinel values assigned when a trial produces no usable metrics. They
// are chosen to be strictly worse than any real result so failed points
// never enter the frontier.
const (
	// SevereViolation marks a completed build whose metrics fail a hard
	// sanity check. It dwarfs any real constraint value.
	SevereViolation = 1e9

	// FailedTrialPenalty is the constraint value recorded for trials
	// that never produced metrics at all.
	FailedTrialPenalty = 1e6

	WorstArea        = 1e9
	WorstPerformance = 0.0
	WorstSlack       = -1e9
)

// Values holds the objective tuple derived from one trial's metrics.
type Values struct {
	Performance  float64
	Area         float64
	TimingMargin float64
	Violation    float64
}

// Feasible reports whether the constraint is satisfied. The boundary,
// a violation of exactly zero, counts as feasible.
func (v Values) Feasible() bool {
	return v.Violation <= 0
}

// ParallelBuildSupport describes whether a design can build several
// variants in a single external invocation. When Supported is true,
// Options produces the per-slot build arguments; the slot index keeps
// concurrent variants from colliding on output targets.
type ParallelBuildSupport struct {
	Supported bool
	Options   func(params space.Assignment, slot int) (evaluator.BuildArgs, error)
}

// Design adapts one hardware design to the exploration engine: it owns
// the search space, turns assignments into build arguments, and maps raw
// metrics to objective values.
type Design interface {
	Name() string
	Space() *space.Space

	// SuggestParams draws one assignment from the design's own prior.
	SuggestParams(rng *utils.RandSource) (space.Assignment, error)

	// BuildOptions renders the build arguments for a single variant.
	BuildOptions(params space.Assignment) (evaluator.BuildArgs, error)

	// ParallelBuild reports batched-build support.
	ParallelBuild() ParallelBuildSupport

	// Performance maps metrics to the maximized objective.
	Performance(m *metrics.PPA, params space.Assignment) float64

	// Area maps metrics to the minimized objective.
	Area(m *metrics.PPA) float64

	// TimingMargin extracts the timing slack used for the constraint.
	TimingMargin(m *metrics.PPA) float64

	// ConstraintViolation maps metrics to the constraint value. Adapters
	// return the negated slack when their hard sanity checks pass and
	// SevereViolation when they do not.
	ConstraintViolation(m *metrics.PPA) float64

	// Labels names the objective axes for reports.
	Labels() Labels
}

// Labels carries human-readable axis names for report output.
type Labels struct {
	Performance  string
	Area         string
	TimingMargin string
}

// Evaluate derives the objective tuple for a successfully built variant.
// A nil metrics set falls back to the failure sentinels.
func Evaluate(d Design, m *metrics.PPA, params space.Assignment) Values {
	if m == nil {
		return FailedValues()
	}
	v := Values{
		Performance:  d.Performance(m, params),
		Area:         d.Area(m),
		TimingMargin: d.TimingMargin(m),
		Violation:    d.ConstraintViolation(m),
	}
	if math.IsNaN(v.Performance) || math.IsNaN(v.Area) || math.IsNaN(v.Violation) {
		return FailedValues()
	}
	return v
}

// FailedValues returns the sentinel tuple recorded for trials that
// produced no metrics. The penalty keeps them strictly infeasible.
func FailedValues() Values {
	return Values{
		Performance:  WorstPerformance,
		Area:         WorstArea,
		TimingMargin: WorstSlack,
		Violation:    FailedTrialPenalty,
	}
}

// ValidateDesign checks a design adapter before a run starts, so broken
// adapters fail fast instead of half way through a study.
func ValidateDesign(d Design) error {
	if d.Name() == "" {
		return config.NewConfigError("design name must not be empty")
	}
	sp := d.Space()
	if sp == nil {
		return config.NewConfigError("design %q has no search space", d.Name())
	}
	if err := sp.Validate(); err != nil {
		return err
	}

	// A suggestion from a fixed seed must land inside the declared space
	// and render to valid build arguments.
	rng := utils.NewRandSource(0)
	params, err := d.SuggestParams(rng)
	if err != nil {
		return config.NewConfigError("design %q suggestion failed: %v", d.Name(), err)
	}
	if err := sp.CheckAssignment(params); err != nil {
		return config.NewConfigError("design %q suggests outside its space: %v", d.Name(), err)
	}
	args, err := d.BuildOptions(params)
	if err != nil {
		return config.NewConfigError("design %q build options failed: %v", d.Name(), err)
	}
	if err := args.Validate(); err != nil {
		return config.NewConfigError("design %q build options invalid: %v", d.Name(), err)
	}

	pb := d.ParallelBuild()
	if pb.Supported && pb.Options == nil {
		return config.NewConfigError("design %q claims parallel build support without options", d.Name())
	}
	return nil
}
