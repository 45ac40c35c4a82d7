// Package simddot adapts the SIMD dot-product accelerator to the
// exploration engine.
//
// The design has two knobs. The lane count sets how wide the datapath is:
// low counts scale linearly, high counts hit the logic depth wall where
// deeper reduction trees erode the achievable clock. The ABC clock period
// sets how hard synthesis pushes: tight periods buy speed with larger
// gates and more area.
package simddot

import (
	"fmt"

	"github.com/chipflow-eda/dse-core/internal/evaluator"
	"github.com/chipflow-eda/dse-core/internal/metrics"
	"github.com/chipflow-eda/dse-core/internal/objective"
	"github.com/chipflow-eda/dse-core/internal/space"
	"github.com/chipflow-eda/dse-core/pkg/utils"
)

// Fixed datapath widths. The 16-bit output may overflow for the widest
// lane counts; that is a property of the design under study, not a bug
// in the explorer.
const (
	InputWidth  = 8
	OutputWidth = 16
)

// ABC clock period bounds in picoseconds. 700 ps is an aggressive
// ~1.43 GHz, 10000 ps a conservative 100 MHz.
const (
	abcClockMinPs = 700
	abcClockMaxPs = 10000
)

// laneChoices are the explored lane counts. The interesting transitions
// (linear scaling, knee, saturation) all happen inside this set.
var laneChoices = []space.Value{
	int64(4), int64(8), int64(16), int64(32), int64(64), int64(128),
}

// Metric keys produced by the synthesis flow's results file.
const (
	metricFrequency = "effective_frequency_ghz"
	metricCellArea  = "cell_area"
	metricSlack     = "slack"
	metricPower     = "estimated_power_uw"
)

// Hard sanity bounds. Metrics outside these indicate a broken synthesis
// run rather than a bad design point.
const (
	maxSaneArea  = 1e8  // 100 mm^2
	minSaneFreq  = 1e-3 // 1 MHz
	maxSanePower = 1e9  // 1 W in uW
)

// Design is the SIMD dot-product adapter.
type Design struct{}

// New returns the adapter.
func New() *Design {
	return &Design{}
}

func (d *Design) Name() string {
	return "SimdDotProduct"
}

func (d *Design) Space() *space.Space {
	return &space.Space{
		Params: []space.Parameter{
			{Name: "n_lanes", Domain: space.Categorical(laneChoices...)},
			{Name: "abc_clock_ps", Domain: space.IntRange(abcClockMinPs, abcClockMaxPs, true)},
		},
	}
}

func (d *Design) SuggestParams(rng *utils.RandSource) (space.Assignment, error) {
	return d.Space().Sample(rng), nil
}

// BuildOptions renders the single-variant build: RTL generation options
// go through one application flag, the clock period through a define the
// whole flow (synthesis, CTS, timing repair) sees.
func (d *Design) BuildOptions(params space.Assignment) (evaluator.BuildArgs, error) {
	lanes, clock, err := knobs(params)
	if err != nil {
		return evaluator.BuildArgs{}, err
	}

	args := evaluator.BuildArgs{
		Target:      "//eda/SimdDotProduct:SimdDotProduct_ppa",
		MetricsFile: "bazel-bin/eda/SimdDotProduct/SimdDotProduct_ppa.txt",
	}
	args.AddFlag("//rules:chisel_app_opts", appOpts(lanes))
	args.AddDefine("ABC_CLOCK_PERIOD_IN_PS", fmt.Sprintf("%d", clock))
	return args, nil
}

// ParallelBuild supports batched builds through per-slot variant targets.
// Flags and defines are suffixed per slot so the options of concurrent
// variants cannot clobber each other inside one build invocation.
func (d *Design) ParallelBuild() objective.ParallelBuildSupport {
	return objective.ParallelBuildSupport{
		Supported: true,
		Options: func(params space.Assignment, slot int) (evaluator.BuildArgs, error) {
			lanes, clock, err := knobs(params)
			if err != nil {
				return evaluator.BuildArgs{}, err
			}

			args := evaluator.BuildArgs{
				Target: fmt.Sprintf("//eda/SimdDotProduct:SimdDotProduct_slot%d_ppa", slot),
				MetricsFile: fmt.Sprintf(
					"bazel-bin/eda/SimdDotProduct/SimdDotProduct_slot%d_ppa.txt", slot),
			}
			args.AddFlag(fmt.Sprintf("//rules:slot%d_chisel_app_opts", slot), appOpts(lanes))
			args.AddDefine(fmt.Sprintf("ABC_CLOCK_PERIOD_IN_PS_SLOT%d", slot),
				fmt.Sprintf("%d", clock))
			return args, nil
		},
	}
}

// Performance is GOPS: each lane does a multiply and an add per cycle,
// scaled by the effective frequency the flow actually achieved. Negative
// slack lowers the effective frequency, which is how the logic depth
// wall shows up in the objective.
func (d *Design) Performance(m *metrics.PPA, params space.Assignment) float64 {
	lanes, _ := params.Int("n_lanes")
	freq := m.GetOr(metricFrequency, objective.WorstPerformance)
	return 2.0 * float64(lanes) * freq
}

func (d *Design) Area(m *metrics.PPA) float64 {
	return m.GetOr(metricCellArea, objective.WorstArea)
}

func (d *Design) TimingMargin(m *metrics.PPA) float64 {
	return m.GetOr(metricSlack, objective.WorstSlack)
}

// ConstraintViolation returns the negated slack so feasible points carry
// their timing margin as gradient information. Metrics outside the hard
// sanity bounds mean the synthesis run itself went wrong and get the
// severe sentinel instead.
func (d *Design) ConstraintViolation(m *metrics.PPA) float64 {
	if m.GetOr(metricCellArea, objective.WorstArea) >= maxSaneArea {
		return objective.SevereViolation
	}
	if m.GetOr(metricFrequency, 0) <= minSaneFreq {
		return objective.SevereViolation
	}
	if m.GetOr(metricPower, 0) >= maxSanePower {
		return objective.SevereViolation
	}
	return -d.TimingMargin(m)
}

func (d *Design) Labels() objective.Labels {
	return objective.Labels{
		Performance:  "Performance (GOPS)",
		Area:         "Cell Area (um^2)",
		TimingMargin: "Slack (ps)",
	}
}

func knobs(params space.Assignment) (lanes, clock int64, err error) {
	lanes, ok := params.Int("n_lanes")
	if !ok {
		return 0, 0, fmt.Errorf("simddot: missing n_lanes in %v", params)
	}
	clock, ok = params.Int("abc_clock_ps")
	if !ok {
		return 0, 0, fmt.Errorf("simddot: missing abc_clock_ps in %v", params)
	}
	return lanes, clock, nil
}

func appOpts(lanes int64) string {
	return fmt.Sprintf("--nLanes=%d --inputWidth=%d --outputWidth=%d",
		lanes, InputWidth, OutputWidth)
}
