package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chipflow-eda/dse-core/internal/objective"
	"github.com/chipflow-eda/dse-core/internal/space"
	"github.com/chipflow-eda/dse-core/internal/study"
)

func sampleSummary() *Summary {
	complete := study.NewTrial(0, space.Assignment{"lanes": int64(8), "clock_ps": int64(1200)})
	complete.MarkComplete(nil, 19.2, 4200, 35, -35)

	infeasible := study.NewTrial(1, space.Assignment{"lanes": int64(64), "clock_ps": int64(700)})
	infeasible.MarkComplete(nil, 88, 31000, -12, 12)

	failed := study.NewTrial(2, space.Assignment{"lanes": int64(128), "clock_ps": int64(700)})
	failed.MarkFailed("build_failed", "boom", 0, 1e9, -1e9, 1e6)

	return &Summary{
		Study:    "simd-dot",
		Labels:   objective.Labels{Performance: "GOPS", Area: "cell area", TimingMargin: "slack (ps)"},
		Trials:   []*study.Trial{complete, infeasible, failed},
		Frontier: []*study.Trial{complete},
	}
}

func TestCount(t *testing.T) {
	c := sampleSummary().Count()
	if c.Total != 3 || c.Complete != 2 || c.Failed != 1 {
		t.Errorf("unexpected counts: %+v", c)
	}
	if c.Feasible != 1 || c.Infeasible != 1 {
		t.Errorf("unexpected feasibility split: %+v", c)
	}
}

func TestWriteContainsLabelsAndPoints(t *testing.T) {
	var buf bytes.Buffer
	if err := sampleSummary().Write(&buf); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"study: simd-dot",
		"3 total",
		"1 feasible",
		"1 failed",
		"GOPS",
		"cell area",
		"slack (ps)",
		"clock_ps=1200 lanes=8",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "lanes=64") {
		t.Errorf("infeasible trial leaked into the frontier table:\n%s", out)
	}
}

func TestWriteEmptyFrontier(t *testing.T) {
	s := &Summary{Study: "empty"}
	var buf bytes.Buffer
	if err := s.Write(&buf); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if !strings.Contains(buf.String(), "no feasible results") {
		t.Errorf("empty frontier not reported:\n%s", buf.String())
	}
}

func TestSaveWritesArtifacts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	if err := sampleSummary().Save(dir); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	var trials []*study.Trial
	data, err := os.ReadFile(filepath.Join(dir, "trials.json"))
	if err != nil {
		t.Fatalf("trials.json missing: %v", err)
	}
	if err := json.Unmarshal(data, &trials); err != nil {
		t.Fatalf("trials.json malformed: %v", err)
	}
	if len(trials) != 3 {
		t.Errorf("trials.json has %d trials, want 3", len(trials))
	}

	var frontier []*study.Trial
	data, err = os.ReadFile(filepath.Join(dir, "frontier.json"))
	if err != nil {
		t.Fatalf("frontier.json missing: %v", err)
	}
	if err := json.Unmarshal(data, &frontier); err != nil {
		t.Fatalf("frontier.json malformed: %v", err)
	}
	if len(frontier) != 1 || frontier[0].ID != 0 {
		t.Errorf("frontier.json wrong: %+v", frontier)
	}

	summary, err := os.ReadFile(filepath.Join(dir, "summary.txt"))
	if err != nil {
		t.Fatalf("summary.txt missing: %v", err)
	}
	if !strings.Contains(string(summary), "study: simd-dot") {
		t.Errorf("summary.txt wrong:\n%s", summary)
	}
}
