package pareto

import (
	"testing"

	"github.com/chipflow-eda/dse-core/internal/space"
	"github.com/chipflow-eda/dse-core/internal/study"
)

func complete(id int64, perf, area, violation float64) *study.Trial {
	t := study.NewTrial(id, space.Assignment{})
	t.MarkComplete(nil, perf, area, 0, violation)
	return t
}

func failed(id int64) *study.Trial {
	t := study.NewTrial(id, space.Assignment{})
	t.MarkFailed("build_failed", "boom", 0, 1e9, -1e9, 1e6)
	return t
}

func ids(trials []*study.Trial) []int64 {
	out := make([]int64, len(trials))
	for i, t := range trials {
		out[i] = t.ID
	}
	return out
}

func TestDominates(t *testing.T) {
	cases := []struct {
		name string
		a, b *study.Trial
		want bool
	}{
		{"better both", complete(0, 20, 100, 0), complete(1, 10, 200, 0), true},
		{"better perf equal area", complete(0, 20, 100, 0), complete(1, 10, 100, 0), true},
		{"equal perf better area", complete(0, 10, 50, 0), complete(1, 10, 100, 0), true},
		{"identical", complete(0, 10, 100, 0), complete(1, 10, 100, 0), false},
		{"tradeoff", complete(0, 20, 200, 0), complete(1, 10, 100, 0), false},
		{"worse both", complete(0, 5, 300, 0), complete(1, 10, 100, 0), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Dominates(tc.a, tc.b); got != tc.want {
				t.Errorf("Dominates = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFrontierKeepsTradeoffsDropsDominated(t *testing.T) {
	trials := []*study.Trial{
		complete(0, 10, 100, 0),  // kept
		complete(1, 20, 150, 0),  // kept, trades area for performance
		complete(2, 5, 200, 0),   // dominated by trial 0
		complete(3, 50, 50, 3.0), // infeasible, excluded outright
	}

	front := Frontier(trials)
	got := ids(front)
	want := []int64{0, 1}
	if len(got) != len(want) {
		t.Fatalf("frontier ids %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("frontier ids %v, want %v", got, want)
		}
	}
}

func TestFrontierExcludesFailedTrials(t *testing.T) {
	trials := []*study.Trial{
		failed(0),
		complete(1, 1, 1000, 0),
	}
	front := Frontier(trials)
	if len(front) != 1 || front[0].ID != 1 {
		t.Fatalf("expected only trial 1, got %v", ids(front))
	}
}

func TestFrontierEmptyInput(t *testing.T) {
	if front := Frontier(nil); len(front) != 0 {
		t.Errorf("empty input must yield empty frontier, got %v", ids(front))
	}
	if front := Frontier([]*study.Trial{failed(0)}); len(front) != 0 {
		t.Errorf("all-failed input must yield empty frontier, got %v", ids(front))
	}
}

func TestFrontierIsDominanceFree(t *testing.T) {
	// A grid with plenty of dominated interior points.
	var trials []*study.Trial
	id := int64(0)
	for p := 1; p <= 5; p++ {
		for a := 1; a <= 5; a++ {
			trials = append(trials, complete(id, float64(p*10), float64(a*100), 0))
			id++
		}
	}

	front := Frontier(trials)
	if len(front) == 0 {
		t.Fatal("expected a non-empty frontier")
	}
	for _, a := range front {
		for _, b := range front {
			if a != b && Dominates(a, b) {
				t.Fatalf("frontier contains dominated trial %d (by %d)", b.ID, a.ID)
			}
		}
	}
	// The grid's best point (perf 50, area 100) must be the whole frontier.
	if len(front) != 1 || front[0].Performance != 50 || front[0].Area != 100 {
		t.Errorf("grid should collapse to its best corner, got %d points", len(front))
	}
}

func TestFrontierOrderedByID(t *testing.T) {
	trials := []*study.Trial{
		complete(7, 30, 300, 0),
		complete(2, 10, 100, 0),
		complete(5, 20, 200, 0),
	}
	front := Frontier(trials)
	got := ids(front)
	want := []int64{2, 5, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("frontier order %v, want %v", got, want)
		}
	}
}
