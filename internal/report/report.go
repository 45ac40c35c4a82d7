// Package report renders and saves study results.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"

	"github.com/chipflow-eda/dse-core/internal/objective"
	"github.com/chipflow-eda/dse-core/internal/study"
)

// Summary collects everything the report renders.
type Summary struct {
	Study    string
	Labels   objective.Labels
	Trials   []*study.Trial
	Frontier []*study.Trial
}

// Counts tallies trial outcomes.
type Counts struct {
	Total      int
	Complete   int
	Failed     int
	Feasible   int
	Infeasible int
}

// Count tallies the trials in the summary. Infeasible counts completed
// trials whose constraint is violated; failed trials are tracked apart.
func (s *Summary) Count() Counts {
	var c Counts
	c.Total = len(s.Trials)
	for _, t := range s.Trials {
		switch {
		case t.Status == study.StatusFailed:
			c.Failed++
		case t.Status == study.StatusComplete && t.Feasible():
			c.Complete++
			c.Feasible++
		case t.Status == study.StatusComplete:
			c.Complete++
			c.Infeasible++
		}
	}
	return c
}

// Write renders the human-readable report.
func (s *Summary) Write(w io.Writer) error {
	c := s.Count()
	fmt.Fprintf(w, "study: %s\n", s.Study)
	fmt.Fprintf(w, "trials: %d total, %d complete (%d feasible, %d infeasible), %d failed\n",
		c.Total, c.Complete, c.Feasible, c.Infeasible, c.Failed)
	fmt.Fprintf(w, "pareto frontier: %d points\n\n", len(s.Frontier))

	if len(s.Frontier) == 0 {
		fmt.Fprintln(w, "no feasible results.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "trial\t%s\t%s\t%s\tparams\n",
		orDefault(s.Labels.Performance, "performance"),
		orDefault(s.Labels.Area, "area"),
		orDefault(s.Labels.TimingMargin, "margin"))
	for _, t := range s.Frontier {
		fmt.Fprintf(tw, "%d\t%.4g\t%.4g\t%.4g\t%s\n",
			t.ID, t.Performance, t.Area, t.TimingMargin, formatParams(t.Params))
	}
	return tw.Flush()
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// formatParams renders an assignment with sorted keys so report lines are
// stable across runs.
func formatParams(params map[string]any) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := ""
	for i, k := range keys {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%s=%v", k, params[k])
	}
	return out
}

// Save writes the report artifacts into dir: the full trial history and
// the frontier as JSON, plus the text summary.
func (s *Summary) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	if err := writeJSON(filepath.Join(dir, "trials.json"), s.Trials); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, "frontier.json"), s.Frontier); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(dir, "summary.txt"))
	if err != nil {
		return fmt.Errorf("creating summary: %w", err)
	}
	if err := s.Write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing summary: %w", err)
	}
	return f.Close()
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}
