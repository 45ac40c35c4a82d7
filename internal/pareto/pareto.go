// Package pareto computes the non-dominated frontier over finished trials.
package pareto

import (
	"sort"

	"github.com/chipflow-eda/dse-core/internal/study"
)

// Dominates reports whether a dominates b: a is at least as good on both
// objectives (performance maximized, area minimized) and strictly better
// on at least one. Equal points do not dominate each other.
func Dominates(a, b *study.Trial) bool {
	if a.Performance < b.Performance || a.Area > b.Area {
		return false
	}
	return a.Performance > b.Performance || a.Area < b.Area
}

// Frontier returns the feasible, non-dominated trials ordered by trial id.
// Failed and infeasible trials never enter the frontier. The scan is
// quadratic, which is fine at the study sizes hardware builds allow.
func Frontier(trials []*study.Trial) []*study.Trial {
	var candidates []*study.Trial
	for _, t := range trials {
		if t.Feasible() {
			candidates = append(candidates, t)
		}
	}

	var front []*study.Trial
	for _, t := range candidates {
		dominated := false
		for _, other := range candidates {
			if other != t && Dominates(other, t) {
				dominated = true
				break
			}
		}
		if !dominated {
			front = append(front, t)
		}
	}

	sort.Slice(front, func(i, j int) bool { return front[i].ID < front[j].ID })
	return front
}
