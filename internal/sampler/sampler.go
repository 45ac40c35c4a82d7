// Package sampler proposes parameter assignments for new trials.
package sampler

import (
	"encoding/json"
	"fmt"

	"github.com/chipflow-eda/dse-core/internal/space"
	"github.com/chipflow-eda/dse-core/internal/study"
	"github.com/chipflow-eda/dse-core/pkg/utils"
)

// Sampler proposes the next assignment to evaluate. Propose receives the
// full trial history so stateful strategies can condition on it; Observe
// is called once per finished trial.
type Sampler interface {
	Propose(history []*study.Trial) (space.Assignment, error)
	Observe(t *study.Trial)
}

// SuggestFunc produces an assignment from a seeded random source. Design
// adapters expose their suggestion logic in this shape.
type SuggestFunc func(rng *utils.RandSource) (space.Assignment, error)

// maxDuplicateRetries bounds how long a sampler spends trying to avoid
// re-proposing an assignment it has already seen. Small discrete spaces
// exhaust quickly, so duplicates are accepted after the retries run out.
const maxDuplicateRetries = 16

// RandomSampler draws independent uniform samples from the search space,
// retrying a bounded number of times to avoid exact duplicates.
type RandomSampler struct {
	space *space.Space
	rng   *utils.RandSource
	seen  map[string]bool
}

// NewRandom returns a RandomSampler over sp seeded with seed.
func NewRandom(sp *space.Space, seed int64) *RandomSampler {
	return &RandomSampler{
		space: sp,
		rng:   utils.NewRandSource(seed),
		seen:  make(map[string]bool),
	}
}

func (r *RandomSampler) Propose(history []*study.Trial) (space.Assignment, error) {
	for _, t := range history {
		r.noteSeen(t.Params)
	}
	var a space.Assignment
	for i := 0; i <= maxDuplicateRetries; i++ {
		a = r.space.Sample(r.rng)
		if !r.seen[assignmentKey(a)] {
			break
		}
	}
	r.noteSeen(a)
	return a, nil
}

func (r *RandomSampler) Observe(t *study.Trial) {
	r.noteSeen(t.Params)
}

func (r *RandomSampler) noteSeen(a space.Assignment) {
	r.seen[assignmentKey(a)] = true
}

// DesignSampler delegates proposals to a design adapter's own suggestion
// logic, which may encode domain priors the plain space cannot express.
type DesignSampler struct {
	suggest SuggestFunc
	rng     *utils.RandSource
}

// NewDesign returns a DesignSampler backed by suggest, seeded with seed.
func NewDesign(suggest SuggestFunc, seed int64) *DesignSampler {
	return &DesignSampler{suggest: suggest, rng: utils.NewRandSource(seed)}
}

func (d *DesignSampler) Propose(history []*study.Trial) (space.Assignment, error) {
	a, err := d.suggest(d.rng)
	if err != nil {
		return nil, fmt.Errorf("design suggestion failed: %w", err)
	}
	return a, nil
}

func (d *DesignSampler) Observe(t *study.Trial) {}

// assignmentKey renders an assignment as a stable string for duplicate
// detection. JSON map encoding sorts keys, so equal assignments collide.
func assignmentKey(a space.Assignment) string {
	b, err := json.Marshal(a)
	if err != nil {
		return fmt.Sprintf("%v", a)
	}
	return string(b)
}
