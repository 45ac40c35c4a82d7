// Package space defines the search domain for a design-space exploration:
// an ordered set of named parameters, each with a categorical or numeric
// domain, and the assignments drawn from it. The space is immutable once a
// study has started; the store verifies its fingerprint on resume.
package space

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"

	"github.com/chipflow-eda/dse-core/pkg/config"
	"github.com/chipflow-eda/dse-core/pkg/utils"
)

// DomainKind discriminates the parameter domain variants.
type DomainKind string

const (
	DomainCategorical DomainKind = "categorical"
	DomainInt         DomainKind = "int"
	DomainFloat       DomainKind = "float"
)

// Domain describes the set of admissible values for one parameter.
// Categorical domains use Choices; numeric domains use Min/Max with an
// optional Step and log-scale flag.
type Domain struct {
	Kind    DomainKind `json:"kind"`
	Choices []Value    `json:"choices,omitempty"`
	Min     float64    `json:"min,omitempty"`
	Max     float64    `json:"max,omitempty"`
	Step    float64    `json:"step,omitempty"`
	Log     bool       `json:"log,omitempty"`
}

// Parameter is one named dimension of the search space.
type Parameter struct {
	Name   string `json:"name"`
	Domain Domain `json:"domain"`
}

// Space is the ordered search domain.
type Space struct {
	Params []Parameter `json:"params"`
}

// Categorical builds a categorical domain over explicit choices.
func Categorical(choices ...Value) Domain {
	return Domain{Kind: DomainCategorical, Choices: choices}
}

// IntRange builds an integer domain over [min, max].
func IntRange(min, max int64, log bool) Domain {
	return Domain{Kind: DomainInt, Min: float64(min), Max: float64(max), Log: log}
}

// FloatRange builds a float domain over [min, max).
func FloatRange(min, max float64, log bool) Domain {
	return Domain{Kind: DomainFloat, Min: min, Max: max, Log: log}
}

// Validate checks the space for malformed domains. Failures are
// ConfigErrors: a study must never start on a broken space.
func (s *Space) Validate() error {
	if len(s.Params) == 0 {
		return config.NewConfigError("parameter space has no parameters")
	}
	seen := make(map[string]bool, len(s.Params))
	for _, p := range s.Params {
		if p.Name == "" {
			return config.NewConfigError("parameter name must not be empty")
		}
		if seen[p.Name] {
			return config.NewConfigError("duplicate parameter name %q", p.Name)
		}
		seen[p.Name] = true

		switch p.Domain.Kind {
		case DomainCategorical:
			if len(p.Domain.Choices) == 0 {
				return config.NewConfigError("parameter %q: categorical domain has no choices", p.Name)
			}
		case DomainInt, DomainFloat:
			if p.Domain.Max <= p.Domain.Min {
				return config.NewConfigError("parameter %q: max (%v) must exceed min (%v)", p.Name, p.Domain.Max, p.Domain.Min)
			}
			if p.Domain.Log && p.Domain.Min <= 0 {
				return config.NewConfigError("parameter %q: log-scale domain requires positive min", p.Name)
			}
			if p.Domain.Step < 0 {
				return config.NewConfigError("parameter %q: step must not be negative", p.Name)
			}
		default:
			return config.NewConfigError("parameter %q: unknown domain kind %q", p.Name, p.Domain.Kind)
		}
	}
	return nil
}

// CheckAssignment verifies that an assignment conforms to the space: every
// parameter present, no extras, every value inside its domain.
func (s *Space) CheckAssignment(a Assignment) error {
	for _, p := range s.Params {
		v, ok := a[p.Name]
		if !ok {
			return fmt.Errorf("assignment missing parameter %q", p.Name)
		}
		if err := checkValue(p, v); err != nil {
			return err
		}
	}
	for name := range a {
		if !s.has(name) {
			return fmt.Errorf("assignment has unknown parameter %q", name)
		}
	}
	return nil
}

func (s *Space) has(name string) bool {
	for _, p := range s.Params {
		if p.Name == name {
			return true
		}
	}
	return false
}

func checkValue(p Parameter, v Value) error {
	switch p.Domain.Kind {
	case DomainCategorical:
		for _, c := range p.Domain.Choices {
			if valueEqual(c, v) {
				return nil
			}
		}
		return fmt.Errorf("parameter %q: value %v not among choices", p.Name, v)
	case DomainInt, DomainFloat:
		f, ok := asFloat(v)
		if !ok {
			return fmt.Errorf("parameter %q: value %v is not numeric", p.Name, v)
		}
		if f < p.Domain.Min || f > p.Domain.Max {
			return fmt.Errorf("parameter %q: value %v outside [%v, %v]", p.Name, v, p.Domain.Min, p.Domain.Max)
		}
		if p.Domain.Kind == DomainInt && f != math.Trunc(f) {
			return fmt.Errorf("parameter %q: value %v is not integral", p.Name, v)
		}
		return nil
	default:
		return fmt.Errorf("parameter %q: unknown domain kind %q", p.Name, p.Domain.Kind)
	}
}

// Sample draws a uniform (or log-uniform) assignment from the space.
func (s *Space) Sample(rng *utils.RandSource) Assignment {
	a := make(Assignment, len(s.Params))
	for _, p := range s.Params {
		a[p.Name] = sampleDomain(p.Domain, rng)
	}
	return a
}

func sampleDomain(d Domain, rng *utils.RandSource) Value {
	switch d.Kind {
	case DomainCategorical:
		return d.Choices[rng.Intn(len(d.Choices))]
	case DomainInt:
		var v int64
		if d.Log {
			v = rng.LogUniformInt(int64(d.Min), int64(d.Max))
		} else {
			v = rng.IntBetween(int64(d.Min), int64(d.Max))
		}
		if d.Step > 1 {
			step := int64(d.Step)
			v = int64(d.Min) + ((v-int64(d.Min))/step)*step
		}
		return v
	case DomainFloat:
		var v float64
		if d.Log {
			v = rng.LogUniformFloat64(d.Min, d.Max)
		} else {
			v = rng.UniformFloat64(d.Min, d.Max)
		}
		if d.Step > 0 {
			v = d.Min + math.Floor((v-d.Min)/d.Step)*d.Step
		}
		return v
	default:
		return nil
	}
}

// Fingerprint returns a stable content hash of the space, used by the
// study store to reject resuming a study against a different space.
func (s *Space) Fingerprint() string {
	data, err := json.Marshal(s)
	if err != nil {
		// Space is plain data; marshaling cannot fail for a valid space.
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
