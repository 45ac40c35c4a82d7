// Package metrics holds the PPA (power/performance/area) record reported by
// the external physical-synthesis evaluator and the parser for its
// line-oriented metrics files. The record is an opaque payload to the
// scheduler; only the design adapter interprets it.
package metrics

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// PPA is one evaluator-reported metrics record. Numeric fields land in
// Values; non-numeric lines are kept as metadata in Attrs.
type PPA struct {
	Values map[string]float64 `json:"values"`
	Attrs  map[string]string  `json:"attrs,omitempty"`
}

// Get returns the named numeric metric.
func (p *PPA) Get(name string) (float64, bool) {
	if p == nil {
		return 0, false
	}
	v, ok := p.Values[name]
	return v, ok
}

// GetOr returns the named numeric metric, or the fallback when absent.
func (p *PPA) GetOr(name string, fallback float64) float64 {
	if v, ok := p.Get(name); ok {
		return v
	}
	return fallback
}

// Parse reads a metrics record from line-oriented "key: value" text.
// Comment lines start with '#'; lines without a colon are ignored.
// An input yielding no metrics at all is an error.
func Parse(r io.Reader) (*PPA, error) {
	out := &PPA{
		Values: make(map[string]float64),
		Attrs:  make(map[string]string),
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" {
			continue
		}
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			out.Values[key] = f
		} else {
			out.Attrs[key] = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read metrics: %w", err)
	}

	if len(out.Values) == 0 && len(out.Attrs) == 0 {
		return nil, fmt.Errorf("no metrics found")
	}
	return out, nil
}

// ParseFile reads a metrics record from a file.
func ParseFile(path string) (*PPA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("metrics file %s: %w", path, err)
	}
	defer f.Close()

	ppa, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("metrics file %s: %w", path, err)
	}
	return ppa, nil
}
