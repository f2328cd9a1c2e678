// Package run assembles a complete annealing run from its parameters:
// random towns, their distance matrix, a random initial tour and the
// temperature schedule, all fed from one seeded random stream.
package run

import (
	"fmt"

	"github.com/ghodss/yaml"

	"github.com/copyleftdev/tspmeta/internal/annealing/distance"
	"github.com/copyleftdev/tspmeta/internal/annealing/schedule"
)

// Params are the inputs of one run.
type Params struct {
	Seed        uint64  `json:"seed"`
	Towns       int     `json:"towns"`
	BoxSize     float64 `json:"box_size"`
	Dist        string  `json:"dist"`
	Dim         int     `json:"dim"`
	TempMax     float64 `json:"temp_max"`
	TempMin     float64 `json:"temp_min"`
	TempStep    float64 `json:"temp_step"`
	SampleCount int     `json:"sample_num"`

	// fileKeys are the keys assigned by ParseYAML.
	fileKeys map[string]bool
}

// DefaultParams returns the parameters with every optional field at its
// default. Seed, Towns and BoxSize have no meaningful default.
func DefaultParams() Params {
	return Params{
		Dist:        "l2",
		Dim:         2,
		TempMax:     100,
		TempMin:     0.5,
		TempStep:    0.5,
		SampleCount: 10000,
	}
}

// ParseYAML overlays the fields present in a YAML document onto p.
func (p *Params) ParseYAML(data []byte) error {
	if err := yaml.Unmarshal(data, p); err != nil {
		return fmt.Errorf("parsing run parameters: %w", err)
	}
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing run parameters: %w", err)
	}
	if p.fileKeys == nil {
		p.fileKeys = make(map[string]bool, len(doc))
	}
	for key := range doc {
		p.fileKeys[key] = true
	}
	return nil
}

// InFile reports whether a parsed parameter file assigned key, named by its
// YAML field name such as "box_size".
func (p Params) InFile(key string) bool {
	return p.fileKeys[key]
}

// Metric resolves the metric name.
func (p Params) Metric() (distance.Metric, error) {
	return distance.ParseMetric(p.Dist)
}

// NormFactor is the energy normalization, towns times box size.
func (p Params) NormFactor() float64 {
	return float64(p.Towns) * p.BoxSize
}

// Schedule returns the scheduler configuration derived from p.
func (p Params) Schedule() schedule.Config {
	return schedule.Config{
		TempMax:     p.TempMax,
		TempMin:     p.TempMin,
		TempStep:    p.TempStep,
		SampleCount: p.SampleCount,
		NormFactor:  p.NormFactor(),
	}
}

// Validate reports the first parameter that cannot produce a run.
func (p Params) Validate() error {
	if p.Towns < 2 {
		return fmt.Errorf("at least 2 towns are required, got %d", p.Towns)
	}
	if p.BoxSize <= 0 {
		return fmt.Errorf("box size must be positive, got %v", p.BoxSize)
	}
	if p.Dim < 1 {
		return fmt.Errorf("dimension must be at least 1, got %d", p.Dim)
	}
	if _, err := p.Metric(); err != nil {
		return err
	}
	return p.Schedule().Validate()
}
