package attractor

import (
	"math"
	"sort"
)

// Defaults used by DefaultConfig and NewSession.
const (
	DefaultPoints         = 3
	DefaultFraction       = 0.5
	DefaultMaxAgents      = 10000
	DefaultSize           = 701
	DefaultStepsPerCycle  = 20
	DefaultEpsilon        = 1e-4
	DefaultStableCycles   = 20
	DefaultPaletteSize    = 16384
	DefaultPaletteExpR    = 0.2
	DefaultPaletteExpG    = 0.5
	DefaultPaletteExpB    = 0.8
	MinPoints             = 3
	MinSize               = 4
	projectionMarginPixel = 2
)

// Config is a run configuration. Any change to it discards all engine
// state; there is no incremental update.
type Config struct {
	// Points is the polygon vertex count.
	Points int

	// Fraction is the blend fraction towards the chosen vertex.
	// Typically in (0, 1) but not bounded.
	Fraction float64

	// MaxAgents is the target agent population budget.
	MaxAgents int

	// Size is the canvas edge length in pixels.
	Size int
}

// DefaultConfig returns a triangle at fraction 0.5 on a 701px canvas.
func DefaultConfig() Config {
	return Config{
		Points:    DefaultPoints,
		Fraction:  DefaultFraction,
		MaxAgents: DefaultMaxAgents,
		Size:      DefaultSize,
	}
}

// Validate reports the first problem with c as a *ConfigError.
func (c Config) Validate() error {
	switch {
	case c.Points < MinPoints:
		return &ConfigError{Field: "points", Value: c.Points, Reason: "polygon needs at least 3 vertices"}
	case math.IsNaN(c.Fraction) || math.IsInf(c.Fraction, 0):
		return &ConfigError{Field: "fraction", Value: c.Fraction, Reason: "must be finite"}
	case c.MaxAgents < 1:
		return &ConfigError{Field: "maxAgents", Value: c.MaxAgents, Reason: "must be positive"}
	case c.Size < MinSize:
		return &ConfigError{Field: "size", Value: c.Size, Reason: "canvas too small for a histogram grid"}
	}
	return nil
}

// Half returns the width of the symmetry-folded histogram.
func (c Config) Half() int {
	return c.Size/2 + 1
}

// Scale returns the projection scale: half the canvas minus a small margin.
func (c Config) Scale() float64 {
	return float64(c.Size)*0.5 - projectionMarginPixel
}

// SpecialFractions returns blend fractions known to produce notable
// attractors, in ascending order: 1/3, 1/phi^2 (significant for 3, 4, 5,
// 6 and 10 points) and 1/2.
func SpecialFractions() []float64 {
	phi := (1 + math.Sqrt(5)) / 2
	f := []float64{1.0 / 3, math.Pow(phi, -2), 0.5}
	sort.Float64s(f)
	return f
}
