package attractor

import (
	"fmt"
	"math"
	"math/rand/v2"
)

type cpuBackend struct{}

func (cpuBackend) Name() string { return BackendCPU }

func (cpuBackend) NewEngine(cfg Config, rng *rand.Rand, pal *Palette) (Engine, error) {
	return NewCPUEngine(cfg, rng, pal)
}

// CPUEngine is the reference Engine: float64 agents advanced in a scalar
// loop on the calling goroutine.
type CPUEngine struct {
	cfg         Config
	rng         *rand.Rand
	pal         *Palette
	vertices    []Point
	projections []Projection
	agents      []Point
	hist        *Histogram
	cy          float64
	clipped     uint64
	closed      bool
}

// NewCPUEngine validates cfg and initializes a CPU engine. A nil rng uses
// a randomly seeded PCG source; a nil pal uses DefaultPalette.
func NewCPUEngine(cfg Config, rng *rand.Rand, pal *Palette) (*CPUEngine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // simulation, not crypto
	}
	if pal == nil {
		pal = DefaultPalette()
	}
	vertices := MakeVertices(cfg.Points)
	e := &CPUEngine{
		cfg:         cfg,
		rng:         rng,
		pal:         pal,
		vertices:    vertices,
		projections: MakeProjections(cfg.Points, cfg.Scale()),
		agents:      MakeAgents(cfg.MaxAgents, vertices, cfg.Fraction),
		hist:        NewHistogram(cfg.Size),
		cy:          float64(cfg.Half()) - 0.5,
	}
	Logger().Debug("attractor: cpu engine created",
		"points", cfg.Points, "agents", len(e.agents), "half", e.hist.Half(), "size", cfg.Size)
	return e, nil
}

// Name implements Engine.
func (e *CPUEngine) Name() string { return BackendCPU }

// Agents implements Engine.
func (e *CPUEngine) Agents() int { return len(e.agents) }

// Config returns the configuration the engine was built for.
func (e *CPUEngine) Config() Config { return e.cfg }

// Positions returns the current agent positions. The slice is owned by the
// engine.
func (e *CPUEngine) Positions() []Point { return e.agents }

// Clipped returns the number of projected samples that fell outside the
// grid and were dropped. It stays zero for fractions in [0, 1].
func (e *CPUEngine) Clipped() uint64 { return e.clipped }

// Step implements Engine.
func (e *CPUEngine) Step(n int) error {
	if e.closed {
		return ErrEngineClosed
	}
	if n < 0 {
		return fmt.Errorf("attractor: negative step count %d", n)
	}
	points := len(e.vertices)
	f := e.cfg.Fraction
	for range n {
		for i := range e.agents {
			a := e.agents[i].Blend(e.vertices[e.rng.IntN(points)], f)
			e.agents[i] = a
			for _, m := range e.projections {
				x, y := m.Apply(a)
				if !e.hist.add(math.Abs(x)+0.5, y+e.cy) {
					e.clipped++
				}
			}
		}
	}
	return nil
}

// Render implements Engine.
func (e *CPUEngine) Render(dst *Pixmap) (Stats, error) {
	if e.closed {
		return Stats{}, ErrEngineClosed
	}
	return RenderHistogram(e.hist, e.pal, dst)
}

// Histogram implements Engine.
func (e *CPUEngine) Histogram() (*Histogram, error) {
	if e.closed {
		return nil, ErrEngineClosed
	}
	return e.hist, nil
}

// Close implements Engine.
func (e *CPUEngine) Close() {
	if e.closed {
		return
	}
	e.closed = true
	e.agents = nil
	e.hist = nil
}
