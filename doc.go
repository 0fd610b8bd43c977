// Package attractor renders chaos-game fractal attractors.
//
// # Overview
//
// A regular polygon with N vertices and a blend fraction f define a random
// process: every agent repeatedly moves the fraction f of the way towards a
// uniformly chosen vertex. The positions visited converge onto a fractal
// (the Sierpinski triangle for N=3, f=0.5). attractor simulates a population
// of such agents, accumulates the visits into a density histogram and
// renders the histogram through a nonlinear palette, stopping once the
// density distribution has stopped changing shape.
//
// # Quick Start
//
//	s, err := attractor.NewSession(attractor.WithSeed(1))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Shutdown()
//
//	res, err := s.RunOnce(ctx, attractor.Config{
//	    Points:    5,
//	    Fraction:  0.5,
//	    MaxAgents: 10000,
//	    Size:      701,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = s.Frame().SavePNG("pentagon.png")
//
// # Architecture
//
// The library is organized into:
//   - Geometry: polygon vertices and per-vertex projections (geometry.go)
//   - Agent pool: deterministic pre-expansion of the seed agent (agents.go)
//   - Palette: density to color lookup table (palette.go)
//   - Engines: the accumulation core behind the [Engine] interface, with a
//     CPU implementation in this package and a GPU implementation
//     registered by importing github.com/gogpu/attractor/gpu
//   - Renderer: unfolds the symmetry-folded histogram into a [Pixmap]
//   - Session: the scheduler that drives step/render cycles until the
//     [Monitor] reports convergence
//
// # Symmetry Fold
//
// Every agent position is projected once per polygon vertex, rotated into
// that vertex's frame. The horizontal coordinate is folded through its
// absolute value, so only the right half of the image (plus the shared
// center column) is ever stored. The renderer mirrors it back.
//
// # Backends
//
// The CPU backend is always available. For GPU accumulation through
// gogpu/wgpu compute shaders:
//
//	import _ "github.com/gogpu/attractor/gpu"
//
// When the GPU backend cannot serve a configuration the session falls back
// to the CPU backend and logs a warning.
package attractor
