package attractor

import "math/rand/v2"

// SessionOption configures a Session during creation.
//
// Example:
//
//	// Reproducible CPU run
//	s, err := attractor.NewSession(attractor.WithBackend(attractor.BackendCPU), attractor.WithSeed(42))
//
//	// Best available backend, frames pushed to a viewer
//	s, err := attractor.NewSession(attractor.WithFrameSink(func(pm *attractor.Pixmap, st attractor.Stats) {
//	    viewer.Show(pm)
//	}))
type SessionOption func(*sessionOptions)

// sessionOptions holds optional configuration for Session creation.
type sessionOptions struct {
	backend    string
	source     rand.Source
	steps      int
	epsilon    float64
	stable     int
	palette    *Palette
	frameSink  func(*Pixmap, Stats)
	completion func(Result)
}

// defaultSessionOptions returns the default session options.
func defaultSessionOptions() sessionOptions {
	return sessionOptions{
		backend: "", // best registered
		steps:   DefaultStepsPerCycle,
		epsilon: DefaultEpsilon,
		stable:  DefaultStableCycles,
	}
}

// WithBackend selects a backend by name. Empty selects the best registered
// backend (gpu when the gpu package is imported, otherwise cpu).
func WithBackend(name string) SessionOption {
	return func(o *sessionOptions) {
		o.backend = name
	}
}

// WithSeed makes runs reproducible by seeding a PCG source.
func WithSeed(seed uint64) SessionOption {
	return func(o *sessionOptions) {
		o.source = rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	}
}

// WithRandSource injects the random source used for vertex selection and
// GPU agent seeding.
func WithRandSource(src rand.Source) SessionOption {
	return func(o *sessionOptions) {
		o.source = src
	}
}

// WithStepsPerCycle sets the number of iterations per step/render cycle.
// Larger values trade responsiveness for throughput. Values below 1 are
// ignored.
func WithStepsPerCycle(n int) SessionOption {
	return func(o *sessionOptions) {
		if n > 0 {
			o.steps = n
		}
	}
}

// WithConvergence sets the ratio tolerance and the number of consecutive
// stable cycles required for convergence. Non-positive values keep the
// defaults.
func WithConvergence(epsilon float64, stableCycles int) SessionOption {
	return func(o *sessionOptions) {
		if epsilon > 0 {
			o.epsilon = epsilon
		}
		if stableCycles > 0 {
			o.stable = stableCycles
		}
	}
}

// WithPalette sets the density palette. Default: DefaultPalette().
func WithPalette(p *Palette) SessionOption {
	return func(o *sessionOptions) {
		o.palette = p
	}
}

// WithFrameSink registers a callback receiving every rendered frame. The
// pixmap is reused by the next cycle; copy it to retain it. The callback
// runs on the scheduler goroutine.
func WithFrameSink(fn func(*Pixmap, Stats)) SessionOption {
	return func(o *sessionOptions) {
		o.frameSink = fn
	}
}

// WithCompletion registers the completion signal. It is called exactly once
// per run, after convergence or after a computation failure.
func WithCompletion(fn func(Result)) SessionOption {
	return func(o *sessionOptions) {
		o.completion = fn
	}
}
