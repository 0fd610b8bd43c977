package attractor

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/gogpu/gpucontext"
)

// Backend names.
const (
	BackendCPU = "cpu"
	BackendGPU = "gpu"
)

// Engine is one simulation instance: an agent population advancing by
// random blend steps and accumulating into a folded histogram.
//
// An Engine is driven by a single goroutine. It is created for one Config
// and discarded on the next configuration change.
type Engine interface {
	// Name returns the backend name that created the engine.
	Name() string

	// Agents returns the fixed population size.
	Agents() int

	// Step runs n iterations. Each iteration moves every agent towards a
	// uniformly chosen vertex and adds one count per projection.
	Step(n int) error

	// Render unfolds the histogram into dst and returns its statistics.
	Render(dst *Pixmap) (Stats, error)

	// Histogram returns the current counters. The result may alias engine
	// memory and is only valid until the next Step.
	Histogram() (*Histogram, error)

	// Close releases engine resources. Close is idempotent.
	Close()
}

// Backend creates engines. Implementations return an error wrapping
// ErrFallbackToCPU when they cannot serve a configuration.
type Backend interface {
	// Name returns the backend name (e.g., "cpu", "gpu").
	Name() string

	// NewEngine builds the geometry, the agent pool and a zeroed histogram
	// for cfg. cfg has already been validated. rng is the only source of
	// randomness the engine may use.
	NewEngine(cfg Config, rng *rand.Rand, pal *Palette) (Engine, error)
}

var backends = gpucontext.NewRegistry[Backend](
	gpucontext.WithPriority(BackendGPU, BackendCPU),
)

// RegisterBackend makes b selectable by name, replacing any backend
// previously registered under the same name.
//
// GPU backend packages call this from init:
//
//	import _ "github.com/gogpu/attractor/gpu" // enables the GPU engine
func RegisterBackend(b Backend) {
	backends.Register(b.Name(), func() Backend { return b })
}

// UnregisterBackend removes the backend registered under name.
// The CPU backend cannot be removed.
func UnregisterBackend(name string) {
	if name == BackendCPU {
		return
	}
	backends.Unregister(name)
}

// LookupBackend returns the backend registered under name. An empty name
// selects the highest-priority backend (gpu before cpu).
func LookupBackend(name string) (Backend, error) {
	if name == "" {
		name = backends.BestName()
	}
	if !backends.Has(name) {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}
	return backends.Get(name), nil
}

// Backends returns the names of all registered backends, sorted.
func Backends() []string {
	names := backends.Available()
	slices.Sort(names)
	return names
}

func init() {
	RegisterBackend(cpuBackend{})
}
