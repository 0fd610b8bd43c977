//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/attractor"
)

// Backend is the GPU engine factory registered with attractor.
//
// The device is opened lazily by the first NewEngine call and shared by
// all engines created afterwards. It is released by Close, or replaced by
// SetDeviceProvider while no engines are open.
type Backend struct {
	mu       sync.Mutex
	dev      *device
	provider gpucontext.DeviceProvider
	openErr  error // sticky failure of the last device open
	live     int
	budget   *memoryBudget
}

// NewBackend returns a backend that opens its own Vulkan device on demand.
func NewBackend() *Backend {
	return &Backend{budget: newMemoryBudget(DefaultMaxMemoryMB)}
}

// Name implements attractor.Backend.
func (b *Backend) Name() string { return attractor.BackendGPU }

// NewEngine implements attractor.Backend. Hardware that cannot run cfg, or
// no hardware at all, yields an error wrapping attractor.ErrFallbackToCPU.
func (b *Backend) NewEngine(cfg attractor.Config, rng *rand.Rand, pal *attractor.Palette) (attractor.Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // simulation, not crypto
	}
	if pal == nil {
		pal = attractor.DefaultPalette()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	d, err := b.deviceLocked()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", attractor.ErrFallbackToCPU, err)
	}
	e, err := newEngine(b, d, cfg, rng, pal)
	if err != nil {
		return nil, err
	}
	b.live++
	return e, nil
}

// deviceLocked returns the shared device, opening it on first use.
func (b *Backend) deviceLocked() (*device, error) {
	if b.dev != nil {
		return b.dev, nil
	}
	if b.openErr != nil {
		return nil, b.openErr
	}
	var (
		d   *device
		err error
	)
	if b.provider != nil {
		d, err = deviceFromProvider(b.provider)
	} else {
		d, err = openDevice()
	}
	if err != nil {
		// Retrying a missing driver on every configure only adds latency.
		if errors.Is(err, ErrNoGPU) {
			b.openErr = err
		}
		slogger().Warn("gpu: device unavailable", "err", err)
		return nil, err
	}
	b.dev = d
	return d, nil
}

func (b *Backend) engineClosed() {
	b.mu.Lock()
	b.live = max(b.live-1, 0)
	b.mu.Unlock()
}

// SetDeviceProvider makes the backend run on a device owned by provider
// instead of opening its own. A nil provider reverts to the built-in
// device. It fails with ErrDeviceInUse while engines are open.
func (b *Backend) SetDeviceProvider(provider gpucontext.DeviceProvider) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.live > 0 {
		return fmt.Errorf("%w: %d engines", ErrDeviceInUse, b.live)
	}
	if b.dev != nil {
		b.dev.destroy()
		b.dev = nil
	}
	b.provider = provider
	b.openErr = nil
	return nil
}

// SetLogger implements the logger hook attractor.SetLogger uses to reach
// registered backends.
func (b *Backend) SetLogger(l *slog.Logger) {
	setLogger(l)
}

// SetMemoryBudget limits the device memory all engines may hold at once.
func (b *Backend) SetMemoryBudget(megabytes int) error {
	return b.budget.setBudget(megabytes)
}

// MemoryStats reports the current buffer memory usage.
func (b *Backend) MemoryStats() MemoryStats {
	return b.budget.stats()
}

// Available reports whether a device is open or could be opened. It opens
// the device if needed.
func (b *Backend) Available() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, err := b.deviceLocked()
	return err == nil && !d.software
}

// Close releases the device. Open engines must be closed first.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.live > 0 {
		return fmt.Errorf("%w: %d engines", ErrDeviceInUse, b.live)
	}
	if b.dev != nil {
		b.dev.destroy()
		b.dev = nil
	}
	b.openErr = nil
	return nil
}
