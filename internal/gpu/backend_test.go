//go:build !nogpu

package gpu

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/attractor"
)

// fakeProvider is a device provider without HAL handles.
type fakeProvider struct {
	info gpucontext.AdapterInfo
}

func (fakeProvider) Device() gpucontext.Device             { return nil }
func (fakeProvider) Queue() gpucontext.Queue               { return nil }
func (fakeProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatUndefined }
func (fakeProvider) Adapter() gpucontext.Adapter           { return nil }
func (p fakeProvider) AdapterInfo() gpucontext.AdapterInfo { return p.info }

func testConfig() attractor.Config {
	return attractor.Config{Points: 3, Fraction: 0.5, MaxAgents: 300, Size: 64}
}

func TestBackendName(t *testing.T) {
	b := NewBackend()
	if b.Name() != attractor.BackendGPU {
		t.Errorf("Name() = %q, want %q", b.Name(), attractor.BackendGPU)
	}
}

func TestBackendInvalidConfig(t *testing.T) {
	b := NewBackend()
	cfg := testConfig()
	cfg.Points = 2
	_, err := b.NewEngine(cfg, nil, nil)
	var ce *attractor.ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want *attractor.ConfigError", err)
	}
	if errors.Is(err, attractor.ErrFallbackToCPU) {
		t.Error("invalid config must not request CPU fallback")
	}
}

func TestBackendProviderWithoutHALFallsBack(t *testing.T) {
	b := NewBackend()
	if err := b.SetDeviceProvider(fakeProvider{}); err != nil {
		t.Fatalf("SetDeviceProvider: %v", err)
	}
	_, err := b.NewEngine(testConfig(), nil, nil)
	if !errors.Is(err, attractor.ErrFallbackToCPU) {
		t.Errorf("err = %v, want ErrFallbackToCPU", err)
	}
	if !errors.Is(err, ErrDeviceProvider) {
		t.Errorf("err = %v, want ErrDeviceProvider", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestCheckLimits(t *testing.T) {
	cfg := testConfig()
	tests := []struct {
		name     string
		dev      device
		agents   int
		fallback bool
	}{
		{"hardware", device{limits: gputypes.DefaultLimits()}, 243, false},
		{"software", device{name: "llvmpipe", software: true, limits: gputypes.DefaultLimits()}, 243, true},
		{"workgroups", device{limits: gputypes.Limits{MaxComputeWorkgroupsPerDimension: 2}}, 243, true},
		{"binding size", device{limits: gputypes.Limits{MaxStorageBufferBindingSize: 64}}, 243, true},
		{"zero limits", device{}, 243, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkLimits(&tt.dev, cfg, tt.agents)
			if got := errors.Is(err, attractor.ErrFallbackToCPU); got != tt.fallback {
				t.Errorf("checkLimits() = %v, fallback = %v, want %v", err, got, tt.fallback)
			}
		})
	}
}

func TestSetLoggerTagsBackend(t *testing.T) {
	defer setLogger(nil)
	b := NewBackend()
	b.SetLogger(attractor.Logger())
	if loggerPtr.Load() == nil {
		t.Fatal("SetLogger did not store a logger")
	}
	b.SetLogger(nil)
	if loggerPtr.Load() != nil {
		t.Error("SetLogger(nil) should revert to attractor.Logger")
	}
	if slogger() != attractor.Logger() {
		t.Error("slogger() should follow attractor.Logger after reset")
	}
}

// newTestEngine opens a hardware engine or skips the test.
func newTestEngine(t *testing.T, b *Backend, cfg attractor.Config) *Engine {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping GPU test in short mode")
	}
	e, err := b.NewEngine(cfg, rand.New(rand.NewPCG(1, 2)), nil)
	if errors.Is(err, attractor.ErrFallbackToCPU) {
		skipOnNagaLimitation(t, err)
		t.Skipf("GPU not available: %v", err)
	}
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e.(*Engine)
}

func TestEngineAccumulates(t *testing.T) {
	b := NewBackend()
	defer b.Close()
	cfg := testConfig()
	e := newTestEngine(t, b, cfg)

	const steps = 3
	if err := e.Step(steps); err != nil {
		t.Fatalf("Step: %v", err)
	}
	h, err := e.Histogram()
	if err != nil {
		t.Fatalf("Histogram: %v", err)
	}
	want := uint64(steps * e.Agents() * cfg.Points)
	if got := h.Sum() + e.Clipped(); got != want {
		t.Errorf("samples = %d (sum %d + clipped %d), want %d", got, h.Sum(), e.Clipped(), want)
	}
	if e.Clipped() != 0 {
		t.Errorf("Clipped = %d, want 0 for fraction 0.5", e.Clipped())
	}

	dst := attractor.NewPixmap(cfg.Size, cfg.Size)
	stats, err := e.Render(dst)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if stats.Max == 0 {
		t.Error("Render saw an empty histogram")
	}
	if s := b.MemoryStats(); s.BufferCount != bufferCount {
		t.Errorf("BufferCount = %d, want %d", s.BufferCount, bufferCount)
	}

	if err := b.SetDeviceProvider(nil); !errors.Is(err, ErrDeviceInUse) {
		t.Errorf("SetDeviceProvider with open engine: err = %v, want ErrDeviceInUse", err)
	}

	e.Close()
	e.Close()
	if err := e.Step(1); !errors.Is(err, attractor.ErrEngineClosed) {
		t.Errorf("Step after Close: err = %v, want ErrEngineClosed", err)
	}
	if s := b.MemoryStats(); s.UsedBytes != 0 {
		t.Errorf("UsedBytes after Close = %d, want 0", s.UsedBytes)
	}
}

func TestEngineMemoryBudgetFallback(t *testing.T) {
	b := NewBackend()
	defer b.Close()
	if err := b.SetMemoryBudget(MinMemoryMB); err != nil {
		t.Fatal(err)
	}
	cfg := testConfig()
	cfg.Size = 4096 // ~32 MB of buckets
	if testing.Short() {
		t.Skip("skipping GPU test in short mode")
	}
	_, err := b.NewEngine(cfg, nil, nil)
	if !errors.Is(err, attractor.ErrFallbackToCPU) {
		t.Errorf("err = %v, want ErrFallbackToCPU", err)
	}
}
