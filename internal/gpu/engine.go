//go:build !nogpu

package gpu

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/attractor"
)

// Engine runs the chaos game on the GPU. Agents live in float32 device
// memory and every step is two compute passes: move then accumulate. The
// histogram is read back only for Render and Histogram.
type Engine struct {
	mu      sync.Mutex
	backend *Backend
	dev     *device
	cfg     attractor.Config
	pal     *attractor.Palette
	agents  int
	logger  *slog.Logger

	params      hal.Buffer
	agentBuf    hal.Buffer
	vertexBuf   hal.Buffer
	projBuf     hal.Buffer
	bucketBuf   hal.Buffer
	bindGroup   hal.BindGroup
	bucketBytes uint64
	reserved    uint64

	host    *attractor.Histogram
	clipped uint64
	closed  bool
}

// bufferCount is the number of device buffers an engine owns.
const bufferCount = 5

// engineSizes returns the byte sizes of the agent and bucket buffers and
// their sum with the small buffers.
func engineSizes(cfg attractor.Config, agents int) (agentBytes, bucketBytes, total uint64) {
	agentBytes = uint64(agents) * agentStride
	bucketBytes = uint64(cfg.Half()*cfg.Size+1) * bucketSize
	total = agentBytes + bucketBytes + paramsSize + uint64(cfg.Points)*(vertexStride+projectionSize)
	return agentBytes, bucketBytes, total
}

// checkLimits reports ErrFallbackToCPU when d cannot run cfg.
func checkLimits(d *device, cfg attractor.Config, agents int) error {
	if d.software {
		return fmt.Errorf("%w: software adapter %q", attractor.ErrFallbackToCPU, d.name)
	}
	groups := (agents + workgroupSize - 1) / workgroupSize
	if maxGroups := int(d.limits.MaxComputeWorkgroupsPerDimension); maxGroups > 0 && groups > maxGroups {
		return fmt.Errorf("%w: %d workgroups exceed device limit %d",
			attractor.ErrFallbackToCPU, groups, maxGroups)
	}
	agentBytes, bucketBytes, _ := engineSizes(cfg, agents)
	if maxBind := d.limits.MaxStorageBufferBindingSize; maxBind > 0 && max(agentBytes, bucketBytes) > maxBind {
		return fmt.Errorf("%w: %d byte storage buffer exceeds device limit %d",
			attractor.ErrFallbackToCPU, max(agentBytes, bucketBytes), maxBind)
	}
	return nil
}

func newEngine(b *Backend, d *device, cfg attractor.Config, rng *rand.Rand, pal *attractor.Palette) (*Engine, error) {
	vertices := attractor.MakeVertices(cfg.Points)
	positions := attractor.MakeAgents(cfg.MaxAgents, vertices, cfg.Fraction)
	if err := checkLimits(d, cfg, len(positions)); err != nil {
		return nil, err
	}
	if maxDim := int(d.limits.MaxTextureDimension2D); maxDim > 0 && pal.Len() > maxDim {
		pal = pal.Resized(maxDim)
	}

	agentBytes, bucketBytes, total := engineSizes(cfg, len(positions))
	if err := b.budget.reserve(total, bufferCount); err != nil {
		return nil, fmt.Errorf("%w: %w", attractor.ErrFallbackToCPU, err)
	}
	e := &Engine{
		backend:     b,
		dev:         d,
		cfg:         cfg,
		pal:         pal,
		agents:      len(positions),
		logger:      slogger(),
		bucketBytes: bucketBytes,
		reserved:    total,
		host:        attractor.NewHistogram(cfg.Size),
	}

	states := make([]uint32, len(positions))
	for i := range states {
		states[i] = rng.Uint32()
	}
	var err error
	storage := gputypes.BufferUsageStorage
	if e.params, err = d.createBuffer("attractor_params", gputypes.BufferUsageUniform,
		paramsSize, newParams(cfg, e.agents).bytes()); err != nil {
		return nil, e.fail(err)
	}
	if e.agentBuf, err = d.createBuffer("attractor_agents", storage,
		agentBytes, agentsToBytes(positions, states)); err != nil {
		return nil, e.fail(err)
	}
	vertexData := verticesToBytes(vertices)
	if e.vertexBuf, err = d.createBuffer("attractor_vertices", storage,
		uint64(len(vertexData)), vertexData); err != nil {
		return nil, e.fail(err)
	}
	projData := projectionsToBytes(attractor.MakeProjections(cfg.Points, cfg.Scale()))
	if e.projBuf, err = d.createBuffer("attractor_projections", storage,
		uint64(len(projData)), projData); err != nil {
		return nil, e.fail(err)
	}
	if e.bucketBuf, err = d.createBuffer("attractor_buckets",
		storage|gputypes.BufferUsageCopySrc|gputypes.BufferUsageCopyDst, bucketBytes, nil); err != nil {
		return nil, e.fail(err)
	}
	if err := d.encode("clear_buckets", func(enc hal.CommandEncoder) {
		enc.ClearBuffer(e.bucketBuf, 0, bucketBytes)
	}); err != nil {
		return nil, e.fail(err)
	}

	binding := func(n uint32, buf hal.Buffer, size uint64) gputypes.BindGroupEntry {
		return gputypes.BindGroupEntry{
			Binding:  n,
			Resource: gputypes.BufferBinding{Buffer: buf.NativeHandle(), Size: size},
		}
	}
	if e.bindGroup, err = d.dev.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "attractor_bind_group",
		Layout: d.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			binding(0, e.params, paramsSize),
			binding(1, e.agentBuf, agentBytes),
			binding(2, e.vertexBuf, uint64(len(vertexData))),
			binding(3, e.projBuf, uint64(len(projData))),
			binding(4, e.bucketBuf, bucketBytes),
		},
	}); err != nil {
		return nil, e.fail(fmt.Errorf("create bind group: %w", err))
	}

	e.logger.Debug("gpu: engine created",
		"points", cfg.Points, "agents", e.agents, "bucket_bytes", bucketBytes,
		"memory", b.budget.stats().String())
	return e, nil
}

// fail releases everything created so far and wraps err as a computation
// error.
func (e *Engine) fail(err error) error {
	e.release()
	return fmt.Errorf("%w: gpu init: %w", attractor.ErrComputation, err)
}

// Name implements attractor.Engine.
func (e *Engine) Name() string { return attractor.BackendGPU }

// Agents implements attractor.Engine.
func (e *Engine) Agents() int { return e.agents }

// Clipped returns the number of samples that fell outside the grid, as of
// the last readback.
func (e *Engine) Clipped() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clipped
}

// SetLogger replaces the engine's logger.
func (e *Engine) SetLogger(l *slog.Logger) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if l == nil {
		e.logger = slogger()
		return
	}
	e.logger = l.With("backend", attractor.BackendGPU)
}

// Step implements attractor.Engine. All n iterations are recorded into a
// single command buffer.
func (e *Engine) Step(n int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return attractor.ErrEngineClosed
	}
	if n < 0 {
		return fmt.Errorf("gpu: negative step count %d", n)
	}
	if n == 0 {
		return nil
	}
	groups := uint32((e.agents + workgroupSize - 1) / workgroupSize) //nolint:gosec // checked against limits
	points := uint32(e.cfg.Points)                                   //nolint:gosec // validated
	err := e.dev.encode("attractor_step", func(enc hal.CommandEncoder) {
		for range n {
			pass := enc.BeginComputePass(&hal.ComputePassDescriptor{Label: "move_agents"})
			pass.SetPipeline(e.dev.movePipe)
			pass.SetBindGroup(0, e.bindGroup, nil)
			pass.Dispatch(groups, 1, 1)
			pass.End()

			pass = enc.BeginComputePass(&hal.ComputePassDescriptor{Label: "accumulate"})
			pass.SetPipeline(e.dev.accPipe)
			pass.SetBindGroup(0, e.bindGroup, nil)
			pass.Dispatch(groups, points, 1)
			pass.End()
		}
	})
	if err != nil {
		return fmt.Errorf("%w: gpu step: %w", attractor.ErrComputation, err)
	}
	return nil
}

// readback refreshes the host histogram from the bucket buffer.
func (e *Engine) readback() error {
	data, err := e.dev.download("attractor_buckets", e.bucketBuf, e.bucketBytes)
	if err != nil {
		return fmt.Errorf("%w: gpu readback: %w", attractor.ErrComputation, err)
	}
	e.clipped = uint64(bucketsFromBytes(data, e.host.Counts()))
	return nil
}

// Render implements attractor.Engine.
func (e *Engine) Render(dst *attractor.Pixmap) (attractor.Stats, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return attractor.Stats{}, attractor.ErrEngineClosed
	}
	if err := e.readback(); err != nil {
		return attractor.Stats{}, err
	}
	return attractor.RenderHistogram(e.host, e.pal, dst)
}

// Histogram implements attractor.Engine. The returned histogram is a host
// copy refreshed on every call.
func (e *Engine) Histogram() (*attractor.Histogram, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, attractor.ErrEngineClosed
	}
	if err := e.readback(); err != nil {
		return nil, err
	}
	return e.host, nil
}

// Close implements attractor.Engine. It is safe to call more than once.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.release()
	e.backend.engineClosed()
	e.logger.Debug("gpu: engine closed")
}

func (e *Engine) release() {
	d := e.dev.dev
	if d != nil {
		_ = d.WaitIdle()
		if e.bindGroup != nil {
			d.DestroyBindGroup(e.bindGroup)
		}
		for _, buf := range []hal.Buffer{e.bucketBuf, e.projBuf, e.vertexBuf, e.agentBuf, e.params} {
			if buf != nil {
				d.DestroyBuffer(buf)
			}
		}
	}
	e.bindGroup = nil
	e.params, e.agentBuf, e.vertexBuf, e.projBuf, e.bucketBuf = nil, nil, nil, nil, nil
	e.host = nil
	e.backend.budget.release(e.reserved, bufferCount)
	e.reserved = 0
}
