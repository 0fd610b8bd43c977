//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ErrMemoryBudgetExceeded is returned when an engine's buffers would not
// fit in the remaining memory budget.
var ErrMemoryBudgetExceeded = errors.New("gpu: memory budget exceeded")

// Default memory limits.
const (
	// DefaultMaxMemoryMB is the default budget for all engine buffers.
	DefaultMaxMemoryMB = 256

	// MinMemoryMB is the smallest budget SetBudget accepts.
	MinMemoryMB = 16
)

// MemoryStats contains buffer memory usage statistics.
type MemoryStats struct {
	TotalBytes     uint64
	UsedBytes      uint64
	AvailableBytes uint64
	BufferCount    int
	Utilization    float64
}

// String returns a human-readable string of memory stats.
func (s MemoryStats) String() string {
	return fmt.Sprintf("Memory[%.1f%% used, %d/%d MB, %d buffers]",
		s.Utilization*100,
		s.UsedBytes/(1024*1024),
		s.TotalBytes/(1024*1024),
		s.BufferCount)
}

// memoryBudget accounts for the device buffers owned by live engines.
//
// memoryBudget is safe for concurrent use.
type memoryBudget struct {
	mu      sync.Mutex
	total   uint64
	used    uint64
	buffers int
}

func newMemoryBudget(megabytes int) *memoryBudget {
	return &memoryBudget{total: uint64(max(megabytes, MinMemoryMB)) * 1024 * 1024} //nolint:gosec // clamped positive
}

// reserve claims size bytes for count buffers.
func (m *memoryBudget) reserve(size uint64, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.used+size > m.total {
		return fmt.Errorf("%w: need %d bytes, %d of %d in use",
			ErrMemoryBudgetExceeded, size, m.used, m.total)
	}
	m.used += size
	m.buffers += count
	return nil
}

func (m *memoryBudget) release(size uint64, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.used -= min(size, m.used)
	m.buffers = max(m.buffers-count, 0)
}

// setBudget changes the budget. It fails if current usage already exceeds
// the new value.
func (m *memoryBudget) setBudget(megabytes int) error {
	if megabytes < MinMemoryMB {
		return fmt.Errorf("gpu: budget %d MB below minimum %d MB", megabytes, MinMemoryMB)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	total := uint64(megabytes) * 1024 * 1024 //nolint:gosec // checked above
	if m.used > total {
		return fmt.Errorf("%w: %d bytes in use", ErrMemoryBudgetExceeded, m.used)
	}
	m.total = total
	return nil
}

func (m *memoryBudget) stats() MemoryStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := MemoryStats{
		TotalBytes:  m.total,
		UsedBytes:   m.used,
		BufferCount: m.buffers,
	}
	if m.total > 0 {
		s.AvailableBytes = m.total - min(m.used, m.total)
		s.Utilization = float64(m.used) / float64(m.total)
	}
	return s
}

// createBuffer creates a device buffer, optionally filled with data through
// a mapped staging buffer.
func (d *device) createBuffer(label string, usage gputypes.BufferUsage, size uint64, data []byte) (hal.Buffer, error) {
	if data != nil {
		usage |= gputypes.BufferUsageCopyDst
	}
	buf, err := d.dev.CreateBuffer(&hal.BufferDescriptor{Label: label, Size: size, Usage: usage})
	if err != nil {
		return nil, fmt.Errorf("create %s buffer: %w", label, err)
	}
	if data == nil {
		return buf, nil
	}
	if err := d.upload(label, buf, data); err != nil {
		d.dev.DestroyBuffer(buf)
		return nil, err
	}
	return buf, nil
}

// upload copies data to the start of dst.
func (d *device) upload(label string, dst hal.Buffer, data []byte) error {
	size := uint64(len(data))
	staging, err := d.dev.CreateBuffer(&hal.BufferDescriptor{
		Label: label + "_staging",
		Size:  size,
		Usage: gputypes.BufferUsageMapWrite | gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create %s staging buffer: %w", label, err)
	}
	defer d.dev.DestroyBuffer(staging)

	mapping, err := d.dev.MapBuffer(staging, 0, size)
	if err != nil {
		return fmt.Errorf("map %s staging buffer: %w", label, err)
	}
	copy(unsafe.Slice((*byte)(mapping.Ptr), len(data)), data)
	if err := d.dev.UnmapBuffer(staging); err != nil {
		return fmt.Errorf("unmap %s staging buffer: %w", label, err)
	}

	return d.encode("upload_"+label, func(enc hal.CommandEncoder) {
		enc.CopyBufferToBuffer(staging, dst, []hal.BufferCopy{{Size: size}})
	})
}

// download copies size bytes from the start of src into a new slice.
func (d *device) download(label string, src hal.Buffer, size uint64) ([]byte, error) {
	staging, err := d.dev.CreateBuffer(&hal.BufferDescriptor{
		Label: label + "_readback",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s readback buffer: %w", label, err)
	}
	defer d.dev.DestroyBuffer(staging)

	if err := d.encode("download_"+label, func(enc hal.CommandEncoder) {
		enc.CopyBufferToBuffer(src, staging, []hal.BufferCopy{{Size: size}})
	}); err != nil {
		return nil, err
	}

	mapping, err := d.dev.MapBuffer(staging, 0, size)
	if err != nil {
		return nil, fmt.Errorf("map %s readback buffer: %w", label, err)
	}
	out := make([]byte, size)
	copy(out, unsafe.Slice((*byte)(mapping.Ptr), size))
	if err := d.dev.UnmapBuffer(staging); err != nil {
		return nil, fmt.Errorf("unmap %s readback buffer: %w", label, err)
	}
	return out, nil
}

// encode records commands with fn and runs them to completion.
func (d *device) encode(label string, fn func(hal.CommandEncoder)) error {
	enc, err := d.dev.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	defer enc.Destroy()
	if err := enc.BeginEncoding(label); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}
	fn(enc)
	cmd, err := enc.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	return d.submit(cmd)
}
