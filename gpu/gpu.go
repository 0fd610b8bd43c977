//go:build !nogpu

// Package gpu registers the GPU attractor engine.
//
// Import this package for its side effect to make the "gpu" backend
// available. Sessions that do not name a backend pick it ahead of the CPU
// engine. If no usable hardware adapter is found, or a configuration does
// not fit the device, sessions fall back to the CPU engine and log a
// warning.
//
// Usage:
//
//	import _ "github.com/gogpu/attractor/gpu" // enable the GPU engine
//
// Build with the nogpu tag to leave the GPU backend out entirely.
package gpu

import (
	"fmt"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/attractor"
	gpuimpl "github.com/gogpu/attractor/internal/gpu"
)

var backend = gpuimpl.NewBackend()

func init() {
	attractor.RegisterBackend(backend)
}

// SetDeviceProvider makes the GPU engine share a device owned by an
// external provider (e.g., a gogpu window) instead of opening its own.
// The provider must expose wgpu HAL handles, either directly from Device
// and Queue or through HalDevice and HalQueue methods. Pass nil to go back
// to a private device.
//
// Call it before any session selects the GPU backend; it fails while GPU
// engines are open.
func SetDeviceProvider(provider gpucontext.DeviceProvider) error {
	if err := backend.SetDeviceProvider(provider); err != nil {
		return fmt.Errorf("gpu: set device provider: %w", err)
	}
	return nil
}

// Available reports whether a hardware GPU can run the engine. The first
// call opens the device.
func Available() bool {
	return backend.Available()
}

// SetMemoryBudget limits the device memory held by all GPU engines.
// Configurations that would exceed it run on the CPU instead.
func SetMemoryBudget(megabytes int) error {
	return backend.SetMemoryBudget(megabytes)
}

// MemoryStats reports device memory held by GPU engines.
func MemoryStats() gpuimpl.MemoryStats {
	return backend.MemoryStats()
}

// Close releases the GPU device. GPU engines must be closed first; the
// backend reopens the device on next use.
func Close() error {
	return backend.Close()
}
