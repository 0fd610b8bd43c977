//go:build !nogpu

// Package gpu implements the attractor engine on the GPU.
//
// This is an internal package; it is registered with attractor by the
// public github.com/gogpu/attractor/gpu package. It drives the
// gogpu/wgpu HAL directly (Vulkan, zero CGO) and compiles its WGSL compute
// shaders to SPIR-V with gogpu/naga.
//
// # Pipeline
//
// Each chaos-game step is two compute passes over one bind group:
//
//	move_agents: agent i blends towards a vertex picked by its own PCG state
//	accumulate:  (agent, projection) pairs fold into the half-width histogram
//
// Histogram counters are atomic u32 buckets followed by one extra bucket
// that counts samples falling outside the grid. Agents are float32 on the
// device, so runs are statistically but not bit-for-bit equivalent to the
// CPU engine.
//
// The histogram stays in device memory. Render and Histogram copy it back
// to a host attractor.Histogram and reuse the CPU colorizer.
//
// # Fallback
//
// NewEngine returns an error wrapping attractor.ErrFallbackToCPU when there
// is no hardware adapter, the adapter is a software rasterizer, or the
// configuration exceeds device limits or the memory budget. Sessions catch
// it and continue on the CPU engine.
package gpu
