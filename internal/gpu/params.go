//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/attractor"
)

// Buffer layout sizes in bytes. They mirror the WGSL structs.
const (
	paramsSize     = 32 // Params: 6 scalars + 2 pad words
	agentStride    = 16 // Agent: vec2<f32>, u32 state, u32 pad
	vertexStride   = 8  // vec2<f32>
	projectionSize = 16 // vec4<f32>
	bucketSize     = 4  // atomic<u32>
)

// Params is the uniform block shared by both passes.
type Params struct {
	AgentCount uint32
	Points     uint32
	HalfWidth  uint32
	Size       uint32
	Fraction   float32
	CY         float32
}

func newParams(cfg attractor.Config, agents int) Params {
	half := cfg.Half()
	return Params{
		AgentCount: uint32(agents),     //nolint:gosec // bounded by dispatch limits
		Points:     uint32(cfg.Points), //nolint:gosec // validated positive
		HalfWidth:  uint32(half),       //nolint:gosec // validated positive
		Size:       uint32(cfg.Size),   //nolint:gosec // validated positive
		Fraction:   float32(cfg.Fraction),
		CY:         float32(half) - 0.5,
	}
}

// bytes serializes p in the std140 layout of the WGSL Params struct.
func (p Params) bytes() []byte {
	buf := make([]byte, paramsSize)
	writeUint32(buf, 0, p.AgentCount)
	writeUint32(buf, 4, p.Points)
	writeUint32(buf, 8, p.HalfWidth)
	writeUint32(buf, 12, p.Size)
	writeFloat32(buf, 16, p.Fraction)
	writeFloat32(buf, 20, p.CY)
	return buf
}

// agentsToBytes packs positions and per-agent RNG states.
func agentsToBytes(agents []attractor.Point, states []uint32) []byte {
	buf := make([]byte, len(agents)*agentStride)
	for i, a := range agents {
		off := i * agentStride
		writeFloat32(buf, off+0, float32(a.X))
		writeFloat32(buf, off+4, float32(a.Y))
		writeUint32(buf, off+8, states[i])
	}
	return buf
}

func verticesToBytes(vertices []attractor.Point) []byte {
	buf := make([]byte, len(vertices)*vertexStride)
	for i, v := range vertices {
		writeFloat32(buf, i*vertexStride+0, float32(v.X))
		writeFloat32(buf, i*vertexStride+4, float32(v.Y))
	}
	return buf
}

func projectionsToBytes(projections []attractor.Projection) []byte {
	buf := make([]byte, len(projections)*projectionSize)
	for i, m := range projections {
		off := i * projectionSize
		writeFloat32(buf, off+0, float32(m.A))
		writeFloat32(buf, off+4, float32(m.B))
		writeFloat32(buf, off+8, float32(m.C))
		writeFloat32(buf, off+12, float32(m.D))
	}
	return buf
}

// bucketsFromBytes decodes the bucket buffer into counts and returns the
// trailing clipped counter.
func bucketsFromBytes(data []byte, counts []uint32) uint32 {
	for i := range counts {
		counts[i] = binary.LittleEndian.Uint32(data[i*bucketSize:])
	}
	return binary.LittleEndian.Uint32(data[len(counts)*bucketSize:])
}

func writeUint32(buf []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(buf[off:], v)
}

func writeFloat32(buf []byte, off int, v float32) {
	binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
}
