//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/gogpu/attractor"
)

func TestParamsBytes(t *testing.T) {
	cfg := attractor.Config{Points: 5, Fraction: 0.25, MaxAgents: 100, Size: 101}
	p := newParams(cfg, 25)
	buf := p.bytes()
	if len(buf) != paramsSize {
		t.Fatalf("len = %d, want %d", len(buf), paramsSize)
	}

	u32 := func(off int) uint32 { return binary.LittleEndian.Uint32(buf[off:]) }
	f32 := func(off int) float32 { return math.Float32frombits(u32(off)) }

	if got := u32(0); got != 25 {
		t.Errorf("agent_count = %d, want 25", got)
	}
	if got := u32(4); got != 5 {
		t.Errorf("points = %d, want 5", got)
	}
	if got := u32(8); got != 51 {
		t.Errorf("half_width = %d, want 51", got)
	}
	if got := u32(12); got != 101 {
		t.Errorf("size = %d, want 101", got)
	}
	if got := f32(16); got != 0.25 {
		t.Errorf("fraction = %v, want 0.25", got)
	}
	if got := f32(20); got != 50.5 {
		t.Errorf("cy = %v, want 50.5", got)
	}
	if u32(24) != 0 || u32(28) != 0 {
		t.Error("padding words must be zero")
	}
}

func TestAgentsToBytes(t *testing.T) {
	agents := []attractor.Point{attractor.Pt(0.5, -1), attractor.Pt(2, 3)}
	states := []uint32{7, 0xdeadbeef}
	buf := agentsToBytes(agents, states)
	if len(buf) != 2*agentStride {
		t.Fatalf("len = %d, want %d", len(buf), 2*agentStride)
	}
	for i, a := range agents {
		off := i * agentStride
		x := math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
		y := math.Float32frombits(binary.LittleEndian.Uint32(buf[off+4:]))
		s := binary.LittleEndian.Uint32(buf[off+8:])
		if float64(x) != a.X || float64(y) != a.Y || s != states[i] {
			t.Errorf("agent %d = (%v, %v, %d), want (%v, %v, %d)", i, x, y, s, a.X, a.Y, states[i])
		}
	}
}

func TestProjectionsToBytes(t *testing.T) {
	projections := attractor.MakeProjections(3, 10)
	buf := projectionsToBytes(projections)
	if len(buf) != 3*projectionSize {
		t.Fatalf("len = %d, want %d", len(buf), 3*projectionSize)
	}
	for i, m := range projections {
		want := []float64{m.A, m.B, m.C, m.D}
		for k, w := range want {
			got := math.Float32frombits(binary.LittleEndian.Uint32(buf[i*projectionSize+4*k:]))
			if got != float32(w) {
				t.Errorf("projection %d[%d] = %v, want %v", i, k, got, float32(w))
			}
		}
	}
	if got := len(verticesToBytes(attractor.MakeVertices(4))); got != 4*vertexStride {
		t.Errorf("vertices len = %d, want %d", got, 4*vertexStride)
	}
}

func TestBucketsFromBytes(t *testing.T) {
	data := make([]byte, 4*bucketSize)
	for i, v := range []uint32{3, 0, 9, 42} {
		writeUint32(data, i*bucketSize, v)
	}
	counts := make([]uint32, 3)
	clipped := bucketsFromBytes(data, counts)
	if clipped != 42 {
		t.Errorf("clipped = %d, want 42", clipped)
	}
	if counts[0] != 3 || counts[1] != 0 || counts[2] != 9 {
		t.Errorf("counts = %v, want [3 0 9]", counts)
	}
}
