package attractor

import (
	"math"
	"testing"
)

const geomEpsilon = 1e-12

func TestMakeVertices(t *testing.T) {
	for points := 3; points <= 12; points++ {
		v := MakeVertices(points)
		if len(v) != points {
			t.Fatalf("MakeVertices(%d) returned %d vertices", points, len(v))
		}
		if math.Abs(v[0].X) > geomEpsilon || math.Abs(v[0].Y+1) > geomEpsilon {
			t.Errorf("points=%d: vertex 0 = %v, want (0, -1)", points, v[0])
		}
		step := 2 * math.Pi / float64(points)
		for i, p := range v {
			if l := p.Length(); math.Abs(l-1) > geomEpsilon {
				t.Errorf("points=%d: |v[%d]| = %v, want 1", points, i, l)
			}
			// Angle measured clockwise from "up" in screen space.
			angle := math.Atan2(p.X, -p.Y)
			if angle < 0 {
				angle += 2 * math.Pi
			}
			want := step * float64(i)
			if d := math.Abs(angle - want); d > 1e-9 && math.Abs(d-2*math.Pi) > 1e-9 {
				t.Errorf("points=%d: angle(v[%d]) = %v, want %v", points, i, angle, want)
			}
		}
	}
}

func TestMakeVerticesEmpty(t *testing.T) {
	for _, points := range []int{0, -1} {
		if v := MakeVertices(points); v == nil || len(v) != 0 {
			t.Errorf("MakeVertices(%d) = %v, want empty slice", points, v)
		}
		if p := MakeProjections(points, 10); p == nil || len(p) != 0 {
			t.Errorf("MakeProjections(%d) = %v, want empty slice", points, p)
		}
	}
}

func TestMakeProjections(t *testing.T) {
	const scale = 100.0
	points := 5
	proj := MakeProjections(points, scale)
	if len(proj) != points {
		t.Fatalf("len = %d, want %d", len(proj), points)
	}

	// Projection 0 is a pure scale.
	if proj[0] != (Projection{A: scale, B: 0, C: 0, D: scale}) {
		t.Errorf("proj[0] = %+v, want scale matrix", proj[0])
	}

	for i, m := range proj {
		sin, cos := math.Sincos(2 * math.Pi * float64(i) / float64(points))
		want := Projection{A: cos * scale, B: -sin * scale, C: sin * scale, D: cos * scale}
		if math.Abs(m.A-want.A) > geomEpsilon || math.Abs(m.B-want.B) > geomEpsilon ||
			math.Abs(m.C-want.C) > geomEpsilon || math.Abs(m.D-want.D) > geomEpsilon {
			t.Errorf("proj[%d] = %+v, want %+v", i, m, want)
		}
		// Rotation preserves length.
		x, y := m.Apply(Pt(0.3, -0.4))
		if l := math.Hypot(x, y); math.Abs(l-0.5*scale) > 1e-9 {
			t.Errorf("proj[%d] maps a 0.5-length vector to length %v", i, l)
		}
	}
}

func TestProjectionMapsSeedToVertex(t *testing.T) {
	// Projection i carries vertex 0 onto vertex i.
	points := 6
	v := MakeVertices(points)
	for i, m := range MakeProjections(points, 1) {
		x, y := m.Apply(v[0])
		if math.Hypot(x-v[i].X, y-v[i].Y) > 1e-9 {
			t.Errorf("proj[%d](v0) = (%v, %v), want %v", i, x, y, v[i])
		}
	}
}

func TestBlend(t *testing.T) {
	tests := []struct {
		name string
		p, q Point
		f    float64
		want Point
	}{
		{"zero", Pt(1, 2), Pt(5, 6), 0, Pt(1, 2)},
		{"one", Pt(1, 2), Pt(5, 6), 1, Pt(5, 6)},
		{"half", Pt(0, -1), Pt(1, 1), 0.5, Pt(0.5, 0)},
		{"overshoot", Pt(0, 0), Pt(1, 0), 1.5, Pt(1.5, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.p.Blend(tt.q, tt.f)
			if math.Abs(got.X-tt.want.X) > geomEpsilon || math.Abs(got.Y-tt.want.Y) > geomEpsilon {
				t.Errorf("Blend = %v, want %v", got, tt.want)
			}
		})
	}
}
