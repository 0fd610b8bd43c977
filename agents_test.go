package attractor

import (
	"math"
	"testing"
)

func TestMakeAgentsBudget(t *testing.T) {
	for points := 3; points <= 9; points++ {
		for _, maxAgents := range []int{1, 2, 3, 7, 10, 64, 100, 1000, 10000} {
			v := MakeVertices(points)
			c := len(MakeAgents(maxAgents, v, 0.5))
			if c > maxAgents && c != 1 {
				t.Errorf("points=%d maxAgents=%d: %d agents exceed the budget", points, maxAgents, c)
			}
			if c*points < maxAgents {
				t.Errorf("points=%d maxAgents=%d: %d agents stopped short (next %d)", points, maxAgents, c, c*points)
			}
		}
	}
}

func TestMakeAgentsCounts(t *testing.T) {
	tests := []struct {
		points, maxAgents, want int
	}{
		{3, 1, 1},
		{3, 100, 81},      // shortcut 1, then 3, 9, 27, 81
		{4, 100, 64},      // 1, 4, 16, 64
		{4, 16, 4},        // 4*4 == 16 stops growth
		{5, 100, 50},      // shortcut 2, then 10, 50
		{7, 3, 1},         // shortcut needs (7-1)/2 < maxAgents
		{7, 4, 3},         // shortcut 3, then 3*7 >= 4
		{6, 10000, 7776},  // 6^5
		{3, 10000, 6561},  // 3^8
		{8, 10000, 4096},  // 8^4
		{9, 10000, 2916},  // 4 * 9^3
		{10, 10000, 1000}, // 10^3*10 == 10000 stops growth
		{3, 3, 1},         // shortcut 1, then 1*3 < 3 is false
	}
	for _, tt := range tests {
		got := len(MakeAgents(tt.maxAgents, MakeVertices(tt.points), 0.5))
		if got != tt.want {
			t.Errorf("MakeAgents(%d, points=%d) = %d agents, want %d", tt.maxAgents, tt.points, got, tt.want)
		}
	}
}

func TestMakeAgentsDegenerate(t *testing.T) {
	if a := MakeAgents(100, nil, 0.5); a != nil {
		t.Errorf("no vertices: got %v, want nil", a)
	}
	for _, points := range []int{1, 2} {
		v := MakeVertices(points)
		a := MakeAgents(100, v, 0.5)
		if len(a) != 1 || a[0] != v[0] {
			t.Errorf("points=%d: got %v, want the seed vertex only", points, a)
		}
	}
}

func TestMakeAgentsOddShortcut(t *testing.T) {
	// With a budget that allows exactly the shortcut, the population is the
	// blends of vertex 0 towards vertices 2, 4, ...
	v := MakeVertices(5)
	a := MakeAgents(3, v, 0.25)
	if len(a) != 2 {
		t.Fatalf("got %d agents, want 2", len(a))
	}
	for k, i := range []int{2, 4} {
		want := v[0].Blend(v[i], 0.25)
		if math.Hypot(a[k].X-want.X, a[k].Y-want.Y) > 1e-12 {
			t.Errorf("agent %d = %v, want blend towards vertex %d = %v", k, a[k], i, want)
		}
	}
}

func TestMakeAgentsOnAttractor(t *testing.T) {
	// For fraction in (0, 1) every blend stays inside the unit disc.
	for _, points := range []int{3, 4, 5, 6} {
		for _, a := range MakeAgents(5000, MakeVertices(points), 0.6) {
			if a.Length() > 1+1e-12 {
				t.Fatalf("points=%d: agent %v outside unit disc", points, a)
			}
		}
	}
}
