package attractor

import "testing"

func TestMonitorConstantRatioConverges(t *testing.T) {
	m := NewMonitor(DefaultEpsilon, DefaultStableCycles)
	s := Stats{Max: 100, Mean: 12.5}

	signals := 0
	convergedAt := 0
	for cycle := 1; cycle <= 40; cycle++ {
		if m.Observe(s) {
			signals++
			convergedAt = cycle
		}
	}
	if signals != 1 {
		t.Fatalf("convergence signalled %d times, want exactly 1", signals)
	}
	// Cycle 1 sets the reference; cycles 2..21 are the 20 stable ones.
	if convergedAt != 21 {
		t.Errorf("converged at cycle %d, want 21", convergedAt)
	}
	if !m.Converged() {
		t.Error("Converged() = false after signal")
	}
}

func TestMonitorChangeResetsCounter(t *testing.T) {
	m := NewMonitor(1e-4, 3)
	seq := []float64{0.5, 0.5, 0.5, 0.6, 0.6, 0.6}
	for i, r := range seq {
		if m.Observe(Stats{Max: 1000, Mean: r * 1000}) {
			t.Fatalf("converged early at cycle %d", i+1)
		}
	}
	if m.Stable() != 2 {
		t.Errorf("Stable() = %d, want 2", m.Stable())
	}
	if !m.Observe(Stats{Max: 1000, Mean: 600}) {
		t.Error("third stable cycle after the change should converge")
	}
}

func TestMonitorSlowDrift(t *testing.T) {
	// Drift below epsilon accumulates against the reference, not the
	// previous cycle, so a slow trend is not mistaken for stability.
	m := NewMonitor(1e-4, 5)
	r := 0.2
	for i := range 100 {
		if m.Observe(Stats{Max: 1 << 20, Mean: r * (1 << 20)}) {
			t.Fatalf("converged at cycle %d on drifting ratio", i+1)
		}
		r += 4e-5
	}
}

func TestMonitorReset(t *testing.T) {
	m := NewMonitor(1e-4, 1)
	m.Observe(Stats{Max: 4, Mean: 1})
	if !m.Observe(Stats{Max: 4, Mean: 1}) {
		t.Fatal("expected convergence")
	}
	m.Reset()
	if m.Converged() || m.Cycles() != 0 || m.Stable() != 0 {
		t.Fatalf("Reset left state: converged=%v cycles=%d stable=%d", m.Converged(), m.Cycles(), m.Stable())
	}
	// The first observation after a reset is never stable: the reference is -1.
	if m.Observe(Stats{Max: 4, Mean: 1}) {
		t.Error("converged on first cycle after Reset")
	}
}

func TestNewMonitorDefaults(t *testing.T) {
	m := NewMonitor(0, -1)
	if m.Epsilon != DefaultEpsilon || m.Threshold != DefaultStableCycles {
		t.Errorf("defaults = %v, %d", m.Epsilon, m.Threshold)
	}
}
