package attractor

import "math"

// Monitor decides when a run has visually stabilized.
//
// Each observed cycle contributes its mean/max ratio. A ratio within
// Epsilon of the reference ratio counts as a stable cycle; any other ratio
// becomes the new reference and resets the count. Observe reports
// convergence once, when Threshold consecutive stable cycles have been
// seen.
type Monitor struct {
	Epsilon   float64
	Threshold int

	prev   float64
	stable int
	cycles int
	done   bool
}

// NewMonitor returns a reset monitor. Non-positive arguments select the
// defaults (DefaultEpsilon, DefaultStableCycles).
func NewMonitor(epsilon float64, threshold int) *Monitor {
	if !(epsilon > 0) {
		epsilon = DefaultEpsilon
	}
	if threshold <= 0 {
		threshold = DefaultStableCycles
	}
	m := &Monitor{Epsilon: epsilon, Threshold: threshold}
	m.Reset()
	return m
}

// Reset forgets all history.
func (m *Monitor) Reset() {
	m.prev = -1
	m.stable = 0
	m.cycles = 0
	m.done = false
}

// Observe records one cycle and reports whether the run just converged.
// It returns true at most once until Reset.
func (m *Monitor) Observe(s Stats) bool {
	if m.done {
		return false
	}
	m.cycles++
	r := s.Ratio()
	if math.Abs(r-m.prev) < m.Epsilon {
		m.stable++
	} else {
		m.stable = 0
		m.prev = r
	}
	if m.stable >= m.Threshold {
		m.done = true
		return true
	}
	return false
}

// Converged reports whether the monitor has signalled convergence.
func (m *Monitor) Converged() bool { return m.done }

// Cycles returns the number of observed cycles.
func (m *Monitor) Cycles() int { return m.cycles }

// Stable returns the current count of consecutive stable cycles.
func (m *Monitor) Stable() int { return m.stable }
