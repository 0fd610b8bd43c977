package attractor

// MakeAgents pre-expands a single agent at vertices[0] into a population that
// approximates the attractor without a random burn-in.
//
// Each expansion replaces every agent with one blend towards each vertex,
// so after k expansions the population is every point reachable in k
// blend steps. Expansion continues while the next population would stay
// below maxAgents. For odd vertex counts the first expansion only moves
// towards every other vertex starting at 2; the mirror symmetry of the
// polygon makes the other half redundant.
func MakeAgents(maxAgents int, vertices []Point, fraction float64) []Point {
	if len(vertices) == 0 {
		return nil
	}
	points := len(vertices)
	agents := []Point{vertices[0]}
	if points <= 2 {
		return agents
	}

	if points&1 == 1 && (points-1)/2 < maxAgents {
		seed := agents[0]
		next := make([]Point, 0, (points-1)/2)
		for i := 2; i < points; i += 2 {
			next = append(next, seed.Blend(vertices[i], fraction))
		}
		agents = next
	}

	for len(agents)*points < maxAgents {
		next := make([]Point, 0, len(agents)*points)
		for _, a := range agents {
			for _, v := range vertices {
				next = append(next, a.Blend(v, fraction))
			}
		}
		agents = next
	}
	return agents
}
