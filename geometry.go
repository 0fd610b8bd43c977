package attractor

import "math"

// Projection is a 2x2 linear map, pre-scaled to pixels, that rotates an
// agent position into one vertex's frame:
//
//	| A  B |   | cos*scale  -sin*scale |
//	| C  D | = | sin*scale   cos*scale |
type Projection struct {
	A, B, C, D float64
}

// Apply returns the projected offset from the canvas center.
func (m Projection) Apply(p Point) (x, y float64) {
	return p.X*m.A + p.Y*m.B, p.X*m.C + p.Y*m.D
}

// MakeVertices returns the vertices of a regular polygon on the unit circle,
// starting at (0, -1) ("up" in screen space) and evenly spaced by angle.
// points <= 0 yields an empty slice.
func MakeVertices(points int) []Point {
	if points <= 0 {
		return []Point{}
	}
	vertices := make([]Point, points)
	for i := range vertices {
		sin, cos := math.Sincos(2 * math.Pi * float64(i) / float64(points))
		vertices[i] = Point{X: sin, Y: -cos}
	}
	return vertices
}

// MakeProjections returns one projection per vertex, each rotating by that
// vertex's angle and scaling by scale.
func MakeProjections(points int, scale float64) []Projection {
	if points <= 0 {
		return []Projection{}
	}
	projections := make([]Projection, points)
	for i := range projections {
		sin, cos := math.Sincos(2 * math.Pi * float64(i) / float64(points))
		projections[i] = Projection{
			A: cos * scale,
			B: -sin * scale,
			C: sin * scale,
			D: cos * scale,
		}
	}
	return projections
}
