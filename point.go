package attractor

import "math"

// Point represents a 2D point in normalized (-1..1) coordinate space.
type Point struct {
	X, Y float64
}

// Pt is a convenience function to create a Point.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns the sum of two points (vector addition).
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns the difference of two points (vector subtraction).
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Mul returns the point scaled by a scalar.
func (p Point) Mul(s float64) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// Length returns the length of the vector.
func (p Point) Length() float64 {
	return math.Sqrt(p.X*p.X + p.Y*p.Y)
}

// Blend moves p the given fraction of the way towards q:
// p*(1-fraction) + q*fraction.
func (p Point) Blend(q Point, fraction float64) Point {
	inv := 1 - fraction
	return Point{
		X: p.X*inv + q.X*fraction,
		Y: p.Y*inv + q.Y*fraction,
	}
}
