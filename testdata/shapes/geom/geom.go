// Package geom holds coordinates.
package geom

// Point is a location in the plane.
type Point struct {
	X, Y float64
}

// Dist returns the Manhattan distance between p and q.
func (p Point) Dist(q Point) float64 {
	return abs(p.X-q.X) + abs(p.Y-q.Y)
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

var Zero = Point{} // the origin
