package shapes

import "example.com/shapes/geom"

// Shape is anything with an area.
type Shape interface {
	// Area returns the enclosed area.
	Area() float64
}

// Circle is a round shape.
type Circle struct {
	geom.Point // center

	// Radius is the distance from the center to the edge.
	Radius float64
	label  string
}

// NewCircle returns a circle centered at the origin.
func NewCircle(r float64) *Circle {
	return &Circle{Radius: r}
}

// Area implements Shape.
func (c Circle) Area() float64 {
	return Pi * c.Radius * c.Radius
}

// Scale multiplies the radius by f.
func (c *Circle) Scale(f float64) {
	c.Radius *= f
}

func (c Circle) describe() string { return c.label }

// Pi is close enough.
const Pi = 3.14159

var (
	// Unit is the circle of radius one.
	Unit = Circle{Radius: 1}

	// Measure computes the area of s.
	Measure = func(s Shape) float64 { return s.Area() }
)

func undocumented() {}
