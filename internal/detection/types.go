package detection

import "math"

// Point is a planar coordinate in pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Contour is an ordered sequence of points describing a closed boundary.
// The last point connects back to the first. Contours are not guaranteed to
// be convex.
type Contour []Point

// Area returns the absolute enclosed area using the shoelace formula.
func (c Contour) Area() float64 {
	if len(c) < 3 {
		return 0
	}
	var sum float64
	prev := c[len(c)-1]
	for _, p := range c {
		sum += prev.X*p.Y - p.X*prev.Y
		prev = p
	}
	return math.Abs(sum) / 2
}

// ArcLength returns the perimeter of the closed contour.
func (c Contour) ArcLength() float64 {
	if len(c) < 2 {
		return 0
	}
	var length float64
	prev := c[len(c)-1]
	for _, p := range c {
		length += prev.Dist(p)
		prev = p
	}
	return length
}

// Candidate is a contour reduced to exactly four points.
type Candidate struct {
	// Corners are the approximated polygon's vertices in trace order.
	Corners [4]Point `json:"corners"`

	// Area is the area enclosed by the traced contour, in square pixels.
	// Candidates are compared by this value.
	Area float64 `json:"area"`
}

// CornerSet is four points with fixed roles.
type CornerSet struct {
	TopLeft     Point `json:"top_left"`
	TopRight    Point `json:"top_right"`
	BottomRight Point `json:"bottom_right"`
	BottomLeft  Point `json:"bottom_left"`
}

// Points returns the corners in top-left, top-right, bottom-right,
// bottom-left order.
func (cs CornerSet) Points() [4]Point {
	return [4]Point{cs.TopLeft, cs.TopRight, cs.BottomRight, cs.BottomLeft}
}
