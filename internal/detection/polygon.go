package detection

import "math"

// ApproxPolygon simplifies a closed contour with the Douglas-Peucker
// algorithm.
//
// The curve is split at two mutually distant points, both halves are
// simplified independently, and a final pass removes any remaining vertex
// closer than epsilon to the segment joining its neighbours. The result keeps
// the input's orientation and never has fewer than three vertices unless the
// input does.
func ApproxPolygon(c Contour, epsilon float64) Contour {
	n := len(c)
	if n <= 3 {
		return append(Contour(nil), c...)
	}

	a := farthestFrom(c, 0)
	b := farthestFrom(c, a)
	if a == b {
		return Contour{c[a]}
	}

	keep := make([]bool, n)
	keep[a], keep[b] = true, true
	simplifyChain(c, a, b, epsilon, keep)
	simplifyChain(c, b, a, epsilon, keep)

	out := make(Contour, 0, n)
	for i, k := range keep {
		if k {
			out = append(out, c[i])
		}
	}
	return dropNearlyCollinear(out, epsilon)
}

// farthestFrom returns the index of the point farthest from c[from].
// The first one wins on ties.
func farthestFrom(c Contour, from int) int {
	best, bestDist := from, 0.0
	for i, p := range c {
		if d := p.Dist(c[from]); d > bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// simplifyChain marks the vertices to keep on the run of c going forward from
// index from to index to, wrapping around the end.
func simplifyChain(c Contour, from, to int, epsilon float64, keep []bool) {
	n := len(c)
	at := func(offset int) int { return (from + offset) % n }
	length := (to - from + n) % n

	type span struct{ start, end int }
	stack := []span{{0, length}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if s.end-s.start < 2 {
			continue
		}

		start, end := c[at(s.start)], c[at(s.end)]
		maxDist, maxIdx := -1.0, -1
		for k := s.start + 1; k < s.end; k++ {
			if d := segmentDistance(c[at(k)], start, end); d > maxDist {
				maxDist, maxIdx = d, k
			}
		}

		if maxDist > epsilon {
			keep[at(maxIdx)] = true
			stack = append(stack, span{s.start, maxIdx}, span{maxIdx, s.end})
		}
	}
}

// dropNearlyCollinear removes vertices within epsilon of the line through
// their neighbours until none remain or only a triangle is left.
func dropNearlyCollinear(poly Contour, epsilon float64) Contour {
	for changed := true; changed && len(poly) > 3; {
		changed = false
		for i := 0; i < len(poly) && len(poly) > 3; i++ {
			prev := poly[(i+len(poly)-1)%len(poly)]
			next := poly[(i+1)%len(poly)]
			if segmentDistance(poly[i], prev, next) <= epsilon {
				poly = append(poly[:i], poly[i+1:]...)
				changed = true
				i--
			}
		}
	}
	return poly
}

// segmentDistance returns the perpendicular distance from p to the line
// through a and b, or the distance to a when a and b coincide.
func segmentDistance(p, a, b Point) float64 {
	d := b.Sub(a)
	length := math.Hypot(d.X, d.Y)
	if length == 0 {
		return p.Dist(a)
	}
	v := p.Sub(a)
	return math.Abs(d.X*v.Y-d.Y*v.X) / length
}
