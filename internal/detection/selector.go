package detection

import "image"

// Contour selection parameters. These are tuned heuristics, not options.
const (
	// MinContourArea is the smallest enclosed area, in square pixels, a
	// contour needs to be considered. The bound is inclusive.
	MinContourArea = 1000.0

	// ApproxEpsilonRatio is the polygon approximation tolerance as a
	// fraction of the contour's perimeter.
	ApproxEpsilonRatio = 0.02
)

// FindDocument traces the external contours of an edge map and selects the
// document candidate among them.
//
// Returns false when no contour qualifies. This is an expected outcome and
// the caller should fall back to the unrectified frame.
func FindDocument(edges *image.Gray) (Candidate, bool) {
	return SelectCandidate(TraceExternalContours(edges))
}

// SelectCandidate picks the best four-vertex approximation from a list of
// contours.
//
// A contour qualifies when its area is at least MinContourArea and its
// polygon approximation, at ApproxEpsilonRatio of its perimeter, has exactly
// four vertices. Among qualifying contours the one with the largest area
// wins. On equal areas the earliest contour in the list is kept.
func SelectCandidate(contours []Contour) (Candidate, bool) {
	var best Candidate
	found := false

	for _, c := range contours {
		area := c.Area()
		if area < MinContourArea {
			continue
		}

		approx := ApproxPolygon(c, ApproxEpsilonRatio*c.ArcLength())
		if len(approx) != 4 {
			continue
		}

		if !found || area > best.Area {
			best = Candidate{
				Corners: [4]Point{approx[0], approx[1], approx[2], approx[3]},
				Area:    area,
			}
			found = true
		}
	}
	return best, found
}
