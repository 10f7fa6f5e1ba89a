package detection

// OrderCorners assigns four points to the top-left, top-right, bottom-right
// and bottom-left roles.
//
// With sum = x+y and diff = y-x:
//   - top-left has the smallest sum
//   - bottom-right has the largest sum
//   - top-right has the smallest diff
//   - bottom-left has the largest diff
//
// On equal values the first point in input order is chosen. For
// near-degenerate shapes, such as a square rotated by 45 degrees, this can
// give one point two roles.
func OrderCorners(pts [4]Point) CornerSet {
	tl, br, tr, bl := 0, 0, 0, 0
	for i := 1; i < 4; i++ {
		p := pts[i]
		sum, diff := p.X+p.Y, p.Y-p.X

		if sum < pts[tl].X+pts[tl].Y {
			tl = i
		}
		if sum > pts[br].X+pts[br].Y {
			br = i
		}
		if diff < pts[tr].Y-pts[tr].X {
			tr = i
		}
		if diff > pts[bl].Y-pts[bl].X {
			bl = i
		}
	}

	return CornerSet{
		TopLeft:     pts[tl],
		TopRight:    pts[tr],
		BottomRight: pts[br],
		BottomLeft:  pts[bl],
	}
}
