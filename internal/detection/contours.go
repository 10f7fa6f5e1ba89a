package detection

import (
	"image"
)

// Neighbour offsets in clockwise order (y grows downward), starting east.
var neighbours = [8]image.Point{
	{1, 0},   // E
	{1, 1},   // SE
	{0, 1},   // S
	{-1, 1},  // SW
	{-1, 0},  // W
	{-1, -1}, // NW
	{0, -1},  // N
	{1, -1},  // NE
}

// direction returns the index into neighbours for a unit step.
func direction(dx, dy int) int {
	for i, n := range neighbours {
		if n.X == dx && n.Y == dy {
			return i
		}
	}
	return -1
}

// border records what the tracer knows about each numbered border.
type border struct {
	outer  bool
	parent int32
}

// TraceExternalContours returns the outermost closed borders of the nonzero
// pixels in a binary image.
//
// Borders are found with Suzuki-Abe border following, in raster order of
// their first pixel. A border is kept only when it is an outer border whose
// parent is the image frame, so holes and everything nested inside another
// shape are dropped. Horizontal, vertical and diagonal runs are compressed to
// their end points.
//
// Point coordinates are relative to the image bounds' minimum.
func TraceExternalContours(edges *image.Gray) []Contour {
	bounds := edges.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil
	}

	// Pad by one pixel so the frame is always background.
	pw, ph := w+2, h+2
	grid := make([]int32, pw*ph)
	for y := 0; y < h; y++ {
		row := edges.Pix[edges.PixOffset(bounds.Min.X, bounds.Min.Y+y):]
		for x := 0; x < w; x++ {
			if row[x] != 0 {
				grid[(y+1)*pw+x+1] = 1
			}
		}
	}

	// Border 1 is the frame, which counts as a hole.
	borders := []border{{}, {outer: false}}
	nbd := int32(1)

	var contours []Contour
	for y := 1; y < ph-1; y++ {
		lnbd := int32(1)
		for x := 1; x < pw-1; x++ {
			i := y*pw + x
			f := grid[i]
			if f == 0 {
				continue
			}

			var outer bool
			var from image.Point
			switch {
			case f == 1 && grid[i-1] == 0:
				outer = true
				from = image.Point{x - 1, y}
			case f >= 1 && grid[i+1] == 0:
				outer = false
				from = image.Point{x + 1, y}
				if f > 1 {
					lnbd = f
				}
			default:
				if f != 1 {
					lnbd = abs32(f)
				}
				continue
			}

			nbd++
			parent := lnbd
			if prev := borders[lnbd]; prev.outer == outer {
				parent = prev.parent
			}
			borders = append(borders, border{outer: outer, parent: parent})

			pts := followBorder(grid, pw, image.Point{x, y}, from, nbd)
			if outer && parent == 1 {
				contours = append(contours, toContour(compressChain(pts), bounds.Min))
			}

			if f := grid[i]; f != 1 {
				lnbd = abs32(f)
			}
		}
	}
	return contours
}

// followBorder traces one border starting at p0, whose background neighbour
// is from, labelling visited pixels with nbd. It returns the border pixels in
// trace order in padded coordinates.
func followBorder(grid []int32, pw int, p0, from image.Point, nbd int32) []image.Point {
	at := func(p image.Point) int32 { return grid[p.Y*pw+p.X] }

	// Search clockwise for the first nonzero neighbour.
	start := direction(from.X-p0.X, from.Y-p0.Y)
	found := -1
	for k := 0; k < 8; k++ {
		d := (start + k) % 8
		if at(p0.Add(neighbours[d])) != 0 {
			found = d
			break
		}
	}
	if found < 0 {
		// Isolated pixel
		grid[p0.Y*pw+p0.X] = -nbd
		return []image.Point{p0}
	}

	p1 := p0.Add(neighbours[found])
	p2, p3 := p1, p0

	var pts []image.Point
	for {
		// Search counterclockwise, starting just past p2.
		d2 := direction(p2.X-p3.X, p2.Y-p3.Y)
		eastExamined := false
		d4 := d2
		for k := 1; k <= 8; k++ {
			d := (d2 - k + 8) % 8
			if at(p3.Add(neighbours[d])) != 0 {
				d4 = d
				break
			}
			if d == 0 {
				eastExamined = true
			}
		}

		i3 := p3.Y*pw + p3.X
		if eastExamined {
			grid[i3] = -nbd
		} else if grid[i3] == 1 {
			grid[i3] = nbd
		}
		pts = append(pts, p3)

		p4 := p3.Add(neighbours[d4])
		if p4 == p0 && p3 == p1 {
			break
		}
		p2, p3 = p3, p4
	}
	return pts
}

// compressChain drops every point whose incoming and outgoing steps share a
// direction, leaving only the ends of straight runs.
func compressChain(pts []image.Point) []image.Point {
	n := len(pts)
	if n < 3 {
		return pts
	}

	out := make([]image.Point, 0, n)
	for i, p := range pts {
		prev := pts[(i+n-1)%n]
		next := pts[(i+1)%n]
		in := direction(p.X-prev.X, p.Y-prev.Y)
		step := direction(next.X-p.X, next.Y-p.Y)
		if in != step {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return pts[:1]
	}
	return out
}

// toContour converts padded grid coordinates back to image coordinates.
func toContour(pts []image.Point, origin image.Point) Contour {
	c := make(Contour, len(pts))
	for i, p := range pts {
		c[i] = Point{
			X: float64(p.X - 1 + origin.X),
			Y: float64(p.Y - 1 + origin.Y),
		}
	}
	return c
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
