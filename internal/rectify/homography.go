package rectify

import (
	"errors"
	"math"

	"github.com/ironsheep/docscan-mcp/internal/detection"
)

// ErrDegenerateTransform is returned when four point pairs do not define a
// usable perspective transform.
var ErrDegenerateTransform = errors.New("degenerate perspective transform")

// Relative tolerances for singularity tests.
const (
	pivotTolerance       = 1e-10
	determinantTolerance = 1e-12
)

// Homography is a 3x3 projective transform in row-major order with the last
// element fixed to 1 after solving.
type Homography [9]float64

// Apply maps a point through the transform. The second result is false when
// the point maps to infinity.
func (h Homography) Apply(p detection.Point) (detection.Point, bool) {
	w := h[6]*p.X + h[7]*p.Y + h[8]
	if w == 0 {
		return detection.Point{}, false
	}
	return detection.Point{
		X: (h[0]*p.X + h[1]*p.Y + h[2]) / w,
		Y: (h[3]*p.X + h[4]*p.Y + h[5]) / w,
	}, true
}

// Inverse returns the inverse transform, normalized so its last element is 1
// where possible.
func (h Homography) Inverse() (Homography, error) {
	det := h[0]*(h[4]*h[8]-h[5]*h[7]) -
		h[1]*(h[3]*h[8]-h[5]*h[6]) +
		h[2]*(h[3]*h[7]-h[4]*h[6])

	scale := 0.0
	for _, v := range h {
		scale = math.Max(scale, math.Abs(v))
	}
	if scale == 0 || math.Abs(det) <= determinantTolerance*scale*scale*scale {
		return Homography{}, ErrDegenerateTransform
	}

	inv := Homography{
		h[4]*h[8] - h[5]*h[7], h[2]*h[7] - h[1]*h[8], h[1]*h[5] - h[2]*h[4],
		h[5]*h[6] - h[3]*h[8], h[0]*h[8] - h[2]*h[6], h[2]*h[3] - h[0]*h[5],
		h[3]*h[7] - h[4]*h[6], h[1]*h[6] - h[0]*h[7], h[0]*h[4] - h[1]*h[3],
	}
	norm := det
	if inv[8] != 0 {
		norm = inv[8]
	}
	for i := range inv {
		inv[i] /= norm
	}
	return inv, nil
}

// PerspectiveTransform solves for the homography that maps each src point
// onto the dst point with the same index.
//
// The eight unknowns come from the linear system
//
//	h0*x + h1*y + h2 - h6*x*u - h7*y*u = u
//	h3*x + h4*y + h5 - h6*x*v - h7*y*v = v
//
// for each pair (x,y) -> (u,v), solved by Gaussian elimination with partial
// pivoting. A pivot below a relative tolerance, or a singular result, returns
// ErrDegenerateTransform.
func PerspectiveTransform(src, dst [4]detection.Point) (Homography, error) {
	var a [8][9]float64
	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y
		a[2*i] = [9]float64{x, y, 1, 0, 0, 0, -x * u, -y * u, u}
		a[2*i+1] = [9]float64{0, 0, 0, x, y, 1, -x * v, -y * v, v}
	}

	sol, err := solve(a)
	if err != nil {
		return Homography{}, err
	}

	h := Homography{sol[0], sol[1], sol[2], sol[3], sol[4], sol[5], sol[6], sol[7], 1}
	if _, err := h.Inverse(); err != nil {
		return Homography{}, err
	}
	return h, nil
}

// solve reduces an 8x8 augmented system in place and back-substitutes.
func solve(a [8][9]float64) ([8]float64, error) {
	var x [8]float64

	scale := 0.0
	for _, row := range a {
		for _, v := range row[:8] {
			scale = math.Max(scale, math.Abs(v))
		}
	}
	if scale == 0 {
		return x, ErrDegenerateTransform
	}
	tol := pivotTolerance * scale

	for col := 0; col < 8; col++ {
		pivot := col
		for r := col + 1; r < 8; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) <= tol {
			return x, ErrDegenerateTransform
		}
		a[col], a[pivot] = a[pivot], a[col]

		for r := col + 1; r < 8; r++ {
			f := a[r][col] / a[col][col]
			if f == 0 {
				continue
			}
			for c := col; c < 9; c++ {
				a[r][c] -= f * a[col][c]
			}
		}
	}

	for r := 7; r >= 0; r-- {
		sum := a[r][8]
		for c := r + 1; c < 8; c++ {
			sum -= a[r][c] * x[c]
		}
		x[r] = sum / a[r][r]
	}
	return x, nil
}
