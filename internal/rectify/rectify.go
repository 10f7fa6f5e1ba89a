package rectify

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/ironsheep/docscan-mcp/internal/detection"
)

// edgeTolerance absorbs floating point error for samples that land exactly
// on the photo's border.
const edgeTolerance = 1e-6

// Dimensions returns the unrounded output width and height for a corner set:
// the longer horizontal edge and the longer vertical edge.
func Dimensions(cs detection.CornerSet) (width, height float64) {
	width = math.Max(cs.BottomRight.Dist(cs.BottomLeft), cs.TopRight.Dist(cs.TopLeft))
	height = math.Max(cs.TopRight.Dist(cs.BottomRight), cs.TopLeft.Dist(cs.BottomLeft))
	return width, height
}

// OutputSize returns the rectified image size in pixels for a corner set,
// never smaller than 1x1.
func OutputSize(cs detection.CornerSet) (width, height int) {
	w, h := Dimensions(cs)
	return max(1, int(math.Round(w))), max(1, int(math.Round(h)))
}

// Rectify warps the quadrilateral described by cs into an axis-aligned image.
//
// The source frame is not modified. Output pixels whose source position falls
// outside the frame are set to fill.
func Rectify(img image.Image, cs detection.CornerSet, fill color.Color) (*image.NRGBA, error) {
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("failed to rectify: frame is %dx%d", bounds.Dx(), bounds.Dy())
	}

	w, h := Dimensions(cs)
	dst := [4]detection.Point{
		{X: 0, Y: 0},
		{X: w - 1, Y: 0},
		{X: w - 1, Y: h - 1},
		{X: 0, Y: h - 1},
	}

	forward, err := PerspectiveTransform(cs.Points(), dst)
	if err != nil {
		return nil, fmt.Errorf("failed to compute perspective transform: %w", err)
	}
	inverse, err := forward.Inverse()
	if err != nil {
		return nil, fmt.Errorf("failed to invert perspective transform: %w", err)
	}

	outW, outH := OutputSize(cs)
	return warp(imaging.Clone(img), inverse, outW, outH, fill), nil
}

// warp samples src through inv for every pixel of a width x height output.
func warp(src *image.NRGBA, inv Homography, width, height int, fill color.Color) *image.NRGBA {
	fc := color.NRGBAModel.Convert(fill).(color.NRGBA)
	fillPix := [4]uint8{fc.R, fc.G, fc.B, fc.A}

	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		row := dst.Pix[y*dst.Stride:]
		for x := 0; x < width; x++ {
			px := row[x*4 : x*4+4]
			p, ok := inv.Apply(detection.Point{X: float64(x), Y: float64(y)})
			if !ok || !sampleBilinear(src, p.X, p.Y, px) {
				copy(px, fillPix[:])
			}
		}
	}
	return dst
}

// sampleBilinear writes the interpolated color at (sx,sy) into out. It
// reports false when the position lies outside the image.
func sampleBilinear(src *image.NRGBA, sx, sy float64, out []uint8) bool {
	maxX := float64(src.Rect.Dx() - 1)
	maxY := float64(src.Rect.Dy() - 1)
	if math.IsNaN(sx) || math.IsNaN(sy) ||
		sx < -edgeTolerance || sy < -edgeTolerance ||
		sx > maxX+edgeTolerance || sy > maxY+edgeTolerance {
		return false
	}
	sx = math.Min(math.Max(sx, 0), maxX)
	sy = math.Min(math.Max(sy, 0), maxY)

	x0, y0 := int(sx), int(sy)
	x1, y1 := min(x0+1, src.Rect.Dx()-1), min(y0+1, src.Rect.Dy()-1)
	fx, fy := sx-float64(x0), sy-float64(y0)

	p00 := src.Pix[y0*src.Stride+x0*4:]
	p10 := src.Pix[y0*src.Stride+x1*4:]
	p01 := src.Pix[y1*src.Stride+x0*4:]
	p11 := src.Pix[y1*src.Stride+x1*4:]

	for c := 0; c < 4; c++ {
		top := float64(p00[c])*(1-fx) + float64(p10[c])*fx
		bottom := float64(p01[c])*(1-fx) + float64(p11[c])*fx
		out[c] = uint8(top*(1-fy) + bottom*fy + 0.5)
	}
	return true
}
