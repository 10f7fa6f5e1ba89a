package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/convolution"
	"github.com/disintegration/imaging"
)

// Canny parameters. These are tuned for photographed paper documents and are
// deliberately not configurable.
const (
	// CannyLowThreshold is the gradient magnitude a weak edge must exceed.
	CannyLowThreshold = 75

	// CannyHighThreshold is the gradient magnitude a strong edge must exceed.
	CannyHighThreshold = 200

	// GaussianKernelSize is the side of the smoothing kernel.
	GaussianKernelSize = 5

	// SobelAperture is the side of the gradient operator.
	SobelAperture = 3
)

// Edge pixel values in the binary map returned by DetectEdges.
const (
	EdgeOff uint8 = 0
	EdgeOn  uint8 = 255
)

// tan(22.5°) and tan(67.5°) scaled by 1000 for integer sector tests.
const (
	tan22x1000 = 414
	tan67x1000 = 2414
)

// DetectEdges performs Canny edge detection on a frame.
//
// The output is a single-channel image with the same width and height as the
// input, anchored at (0,0), where EdgeOn marks boundary pixels and every other
// pixel is EdgeOff.
//
// # Algorithm
//
//  1. Grayscale conversion with BT.601 luma (see ToGray)
//
//  2. Gaussian blur: 5x5 binomial kernel (1 4 6 4 1) x (1 4 6 4 1) / 256,
//     border pixels replicated
//
//  3. Gradient computation: 3x3 Sobel operators, magnitude = |Gx| + |Gy|
//
//  4. Non-maximum suppression: keep only local maxima along the gradient,
//     quantised to 0°, 45°, 90° and 135°
//
//  5. Hysteresis: pixels above CannyHighThreshold seed edges, pixels above
//     CannyLowThreshold are kept when 8-connected to a seed
//
// The function has no side effects and is deterministic for identical input.
func DetectEdges(img image.Image) (*image.Gray, error) {
	if err := CheckFrame(img); err != nil {
		return nil, err
	}

	blurred := gaussianBlur(ToGray(img))
	width := blurred.Bounds().Dx()
	height := blurred.Bounds().Dy()

	gx, gy, magnitude := sobel(blurred, width, height)
	suppressed := nonMaxSuppression(gx, gy, magnitude, width, height)
	return hysteresis(suppressed, width, height), nil
}

// gaussianBlur smooths a grayscale image with the fixed 5x5 binomial kernel.
//
// The kernel is what a 5x5 Gaussian with automatic sigma resolves to:
//
//	1  4  6  4  1
//	4 16 24 16  4
//	6 24 36 24  6
//	4 16 24 16  4
//	1  4  6  4  1
//
// Total kernel sum = 256. All weights are exact binary fractions after
// normalization, so flat regions stay exactly flat.
//
// Pixels outside the frame replicate the nearest edge pixel. Rows are
// convolved in parallel, but each output pixel depends only on the input,
// so the result is the same on every run.
func gaussianBlur(gray *image.Gray) *image.Gray {
	weights := [GaussianKernelSize]float64{1, 4, 6, 4, 1}

	k := convolution.NewKernel(GaussianKernelSize, GaussianKernelSize)
	for y := 0; y < GaussianKernelSize; y++ {
		for x := 0; x < GaussianKernelSize; x++ {
			k.Matrix[y*GaussianKernelSize+x] = weights[y] * weights[x]
		}
	}

	rgba := convolution.Convolve(gray, k.Normalized(), &convolution.Options{Bias: 0, Wrap: false, KeepAlpha: false})

	bounds := rgba.Bounds()
	result := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		src := rgba.Pix[y*rgba.Stride:]
		dst := result.Pix[y*result.Stride:]
		for x := 0; x < bounds.Dx(); x++ {
			dst[x] = src[x*4]
		}
	}
	return result
}

// sobel computes 3x3 Sobel gradients with replicated borders.
// Returned slices are row-major, width*height long.
func sobel(gray *image.Gray, width, height int) (gx, gy, magnitude []int) {
	n := width * height
	gx = make([]int, n)
	gy = make([]int, n)
	magnitude = make([]int, n)

	at := func(x, y int) int {
		return int(gray.Pix[clamp(y, 0, height-1)*gray.Stride+clamp(x, 0, width-1)])
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dx := (at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1)) -
				(at(x-1, y-1) + 2*at(x-1, y) + at(x-1, y+1))
			dy := (at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)) -
				(at(x-1, y-1) + 2*at(x, y-1) + at(x+1, y-1))

			i := y*width + x
			gx[i] = dx
			gy[i] = dy
			magnitude[i] = abs(dx) + abs(dy)
		}
	}
	return gx, gy, magnitude
}

// nonMaxSuppression thins gradient ridges to single-pixel width.
//
// A pixel survives if its magnitude is strictly greater than the neighbour
// behind it along the gradient and at least as large as the neighbour ahead.
// The asymmetric comparison keeps exactly one pixel of a plateau pair.
// Border pixels are never kept.
func nonMaxSuppression(gx, gy, magnitude []int, width, height int) []int {
	suppressed := make([]int, width*height)

	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			m := magnitude[i]
			if m <= CannyLowThreshold {
				continue
			}

			ax := abs(gx[i])
			ay := abs(gy[i]) * 1000

			var before, after int
			switch {
			case ay <= ax*tan22x1000:
				// Mostly horizontal gradient: compare left and right
				before, after = magnitude[i-1], magnitude[i+1]
			case ay > ax*tan67x1000:
				// Mostly vertical gradient: compare up and down
				before, after = magnitude[i-width], magnitude[i+width]
			case (gx[i] < 0) == (gy[i] < 0):
				// Gradient along the main diagonal
				before, after = magnitude[i-width-1], magnitude[i+width+1]
			default:
				// Gradient along the anti-diagonal
				before, after = magnitude[i-width+1], magnitude[i+width-1]
			}

			if m > before && m >= after {
				suppressed[i] = m
			}
		}
	}
	return suppressed
}

// hysteresis keeps strong pixels and every weak pixel 8-connected to one.
//
// Uses an explicit stack rather than recursion so long edges cannot overflow
// the goroutine stack.
func hysteresis(suppressed []int, width, height int) *image.Gray {
	result := image.NewGray(image.Rect(0, 0, width, height))
	stack := make([]int, 0, 1024)

	for i, m := range suppressed {
		if m > CannyHighThreshold && result.Pix[i] == EdgeOff {
			result.Pix[i] = EdgeOn
			stack = append(stack, i)
		}

		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			px, py := p%width, p/width

			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := px+dx, py+dy
					if nx < 0 || nx >= width || ny < 0 || ny >= height {
						continue
					}
					j := ny*width + nx
					if result.Pix[j] == EdgeOff && suppressed[j] > CannyLowThreshold {
						result.Pix[j] = EdgeOn
						stack = append(stack, j)
					}
				}
			}
		}
	}
	return result
}

// EdgeMapResult contains an edge map encoded as base64 PNG.
//
// The image is grayscale with edges marked in white (255).
type EdgeMapResult struct {
	// Width of the edge map in pixels (same as input).
	Width int `json:"width"`

	// Height of the edge map in pixels (same as input).
	Height int `json:"height"`

	// EdgePixels is the number of pixels marked as edges.
	EdgePixels int `json:"edge_pixels"`

	// ImageBase64 is the edge map encoded as base64 PNG.
	ImageBase64 string `json:"image_base64"`

	// MimeType is always "image/png".
	MimeType string `json:"mime_type"`
}

// EdgeMap runs DetectEdges and packages the result for inspection.
//
// This is the same edge map the document detector sees, which makes it the
// first thing to look at when a photo falls back to the unrectified image.
func EdgeMap(img image.Image) (*EdgeMapResult, error) {
	edges, err := DetectEdges(img)
	if err != nil {
		return nil, err
	}

	count := 0
	for _, v := range edges.Pix {
		if v == EdgeOn {
			count++
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, edges, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode edge image: %w", err)
	}

	return &EdgeMapResult{
		Width:       edges.Bounds().Dx(),
		Height:      edges.Bounds().Dy(),
		EdgePixels:  count,
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
