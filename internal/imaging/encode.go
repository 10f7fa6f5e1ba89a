package imaging

import (
	"bytes"
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"
)

// Default output footprint. Larger frames are scaled down to fit.
const (
	DefaultMaxWidth  = 1280
	DefaultMaxHeight = 960
)

// Profile selects how a document image is encoded.
type Profile struct {
	// Quality is the JPEG quality, 1-100.
	Quality int `json:"quality"`

	// Binarize converts the image to pure black and white with an
	// automatically selected threshold before encoding.
	Binarize bool `json:"binarize"`
}

// Encoder produces the stored bytes for a document image.
//
// Every image is capped to MaxWidth x MaxHeight first. The cap only ever
// scales down and always preserves the aspect ratio.
type Encoder struct {
	MaxWidth  int
	MaxHeight int
}

// NewEncoder creates an encoder with the given footprint. Non-positive
// dimensions fall back to DefaultMaxWidth x DefaultMaxHeight.
func NewEncoder(maxWidth, maxHeight int) *Encoder {
	if maxWidth <= 0 {
		maxWidth = DefaultMaxWidth
	}
	if maxHeight <= 0 {
		maxHeight = DefaultMaxHeight
	}
	return &Encoder{MaxWidth: maxWidth, MaxHeight: maxHeight}
}

// Fit caps a frame to the encoder's footprint.
//
// Frames that already fit are returned as an unscaled copy.
func (e *Encoder) Fit(img image.Image) *image.NRGBA {
	return imaging.Fit(img, e.MaxWidth, e.MaxHeight, imaging.Linear)
}

// Encode caps, optionally binarizes, and JPEG-encodes a rectified document.
func (e *Encoder) Encode(img image.Image, p Profile) ([]byte, error) {
	if err := CheckFrame(img); err != nil {
		return nil, err
	}

	var out image.Image = e.Fit(img)
	if p.Binarize {
		out = Binarize(out)
	}
	return encodeJPEG(out, p.Quality)
}

// EncodeOriginal caps and JPEG-encodes an unrectified frame.
//
// Used for fallback, error and manual-crop results. The profile's Binarize
// flag is ignored.
func (e *Encoder) EncodeOriginal(img image.Image, p Profile) ([]byte, error) {
	if err := CheckFrame(img); err != nil {
		return nil, err
	}
	return encodeJPEG(e.Fit(img), p.Quality)
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	quality = clamp(quality, 1, 100)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode document image: %w", err)
	}
	return buf.Bytes(), nil
}

// Binarize converts a frame to black and white using Otsu's threshold.
//
// Pixels whose luma is strictly greater than the threshold become white (255),
// the rest black (0).
func Binarize(img image.Image) *image.Gray {
	gray := ToGray(img)
	t := OtsuThreshold(gray)
	if t == 255 {
		return image.NewGray(gray.Bounds())
	}
	return segment.Threshold(gray, t+1)
}

// OtsuThreshold selects the global threshold that maximizes the
// between-class variance of the luma histogram.
//
// Returns 0 for images with a single intensity.
func OtsuThreshold(gray *image.Gray) uint8 {
	var hist [256]int
	bounds := gray.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := gray.Pix[(y-bounds.Min.Y)*gray.Stride:]
		for x := 0; x < bounds.Dx(); x++ {
			hist[row[x]]++
		}
	}

	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return 0
	}

	var sum float64
	for i, n := range hist {
		sum += float64(i * n)
	}

	var (
		sumB      float64
		weightB   int
		maxVar    float64
		threshold int
	)
	for t := 0; t < 256; t++ {
		weightB += hist[t]
		if weightB == 0 {
			continue
		}
		weightF := total - weightB
		if weightF == 0 {
			break
		}

		sumB += float64(t * hist[t])
		meanB := sumB / float64(weightB)
		meanF := (sum - sumB) / float64(weightF)

		between := float64(weightB) * float64(weightF) * (meanB - meanF) * (meanB - meanF)
		if between > maxVar {
			maxVar = between
			threshold = t
		}
	}
	return uint8(threshold)
}
