package imaging

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ParseHexColor parses a "#RRGGBB" string into an opaque color.
//
// It is used for the background that fills rectified pixels whose source
// sample falls outside the captured frame.
func ParseHexColor(hex string) (color.NRGBA, error) {
	hex = strings.TrimSpace(hex)
	if hex == "" {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] != '#' {
		hex = "#" + hex
	}

	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

// ToGray converts a frame to 8-bit luma.
//
// Uses ITU-R BT.601 weights (0.299*R + 0.587*G + 0.114*B) in 14-bit fixed
// point with rounding, so identical frames always produce identical output.
func ToGray(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	for y := 0; y < bounds.Dy(); y++ {
		row := gray.Pix[y*gray.Stride:]
		for x := 0; x < bounds.Dx(); x++ {
			row[x] = luma(img.At(x+bounds.Min.X, y+bounds.Min.Y))
		}
	}
	return gray
}

func luma(c color.Color) uint8 {
	r, g, b, _ := c.RGBA()
	y := (r>>8)*4899 + (g>>8)*9617 + (b>>8)*1868 + 1<<13
	return uint8(y >> 14)
}
