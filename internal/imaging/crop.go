package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// CropRegion extracts a rectangular region from a frame.
//
// This is the manual-crop path: the user picks the document rectangle when
// automatic detection did not. Coordinates are relative to the frame's
// top-left corner, (x1,y1) inclusive and (x2,y2) exclusive.
func CropRegion(img image.Image, x1, y1, x2, y2 int) (*image.NRGBA, error) {
	if err := CheckFrame(img); err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	// Validate coordinates
	if x1 < 0 || y1 < 0 || x2 > w || y2 > h {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside frame bounds (0,0)-(%d,%d)",
			x1, y1, x2, y2, w, h)
	}
	if x1 >= x2 || y1 >= y2 {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}

	rect := image.Rect(x1, y1, x2, y2).Add(bounds.Min)
	return imaging.Crop(img, rect), nil
}
