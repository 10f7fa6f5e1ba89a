package imaging

import (
	"image"
	"image/color"
	"strings"
	"testing"
)

func TestCropRegion(t *testing.T) {
	img := createPatternImage(100, 100)

	result, err := CropRegion(img, 0, 0, 50, 50)
	if err != nil {
		t.Fatalf("CropRegion failed: %v", err)
	}

	if result.Bounds().Dx() != 50 || result.Bounds().Dy() != 50 {
		t.Errorf("dimensions: got %dx%d, want 50x50", result.Bounds().Dx(), result.Bounds().Dy())
	}
}

func TestCropRegion_VerifyContent(t *testing.T) {
	img := createPatternImage(100, 100)

	tests := []struct {
		name           string
		x1, y1, x2, y2 int
		want           color.NRGBA
	}{
		{"top-left", 0, 0, 50, 50, color.NRGBA{255, 0, 0, 255}},
		{"top-right", 50, 0, 100, 50, color.NRGBA{0, 255, 0, 255}},
		{"bottom-left", 0, 50, 50, 100, color.NRGBA{0, 0, 255, 255}},
		{"bottom-right", 50, 50, 100, 100, color.NRGBA{255, 255, 255, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := CropRegion(img, tt.x1, tt.y1, tt.x2, tt.y2)
			if err != nil {
				t.Fatalf("CropRegion failed: %v", err)
			}
			b := result.Bounds()
			if got := result.NRGBAAt(b.Min.X+25, b.Min.Y+25); got != tt.want {
				t.Errorf("center pixel: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCropRegion_OutOfBounds(t *testing.T) {
	img := createInMemoryImage(100, 100, color.White)

	tests := []struct {
		name           string
		x1, y1, x2, y2 int
	}{
		{"negative x1", -1, 0, 50, 50},
		{"negative y1", 0, -1, 50, 50},
		{"x2 too large", 0, 0, 101, 50},
		{"y2 too large", 0, 0, 50, 101},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CropRegion(img, tt.x1, tt.y1, tt.x2, tt.y2)
			if err == nil {
				t.Fatal("CropRegion should fail for out-of-bounds region")
			}
			if !strings.Contains(err.Error(), "outside frame bounds") {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestCropRegion_InvalidRegion(t *testing.T) {
	img := createInMemoryImage(100, 100, color.White)

	tests := []struct {
		name           string
		x1, y1, x2, y2 int
	}{
		{"x1 equals x2", 50, 0, 50, 50},
		{"y1 equals y2", 0, 50, 50, 50},
		{"x1 greater than x2", 60, 0, 50, 50},
		{"y1 greater than y2", 0, 60, 50, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CropRegion(img, tt.x1, tt.y1, tt.x2, tt.y2)
			if err == nil {
				t.Fatal("CropRegion should fail for invalid region")
			}
			if !strings.Contains(err.Error(), "invalid crop region") {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestCropRegion_FullImage(t *testing.T) {
	img := createPatternImage(64, 48)

	result, err := CropRegion(img, 0, 0, 64, 48)
	if err != nil {
		t.Fatalf("CropRegion failed: %v", err)
	}
	if result.Bounds().Dx() != 64 || result.Bounds().Dy() != 48 {
		t.Errorf("dimensions: got %dx%d, want 64x48", result.Bounds().Dx(), result.Bounds().Dy())
	}
}

func TestCropRegion_OffsetFrame(t *testing.T) {
	// Coordinates are relative to the frame's own top-left corner
	frame := createPatternImage(100, 100).SubImage(image.Rect(50, 0, 100, 50))

	result, err := CropRegion(frame, 0, 0, 10, 10)
	if err != nil {
		t.Fatalf("CropRegion failed: %v", err)
	}
	b := result.Bounds()
	if got := result.NRGBAAt(b.Min.X+5, b.Min.Y+5); got != (color.NRGBA{0, 255, 0, 255}) {
		t.Errorf("pixel: got %v, want green", got)
	}
}
