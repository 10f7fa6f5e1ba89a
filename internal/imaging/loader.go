package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ErrEmptyFrame is returned when a frame has zero width or height.
var ErrEmptyFrame = errors.New("frame has no pixels")

// LoadFrame reads and decodes a captured photo from disk.
//
// Supported formats are PNG, JPEG, GIF, BMP, TIFF and WebP. EXIF orientation
// is applied so the returned frame is upright.
//
// # Errors
//
//   - Returns error if the file does not exist or cannot be read
//   - Returns error if the file is not a supported image
//   - Returns ErrEmptyFrame if the decoded image has no pixels
func LoadFrame(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open frame: %w", err)
	}
	if err := CheckFrame(img); err != nil {
		return nil, err
	}
	return img, nil
}

// DecodeFrame decodes an in-memory image, typically bytes previously stored
// for a document.
func DecodeFrame(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}
	if err := CheckFrame(img); err != nil {
		return nil, err
	}
	return img, nil
}

// CheckFrame reports ErrEmptyFrame for nil or zero-area images.
func CheckFrame(img image.Image) error {
	if img == nil {
		return ErrEmptyFrame
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrEmptyFrame, b.Dx(), b.Dy())
	}
	return nil
}

// FrameInfo contains metadata about a captured frame file.
type FrameInfo struct {
	// Width is the upright frame width in pixels.
	Width int `json:"width"`

	// Height is the upright frame height in pixels.
	Height int `json:"height"`

	// Format is the detected image format from the file extension,
	// or "unknown".
	Format string `json:"format"`

	// FileSizeBytes is the size of the file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadFrameWithInfo loads a frame together with its dimensions, format and
// file size.
func LoadFrameWithInfo(path string) (image.Image, *FrameInfo, error) {
	img, err := LoadFrame(path)
	if err != nil {
		return nil, nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to stat file: %w", err)
	}

	format := "unknown"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		format = "png"
	case ".jpg", ".jpeg":
		format = "jpeg"
	case ".gif":
		format = "gif"
	case ".bmp":
		format = "bmp"
	case ".tif", ".tiff":
		format = "tiff"
	case ".webp":
		format = "webp"
	}

	bounds := img.Bounds()
	return img, &FrameInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		FileSizeBytes: stat.Size(),
	}, nil
}
