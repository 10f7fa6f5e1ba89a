package capture

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func createFrame(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 4), uint8(y * 4), 100, 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode PNG: %v", err)
	}
	return buf.Bytes()
}

func TestFileDevice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photo.png")
	if err := os.WriteFile(path, encodePNG(t, createFrame(40, 30)), 0o644); err != nil {
		t.Fatalf("failed to write photo: %v", err)
	}

	frame, err := ReadFrame(context.Background(), FileDevice{Path: path})
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if frame.Bounds().Dx() != 40 || frame.Bounds().Dy() != 30 {
		t.Errorf("dimensions: got %dx%d, want 40x30", frame.Bounds().Dx(), frame.Bounds().Dy())
	}
}

func TestFileDevice_Errors(t *testing.T) {
	garbage := filepath.Join(t.TempDir(), "garbage.png")
	if err := os.WriteFile(garbage, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"empty path", ""},
		{"missing file", filepath.Join(t.TempDir(), "missing.jpg")},
		{"not an image", garbage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FileDevice{Path: tt.path}.Open(context.Background())
			if !errors.Is(err, ErrCaptureDevice) {
				t.Errorf("got %v, want ErrCaptureDevice", err)
			}
		})
	}
}

func TestBytesDevice(t *testing.T) {
	data := encodePNG(t, createFrame(25, 15))

	frame, err := ReadFrame(context.Background(), BytesDevice{Data: data})
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if frame.Bounds().Dx() != 25 || frame.Bounds().Dy() != 15 {
		t.Errorf("dimensions: got %dx%d, want 25x15", frame.Bounds().Dx(), frame.Bounds().Dy())
	}

	for _, bad := range [][]byte{nil, []byte("junk")} {
		if _, err := (BytesDevice{Data: bad}).Open(context.Background()); !errors.Is(err, ErrCaptureDevice) {
			t.Errorf("Open(%q): got %v, want ErrCaptureDevice", bad, err)
		}
	}
}

func TestImageDevice(t *testing.T) {
	img := createFrame(10, 10)

	frame, err := ReadFrame(context.Background(), ImageDevice{Image: img})
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if frame != image.Image(img) {
		t.Error("ImageDevice should serve the image it was given")
	}

	if _, err := (ImageDevice{}).Open(context.Background()); !errors.Is(err, ErrCaptureDevice) {
		t.Errorf("nil image: got %v, want ErrCaptureDevice", err)
	}
}

func TestStream_Close(t *testing.T) {
	stream, err := ImageDevice{Image: createFrame(10, 10)}.Open(context.Background())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if _, err := stream.Frame(context.Background()); err != nil {
		t.Fatalf("Frame failed: %v", err)
	}

	if err := stream.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := stream.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}

	_, err = stream.Frame(context.Background())
	if !errors.Is(err, ErrStreamClosed) || !errors.Is(err, ErrCaptureDevice) {
		t.Errorf("Frame after Close: got %v, want ErrStreamClosed wrapped in ErrCaptureDevice", err)
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := (ImageDevice{Image: createFrame(5, 5)}).Open(ctx); !errors.Is(err, ErrCaptureDevice) {
		t.Errorf("Open: got %v, want ErrCaptureDevice", err)
	}

	stream, err := ImageDevice{Image: createFrame(5, 5)}.Open(context.Background())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer stream.Close()

	if _, err := stream.Frame(ctx); !errors.Is(err, ErrCaptureDevice) {
		t.Errorf("Frame: got %v, want ErrCaptureDevice", err)
	}
}

// countingDevice records how often its stream was closed.
type countingDevice struct {
	closes int
	fail   bool
}

type countingStream struct {
	dev *countingDevice
}

func (d *countingDevice) Open(ctx context.Context) (Stream, error) {
	return countingStream{dev: d}, nil
}

func (s countingStream) Frame(ctx context.Context) (image.Image, error) {
	if s.dev.fail {
		return nil, ErrCaptureDevice
	}
	return createFrame(4, 4), nil
}

func (s countingStream) Close() error {
	s.dev.closes++
	return nil
}

func TestReadFrame_ClosesStream(t *testing.T) {
	for _, fail := range []bool{false, true} {
		dev := &countingDevice{fail: fail}
		_, err := ReadFrame(context.Background(), dev)
		if (err != nil) != fail {
			t.Errorf("fail=%v: unexpected error %v", fail, err)
		}
		if dev.closes != 1 {
			t.Errorf("fail=%v: stream closed %d times, want 1", fail, dev.closes)
		}
	}
}
