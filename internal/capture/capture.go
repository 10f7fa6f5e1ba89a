// Package capture provides frame sources for the scan pipeline.
//
// A Device is opened into a Stream, the Stream yields frames, and the caller
// closes the Stream when it is done. Closing releases whatever the device
// holds; callers close on every exit path, usually with defer.
//
// Two devices are provided: FileDevice reads a photo from disk and
// BytesDevice replays a previously stored image for a re-scan.
package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/ironsheep/docscan-mcp/internal/imaging"
)

// ErrCaptureDevice wraps every failure to open a device or read a frame.
var ErrCaptureDevice = errors.New("capture device failed")

// ErrStreamClosed is returned by Frame after Close.
var ErrStreamClosed = errors.New("stream is closed")

// Device is a source of frames that must be opened before use.
type Device interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream yields frames from an open device.
type Stream interface {
	// Frame returns the next frame.
	Frame(ctx context.Context) (image.Image, error)

	// Close releases the stream. Calling Close more than once is allowed.
	Close() error
}

// FileDevice reads a captured photo from disk.
type FileDevice struct {
	Path string
}

// Open checks that the photo can be decoded and returns a stream over it.
func (d FileDevice) Open(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureDevice, err)
	}
	if d.Path == "" {
		return nil, fmt.Errorf("%w: no path given", ErrCaptureDevice)
	}

	img, err := imaging.LoadFrame(d.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureDevice, err)
	}
	return newStream(img), nil
}

// BytesDevice replays an encoded image.
type BytesDevice struct {
	Data []byte
}

// Open decodes the image and returns a stream over it.
func (d BytesDevice) Open(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureDevice, err)
	}
	if len(d.Data) == 0 {
		return nil, fmt.Errorf("%w: no image data", ErrCaptureDevice)
	}

	img, err := imaging.DecodeFrame(d.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureDevice, err)
	}
	return newStream(img), nil
}

// ImageDevice serves a frame that is already decoded.
type ImageDevice struct {
	Image image.Image
}

// Open returns a stream over the image.
func (d ImageDevice) Open(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureDevice, err)
	}
	if err := imaging.CheckFrame(d.Image); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureDevice, err)
	}
	return newStream(d.Image), nil
}

// stillStream returns the same frame on every read until closed.
type stillStream struct {
	mu     sync.Mutex
	frame  image.Image
	closed bool
}

func newStream(img image.Image) *stillStream {
	return &stillStream{frame: img}
}

func (s *stillStream) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureDevice, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("%w: %w", ErrCaptureDevice, ErrStreamClosed)
	}
	return s.frame, nil
}

func (s *stillStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.frame = nil
	return nil
}

// ReadFrame opens a device, reads one frame and closes the stream.
func ReadFrame(ctx context.Context, dev Device) (image.Image, error) {
	stream, err := dev.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	return stream.Frame(ctx)
}
