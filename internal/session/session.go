// Package session tracks the single capture or crop a client is working on.
//
// A Session holds at most one activity at a time. Starting a capture opens a
// device stream that stays open until a photo is taken or the capture is
// closed. Opening a crop decodes the stored image for a document so the
// client can pick the rectangle by hand.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"sync"

	"github.com/ironsheep/docscan-mcp/internal/capture"
	"github.com/ironsheep/docscan-mcp/internal/imaging"
	"github.com/ironsheep/docscan-mcp/internal/pipeline"
	"github.com/ironsheep/docscan-mcp/internal/store"
)

var (
	// ErrSessionBusy is returned when an activity is already in progress.
	ErrSessionBusy = errors.New("another capture or crop is in progress")

	// ErrNoActiveCapture is returned by TakePhoto without a capture.
	ErrNoActiveCapture = errors.New("no capture in progress")

	// ErrNoActiveCrop is returned by ConfirmCrop without a crop.
	ErrNoActiveCrop = errors.New("no crop in progress")

	// ErrNotScanned is returned when cropping or re-scanning a document that
	// has no stored image.
	ErrNotScanned = errors.New("document has not been scanned")
)

// activity is either a *captureActivity or a *cropActivity.
type activity interface {
	document() string
	release() error
}

type captureActivity struct {
	doc    string
	stream capture.Stream
}

func (a *captureActivity) document() string { return a.doc }
func (a *captureActivity) release() error   { return a.stream.Close() }

type cropActivity struct {
	doc    string
	source image.Image
}

func (a *cropActivity) document() string { return a.doc }
func (a *cropActivity) release() error   { return nil }

// State describes the current activity.
type State struct {
	// Mode is "idle", "capture" or "crop".
	Mode     string `json:"mode"`
	Document string `json:"document,omitempty"`
}

// Session serializes captures and crops against one pipeline.
// It is safe for concurrent use.
type Session struct {
	mu       sync.Mutex
	pipeline *pipeline.Pipeline
	logger   *log.Logger
	active   activity
}

// New creates an idle session. A nil logger uses the standard logger.
func New(p *pipeline.Pipeline, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.Default()
	}
	return &Session{pipeline: p, logger: logger}
}

// Pipeline returns the pipeline photos are processed with.
func (s *Session) Pipeline() *pipeline.Pipeline {
	return s.pipeline
}

// State reports the current activity.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch a := s.active.(type) {
	case *captureActivity:
		return State{Mode: "capture", Document: a.doc}
	case *cropActivity:
		return State{Mode: "crop", Document: a.doc}
	default:
		return State{Mode: "idle"}
	}
}

// StartCapture opens a device for a checklist document.
func (s *Session) StartCapture(ctx context.Context, document string, dev capture.Device) error {
	doc, ok := s.pipeline.Store().Checklist().Lookup(document)
	if !ok {
		return fmt.Errorf("%w: %q", store.ErrUnknownDocument, document)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		return fmt.Errorf("%w: %s", ErrSessionBusy, s.active.document())
	}

	stream, err := dev.Open(ctx)
	if err != nil {
		return err
	}
	s.active = &captureActivity{doc: doc.Name, stream: stream}
	return nil
}

// TakePhoto reads one frame from the open capture, closes the capture and
// runs the pipeline on the frame. The result is stored and returned.
//
// When the frame cannot be read the capture is closed, nothing is stored and
// the device error is returned.
func (s *Session) TakePhoto(ctx context.Context) (store.ScanResult, error) {
	s.mu.Lock()
	act, ok := s.active.(*captureActivity)
	if !ok {
		s.mu.Unlock()
		return store.ScanResult{}, ErrNoActiveCapture
	}
	frame, err := act.stream.Frame(ctx)
	s.closeLocked()
	s.mu.Unlock()

	if err != nil {
		return store.ScanResult{}, err
	}
	return s.pipeline.Run(act.doc, frame)
}

// CloseCapture releases an open capture. It does nothing when no capture is
// open.
func (s *Session) CloseCapture() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.active.(*captureActivity); ok {
		s.closeLocked()
	}
}

// Scan captures and processes one photo in a single step.
func (s *Session) Scan(ctx context.Context, document string, dev capture.Device) (store.ScanResult, error) {
	if err := s.StartCapture(ctx, document, dev); err != nil {
		return store.ScanResult{}, err
	}
	return s.TakePhoto(ctx)
}

// Rescan runs the stored image for a document through the pipeline again.
func (s *Session) Rescan(ctx context.Context, document string) (store.ScanResult, error) {
	stored, err := s.stored(document)
	if err != nil {
		return store.ScanResult{}, err
	}
	return s.Scan(ctx, document, capture.BytesDevice{Data: stored.Data})
}

// OpenCrop starts a manual crop of the stored image for a document and
// returns its bounds.
func (s *Session) OpenCrop(document string) (image.Rectangle, error) {
	stored, err := s.stored(document)
	if err != nil {
		return image.Rectangle{}, err
	}

	source, err := imaging.DecodeFrame(stored.Data)
	if err != nil {
		return image.Rectangle{}, fmt.Errorf("failed to decode stored image: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		return image.Rectangle{}, fmt.Errorf("%w: %s", ErrSessionBusy, s.active.document())
	}
	s.active = &cropActivity{doc: stored.Document, source: source}
	return source.Bounds(), nil
}

// ConfirmCrop crops the open image to (x1,y1)-(x2,y2), stores it with status
// manual and closes the crop.
//
// An invalid rectangle leaves the crop open so the client can try again.
func (s *Session) ConfirmCrop(x1, y1, x2, y2 int) (store.ScanResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	act, ok := s.active.(*cropActivity)
	if !ok {
		return store.ScanResult{}, ErrNoActiveCrop
	}

	cropped, err := imaging.CropRegion(act.source, x1, y1, x2, y2)
	if err != nil {
		return store.ScanResult{}, err
	}

	result, err := s.pipeline.StoreManual(act.doc, cropped)
	if err != nil {
		return store.ScanResult{}, err
	}
	s.closeLocked()
	return result, nil
}

// CloseCrop abandons an open crop. It does nothing when no crop is open.
func (s *Session) CloseCrop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.active.(*cropActivity); ok {
		s.closeLocked()
	}
}

// Crop opens, confirms and closes a manual crop in a single step.
func (s *Session) Crop(document string, x1, y1, x2, y2 int) (store.ScanResult, error) {
	if _, err := s.OpenCrop(document); err != nil {
		return store.ScanResult{}, err
	}

	result, err := s.ConfirmCrop(x1, y1, x2, y2)
	if err != nil {
		s.CloseCrop()
		return store.ScanResult{}, err
	}
	return result, nil
}

func (s *Session) stored(document string) (store.ScanResult, error) {
	st := s.pipeline.Store()
	if _, ok := st.Checklist().Lookup(document); !ok {
		return store.ScanResult{}, fmt.Errorf("%w: %q", store.ErrUnknownDocument, document)
	}

	r, ok := st.Get(document)
	if !ok || len(r.Data) == 0 {
		return store.ScanResult{}, fmt.Errorf("%w: %s", ErrNotScanned, document)
	}
	return r, nil
}

// closeLocked releases the active activity. s.mu must be held.
func (s *Session) closeLocked() {
	if s.active == nil {
		return
	}
	if err := s.active.release(); err != nil {
		s.logger.Printf("failed to release %s: %v", s.active.document(), err)
	}
	s.active = nil
}
