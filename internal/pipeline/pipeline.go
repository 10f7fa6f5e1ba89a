// Package pipeline turns a captured photo into the stored image for a
// checklist document.
//
// # Control Flow
//
//	frame -> edges -> contour selection -> corner ordering -> rectification
//	      -> encoding -> result store
//
// When no document outline is found the size-capped original photo is stored
// with status fallback. Any failure along the way, including a panic, is
// logged and degrades to storing the original photo with status error. The
// pipeline never returns an error for a photo it could not process.
//
// Every intermediate buffer lives only for the duration of one Process call.
package pipeline

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log"

	"github.com/google/uuid"

	"github.com/ironsheep/docscan-mcp/internal/config"
	"github.com/ironsheep/docscan-mcp/internal/detection"
	"github.com/ironsheep/docscan-mcp/internal/imaging"
	"github.com/ironsheep/docscan-mcp/internal/rectify"
	"github.com/ironsheep/docscan-mcp/internal/store"
)

// Pipeline runs detection, rectification and encoding for captured frames.
// It is safe for concurrent use.
type Pipeline struct {
	cfg     *config.Config
	store   *store.Store
	encoder *imaging.Encoder
	fill    color.NRGBA
	logger  *log.Logger
}

// New creates a pipeline that writes into st.
// A nil logger uses the standard logger.
func New(cfg *config.Config, st *store.Store, logger *log.Logger) (*Pipeline, error) {
	fill, err := imaging.ParseHexColor(cfg.FillColor)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fill color: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}

	return &Pipeline{
		cfg:     cfg,
		store:   st,
		encoder: imaging.NewEncoder(cfg.MaxWidth, cfg.MaxHeight),
		fill:    fill,
		logger:  logger,
	}, nil
}

// Store returns the result store the pipeline writes into.
func (p *Pipeline) Store() *store.Store {
	return p.store
}

// Profile returns the encoding profile for a document. Names outside the
// checklist get the standard tier.
func (p *Pipeline) Profile(document string) imaging.Profile {
	doc, ok := p.cfg.Checklist.Lookup(document)
	if !ok {
		doc = config.Document{Name: document, Tier: config.TierStandard}
	}
	return p.cfg.Profile(doc)
}

// Process runs the full pipeline on a frame and returns the result without
// storing it.
//
// The returned status is auto when a document was found and rectified,
// fallback when none was found, and error when processing failed. For
// fallback and error results Data holds the size-capped original frame, or
// nil if even that could not be encoded.
func (p *Pipeline) Process(document string, frame image.Image) (result store.ScanResult) {
	id := uuid.New().String()
	profile := p.Profile(document)

	defer func() {
		if r := recover(); r != nil {
			result = p.failed(id, document, frame, profile, fmt.Errorf("panic: %v", r))
		}
	}()

	p.debugf("[%s] processing %s", id, document)

	rectified, err := p.rectify(id, frame)
	if err != nil {
		return p.failed(id, document, frame, profile, err)
	}

	if rectified == nil {
		data, err := p.encodeOriginal(frame, profile)
		if err != nil {
			return p.failed(id, document, frame, profile, err)
		}
		p.debugf("[%s] no document outline found for %s, storing original", id, document)
		return store.ScanResult{Document: document, Data: data, Status: store.StatusFallback, CaptureID: id}
	}

	data, err := p.encoder.Encode(rectified, profile)
	if err != nil {
		return p.failed(id, document, frame, profile, err)
	}
	p.debugf("[%s] stored rectified %s (%d bytes)", id, document, len(data))
	return store.ScanResult{Document: document, Data: data, Status: store.StatusAuto, CaptureID: id}
}

// Run processes a frame and stores the result.
//
// The only error is ErrUnknownDocument from the store; processing failures
// are reported through the result's status.
func (p *Pipeline) Run(document string, frame image.Image) (store.ScanResult, error) {
	result := p.Process(document, frame)
	if err := p.store.Put(result); err != nil {
		return result, err
	}
	return result, nil
}

// StoreManual encodes a manually cropped image and stores it with status
// manual. The crop is never binarized.
func (p *Pipeline) StoreManual(document string, cropped image.Image) (store.ScanResult, error) {
	data, err := p.encodeOriginal(cropped, p.Profile(document))
	if err != nil {
		return store.ScanResult{}, fmt.Errorf("failed to encode cropped image: %w", err)
	}

	result := store.ScanResult{
		Document:  document,
		Data:      data,
		Status:    store.StatusManual,
		CaptureID: uuid.New().String(),
	}
	if err := p.store.Put(result); err != nil {
		return result, err
	}
	return result, nil
}

// rectify returns the flattened document, or nil when no outline was found.
func (p *Pipeline) rectify(id string, frame image.Image) (*image.NRGBA, error) {
	edges, err := imaging.DetectEdges(frame)
	if err != nil {
		return nil, fmt.Errorf("failed to detect edges: %w", err)
	}

	cand, ok := detection.FindDocument(edges)
	if !ok {
		return nil, nil
	}

	corners := detection.OrderCorners(cand.Corners)
	p.debugf("[%s] document candidate area=%.0f corners=%+v", id, cand.Area, corners)

	out, err := rectify.Rectify(frame, corners, p.fill)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// failed logs a processing failure and builds the error result.
func (p *Pipeline) failed(id, document string, frame image.Image, profile imaging.Profile, cause error) store.ScanResult {
	p.logger.Printf("[%s] failed to process %s: %v", id, document, cause)

	data, err := p.encodeOriginal(frame, profile)
	if err != nil {
		p.logger.Printf("[%s] failed to encode original frame for %s: %v", id, document, err)
		data = nil
	}

	return store.ScanResult{
		Document:  document,
		Data:      data,
		Status:    store.StatusError,
		CaptureID: id,
		Err:       cause.Error(),
	}
}

// encodeOriginal caps and encodes an unrectified frame, converting a panic
// from a misbehaving image into an error.
func (p *Pipeline) encodeOriginal(frame image.Image, profile imaging.Profile) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			data, err = nil, fmt.Errorf("panic while encoding: %v", r)
		}
	}()

	if frame == nil {
		return nil, errors.New("no frame")
	}
	return p.encoder.EncodeOriginal(frame, profile)
}

func (p *Pipeline) debugf(format string, args ...interface{}) {
	if p.cfg.IsDebug() {
		p.logger.Printf(format, args...)
	}
}
