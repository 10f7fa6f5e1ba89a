// Package store keeps the latest scan result for every checklist document.
//
// Results are keyed by document name and overwritten on every capture or
// crop; the last write wins. Export reads a Snapshot so that results stored
// while an export is running do not change its output.
package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ironsheep/docscan-mcp/internal/config"
)

// ErrUnknownDocument is returned for names that are not in the checklist.
var ErrUnknownDocument = errors.New("document is not in the checklist")

// Status records how a stored image was produced.
type Status string

const (
	// StatusAuto marks a detected and rectified document.
	StatusAuto Status = "auto"

	// StatusFallback marks an unrectified photo stored because no document
	// outline was found.
	StatusFallback Status = "fallback"

	// StatusError marks an unrectified photo stored after a processing
	// failure.
	StatusError Status = "error"

	// StatusManual marks a manually cropped image.
	StatusManual Status = "manual"
)

// Marker returns the checklist marker shown next to a document with this
// status.
func (s Status) Marker() string {
	switch s {
	case StatusAuto:
		return "✅"
	case StatusFallback:
		return "⚠️"
	case StatusError:
		return "❌"
	case StatusManual:
		return "🟩"
	default:
		return ""
	}
}

// ScanResult is the stored outcome for one document.
type ScanResult struct {
	Document  string    `json:"document"`
	Data      []byte    `json:"-"`
	Status    Status    `json:"status"`
	CaptureID string    `json:"capture_id"`
	Err       string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is an in-memory result table restricted to a checklist.
// It is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	checklist config.Checklist
	results   map[string]ScanResult
}

// New creates an empty store for a checklist.
func New(checklist config.Checklist) *Store {
	return &Store{
		checklist: checklist,
		results:   make(map[string]ScanResult),
	}
}

// Checklist returns the checklist the store was created with.
func (s *Store) Checklist() config.Checklist {
	return s.checklist
}

// Put stores a result, replacing any earlier result for the same document.
//
// The document name is replaced with its checklist spelling. A zero
// UpdatedAt is set to the current time.
func (s *Store) Put(r ScanResult) error {
	doc, ok := s.checklist.Lookup(r.Document)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDocument, r.Document)
	}
	r.Document = doc.Name
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[doc.Name] = r
	return nil
}

// Get returns the stored result for a document.
func (s *Store) Get(name string) (ScanResult, bool) {
	doc, ok := s.checklist.Lookup(name)
	if !ok {
		return ScanResult{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[doc.Name]
	return r, ok
}

// Len returns the number of documents with a stored result.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results)
}

// Entry is one result in a snapshot together with its checklist position.
type Entry struct {
	// Index is the 1-based checklist position.
	Index int

	ScanResult
}

// Snapshot is a point-in-time copy of the store in checklist order.
type Snapshot []Entry

// Snapshot copies the current results. Later writes to the store do not
// affect the returned value.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := make(Snapshot, 0, len(s.results))
	for i, doc := range s.checklist {
		r, ok := s.results[doc.Name]
		if !ok {
			continue
		}
		r.Data = append([]byte(nil), r.Data...)
		snap = append(snap, Entry{Index: i + 1, ScanResult: r})
	}
	return snap
}

// TotalBytes returns the summed size of all image data in the snapshot.
func (snap Snapshot) TotalBytes() int64 {
	var total int64
	for _, e := range snap {
		total += int64(len(e.Data))
	}
	return total
}
