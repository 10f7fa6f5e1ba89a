// Package export packages stored document images for hand-off.
//
// Two formats are produced from a store snapshot: a single ZIP archive of
// JPEG files, and one single-page PDF per document. Every stored entry is
// exported, including unrectified fallback and error results, under the name
// "<index>_<document>" where index is the 1-based checklist position.
//
// Exports always work from a snapshot, so results stored while an export is
// running never change its output.
package export

import (
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/ironsheep/docscan-mcp/internal/store"
)

// Item describes one exported file.
type Item struct {
	Index    int          `json:"index"`
	Document string       `json:"document"`
	Status   store.Status `json:"status"`
	File     string       `json:"file"`
	Bytes    int64        `json:"bytes"`
}

// Manifest lists what an export wrote.
type Manifest struct {
	Items []Item `json:"items"`

	// Skipped names entries that had no image data to export.
	Skipped []string `json:"skipped,omitempty"`

	// TotalBytes is the archive size for ZIP exports and the summed file
	// sizes for PDF exports.
	TotalBytes int64 `json:"total_bytes"`

	// Warning is set when a ZIP archive exceeds the configured limit.
	Warning string `json:"warning,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Exporter writes snapshots to archives and PDFs.
type Exporter struct {
	// LimitBytes is the archive size above which a warning is logged and
	// reported. Zero disables the check.
	LimitBytes int64

	logger *log.Logger
}

// New creates an exporter. A nil logger uses the standard logger.
func New(limitBytes int64, logger *log.Logger) *Exporter {
	if logger == nil {
		logger = log.Default()
	}
	return &Exporter{LimitBytes: limitBytes, logger: logger}
}

// FileName builds the exported file name for a document.
//
// The name is NFC-normalized so the same document always produces the same
// bytes, however its accents were typed. Path separators are replaced.
func FileName(index int, document, ext string) string {
	name := norm.NFC.String(strings.TrimSpace(document))
	name = strings.NewReplacer("/", "-", "\\", "-").Replace(name)
	return fmt.Sprintf("%d_%s.%s", index, name, ext)
}

// exportable splits a snapshot into entries with image data and the names of
// those without.
func exportable(snap store.Snapshot) (store.Snapshot, []string) {
	var (
		ok      store.Snapshot
		skipped []string
	)
	for _, e := range snap {
		if len(e.Data) == 0 {
			skipped = append(skipped, e.Document)
			continue
		}
		ok = append(ok, e)
	}
	return ok, skipped
}
