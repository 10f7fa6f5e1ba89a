package export

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ironsheep/docscan-mcp/internal/store"
)

// WriteZip writes every entry of the snapshot into a ZIP archive as
// "<index>_<document>.jpg".
//
// Exceeding LimitBytes does not fail the export. The size is logged and
// reported in Manifest.Warning.
func (e *Exporter) WriteZip(w io.Writer, snap store.Snapshot) (*Manifest, error) {
	entries, skipped := exportable(snap)
	manifest := &Manifest{Skipped: skipped, CreatedAt: time.Now()}

	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)

	for _, entry := range entries {
		name := FileName(entry.Index, entry.Document, "jpg")

		header := &zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: entry.UpdatedAt,
		}
		fw, err := zw.CreateHeader(header)
		if err != nil {
			return nil, fmt.Errorf("failed to add %s to archive: %w", name, err)
		}
		if _, err := fw.Write(entry.Data); err != nil {
			return nil, fmt.Errorf("failed to write %s to archive: %w", name, err)
		}

		manifest.Items = append(manifest.Items, Item{
			Index:    entry.Index,
			Document: entry.Document,
			Status:   entry.Status,
			File:     name,
			Bytes:    int64(len(entry.Data)),
		})
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish archive: %w", err)
	}

	manifest.TotalBytes = cw.n
	if e.LimitBytes > 0 && cw.n > e.LimitBytes {
		manifest.Warning = fmt.Sprintf("archive is %.2f MB, above the %.2f MB limit",
			megabytes(cw.n), megabytes(e.LimitBytes))
		e.logger.Printf("Warning: %s", manifest.Warning)
	}
	return manifest, nil
}

// WriteZipFile writes the archive to path, replacing any existing file.
func (e *Exporter) WriteZipFile(path string, snap store.Snapshot) (*Manifest, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create archive: %w", err)
	}

	manifest, err := e.WriteZip(f, snap)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close archive: %w", cerr)
	}
	if err != nil {
		os.Remove(path)
		return nil, err
	}
	return manifest, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func megabytes(n int64) float64 {
	return float64(n) / (1024 * 1024)
}
