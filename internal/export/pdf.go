package export

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG for DecodeConfig
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/ironsheep/docscan-mcp/internal/store"
)

// PageWidth is the PDF page width in points (A4). The page height follows
// the image's aspect ratio so the image fills the page.
const PageWidth = 595.28

func init() {
	// pdfcpu would otherwise create a configuration directory in the
	// user's home on first use.
	api.DisableConfigDir()
}

// WritePDFs writes one single-page PDF per snapshot entry into dir as
// "<index>_<document>.pdf". The directory is created when missing.
func (e *Exporter) WritePDFs(dir string, snap store.Snapshot) (*Manifest, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	entries, skipped := exportable(snap)
	manifest := &Manifest{Skipped: skipped, CreatedAt: time.Now()}

	for _, entry := range entries {
		name := FileName(entry.Index, entry.Document, "pdf")

		var buf bytes.Buffer
		if err := WritePDF(&buf, entry.Data); err != nil {
			return nil, fmt.Errorf("failed to build %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", name, err)
		}

		manifest.Items = append(manifest.Items, Item{
			Index:    entry.Index,
			Document: entry.Document,
			Status:   entry.Status,
			File:     name,
			Bytes:    int64(buf.Len()),
		})
		manifest.TotalBytes += int64(buf.Len())
	}
	return manifest, nil
}

// WritePDF writes a single-page PDF holding one JPEG image.
func WritePDF(w io.Writer, jpegData []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(jpegData))
	if err != nil {
		return fmt.Errorf("failed to read image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("invalid image dimensions %dx%d", cfg.Width, cfg.Height)
	}

	imp := pdfcpu.DefaultImportConfig()
	imp.PageDim = PageDim(cfg.Width, cfg.Height)
	imp.UserDim = true
	imp.Pos = types.Center
	imp.Scale = 1.0

	conf := model.NewDefaultConfiguration()
	if err := api.ImportImages(nil, w, []io.Reader{bytes.NewReader(jpegData)}, imp, conf); err != nil {
		return fmt.Errorf("failed to import image: %w", err)
	}
	return nil
}

// PageDim returns the page size for an image of the given pixel size.
func PageDim(width, height int) *types.Dim {
	return &types.Dim{
		Width:  PageWidth,
		Height: PageWidth * float64(height) / float64(width),
	}
}
