package pipeline

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"log"
	"testing"

	"github.com/google/uuid"

	"github.com/ironsheep/docscan-mcp/internal/config"
	"github.com/ironsheep/docscan-mcp/internal/imaging"
	"github.com/ironsheep/docscan-mcp/internal/store"
)

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	cfg := config.DefaultConfig()
	p, err := New(cfg, store.New(cfg.Checklist), log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return p
}

// createBlankFrame creates a frame of a single color.
func createBlankFrame(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// createPageFrame creates a light page with a dark bar across it, lying on a
// darker background. The page covers (50,40)-(150,110).
func createPageFrame() *image.RGBA {
	img := createBlankFrame(200, 150, color.RGBA{60, 60, 60, 255})
	for y := 40; y < 110; y++ {
		for x := 50; x < 150; x++ {
			img.Set(x, y, color.RGBA{235, 235, 235, 255})
		}
	}
	for y := 60; y < 70; y++ {
		for x := 70; x < 130; x++ {
			img.Set(x, y, color.RGBA{20, 20, 20, 255})
		}
	}
	return img
}

// createQuadFrame draws a light convex quadrilateral on a dark background.
// Corners are given in order around the outline.
func createQuadFrame(width, height int, quad [4]image.Point) *image.RGBA {
	img := createBlankFrame(width, height, color.RGBA{50, 50, 50, 255})
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if insideQuad(quad, float64(x)+0.5, float64(y)+0.5) {
				img.Set(x, y, color.RGBA{230, 230, 230, 255})
			}
		}
	}
	return img
}

func insideQuad(quad [4]image.Point, x, y float64) bool {
	var pos, neg bool
	for i := range quad {
		a, b := quad[i], quad[(i+1)%4]
		cross := float64(b.X-a.X)*(y-float64(a.Y)) - float64(b.Y-a.Y)*(x-float64(a.X))
		if cross > 0 {
			pos = true
		} else if cross < 0 {
			neg = true
		}
	}
	return !(pos && neg)
}

// panicImage reports valid bounds but panics on pixel access.
type panicImage struct{}

func (panicImage) ColorModel() color.Model { return color.RGBAModel }
func (panicImage) Bounds() image.Rectangle { return image.Rect(0, 0, 20, 20) }
func (panicImage) At(x, y int) color.Color { panic("sensor read failed") }

func decodeJPEG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("stored data is not a JPEG: %v", err)
	}
	return img
}

func gray(c color.Color) int {
	r, g, b, _ := c.RGBA()
	return int((r>>8 + g>>8 + b>>8) / 3)
}

func TestNew_InvalidFillColor(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.FillColor = "nope"

	if _, err := New(cfg, store.New(cfg.Checklist), nil); err == nil {
		t.Error("New should fail for an invalid fill color")
	}
}

func TestProcess_BlankFrameFallsBack(t *testing.T) {
	p := newTestPipeline(t)
	frame := createBlankFrame(160, 120, color.RGBA{200, 200, 200, 255})

	result := p.Process("CURP", frame)

	if result.Status != store.StatusFallback {
		t.Fatalf("status: got %s, want %s (err=%s)", result.Status, store.StatusFallback, result.Err)
	}

	want, err := p.encoder.EncodeOriginal(frame, p.Profile("CURP"))
	if err != nil {
		t.Fatalf("EncodeOriginal failed: %v", err)
	}
	if !bytes.Equal(result.Data, want) {
		t.Error("fallback data should equal the size-capped encoding of the original frame")
	}
}

func TestProcess_FallbackIsCapped(t *testing.T) {
	p := newTestPipeline(t)
	frame := createBlankFrame(2560, 1920, color.RGBA{180, 180, 180, 255})

	result := p.Process("CURP", frame)

	if result.Status != store.StatusFallback {
		t.Fatalf("status: got %s, want %s", result.Status, store.StatusFallback)
	}
	img := decodeJPEG(t, result.Data)
	if img.Bounds().Dx() != 1280 || img.Bounds().Dy() != 960 {
		t.Errorf("dimensions: got %dx%d, want 1280x960", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestProcess_FallbackNotBinarized(t *testing.T) {
	p := newTestPipeline(t)
	frame := createBlankFrame(120, 90, color.RGBA{128, 128, 128, 255})

	result := p.Process("Contrato laboral", frame)

	if result.Status != store.StatusFallback {
		t.Fatalf("status: got %s, want %s", result.Status, store.StatusFallback)
	}
	v := gray(decodeJPEG(t, result.Data).At(60, 45))
	if v < 118 || v > 138 {
		t.Errorf("fallback should keep mid-gray, got %d", v)
	}
}

func TestProcess_DetectsPage(t *testing.T) {
	p := newTestPipeline(t)

	result := p.Process("CURP", createPageFrame())

	if result.Status != store.StatusAuto {
		t.Fatalf("status: got %s, want %s (err=%s)", result.Status, store.StatusAuto, result.Err)
	}

	img := decodeJPEG(t, result.Data)
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w < 97 || w > 103 || h < 67 || h > 73 {
		t.Errorf("rectified size: got %dx%d, want about 100x70", w, h)
	}

	// Page interior is light, the bar is dark
	if v := gray(img.At(w/2, h-12)); v < 200 {
		t.Errorf("page interior should be light, got %d", v)
	}
	if v := gray(img.At(w/2, 26)); v > 60 {
		t.Errorf("bar should be dark, got %d", v)
	}
}

func TestProcess_PerspectivePage(t *testing.T) {
	p := newTestPipeline(t)
	frame := createQuadFrame(640, 480, [4]image.Point{
		{120, 60}, {560, 100}, {520, 430}, {80, 380},
	})

	result := p.Process("CURP", frame)

	if result.Status != store.StatusAuto {
		t.Fatalf("status: got %s, want %s (err=%s)", result.Status, store.StatusAuto, result.Err)
	}

	// Longest opposite edges are about 443 and 332 pixels
	img := decodeJPEG(t, result.Data)
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w < 440 || w > 445 || h < 329 || h > 334 {
		t.Errorf("rectified size: got %dx%d, want about 443x332", w, h)
	}
	if v := gray(img.At(w/2, h/2)); v < 200 {
		t.Errorf("page interior should be light, got %d", v)
	}
}

func TestProcess_BinarizesHighTier(t *testing.T) {
	p := newTestPipeline(t)

	result := p.Process("Contrato laboral", createPageFrame())

	if result.Status != store.StatusAuto {
		t.Fatalf("status: got %s, want %s (err=%s)", result.Status, store.StatusAuto, result.Err)
	}

	img := decodeJPEG(t, result.Data)
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if v := gray(img.At(w/2, h-12)); v < 215 {
		t.Errorf("page should binarize to white, got %d", v)
	}
	if v := gray(img.At(w/2, 26)); v > 40 {
		t.Errorf("bar should binarize to black, got %d", v)
	}
}

func TestProcess_EmptyFrameIsError(t *testing.T) {
	p := newTestPipeline(t)

	result := p.Process("CURP", image.NewRGBA(image.Rect(0, 0, 0, 0)))

	if result.Status != store.StatusError {
		t.Fatalf("status: got %s, want %s", result.Status, store.StatusError)
	}
	if result.Err == "" {
		t.Error("error result should carry a message")
	}
	if result.Data != nil {
		t.Error("an empty frame cannot be encoded")
	}
}

func TestProcess_NilFrameIsError(t *testing.T) {
	p := newTestPipeline(t)

	result := p.Process("CURP", nil)

	if result.Status != store.StatusError {
		t.Fatalf("status: got %s, want %s", result.Status, store.StatusError)
	}
}

func TestProcess_RecoversPanic(t *testing.T) {
	p := newTestPipeline(t)

	result := p.Process("CURP", panicImage{})

	if result.Status != store.StatusError {
		t.Fatalf("status: got %s, want %s", result.Status, store.StatusError)
	}
	if result.Data != nil {
		t.Error("no data should be stored for an unreadable frame")
	}
}

func TestProcess_CaptureIDs(t *testing.T) {
	p := newTestPipeline(t)
	frame := createBlankFrame(40, 40, color.White)

	a := p.Process("CURP", frame)
	b := p.Process("CURP", frame)

	if _, err := uuid.Parse(a.CaptureID); err != nil {
		t.Errorf("capture ID %q is not a UUID: %v", a.CaptureID, err)
	}
	if a.CaptureID == b.CaptureID {
		t.Error("capture IDs should be unique per run")
	}
}

func TestRun_StoresResult(t *testing.T) {
	p := newTestPipeline(t)

	result, err := p.Run("CURP", createBlankFrame(40, 40, color.White))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	stored, ok := p.Store().Get("CURP")
	if !ok {
		t.Fatal("result was not stored")
	}
	if stored.CaptureID != result.CaptureID || stored.Status != store.StatusFallback {
		t.Errorf("stored %+v, want %+v", stored, result)
	}
}

func TestRun_StoresErrorResults(t *testing.T) {
	p := newTestPipeline(t)

	if _, err := p.Run("CURP", image.NewRGBA(image.Rect(0, 0, 0, 0))); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	stored, ok := p.Store().Get("CURP")
	if !ok || stored.Status != store.StatusError {
		t.Errorf("error result should be stored, got %+v", stored)
	}
}

func TestRun_UnknownDocument(t *testing.T) {
	p := newTestPipeline(t)

	_, err := p.Run("Pasaporte", createBlankFrame(40, 40, color.White))
	if !errors.Is(err, store.ErrUnknownDocument) {
		t.Errorf("got %v, want ErrUnknownDocument", err)
	}
}

func TestStoreManual(t *testing.T) {
	p := newTestPipeline(t)
	crop := createBlankFrame(80, 60, color.RGBA{128, 128, 128, 255})

	result, err := p.StoreManual("Contrato laboral", crop)
	if err != nil {
		t.Fatalf("StoreManual failed: %v", err)
	}
	if result.Status != store.StatusManual {
		t.Errorf("status: got %s, want %s", result.Status, store.StatusManual)
	}

	want, _ := p.encoder.EncodeOriginal(crop, imaging.Profile{Quality: 90})
	if !bytes.Equal(result.Data, want) {
		t.Error("manual crops should be stored unbinarized at the document's quality")
	}
}

func TestProfile(t *testing.T) {
	p := newTestPipeline(t)

	tests := []struct {
		doc  string
		want imaging.Profile
	}{
		{"Contrato laboral", imaging.Profile{Quality: 90, Binarize: true}},
		{"CURP", imaging.Profile{Quality: 60}},
		{"Pasaporte", imaging.Profile{Quality: 60}},
	}

	for _, tt := range tests {
		if got := p.Profile(tt.doc); got != tt.want {
			t.Errorf("Profile(%q) = %+v, want %+v", tt.doc, got, tt.want)
		}
	}
}

func TestDetect(t *testing.T) {
	p := newTestPipeline(t)

	d, err := p.Detect(createPageFrame())
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if !d.Found || d.Corners == nil {
		t.Fatal("expected the page to be found")
	}
	if d.Width != 200 || d.Height != 150 {
		t.Errorf("frame size: got %dx%d, want 200x150", d.Width, d.Height)
	}
	if d.OutputWidth < 97 || d.OutputWidth > 103 {
		t.Errorf("output width: got %d, want about 100", d.OutputWidth)
	}

	d, err = p.Detect(createBlankFrame(50, 50, color.White))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if d.Found || d.EdgePixels != 0 {
		t.Errorf("blank frame: got %+v, want nothing found", d)
	}

	if _, err := p.Detect(image.NewRGBA(image.Rect(0, 0, 0, 0))); err == nil {
		t.Error("Detect should fail for an empty frame")
	}
}
