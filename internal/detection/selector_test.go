package detection

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/ironsheep/docscan-mcp/internal/imaging"
)

// rectContour returns the four corners of an axis-aligned rectangle.
func rectContour(x, y, w, h float64) Contour {
	return Contour{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}
}

func TestSelectCandidate_AreaBoundary(t *testing.T) {
	tests := []struct {
		name   string
		c      Contour
		wantOK bool
	}{
		{"area 1000 accepted", rectContour(0, 0, 40, 25), true},
		{"area 999 rejected", rectContour(0, 0, 37, 27), false},
		{"area 1001 accepted", rectContour(0, 0, 77, 13), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cand, ok := SelectCandidate([]Contour{tt.c})
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v (area %v)", ok, tt.wantOK, tt.c.Area())
			}
			if ok && cand.Area != tt.c.Area() {
				t.Errorf("candidate area: got %v, want %v", cand.Area, tt.c.Area())
			}
		})
	}
}

func TestSelectCandidate_LargestWins(t *testing.T) {
	contours := []Contour{
		rectContour(0, 0, 50, 50),    // 2500
		rectContour(100, 100, 80, 60), // 4800
		rectContour(300, 0, 40, 40),  // 1600
	}

	cand, ok := SelectCandidate(contours)
	if !ok {
		t.Fatal("expected a candidate")
	}
	if cand.Area != 4800 {
		t.Errorf("area: got %v, want 4800", cand.Area)
	}
	if cand.Corners[0] != (Point{100, 100}) {
		t.Errorf("corners: got %v, want the 80x60 rectangle", cand.Corners)
	}
}

func TestSelectCandidate_TieKeepsFirst(t *testing.T) {
	first := rectContour(0, 0, 60, 40)
	second := rectContour(200, 200, 40, 60)

	cand, ok := SelectCandidate([]Contour{first, second})
	if !ok {
		t.Fatal("expected a candidate")
	}
	if cand.Corners[0] != first[0] {
		t.Errorf("equal areas should keep the first contour, got corners %v", cand.Corners)
	}
}

func TestSelectCandidate_RequiresFourVertices(t *testing.T) {
	triangle := Contour{{0, 0}, {300, 0}, {150, 200}}
	pentagon := make(Contour, 5)
	for i := range pentagon {
		angle := 2*math.Pi*float64(i)/5 - math.Pi/2
		pentagon[i] = Point{200 + 100*math.Cos(angle), 200 + 100*math.Sin(angle)}
	}
	smallRect := rectContour(0, 0, 10, 10)

	cand, ok := SelectCandidate([]Contour{triangle, pentagon, smallRect})
	if ok {
		t.Errorf("expected no candidate, got %v", cand)
	}
}

func TestSelectCandidate_LargerNonQuadIgnored(t *testing.T) {
	triangle := Contour{{0, 0}, {500, 0}, {250, 400}}
	rect := rectContour(600, 0, 50, 40)

	cand, ok := SelectCandidate([]Contour{triangle, rect})
	if !ok {
		t.Fatal("expected a candidate")
	}
	if cand.Area != 2000 {
		t.Errorf("area: got %v, want 2000", cand.Area)
	}
}

func TestSelectCandidate_Empty(t *testing.T) {
	if _, ok := SelectCandidate(nil); ok {
		t.Error("no contours should give no candidate")
	}
}

func TestFindDocument_Outline(t *testing.T) {
	edges := image.NewGray(image.Rect(0, 0, 120, 90))
	drawOutline(edges, 20, 20, 80, 60)
	drawOutline(edges, 90, 10, 110, 30) // too small

	cand, ok := FindDocument(edges)
	if !ok {
		t.Fatal("expected a candidate")
	}
	if cand.Area != 2400 {
		t.Errorf("area: got %v, want 2400", cand.Area)
	}

	cs := OrderCorners(cand.Corners)
	want := CornerSet{
		TopLeft:     Point{20, 20},
		TopRight:    Point{80, 20},
		BottomRight: Point{80, 60},
		BottomLeft:  Point{20, 60},
	}
	if cs != want {
		t.Errorf("corners: got %+v, want %+v", cs, want)
	}
}

func TestFindDocument_BlankFrame(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 160, 120))
	for i := range img.Pix {
		img.Pix[i] = 230
	}

	edges, err := imaging.DetectEdges(img)
	if err != nil {
		t.Fatalf("DetectEdges failed: %v", err)
	}

	if _, ok := FindDocument(edges); ok {
		t.Error("blank frame should give no candidate")
	}
}

func TestFindDocument_PhotographedPage(t *testing.T) {
	// Dark page on a light background
	img := image.NewRGBA(image.Rect(0, 0, 200, 150))
	for y := 0; y < 150; y++ {
		for x := 0; x < 200; x++ {
			if x >= 50 && x < 150 && y >= 40 && y < 110 {
				img.Set(x, y, color.RGBA{40, 40, 40, 255})
			} else {
				img.Set(x, y, color.RGBA{220, 220, 220, 255})
			}
		}
	}

	edges, err := imaging.DetectEdges(img)
	if err != nil {
		t.Fatalf("DetectEdges failed: %v", err)
	}

	cand, ok := FindDocument(edges)
	if !ok {
		t.Fatal("expected a candidate for a high-contrast page")
	}

	if cand.Area < 6000 || cand.Area > 8000 {
		t.Errorf("area %v should be close to 100x70", cand.Area)
	}

	cs := OrderCorners(cand.Corners)
	checks := []struct {
		name      string
		got, want Point
	}{
		{"top-left", cs.TopLeft, Point{50, 40}},
		{"top-right", cs.TopRight, Point{149, 40}},
		{"bottom-right", cs.BottomRight, Point{149, 109}},
		{"bottom-left", cs.BottomLeft, Point{50, 109}},
	}
	for _, c := range checks {
		if c.got.Dist(c.want) > 3 {
			t.Errorf("%s: got %v, want near %v", c.name, c.got, c.want)
		}
	}
}
