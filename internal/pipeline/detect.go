package pipeline

import (
	"image"

	"github.com/ironsheep/docscan-mcp/internal/detection"
	"github.com/ironsheep/docscan-mcp/internal/imaging"
	"github.com/ironsheep/docscan-mcp/internal/rectify"
)

// Detection reports what the pipeline would find in a frame.
type Detection struct {
	// Width and Height of the analyzed frame.
	Width  int `json:"width"`
	Height int `json:"height"`

	// EdgePixels is the number of pixels in the edge map.
	EdgePixels int `json:"edge_pixels"`

	// Found is false when no four-cornered outline qualified.
	Found bool `json:"found"`

	// Area is the enclosed area of the selected contour.
	Area float64 `json:"area,omitempty"`

	// Corners of the document, ordered.
	Corners *detection.CornerSet `json:"corners,omitempty"`

	// OutputWidth and OutputHeight are the rectified size before the
	// storage cap is applied.
	OutputWidth  int `json:"output_width,omitempty"`
	OutputHeight int `json:"output_height,omitempty"`
}

// Detect runs edge detection and contour selection on a frame without
// rectifying or storing anything.
func (p *Pipeline) Detect(frame image.Image) (*Detection, error) {
	edges, err := imaging.DetectEdges(frame)
	if err != nil {
		return nil, err
	}

	result := &Detection{
		Width:  edges.Bounds().Dx(),
		Height: edges.Bounds().Dy(),
	}
	for _, v := range edges.Pix {
		if v == imaging.EdgeOn {
			result.EdgePixels++
		}
	}

	cand, ok := detection.FindDocument(edges)
	if !ok {
		return result, nil
	}

	corners := detection.OrderCorners(cand.Corners)
	result.Found = true
	result.Area = cand.Area
	result.Corners = &corners
	result.OutputWidth, result.OutputHeight = rectify.OutputSize(corners)
	return result, nil
}
