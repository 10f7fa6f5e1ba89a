// Package imaging provides the pixel-level stages of the document scanner.
//
// This package turns raw captured frames into the inputs and outputs of the
// detection pipeline: frame decoding, grayscale conversion, Canny edge maps,
// manual crops, Otsu binarization and the size-capped JPEG encoding used for
// every stored scan. All operations work with standard Go image.Image types
// and use a coordinate system where (0,0) is at the top-left corner, X
// increases rightward, and Y increases downward.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// # Frames
//
// A frame is any image.Image. Every stage returns a new image and never
// modifies its input, so a frame can be handed to the next stage without
// copying. Frames decoded from disk honour EXIF orientation, which matters for
// phone photos that are stored sideways.
//
// # Edge Detection
//
// DetectEdges follows the classic Canny recipe with fixed parameters:
//   - Grayscale: ITU-R BT.601 luma, rounded to 8 bits
//   - Smoothing: 5x5 binomial Gaussian kernel
//   - Gradients: 3x3 Sobel, L1 magnitude
//   - Hysteresis: low 75, high 200
//
// The thresholds are tuned heuristics and are exposed as constants, not
// parameters.
//
// # Output Encoding
//
// Encoder caps every image to a maximum pixel footprint (downscale only,
// aspect ratio preserved) before JPEG encoding. A Profile selects the JPEG
// quality and whether the image is binarized first.
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - Empty frames (zero width or height)
//   - Crop regions outside the frame or with x1 >= x2 or y1 >= y2
//   - File I/O and decoding errors
//   - Encoding errors
package imaging
