// Package detection finds the outline of a photographed document.
//
// The input is a binary edge map (see imaging.DetectEdges). The output is a
// four-cornered Candidate with its corners assigned to fixed roles, ready for
// perspective rectification.
//
// # Algorithm Overview
//
//  1. Contour tracing: Suzuki-Abe border following over the edge map. Only
//     outermost borders are kept; holes and anything nested inside another
//     border are ignored. Straight runs are compressed to their end points.
//  2. Area filter: contours enclosing less than MinContourArea are noise.
//  3. Polygon approximation: Douglas-Peucker on the closed curve with a
//     tolerance of ApproxEpsilonRatio times the perimeter.
//  4. Selection: among approximations with exactly four vertices, the one
//     whose contour encloses the largest area wins. Ties go to the contour
//     traced first.
//  5. Corner ordering: see OrderCorners.
//
// Finding nothing is a normal outcome, reported through the boolean result of
// FindDocument and SelectCandidate rather than an error.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//
// Contour points are pixel centres, so a traced border of a rectangle whose
// outline runs from (20,20) to (80,60) encloses 60*40 = 2400 square pixels.
//
// # Limitations
//
// The detector assumes a reasonably clean, well-lit document that contrasts
// with its background. Documents that touch the frame border, are partially
// occluded, or sit on a background of similar brightness usually produce no
// four-vertex candidate, and the caller falls back to the unrectified photo.
package detection
