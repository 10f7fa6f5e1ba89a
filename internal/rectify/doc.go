// Package rectify flattens a photographed document into an axis-aligned
// image.
//
// Given the four ordered corners of the document in the photo, Rectify
// computes the output size from the edge lengths, derives the perspective
// transform (homography) that maps the corners onto the output rectangle, and
// resamples the photo through the inverse of that transform.
//
// # Output Size
//
// The output width is the longer of the top and bottom edges, the height the
// longer of the left and right edges, each rounded to the nearest pixel with
// a minimum of 1. The corners map onto (0,0), (w-1,0), (w-1,h-1) and (0,h-1)
// using the unrounded lengths.
//
// # Sampling
//
// Each output pixel is sampled with bilinear interpolation. Positions that
// fall outside the photo take the fill color.
//
// # Error Handling
//
// Corners that cannot define a perspective transform, such as collinear or
// coincident points, return ErrDegenerateTransform.
package rectify
