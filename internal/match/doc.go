// Package match turns a frame and a template into a list of occurrence
// rectangles.
//
// Extraction is a fixed four-step pipeline: correlate (CCOEFF_NORMED), zero
// every score below the template threshold, collect the remaining cells in
// row-major order, and cluster them in that order using the template's
// smaller side as the merge distance.
//
// Two correlator backends exist. "native" is pure Go and always available.
// "opencv" wraps gocv and is only compiled with the gocv build tag.
package match
