// Package resizer mirrors an input tree under an output root, downscaling
// images that exceed a bounding box and copying everything else verbatim.
package resizer
