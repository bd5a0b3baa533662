// Package dirstat walks image trees and aggregates per-directory statistics.
//
// The ordered Walker recurses depth-first and finishes every subdirectory
// before handing a directory's own files to the caller, so summaries of
// parents are always emitted after those of their descendants. Survey uses
// fastwalk for an unordered, parallel pre-count of the same tree.
package dirstat
