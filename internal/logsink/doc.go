// Package logsink provides the run log: timestamped lines appended to an info
// file and an error file, selected by level.
//
// Both files are written through zap cores, so concurrent callers never
// interleave partial lines. Failures to write are reported on the configured
// error output and never abort the caller.
package logsink
