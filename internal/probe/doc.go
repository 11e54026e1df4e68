// Package probe provides ffprobe-based stream inspection. A single JSON call
// per file yields the ordered stream list; the planner picks the primary
// video and audio streams from it.
//
// Failures are reported as [*Error] values whose kind is [ErrProbeFailed]
// (ffprobe exited non-zero or could not start) or [ErrProbeMalformed]
// (output did not decode). Both are per-file and never fatal to a batch.
package probe
