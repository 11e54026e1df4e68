// Package pipeline orchestrates file discovery, per-file processing, and
// batch summary reporting.
//
// A run discovers every regular file under the root once, classifies them
// into a sorted read-only candidate set, then walks each candidate through
//
//	discovered → probed → decided:skip | decided:transcode → completed | failed
//
// strictly one file at a time. A transcode writes to a temp file beside
// the source, is re-probed to confirm the output codec, and only then is
// renamed to "<base>.mkv". Any stage error fails that file alone.
package pipeline
