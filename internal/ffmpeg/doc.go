// Package ffmpeg builds and executes the fixed HEVC encode.
//
// Commands are built as argument vectors and run directly, never through a
// shell. [Encoder.Encode] pairs every encode with a progress reporter and
// turns a non-zero exit into an [*EncodeError] carrying ffmpeg's stderr.
package ffmpeg
