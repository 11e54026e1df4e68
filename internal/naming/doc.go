// Package naming builds output paths: the canonical "<base>.mkv" next to the
// source, the temp name an encode writes to first, and the in-run collision
// resolver that keeps two sources from claiming one output.
package naming
