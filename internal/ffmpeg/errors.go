package ffmpeg

import (
	"fmt"
	"regexp"
	"strings"
)

// EncodeError reports a failed encode. Stderr holds ffmpeg's diagnostic
// output; the temp output it may have left behind is not a deliverable.
type EncodeError struct {
	Path   string
	Stderr string
	Err    error
}

func (e *EncodeError) Error() string {
	if hint := e.Hint(); hint != "" {
		return fmt.Sprintf("encode %s: %v (%s)", e.Path, e.Err, hint)
	}
	return fmt.Sprintf("encode %s: %v", e.Path, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// Hint classifies Stderr into a short human-readable cause, or "".
func (e *EncodeError) Hint() string {
	return Diagnose(e.Stderr)
}

// Tail returns the last n non-empty lines of Stderr.
func (e *EncodeError) Tail(n int) []string {
	trimmed := strings.TrimSpace(e.Stderr)
	if trimmed == "" {
		return nil
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}

// Pre-compiled regexes for classifying ffmpeg stderr. Checked in order by
// [Diagnose]; the first match wins.
var diagnoses = []struct {
	re   *regexp.Regexp
	hint string
}{
	{regexp.MustCompile(`(?i)Unknown encoder|Encoder .* not found`), "encoder unavailable (ffmpeg built without libx265?)"},
	{regexp.MustCompile(`(?i)Invalid data found when processing input|moov atom not found|EBML header parsing failed`), "input is corrupt or truncated"},
	{regexp.MustCompile(`(?i)No such file or directory|Permission denied`), "cannot open input or output"},
	{regexp.MustCompile(`Too many packets buffered for output stream`), "mux queue overflow"},
	{regexp.MustCompile(`(?i)Non-monotonous DTS|non monotonically increasing dts|pts has no value|Timestamps are unset`), "timestamp discontinuity"},
	{regexp.MustCompile(`(?i)No space left on device`), "disk full"},
}

// Diagnose returns a short cause for a failed encode, or "" if stderr
// matches nothing known.
func Diagnose(stderr string) string {
	for _, d := range diagnoses {
		if d.re.MatchString(stderr) {
			return d.hint
		}
	}
	return ""
}
