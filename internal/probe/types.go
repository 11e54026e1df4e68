package probe

import (
	"errors"
	"fmt"
	"strings"
)

// Role is the kind of media a stream carries.
type Role string

const (
	RoleVideo Role = "video"
	RoleAudio Role = "audio"
	RoleOther Role = "other"
)

// roleOf maps ffprobe's codec_type to a Role.
func roleOf(codecType string) Role {
	switch strings.ToLower(codecType) {
	case "video":
		return RoleVideo
	case "audio":
		return RoleAudio
	default:
		return RoleOther
	}
}

// Stream is one decoded entry of ffprobe's "streams" array.
type Stream struct {
	Index         int
	CodecName     string
	CodecLongName string
	Role          Role
	Width         int
	Height        int
}

// Resolution returns "WxH", or "" for streams without a picture size.
func (s Stream) Resolution() string {
	if s.Width <= 0 || s.Height <= 0 {
		return ""
	}
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Sentinel errors wrapped by [Error].
var (
	ErrProbeFailed    = errors.New("ffprobe failed")
	ErrProbeMalformed = errors.New("malformed ffprobe output")
)

// Error reports a probe failure for one file. Kind is ErrProbeFailed or
// ErrProbeMalformed; Err carries the underlying cause.
type Error struct {
	Path   string
	Kind   error
	Err    error
	Stderr string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.Path, e.Err)
}

// Is lets errors.Is match the Kind sentinel.
func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }
