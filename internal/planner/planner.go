package planner

import (
	"fmt"
	"strings"

	"github.com/backmassage/x265batch/internal/probe"
)

// Decide picks the primary video and audio streams and reports whether the
// file needs a transcode. Only the video codec gates the decision: a file
// whose audio is not AAC but whose video is already HEVC is left alone.
//
// The primary video stream is the first stream with the video role, falling
// back to index 0; the primary audio stream is the first audio-role stream,
// falling back to index 1.
func Decide(streams []probe.Stream) (Decision, error) {
	if len(streams) < 2 {
		return Decision{}, fmt.Errorf("%w: got %d", ErrInsufficientStreams, len(streams))
	}

	d := Decision{
		Video: primary(streams, probe.RoleVideo, 0),
		Audio: primary(streams, probe.RoleAudio, 1),
	}

	if IsTargetCodec(d.Video.CodecName) {
		d.Action = ActionSkip
		d.Reason = fmt.Sprintf("video already %s", d.Video.CodecName)
		return d, nil
	}

	d.Action = ActionTranscode
	codec := d.Video.CodecName
	if codec == "" {
		codec = "unknown"
	}
	d.Reason = fmt.Sprintf("video is %s", codec)
	return d, nil
}

// IsTargetCodec reports whether codec names the target codec.
func IsTargetCodec(codec string) bool {
	return targetAliases[strings.ToLower(strings.TrimSpace(codec))]
}

func primary(streams []probe.Stream, role probe.Role, fallback int) probe.Stream {
	for _, s := range streams {
		if s.Role == role {
			return s
		}
	}
	return streams[fallback]
}
