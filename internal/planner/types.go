package planner

import (
	"errors"

	"github.com/backmassage/x265batch/internal/probe"
)

// Action describes the per-file processing decision.
type Action int

const (
	ActionTranscode Action = iota
	ActionSkip
)

func (a Action) String() string {
	switch a {
	case ActionTranscode:
		return "transcode"
	case ActionSkip:
		return "skip"
	default:
		return "unknown"
	}
}

// TargetCodec is the codec identifier treated as already compliant.
const TargetCodec = "h265"

// targetAliases are the codec names ffprobe and muxers use for the target.
var targetAliases = map[string]bool{
	"h265": true,
	"hevc": true,
}

// ErrInsufficientStreams means the probe returned fewer than two streams,
// usually a hardsubbed or oddly muxed file. The file is skipped.
var ErrInsufficientStreams = errors.New("fewer than two streams (video and audio required)")

// Decision is the outcome of [Decide] for one file.
type Decision struct {
	Action Action
	Reason string
	Video  probe.Stream // primary video stream
	Audio  probe.Stream // primary audio stream, reported only
}
