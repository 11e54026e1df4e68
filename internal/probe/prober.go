package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Prober runs ffprobe. Bin defaults to "ffprobe" on PATH.
type Prober struct {
	Bin string
}

// NewProber returns a Prober using bin.
func NewProber(bin string) *Prober {
	return &Prober{Bin: bin}
}

// Probe runs a single ffprobe JSON call against path and returns its
// streams in ffprobe order. A non-zero exit yields an [Error] of kind
// ErrProbeFailed; output that does not decode yields ErrProbeMalformed.
func (p *Prober) Probe(ctx context.Context, path string) ([]Stream, error) {
	bin := p.Bin
	if bin == "" {
		bin = "ffprobe"
	}
	cmd := exec.CommandContext(ctx, bin,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, &Error{Path: path, Kind: ErrProbeFailed, Err: err, Stderr: stderr.String()}
	}

	streams, err := ParseJSON(out)
	if err != nil {
		return nil, &Error{Path: path, Kind: ErrProbeMalformed, Err: err}
	}
	return streams, nil
}

// ParseJSON converts raw ffprobe JSON output into streams.
// Exported for testing without a real ffprobe binary.
func ParseJSON(data []byte) ([]Stream, error) {
	var top map[string]interface{}
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("parse ffprobe JSON: %w", err)
	}
	rawStreams, ok := top["streams"]
	if !ok {
		return nil, errors.New(`no "streams" key in ffprobe output`)
	}
	if _, isList := rawStreams.([]interface{}); !isList {
		return nil, fmt.Errorf(`"streams" is %T, want a list`, rawStreams)
	}

	var wire []ffprobeStream
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &wire,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(rawStreams); err != nil {
		return nil, fmt.Errorf("decode streams: %w", err)
	}

	streams := make([]Stream, 0, len(wire))
	for i := range wire {
		streams = append(streams, convertStream(&wire[i]))
	}
	return streams, nil
}

// --- ffprobe JSON wire type ---

// ffprobeStream keeps only the fields we read. Weak decoding accepts
// numbers that ffprobe sometimes emits as strings.
type ffprobeStream struct {
	Index         int    `mapstructure:"index"`
	CodecName     string `mapstructure:"codec_name"`
	CodecLongName string `mapstructure:"codec_long_name"`
	CodecType     string `mapstructure:"codec_type"`
	Width         int    `mapstructure:"width"`
	Height        int    `mapstructure:"height"`
}

func convertStream(s *ffprobeStream) Stream {
	return Stream{
		Index:         s.Index,
		CodecName:     strings.ToLower(strings.TrimSpace(s.CodecName)),
		CodecLongName: s.CodecLongName,
		Role:          roleOf(s.CodecType),
		Width:         s.Width,
		Height:        s.Height,
	}
}
