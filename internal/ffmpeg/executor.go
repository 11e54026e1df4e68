package ffmpeg

import (
	"bytes"
	"io"
	"os"
	"os/exec"
	"path/filepath"
)

// ProgressRunner is the liveness display paired with one encode. Run must
// return promptly once done is closed.
type ProgressRunner interface {
	Run(done <-chan struct{})
}

// Encoder runs the fixed-profile encode. Progress, when set, builds the
// reporter for each encode from the source file's base name.
type Encoder struct {
	Bin      string
	Verbose  bool
	Progress func(label string) ProgressRunner
	// Stderr, when non-nil, receives a live copy of ffmpeg's stderr.
	Stderr io.Writer
}

// Encode transcodes src into dst and blocks until ffmpeg exits. The
// progress reporter runs for the whole call and is signalled exactly once
// on both the success and the failure path. There is no timeout and no
// retry: a failed encode returns an [*EncodeError].
func (e *Encoder) Encode(src, dst string) error {
	bin := e.Bin
	if bin == "" {
		bin = "ffmpeg"
	}
	args := Build(bin, src, dst, e.Verbose)
	cmd := exec.Command(args[0], args[1:]...)

	var stderrBuf bytes.Buffer
	if e.Stderr != nil {
		cmd.Stderr = io.MultiWriter(&stderrBuf, e.Stderr)
	} else {
		cmd.Stderr = &stderrBuf
	}

	done := make(chan struct{})
	stopped := make(chan struct{})
	if e.Progress != nil {
		reporter := e.Progress(filepath.Base(src))
		go func() {
			defer close(stopped)
			reporter.Run(done)
		}()
	} else {
		close(stopped)
	}

	err := cmd.Run()
	close(done)
	<-stopped

	if err != nil {
		return &EncodeError{Path: src, Stderr: stderrBuf.String(), Err: err}
	}
	return nil
}

// Discard removes a temp output left by a failed or rejected encode.
func Discard(path string) {
	_ = os.Remove(path)
}
