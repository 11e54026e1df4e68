package pipeline

import (
	"errors"
	"fmt"
)

// ErrVerifyFailed is returned when a finished encode does not re-probe as
// the target codec.
var ErrVerifyFailed = errors.New("output verification failed")

// Processing stages named in a [StageError].
const (
	StageProbe  = "probe"
	StageDecide = "decide"
	StageEncode = "encode"
	StageVerify = "verify"
	StageRename = "rename"
)

// StageError ties a per-file failure to the file and the stage it hit.
type StageError struct {
	Path  string
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Path, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
