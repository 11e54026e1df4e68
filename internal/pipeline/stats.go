package pipeline

import (
	"github.com/hashicorp/go-multierror"

	"github.com/backmassage/x265batch/internal/planner"
)

// State is a candidate's position in its processing lifecycle.
type State int

const (
	StateDiscovered State = iota
	StateProbed
	StateDecidedSkip
	StateDecidedTranscode
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDiscovered:
		return "discovered"
	case StateProbed:
		return "probed"
	case StateDecidedSkip:
		return "decided:skip"
	case StateDecidedTranscode:
		return "decided:transcode"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the outcome of one candidate. State is always Completed or
// Failed once the candidate has been processed.
type Result struct {
	Path   string
	State  State
	Action planner.Action
	Output string // final output path; empty unless a transcode was planned
	Note   string // why a Completed candidate produced no output, if it didn't
	Err    error  // *StageError when State is Failed
}

// RunStats tracks aggregate counters and byte totals across a batch run.
type RunStats struct {
	Total            int
	Current          int
	Transcoded       int
	Skipped          int
	Failed           int
	TotalInputBytes  int64
	TotalOutputBytes int64

	Results []Result
	Errs    *multierror.Error
}

// SpaceSaved returns the aggregate byte difference between inputs and outputs.
// Positive means outputs are smaller; negative means they grew.
func (s *RunStats) SpaceSaved() int64 {
	return s.TotalInputBytes - s.TotalOutputBytes
}

// Err returns the aggregated per-file failures, or nil if none failed.
func (s *RunStats) Err() error {
	return s.Errs.ErrorOrNil()
}

func (s *RunStats) record(r Result) {
	s.Results = append(s.Results, r)
	if r.State == StateFailed {
		s.Failed++
		s.Errs = multierror.Append(s.Errs, r.Err)
	}
}
