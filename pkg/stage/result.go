// Package stage carries the outcome of one pipeline stage so a skipped
// stage can never be mistaken for a successful one.
package stage

import (
	"errors"
	"fmt"
)

// Status is the coarse outcome of a stage.
type Status int

const (
	// Succeeded means the stage produced its output.
	Succeeded Status = iota
	// NotReady means an earlier stage has not populated the input yet.
	// Re-running the stages in order recovers from it.
	NotReady
	// Failed means the stage hit an error the run cannot survive.
	Failed
)

func (s Status) String() string {
	switch s {
	case Succeeded:
		return "succeeded"
	case NotReady:
		return "not-ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// ErrNotReady is what Result.AsError wraps for NotReady outcomes.
var ErrNotReady = errors.New("stage not ready")

// Result reports how a stage ended.
type Result struct {
	Stage  string
	Status Status
	Detail string // diagnostic for NotReady
	Err    error  // cause for Failed
}

// Done reports success.
func Done(name string) Result { return Result{Stage: name, Status: Succeeded} }

// Skip reports that the precondition of name was not met.
func Skip(name, detail string) Result {
	return Result{Stage: name, Status: NotReady, Detail: detail}
}

// Fail reports a fatal error.
func Fail(name string, err error) Result {
	return Result{Stage: name, Status: Failed, Err: err}
}

// OK is true only for Succeeded.
func (r Result) OK() bool { return r.Status == Succeeded }

// AsError converts the result into an error; nil only for Succeeded.
func (r Result) AsError() error {
	switch r.Status {
	case Succeeded:
		return nil
	case NotReady:
		return fmt.Errorf("%s: %w: %s", r.Stage, ErrNotReady, r.Detail)
	default:
		if r.Err == nil {
			return fmt.Errorf("%s: failed", r.Stage)
		}
		return fmt.Errorf("%s: %w", r.Stage, r.Err)
	}
}
