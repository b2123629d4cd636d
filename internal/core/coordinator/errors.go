package coordinator

import (
	"errors"
	"fmt"
	"time"
)

var errNoJobID = errors.New("engine returned no job id")

// ErrUnknownJob and ErrStillQueued surface through OperationError when a
// command names an id the engine has never been told about.
var (
	ErrUnknownJob  = errors.New("no such job")
	ErrStillQueued = errors.New("job has not been submitted to the engine yet")
)

// DispatchError reports a failed submission of the queue head. The offending
// specification is discarded; the queue continues with the next head.
type DispatchError struct {
	SpecID string
	Name   string
	Stage  string // "create" or "start"
	Err    error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch %q failed at %s: %v", e.Name, e.Stage, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// OperationError reports a failed operator command. No state is rolled back
// because none was optimistically set.
type OperationError struct {
	JobID string
	Op    string
	Err   error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.JobID, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// PollError reports a failed list or detail fetch. It flips the
// connectivity indicator; the mirror keeps its last known contents.
type PollError struct {
	Op  string // "list" or "detail"
	Err error
}

func (e *PollError) Error() string {
	return fmt.Sprintf("poll %s: %v", e.Op, e.Err)
}

func (e *PollError) Unwrap() error { return e.Err }

// LastError is the persistent error banner. It survives until the operator
// dismisses it; no later success clears it.
type LastError struct {
	Kind       string    `json:"kind"` // "dispatch" or "operation"
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}
