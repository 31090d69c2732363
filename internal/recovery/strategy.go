// Package recovery is a strategy-selection framework for failed pipeline
// stages: retry with backoff, fallback operations, skipping, and
// composites of those, chosen by error kind. All failure is communicated
// through Result values; nothing in this package panics or re-panics.
package recovery

import "context"

// State is one step of the recovery state machine. Every recovery starts
// at Attempting and ends at Succeeded, Skipped, or Exhausted; Retrying
// and FallingBack mark the transitions in between.
type State string

const (
	StateAttempting  State = "attempting"
	StateSucceeded   State = "succeeded"
	StateRetrying    State = "retrying"
	StateFallingBack State = "falling-back"
	StateSkipped     State = "skipped"
	StateExhausted   State = "exhausted"
)

// Operation is the fallible work a strategy may re-attempt.
type Operation func(ctx context.Context) (any, error)

// Context carries what is known about the failed operation. It is
// created per failure and never persisted; strategies append the states
// they pass through.
type Context struct {
	JobID     string
	FilePath  string
	Operation string
	Metadata  map[string]any

	states []State
}

func (c *Context) recordState(s State) {
	if c == nil {
		return
	}
	c.states = append(c.states, s)
}

// States returns the state transitions recorded during recovery.
func (c *Context) States() []State {
	if c == nil {
		return nil
	}
	return c.states
}

// Result is the outcome of a recovery attempt. Success with a nil Value
// means the stage was skipped and the caller should proceed without it.
type Result struct {
	Success  bool
	Value    any
	Strategy string
	Attempts int
	State    State
	Err      error
}

// Strategy is one recovery policy. Applicable lets a strategy decline an
// error before any work happens; Recover must not panic.
type Strategy interface {
	Name() string
	Applicable(err error, rctx *Context) bool
	Recover(ctx context.Context, err error, rctx *Context, op Operation) Result
}
