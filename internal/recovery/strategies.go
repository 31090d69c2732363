package recovery

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Retry tuning defaults.
const (
	DefaultMaxAttempts  = 3
	DefaultInitialDelay = 1000 * time.Millisecond
	DefaultMultiplier   = 2.0
	DefaultMaxDelay     = 30000 * time.Millisecond
)

// Retry re-attempts the failed operation with exponential backoff. It
// only applies to errors marked recoverable.
type Retry struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration

	// sleep is injectable so tests do not wait out real backoff.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetry builds a retry strategy with the default tuning.
func NewRetry() *Retry {
	return &Retry{
		MaxAttempts:  DefaultMaxAttempts,
		InitialDelay: DefaultInitialDelay,
		Multiplier:   DefaultMultiplier,
		MaxDelay:     DefaultMaxDelay,
	}
}

func (r *Retry) Name() string { return "retry" }

func (r *Retry) Applicable(err error, _ *Context) bool {
	return IsRecoverable(err)
}

// Recover calls the operation up to MaxAttempts times, sleeping between
// attempts with the delay doubling up to MaxDelay. Backoff honors
// context cancellation.
func (r *Retry) Recover(ctx context.Context, err error, rctx *Context, op Operation) Result {
	maxAttempts := r.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	delay := r.InitialDelay
	if delay <= 0 {
		delay = DefaultInitialDelay
	}

	lastErr := err
	attempts := 0
	for attempts < maxAttempts {
		if attempts > 0 {
			rctx.recordState(StateRetrying)
			if serr := r.doSleep(ctx, delay); serr != nil {
				rctx.recordState(StateExhausted)
				return Result{Strategy: r.Name(), Attempts: attempts, State: StateExhausted, Err: serr}
			}
			delay = r.nextDelay(delay)
		}
		attempts++

		value, operr := op(ctx)
		if operr == nil {
			rctx.recordState(StateSucceeded)
			return Result{Success: true, Value: value, Strategy: r.Name(), Attempts: attempts, State: StateSucceeded}
		}
		lastErr = operr
	}

	rctx.recordState(StateExhausted)
	return Result{
		Strategy: r.Name(),
		Attempts: attempts,
		State:    StateExhausted,
		Err:      fmt.Errorf("retry exhausted after %d attempts: %w", attempts, lastErr),
	}
}

func (r *Retry) nextDelay(d time.Duration) time.Duration {
	mult := r.Multiplier
	if mult <= 1 {
		mult = DefaultMultiplier
	}
	next := time.Duration(float64(d) * mult)
	maxDelay := r.MaxDelay
	if maxDelay <= 0 {
		maxDelay = DefaultMaxDelay
	}
	if next > maxDelay {
		return maxDelay
	}
	return next
}

func (r *Retry) doSleep(ctx context.Context, d time.Duration) error {
	if r.sleep != nil {
		return r.sleep(ctx, d)
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Alternative is one named fallback operation, optionally gated by a
// predicate on the original error.
type Alternative struct {
	Name string
	When func(err error, rctx *Context) bool
	Op   Operation
}

func (a Alternative) accepts(err error, rctx *Context) bool {
	return a.When == nil || a.When(err, rctx)
}

// Fallback tries an ordered list of alternative operations and returns
// the first that succeeds.
type Fallback struct {
	Alternatives []Alternative
}

// NewFallback builds a fallback strategy over the given alternatives.
func NewFallback(alts ...Alternative) *Fallback {
	return &Fallback{Alternatives: alts}
}

func (f *Fallback) Name() string { return "fallback" }

func (f *Fallback) Applicable(err error, rctx *Context) bool {
	for _, alt := range f.Alternatives {
		if alt.accepts(err, rctx) {
			return true
		}
	}
	return false
}

func (f *Fallback) Recover(ctx context.Context, err error, rctx *Context, _ Operation) Result {
	tried := 0
	for _, alt := range f.Alternatives {
		if !alt.accepts(err, rctx) {
			continue
		}
		rctx.recordState(StateFallingBack)
		tried++
		value, aerr := alt.Op(ctx)
		if aerr == nil {
			rctx.recordState(StateSucceeded)
			return Result{
				Success:  true,
				Value:    value,
				Strategy: f.Name() + ":" + alt.Name,
				Attempts: tried,
				State:    StateSucceeded,
			}
		}
	}
	rctx.recordState(StateExhausted)
	return Result{
		Strategy: f.Name(),
		Attempts: tried,
		State:    StateExhausted,
		Err:      fmt.Errorf("no fallback succeeded (%d tried): %w", tried, err),
	}
}

// Skip succeeds with a nil payload, signaling the caller to proceed
// without this stage's result. A nil predicate skips unconditionally.
type Skip struct {
	When func(err error, rctx *Context) bool
}

func (s *Skip) Name() string { return "skip" }

func (s *Skip) Applicable(err error, rctx *Context) bool {
	return s.When == nil || s.When(err, rctx)
}

func (s *Skip) Recover(_ context.Context, _ error, rctx *Context, _ Operation) Result {
	rctx.recordState(StateSkipped)
	return Result{Success: true, Strategy: s.Name(), State: StateSkipped}
}

// Composite tries each applicable child strategy in order and returns
// the first success; when every child declines or fails it reports an
// exhausted result naming what was tried.
type Composite struct {
	Children []Strategy
}

// NewComposite builds a composite over the given strategies.
func NewComposite(children ...Strategy) *Composite {
	return &Composite{Children: children}
}

func (c *Composite) Name() string { return "composite" }

func (c *Composite) Applicable(err error, rctx *Context) bool {
	for _, child := range c.Children {
		if child.Applicable(err, rctx) {
			return true
		}
	}
	return false
}

func (c *Composite) Recover(ctx context.Context, err error, rctx *Context, op Operation) Result {
	var tried []string
	attempts := 0
	for _, child := range c.Children {
		if !child.Applicable(err, rctx) {
			continue
		}
		res := child.Recover(ctx, err, rctx, op)
		attempts += res.Attempts
		if res.Success {
			res.Attempts = attempts
			return res
		}
		tried = append(tried, child.Name())
	}
	rctx.recordState(StateExhausted)
	if len(tried) == 0 {
		return Result{Strategy: c.Name(), State: StateExhausted, Err: fmt.Errorf("no applicable strategy: %w", err)}
	}
	return Result{
		Strategy: c.Name(),
		Attempts: attempts,
		State:    StateExhausted,
		Err:      fmt.Errorf("all strategies exhausted (tried %s): %w", strings.Join(tried, ", "), err),
	}
}
