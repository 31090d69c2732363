package recovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *Manager {
	m := NewManager()
	m.SetDefault(NewComposite(noSleep(NewRetry()), &Skip{}))
	return m
}

func TestManagerUsesRegisteredStrategyForKind(t *testing.T) {
	m := newTestManager()
	m.Register(KindRateLimit, NewFallback(Alternative{
		Name: "deterministic",
		Op:   func(context.Context) (any, error) { return "fallback result", nil },
	}))

	err := NewFault(KindRateLimit, "assist", true, errors.New("429 too many requests"))
	res := m.Recover(context.Background(), err, &Context{JobID: "job-1"}, nil)

	require.True(t, res.Success)
	assert.Equal(t, "fallback:deterministic", res.Strategy)
	assert.Equal(t, "fallback result", res.Value)
}

func TestManagerDefaultCompositeRetriesThenSkips(t *testing.T) {
	m := newTestManager()
	calls := 0
	op := func(context.Context) (any, error) {
		calls++
		return nil, errors.New("persistent failure")
	}

	rctx := &Context{JobID: "job-2", FilePath: "src/App.jsx", Operation: "semantic-pass"}
	res := m.Recover(context.Background(), recoverableErr("initial"), rctx, op)

	assert.True(t, res.Success)
	assert.Nil(t, res.Value)
	assert.Equal(t, "skip", res.Strategy)
	assert.Equal(t, 3, calls)

	states := rctx.States()
	require.NotEmpty(t, states)
	assert.Equal(t, StateAttempting, states[0])
	assert.Equal(t, StateSkipped, states[len(states)-1])
	assert.Contains(t, states, StateRetrying)
}

func TestManagerNonRecoverableErrorSkipsRetry(t *testing.T) {
	m := newTestManager()
	calls := 0
	op := func(context.Context) (any, error) {
		calls++
		return "never", nil
	}

	err := NewFault(KindParse, "parse", false, errors.New("unreadable file"))
	res := m.Recover(context.Background(), err, &Context{}, op)

	// Retry declines non-recoverable errors; the operation is never rerun.
	assert.True(t, res.Success)
	assert.Nil(t, res.Value)
	assert.Equal(t, "skip", res.Strategy)
	assert.Equal(t, 0, calls)
}

func TestManagerRefusesConfigFaults(t *testing.T) {
	m := newTestManager()
	calls := 0
	op := func(context.Context) (any, error) {
		calls++
		return "never", nil
	}

	err := NewFault(KindConfig, "load-rules", false, errors.New("malformed rule set"))
	res := m.Recover(context.Background(), err, &Context{}, op)

	assert.False(t, res.Success)
	assert.Equal(t, StateExhausted, res.State)
	assert.Equal(t, 0, calls)
	assert.ErrorIs(t, res.Err, err)
}

func TestManagerNeverPanics(t *testing.T) {
	m := newTestManager()
	op := func(context.Context) (any, error) {
		panic("operation blew up")
	}

	res := m.Recover(context.Background(), recoverableErr("initial"), &Context{}, op)

	assert.False(t, res.Success)
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "operation blew up")
}

func TestManagerNoApplicableStrategy(t *testing.T) {
	m := NewManager()
	m.SetDefault(&Skip{When: func(error, *Context) bool { return false }})

	res := m.Recover(context.Background(), errors.New("opaque"), nil, nil)

	assert.False(t, res.Success)
	assert.Equal(t, StateExhausted, res.State)
}

func TestManagerRecoverHonorsNilContext(t *testing.T) {
	m := newTestManager()
	res := m.Recover(context.Background(), recoverableErr("x"), nil, func(context.Context) (any, error) {
		return 42, nil
	})
	assert.True(t, res.Success)
	assert.Equal(t, 42, res.Value)
	assert.Equal(t, 1, res.Attempts)
}

func TestClassify(t *testing.T) {
	fault := NewFault(KindParse, "parse", false, errors.New("bad"))
	assert.Equal(t, KindParse, Classify(fault).Kind)

	wrapped := NewFault(KindRateLimit, "assist", true, errors.New("429"))
	assert.True(t, IsRecoverable(wrapped))

	assert.True(t, Classify(context.DeadlineExceeded).Recoverable)
	assert.False(t, Classify(context.Canceled).Recoverable)
	assert.False(t, IsRecoverable(errors.New("unknown")))
	assert.False(t, IsRecoverable(nil))
}

func TestRetryDefaultsAreSane(t *testing.T) {
	r := NewRetry()
	assert.Equal(t, 3, r.MaxAttempts)
	assert.Equal(t, time.Second, r.InitialDelay)
	assert.Equal(t, 30*time.Second, r.MaxDelay)
}
