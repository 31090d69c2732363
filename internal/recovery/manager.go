package recovery

import (
	"context"
	"fmt"
)

// Manager selects a recovery strategy by error kind and runs it. Kinds
// without a registered strategy fall back to the default, a composite of
// retry then skip.
type Manager struct {
	strategies map[Kind]Strategy
	fallback   Strategy
}

// NewManager builds a manager with the default fallback strategy.
func NewManager() *Manager {
	return &Manager{
		strategies: make(map[Kind]Strategy),
		fallback:   NewComposite(NewRetry(), &Skip{}),
	}
}

// Register maps an error kind to a strategy, replacing any earlier one.
func (m *Manager) Register(kind Kind, s Strategy) {
	m.strategies[kind] = s
}

// SetDefault replaces the fallback strategy used for unmapped kinds.
func (m *Manager) SetDefault(s Strategy) {
	m.fallback = s
}

// Recover classifies the error, picks a strategy, and runs it. It never
// panics: a panicking operation or strategy becomes an exhausted Result.
func (m *Manager) Recover(ctx context.Context, err error, rctx *Context, op Operation) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{
				Strategy: "none",
				State:    StateExhausted,
				Err:      fmt.Errorf("recovery panicked: %v", r),
			}
		}
	}()

	if rctx == nil {
		rctx = &Context{}
	}
	rctx.recordState(StateAttempting)

	fault := Classify(err)
	if fault.Kind == KindConfig {
		// Configuration faults are fatal; surfacing them beats any retry.
		rctx.recordState(StateExhausted)
		return Result{Strategy: "none", State: StateExhausted, Err: err}
	}
	strategy := m.strategies[fault.Kind]
	if strategy == nil || !strategy.Applicable(err, rctx) {
		strategy = m.fallback
	}
	if strategy == nil || !strategy.Applicable(err, rctx) {
		rctx.recordState(StateExhausted)
		return Result{Strategy: "none", State: StateExhausted, Err: err}
	}
	return strategy.Recover(ctx, err, rctx, op)
}
