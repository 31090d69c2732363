package recovery

import (
	"context"
	"errors"
	"fmt"
)

// Kind places an error in the migration's failure taxonomy. Strategies
// are selected by kind.
type Kind string

const (
	KindParse      Kind = "parse"
	KindTransform  Kind = "transform"
	KindAssist     Kind = "assist"
	KindRateLimit  Kind = "rate-limit"
	KindInfra      Kind = "infra"
	KindConfig     Kind = "config"
	KindValidation Kind = "validation"
)

// Fault is a classified error: what failed, which kind of failure it is,
// and whether re-attempting it can possibly help. Configuration faults
// are never recoverable.
type Fault struct {
	Kind        Kind
	Op          string
	Recoverable bool
	Err         error
}

// NewFault wraps err with a kind and recoverability.
func NewFault(kind Kind, op string, recoverable bool, err error) *Fault {
	return &Fault{Kind: kind, Op: op, Recoverable: recoverable, Err: err}
}

func (f *Fault) Error() string {
	if f.Op != "" {
		return fmt.Sprintf("%s: %s: %v", f.Op, f.Kind, f.Err)
	}
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// Classify maps any error into the taxonomy. Faults pass through;
// context timeouts are transient infrastructure failures; cancellation
// and everything unknown is non-recoverable, stages mark their own
// faults recoverable explicitly.
func Classify(err error) *Fault {
	var fault *Fault
	if errors.As(err, &fault) {
		return fault
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Fault{Kind: KindInfra, Recoverable: true, Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &Fault{Kind: KindInfra, Recoverable: false, Err: err}
	}
	return &Fault{Kind: KindInfra, Recoverable: false, Err: err}
}

// IsRecoverable reports whether a retry could help.
func IsRecoverable(err error) bool {
	if err == nil {
		return false
	}
	return Classify(err).Recoverable
}
