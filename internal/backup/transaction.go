package backup

import (
	"errors"
	"fmt"
	"sync"
)

// ErrTransactionFinished is returned when Commit or Rollback is called
// on a transaction that was already committed or rolled back.
var ErrTransactionFinished = errors.New("backup transaction already finished")

type txState int

const (
	txActive txState = iota
	txCommitted
	txRolledBack
)

func (s txState) String() string {
	switch s {
	case txCommitted:
		return "committed"
	case txRolledBack:
		return "rolled back"
	default:
		return "active"
	}
}

// Transaction pairs one job's snapshot with a single-shot outcome:
// Commit discards the snapshot after a successful run, Rollback hands
// the original contents back and consumes it. Exactly one of the two
// may be called, exactly once.
type Transaction struct {
	mgr   *Manager
	jobID string

	mu    sync.Mutex
	state txState
}

// Begin snapshots the files under jobID and opens a transaction over
// the snapshot.
func (m *Manager) Begin(jobID string, files map[string]string, meta Meta) (*Transaction, error) {
	if err := m.CreateBackup(jobID, files, meta); err != nil {
		return nil, err
	}
	return &Transaction{mgr: m, jobID: jobID}, nil
}

// JobID returns the job the transaction guards.
func (t *Transaction) JobID() string { return t.jobID }

// Commit deletes the snapshot. The migrated files are the new truth.
func (t *Transaction) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != txActive {
		return fmt.Errorf("%w: commit after %s (job %s)", ErrTransactionFinished, t.state, t.jobID)
	}
	t.state = txCommitted
	t.mgr.CleanupBackup(t.jobID)
	return nil
}

// Rollback returns the original contents and consumes the snapshot.
func (t *Transaction) Rollback() (map[string]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != txActive {
		return nil, fmt.Errorf("%w: rollback after %s (job %s)", ErrTransactionFinished, t.state, t.jobID)
	}
	files, err := t.mgr.RestoreBackup(t.jobID)
	if err != nil {
		return nil, err
	}
	t.state = txRolledBack
	t.mgr.CleanupBackup(t.jobID)
	return files, nil
}
