// Package backup snapshots original file contents before a migration
// mutates them and restores them on rollback. Snapshots live in process
// memory for the duration of a job; persistence across restarts is
// deliberately not offered.
package backup

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// DefaultLimit caps how many job snapshots are held at once.
const DefaultLimit = 10

var (
	// ErrDuplicateBackup is returned when a live snapshot already exists
	// for the job. This is a usage error, never silently overwritten.
	ErrDuplicateBackup = errors.New("backup already exists")
	// ErrNoBackup is returned when no snapshot exists for the job.
	ErrNoBackup = errors.New("no backup found")
)

// FileBackup is one file's pre-transformation content.
type FileBackup struct {
	Content string
	SavedAt time.Time
}

// Meta describes the job a snapshot belongs to.
type Meta struct {
	SourceFramework string
	TargetFramework string
	FileCount       int
}

// Snapshot is every original file of one job, keyed by path.
type Snapshot struct {
	JobID     string
	CreatedAt time.Time
	Files     map[string]FileBackup
	Meta      Meta
}

// Info is the listing view of a snapshot, without file contents.
type Info struct {
	JobID     string
	CreatedAt time.Time
	FileCount int
	Meta      Meta
}

// Manager holds job snapshots. Operations on different job ids never
// interfere; calls for the same job id are expected to be sequenced by a
// Transaction.
type Manager struct {
	mu        sync.Mutex
	snapshots map[string]*Snapshot
	order     []string
	limit     int
}

// NewManager builds a manager holding at most limit snapshots; zero or
// negative means DefaultLimit. When the cap is exceeded the oldest
// snapshot is evicted.
func NewManager(limit int) *Manager {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Manager{
		snapshots: make(map[string]*Snapshot),
		limit:     limit,
	}
}

// CreateBackup snapshots the given files under jobID. A live snapshot
// for the same job is a usage error.
func (m *Manager) CreateBackup(jobID string, files map[string]string, meta Meta) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.snapshots[jobID]; exists {
		return fmt.Errorf("%w for job %s", ErrDuplicateBackup, jobID)
	}

	now := time.Now()
	snap := &Snapshot{
		JobID:     jobID,
		CreatedAt: now,
		Files:     make(map[string]FileBackup, len(files)),
		Meta:      meta,
	}
	snap.Meta.FileCount = len(files)
	for path, content := range files {
		snap.Files[path] = FileBackup{Content: content, SavedAt: now}
	}

	m.snapshots[jobID] = snap
	m.order = append(m.order, jobID)
	m.evictLocked()
	return nil
}

// evictLocked drops the oldest snapshots until the cap holds.
func (m *Manager) evictLocked() {
	for len(m.order) > m.limit {
		oldest := m.order[0]
		m.order = m.order[1:]
		delete(m.snapshots, oldest)
	}
}

// RestoreBackup returns the full original-content map for the job.
func (m *Manager) RestoreBackup(jobID string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap, ok := m.snapshots[jobID]
	if !ok {
		return nil, fmt.Errorf("%w for job %s", ErrNoBackup, jobID)
	}
	files := make(map[string]string, len(snap.Files))
	for path, fb := range snap.Files {
		files[path] = fb.Content
	}
	return files, nil
}

// RestoreFile returns one file's original content.
func (m *Manager) RestoreFile(jobID, path string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap, ok := m.snapshots[jobID]
	if !ok {
		return "", fmt.Errorf("%w for job %s", ErrNoBackup, jobID)
	}
	fb, ok := snap.Files[path]
	if !ok {
		return "", fmt.Errorf("%w: job %s has no entry for %s", ErrNoBackup, jobID, path)
	}
	return fb.Content, nil
}

// CleanupBackup deletes the job's snapshot. Idempotent: cleaning up a
// missing snapshot is not an error.
func (m *Manager) CleanupBackup(jobID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.snapshots[jobID]; !ok {
		return
	}
	delete(m.snapshots, jobID)
	for i, id := range m.order {
		if id == jobID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// HasBackup reports whether a live snapshot exists for the job.
func (m *Manager) HasBackup(jobID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.snapshots[jobID]
	return ok
}

// GetBackupInfo returns the snapshot's listing view.
func (m *Manager) GetBackupInfo(jobID string) (Info, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap, ok := m.snapshots[jobID]
	if !ok {
		return Info{}, false
	}
	return infoOf(snap), true
}

// ListBackups returns every live snapshot's listing view, oldest first.
func (m *Manager) ListBackups() []Info {
	m.mu.Lock()
	defer m.mu.Unlock()

	infos := make([]Info, 0, len(m.order))
	for _, id := range m.order {
		if snap, ok := m.snapshots[id]; ok {
			infos = append(infos, infoOf(snap))
		}
	}
	return infos
}

func infoOf(snap *Snapshot) Info {
	return Info{
		JobID:     snap.JobID,
		CreatedAt: snap.CreatedAt,
		FileCount: len(snap.Files),
		Meta:      snap.Meta,
	}
}
