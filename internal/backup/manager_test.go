package backup

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFiles() map[string]string {
	return map[string]string{
		"src/App.jsx":   "export default function App() { return null; }",
		"src/index.js":  "import App from './App';",
		"src/theme.css": ".app { color: teal; }",
	}
}

func TestCreateAndRestoreBackup(t *testing.T) {
	m := NewManager(0)
	files := sampleFiles()

	err := m.CreateBackup("job-1", files, Meta{SourceFramework: "react", TargetFramework: "nextjs"})
	require.NoError(t, err)
	require.True(t, m.HasBackup("job-1"))

	restored, err := m.RestoreBackup("job-1")
	require.NoError(t, err)
	assert.Equal(t, files, restored)

	info, ok := m.GetBackupInfo("job-1")
	require.True(t, ok)
	assert.Equal(t, "job-1", info.JobID)
	assert.Equal(t, 3, info.FileCount)
	assert.Equal(t, 3, info.Meta.FileCount)
	assert.Equal(t, "react", info.Meta.SourceFramework)
	assert.False(t, info.CreatedAt.IsZero())
}

func TestCreateBackupRejectsLiveDuplicate(t *testing.T) {
	m := NewManager(0)
	require.NoError(t, m.CreateBackup("job-1", sampleFiles(), Meta{}))

	err := m.CreateBackup("job-1", sampleFiles(), Meta{})
	require.ErrorIs(t, err, ErrDuplicateBackup)
	assert.Contains(t, err.Error(), "job-1")
}

func TestCleanupBackupIsIdempotent(t *testing.T) {
	m := NewManager(0)
	require.NoError(t, m.CreateBackup("job-1", sampleFiles(), Meta{}))

	m.CleanupBackup("job-1")
	assert.False(t, m.HasBackup("job-1"))

	// A second cleanup of the same job must be a no-op, not a failure.
	m.CleanupBackup("job-1")
	m.CleanupBackup("never-existed")

	// The id is free again after cleanup.
	require.NoError(t, m.CreateBackup("job-1", sampleFiles(), Meta{}))
}

func TestRestoreMissingBackup(t *testing.T) {
	m := NewManager(0)

	_, err := m.RestoreBackup("ghost")
	require.ErrorIs(t, err, ErrNoBackup)

	_, ok := m.GetBackupInfo("ghost")
	assert.False(t, ok)
}

func TestRestoreFile(t *testing.T) {
	m := NewManager(0)
	files := sampleFiles()
	require.NoError(t, m.CreateBackup("job-1", files, Meta{}))

	content, err := m.RestoreFile("job-1", "src/App.jsx")
	require.NoError(t, err)
	assert.Equal(t, files["src/App.jsx"], content)

	_, err = m.RestoreFile("job-1", "src/missing.js")
	require.ErrorIs(t, err, ErrNoBackup)

	_, err = m.RestoreFile("ghost", "src/App.jsx")
	require.ErrorIs(t, err, ErrNoBackup)
}

func TestSnapshotIsIsolatedFromCaller(t *testing.T) {
	m := NewManager(0)
	files := sampleFiles()
	require.NoError(t, m.CreateBackup("job-1", files, Meta{}))

	// Mutating the map we handed in must not reach the snapshot.
	files["src/App.jsx"] = "clobbered"
	delete(files, "src/index.js")

	restored, err := m.RestoreBackup("job-1")
	require.NoError(t, err)
	assert.Equal(t, sampleFiles(), restored)

	// Mutating a restored copy must not reach the snapshot either.
	restored["src/App.jsx"] = "clobbered again"
	again, err := m.RestoreBackup("job-1")
	require.NoError(t, err)
	assert.Equal(t, sampleFiles(), again)
}

func TestEvictsOldestBeyondLimit(t *testing.T) {
	m := NewManager(2)
	require.NoError(t, m.CreateBackup("job-1", sampleFiles(), Meta{}))
	require.NoError(t, m.CreateBackup("job-2", sampleFiles(), Meta{}))
	require.NoError(t, m.CreateBackup("job-3", sampleFiles(), Meta{}))

	assert.False(t, m.HasBackup("job-1"))
	assert.True(t, m.HasBackup("job-2"))
	assert.True(t, m.HasBackup("job-3"))

	infos := m.ListBackups()
	require.Len(t, infos, 2)
	assert.Equal(t, "job-2", infos[0].JobID)
	assert.Equal(t, "job-3", infos[1].JobID)
}

func TestListBackupsOldestFirst(t *testing.T) {
	m := NewManager(0)
	for i := 1; i <= 4; i++ {
		require.NoError(t, m.CreateBackup(fmt.Sprintf("job-%d", i), sampleFiles(), Meta{}))
	}
	m.CleanupBackup("job-2")

	infos := m.ListBackups()
	require.Len(t, infos, 3)
	assert.Equal(t, "job-1", infos[0].JobID)
	assert.Equal(t, "job-3", infos[1].JobID)
	assert.Equal(t, "job-4", infos[2].JobID)
}

func TestConcurrentJobsDoNotInterfere(t *testing.T) {
	m := NewManager(100)

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			jobID := fmt.Sprintf("job-%d", i)
			content := fmt.Sprintf("content-%d", i)
			if err := m.CreateBackup(jobID, map[string]string{"a.js": content}, Meta{}); err != nil {
				errs <- err
				return
			}
			got, err := m.RestoreFile(jobID, "a.js")
			if err != nil {
				errs <- err
				return
			}
			if got != content {
				errs <- fmt.Errorf("job %s restored %q", jobID, got)
				return
			}
			m.CleanupBackup(jobID)
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	assert.Empty(t, m.ListBackups())
}
