package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

// Writer lands migration output on disk. Every file is written through a
// temp-file rename so a crash mid-write never leaves a half-migrated
// file behind.
type Writer struct {
	fs afero.Fs
}

func NewWriter(fs afero.Fs) *Writer {
	return &Writer{fs: fs}
}

// Apply writes each path/content pair under root, creating directories
// as needed. Paths are written in sorted order so repeated runs touch
// the tree the same way.
func (w *Writer) Apply(root string, files map[string]string) error {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		target := filepath.Join(root, filepath.FromSlash(p))
		if err := w.writeAtomic(target, []byte(files[p])); err != nil {
			return fmt.Errorf("write %s: %w", p, err)
		}
	}
	return nil
}

// Remove deletes the given root-relative paths. Already-missing files
// are not an error: a re-run after a partial failure should converge.
func (w *Writer) Remove(root string, paths []string) error {
	for _, p := range paths {
		target := filepath.Join(root, filepath.FromSlash(p))
		if err := w.fs.Remove(target); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}
	return nil
}

// writeAtomic writes to a temp file in the target directory, syncs, and
// renames into place. The temp file is cleaned up on any failure.
func (w *Writer) writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := w.fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := afero.TempFile(w.fs, dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		w.fs.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		w.fs.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		w.fs.Remove(tmpName)
		return err
	}
	if err := w.fs.Rename(tmpName, path); err != nil {
		w.fs.Remove(tmpName)
		return err
	}
	return nil
}
