package workspace

import (
	"context"
	"path/filepath"

	"github.com/spf13/afero"
)

// Fetcher resolves project-relative paths against the crawled root, so
// pipeline stages can pull in context files (like the project manifest)
// without knowing where the project lives.
type Fetcher struct {
	fs   afero.Fs
	root string
}

func NewFetcher(fs afero.Fs, root string) *Fetcher {
	return &Fetcher{fs: fs, root: root}
}

func (f *Fetcher) Fetch(_ context.Context, path string) (string, error) {
	content, err := afero.ReadFile(f.fs, filepath.Join(f.root, filepath.FromSlash(path)))
	if err != nil {
		return "", err
	}
	return string(content), nil
}
