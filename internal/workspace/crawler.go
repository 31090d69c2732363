// Package workspace moves migration inputs and outputs between the
// pipeline and the project on disk: crawling source trees, writing
// results atomically, and narrowing a run to git-changed files.
package workspace

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"stackshift/internal/lang"
	"stackshift/internal/migration"
)

// Crawler scans a project directory for migratable files.
type Crawler struct {
	fs      afero.Fs
	langs   *lang.Registry
	ignored []string
	skipped []string
	extra   []string
}

// NewCrawler creates a crawler over the given filesystem. Files are
// included when a registered grammar claims their extension or when they
// are stylesheet, markup, or config files the planner knows how to place.
func NewCrawler(fs afero.Fs, langs *lang.Registry) *Crawler {
	return &Crawler{
		fs:      fs,
		langs:   langs,
		ignored: []string{".git", "node_modules", "dist", "build", ".next", "out", "coverage", "vendor"},
		skipped: []string{"package-lock.json", "yarn.lock", "pnpm-lock.yaml"},
		extra:   []string{".css", ".scss", ".json", ".html"},
	}
}

// Scan walks the root directory and streams every relevant file through
// the callback, so large projects never sit in memory twice. Paths are
// root-relative with forward slashes, matching how the plan names them.
func (c *Crawler) Scan(root string, onFile func(migration.FileRecord) error) error {
	return afero.Walk(c.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			for _, ign := range c.ignored {
				if info.Name() == ign {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if !c.wants(info.Name()) {
			return nil
		}

		content, err := afero.ReadFile(c.fs, path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		return onFile(migration.FileRecord{
			Path:    filepath.ToSlash(rel),
			Content: string(content),
		})
	})
}

// Collect gathers the whole scan into a slice, in walk order.
func (c *Crawler) Collect(root string) ([]migration.FileRecord, error) {
	var files []migration.FileRecord
	err := c.Scan(root, func(rec migration.FileRecord) error {
		files = append(files, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (c *Crawler) wants(name string) bool {
	for _, skip := range c.skipped {
		if name == skip {
			return false
		}
	}
	if c.langs.Supports(name) {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range c.extra {
		if ext == e {
			return true
		}
	}
	return false
}
