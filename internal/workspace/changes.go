package workspace

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
	"strings"

	"stackshift/internal/migration"
)

// ChangedPaths returns the repo-relative paths that differ from baseRef,
// so a run can migrate only what a branch touched. Deleted files are
// skipped: there is nothing left to transform.
func ChangedPaths(dir, baseRef string) ([]string, error) {
	cmd := exec.Command("git", "diff", "--name-status", baseRef)
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git diff failed: %w", err)
	}
	return parseNameStatus(output), nil
}

// parseNameStatus reads `git diff --name-status` output: one line per
// file, a status letter, then tab-separated paths. Renames and copies
// carry two paths; the new one is what exists now.
func parseNameStatus(output []byte) []string {
	scanner := bufio.NewScanner(bytes.NewReader(output))
	var paths []string

	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			continue
		}
		status := fields[0]
		if strings.HasPrefix(status, "D") {
			continue
		}
		paths = append(paths, fields[len(fields)-1])
	}
	return paths
}

// FilterChanged narrows crawled files to those listed as changed. Paths
// on both sides are forward-slash relative, as git and the crawler emit
// them.
func FilterChanged(files []migration.FileRecord, changed []string) []migration.FileRecord {
	set := make(map[string]bool, len(changed))
	for _, p := range changed {
		set[p] = true
	}
	var kept []migration.FileRecord
	for _, f := range files {
		if set[f.Path] {
			kept = append(kept, f)
		}
	}
	return kept
}
