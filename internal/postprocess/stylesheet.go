package postprocess

import (
	"context"
	"strings"

	"stackshift/internal/diffutil"
	"stackshift/internal/engine"
	"stackshift/internal/migration"
)

// Stylesheets removes duplicated top-level rules from migrated CSS.
// Component-scoped sheets that end up merged into a shared location tend
// to repeat resets and utility rules, so the batch pass collapses exact
// duplicates and keeps the first occurrence.
type Stylesheets struct{}

func NewStylesheets() *Stylesheets { return &Stylesheets{} }

func (s *Stylesheets) Name() string { return "stylesheets" }

func (s *Stylesheets) Process(_ context.Context, _ *migration.Specification, batch *engine.BatchResult) error {
	for p, result := range batch.Results {
		if !isStylesheet(result.NewPath) && !isStylesheet(p) {
			continue
		}
		deduped, removed := dedupeRules(result.Code)
		if removed == 0 {
			continue
		}
		result.Diff = diffutil.Unified(result.OriginalCode, deduped, p)
		added, rem := diffutil.Stats(result.Diff)
		result.Code = deduped
		result.Metadata.LinesAdded = added
		result.Metadata.LinesRemoved = rem
		result.Metadata.Applied = append(result.Metadata.Applied,
			"stylesheets: removed duplicate rules")
	}
	return nil
}

func isStylesheet(p string) bool {
	return strings.HasSuffix(p, ".css") || strings.HasSuffix(p, ".scss")
}

// dedupeRules splits a stylesheet into top-level blocks by brace depth
// and drops blocks whose normalized text already appeared. Nested blocks
// (media queries, keyframes) travel with their enclosing rule.
func dedupeRules(code string) (string, int) {
	blocks := splitRules(code)
	seen := make(map[string]bool, len(blocks))
	kept := make([]string, 0, len(blocks))
	removed := 0
	for _, block := range blocks {
		key := strings.Join(strings.Fields(block), " ")
		if key == "" {
			continue
		}
		if seen[key] {
			removed++
			continue
		}
		seen[key] = true
		kept = append(kept, strings.TrimSpace(block))
	}
	if removed == 0 {
		return code, 0
	}
	return strings.Join(kept, "\n\n") + "\n", removed
}

// splitRules cuts the sheet at every point where brace depth returns to
// zero. Comments between rules attach to the rule that follows them.
func splitRules(code string) []string {
	var blocks []string
	depth := 0
	start := 0
	for i := 0; i < len(code); i++ {
		switch code[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				blocks = append(blocks, code[start:i+1])
				start = i + 1
			}
		}
	}
	if tail := strings.TrimSpace(code[start:]); tail != "" {
		blocks = append(blocks, tail)
	}
	return blocks
}
