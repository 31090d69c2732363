// Package assist runs the optional semantic refinement pass: an LLM
// provider reviews the deterministic transformation output and finishes
// what symbol tables cannot express (data fetching patterns, config
// rewrites, framework idioms). Providers return errors classified into
// the recovery taxonomy so the orchestrator can retry or degrade.
package assist

import (
	"context"
	"strings"

	"stackshift/internal/migration"
)

// Provider refines one file's deterministic transformation output.
type Provider interface {
	Name() string
	Refine(ctx context.Context, req Request) (*Refinement, error)
}

// Request carries everything the provider needs to refine one file.
type Request struct {
	FilePath          string
	FileType          migration.FileType
	SourceFramework   string
	TargetFramework   string
	Code              string
	DeterministicCode string
	Notes             []string
}

// Refinement is the provider's answer: refined code, a self-reported
// confidence on the 0-100 scale, and whether a human should look.
type Refinement struct {
	Code           string
	Confidence     float64
	RequiresReview bool
	Notes          []string
}

// NeedsSemanticPass reports whether the deterministic output warrants a
// refinement pass. Configuration rewrites and page or component files
// carry framework idioms symbol tables cannot express, and leftover
// lifecycle identifiers always need restructuring.
func NeedsSemanticPass(fctx *migration.FileContext, code string, lifecycle []string) bool {
	if fctx == nil {
		return false
	}
	switch fctx.FileType {
	case migration.FileTypeConfig, migration.FileTypePage, migration.FileTypeComponent:
		return true
	}
	for _, ident := range lifecycle {
		if ident != "" && strings.Contains(code, ident) {
			return true
		}
	}
	return false
}
