// Package rules validates transformed files against a migration's
// declarative rule set: must-preserve, must-transform, must-remove,
// breaking changes, and deprecations. Findings are returned as data,
// never as panics or errors; only loading a malformed rule set fails.
package rules

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"stackshift/internal/lang"
	"stackshift/internal/migration"
)

// ErrMalformedRules marks a rule set that fails shape validation. This is
// a configuration error; callers must not retry it.
var ErrMalformedRules = errors.New("malformed rule set")

// Engine validates files against a loaded rule set.
type Engine struct {
	langs    *lang.Registry
	legacy   *LegacyRegistry
	spec     *migration.Specification
	patterns LegacyPatterns
	scanners []textScanner
}

// NewEngine builds an engine. Nil arguments select the default grammar
// and legacy registries.
func NewEngine(langs *lang.Registry, legacy *LegacyRegistry) *Engine {
	if langs == nil {
		langs = lang.DefaultRegistry()
	}
	if legacy == nil {
		legacy = DefaultLegacyRegistry()
	}
	return &Engine{langs: langs, legacy: legacy}
}

// LoadRules validates the rule set's shape and primes the engine with it.
// All six rule collections must be present; a collection omitted from the
// specification is malformed even when another is empty. Fails fast, is
// never recovered.
func (e *Engine) LoadRules(spec *migration.Specification) error {
	if spec == nil {
		return fmt.Errorf("%w: no specification", ErrMalformedRules)
	}

	var missing []string
	r := spec.Rules
	if r.MustPreserve == nil {
		missing = append(missing, "mustPreserve")
	}
	if r.MustTransform == nil {
		missing = append(missing, "mustTransform")
	}
	if r.MustRemove == nil {
		missing = append(missing, "mustRemove")
	}
	if r.MustRefactor == nil {
		missing = append(missing, "mustRefactor")
	}
	if r.BreakingChanges == nil {
		missing = append(missing, "breakingChanges")
	}
	if r.Deprecations == nil {
		missing = append(missing, "deprecations")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing collections: %s", ErrMalformedRules, strings.Join(missing, ", "))
	}

	e.spec = spec
	e.patterns = e.legacy.PatternsFor(spec.Source.Framework)
	e.scanners = compileTextScanners(r)
	return nil
}

// ValidateAgainstRules re-parses the file and runs the four rule checks.
// A file that does not parse yields a single syntax-error violation; rule
// findings are always returned as data.
func (e *Engine) ValidateAgainstRules(ctx context.Context, code, filePath string) Validation {
	if e.spec == nil {
		return Validation{Violations: []Violation{{
			ID:       "rules-not-loaded",
			Type:     TypeIncompatibility,
			Severity: SeverityError,
			Line:     1,
			Column:   1,
			Message:  "no rule set loaded",
			FilePath: filePath,
		}}}
	}

	src := []byte(code)
	tree, err := e.parseFile(ctx, src, filePath)
	if err != nil {
		return Validation{Violations: []Violation{{
			ID:       "syntax-error",
			Type:     TypeIncompatibility,
			Severity: SeverityError,
			Line:     1,
			Column:   1,
			Message:  fmt.Sprintf("file could not be parsed: %v", err),
			FilePath: filePath,
		}}}
	}
	defer tree.Close()

	if lang.HasSyntaxError(tree) {
		line, col := lang.SyntaxErrorPosition(tree)
		return Validation{Violations: []Violation{{
			ID:       "syntax-error",
			Type:     TypeIncompatibility,
			Severity: SeverityError,
			Line:     line,
			Column:   col,
			Message:  "transformed code is not syntactically valid",
			FilePath: filePath,
		}}}
	}

	root := tree.RootNode()
	imports := lang.Imports(root, src)

	warnings := e.checkMustPreserve(root, src, filePath)
	var violations []Violation
	violations = append(violations, e.checkMustTransform(root, src, imports, filePath)...)
	violations = append(violations, e.checkMustRemove(imports, filePath)...)
	violations = append(violations, e.scanBreakingAndDeprecated(root, src, filePath)...)

	valid := true
	for _, v := range violations {
		if v.Severity == SeverityError {
			valid = false
			break
		}
	}
	return Validation{Valid: valid, Violations: violations, Warnings: warnings}
}

func (e *Engine) parseFile(ctx context.Context, src []byte, filePath string) (*sitter.Tree, error) {
	profile, ok := e.langs.ProfileForPath(filePath)
	if !ok {
		var err error
		profile, err = e.langs.Profile(e.spec.Source.Language)
		if err != nil {
			return nil, err
		}
	}
	return lang.Parse(ctx, profile, src)
}

// checkMustPreserve emits advisory warnings for must-preserve entries
// relevant to a file that carries business logic. Warnings never affect
// validity.
func (e *Engine) checkMustPreserve(root *sitter.Node, src []byte, filePath string) []string {
	entries := e.spec.Rules.MustPreserve
	if len(entries) == 0 || !hasBusinessLogic(root) {
		return nil
	}
	lower := strings.ToLower(string(src))
	var warnings []string
	for _, entry := range entries {
		if preserveEntryRelevant(entry, lower) {
			warnings = append(warnings, fmt.Sprintf("must-preserve: verify %q still holds in %s", entry, filePath))
		}
	}
	return warnings
}

func hasBusinessLogic(root *sitter.Node) bool {
	found := false
	lang.Walk(root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "function_declaration", "function_expression", "function",
			"arrow_function", "method_definition", "try_statement":
			found = true
		}
		return !found
	})
	return found
}

// preserveEntryRelevant is a coarse keyword match: any significant word
// of the entry (or its stem) appearing in the source marks the entry
// relevant to this file.
func preserveEntryRelevant(entry, lowerSrc string) bool {
	for _, word := range strings.FieldsFunc(strings.ToLower(entry), func(r rune) bool {
		return r < 'a' || r > 'z'
	}) {
		if len(word) < 4 {
			continue
		}
		if strings.Contains(lowerSrc, word) {
			return true
		}
		if len(word) > 5 && strings.Contains(lowerSrc, word[:5]) {
			return true
		}
	}
	return false
}

// checkMustTransform flags legacy imports and structural elements of the
// source framework that survived transformation.
func (e *Engine) checkMustTransform(root *sitter.Node, src []byte, imports []lang.Import, filePath string) []Violation {
	if len(e.spec.Rules.MustTransform) == 0 || e.patterns.Empty() {
		return nil
	}

	var out []Violation
	for _, im := range imports {
		legacy, ok := e.patterns.MatchesSource(im.Source)
		if !ok {
			continue
		}
		out = append(out, Violation{
			ID:          "must-transform-import",
			Type:        TypeIncompatibility,
			Severity:    SeverityError,
			Line:        lang.NodeLine(im.Node),
			Column:      lang.NodeColumn(im.Node),
			Message:     fmt.Sprintf("import of %q should have been transformed", im.Source),
			Suggestion:  fmt.Sprintf("apply the import mapping for %s", legacy),
			AutoFixable: true,
			FilePath:    filePath,
		})
	}

	for _, tag := range lang.ElementTags(root, src) {
		if !containsString(e.patterns.Elements, tag.Name) {
			continue
		}
		out = append(out, Violation{
			ID:       "must-transform-element",
			Type:     TypeIncompatibility,
			Severity: SeverityError,
			Line:     lang.NodeLine(tag.OpenName),
			Column:   lang.NodeColumn(tag.OpenName),
			Message:  fmt.Sprintf("<%s> has no direct equivalent and needs manual conversion", tag.Name),
			FilePath: filePath,
		})
	}
	return out
}

// checkMustRemove flags imports of packages the target stack must not
// carry.
func (e *Engine) checkMustRemove(imports []lang.Import, filePath string) []Violation {
	var out []Violation
	for _, im := range imports {
		for _, entry := range e.spec.Rules.MustRemove {
			if entry == "" || (im.Source != entry && !strings.HasPrefix(im.Source, entry+"/")) {
				continue
			}
			out = append(out, Violation{
				ID:          "must-remove-import",
				Type:        TypeIncompatibility,
				Severity:    SeverityError,
				Line:        lang.NodeLine(im.Node),
				Column:      lang.NodeColumn(im.Node),
				Message:     fmt.Sprintf("import of %q must be removed", im.Source),
				Suggestion:  fmt.Sprintf("%s is not part of the target stack", entry),
				AutoFixable: true,
				FilePath:    filePath,
			})
		}
	}
	return out
}

// HasLegacyReferences reports whether the raw text still mentions the
// source framework's legacy packages or elements. Textual on purpose: it
// applies to every file type, including ones that never parse.
func (e *Engine) HasLegacyReferences(code string) bool {
	if e.spec == nil {
		return false
	}
	for _, src := range e.patterns.ImportSources {
		if strings.Contains(code, src) {
			return true
		}
	}
	for _, el := range e.patterns.Elements {
		if strings.Contains(code, "<"+el) {
			return true
		}
	}
	return false
}

// LifecycleIdentifiers returns the source framework's lifecycle API names
// for the loaded specification.
func (e *Engine) LifecycleIdentifiers() []string {
	return e.patterns.Lifecycle
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
