package rules

import (
	"fmt"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"stackshift/internal/lang"
	"stackshift/internal/migration"
)

// textScanner is one compiled literal pattern with its violation
// constructor, built once per loaded rule set.
type textScanner struct {
	re    *regexp.Regexp
	build func(line, col int, filePath string) Violation
}

func compileTextScanners(r migration.Rules) []textScanner {
	var scanners []textScanner
	for _, bc := range r.BreakingChanges {
		bc := bc
		for _, api := range bc.APIs {
			re, err := compileWord(api)
			if err != nil {
				continue
			}
			scanners = append(scanners, textScanner{
				re: re,
				build: func(line, col int, filePath string) Violation {
					return breakingViolation(bc, line, col, filePath)
				},
			})
		}
	}
	for _, dep := range r.Deprecations {
		dep := dep
		re, err := compileWord(dep.Name)
		if err != nil {
			continue
		}
		scanners = append(scanners, textScanner{
			re: re,
			build: func(line, col int, filePath string) Violation {
				return deprecationViolation(dep, line, col, filePath)
			},
		})
	}
	return scanners
}

func compileWord(name string) (*regexp.Regexp, error) {
	if name == "" {
		return nil, fmt.Errorf("empty pattern")
	}
	return regexp.Compile(`\b` + regexp.QuoteMeta(name) + `\b`)
}

// scanBreakingAndDeprecated finds breaking-change and deprecation
// references through two independent channels: a tree walk over
// identifiers, properties, and member expressions, and the compiled
// literal patterns over raw text. The text channel catches references the
// walk cannot classify (strings, comments, unusual constructs); findings
// at the same line, column, and rule id are reported once.
func (e *Engine) scanBreakingAndDeprecated(root *sitter.Node, src []byte, filePath string) []Violation {
	var found []Violation

	match := func(name string, line, col int) {
		for _, bc := range e.spec.Rules.BreakingChanges {
			for _, api := range bc.APIs {
				if name == api {
					found = append(found, breakingViolation(bc, line, col, filePath))
				}
			}
		}
		for _, dep := range e.spec.Rules.Deprecations {
			if name == dep.Name {
				found = append(found, deprecationViolation(dep, line, col, filePath))
			}
		}
	}

	lang.Walk(root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "identifier", "property_identifier", "member_expression":
			match(n.Content(src), lang.NodeLine(n), lang.NodeColumn(n))
		}
		return true
	})

	for lineIdx, lineText := range strings.Split(string(src), "\n") {
		for _, sc := range e.scanners {
			for _, loc := range sc.re.FindAllStringIndex(lineText, -1) {
				found = append(found, sc.build(lineIdx+1, loc[0]+1, filePath))
			}
		}
	}

	return dedupeViolations(found)
}

func breakingViolation(bc migration.BreakingChange, line, col int, filePath string) Violation {
	return Violation{
		ID:          bc.ID,
		Type:        TypeBreakingChange,
		Severity:    SeverityError,
		Line:        line,
		Column:      col,
		Message:     bc.Description,
		Suggestion:  bc.Migration,
		AutoFixable: bc.AutoFixable,
		FilePath:    filePath,
	}
}

func deprecationViolation(dep migration.Deprecation, line, col int, filePath string) Violation {
	msg := fmt.Sprintf("%s is deprecated", dep.Name)
	if dep.Version != "" {
		msg += " since " + dep.Version
	}
	if dep.RemovedIn != "" {
		msg += ", removed in " + dep.RemovedIn
	}
	suggestion := ""
	if dep.Replacement != "" {
		suggestion = "use " + dep.Replacement
	}
	return Violation{
		ID:         "deprecated-" + dep.Name,
		Type:       TypeDeprecation,
		Severity:   SeverityWarning,
		Line:       line,
		Column:     col,
		Message:    msg,
		Suggestion: suggestion,
		FilePath:   filePath,
	}
}

func dedupeViolations(violations []Violation) []Violation {
	type key struct {
		line, col int
		id        string
	}
	seen := make(map[key]bool, len(violations))
	out := violations[:0]
	for _, v := range violations {
		k := key{v.Line, v.Column, v.ID}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	return out
}
