package migration

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// LoadSpecification reads and parses a migration specification from a YAML file.
func LoadSpecification(path string) (*Specification, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading specification file: %w", err)
	}
	return ParseSpecification(data)
}

// ParseSpecification parses a migration specification from YAML bytes and
// checks the minimum shape every pipeline stage relies on. Rule-set shape is
// deliberately not checked here; the rule engine owns that validation and
// treats a missing collection as a fatal configuration error.
func ParseSpecification(data []byte) (*Specification, error) {
	var spec Specification
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parsing specification YAML: %w", err)
	}

	if spec.Source.Framework == "" {
		return nil, fmt.Errorf("specification is missing source.framework")
	}
	if spec.Target.Framework == "" {
		return nil, fmt.Errorf("specification is missing target.framework")
	}
	if spec.Source.Language == "" {
		spec.Source.Language = "javascript"
	}

	return &spec, nil
}

// SanityCheck reports advisory findings about a parsed specification:
// mappings that map a name to itself, mapping targets the rule set requires
// removed, and a framework change with no import or routing mappings at all.
// Findings never block a migration; callers print them as warnings.
func SanityCheck(spec *Specification) []string {
	removed := make(map[string]bool, len(spec.Rules.MustRemove))
	for _, name := range spec.Rules.MustRemove {
		removed[name] = true
	}

	tables := []struct {
		name    string
		entries map[string]string
	}{
		{"imports", spec.Mappings.Imports},
		{"routing", spec.Mappings.Routing},
		{"components", spec.Mappings.Components},
		{"styling", spec.Mappings.Styling},
		{"state", spec.Mappings.State},
		{"buildTool", spec.Mappings.BuildTool},
	}

	var findings []string
	for _, table := range tables {
		for from, to := range table.entries {
			if from == to {
				findings = append(findings, fmt.Sprintf("%s mapping %q maps to itself", table.name, from))
			}
			if removed[to] {
				findings = append(findings, fmt.Sprintf("%s mapping %q targets %q, which mustRemove forbids", table.name, from, to))
			}
		}
	}

	if spec.Source.Framework != spec.Target.Framework &&
		len(spec.Mappings.Imports) == 0 && len(spec.Mappings.Routing) == 0 {
		findings = append(findings, "framework changes but no import or routing mappings are defined")
	}

	sort.Strings(findings)
	return findings
}
