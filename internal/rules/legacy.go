package rules

import "strings"

// LegacyPatterns describes what "should have been transformed away" looks
// like for one source framework: import sources the migration must
// rewrite, structural elements that need manual conversion, and the
// lifecycle identifiers that mark code needing a closer look.
type LegacyPatterns struct {
	ImportSources []string
	Elements      []string
	Lifecycle     []string
}

// Empty reports whether no patterns are registered.
func (p LegacyPatterns) Empty() bool {
	return len(p.ImportSources) == 0 && len(p.Elements) == 0 && len(p.Lifecycle) == 0
}

// MatchesSource reports whether an import source matches one of the
// legacy sources, exactly or as a path prefix.
func (p LegacyPatterns) MatchesSource(source string) (string, bool) {
	for _, legacy := range p.ImportSources {
		if source == legacy || strings.HasPrefix(source, legacy+"/") {
			return legacy, true
		}
	}
	return "", false
}

// LegacyRegistry maps a source framework to its legacy patterns. New
// frameworks are added by registration.
type LegacyRegistry struct {
	byFramework map[string]LegacyPatterns
}

// NewLegacyRegistry creates an empty registry.
func NewLegacyRegistry() *LegacyRegistry {
	return &LegacyRegistry{byFramework: make(map[string]LegacyPatterns)}
}

// Register stores patterns for a framework, replacing earlier ones.
func (r *LegacyRegistry) Register(framework string, p LegacyPatterns) {
	r.byFramework[strings.ToLower(framework)] = p
}

// PatternsFor returns the patterns registered for a framework; an
// unregistered framework gets empty patterns.
func (r *LegacyRegistry) PatternsFor(framework string) LegacyPatterns {
	return r.byFramework[strings.ToLower(framework)]
}

// DefaultLegacyRegistry returns a registry with the react patterns
// pre-registered. Router elements are listed rather than every react
// API: leftover router structure needs manual conversion to file-based
// routing, while plain react remains valid in the target.
func DefaultLegacyRegistry() *LegacyRegistry {
	r := NewLegacyRegistry()
	r.Register("react", LegacyPatterns{
		ImportSources: []string{"react-router-dom", "react-router"},
		Elements:      []string{"BrowserRouter", "HashRouter", "Routes", "Route", "Switch", "Redirect"},
		Lifecycle: []string{
			"componentDidMount",
			"componentDidUpdate",
			"componentWillUnmount",
			"shouldComponentUpdate",
			"getDerivedStateFromProps",
		},
	})
	return r
}
