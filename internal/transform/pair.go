package transform

import "strings"

// SpecifierRename renames a named import specifier when it is imported
// from Source, e.g. useHistory -> useRouter inside a react-router-dom
// import. Uses of the identifier in the body are renamed separately by
// an IdentifierRule.
type SpecifierRename struct {
	Source string
	From   string
	To     string
}

// SpecifierMove pulls one named specifier out of an import from Source
// into its own import from NewSource, e.g. Link moving from
// react-router-dom to a default import of next/link.
type SpecifierMove struct {
	Source    string
	Name      string
	NewSource string
	AsDefault bool
}

// PairRules is everything framework-pair-specific the rewriter applies:
// alias conventions for relocated relative imports, import-level
// specifier operations, and ordered body rules. The rewriter iterates
// this data; it never branches on framework names.
type PairRules struct {
	AliasPrefix      string
	AliasDirs        []string
	SpecifierRenames []SpecifierRename
	SpecifierMoves   []SpecifierMove
	Body             []BodyRule
}

type pairKey struct {
	source string
	target string
}

// PairRegistry maps (source framework, target framework) to the rules
// for that migration direction. Adding a pair is a registration, not a
// code change.
type PairRegistry struct {
	pairs map[pairKey]PairRules
}

// NewPairRegistry creates an empty registry.
func NewPairRegistry() *PairRegistry {
	return &PairRegistry{pairs: make(map[pairKey]PairRules)}
}

// Register stores the rules for a framework pair, replacing any earlier
// registration.
func (r *PairRegistry) Register(source, target string, rules PairRules) {
	r.pairs[pairKey{normalizeFramework(source), normalizeFramework(target)}] = rules
}

// RulesFor returns the rules registered for the pair. An unregistered
// pair gets zero rules: mapping-driven import remapping still applies,
// idiom rewrites do not.
func (r *PairRegistry) RulesFor(source, target string) PairRules {
	return r.pairs[pairKey{normalizeFramework(source), normalizeFramework(target)}]
}

func normalizeFramework(name string) string {
	return strings.ToLower(strings.TrimSpace(strings.ReplaceAll(name, ".", "")))
}

// DefaultPairRegistry returns a registry with the react -> next.js rules
// pre-registered.
func DefaultPairRegistry() *PairRegistry {
	r := NewPairRegistry()
	r.Register("react", "nextjs", PairRules{
		AliasPrefix: "@/",
		AliasDirs: []string{
			"components", "pages", "layouts", "hooks", "utils", "lib",
			"styles", "api", "context", "store",
		},
		SpecifierRenames: []SpecifierRename{
			{Source: "react-router-dom", From: "useNavigate", To: "useRouter"},
			{Source: "react-router-dom", From: "useHistory", To: "useRouter"},
			{Source: "react-router-dom", From: "useLocation", To: "usePathname"},
		},
		SpecifierMoves: []SpecifierMove{
			{Source: "react-router-dom", Name: "Link", NewSource: "next/link", AsDefault: true},
			{Source: "react-router-dom", Name: "NavLink", NewSource: "next/link", AsDefault: true},
		},
		Body: []BodyRule{
			&ElementRule{
				Tag:           "a",
				Replacement:   "Link",
				RequireAttr:   "href",
				ImportSource:  "next/link",
				ImportDefault: "Link",
			},
			&AttributeRule{Tag: "Link", From: "to", To: "href"},
			&AttributeRule{Tag: "NavLink", From: "to", To: "href"},
			&IdentifierRule{
				From:         "useNavigate",
				To:           "useRouter",
				ImportSource: "next/navigation",
				ImportNamed:  "useRouter",
			},
			&IdentifierRule{
				From:         "useHistory",
				To:           "useRouter",
				ImportSource: "next/navigation",
				ImportNamed:  "useRouter",
			},
			&IdentifierRule{
				From:         "useLocation",
				To:           "usePathname",
				ImportSource: "next/navigation",
				ImportNamed:  "usePathname",
			},
		},
	})
	return r
}
