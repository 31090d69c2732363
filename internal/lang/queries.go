package lang

import (
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// NamedSpecifier is one entry of a named import clause, e.g. the
// "useState as useLocal" in `import { useState as useLocal } from "react"`.
type NamedSpecifier struct {
	Name  string
	Alias string
}

// Import is a decoded top-level import statement.
type Import struct {
	Node       *sitter.Node
	Source     string
	SourceNode *sitter.Node
	Quote      byte
	Default    string
	Namespace  string
	Named      []NamedSpecifier
	TypeOnly   bool
}

// Imports decodes every top-level import statement under root.
func Imports(root *sitter.Node, src []byte) []Import {
	var imports []Import
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child.Type() != "import_statement" {
			continue
		}
		if im, ok := decodeImport(child, src); ok {
			imports = append(imports, im)
		}
	}
	return imports
}

func decodeImport(node *sitter.Node, src []byte) (Import, bool) {
	im := Import{Node: node}

	source := node.ChildByFieldName("source")
	if source == nil {
		return im, false
	}
	im.SourceNode = source
	im.Source, im.Quote = Unquote(source.Content(src))

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "type":
			im.TypeOnly = true
		case "import_clause":
			decodeImportClause(child, src, &im)
		}
	}
	return im, true
}

func decodeImportClause(clause *sitter.Node, src []byte, im *Import) {
	for i := 0; i < int(clause.NamedChildCount()); i++ {
		child := clause.NamedChild(i)
		switch child.Type() {
		case "identifier":
			im.Default = child.Content(src)
		case "namespace_import":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				if id := child.NamedChild(j); id.Type() == "identifier" {
					im.Namespace = id.Content(src)
				}
			}
		case "named_imports":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				spec := child.NamedChild(j)
				if spec.Type() != "import_specifier" {
					continue
				}
				ns := NamedSpecifier{}
				if name := spec.ChildByFieldName("name"); name != nil {
					ns.Name = name.Content(src)
				}
				if alias := spec.ChildByFieldName("alias"); alias != nil {
					ns.Alias = alias.Content(src)
				}
				if ns.Name != "" {
					im.Named = append(im.Named, ns)
				}
			}
		}
	}
}

// Key is a canonical identity for deduplication: same source and same
// specifier set means the statements are interchangeable.
func (im Import) Key() string {
	parts := make([]string, 0, len(im.Named))
	for _, n := range im.Named {
		if n.Alias != "" && n.Alias != n.Name {
			parts = append(parts, n.Name+" as "+n.Alias)
		} else {
			parts = append(parts, n.Name)
		}
	}
	sort.Strings(parts)

	var b strings.Builder
	b.WriteString(im.Source)
	b.WriteByte('|')
	b.WriteString(im.Default)
	b.WriteByte('|')
	b.WriteString(im.Namespace)
	b.WriteByte('|')
	b.WriteString(strings.Join(parts, ","))
	if im.TypeOnly {
		b.WriteString("|type")
	}
	return b.String()
}

// Render prints the import back as source text using the given quote.
func (im Import) Render() string {
	quote := string(im.Quote)
	if quote == "" || quote == "\x00" {
		quote = "\""
	}

	var clauses []string
	if im.Default != "" {
		clauses = append(clauses, im.Default)
	}
	if im.Namespace != "" {
		clauses = append(clauses, "* as "+im.Namespace)
	}
	if len(im.Named) > 0 {
		parts := make([]string, 0, len(im.Named))
		for _, n := range im.Named {
			if n.Alias != "" && n.Alias != n.Name {
				parts = append(parts, n.Name+" as "+n.Alias)
			} else {
				parts = append(parts, n.Name)
			}
		}
		clauses = append(clauses, "{ "+strings.Join(parts, ", ")+" }")
	}

	keyword := "import"
	if im.TypeOnly {
		keyword = "import type"
	}
	if len(clauses) == 0 {
		return keyword + " " + quote + im.Source + quote + ";"
	}
	return keyword + " " + strings.Join(clauses, ", ") + " from " + quote + im.Source + quote + ";"
}

// LastImportEnd returns the byte offset just past the last top-level
// import statement, or 0 when the file has none. New imports are
// inserted here.
func LastImportEnd(root *sitter.Node) uint32 {
	var end uint32
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child.Type() == "import_statement" {
			end = child.EndByte()
		}
	}
	return end
}

// ExportNames lists the names a module exports. A default export is
// reported under its declared name when it has one, otherwise as
// "default".
func ExportNames(root *sitter.Node, src []byte) []string {
	var names []string
	seen := make(map[string]bool)
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		if stmt.Type() != "export_statement" {
			continue
		}

		for j := 0; j < int(stmt.NamedChildCount()); j++ {
			clause := stmt.NamedChild(j)
			if clause.Type() != "export_clause" {
				continue
			}
			for k := 0; k < int(clause.NamedChildCount()); k++ {
				spec := clause.NamedChild(k)
				if spec.Type() != "export_specifier" {
					continue
				}
				if alias := spec.ChildByFieldName("alias"); alias != nil {
					add(alias.Content(src))
				} else if name := spec.ChildByFieldName("name"); name != nil {
					add(name.Content(src))
				}
			}
		}

		decl := stmt.ChildByFieldName("declaration")
		if decl == nil {
			if stmt.ChildByFieldName("value") != nil {
				add("default")
			}
			continue
		}
		switch decl.Type() {
		case "function_declaration", "generator_function_declaration", "class_declaration":
			if name := decl.ChildByFieldName("name"); name != nil {
				add(name.Content(src))
			} else {
				add("default")
			}
		case "lexical_declaration", "variable_declaration":
			for j := 0; j < int(decl.NamedChildCount()); j++ {
				d := decl.NamedChild(j)
				if d.Type() != "variable_declarator" {
					continue
				}
				if name := d.ChildByFieldName("name"); name != nil {
					add(name.Content(src))
				}
			}
		}
	}
	return names
}

// ElementTag is a JSX element with its opening and closing name nodes, so
// a tag rename can rewrite both ends in one pass.
type ElementTag struct {
	Element     *sitter.Node
	Name        string
	Opening     *sitter.Node
	OpenName    *sitter.Node
	CloseName   *sitter.Node
	SelfClosing bool
}

// ElementTags collects every JSX element under root.
func ElementTags(root *sitter.Node, src []byte) []ElementTag {
	var tags []ElementTag
	Walk(root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "jsx_self_closing_element":
			name := n.ChildByFieldName("name")
			if name == nil {
				return true
			}
			tags = append(tags, ElementTag{
				Element:     n,
				Name:        name.Content(src),
				Opening:     n,
				OpenName:    name,
				SelfClosing: true,
			})
			return true
		case "jsx_element":
			tag := ElementTag{Element: n}
			for i := 0; i < int(n.ChildCount()); i++ {
				child := n.Child(i)
				switch child.Type() {
				case "jsx_opening_element":
					tag.Opening = child
					tag.OpenName = child.ChildByFieldName("name")
				case "jsx_closing_element":
					tag.CloseName = child.ChildByFieldName("name")
				}
			}
			if tag.OpenName == nil {
				return true
			}
			tag.Name = tag.OpenName.Content(src)
			tags = append(tags, tag)
			return true
		}
		return true
	})
	return tags
}

// HasAttribute reports whether the opening element carries the named
// attribute.
func HasAttribute(opening *sitter.Node, src []byte, name string) bool {
	if opening == nil {
		return false
	}
	for i := 0; i < int(opening.NamedChildCount()); i++ {
		child := opening.NamedChild(i)
		if child.Type() != "jsx_attribute" {
			continue
		}
		if id := child.NamedChild(0); id != nil && id.Content(src) == name {
			return true
		}
	}
	return false
}

// IdentifierUses returns identifier nodes spelling name outside of import
// statements. Property accesses like obj.name use property_identifier
// nodes and are naturally excluded; the object owns that name, not the
// migration.
func IdentifierUses(root *sitter.Node, src []byte, name string) []*sitter.Node {
	var uses []*sitter.Node
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n.Type() == "import_statement" {
			return
		}
		if n.Type() == "identifier" && n.Content(src) == name {
			uses = append(uses, n)
			return
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			visit(n.NamedChild(i))
		}
	}
	visit(root)
	return uses
}

// Unquote strips the surrounding quotes from a string literal and reports
// which quote character it used.
func Unquote(raw string) (string, byte) {
	if len(raw) >= 2 {
		first := raw[0]
		if (first == '"' || first == '\'' || first == '`') && raw[len(raw)-1] == first {
			return raw[1 : len(raw)-1], first
		}
	}
	return raw, '"'
}
