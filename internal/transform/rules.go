package transform

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"stackshift/internal/lang"
	"stackshift/internal/migration"
)

// Pass is the working state one Transform call threads through its
// rules: the parsed tree, the source bytes, and the edits, import
// additions, audit entries, and notes the rules accumulate.
type Pass struct {
	Root *sitter.Node
	Src  []byte
	Spec *migration.Specification
	Ctx  *migration.FileContext

	edits      []lang.Edit
	addImports []lang.Import
	applied    []string
	notes      []string
}

// AddEdit queues a span edit.
func (p *Pass) AddEdit(e lang.Edit) {
	p.edits = append(p.edits, e)
}

// NeedImport queues an import to be added if the file does not already
// carry an equivalent one after remapping.
func (p *Pass) NeedImport(im lang.Import) {
	p.addImports = append(p.addImports, im)
}

// RecordImportChange logs an import remap in the audit trail.
func (p *Pass) RecordImportChange(from, to string) {
	entry := from + " -> " + to
	p.applied = appendUnique(p.applied, entry)
	if p.Ctx != nil {
		p.Ctx.RecordImportChange(entry)
	}
}

// RecordRewrite logs a body rewrite in the audit trail.
func (p *Pass) RecordRewrite(from, to string) {
	entry := from + " -> " + to
	p.applied = appendUnique(p.applied, entry)
	if p.Ctx != nil {
		p.Ctx.RecordRewrite(entry)
	}
}

// Notef records a non-fatal problem the caller should surface.
func (p *Pass) Notef(format string, args ...any) {
	p.notes = append(p.notes, fmt.Sprintf(format, args...))
}

func appendUnique(list []string, entry string) []string {
	for _, e := range list {
		if e == entry {
			return list
		}
	}
	return append(list, entry)
}

// BodyRule is one framework-pair-specific rewrite over the file body.
// Rules run in registration order and only queue span edits; they never
// mutate the tree.
type BodyRule interface {
	Name() string
	Apply(p *Pass)
}

// ElementRule renames a JSX element to the target framework's component,
// optionally gated on an attribute and adding the component's import.
// The react -> next.js registration turns <a href=...> into <Link href=...>.
type ElementRule struct {
	Tag           string
	Replacement   string
	RequireAttr   string
	ImportSource  string
	ImportDefault string
}

func (r *ElementRule) Name() string { return "element:" + r.Tag }

func (r *ElementRule) Apply(p *Pass) {
	fired := false
	for _, tag := range lang.ElementTags(p.Root, p.Src) {
		if tag.Name != r.Tag {
			continue
		}
		if r.RequireAttr != "" && !lang.HasAttribute(tag.Opening, p.Src, r.RequireAttr) {
			continue
		}
		p.AddEdit(lang.EditNode(tag.OpenName, r.Replacement))
		if tag.CloseName != nil {
			p.AddEdit(lang.EditNode(tag.CloseName, r.Replacement))
		}
		fired = true
	}
	if !fired {
		return
	}
	p.RecordRewrite("<"+r.Tag+">", "<"+r.Replacement+">")
	if r.ImportSource != "" {
		p.NeedImport(lang.Import{
			Source:  r.ImportSource,
			Default: r.ImportDefault,
			Quote:   '"',
		})
	}
}

// AttributeRule renames an attribute on a specific JSX element, e.g.
// to= -> href= on Link.
type AttributeRule struct {
	Tag  string
	From string
	To   string
}

func (r *AttributeRule) Name() string { return "attribute:" + r.Tag + "." + r.From }

func (r *AttributeRule) Apply(p *Pass) {
	fired := false
	for _, tag := range lang.ElementTags(p.Root, p.Src) {
		if tag.Name != r.Tag || tag.Opening == nil {
			continue
		}
		for i := 0; i < int(tag.Opening.NamedChildCount()); i++ {
			attr := tag.Opening.NamedChild(i)
			if attr.Type() != "jsx_attribute" {
				continue
			}
			name := attr.NamedChild(0)
			if name == nil || name.Content(p.Src) != r.From {
				continue
			}
			p.AddEdit(lang.EditNode(name, r.To))
			fired = true
		}
	}
	if fired {
		p.RecordRewrite(r.Tag+"["+r.From+"]", r.Tag+"["+r.To+"]")
	}
}

// IdentifierRule renames an identifier everywhere outside import
// statements, optionally ensuring the replacement's import exists. The
// react -> next.js registration maps the routing hooks this way.
type IdentifierRule struct {
	From         string
	To           string
	ImportSource string
	ImportNamed  string
}

func (r *IdentifierRule) Name() string { return "identifier:" + r.From }

func (r *IdentifierRule) Apply(p *Pass) {
	uses := lang.IdentifierUses(p.Root, p.Src, r.From)
	if len(uses) == 0 {
		return
	}
	for _, n := range uses {
		p.AddEdit(lang.EditNode(n, r.To))
	}
	p.RecordRewrite(r.From, r.To)
	if r.ImportSource != "" && r.ImportNamed != "" {
		p.NeedImport(lang.Import{
			Source: r.ImportSource,
			Named:  []lang.NamedSpecifier{{Name: r.ImportNamed}},
			Quote:  '"',
		})
	}
}
