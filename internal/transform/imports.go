package transform

import (
	"path"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"stackshift/internal/lang"
)

// rewriteImports runs the import stage of a pass: source remapping from
// the specification's import mappings (exact match, then longest prefix),
// alias inference for relative imports landing in conventional
// directories, pair-specific specifier moves and renames, statement
// de-duplication, and finally the additions queued by body rules.
func rewriteImports(p *Pass, pr PairRules) {
	imports := lang.Imports(p.Root, p.Src)

	seen := make(map[string]bool)
	var models []lang.Import
	var lastKeptEnd uint32
	fileQuote := byte('"')

	for i, im := range imports {
		if i == 0 && im.Quote != 0 {
			fileQuote = im.Quote
		}

		transformed, changed := transformImport(p, pr, im)

		var kept []lang.Import
		for _, m := range transformed {
			key := m.Key()
			if seen[key] {
				changed = true
				continue
			}
			seen[key] = true
			kept = append(kept, m)
		}

		if len(kept) == 0 {
			p.AddEdit(deleteStatement(p.Src, im.Node))
			continue
		}
		if changed {
			rendered := make([]string, len(kept))
			for j, m := range kept {
				rendered[j] = m.Render()
			}
			p.AddEdit(lang.EditNode(im.Node, strings.Join(rendered, "\n")))
		}
		models = append(models, kept...)
		lastKeptEnd = im.Node.EndByte()
	}

	appendQueuedImports(p, models, lastKeptEnd, fileQuote)
}

// transformImport maps one decoded import through the source mapping and
// the pair's specifier operations. It returns the resulting statement
// models (none when the import is removed, two when a specifier moves
// out) and whether anything actually changed.
func transformImport(p *Pass, pr PairRules, im lang.Import) ([]lang.Import, bool) {
	filePath := ""
	if p.Ctx != nil {
		filePath = p.Ctx.Path
	}

	newSource, removed := mapImportSource(im.Source, p.Spec.Mappings.Imports, pr, filePath)
	if removed {
		p.RecordImportChange(im.Source, "(removed)")
		return nil, true
	}

	changed := false
	base := im
	if newSource != im.Source {
		base.Source = newSource
		p.RecordImportChange(im.Source, newSource)
		changed = true
	}

	var moves []lang.Import
	var remaining []lang.NamedSpecifier
	remaining = append(remaining, base.Named...)
	for _, mv := range pr.SpecifierMoves {
		if mv.Source != im.Source {
			continue
		}
		idx := specifierIndex(remaining, mv.Name)
		if idx < 0 {
			continue
		}
		spec := remaining[idx]
		remaining = append(remaining[:idx], remaining[idx+1:]...)

		local := spec.Alias
		if local == "" {
			local = spec.Name
		}
		model := lang.Import{Source: mv.NewSource, Quote: im.Quote}
		if mv.AsDefault {
			model.Default = local
		} else {
			model.Named = []lang.NamedSpecifier{spec}
		}
		moves = append(moves, model)
		p.RecordImportChange(spec.Name, mv.NewSource)
		changed = true
	}

	for _, rn := range pr.SpecifierRenames {
		if rn.Source != im.Source {
			continue
		}
		for i := range remaining {
			if remaining[i].Name == rn.From {
				remaining[i].Name = rn.To
				p.RecordRewrite(rn.From, rn.To)
				changed = true
			}
		}
	}
	base.Named = remaining

	hadClause := im.Default != "" || im.Namespace != "" || len(im.Named) > 0
	if hadClause && base.Default == "" && base.Namespace == "" && len(base.Named) == 0 {
		// Every binding moved elsewhere; nothing left to import from here.
		return moves, true
	}
	return append([]lang.Import{base}, moves...), changed
}

func specifierIndex(specs []lang.NamedSpecifier, name string) int {
	for i, s := range specs {
		if s.Name == name {
			return i
		}
	}
	return -1
}

// mapImportSource resolves a module specifier through the mapping table.
// Exact matches win, then the longest matching prefix; relative imports
// crossing into one of the pair's conventional directories become alias
// imports so they survive file relocation. An empty mapping value means
// the import is dropped.
func mapImportSource(source string, mappings map[string]string, pr PairRules, filePath string) (string, bool) {
	if mapped, ok := mappings[source]; ok {
		if mapped == "" {
			return "", true
		}
		return mapped, false
	}

	bestKey := ""
	for key := range mappings {
		if key != "" && strings.HasPrefix(source, key+"/") && len(key) > len(bestKey) {
			bestKey = key
		}
	}
	if bestKey != "" {
		mapped := mappings[bestKey]
		if mapped == "" {
			return "", true
		}
		return mapped + source[len(bestKey):], false
	}

	if alias, ok := inferAlias(source, pr, filePath); ok {
		return alias, false
	}
	return source, false
}

// inferAlias rewrites a relative import to an alias import when it
// crosses out of the file's own directory into one of the pair's
// conventional directories. Same-directory imports stay relative; the
// planner relocates sibling files together.
func inferAlias(source string, pr PairRules, filePath string) (string, bool) {
	if pr.AliasPrefix == "" || len(pr.AliasDirs) == 0 {
		return "", false
	}
	if !strings.HasPrefix(source, "../") {
		return "", false
	}
	resolved := path.Join(path.Dir(filePath), source)
	if strings.HasPrefix(resolved, "../") || resolved == ".." {
		return "", false
	}
	resolved = strings.TrimPrefix(resolved, "src/")
	dir, _, ok := strings.Cut(resolved, "/")
	if !ok {
		return "", false
	}
	for _, d := range pr.AliasDirs {
		if dir == d {
			return pr.AliasPrefix + resolved, true
		}
	}
	return "", false
}

// appendQueuedImports inserts the imports body rules asked for, skipping
// any the file already satisfies and refusing additions that would
// shadow an existing binding.
func appendQueuedImports(p *Pass, models []lang.Import, lastKeptEnd uint32, fileQuote byte) {
	var insertions []string
	addedKeys := make(map[string]bool)

	for _, add := range p.addImports {
		add.Quote = fileQuote
		key := add.Key()
		if addedKeys[key] {
			continue
		}
		addedKeys[key] = true

		if importSatisfied(models, add) {
			continue
		}
		if name := bindingCollision(models, add); name != "" {
			p.Notef("not adding import %q: name %q is already bound", add.Source, name)
			continue
		}
		insertions = append(insertions, add.Render())
		models = append(models, add)
	}

	if len(insertions) == 0 {
		return
	}
	text := strings.Join(insertions, "\n")
	if lastKeptEnd == 0 {
		at := importInsertionStart(p.Root, p.Src)
		p.AddEdit(lang.Edit{Start: at, End: at, Replacement: text + "\n"})
		return
	}
	p.AddEdit(lang.Edit{Start: lastKeptEnd, End: lastKeptEnd, Replacement: "\n" + text})
}

func importSatisfied(models []lang.Import, add lang.Import) bool {
	for _, m := range models {
		if m.Source != add.Source {
			continue
		}
		if add.Default != "" && m.Default != add.Default {
			continue
		}
		if !containsAllNamed(m.Named, add.Named) {
			continue
		}
		return true
	}
	return false
}

func containsAllNamed(have, want []lang.NamedSpecifier) bool {
	for _, w := range want {
		if specifierIndex(have, w.Name) < 0 {
			return false
		}
	}
	return true
}

func bindingCollision(models []lang.Import, add lang.Import) string {
	wanted := bindingNames(add)
	for _, m := range models {
		for _, name := range bindingNames(m) {
			for _, w := range wanted {
				if name == w {
					return name
				}
			}
		}
	}
	return ""
}

func bindingNames(im lang.Import) []string {
	var names []string
	if im.Default != "" {
		names = append(names, im.Default)
	}
	if im.Namespace != "" {
		names = append(names, im.Namespace)
	}
	for _, n := range im.Named {
		if n.Alias != "" {
			names = append(names, n.Alias)
		} else {
			names = append(names, n.Name)
		}
	}
	return names
}

// importInsertionStart returns where imports go in a file that has none:
// offset 0, or just past a leading directive like 'use client'.
func importInsertionStart(root *sitter.Node, src []byte) uint32 {
	first := root.NamedChild(0)
	if first == nil || first.Type() != "expression_statement" {
		return 0
	}
	if inner := first.NamedChild(0); inner != nil && inner.Type() == "string" {
		end := first.EndByte()
		if int(end) < len(src) && src[end] == '\n' {
			end++
		}
		return end
	}
	return 0
}

func deleteStatement(src []byte, n *sitter.Node) lang.Edit {
	end := n.EndByte()
	if int(end) < len(src) && src[end] == '\n' {
		end++
	}
	return lang.Edit{Start: n.StartByte(), End: end}
}
