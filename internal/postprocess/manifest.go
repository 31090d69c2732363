package postprocess

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"

	"stackshift/internal/diffutil"
	"stackshift/internal/engine"
	"stackshift/internal/migration"
)

// Manifest rewrites the project manifest for the target stack: scripts
// point at the target build tool, source-stack packages are dropped, and
// the target framework is added as a dependency. The per-file pass leaves
// package.json untouched, so this is where the dependency surface of the
// whole batch gets reconciled.
type Manifest struct{}

func NewManifest() *Manifest { return &Manifest{} }

func (m *Manifest) Name() string { return "manifest" }

func (m *Manifest) Process(_ context.Context, spec *migration.Specification, batch *engine.BatchResult) error {
	for p, result := range batch.Results {
		if path.Base(p) != "package.json" {
			continue
		}
		rewritten, changed, err := rewriteManifest(result.Code, spec)
		if err != nil {
			return fmt.Errorf("rewrite %s: %w", p, err)
		}
		if !changed {
			continue
		}
		result.Code = rewritten
		result.Diff = diffutil.Unified(result.OriginalCode, rewritten, p)
		added, removed := diffutil.Stats(result.Diff)
		result.Metadata.LinesAdded = added
		result.Metadata.LinesRemoved = removed
		result.Metadata.FilesModified = appendUnique(result.Metadata.FilesModified, p)
		result.Metadata.Applied = append(result.Metadata.Applied,
			"manifest: scripts and dependencies rewritten for "+spec.Target.Framework)
	}
	return nil
}

func rewriteManifest(code string, spec *migration.Specification) (string, bool, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(code), &doc); err != nil {
		return "", false, fmt.Errorf("parse manifest: %w", err)
	}

	removed := removedPackages(spec)
	changed := false

	scripts, err := stringMap(doc, "scripts")
	if err != nil {
		return "", false, err
	}
	if rewriteScripts(scripts, spec, removed) {
		changed = true
	}

	deps, err := stringMap(doc, "dependencies")
	if err != nil {
		return "", false, err
	}
	devDeps, err := stringMap(doc, "devDependencies")
	if err != nil {
		return "", false, err
	}
	for name := range removed {
		if _, ok := deps[name]; ok {
			delete(deps, name)
			changed = true
		}
		if _, ok := devDeps[name]; ok {
			delete(devDeps, name)
			changed = true
		}
	}
	if pkg := frameworkPackage(spec.Target.Framework); pkg != "" {
		if _, ok := deps[pkg]; !ok {
			deps[pkg] = versionRange(spec.Target.Version)
			changed = true
		}
	}

	if !changed {
		return code, false, nil
	}

	setStringMap(doc, "scripts", scripts)
	setStringMap(doc, "dependencies", deps)
	setStringMap(doc, "devDependencies", devDeps)
	out, err := renderManifest(doc)
	if err != nil {
		return "", false, err
	}
	return out, true, nil
}

// removedPackages is the union of everything the rules mark for removal,
// the source build tool, and the keys of the build-tool mapping. Entries
// that are not package names simply never match a dependency.
func removedPackages(spec *migration.Specification) map[string]bool {
	removed := make(map[string]bool)
	for _, name := range spec.Rules.MustRemove {
		removed[name] = true
	}
	if spec.Source.BuildTool != "" {
		removed[spec.Source.BuildTool] = true
	}
	for old := range spec.Mappings.BuildTool {
		removed[old] = true
	}
	return removed
}

// rewriteScripts remaps the leading command of each script through the
// build-tool mapping and drops scripts whose tool was removed without a
// replacement. Next targets additionally get the canonical script set.
func rewriteScripts(scripts map[string]string, spec *migration.Specification, removed map[string]bool) bool {
	changed := false
	for name, cmd := range scripts {
		fields := strings.Fields(cmd)
		if len(fields) == 0 {
			continue
		}
		if mapped, ok := spec.Mappings.BuildTool[fields[0]]; ok {
			fields[0] = mapped
			scripts[name] = strings.Join(fields, " ")
			changed = true
		} else if removed[fields[0]] {
			delete(scripts, name)
			changed = true
		}
	}
	if pkg := frameworkPackage(spec.Target.Framework); pkg == "next" {
		for name, cmd := range map[string]string{
			"dev":   "next dev",
			"build": "next build",
			"start": "next start",
		} {
			if scripts[name] != cmd {
				scripts[name] = cmd
				changed = true
			}
		}
	}
	return changed
}

func frameworkPackage(framework string) string {
	switch strings.ToLower(framework) {
	case "next", "nextjs", "next.js":
		return "next"
	case "":
		return ""
	}
	return strings.ToLower(framework)
}

func versionRange(version string) string {
	if version == "" {
		return "latest"
	}
	return "^" + version
}

func stringMap(doc map[string]json.RawMessage, key string) (map[string]string, error) {
	raw, ok := doc[key]
	if !ok {
		return map[string]string{}, nil
	}
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", key, err)
	}
	return m, nil
}

func setStringMap(doc map[string]json.RawMessage, key string, m map[string]string) {
	if len(m) == 0 {
		delete(doc, key)
		return
	}
	raw, _ := json.Marshal(m)
	doc[key] = raw
}

// renderManifest writes the document with the conventional keys first so
// the rewrite does not shuffle the whole file.
func renderManifest(doc map[string]json.RawMessage) (string, error) {
	preferred := []string{"name", "version", "private", "type", "scripts", "dependencies", "devDependencies"}
	seen := make(map[string]bool, len(preferred))
	keys := make([]string, 0, len(doc))
	for _, k := range preferred {
		if _, ok := doc[k]; ok {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	rest := make([]string, 0, len(doc))
	for k := range doc {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	keys = append(keys, rest...)

	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, k := range keys {
		keyJSON, _ := json.Marshal(k)
		buf.WriteString("  ")
		buf.Write(keyJSON)
		buf.WriteString(": ")
		var val bytes.Buffer
		if err := json.Indent(&val, doc[k], "  ", "  "); err != nil {
			return "", fmt.Errorf("render manifest %s: %w", k, err)
		}
		buf.Write(val.Bytes())
		if i < len(keys)-1 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")
	return buf.String(), nil
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
