// Package postprocess holds the steps that run once per batch after the
// per-file pass: scaffolding the files the target layout expects,
// de-duplicating stylesheets, and rewriting the aggregate project
// manifest. Each step is an engine post-processor; failures become
// batch warnings and never abort the migration.
package postprocess

import (
	"context"
	"fmt"
	"path"
	"strings"

	"stackshift/internal/diffutil"
	"stackshift/internal/engine"
	"stackshift/internal/migration"
	"stackshift/internal/transform"
)

// scaffoldConfidence is the score assigned to generated files. They are
// templates, not transformations, so they score high but below a clean
// rewrite.
const scaffoldConfidence = 90

// Scaffolds materializes the plan's create actions that no transformed
// file satisfied: build configuration, path-alias configuration, and the
// application shell the target router expects.
type Scaffolds struct {
	Pairs *transform.PairRegistry
}

// NewScaffolds builds the processor. A nil registry selects the default
// framework pairs.
func NewScaffolds(pairs *transform.PairRegistry) *Scaffolds {
	if pairs == nil {
		pairs = transform.DefaultPairRegistry()
	}
	return &Scaffolds{Pairs: pairs}
}

func (s *Scaffolds) Name() string { return "scaffolds" }

func (s *Scaffolds) Process(_ context.Context, spec *migration.Specification, batch *engine.BatchResult) error {
	pr := s.Pairs.RulesFor(spec.Source.Framework, spec.Target.Framework)

	for _, action := range batch.PlanActions {
		if action.Action != migration.PlanCreate || action.NewPath == "" {
			continue
		}
		if _, exists := batch.Results[action.NewPath]; exists {
			continue
		}
		content, ok := scaffoldContent(action.NewPath, pr.AliasPrefix)
		if !ok {
			return fmt.Errorf("no scaffold template for %s", action.NewPath)
		}

		diff := diffutil.Unified("", content, action.NewPath)
		added, _ := diffutil.Stats(diff)
		batch.Results[action.NewPath] = &engine.TransformResult{
			OriginalPath: action.NewPath,
			NewPath:      action.NewPath,
			Code:         content,
			Diff:         diff,
			Metadata: engine.Metadata{
				FilesModified: []string{action.NewPath},
				LinesAdded:    added,
				Confidence:    scaffoldConfidence,
				RiskScore:     100 - scaffoldConfidence,
				Applied:       []string{"scaffold: " + action.NewPath},
			},
			Success: true,
		}
	}
	return nil
}

// scaffoldContent returns the template for a known scaffold path. The
// base name decides the template, so conventions may place files in any
// directory.
func scaffoldContent(p, aliasPrefix string) (string, bool) {
	switch path.Base(p) {
	case "next.config.js", "next.config.mjs":
		return nextConfigTemplate, true
	case "jsconfig.json", "tsconfig.json":
		return aliasConfigTemplate(aliasPrefix), true
	case "layout.jsx", "layout.tsx":
		return rootLayoutTemplate, true
	case "_app.jsx", "_app.tsx":
		return appShellTemplate, true
	}
	return "", false
}

const nextConfigTemplate = `/** @type {import('next').NextConfig} */
const nextConfig = {
  reactStrictMode: true,
};

module.exports = nextConfig;
`

const rootLayoutTemplate = `export const metadata = {
  title: 'Migrated App',
};

export default function RootLayout({ children }) {
  return (
    <html lang="en">
      <body>{children}</body>
    </html>
  );
}
`

const appShellTemplate = `export default function App({ Component, pageProps }) {
  return <Component {...pageProps} />;
}
`

// aliasConfigTemplate emits a compiler config whose path mapping matches
// the alias prefix the import rewrites produced.
func aliasConfigTemplate(aliasPrefix string) string {
	if aliasPrefix == "" {
		aliasPrefix = "@/"
	}
	alias := strings.TrimSuffix(aliasPrefix, "/")
	return fmt.Sprintf(`{
  "compilerOptions": {
    "baseUrl": ".",
    "paths": {
      "%s/*": ["./*"]
    }
  }
}
`, alias)
}
