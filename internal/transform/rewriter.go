// Package transform is the deterministic AST rewriting pass: it parses a
// source file with the grammar matching the migration's source language,
// applies the framework pair's rewrite rules and the specification's
// import mappings as span edits, and re-emits source text. Output is
// re-parsed before it is returned; the pass never emits code that is
// more broken than its input.
package transform

import (
	"context"
	"fmt"

	"stackshift/internal/lang"
	"stackshift/internal/migration"
)

// Result is the outcome of one transformation pass. Errors carries
// non-fatal notes (rewrites that were refused); Applied lists the audit
// entries of everything that fired.
type Result struct {
	Code    string
	Errors  []string
	Applied []string
}

// Rewriter applies deterministic rewrites for a framework pair.
type Rewriter struct {
	langs *lang.Registry
	pairs *PairRegistry
}

// NewRewriter builds a rewriter. Nil arguments select the default
// grammar registry and the default pair registry.
func NewRewriter(langs *lang.Registry, pairs *PairRegistry) *Rewriter {
	if langs == nil {
		langs = lang.DefaultRegistry()
	}
	if pairs == nil {
		pairs = DefaultPairRegistry()
	}
	return &Rewriter{langs: langs, pairs: pairs}
}

// Languages exposes the grammar registry the rewriter parses with.
func (rw *Rewriter) Languages() *lang.Registry {
	return rw.langs
}

// Transform rewrites code for the given specification. On any hard
// failure the returned Result carries the ORIGINAL code untouched along
// with the error; partially rewritten output is never returned.
func (rw *Rewriter) Transform(ctx context.Context, code string, spec *migration.Specification, fctx *migration.FileContext) (Result, error) {
	res := Result{Code: code}

	profile, err := rw.profileFor(spec, fctx)
	if err != nil {
		return res, err
	}

	src := []byte(code)
	tree, err := lang.Parse(ctx, profile, src)
	if err != nil {
		return res, fmt.Errorf("transform %s: %w", contextPath(fctx), err)
	}
	defer tree.Close()
	baselineErrors := lang.CountErrorNodes(tree)

	pass := &Pass{Root: tree.RootNode(), Src: src, Spec: spec, Ctx: fctx}
	pr := rw.pairs.RulesFor(spec.Source.Framework, spec.Target.Framework)

	for _, rule := range pr.Body {
		rule.Apply(pass)
	}
	rewriteImports(pass, pr)

	res.Errors = pass.notes
	res.Applied = pass.applied
	if len(pass.edits) == 0 {
		return res, nil
	}

	out := lang.ApplyEdits(src, pass.edits)
	check, err := lang.Parse(ctx, profile, out)
	if err != nil {
		return res, fmt.Errorf("transform %s: reparse: %w", contextPath(fctx), err)
	}
	defer check.Close()
	if introduced := lang.CountErrorNodes(check) - baselineErrors; introduced > 0 {
		return res, fmt.Errorf("transform %s: rewrite introduced %d syntax error(s), keeping original code", contextPath(fctx), introduced)
	}

	res.Code = string(out)
	return res, nil
}

func (rw *Rewriter) profileFor(spec *migration.Specification, fctx *migration.FileContext) (*lang.Profile, error) {
	if fctx != nil {
		if p, ok := rw.langs.ProfileForPath(fctx.Path); ok {
			return p, nil
		}
	}
	return rw.langs.Profile(spec.Source.Language)
}

func contextPath(fctx *migration.FileContext) string {
	if fctx == nil {
		return "<unknown>"
	}
	return fctx.Path
}
