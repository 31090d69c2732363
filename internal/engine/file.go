package engine

import (
	"context"
	"fmt"
	"path/filepath"

	"stackshift/internal/assist"
	"stackshift/internal/diffutil"
	"stackshift/internal/lang"
	"stackshift/internal/migration"
	"stackshift/internal/recovery"
	"stackshift/internal/rules"
	"stackshift/internal/transform"
)

// TransformFile runs the full pipeline for one file. It never panics or
// errors across this boundary: every failure becomes a result, and a
// failed result always carries the untouched original content.
func (e *Engine) TransformFile(ctx context.Context, spec *migration.Specification, rec migration.FileRecord) (result *TransformResult) {
	result = &TransformResult{
		OriginalPath: rec.Path,
		NewPath:      rec.Path,
		Code:         rec.Content,
		OriginalCode: rec.Content,
	}
	defer func() {
		if r := recover(); r != nil {
			result.Code = rec.Content
			result.Success = false
			result.Warnings = append(result.Warnings, fmt.Sprintf("transformation panicked: %v", r))
			result.Metadata.Confidence = 0
			result.Metadata.RiskScore = 100
			result.Metadata.RequiresReview = true
		}
	}()

	fctx := e.buildFileContext(ctx, rec)

	deterministic, astErrCount, ok := e.astPass(ctx, spec, rec, fctx, result)
	if !ok {
		return result
	}

	finalCode := deterministic
	semanticConfidence := 0.0
	semanticRan := false
	assistRequested := false
	semanticFallback := false

	if e.assist != nil && assist.NeedsSemanticPass(fctx, finalCode, e.rules.LifecycleIdentifiers()) {
		req := e.buildAssistRequest(ctx, spec, rec, fctx, deterministic)
		ref, note := e.semanticPass(ctx, req, rec.Path)
		if note != "" {
			result.Warnings = append(result.Warnings, note)
		}
		if ref == nil {
			semanticFallback = true
		} else {
			if ref.Code != "" && ref.Code != deterministic {
				finalCode = ref.Code
				result.Metadata.Applied = append(result.Metadata.Applied,
					fmt.Sprintf("semantic refinement (%s)", e.assist.Name()))
			}
			result.Metadata.Notes = append(result.Metadata.Notes, ref.Notes...)
			assistRequested = ref.RequiresReview
			if ref.Confidence > 0 {
				semanticRan = true
				semanticConfidence = ref.Confidence
			}
		}
	}

	signals, validation, valid := e.validate(ctx, rec, fctx, finalCode, result)

	errorViolations := signals.ErrorViolations
	valConf := ValidationConfidence(signals)
	confidence := OverallConfidence(valConf, valid, astErrCount, semanticConfidence, semanticRan)
	if semanticFallback {
		confidence = e.opts.FallbackConfidence
	}
	review := NeedsReview(confidence, valid, assistRequested, errorViolations) || semanticFallback

	diff := diffutil.Unified(rec.Content, finalCode, rec.Path)
	added, removed := diffutil.Stats(diff)

	result.Code = finalCode
	result.Diff = diff
	result.Violations = validation.Violations
	result.Metadata.LinesAdded = added
	result.Metadata.LinesRemoved = removed
	result.Metadata.Confidence = confidence
	result.Metadata.RiskScore = RiskScore(confidence, errorViolations)
	result.Metadata.RequiresReview = review
	if finalCode != rec.Content {
		result.Metadata.FilesModified = append(result.Metadata.FilesModified, rec.Path)
	}
	result.Success = true
	return result
}

// buildFileContext derives the per-file working state: inferred type
// plus the import and export surface of the original source.
func (e *Engine) buildFileContext(ctx context.Context, rec migration.FileRecord) *migration.FileContext {
	fctx := migration.NewFileContext(rec.Path, rec.Content)

	profile, ok := e.rewriter.Languages().ProfileForPath(rec.Path)
	if !ok {
		return fctx
	}
	src := []byte(rec.Content)
	tree, err := lang.Parse(ctx, profile, src)
	if err != nil {
		return fctx
	}
	defer tree.Close()

	root := tree.RootNode()
	for _, im := range lang.Imports(root, src) {
		fctx.Dependencies = append(fctx.Dependencies, im.Source)
	}
	fctx.Exports = lang.ExportNames(root, src)
	return fctx
}

// astPass runs the deterministic rewrite, funneling failures through the
// recovery manager. ok=false means the pass failed past recovery and the
// result has been shaped as a failure.
func (e *Engine) astPass(ctx context.Context, spec *migration.Specification, rec migration.FileRecord, fctx *migration.FileContext, result *TransformResult) (code string, astErrors int, ok bool) {
	tr, err := e.rewriter.Transform(ctx, rec.Content, spec, fctx)
	if err == nil {
		result.Metadata.Applied = append(result.Metadata.Applied, tr.Applied...)
		result.Warnings = append(result.Warnings, tr.Errors...)
		return tr.Code, len(tr.Errors), true
	}

	fault := recovery.NewFault(recovery.KindTransform, "ast pass", false, err)
	rctx := &recovery.Context{FilePath: rec.Path, Operation: "ast pass"}
	rres := e.recovery.Recover(ctx, fault, rctx, func(ctx context.Context) (any, error) {
		r, rerr := e.rewriter.Transform(ctx, rec.Content, spec, fctx)
		if rerr != nil {
			return nil, rerr
		}
		return r, nil
	})

	if rres.Success {
		if recovered, isResult := rres.Value.(transform.Result); isResult {
			result.Metadata.Applied = append(result.Metadata.Applied, recovered.Applied...)
			result.Warnings = append(result.Warnings, recovered.Errors...)
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("ast pass recovered via %s", rres.Strategy))
			return recovered.Code, len(recovered.Errors), true
		}
		// Skipped: continue the pipeline on the unmodified content and
		// let validation price in whatever was not transformed.
		result.Warnings = append(result.Warnings, fmt.Sprintf("ast pass skipped: %v", err))
		return rec.Content, 0, true
	}

	result.Warnings = append(result.Warnings, fmt.Sprintf("ast pass failed: %v", err))
	result.Success = false
	result.Metadata.Confidence = 0
	result.Metadata.RiskScore = 100
	result.Metadata.RequiresReview = true
	return "", 0, false
}

// semanticPass asks the provider for a refinement, funneling failures
// through the recovery manager. A nil refinement means the pass failed
// past recovery; the caller degrades to the deterministic result at the
// fallback confidence.
func (e *Engine) semanticPass(ctx context.Context, req assist.Request, path string) (*assist.Refinement, string) {
	ref, err := e.refineSafe(ctx, req)
	if err == nil {
		return ref, ""
	}

	rctx := &recovery.Context{FilePath: path, Operation: "semantic pass"}
	rres := e.recovery.Recover(ctx, err, rctx, func(ctx context.Context) (any, error) {
		return e.refineSafe(ctx, req)
	})
	if rres.Success && rres.Value != nil {
		if recovered, isRef := rres.Value.(*assist.Refinement); isRef {
			return recovered, fmt.Sprintf("semantic pass recovered via %s after %d attempt(s)", rres.Strategy, rres.Attempts)
		}
	}
	return nil, fmt.Sprintf("semantic pass failed: %v", err)
}

// refineSafe shields the pipeline from provider panics. A panic becomes
// an assist fault, so it degrades the same way any provider error does.
func (e *Engine) refineSafe(ctx context.Context, req assist.Request) (ref *assist.Refinement, err error) {
	defer func() {
		if r := recover(); r != nil {
			ref = nil
			err = recovery.NewFault(recovery.KindAssist, "semantic pass", false, fmt.Errorf("provider panic: %v", r))
		}
	}()
	return e.assist.Refine(ctx, req)
}

// buildAssistRequest assembles the provider request. Configuration files
// get the project manifest attached when a fetcher can supply it.
func (e *Engine) buildAssistRequest(ctx context.Context, spec *migration.Specification, rec migration.FileRecord, fctx *migration.FileContext, deterministic string) assist.Request {
	req := assist.Request{
		FilePath:          rec.Path,
		FileType:          fctx.FileType,
		SourceFramework:   spec.Source.Framework,
		TargetFramework:   spec.Target.Framework,
		Code:              rec.Content,
		DeterministicCode: deterministic,
	}
	if fctx.FileType == migration.FileTypeConfig && e.fetcher != nil && filepath.Base(rec.Path) != "package.json" {
		if manifest, err := e.fetcher.Fetch(ctx, "package.json"); err == nil && manifest != "" {
			req.Notes = append(req.Notes, "project manifest (package.json):\n"+manifest)
		}
	}
	return req
}

// validate runs rule validation and equivalence checking. Structural
// checks are skipped for non-source file types; the old-framework
// reference check applies to every file.
func (e *Engine) validate(ctx context.Context, rec migration.FileRecord, fctx *migration.FileContext, finalCode string, result *TransformResult) (Signals, rules.Validation, bool) {
	legacyRemoved := !e.rules.HasLegacyReferences(finalCode)

	if !fctx.FileType.IsSource() {
		signals := Signals{
			SyntaxValid:        true,
			SemanticEquivalent: true,
			ImportsResolved:    true,
			LegacyRemoved:      legacyRemoved,
		}
		if !legacyRemoved {
			warning := fmt.Sprintf("old framework references remain in %s", rec.Path)
			result.Warnings = append(result.Warnings, warning)
			signals.Warnings = 1
		}
		return signals, rules.Validation{Valid: true}, true
	}

	validation := e.rules.ValidateAgainstRules(ctx, finalCode, rec.Path)
	result.Warnings = append(result.Warnings, validation.Warnings...)

	syntaxValid := true
	importsResolved := true
	errorViolations := 0
	warningViolations := 0
	for _, v := range validation.Violations {
		switch v.Severity {
		case rules.SeverityError:
			errorViolations++
		case rules.SeverityWarning:
			warningViolations++
		}
		switch v.ID {
		case "syntax-error":
			syntaxValid = false
		case "must-transform-import", "must-remove-import":
			importsResolved = false
		}
	}

	equivalent := false
	if syntaxValid {
		eq, err := e.checker.Compare(ctx, rec.Content, finalCode, rec.Path)
		switch {
		case err != nil:
			result.Warnings = append(result.Warnings, fmt.Sprintf("equivalence check failed: %v", err))
		case !eq.Equivalent:
			result.Warnings = append(result.Warnings, "not structurally equivalent: "+eq.Reason)
		default:
			equivalent = true
		}
	}

	signals := Signals{
		SyntaxValid:        syntaxValid,
		SemanticEquivalent: equivalent,
		ImportsResolved:    importsResolved,
		LegacyRemoved:      legacyRemoved,
		TotalViolations:    len(validation.Violations),
		ErrorViolations:    errorViolations,
		Warnings:           len(validation.Warnings) + warningViolations,
	}
	return signals, validation, validation.Valid
}
