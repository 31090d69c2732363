// Package equiv compares original and transformed sources by structural
// fingerprint. It is a guard against gross regressions — dropped
// functions, lost branches, vanished markup — not a proof of behavioral
// equivalence, and its verdicts must be read that way.
package equiv

import (
	"context"
	"fmt"
	"math"

	"stackshift/internal/lang"
)

// Default tolerances. Structural dimensions may drift by 20% (at least
// 1); markup may drift by 30% (at least 2). These are policy knobs, not
// constants of nature; both are fields on Checker.
const (
	DefaultStructuralTolerance = 0.20
	DefaultStructuralSlack     = 1
	DefaultElementTolerance    = 0.30
	DefaultElementSlack        = 2
)

// Result is a comparison verdict. Reason is set only when Equivalent is
// false.
type Result struct {
	Equivalent bool
	Reason     string
}

// Checker compares fingerprints within configurable tolerances.
type Checker struct {
	StructuralTolerance float64
	StructuralSlack     int
	ElementTolerance    float64
	ElementSlack        int

	langs *lang.Registry
}

// NewChecker builds a checker with the default tolerances. A nil registry
// selects the default grammars.
func NewChecker(langs *lang.Registry) *Checker {
	if langs == nil {
		langs = lang.DefaultRegistry()
	}
	return &Checker{
		StructuralTolerance: DefaultStructuralTolerance,
		StructuralSlack:     DefaultStructuralSlack,
		ElementTolerance:    DefaultElementTolerance,
		ElementSlack:        DefaultElementSlack,
		langs:               langs,
	}
}

// Compare parses both sources and compares their fingerprints. The error
// is non-nil only when a source cannot be parsed at all; a tolerance
// breach is reported through the Result.
func (c *Checker) Compare(ctx context.Context, original, transformed, path string) (Result, error) {
	origFP, err := c.fingerprint(ctx, original, path)
	if err != nil {
		return Result{}, fmt.Errorf("fingerprint original: %w", err)
	}
	xformFP, err := c.fingerprint(ctx, transformed, path)
	if err != nil {
		return Result{}, fmt.Errorf("fingerprint transformed: %w", err)
	}
	return c.CompareFingerprints(origFP, xformFP), nil
}

func (c *Checker) fingerprint(ctx context.Context, code, path string) (Fingerprint, error) {
	profile, ok := c.langs.ProfileForPath(path)
	if !ok {
		var err error
		profile, err = c.langs.Profile("javascript")
		if err != nil {
			return Fingerprint{}, err
		}
	}
	tree, err := lang.Parse(ctx, profile, []byte(code))
	if err != nil {
		return Fingerprint{}, err
	}
	defer tree.Close()
	return FingerprintTree(tree.RootNode(), []byte(code)), nil
}

// CompareFingerprints checks every structural dimension against the
// structural tolerance and the element count against the looser element
// tolerance. The first dimension out of tolerance decides the verdict.
func (c *Checker) CompareFingerprints(orig, xform Fingerprint) Result {
	dimensions := []struct {
		name string
		o, x int
	}{
		{"function", orig.Functions, xform.Functions},
		{"conditional", orig.Conditionals, xform.Conditionals},
		{"loop", orig.Loops, xform.Loops},
		{"return", orig.Returns, xform.Returns},
		{"call", len(orig.Calls), len(xform.Calls)},
	}
	for _, d := range dimensions {
		if !within(d.o, d.x, c.StructuralTolerance, c.StructuralSlack) {
			return Result{Reason: fmt.Sprintf("%s count changed beyond tolerance: %d -> %d", d.name, d.o, d.x)}
		}
	}
	if !within(orig.Elements, xform.Elements, c.ElementTolerance, c.ElementSlack) {
		return Result{Reason: fmt.Sprintf("element count changed beyond tolerance: %d -> %d", orig.Elements, xform.Elements)}
	}
	return Result{Equivalent: true}
}

func within(orig, xform int, tolerance float64, slack int) bool {
	diff := math.Abs(float64(orig - xform))
	allowed := math.Max(float64(slack), float64(orig)*tolerance)
	return diff <= allowed
}
