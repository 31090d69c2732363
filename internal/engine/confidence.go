package engine

import "math"

// Review threshold and the low-confidence floor used in batch stats.
// These numbers are contractual: downstream consumers branch on them.
const (
	reviewThreshold      = 70
	lowConfidenceCeiling = 50
)

// Signals are the validation facts confidence scoring consumes.
type Signals struct {
	SyntaxValid        bool
	SemanticEquivalent bool
	ImportsResolved    bool
	LegacyRemoved      bool
	TotalViolations    int
	ErrorViolations    int
	Warnings           int
}

// ValidationConfidence scores one file's validation additively out of
// 100: syntax validity 30, semantic equivalence 30, import resolution
// 20, old-framework removal 10, plus a 10-point bonus for a perfectly
// clean validation; then capped penalties per error violation and per
// warning.
func ValidationConfidence(s Signals) float64 {
	score := 0.0
	if s.SyntaxValid {
		score += 30
	}
	if s.SemanticEquivalent {
		score += 30
	}
	if s.ImportsResolved {
		score += 20
	}
	if s.LegacyRemoved {
		score += 10
	}
	if s.TotalViolations == 0 && s.Warnings == 0 {
		score += 10
	}
	score -= math.Min(30, 10*float64(s.ErrorViolations))
	score -= math.Min(10, 2*float64(s.Warnings))
	return clamp(score)
}

// OverallConfidence folds overall validity and AST error count into the
// validation score, then blends 60/40 with the semantic pass confidence
// when one ran.
func OverallConfidence(validation float64, valid bool, astErrors int, semantic float64, semanticRan bool) float64 {
	score := validation
	if !valid {
		score -= 20
	}
	score -= 5 * float64(astErrors)
	if semanticRan {
		score = score*0.6 + semantic*0.4
	}
	return clamp(score)
}

// RiskScore is the inverse view for reviewers: low confidence and error
// violations push it up.
func RiskScore(confidence float64, errorViolations int) float64 {
	return clamp(100 - confidence + 5*float64(errorViolations))
}

// NeedsReview decides the manual-review flag: low confidence, an invalid
// validation, an explicit request from the semantic pass, or any
// error-severity violation.
func NeedsReview(confidence float64, valid bool, assistRequested bool, errorViolations int) bool {
	return confidence < reviewThreshold || !valid || assistRequested || errorViolations > 0
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
