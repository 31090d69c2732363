package rules

// ViolationType classifies a rule finding.
type ViolationType string

const (
	TypeBreakingChange  ViolationType = "breaking-change"
	TypeDeprecation     ViolationType = "deprecation"
	TypeIncompatibility ViolationType = "incompatibility"
)

// Severity is how hard a violation blocks validity. Only error-severity
// violations make a file invalid.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Violation is one typed finding produced by rule validation. Violations
// are immutable once created.
type Violation struct {
	ID          string        `json:"id"`
	Type        ViolationType `json:"type"`
	Severity    Severity      `json:"severity"`
	Line        int           `json:"line"`
	Column      int           `json:"column"`
	Message     string        `json:"message"`
	Suggestion  string        `json:"suggestion,omitempty"`
	AutoFixable bool          `json:"autoFixable"`
	FilePath    string        `json:"filePath"`
}

// Validation is the outcome of validating one file against the rule set.
// Valid is true iff no error-severity violation exists; warnings are
// advisory strings that never affect validity.
type Validation struct {
	Valid      bool
	Violations []Violation
	Warnings   []string
}

// ErrorCount returns the number of error-severity violations.
func (v Validation) ErrorCount() int {
	n := 0
	for _, viol := range v.Violations {
		if viol.Severity == SeverityError {
			n++
		}
	}
	return n
}

// Report is an aggregate view over a set of violations.
type Report struct {
	Total       int
	Errors      int
	Warnings    int
	AutoFixable int
	ManualFixes int
	ByFile      map[string][]Violation
	ByType      map[ViolationType]int
}

// GenerateViolationReport groups violations by file and by type and
// separates auto-fixable findings from those needing manual review. Pure
// aggregation; the input is not modified.
func GenerateViolationReport(violations []Violation) Report {
	report := Report{
		Total:  len(violations),
		ByFile: make(map[string][]Violation),
		ByType: make(map[ViolationType]int),
	}
	for _, v := range violations {
		report.ByFile[v.FilePath] = append(report.ByFile[v.FilePath], v)
		report.ByType[v.Type]++
		if v.Severity == SeverityError {
			report.Errors++
		} else {
			report.Warnings++
		}
		if v.AutoFixable {
			report.AutoFixable++
		} else {
			report.ManualFixes++
		}
	}
	return report
}
