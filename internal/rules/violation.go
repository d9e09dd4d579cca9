package rules

import "github.com/ariel-frischer/modelverifier/internal/model"

// RuleErrorID is reserved for violations reporting a rule that failed to evaluate.
const RuleErrorID = "rule-error"

// Kind distinguishes model findings from rule evaluation failures.
type Kind string

const (
	// KindFinding is an ordinary rule finding.
	KindFinding Kind = "finding"
	// KindRuleError reports that a rule itself failed; RuleID names the failing rule.
	KindRuleError Kind = RuleErrorID
)

// Violation is a single reported deviation. It is not modified once produced.
type Violation struct {
	Kind     Kind
	RuleID   string
	Severity Severity
	Type     *model.TypeDescriptor
	Message  string
}

// IsError reports whether the violation fails verification.
func (v Violation) IsError() bool {
	return v.Severity == SeverityError
}

// TypeName returns the offending type's name, or "" if none is set.
func (v Violation) TypeName() string {
	if v.Type == nil {
		return ""
	}
	return v.Type.Name
}
