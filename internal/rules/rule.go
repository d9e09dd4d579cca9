package rules

import (
	"fmt"

	"github.com/ariel-frischer/modelverifier/internal/model"
)

// Severity is how serious a violation is. Only errors fail verification.
type Severity string

const (
	// SeverityError fails verification.
	SeverityError Severity = "error"
	// SeverityWarning is reported but does not fail verification.
	SeverityWarning Severity = "warning"
)

// ValidSeverities lists all severities.
var ValidSeverities = []Severity{SeverityError, SeverityWarning}

// ParseSeverity parses a severity name.
func ParseSeverity(s string) (Severity, error) {
	for _, valid := range ValidSeverities {
		if Severity(s) == valid {
			return valid, nil
		}
	}
	return "", fmt.Errorf("invalid severity %q: valid options are error, warning", s)
}

// Finding is a problem reported by a check. The engine turns findings into violations.
type Finding struct {
	// Type is the offending descriptor. Type checks may leave it nil to mean the checked type.
	Type *model.TypeDescriptor
	// Message is a human-readable description.
	Message string
}

// Findingf builds a finding with a formatted message.
func Findingf(t *model.TypeDescriptor, format string, args ...any) Finding {
	return Finding{Type: t, Message: fmt.Sprintf(format, args...)}
}

// TypeCheck inspects one descriptor.
type TypeCheck func(t *model.TypeDescriptor, g *model.Graph) ([]Finding, error)

// GraphCheck inspects the whole graph.
type GraphCheck func(g *model.Graph) ([]Finding, error)

// Rule is a named verification rule. Exactly one of Check and CheckGraph is set.
type Rule struct {
	// ID uniquely identifies the rule within a registry.
	ID string
	// Description says what the rule enforces.
	Description string
	// Severity of the violations the rule produces.
	Severity Severity
	// AppliesTo restricts a type check to descriptors with any of these
	// capabilities. model.AnyCapability applies it to every descriptor.
	AppliesTo model.Capability
	// Check is the per-type predicate.
	Check TypeCheck
	// CheckGraph is the whole-graph predicate.
	CheckGraph GraphCheck
}

// IsGraphRule reports whether the rule inspects the whole graph.
func (r Rule) IsGraphRule() bool {
	return r.CheckGraph != nil
}

// AppliesToType reports whether a type check should run against t.
func (r Rule) AppliesToType(t *model.TypeDescriptor) bool {
	return !r.IsGraphRule() && t.Capabilities.Intersects(r.AppliesTo)
}

// WithSeverity returns a copy of the rule with a different severity.
func (r Rule) WithSeverity(s Severity) Rule {
	r.Severity = s
	return r
}
