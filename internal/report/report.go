// Package report summarizes rule violations into a verification verdict and
// renders it as text, JSON or YAML.
package report

import (
	"time"

	"github.com/ariel-frischer/modelverifier/internal/rules"
)

// Verdict is the outcome of a verification run.
type Verdict string

const (
	// VerdictPass means no error-severity violation was found.
	VerdictPass Verdict = "pass"
	// VerdictFail means at least one error-severity violation was found.
	VerdictFail Verdict = "fail"
)

// Report is the result of verifying one module.
type Report struct {
	// Module is the verified module's name.
	Module string
	// Revision identifies the verified sources, e.g. a git commit. Optional.
	Revision string
	// Verdict is fail iff Errors > 0.
	Verdict Verdict
	// Errors counts error-severity violations, rule errors included.
	Errors int
	// Warnings counts warning-severity violations.
	Warnings int
	// Duration is how long verification took. Zero when not measured.
	Duration time.Duration
	// Violations in engine order.
	Violations []rules.Violation
}

// Summarize builds a report from violations. The slice is copied.
func Summarize(module string, violations []rules.Violation) *Report {
	r := &Report{
		Module:     module,
		Verdict:    VerdictPass,
		Violations: append([]rules.Violation(nil), violations...),
	}
	for _, v := range violations {
		if v.IsError() {
			r.Errors++
		} else {
			r.Warnings++
		}
	}
	if r.Errors > 0 {
		r.Verdict = VerdictFail
	}
	return r
}

// Passed reports whether the verdict is pass.
func (r *Report) Passed() bool {
	return r.Verdict == VerdictPass
}

// group is the violations of one offending type.
type group struct {
	name       string
	source     string
	violations []rules.Violation
}

// groups returns violations grouped by type in first-violation order.
func (r *Report) groups() []group {
	var out []group
	index := make(map[string]int)
	for _, v := range r.Violations {
		key := v.TypeName()
		i, ok := index[key]
		if !ok {
			g := group{name: key}
			if v.Type != nil {
				g.source = v.Type.Source.String()
			}
			i = len(out)
			index[key] = i
			out = append(out, g)
		}
		out[i].violations = append(out[i].violations, v)
	}
	return out
}
