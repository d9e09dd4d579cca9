package rules

import (
	"errors"
	"fmt"
)

// ErrInvalidRule is wrapped when a rule cannot be registered for a reason other than duplication.
var ErrInvalidRule = errors.New("invalid rule")

// DuplicateRuleError is returned when a rule id is registered twice.
type DuplicateRuleError struct {
	// ID is the duplicated rule id.
	ID string
}

// Error implements the error interface.
func (e *DuplicateRuleError) Error() string {
	return fmt.Sprintf("rule %q is already registered", e.ID)
}

// IsDuplicateRule reports whether err is or wraps a DuplicateRuleError.
func IsDuplicateRule(err error) bool {
	var dup *DuplicateRuleError
	return errors.As(err, &dup)
}
