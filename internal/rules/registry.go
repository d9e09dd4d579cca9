package rules

import (
	"fmt"
	"strings"
)

// Registry holds rules in registration order.
type Registry struct {
	rules []Rule
	index map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Register adds a rule. It fails with *DuplicateRuleError when the id is taken,
// in which case the registry is left unchanged.
func (r *Registry) Register(rule Rule) error {
	rule.ID = strings.TrimSpace(rule.ID)
	if rule.ID == "" {
		return fmt.Errorf("%w: rule id is required", ErrInvalidRule)
	}
	if rule.ID == RuleErrorID {
		return fmt.Errorf("%w: rule id %q is reserved", ErrInvalidRule, RuleErrorID)
	}
	if (rule.Check == nil) == (rule.CheckGraph == nil) {
		return fmt.Errorf("%w: rule %q must define exactly one of Check or CheckGraph", ErrInvalidRule, rule.ID)
	}
	if _, err := ParseSeverity(string(rule.Severity)); err != nil {
		return fmt.Errorf("%w: rule %q: %v", ErrInvalidRule, rule.ID, err)
	}
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if _, exists := r.index[rule.ID]; exists {
		return &DuplicateRuleError{ID: rule.ID}
	}
	r.index[rule.ID] = len(r.rules)
	r.rules = append(r.rules, rule)
	return nil
}

// MustRegister registers rules and panics on error. It is meant for static catalogs.
func (r *Registry) MustRegister(rules ...Rule) *Registry {
	for _, rule := range rules {
		if err := r.Register(rule); err != nil {
			panic(err)
		}
	}
	return r
}

// All returns the rules in registration order.
func (r *Registry) All() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// Get returns the rule with the given id.
func (r *Registry) Get(id string) (Rule, bool) {
	i, ok := r.index[id]
	if !ok {
		return Rule{}, false
	}
	return r.rules[i], true
}

// Len returns the number of registered rules.
func (r *Registry) Len() int {
	return len(r.rules)
}

// IDs returns the rule ids in registration order.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.rules))
	for i, rule := range r.rules {
		ids[i] = rule.ID
	}
	return ids
}

// Filter returns a new registry holding the rules for which keep returns true,
// in the original order.
func (r *Registry) Filter(keep func(Rule) bool) *Registry {
	out := NewRegistry()
	for _, rule := range r.rules {
		if keep(rule) {
			out.index[rule.ID] = len(out.rules)
			out.rules = append(out.rules, rule)
		}
	}
	return out
}

// Map returns a new registry with each rule replaced by fn(rule). The id must not change.
func (r *Registry) Map(fn func(Rule) Rule) *Registry {
	out := NewRegistry()
	for _, rule := range r.rules {
		mapped := fn(rule)
		mapped.ID = rule.ID
		out.index[mapped.ID] = len(out.rules)
		out.rules = append(out.rules, mapped)
	}
	return out
}
