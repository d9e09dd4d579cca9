package rules

import (
	"errors"
	"testing"

	"github.com/ariel-frischer/modelverifier/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noFindings(*model.TypeDescriptor, *model.Graph) ([]Finding, error) { return nil, nil }

func typeRule(id string) Rule {
	return Rule{ID: id, Severity: SeverityError, Check: noFindings}
}

func TestRegistry_Register(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		rule    Rule
		wantErr error
	}{
		"type rule": {
			rule: typeRule("a"),
		},
		"graph rule": {
			rule: Rule{ID: "g", Severity: SeverityWarning, CheckGraph: func(*model.Graph) ([]Finding, error) { return nil, nil }},
		},
		"empty id": {
			rule:    typeRule("  "),
			wantErr: ErrInvalidRule,
		},
		"reserved id": {
			rule:    typeRule(RuleErrorID),
			wantErr: ErrInvalidRule,
		},
		"no check": {
			rule:    Rule{ID: "x", Severity: SeverityError},
			wantErr: ErrInvalidRule,
		},
		"both checks": {
			rule: Rule{
				ID:         "x",
				Severity:   SeverityError,
				Check:      noFindings,
				CheckGraph: func(*model.Graph) ([]Finding, error) { return nil, nil },
			},
			wantErr: ErrInvalidRule,
		},
		"bad severity": {
			rule:    Rule{ID: "x", Severity: "fatal", Check: noFindings},
			wantErr: ErrInvalidRule,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			r := NewRegistry()
			err := r.Register(tt.rule)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				assert.Equal(t, 0, r.Len())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, r.Len())
		})
	}
}

func TestRegistry_DuplicateLeavesRegistryUnchanged(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	first := typeRule("dup")
	first.Description = "first"
	require.NoError(t, r.Register(first))

	second := typeRule("dup")
	second.Description = "second"
	err := r.Register(second)

	var dupErr *DuplicateRuleError
	require.True(t, errors.As(err, &dupErr))
	assert.Equal(t, "dup", dupErr.ID)
	assert.True(t, IsDuplicateRule(err))
	assert.Contains(t, err.Error(), `"dup"`)

	assert.Equal(t, 1, r.Len())
	got, ok := r.Get("dup")
	require.True(t, ok)
	assert.Equal(t, "first", got.Description)
}

func TestRegistry_OrderAndCopies(t *testing.T) {
	t.Parallel()

	r := NewRegistry().MustRegister(typeRule("c"), typeRule("a"), typeRule("b"))
	assert.Equal(t, []string{"c", "a", "b"}, r.IDs())

	all := r.All()
	all[0].ID = "mutated"
	assert.Equal(t, "c", r.All()[0].ID)

	_, ok := r.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_MustRegisterPanicsOnDuplicate(t *testing.T) {
	t.Parallel()

	r := NewRegistry().MustRegister(typeRule("a"))
	assert.Panics(t, func() { r.MustRegister(typeRule("a")) })
}

func TestRegistry_FilterAndMap(t *testing.T) {
	t.Parallel()

	r := NewRegistry().MustRegister(typeRule("a"), typeRule("b"), typeRule("c"))

	filtered := r.Filter(func(rule Rule) bool { return rule.ID != "b" })
	assert.Equal(t, []string{"a", "c"}, filtered.IDs())
	_, ok := filtered.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 3, r.Len())

	mapped := r.Map(func(rule Rule) Rule {
		rule.ID = "ignored"
		return rule.WithSeverity(SeverityWarning)
	})
	assert.Equal(t, []string{"a", "b", "c"}, mapped.IDs())
	for _, rule := range mapped.All() {
		assert.Equal(t, SeverityWarning, rule.Severity)
	}
	got, _ := r.Get("a")
	assert.Equal(t, SeverityError, got.Severity)
}

func TestRegistry_ZeroValueIsUsable(t *testing.T) {
	t.Parallel()

	var r Registry
	require.NoError(t, r.Register(typeRule("a")))
	assert.Equal(t, []string{"a"}, r.IDs())
}

func TestParseSeverity(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input   string
		want    Severity
		wantErr bool
	}{
		"error":   {input: "error", want: SeverityError},
		"warning": {input: "warning", want: SeverityWarning},
		"unknown": {input: "info", wantErr: true},
		"empty":   {input: "", wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseSeverity(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRule_AppliesToType(t *testing.T) {
	t.Parallel()

	agg := &model.TypeDescriptor{Name: "A", Capabilities: model.Aggregate}
	proj := &model.TypeDescriptor{Name: "P", Capabilities: model.Projection}

	aggRule := Rule{ID: "r", AppliesTo: model.Aggregate, Check: noFindings}
	anyRule := Rule{ID: "any", Check: noFindings}
	graphRule := Rule{ID: "g", CheckGraph: func(*model.Graph) ([]Finding, error) { return nil, nil }}

	assert.True(t, aggRule.AppliesToType(agg))
	assert.False(t, aggRule.AppliesToType(proj))
	assert.True(t, anyRule.AppliesToType(proj))
	assert.False(t, graphRule.AppliesToType(agg))
}
