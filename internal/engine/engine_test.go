package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ariel-frischer/modelverifier/internal/model"
	"github.com/ariel-frischer/modelverifier/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGraph() *model.Graph {
	return model.NewGraph("orders", "Orders", nil,
		model.TypeDescriptor{Name: "Order", Capabilities: model.Aggregate},
		model.TypeDescriptor{Name: "View", Capabilities: model.Projection},
		model.TypeDescriptor{Name: "Cart", Capabilities: model.Aggregate},
	)
}

// nameRule reports every type it is applied to.
func nameRule(id string, appliesTo model.Capability, severity rules.Severity) rules.Rule {
	return rules.Rule{
		ID:        id,
		Severity:  severity,
		AppliesTo: appliesTo,
		Check: func(t *model.TypeDescriptor, _ *model.Graph) ([]rules.Finding, error) {
			return []rules.Finding{
				rules.Findingf(t, "%s saw %s", id, t.Name),
				rules.Findingf(nil, "%s saw %s again", id, t.Name),
			}, nil
		},
	}
}

func summary(vs []rules.Violation) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = fmt.Sprintf("%s|%s|%s|%s", v.TypeName(), v.RuleID, v.Severity, v.Message)
	}
	return out
}

func TestEngine_Ordering(t *testing.T) {
	t.Parallel()

	rs := []rules.Rule{
		nameRule("b-any", model.AnyCapability, rules.SeverityWarning),
		nameRule("a-agg", model.Aggregate, rules.SeverityError),
	}

	got := New().Run(sampleGraph(), rs)
	assert.Equal(t, []string{
		"Order|b-any|warning|b-any saw Order",
		"Order|b-any|warning|b-any saw Order again",
		"Order|a-agg|error|a-agg saw Order",
		"Order|a-agg|error|a-agg saw Order again",
		"View|b-any|warning|b-any saw View",
		"View|b-any|warning|b-any saw View again",
		"Cart|b-any|warning|b-any saw Cart",
		"Cart|b-any|warning|b-any saw Cart again",
		"Cart|a-agg|error|a-agg saw Cart",
		"Cart|a-agg|error|a-agg saw Cart again",
	}, summary(got))
}

func TestEngine_Deterministic(t *testing.T) {
	t.Parallel()

	var rs []rules.Rule
	for i := 0; i < 20; i++ {
		rs = append(rs, nameRule(fmt.Sprintf("rule-%02d", i), model.AnyCapability, rules.SeverityError))
	}
	g := sampleGraph()

	want := summary(New(WithWorkers(1)).Run(g, rs))
	for _, workers := range []int{1, 2, 4, 16} {
		for i := 0; i < 5; i++ {
			assert.Equal(t, want, summary(New(WithWorkers(workers)).Run(g, rs)), "workers=%d", workers)
		}
	}
}

func TestEngine_RuleFailureIsIsolated(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		failing rules.Rule
		wantOn  string
	}{
		"panicking type rule attaches to first failing type": {
			failing: rules.Rule{
				ID:       "boom",
				Severity: rules.SeverityWarning,
				Check: func(t *model.TypeDescriptor, _ *model.Graph) ([]rules.Finding, error) {
					if t.Name == "Order" {
						return []rules.Finding{rules.Findingf(t, "fine")}, nil
					}
					panic("nil dereference in " + t.Name)
				},
			},
			wantOn: "View",
		},
		"erroring type rule": {
			failing: rules.Rule{
				ID:       "boom",
				Severity: rules.SeverityError,
				Check: func(t *model.TypeDescriptor, _ *model.Graph) ([]rules.Finding, error) {
					return nil, errors.New("cannot evaluate")
				},
			},
			wantOn: "Order",
		},
		"panicking graph rule attaches to first descriptor": {
			failing: rules.Rule{
				ID:       "boom",
				Severity: rules.SeverityWarning,
				CheckGraph: func(*model.Graph) ([]rules.Finding, error) {
					panic("graph rule exploded")
				},
			},
			wantOn: "Order",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			rs := []rules.Rule{tt.failing, nameRule("ok", model.Aggregate, rules.SeverityWarning)}
			got := New().Run(sampleGraph(), rs)

			var ruleErrors []rules.Violation
			okCount := 0
			for _, v := range got {
				switch {
				case v.Kind == rules.KindRuleError:
					ruleErrors = append(ruleErrors, v)
				case v.RuleID == "ok":
					okCount++
				}
			}
			require.Len(t, ruleErrors, 1)
			assert.Equal(t, "boom", ruleErrors[0].RuleID)
			assert.Equal(t, rules.SeverityError, ruleErrors[0].Severity)
			assert.Equal(t, tt.wantOn, ruleErrors[0].TypeName())
			assert.Contains(t, ruleErrors[0].Message, `"boom"`)
			assert.Equal(t, 4, okCount, "other rules must keep their findings")
		})
	}
}

func TestEngine_FailingRuleKeepsFindingsOnOtherTypes(t *testing.T) {
	t.Parallel()

	rule := rules.Rule{
		ID:       "partial",
		Severity: rules.SeverityError,
		Check: func(t *model.TypeDescriptor, _ *model.Graph) ([]rules.Finding, error) {
			if t.Name == "View" {
				panic("bad")
			}
			return []rules.Finding{rules.Findingf(t, "checked")}, nil
		},
	}

	got := New().Run(sampleGraph(), []rules.Rule{rule})
	assert.Equal(t, []string{
		"Order|partial|error|checked",
		`View|partial|error|rule "partial" failed to evaluate: panic: bad`,
		"Cart|partial|error|checked",
	}, summary(got))
}

func TestEngine_EmptyGraph(t *testing.T) {
	t.Parallel()

	called := false
	graphRule := rules.Rule{
		ID:       "graph",
		Severity: rules.SeverityError,
		CheckGraph: func(*model.Graph) ([]rules.Finding, error) {
			called = true
			return []rules.Finding{{Message: "always"}}, nil
		},
	}

	got := New().Run(model.NewGraph("empty", "Empty", nil), []rules.Rule{graphRule, nameRule("t", 0, rules.SeverityError)})
	assert.Empty(t, got)
	assert.False(t, called)
}

func TestEngine_NoApplicableRules(t *testing.T) {
	t.Parallel()

	got := New().Run(sampleGraph(), []rules.Rule{nameRule("pm", model.ProcessManager, rules.SeverityError)})
	assert.Empty(t, got)
}

func TestEngine_ForeignFindingTypeIsAttributedToSubject(t *testing.T) {
	t.Parallel()

	stranger := &model.TypeDescriptor{Name: "Stranger", Index: 0}
	rule := rules.Rule{
		ID:        "stranger",
		Severity:  rules.SeverityError,
		AppliesTo: model.Projection,
		Check: func(*model.TypeDescriptor, *model.Graph) ([]rules.Finding, error) {
			return []rules.Finding{{Type: stranger, Message: "odd"}}, nil
		},
	}

	got := New().Run(sampleGraph(), []rules.Rule{rule})
	require.Len(t, got, 1)
	assert.Equal(t, "View", got[0].TypeName())
}

func TestEngine_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := New().RunContext(ctx, sampleGraph(), []rules.Rule{nameRule("a", 0, rules.SeverityError)})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, got)
}

func TestEngine_RunContextCompletes(t *testing.T) {
	t.Parallel()

	g := model.NewGraph("orders", "Orders", nil,
		model.TypeDescriptor{Name: "Order", Capabilities: model.Aggregate},
	)

	got, err := New(WithWorkers(2)).RunContext(t.Context(), g, rules.Builtin().All())
	require.NoError(t, err)

	var ids []string
	for _, v := range got {
		ids = append(ids, v.RuleID)
	}
	assert.Contains(t, ids, rules.AggregateHandlesCommand)
}

func TestEngine_AggregateWithoutCommandHandlers(t *testing.T) {
	t.Parallel()

	g := model.NewGraph("orders", "Orders", nil,
		model.TypeDescriptor{Name: "Order", Capabilities: model.Aggregate},
	)
	registry := rules.Builtin().Filter(func(r rules.Rule) bool { return r.ID == rules.AggregateHandlesCommand })

	got := New().Run(g, registry.All())
	require.Len(t, got, 1)
	assert.Equal(t, rules.AggregateHandlesCommand, got[0].RuleID)
	assert.Equal(t, "Order", got[0].TypeName())
	assert.True(t, got[0].IsError())
}

func TestWithWorkers(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		n    int
		want int
	}{
		"default":  {n: 0, want: DefaultWorkers},
		"one":      {n: 1, want: 1},
		"many":     {n: 12, want: 12},
		"negative": {n: -3, want: DefaultWorkers},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, New(WithWorkers(tt.n)).Workers())
		})
	}
}
