// Package engine evaluates verification rules against a model graph.
//
// Rules are spread over a bounded worker pool and the resulting violations are
// normalized into a deterministic order: the offending type's graph index, then
// rule registration order, then the order in which a rule emitted its findings.
// A rule that panics or returns an error is isolated and reported as a single
// rule-error violation; the remaining rules are unaffected.
package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ariel-frischer/modelverifier/internal/model"
	"github.com/ariel-frischer/modelverifier/internal/rules"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the worker pool size used when none is configured.
const DefaultWorkers = 4

// Engine applies rules to graphs. It holds no per-run state and is safe for concurrent use.
type Engine struct {
	workers     int
	debugLogger func(format string, args ...any)
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers sets the maximum number of rules evaluated concurrently.
// Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n >= 1 {
			e.workers = n
		}
	}
}

// WithDebugLogger sets a logger for per-rule diagnostics.
func WithDebugLogger(logger func(format string, args ...any)) Option {
	return func(e *Engine) {
		e.debugLogger = logger
	}
}

// New creates an Engine. Default workers is 4.
func New(opts ...Option) *Engine {
	e := &Engine{workers: DefaultWorkers}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Workers returns the configured pool size.
func (e *Engine) Workers() int {
	return e.workers
}

func (e *Engine) logDebug(format string, args ...any) {
	if e.debugLogger != nil {
		e.debugLogger(format, args...)
	}
}

// entry is a violation together with its sort key.
type entry struct {
	typeIndex int
	ruleIndex int
	seq       int
	violation rules.Violation
}

// Run evaluates every rule against g and returns the normalized violations.
func (e *Engine) Run(g *model.Graph, rs []rules.Rule) []rules.Violation {
	violations, _ := e.RunContext(context.Background(), g, rs)
	return violations
}

// RunContext is Run with cancellation. Once ctx is done no further rules are
// scheduled and ctx's error is returned without violations.
func (e *Engine) RunContext(ctx context.Context, g *model.Graph, rs []rules.Rule) ([]rules.Violation, error) {
	if g == nil || g.Len() == 0 {
		e.logDebug("engine: empty graph, skipping %d rule(s)", len(rs))
		return nil, ctx.Err()
	}

	types := g.Types()
	var (
		mu      sync.Mutex
		entries []entry
	)

	// egCtx is cancelled by Wait; only the caller's ctx decides the outcome.
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(e.workers)

	for i, rule := range rs {
		if err := egCtx.Err(); err != nil {
			break
		}
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			produced := evaluate(i, rule, g, types)
			e.logDebug("engine: rule %s produced %d violation(s)", rule.ID, len(produced))

			mu.Lock()
			entries = append(entries, produced...)
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(entries, func(a, b int) bool {
		ea, eb := entries[a], entries[b]
		if ea.typeIndex != eb.typeIndex {
			return ea.typeIndex < eb.typeIndex
		}
		if ea.ruleIndex != eb.ruleIndex {
			return ea.ruleIndex < eb.ruleIndex
		}
		return ea.seq < eb.seq
	})

	violations := make([]rules.Violation, len(entries))
	for i, en := range entries {
		violations[i] = en.violation
	}
	return violations, nil
}

// evaluate runs one rule over the graph. Types are visited in graph order so the
// first failure, and therefore the rule-error's position, is deterministic.
func evaluate(ruleIndex int, rule rules.Rule, g *model.Graph, types []*model.TypeDescriptor) []entry {
	ev := evaluation{rule: rule, ruleIndex: ruleIndex, graph: g}

	if rule.IsGraphRule() {
		findings, err := callGraph(rule, g)
		ev.record(types[0], findings, err)
		return ev.entries
	}
	if rule.Check == nil {
		ev.fail(types[0], fmt.Errorf("rule has no check"))
		return ev.entries
	}
	for _, t := range types {
		if !rule.AppliesToType(t) {
			continue
		}
		findings, err := callType(rule, t, g)
		ev.record(t, findings, err)
	}
	return ev.entries
}

type evaluation struct {
	rule      rules.Rule
	ruleIndex int
	graph     *model.Graph
	failed    bool
	seq       int
	entries   []entry
}

// record turns findings into violations. Findings without a type, or with a type
// outside the graph, are attributed to subject.
func (ev *evaluation) record(subject *model.TypeDescriptor, findings []rules.Finding, err error) {
	if err != nil {
		ev.fail(subject, err)
		return
	}
	for _, f := range findings {
		t := f.Type
		if t == nil || !ev.graph.Contains(t) {
			t = subject
		}
		ev.add(t, rules.Violation{
			Kind:     rules.KindFinding,
			RuleID:   ev.rule.ID,
			Severity: ev.rule.Severity,
			Type:     t,
			Message:  f.Message,
		})
	}
}

// fail records the rule's single rule-error violation.
func (ev *evaluation) fail(subject *model.TypeDescriptor, err error) {
	if ev.failed {
		return
	}
	ev.failed = true
	ev.add(subject, rules.Violation{
		Kind:     rules.KindRuleError,
		RuleID:   ev.rule.ID,
		Severity: rules.SeverityError,
		Type:     subject,
		Message:  fmt.Sprintf("rule %q failed to evaluate: %v", ev.rule.ID, err),
	})
}

func (ev *evaluation) add(t *model.TypeDescriptor, v rules.Violation) {
	ev.entries = append(ev.entries, entry{typeIndex: t.Index, ruleIndex: ev.ruleIndex, seq: ev.seq, violation: v})
	ev.seq++
}

func callType(rule rules.Rule, t *model.TypeDescriptor, g *model.Graph) (findings []rules.Finding, err error) {
	defer func() {
		if r := recover(); r != nil {
			findings, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return rule.Check(t, g)
}

func callGraph(rule rules.Rule, g *model.Graph) (findings []rules.Finding, err error) {
	defer func() {
		if r := recover(); r != nil {
			findings, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return rule.CheckGraph(g)
}
