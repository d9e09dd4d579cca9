// Package session composes loading, rule evaluation and reporting into a single
// verification call for one compiled module.
package session

import (
	"context"
	"time"

	"github.com/ariel-frischer/modelverifier/internal/engine"
	"github.com/ariel-frischer/modelverifier/internal/model"
	"github.com/ariel-frischer/modelverifier/internal/report"
	"github.com/ariel-frischer/modelverifier/internal/rules"
)

// RuleSource supplies the rules a session runs. *rules.Registry implements it.
type RuleSource interface {
	All() []rules.Rule
}

// RevisionResolver returns the source revision of a module directory.
type RevisionResolver func(dir string) (string, error)

// Session verifies modules against a fixed set of rules.
type Session struct {
	rules       RuleSource
	engineOpts  []engine.Option
	resolver    RevisionResolver
	now         func() time.Time
	debugLogger func(format string, args ...any)
}

// Option configures a Session.
type Option func(*Session)

// WithWorkers sets the engine's worker pool size.
func WithWorkers(n int) Option {
	return func(s *Session) {
		s.engineOpts = append(s.engineOpts, engine.WithWorkers(n))
	}
}

// WithRevisionResolver stamps reports with the revision returned by resolver.
// Resolver failures are logged and leave the revision empty.
func WithRevisionResolver(resolver RevisionResolver) Option {
	return func(s *Session) {
		s.resolver = resolver
	}
}

// WithClock sets the time source used to measure durations.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// WithDebugLogger sets the logger for session and engine diagnostics.
func WithDebugLogger(logger func(format string, args ...any)) Option {
	return func(s *Session) {
		s.debugLogger = logger
		s.engineOpts = append(s.engineOpts, engine.WithDebugLogger(logger))
	}
}

// New creates a session running the rules from source.
func New(source RuleSource, opts ...Option) *Session {
	s := &Session{rules: source, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) logDebug(format string, args ...any) {
	if s.debugLogger != nil {
		s.debugLogger(format, args...)
	}
}

func (s *Session) ruleList() []rules.Rule {
	if s.rules == nil {
		return nil
	}
	return s.rules.All()
}

// Verify loads the module at modulePath, evaluates the rules and returns the report.
// A *model.LoadError is returned as is; otherwise a report is always returned,
// whatever its verdict.
func (s *Session) Verify(ctx context.Context, modulePath string) (*report.Report, error) {
	start := s.now()

	g, err := model.Load(modulePath)
	if err != nil {
		return nil, err
	}
	s.logDebug("session: loaded module %s with %d type(s) and %d message(s)",
		g.Module(), g.Len(), g.Catalog().Len())

	r, err := s.verify(ctx, g)
	if err != nil {
		return nil, err
	}
	if s.resolver != nil {
		revision, err := s.resolver(modulePath)
		if err != nil {
			s.logDebug("session: could not resolve revision of %s: %v", modulePath, err)
		} else {
			r.Revision = revision
		}
	}
	r.Duration = s.now().Sub(start)
	return r, nil
}

// VerifyGraph evaluates the rules against an already built graph.
func (s *Session) VerifyGraph(ctx context.Context, g *model.Graph) (*report.Report, error) {
	start := s.now()
	r, err := s.verify(ctx, g)
	if err != nil {
		return nil, err
	}
	r.Duration = s.now().Sub(start)
	return r, nil
}

func (s *Session) verify(ctx context.Context, g *model.Graph) (*report.Report, error) {
	rs := s.ruleList()
	violations, err := engine.New(s.engineOpts...).RunContext(ctx, g, rs)
	if err != nil {
		return nil, err
	}
	module := ""
	if g != nil {
		module = g.Module()
	}
	r := report.Summarize(module, violations)
	s.logDebug("session: %d rule(s), verdict %s (%d error(s), %d warning(s))",
		len(rs), r.Verdict, r.Errors, r.Warnings)
	return r, nil
}
