package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Pipeline is a validated graph of stages.
type Pipeline struct {
	stages   []Stage
	order    []int
	producer map[string]int
	external map[string]bool
	now      func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithExternalInputs declares artifacts supplied by the caller rather than by a stage.
func WithExternalInputs(names ...string) Option {
	return func(p *Pipeline) {
		for _, name := range names {
			p.external[name] = true
		}
	}
}

// WithClock sets the time source used for stage durations.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// New validates stages and returns a pipeline. All validation problems are
// reported together, joined with errors.Join.
func New(stages []Stage, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		stages:   stages,
		producer: make(map[string]int),
		external: make(map[string]bool),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	if errs := p.validate(); len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	p.order = p.topologicalOrder()
	return p, nil
}

func (p *Pipeline) validate() []error {
	var errs []error

	names := make(map[string]bool)
	for _, s := range p.stages {
		name := s.Name()
		if strings.TrimSpace(name) == "" {
			errs = append(errs, &ValidationError{Message: "stage name is required"})
			continue
		}
		if names[name] {
			errs = append(errs, &DuplicateStageError{Name: name})
		}
		names[name] = true
	}

	producers := make(map[string][]string)
	var outputOrder []string
	for i, s := range p.stages {
		for _, out := range s.Outputs() {
			if _, seen := producers[out]; !seen {
				outputOrder = append(outputOrder, out)
				p.producer[out] = i
			}
			producers[out] = append(producers[out], s.Name())
		}
	}
	for _, out := range outputOrder {
		if len(producers[out]) > 1 {
			errs = append(errs, &DuplicateOutputError{Output: out, Stages: producers[out]})
		}
	}

	for _, s := range p.stages {
		for _, in := range s.Inputs() {
			if _, ok := p.producer[in]; !ok && !p.external[in] {
				errs = append(errs, &MissingInputError{Stage: s.Name(), Input: in})
			}
		}
	}

	return append(errs, p.detectCycles()...)
}

// predecessors returns the indexes of the stages producing the inputs of stage i.
func (p *Pipeline) predecessors(i int) []int {
	var out []int
	seen := make(map[int]bool)
	for _, in := range p.stages[i].Inputs() {
		j, ok := p.producer[in]
		if ok && !seen[j] {
			seen[j] = true
			out = append(out, j)
		}
	}
	return out
}

// detectCycles detects cycles between stages using DFS over input edges.
func (p *Pipeline) detectCycles() []error {
	var errs []error
	visited := make(map[int]bool)
	recStack := make(map[int]bool)

	for i := range p.stages {
		if !visited[i] {
			if cycle := p.detectCycleDFS(i, visited, recStack, nil); cycle != nil {
				errs = append(errs, &CycleError{Path: cycle})
			}
		}
	}
	return errs
}

func (p *Pipeline) detectCycleDFS(i int, visited, recStack map[int]bool, path []string) []string {
	visited[i] = true
	recStack[i] = true
	path = append(path, p.stages[i].Name())

	for _, j := range p.predecessors(i) {
		if !visited[j] {
			if cycle := p.detectCycleDFS(j, visited, recStack, path); cycle != nil {
				return cycle
			}
		} else if recStack[j] {
			return buildCyclePath(path, p.stages[j].Name())
		}
	}

	recStack[i] = false
	return nil
}

// buildCyclePath constructs the cycle path from the DFS path.
func buildCyclePath(path []string, cycleStart string) []string {
	for i, name := range path {
		if name == cycleStart {
			return append(append([]string(nil), path[i:]...), cycleStart)
		}
	}
	return append(append([]string(nil), path...), cycleStart)
}

// topologicalOrder orders stages so that producers run before consumers,
// keeping declaration order among independent stages.
func (p *Pipeline) topologicalOrder() []int {
	done := make(map[int]bool)
	var order []int
	var visit func(i int)
	visit = func(i int) {
		if done[i] {
			return
		}
		done[i] = true
		for _, j := range p.predecessors(i) {
			visit(j)
		}
		order = append(order, i)
	}
	for i := range p.stages {
		visit(i)
	}
	return order
}

// Order returns the stage names in execution order.
func (p *Pipeline) Order() []string {
	names := make([]string, len(p.order))
	for k, i := range p.order {
		names[k] = p.stages[i].Name()
	}
	return names
}

// StageResult is the outcome of one stage in a run.
type StageResult struct {
	Stage    string
	Outcome  Outcome
	Err      error
	Duration time.Duration
}

// RunResult is the outcome of a pipeline run.
type RunResult struct {
	// Stages holds one result per stage in execution order.
	Stages []StageResult
}

// Succeeded reports whether every stage succeeded.
func (r *RunResult) Succeeded() bool {
	for _, s := range r.Stages {
		if s.Outcome.Status != StatusSucceeded {
			return false
		}
	}
	return true
}

// Result returns the result of the named stage.
func (r *RunResult) Result(stage string) (StageResult, bool) {
	for _, s := range r.Stages {
		if s.Stage == stage {
			return s, true
		}
	}
	return StageResult{}, false
}

// Run executes the stages in dependency order. A stage runs only when every
// predecessor succeeded and its external inputs are present in artifacts;
// otherwise it is blocked. Stages after a cancelled context are blocked too.
func (p *Pipeline) Run(ctx context.Context, artifacts *Artifacts) *RunResult {
	if artifacts == nil {
		artifacts = NewArtifacts()
	}
	status := make(map[int]Status)
	result := &RunResult{}

	for _, i := range p.order {
		stage := p.stages[i]
		res := StageResult{Stage: stage.Name()}

		if reason := p.blockReason(ctx, i, status, artifacts); reason != "" {
			res.Outcome = Outcome{Status: StatusBlocked, Message: reason}
		} else {
			start := p.now()
			res.Outcome, res.Err = runStage(ctx, stage, artifacts)
			res.Duration = p.now().Sub(start)
		}

		status[i] = res.Outcome.Status
		result.Stages = append(result.Stages, res)
	}
	return result
}

func (p *Pipeline) blockReason(ctx context.Context, i int, status map[int]Status, artifacts *Artifacts) string {
	if err := ctx.Err(); err != nil {
		return fmt.Sprintf("not run: %v", err)
	}
	for _, j := range p.predecessors(i) {
		if status[j] != StatusSucceeded {
			return fmt.Sprintf("predecessor %q %s", p.stages[j].Name(), status[j])
		}
	}
	for _, in := range p.stages[i].Inputs() {
		if _, produced := p.producer[in]; produced {
			continue
		}
		if _, ok := artifacts.Get(in); !ok {
			return fmt.Sprintf("external input %q was not supplied", in)
		}
	}
	return ""
}

// runStage runs a stage, normalizing errors and unknown statuses into failures.
func runStage(ctx context.Context, stage Stage, artifacts *Artifacts) (outcome Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome, err = Failed("stage panicked"), fmt.Errorf("stage %q panicked: %v", stage.Name(), r)
		}
	}()

	outcome, err = stage.Run(ctx, artifacts)
	switch {
	case err != nil:
		if outcome.Message == "" {
			outcome.Message = err.Error()
		}
		outcome.Status = StatusFailed
	case outcome.Status != StatusSucceeded && outcome.Status != StatusFailed:
		outcome.Status = StatusFailed
		if outcome.Message == "" {
			outcome.Message = "stage reported no outcome"
		}
	}
	return outcome, err
}
