package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStage is a configurable Stage for tests.
type fakeStage struct {
	name    string
	inputs  []string
	outputs []string
	run     func(ctx context.Context, a *Artifacts) (Outcome, error)
	calls   int
}

func (s *fakeStage) Name() string      { return s.name }
func (s *fakeStage) Inputs() []string  { return s.inputs }
func (s *fakeStage) Outputs() []string { return s.outputs }

func (s *fakeStage) Run(ctx context.Context, a *Artifacts) (Outcome, error) {
	s.calls++
	if s.run != nil {
		return s.run(ctx, a)
	}
	for _, out := range s.outputs {
		a.Put(Artifact{Name: out})
	}
	return Succeeded("ok"), nil
}

func stage(name string, inputs, outputs []string) *fakeStage {
	return &fakeStage{name: name, inputs: inputs, outputs: outputs}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		stages   []Stage
		opts     []Option
		wantErrs []any
		contains string
	}{
		"valid chain": {
			stages: []Stage{stage("compile", nil, []string{"model"}), stage("verify", []string{"model"}, nil)},
		},
		"external input": {
			stages: []Stage{stage("verify", []string{"sources"}, nil)},
			opts:   []Option{WithExternalInputs("sources")},
		},
		"duplicate stage name": {
			stages:   []Stage{stage("a", nil, nil), stage("a", nil, nil)},
			wantErrs: []any{new(*DuplicateStageError)},
			contains: `duplicate stage name "a"`,
		},
		"empty stage name": {
			stages:   []Stage{stage(" ", nil, nil)},
			wantErrs: []any{new(*ValidationError)},
			contains: "stage name is required",
		},
		"two producers": {
			stages:   []Stage{stage("a", nil, []string{"model"}), stage("b", nil, []string{"model"})},
			wantErrs: []any{new(*DuplicateOutputError)},
			contains: `artifact "model" is produced by more than one stage: a, b`,
		},
		"missing input": {
			stages:   []Stage{stage("verify", []string{"model"}, nil)},
			wantErrs: []any{new(*MissingInputError)},
			contains: `stage "verify" consumes "model"`,
		},
		"cycle": {
			stages: []Stage{
				stage("a", []string{"c-out"}, []string{"a-out"}),
				stage("b", []string{"a-out"}, []string{"b-out"}),
				stage("c", []string{"b-out"}, []string{"c-out"}),
			},
			wantErrs: []any{new(*CycleError)},
			contains: "cycle detected in stage dependencies: a -> c -> b -> a",
		},
		"several problems reported together": {
			stages: []Stage{
				stage("a", []string{"nope"}, []string{"x"}),
				stage("a", nil, []string{"x"}),
			},
			wantErrs: []any{new(*DuplicateStageError), new(*DuplicateOutputError), new(*MissingInputError)},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			p, err := New(tt.stages, tt.opts...)
			if len(tt.wantErrs) == 0 {
				require.NoError(t, err)
				assert.NotNil(t, p)
				return
			}
			require.Error(t, err)
			assert.Nil(t, p)
			for _, target := range tt.wantErrs {
				assert.True(t, errors.As(err, target), "expected %T in %v", target, err)
			}
			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
		})
	}
}

func TestPipeline_OrderFollowsDependencies(t *testing.T) {
	t.Parallel()

	p, err := New([]Stage{
		stage("verify", []string{"model", "docs"}, []string{"report"}),
		stage("publish", []string{"report"}, nil),
		stage("compile", nil, []string{"model"}),
		stage("docs", nil, []string{"docs"}),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"compile", "docs", "verify", "publish"}, p.Order())
}

func TestPipeline_RunBlocksAfterFailure(t *testing.T) {
	t.Parallel()

	compile := stage("compile", nil, []string{"model"})
	failing := stage("verify", []string{"model"}, []string{"report"})
	failing.run = func(context.Context, *Artifacts) (Outcome, error) {
		return Failed("2 errors"), nil
	}
	publish := stage("publish", []string{"report"}, []string{"site"})
	after := stage("after-publish", []string{"site"}, nil)
	independent := stage("lint", nil, nil)

	p, err := New([]Stage{compile, failing, publish, after, independent})
	require.NoError(t, err)

	res := p.Run(context.Background(), nil)
	assert.False(t, res.Succeeded())

	want := map[string]Status{
		"compile":       StatusSucceeded,
		"verify":        StatusFailed,
		"publish":       StatusBlocked,
		"after-publish": StatusBlocked,
		"lint":          StatusSucceeded,
	}
	for name, status := range want {
		r, ok := res.Result(name)
		require.True(t, ok, name)
		assert.Equal(t, status, r.Outcome.Status, name)
	}
	assert.Equal(t, 0, publish.calls)
	assert.Equal(t, 0, after.calls)

	blocked, _ := res.Result("publish")
	assert.Equal(t, `predecessor "verify" failed`, blocked.Outcome.Message)
	blocked, _ = res.Result("after-publish")
	assert.Equal(t, `predecessor "publish" blocked`, blocked.Outcome.Message)
}

func TestPipeline_RunErrorsAndPanics(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		run         func(context.Context, *Artifacts) (Outcome, error)
		wantMessage string
		wantErr     bool
	}{
		"error": {
			run:         func(context.Context, *Artifacts) (Outcome, error) { return Outcome{}, errors.New("disk full") },
			wantMessage: "disk full",
			wantErr:     true,
		},
		"panic": {
			run:         func(context.Context, *Artifacts) (Outcome, error) { panic("boom") },
			wantMessage: "stage panicked",
			wantErr:     true,
		},
		"empty outcome": {
			run:         func(context.Context, *Artifacts) (Outcome, error) { return Outcome{}, nil },
			wantMessage: "stage reported no outcome",
		},
		"blocked is not a valid self-reported status": {
			run:         func(context.Context, *Artifacts) (Outcome, error) { return Outcome{Status: StatusBlocked, Message: "x"}, nil },
			wantMessage: "x",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s := stage("s", nil, nil)
			s.run = tt.run
			p, err := New([]Stage{s})
			require.NoError(t, err)

			res := p.Run(context.Background(), NewArtifacts())
			require.Len(t, res.Stages, 1)
			assert.Equal(t, StatusFailed, res.Stages[0].Outcome.Status)
			assert.Equal(t, tt.wantMessage, res.Stages[0].Outcome.Message)
			assert.Equal(t, tt.wantErr, res.Stages[0].Err != nil)
		})
	}
}

func TestPipeline_ExternalInputs(t *testing.T) {
	t.Parallel()

	consumer := stage("verify", []string{"sources"}, nil)
	p, err := New([]Stage{consumer}, WithExternalInputs("sources"))
	require.NoError(t, err)

	res := p.Run(context.Background(), NewArtifacts())
	assert.Equal(t, StatusBlocked, res.Stages[0].Outcome.Status)
	assert.Contains(t, res.Stages[0].Outcome.Message, `external input "sources" was not supplied`)

	res = p.Run(context.Background(), NewArtifacts(Artifact{Name: "sources", Path: "/src"}))
	assert.True(t, res.Succeeded())
}

func TestPipeline_CancelledContextBlocks(t *testing.T) {
	t.Parallel()

	s := stage("s", nil, nil)
	p, err := New([]Stage{s})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := p.Run(ctx, nil)
	assert.Equal(t, StatusBlocked, res.Stages[0].Outcome.Status)
	assert.Equal(t, 0, s.calls)
}

func TestArtifacts(t *testing.T) {
	t.Parallel()

	a := NewArtifacts(Artifact{Name: "b"})
	a.Put(Artifact{Name: "a", Path: "/x"})
	a.Put(Artifact{Name: "a", Path: "/y"})

	got, ok := a.Get("a")
	require.True(t, ok)
	assert.Equal(t, "/y", got.Path)
	assert.Equal(t, []string{"a", "b"}, a.Names())

	var zero Artifacts
	zero.Put(Artifact{Name: "z"})
	_, ok = zero.Get("z")
	assert.True(t, ok)
}
