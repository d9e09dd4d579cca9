package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ariel-frischer/modelverifier/internal/model"
	"github.com/ariel-frischer/modelverifier/internal/report"
	"github.com/ariel-frischer/modelverifier/internal/rules"
	"github.com/ariel-frischer/modelverifier/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingManifest = `
module: orders
messages:
  commands: [CreateOrder]
  events: [OrderCreated]
types:
  aggregates:
    - name: acme.Order
      handlers:
        - {method: handle, kind: command, message: CreateOrder, produces: [OrderCreated]}
        - {method: on, kind: apply, message: OrderCreated, access: private}
`

const failingManifest = `
module: orders
types:
  aggregates:
    - name: acme.Order
`

func writeModule(t *testing.T, dir, manifest string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.yaml"), []byte(manifest), 0o644))
	return dir
}

func TestArtifactsStage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	present := writeModule(t, filepath.Join(dir, "model"), passingManifest)

	tests := map[string]struct {
		paths       map[string]string
		wantStatus  Status
		wantMessage string
	}{
		"all present": {
			paths:      map[string]string{"model": present},
			wantStatus: StatusSucceeded,
		},
		"missing": {
			paths:       map[string]string{"model": present, "docs": filepath.Join(dir, "docs")},
			wantStatus:  StatusFailed,
			wantMessage: "docs (",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s := &ArtifactsStage{StageName: "compile", Paths: tt.paths}
			a := NewArtifacts()
			outcome, err := s.Run(context.Background(), a)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, outcome.Status)
			assert.Contains(t, outcome.Message, tt.wantMessage)

			_, published := a.Get("model")
			assert.Equal(t, tt.wantStatus == StatusSucceeded, published, "artifacts are published only on success")
		})
	}
}

func TestArtifactsStage_OutputsSorted(t *testing.T) {
	t.Parallel()

	s := &ArtifactsStage{Paths: map[string]string{"z": "1", "a": "2", "m": "3"}}
	assert.Equal(t, []string{"a", "m", "z"}, s.Outputs())
}

func TestVerifyStage(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		manifest   string
		wantStatus Status
		wantReport bool
	}{
		"passing module": {manifest: passingManifest, wantStatus: StatusSucceeded, wantReport: true},
		"failing module": {manifest: failingManifest, wantStatus: StatusFailed},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := writeModule(t, filepath.Join(t.TempDir(), "model"), tt.manifest)
			var seen []*report.Report
			s := &VerifyStage{
				StageName:   "verify",
				ModuleInput: "model",
				Output:      "report",
				Session:     session.New(rules.Builtin()),
				OnReport:    func(_ string, r *report.Report) { seen = append(seen, r) },
			}
			a := NewArtifacts(Artifact{Name: "model", Path: dir})

			outcome, err := s.Run(context.Background(), a)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, outcome.Status)
			require.Len(t, seen, 1)

			art, ok := a.Get("report")
			assert.Equal(t, tt.wantReport, ok)
			if ok {
				r, isReport := art.Value.(*report.Report)
				require.True(t, isReport)
				assert.True(t, r.Passed())
			}
		})
	}
}

func TestVerifyStage_LoadErrorFailsStage(t *testing.T) {
	t.Parallel()

	s := &VerifyStage{
		StageName:  "verify",
		ModulePath: filepath.Join(t.TempDir(), "missing"),
		Session:    session.New(rules.Builtin()),
	}
	_, err := s.Run(context.Background(), NewArtifacts())
	assert.True(t, model.IsLoadError(err))
}

func TestVerifyStage_Inputs(t *testing.T) {
	t.Parallel()

	s := &VerifyStage{ModuleInput: "model", Requires: []string{"docs", "model"}}
	assert.Equal(t, []string{"docs", "model"}, s.Inputs())

	s = &VerifyStage{ModuleInput: "model", Requires: []string{"docs"}}
	assert.Equal(t, []string{"docs", "model"}, s.Inputs())

	s = &VerifyStage{ModulePath: "/m"}
	assert.Empty(t, s.Inputs())
	assert.Empty(t, s.Outputs())
}

func TestVerifyStage_WithoutSession(t *testing.T) {
	t.Parallel()

	_, err := (&VerifyStage{StageName: "v", ModulePath: "/m"}).Run(context.Background(), NewArtifacts())
	assert.ErrorContains(t, err, "no verification session")
}
