package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/ariel-frischer/modelverifier/internal/report"
	"github.com/ariel-frischer/modelverifier/internal/session"
)

// ArtifactsStage asserts that files or directories produced by an earlier build
// step exist and publishes them as artifacts.
type ArtifactsStage struct {
	StageName string
	// Requires names artifacts that must be available before the check runs.
	Requires []string
	// Paths maps each published artifact name to its location on disk.
	Paths map[string]string
}

// Name implements Stage.
func (s *ArtifactsStage) Name() string { return s.StageName }

// Inputs implements Stage.
func (s *ArtifactsStage) Inputs() []string { return s.Requires }

// Outputs implements Stage. Outputs are sorted by name.
func (s *ArtifactsStage) Outputs() []string {
	names := make([]string, 0, len(s.Paths))
	for name := range s.Paths {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run implements Stage.
func (s *ArtifactsStage) Run(ctx context.Context, artifacts *Artifacts) (Outcome, error) {
	var missing []string
	for _, name := range s.Outputs() {
		path := s.Paths[name]
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				missing = append(missing, fmt.Sprintf("%s (%s)", name, path))
				continue
			}
			return Outcome{}, fmt.Errorf("checking artifact %s: %w", name, err)
		}
	}
	if len(missing) > 0 {
		return Failed("missing artifact(s): %v", missing), nil
	}

	for _, name := range s.Outputs() {
		artifacts.Put(Artifact{Name: name, Path: s.Paths[name]})
	}
	return Succeeded("%d artifact(s) present", len(s.Paths)), nil
}

// VerifyStage runs a verification session against a compiled model directory.
// The stage fails when the verdict fails and publishes the report as Output.
type VerifyStage struct {
	StageName string
	// ModuleInput names the artifact holding the model directory. When empty,
	// ModulePath is used and the stage has no inputs.
	ModuleInput string
	ModulePath  string
	// Requires names further artifacts that must be available first.
	Requires []string
	// Output names the published report artifact. Optional.
	Output  string
	Session *session.Session
	// OnReport, when set, receives every report produced by the stage.
	OnReport func(stage string, r *report.Report)
}

// Name implements Stage.
func (s *VerifyStage) Name() string { return s.StageName }

// Inputs implements Stage.
func (s *VerifyStage) Inputs() []string {
	inputs := append([]string(nil), s.Requires...)
	if s.ModuleInput != "" && !contains(inputs, s.ModuleInput) {
		inputs = append(inputs, s.ModuleInput)
	}
	return inputs
}

// Outputs implements Stage.
func (s *VerifyStage) Outputs() []string {
	if s.Output == "" {
		return nil
	}
	return []string{s.Output}
}

// Run implements Stage.
func (s *VerifyStage) Run(ctx context.Context, artifacts *Artifacts) (Outcome, error) {
	if s.Session == nil {
		return Outcome{}, fmt.Errorf("stage %q has no verification session", s.StageName)
	}

	path := s.ModulePath
	if s.ModuleInput != "" {
		art, ok := artifacts.Get(s.ModuleInput)
		if !ok || art.Path == "" {
			return Outcome{}, fmt.Errorf("artifact %q has no path", s.ModuleInput)
		}
		path = art.Path
	}

	r, err := s.Session.Verify(ctx, path)
	if err != nil {
		return Outcome{}, err
	}
	if s.OnReport != nil {
		s.OnReport(s.StageName, r)
	}
	if !r.Passed() {
		return Failed("verification of %s failed: %d error(s), %d warning(s)", r.Module, r.Errors, r.Warnings), nil
	}
	if s.Output != "" {
		artifacts.Put(Artifact{Name: s.Output, Path: path, Value: r})
	}
	return Succeeded("verification of %s passed: %d warning(s)", r.Module, r.Warnings), nil
}
