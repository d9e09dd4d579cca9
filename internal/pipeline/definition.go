package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ariel-frischer/modelverifier/internal/report"
	"github.com/ariel-frischer/modelverifier/internal/session"
	"gopkg.in/yaml.v3"
)

// Stage kinds available in pipeline definitions.
const (
	KindArtifacts = "artifacts"
	KindVerify    = "verify"
)

// Definition is a pipeline described in YAML.
type Definition struct {
	// External names artifacts supplied by the caller.
	External []string          `yaml:"external"`
	Stages   []StageDefinition `yaml:"stages"`
}

// StageDefinition describes one stage.
type StageDefinition struct {
	Name   string   `yaml:"name"`
	Kind   string   `yaml:"kind"`
	Inputs []string `yaml:"inputs"`
	// Outputs is used by verify stages; its single entry names the report artifact.
	Outputs []string `yaml:"outputs"`
	// Paths maps artifact names to locations for artifacts stages.
	Paths map[string]string `yaml:"paths"`
	// Module is an artifact name or a directory for verify stages.
	Module string `yaml:"module"`

	// Line is the definition's line in the source file.
	Line int `yaml:"-"`
}

// ParseFile parses a pipeline definition file.
func ParseFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pipeline file: %w", err)
	}
	return ParseBytes(data)
}

// ParseBytes parses a pipeline definition, recording each stage's line.
func ParseBytes(data []byte) (*Definition, error) {
	var rootNode yaml.Node
	if err := yaml.Unmarshal(data, &rootNode); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	if rootNode.Kind != yaml.DocumentNode || len(rootNode.Content) == 0 {
		return nil, fmt.Errorf("parsing YAML: empty document")
	}
	root := rootNode.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &ValidationError{Line: root.Line, Message: "expected mapping node at root"}
	}

	var def Definition
	if err := root.Decode(&def); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	for i := 0; i < len(root.Content); i += 2 {
		if root.Content[i].Value != "stages" {
			continue
		}
		stagesNode := root.Content[i+1]
		for j, node := range stagesNode.Content {
			if j < len(def.Stages) {
				def.Stages[j].Line = node.Line
			}
		}
	}

	if len(def.Stages) == 0 {
		return nil, &ValidationError{Line: root.Line, Message: "pipeline defines no stages"}
	}
	return &def, nil
}

// BuildOptions supplies what stage kinds need at build time.
type BuildOptions struct {
	// BaseDir resolves relative paths, usually the definition file's directory.
	BaseDir string
	// Session runs verify stages.
	Session *session.Session
	// OnReport receives reports produced by verify stages.
	OnReport func(stage string, r *report.Report)
}

// Build turns a definition into a validated pipeline.
func Build(def *Definition, opts BuildOptions) (*Pipeline, error) {
	stages := make([]Stage, 0, len(def.Stages))
	for _, sd := range def.Stages {
		stage, err := buildStage(sd, opts)
		if err != nil {
			return nil, err
		}
		stages = append(stages, stage)
	}
	return New(stages, WithExternalInputs(def.External...))
}

func buildStage(sd StageDefinition, opts BuildOptions) (Stage, error) {
	switch sd.Kind {
	case KindArtifacts:
		if len(sd.Paths) == 0 {
			return nil, &ValidationError{Line: sd.Line, Message: fmt.Sprintf("artifacts stage %q declares no paths", sd.Name)}
		}
		paths := make(map[string]string, len(sd.Paths))
		for name, p := range sd.Paths {
			paths[name] = resolve(opts.BaseDir, p)
		}
		return &ArtifactsStage{StageName: sd.Name, Requires: sd.Inputs, Paths: paths}, nil

	case KindVerify:
		if sd.Module == "" {
			return nil, &ValidationError{Line: sd.Line, Message: fmt.Sprintf("verify stage %q declares no module", sd.Name)}
		}
		if len(sd.Outputs) > 1 {
			return nil, &ValidationError{Line: sd.Line, Message: fmt.Sprintf("verify stage %q may publish at most one report", sd.Name)}
		}
		stage := &VerifyStage{
			StageName: sd.Name,
			Requires:  sd.Inputs,
			Session:   opts.Session,
			OnReport:  opts.OnReport,
		}
		if len(sd.Outputs) == 1 {
			stage.Output = sd.Outputs[0]
		}
		// A module naming one of the stage's inputs refers to that artifact.
		if contains(sd.Inputs, sd.Module) {
			stage.ModuleInput = sd.Module
		} else {
			stage.ModulePath = resolve(opts.BaseDir, sd.Module)
		}
		return stage, nil

	default:
		return nil, &ValidationError{Line: sd.Line,
			Message: fmt.Sprintf("stage %q has unknown kind %q (valid: %s, %s)", sd.Name, sd.Kind, KindArtifacts, KindVerify)}
	}
}

func resolve(base, path string) string {
	if base == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
