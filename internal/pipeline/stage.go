package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Status is the result state of one stage.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	// StatusBlocked marks a stage that did not run because a predecessor did not succeed.
	StatusBlocked Status = "blocked"
)

// Outcome is what a stage reports after running.
type Outcome struct {
	Status  Status
	Message string
}

// Succeeded returns a succeeded outcome.
func Succeeded(format string, args ...any) Outcome {
	return Outcome{Status: StatusSucceeded, Message: fmt.Sprintf(format, args...)}
}

// Failed returns a failed outcome.
func Failed(format string, args ...any) Outcome {
	return Outcome{Status: StatusFailed, Message: fmt.Sprintf(format, args...)}
}

// Stage is one step of a pipeline.
type Stage interface {
	// Name uniquely identifies the stage within a pipeline.
	Name() string
	// Inputs names the artifacts the stage consumes.
	Inputs() []string
	// Outputs names the artifacts the stage publishes on success.
	Outputs() []string
	// Run executes the stage. A returned error marks the stage failed.
	Run(ctx context.Context, artifacts *Artifacts) (Outcome, error)
}

// Artifact is a named value published by a stage.
type Artifact struct {
	Name string
	// Path is set for artifacts that live on disk.
	Path string
	// Value is set for in-memory artifacts such as reports.
	Value any
}

// Artifacts is the set of artifacts available to stages. It is safe for concurrent use.
type Artifacts struct {
	mu    sync.RWMutex
	items map[string]Artifact
}

// NewArtifacts creates a set holding the given artifacts.
func NewArtifacts(initial ...Artifact) *Artifacts {
	a := &Artifacts{items: make(map[string]Artifact)}
	for _, art := range initial {
		a.items[art.Name] = art
	}
	return a
}

// Put publishes an artifact, replacing any previous one with the same name.
func (a *Artifacts) Put(art Artifact) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.items == nil {
		a.items = make(map[string]Artifact)
	}
	a.items[art.Name] = art
}

// Get returns the named artifact.
func (a *Artifacts) Get(name string) (Artifact, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	art, ok := a.items[name]
	return art, ok
}

// Names returns the sorted artifact names.
func (a *Artifacts) Names() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	names := make([]string, 0, len(a.items))
	for name := range a.items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
