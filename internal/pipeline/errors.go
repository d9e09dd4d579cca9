package pipeline

import (
	"fmt"
	"strings"
)

// ValidationError represents a problem in a pipeline definition with optional
// source location information.
type ValidationError struct {
	Line    int
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// CycleError represents a cycle between stages.
type CycleError struct {
	// Path is the list of stage names forming the cycle.
	Path []string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	if len(e.Path) == 0 {
		return "cycle detected in stage dependencies"
	}
	return fmt.Sprintf("cycle detected in stage dependencies: %s", strings.Join(e.Path, " -> "))
}

// DuplicateStageError represents two stages with the same name.
type DuplicateStageError struct {
	Name string
}

// Error implements the error interface.
func (e *DuplicateStageError) Error() string {
	return fmt.Sprintf("duplicate stage name %q", e.Name)
}

// DuplicateOutputError represents an artifact produced by more than one stage.
type DuplicateOutputError struct {
	Output string
	Stages []string
}

// Error implements the error interface.
func (e *DuplicateOutputError) Error() string {
	return fmt.Sprintf("artifact %q is produced by more than one stage: %s", e.Output, strings.Join(e.Stages, ", "))
}

// MissingInputError represents an input that no stage produces and that is not external.
type MissingInputError struct {
	Stage string
	Input string
}

// Error implements the error interface.
func (e *MissingInputError) Error() string {
	return fmt.Sprintf("stage %q consumes %q, which no stage produces and which is not declared external", e.Stage, e.Input)
}
