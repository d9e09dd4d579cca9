package model

import (
	"errors"
	"fmt"
)

// ErrManifestNotFound is wrapped by a LoadError when no manifest exists in the module directory.
var ErrManifestNotFound = errors.New("model manifest not found")

// LoadError reports that a module's compiled model could not be loaded.
// Verification cannot proceed without a model, so it is always fatal.
type LoadError struct {
	// Path is the file or directory that failed to load.
	Path string
	// Line is the source line of the offending node, when known.
	Line int
	// Message describes what is wrong.
	Message string
	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	msg := "loading model " + e.Path
	if e.Line > 0 {
		msg = fmt.Sprintf("%s: line %d", msg, e.Line)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsLoadError reports whether err is or wraps a LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}
