package cli

import (
	"errors"

	clierrors "github.com/ariel-frischer/modelverifier/internal/errors"
	"github.com/ariel-frischer/modelverifier/internal/model"
)

// Exit codes for the modelverifier CLI.
// These codes support programmatic composition and CI/CD integration.
const (
	// ExitSuccess indicates every verified module passed
	ExitSuccess = 0

	// ExitVerificationFailed indicates at least one error-severity violation
	ExitVerificationFailed = 1

	// ExitInvalidArguments indicates invalid command arguments
	ExitInvalidArguments = 3

	// ExitLoadError indicates missing or corrupt compiled model artifacts
	ExitLoadError = 4

	// ExitConfigError indicates an invalid configuration or rule profile
	ExitConfigError = 6
)

// ExitCode maps an error returned by a command to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if cliErr := clierrors.AsCLIError(err); cliErr != nil {
		switch cliErr.Category {
		case clierrors.Argument:
			return ExitInvalidArguments
		case clierrors.Configuration:
			return ExitConfigError
		case clierrors.Prerequisite:
			return ExitLoadError
		default:
			return ExitVerificationFailed
		}
	}
	var loadErr *model.LoadError
	if errors.As(err, &loadErr) {
		return ExitLoadError
	}
	// cobra reports unknown flags and bad argument counts as plain errors
	return ExitInvalidArguments
}
