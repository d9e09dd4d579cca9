package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ariel-frischer/modelverifier/internal/model"
)

// Common error messages for the modelverifier CLI.
// These templates ensure consistent, actionable error messages.

// MissingModuleArgument creates an error when verify is run without a module directory.
func MissingModuleArgument(command string) *CLIError {
	return NewArgumentErrorWithUsage(
		"at least one compiled module directory is required",
		fmt.Sprintf("modelverifier %s <module-dir>...", command),
		"Pass the directory holding the module's model.yaml",
		"Example: modelverifier verify ./build/model/orders",
	)
}

// ModuleLoadFailed creates an error for a module whose artifacts are missing or corrupt.
// Remediation points at the failing descriptor when the cause is a *model.LoadError.
func ModuleLoadFailed(path string, err error) *CLIError {
	return WrapWithMessage(err, Prerequisite,
		fmt.Sprintf("cannot load compiled model at %s", path),
		loadRemediation(path, err)...,
	)
}

func loadRemediation(path string, err error) []string {
	rebuild := "Rebuild the module to regenerate its descriptors"

	if errors.Is(err, model.ErrManifestNotFound) {
		return []string{
			fmt.Sprintf("No %s found in %s", strings.Join(model.ManifestNames, ", "), path),
			"Check that the model compiler ran for this module",
			rebuild,
		}
	}

	var loadErr *model.LoadError
	if !errors.As(err, &loadErr) {
		return []string{"Check that the model compiler ran and wrote model.yaml", rebuild}
	}
	if loadErr.Line > 0 {
		return []string{
			fmt.Sprintf("Fix %s at line %d: %s", loadErr.Path, loadErr.Line, loadErr.Message),
			rebuild,
		}
	}
	return []string{fmt.Sprintf("Inspect %s", loadErr.Path), rebuild}
}

// VerificationFailed creates an error for a module with error-severity violations.
func VerificationFailed(module string, errorCount int) *CLIError {
	noun := "errors"
	if errorCount == 1 {
		noun = "error"
	}
	return &CLIError{
		Category: Verification,
		Message:  fmt.Sprintf("module %s failed verification with %d %s", module, errorCount, noun),
		Remediation: []string{
			"Fix the reported violations and rebuild",
			"List rule descriptions with: modelverifier rules",
			"Disable a rule in .modelverifier/config.yml under verification.disabled",
		},
	}
}

// InvalidFlagValue creates an error for a flag value outside its allowed set.
func InvalidFlagValue(flag, value string, allowed []string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("invalid value %q for --%s", value, flag),
		fmt.Sprintf("Valid values: %s", strings.Join(allowed, ", ")),
	)
}

// UnknownRules creates an error for rule ids that are not registered.
func UnknownRules(err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		"invalid rule profile",
		"List registered rule ids with: modelverifier rules",
		"Check verification.disabled and verification.severity in your config",
	)
}

// DuplicateRule creates an error when the rule catalog cannot be registered,
// most often because two rules share an id.
func DuplicateRule(err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		"rule registry setup failed",
		"Every rule id must be unique",
	)
}

// ConfigLoadFailed creates an error for an unreadable or invalid configuration.
func ConfigLoadFailed(err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		"failed to load configuration",
		"Check .modelverifier/config.yml and ~/.config/modelverifier/config.yml",
		"Show the effective configuration with: modelverifier config show",
		"Regenerate a commented template with: modelverifier config init --force",
	)
}

// ConfigFileExists creates an error when config init would overwrite a file.
func ConfigFileExists(path string) *CLIError {
	return NewConfigError(
		fmt.Sprintf("config file already exists: %s", path),
		"Use --force to overwrite it",
	)
}

// PipelineInvalid creates an error for a pipeline definition that cannot be built.
func PipelineInvalid(path string, err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		fmt.Sprintf("invalid pipeline definition %s", path),
		"Check stage names, inputs and outputs for typos",
		"Validate without running: modelverifier pipeline validate "+path,
	)
}

// PipelineFailed creates an error for a pipeline with failed or blocked stages.
func PipelineFailed(failed []string) *CLIError {
	return &CLIError{
		Category: Verification,
		Message:  fmt.Sprintf("pipeline did not complete: %s", strings.Join(failed, ", ")),
		Remediation: []string{
			"Fix the first failed stage; blocked stages run once their inputs succeed",
		},
	}
}

// DirectoryNotFound creates an error for missing directory.
func DirectoryNotFound(path string) *CLIError {
	return NewPrerequisiteError(
		fmt.Sprintf("directory not found: %s", path),
		"Check that the path is correct",
		"Build the module first if the directory is generated",
	)
}

// FileNotWritable creates an error when a file cannot be written.
func FileNotWritable(path string, err error) *CLIError {
	return WrapWithMessage(err, Runtime,
		fmt.Sprintf("cannot write to file: %s", path),
		"Check file permissions: ls -la "+path,
		"Or choose another path with --output",
	)
}

// HealthChecksFailed creates an error when doctor finds a failing check.
func HealthChecksFailed(failed []string) *CLIError {
	return NewPrerequisiteError(
		fmt.Sprintf("health checks failed: %s", strings.Join(failed, ", ")),
		"Fix the checks marked ✗ above and run modelverifier doctor again",
	)
}
