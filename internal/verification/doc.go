// Package verification provides the rule profile applied before a verification run.
//
// A profile selects a verification level and optionally overrides individual
// rules. It is resolved against a rule registry to produce the registry the
// engine actually runs.
//
// # Level Presets
//
//   - Basic: only error-severity rules run
//   - Standard: every rule runs at its declared severity
//   - Strict: every rule runs and warnings are promoted to errors
//
// # Resolution
//
//   - Resolution order for toggles: explicit toggle > level preset > default
//   - Severity overrides are applied before the level decides on warnings
//   - Disabled rules are removed last
//
// # Usage
//
//	profile := verification.VerificationConfig{
//		Level:    verification.LevelStrict,
//		Disabled: []string{"handler-access"},
//	}
//	registry, err := profile.Apply(rules.Builtin())
package verification
