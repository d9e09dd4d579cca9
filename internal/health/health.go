// Package health provides environment health checks for modelverifier. It validates
// that configuration loads, the state directory is writable, the history store
// opens, and optional integrations (git revisions, desktop notifications) are usable.
// The structured report is printed by the 'modelverifier doctor' command.
package health

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ariel-frischer/modelverifier/internal/config"
	"github.com/ariel-frischer/modelverifier/internal/git"
	"github.com/ariel-frischer/modelverifier/internal/history"
	"github.com/ariel-frischer/modelverifier/internal/notify"
)

// CheckResult represents the result of a single health check
type CheckResult struct {
	Name    string
	Passed  bool
	Message string
	// Optional checks never fail the report; a failed optional check is
	// shown as unavailable.
	Optional bool
}

// HealthReport contains all health check results
type HealthReport struct {
	Checks []CheckResult
	Passed bool
}

// Options carries the inputs of RunHealthChecks.
type Options struct {
	// Config is the loaded configuration; nil when loading failed.
	Config *config.Configuration
	// ConfigErr is the error returned while loading configuration.
	ConfigErr error
	// Dir is the directory checked for a git repository (default: working directory).
	Dir string
	// Sender is used to look up notification tools (default: notify.NewSender()).
	Sender notify.Sender
}

// RunHealthChecks runs all health checks and returns a report.
// Checks depending on configuration are skipped when it failed to load.
func RunHealthChecks(ctx context.Context, opts Options) *HealthReport {
	report := &HealthReport{Passed: true}
	add := func(c CheckResult) {
		report.Checks = append(report.Checks, c)
		if !c.Passed && !c.Optional {
			report.Passed = false
		}
	}

	add(CheckConfig(opts.ConfigErr))
	if opts.Config == nil {
		return report
	}

	add(CheckStateDir(opts.Config.StateDir))
	add(CheckHistory(ctx, opts.Config))
	add(CheckGit(opts.Dir))

	sender := opts.Sender
	if sender == nil {
		sender = notify.NewSender()
	}
	add(CheckNotifications(opts.Config.Notifications, sender))

	return report
}

// CheckConfig reports whether configuration loaded and validated.
func CheckConfig(loadErr error) CheckResult {
	if loadErr != nil {
		return CheckResult{Name: "Configuration", Passed: false, Message: loadErr.Error()}
	}
	return CheckResult{Name: "Configuration", Passed: true, Message: "loaded and valid"}
}

// CheckStateDir verifies that the state directory exists (creating it if needed)
// and accepts new files.
func CheckStateDir(stateDir string) CheckResult {
	name := "State directory"
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return CheckResult{Name: name, Passed: false, Message: fmt.Sprintf("cannot create %s: %v", stateDir, err)}
	}

	scratch, err := os.CreateTemp(stateDir, ".doctor-*")
	if err != nil {
		return CheckResult{Name: name, Passed: false, Message: fmt.Sprintf("%s is not writable: %v", stateDir, err)}
	}
	scratch.Close()
	os.Remove(scratch.Name())

	return CheckResult{Name: name, Passed: true, Message: fmt.Sprintf("%s is writable", stateDir)}
}

// CheckHistory opens the configured history backend and reads from it.
func CheckHistory(ctx context.Context, cfg *config.Configuration) CheckResult {
	name := "History"
	if !cfg.History.Enabled {
		return CheckResult{Name: name, Passed: true, Message: "disabled"}
	}

	store, err := history.Open(history.Backend(cfg.History.Backend), cfg.StateDir, cfg.History.MaxEntries)
	if err != nil {
		return CheckResult{Name: name, Passed: false, Message: err.Error()}
	}
	defer store.Close()

	entries, err := store.List(ctx, 0)
	if err != nil {
		return CheckResult{Name: name, Passed: false, Message: err.Error()}
	}
	return CheckResult{
		Name:    name,
		Passed:  true,
		Message: fmt.Sprintf("%s backend, %d entries", cfg.History.Backend, len(entries)),
	}
}

// CheckGit reports whether dir is inside a git repository with at least one
// commit. Without one, reports carry no revision.
func CheckGit(dir string) CheckResult {
	name := "Git revision"
	if dir == "" {
		dir, _ = os.Getwd()
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}

	rev, err := git.HeadRevision(dir)
	if err != nil {
		return CheckResult{Name: name, Passed: false, Optional: true, Message: "not available (reports will carry no revision)"}
	}
	return CheckResult{Name: name, Passed: true, Optional: true, Message: rev}
}

// CheckNotifications verifies the tools needed by the configured notification
// type are installed. Disabled notifications pass.
func CheckNotifications(cfg notify.NotificationConfig, sender notify.Sender) CheckResult {
	name := "Notifications"
	if !cfg.Enabled {
		return CheckResult{Name: name, Passed: true, Optional: true, Message: "disabled"}
	}

	var missing []string
	if cfg.Type != notify.OutputSound && !sender.VisualAvailable() {
		missing = append(missing, "visual")
	}
	if cfg.Type != notify.OutputVisual && !sender.SoundAvailable() {
		missing = append(missing, "sound")
	}
	if len(missing) > 0 {
		return CheckResult{
			Name:     name,
			Passed:   false,
			Optional: true,
			Message:  fmt.Sprintf("%v tool not found on %s", missing, notify.Platform()),
		}
	}
	return CheckResult{Name: name, Passed: true, Optional: true, Message: fmt.Sprintf("%s notifications available", cfg.Type)}
}

// FormatReport formats the health report for console output
func FormatReport(report *HealthReport) string {
	var output string
	for _, check := range report.Checks {
		switch {
		case check.Passed:
			output += fmt.Sprintf("✓ %s: %s\n", check.Name, check.Message)
		case check.Optional:
			output += fmt.Sprintf("○ %s: %s\n", check.Name, check.Message)
		default:
			output += fmt.Sprintf("✗ %s: %s\n", check.Name, check.Message)
		}
	}
	return output
}
