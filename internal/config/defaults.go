package config

import (
	"github.com/ariel-frischer/modelverifier/internal/engine"
	"github.com/ariel-frischer/modelverifier/internal/history"
	"github.com/ariel-frischer/modelverifier/internal/notify"
	"github.com/ariel-frischer/modelverifier/internal/report"
	"github.com/ariel-frischer/modelverifier/internal/verification"
	"github.com/ariel-frischer/modelverifier/internal/watch"
)

// DefaultMaxHistoryEntries is the number of recorded runs kept by default.
const DefaultMaxHistoryEntries = 500

// GetDefaultConfigTemplate returns a fully commented config template
// that helps users understand all available options
func GetDefaultConfigTemplate() string {
	return `# modelverifier configuration
# See 'modelverifier config -h' for commands, 'modelverifier config keys' for all options

# Engine settings
workers: 4                            # Rules evaluated concurrently (1-256)
format: text                          # Default report format: text | json | yaml
state_dir: ~/.modelverifier/state     # Directory for history files

# Rule profile
verification:
  level: standard                     # basic | standard | strict
  # warnings: true                    # Override the level's warning rules toggle
  # promote_warnings: false           # Override the level's warning promotion toggle
  disabled: []                        # Rule ids to skip, e.g. [projection-subscribes]
  severity: {}                        # Per-rule overrides, e.g. {handler-access: error}

# Run history
history:
  enabled: true                       # Record every verify run
  backend: file                       # file (history.yaml) | sqlite (history.db)
  max_entries: 500                    # Runs to retain (0 = unlimited)

# Watch mode
watch:
  debounce: 300ms                     # Quiet period before re-verifying

# Desktop notifications (watch mode only, skipped in CI)
notifications:
  enabled: false                      # Master switch
  type: visual                        # sound | visual | both
  sound_file: ""                      # Custom sound file (empty = platform default)
  on_failure: true                    # Notify when a module starts failing
  on_recovery: true                   # Notify when a failing module passes again
`
}

// GetDefaults returns the default configuration values keyed by their dotted path.
func GetDefaults() map[string]interface{} {
	return map[string]interface{}{
		// workers: Upper bound on concurrently evaluated rules.
		// Can be overridden with --workers flag or MODELVERIFIER_WORKERS.
		"workers": engine.DefaultWorkers,
		// format: Report format used when --format is not given.
		"format": string(report.OutputText),
		// state_dir: Where history.yaml or history.db is written.
		"state_dir": "~/.modelverifier/state",
		// verification: Rule profile. Toggles left unset follow the level preset.
		"verification.level":    string(verification.DefaultLevel),
		"verification.disabled": []string{},
		// history: Run recording. Failures to record never fail a verify run.
		"history.enabled":     true,
		"history.backend":     string(history.BackendFile),
		"history.max_entries": DefaultMaxHistoryEntries,
		// watch: Debounce for `modelverifier watch`.
		"watch.debounce": watch.DefaultDebounce.String(),
		// notifications: Opt-in desktop notifications when a watched module's verdict changes.
		"notifications.enabled":     notify.DefaultConfig().Enabled,
		"notifications.type":        string(notify.DefaultConfig().Type),
		"notifications.sound_file":  notify.DefaultConfig().SoundFile,
		"notifications.on_failure":  notify.DefaultConfig().OnFailure,
		"notifications.on_recovery": notify.DefaultConfig().OnRecovery,
	}
}
