// modelverifier - Build-time structural verification for compiled domain models
// Source: https://github.com/ariel-frischer/modelverifier

// Package config provides hierarchical configuration management for modelverifier using koanf.
// Configuration is loaded with priority: environment variables > project config (.modelverifier/config.yml)
// > user config (~/.config/modelverifier/config.yml) > defaults. It supports both YAML and legacy JSON
// formats, with migration utilities for transitioning from JSON to YAML.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ariel-frischer/modelverifier/internal/notify"
	"github.com/ariel-frischer/modelverifier/internal/verification"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables that override configuration keys.
const EnvPrefix = "MODELVERIFIER_"

// Configuration represents the modelverifier CLI tool configuration
type Configuration struct {
	// Workers bounds the number of rules evaluated concurrently by the engine.
	Workers int `koanf:"workers" validate:"min=1,max=256"`

	// Format is the default report format for verify: text, json or yaml.
	Format string `koanf:"format" validate:"oneof=text json yaml"`

	StateDir string `koanf:"state_dir" validate:"required"`

	// Verification selects the rule profile applied to the built-in catalogue.
	// Environment variable support via MODELVERIFIER_VERIFICATION_* prefix.
	Verification verification.VerificationConfig `koanf:"verification"`

	History HistoryConfig `koanf:"history"`
	Watch   WatchConfig   `koanf:"watch"`

	// Notifications configures desktop notifications in watch mode.
	// Environment variable support via MODELVERIFIER_NOTIFICATIONS_* prefix.
	Notifications notify.NotificationConfig `koanf:"notifications"`
}

// HistoryConfig controls how verification runs are recorded.
type HistoryConfig struct {
	Enabled bool `koanf:"enabled"`
	// Backend is "file" (history.yaml) or "sqlite" (history.db) under state_dir.
	Backend string `koanf:"backend" validate:"oneof=file sqlite"`
	// MaxEntries sets the maximum number of runs to retain; 0 keeps everything.
	MaxEntries int `koanf:"max_entries" validate:"min=0"`
}

// WatchConfig controls `modelverifier watch`.
type WatchConfig struct {
	// Debounce is the quiet period after the last file event before re-verifying.
	Debounce time.Duration `koanf:"debounce" validate:"gte=0"`
}

// LoadOptions configures how configuration is loaded
type LoadOptions struct {
	// ProjectConfigPath overrides the project config path (default: .modelverifier/config.yml)
	ProjectConfigPath string
	// UserConfigPath overrides the user config path (default: ~/.config/modelverifier/config.yml)
	UserConfigPath string
	// WarningWriter receives deprecation warnings (default: os.Stderr)
	WarningWriter io.Writer
	// SkipWarnings suppresses deprecation warnings
	SkipWarnings bool
}

// Load loads configuration from user, project, and environment sources.
// Priority: Environment variables > Project config > User config > Defaults
//
// YAML config paths:
//   - User config: ~/.config/modelverifier/config.yml (XDG compliant)
//   - Project config: .modelverifier/config.yml
//
// Legacy JSON config paths (deprecated, triggers migration warning):
//   - User config: ~/.modelverifier/config.json
//   - Project config: .modelverifier/config.json
func Load(projectConfigPath string) (*Configuration, error) {
	return LoadWithOptions(LoadOptions{ProjectConfigPath: projectConfigPath})
}

// LoadWithOptions loads configuration with custom options
func LoadWithOptions(opts LoadOptions) (*Configuration, error) {
	k := koanf.New(".")
	warningWriter := getWarningWriter(opts.WarningWriter)

	loadDefaults(k)

	if err := loadUserConfig(k, opts.UserConfigPath, warningWriter, opts.SkipWarnings); err != nil {
		return nil, err
	}

	if err := loadProjectConfig(k, opts.ProjectConfigPath, warningWriter, opts.SkipWarnings); err != nil {
		return nil, err
	}

	if err := loadEnvironmentConfig(k); err != nil {
		return nil, err
	}

	return finalizeConfig(k)
}

// getWarningWriter returns the warning writer or defaults to stderr
func getWarningWriter(w io.Writer) io.Writer {
	if w == nil {
		return os.Stderr
	}
	return w
}

// loadDefaults applies default configuration values
func loadDefaults(k *koanf.Koanf) {
	for key, value := range GetDefaults() {
		k.Set(key, value)
	}
}

// loadUserConfig loads user-level config (YAML preferred, legacy JSON supported).
// Priority: YAML (~/.config/modelverifier/config.yml) > JSON (~/.modelverifier/config.json).
// Warns if both exist (YAML used, JSON ignored) or if only legacy JSON exists.
// A custom path disables the legacy lookup.
func loadUserConfig(k *koanf.Koanf, customPath string, warningWriter io.Writer, skipWarnings bool) error {
	userYAMLPath, legacyUserPath := customPath, ""
	if customPath == "" {
		userYAMLPath, _ = UserConfigPath()
		legacyUserPath, _ = LegacyUserConfigPath()
	}

	userYAMLExists := fileExists(userYAMLPath)
	legacyUserExists := fileExists(legacyUserPath)

	if userYAMLExists {
		if err := loadYAMLConfig(k, userYAMLPath, "user"); err != nil {
			return fmt.Errorf("loading user YAML config: %w", err)
		}
		warnLegacyExists(warningWriter, legacyUserPath, userYAMLPath, legacyUserExists, skipWarnings, "--user")
	} else if legacyUserExists {
		if err := loadLegacyJSONConfig(k, legacyUserPath, "user", warningWriter, skipWarnings, "--user"); err != nil {
			return fmt.Errorf("loading legacy user JSON config: %w", err)
		}
	}
	return nil
}

// loadProjectConfig loads project-level config (YAML preferred, legacy JSON supported).
// The legacy JSON file is looked up next to the YAML path.
func loadProjectConfig(k *koanf.Koanf, customPath string, warningWriter io.Writer, skipWarnings bool) error {
	projectYAMLPath := ProjectConfigPath()
	if customPath != "" {
		projectYAMLPath = customPath
	}
	legacyProjectPath := filepath.Join(filepath.Dir(projectYAMLPath), "config.json")

	projectYAMLExists := fileExists(projectYAMLPath)
	legacyProjectExists := fileExists(legacyProjectPath)

	if projectYAMLExists {
		if err := loadYAMLConfig(k, projectYAMLPath, "project"); err != nil {
			return fmt.Errorf("loading project YAML config: %w", err)
		}
		warnLegacyExists(warningWriter, legacyProjectPath, projectYAMLPath, legacyProjectExists, skipWarnings, "--project")
	} else if legacyProjectExists {
		if err := loadLegacyJSONConfig(k, legacyProjectPath, "project", warningWriter, skipWarnings, "--project"); err != nil {
			return fmt.Errorf("loading legacy project JSON config: %w", err)
		}
	}
	return nil
}

// loadYAMLConfig validates and loads a YAML config file
func loadYAMLConfig(k *koanf.Koanf, path, configType string) error {
	if err := ValidateYAMLSyntax(path); err != nil {
		return fmt.Errorf("validating YAML syntax for %s config: %w", configType, err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to load %s config %s: %w", configType, path, err)
	}
	return nil
}

// loadLegacyJSONConfig loads legacy JSON and warns about migration
func loadLegacyJSONConfig(k *koanf.Koanf, path, configType string, warningWriter io.Writer, skipWarnings bool, migrateFlag string) error {
	if err := k.Load(file.Provider(path), json.Parser()); err != nil {
		return fmt.Errorf("failed to load legacy %s config %s: %w", configType, path, err)
	}
	if !skipWarnings {
		fmt.Fprintf(warningWriter, "Warning: Using deprecated JSON config at %s\n", path)
		fmt.Fprintf(warningWriter, "  Run 'modelverifier config migrate %s' to migrate to YAML format.\n\n", migrateFlag)
	}
	return nil
}

// warnLegacyExists warns if legacy JSON exists alongside new YAML
func warnLegacyExists(warningWriter io.Writer, legacyPath, yamlPath string, legacyExists, skipWarnings bool, migrateFlag string) {
	if legacyExists && !skipWarnings {
		fmt.Fprintf(warningWriter, "Warning: Legacy JSON config found at %s (ignored, using %s)\n", legacyPath, yamlPath)
		fmt.Fprintf(warningWriter, "  Run 'modelverifier config migrate %s' to remove the legacy file.\n\n", migrateFlag)
	}
}

// loadEnvironmentConfig loads environment variable overrides
func loadEnvironmentConfig(k *koanf.Koanf) error {
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envTransform), nil); err != nil {
		return fmt.Errorf("failed to load environment config: %w", err)
	}
	return nil
}

// finalizeConfig unmarshals, validates, and applies final transformations
func finalizeConfig(k *koanf.Koanf) (*Configuration, error) {
	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := ValidateConfigValues(&cfg, "config"); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg.StateDir = expandHomePath(cfg.StateDir)
	return &cfg, nil
}

// fileExists returns true if the file exists and is readable
func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// sections are the nested configuration groups; the first underscore after a
// section name in an environment variable separates it from the key.
var sections = []string{"verification", "history", "watch", "notifications"}

// envTransform converts environment variable names to config keys.
// Example: MODELVERIFIER_HISTORY_MAX_ENTRIES -> history.max_entries
// List values are comma separated: MODELVERIFIER_VERIFICATION_DISABLED=a,b
func envTransform(name, value string) (string, any) {
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	for _, section := range sections {
		if strings.HasPrefix(key, section+"_") {
			key = section + "." + strings.TrimPrefix(key, section+"_")
			break
		}
	}
	if key == "verification.disabled" {
		var ids []string
		for _, id := range strings.Split(value, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		return key, ids
	}
	return key, value
}

// expandHomePath expands ~ to the user's home directory
func expandHomePath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, path[2:])
		}
	}
	return path
}
