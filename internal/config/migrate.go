package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scope selects the user-level or the project-level configuration file.
type Scope string

const (
	ScopeUser    Scope = "user"
	ScopeProject Scope = "project"
)

// Paths returns the YAML config path and the legacy JSON path for the scope.
func (s Scope) Paths() (yamlPath, jsonPath string, err error) {
	switch s {
	case ScopeUser:
		if yamlPath, err = UserConfigPath(); err != nil {
			return "", "", fmt.Errorf("failed to get user config path: %w", err)
		}
		if jsonPath, err = LegacyUserConfigPath(); err != nil {
			return "", "", fmt.Errorf("failed to get legacy user config path: %w", err)
		}
		return yamlPath, jsonPath, nil
	case ScopeProject:
		return ProjectConfigPath(), LegacyProjectConfigPath(), nil
	default:
		return "", "", fmt.Errorf("unknown config scope %q", s)
	}
}

// MigrationResult describes the outcome of a migration operation
type MigrationResult struct {
	SourcePath string
	TargetPath string
	Success    bool
	DryRun     bool
	Message    string
}

// MigrateJSONToYAML converts a JSON config file to YAML format.
//
// Migration pipeline:
//  1. Read JSON → 2. Check if YAML exists (skip if so) → 3. Convert → 4. Write → 5. Back up JSON
//
// Dry-run mode reports the planned action without writing. An existing YAML file is
// never overwritten. The JSON file is renamed to config.json.bak once the YAML is written.
func MigrateJSONToYAML(jsonPath, yamlPath string, dryRun bool) (*MigrationResult, error) {
	result := &MigrationResult{
		SourcePath: jsonPath,
		TargetPath: yamlPath,
		DryRun:     dryRun,
	}

	jsonData, err := os.ReadFile(jsonPath)
	if err != nil {
		if os.IsNotExist(err) {
			result.Message = fmt.Sprintf("No JSON config found at %s", jsonPath)
			return result, nil
		}
		return nil, fmt.Errorf("failed to read JSON config: %w", err)
	}

	var configData map[string]interface{}
	if err := json.Unmarshal(jsonData, &configData); err != nil {
		return nil, fmt.Errorf("failed to parse JSON config: %w", err)
	}

	if _, err := os.Stat(yamlPath); err == nil {
		result.Message = fmt.Sprintf("YAML config already exists at %s (skipped)", yamlPath)
		return result, nil
	}

	if dryRun {
		result.Success = true
		result.Message = fmt.Sprintf("Would migrate %s → %s", jsonPath, yamlPath)
		return result, nil
	}

	var buf bytes.Buffer
	buf.WriteString("# modelverifier configuration\n# Migrated from JSON format\n\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(configData); err != nil {
		return nil, fmt.Errorf("failed to convert to YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to convert to YAML: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(yamlPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(yamlPath, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write YAML config: %w", err)
	}
	if err := os.Rename(jsonPath, jsonPath+".bak"); err != nil {
		return nil, fmt.Errorf("failed to backup legacy config: %w", err)
	}

	result.Success = true
	result.Message = fmt.Sprintf("Migrated %s → %s (backup at %s.bak)", jsonPath, yamlPath, jsonPath)
	return result, nil
}

// Migrate migrates the legacy JSON config of the given scope.
func Migrate(scope Scope, dryRun bool) (*MigrationResult, error) {
	yamlPath, jsonPath, err := scope.Paths()
	if err != nil {
		return nil, err
	}
	return MigrateJSONToYAML(jsonPath, yamlPath, dryRun)
}
