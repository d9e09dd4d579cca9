package config

import (
	"os"
	"path/filepath"
)

// AppName names the user config directory and the project config directory.
const AppName = "modelverifier"

// UserConfigPath returns the path to the user-level config file.
// This follows the XDG Base Directory Specification:
// - Linux: ~/.config/modelverifier/config.yml
// - macOS: ~/Library/Application Support/modelverifier/config.yml
// - Windows: %APPDATA%\modelverifier\config.yml
//
// If XDG_CONFIG_HOME is set, it will be respected on Linux.
func UserConfigPath() (string, error) {
	configDir, err := UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yml"), nil
}

// UserConfigDir returns the path to the user-level config directory.
func UserConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, AppName), nil
}

// ProjectConfigPath returns the path to the project-level config file.
// This is always .modelverifier/config.yml relative to the current directory.
func ProjectConfigPath() string {
	return filepath.Join(ProjectConfigDir(), "config.yml")
}

// ProjectConfigDir returns the path to the project-level config directory.
func ProjectConfigDir() string {
	return "." + AppName
}

// LegacyUserConfigPath returns the path to the legacy user-level JSON config file:
// ~/.modelverifier/config.json
func LegacyUserConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, "."+AppName, "config.json"), nil
}

// LegacyProjectConfigPath returns the path to the legacy project-level JSON config file:
// .modelverifier/config.json
func LegacyProjectConfigPath() string {
	return filepath.Join(ProjectConfigDir(), "config.json")
}
