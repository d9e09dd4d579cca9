package config

import (
	"fmt"
)

// ToMap returns the configuration as nested maps keyed like the config file.
// Durations are rendered in their string form so the map round-trips through YAML.
func (c *Configuration) ToMap() map[string]interface{} {
	verificationMap := map[string]interface{}{
		"level":    string(c.Verification.Level),
		"disabled": append([]string{}, c.Verification.Disabled...),
	}
	if c.Verification.Warnings != nil {
		verificationMap["warnings"] = *c.Verification.Warnings
	}
	if c.Verification.PromoteWarnings != nil {
		verificationMap["promote_warnings"] = *c.Verification.PromoteWarnings
	}
	severity := make(map[string]interface{}, len(c.Verification.Severity))
	for id, s := range c.Verification.Severity {
		severity[id] = s
	}
	verificationMap["severity"] = severity

	return map[string]interface{}{
		"workers":      c.Workers,
		"format":       c.Format,
		"state_dir":    c.StateDir,
		"verification": verificationMap,
		"history": map[string]interface{}{
			"enabled":     c.History.Enabled,
			"backend":     c.History.Backend,
			"max_entries": c.History.MaxEntries,
		},
		"watch": map[string]interface{}{
			"debounce": c.Watch.Debounce.String(),
		},
		"notifications": map[string]interface{}{
			"enabled":     c.Notifications.Enabled,
			"type":        string(c.Notifications.Type),
			"sound_file":  c.Notifications.SoundFile,
			"on_failure":  c.Notifications.OnFailure,
			"on_recovery": c.Notifications.OnRecovery,
		},
	}
}

// Lookup returns the value at a dotted key path, e.g. "history.backend".
// Section keys return the whole section.
func (c *Configuration) Lookup(key string) (interface{}, error) {
	parts, err := ParseKeyPath(key)
	if err != nil {
		return nil, err
	}
	var current interface{} = c.ToMap()
	for _, part := range parts {
		section, ok := current.(map[string]interface{})
		if !ok {
			return nil, ErrUnknownKey{Key: key}
		}
		if current, ok = section[part]; !ok {
			return nil, ErrUnknownKey{Key: key}
		}
	}
	return current, nil
}

// Source describes one configuration file and whether it is present.
type Source struct {
	Name   string
	Path   string
	Exists bool
}

// Sources lists the configuration files Load consults, lowest priority first.
// projectConfigPath overrides the default project path when set.
func Sources(projectConfigPath string) []Source {
	var sources []Source
	if userPath, err := UserConfigPath(); err == nil {
		sources = append(sources, Source{Name: "user", Path: userPath, Exists: fileExists(userPath)})
	}
	if legacy, err := LegacyUserConfigPath(); err == nil && fileExists(legacy) {
		sources = append(sources, Source{Name: "user (legacy)", Path: legacy, Exists: true})
	}

	projectPath := projectConfigPath
	if projectPath == "" {
		projectPath = ProjectConfigPath()
	}
	sources = append(sources, Source{Name: "project", Path: projectPath, Exists: fileExists(projectPath)})
	return sources
}

func (s Source) String() string {
	status := "not found"
	if s.Exists {
		status = "loaded"
	}
	return fmt.Sprintf("%s: %s (%s)", s.Name, s.Path, status)
}
