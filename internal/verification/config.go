package verification

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ariel-frischer/modelverifier/internal/rules"
)

// VerificationLevel defines the preset verification tier.
type VerificationLevel string

// Verification level constants define the available tiers.
const (
	// LevelBasic runs only error-severity rules.
	LevelBasic VerificationLevel = "basic"
	// LevelStandard runs every rule at its declared severity.
	LevelStandard VerificationLevel = "standard"
	// LevelStrict runs every rule and promotes warnings to errors.
	LevelStrict VerificationLevel = "strict"
)

// DefaultLevel is used when no level is configured.
const DefaultLevel = LevelStandard

// ValidLevels lists all valid verification level values.
var ValidLevels = []VerificationLevel{LevelBasic, LevelStandard, LevelStrict}

// ParseVerificationLevel parses a string into a VerificationLevel.
// Returns an error if the value is not a valid level.
func ParseVerificationLevel(s string) (VerificationLevel, error) {
	level := VerificationLevel(s)
	for _, valid := range ValidLevels {
		if level == valid {
			return level, nil
		}
	}
	return "", fmt.Errorf("invalid verification level %q: valid options are basic, standard, strict", s)
}

// IsValid returns true if the level is a known verification level.
func (l VerificationLevel) IsValid() bool {
	for _, valid := range ValidLevels {
		if l == valid {
			return true
		}
	}
	return false
}

// String returns the string representation of the level.
func (l VerificationLevel) String() string {
	return string(l)
}

// VerificationConfig holds the rule profile: level, feature toggles and per-rule overrides.
// Feature toggles use *bool to distinguish between "not set" (nil) and "explicitly false".
type VerificationConfig struct {
	// Level is the verification tier (basic, standard, strict).
	Level VerificationLevel `koanf:"level" yaml:"level"`

	// Feature toggles - nil means use level default, explicit value overrides level.
	Warnings        *bool `koanf:"warnings" yaml:"warnings,omitempty"`
	PromoteWarnings *bool `koanf:"promote_warnings" yaml:"promote_warnings,omitempty"`

	// Disabled lists rule ids that do not run.
	Disabled []string `koanf:"disabled" yaml:"disabled,omitempty"`
	// Severity overrides the declared severity of individual rules.
	Severity map[string]string `koanf:"severity" yaml:"severity,omitempty"`
}

// Feature toggle names used for IsEnabled lookups.
const (
	FeatureWarnings        = "warnings"
	FeaturePromoteWarnings = "promote_warnings"
)

// levelPreset defines which features are enabled by default for a verification level.
type levelPreset struct {
	Warnings        bool
	PromoteWarnings bool
}

// levelPresets maps each verification level to its default feature configuration.
var levelPresets = map[VerificationLevel]levelPreset{
	LevelBasic:    {Warnings: false, PromoteWarnings: false},
	LevelStandard: {Warnings: true, PromoteWarnings: false},
	LevelStrict:   {Warnings: true, PromoteWarnings: true},
}

// GetLevelDefaults returns the default feature preset for a verification level.
// Returns the standard preset if the level is not recognized.
func GetLevelDefaults(level VerificationLevel) levelPreset {
	preset, ok := levelPresets[level]
	if !ok {
		return levelPresets[DefaultLevel]
	}
	return preset
}

// IsEnabled checks if a feature is enabled based on the resolution order:
// explicit toggle > level preset > default (false).
func (c *VerificationConfig) IsEnabled(feature string) bool {
	preset := GetLevelDefaults(c.Level)

	switch feature {
	case FeatureWarnings:
		if c.Warnings != nil {
			return *c.Warnings
		}
		return preset.Warnings
	case FeaturePromoteWarnings:
		if c.PromoteWarnings != nil {
			return *c.PromoteWarnings
		}
		return preset.PromoteWarnings
	default:
		return false
	}
}

// GetEffectiveToggles returns resolved values for all feature toggles.
func (c *VerificationConfig) GetEffectiveToggles() map[string]bool {
	return map[string]bool{
		FeatureWarnings:        c.IsEnabled(FeatureWarnings),
		FeaturePromoteWarnings: c.IsEnabled(FeaturePromoteWarnings),
	}
}

// Validate checks the level and severity names without a registry.
func (c *VerificationConfig) Validate() error {
	if c.Level != "" && !c.Level.IsValid() {
		_, err := ParseVerificationLevel(string(c.Level))
		return err
	}
	for _, id := range sortedKeys(c.Severity) {
		if _, err := rules.ParseSeverity(c.Severity[id]); err != nil {
			return fmt.Errorf("verification.severity.%s: %w", id, err)
		}
	}
	return nil
}

// Apply resolves the profile against registry and returns the registry to run.
// The input registry is not modified. Unknown rule ids are errors.
func (c *VerificationConfig) Apply(registry *rules.Registry) (*rules.Registry, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var unknown []string
	for _, id := range c.Disabled {
		if _, ok := registry.Get(id); !ok {
			unknown = append(unknown, id)
		}
	}
	for _, id := range sortedKeys(c.Severity) {
		if _, ok := registry.Get(id); !ok {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown rule id(s): %s", strings.Join(unknown, ", "))
	}

	disabled := make(map[string]bool, len(c.Disabled))
	for _, id := range c.Disabled {
		disabled[id] = true
	}
	warnings := c.IsEnabled(FeatureWarnings)
	promote := c.IsEnabled(FeaturePromoteWarnings)

	resolved := registry.Map(func(r rules.Rule) rules.Rule {
		if s, ok := c.Severity[r.ID]; ok {
			r.Severity = rules.Severity(s)
		}
		if promote && r.Severity == rules.SeverityWarning {
			r.Severity = rules.SeverityError
		}
		return r
	})
	return resolved.Filter(func(r rules.Rule) bool {
		if disabled[r.ID] {
			return false
		}
		return warnings || r.Severity != rules.SeverityWarning
	}), nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
