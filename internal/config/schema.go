package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ConfigValueType defines the expected type for a configuration value.
type ConfigValueType int

const (
	TypeBool ConfigValueType = iota
	TypeInt
	TypeDuration
	TypeString
	TypeEnum
)

// String returns the string representation of ConfigValueType.
func (t ConfigValueType) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeDuration:
		return "duration"
	case TypeString:
		return "string"
	case TypeEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// ConfigKeySchema defines a known configuration key with its expected type and validation rules.
type ConfigKeySchema struct {
	Path          string          // Dotted key path (e.g., "notifications.enabled")
	Type          ConfigValueType // Expected value type for validation
	AllowedValues []string        // Valid values for enum types (empty for non-enums)
	Description   string          // Human-readable description for help text
	Default       interface{}     // Default value
}

// KnownKeys is the registry of all known configuration keys with their schemas.
// verification.disabled and verification.severity are edited directly in the file.
var KnownKeys = map[string]ConfigKeySchema{
	"workers": {
		Path:        "workers",
		Type:        TypeInt,
		Description: "Rules evaluated concurrently by the engine (1-256)",
		Default:     4,
	},
	"format": {
		Path:          "format",
		Type:          TypeEnum,
		AllowedValues: []string{"text", "json", "yaml"},
		Description:   "Default report format for verify",
		Default:       "text",
	},
	"state_dir": {
		Path:        "state_dir",
		Type:        TypeString,
		Description: "Directory for history files",
		Default:     "~/.modelverifier/state",
	},
	"verification.level": {
		Path:          "verification.level",
		Type:          TypeEnum,
		AllowedValues: []string{"basic", "standard", "strict"},
		Description:   "Rule profile: basic (errors only), standard, strict (warnings fail)",
		Default:       "standard",
	},
	"verification.warnings": {
		Path:        "verification.warnings",
		Type:        TypeBool,
		Description: "Run warning rules (basic=disabled, standard/strict=enabled by default)",
		Default:     nil,
	},
	"verification.promote_warnings": {
		Path:        "verification.promote_warnings",
		Type:        TypeBool,
		Description: "Report warnings as errors (strict=enabled by default)",
		Default:     nil,
	},
	"history.enabled": {
		Path:        "history.enabled",
		Type:        TypeBool,
		Description: "Record every verify run",
		Default:     true,
	},
	"history.backend": {
		Path:          "history.backend",
		Type:          TypeEnum,
		AllowedValues: []string{"file", "sqlite"},
		Description:   "History store: file (history.yaml) or sqlite (history.db)",
		Default:       "file",
	},
	"history.max_entries": {
		Path:        "history.max_entries",
		Type:        TypeInt,
		Description: "Runs to retain (0 = unlimited)",
		Default:     DefaultMaxHistoryEntries,
	},
	"watch.debounce": {
		Path:        "watch.debounce",
		Type:        TypeDuration,
		Description: "Quiet period before re-verifying in watch mode (e.g., 300ms, 1s)",
		Default:     "300ms",
	},
	"notifications.enabled": {
		Path:        "notifications.enabled",
		Type:        TypeBool,
		Description: "Desktop notifications when a watched module's verdict changes",
		Default:     false,
	},
	"notifications.type": {
		Path:          "notifications.type",
		Type:          TypeEnum,
		AllowedValues: []string{"sound", "visual", "both"},
		Description:   "Notification output type",
		Default:       "visual",
	},
	"notifications.sound_file": {
		Path:        "notifications.sound_file",
		Type:        TypeString,
		Description: "Custom sound file (empty = platform default)",
		Default:     "",
	},
	"notifications.on_failure": {
		Path:        "notifications.on_failure",
		Type:        TypeBool,
		Description: "Notify when a module starts failing",
		Default:     true,
	},
	"notifications.on_recovery": {
		Path:        "notifications.on_recovery",
		Type:        TypeBool,
		Description: "Notify when a failing module passes again",
		Default:     true,
	},
}

// ErrUnknownKey is returned when trying to access an unknown configuration key.
type ErrUnknownKey struct {
	Key string
}

func (e ErrUnknownKey) Error() string {
	return "unknown configuration key: " + e.Key
}

// GetKeySchema returns the schema for a known configuration key.
// Returns ErrUnknownKey if the key is not in the registry.
func GetKeySchema(path string) (ConfigKeySchema, error) {
	schema, ok := KnownKeys[path]
	if !ok {
		return ConfigKeySchema{}, ErrUnknownKey{Key: path}
	}
	return schema, nil
}

// SortedKeys returns the known key paths in lexical order.
func SortedKeys() []string {
	keys := make([]string, 0, len(KnownKeys))
	for k := range KnownKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParsedValue represents a configuration value after type inference and validation.
type ParsedValue struct {
	Raw    string      // Original string input from user
	Parsed interface{} // Value converted to correct type
	Type   ConfigValueType
}

// ValidateValue validates a value against the schema for a given key.
// Returns the parsed value or an error with details about what's wrong.
func ValidateValue(key, value string) (ParsedValue, error) {
	schema, err := GetKeySchema(key)
	if err != nil {
		return ParsedValue{}, err
	}
	return validateAgainstSchema(schema, value)
}

// validateAgainstSchema validates a value against a specific schema.
func validateAgainstSchema(schema ConfigKeySchema, value string) (ParsedValue, error) {
	switch schema.Type {
	case TypeBool:
		return parseBoolValue(value)
	case TypeInt:
		return parseIntValue(value)
	case TypeDuration:
		return parseDurationValue(value)
	case TypeEnum:
		return parseEnumValue(schema, value)
	case TypeString:
		return ParsedValue{Raw: value, Parsed: value, Type: TypeString}, nil
	default:
		return ParsedValue{}, fmt.Errorf("unsupported type: %v", schema.Type)
	}
}

// parseBoolValue parses and validates a boolean value.
func parseBoolValue(value string) (ParsedValue, error) {
	switch strings.ToLower(value) {
	case "true":
		return ParsedValue{Raw: value, Parsed: true, Type: TypeBool}, nil
	case "false":
		return ParsedValue{Raw: value, Parsed: false, Type: TypeBool}, nil
	default:
		return ParsedValue{}, fmt.Errorf("invalid boolean: %q (expected true or false)", value)
	}
}

// parseIntValue parses and validates an integer value.
func parseIntValue(value string) (ParsedValue, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return ParsedValue{}, fmt.Errorf("invalid integer: %q", value)
	}
	return ParsedValue{Raw: value, Parsed: n, Type: TypeInt}, nil
}

// parseDurationValue parses and validates a duration value.
func parseDurationValue(value string) (ParsedValue, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return ParsedValue{}, fmt.Errorf("invalid duration: %q (examples: 5m, 1h30m, 10s)", value)
	}
	return ParsedValue{Raw: value, Parsed: d.String(), Type: TypeDuration}, nil
}

// parseEnumValue validates a value against allowed enum options.
func parseEnumValue(schema ConfigKeySchema, value string) (ParsedValue, error) {
	for _, allowed := range schema.AllowedValues {
		if value == allowed {
			return ParsedValue{Raw: value, Parsed: value, Type: TypeEnum}, nil
		}
	}
	return ParsedValue{}, fmt.Errorf(
		"invalid value: %q (valid options: %s)",
		value,
		strings.Join(schema.AllowedValues, ", "),
	)
}
