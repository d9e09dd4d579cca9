// Package notify sends desktop notifications when a watched module's verdict
// changes. Notifications are opt-in and are skipped in CI and in sessions
// without a terminal.
package notify

// NotificationType represents the type of notification event
type NotificationType string

const (
	// TypeSuccess indicates a module that passes again
	TypeSuccess NotificationType = "success"
	// TypeFailure indicates a module that fails verification
	TypeFailure NotificationType = "failure"
)

// OutputType represents the notification output type
type OutputType string

const (
	// OutputSound sends only an audible notification
	OutputSound OutputType = "sound"
	// OutputVisual sends only a visual notification
	OutputVisual OutputType = "visual"
	// OutputBoth sends both sound and visual notifications
	OutputBoth OutputType = "both"
)

// ValidOutputType checks if the given string is a valid output type
func ValidOutputType(s string) bool {
	switch OutputType(s) {
	case OutputSound, OutputVisual, OutputBoth:
		return true
	default:
		return false
	}
}

// NotificationConfig holds user preferences for notification behavior.
// Configuration is loaded from the config hierarchy (env > project > user > defaults).
type NotificationConfig struct {
	// Enabled is the master switch for all notifications (default: false, opt-in)
	Enabled bool `koanf:"enabled"`

	// Type specifies the notification output type: sound, visual, or both (default: visual)
	Type OutputType `koanf:"type" validate:"oneof=sound visual both"`

	// SoundFile is an optional custom sound file path
	SoundFile string `koanf:"sound_file"`

	// OnFailure notifies when a module starts failing (default: true when enabled)
	OnFailure bool `koanf:"on_failure"`

	// OnRecovery notifies when a failing module passes again (default: true when enabled)
	OnRecovery bool `koanf:"on_recovery"`
}

// DefaultConfig returns a NotificationConfig with default values
func DefaultConfig() NotificationConfig {
	return NotificationConfig{
		Enabled:    false,
		Type:       OutputVisual,
		SoundFile:  "",
		OnFailure:  true,
		OnRecovery: true,
	}
}

// Notification represents a single notification event to dispatch
type Notification struct {
	// Title is the notification title (e.g., "modelverifier: orders")
	Title string

	// Message is the notification body text
	Message string

	// NotificationType indicates the event type: success or failure
	NotificationType NotificationType
}

// NewNotification creates a new Notification with the given parameters
func NewNotification(title, message string, notificationType NotificationType) Notification {
	return Notification{
		Title:            title,
		Message:          message,
		NotificationType: notificationType,
	}
}
