package notify

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Sender defines the interface for platform-specific notification senders
type Sender interface {
	// SendVisual sends a visual notification to the OS notification system
	SendVisual(n Notification) error

	// SendSound plays an audio notification
	SendSound(soundFile string) error

	// VisualAvailable returns true if visual notifications are supported
	VisualAvailable() bool

	// SoundAvailable returns true if sound notifications are supported
	SoundAvailable() bool
}

// NewSender creates a platform-specific notification sender based on the current OS.
// It returns a sender appropriate for darwin (macOS) or linux.
// For other platforms, it returns a no-op sender.
func NewSender() Sender {
	switch runtime.GOOS {
	case "darwin":
		return newDarwinSender()
	case "linux":
		return newLinuxSender()
	default:
		return &noopSender{}
	}
}

// Platform returns the current operating system name
func Platform() string {
	return runtime.GOOS
}

// toolAvailable checks if a command-line tool is available in PATH
func toolAvailable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// commandSender shells out to the platform's notification and audio tools.
type commandSender struct {
	visualTool   string
	visualArgs   func(n Notification) []string
	soundTool    string
	defaultSound string
}

func newDarwinSender() *commandSender {
	return &commandSender{
		visualTool: "osascript",
		visualArgs: func(n Notification) []string {
			script := fmt.Sprintf("display notification %s with title %s",
				appleScriptString(n.Message), appleScriptString(n.Title))
			return []string{"-e", script}
		},
		soundTool:    "afplay",
		defaultSound: "/System/Library/Sounds/Glass.aiff",
	}
}

func newLinuxSender() *commandSender {
	return &commandSender{
		visualTool: "notify-send",
		visualArgs: func(n Notification) []string {
			urgency := "normal"
			if n.NotificationType == TypeFailure {
				urgency = "critical"
			}
			return []string{"--app-name=modelverifier", "--urgency=" + urgency, n.Title, n.Message}
		},
		soundTool:    "paplay",
		defaultSound: "/usr/share/sounds/freedesktop/stereo/complete.oga",
	}
}

func (s *commandSender) SendVisual(n Notification) error {
	if !s.VisualAvailable() {
		return fmt.Errorf("%s not found in PATH", s.visualTool)
	}
	if err := exec.Command(s.visualTool, s.visualArgs(n)...).Run(); err != nil {
		return fmt.Errorf("running %s: %w", s.visualTool, err)
	}
	return nil
}

func (s *commandSender) SendSound(soundFile string) error {
	if !s.SoundAvailable() {
		return fmt.Errorf("%s not found in PATH", s.soundTool)
	}
	if soundFile == "" {
		soundFile = s.defaultSound
	}
	if err := exec.Command(s.soundTool, soundFile).Run(); err != nil {
		return fmt.Errorf("running %s: %w", s.soundTool, err)
	}
	return nil
}

func (s *commandSender) VisualAvailable() bool { return toolAvailable(s.visualTool) }
func (s *commandSender) SoundAvailable() bool  { return toolAvailable(s.soundTool) }

// appleScriptString quotes s as an AppleScript string literal.
func appleScriptString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// noopSender is a sender that does nothing (for unsupported platforms)
type noopSender struct{}

func (s *noopSender) SendVisual(_ Notification) error { return nil }
func (s *noopSender) SendSound(_ string) error        { return nil }
func (s *noopSender) VisualAvailable() bool           { return false }
func (s *noopSender) SoundAvailable() bool            { return false }
