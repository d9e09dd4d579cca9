package notify

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ariel-frischer/modelverifier/internal/report"
	"golang.org/x/term"
)

// dispatchTimeout bounds how long a notification may block the caller.
// Long enough for a short sound file to play.
const dispatchTimeout = 5 * time.Second

// Handler decides which verification results deserve a notification and
// dispatches them through a Sender. It remembers the last verdict of every
// module it has seen.
type Handler struct {
	config      NotificationConfig
	sender      Sender
	debugLogger func(format string, args ...any)
	interactive func() bool
	ci          func() bool

	mu   sync.Mutex
	last map[string]report.Verdict
}

// NewHandler creates a new notification handler with the given configuration.
// If notifications are disabled in config, the handler will no-op on all calls.
func NewHandler(config NotificationConfig) *Handler {
	return NewHandlerWithSender(config, NewSender())
}

// NewHandlerWithSender creates a handler with a custom sender (for testing).
func NewHandlerWithSender(config NotificationConfig, sender Sender) *Handler {
	return &Handler{
		config:      config,
		sender:      sender,
		interactive: isInteractive,
		ci:          isCI,
		last:        make(map[string]report.Verdict),
	}
}

// SetDebugLogger configures the debug logger. Pass nil to disable debug logging.
func (h *Handler) SetDebugLogger(logger func(format string, args ...any)) {
	h.debugLogger = logger
}

func (h *Handler) logDebug(format string, args ...any) {
	if h.debugLogger != nil {
		h.debugLogger(format, args...)
	}
}

// Config returns the handler's notification configuration
func (h *Handler) Config() NotificationConfig {
	return h.config
}

// isEnabled checks if notifications should be sent.
// Returns false if notifications are disabled, running in CI, or non-interactive.
func (h *Handler) isEnabled() bool {
	if !h.config.Enabled {
		return false
	}
	if h.ci() {
		h.logDebug("[notify] skipped: running in CI environment")
		return false
	}
	if !h.interactive() {
		h.logDebug("[notify] skipped: non-interactive session (no TTY)")
		return false
	}
	return true
}

// isCI checks for common CI environment variables.
func isCI() bool {
	ciVars := []string{
		"CI",
		"GITHUB_ACTIONS",
		"GITLAB_CI",
		"CIRCLECI",
		"TRAVIS",
		"JENKINS_URL",
		"BUILDKITE",
		"DRONE",
		"TEAMCITY_VERSION",
		"TF_BUILD",            // Azure DevOps
		"BITBUCKET_PIPELINES", // Bitbucket
		"CODEBUILD_BUILD_ID",  // AWS CodeBuild
	}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			return true
		}
	}
	return false
}

// isInteractive checks if the session is interactive (has TTY).
// Checks stdout rather than stdin because CLI tools often have stdin piped
// while stdout remains connected to the terminal.
func isInteractive() bool {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return true
	}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return true
	}
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// OnReport records the verdict of r and notifies when the module starts
// failing (on_failure) or passes after a failure (on_recovery). A module
// seen for the first time notifies only when it fails.
// It reports whether a notification was dispatched.
func (h *Handler) OnReport(r *report.Report) bool {
	h.mu.Lock()
	previous, seen := h.last[r.Module]
	h.last[r.Module] = r.Verdict
	h.mu.Unlock()

	if seen && previous == r.Verdict {
		return false
	}

	var n Notification
	switch {
	case r.Verdict == report.VerdictFail && h.config.OnFailure:
		n = NewNotification(
			"modelverifier: "+r.Module,
			fmt.Sprintf("Verification failed with %d error(s)", r.Errors),
			TypeFailure,
		)
	case r.Verdict == report.VerdictPass && seen && h.config.OnRecovery:
		n = NewNotification(
			"modelverifier: "+r.Module,
			fmt.Sprintf("Verification passes again (%d warning(s))", r.Warnings),
			TypeSuccess,
		)
	default:
		return false
	}

	if !h.isEnabled() {
		return false
	}
	h.dispatch(n)
	return true
}

// dispatch sends a notification with a timeout.
// It respects the configured notification type (sound, visual, or both).
// Failures are logged but never returned.
func (h *Handler) dispatch(n Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.sendNotification(n)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		h.logDebug("[notify] dispatch timed out after %s", dispatchTimeout)
	}
}

// sendNotification sends the notification based on configured type
func (h *Handler) sendNotification(n Notification) {
	if h.config.Type == OutputVisual || h.config.Type == OutputBoth {
		if err := h.sender.SendVisual(n); err != nil {
			h.logDebug("[notify] SendVisual error: %v", err)
		}
	}
	if h.config.Type == OutputSound || h.config.Type == OutputBoth {
		if err := h.sender.SendSound(h.config.SoundFile); err != nil {
			h.logDebug("[notify] SendSound error: %v", err)
		}
	}
}
