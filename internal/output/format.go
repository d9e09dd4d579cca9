// Package output provides terminal output formatting utilities for the modelverifier CLI.
// This package is designed to have minimal dependencies to avoid import cycles.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// GetTerminalWidth returns the terminal width, defaulting to 80 if unavailable.
func GetTerminalWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return 80
}

// PrintSeparator prints a dim magenta rule with a centered label, used between
// re-verification runs in watch mode.
func PrintSeparator(out io.Writer, label string) {
	termWidth := GetTerminalWidth()
	magenta := color.New(color.FgMagenta, color.Faint).SprintFunc()

	label = " " + label + " "
	lineLen := (termWidth - len(label)) / 2
	if lineLen < 3 {
		lineLen = 3
	}

	line := strings.Repeat("─", lineLen)
	fmt.Fprintf(out, "\n%s%s%s\n", magenta(line), magenta(label), magenta(line))
}

// PrintStageHeader prints a colored stage header (e.g., "[Stage 1/4] verify-orders...").
// Uses cyan for the stage indicator and white for the stage name.
func PrintStageHeader(out io.Writer, stageNum, totalStages int, stageName string) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	white := color.New(color.FgWhite, color.Bold).SprintFunc()
	fmt.Fprintf(out, "%s %s\n", cyan(fmt.Sprintf("[Stage %d/%d]", stageNum, totalStages)), white(stageName+"..."))
}

// PrintStageSuccess prints a green check mark and the message in cyan.
func PrintStageSuccess(out io.Writer, message string) {
	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	fmt.Fprintf(out, "%s %s\n", green("✓"), cyan(message))
}

// PrintStageFailure prints a red cross and the message.
func PrintStageFailure(out io.Writer, message string) {
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	fmt.Fprintf(out, "%s %s\n", red("✗"), message)
}

// PrintStageBlocked prints a yellow marker for a stage that did not run.
func PrintStageBlocked(out io.Writer, message string) {
	yellow := color.New(color.FgYellow).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	fmt.Fprintf(out, "%s %s\n", yellow("–"), dim(message))
}

// SeverityLabel colors a severity name: errors red, warnings yellow.
func SeverityLabel(severity string) string {
	switch severity {
	case "error":
		return color.New(color.FgRed, color.Bold).Sprint(severity)
	case "warning":
		return color.New(color.FgYellow).Sprint(severity)
	default:
		return severity
	}
}
