package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/ariel-frischer/modelverifier/internal/build"
	"github.com/ariel-frischer/modelverifier/internal/output"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// SourceURL is the project source URL
const SourceURL = "https://github.com/ariel-frischer/modelverifier"

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "version",
		Aliases: []string{"v"},
		Short:   "Display version information (v)",
		Long:    "Display version, commit, build date, and Go version information for modelverifier",
		Example: `  # Show version info
  modelverifier version

  # Plain output (for scripts)
  modelverifier version --plain`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if plain, _ := cmd.Flags().GetBool("plain"); plain {
				printPlainVersion(cmd.OutOrStdout())
				return
			}
			printPrettyVersion(cmd.OutOrStdout())
		},
	}
	cmd.Flags().Bool("plain", false, "Plain output without formatting")
	return cmd
}

// printPlainVersion prints a simple version output for scripting
func printPlainVersion(out io.Writer) {
	fmt.Fprintf(out, "modelverifier %s\n", versionLabel())
	fmt.Fprintf(out, "commit: %s\n", build.Commit)
	fmt.Fprintf(out, "built: %s\n", build.BuildDate)
	fmt.Fprintf(out, "go: %s\n", runtime.Version())
	fmt.Fprintf(out, "platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// printPrettyVersion prints the version details inside a box.
func printPrettyVersion(out io.Writer) {
	yellow := color.New(color.FgYellow).SprintFunc()
	white := color.New(color.FgWhite, color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()

	info := []struct {
		label string
		value string
	}{
		{"Version", versionLabel()},
		{"Commit", truncateCommit(build.Commit)},
		{"Built", build.BuildDate},
		{"Go", runtime.Version()},
		{"Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)},
		{"Source", SourceURL},
	}

	boxWidth := 0
	for _, item := range info {
		if w := 12 + 4 + len(item.value) + 4; w > boxWidth {
			boxWidth = w
		}
	}
	if termWidth := output.GetTerminalWidth(); boxWidth > termWidth {
		boxWidth = termWidth
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "  "+cyan("modelverifier"))
	fmt.Fprintln(out, "┌"+strings.Repeat("─", boxWidth-2)+"┐")
	for _, item := range info {
		line := fmt.Sprintf(" %s    %s", yellow(fmt.Sprintf("%12s", item.label)), white(item.value))
		lineLen := 1 + 12 + 4 + len(item.value)
		if pad := boxWidth - 2 - lineLen; pad > 0 {
			line += strings.Repeat(" ", pad)
		}
		fmt.Fprintln(out, "│"+line+"│")
	}
	fmt.Fprintln(out, "└"+strings.Repeat("─", boxWidth-2)+"┘")
	fmt.Fprintln(out)
}

// versionLabel returns the version, marking builds without release ldflags.
func versionLabel() string {
	if build.IsDevBuild() {
		return build.Version + " (development build)"
	}
	return build.Version
}

// truncateCommit shortens commit hash if it's too long
func truncateCommit(commit string) string {
	if len(commit) > 8 {
		return commit[:8]
	}
	return commit
}
