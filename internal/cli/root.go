// Package cli implements the modelverifier command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ariel-frischer/modelverifier/internal/config"
	clierrors "github.com/ariel-frischer/modelverifier/internal/errors"
	"github.com/ariel-frischer/modelverifier/internal/git"
	"github.com/ariel-frischer/modelverifier/internal/model"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Command groups shown in help output.
const (
	GroupVerification  = "verification"
	GroupConfiguration = "configuration"
)

var rootCmd = NewRootCmd()

// NewRootCmd builds the full command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "modelverifier",
		Short: "Verify compiled domain models against structural rules",
		Long: `modelverifier checks a compiled domain model (the model.yaml and type
descriptors written by the model compiler) against the built-in structural
rules and reports every violation with a pass/fail verdict.

Configuration is loaded with the following priority (highest to lowest):
  1. Environment variables (MODELVERIFIER_*)
  2. Project config (.modelverifier/config.yml)
  3. User config (~/.config/modelverifier/config.yml)
  4. Built-in defaults`,
		Example: `  # Verify a compiled module
  modelverifier verify ./build/model/orders

  # Machine-readable report
  modelverifier verify ./build/model/orders --format json --output report.json

  # Re-verify on every change
  modelverifier watch ./build/model/orders`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			noColor, _ := cmd.Flags().GetBool("no-color")
			if noColor {
				color.NoColor = true
			}
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logger := debugLogger(cmd.ErrOrStderr())
				model.SetDebugLogger(logger)
				git.SetDebugLogger(logger)
			}
			return nil
		},
	}

	root.AddGroup(
		&cobra.Group{ID: GroupVerification, Title: "Verification Commands:"},
		&cobra.Group{ID: GroupConfiguration, Title: "Configuration Commands:"},
	)

	root.PersistentFlags().StringP("config", "c", "", "Project config file (default: .modelverifier/config.yml)")
	root.PersistentFlags().Bool("debug", false, "Print debug diagnostics to stderr")
	root.PersistentFlags().Bool("no-color", false, "Disable colored output")

	root.AddCommand(
		newVerifyCmd(),
		newWatchCmd(),
		newPipelineCmd(),
		newRulesCmd(),
		newHistoryCmd(),
		newConfigCmd(),
		newDoctorCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	return execute(context.Background(), rootCmd, os.Args[1:], os.Stderr)
}

func execute(ctx context.Context, root *cobra.Command, args []string, stderr io.Writer) int {
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}
	clierrors.FprintError(stderr, err)
	return ExitCode(err)
}

// debugLogger returns a logger writing "[debug] ..." lines to w.
func debugLogger(w io.Writer) func(format string, args ...any) {
	dim := color.New(color.Faint).SprintFunc()
	return func(format string, args ...any) {
		fmt.Fprintln(w, dim("[debug] "+fmt.Sprintf(format, args...)))
	}
}

// debugFrom returns the debug logger for cmd, or nil when --debug is off.
func debugFrom(cmd *cobra.Command) func(format string, args ...any) {
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		return debugLogger(cmd.ErrOrStderr())
	}
	return nil
}

// loadConfig loads the layered configuration honoring --config.
func loadConfig(cmd *cobra.Command) (*config.Configuration, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadWithOptions(config.LoadOptions{
		ProjectConfigPath: path,
		WarningWriter:     cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, clierrors.ConfigLoadFailed(err)
	}
	return cfg, nil
}
