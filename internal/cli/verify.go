package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ariel-frischer/modelverifier/internal/config"
	clierrors "github.com/ariel-frischer/modelverifier/internal/errors"
	"github.com/ariel-frischer/modelverifier/internal/history"
	"github.com/ariel-frischer/modelverifier/internal/model"
	"github.com/ariel-frischer/modelverifier/internal/progress"
	"github.com/ariel-frischer/modelverifier/internal/report"
	"github.com/ariel-frischer/modelverifier/internal/session"
	"github.com/spf13/cobra"
)

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <module-dir>...",
		Short: "Verify compiled modules against the rule catalogue",
		Long: `Load each compiled module, evaluate the rule profile against every type and
print a report. The command exits with 1 when any module has an error-severity
violation, 4 when a module's artifacts are missing or corrupt and 6 when the
configuration or rule profile is invalid.`,
		Example: `  # Verify one module
  modelverifier verify ./build/model/orders

  # Several modules, JSON report written to a file
  modelverifier verify ./build/model/* --format json --output report.json

  # Fail on warnings too, skip one rule
  modelverifier verify ./build/model/orders --level strict --disable projection-subscribes`,
		GroupID: GroupVerification,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return clierrors.MissingModuleArgument("verify")
			}
			return nil
		},
		RunE: runVerify,
	}
	addProfileFlags(cmd)
	cmd.Flags().StringP("format", "f", "", "Report format: text | json | yaml (default from config)")
	cmd.Flags().StringP("output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().Bool("no-history", false, "Do not record this run in the history")
	return cmd
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	format, err := resolveFormat(cmd, cfg)
	if err != nil {
		return err
	}
	sess, err := newSession(cmd, cfg)
	if err != nil {
		return err
	}

	store := openHistory(cmd, cfg)
	if store != nil {
		defer store.Close()
	}

	var display *progress.Display
	if caps := progress.DetectTerminalCapabilities(); caps.IsTTY {
		display = progress.NewDisplay(cmd.ErrOrStderr(), caps)
	}

	reports := make([]*report.Report, 0, len(args))
	for _, dir := range args {
		r, err := verifyModule(cmd.Context(), sess, dir, display)
		if err != nil {
			return err
		}
		if store != nil {
			history.LogEntry(cmd.Context(), store, history.NewEntry(r, absPath(dir), time.Now()), cmd.ErrOrStderr())
		}
		reports = append(reports, r)
	}

	if err := writeReports(cmd, reports, format); err != nil {
		return err
	}
	return verdictError(reports)
}

// verifyModule runs one module through the session, converting load errors.
func verifyModule(ctx context.Context, sess *session.Session, dir string, display *progress.Display) (*report.Report, error) {
	if display != nil {
		display.Start("verify " + dir)
	}
	r, err := sess.Verify(ctx, dir)
	if err != nil {
		if display != nil {
			display.Fail(err.Error())
		}
		if model.IsLoadError(err) {
			return nil, clierrors.ModuleLoadFailed(dir, err)
		}
		return nil, clierrors.Wrap(err, clierrors.Runtime)
	}
	if display != nil {
		if r.Passed() {
			display.Succeed(string(r.Verdict))
		} else {
			display.Fail(fmt.Sprintf("%d error(s)", r.Errors))
		}
	}
	return r, nil
}

// resolveFormat returns --format or the configured default.
func resolveFormat(cmd *cobra.Command, cfg *config.Configuration) (report.OutputFormat, error) {
	value, _ := cmd.Flags().GetString("format")
	if value == "" {
		value = cfg.Format
	}
	format, err := report.ParseOutputFormat(value)
	if err != nil {
		allowed := make([]string, 0, len(report.ValidFormats))
		for _, f := range report.ValidFormats {
			allowed = append(allowed, string(f))
		}
		return "", clierrors.InvalidFlagValue("format", value, allowed)
	}
	return format, nil
}

// writeReports writes to --output when given, otherwise to stdout.
func writeReports(cmd *cobra.Command, reports []*report.Report, format report.OutputFormat) error {
	path, _ := cmd.Flags().GetString("output")
	if path == "" {
		if err := report.WriteAll(cmd.OutOrStdout(), reports, format); err != nil {
			return clierrors.Wrap(err, clierrors.Runtime)
		}
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return clierrors.FileNotWritable(path, err)
	}
	return writeReportFile(f, path, reports, format)
}

// writeReportFile writes reports to wc and closes it. A failed close is a
// failed write: buffered data may not have reached the file.
func writeReportFile(wc io.WriteCloser, path string, reports []*report.Report, format report.OutputFormat) error {
	if err := report.WriteAll(wc, reports, format); err != nil {
		wc.Close()
		return clierrors.FileNotWritable(path, err)
	}
	if err := wc.Close(); err != nil {
		return clierrors.FileNotWritable(path, err)
	}
	return nil
}

// verdictError returns a verification error for the first failing report.
func verdictError(reports []*report.Report) error {
	for _, r := range reports {
		if !r.Passed() {
			return clierrors.VerificationFailed(r.Module, r.Errors)
		}
	}
	return nil
}

func absPath(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}
