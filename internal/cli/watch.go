package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	clierrors "github.com/ariel-frischer/modelverifier/internal/errors"
	"github.com/ariel-frischer/modelverifier/internal/model"
	"github.com/ariel-frischer/modelverifier/internal/notify"
	"github.com/ariel-frischer/modelverifier/internal/output"
	"github.com/ariel-frischer/modelverifier/internal/report"
	"github.com/ariel-frischer/modelverifier/internal/session"
	"github.com/ariel-frischer/modelverifier/internal/watch"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <module-dir>",
		Short: "Re-verify a module whenever its compiled artifacts change",
		Long: `Verify the module once, then watch its directory tree and verify again after
every burst of changes settles (watch.debounce). Load errors are printed and
watching continues, since the compiler may still be writing. With
notifications.enabled, a desktop notification is raised whenever the verdict
changes. Stop with Ctrl+C.`,
		Example: `  modelverifier watch ./build/model/orders
  modelverifier watch ./build/model/orders --level strict`,
		GroupID: GroupVerification,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return clierrors.MissingModuleArgument("watch")
			}
			return nil
		},
		RunE: runWatch,
	}
	addProfileFlags(cmd)
	cmd.Flags().StringP("format", "f", "", "Report format: text | json | yaml (default from config)")
	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return clierrors.DirectoryNotFound(dir)
	}

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

	opts := []watch.Option{watch.WithDebounce(cfg.Watch.Debounce)}
	if logger := debugFrom(cmd); logger != nil {
		opts = append(opts, watch.WithDebugLogger(logger))
	}
	watcher, err := watch.New(dir, opts...)
	if err != nil {
		return clierrors.Wrap(err, clierrors.Runtime)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notifier := notify.NewHandler(cfg.Notifications)
	notifier.SetDebugLogger(debugFrom(cmd))

	run := 0
	verifyOnce := func(ctx context.Context) {
		run++
		output.PrintSeparator(cmd.OutOrStdout(), fmt.Sprintf("run %d", run))
		if r := printWatchRun(ctx, cmd, sess, dir, format); r != nil {
			notifier.OnReport(r)
		}
	}

	verifyOnce(ctx)
	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s for changes (Ctrl+C to stop)\n", dir)

	err = watcher.Run(ctx, verifyOnce)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return clierrors.Wrap(err, clierrors.Runtime)
}

// printWatchRun verifies dir and prints the report or the load error.
// It returns the report, or nil when verification did not complete.
func printWatchRun(ctx context.Context, cmd *cobra.Command, sess *session.Session, dir string, format report.OutputFormat) *report.Report {
	r, err := sess.Verify(ctx, dir)
	switch {
	case err == nil:
	case ctx.Err() != nil:
		return nil
	case model.IsLoadError(err):
		clierrors.FprintError(cmd.ErrOrStderr(), clierrors.ModuleLoadFailed(dir, err))
		return nil
	default:
		clierrors.FprintError(cmd.ErrOrStderr(), err)
		return nil
	}
	if err := report.Write(cmd.OutOrStdout(), r, format); err != nil {
		clierrors.FprintError(cmd.ErrOrStderr(), err)
	}
	return r
}
