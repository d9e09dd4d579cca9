package cli

import (
	"fmt"

	clierrors "github.com/ariel-frischer/modelverifier/internal/errors"
	"github.com/ariel-frischer/modelverifier/internal/health"
	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor [dir]",
		Short: "Check that modelverifier can run in this environment",
		Long: `Run environment health checks: configuration, state directory, history
store, git revision lookup for [dir] (default: current directory) and
desktop notification tools.

Checks marked ○ are optional and never fail the command.`,
		Example: `  modelverifier doctor
  modelverifier doctor ./build/model/orders`,
		GroupID: GroupConfiguration,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := health.Options{}
			if len(args) == 1 {
				opts.Dir = args[0]
			}
			opts.Config, opts.ConfigErr = loadConfig(cmd)

			report := health.RunHealthChecks(cmd.Context(), opts)
			fmt.Fprint(cmd.OutOrStdout(), health.FormatReport(report))
			if report.Passed {
				return nil
			}

			var failed []string
			for _, check := range report.Checks {
				if !check.Passed && !check.Optional {
					failed = append(failed, check.Name)
				}
			}
			return clierrors.HealthChecksFailed(failed)
		},
	}
}
