package cli

import (
	"fmt"

	clierrors "github.com/ariel-frischer/modelverifier/internal/errors"
	"github.com/ariel-frischer/modelverifier/internal/history"
	"github.com/ariel-frischer/modelverifier/internal/report"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "View recorded verification runs",
		Long: `View a log of verification runs with timestamp, module, verdict, violation
counts, source revision and duration. Runs are recorded under state_dir using
the configured history.backend.`,
		Example: `  modelverifier history
  modelverifier history --limit 10
  modelverifier history --module orders`,
		GroupID: GroupConfiguration,
		Args:    cobra.NoArgs,
		RunE:    runHistory,
	}
	cmd.Flags().IntP("limit", "n", 0, "Limit to last N entries (most recent)")
	cmd.Flags().StringP("module", "m", "", "Filter by module name")
	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	if limit < 0 {
		return clierrors.NewArgumentError(fmt.Sprintf("--limit must be positive, got %d", limit))
	}
	module, _ := cmd.Flags().GetString("module")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := history.Open(history.Backend(cfg.History.Backend), cfg.StateDir, cfg.History.MaxEntries)
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer store.Close()

	// the module filter is applied before the limit
	listLimit := limit
	if module != "" {
		listLimit = 0
	}
	entries, err := store.List(cmd.Context(), listLimit)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}
	entries = filterEntries(entries, module, limit)

	if len(entries) == 0 {
		if module != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "No matching entries for module '%s'.\n", module)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "No history available.")
		}
		return nil
	}

	displayEntries(cmd, entries)
	return nil
}

// filterEntries keeps entries for module and applies limit. Entries are newest first.
func filterEntries(entries []history.HistoryEntry, module string, limit int) []history.HistoryEntry {
	var result []history.HistoryEntry
	for _, entry := range entries {
		if module == "" || entry.Module == module {
			result = append(result, entry)
		}
	}
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

// displayEntries formats and displays history entries.
func displayEntries(cmd *cobra.Command, entries []history.HistoryEntry) {
	out := cmd.OutOrStdout()

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	for _, entry := range entries {
		timestamp := entry.Timestamp.Local().Format("2006-01-02 15:04:05")

		verdict := fmt.Sprintf("%-4s", entry.Verdict)
		if entry.Verdict == report.VerdictPass {
			verdict = green(verdict)
		} else {
			verdict = red(verdict)
		}

		revision := entry.Revision
		if revision == "" {
			revision = "-"
		}

		fmt.Fprintf(out, "%s  %-20s  %s  errors=%d warnings=%d  %s  %s\n",
			cyan(timestamp),
			entry.Module,
			verdict,
			entry.Errors,
			entry.Warnings,
			revision,
			entry.Duration,
		)
	}
}
