package cli

import (
	"fmt"

	"github.com/ariel-frischer/modelverifier/internal/config"
	clierrors "github.com/ariel-frischer/modelverifier/internal/errors"
	"github.com/ariel-frischer/modelverifier/internal/git"
	"github.com/ariel-frischer/modelverifier/internal/history"
	"github.com/ariel-frischer/modelverifier/internal/rules"
	"github.com/ariel-frischer/modelverifier/internal/session"
	"github.com/ariel-frischer/modelverifier/internal/verification"
	"github.com/spf13/cobra"
)

// addProfileFlags registers the flags that shape the rule profile and engine.
func addProfileFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("workers", "w", 0, "Rules evaluated concurrently (default from config)")
	cmd.Flags().StringP("level", "l", "", "Rule profile: basic | standard | strict (default from config)")
	cmd.Flags().StringSlice("disable", nil, "Rule ids to skip (repeatable, comma-separated)")
}

// resolveProfile returns the configured rule profile overridden by flags.
func resolveProfile(cmd *cobra.Command, cfg *config.Configuration) (verification.VerificationConfig, error) {
	profile := cfg.Verification
	if level, _ := cmd.Flags().GetString("level"); level != "" {
		parsed, err := verification.ParseVerificationLevel(level)
		if err != nil {
			return profile, clierrors.InvalidFlagValue("level", level, levelNames())
		}
		profile.Level = parsed
	}
	if disabled, _ := cmd.Flags().GetStringSlice("disable"); len(disabled) > 0 {
		profile.Disabled = append(append([]string(nil), profile.Disabled...), disabled...)
	}
	return profile, nil
}

// resolveRegistry applies the configured profile, overridden by flags, to the
// built-in rules.
func resolveRegistry(cmd *cobra.Command, cfg *config.Configuration) (*rules.Registry, error) {
	profile, err := resolveProfile(cmd, cfg)
	if err != nil {
		return nil, err
	}
	return applyProfile(profile, rules.BuiltinRules())
}

// applyProfile registers catalog and resolves profile against it.
func applyProfile(profile verification.VerificationConfig, catalog []rules.Rule) (*rules.Registry, error) {
	registry := rules.NewRegistry()
	for _, rule := range catalog {
		if err := registry.Register(rule); err != nil {
			return nil, clierrors.DuplicateRule(err)
		}
	}

	resolved, err := profile.Apply(registry)
	if err != nil {
		return nil, clierrors.UnknownRules(err)
	}
	return resolved, nil
}

func levelNames() []string {
	names := make([]string, 0, len(verification.ValidLevels))
	for _, l := range verification.ValidLevels {
		names = append(names, string(l))
	}
	return names
}

// newSession builds a verification session from configuration and flags.
func newSession(cmd *cobra.Command, cfg *config.Configuration) (*session.Session, error) {
	registry, err := resolveRegistry(cmd, cfg)
	if err != nil {
		return nil, err
	}

	workers := cfg.Workers
	if n, _ := cmd.Flags().GetInt("workers"); n != 0 {
		if n < 0 {
			return nil, clierrors.NewArgumentError(
				fmt.Sprintf("--workers must be positive, got %d", n),
			)
		}
		workers = n
	}

	opts := []session.Option{
		session.WithWorkers(workers),
		session.WithRevisionResolver(git.HeadRevision),
	}
	if logger := debugFrom(cmd); logger != nil {
		opts = append(opts, session.WithDebugLogger(logger))
	}
	return session.New(registry, opts...), nil
}

// openHistory opens the configured history store. Recording is best effort:
// a store that cannot be opened is reported as a warning and nil is returned.
func openHistory(cmd *cobra.Command, cfg *config.Configuration) history.Store {
	if !cfg.History.Enabled {
		return nil
	}
	if noHistory, _ := cmd.Flags().GetBool("no-history"); noHistory {
		return nil
	}
	store, err := history.Open(history.Backend(cfg.History.Backend), cfg.StateDir, cfg.History.MaxEntries)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: history disabled: %v\n", err)
		return nil
	}
	return store
}
