package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/ariel-frischer/modelverifier/internal/output"
	"github.com/ariel-frischer/modelverifier/internal/rules"
	"github.com/ariel-frischer/modelverifier/internal/verification"
	"github.com/spf13/cobra"
)

func newRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the rules the current profile evaluates",
		Long: `Print every rule that verify would evaluate with the current configuration
and flags, along with the severity it reports at.`,
		Example: `  modelverifier rules
  modelverifier rules --level strict
  modelverifier rules --disable handler-access`,
		GroupID: GroupVerification,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			profile, err := resolveProfile(cmd, cfg)
			if err != nil {
				return err
			}
			registry, err := applyProfile(profile, rules.BuiltinRules())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, rule := range registry.All() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", rule.ID, output.SeverityLabel(string(rule.Severity)), rule.Description)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d rule(s), %s\n", registry.Len(), describeProfile(profile))
			return nil
		},
	}
	cmd.Flags().StringP("level", "l", "", "Rule profile: basic | standard | strict (default from config)")
	cmd.Flags().StringSlice("disable", nil, "Rule ids to skip (repeatable, comma-separated)")
	return cmd
}

// describeProfile summarizes the level and the resolved feature toggles.
func describeProfile(profile verification.VerificationConfig) string {
	level := profile.Level
	if level == "" {
		level = verification.DefaultLevel
	}
	toggles := profile.GetEffectiveToggles()
	onOff := func(feature string) string {
		if toggles[feature] {
			return "on"
		}
		return "off"
	}
	return fmt.Sprintf("level %s (%s: %s, %s: %s)", level,
		verification.FeatureWarnings, onOff(verification.FeatureWarnings),
		verification.FeaturePromoteWarnings, onOff(verification.FeaturePromoteWarnings))
}
