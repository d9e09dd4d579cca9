package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/ariel-frischer/modelverifier/internal/config"
	clierrors "github.com/ariel-frischer/modelverifier/internal/errors"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage modelverifier configuration",
		Long: `Manage modelverifier configuration settings.

Configuration is loaded with the following priority (highest to lowest):
  1. Environment variables (MODELVERIFIER_*)
  2. Project config (.modelverifier/config.yml)
  3. User config (~/.config/modelverifier/config.yml)
  4. Built-in defaults`,
		Example: `  # Show the effective configuration
  modelverifier config show

  # Create a commented project config
  modelverifier config init --project

  # Set a configuration value
  modelverifier config set verification.level strict`,
		GroupID: GroupConfiguration,
	}
	cmd.AddCommand(
		newConfigShowCmd(),
		newConfigInitCmd(),
		newConfigSetCmd(),
		newConfigKeysCmd(),
		newConfigMigrateCmd(),
	)
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [key]",
		Short: "Show the effective configuration or a single key",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConfigShow,
	}
	cmd.Flags().Bool("json", false, "Output in JSON format")
	return cmd
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	asJSON, _ := cmd.Flags().GetBool("json")
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		value, err := cfg.Lookup(args[0])
		if err != nil {
			return clierrors.NewArgumentError(err.Error(), "List valid keys: modelverifier config keys")
		}
		if _, section := value.(map[string]interface{}); !section && !asJSON {
			fmt.Fprintln(out, value)
			return nil
		}
		return printConfigValue(out, value, asJSON)
	}

	if !asJSON {
		projectPath, _ := cmd.Flags().GetString("config")
		bold := color.New(color.Bold).SprintFunc()
		fmt.Fprintln(out, bold("Configuration Sources:"))
		for _, source := range config.Sources(projectPath) {
			fmt.Fprintf(out, "  %s\n", source)
		}
		fmt.Fprintln(out)
	}
	return printConfigValue(out, cfg.ToMap(), asJSON)
}

func printConfigValue(out io.Writer, value interface{}, asJSON bool) error {
	if asJSON {
		data, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling config to JSON: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}
	data, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshaling config to YAML: %w", err)
	}
	fmt.Fprint(out, string(data))
	return nil
}

func newConfigInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			project, _ := cmd.Flags().GetBool("project")
			force, _ := cmd.Flags().GetBool("force")
			configPath, err := configTargetPath(cmd, project)
			if err != nil {
				return err
			}
			return initializeConfig(cmd.OutOrStdout(), configPath, force)
		},
	}
	cmd.Flags().Bool("project", false, "Write the project config instead of the user config")
	cmd.Flags().Bool("force", false, "Overwrite an existing config file")
	return cmd
}

// configTargetPath returns --config when given, otherwise the project or user path.
func configTargetPath(cmd *cobra.Command, project bool) (string, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return path, nil
	}
	if project {
		return config.ProjectConfigPath(), nil
	}
	configPath, err := config.UserConfigPath()
	if err != nil {
		return "", fmt.Errorf("failed to get user config path: %w", err)
	}
	return configPath, nil
}

// initializeConfig writes the default template, refusing to overwrite unless forced.
func initializeConfig(out io.Writer, configPath string, force bool) error {
	_, statErr := os.Stat(configPath)
	configExists := statErr == nil
	if configExists && !force {
		return clierrors.ConfigFileExists(configPath)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return clierrors.FileNotWritable(configPath, err)
	}
	if err := os.WriteFile(configPath, []byte(config.GetDefaultConfigTemplate()), 0o644); err != nil {
		return clierrors.FileNotWritable(configPath, err)
	}

	green := color.New(color.FgGreen).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	action := "created"
	if configExists {
		action = "overwritten"
	}
	fmt.Fprintf(out, "%s Config: %s at %s\n", green("✓"), action, dim(configPath))
	return nil
}

func newConfigSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value, keeping comments",
		Long: `Set a known configuration key in the project config, or in the user config
with --user. The value is checked against the key's type before the file is
written. See 'modelverifier config keys' for the known keys.`,
		Example: `  modelverifier config set verification.level strict
  modelverifier config set history.backend sqlite --user
  modelverifier config set watch.debounce 1s`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, _ := cmd.Flags().GetBool("user")
			configPath, err := configTargetPath(cmd, !user)
			if err != nil {
				return err
			}
			if err := config.SetConfigValue(configPath, args[0], args[1]); err != nil {
				return clierrors.NewConfigError(err.Error(), "List valid keys: modelverifier config keys")
			}
			green := color.New(color.FgGreen).SprintFunc()
			fmt.Fprintf(cmd.OutOrStdout(), "%s Set %s = %s in %s\n", green("✓"), args[0], args[1], configPath)
			return nil
		},
	}
	cmd.Flags().Bool("user", false, "Write the user config instead of the project config")
	return cmd
}

func newConfigKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List the keys accepted by config set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, key := range config.SortedKeys() {
				schema := config.KnownKeys[key]
				typeName := schema.Type.String()
				if len(schema.AllowedValues) > 0 {
					typeName = fmt.Sprintf("%s%v", typeName, schema.AllowedValues)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", key, typeName, schema.Description)
			}
			return tw.Flush()
		},
	}
}

func newConfigMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Convert a legacy config.json to config.yml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			project, _ := cmd.Flags().GetBool("project")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			scope := config.ScopeUser
			if project {
				scope = config.ScopeProject
			}
			result, err := config.Migrate(scope, dryRun)
			if err != nil {
				return clierrors.NewConfigError(fmt.Sprintf("migrating %s config: %v", scope, err))
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Message)
			return nil
		},
	}
	cmd.Flags().Bool("user", false, "Migrate the user config (default)")
	cmd.Flags().Bool("project", false, "Migrate the project config")
	cmd.Flags().Bool("dry-run", false, "Show what would change without writing")
	cmd.MarkFlagsMutuallyExclusive("user", "project")
	return cmd
}
