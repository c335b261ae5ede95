package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zipwarden/zipwarden/internal/branding"
)

func init() {
	configCmd.AddCommand(configGetCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the resolved configuration",
	Long: `Prints every setting after defaults, the .env file and environment
variables have been applied. Keys are the .env names in lower case; the
second column is the environment variable that overrides each one.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, s := range cfg.Settings() {
			fmt.Fprintf(out, "%-20s %-30s %s\n", s.Key, branding.EnvVar(s.Key), s.Value)
		}
		if cfg.EnvFile != "" {
			fmt.Fprintf(out, "\n(overrides from %s)\n", cfg.EnvFile)
		}
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one resolved setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		v, ok := cfg.Get(args[0])
		if !ok {
			return fmt.Errorf("unknown key %q", args[0])
		}
		fmt.Fprintln(cmd.OutOrStdout(), v)
		return nil
	},
}
