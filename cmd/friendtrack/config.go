package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"friendtrack/pkg/config"
	"friendtrack/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and create configuration files",
}

// configShowCmd prints the effective configuration after all sources merge
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// Never print the cookie itself
		if cfg.Roblox.Cookie != "" {
			cfg.Roblox.Cookie = "(set)"
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to render config: %w", err)
		}
		fmt.Print(string(data))
		return nil
	},
}

// configInitCmd writes a default config file
var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default configuration file",
	Long: `Write a configuration file populated with defaults. The default path is
.friendtrack.yaml in the current directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		term := ui.NewTerminal(quiet, noColor)

		path := ".friendtrack.yaml"
		if len(args) > 0 {
			path = args[0]
		}

		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists: %s", path)
		}

		if err := config.DefaultConfig().Save(path); err != nil {
			return err
		}

		term.Success("Config written to %s", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
