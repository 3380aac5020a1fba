package cmd

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/cachebox/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the cachebox configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented default config to .cachebox/config.yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ".cachebox/config.yaml"
		if cfgFile != "" {
			path = cfgFile
		}
		if err := config.WriteDefaultConfig(path); err != nil {
			return err
		}
		cmd.Printf("wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		cmd.Print(string(out))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}
