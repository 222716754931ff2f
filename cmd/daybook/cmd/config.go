package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/daybook/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	Long: `Create a new configuration file with default settings.

Example:
  daybook config init --output daybook.yaml`,
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Check that a configuration file parses and is usable.

Example:
  daybook config validate --config daybook.yaml`,
	RunE: runConfigValidate,
}

var (
	configOutputPath string
	configCheckPath  string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configValidateCmd)

	configInitCmd.Flags().StringVarP(&configOutputPath, "output", "o", "daybook.yaml", "where to write the config file")
	configValidateCmd.Flags().StringVarP(&configCheckPath, "config", "c", "daybook.yaml", "config file to validate")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if err := config.Default().SaveToFile(configOutputPath); err != nil {
		return err
	}
	fmt.Printf("wrote default config to %s\n", configOutputPath)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if _, err := config.LoadFromFile(configCheckPath); err != nil {
		return err
	}
	fmt.Printf("%s is valid\n", configCheckPath)
	return nil
}
