package commands

import (
	"fmt"

	"github.com/marmos91/nfsinspect/pkg/config"
	"github.com/spf13/cobra"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the nfsinspect configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with default values",
	Long: `Write a configuration file with default values.

Without --config the file is written to the default location
($XDG_CONFIG_HOME/nfsinspect/config.yaml).`,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration file for errors",
	RunE:  runConfigValidate,
}

func init() {
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "overwrite an existing configuration file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		var err error
		if path, err = config.InitConfig(configForce); err != nil {
			return err
		}
	} else if err := config.InitConfigToPath(path, configForce); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	printer, err := newPrinter(cmd, cfg)
	if err != nil {
		return err
	}
	if outputFormat == "" {
		// Tables do not fit a nested document.
		data, err := config.GenerateYAMLWithComments(cfg)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	return printer.Print(cfg)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if _, err := config.Load(cfgFile); err != nil {
		return err
	}

	path := cfgFile
	if path == "" {
		path = config.GetDefaultConfigPath()
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Configuration is valid (%s)\n", path)
	return nil
}
