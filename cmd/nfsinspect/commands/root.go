// Package commands implements the nfsinspect CLI.
package commands

import (
	"fmt"

	"github.com/marmos91/nfsinspect/internal/cli/output"
	"github.com/marmos91/nfsinspect/internal/logger"
	"github.com/marmos91/nfsinspect/pkg/config"
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile      string
	outputFormat string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "nfsinspect",
	Short: "nfsinspect - NFSv3 traffic decoder",
	Long: `nfsinspect decodes NFSv3 calls and replies from captured NFS-over-TCP
byte streams. It reassembles RPC records, pairs replies with their calls,
and can persist READ/WRITE payloads to a file store for later inspection.

Use "nfsinspect [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/nfsinspect/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format: table, json, yaml (default from config)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(proceduresCmd)
	rootCmd.AddCommand(chunksCmd)
	rootCmd.AddCommand(configCmd)
}

// PrintErr prints an error message to stderr.
func PrintErr(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
}

// loadConfig loads the configuration and initializes the logger from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

// newPrinter picks the --output flag over the configured format.
func newPrinter(cmd *cobra.Command, cfg *config.Config) (*output.Printer, error) {
	name := outputFormat
	if name == "" && cfg != nil {
		name = cfg.Output.Format
	}
	format, err := output.ParseFormat(name)
	if err != nil {
		return nil, err
	}
	return output.NewPrinter(cmd.OutOrStdout(), format), nil
}
