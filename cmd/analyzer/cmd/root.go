// Package cmd provides the CLI commands for log-analyzer.
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "log-analyzer",
	Short: "Single-pass web server log analyzer",
	Long: `log-analyzer reads web server logs of the form

  TIMESTAMP [LEVEL] IP METHOD ENDPOINT STATUS

in one streaming pass and reports:
  - log level breakdown and HTTP status distribution
  - the busiest IP addresses and endpoints
  - IPs whose ERROR count exceeds a threshold

Diagnostics are written to stderr; the report goes to stdout.`,
	Version:      "1.0.0",
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.log-analyzer.yaml or $HOME/.log-analyzer.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug diagnostics")

	rootCmd.AddCommand(setupAnalyzeCmd())
	rootCmd.AddCommand(setupShowCmd())
}
