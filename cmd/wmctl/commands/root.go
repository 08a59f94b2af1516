// Package commands implements the wmctl CLI commands.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var (
	configFile      string
	outputFormat    string
	noColor         bool
	metricsAddr     string
	enableProfiling bool
	profileEndpoint string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "wmctl",
	Short: "A command-line client for a watchman-compatible file-watching service",
	Long: `wmctl speaks BSER over the service's Unix-domain socket to run
one-off commands against a locally running watchman-compatible
file-watching service: checking its version and capabilities,
resolving its socket path, and sending raw queries.

Use "wmctl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to config file (default: $XDG_CONFIG_HOME/wmctl/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: table, json, yaml")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "address to serve Prometheus metrics on, e.g. \":9090\" (default: disabled)")
	rootCmd.PersistentFlags().BoolVar(&enableProfiling, "profile", false, "enable Pyroscope continuous profiling")
	rootCmd.PersistentFlags().StringVar(&profileEndpoint, "profile-endpoint", "http://localhost:4040", "Pyroscope server URL")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(socknameCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(capabilitiesCmd)
	rootCmd.AddCommand(completionCmd)
}
