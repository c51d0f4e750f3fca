package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string
)

// Global flags shared by every subcommand.
var (
	flagConfigPath string
	flagServerURL  string
	flagPushURL    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "openfloor",
	Short: "Openfloor - live Q&A session client",
	Long: `Openfloor is the command-line client for an openfloor Q&A service.

Questions and answers are kept in a local snapshot that converges with
the service through an initial pull and a live push stream, so every
connected client sees the same floor within moments of any change.`,
	Version: version,
	// Prevent silent success when unknown flags are passed to root command
	// e.g., "openfloor --message hi" instead of "openfloor ask --message hi"
	RunE: func(cmd *cobra.Command, args []string) error {
		// If no subcommand is specified, show help
		return cmd.Help()
	},
	// Enable strict flag parsing - unknown flags will cause an error
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// Silence Cobra's default error and usage printing
	// We print formatted colored errors directly in the printer package
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "Path to openfloor.yml (default: ./openfloor.yml, then $OPENFLOOR_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&flagServerURL, "server", "s", "", "Service base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagPushURL, "push-url", "", "Push endpoint URL (default: derived from server URL)")
}
