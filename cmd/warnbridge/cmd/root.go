// Package cmd implements the warnbridge command-line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	version = "dev"
)

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "warnbridge",
	Short: "Route MQTT messages to notification services",
	Long: `warnbridge subscribes to MQTT topics, runs each message through a
configurable transform pipeline, and dispatches the result to one or
more notification services.

Exit Codes:
  0: Success
  1: Configuration error
  2: Runtime startup failure
`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version reported by "warnbridge version".
func SetVersion(v string) {
	version = v
}

func init() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(sampleConfigCmd)
	rootCmd.AddCommand(sampleHelpersCmd)
	rootCmd.AddCommand(pluginTestCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("warnbridge version " + version)
	},
}
