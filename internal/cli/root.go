package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rulesFile string

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "lifecyclectl",
	Short: "Inspect and exercise the case lifecycle transition engine",
	Long: `lifecyclectl works against the same rule tables the lifecycle engine
service runs on. It can validate a transition for a case snapshot, lint a
rules file before deploying it, and dump the full transition table for
documentation.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("lifecyclectl v1.0.0")
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rulesFile, "rules", "", "rules file (default: built-in rule tables)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(transitionsCmd)
}
