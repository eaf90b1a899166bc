package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lexshield/lifecycle-engine/internal/rules"
)

// rulesCmd groups rule-table commands.
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Work with rule configuration files",
}

// rulesLintCmd validates a rules file without starting the engine.
var rulesLintCmd = &cobra.Command{
	Use:   "lint <file>",
	Short: "Validate a rules file",
	Long: `Lint loads a YAML rules file through the same validation the engine
runs at startup. A clean exit means the file can be deployed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tables, err := rules.Load(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("ok: %d transition rules, %d case type rulesets\n",
			len(tables.Transitions.All()), len(tables.CaseTypes.CaseTypes()))
		return nil
	},
}

// transitionsCmd dumps the full transition table, as used for documentation.
var transitionsCmd = &cobra.Command{
	Use:   "transitions",
	Short: "Dump the full transition table",
	RunE: func(cmd *cobra.Command, args []string) error {
		tables, err := loadTables()
		if err != nil {
			return err
		}
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(tables.Transitions.All())
	},
}

func init() {
	rulesCmd.AddCommand(rulesLintCmd)
}
