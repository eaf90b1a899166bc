package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lexshield/lifecycle-engine/internal/lifecycle"
	"github.com/lexshield/lifecycle-engine/internal/rules"
)

var (
	validateFrom     string
	validateTo       string
	validateCaseType string
	validateRole     string
	validateMetadata string
)

// validateCmd runs a one-shot transition decision from the command line.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a phase transition for a case snapshot",
	Long: `Validate runs the transition decision for a case snapshot built from
flags. Metadata is supplied as a JSON object. The command exits non-zero when
the transition is rejected, so it can gate scripted workflows.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tables, err := loadTables()
		if err != nil {
			return err
		}

		from, err := lifecycle.ParsePhase(validateFrom)
		if err != nil {
			return err
		}
		to, err := lifecycle.ParsePhase(validateTo)
		if err != nil {
			return err
		}
		caseType, err := lifecycle.ParseCaseType(validateCaseType)
		if err != nil {
			return err
		}
		role, err := lifecycle.ParseRole(validateRole)
		if err != nil {
			return err
		}

		metadata := map[string]interface{}{}
		if validateMetadata != "" {
			if err := json.Unmarshal([]byte(validateMetadata), &metadata); err != nil {
				return fmt.Errorf("failed to parse metadata JSON: %w", err)
			}
		}

		validator := lifecycle.NewTransitionValidator(tables.Transitions, tables.CaseTypes)
		result := validator.Validate(lifecycle.CaseState{
			Phase:    from,
			Status:   lifecycle.StatusActive,
			CaseType: caseType,
			Metadata: metadata,
		}, to, role, nil)

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			return err
		}

		if !result.IsValid {
			os.Exit(1)
		}
		return nil
	},
}

func loadTables() (*rules.Tables, error) {
	if rulesFile != "" {
		return rules.Load(rulesFile)
	}
	return rules.Default()
}

func init() {
	validateCmd.Flags().StringVar(&validateFrom, "from", "", "current phase")
	validateCmd.Flags().StringVar(&validateTo, "to", "", "target phase")
	validateCmd.Flags().StringVar(&validateCaseType, "case-type", "", "legal case category")
	validateCmd.Flags().StringVar(&validateRole, "role", "", "actor role")
	validateCmd.Flags().StringVar(&validateMetadata, "metadata", "", "case metadata as a JSON object")

	_ = validateCmd.MarkFlagRequired("from")
	_ = validateCmd.MarkFlagRequired("to")
	_ = validateCmd.MarkFlagRequired("case-type")
	_ = validateCmd.MarkFlagRequired("role")
}
