package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *CaseTypeRuleRegistry {
	t.Helper()
	registry, err := NewCaseTypeRuleRegistry(DefaultCaseTypeRules())
	require.NoError(t, err)
	return registry
}

func TestCaseTypeRuleRegistry_RulesFor(t *testing.T) {
	registry := newTestRegistry(t)

	t.Run("Known Case Type", func(t *testing.T) {
		rule, err := registry.RulesFor(CaseTypeLaborDispute)
		require.NoError(t, err)
		assert.Equal(t, CaseTypeLaborDispute, rule.CaseType)
		assert.Equal(t, []string{"employerInformation"}, rule.RequiredFields)
	})

	t.Run("Unknown Case Type", func(t *testing.T) {
		_, err := registry.RulesFor(CaseType("maritime"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownCaseType)
	})

	t.Run("All Default Case Types Registered", func(t *testing.T) {
		for _, caseType := range CaseTypes() {
			_, err := registry.RulesFor(caseType)
			assert.NoError(t, err, "case type %s should have a ruleset", caseType)
		}
	})
}

func TestCaseTypeRuleRegistry_RequirementsFor(t *testing.T) {
	registry := newTestRegistry(t)

	t.Run("Generic Fields First Then Phase Additions", func(t *testing.T) {
		fields := registry.RequirementsFor(CaseTypeLaborDispute, PhasePreProceedingPreparation)
		assert.Equal(t, []string{"employerInformation", "employmentContract", "terminationNotice"}, fields)
	})

	t.Run("No Phase Rule Yields Generic Only", func(t *testing.T) {
		fields := registry.RequirementsFor(CaseTypeDivorceFamily, PhaseClosureReviewArchiving)
		assert.Equal(t, []string{"marriageCertificate"}, fields)
	})

	t.Run("Empty For Case Type Without Requirements", func(t *testing.T) {
		assert.Empty(t, registry.RequirementsFor(CaseTypeSpecialMatters, PhaseFormalProceedings))
	})

	t.Run("Unknown Case Type Yields Empty", func(t *testing.T) {
		assert.Empty(t, registry.RequirementsFor(CaseType("maritime"), PhaseFormalProceedings))
	})

	t.Run("No Duplicates Deterministic Order", func(t *testing.T) {
		for _, caseType := range CaseTypes() {
			for _, phase := range Phases() {
				fields := registry.RequirementsFor(caseType, phase)
				seen := make(map[string]struct{}, len(fields))
				for _, field := range fields {
					_, dup := seen[field]
					assert.False(t, dup, "duplicate field %s for (%s, %s)", field, caseType, phase)
					seen[field] = struct{}{}
				}
				again := registry.RequirementsFor(caseType, phase)
				assert.Equal(t, fields, again, "ordering must be stable for (%s, %s)", caseType, phase)
			}
		}
	})
}

func TestCaseTypeRuleRegistry_DocumentRequirementsFor(t *testing.T) {
	registry := newTestRegistry(t)

	docs := registry.DocumentRequirementsFor(CaseTypeCriminalDefense, PhasePreProceedingPreparation)
	require.Len(t, docs, 1)
	assert.Equal(t, "power_of_attorney", docs[0].DocumentType)
	assert.True(t, docs[0].Required)

	assert.Empty(t, registry.DocumentRequirementsFor(CaseTypeCriminalDefense, PhaseResolutionPostProceeding))
	assert.Empty(t, registry.DocumentRequirementsFor(CaseTypeSpecialMatters, PhasePreProceedingPreparation))
}

func TestCaseTypeRuleRegistry_TimelineConstraintFor(t *testing.T) {
	registry := newTestRegistry(t)

	constraint, ok := registry.TimelineConstraintFor(CaseTypeCriminalDefense, PhaseIntakeRiskAssessment)
	require.True(t, ok)
	assert.Equal(t, 7, constraint.MaxDurationDays)

	_, ok = registry.TimelineConstraintFor(CaseTypeCriminalDefense, PhaseResolutionPostProceeding)
	assert.False(t, ok)
}

func TestCaseTypeRuleRegistry_Validation(t *testing.T) {
	t.Run("Rejects Unknown Case Type", func(t *testing.T) {
		_, err := NewCaseTypeRuleRegistry([]CaseTypeRule{{CaseType: "maritime"}})
		require.Error(t, err)
	})

	t.Run("Rejects Unknown Phase In Phase Rule", func(t *testing.T) {
		_, err := NewCaseTypeRuleRegistry([]CaseTypeRule{{
			CaseType:   CaseTypeLaborDispute,
			PhaseRules: []PhaseRule{{Phase: "arbitration"}},
		}})
		require.Error(t, err)
	})

	t.Run("Rejects Malformed Condition", func(t *testing.T) {
		_, err := NewCaseTypeRuleRegistry([]CaseTypeRule{{
			CaseType: CaseTypeLaborDispute,
			PhaseRules: []PhaseRule{{
				Phase:      PhaseFormalProceedings,
				Conditions: []Condition{{Field: "", Operator: OperatorExists}},
			}},
		}})
		require.Error(t, err)
	})

	t.Run("Rejects Non-Positive Timeline", func(t *testing.T) {
		_, err := NewCaseTypeRuleRegistry([]CaseTypeRule{{
			CaseType:            CaseTypeLaborDispute,
			TimelineConstraints: []TimelineConstraint{{Phase: PhaseIntakeRiskAssessment, MaxDurationDays: 0}},
		}})
		require.Error(t, err)
	})

	t.Run("Rejects Duplicate Case Type", func(t *testing.T) {
		_, err := NewCaseTypeRuleRegistry([]CaseTypeRule{
			{CaseType: CaseTypeLaborDispute},
			{CaseType: CaseTypeLaborDispute},
		})
		require.Error(t, err)
	})
}

func TestCaseTypeRuleRegistry_Accessors(t *testing.T) {
	registry := newTestRegistry(t)

	assert.Equal(t, []string{"hourly", "flat"}, registry.FeeStructuresFor(CaseTypeCriminalDefense))
	assert.Equal(t,
		[]string{"Mediation should be attempted before formal proceedings"},
		registry.RecommendationsFor(CaseTypeDivorceFamily, PhaseFormalProceedings))
	assert.Empty(t, registry.RecommendationsFor(CaseTypeDivorceFamily, PhaseIntakeRiskAssessment))
	assert.Len(t, registry.CaseTypes(), len(CaseTypes()))
}
