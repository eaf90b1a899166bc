package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestValidator(t *testing.T, opts ...Option) *TransitionValidator {
	t.Helper()
	table, err := NewPhaseTransitionTable(DefaultTransitionRules())
	require.NoError(t, err)
	registry, err := NewCaseTypeRuleRegistry(DefaultCaseTypeRules())
	require.NoError(t, err)
	return NewTransitionValidator(table, registry, opts...)
}

func contractIntakeState(metadata map[string]interface{}) CaseState {
	return CaseState{
		Phase:    PhaseIntakeRiskAssessment,
		Status:   StatusActive,
		CaseType: CaseTypeContractDispute,
		Metadata: metadata,
	}
}

func TestValidate_ContractDisputeIntakeToPreparation(t *testing.T) {
	validator := newTestValidator(t)

	t.Run("Complete Metadata Passes", func(t *testing.T) {
		state := contractIntakeState(map[string]interface{}{
			"riskAssessmentCompleted": true,
			"clientInformation":       "x",
			"caseDescription":         "x",
			"initialEvidence":         "x",
		})

		result := validator.Validate(state, PhasePreProceedingPreparation, RoleAttorney, nil)
		assert.True(t, result.IsValid)
		assert.Empty(t, result.Errors)
	})

	t.Run("Missing Fields Reported In Declaration Order", func(t *testing.T) {
		state := contractIntakeState(map[string]interface{}{
			"riskAssessmentCompleted": true,
		})

		result := validator.Validate(state, PhasePreProceedingPreparation, RoleAttorney, nil)
		assert.False(t, result.IsValid)
		assert.Equal(t,
			[]string{"Missing required fields: clientInformation, caseDescription, initialEvidence"},
			result.Errors)
	})
}

func TestValidate_CriminalDefensePhaseAdditions(t *testing.T) {
	validator := newTestValidator(t)

	state := CaseState{
		Phase:    PhaseIntakeRiskAssessment,
		Status:   StatusActive,
		CaseType: CaseTypeCriminalDefense,
		Metadata: map[string]interface{}{
			"riskAssessmentCompleted": true,
			"clientInformation":       "x",
			"caseDescription":         "x",
			"initialEvidence":         "x",
		},
	}

	result := validator.Validate(state, PhasePreProceedingPreparation, RoleAttorney, nil)
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors,
		"Missing required fields: bailHearingScheduled, evidenceSecured, witnessStatements")
}

func TestValidate_TerminalPhaseHasNoExit(t *testing.T) {
	validator := newTestValidator(t)

	state := CaseState{
		Phase:    PhaseClosureReviewArchiving,
		CaseType: CaseTypeContractDispute,
		Metadata: map[string]interface{}{"caseRejected": true},
	}

	for _, target := range Phases() {
		for _, role := range []Role{RoleAdmin, RoleAttorney, RoleParalegal, RoleClient} {
			result := validator.Validate(state, target, role, nil)
			assert.False(t, result.IsValid, "terminal phase must not exit to %s as %s", target, role)
			require.NotEmpty(t, result.Errors)
			assert.Contains(t, result.Errors[0], "Invalid transition from closure_review_archiving")
		}
	}
}

func TestValidate_WildcardRejectionPath(t *testing.T) {
	validator := newTestValidator(t)

	t.Run("Rejected Case Archives From Any Non-Terminal Phase", func(t *testing.T) {
		for _, phase := range Phases() {
			if phase.Terminal() {
				continue
			}
			state := CaseState{
				Phase:    phase,
				CaseType: CaseTypeContractDispute,
				Metadata: map[string]interface{}{"caseRejected": true},
			}
			result := validator.Validate(state, PhaseClosureReviewArchiving, RoleAttorney, nil)
			assert.True(t, result.IsValid, "rejection from %s should pass with no other metadata", phase)
			assert.Empty(t, result.Errors)
		}
	})

	t.Run("Takes Priority Over Normal Closure Requirements", func(t *testing.T) {
		// Resolution -> Closure normally requires three fields; a rejected
		// case bypasses them.
		state := CaseState{
			Phase:    PhaseResolutionPostProceeding,
			CaseType: CaseTypeContractDispute,
			Metadata: map[string]interface{}{"caseRejected": true},
		}
		result := validator.Validate(state, PhaseClosureReviewArchiving, RoleAdmin, nil)
		assert.True(t, result.IsValid)
	})

	t.Run("Still Requires Role Authorization", func(t *testing.T) {
		state := contractIntakeState(map[string]interface{}{"caseRejected": true})
		result := validator.Validate(state, PhaseClosureReviewArchiving, RoleClient, nil)
		assert.False(t, result.IsValid)
		assert.Contains(t, result.Errors, "Insufficient permissions for transition")
	})

	t.Run("Unsatisfied Guard Falls Back To Invalid Transition", func(t *testing.T) {
		state := contractIntakeState(map[string]interface{}{"caseRejected": false})
		result := validator.Validate(state, PhaseClosureReviewArchiving, RoleAttorney, nil)
		assert.False(t, result.IsValid)
		assert.Contains(t, result.Errors,
			"Invalid transition from intake_risk_assessment to closure_review_archiving")
	})
}

func TestValidate_BackwardAndSkipMovesRejected(t *testing.T) {
	validator := newTestValidator(t)

	fullMetadata := map[string]interface{}{
		"riskAssessmentCompleted": true,
		"clientInformation":       "x",
		"caseDescription":         "x",
		"initialEvidence":         "x",
	}

	tests := []struct {
		name string
		from Phase
		to   Phase
	}{
		{"backward", PhaseFormalProceedings, PhasePreProceedingPreparation},
		{"same phase", PhaseIntakeRiskAssessment, PhaseIntakeRiskAssessment},
		{"skip forward", PhaseIntakeRiskAssessment, PhaseFormalProceedings},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := CaseState{Phase: tt.from, CaseType: CaseTypeContractDispute, Metadata: fullMetadata}
			result := validator.Validate(state, tt.to, RoleAdmin, nil)
			assert.False(t, result.IsValid)
			require.Len(t, result.Errors, 1)
			assert.Contains(t, result.Errors[0], "Invalid transition")
		})
	}
}

func TestValidate_RolePolicy(t *testing.T) {
	validator := newTestValidator(t)

	state := contractIntakeState(map[string]interface{}{
		"riskAssessmentCompleted": true,
		"clientInformation":       "x",
		"caseDescription":         "x",
		"initialEvidence":         "x",
	})

	t.Run("Client And Paralegal Never Pass", func(t *testing.T) {
		for _, role := range []Role{RoleClient, RoleParalegal} {
			result := validator.Validate(state, PhasePreProceedingPreparation, role, nil)
			assert.False(t, result.IsValid, "role %s must not execute transitions", role)
			assert.Contains(t, result.Errors, "Insufficient permissions for transition")
		}
	})

	t.Run("Admin And Attorney Pass", func(t *testing.T) {
		for _, role := range []Role{RoleAdmin, RoleAttorney} {
			result := validator.Validate(state, PhasePreProceedingPreparation, role, nil)
			assert.True(t, result.IsValid, "role %s should execute transitions", role)
		}
	})
}

func TestValidate_ErrorsAccumulate(t *testing.T) {
	validator := newTestValidator(t)

	// Missing fields, a failed generic condition and missing permissions in
	// one request: all three error kinds must surface in a single call.
	state := contractIntakeState(map[string]interface{}{
		"riskAssessmentCompleted": false,
		"clientInformation":       "x",
	})

	result := validator.Validate(state, PhasePreProceedingPreparation, RoleClient, nil)
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors, "Insufficient permissions for transition")
	assert.Contains(t, result.Errors, "Missing required fields: caseDescription, initialEvidence")
	assert.Contains(t, result.Errors, "Condition failed: riskAssessmentCompleted equals true")
}

func TestValidate_ConditionalRequirement(t *testing.T) {
	validator := newTestValidator(t)

	base := map[string]interface{}{
		"marriageCertificate":   "x",
		"preparationPlan":       "x",
		"courtFilings":          "x",
		"clientAgreementSigned": "x",
		"filingDeadlineMet":     true,
	}

	t.Run("Guard True Without Required Field Fails", func(t *testing.T) {
		metadata := cloneMetadata(base)
		metadata["childrenInvolved"] = true

		state := CaseState{Phase: PhasePreProceedingPreparation, CaseType: CaseTypeDivorceFamily, Metadata: metadata}
		result := validator.Validate(state, PhaseFormalProceedings, RoleAttorney, nil)
		assert.False(t, result.IsValid)
		assert.Contains(t, result.Errors,
			"Conditional requirement not met: custodyProposal is required when childrenInvolved equals true")
	})

	t.Run("Guard True With Required Field Passes", func(t *testing.T) {
		metadata := cloneMetadata(base)
		metadata["childrenInvolved"] = true
		metadata["custodyProposal"] = "joint custody"

		state := CaseState{Phase: PhasePreProceedingPreparation, CaseType: CaseTypeDivorceFamily, Metadata: metadata}
		result := validator.Validate(state, PhaseFormalProceedings, RoleAttorney, nil)
		assert.True(t, result.IsValid)
	})

	t.Run("Guard False Passes", func(t *testing.T) {
		metadata := cloneMetadata(base)
		metadata["childrenInvolved"] = false

		state := CaseState{Phase: PhasePreProceedingPreparation, CaseType: CaseTypeDivorceFamily, Metadata: metadata}
		result := validator.Validate(state, PhaseFormalProceedings, RoleAttorney, nil)
		assert.True(t, result.IsValid)
	})
}

func TestValidate_UnknownCaseType(t *testing.T) {
	validator := newTestValidator(t)

	state := CaseState{
		Phase:    PhaseIntakeRiskAssessment,
		CaseType: CaseType("maritime"),
		Metadata: map[string]interface{}{
			"riskAssessmentCompleted": true,
			"clientInformation":       "x",
			"caseDescription":         "x",
			"initialEvidence":         "x",
		},
	}

	result := validator.Validate(state, PhasePreProceedingPreparation, RoleAttorney, nil)
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors, "Unknown case type: maritime")
}

func TestValidate_TimelineWarning(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	validator := newTestValidator(t, WithClock(func() time.Time { return now }))

	baseMetadata := func(start time.Time) map[string]interface{} {
		return map[string]interface{}{
			"riskAssessmentCompleted": true,
			"clientInformation":       "x",
			"caseDescription":         "x",
			"initialEvidence":         "x",
			"bailHearingScheduled":    true,
			"evidenceSecured":         true,
			"witnessStatements":       "x",
			"phaseStartDate":          start.Format(time.RFC3339),
		}
	}

	t.Run("Overrun Warns But Does Not Block", func(t *testing.T) {
		// Criminal defense intake is capped at 7 days.
		state := CaseState{
			Phase:    PhaseIntakeRiskAssessment,
			CaseType: CaseTypeCriminalDefense,
			Metadata: baseMetadata(now.AddDate(0, 0, -10)),
		}
		result := validator.Validate(state, PhasePreProceedingPreparation, RoleAttorney, nil)
		assert.True(t, result.IsValid, "timeline overruns never block")
		assert.Contains(t, result.Warnings,
			"Phase intake_risk_assessment exceeded maximum duration of 7 days")
	})

	t.Run("Within Limit No Warning", func(t *testing.T) {
		state := CaseState{
			Phase:    PhaseIntakeRiskAssessment,
			CaseType: CaseTypeCriminalDefense,
			Metadata: baseMetadata(now.AddDate(0, 0, -3)),
		}
		result := validator.Validate(state, PhasePreProceedingPreparation, RoleAttorney, nil)
		assert.Empty(t, result.Warnings)
	})

	t.Run("Absent Start Date Skips Check", func(t *testing.T) {
		metadata := baseMetadata(now)
		delete(metadata, "phaseStartDate")
		state := CaseState{
			Phase:    PhaseIntakeRiskAssessment,
			CaseType: CaseTypeCriminalDefense,
			Metadata: metadata,
		}
		result := validator.Validate(state, PhasePreProceedingPreparation, RoleAttorney, nil)
		assert.Empty(t, result.Warnings)
	})
}

func TestValidate_DocumentWarnings(t *testing.T) {
	validator := newTestValidator(t)

	base := map[string]interface{}{
		"preparationPlan":       "x",
		"courtFilings":          "x",
		"clientAgreementSigned": "x",
		"filingDeadlineMet":     true,
		"contractDocument":      "x",
		"breachEvidence":        "x",
	}

	t.Run("Missing Required Document Warns", func(t *testing.T) {
		metadata := cloneMetadata(base)
		metadata["documents"] = []interface{}{
			map[string]interface{}{"type": "court_filing"},
		}
		state := CaseState{Phase: PhasePreProceedingPreparation, CaseType: CaseTypeContractDispute, Metadata: metadata}
		result := validator.Validate(state, PhaseFormalProceedings, RoleAttorney, nil)
		assert.True(t, result.IsValid, "document gaps are advisory")
		assert.Contains(t, result.Warnings, "Missing required documents: contract_document")
	})

	t.Run("Attached Document Satisfies Requirement", func(t *testing.T) {
		metadata := cloneMetadata(base)
		metadata["documents"] = []interface{}{
			map[string]interface{}{"type": "contract_document"},
		}
		state := CaseState{Phase: PhasePreProceedingPreparation, CaseType: CaseTypeContractDispute, Metadata: metadata}
		result := validator.Validate(state, PhaseFormalProceedings, RoleAttorney, nil)
		assert.Empty(t, result.Warnings)
	})

	t.Run("Absent Documents List Skips Check", func(t *testing.T) {
		state := CaseState{Phase: PhasePreProceedingPreparation, CaseType: CaseTypeContractDispute, Metadata: cloneMetadata(base)}
		result := validator.Validate(state, PhaseFormalProceedings, RoleAttorney, nil)
		assert.Empty(t, result.Warnings, "no document info means unknown, not missing")
	})
}

func TestValidate_ProhibitedFields(t *testing.T) {
	validator := newTestValidator(t)

	state := CaseState{
		Phase:    PhaseIntakeRiskAssessment,
		CaseType: CaseTypeCriminalDefense,
		Metadata: map[string]interface{}{
			"riskAssessmentCompleted": true,
			"clientInformation":       "x",
			"caseDescription":         "x",
			"initialEvidence":         "x",
			"bailHearingScheduled":    true,
			"evidenceSecured":         true,
			"witnessStatements":       "x",
			"contingencyFeeAgreement": "signed",
		},
	}

	result := validator.Validate(state, PhasePreProceedingPreparation, RoleAttorney, nil)
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors, "Prohibited fields present: contingencyFeeAgreement")
}

func TestValidate_FeeStructureWarning(t *testing.T) {
	validator := newTestValidator(t)

	state := CaseState{
		Phase:    PhaseIntakeRiskAssessment,
		CaseType: CaseTypeCriminalDefense,
		Metadata: map[string]interface{}{
			"riskAssessmentCompleted": true,
			"clientInformation":       "x",
			"caseDescription":         "x",
			"initialEvidence":         "x",
			"bailHearingScheduled":    true,
			"evidenceSecured":         true,
			"witnessStatements":       "x",
			"feeStructure":            "contingency",
		},
	}

	result := validator.Validate(state, PhasePreProceedingPreparation, RoleAttorney, nil)
	assert.True(t, result.IsValid, "fee structure mismatches are advisory")
	assert.Contains(t, result.Warnings,
		"Fee structure contingency is not permitted for case type criminal_defense")
}

func TestValidate_Recommendations(t *testing.T) {
	validator := newTestValidator(t)

	state := CaseState{
		Phase:    PhasePreProceedingPreparation,
		CaseType: CaseTypeDivorceFamily,
		Metadata: map[string]interface{}{
			"marriageCertificate":   "x",
			"preparationPlan":       "x",
			"courtFilings":          "x",
			"clientAgreementSigned": "x",
			"filingDeadlineMet":     true,
			"childrenInvolved":      false,
		},
	}

	result := validator.Validate(state, PhaseFormalProceedings, RoleAttorney, nil)
	assert.True(t, result.IsValid)
	assert.Contains(t, result.Recommendations, "Mediation should be attempted before formal proceedings")
}

func TestValidate_MetadataOverride(t *testing.T) {
	validator := newTestValidator(t)

	state := contractIntakeState(map[string]interface{}{})
	override := map[string]interface{}{
		"riskAssessmentCompleted": true,
		"clientInformation":       "x",
		"caseDescription":         "x",
		"initialEvidence":         "x",
	}

	result := validator.Validate(state, PhasePreProceedingPreparation, RoleAttorney, override)
	assert.True(t, result.IsValid, "override replaces the state's metadata snapshot")
}

func TestValidate_DoesNotMutateMetadata(t *testing.T) {
	validator := newTestValidator(t)

	metadata := map[string]interface{}{
		"riskAssessmentCompleted": true,
		"clientInformation":       "x",
	}
	state := contractIntakeState(metadata)
	validator.Validate(state, PhasePreProceedingPreparation, RoleAttorney, nil)

	assert.Equal(t, map[string]interface{}{
		"riskAssessmentCompleted": true,
		"clientInformation":       "x",
	}, metadata, "the engine never writes to caller metadata")
}

func TestAvailableTransitions(t *testing.T) {
	validator := newTestValidator(t)

	t.Run("Terminal Phase Has None For Every Role", func(t *testing.T) {
		state := CaseState{Phase: PhaseClosureReviewArchiving, CaseType: CaseTypeContractDispute}
		for _, role := range []Role{RoleAdmin, RoleAttorney, RoleParalegal, RoleClient} {
			assert.Empty(t, validator.AvailableTransitions(state, role))
		}
	})

	t.Run("Intake For Attorney", func(t *testing.T) {
		state := CaseState{Phase: PhaseIntakeRiskAssessment, CaseType: CaseTypeContractDispute}
		phases := validator.AvailableTransitions(state, RoleAttorney)
		assert.Equal(t, []Phase{PhasePreProceedingPreparation, PhaseClosureReviewArchiving}, phases)
	})

	t.Run("Unauthorized Role Sees Nothing", func(t *testing.T) {
		state := CaseState{Phase: PhaseIntakeRiskAssessment, CaseType: CaseTypeContractDispute}
		assert.Empty(t, validator.AvailableTransitions(state, RoleClient))
	})

	t.Run("Closure Target Deduplicated From Resolution", func(t *testing.T) {
		// Resolution has both its normal closure edge and the wildcard.
		state := CaseState{Phase: PhaseResolutionPostProceeding, CaseType: CaseTypeContractDispute}
		phases := validator.AvailableTransitions(state, RoleAdmin)
		assert.Equal(t, []Phase{PhaseClosureReviewArchiving}, phases)
	})
}

func TestPhaseRequirements(t *testing.T) {
	validator := newTestValidator(t)

	assert.Equal(t,
		[]string{"patientRecordsConsent", "medicalRecords", "expertReviewEngaged"},
		validator.PhaseRequirements(PhasePreProceedingPreparation, CaseTypeMedicalMalpractice))
}

func TestCaseTypeWorkflow(t *testing.T) {
	validator := newTestValidator(t)

	t.Run("Augmented Case Type", func(t *testing.T) {
		workflow := validator.CaseTypeWorkflow(CaseTypeCriminalDefense)
		require.Len(t, workflow, 2)
		assert.Equal(t, PhaseIntakeRiskAssessment, workflow[0].From)
		assert.Equal(t, PhasePreProceedingPreparation, workflow[0].To)
		assert.Equal(t,
			[]string{"bailHearingScheduled", "evidenceSecured", "witnessStatements"},
			workflow[0].RequiredFields)
	})

	t.Run("Case Type Without Extra Rules", func(t *testing.T) {
		assert.Empty(t, validator.CaseTypeWorkflow(CaseTypeSpecialMatters))
		assert.NotNil(t, validator.CaseTypeWorkflow(CaseTypeSpecialMatters))
	})

	t.Run("Unknown Case Type", func(t *testing.T) {
		assert.Empty(t, validator.CaseTypeWorkflow(CaseType("maritime")))
	})
}

func TestAllTransitions(t *testing.T) {
	validator := newTestValidator(t)

	all := validator.AllTransitions()
	require.Len(t, all, 5)
	assert.True(t, all[4].Wildcard())
}

func cloneMetadata(src map[string]interface{}) map[string]interface{} {
	dst := make(map[string]interface{}, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
