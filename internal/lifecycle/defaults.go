package lifecycle

// executionRoles are the only roles allowed to commit a phase transition.
// Clients and paralegals can prepare a case but never move it.
var executionRoles = []Role{RoleAdmin, RoleAttorney}

// DefaultTransitionRules returns the built-in lifecycle edges: the strictly
// forward chain through the five phases, plus the wildcard rejection rule
// that aborts a rejected case straight to archiving from any phase.
func DefaultTransitionRules() []TransitionRule {
	return []TransitionRule{
		{
			From:           PhaseIntakeRiskAssessment,
			To:             PhasePreProceedingPreparation,
			RequiredFields: []string{"clientInformation", "caseDescription", "initialEvidence"},
			Conditions: []Condition{
				{Field: "riskAssessmentCompleted", Operator: OperatorEquals, Value: true},
			},
			AllowedRoles: executionRoles,
		},
		{
			From:           PhasePreProceedingPreparation,
			To:             PhaseFormalProceedings,
			RequiredFields: []string{"preparationPlan", "courtFilings", "clientAgreementSigned"},
			Conditions: []Condition{
				{Field: "filingDeadlineMet", Operator: OperatorEquals, Value: true},
			},
			AllowedRoles: executionRoles,
		},
		{
			From:           PhaseFormalProceedings,
			To:             PhaseResolutionPostProceeding,
			RequiredFields: []string{"hearingOutcome", "judgmentDetails"},
			Conditions: []Condition{
				{Field: "proceedingsConcluded", Operator: OperatorEquals, Value: true},
			},
			AllowedRoles: executionRoles,
		},
		{
			From:           PhaseResolutionPostProceeding,
			To:             PhaseClosureReviewArchiving,
			RequiredFields: []string{"resolutionSummary", "finalInvoiceIssued", "clientConfirmation"},
			Conditions:     []Condition{},
			AllowedRoles:   executionRoles,
		},
		{
			// Early-exit abort path: a rejected case is archived directly,
			// independent of the source phase's normal requirements.
			From: PhaseAny,
			To:   PhaseClosureReviewArchiving,
			Conditions: []Condition{
				{Field: "caseRejected", Operator: OperatorEquals, Value: true},
			},
			AllowedRoles: executionRoles,
		},
	}
}

// DefaultCaseTypeRules returns the built-in per-category rulesets. The data
// below is the whole of the case-type-specific behavior; the engine never
// branches on a case type in code.
func DefaultCaseTypeRules() []CaseTypeRule {
	return []CaseTypeRule{
		{
			CaseType:       CaseTypeLaborDispute,
			RequiredFields: []string{"employerInformation"},
			PhaseRules: []PhaseRule{
				{
					Phase:                    PhasePreProceedingPreparation,
					AdditionalRequiredFields: []string{"employmentContract", "terminationNotice"},
				},
				{
					Phase:                    PhaseFormalProceedings,
					AdditionalRequiredFields: []string{"arbitrationAward"},
					Conditions: []Condition{
						{Field: "arbitrationCompleted", Operator: OperatorEquals, Value: true},
					},
				},
			},
			DocumentRequirements: []DocumentRequirement{
				{DocumentType: "employment_contract", Phase: PhasePreProceedingPreparation, Required: true},
				{DocumentType: "payroll_records", Phase: PhaseFormalProceedings, Required: true},
			},
			TimelineConstraints: []TimelineConstraint{
				{Phase: PhaseIntakeRiskAssessment, MaxDurationDays: 30},
			},
			FeeStructures: []string{"hourly", "contingency"},
			Recommendations: []Recommendation{
				{Phase: PhaseFormalProceedings, Advice: "Labor arbitration is mandatory before court; confirm the arbitration award is on file"},
			},
		},
		{
			CaseType:       CaseTypeMedicalMalpractice,
			RequiredFields: []string{"patientRecordsConsent"},
			PhaseRules: []PhaseRule{
				{
					Phase:                    PhasePreProceedingPreparation,
					AdditionalRequiredFields: []string{"medicalRecords", "expertReviewEngaged"},
				},
				{
					Phase:                    PhaseFormalProceedings,
					AdditionalRequiredFields: []string{"expertOpinion"},
					Conditions: []Condition{
						{Field: "severityLevel", Operator: OperatorEquals, Value: "critical", RequiresField: "independentAssessment"},
					},
				},
			},
			DocumentRequirements: []DocumentRequirement{
				{DocumentType: "medical_records", Phase: PhasePreProceedingPreparation, Required: true},
				{DocumentType: "expert_opinion", Phase: PhaseFormalProceedings, Required: true},
			},
			TimelineConstraints: []TimelineConstraint{
				{Phase: PhasePreProceedingPreparation, MaxDurationDays: 90},
			},
			FeeStructures: []string{"hourly", "contingency"},
			Recommendations: []Recommendation{
				{Phase: PhaseFormalProceedings, Advice: "An independent medical appraisal strengthens the evidentiary position before proceedings"},
			},
		},
		{
			CaseType:         CaseTypeCriminalDefense,
			ProhibitedFields: []string{"contingencyFeeAgreement"},
			PhaseRules: []PhaseRule{
				{
					Phase:                    PhasePreProceedingPreparation,
					AdditionalRequiredFields: []string{"bailHearingScheduled", "evidenceSecured", "witnessStatements"},
				},
				{
					Phase:                    PhaseFormalProceedings,
					AdditionalRequiredFields: []string{"defenseStrategy"},
				},
			},
			DocumentRequirements: []DocumentRequirement{
				{DocumentType: "power_of_attorney", Phase: PhasePreProceedingPreparation, Required: true},
				{DocumentType: "indictment_copy", Phase: PhaseFormalProceedings, Required: true},
			},
			TimelineConstraints: []TimelineConstraint{
				{Phase: PhaseIntakeRiskAssessment, MaxDurationDays: 7},
				{Phase: PhaseFormalProceedings, MaxDurationDays: 180},
			},
			FeeStructures: []string{"hourly", "flat"},
			Recommendations: []Recommendation{
				{Phase: PhasePreProceedingPreparation, Advice: "Confirm detention status and bail application deadlines before preparation begins"},
			},
		},
		{
			CaseType:       CaseTypeDivorceFamily,
			RequiredFields: []string{"marriageCertificate"},
			PhaseRules: []PhaseRule{
				{
					Phase:                    PhasePreProceedingPreparation,
					AdditionalRequiredFields: []string{"assetInventory"},
				},
				{
					Phase: PhaseFormalProceedings,
					Conditions: []Condition{
						{Field: "childrenInvolved", Operator: OperatorEquals, Value: true, RequiresField: "custodyProposal"},
					},
				},
			},
			DocumentRequirements: []DocumentRequirement{
				{DocumentType: "marriage_certificate", Phase: PhasePreProceedingPreparation, Required: true},
			},
			TimelineConstraints: []TimelineConstraint{
				{Phase: PhaseResolutionPostProceeding, MaxDurationDays: 60},
			},
			FeeStructures: []string{"flat", "hourly"},
			Recommendations: []Recommendation{
				{Phase: PhaseFormalProceedings, Advice: "Mediation should be attempted before formal proceedings"},
			},
		},
		{
			CaseType:       CaseTypeInheritanceDispute,
			RequiredFields: []string{"deathCertificate"},
			PhaseRules: []PhaseRule{
				{
					Phase:                    PhasePreProceedingPreparation,
					AdditionalRequiredFields: []string{"heirList"},
					Conditions: []Condition{
						{Field: "willExists", Operator: OperatorEquals, Value: true, RequiresField: "willDocument"},
					},
				},
			},
			DocumentRequirements: []DocumentRequirement{
				{DocumentType: "death_certificate", Phase: PhasePreProceedingPreparation, Required: true},
				{DocumentType: "estate_inventory", Phase: PhaseFormalProceedings, Required: true},
			},
			FeeStructures: []string{"hourly"},
			Recommendations: []Recommendation{
				{Phase: PhaseResolutionPostProceeding, Advice: "Refresh the estate valuation before distribution is finalized"},
			},
		},
		{
			CaseType: CaseTypeContractDispute,
			PhaseRules: []PhaseRule{
				{
					Phase:                    PhaseFormalProceedings,
					AdditionalRequiredFields: []string{"contractDocument", "breachEvidence"},
					Conditions: []Condition{
						{Field: "liquidatedDamagesClaimed", Operator: OperatorEquals, Value: true, RequiresField: "damagesCalculation"},
					},
				},
			},
			DocumentRequirements: []DocumentRequirement{
				{DocumentType: "contract_document", Phase: PhaseFormalProceedings, Required: true},
			},
			TimelineConstraints: []TimelineConstraint{
				{Phase: PhasePreProceedingPreparation, MaxDurationDays: 45},
			},
			FeeStructures: []string{"hourly", "flat", "contingency"},
			Recommendations: []Recommendation{
				{Phase: PhasePreProceedingPreparation, Advice: "Review limitation periods for contractual claims before preparation"},
			},
		},
		{
			CaseType:       CaseTypeAdministrative,
			RequiredFields: []string{"administrativeActReference"},
			PhaseRules: []PhaseRule{
				{
					Phase:                    PhasePreProceedingPreparation,
					AdditionalRequiredFields: []string{"objectionFiling"},
				},
			},
			TimelineConstraints: []TimelineConstraint{
				{Phase: PhaseIntakeRiskAssessment, MaxDurationDays: 15},
			},
			FeeStructures: []string{"flat"},
			Recommendations: []Recommendation{
				{Phase: PhasePreProceedingPreparation, Advice: "Administrative review deadlines are short; verify the objection window has not lapsed"},
			},
		},
		{
			CaseType:       CaseTypeDemolition,
			RequiredFields: []string{"propertyDeed", "demolitionNotice"},
			PhaseRules: []PhaseRule{
				{
					Phase:                    PhasePreProceedingPreparation,
					AdditionalRequiredFields: []string{"propertyValuation"},
				},
				{
					Phase: PhaseFormalProceedings,
					Conditions: []Condition{
						{Field: "relocationOffered", Operator: OperatorEquals, Value: true, RequiresField: "relocationAgreement"},
					},
				},
			},
			DocumentRequirements: []DocumentRequirement{
				{DocumentType: "property_deed", Phase: PhasePreProceedingPreparation, Required: true},
			},
			FeeStructures: []string{"flat", "hourly"},
			Recommendations: []Recommendation{
				{Phase: PhaseFormalProceedings, Advice: "Photograph and independently appraise the property before enforcement"},
			},
		},
		{
			CaseType:      CaseTypeSpecialMatters,
			FeeStructures: []string{"hourly", "flat", "contingency"},
		},
	}
}
