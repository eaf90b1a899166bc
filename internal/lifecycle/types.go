package lifecycle

import (
	"fmt"
)

// Phase represents a stage in the lifecycle of a legal case.
type Phase string

const (
	PhaseIntakeRiskAssessment     Phase = "intake_risk_assessment"
	PhasePreProceedingPreparation Phase = "pre_proceeding_preparation"
	PhaseFormalProceedings        Phase = "formal_proceedings"
	PhaseResolutionPostProceeding Phase = "resolution_post_proceeding"
	PhaseClosureReviewArchiving   Phase = "closure_review_archiving"
)

// PhaseAny is a sentinel used as the source of the wildcard rejection rule.
// It never appears as the phase of a real case.
const PhaseAny Phase = "*"

// phaseOrder is the canonical forward order of the lifecycle. Transitions are
// only ever declared forward along this order; the single exception is the
// wildcard rejection rule, which jumps to the terminal phase.
var phaseOrder = []Phase{
	PhaseIntakeRiskAssessment,
	PhasePreProceedingPreparation,
	PhaseFormalProceedings,
	PhaseResolutionPostProceeding,
	PhaseClosureReviewArchiving,
}

// Phases returns the lifecycle phases in canonical order.
func Phases() []Phase {
	out := make([]Phase, len(phaseOrder))
	copy(out, phaseOrder)
	return out
}

// Ordinal returns the position of the phase in the canonical order, or -1 for
// an unknown phase or the PhaseAny sentinel.
func (p Phase) Ordinal() int {
	for i, phase := range phaseOrder {
		if phase == p {
			return i
		}
	}
	return -1
}

// Valid reports whether the phase is one of the declared lifecycle stages.
func (p Phase) Valid() bool {
	return p.Ordinal() >= 0
}

// Terminal reports whether the phase is the final, archiving stage.
func (p Phase) Terminal() bool {
	return p == PhaseClosureReviewArchiving
}

// ParsePhase converts a string into a Phase.
func ParsePhase(s string) (Phase, error) {
	p := Phase(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown phase: %q", s)
	}
	return p, nil
}

// CaseType represents the legal category of a case. The category decides which
// extra rules apply on top of the generic transition table.
type CaseType string

const (
	CaseTypeLaborDispute       CaseType = "labor_dispute"
	CaseTypeMedicalMalpractice CaseType = "medical_malpractice"
	CaseTypeCriminalDefense    CaseType = "criminal_defense"
	CaseTypeDivorceFamily      CaseType = "divorce_family"
	CaseTypeInheritanceDispute CaseType = "inheritance_dispute"
	CaseTypeContractDispute    CaseType = "contract_dispute"
	CaseTypeAdministrative     CaseType = "administrative"
	CaseTypeDemolition         CaseType = "demolition"
	CaseTypeSpecialMatters     CaseType = "special_matters"
)

var caseTypes = []CaseType{
	CaseTypeLaborDispute,
	CaseTypeMedicalMalpractice,
	CaseTypeCriminalDefense,
	CaseTypeDivorceFamily,
	CaseTypeInheritanceDispute,
	CaseTypeContractDispute,
	CaseTypeAdministrative,
	CaseTypeDemolition,
	CaseTypeSpecialMatters,
}

// CaseTypes returns all known case types in declaration order.
func CaseTypes() []CaseType {
	out := make([]CaseType, len(caseTypes))
	copy(out, caseTypes)
	return out
}

// Valid reports whether the case type is one of the declared categories.
func (c CaseType) Valid() bool {
	for _, ct := range caseTypes {
		if ct == c {
			return true
		}
	}
	return false
}

// ParseCaseType converts a string into a CaseType.
func ParseCaseType(s string) (CaseType, error) {
	ct := CaseType(s)
	if !ct.Valid() {
		return "", fmt.Errorf("unknown case type: %q", s)
	}
	return ct, nil
}

// Role represents the role of the actor requesting a transition.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleAttorney  Role = "attorney"
	RoleParalegal Role = "paralegal"
	RoleClient    Role = "client"
)

var roles = []Role{RoleAdmin, RoleAttorney, RoleParalegal, RoleClient}

// Valid reports whether the role is one of the declared actor roles.
func (r Role) Valid() bool {
	for _, role := range roles {
		if role == r {
			return true
		}
	}
	return false
}

// ParseRole converts a string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role: %q", s)
	}
	return r, nil
}

// CaseStatus represents the administrative status of a case, carried alongside
// the lifecycle phase. The engine does not gate transitions on it.
type CaseStatus string

const (
	StatusActive    CaseStatus = "active"
	StatusSuspended CaseStatus = "suspended"
	StatusClosed    CaseStatus = "closed"
)

// CaseState is the snapshot of a case handed to the engine by the persistence
// layer. Metadata is an opaque, caller-owned map; the engine only inspects
// field presence and values and never writes to it.
type CaseState struct {
	Phase    Phase                  `json:"phase"`
	Status   CaseStatus             `json:"status"`
	CaseType CaseType               `json:"case_type"`
	Metadata map[string]interface{} `json:"metadata"`
}

// ValidationResult is the aggregated outcome of a transition request. Errors
// block the transition; warnings and recommendations are advisory and never
// affect IsValid.
type ValidationResult struct {
	IsValid         bool     `json:"is_valid"`
	Errors          []string `json:"errors"`
	Warnings        []string `json:"warnings"`
	Recommendations []string `json:"recommendations"`
}

func newValidationResult() ValidationResult {
	return ValidationResult{
		Errors:          []string{},
		Warnings:        []string{},
		Recommendations: []string{},
	}
}
