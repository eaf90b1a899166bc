package lifecycle

import (
	"errors"
	"fmt"
)

// ErrUnknownCaseType indicates a registry gap: a case type reached the engine
// that no ruleset was loaded for. This is a configuration problem, not a user
// mistake, and is surfaced distinctly in validation errors.
var ErrUnknownCaseType = errors.New("unknown case type")

// PhaseRule declares case-type-specific additions for one lifecycle phase:
// extra required fields and extra predicates, both evaluated when the phase is
// the target of a transition.
type PhaseRule struct {
	Phase                    Phase       `json:"phase"`
	AdditionalRequiredFields []string    `json:"additional_required_fields"`
	Conditions               []Condition `json:"conditions"`
}

// DocumentRequirement declares a document type expected to be attached by a
// given phase. Checked against metadata["documents"]; advisory only.
type DocumentRequirement struct {
	DocumentType string `json:"document_type"`
	Phase        Phase  `json:"phase"`
	Required     bool   `json:"required"`
}

// TimelineConstraint caps how long a case should stay in a phase. Overruns
// raise a warning, never an error.
type TimelineConstraint struct {
	Phase           Phase `json:"phase"`
	MaxDurationDays int   `json:"max_duration_days"`
}

// Recommendation is a non-blocking advisory hint attached when a case of the
// given type moves into the given phase.
type Recommendation struct {
	Phase  Phase  `json:"phase"`
	Advice string `json:"advice"`
}

// CaseTypeRule is the full declarative ruleset for one legal case category.
// Adding a new category is a data change: a new entry here, no engine code.
type CaseTypeRule struct {
	CaseType             CaseType              `json:"case_type"`
	RequiredFields       []string              `json:"required_fields"`
	ProhibitedFields     []string              `json:"prohibited_fields"`
	PhaseRules           []PhaseRule           `json:"phase_rules"`
	DocumentRequirements []DocumentRequirement `json:"document_requirements"`
	TimelineConstraints  []TimelineConstraint  `json:"timeline_constraints"`
	FeeStructures        []string              `json:"fee_structures"`
	Recommendations      []Recommendation      `json:"recommendations"`
}

// Validate rejects malformed case-type rulesets at load time.
func (r CaseTypeRule) Validate() error {
	if !r.CaseType.Valid() {
		return fmt.Errorf("case type rule has unknown case type %q", r.CaseType)
	}
	for i, pr := range r.PhaseRules {
		if !pr.Phase.Valid() {
			return fmt.Errorf("case type %s, phase rule %d: unknown phase %q", r.CaseType, i, pr.Phase)
		}
		for j, cond := range pr.Conditions {
			if err := cond.Validate(); err != nil {
				return fmt.Errorf("case type %s, phase rule %d, condition %d: %w", r.CaseType, i, j, err)
			}
		}
	}
	for i, dr := range r.DocumentRequirements {
		if dr.DocumentType == "" {
			return fmt.Errorf("case type %s, document requirement %d: empty document type", r.CaseType, i)
		}
		if !dr.Phase.Valid() {
			return fmt.Errorf("case type %s, document requirement %d: unknown phase %q", r.CaseType, i, dr.Phase)
		}
	}
	for i, tc := range r.TimelineConstraints {
		if !tc.Phase.Valid() {
			return fmt.Errorf("case type %s, timeline constraint %d: unknown phase %q", r.CaseType, i, tc.Phase)
		}
		if tc.MaxDurationDays <= 0 {
			return fmt.Errorf("case type %s, timeline constraint %d: non-positive duration", r.CaseType, i)
		}
	}
	for i, rec := range r.Recommendations {
		if !rec.Phase.Valid() {
			return fmt.Errorf("case type %s, recommendation %d: unknown phase %q", r.CaseType, i, rec.Phase)
		}
	}
	return nil
}

// phaseRuleFor returns the case type's additions for the phase, if declared.
func (r CaseTypeRule) phaseRuleFor(phase Phase) (PhaseRule, bool) {
	for _, pr := range r.PhaseRules {
		if pr.Phase == phase {
			return pr, true
		}
	}
	return PhaseRule{}, false
}

// CaseTypeRuleRegistry holds the per-case-type rulesets. Like the transition
// table it is built once, validated at construction and read-only afterwards.
type CaseTypeRuleRegistry struct {
	rules map[CaseType]CaseTypeRule
	order []CaseType
}

// NewCaseTypeRuleRegistry builds and validates a registry from the given
// rulesets.
func NewCaseTypeRuleRegistry(rules []CaseTypeRule) (*CaseTypeRuleRegistry, error) {
	registry := &CaseTypeRuleRegistry{
		rules: make(map[CaseType]CaseTypeRule, len(rules)),
		order: make([]CaseType, 0, len(rules)),
	}
	for _, rule := range rules {
		if err := rule.Validate(); err != nil {
			return nil, err
		}
		if _, exists := registry.rules[rule.CaseType]; exists {
			return nil, fmt.Errorf("duplicate case type ruleset for %s", rule.CaseType)
		}
		registry.rules[rule.CaseType] = rule
		registry.order = append(registry.order, rule.CaseType)
	}
	return registry, nil
}

// RulesFor returns the ruleset for the case type.
func (r *CaseTypeRuleRegistry) RulesFor(caseType CaseType) (CaseTypeRule, error) {
	rule, ok := r.rules[caseType]
	if !ok {
		return CaseTypeRule{}, fmt.Errorf("%w: %s", ErrUnknownCaseType, caseType)
	}
	return rule, nil
}

// RequirementsFor returns the union of the case type's generic required fields
// and the phase-specific additions, generic first, in declaration order, with
// duplicates removed. The ordering is part of the observable contract: error
// messages reproduce it verbatim. Unknown case types yield an empty list; the
// registry gap itself is reported by RulesFor.
func (r *CaseTypeRuleRegistry) RequirementsFor(caseType CaseType, phase Phase) []string {
	rule, ok := r.rules[caseType]
	if !ok {
		return nil
	}

	var fields []string
	seen := make(map[string]struct{})
	appendField := func(field string) {
		if _, dup := seen[field]; dup {
			return
		}
		seen[field] = struct{}{}
		fields = append(fields, field)
	}

	for _, field := range rule.RequiredFields {
		appendField(field)
	}
	if pr, found := rule.phaseRuleFor(phase); found {
		for _, field := range pr.AdditionalRequiredFields {
			appendField(field)
		}
	}
	return fields
}

// PhaseConditionsFor returns the case type's extra predicates for the phase.
func (r *CaseTypeRuleRegistry) PhaseConditionsFor(caseType CaseType, phase Phase) []Condition {
	rule, ok := r.rules[caseType]
	if !ok {
		return nil
	}
	if pr, found := rule.phaseRuleFor(phase); found {
		return pr.Conditions
	}
	return nil
}

// DocumentRequirementsFor returns the document requirements declared for the
// case type and phase.
func (r *CaseTypeRuleRegistry) DocumentRequirementsFor(caseType CaseType, phase Phase) []DocumentRequirement {
	rule, ok := r.rules[caseType]
	if !ok {
		return nil
	}
	var out []DocumentRequirement
	for _, dr := range rule.DocumentRequirements {
		if dr.Phase == phase {
			out = append(out, dr)
		}
	}
	return out
}

// TimelineConstraintFor returns the timeline constraint for the case type and
// phase, if one is declared.
func (r *CaseTypeRuleRegistry) TimelineConstraintFor(caseType CaseType, phase Phase) (TimelineConstraint, bool) {
	rule, ok := r.rules[caseType]
	if !ok {
		return TimelineConstraint{}, false
	}
	for _, tc := range rule.TimelineConstraints {
		if tc.Phase == phase {
			return tc, true
		}
	}
	return TimelineConstraint{}, false
}

// FeeStructuresFor returns the fee structures permitted for the case type.
func (r *CaseTypeRuleRegistry) FeeStructuresFor(caseType CaseType) []string {
	rule, ok := r.rules[caseType]
	if !ok {
		return nil
	}
	return rule.FeeStructures
}

// RecommendationsFor returns the advisory hints for a case of the given type
// entering the given phase.
func (r *CaseTypeRuleRegistry) RecommendationsFor(caseType CaseType, phase Phase) []string {
	rule, ok := r.rules[caseType]
	if !ok {
		return nil
	}
	var out []string
	for _, rec := range rule.Recommendations {
		if rec.Phase == phase {
			out = append(out, rec.Advice)
		}
	}
	return out
}

// CaseTypes returns the registered case types in declaration order.
func (r *CaseTypeRuleRegistry) CaseTypes() []CaseType {
	out := make([]CaseType, len(r.order))
	copy(out, r.order)
	return out
}
