// Package rules loads transition and case-type rule tables from static YAML
// documents. Deployments that do not ship a rules file run on the built-in
// tables; either way the tables are fully validated before the engine sees
// them, and any malformed rule fails the load rather than a later request.
package rules

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/lexshield/lifecycle-engine/internal/lifecycle"
)

// Document is the on-disk shape of a rule configuration file.
type Document struct {
	Transitions []TransitionDoc `yaml:"transitions" validate:"required,min=1,dive"`
	CaseTypes   []CaseTypeDoc   `yaml:"case_types" validate:"required,min=1,dive"`
}

// TransitionDoc declares one lifecycle edge. A from value of "*" declares the
// wildcard rejection rule.
type TransitionDoc struct {
	From           string         `yaml:"from" validate:"required"`
	To             string         `yaml:"to" validate:"required"`
	RequiredFields []string       `yaml:"required_fields" validate:"dive,required"`
	Conditions     []ConditionDoc `yaml:"conditions" validate:"dive"`
	AllowedRoles   []string       `yaml:"allowed_roles" validate:"required,min=1,dive,required"`
}

// ConditionDoc declares one structured predicate.
type ConditionDoc struct {
	Field         string      `yaml:"field" validate:"required"`
	Operator      string      `yaml:"operator" validate:"required,oneof=equals not_equals exists not_exists"`
	Value         interface{} `yaml:"value"`
	RequiresField string      `yaml:"requires_field"`
}

// CaseTypeDoc declares the ruleset for one legal case category.
type CaseTypeDoc struct {
	CaseType             string                   `yaml:"case_type" validate:"required"`
	RequiredFields       []string                 `yaml:"required_fields" validate:"dive,required"`
	ProhibitedFields     []string                 `yaml:"prohibited_fields" validate:"dive,required"`
	PhaseRules           []PhaseRuleDoc           `yaml:"phase_rules" validate:"dive"`
	DocumentRequirements []DocumentRequirementDoc `yaml:"document_requirements" validate:"dive"`
	TimelineConstraints  []TimelineConstraintDoc  `yaml:"timeline_constraints" validate:"dive"`
	FeeStructures        []string                 `yaml:"fee_structures" validate:"dive,required"`
	Recommendations      []RecommendationDoc      `yaml:"recommendations" validate:"dive"`
}

// PhaseRuleDoc declares per-phase additions for a case type.
type PhaseRuleDoc struct {
	Phase                    string         `yaml:"phase" validate:"required"`
	AdditionalRequiredFields []string       `yaml:"additional_required_fields" validate:"dive,required"`
	Conditions               []ConditionDoc `yaml:"conditions" validate:"dive"`
}

// DocumentRequirementDoc declares an expected document for a phase.
type DocumentRequirementDoc struct {
	DocumentType string `yaml:"document_type" validate:"required"`
	Phase        string `yaml:"phase" validate:"required"`
	Required     bool   `yaml:"required"`
}

// TimelineConstraintDoc caps the duration of a phase.
type TimelineConstraintDoc struct {
	Phase           string `yaml:"phase" validate:"required"`
	MaxDurationDays int    `yaml:"max_duration_days" validate:"required,gt=0"`
}

// RecommendationDoc declares an advisory hint for a phase.
type RecommendationDoc struct {
	Phase  string `yaml:"phase" validate:"required"`
	Advice string `yaml:"advice" validate:"required"`
}

// Tables bundles the two rule registries the engine is built from.
type Tables struct {
	Transitions *lifecycle.PhaseTransitionTable
	CaseTypes   *lifecycle.CaseTypeRuleRegistry
}

// Default returns the built-in rule tables.
func Default() (*Tables, error) {
	table, err := lifecycle.NewPhaseTransitionTable(lifecycle.DefaultTransitionRules())
	if err != nil {
		return nil, fmt.Errorf("built-in transition rules: %w", err)
	}
	registry, err := lifecycle.NewCaseTypeRuleRegistry(lifecycle.DefaultCaseTypeRules())
	if err != nil {
		return nil, fmt.Errorf("built-in case type rules: %w", err)
	}
	return &Tables{Transitions: table, CaseTypes: registry}, nil
}

// Load reads and validates a rules file.
func Load(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	tables, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("rules file %s: %w", path, err)
	}
	return tables, nil
}

// Parse validates a YAML rules document and builds the rule tables. All
// structural problems surface here, at load time.
func Parse(data []byte) (*Tables, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse rules document: %w", err)
	}

	if err := validator.New().Struct(doc); err != nil {
		return nil, fmt.Errorf("rules document failed validation: %w", err)
	}

	transitionRules := make([]lifecycle.TransitionRule, 0, len(doc.Transitions))
	for _, td := range doc.Transitions {
		rule, err := td.toRule()
		if err != nil {
			return nil, err
		}
		transitionRules = append(transitionRules, rule)
	}

	caseTypeRules := make([]lifecycle.CaseTypeRule, 0, len(doc.CaseTypes))
	for _, cd := range doc.CaseTypes {
		rule, err := cd.toRule()
		if err != nil {
			return nil, err
		}
		caseTypeRules = append(caseTypeRules, rule)
	}

	table, err := lifecycle.NewPhaseTransitionTable(transitionRules)
	if err != nil {
		return nil, err
	}
	registry, err := lifecycle.NewCaseTypeRuleRegistry(caseTypeRules)
	if err != nil {
		return nil, err
	}
	return &Tables{Transitions: table, CaseTypes: registry}, nil
}

func (d TransitionDoc) toRule() (lifecycle.TransitionRule, error) {
	rule := lifecycle.TransitionRule{
		RequiredFields: d.RequiredFields,
		Conditions:     make([]lifecycle.Condition, 0, len(d.Conditions)),
	}

	if d.From == string(lifecycle.PhaseAny) {
		rule.From = lifecycle.PhaseAny
	} else {
		from, err := lifecycle.ParsePhase(d.From)
		if err != nil {
			return lifecycle.TransitionRule{}, fmt.Errorf("transition %s -> %s: %w", d.From, d.To, err)
		}
		rule.From = from
	}

	to, err := lifecycle.ParsePhase(d.To)
	if err != nil {
		return lifecycle.TransitionRule{}, fmt.Errorf("transition %s -> %s: %w", d.From, d.To, err)
	}
	rule.To = to

	for _, cd := range d.Conditions {
		rule.Conditions = append(rule.Conditions, cd.toCondition())
	}

	for _, roleName := range d.AllowedRoles {
		role, err := lifecycle.ParseRole(roleName)
		if err != nil {
			return lifecycle.TransitionRule{}, fmt.Errorf("transition %s -> %s: %w", d.From, d.To, err)
		}
		rule.AllowedRoles = append(rule.AllowedRoles, role)
	}

	return rule, nil
}

func (d CaseTypeDoc) toRule() (lifecycle.CaseTypeRule, error) {
	caseType, err := lifecycle.ParseCaseType(d.CaseType)
	if err != nil {
		return lifecycle.CaseTypeRule{}, err
	}

	rule := lifecycle.CaseTypeRule{
		CaseType:         caseType,
		RequiredFields:   d.RequiredFields,
		ProhibitedFields: d.ProhibitedFields,
		FeeStructures:    d.FeeStructures,
	}

	for _, pd := range d.PhaseRules {
		phase, err := lifecycle.ParsePhase(pd.Phase)
		if err != nil {
			return lifecycle.CaseTypeRule{}, fmt.Errorf("case type %s: %w", d.CaseType, err)
		}
		pr := lifecycle.PhaseRule{
			Phase:                    phase,
			AdditionalRequiredFields: pd.AdditionalRequiredFields,
		}
		for _, cd := range pd.Conditions {
			pr.Conditions = append(pr.Conditions, cd.toCondition())
		}
		rule.PhaseRules = append(rule.PhaseRules, pr)
	}

	for _, dd := range d.DocumentRequirements {
		phase, err := lifecycle.ParsePhase(dd.Phase)
		if err != nil {
			return lifecycle.CaseTypeRule{}, fmt.Errorf("case type %s: %w", d.CaseType, err)
		}
		rule.DocumentRequirements = append(rule.DocumentRequirements, lifecycle.DocumentRequirement{
			DocumentType: dd.DocumentType,
			Phase:        phase,
			Required:     dd.Required,
		})
	}

	for _, td := range d.TimelineConstraints {
		phase, err := lifecycle.ParsePhase(td.Phase)
		if err != nil {
			return lifecycle.CaseTypeRule{}, fmt.Errorf("case type %s: %w", d.CaseType, err)
		}
		rule.TimelineConstraints = append(rule.TimelineConstraints, lifecycle.TimelineConstraint{
			Phase:           phase,
			MaxDurationDays: td.MaxDurationDays,
		})
	}

	for _, rd := range d.Recommendations {
		phase, err := lifecycle.ParsePhase(rd.Phase)
		if err != nil {
			return lifecycle.CaseTypeRule{}, fmt.Errorf("case type %s: %w", d.CaseType, err)
		}
		rule.Recommendations = append(rule.Recommendations, lifecycle.Recommendation{
			Phase:  phase,
			Advice: rd.Advice,
		})
	}

	return rule, nil
}

func (d ConditionDoc) toCondition() lifecycle.Condition {
	return lifecycle.Condition{
		Field:         d.Field,
		Operator:      lifecycle.Operator(d.Operator),
		Value:         d.Value,
		RequiresField: d.RequiresField,
	}
}
