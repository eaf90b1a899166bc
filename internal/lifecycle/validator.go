package lifecycle

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// metadata keys with engine-level meaning.
const (
	metadataKeyDocuments      = "documents"
	metadataKeyPhaseStartDate = "phaseStartDate"
	metadataKeyFeeStructure   = "feeStructure"
)

// TransitionValidator decides whether a case may move between lifecycle
// phases. It composes the transition table and the case-type registry into a
// pure decision function: no I/O, no retained references to caller data, and
// business-rule failures travel in the ValidationResult, never as Go errors.
type TransitionValidator struct {
	table    *PhaseTransitionTable
	registry *CaseTypeRuleRegistry
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures a TransitionValidator.
type Option func(*TransitionValidator)

// WithLogger attaches a logger for debug-level decision tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(v *TransitionValidator) {
		v.logger = logger
	}
}

// WithClock overrides the time source used for timeline checks.
func WithClock(now func() time.Time) Option {
	return func(v *TransitionValidator) {
		v.now = now
	}
}

// NewTransitionValidator builds a validator over the given rule tables.
func NewTransitionValidator(table *PhaseTransitionTable, registry *CaseTypeRuleRegistry, opts ...Option) *TransitionValidator {
	v := &TransitionValidator{
		table:    table,
		registry: registry,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// NewDefaultTransitionValidator builds a validator over the built-in rule
// tables. The defaults are validated data, so construction cannot fail.
func NewDefaultTransitionValidator(opts ...Option) *TransitionValidator {
	table, err := NewPhaseTransitionTable(DefaultTransitionRules())
	if err != nil {
		panic(fmt.Sprintf("built-in transition rules are invalid: %v", err))
	}
	registry, err := NewCaseTypeRuleRegistry(DefaultCaseTypeRules())
	if err != nil {
		panic(fmt.Sprintf("built-in case type rules are invalid: %v", err))
	}
	return NewTransitionValidator(table, registry, opts...)
}

// Validate runs the full rule evaluation for a requested transition. All
// checks run to completion and accumulate; only a missing table entry returns
// early, because no other check is meaningful without a matching rule.
// metadataOverride, when non-nil, replaces the state's metadata snapshot.
func (v *TransitionValidator) Validate(state CaseState, target Phase, role Role, metadataOverride map[string]interface{}) ValidationResult {
	metadata := state.Metadata
	if metadataOverride != nil {
		metadata = metadataOverride
	}

	result := newValidationResult()

	rule, viaWildcard, found := v.resolveRule(state.Phase, target, metadata)
	if !found {
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid transition from %s to %s", state.Phase, target))
		result.IsValid = false
		return result
	}

	if !rule.Allows(role) {
		result.Errors = append(result.Errors, "Insufficient permissions for transition")
	}

	// The wildcard rejection path bypasses the normal field and condition
	// requirements entirely; its own guard already held during resolution.
	if !viaWildcard {
		if _, err := v.registry.RulesFor(state.CaseType); err != nil {
			if errors.Is(err, ErrUnknownCaseType) {
				result.Errors = append(result.Errors, fmt.Sprintf("Unknown case type: %s", state.CaseType))
			}
		}

		v.checkRequiredFields(&result, rule, state.CaseType, target, metadata)
		v.checkConditions(&result, rule, state.CaseType, target, metadata)
		v.checkProhibitedFields(&result, state.CaseType, metadata)
	}

	v.checkTimeline(&result, state.CaseType, state.Phase, metadata)
	v.checkDocuments(&result, state.CaseType, target, metadata)
	v.checkFeeStructure(&result, state.CaseType, metadata)

	if recs := v.registry.RecommendationsFor(state.CaseType, target); len(recs) > 0 {
		result.Recommendations = append(result.Recommendations, recs...)
	}

	result.IsValid = len(result.Errors) == 0

	v.logger.Debug("transition validated",
		zap.String("from", string(state.Phase)),
		zap.String("to", string(target)),
		zap.String("case_type", string(state.CaseType)),
		zap.String("role", string(role)),
		zap.Bool("via_wildcard", viaWildcard),
		zap.Bool("is_valid", result.IsValid),
		zap.Int("errors", len(result.Errors)),
		zap.Int("warnings", len(result.Warnings)),
	)

	return result
}

// resolveRule finds the rule governing the requested edge. The wildcard
// rejection rule is checked first: when its guard holds it takes priority over
// the exact-match entry and its requirements.
func (v *TransitionValidator) resolveRule(from, to Phase, metadata map[string]interface{}) (rule TransitionRule, viaWildcard, found bool) {
	if wildcard, ok := v.table.Wildcard(); ok && wildcard.To == to && from.Valid() && !from.Terminal() {
		satisfied := true
		for _, cond := range wildcard.Conditions {
			if !cond.Evaluate(metadata) {
				satisfied = false
				break
			}
		}
		if satisfied {
			return wildcard, true, true
		}
	}

	rule, ok := v.table.Lookup(from, to)
	return rule, false, ok
}

func (v *TransitionValidator) checkRequiredFields(result *ValidationResult, rule TransitionRule, caseType CaseType, target Phase, metadata map[string]interface{}) {
	var effective []string
	seen := make(map[string]struct{})
	for _, field := range rule.RequiredFields {
		if _, dup := seen[field]; dup {
			continue
		}
		seen[field] = struct{}{}
		effective = append(effective, field)
	}
	for _, field := range v.registry.RequirementsFor(caseType, target) {
		if _, dup := seen[field]; dup {
			continue
		}
		seen[field] = struct{}{}
		effective = append(effective, field)
	}

	var missing []string
	for _, field := range effective {
		if !fieldPresent(metadata, field) {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		result.Errors = append(result.Errors, "Missing required fields: "+strings.Join(missing, ", "))
	}
}

func (v *TransitionValidator) checkConditions(result *ValidationResult, rule TransitionRule, caseType CaseType, target Phase, metadata map[string]interface{}) {
	for _, cond := range rule.Conditions {
		if !cond.Evaluate(metadata) {
			result.Errors = append(result.Errors, cond.FailureMessage())
		}
	}
	for _, cond := range v.registry.PhaseConditionsFor(caseType, target) {
		if !cond.Evaluate(metadata) {
			result.Errors = append(result.Errors, cond.FailureMessage())
		}
	}
}

func (v *TransitionValidator) checkProhibitedFields(result *ValidationResult, caseType CaseType, metadata map[string]interface{}) {
	ctRule, err := v.registry.RulesFor(caseType)
	if err != nil {
		return
	}
	var present []string
	for _, field := range ctRule.ProhibitedFields {
		if fieldPresent(metadata, field) {
			present = append(present, field)
		}
	}
	if len(present) > 0 {
		result.Errors = append(result.Errors, "Prohibited fields present: "+strings.Join(present, ", "))
	}
}

// checkTimeline flags an overrun of the source phase's maximum duration.
// Overruns never block a transition; they only warn.
func (v *TransitionValidator) checkTimeline(result *ValidationResult, caseType CaseType, source Phase, metadata map[string]interface{}) {
	constraint, ok := v.registry.TimelineConstraintFor(caseType, source)
	if !ok {
		return
	}
	start, ok := phaseStart(metadata)
	if !ok {
		return
	}
	if v.now().Sub(start) > time.Duration(constraint.MaxDurationDays)*24*time.Hour {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Phase %s exceeded maximum duration of %d days", source, constraint.MaxDurationDays))
	}
}

// checkDocuments warns about required documents missing for the target phase.
// An absent documents list means the caller supplied no document info at all;
// that is treated as unknown rather than missing and the check is skipped.
func (v *TransitionValidator) checkDocuments(result *ValidationResult, caseType CaseType, target Phase, metadata map[string]interface{}) {
	attached, supplied := documentTypes(metadata)
	if !supplied {
		return
	}
	var missing []string
	for _, req := range v.registry.DocumentRequirementsFor(caseType, target) {
		if !req.Required {
			continue
		}
		if _, ok := attached[req.DocumentType]; !ok {
			missing = append(missing, req.DocumentType)
		}
	}
	if len(missing) > 0 {
		result.Warnings = append(result.Warnings, "Missing required documents: "+strings.Join(missing, ", "))
	}
}

// checkFeeStructure warns when the agreed fee structure is not among those
// permitted for the case type. Advisory only.
func (v *TransitionValidator) checkFeeStructure(result *ValidationResult, caseType CaseType, metadata map[string]interface{}) {
	fee, ok := metadata[metadataKeyFeeStructure].(string)
	if !ok || fee == "" {
		return
	}
	allowed := v.registry.FeeStructuresFor(caseType)
	if len(allowed) == 0 {
		return
	}
	for _, structure := range allowed {
		if structure == fee {
			return
		}
	}
	result.Warnings = append(result.Warnings,
		fmt.Sprintf("Fee structure %s is not permitted for case type %s", fee, caseType))
}

// AvailableTransitions returns the phases the case could move to for the given
// role, ignoring field and condition state. Intended for UI affordances, not
// authorization.
func (v *TransitionValidator) AvailableTransitions(state CaseState, role Role) []Phase {
	phases := []Phase{}
	seen := make(map[Phase]struct{})
	for _, rule := range v.table.ListOutgoing(state.Phase) {
		if !rule.Allows(role) {
			continue
		}
		if _, dup := seen[rule.To]; dup {
			continue
		}
		seen[rule.To] = struct{}{}
		phases = append(phases, rule.To)
	}
	return phases
}

// PhaseRequirements returns the metadata fields required of a case of the
// given type in the given phase, generic fields first, in declaration order.
func (v *TransitionValidator) PhaseRequirements(phase Phase, caseType CaseType) []string {
	return v.registry.RequirementsFor(caseType, phase)
}

// CaseTypeWorkflow returns only the case-type-specific augmentations of the
// lifecycle, rendered as transition rules on the edge entering each phase the
// case type customizes. Case types without extra rules yield an empty slice.
func (v *TransitionValidator) CaseTypeWorkflow(caseType CaseType) []TransitionRule {
	ctRule, err := v.registry.RulesFor(caseType)
	if err != nil {
		return []TransitionRule{}
	}
	workflow := make([]TransitionRule, 0, len(ctRule.PhaseRules))
	for _, pr := range ctRule.PhaseRules {
		ordinal := pr.Phase.Ordinal()
		from := pr.Phase
		if ordinal > 0 {
			from = phaseOrder[ordinal-1]
		}
		workflow = append(workflow, TransitionRule{
			From:           from,
			To:             pr.Phase,
			RequiredFields: pr.AdditionalRequiredFields,
			Conditions:     pr.Conditions,
			AllowedRoles:   executionRoles,
		})
	}
	return workflow
}

// AllTransitions returns the full transition table, wildcard rule last.
func (v *TransitionValidator) AllTransitions() []TransitionRule {
	return v.table.All()
}

// phaseStart extracts the phase start timestamp from the metadata. Accepts a
// time.Time or an RFC 3339 string; anything else is treated as absent.
func phaseStart(metadata map[string]interface{}) (time.Time, bool) {
	value, ok := metadata[metadataKeyPhaseStartDate]
	if !ok || value == nil {
		return time.Time{}, false
	}
	switch ts := value.(type) {
	case time.Time:
		return ts, true
	case string:
		parsed, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	}
	return time.Time{}, false
}

// documentTypes extracts the set of attached document types from the
// metadata. The second return reports whether the caller supplied a documents
// list at all.
func documentTypes(metadata map[string]interface{}) (map[string]struct{}, bool) {
	value, ok := metadata[metadataKeyDocuments]
	if !ok || value == nil {
		return nil, false
	}

	types := make(map[string]struct{})
	collect := func(entry interface{}) {
		switch doc := entry.(type) {
		case string:
			if doc != "" {
				types[doc] = struct{}{}
			}
		case map[string]interface{}:
			if t, isString := doc["type"].(string); isString && t != "" {
				types[t] = struct{}{}
			}
		}
	}

	switch list := value.(type) {
	case []interface{}:
		for _, entry := range list {
			collect(entry)
		}
	case []string:
		for _, entry := range list {
			collect(entry)
		}
	case []map[string]interface{}:
		for _, entry := range list {
			collect(entry)
		}
	default:
		return nil, false
	}
	return types, true
}
