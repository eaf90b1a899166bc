package lifecycle

import (
	"fmt"
)

// TransitionRule declares one permitted edge of the lifecycle state machine:
// the generic fields that must be present, the predicates that must hold and
// the roles allowed to execute it. A rule with From == PhaseAny is the
// wildcard rejection rule, matched from every non-terminal phase.
type TransitionRule struct {
	From           Phase       `json:"from"`
	To             Phase       `json:"to"`
	RequiredFields []string    `json:"required_fields"`
	Conditions     []Condition `json:"conditions"`
	AllowedRoles   []Role      `json:"allowed_roles"`
}

// Wildcard reports whether the rule is the any-phase rejection rule.
func (r TransitionRule) Wildcard() bool {
	return r.From == PhaseAny
}

// Allows reports whether the role may execute this transition.
func (r TransitionRule) Allows(role Role) bool {
	for _, allowed := range r.AllowedRoles {
		if allowed == role {
			return true
		}
	}
	return false
}

// Validate rejects malformed rule definitions at load time.
func (r TransitionRule) Validate() error {
	if !r.Wildcard() && !r.From.Valid() {
		return fmt.Errorf("transition rule has unknown source phase %q", r.From)
	}
	if !r.To.Valid() {
		return fmt.Errorf("transition rule has unknown target phase %q", r.To)
	}
	if !r.Wildcard() && r.From.Ordinal() >= r.To.Ordinal() {
		return fmt.Errorf("transition rule %s -> %s is not forward", r.From, r.To)
	}
	if len(r.AllowedRoles) == 0 {
		return fmt.Errorf("transition rule %s -> %s allows no roles", r.From, r.To)
	}
	for _, role := range r.AllowedRoles {
		if !role.Valid() {
			return fmt.Errorf("transition rule %s -> %s allows unknown role %q", r.From, r.To, role)
		}
	}
	for i, cond := range r.Conditions {
		if err := cond.Validate(); err != nil {
			return fmt.Errorf("transition rule %s -> %s, condition %d: %w", r.From, r.To, i, err)
		}
	}
	return nil
}

type transitionKey struct {
	from Phase
	to   Phase
}

// PhaseTransitionTable is the static registry of legal lifecycle edges. It is
// built once at startup, validated exhaustively, and read-only afterwards, so
// it is safe to share across concurrent requests without locking.
type PhaseTransitionTable struct {
	rules    map[transitionKey]TransitionRule
	ordered  []TransitionRule
	wildcard *TransitionRule
}

// NewPhaseTransitionTable builds and validates a transition table. Malformed
// rules are a configuration error and fail construction; nothing is deferred
// to evaluation time.
func NewPhaseTransitionTable(rules []TransitionRule) (*PhaseTransitionTable, error) {
	table := &PhaseTransitionTable{
		rules:   make(map[transitionKey]TransitionRule, len(rules)),
		ordered: make([]TransitionRule, 0, len(rules)),
	}

	for _, rule := range rules {
		if err := rule.Validate(); err != nil {
			return nil, err
		}

		if rule.Wildcard() {
			if table.wildcard != nil {
				return nil, fmt.Errorf("duplicate wildcard transition rule")
			}
			if !rule.To.Terminal() {
				return nil, fmt.Errorf("wildcard transition rule must target the terminal phase, got %s", rule.To)
			}
			if len(rule.Conditions) == 0 {
				return nil, fmt.Errorf("wildcard transition rule must be guarded by at least one condition")
			}
			wildcard := rule
			table.wildcard = &wildcard
			continue
		}

		key := transitionKey{from: rule.From, to: rule.To}
		if _, exists := table.rules[key]; exists {
			return nil, fmt.Errorf("duplicate transition rule %s -> %s", rule.From, rule.To)
		}
		table.rules[key] = rule
		table.ordered = append(table.ordered, rule)
	}

	// Every non-terminal phase needs at least one way out.
	for _, phase := range Phases() {
		if phase.Terminal() {
			continue
		}
		if len(table.outgoing(phase)) == 0 && table.wildcard == nil {
			return nil, fmt.Errorf("phase %s has no outgoing transition rules", phase)
		}
	}

	return table, nil
}

// Lookup returns the exact-match rule for the (from, to) pair. The wildcard
// rejection rule is not consulted here; callers resolve it separately via
// Wildcard because it depends on case metadata.
func (t *PhaseTransitionTable) Lookup(from, to Phase) (TransitionRule, bool) {
	rule, ok := t.rules[transitionKey{from: from, to: to}]
	return rule, ok
}

// Wildcard returns the any-phase rejection rule, if one is configured.
func (t *PhaseTransitionTable) Wildcard() (TransitionRule, bool) {
	if t.wildcard == nil {
		return TransitionRule{}, false
	}
	return *t.wildcard, true
}

// ListOutgoing returns all rules leaving the phase in declaration order. For
// non-terminal phases the wildcard rejection rule is appended last.
func (t *PhaseTransitionTable) ListOutgoing(from Phase) []TransitionRule {
	out := t.outgoing(from)
	if t.wildcard != nil && from.Valid() && !from.Terminal() {
		out = append(out, *t.wildcard)
	}
	return out
}

func (t *PhaseTransitionTable) outgoing(from Phase) []TransitionRule {
	var out []TransitionRule
	for _, rule := range t.ordered {
		if rule.From == from {
			out = append(out, rule)
		}
	}
	return out
}

// All returns the full rule table in declaration order, wildcard last. The
// dump is used for documentation and tests.
func (t *PhaseTransitionTable) All() []TransitionRule {
	out := make([]TransitionRule, 0, len(t.ordered)+1)
	out = append(out, t.ordered...)
	if t.wildcard != nil {
		out = append(out, *t.wildcard)
	}
	return out
}
