package lifecycle

import (
	"fmt"
	"reflect"
)

// Operator identifies the predicate applied by a Condition.
type Operator string

const (
	OperatorEquals    Operator = "equals"
	OperatorNotEquals Operator = "not_equals"
	OperatorExists    Operator = "exists"
	OperatorNotExists Operator = "not_exists"
)

// Valid reports whether the operator is one of the supported predicates.
func (o Operator) Valid() bool {
	switch o {
	case OperatorEquals, OperatorNotEquals, OperatorExists, OperatorNotExists:
		return true
	}
	return false
}

// Condition is a structured predicate evaluated against case metadata.
//
// When RequiresField is set the condition is a conditional requirement: the
// base predicate acts as a guard, and only when the guard holds must
// RequiresField be present in the metadata. A false guard satisfies the
// condition.
type Condition struct {
	Field         string      `json:"field" yaml:"field"`
	Operator      Operator    `json:"operator" yaml:"operator"`
	Value         interface{} `json:"value,omitempty" yaml:"value,omitempty"`
	RequiresField string      `json:"requires_field,omitempty" yaml:"requires_field,omitempty"`
}

// Validate rejects malformed condition definitions. It runs once at rule-table
// construction; Evaluate assumes a validated condition and never fails.
func (c Condition) Validate() error {
	if c.Field == "" {
		return fmt.Errorf("condition field must not be empty")
	}
	if !c.Operator.Valid() {
		return fmt.Errorf("unknown condition operator: %q", c.Operator)
	}
	switch c.Operator {
	case OperatorEquals, OperatorNotEquals:
		if c.Value == nil {
			return fmt.Errorf("condition on field %q: operator %s requires a value", c.Field, c.Operator)
		}
	case OperatorExists, OperatorNotExists:
		if c.Value != nil {
			return fmt.Errorf("condition on field %q: operator %s does not take a value", c.Field, c.Operator)
		}
	}
	return nil
}

// Conditional reports whether the condition is a guard-plus-requirement pair.
func (c Condition) Conditional() bool {
	return c.RequiresField != ""
}

// Evaluate applies the condition to the metadata snapshot. Pure; no side
// effects.
func (c Condition) Evaluate(metadata map[string]interface{}) bool {
	guard := c.evaluateBase(metadata)
	if !c.Conditional() {
		return guard
	}
	if !guard {
		return true
	}
	return fieldPresent(metadata, c.RequiresField)
}

func (c Condition) evaluateBase(metadata map[string]interface{}) bool {
	switch c.Operator {
	case OperatorEquals:
		return valuesEqual(metadata[c.Field], c.Value)
	case OperatorNotEquals:
		return !valuesEqual(metadata[c.Field], c.Value)
	case OperatorExists:
		return fieldPresent(metadata, c.Field)
	case OperatorNotExists:
		return !fieldPresent(metadata, c.Field)
	}
	// Unreachable for validated conditions.
	return false
}

// FailureMessage renders the error appended when the condition does not hold.
// Conditional requirements get their own wording so callers can distinguish
// them from unconditionally missing fields.
func (c Condition) FailureMessage() string {
	if c.Conditional() {
		return fmt.Sprintf("Conditional requirement not met: %s is required when %s %s %v",
			c.RequiresField, c.Field, c.Operator, c.Value)
	}
	if c.Value == nil {
		return fmt.Sprintf("Condition failed: %s %s", c.Field, c.Operator)
	}
	return fmt.Sprintf("Condition failed: %s %s %v", c.Field, c.Operator, c.Value)
}

// fieldPresent reports whether the metadata field exists and carries a
// non-nil, non-empty-string value.
func fieldPresent(metadata map[string]interface{}, field string) bool {
	value, ok := metadata[field]
	if !ok || value == nil {
		return false
	}
	if s, isString := value.(string); isString && s == "" {
		return false
	}
	return true
}

// valuesEqual compares a metadata value against a rule value. JSON decoding
// turns all numbers into float64 while rule literals may be ints, so numeric
// values are compared by magnitude.
func valuesEqual(a, b interface{}) bool {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return af == bf
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
