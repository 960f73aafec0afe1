package rules

import (
	"fmt"
	"regexp"
)

// Structural validation for condition trees. The evaluator assumes
// well-formed input from the extraction boundary; trees arriving from
// the administrative edit boundary (free-form JSON) go through
// ValidateTree before they are stored.

const (
	maxConditionsPerTree = 200
	maxListValues        = 100
)

var validOperators = map[string]bool{
	OpGreater:      true,
	OpLess:         true,
	OpGreaterEqual: true,
	OpLessEqual:    true,
	OpEqual:        true,
	OpNotEqual:     true,
	OpIn:           true,
	OpNotIn:        true,
}

var validFieldName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ValidateTree checks that a tree is structurally sound: at most one of
// all/any populated, known operators, well-formed field names, and
// serializable scalar (or list-of-scalar) values. An empty tree is
// accepted; it evaluates to a zero-score Not Eligible verdict rather
// than vacuous truth.
func ValidateTree(tree Tree) error {
	if tree.All != nil && tree.Any != nil {
		return fmt.Errorf("tree cannot have both 'all' and 'any' condition lists")
	}

	conditions, _ := tree.Conditions()
	if len(conditions) > maxConditionsPerTree {
		return fmt.Errorf("tree contains %d conditions, maximum allowed is %d", len(conditions), maxConditionsPerTree)
	}

	for i, cond := range conditions {
		if err := validateCondition(cond); err != nil {
			return fmt.Errorf("condition %d: %w", i, err)
		}
	}

	return nil
}

func validateCondition(cond Condition) error {
	if cond.Field == "" {
		return fmt.Errorf("field name cannot be empty")
	}
	if !validFieldName.MatchString(cond.Field) {
		return fmt.Errorf("invalid field name %q: must match ^[a-z_][a-z0-9_]*$", cond.Field)
	}
	if !validOperators[cond.Op] {
		return fmt.Errorf("unknown operator %q for field %q", cond.Op, cond.Field)
	}

	switch cond.Op {
	case OpIn, OpNotIn:
		return validateListValue(cond)
	default:
		return validateScalarValue(cond.Value, cond.Field)
	}
}

func validateListValue(cond Condition) error {
	switch list := cond.Value.(type) {
	case []string:
		if len(list) > maxListValues {
			return fmt.Errorf("field %q: value list has %d entries, maximum allowed is %d", cond.Field, len(list), maxListValues)
		}
		return nil
	case []any:
		if len(list) > maxListValues {
			return fmt.Errorf("field %q: value list has %d entries, maximum allowed is %d", cond.Field, len(list), maxListValues)
		}
		for _, e := range list {
			if err := validateScalarValue(e, cond.Field); err != nil {
				return err
			}
		}
		return nil
	default:
		// A scalar is accepted for membership operators; it is
		// treated as a one-element list at evaluation time.
		return validateScalarValue(cond.Value, cond.Field)
	}
}

func validateScalarValue(v any, field string) error {
	switch v.(type) {
	case string, bool, int, int64, float32, float64:
		return nil
	case nil:
		return fmt.Errorf("field %q has a null value", field)
	default:
		return fmt.Errorf("field %q has unsupported value type %T (must be string, number, or boolean)", field, v)
	}
}
