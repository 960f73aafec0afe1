package rules

import (
	"fmt"
	"strconv"
	"strings"
)

// Profile maps field names to applicant-supplied values. Values arrive
// untyped from forms or JSON bodies and are coerced at comparison time;
// a missing or nil field is neutral, never a failure.
type Profile map[string]any

// Profile fields the matcher knows about.
const (
	FieldAge            = "age"
	FieldIncome         = "income"
	FieldGender         = "gender"
	FieldOccupation     = "occupation"
	FieldCaste          = "caste"
	FieldState          = "state"
	FieldHasBankAccount = "has_bank_account"
)

var knownFields = map[string]bool{
	FieldAge:            true,
	FieldIncome:         true,
	FieldGender:         true,
	FieldOccupation:     true,
	FieldCaste:          true,
	FieldState:          true,
	FieldHasBankAccount: true,
}

// Normalize returns a copy of the profile with unknown fields dropped
// and empty values removed, so that blank form inputs evaluate as
// missing rather than as empty strings.
func (p Profile) Normalize() Profile {
	out := make(Profile, len(p))
	for k, v := range p {
		key := strings.ToLower(strings.TrimSpace(k))
		if !knownFields[key] {
			continue
		}
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		out[key] = v
	}
	return out
}

// Get returns the profile value for a field, treating nil as absent.
func (p Profile) Get(field string) (any, bool) {
	v, ok := p[field]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// castNumber converts a rule or profile value to a float64 for numeric
// comparison. Commas are stripped from string forms. The second return
// is false when the value cannot be interpreted as a number.
func castNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case bool:
		return 0, false
	default:
		s := strings.ReplaceAll(strings.TrimSpace(toString(v)), ",", "")
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
}

// castBool coerces a value for equality against a boolean rule value.
// Accepts bools, non-zero numbers, and the usual string forms.
func castBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case int:
		return b != 0
	case int64:
		return b != 0
	case float64:
		return b != 0
	default:
		switch strings.ToLower(strings.TrimSpace(toString(v))) {
		case "true", "yes", "y", "1":
			return true
		}
		return false
	}
}

// toStringList lowercases a value into a list form for set membership:
// a scalar becomes a one-element list.
func toStringList(v any) []string {
	switch list := v.(type) {
	case []string:
		out := make([]string, len(list))
		for i, s := range list {
			out[i] = strings.ToLower(s)
		}
		return out
	case []any:
		out := make([]string, len(list))
		for i, e := range list {
			out[i] = strings.ToLower(toString(e))
		}
		return out
	default:
		return []string{strings.ToLower(toString(v))}
	}
}

// toString renders a scalar the way it should appear in explanations.
func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	case []string:
		return "[" + strings.Join(s, ", ") + "]"
	case []any:
		parts := make([]string, len(s))
		for i, e := range s {
			parts[i] = toString(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprintf("%v", v)
	}
}
