package rules

import (
	"math"
	"sort"
	"strings"
)

// Extractor converts free-text eligibility descriptions into condition
// trees. It is stateless and safe for concurrent use; all pattern state
// lives in package-level compiled regexps.
type Extractor struct{}

// NewExtractor returns an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract runs every sub-extractor over the text and collects the
// recognized conditions into a conjunctive tree. Sub-extractors are
// independent; their order fixes the order of conditions (and therefore
// of explanations downstream). Confidence is 1.0 when anything was
// recognized, 0.0 otherwise. Malformed or empty input never errors, it
// just extracts nothing.
func (e *Extractor) Extract(text string) ExtractionResult {
	text = strings.TrimSpace(text)

	conditions := make([]Condition, 0, 8)
	conditions = append(conditions, e.extractAge(text)...)
	conditions = append(conditions, e.extractIncome(text)...)
	conditions = append(conditions, e.extractCategorical(text)...)
	conditions = append(conditions, e.extractCaste(text)...)

	confidence := 1.0
	if len(conditions) == 0 {
		confidence = 0.0
	}

	return ExtractionResult{
		Tree:       Tree{All: conditions},
		Confidence: confidence,
	}
}

// extractAge recognizes, in priority order: an explicit "between A and
// B" phrase, a bare "A-B" range, and otherwise independent lower and
// upper bound phrases (both may fire).
func (e *Extractor) extractAge(text string) []Condition {
	if m := ageBetweenRe.FindStringSubmatch(text); m != nil {
		if lo, okLo := cleanAmount(m[1]); okLo {
			if hi, okHi := cleanAmount(m[2]); okHi {
				return []Condition{
					{Field: FieldAge, Op: OpGreaterEqual, Value: int(lo)},
					{Field: FieldAge, Op: OpLessEqual, Value: int(hi)},
				}
			}
		}
	}
	if m := ageRangeRe.FindStringSubmatch(text); m != nil {
		if lo, okLo := cleanAmount(m[1]); okLo {
			if hi, okHi := cleanAmount(m[2]); okHi {
				return []Condition{
					{Field: FieldAge, Op: OpGreaterEqual, Value: int(lo)},
					{Field: FieldAge, Op: OpLessEqual, Value: int(hi)},
				}
			}
		}
	}

	var conditions []Condition
	if m := ageMinRe.FindStringSubmatch(text); m != nil {
		if lo, ok := cleanAmount(m[1]); ok {
			conditions = append(conditions, Condition{Field: FieldAge, Op: OpGreaterEqual, Value: int(lo)})
		}
	}
	if m := ageMaxRe.FindStringSubmatch(text); m != nil {
		if hi, ok := cleanAmount(m[1]); ok {
			conditions = append(conditions, Condition{Field: FieldAge, Op: OpLessEqual, Value: int(hi)})
		}
	}
	return conditions
}

// extractIncome recognizes a maximum-income phrase and, independently,
// a minimum-income phrase. Currency symbols and commas are stripped
// before parsing; a trailing magnitude word does not scale the amount.
func (e *Extractor) extractIncome(text string) []Condition {
	var conditions []Condition
	if m := incomeMaxRe.FindStringSubmatch(text); m != nil {
		if amt, ok := cleanAmount(m[1]); ok {
			conditions = append(conditions, Condition{Field: FieldIncome, Op: OpLessEqual, Value: numberValue(amt)})
		}
	}
	if m := incomeMinRe.FindStringSubmatch(text); m != nil {
		if amt, ok := cleanAmount(m[1]); ok {
			conditions = append(conditions, Condition{Field: FieldIncome, Op: OpGreaterEqual, Value: numberValue(amt)})
		}
	}
	return conditions
}

// extractCategorical covers occupations, exclusion lists, gender,
// residency and document requirements. The exclusion set is computed
// first so that occupations mentioned only as "not eligible" are kept
// out of the positive list.
func (e *Extractor) extractCategorical(text string) []Condition {
	var conditions []Condition

	excluded := map[string]bool{}
	for _, m := range notEligibleRe.FindAllStringSubmatch(text, -1) {
		group := m[1]
		if group == "" {
			group = m[2]
		}
		group = strings.TrimSpace(group)
		if group == "" {
			continue
		}
		for _, part := range listSplitRe.Split(group, -1) {
			if norm := normalizeToken(part); norm != "" {
				excluded[norm] = true
			}
		}
	}

	positive := map[string]bool{}
	for _, m := range occupationRe.FindAllStringSubmatch(text, -1) {
		norm := normalizeToken(m[1])
		if norm != "" && !excluded[norm] {
			positive[norm] = true
		}
	}
	if len(positive) > 0 {
		conditions = append(conditions, Condition{Field: FieldOccupation, Op: OpIn, Value: sortedKeys(positive)})
	}
	if len(excluded) > 0 {
		conditions = append(conditions, Condition{Field: FieldOccupation, Op: OpNotIn, Value: sortedKeys(excluded)})
	}

	// Gender: female-coded terms win over male-coded terms when both
	// appear in the text.
	if matches := genderRe.FindAllString(text, -1); len(matches) > 0 {
		female, male := false, false
		for _, g := range matches {
			switch strings.ToLower(g) {
			case "female", "women", "woman", "widow", "widows":
				female = true
			case "male", "men", "man":
				male = true
			}
		}
		if female {
			conditions = append(conditions, Condition{Field: FieldGender, Op: OpEqual, Value: "female"})
		} else if male {
			conditions = append(conditions, Condition{Field: FieldGender, Op: OpEqual, Value: "male"})
		}
	}

	// Residency: only the first "resident of X" phrase is captured.
	if m := stateRe.FindStringSubmatch(text); m != nil {
		location := strings.TrimSpace(m[1])
		location = strings.TrimSpace(trailingStateRe.ReplaceAllString(location, ""))
		if location != "" {
			conditions = append(conditions, Condition{Field: FieldState, Op: OpIn, Value: []string{location}})
		}
	}

	if bankAccountRe.MatchString(text) {
		conditions = append(conditions, Condition{Field: FieldHasBankAccount, Op: OpEqual, Value: true})
	}

	return conditions
}

// extractCaste emits one "in" condition listing whichever of the four
// reservation categories appear in the text.
func (e *Extractor) extractCaste(text string) []Condition {
	var labels []string
	if casteSCRe.MatchString(text) {
		labels = append(labels, casteSC)
	}
	if casteSTRe.MatchString(text) {
		labels = append(labels, casteST)
	}
	if casteOBCRe.MatchString(text) {
		labels = append(labels, casteOBC)
	}
	if casteGeneralRe.MatchString(text) {
		labels = append(labels, casteGeneral)
	}
	if len(labels) == 0 {
		return nil
	}
	return []Condition{{Field: FieldCaste, Op: OpIn, Value: labels}}
}

// numberValue keeps whole amounts as ints so serialized trees read
// naturally; fractional amounts stay floats.
func numberValue(f float64) any {
	if f == math.Trunc(f) {
		return int(f)
	}
	return f
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
