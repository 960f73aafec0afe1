package rules

import (
	"reflect"
	"testing"
)

// TestExtractAgeBetween verifies that an explicit "between A and B"
// phrase yields a pair of bound conditions.
func TestExtractAgeBetween(t *testing.T) {
	e := NewExtractor()

	result := e.Extract("Applicants aged between 18 and 35 may apply.")

	want := []Condition{
		{Field: "age", Op: ">=", Value: 18},
		{Field: "age", Op: "<=", Value: 35},
	}
	if !reflect.DeepEqual(result.Tree.All, want) {
		t.Errorf("Extract() conditions = %+v, want %+v", result.Tree.All, want)
	}
	if result.Confidence != 1.0 {
		t.Errorf("Confidence = %v, want 1.0", result.Confidence)
	}
}

// TestExtractAgeBareRange verifies that a bare "A-B years" range is
// recognized when no "between" phrase is present.
func TestExtractAgeBareRange(t *testing.T) {
	e := NewExtractor()

	result := e.Extract("Open to citizens 21-40 years of age.")

	want := []Condition{
		{Field: "age", Op: ">=", Value: 21},
		{Field: "age", Op: "<=", Value: 40},
	}
	if !reflect.DeepEqual(result.Tree.All, want) {
		t.Errorf("Extract() conditions = %+v, want %+v", result.Tree.All, want)
	}
}

// TestExtractAgeBounds verifies that independent lower and upper bound
// phrases both fire when no range phrase matches.
func TestExtractAgeBounds(t *testing.T) {
	e := NewExtractor()

	testCases := []struct {
		name string
		text string
		want []Condition
	}{
		{
			name: "lower bound only",
			text: "Health aid for citizens above 60 years.",
			want: []Condition{{Field: "age", Op: ">=", Value: 60}},
		},
		{
			name: "upper bound only",
			text: "Applicants under 25 qualify for the stipend.",
			want: []Condition{{Field: "age", Op: "<=", Value: 25}},
		},
		{
			name: "both bounds",
			text: "Age over 18 required. Applicants not exceeding 45 preferred.",
			want: []Condition{
				{Field: "age", Op: ">=", Value: 18},
				{Field: "age", Op: "<=", Value: 45},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := e.Extract(tc.text)
			if !reflect.DeepEqual(result.Tree.All, tc.want) {
				t.Errorf("Extract(%q) = %+v, want %+v", tc.text, result.Tree.All, tc.want)
			}
		})
	}
}

// TestExtractIncomeMax verifies maximum-income phrases, including
// thousands separators and currency symbols.
func TestExtractIncomeMax(t *testing.T) {
	e := NewExtractor()

	testCases := []struct {
		name string
		text string
		want any
	}{
		{"plain amount", "Annual family income below 500000.", 500000},
		{"comma separated", "Family income should not exceed 2,50,000 per annum.", 250000},
		{"currency symbol", "Income less than Rs. 300000.", 300000},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := e.Extract(tc.text)
			if len(result.Tree.All) != 1 {
				t.Fatalf("Extract(%q) yielded %d conditions, want 1: %+v", tc.text, len(result.Tree.All), result.Tree.All)
			}
			cond := result.Tree.All[0]
			if cond.Field != "income" || cond.Op != "<=" {
				t.Errorf("condition = %+v, want income <=", cond)
			}
			if !reflect.DeepEqual(cond.Value, tc.want) {
				t.Errorf("value = %v (%T), want %v", cond.Value, cond.Value, tc.want)
			}
		})
	}
}

// TestExtractIncomeMagnitudeNotScaled records the known limitation that
// a magnitude word after the amount does not scale the parsed number:
// "2.5 lakh" is extracted as 2.5, not 250000.
func TestExtractIncomeMagnitudeNotScaled(t *testing.T) {
	e := NewExtractor()

	result := e.Extract("Annual income less than Rs. 2.5 lakh.")

	if len(result.Tree.All) != 1 {
		t.Fatalf("yielded %d conditions, want 1: %+v", len(result.Tree.All), result.Tree.All)
	}
	if got := result.Tree.All[0].Value; !reflect.DeepEqual(got, 2.5) {
		t.Errorf("value = %v (%T), want 2.5 (magnitude word is not applied)", got, got)
	}
}

// TestExtractIncomeMinAndMax verifies that minimum and maximum income
// phrases can both fire on the same text.
func TestExtractIncomeMinAndMax(t *testing.T) {
	e := NewExtractor()

	result := e.Extract("Family income should not exceed 800000. Income must be 100000 or above.")

	want := []Condition{
		{Field: "income", Op: "<=", Value: 800000},
		{Field: "income", Op: ">=", Value: 100000},
	}
	if !reflect.DeepEqual(result.Tree.All, want) {
		t.Errorf("Extract() conditions = %+v, want %+v", result.Tree.All, want)
	}
}

// TestExtractGender verifies gender keyword extraction, including the
// rule that female-coded terms win when both genders are mentioned.
func TestExtractGender(t *testing.T) {
	e := NewExtractor()

	testCases := []struct {
		name string
		text string
		want string
	}{
		{"women", "Scheme for women in rural areas.", "female"},
		{"widow", "Pension support for widows.", "female"},
		{"men", "Skill training for young men.", "male"},
		{"both mentioned", "Open to women; men may apply to the parallel scheme.", "female"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := e.Extract(tc.text)
			var found *Condition
			for i := range result.Tree.All {
				if result.Tree.All[i].Field == "gender" {
					found = &result.Tree.All[i]
				}
			}
			if found == nil {
				t.Fatalf("Extract(%q) produced no gender condition: %+v", tc.text, result.Tree.All)
			}
			if found.Op != "==" || found.Value != tc.want {
				t.Errorf("gender condition = %+v, want == %s", found, tc.want)
			}
		})
	}
}

// TestExtractOccupations verifies vocabulary matching with plural forms
// and normalization.
func TestExtractOccupations(t *testing.T) {
	e := NewExtractor()

	result := e.Extract("Support for farmers and drivers in rural districts.")

	var occ *Condition
	for i := range result.Tree.All {
		if result.Tree.All[i].Field == "occupation" && result.Tree.All[i].Op == "in" {
			occ = &result.Tree.All[i]
		}
	}
	if occ == nil {
		t.Fatalf("no occupation condition: %+v", result.Tree.All)
	}
	want := []string{"driver", "farmer"}
	if !reflect.DeepEqual(occ.Value, want) {
		t.Errorf("occupation value = %v, want %v", occ.Value, want)
	}
}

// TestExtractExclusions verifies that "not eligible" phrases produce a
// not_in condition and filter the positive occupation list.
func TestExtractExclusions(t *testing.T) {
	e := NewExtractor()

	result := e.Extract("Farmers are eligible. Government employees are not eligible.")

	var positive, excluded *Condition
	for i := range result.Tree.All {
		cond := &result.Tree.All[i]
		if cond.Field != "occupation" {
			continue
		}
		switch cond.Op {
		case "in":
			positive = cond
		case "not_in":
			excluded = cond
		}
	}

	if positive == nil {
		t.Fatalf("no positive occupation condition: %+v", result.Tree.All)
	}
	if got, want := positive.Value, []string{"farmer"}; !reflect.DeepEqual(got, want) {
		t.Errorf("positive occupations = %v, want %v", got, want)
	}

	if excluded == nil {
		t.Fatalf("no exclusion condition: %+v", result.Tree.All)
	}
	if got, want := excluded.Value, []string{"government employee"}; !reflect.DeepEqual(got, want) {
		t.Errorf("excluded occupations = %v, want %v", got, want)
	}
}

// TestExtractWomenFarmersScenario covers the combined case: a positive
// occupation, a gender condition, and an exclusion set derived from the
// "not eligible" phrase.
func TestExtractWomenFarmersScenario(t *testing.T) {
	e := NewExtractor()

	result := e.Extract("Women farmers are eligible; men are not eligible for this scheme.")

	want := []Condition{
		{Field: "occupation", Op: "in", Value: []string{"farmer"}},
		{Field: "occupation", Op: "not_in", Value: []string{"men"}},
		{Field: "gender", Op: "==", Value: "female"},
	}
	if !reflect.DeepEqual(result.Tree.All, want) {
		t.Errorf("Extract() conditions = %+v, want %+v", result.Tree.All, want)
	}
	if result.Confidence != 1.0 {
		t.Errorf("Confidence = %v, want 1.0", result.Confidence)
	}
}

// TestExtractResidency verifies that only the first residency phrase is
// captured and that a trailing "state" suffix is stripped.
func TestExtractResidency(t *testing.T) {
	e := NewExtractor()

	testCases := []struct {
		name string
		text string
		want []string
	}{
		{"simple", "Must be a resident of Karnataka.", []string{"Karnataka"}},
		{"state suffix", "Must be a resident of Maharashtra state.", []string{"Maharashtra"}},
		{"first match only", "Must be a resident of Karnataka. Also open to any resident of Kerala.", []string{"Karnataka"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := e.Extract(tc.text)
			var state *Condition
			for i := range result.Tree.All {
				if result.Tree.All[i].Field == "state" {
					state = &result.Tree.All[i]
				}
			}
			if state == nil {
				t.Fatalf("no state condition: %+v", result.Tree.All)
			}
			if state.Op != "in" || !reflect.DeepEqual(state.Value, tc.want) {
				t.Errorf("state condition = %+v, want in %v", state, tc.want)
			}
		})
	}
}

// TestExtractCaste verifies that matched reservation categories are
// emitted as a single in condition in fixed order.
func TestExtractCaste(t *testing.T) {
	e := NewExtractor()

	result := e.Extract("Reserved for Scheduled Caste and Scheduled Tribe applicants.")

	var caste *Condition
	for i := range result.Tree.All {
		if result.Tree.All[i].Field == "caste" {
			caste = &result.Tree.All[i]
		}
	}
	if caste == nil {
		t.Fatalf("no caste condition: %+v", result.Tree.All)
	}
	want := []string{"Scheduled Caste (SC)", "Scheduled Tribe (ST)"}
	if caste.Op != "in" || !reflect.DeepEqual(caste.Value, want) {
		t.Errorf("caste condition = %+v, want in %v", caste, want)
	}
}

// TestExtractBankAccountRequirement verifies the document requirement
// pattern.
func TestExtractBankAccountRequirement(t *testing.T) {
	e := NewExtractor()

	result := e.Extract("Applicants must have a bank account to receive payments.")

	want := []Condition{{Field: "has_bank_account", Op: "==", Value: true}}
	if !reflect.DeepEqual(result.Tree.All, want) {
		t.Errorf("Extract() conditions = %+v, want %+v", result.Tree.All, want)
	}
}

// TestExtractFullScenario covers the canonical combined text: age range
// plus income ceiling.
func TestExtractFullScenario(t *testing.T) {
	e := NewExtractor()

	result := e.Extract("Applicants must be between 18 and 35 years old with annual family income below 500000.")

	want := []Condition{
		{Field: "age", Op: ">=", Value: 18},
		{Field: "age", Op: "<=", Value: 35},
		{Field: "income", Op: "<=", Value: 500000},
	}
	if !reflect.DeepEqual(result.Tree.All, want) {
		t.Errorf("Extract() conditions = %+v, want %+v", result.Tree.All, want)
	}
	if result.Confidence != 1.0 {
		t.Errorf("Confidence = %v, want 1.0", result.Confidence)
	}
}

// TestExtractNothingRecognized verifies that unrecognized text is not
// an error: it yields an empty conjunction with zero confidence.
func TestExtractNothingRecognized(t *testing.T) {
	e := NewExtractor()

	testCases := []struct {
		name string
		text string
	}{
		{"office visit", "Please visit our office for details."},
		{"empty", ""},
		{"whitespace", "   \n\t "},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := e.Extract(tc.text)
			if len(result.Tree.All) != 0 {
				t.Errorf("Extract(%q) = %+v, want no conditions", tc.text, result.Tree.All)
			}
			if result.Confidence != 0.0 {
				t.Errorf("Confidence = %v, want 0.0", result.Confidence)
			}
			if result.Tree.Any != nil {
				t.Errorf("extraction should never produce a disjunction")
			}
		})
	}
}
