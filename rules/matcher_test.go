package rules

import (
	"testing"
	"time"
)

func treeRule(id string, conds ...Condition) *Rule {
	return &Rule{
		ID:        id,
		Kind:      KindTree,
		Tree:      Tree{All: conds},
		Active:    true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// TestMatchProfileRanking verifies the ordering of batch results:
// descending best score, ties broken by ascending title.
func TestMatchProfileRanking(t *testing.T) {
	entries := []SchemeEntry{
		{
			Scheme: Scheme{ID: "s1", Title: "Zeta Pension"},
			Rules:  []*Rule{treeRule("r1", Condition{Field: "age", Op: ">=", Value: 18})},
		},
		{
			Scheme: Scheme{ID: "s2", Title: "Beta Grant"},
			Rules: []*Rule{treeRule("r2",
				Condition{Field: "gender", Op: "==", Value: "female"},
				Condition{Field: "income", Op: "<=", Value: 40000})},
		},
		{
			Scheme: Scheme{ID: "s3", Title: "Alpha Grant"},
			Rules: []*Rule{treeRule("r3",
				Condition{Field: "gender", Op: "==", Value: "female"},
				Condition{Field: "income", Op: "<=", Value: 45000})},
		},
	}
	profile := Profile{"age": 30, "gender": "female", "income": 50000}

	results := MatchProfile(profile, entries)

	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	wantTitles := []string{"Zeta Pension", "Alpha Grant", "Beta Grant"}
	for i, want := range wantTitles {
		if results[i].Title != want {
			t.Errorf("results[%d].Title = %q, want %q", i, results[i].Title, want)
		}
	}
	if results[0].Score != 1.0 {
		t.Errorf("top score = %v, want 1.0", results[0].Score)
	}
	if results[1].Score != 0.5 || results[2].Score != 0.5 {
		t.Errorf("tied scores = %v, %v, want 0.5 each", results[1].Score, results[2].Score)
	}
}

// TestMatchProfileBestRule verifies that the highest-scoring rule of a
// scheme supplies the verdict.
func TestMatchProfileBestRule(t *testing.T) {
	entries := []SchemeEntry{{
		Scheme: Scheme{ID: "s1", Title: "Farm Support"},
		Rules: []*Rule{
			treeRule("weak",
				Condition{Field: "age", Op: ">=", Value: 18},
				Condition{Field: "income", Op: "<=", Value: 10000}),
			treeRule("strong",
				Condition{Field: "age", Op: ">=", Value: 18}),
		},
	}}

	results := MatchProfile(Profile{"age": 30, "income": 50000}, entries)

	if results[0].RuleID != "strong" {
		t.Errorf("RuleID = %q, want %q", results[0].RuleID, "strong")
	}
	if results[0].Score != 1.0 {
		t.Errorf("score = %v, want 1.0", results[0].Score)
	}
}

// TestMatchProfileTieKeepsFirst verifies the strict-improvement rule:
// a later rule with an equal score does not displace the first one.
func TestMatchProfileTieKeepsFirst(t *testing.T) {
	entries := []SchemeEntry{{
		Scheme: Scheme{ID: "s1", Title: "Farm Support"},
		Rules: []*Rule{
			treeRule("first", Condition{Field: "age", Op: ">=", Value: 18}),
			treeRule("second", Condition{Field: "age", Op: ">=", Value: 21}),
		},
	}}

	results := MatchProfile(Profile{"age": 30}, entries)

	if results[0].RuleID != "first" {
		t.Errorf("RuleID = %q, want %q (ties keep the first rule)", results[0].RuleID, "first")
	}
}

// TestMatchProfileNoRules verifies the placeholder verdict for schemes
// without any stored rule.
func TestMatchProfileNoRules(t *testing.T) {
	entries := []SchemeEntry{{
		Scheme: Scheme{ID: "s1", Title: "New Scheme", Description: "Not yet parsed."},
	}}

	results := MatchProfile(Profile{"age": 30}, entries)

	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	sv := results[0]
	if sv.Note != NoRuleNote {
		t.Errorf("note = %q, want %q", sv.Note, NoRuleNote)
	}
	if sv.Score != 0.0 || sv.Label != LabelNotEligible {
		t.Errorf("verdict = %+v, want zero-score Not Eligible", sv)
	}
	if sv.RuleID != "" {
		t.Errorf("RuleID = %q, want empty", sv.RuleID)
	}
}

// TestMatchProfileRuleMetadata verifies that the winning rule's snippet
// and confidence are surfaced on the verdict.
func TestMatchProfileRuleMetadata(t *testing.T) {
	rule := treeRule("r1", Condition{Field: "age", Op: ">=", Value: 18})
	rule.Snippet = "Applicants over 18 may apply."
	rule.Confidence = 1.0

	entries := []SchemeEntry{{
		Scheme: Scheme{ID: "s1", Title: "Youth Grant"},
		Rules:  []*Rule{rule},
	}}

	results := MatchProfile(Profile{"age": 30}, entries)

	if results[0].Snippet != rule.Snippet {
		t.Errorf("snippet = %q, want %q", results[0].Snippet, rule.Snippet)
	}
	if results[0].Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0", results[0].Confidence)
	}
	if len(results[0].Outcomes) != 1 {
		t.Errorf("outcomes = %+v, want the winning rule's single outcome", results[0].Outcomes)
	}
}

// TestMatchProfileEmptyEntries verifies that no schemes means an empty,
// non-nil result set.
func TestMatchProfileEmptyEntries(t *testing.T) {
	results := MatchProfile(Profile{"age": 30}, nil)

	if results == nil || len(results) != 0 {
		t.Errorf("results = %v, want empty non-nil slice", results)
	}
}
