package rules

import "time"

// Operator names accepted in atomic conditions.
const (
	OpGreater      = ">"
	OpLess         = "<"
	OpGreaterEqual = ">="
	OpLessEqual    = "<="
	OpEqual        = "=="
	OpNotEqual     = "!="
	OpIn           = "in"
	OpNotIn        = "not_in"
)

// Condition is one atomic comparison between a named profile field and a
// literal value. Value is a number, string, boolean, or a list of those,
// depending on the operator. A Condition is immutable once produced.
type Condition struct {
	Field string `json:"field"`
	Op    string `json:"op"`
	Value any    `json:"value"`
}

// Tree is a scheme's complete eligibility rule: a conjunction (All) or
// disjunction (Any) of atomic conditions. A tree with an Any key is
// evaluated in OR mode; everything else (including an absent key) is AND.
type Tree struct {
	All []Condition `json:"all,omitempty"`
	Any []Condition `json:"any,omitempty"`
}

// Conditions returns the child conditions and whether the tree is in
// disjunctive (any) mode.
func (t Tree) Conditions() ([]Condition, bool) {
	if t.Any != nil {
		return t.Any, true
	}
	return t.All, false
}

// ExtractionResult pairs the condition tree recognized in a piece of
// eligibility text with a confidence indicator. Confidence is coarse:
// 1.0 when at least one condition was extracted, 0.0 otherwise.
type ExtractionResult struct {
	Tree       Tree    `json:"tree"`
	Confidence float64 `json:"confidence"`
}

// Status is the outcome of evaluating one condition against one profile.
type Status string

const (
	// StatusPass means the profile satisfies the condition.
	StatusPass Status = "pass"
	// StatusFail means the profile violates the condition, or the
	// comparison could not be performed on present data.
	StatusFail Status = "fail"
	// StatusSkipped means the profile lacks the field. Neutral: it
	// counts toward neither passes nor failures.
	StatusSkipped Status = "skipped"
	// StatusError marks the degenerate empty-tree outcome.
	StatusError Status = "error"
)

// Outcome records the evaluation of a single condition, including a
// display-ready explanation. The explanation is part of the contract,
// not a debugging aid.
type Outcome struct {
	Condition    Condition `json:"condition"`
	Status       Status    `json:"status"`
	ProfileValue any       `json:"profile_value,omitempty"`
	Explanation  string    `json:"explanation"`
}

// Eligibility labels surfaced to callers. The three-way label is the
// externally meaningful verdict; the raw Eligible boolean is a coarser
// derived signal.
const (
	LabelEligible    = "Eligible"
	LabelMaybe       = "Maybe Eligible"
	LabelNotEligible = "Not Eligible"
)

// Verdict is the result of evaluating one rule tree against one profile.
// Computed fresh on every match request, never persisted as
// authoritative state.
type Verdict struct {
	Eligible bool      `json:"eligible"`
	Score    float64   `json:"score"`
	Label    string    `json:"label"`
	Outcomes []Outcome `json:"outcomes"`
}

// RuleKind distinguishes extracted condition trees from admin-authored
// CEL expressions.
type RuleKind string

const (
	KindTree       RuleKind = "tree"
	KindExpression RuleKind = "expression"
)

// Rule is a stored eligibility rule for a scheme. Tree rules carry a
// condition tree plus the snippet it was extracted from and the parser
// confidence; expression rules carry a CEL expression instead.
type Rule struct {
	ID         string    `json:"id"`
	SchemeID   string    `json:"scheme_id"`
	Kind       RuleKind  `json:"kind"`
	Tree       Tree      `json:"tree,omitempty"`
	Expression string    `json:"expression,omitempty"`
	Snippet    string    `json:"snippet,omitempty"`
	Confidence float64   `json:"confidence"`
	Verified   bool      `json:"verified"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Scheme is a government welfare scheme with the metadata captured at
// ingestion time.
type Scheme struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	State       string    `json:"state,omitempty"`
	Description string    `json:"description"`
	SourceURL   string    `json:"source_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SchemeEntry pairs a scheme with its candidate rules for batch matching.
type SchemeEntry struct {
	Scheme Scheme
	Rules  []*Rule
}

// SchemeVerdict is one ranked entry in a batch match result: the best
// rule's verdict for a scheme, or a zero-score placeholder when the
// scheme has no rules yet.
type SchemeVerdict struct {
	SchemeID    string    `json:"scheme_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Label       string    `json:"label"`
	Score       float64   `json:"score"`
	RuleID      string    `json:"rule_id,omitempty"`
	Snippet     string    `json:"snippet,omitempty"`
	Confidence  float64   `json:"confidence,omitempty"`
	Note        string    `json:"note,omitempty"`
	Outcomes    []Outcome `json:"outcomes,omitempty"`
}
