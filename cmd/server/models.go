package main

import (
	"github.com/jayavardhan-g/govt-schemes/rules"
)

// API request and response models.

// ExtractRequest carries eligibility text to run through the extractor.
type ExtractRequest struct {
	Text string `json:"text" example:"Applicants must be between 18 and 35 years old."`
}

// ExtractResponse is the extraction preview result.
type ExtractResponse struct {
	Tree       rules.Tree `json:"tree"`
	Confidence float64    `json:"confidence" example:"1.0"`
}

// MatchRequest carries an applicant profile for matching.
type MatchRequest struct {
	Profile rules.Profile `json:"profile"`
}

// MatchResponse is the ranked list of per-scheme verdicts.
type MatchResponse struct {
	Results        []rules.SchemeVerdict `json:"results"`
	EvaluationTime string                `json:"evaluationTime" example:"1.2ms"`
}

// CreateSchemeRequest is the request body for creating or updating a
// scheme.
type CreateSchemeRequest struct {
	Title       string `json:"title" example:"Young Farmers Support Scheme"`
	State       string `json:"state,omitempty" example:"Karnataka"`
	Description string `json:"description,omitempty"`
	SourceURL   string `json:"source_url,omitempty" example:"https://gov.example/young-farmers"`
}

// CreateRuleRequest is the request body for creating or updating a
// rule. Either a condition tree or a CEL expression is supplied; when
// Kind is omitted it is inferred from which one is present.
type CreateRuleRequest struct {
	Kind       string     `json:"kind,omitempty" example:"tree"`
	Tree       rules.Tree `json:"tree,omitempty"`
	Expression string     `json:"expression,omitempty" example:"profile.age >= 18"`
	Snippet    string     `json:"snippet,omitempty"`
	Confidence float64    `json:"confidence,omitempty" example:"1.0"`
	Verified   bool       `json:"verified,omitempty"`
	Active     bool       `json:"active" example:"true"`
}

// ErrorResponse is the error body shape.
type ErrorResponse struct {
	Error   string `json:"error" example:"rule validation failed"`
	Details string `json:"details,omitempty"`
}
