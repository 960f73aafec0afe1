package rules

import (
	"regexp"
	"strings"
)

// Pattern library: the fixed set of recognizers the extractor runs over
// eligibility text. All patterns are compiled once at package init and
// are safe for concurrent use.

// occupationVocab is the fixed vocabulary of job titles recognized in
// eligibility text. Matching is case-insensitive with an optional
// trailing plural "s".
var occupationVocab = []string{
	"farmer", "engineer", "software developer", "doctor", "nurse",
	"teacher", "professor", "student", "labourer", "shopkeeper",
	"manager", "police", "soldier", "army", "government employee",
	"civil servant", "artisan", "fisherman", "driver", "chef",
	"electrician", "plumber", "carpenter", "accountant", "banker",
	"business owner", "entrepreneur", "cleaner", "security guard",
	"architect", "journalist", "photographer", "lawyer", "advocate",
	"researcher", "scientist", "delivery agent", "rickshaw puller",
	"tailor", "mechanic", "welder", "data entry operator", "clerk",
	"home maker", "housewife", "unemployed", "retired",
}

// Caste category labels, emitted in this fixed order whenever the
// corresponding pattern matches.
const (
	casteSC      = "Scheduled Caste (SC)"
	casteST      = "Scheduled Tribe (ST)"
	casteOBC     = "Other Backward Classes (OBC)"
	casteGeneral = "General/Unreserved"
)

var (
	ageBetweenRe = regexp.MustCompile(`(?i)(?:age(?:d)?\s*(?:of)?\s*)?(?:between|from)\s*(\d{1,3})\s*(?:-|–|—|\sto\s|and)\s*(\d{1,3})`)
	ageRangeRe   = regexp.MustCompile(`(?i)(\d{1,3})\s*(?:-|–|—)\s*(\d{1,3})\s*(?:years?)?`)
	ageMinRe     = regexp.MustCompile(`(?i)(?:age\s*|applicant\s*|applicants\s*|applicant's\s*)?(?:over|above|at least|>=)\s*(\d{1,3})`)
	ageMaxRe     = regexp.MustCompile(`(?i)(?:age\s*|applicant\s*|applicants\s*|applicant's\s*)?(?:under|below|less than|<=|not exceeding)\s*(\d{1,3})`)

	// The magnitude suffix (lakh, thousand, ...) is matched so the
	// number is captured cleanly, but the amount is not scaled by it.
	incomeMaxRe = regexp.MustCompile(`(?i)(?:family's\s+|annual\s+|annual\s+family\s+|family\s+annual\s+)?(?:income|earnings|annual income|family income|total family income)\s*(?:should be|should not exceed|should not be more than|should be less than|is|are|:)?\s*(?:less than|below|under|not exceeding)?\s*(?:₹|Rs\.?|INR)?\s*([\d,]+(?:\.\d+)?)\s*(?:lakh|lakhs|lacs|thousand|k|per annum|per year|/year|pa|p\.a\.|annum)?`)
	incomeMinRe = regexp.MustCompile(`(?i)(?:income|earnings|annual income|family income)\s*(?:should be|should exceed|must be|more than|over)\s*(?:₹|Rs\.?|INR)?\s*([\d,]+(?:\.\d+)?)`)

	genderRe = regexp.MustCompile(`(?i)\b(women|woman|female|widow|widows|men|man|male)\b`)

	stateRe = regexp.MustCompile(`(?i)\bresident\s+(?:of|in)?\s+([A-Z]?[a-zA-Z0-9&\-\s]+?)(?:[.\n,;]|$)`)

	notEligibleRe = regexp.MustCompile(`(?i)([A-Za-z0-9\s\-&]+?)\s+(?:are|is|were|being|be)\s+not\s+eligible|not\s+eligible\s+for\s+([A-Za-z0-9\s&\-]+)`)

	casteSCRe      = regexp.MustCompile(`(?i)\b(sc|scheduled\s+caste|scheduled\s+castes)\b`)
	casteSTRe      = regexp.MustCompile(`(?i)\b(st|scheduled\s+tribe|scheduled\s+tribes)\b`)
	casteOBCRe     = regexp.MustCompile(`(?i)\b(obc|other\s+backward\s+class|backward\s+class)\b`)
	casteGeneralRe = regexp.MustCompile(`(?i)\b(general|unreserved|ur)\b`)

	bankAccountRe = regexp.MustCompile(`(?i)(?:should have|must have|requires?)\s+(?:a\s+)?(?:savings\s+bank\s+account|bank account|post office savings bank account|bank account with an aadhaar link)`)

	occupationRe = compileOccupationPattern()

	trailingStateRe = regexp.MustCompile(`(?i)\s+state$`)
	listSplitRe     = regexp.MustCompile(`(?i),|\band\b`)
)

func compileOccupationPattern() *regexp.Regexp {
	quoted := make([]string, len(occupationVocab))
	for i, job := range occupationVocab {
		quoted[i] = regexp.QuoteMeta(job)
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)(?:s)?\b`)
}

// normalizeToken lowercases a captured token, strips a trailing "state"
// suffix, and naively singularizes by dropping one trailing "s".
func normalizeToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSpace(trailingStateRe.ReplaceAllString(s, ""))
	if strings.HasSuffix(s, "s") && len(s) > 3 {
		s = s[:len(s)-1]
	}
	return s
}

// cleanAmount strips thousands separators from a captured numeric token
// and parses it. Returns false when the token is not a number.
func cleanAmount(s string) (float64, bool) {
	return castNumber(s)
}
