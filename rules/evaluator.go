package rules

import (
	"fmt"
	"strings"
)

// evaluateCondition evaluates one atomic condition against a profile.
// Missing data is neutral: if the profile lacks the field the outcome
// is Skipped regardless of operator. Present-but-uncoercible data is an
// explicit failure, distinguishing bad input from absent input. Every
// branch produces a display-ready explanation; no branch panics or
// returns an error.
func evaluateCondition(profile Profile, cond Condition) Outcome {
	value, present := profile.Get(cond.Field)
	if !present {
		return Outcome{
			Condition:   cond,
			Status:      StatusSkipped,
			Explanation: fmt.Sprintf("SKIPPED: profile missing field '%s'.", cond.Field),
		}
	}

	switch cond.Op {
	case OpGreater, OpLess, OpGreaterEqual, OpLessEqual:
		ruleNum, ruleOK := castNumber(cond.Value)
		profNum, profOK := castNumber(value)
		if !ruleOK || !profOK {
			return Outcome{
				Condition:    cond,
				Status:       StatusFail,
				ProfileValue: value,
				Explanation:  fmt.Sprintf("FAIL: non-numeric values for '%s'.", cond.Field),
			}
		}
		var pass bool
		switch cond.Op {
		case OpGreater:
			pass = profNum > ruleNum
		case OpLess:
			pass = profNum < ruleNum
		case OpGreaterEqual:
			pass = profNum >= ruleNum
		case OpLessEqual:
			pass = profNum <= ruleNum
		}
		return Outcome{
			Condition:    cond,
			Status:       passFail(pass),
			ProfileValue: value,
			Explanation: fmt.Sprintf("%s: %s (%s) %s %s.",
				passFailWord(pass), cond.Field, toString(numberValue(profNum)), cond.Op, toString(numberValue(ruleNum))),
		}

	case OpIn, OpNotIn:
		profValues := toStringList(value)
		ruleValues := toStringList(cond.Value)
		found := false
		for _, pv := range profValues {
			for _, rv := range ruleValues {
				if pv == rv {
					found = true
				}
			}
		}
		if cond.Op == OpIn {
			verb := "is not"
			if found {
				verb = "is"
			}
			return Outcome{
				Condition:    cond,
				Status:       passFail(found),
				ProfileValue: value,
				Explanation: fmt.Sprintf("%s: %s (%s) %s in required set %s.",
					passFailWord(found), cond.Field, toString(value), verb, toString(cond.Value)),
			}
		}
		pass := !found
		return Outcome{
			Condition:    cond,
			Status:       passFail(pass),
			ProfileValue: value,
			Explanation: fmt.Sprintf("%s: %s (%s) exclusion check %s.",
				passFailWord(pass), cond.Field, toString(value), passedFailed(pass)),
		}

	case OpEqual:
		var pass bool
		if b, isBool := cond.Value.(bool); isBool {
			pass = castBool(value) == b
		} else {
			pass = strings.EqualFold(toString(value), toString(cond.Value))
		}
		return Outcome{
			Condition:    cond,
			Status:       passFail(pass),
			ProfileValue: value,
			Explanation: fmt.Sprintf("%s: %s matches %s.",
				passFailWord(pass), cond.Field, toString(cond.Value)),
		}

	case OpNotEqual:
		pass := !strings.EqualFold(toString(value), toString(cond.Value))
		return Outcome{
			Condition:    cond,
			Status:       passFail(pass),
			ProfileValue: value,
			Explanation: fmt.Sprintf("%s: %s does not match %s.",
				passFailWord(pass), cond.Field, toString(cond.Value)),
		}

	default:
		return Outcome{
			Condition:    cond,
			Status:       StatusFail,
			ProfileValue: value,
			Explanation:  fmt.Sprintf("ERROR: unknown operator '%s'.", cond.Op),
		}
	}
}

// EvaluateTree walks a condition tree against a profile and aggregates
// the tri-state outcomes into a verdict.
//
// Score is passed/total with the total including skipped conditions, so
// missing data caps the achievable score without counting as failure.
// In all mode eligibility tolerates skips but not explicit failures; in
// any mode a single pass suffices. A tree with zero conditions is
// deliberately not vacuously true: it yields a zero-score error verdict.
func EvaluateTree(tree Tree, profile Profile) Verdict {
	conditions, anyMode := tree.Conditions()

	if len(conditions) == 0 {
		return Verdict{
			Eligible: false,
			Score:    0.0,
			Label:    LabelNotEligible,
			Outcomes: []Outcome{{Status: StatusError, Explanation: "ERROR: empty rule set."}},
		}
	}

	passed, failed, skipped := 0, 0, 0
	outcomes := make([]Outcome, 0, len(conditions))
	for _, cond := range conditions {
		out := evaluateCondition(profile, cond)
		outcomes = append(outcomes, out)
		switch out.Status {
		case StatusPass:
			passed++
		case StatusFail:
			failed++
		case StatusSkipped:
			skipped++
		}
	}

	score := float64(passed) / float64(len(conditions))

	var eligible bool
	if anyMode {
		eligible = passed > 0
	} else {
		eligible = failed == 0
	}

	return Verdict{
		Eligible: eligible,
		Score:    score,
		Label:    deriveLabel(score, failed, skipped),
		Outcomes: outcomes,
	}
}

// deriveLabel maps tallies to the three-way verdict label. An explicit
// failure always reads Not Eligible, a perfect score reads Eligible,
// and partial information reads Maybe Eligible.
func deriveLabel(score float64, failed, skipped int) string {
	switch {
	case failed > 0:
		return LabelNotEligible
	case score >= 1.0:
		return LabelEligible
	case score > 0 || skipped > 0:
		return LabelMaybe
	default:
		return LabelNotEligible
	}
}

func passFail(pass bool) Status {
	if pass {
		return StatusPass
	}
	return StatusFail
}

func passFailWord(pass bool) string {
	if pass {
		return "PASS"
	}
	return "FAIL"
}

func passedFailed(pass bool) string {
	if pass {
		return "passed"
	}
	return "failed"
}
