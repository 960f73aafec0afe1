package rules

import "sort"

// NoRuleNote is attached to verdicts for schemes without any stored rule.
const NoRuleNote = "no eligibility rule defined yet"

// MatchProfile evaluates one profile against many schemes' rules and
// returns one ranked verdict per scheme. Tree rules only; the Engine
// wraps this to additionally handle expression rules.
func MatchProfile(profile Profile, entries []SchemeEntry) []SchemeVerdict {
	return matchProfile(profile, entries, func(r *Rule, p Profile) Verdict {
		return EvaluateTree(r.Tree, p)
	})
}

// matchProfile selects, per scheme, the rule with the strictly highest
// score (ties keep the first rule encountered) and ranks the verdicts
// by descending score, ties broken by ascending title.
func matchProfile(profile Profile, entries []SchemeEntry, eval func(*Rule, Profile) Verdict) []SchemeVerdict {
	results := make([]SchemeVerdict, 0, len(entries))

	for _, entry := range entries {
		sv := SchemeVerdict{
			SchemeID:    entry.Scheme.ID,
			Title:       entry.Scheme.Title,
			Description: entry.Scheme.Description,
			Label:       LabelNotEligible,
			Score:       0.0,
		}

		if len(entry.Rules) == 0 {
			sv.Note = NoRuleNote
			results = append(results, sv)
			continue
		}

		bestScore := -1.0
		for _, rule := range entry.Rules {
			verdict := eval(rule, profile)
			if verdict.Score > bestScore {
				bestScore = verdict.Score
				sv.Score = verdict.Score
				sv.Label = verdict.Label
				sv.Outcomes = verdict.Outcomes
				sv.RuleID = rule.ID
				sv.Snippet = rule.Snippet
				sv.Confidence = rule.Confidence
			}
		}
		results = append(results, sv)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Title < results[j].Title
	})

	return results
}
