package rules

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// Engine ties the pure matching core to the stores. Tree rules are
// evaluated directly; admin-authored expression rules are compiled to
// CEL programs which are cached here. Thread-safe for concurrent
// matching (RWMutex guards only the compiled-program map; evaluation
// itself is stateless).
type Engine struct {
	env      *cel.Env
	schemes  SchemeStore
	rules    RuleStore
	cache    RulesCache
	programs map[string]cel.Program // ruleID -> compiled program
	mu       sync.RWMutex
}

// NewEngine creates an engine over the given stores and compiles all
// active expression rules up front.
func NewEngine(schemes SchemeStore, rules RuleStore) (*Engine, error) {
	// Expression rules see the applicant's data as a single dynamic
	// "profile" variable, e.g. profile.age >= 18.
	env, err := cel.NewEnv(
		cel.Variable("profile", cel.DynType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	en := &Engine{
		env:      env,
		schemes:  schemes,
		rules:    rules,
		cache:    NewInMemoryRulesCache(DefaultCacheConfig()),
		programs: make(map[string]cel.Program),
	}

	if err := en.CompileAllRules(); err != nil {
		return nil, fmt.Errorf("failed to compile rules: %w", err)
	}

	return en, nil
}

// CompileExpression compiles a single expression rule to a CEL program
// and caches it under the rule ID. A cost limit guards against runaway
// expressions.
func (en *Engine) CompileExpression(ruleID, expression string) error {
	ast, issues := en.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return fmt.Errorf("compile error: %w", issues.Err())
	}

	prog, err := en.env.Program(ast,
		cel.EvalOptions(cel.OptTrackState),
		cel.CostLimit(1000000),
	)
	if err != nil {
		return fmt.Errorf("program creation error: %w", err)
	}

	en.mu.Lock()
	en.programs[ruleID] = prog
	en.mu.Unlock()

	return nil
}

// CompileAllRules compiles all active expression rules from the store
// and populates the cache with the active rules list.
func (en *Engine) CompileAllRules() error {
	active, err := en.rules.ListActive()
	if err != nil {
		return err
	}

	for _, rule := range active {
		if rule.Kind != KindExpression {
			continue
		}
		if err := en.CompileExpression(rule.ID, rule.Expression); err != nil {
			return fmt.Errorf("failed to compile rule %s: %w", rule.ID, err)
		}
	}

	en.cache.Set(active)

	return nil
}

// AddRule validates a rule, adds it to the store, and (for expression
// rules) compiles it. Validation happens before the store mutation so
// an invalid rule never lands in storage; if the store fails after a
// successful compile the program is removed again.
func (en *Engine) AddRule(r *Rule) error {
	if _, err := en.rules.Get(r.ID); err == nil {
		return fmt.Errorf("rule with ID %s already exists", r.ID)
	}

	if err := en.validateRule(r); err != nil {
		return fmt.Errorf("rule validation failed: %w", err)
	}

	if err := en.rules.Add(r); err != nil {
		en.mu.Lock()
		delete(en.programs, r.ID)
		en.mu.Unlock()
		return err
	}

	en.cache.Invalidate()

	return nil
}

// UpdateRule validates the new rule content and updates the store.
func (en *Engine) UpdateRule(r *Rule) error {
	if err := en.validateRule(r); err != nil {
		return fmt.Errorf("rule validation failed: %w", err)
	}

	if err := en.rules.Update(r); err != nil {
		return err
	}

	en.cache.Invalidate()

	return nil
}

// DeleteRule removes a rule from the store and drops any compiled
// program.
func (en *Engine) DeleteRule(ruleID string) error {
	if err := en.rules.Delete(ruleID); err != nil {
		return err
	}

	en.mu.Lock()
	delete(en.programs, ruleID)
	en.mu.Unlock()

	en.cache.Invalidate()

	return nil
}

// validateRule dispatches on rule kind: tree rules get structural
// validation, expression rules must compile.
func (en *Engine) validateRule(r *Rule) error {
	switch r.Kind {
	case KindTree:
		return ValidateTree(r.Tree)
	case KindExpression:
		if r.Expression == "" {
			return fmt.Errorf("expression rule %s has an empty expression", r.ID)
		}
		return en.CompileExpression(r.ID, r.Expression)
	default:
		return fmt.Errorf("unknown rule kind %q", r.Kind)
	}
}

// EvaluateRule evaluates one stored rule against a profile.
func (en *Engine) EvaluateRule(ruleID string, profile Profile) (Verdict, error) {
	rule, err := en.rules.Get(ruleID)
	if err != nil {
		return Verdict{}, err
	}
	return en.evaluate(rule, profile.Normalize()), nil
}

// MatchProfile evaluates the profile against every scheme's active
// rules and returns the ranked per-scheme verdicts. The active rules
// list is served from cache when valid.
func (en *Engine) MatchProfile(profile Profile) ([]SchemeVerdict, error) {
	schemes, err := en.schemes.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list schemes: %w", err)
	}

	active := en.cache.Get()
	if active == nil {
		active, err = en.rules.ListActive()
		if err != nil {
			return nil, fmt.Errorf("failed to list active rules: %w", err)
		}
		en.cache.Set(active)
	}

	byScheme := make(map[string][]*Rule, len(schemes))
	for _, rule := range active {
		byScheme[rule.SchemeID] = append(byScheme[rule.SchemeID], rule)
	}

	entries := make([]SchemeEntry, 0, len(schemes))
	for _, scheme := range schemes {
		entries = append(entries, SchemeEntry{
			Scheme: *scheme,
			Rules:  byScheme[scheme.ID],
		})
	}

	return matchProfile(profile.Normalize(), entries, en.evaluate), nil
}

// evaluate routes a rule to the tree evaluator or to its compiled CEL
// program. Expression rules are all-or-nothing: matched scores 1.0,
// anything else (no match, missing program, eval error) scores 0.0 with
// an explanatory outcome.
func (en *Engine) evaluate(rule *Rule, profile Profile) Verdict {
	if rule.Kind != KindExpression {
		return EvaluateTree(rule.Tree, profile)
	}

	en.mu.RLock()
	prog, exists := en.programs[rule.ID]
	en.mu.RUnlock()

	if !exists {
		return expressionVerdict(false, fmt.Sprintf("ERROR: expression rule %s is not compiled.", rule.ID))
	}

	out, _, err := prog.Eval(map[string]any{
		"profile": map[string]any(profile),
	})
	if err != nil {
		return expressionVerdict(false, fmt.Sprintf("FAIL: expression could not be evaluated: %v.", err))
	}

	matched := false
	if boolVal, ok := out.Value().(bool); ok {
		matched = boolVal
	}

	if matched {
		return expressionVerdict(true, fmt.Sprintf("PASS: expression '%s' matched.", rule.Expression))
	}
	return expressionVerdict(false, fmt.Sprintf("FAIL: expression '%s' did not match.", rule.Expression))
}

func expressionVerdict(matched bool, explanation string) Verdict {
	v := Verdict{
		Eligible: matched,
		Score:    0.0,
		Label:    LabelNotEligible,
		Outcomes: []Outcome{{Status: passFail(matched), Explanation: explanation}},
	}
	if matched {
		v.Score = 1.0
		v.Label = LabelEligible
	}
	return v
}
