package rules

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// SchemeStore manages scheme persistence and retrieval.
type SchemeStore interface {
	// Add a new scheme
	Add(scheme *Scheme) error

	// Get a scheme by ID
	Get(id string) (*Scheme, error)

	// List all schemes ordered by title
	List() ([]*Scheme, error)

	// Update an existing scheme
	Update(scheme *Scheme) error

	// Delete a scheme
	Delete(id string) error
}

// RuleStore manages rule persistence and retrieval.
type RuleStore interface {
	// Add a new rule
	Add(rule *Rule) error

	// Get a rule by ID
	Get(id string) (*Rule, error)

	// List all active rules
	ListActive() ([]*Rule, error)

	// List all rules for one scheme
	ListByScheme(schemeID string) ([]*Rule, error)

	// Update an existing rule
	Update(rule *Rule) error

	// Delete a rule
	Delete(id string) error
}

// InMemorySchemeStore implements SchemeStore using an in-memory map.
// Thread-safe with RWMutex.
type InMemorySchemeStore struct {
	schemes map[string]*Scheme
	mu      sync.RWMutex
}

// NewInMemorySchemeStore creates a new in-memory scheme store.
func NewInMemorySchemeStore() *InMemorySchemeStore {
	return &InMemorySchemeStore{
		schemes: make(map[string]*Scheme),
	}
}

// Add adds a new scheme to the store, enforcing unique IDs.
func (s *InMemorySchemeStore) Add(scheme *Scheme) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.schemes[scheme.ID]; exists {
		return fmt.Errorf("scheme with ID %s already exists", scheme.ID)
	}

	now := time.Now()
	scheme.CreatedAt = now
	scheme.UpdatedAt = now
	s.schemes[scheme.ID] = scheme
	return nil
}

// Get retrieves a scheme by ID.
func (s *InMemorySchemeStore) Get(id string) (*Scheme, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scheme, exists := s.schemes[id]
	if !exists {
		return nil, fmt.Errorf("scheme with ID %s not found", id)
	}
	return scheme, nil
}

// List returns all schemes ordered by title.
func (s *InMemorySchemeStore) List() ([]*Scheme, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	schemes := make([]*Scheme, 0, len(s.schemes))
	for _, scheme := range s.schemes {
		schemes = append(schemes, scheme)
	}
	sort.Slice(schemes, func(i, j int) bool {
		return schemes[i].Title < schemes[j].Title
	})
	return schemes, nil
}

// Update updates an existing scheme, preserving CreatedAt.
func (s *InMemorySchemeStore) Update(scheme *Scheme) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.schemes[scheme.ID]
	if !exists {
		return fmt.Errorf("scheme with ID %s not found", scheme.ID)
	}

	scheme.CreatedAt = existing.CreatedAt
	scheme.UpdatedAt = time.Now()
	s.schemes[scheme.ID] = scheme
	return nil
}

// Delete removes a scheme from the store.
func (s *InMemorySchemeStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.schemes[id]; !exists {
		return fmt.Errorf("scheme with ID %s not found", id)
	}

	delete(s.schemes, id)
	return nil
}

// InMemoryRuleStore implements RuleStore using an in-memory map.
// Thread-safe with RWMutex.
type InMemoryRuleStore struct {
	rules map[string]*Rule
	mu    sync.RWMutex
}

// NewInMemoryRuleStore creates a new in-memory rule store.
func NewInMemoryRuleStore() *InMemoryRuleStore {
	return &InMemoryRuleStore{
		rules: make(map[string]*Rule),
	}
}

// Add adds a new rule to the store, enforcing unique IDs and setting
// timestamps.
func (s *InMemoryRuleStore) Add(rule *Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rules[rule.ID]; exists {
		return fmt.Errorf("rule with ID %s already exists", rule.ID)
	}

	now := time.Now()
	rule.CreatedAt = now
	rule.UpdatedAt = now
	s.rules[rule.ID] = rule
	return nil
}

// Get retrieves a rule by ID.
func (s *InMemoryRuleStore) Get(id string) (*Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rule, exists := s.rules[id]
	if !exists {
		return nil, fmt.Errorf("rule with ID %s not found", id)
	}
	return rule, nil
}

// ListActive returns all active rules ordered by creation time.
func (s *InMemoryRuleStore) ListActive() ([]*Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var active []*Rule
	for _, rule := range s.rules {
		if rule.Active {
			active = append(active, rule)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].CreatedAt.Before(active[j].CreatedAt)
	})
	return active, nil
}

// ListByScheme returns all rules attached to one scheme, ordered by
// creation time.
func (s *InMemoryRuleStore) ListByScheme(schemeID string) ([]*Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*Rule
	for _, rule := range s.rules {
		if rule.SchemeID == schemeID {
			matched = append(matched, rule)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	return matched, nil
}

// Update updates an existing rule, preserving the original CreatedAt.
func (s *InMemoryRuleStore) Update(rule *Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.rules[rule.ID]
	if !exists {
		return fmt.Errorf("rule with ID %s not found", rule.ID)
	}

	rule.CreatedAt = existing.CreatedAt
	rule.UpdatedAt = time.Now()
	s.rules[rule.ID] = rule
	return nil
}

// Delete removes a rule from the store.
func (s *InMemoryRuleStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rules[id]; !exists {
		return fmt.Errorf("rule with ID %s not found", id)
	}

	delete(s.rules, id)
	return nil
}
