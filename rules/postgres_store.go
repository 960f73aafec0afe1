package rules

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresSchemeStore implements SchemeStore backed by PostgreSQL.
type PostgresSchemeStore struct {
	db *sql.DB
}

// NewPostgresSchemeStore creates a new PostgreSQL-backed SchemeStore.
func NewPostgresSchemeStore(db *sql.DB) *PostgresSchemeStore {
	return &PostgresSchemeStore{db: db}
}

// Add inserts a new scheme into the database.
func (s *PostgresSchemeStore) Add(scheme *Scheme) error {
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM schemes WHERE id = $1)
	`, scheme.ID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check scheme existence: %w", err)
	}
	if exists {
		return fmt.Errorf("scheme with ID %s already exists", scheme.ID)
	}

	_, err = s.db.Exec(`
		INSERT INTO schemes (id, title, state, description, source_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, scheme.ID, scheme.Title, scheme.State, scheme.Description, scheme.SourceURL,
		scheme.CreatedAt, scheme.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert scheme: %w", err)
	}

	return nil
}

// Get retrieves a scheme by ID.
func (s *PostgresSchemeStore) Get(id string) (*Scheme, error) {
	var scheme Scheme
	err := s.db.QueryRow(`
		SELECT id, title, state, description, source_url, created_at, updated_at
		FROM schemes
		WHERE id = $1
	`, id).Scan(
		&scheme.ID,
		&scheme.Title,
		&scheme.State,
		&scheme.Description,
		&scheme.SourceURL,
		&scheme.CreatedAt,
		&scheme.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("scheme %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scheme: %w", err)
	}

	return &scheme, nil
}

// List returns all schemes ordered by title.
func (s *PostgresSchemeStore) List() ([]*Scheme, error) {
	rows, err := s.db.Query(`
		SELECT id, title, state, description, source_url, created_at, updated_at
		FROM schemes
		ORDER BY title ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list schemes: %w", err)
	}
	defer rows.Close()

	var schemes []*Scheme
	for rows.Next() {
		var sc Scheme
		if err := rows.Scan(&sc.ID, &sc.Title, &sc.State, &sc.Description,
			&sc.SourceURL, &sc.CreatedAt, &sc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan scheme: %w", err)
		}
		schemes = append(schemes, &sc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schemes: %w", err)
	}

	return schemes, nil
}

// Update modifies an existing scheme.
func (s *PostgresSchemeStore) Update(scheme *Scheme) error {
	scheme.UpdatedAt = time.Now()

	result, err := s.db.Exec(`
		UPDATE schemes
		SET title = $1, state = $2, description = $3, source_url = $4, updated_at = $5
		WHERE id = $6
	`, scheme.Title, scheme.State, scheme.Description, scheme.SourceURL,
		scheme.UpdatedAt, scheme.ID)

	if err != nil {
		return fmt.Errorf("failed to update scheme: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("scheme %s not found", scheme.ID)
	}

	return nil
}

// Delete removes a scheme and its rules from the database.
func (s *PostgresSchemeStore) Delete(id string) error {
	result, err := s.db.Exec(`
		DELETE FROM schemes
		WHERE id = $1
	`, id)

	if err != nil {
		return fmt.Errorf("failed to delete scheme: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("scheme %s not found", id)
	}

	return nil
}

// PostgresRuleStore implements RuleStore backed by PostgreSQL. The
// condition tree is stored as JSONB.
type PostgresRuleStore struct {
	db *sql.DB
}

// NewPostgresRuleStore creates a new PostgreSQL-backed RuleStore.
func NewPostgresRuleStore(db *sql.DB) *PostgresRuleStore {
	return &PostgresRuleStore{db: db}
}

// Add inserts a new rule into the database.
func (s *PostgresRuleStore) Add(rule *Rule) error {
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM scheme_rules WHERE id = $1)
	`, rule.ID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check rule existence: %w", err)
	}
	if exists {
		return fmt.Errorf("rule with ID %s already exists", rule.ID)
	}

	treeJSON, err := json.Marshal(rule.Tree)
	if err != nil {
		return fmt.Errorf("failed to marshal rule tree: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO scheme_rules (id, scheme_id, kind, tree, expression, snippet,
			confidence, verified, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, rule.ID, rule.SchemeID, string(rule.Kind), treeJSON, rule.Expression,
		rule.Snippet, rule.Confidence, rule.Verified, rule.Active,
		rule.CreatedAt, rule.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert rule: %w", err)
	}

	return nil
}

// Get retrieves a rule by ID.
func (s *PostgresRuleStore) Get(id string) (*Rule, error) {
	row := s.db.QueryRow(`
		SELECT id, scheme_id, kind, tree, expression, snippet,
			confidence, verified, active, created_at, updated_at
		FROM scheme_rules
		WHERE id = $1
	`, id)

	rule, err := scanRule(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("rule %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}

	return rule, nil
}

// ListActive returns all active rules ordered by creation time.
func (s *PostgresRuleStore) ListActive() ([]*Rule, error) {
	rows, err := s.db.Query(`
		SELECT id, scheme_id, kind, tree, expression, snippet,
			confidence, verified, active, created_at, updated_at
		FROM scheme_rules
		WHERE active = true
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active rules: %w", err)
	}
	defer rows.Close()

	return collectRules(rows)
}

// ListByScheme returns all rules attached to one scheme.
func (s *PostgresRuleStore) ListByScheme(schemeID string) ([]*Rule, error) {
	rows, err := s.db.Query(`
		SELECT id, scheme_id, kind, tree, expression, snippet,
			confidence, verified, active, created_at, updated_at
		FROM scheme_rules
		WHERE scheme_id = $1
		ORDER BY created_at ASC
	`, schemeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules for scheme %s: %w", schemeID, err)
	}
	defer rows.Close()

	return collectRules(rows)
}

// Update modifies an existing rule.
func (s *PostgresRuleStore) Update(rule *Rule) error {
	treeJSON, err := json.Marshal(rule.Tree)
	if err != nil {
		return fmt.Errorf("failed to marshal rule tree: %w", err)
	}

	rule.UpdatedAt = time.Now()

	result, err := s.db.Exec(`
		UPDATE scheme_rules
		SET kind = $1, tree = $2, expression = $3, snippet = $4,
			confidence = $5, verified = $6, active = $7, updated_at = $8
		WHERE id = $9
	`, string(rule.Kind), treeJSON, rule.Expression, rule.Snippet,
		rule.Confidence, rule.Verified, rule.Active, rule.UpdatedAt, rule.ID)

	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("rule %s not found", rule.ID)
	}

	return nil
}

// Delete removes a rule from the database.
func (s *PostgresRuleStore) Delete(id string) error {
	result, err := s.db.Exec(`
		DELETE FROM scheme_rules
		WHERE id = $1
	`, id)

	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("rule %s not found", id)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (*Rule, error) {
	var rule Rule
	var kind string
	var treeJSON []byte

	err := row.Scan(
		&rule.ID,
		&rule.SchemeID,
		&kind,
		&treeJSON,
		&rule.Expression,
		&rule.Snippet,
		&rule.Confidence,
		&rule.Verified,
		&rule.Active,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rule.Kind = RuleKind(kind)
	if len(treeJSON) > 0 {
		if err := json.Unmarshal(treeJSON, &rule.Tree); err != nil {
			return nil, fmt.Errorf("failed to unmarshal rule tree: %w", err)
		}
	}

	return &rule, nil
}

func collectRules(rows *sql.Rows) ([]*Rule, error) {
	var rulesList []*Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rulesList = append(rulesList, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}

	return rulesList, nil
}
