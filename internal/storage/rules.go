package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/buildledger/ledgerroute/internal/common"
	"github.com/buildledger/ledgerroute/internal/model"
	"github.com/buildledger/ledgerroute/internal/pattern"
)

// ruleColumns is the select list shared by all rule queries.
const ruleColumns = `id, name, description, field_type, match_type, match_value,
	target_project_id, priority, is_active, use_count, created_at, updated_at`

// CreateRule validates and persists a new routing rule. A rule whose match
// value does not parse or compile for its match type is rejected here and
// never reaches the matcher.
func (s *SQLiteStorage) CreateRule(ctx context.Context, rule *model.RoutingRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := pattern.ValidateRule(rule); err != nil {
		return err
	}

	query := `
		INSERT INTO routing_rules (
			name, description, field_type, match_type, match_value,
			target_project_id, priority, is_active
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		rule.Name, rule.Description, rule.FieldType, rule.MatchType, rule.MatchValue,
		rule.TargetProjectID, rule.Priority, rule.IsActive,
	)
	if err != nil {
		return fmt.Errorf("failed to create routing rule: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get routing rule ID: %w", err)
	}

	rule.ID = id
	rule.CreatedAt = time.Now()
	rule.UpdatedAt = time.Now()

	return nil
}

// GetRule retrieves a routing rule by ID.
func (s *SQLiteStorage) GetRule(ctx context.Context, id int64) (*model.RoutingRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+ruleColumns+` FROM routing_rules WHERE id = ?`, id)

	rule, err := scanRule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrRuleNotFound
		}
		return nil, fmt.Errorf("failed to get routing rule: %w", err)
	}

	return rule, nil
}

// ListRules retrieves routing rules in evaluation order: priority ascending,
// then created_at ascending, then id ascending. Callers never re-sort.
func (s *SQLiteStorage) ListRules(ctx context.Context, activeOnly bool) ([]model.RoutingRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + ruleColumns + ` FROM routing_rules`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY priority ASC, created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list routing rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.RoutingRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan routing rule: %w", err)
		}
		rules = append(rules, *rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating routing rules: %w", err)
	}

	return rules, nil
}

// UpdateRule validates and updates an existing routing rule.
func (s *SQLiteStorage) UpdateRule(ctx context.Context, rule *model.RoutingRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := pattern.ValidateRule(rule); err != nil {
		return err
	}

	query := `
		UPDATE routing_rules SET
			name = ?, description = ?, field_type = ?, match_type = ?, match_value = ?,
			target_project_id = ?, priority = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		rule.Name, rule.Description, rule.FieldType, rule.MatchType, rule.MatchValue,
		rule.TargetProjectID, rule.Priority, rule.IsActive,
		rule.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update routing rule: %w", err)
	}

	return requireRowsAffected(result)
}

// DeactivateRule marks a routing rule inactive so it drops out of evaluation.
func (s *SQLiteStorage) DeactivateRule(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE routing_rules SET is_active = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate routing rule: %w", err)
	}

	return requireRowsAffected(result)
}

// IncrementRuleUseCount increments the use count for a routing rule.
func (s *SQLiteStorage) IncrementRuleUseCount(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE routing_rules SET use_count = use_count + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to increment rule use count: %w", err)
	}

	return requireRowsAffected(result)
}

// scanner abstracts sql.Row and sql.Rows for shared scan code.
type scanner interface {
	Scan(dest ...any) error
}

func scanRule(row scanner) (*model.RoutingRule, error) {
	var rule model.RoutingRule
	var description sql.NullString
	err := row.Scan(
		&rule.ID, &rule.Name, &description, &rule.FieldType, &rule.MatchType, &rule.MatchValue,
		&rule.TargetProjectID, &rule.Priority, &rule.IsActive, &rule.UseCount,
		&rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rule.Description = description.String
	return &rule, nil
}

func requireRowsAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return common.ErrRuleNotFound
	}
	return nil
}
