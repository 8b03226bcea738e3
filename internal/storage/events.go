package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/buildledger/ledgerroute/internal/model"
)

// SaveRoutingEvent appends one routing-history record.
func (s *SQLiteStorage) SaveRoutingEvent(ctx context.Context, event *model.RoutingEvent) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if err := validateString(event.TransactionID, "event.TransactionID"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO routing_events (transaction_id, outcome, project_id, rule_id, confidence)
		VALUES (?, ?, ?, ?, ?)
	`, event.TransactionID, event.Outcome, event.ProjectID, event.RuleID, event.Confidence)
	if err != nil {
		return fmt.Errorf("failed to save routing event: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		event.ID = id
	}

	return nil
}

// ListRoutingEvents retrieves the most recent routing history for a company,
// newest first.
func (s *SQLiteStorage) ListRoutingEvents(ctx context.Context, companyID string, limit int) ([]model.RoutingEvent, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(companyID, "companyID"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.transaction_id, e.outcome, e.project_id, e.rule_id, e.confidence, e.created_at
		FROM routing_events e
		JOIN transactions t ON t.id = e.transaction_id
		WHERE t.company_id = ?
		ORDER BY e.id DESC
		LIMIT ?
	`, companyID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list routing events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []model.RoutingEvent
	for rows.Next() {
		var event model.RoutingEvent
		var projectID sql.NullString
		var ruleID, confidence sql.NullInt64
		if err := rows.Scan(
			&event.ID, &event.TransactionID, &event.Outcome,
			&projectID, &ruleID, &confidence, &event.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan routing event: %w", err)
		}
		if projectID.Valid {
			event.ProjectID = &projectID.String
		}
		if ruleID.Valid {
			event.RuleID = &ruleID.Int64
		}
		if confidence.Valid {
			score := int(confidence.Int64)
			event.Confidence = &score
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating routing events: %w", err)
	}

	return events, nil
}
