package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/buildledger/ledgerroute/internal/common"
	"github.com/buildledger/ledgerroute/internal/model"
	"github.com/buildledger/ledgerroute/internal/service"
)

const transactionColumns = `id, external_id, company_id, type, description, amount,
	counterparty_name, memo, reference_number, transaction_date, status,
	assigned_project_id, suggested_project_id, confidence_score, created_at, updated_at`

// SaveTransactions persists transactions from the accounting feed. Records
// whose hash already exists are skipped so re-ingesting a statement is safe.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	query := `
		INSERT OR IGNORE INTO transactions (
			id, external_id, company_id, type, description, amount,
			counterparty_name, memo, reference_number, transaction_date, status, hash
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for i := range transactions {
		txn := &transactions[i]
		if txn.Hash == "" {
			txn.Hash = txn.GenerateHash()
		}
		if txn.Status == "" {
			txn.Status = model.StatusUnrouted
		}

		if _, err := s.db.ExecContext(ctx, query,
			txn.ID, txn.ExternalID, txn.CompanyID, txn.Type, txn.Description, txn.Amount.String(),
			txn.CounterpartyName, txn.Memo, txn.ReferenceNumber, txn.Date, txn.Status, txn.Hash,
		); err != nil {
			return fmt.Errorf("failed to save transaction %s: %w", txn.ID, err)
		}
	}

	return nil
}

// GetTransaction retrieves a transaction by ID.
func (s *SQLiteStorage) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)

	txn, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return txn, nil
}

// GetUnroutedTransactions retrieves the unrouted transactions for a company,
// oldest first. This is the snapshot a batch run operates on.
func (s *SQLiteStorage) GetUnroutedTransactions(ctx context.Context, companyID string) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(companyID, "companyID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE company_id = ? AND status = ?
		 ORDER BY transaction_date ASC, id ASC`,
		companyID, model.StatusUnrouted)
	if err != nil {
		return nil, fmt.Errorf("failed to get unrouted transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}

// ApplyRouting performs the optimistic status-guarded routing write. The
// update only applies if the stored status still matches ExpectedStatus;
// otherwise the caller gets ErrConcurrencyConflict and must not retry
// blindly.
func (s *SQLiteStorage) ApplyRouting(ctx context.Context, update service.RoutingUpdate) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(update.TransactionID, "transactionID"); err != nil {
		return err
	}

	query := `
		UPDATE transactions SET
			status = ?,
			assigned_project_id = ?,
			suggested_project_id = ?,
			confidence_score = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		update.NewStatus,
		update.AssignedProjectID,
		update.SuggestedProjectID,
		update.ConfidenceScore,
		update.TransactionID,
		update.ExpectedStatus,
	)
	if err != nil {
		return fmt.Errorf("failed to apply routing update: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		var exists int
		if err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM transactions WHERE id = ?", update.TransactionID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check transaction existence: %w", err)
		}
		if exists == 0 {
			return common.ErrTransactionNotFound
		}
		return common.ErrConcurrencyConflict
	}

	return nil
}

// ResetTransaction returns a transaction to unrouted, clearing any assignment
// or suggestion. This is the only way out of the terminal routed status.
func (s *SQLiteStorage) ResetTransaction(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE transactions SET
			status = ?,
			assigned_project_id = NULL,
			suggested_project_id = NULL,
			confidence_score = NULL,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, model.StatusUnrouted, id)
	if err != nil {
		return fmt.Errorf("failed to reset transaction: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return common.ErrTransactionNotFound
	}

	return nil
}

func scanTransaction(row scanner) (*model.Transaction, error) {
	var txn model.Transaction
	var externalID, description, counterparty, memo, reference sql.NullString
	var assigned, suggested sql.NullString
	var confidence sql.NullInt64
	var amount string

	err := row.Scan(
		&txn.ID, &externalID, &txn.CompanyID, &txn.Type, &description, &amount,
		&counterparty, &memo, &reference, &txn.Date, &txn.Status,
		&assigned, &suggested, &confidence, &txn.CreatedAt, &txn.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("stored amount %q is not a decimal: %w", amount, err)
	}

	txn.ExternalID = externalID.String
	txn.Description = description.String
	txn.CounterpartyName = counterparty.String
	txn.Memo = memo.String
	txn.ReferenceNumber = reference.String
	txn.Amount = parsed
	if assigned.Valid {
		txn.AssignedProjectID = &assigned.String
	}
	if suggested.Valid {
		txn.SuggestedProjectID = &suggested.String
	}
	if confidence.Valid {
		score := int(confidence.Int64)
		txn.ConfidenceScore = &score
	}

	return &txn, nil
}
