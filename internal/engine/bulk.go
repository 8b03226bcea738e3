package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/buildledger/ledgerroute/internal/common"
	"github.com/buildledger/ledgerroute/internal/model"
	"github.com/buildledger/ledgerroute/internal/service"
)

// Assign applies a direct, rule-free manual assignment to an explicit list of
// transactions. Outcomes are per item; one failing item never blocks the
// others. Transactions already routed are skipped, and a transaction whose
// status changes between read and write is reported as a conflict rather
// than overwritten.
func (e *RoutingEngine) Assign(ctx context.Context, transactionIDs []string, projectID string) ([]model.AssignmentResult, error) {
	if projectID == "" {
		return nil, fmt.Errorf("project id cannot be empty")
	}

	results := make([]model.AssignmentResult, 0, len(transactionIDs))

	for _, id := range transactionIDs {
		results = append(results, e.assignOne(ctx, id, projectID))
	}

	return results, nil
}

func (e *RoutingEngine) assignOne(ctx context.Context, transactionID, projectID string) model.AssignmentResult {
	result := model.AssignmentResult{TransactionID: transactionID}

	txn, err := e.storage.GetTransaction(ctx, transactionID)
	if err != nil {
		slog.Warn("Bulk assign: transaction not found",
			"transaction_id", transactionID,
			"error", err)
		result.Outcome = model.AssignmentNotFound
		return result
	}

	if txn.Status == model.StatusRouted {
		result.Outcome = model.AssignmentSkipped
		return result
	}

	confidence := 100
	update := service.RoutingUpdate{
		TransactionID:     transactionID,
		ExpectedStatus:    txn.Status,
		NewStatus:         model.StatusRouted,
		AssignedProjectID: &projectID,
		ConfidenceScore:   &confidence,
	}

	if err := e.storage.ApplyRouting(ctx, update); err != nil {
		if errors.Is(err, common.ErrConcurrencyConflict) {
			result.Outcome = model.AssignmentConflict
			return result
		}
		slog.Error("Bulk assign failed",
			"transaction_id", transactionID,
			"project_id", projectID,
			"error", err)
		result.Outcome = model.AssignmentConflict
		return result
	}

	e.audit.Record(model.RoutingDecision{
		TransactionID: transactionID,
		Outcome:       model.OutcomeAssigned,
		ProjectID:     &projectID,
		Confidence:    &confidence,
	})

	result.Outcome = model.AssignmentAssigned
	return result
}
