package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/buildledger/ledgerroute/internal/common"
	"github.com/buildledger/ledgerroute/internal/model"
	"github.com/buildledger/ledgerroute/internal/pattern"
)

// RunAutoRouting routes every unrouted transaction for the company in one
// pass. It snapshots the unrouted set at start, evaluates transactions in
// parallel, then applies writes sequentially through the optimistic status
// check. At most one run per company is active at a time; a second request
// is rejected with ErrRunInProgress.
func (e *RoutingEngine) RunAutoRouting(ctx context.Context, companyID string) (model.RunSummary, error) {
	summary := model.RunSummary{
		RunID:     uuid.NewString(),
		CompanyID: companyID,
	}

	if companyID == "" {
		return summary, fmt.Errorf("company id cannot be empty")
	}

	if !e.acquireRun(companyID) {
		return summary, common.ErrRunInProgress
	}
	defer e.releaseRun(companyID)

	rules, err := e.storage.ListRules(ctx, true)
	if err != nil {
		return summary, fmt.Errorf("failed to load routing rules: %w", err)
	}

	candidates, err := e.directory.ListCandidates(ctx, companyID)
	if err != nil {
		return summary, fmt.Errorf("failed to load candidate projects: %w", err)
	}

	snapshot, err := e.storage.GetUnroutedTransactions(ctx, companyID)
	if err != nil {
		return summary, fmt.Errorf("failed to snapshot unrouted transactions: %w", err)
	}
	summary.Total = len(snapshot)

	if len(snapshot) == 0 {
		slog.Info("No unrouted transactions", "company_id", companyID, "run_id", summary.RunID)
		return summary, nil
	}

	slog.Info("Starting auto-routing run",
		"company_id", companyID,
		"run_id", summary.RunID,
		"transactions", len(snapshot),
		"rules", len(rules))

	matcher := pattern.NewMatcher(rules, e.directory, e.config.LookupTimeout)

	// Evaluation is pure and safe to fan out; each decision lands in the
	// slot for its snapshot index.
	decisions := make([]model.RoutingDecision, len(snapshot))
	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < e.config.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				decisions[i] = e.Decide(ctx, matcher, rules, candidates, snapshot[i])
			}
		}()
	}

	for i := range snapshot {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	// Writes are applied one transaction at a time so the run can be
	// cancelled between transactions; already-applied assignments stand.
	for i, decision := range decisions {
		select {
		case <-ctx.Done():
			slog.Info("Auto-routing run cancelled",
				"run_id", summary.RunID,
				"applied", i,
				"remaining", len(decisions)-i)
			return summary, ctx.Err()
		default:
		}

		summary.Errors += decision.RuleFaults

		if err := e.apply(ctx, snapshot[i], decision); err != nil {
			if errors.Is(err, common.ErrConcurrencyConflict) {
				summary.Conflicts++
				slog.Warn("Skipping transaction changed since snapshot",
					"transaction_id", decision.TransactionID,
					"run_id", summary.RunID)
				continue
			}
			return summary, fmt.Errorf("failed to apply decision for %s: %w", decision.TransactionID, err)
		}

		switch decision.Outcome {
		case model.OutcomeRouted:
			summary.Routed++
		case model.OutcomeSuggested:
			summary.Suggested++
		case model.OutcomeUnresolved:
			summary.Unresolved++
		}
	}

	slog.Info("Auto-routing run complete",
		"run_id", summary.RunID,
		"company_id", companyID,
		"routed", summary.Routed,
		"suggested", summary.Suggested,
		"unresolved", summary.Unresolved,
		"conflicts", summary.Conflicts,
		"errors", summary.Errors)

	return summary, nil
}

// acquireRun marks a company run as active. Returns false if one is already
// in flight.
func (e *RoutingEngine) acquireRun(companyID string) bool {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	if e.activeRuns[companyID] {
		return false
	}
	e.activeRuns[companyID] = true
	return true
}

func (e *RoutingEngine) releaseRun(companyID string) {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	delete(e.activeRuns, companyID)
}
