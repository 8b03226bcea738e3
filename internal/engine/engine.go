// Package engine implements the core routing engine that assigns incoming
// financial transactions to projects.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/buildledger/ledgerroute/internal/model"
	"github.com/buildledger/ledgerroute/internal/pattern"
	"github.com/buildledger/ledgerroute/internal/service"
)

// Config holds configuration options for the routing engine.
type Config struct {
	ConfidenceThreshold int
	LookupTimeout       time.Duration
	Workers             int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold: pattern.DefaultThreshold,
		LookupTimeout:       3 * time.Second,
		Workers:             4,
	}
}

// RoutingEngine orchestrates rule matching and confidence scoring over
// transactions, and applies the resulting status transitions.
type RoutingEngine struct {
	storage    service.Storage
	directory  service.ProjectDirectory
	audit      service.AuditSink
	scorer     *pattern.Scorer
	activeRuns map[string]bool
	config     Config
	runMu      sync.Mutex
}

// New creates a routing engine with the default configuration.
func New(storage service.Storage, directory service.ProjectDirectory, audit service.AuditSink) *RoutingEngine {
	return NewWithConfig(storage, directory, audit, DefaultConfig())
}

// NewWithConfig creates a routing engine with custom configuration.
func NewWithConfig(storage service.Storage, directory service.ProjectDirectory, audit service.AuditSink, config Config) *RoutingEngine {
	if config.Workers <= 0 {
		config.Workers = DefaultConfig().Workers
	}
	if config.LookupTimeout <= 0 {
		config.LookupTimeout = DefaultConfig().LookupTimeout
	}
	return &RoutingEngine{
		storage:    storage,
		directory:  directory,
		audit:      audit,
		scorer:     pattern.NewScorer(config.ConfidenceThreshold),
		activeRuns: make(map[string]bool),
		config:     config,
	}
}

// Decide evaluates one transaction against the rule set in total order and
// falls back to the confidence scorer. It is a pure computation: no state is
// written. Rules already routed transactions are skipped by the callers.
func (e *RoutingEngine) Decide(ctx context.Context, matcher *pattern.Matcher, rules []model.RoutingRule, candidates []model.Project, txn model.Transaction) model.RoutingDecision {
	decision := model.RoutingDecision{
		TransactionID: txn.ID,
		Outcome:       model.OutcomeUnrouted,
	}

	for i := range rules {
		rule := rules[i]
		result, err := matcher.Match(ctx, rule, txn)
		if err != nil {
			// A faulting rule is skipped for this transaction only;
			// evaluation continues with the next rule.
			slog.Error("Rule evaluation failed",
				"rule_id", rule.ID,
				"transaction_id", txn.ID,
				"error", err)
			decision.RuleFaults++
			continue
		}
		if !result.Matched {
			continue
		}

		// First match wins. An unresolved auto-detect still claims the
		// transaction so a lower-priority rule cannot override the
		// operator's ordering.
		decision.RuleID = &rule.ID
		if result.ResolvedProjectID != nil {
			confidence := 100
			decision.Outcome = model.OutcomeRouted
			decision.ProjectID = result.ResolvedProjectID
			decision.Confidence = &confidence
		} else {
			decision.Outcome = model.OutcomeUnresolved
			slog.Warn("Rule matched but auto-detect did not resolve",
				"rule_id", rule.ID,
				"transaction_id", txn.ID,
				"extracted_code", result.ExtractedCode)
		}
		return decision
	}

	if suggestion := e.scorer.Score(txn, candidates); suggestion != nil {
		decision.Outcome = model.OutcomeSuggested
		decision.ProjectID = &suggestion.ProjectID
		decision.Confidence = &suggestion.Score
	}

	return decision
}

// apply persists a decision through the optimistic status check and emits the
// audit event. Decisions that leave the transaction untouched are still
// audited for operator visibility.
func (e *RoutingEngine) apply(ctx context.Context, txn model.Transaction, decision model.RoutingDecision) error {
	switch decision.Outcome {
	case model.OutcomeRouted:
		update := service.RoutingUpdate{
			TransactionID:     txn.ID,
			ExpectedStatus:    txn.Status,
			NewStatus:         model.StatusRouted,
			AssignedProjectID: decision.ProjectID,
			ConfidenceScore:   decision.Confidence,
		}
		if err := e.storage.ApplyRouting(ctx, update); err != nil {
			return err
		}
		if decision.RuleID != nil {
			if err := e.storage.IncrementRuleUseCount(ctx, *decision.RuleID); err != nil {
				slog.Warn("Failed to increment rule use count",
					"rule_id", *decision.RuleID,
					"error", err)
			}
		}
	case model.OutcomeSuggested:
		update := service.RoutingUpdate{
			TransactionID:      txn.ID,
			ExpectedStatus:     txn.Status,
			NewStatus:          model.StatusSuggested,
			SuggestedProjectID: decision.ProjectID,
			ConfidenceScore:    decision.Confidence,
		}
		if err := e.storage.ApplyRouting(ctx, update); err != nil {
			return err
		}
	case model.OutcomeUnresolved, model.OutcomeUnrouted:
		// No write: the transaction stays unrouted.
	}

	e.audit.Record(decision)
	return nil
}
