package model

import "time"

// DecisionOutcome classifies the result of routing one transaction.
type DecisionOutcome string

// Decision outcome constants.
const (
	// OutcomeRouted means a rule matched and resolved to a project.
	OutcomeRouted DecisionOutcome = "routed"
	// OutcomeSuggested means no rule matched but the confidence scorer
	// produced a suggestion at or above the threshold.
	OutcomeSuggested DecisionOutcome = "suggested"
	// OutcomeUnresolved means a rule matched but its auto-detect lookup
	// failed; the rule claimed the transaction, so it stays unrouted.
	OutcomeUnresolved DecisionOutcome = "unresolved"
	// OutcomeUnrouted means nothing matched and no suggestion cleared the
	// threshold; the transaction is untouched.
	OutcomeUnrouted DecisionOutcome = "unrouted"
	// OutcomeAssigned means a manual (bulk) assignment routed the transaction.
	OutcomeAssigned DecisionOutcome = "assigned"
)

// RoutingDecision is the result of evaluating one transaction.
type RoutingDecision struct {
	ProjectID     *string
	RuleID        *int64
	Confidence    *int
	TransactionID string
	Outcome       DecisionOutcome
	// RuleFaults counts rule evaluations that failed and were skipped
	// while deciding this transaction.
	RuleFaults int
}

// RunSummary reports the results of one batch auto-routing pass.
type RunSummary struct {
	RunID      string `json:"run_id"`
	CompanyID  string `json:"company_id"`
	Total      int    `json:"total"`
	Routed     int    `json:"routed"`
	Suggested  int    `json:"suggested"`
	Unresolved int    `json:"unresolved"`
	// Conflicts counts transactions whose status changed between the
	// snapshot and the write; they are skipped, never overwritten.
	Conflicts int `json:"conflicts"`
	// Errors counts rule evaluations skipped due to faults.
	Errors int `json:"errors"`
}

// AssignmentOutcome classifies the per-item result of a bulk assignment.
type AssignmentOutcome string

// Assignment outcome constants.
const (
	AssignmentAssigned AssignmentOutcome = "assigned"
	AssignmentSkipped  AssignmentOutcome = "skipped_already_routed"
	AssignmentConflict AssignmentOutcome = "conflict"
	AssignmentNotFound AssignmentOutcome = "not_found"
)

// AssignmentResult is the per-transaction outcome of a bulk assignment.
type AssignmentResult struct {
	TransactionID string            `json:"transaction_id"`
	Outcome       AssignmentOutcome `json:"outcome"`
}

// RoutingEvent is one audit-history record per routing decision.
type RoutingEvent struct {
	CreatedAt     time.Time       `json:"created_at"`
	ProjectID     *string         `json:"project_id,omitempty"`
	RuleID        *int64          `json:"rule_id,omitempty"`
	Confidence    *int            `json:"confidence,omitempty"`
	TransactionID string          `json:"transaction_id"`
	Outcome       DecisionOutcome `json:"outcome"`
	ID            int64           `json:"id"`
}
