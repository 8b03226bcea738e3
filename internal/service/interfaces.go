// Package service defines the interfaces between the routing engine and its
// collaborators: persistence, the project directory, and the audit sink.
package service

import (
	"context"
	"time"

	"github.com/buildledger/ledgerroute/internal/model"
)

// RoutingUpdate describes a status transition for a single transaction.
// ExpectedStatus is the status observed in the snapshot; the write only
// applies if the stored status still matches it.
type RoutingUpdate struct {
	AssignedProjectID  *string
	SuggestedProjectID *string
	ConfidenceScore    *int
	TransactionID      string
	ExpectedStatus     model.TransactionStatus
	NewStatus          model.TransactionStatus
}

// Storage defines the contract for the persistence layer.
type Storage interface {
	// Rule operations. Create and Update validate rule syntax; a rule whose
	// match value does not parse for its match type is rejected here and
	// never reaches evaluation.
	CreateRule(ctx context.Context, rule *model.RoutingRule) error
	GetRule(ctx context.Context, id int64) (*model.RoutingRule, error)
	ListRules(ctx context.Context, activeOnly bool) ([]model.RoutingRule, error)
	UpdateRule(ctx context.Context, rule *model.RoutingRule) error
	DeactivateRule(ctx context.Context, id int64) error
	IncrementRuleUseCount(ctx context.Context, id int64) error

	// Transaction operations.
	SaveTransactions(ctx context.Context, transactions []model.Transaction) error
	GetTransaction(ctx context.Context, id string) (*model.Transaction, error)
	GetUnroutedTransactions(ctx context.Context, companyID string) ([]model.Transaction, error)
	// ApplyRouting performs the optimistic status-guarded write. It returns
	// common.ErrConcurrencyConflict when the stored status no longer matches
	// the expected one.
	ApplyRouting(ctx context.Context, update RoutingUpdate) error
	ResetTransaction(ctx context.Context, id string) error

	// Project operations, backing the project directory.
	SaveProject(ctx context.Context, project *model.Project) error
	GetProjectByCode(ctx context.Context, code string) (*model.Project, error)
	GetProjectByName(ctx context.Context, name string) (*model.Project, error)
	ListProjects(ctx context.Context, companyID string) ([]model.Project, error)

	// Audit history.
	SaveRoutingEvent(ctx context.Context, event *model.RoutingEvent) error
	ListRoutingEvents(ctx context.Context, companyID string, limit int) ([]model.RoutingEvent, error)

	// Database management.
	Migrate(ctx context.Context) error
	Close() error
}

// ProjectDirectory resolves project codes and names and lists scoring
// candidates. Implementations bound each lookup with a timeout; an expired
// lookup is reported as not found, not retried.
type ProjectDirectory interface {
	Lookup(ctx context.Context, codeOrName string) (string, error)
	ListCandidates(ctx context.Context, companyID string) ([]model.Project, error)
}

// AuditSink receives one event per routing decision. Recording is
// fire-and-forget from the engine's perspective.
type AuditSink interface {
	Record(decision model.RoutingDecision)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
