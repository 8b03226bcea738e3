package engine

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/buildledger/ledgerroute/internal/common"
	"github.com/buildledger/ledgerroute/internal/model"
	"github.com/buildledger/ledgerroute/internal/service"
)

// mockStorage is an in-memory Storage with the same ordering and optimistic
// concurrency semantics as the SQLite implementation.
type mockStorage struct {
	transactions map[string]*model.Transaction
	applyErr     map[string]error
	// snapshotEntered and snapshotRelease let a test hold a run inside its
	// snapshot read to provoke overlapping runs.
	snapshotEntered chan struct{}
	snapshotRelease chan struct{}
	rules           []model.RoutingRule
	projects        []model.Project
	events          []model.RoutingEvent
	nextRuleID      int64
	mu              sync.Mutex
}

func newMockStorage() *mockStorage {
	return &mockStorage{
		transactions: make(map[string]*model.Transaction),
		applyErr:     make(map[string]error),
	}
}

func (s *mockStorage) CreateRule(_ context.Context, rule *model.RoutingRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRuleID++
	rule.ID = s.nextRuleID
	s.rules = append(s.rules, *rule)
	return nil
}

func (s *mockStorage) GetRule(_ context.Context, id int64) (*model.RoutingRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rules {
		if s.rules[i].ID == id {
			rule := s.rules[i]
			return &rule, nil
		}
	}
	return nil, common.ErrRuleNotFound
}

func (s *mockStorage) ListRules(_ context.Context, activeOnly bool) ([]model.RoutingRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.RoutingRule
	for _, rule := range s.rules {
		if activeOnly && !rule.IsActive {
			continue
		}
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *mockStorage) UpdateRule(_ context.Context, rule *model.RoutingRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rules {
		if s.rules[i].ID == rule.ID {
			s.rules[i] = *rule
			return nil
		}
	}
	return common.ErrRuleNotFound
}

func (s *mockStorage) DeactivateRule(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rules {
		if s.rules[i].ID == id {
			s.rules[i].IsActive = false
			return nil
		}
	}
	return common.ErrRuleNotFound
}

func (s *mockStorage) IncrementRuleUseCount(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rules {
		if s.rules[i].ID == id {
			s.rules[i].UseCount++
			return nil
		}
	}
	return common.ErrRuleNotFound
}

func (s *mockStorage) SaveTransactions(_ context.Context, transactions []model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range transactions {
		txn := transactions[i]
		if txn.Status == "" {
			txn.Status = model.StatusUnrouted
		}
		s.transactions[txn.ID] = &txn
	}
	return nil
}

func (s *mockStorage) GetTransaction(_ context.Context, id string) (*model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	txn, ok := s.transactions[id]
	if !ok {
		return nil, common.ErrTransactionNotFound
	}
	copied := *txn
	return &copied, nil
}

func (s *mockStorage) GetUnroutedTransactions(_ context.Context, companyID string) ([]model.Transaction, error) {
	if s.snapshotEntered != nil {
		s.snapshotEntered <- struct{}{}
		<-s.snapshotRelease
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Transaction
	for _, txn := range s.transactions {
		if txn.CompanyID == companyID && txn.Status == model.StatusUnrouted {
			out = append(out, *txn)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *mockStorage) ApplyRouting(_ context.Context, update service.RoutingUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.applyErr[update.TransactionID]; err != nil {
		return err
	}

	txn, ok := s.transactions[update.TransactionID]
	if !ok {
		return common.ErrTransactionNotFound
	}
	if txn.Status != update.ExpectedStatus {
		return common.ErrConcurrencyConflict
	}

	txn.Status = update.NewStatus
	txn.ConfidenceScore = update.ConfidenceScore
	switch update.NewStatus {
	case model.StatusRouted:
		txn.AssignedProjectID = update.AssignedProjectID
		txn.SuggestedProjectID = nil
	case model.StatusSuggested:
		txn.SuggestedProjectID = update.SuggestedProjectID
	}
	return nil
}

func (s *mockStorage) ResetTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	txn, ok := s.transactions[id]
	if !ok {
		return common.ErrTransactionNotFound
	}
	txn.Status = model.StatusUnrouted
	txn.AssignedProjectID = nil
	txn.SuggestedProjectID = nil
	txn.ConfidenceScore = nil
	return nil
}

func (s *mockStorage) SaveProject(_ context.Context, project *model.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = append(s.projects, *project)
	return nil
}

func (s *mockStorage) GetProjectByCode(_ context.Context, code string) (*model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.projects {
		if s.projects[i].Code == code && s.projects[i].IsActive {
			project := s.projects[i]
			return &project, nil
		}
	}
	return nil, common.ErrProjectNotFound
}

func (s *mockStorage) GetProjectByName(_ context.Context, name string) (*model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.projects {
		if strings.EqualFold(s.projects[i].Name, name) && s.projects[i].IsActive {
			project := s.projects[i]
			return &project, nil
		}
	}
	return nil, common.ErrProjectNotFound
}

func (s *mockStorage) ListProjects(_ context.Context, companyID string) ([]model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Project
	for _, project := range s.projects {
		if project.CompanyID == companyID && project.IsActive {
			out = append(out, project)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *mockStorage) SaveRoutingEvent(_ context.Context, event *model.RoutingEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, *event)
	return nil
}

func (s *mockStorage) ListRoutingEvents(_ context.Context, _ string, _ int) ([]model.RoutingEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.RoutingEvent(nil), s.events...), nil
}

func (s *mockStorage) Migrate(_ context.Context) error { return nil }

func (s *mockStorage) Close() error { return nil }

func (s *mockStorage) ruleUseCount(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rules {
		if s.rules[i].ID == id {
			return s.rules[i].UseCount
		}
	}
	return -1
}

// mockDirectory resolves lookups against the mock storage's projects.
type mockDirectory struct {
	store *mockStorage
}

func (d *mockDirectory) Lookup(ctx context.Context, codeOrName string) (string, error) {
	if project, err := d.store.GetProjectByCode(ctx, codeOrName); err == nil {
		return project.ID, nil
	}
	project, err := d.store.GetProjectByName(ctx, codeOrName)
	if err != nil {
		return "", err
	}
	return project.ID, nil
}

func (d *mockDirectory) ListCandidates(ctx context.Context, companyID string) ([]model.Project, error) {
	return d.store.ListProjects(ctx, companyID)
}

// mockAudit collects decisions synchronously.
type mockAudit struct {
	decisions []model.RoutingDecision
	mu        sync.Mutex
}

func (a *mockAudit) Record(decision model.RoutingDecision) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.decisions = append(a.decisions, decision)
}

func (a *mockAudit) recorded() []model.RoutingDecision {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]model.RoutingDecision(nil), a.decisions...)
}
