package engine

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildledger/ledgerroute/internal/model"
	"github.com/buildledger/ledgerroute/internal/pattern"
)

const testCompany = "company-1"

type testFixture struct {
	store  *mockStorage
	dir    *mockDirectory
	audit  *mockAudit
	engine *RoutingEngine
}

func newFixture() *testFixture {
	store := newMockStorage()
	dir := &mockDirectory{store: store}
	audit := &mockAudit{}
	return &testFixture{
		store:  store,
		dir:    dir,
		audit:  audit,
		engine: New(store, dir, audit),
	}
}

func (f *testFixture) addRule(t *testing.T, rule model.RoutingRule) model.RoutingRule {
	t.Helper()
	rule.IsActive = true
	require.NoError(t, f.store.CreateRule(context.Background(), &rule))
	return rule
}

func (f *testFixture) addProject(t *testing.T, id, name, code string) {
	t.Helper()
	require.NoError(t, f.store.SaveProject(context.Background(), &model.Project{
		ID:        id,
		CompanyID: testCompany,
		Name:      name,
		Code:      code,
		IsActive:  true,
	}))
}

func (f *testFixture) addTransaction(t *testing.T, id, memo string) {
	t.Helper()
	require.NoError(t, f.store.SaveTransactions(context.Background(), []model.Transaction{{
		ID:        id,
		CompanyID: testCompany,
		Memo:      memo,
		Amount:    decimal.NewFromInt(250),
		Date:      time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Status:    model.StatusUnrouted,
	}}))
}

func (f *testFixture) decide(t *testing.T, txn model.Transaction) model.RoutingDecision {
	t.Helper()
	ctx := context.Background()
	rules, err := f.store.ListRules(ctx, true)
	require.NoError(t, err)
	candidates, err := f.dir.ListCandidates(ctx, testCompany)
	require.NoError(t, err)
	matcher := pattern.NewMatcher(rules, f.dir, time.Second)
	return f.engine.Decide(ctx, matcher, rules, candidates, txn)
}

func memoTxn(memo string) model.Transaction {
	return model.Transaction{
		ID:        "txn-1",
		CompanyID: testCompany,
		Memo:      memo,
		Amount:    decimal.NewFromInt(250),
		Status:    model.StatusUnrouted,
	}
}

func TestDecideFirstMatchWins(t *testing.T) {
	f := newFixture()
	kitchen := f.addRule(t, model.RoutingRule{
		Name: "Kitchen", FieldType: model.FieldMemo, MatchType: model.MatchContains,
		MatchValue: "kitchen", TargetProjectID: "proj-kitchen", Priority: 1,
	})
	f.addRule(t, model.RoutingRule{
		Name: "Cabinet", FieldType: model.FieldMemo, MatchType: model.MatchContains,
		MatchValue: "cabinet", TargetProjectID: "proj-cabinet", Priority: 2,
	})

	decision := f.decide(t, memoTxn("kitchen cabinet order"))

	assert.Equal(t, model.OutcomeRouted, decision.Outcome)
	require.NotNil(t, decision.ProjectID)
	assert.Equal(t, "proj-kitchen", *decision.ProjectID)
	require.NotNil(t, decision.RuleID)
	assert.Equal(t, kitchen.ID, *decision.RuleID)
	require.NotNil(t, decision.Confidence)
	assert.Equal(t, 100, *decision.Confidence)
}

func TestDecideAutoDetectResolves(t *testing.T) {
	f := newFixture()
	f.addProject(t, "proj-riverside", "Riverside Tower", "123")
	f.addRule(t, model.RoutingRule{
		Name: "Project codes", FieldType: model.FieldMemo, MatchType: model.MatchRegex,
		MatchValue: `PROJ-(?P<project_code>\d{3})`, TargetProjectID: model.TargetAutoDetect, Priority: 1,
	})

	decision := f.decide(t, memoTxn("Kitchen supplies PROJ-123"))

	assert.Equal(t, model.OutcomeRouted, decision.Outcome)
	require.NotNil(t, decision.ProjectID)
	assert.Equal(t, "proj-riverside", *decision.ProjectID)
}

// An auto-detect rule that matches but cannot resolve claims the transaction:
// lower-priority rules never see it.
func TestDecideUnresolvedAutoDetectClaims(t *testing.T) {
	f := newFixture()
	auto := f.addRule(t, model.RoutingRule{
		Name: "Project codes", FieldType: model.FieldMemo, MatchType: model.MatchRegex,
		MatchValue: `PROJ-(?P<project_code>\d{3})`, TargetProjectID: model.TargetAutoDetect, Priority: 1,
	})
	f.addRule(t, model.RoutingRule{
		Name: "Supplies", FieldType: model.FieldMemo, MatchType: model.MatchContains,
		MatchValue: "supplies", TargetProjectID: "proj-other", Priority: 2,
	})

	decision := f.decide(t, memoTxn("supplies PROJ-999"))

	assert.Equal(t, model.OutcomeUnresolved, decision.Outcome)
	assert.Nil(t, decision.ProjectID)
	require.NotNil(t, decision.RuleID)
	assert.Equal(t, auto.ID, *decision.RuleID)
}

func TestDecideSuggestionFallback(t *testing.T) {
	f := newFixture()
	f.addProject(t, "proj-lumber", "Lumber Co Renovation", "")

	decision := f.decide(t, memoTxn("Lumber purchase"))

	assert.Equal(t, model.OutcomeSuggested, decision.Outcome)
	require.NotNil(t, decision.ProjectID)
	assert.Equal(t, "proj-lumber", *decision.ProjectID)
	require.NotNil(t, decision.Confidence)
	assert.GreaterOrEqual(t, *decision.Confidence, pattern.DefaultThreshold)
	assert.Nil(t, decision.RuleID)
}

func TestDecideNothingMatches(t *testing.T) {
	f := newFixture()
	f.addProject(t, "proj-tower", "Riverside Tower", "")

	decision := f.decide(t, memoTxn("Office snacks"))

	assert.Equal(t, model.OutcomeUnrouted, decision.Outcome)
	assert.Nil(t, decision.ProjectID)
	assert.Nil(t, decision.RuleID)
	assert.Nil(t, decision.Confidence)
}

// A faulting rule is skipped for the transaction; later rules still apply.
func TestDecideRuleFaultIsolation(t *testing.T) {
	f := newFixture()
	f.addRule(t, model.RoutingRule{
		Name: "Broken", FieldType: model.FieldMemo, MatchType: model.MatchRegex,
		MatchValue: "PROJ-[0-9", TargetProjectID: "proj-a", Priority: 1,
	})
	f.addRule(t, model.RoutingRule{
		Name: "Lumber", FieldType: model.FieldMemo, MatchType: model.MatchContains,
		MatchValue: "lumber", TargetProjectID: "proj-b", Priority: 2,
	})

	decision := f.decide(t, memoTxn("lumber delivery"))

	assert.Equal(t, model.OutcomeRouted, decision.Outcome)
	require.NotNil(t, decision.ProjectID)
	assert.Equal(t, "proj-b", *decision.ProjectID)
	assert.Equal(t, 1, decision.RuleFaults)
}

func TestDecideDeterministic(t *testing.T) {
	f := newFixture()
	f.addProject(t, "proj-lumber", "Lumber Co Renovation", "")
	f.addRule(t, model.RoutingRule{
		Name: "Kitchen", FieldType: model.FieldMemo, MatchType: model.MatchContains,
		MatchValue: "kitchen", TargetProjectID: "proj-kitchen", Priority: 1,
	})

	first := f.decide(t, memoTxn("Lumber purchase"))
	for i := 0; i < 25; i++ {
		assert.Equal(t, first, f.decide(t, memoTxn("Lumber purchase")))
	}
}

// Equal priorities fall back to creation order, so the older rule wins.
func TestDecideEqualPriorityTieBreak(t *testing.T) {
	f := newFixture()
	older := f.addRule(t, model.RoutingRule{
		Name: "First", FieldType: model.FieldMemo, MatchType: model.MatchContains,
		MatchValue: "lumber", TargetProjectID: "proj-first", Priority: 5,
	})
	f.addRule(t, model.RoutingRule{
		Name: "Second", FieldType: model.FieldMemo, MatchType: model.MatchContains,
		MatchValue: "lumber", TargetProjectID: "proj-second", Priority: 5,
	})

	decision := f.decide(t, memoTxn("lumber delivery"))

	require.NotNil(t, decision.RuleID)
	assert.Equal(t, older.ID, *decision.RuleID)
	assert.Equal(t, "proj-first", *decision.ProjectID)
}
