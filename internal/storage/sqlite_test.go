package storage

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/buildledger/ledgerroute/internal/model"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func testRule(name string, priority int) *model.RoutingRule {
	return &model.RoutingRule{
		Name:            name,
		FieldType:       model.FieldMemo,
		MatchType:       model.MatchContains,
		MatchValue:      "lumber",
		TargetProjectID: "proj-1",
		Priority:        priority,
		IsActive:        true,
	}
}

func testTransaction(id, companyID string, date time.Time) model.Transaction {
	return model.Transaction{
		ID:               id,
		ExternalID:       "ext-" + id,
		CompanyID:        companyID,
		Type:             model.TypeExpense,
		Description:      "materials",
		Amount:           decimal.NewFromFloat(123.45),
		CounterpartyName: "ACME Lumber",
		Memo:             "lumber delivery",
		Date:             date,
	}
}
