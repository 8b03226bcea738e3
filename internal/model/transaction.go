// Package model defines the core data structures for the routing engine.
package model

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType identifies what kind of accounting record a transaction is.
type TransactionType string

// Transaction type constants.
const (
	TypeExpense TransactionType = "expense"
	TypeInvoice TransactionType = "invoice"
	TypePayment TransactionType = "payment"
	TypeCheck   TransactionType = "check"
)

// TransactionStatus tracks where a transaction is in the routing lifecycle.
// A transaction is born unrouted, may move to suggested (fallback scoring)
// or directly to routed (rule match or manual assignment). Routed is terminal.
type TransactionStatus string

// Transaction status constants.
const (
	StatusUnrouted  TransactionStatus = "unrouted"
	StatusSuggested TransactionStatus = "suggested"
	StatusRouted    TransactionStatus = "routed"
)

// Transaction represents a single financial transaction from the accounting feed.
type Transaction struct {
	Date               time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
	AssignedProjectID  *string
	SuggestedProjectID *string
	ConfidenceScore    *int
	ID                 string
	ExternalID         string
	CompanyID          string
	Description        string
	CounterpartyName   string
	Memo               string
	ReferenceNumber    string
	Hash               string
	Type               TransactionType
	Status             TransactionStatus
	Amount             decimal.Decimal
}

// GenerateHash creates a unique hash for duplicate detection during feed ingestion.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%s:%s:%s",
		t.Date.Format("2006-01-02"),
		t.Amount.String(),
		t.CounterpartyName,
		t.ExternalID,
		t.CompanyID)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// ValidType reports whether the transaction type is one of the known variants.
func ValidType(t TransactionType) bool {
	switch t {
	case TypeExpense, TypeInvoice, TypePayment, TypeCheck:
		return true
	}
	return false
}
