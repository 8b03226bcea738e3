// Package feed ingests accounting statements and produces unrouted
// transactions for the routing engine. The engine only consumes this feed;
// it never writes back to it.
package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/buildledger/ledgerroute/internal/model"
)

// Parser reads OFX/QFX statement files from the accounting export.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile parses an OFX/QFX statement and returns unrouted transactions
// for the given company.
func (p *Parser) ParseFile(_ context.Context, reader io.Reader, companyID string) ([]model.Transaction, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read statement: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocess(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX statement: %w", err)
	}

	var transactions []model.Transaction

	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		for _, ofxTx := range stmt.BankTranList.Transactions {
			transactions = append(transactions, p.convert(ofxTx, companyID))
		}
	}

	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		for _, ofxTx := range stmt.BankTranList.Transactions {
			transactions = append(transactions, p.convert(ofxTx, companyID))
		}
	}

	slog.Info("Parsed OFX statement",
		"company_id", companyID,
		"transactions", len(transactions))

	return transactions, nil
}

// convert maps one OFX transaction onto the routing model. Everything starts
// unrouted; classification is the engine's job, not the feed's.
func (p *Parser) convert(ofxTx ofxgo.Transaction, companyID string) model.Transaction {
	amount := decimal.NewFromBigRat(&ofxTx.TrnAmt.Rat, 2).Abs()

	counterparty := string(ofxTx.Name)
	if ofxTx.Payee != nil && ofxTx.Payee.Name != "" {
		counterparty = string(ofxTx.Payee.Name)
	}

	txn := model.Transaction{
		ID:               uuid.NewString(),
		ExternalID:       string(ofxTx.FiTID),
		CompanyID:        companyID,
		Type:             mapTransactionType(fmt.Sprintf("%v", ofxTx.TrnType)),
		Description:      string(ofxTx.Name),
		Amount:           amount,
		CounterpartyName: strings.TrimSpace(counterparty),
		Memo:             string(ofxTx.Memo),
		ReferenceNumber:  string(ofxTx.CheckNum),
		Date:             ofxTx.DtPosted.Time,
		Status:           model.StatusUnrouted,
	}
	txn.Hash = txn.GenerateHash()

	return txn
}

// mapTransactionType folds OFX transaction types into the routing model's
// closed set.
func mapTransactionType(ofxType string) model.TransactionType {
	switch ofxType {
	case "CHECK":
		return model.TypeCheck
	case "PAYMENT", "XFER", "DIRECTDEBIT", "REPEATPMT":
		return model.TypePayment
	case "CREDIT", "INT", "DIV", "DEP", "DIRECTDEP":
		return model.TypeInvoice
	default:
		return model.TypeExpense
	}
}

// preprocess fixes common formatting issues in exported OFX files before
// handing them to the parser.
func preprocess(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// Some exporters emit mixed-case SEVERITY values.
	for _, severity := range []string{"Info", "Warn", "Error"} {
		content = strings.ReplaceAll(content,
			"<SEVERITY>"+severity+"</SEVERITY>",
			"<SEVERITY>"+strings.ToUpper(severity)+"</SEVERITY>")
	}

	return content
}
