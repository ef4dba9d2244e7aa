package credit

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type represents the category of a credit account.
type Type string

const (
	TypePersonal Type = "PERSONAL"
	TypeBusiness Type = "BUSINESS"
)

// Sentinel errors returned by the ledger. Handlers map these to the
// service's public error codes.
var (
	ErrNotFound            = errors.New("credit not found")
	ErrOutstandingDebt     = errors.New("client has an outstanding debt")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidInput        = errors.New("invalid input provided")
	ErrOperationFailed     = errors.New("external operation failed")
)

// Credit represents a revolving credit account. Balance is derived and
// always equals CreditLimit minus ConsumptionAmount.
type Credit struct {
	ID                uuid.UUID
	CreditNumber      string
	ClientID          string
	CreditLimit       decimal.Decimal
	ConsumptionAmount decimal.Decimal
	Balance           decimal.Decimal
	InterestRate      decimal.Decimal
	Type              Type
	CreatedDate       time.Time
	UpdatedDate       time.Time
}

// Available returns the remaining credit that can still be charged.
func (c *Credit) Available() decimal.Decimal {
	return c.CreditLimit.Sub(c.ConsumptionAmount)
}

// TransactionType distinguishes ledger movements sent to the recorder.
type TransactionType string

const (
	TransactionCharge  TransactionType = "CHARGE"
	TransactionPayment TransactionType = "PAYMENT"
)

// TransactionRecord is the movement payload exchanged with the external
// transaction-history service.
type TransactionRecord struct {
	ID        string          `json:"id,omitempty"`
	ProductID string          `json:"productId"`
	ClientID  string          `json:"clientId"`
	Type      TransactionType `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"createdAt,omitempty"`
}

// BalanceSummary is the read model returned by the balance query.
type BalanceSummary struct {
	ClientID string
	Balance  decimal.Decimal
}
