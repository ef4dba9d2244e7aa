package debt

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle state of a debt record.
type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusPaid    Status = "PAID"
	StatusExpired Status = "EXPIRED"
)

// ErrNoActiveDebt is returned when a client has no open billing cycle.
var ErrNoActiveDebt = errors.New("no active debt for client")

// Debt is the obligation record for a credit account's current billing
// cycle. A credit has at most one ACTIVE debt at any time, and the active
// debt's amount tracks the credit's consumption.
type Debt struct {
	ID       uuid.UUID
	CreditID uuid.UUID
	ClientID string
	Amount   decimal.Decimal
	Status   Status
	DueDate  time.Time
}

// Overdue reports whether d blocks new credit for its client as of today.
// A debt is overdue when it is still ACTIVE and its due date falls strictly
// before the first day of today's month. The comparison is pure; EXPIRED is
// never persisted, only computed here at read time.
func Overdue(d *Debt, today time.Time) bool {
	if d == nil || d.Status != StatusActive {
		return false
	}

	firstOfMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	due := time.Date(d.DueDate.Year(), d.DueDate.Month(), d.DueDate.Day(), 0, 0, 0, 0, time.UTC)

	return due.Before(firstOfMonth)
}
