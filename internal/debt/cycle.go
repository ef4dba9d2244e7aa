package debt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=cycle.go -destination=repository_mock.go -package=debt
type Repository interface {
	CreateDebt(ctx context.Context, d *Debt) error
	UpdateDebt(ctx context.Context, d *Debt) error
	FindActiveByClientID(ctx context.Context, clientID string) (*Debt, error)
	FindByCreditID(ctx context.Context, creditID uuid.UUID) (*Debt, error)
	ListByClientID(ctx context.Context, clientID string) ([]*Debt, error)
	DeleteByCreditID(ctx context.Context, creditID uuid.UUID) error
}

// Service manages the monthly debt cycle: it opens the initial debt when an
// account is created, keeps the active debt's amount in sync with the
// account's consumption, and rolls the cycle forward when a balance is paid
// off.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// OpenInitial creates the ACTIVE debt that accompanies a freshly created
// credit account. The first cycle runs until the end of the current month.
func (s *Service) OpenInitial(ctx context.Context, creditID uuid.UUID, clientID string) (*Debt, error) {
	d := &Debt{
		ID:       uuid.New(),
		CreditID: creditID,
		ClientID: clientID,
		Amount:   decimal.Zero,
		Status:   StatusActive,
		DueDate:  endOfMonth(s.now()),
	}

	if err := s.repo.CreateDebt(ctx, d); err != nil {
		return nil, fmt.Errorf("creating initial debt: %w", err)
	}

	return d, nil
}

// SyncConsumption sets the client's active debt amount to the credit's new
// consumption. When the amount reaches zero the debt transitions to PAID
// and a fresh ACTIVE debt is opened for the next cycle, due one calendar
// month after the previous due date. The returned debt is the one that is
// ACTIVE after the call.
func (s *Service) SyncConsumption(ctx context.Context, clientID string, amount decimal.Decimal) (*Debt, error) {
	d, err := s.repo.FindActiveByClientID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("finding active debt: %w", err)
	}

	d.Amount = amount

	if amount.Sign() > 0 {
		if err := s.repo.UpdateDebt(ctx, d); err != nil {
			return nil, fmt.Errorf("updating debt: %w", err)
		}

		return d, nil
	}

	d.Status = StatusPaid
	if err := s.repo.UpdateDebt(ctx, d); err != nil {
		return nil, fmt.Errorf("closing debt: %w", err)
	}

	next := &Debt{
		ID:       uuid.New(),
		CreditID: d.CreditID,
		ClientID: d.ClientID,
		Amount:   decimal.Zero,
		Status:   StatusActive,
		DueDate:  d.DueDate.AddDate(0, 1, 0),
	}

	if err := s.repo.CreateDebt(ctx, next); err != nil {
		return nil, fmt.Errorf("opening next cycle: %w", err)
	}

	return next, nil
}

// RestoreConsumption sets the active debt's amount back to a previously
// committed value without touching the cycle: no PAID transition and no
// next-cycle spawn, even at zero. Used to compensate when the credit write
// fails after the debt write already went through.
func (s *Service) RestoreConsumption(ctx context.Context, clientID string, amount decimal.Decimal) error {
	d, err := s.repo.FindActiveByClientID(ctx, clientID)
	if err != nil {
		return fmt.Errorf("finding active debt: %w", err)
	}

	d.Amount = amount

	if err := s.repo.UpdateDebt(ctx, d); err != nil {
		return fmt.Errorf("restoring debt amount: %w", err)
	}

	return nil
}

// HasOverdue reports whether the client's active debt, if any, is overdue
// as of today.
func (s *Service) HasOverdue(ctx context.Context, clientID string, today time.Time) (bool, error) {
	d, err := s.repo.FindActiveByClientID(ctx, clientID)
	if err != nil {
		if errors.Is(err, ErrNoActiveDebt) {
			return false, nil
		}

		return false, fmt.Errorf("finding active debt: %w", err)
	}

	return Overdue(d, today), nil
}

// ListByClient returns all debt records for the client, newest cycle first.
func (s *Service) ListByClient(ctx context.Context, clientID string) ([]*Debt, error) {
	return s.repo.ListByClientID(ctx, clientID)
}

// RemoveForCredit deletes every debt record tied to the credit. Called when
// the owning credit account is removed.
func (s *Service) RemoveForCredit(ctx context.Context, creditID uuid.UUID) error {
	return s.repo.DeleteByCreditID(ctx, creditID)
}

func endOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1)
}
