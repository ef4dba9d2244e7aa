package credit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sgi/credit/internal/debt"
)

//go:generate mockgen -source=service.go -destination=service_mock.go -package=credit
type Repository interface {
	CreateCredit(ctx context.Context, c *Credit) error
	GetCredit(ctx context.Context, id uuid.UUID) (*Credit, error)
	UpdateCredit(ctx context.Context, c *Credit) error
	DeleteCredit(ctx context.Context, id uuid.UUID) error
	ListCredits(ctx context.Context, filter ListFilter) ([]*Credit, error)
	ListByClientID(ctx context.Context, clientID string) ([]*Credit, error)
}

// Recorder is the external transaction-history service. Implementations
// translate transport failures to ErrOperationFailed.
type Recorder interface {
	Record(ctx context.Context, rec TransactionRecord) (*TransactionRecord, error)
	History(ctx context.Context, productID string) ([]TransactionRecord, error)
}

// Service is the credit ledger. It validates and applies charge, payment
// and account operations, keeps the derived balance consistent with the
// credit limit and consumption, and drives the debt cycle alongside.
//
// All mutating operations on one account serialize through a per-account
// lock; operations on different accounts run concurrently. Reads bypass
// the lock.
type Service struct {
	repo     Repository
	debts    *debt.Service
	recorder Recorder
	numbers  NumberGenerator
	locks    *accountLocker
	now      func() time.Time
}

func NewService(repo Repository, debts *debt.Service, recorder Recorder, numbers NumberGenerator) *Service {
	return &Service{
		repo:     repo,
		debts:    debts,
		recorder: recorder,
		numbers:  numbers,
		locks:    newAccountLocker(),
		now:      time.Now,
	}
}

type CreateParams struct {
	ClientID     string
	CreditLimit  decimal.Decimal
	InterestRate decimal.Decimal
	Type         Type
}

type UpdateParams struct {
	CreditLimit  decimal.Decimal
	InterestRate decimal.Decimal
	Type         Type
}

type ListFilter struct {
	ClientID *string
	Type     *Type
}

// Create opens a new credit account for the client, provided the client
// has no overdue debt. The account starts with zero consumption and a
// companion ACTIVE debt for the current cycle. If the debt write fails the
// freshly written credit is removed again, so no account exists without
// its debt record.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Credit, error) {
	if params.ClientID == "" || !params.CreditLimit.IsPositive() {
		return nil, fmt.Errorf("client id and positive credit limit required: %w", ErrInvalidInput)
	}

	overdue, err := s.debts.HasOverdue(ctx, params.ClientID, s.now())
	if err != nil {
		return nil, fmt.Errorf("checking overdue debt: %w", err)
	}

	if overdue {
		return nil, ErrOutstandingDebt
	}

	now := s.now()
	c := &Credit{
		ID:                uuid.New(),
		CreditNumber:      s.numbers.Generate(),
		ClientID:          params.ClientID,
		CreditLimit:       params.CreditLimit,
		ConsumptionAmount: decimal.Zero,
		Balance:           params.CreditLimit,
		InterestRate:      params.InterestRate,
		Type:              params.Type,
		CreatedDate:       now,
		UpdatedDate:       now,
	}

	if err := s.repo.CreateCredit(ctx, c); err != nil {
		return nil, fmt.Errorf("creating credit: %w", err)
	}

	if _, err := s.debts.OpenInitial(ctx, c.ID, c.ClientID); err != nil {
		if delErr := s.repo.DeleteCredit(ctx, c.ID); delErr != nil {
			slog.Error("compensating credit delete failed", "credit_id", c.ID, "error", delErr)
		}

		return nil, fmt.Errorf("opening initial debt: %w", err)
	}

	return c, nil
}

// Charge draws the amount down from the account's available credit. The
// active debt's amount follows the new consumption. The recorder is
// notified after the balance is committed; a recorder failure is surfaced
// but the balance change stands.
func (s *Service) Charge(ctx context.Context, creditID uuid.UUID, amount decimal.Decimal) (*TransactionRecord, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("charge amount must be positive: %w", ErrInvalidInput)
	}

	unlock := s.locks.Lock(creditID)
	defer unlock()

	c, err := s.repo.GetCredit(ctx, creditID)
	if err != nil {
		return nil, fmt.Errorf("loading credit: %w", err)
	}

	// Boundary inclusive: a charge equal to the available credit succeeds.
	if amount.GreaterThan(c.Available()) {
		return nil, ErrInsufficientBalance
	}

	return s.apply(ctx, c, TransactionCharge, amount, c.ConsumptionAmount.Add(amount))
}

// Pay reduces the account's consumption. A payment may never exceed the
// outstanding consumption. Paying the consumption down to zero closes the
// active debt and opens the next cycle.
func (s *Service) Pay(ctx context.Context, creditID uuid.UUID, amount decimal.Decimal) (*TransactionRecord, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("payment amount must be positive: %w", ErrInvalidInput)
	}

	unlock := s.locks.Lock(creditID)
	defer unlock()

	c, err := s.repo.GetCredit(ctx, creditID)
	if err != nil {
		return nil, fmt.Errorf("loading credit: %w", err)
	}

	if amount.GreaterThan(c.ConsumptionAmount) {
		return nil, fmt.Errorf("payment exceeds outstanding consumption: %w", ErrInvalidInput)
	}

	return s.apply(ctx, c, TransactionPayment, amount, c.ConsumptionAmount.Sub(amount))
}

// apply commits a consumption change: debt first, then credit, then the
// recorder notification. Write order matches the upstream behavior; the
// recorder call never rolls the balance back. A failed credit write
// restores the debt's amount so the two records never diverge.
func (s *Service) apply(ctx context.Context, c *Credit, kind TransactionType, amount, consumption decimal.Decimal) (*TransactionRecord, error) {
	prior := c.ConsumptionAmount

	if _, err := s.debts.SyncConsumption(ctx, c.ClientID, consumption); err != nil {
		return nil, fmt.Errorf("syncing debt: %w", err)
	}

	c.ConsumptionAmount = consumption
	c.Balance = c.CreditLimit.Sub(consumption)
	c.UpdatedDate = s.now()

	if err := s.repo.UpdateCredit(ctx, c); err != nil {
		if restoreErr := s.debts.RestoreConsumption(ctx, c.ClientID, prior); restoreErr != nil {
			slog.Error("compensating debt restore failed", "credit_id", c.ID, "error", restoreErr)
		}

		return nil, fmt.Errorf("saving credit: %w", err)
	}

	ack, err := s.recorder.Record(ctx, TransactionRecord{
		ProductID: c.ID.String(),
		ClientID:  c.ClientID,
		Type:      kind,
		Amount:    amount,
		Balance:   c.Balance,
	})
	if err != nil {
		return nil, fmt.Errorf("recording %s: %w", kind, err)
	}

	return ack, nil
}

// Update overwrites the account's limit, type and interest rate. The
// balance is recomputed from the new limit so the derived-field invariant
// keeps holding; a limit below the current consumption is rejected.
func (s *Service) Update(ctx context.Context, creditID uuid.UUID, params UpdateParams) (*Credit, error) {
	if !params.CreditLimit.IsPositive() {
		return nil, fmt.Errorf("credit limit must be positive: %w", ErrInvalidInput)
	}

	unlock := s.locks.Lock(creditID)
	defer unlock()

	c, err := s.repo.GetCredit(ctx, creditID)
	if err != nil {
		return nil, fmt.Errorf("loading credit: %w", err)
	}

	if params.CreditLimit.LessThan(c.ConsumptionAmount) {
		return nil, fmt.Errorf("credit limit below current consumption: %w", ErrInvalidInput)
	}

	c.CreditLimit = params.CreditLimit
	c.Type = params.Type
	c.InterestRate = params.InterestRate
	c.Balance = c.CreditLimit.Sub(c.ConsumptionAmount)
	c.UpdatedDate = s.now()

	if err := s.repo.UpdateCredit(ctx, c); err != nil {
		return nil, fmt.Errorf("saving credit: %w", err)
	}

	return c, nil
}

// Delete removes the account and every debt record tied to it.
func (s *Service) Delete(ctx context.Context, creditID uuid.UUID) error {
	unlock := s.locks.Lock(creditID)
	defer unlock()

	if _, err := s.repo.GetCredit(ctx, creditID); err != nil {
		return fmt.Errorf("loading credit: %w", err)
	}

	if err := s.repo.DeleteCredit(ctx, creditID); err != nil {
		return fmt.Errorf("deleting credit: %w", err)
	}

	if err := s.debts.RemoveForCredit(ctx, creditID); err != nil {
		return fmt.Errorf("deleting debts: %w", err)
	}

	return nil
}

// Balance returns the account's owner and current available balance.
func (s *Service) Balance(ctx context.Context, creditID uuid.UUID) (*BalanceSummary, error) {
	c, err := s.repo.GetCredit(ctx, creditID)
	if err != nil {
		return nil, fmt.Errorf("loading credit: %w", err)
	}

	return &BalanceSummary{ClientID: c.ClientID, Balance: c.Balance}, nil
}

func (s *Service) Get(ctx context.Context, creditID uuid.UUID) (*Credit, error) {
	return s.repo.GetCredit(ctx, creditID)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Credit, error) {
	return s.repo.ListCredits(ctx, filter)
}

func (s *Service) ListByClient(ctx context.Context, clientID string) ([]*Credit, error) {
	return s.repo.ListByClientID(ctx, clientID)
}

// Transactions returns the account's movement history from the recorder.
func (s *Service) Transactions(ctx context.Context, creditID uuid.UUID) ([]TransactionRecord, error) {
	if _, err := s.repo.GetCredit(ctx, creditID); err != nil {
		return nil, fmt.Errorf("loading credit: %w", err)
	}

	return s.recorder.History(ctx, creditID.String())
}
