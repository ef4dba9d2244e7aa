package credit_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgi/credit/internal/credit"
	"github.com/sgi/credit/internal/debt"
)

// In-memory stores backing the end-to-end ledger tests. Unlike the gomock
// tests these exercise real read-modify-write sequences, which is what the
// per-account serialization guards.

type memCreditRepo struct {
	mu      sync.RWMutex
	credits map[uuid.UUID]credit.Credit
}

func newMemCreditRepo() *memCreditRepo {
	return &memCreditRepo{credits: make(map[uuid.UUID]credit.Credit)}
}

func (r *memCreditRepo) CreateCredit(_ context.Context, c *credit.Credit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.credits[c.ID] = *c
	return nil
}

func (r *memCreditRepo) GetCredit(_ context.Context, id uuid.UUID) (*credit.Credit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.credits[id]
	if !ok {
		return nil, credit.ErrNotFound
	}

	return &c, nil
}

func (r *memCreditRepo) UpdateCredit(_ context.Context, c *credit.Credit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.credits[c.ID]; !ok {
		return credit.ErrNotFound
	}

	r.credits[c.ID] = *c
	return nil
}

func (r *memCreditRepo) DeleteCredit(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.credits, id)
	return nil
}

func (r *memCreditRepo) ListCredits(_ context.Context, filter credit.ListFilter) ([]*credit.Credit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*credit.Credit

	for _, c := range r.credits {
		if filter.ClientID != nil && c.ClientID != *filter.ClientID {
			continue
		}

		if filter.Type != nil && c.Type != *filter.Type {
			continue
		}

		cc := c
		out = append(out, &cc)
	}

	return out, nil
}

func (r *memCreditRepo) ListByClientID(ctx context.Context, clientID string) ([]*credit.Credit, error) {
	return r.ListCredits(ctx, credit.ListFilter{ClientID: &clientID})
}

type memDebtRepo struct {
	mu    sync.RWMutex
	debts map[uuid.UUID]debt.Debt
}

func newMemDebtRepo() *memDebtRepo {
	return &memDebtRepo{debts: make(map[uuid.UUID]debt.Debt)}
}

func (r *memDebtRepo) CreateDebt(_ context.Context, d *debt.Debt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.debts[d.ID] = *d
	return nil
}

func (r *memDebtRepo) UpdateDebt(_ context.Context, d *debt.Debt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.debts[d.ID] = *d
	return nil
}

func (r *memDebtRepo) FindActiveByClientID(_ context.Context, clientID string) (*debt.Debt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.debts {
		if d.ClientID == clientID && d.Status == debt.StatusActive {
			dd := d
			return &dd, nil
		}
	}

	return nil, debt.ErrNoActiveDebt
}

func (r *memDebtRepo) FindByCreditID(_ context.Context, creditID uuid.UUID) (*debt.Debt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.debts {
		if d.CreditID == creditID && d.Status == debt.StatusActive {
			dd := d
			return &dd, nil
		}
	}

	return nil, debt.ErrNoActiveDebt
}

func (r *memDebtRepo) ListByClientID(_ context.Context, clientID string) ([]*debt.Debt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*debt.Debt

	for _, d := range r.debts {
		if d.ClientID == clientID {
			dd := d
			out = append(out, &dd)
		}
	}

	return out, nil
}

func (r *memDebtRepo) DeleteByCreditID(_ context.Context, creditID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, d := range r.debts {
		if d.CreditID == creditID {
			delete(r.debts, id)
		}
	}

	return nil
}

type memRecorder struct {
	mu      sync.Mutex
	records []credit.TransactionRecord
}

func (r *memRecorder) Record(_ context.Context, rec credit.TransactionRecord) (*credit.TransactionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec.ID = fmt.Sprintf("tx-%d", len(r.records)+1)
	rec.CreatedAt = time.Now()
	r.records = append(r.records, rec)

	return &rec, nil
}

func (r *memRecorder) History(_ context.Context, productID string) ([]credit.TransactionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []credit.TransactionRecord

	for _, rec := range r.records {
		if rec.ProductID == productID {
			out = append(out, rec)
		}
	}

	return out, nil
}

type ledgerFixture struct {
	svc      *credit.Service
	debts    *memDebtRepo
	recorder *memRecorder
}

func newLedger(t *testing.T) *ledgerFixture {
	t.Helper()

	debts := newMemDebtRepo()
	rec := &memRecorder{}
	svc := credit.NewService(newMemCreditRepo(), debt.NewService(debts), rec, credit.RandomNumberGenerator{})

	return &ledgerFixture{svc: svc, debts: debts, recorder: rec}
}

func TestLedger_ChargeThenPaymentRestoresConsumption(t *testing.T) {
	f := newLedger(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, credit.CreateParams{
		ClientID:    "client-1",
		CreditLimit: dec(1000),
		Type:        credit.TypePersonal,
	})
	require.NoError(t, err)

	_, err = f.svc.Charge(ctx, c.ID, dec(250))
	require.NoError(t, err)

	_, err = f.svc.Pay(ctx, c.ID, dec(250))
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, got.ConsumptionAmount.IsZero())
	assert.True(t, got.Balance.Equal(dec(1000)))
	assert.True(t, got.Balance.Add(got.ConsumptionAmount).Equal(got.CreditLimit))

	// Paying down to zero closes the cycle and opens the next one.
	debts, err := f.debts.ListByClientID(ctx, "client-1")
	require.NoError(t, err)

	var active, paid int

	for _, d := range debts {
		switch d.Status {
		case debt.StatusActive:
			active++

			assert.True(t, d.Amount.IsZero())
		case debt.StatusPaid:
			paid++
		}
	}

	assert.Equal(t, 1, active)
	assert.Equal(t, 1, paid)
}

func TestLedger_BalanceIsIdempotent(t *testing.T) {
	f := newLedger(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, credit.CreateParams{
		ClientID:    "client-1",
		CreditLimit: dec(750),
		Type:        credit.TypePersonal,
	})
	require.NoError(t, err)

	_, err = f.svc.Charge(ctx, c.ID, dec(50))
	require.NoError(t, err)

	first, err := f.svc.Balance(ctx, c.ID)
	require.NoError(t, err)

	second, err := f.svc.Balance(ctx, c.ID)
	require.NoError(t, err)

	assert.Equal(t, first.ClientID, second.ClientID)
	assert.True(t, first.Balance.Equal(second.Balance))
	assert.True(t, first.Balance.Equal(dec(700)))
}

func TestLedger_ConcurrentChargesDoNotLoseUpdates(t *testing.T) {
	const (
		workers = 50
		amount  = 10
	)

	f := newLedger(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, credit.CreateParams{
		ClientID:    "client-1",
		CreditLimit: dec(workers * amount),
		Type:        credit.TypePersonal,
	})
	require.NoError(t, err)

	var wg sync.WaitGroup

	errs := make(chan error, workers)

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := f.svc.Charge(ctx, c.ID, dec(amount))
			errs <- err
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	got, err := f.svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, got.ConsumptionAmount.Equal(dec(workers*amount)), "lost update: consumption %s", got.ConsumptionAmount)
	assert.True(t, got.Balance.IsZero())

	// The active debt tracks the full consumption as well.
	d, err := f.debts.FindActiveByClientID(ctx, "client-1")
	require.NoError(t, err)
	assert.True(t, d.Amount.Equal(dec(workers*amount)))

	// Credit exhausted: one more charge must be rejected.
	_, err = f.svc.Charge(ctx, c.ID, dec(amount))
	assert.ErrorIs(t, err, credit.ErrInsufficientBalance)

	history, err := f.recorder.History(ctx, c.ID.String())
	require.NoError(t, err)
	assert.Len(t, history, workers)
}

func TestLedger_IndependentAccountsStayConcurrent(t *testing.T) {
	f := newLedger(t)
	ctx := context.Background()

	a, err := f.svc.Create(ctx, credit.CreateParams{ClientID: "client-a", CreditLimit: dec(100), Type: credit.TypePersonal})
	require.NoError(t, err)

	b, err := f.svc.Create(ctx, credit.CreateParams{ClientID: "client-b", CreditLimit: dec(100), Type: credit.TypePersonal})
	require.NoError(t, err)

	var wg sync.WaitGroup

	for _, id := range []uuid.UUID{a.ID, b.ID} {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range 10 {
				_, err := f.svc.Charge(ctx, id, decimal.NewFromInt(1))
				assert.NoError(t, err)
			}
		}()
	}

	wg.Wait()

	for _, id := range []uuid.UUID{a.ID, b.ID} {
		got, err := f.svc.Get(ctx, id)
		require.NoError(t, err)
		assert.True(t, got.ConsumptionAmount.Equal(dec(10)))
	}
}
