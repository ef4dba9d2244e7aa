package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/sgi/credit/internal/debt"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

// scanDebt reads a debt row. Expected column order: id, credit_id,
// client_id, amount, status, due_date
func scanDebt(s scanner) (*debt.Debt, error) {
	var d debt.Debt

	var statusStr string

	if err := s.Scan(&d.ID, &d.CreditID, &d.ClientID, &d.Amount, &statusStr, &d.DueDate); err != nil {
		return nil, err
	}

	d.Status = debt.Status(statusStr)

	return &d, nil
}

const selectDebtColumns = ` id, credit_id, client_id, amount, status, due_date `

func (s *Store) CreateDebt(ctx context.Context, d *debt.Debt) error {
	query := `
		INSERT INTO debts (id, credit_id, client_id, amount, status, due_date)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.db.ExecContext(ctx, query, d.ID, d.CreditID, d.ClientID, d.Amount, d.Status, d.DueDate)
	if err != nil {
		return fmt.Errorf("creating debt: %w", err)
	}

	return nil
}

func (s *Store) UpdateDebt(ctx context.Context, d *debt.Debt) error {
	query := `
		UPDATE debts
		SET amount = $1, status = $2, due_date = $3
		WHERE id = $4
	`

	_, err := s.db.ExecContext(ctx, query, d.Amount, d.Status, d.DueDate, d.ID)
	if err != nil {
		return fmt.Errorf("updating debt: %w", err)
	}

	return nil
}

func (s *Store) FindActiveByClientID(ctx context.Context, clientID string) (*debt.Debt, error) {
	query := `SELECT` + selectDebtColumns + `FROM debts WHERE client_id = $1 AND status = $2 ORDER BY due_date DESC LIMIT 1`

	d, err := scanDebt(s.db.QueryRowContext(ctx, query, clientID, debt.StatusActive))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, debt.ErrNoActiveDebt
		}

		return nil, fmt.Errorf("finding active debt: %w", err)
	}

	return d, nil
}

func (s *Store) FindByCreditID(ctx context.Context, creditID uuid.UUID) (*debt.Debt, error) {
	query := `SELECT` + selectDebtColumns + `FROM debts WHERE credit_id = $1 AND status = $2 ORDER BY due_date DESC LIMIT 1`

	d, err := scanDebt(s.db.QueryRowContext(ctx, query, creditID, debt.StatusActive))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, debt.ErrNoActiveDebt
		}

		return nil, fmt.Errorf("finding debt by credit: %w", err)
	}

	return d, nil
}

func (s *Store) ListByClientID(ctx context.Context, clientID string) ([]*debt.Debt, error) {
	query := `SELECT` + selectDebtColumns + `FROM debts WHERE client_id = $1 ORDER BY due_date DESC`

	rows, err := s.db.QueryContext(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("listing debts: %w", err)
	}
	defer rows.Close()

	var debts []*debt.Debt

	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning debt: %w", err)
		}

		debts = append(debts, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating debt rows: %w", err)
	}

	return debts, nil
}

func (s *Store) DeleteByCreditID(ctx context.Context, creditID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM debts WHERE credit_id = $1`, creditID)
	if err != nil {
		return fmt.Errorf("deleting debts: %w", err)
	}

	return nil
}
