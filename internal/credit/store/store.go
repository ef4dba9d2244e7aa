package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/sgi/credit/internal/credit"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanCredit reads a credit row and returns a populated Credit.
// Expected column order: id, credit_number, client_id, credit_limit,
// consumption_amount, balance, interest_rate, type, created_date, updated_date
func scanCredit(s scanner) (*credit.Credit, error) {
	var c credit.Credit

	var typeStr string

	if err := s.Scan(
		&c.ID, &c.CreditNumber, &c.ClientID,
		&c.CreditLimit, &c.ConsumptionAmount, &c.Balance, &c.InterestRate,
		&typeStr, &c.CreatedDate, &c.UpdatedDate,
	); err != nil {
		return nil, err
	}

	c.Type = credit.Type(typeStr)

	return &c, nil
}

const selectCreditColumns = `
	id, credit_number, client_id, credit_limit,
	consumption_amount, balance, interest_rate, type, created_date, updated_date
`

func (s *Store) CreateCredit(ctx context.Context, c *credit.Credit) error {
	query := `
		INSERT INTO credits (id, credit_number, client_id, credit_limit, consumption_amount, balance, interest_rate, type, created_date, updated_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.db.ExecContext(ctx, query,
		c.ID,
		c.CreditNumber,
		c.ClientID,
		c.CreditLimit,
		c.ConsumptionAmount,
		c.Balance,
		c.InterestRate,
		c.Type,
		c.CreatedDate,
		c.UpdatedDate,
	)
	if err != nil {
		return fmt.Errorf("creating credit: %w", err)
	}

	return nil
}

func (s *Store) GetCredit(ctx context.Context, id uuid.UUID) (*credit.Credit, error) {
	query := `SELECT ` + selectCreditColumns + ` FROM credits WHERE id = $1`

	c, err := scanCredit(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, credit.ErrNotFound
		}

		return nil, fmt.Errorf("getting credit: %w", err)
	}

	return c, nil
}

func (s *Store) UpdateCredit(ctx context.Context, c *credit.Credit) error {
	query := `
		UPDATE credits
		SET credit_limit = $1, consumption_amount = $2, balance = $3, interest_rate = $4, type = $5, updated_date = $6
		WHERE id = $7
	`

	res, err := s.db.ExecContext(ctx, query,
		c.CreditLimit,
		c.ConsumptionAmount,
		c.Balance,
		c.InterestRate,
		c.Type,
		c.UpdatedDate,
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("updating credit: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return credit.ErrNotFound
	}

	return nil
}

func (s *Store) DeleteCredit(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM credits WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting credit: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return credit.ErrNotFound
	}

	return nil
}

func (s *Store) ListCredits(ctx context.Context, filter credit.ListFilter) ([]*credit.Credit, error) {
	query := `SELECT ` + selectCreditColumns + ` FROM credits WHERE 1=1`

	var args []any

	argIdx := 1

	if filter.ClientID != nil {
		query += fmt.Sprintf(" AND client_id = $%d", argIdx)

		args = append(args, *filter.ClientID)
		argIdx++
	}

	if filter.Type != nil {
		query += fmt.Sprintf(" AND type = $%d", argIdx)

		args = append(args, *filter.Type)
		argIdx++
	}

	query += " ORDER BY created_date ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing credits: %w", err)
	}
	defer rows.Close()

	var credits []*credit.Credit

	for rows.Next() {
		c, err := scanCredit(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning credit: %w", err)
		}

		credits = append(credits, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating credit rows: %w", err)
	}

	return credits, nil
}

func (s *Store) ListByClientID(ctx context.Context, clientID string) ([]*credit.Credit, error) {
	return s.ListCredits(ctx, credit.ListFilter{ClientID: &clientID})
}
