package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"voltcity/internal/models"
)

// AccountRepository owns wallet balances. Debit and credit are single
// conditional statements, so concurrent readers never observe a partially
// applied mutation and per-account operations are linearized by the database.
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository returns repository.
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// GetByID loads an account.
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	const query = `
		SELECT id, balance_minor, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`
	var account models.Account
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&account.ID,
		&account.BalanceMinor,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("accounts: get: %w", err)
	}
	return &account, nil
}

// Balance returns the current balance in minor units.
func (r *AccountRepository) Balance(ctx context.Context, id int64) (int64, error) {
	account, err := r.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return account.BalanceMinor, nil
}

// Debit subtracts amount from the balance iff the balance covers it. The
// guard lives in the statement itself, so the non-negative invariant holds
// under arbitrary interleaving without an explicit row lock.
func (r *AccountRepository) Debit(ctx context.Context, id int64, amountMinor int64) (int64, error) {
	if amountMinor <= 0 {
		return 0, models.ErrInvalidAmount
	}
	const query = `
		UPDATE accounts
		SET balance_minor = balance_minor - $2,
		    updated_at = NOW()
		WHERE id = $1 AND balance_minor >= $2
		RETURNING balance_minor
	`
	var newBalance int64
	err := r.db.QueryRowContext(ctx, query, id, amountMinor).Scan(&newBalance)
	if errors.Is(err, sql.ErrNoRows) {
		// Either the account is missing or the balance is short.
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return 0, getErr
		}
		return 0, models.ErrInsufficientFunds
	}
	if err != nil {
		return 0, fmt.Errorf("accounts: debit: %w", err)
	}
	return newBalance, nil
}

// Credit adds amount to the balance. Always succeeds for positive amounts on
// existing accounts.
func (r *AccountRepository) Credit(ctx context.Context, id int64, amountMinor int64) (int64, error) {
	if amountMinor <= 0 {
		return 0, models.ErrInvalidAmount
	}
	const query = `
		UPDATE accounts
		SET balance_minor = balance_minor + $2,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING balance_minor
	`
	var newBalance int64
	err := r.db.QueryRowContext(ctx, query, id, amountMinor).Scan(&newBalance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, models.ErrAccountNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("accounts: credit: %w", err)
	}
	return newBalance, nil
}

// Create inserts an account with an opening balance. Used by the seeder and
// the (external) registration boundary.
func (r *AccountRepository) Create(ctx context.Context, openingMinor int64) (int64, error) {
	if openingMinor < 0 {
		return 0, models.ErrInvalidAmount
	}
	const query = `
		INSERT INTO accounts (balance_minor, created_at, updated_at)
		VALUES ($1, NOW(), NOW())
		RETURNING id
	`
	var id int64
	if err := r.db.QueryRowContext(ctx, query, openingMinor).Scan(&id); err != nil {
		return 0, fmt.Errorf("accounts: create: %w", err)
	}
	return id, nil
}
