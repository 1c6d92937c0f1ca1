package repository

import (
	"context"
	"database/sql"
	"fmt"

	"voltcity/internal/models"
)

// TransactionRepository persists the append-only charge ledger. Rows are never
// updated or deleted.
type TransactionRepository struct {
	db *sql.DB
}

// NewTransactionRepository returns repository.
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Append inserts a completed-charge record.
func (r *TransactionRepository) Append(ctx context.Context, tx *models.Transaction) error {
	const query = `
		INSERT INTO transactions (id, account_id, station_id, station_name, amount_minor, energy_quantity, energy_unit, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		tx.ID,
		tx.AccountID,
		tx.StationID,
		tx.StationName,
		tx.AmountMinor,
		tx.EnergyQuantity,
		tx.EnergyUnit,
		tx.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("transactions: append: %w", err)
	}
	return nil
}

// ListByAccount returns the latest transactions for an account, newest first.
func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID int64, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
		SELECT id, account_id, station_id, station_name, amount_minor, energy_quantity, energy_unit, created_at
		FROM transactions
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("transactions: list: %w", err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		if err := rows.Scan(
			&tx.ID,
			&tx.AccountID,
			&tx.StationID,
			&tx.StationName,
			&tx.AmountMinor,
			&tx.EnergyQuantity,
			&tx.EnergyUnit,
			&tx.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("transactions: list scan: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("transactions: list rows: %w", err)
	}
	return txs, nil
}
