package models

import "time"

// Account holds a user's wallet balance in integer minor units.
type Account struct {
	ID           int64     `db:"id" json:"id"`
	BalanceMinor int64     `db:"balance_minor" json:"balance_minor"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
