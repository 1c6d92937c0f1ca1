package models

import "time"

// EnergyUnitKWh is the only unit the engine currently records.
const EnergyUnitKWh = "kWh"

// Transaction is an immutable record of a completed charge: one successful
// debit paired with one station claim. Never updated or deleted.
type Transaction struct {
	ID             string    `db:"id" json:"id"`
	AccountID      int64     `db:"account_id" json:"account_id"`
	StationID      int64     `db:"station_id" json:"station_id"`
	StationName    string    `db:"station_name" json:"station_name"`
	AmountMinor    int64     `db:"amount_minor" json:"amount_minor"`
	EnergyQuantity float64   `db:"energy_quantity" json:"energy_quantity"`
	EnergyUnit     string    `db:"energy_unit" json:"energy_unit"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
