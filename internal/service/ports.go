package service

import (
	"context"

	"voltcity/internal/models"
)

// AccountLedger owns balances and exposes atomic debit/credit in minor units.
type AccountLedger interface {
	Balance(ctx context.Context, accountID int64) (int64, error)
	Debit(ctx context.Context, accountID int64, amountMinor int64) (int64, error)
	Credit(ctx context.Context, accountID int64, amountMinor int64) (int64, error)
}

// StationRegistry owns availability state. Transition is a compare-and-set:
// it applies only if the current status equals expected, otherwise it fails
// with models.ErrStateMismatch and mutates nothing.
type StationRegistry interface {
	GetByID(ctx context.Context, stationID int64) (*models.Station, error)
	List(ctx context.Context) ([]models.Station, error)
	Stats(ctx context.Context) (*models.StationStats, error)
	Transition(ctx context.Context, stationID int64, expected, next models.StationStatus) error
}

// TransactionLog is the append-only charge ledger.
type TransactionLog interface {
	Append(ctx context.Context, tx *models.Transaction) error
	ListByAccount(ctx context.Context, accountID int64, limit int) ([]models.Transaction, error)
}

// ChargeCache mirrors the currently occupied stations for fast reads; cache
// failures never fail a charge.
type ChargeCache interface {
	SaveActive(ctx context.Context, transactionID string, stationID, accountID, amountMinor int64) error
	DeleteActive(ctx context.Context, stationID int64) error
}

// StationEventSink receives status change notifications (live feed).
type StationEventSink interface {
	StationChanged(stationID int64, name string, status models.StationStatus)
}
