package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"voltcity/internal/metrics"
	"voltcity/internal/models"
)

// idGenerator produces transaction ids; overridable in tests.
var idGenerator = uuid.NewString

const (
	compensationBackoffBase = 50 * time.Millisecond
	compensationTimeout     = 30 * time.Second
)

// ChargeService coordinates a charging request: it validates preconditions
// against the ledger and the registry, performs the debit and the station
// claim as a two-step saga, and appends the immutable transaction record.
// The two stores are never assumed to commit together; when the station claim
// is lost to a concurrent charger the already-applied debit is compensated
// with a credit.
type ChargeService struct {
	ledger   AccountLedger
	registry StationRegistry
	txLog    TransactionLog
	pricing  PricingStrategy
	cache    ChargeCache
	events   StationEventSink
	logger   *zap.Logger

	compensationAttempts uint64
}

// ChargeDeps wires the coordinator. Cache and Events are optional.
type ChargeDeps struct {
	Ledger   AccountLedger
	Registry StationRegistry
	TxLog    TransactionLog
	Pricing  PricingStrategy
	Cache    ChargeCache
	Events   StationEventSink
	Logger   *zap.Logger

	// CompensationAttempts bounds the credit retries after a lost station
	// race. Zero means the default of 5.
	CompensationAttempts int
}

// NewChargeService builds the coordinator.
func NewChargeService(deps ChargeDeps) *ChargeService {
	attempts := deps.CompensationAttempts
	if attempts <= 0 {
		attempts = 5
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChargeService{
		ledger:               deps.Ledger,
		registry:             deps.Registry,
		txLog:                deps.TxLog,
		pricing:              deps.Pricing,
		cache:                deps.Cache,
		events:               deps.Events,
		logger:               logger,
		compensationAttempts: uint64(attempts),
	}
}

// StartChargeInput identifies the account, the station and the tariff to
// apply. No ambient current-user state exists inside the engine.
type StartChargeInput struct {
	AccountID int64
	StationID int64
	TariffRef string
}

// StartCharge runs one charge attempt to a terminal answer. It never retries
// the attempt itself; a rejection is definitive for this call and the caller
// may re-invoke as a fresh attempt.
func (s *ChargeService) StartCharge(ctx context.Context, input StartChargeInput) (*models.Transaction, error) {
	station, err := s.registry.GetByID(ctx, input.StationID)
	if err != nil {
		s.observeRejection(err)
		return nil, err
	}
	if station.Status != models.StationAvailable {
		metrics.ObserveChargeAttempt(metrics.OutcomeStationUnavailable)
		return nil, models.ErrStationUnavailable
	}

	quote, err := s.pricing.Quote(station, input.TariffRef)
	if err != nil {
		s.observeRejection(err)
		return nil, err
	}

	if _, err := s.ledger.Debit(ctx, input.AccountID, quote.AmountMinor); err != nil {
		s.observeRejection(err)
		return nil, err
	}

	if err := s.registry.Transition(ctx, station.ID, models.StationAvailable, models.StationOccupied); err != nil {
		if errors.Is(err, models.ErrStateMismatch) || errors.Is(err, models.ErrStationNotFound) {
			// Lost the race to a concurrent charger: undo the debit.
			s.compensate(ctx, input.AccountID, quote.AmountMinor, station.ID)
			metrics.ObserveChargeAttempt(metrics.OutcomeStationUnavailable)
			return nil, models.ErrStationUnavailable
		}
		s.compensate(ctx, input.AccountID, quote.AmountMinor, station.ID)
		metrics.ObserveChargeAttempt(metrics.OutcomeError)
		return nil, fmt.Errorf("claim station: %w", err)
	}

	tx := &models.Transaction{
		ID:             idGenerator(),
		AccountID:      input.AccountID,
		StationID:      station.ID,
		StationName:    station.Name,
		AmountMinor:    quote.AmountMinor,
		EnergyQuantity: quote.EnergyQuantity,
		EnergyUnit:     quote.EnergyUnit,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.txLog.Append(ctx, tx); err != nil {
		// Both mutations applied; roll back in reverse order.
		if revErr := s.registry.Transition(ctx, station.ID, models.StationOccupied, models.StationAvailable); revErr != nil {
			s.logger.Error("failed to release station after ledger append failure",
				zap.Int64("station_id", station.ID), zap.Error(revErr))
		}
		s.compensate(ctx, input.AccountID, quote.AmountMinor, station.ID)
		metrics.ObserveChargeAttempt(metrics.OutcomeError)
		return nil, fmt.Errorf("append transaction: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SaveActive(ctx, tx.ID, station.ID, input.AccountID, quote.AmountMinor); err != nil {
			s.logger.Warn("failed to cache active charge", zap.Int64("station_id", station.ID), zap.Error(err))
		}
	}
	if s.events != nil {
		s.events.StationChanged(station.ID, station.Name, models.StationOccupied)
	}

	metrics.ObserveChargeAttempt(metrics.OutcomeCommitted)
	s.logger.Info("charge started",
		zap.String("transaction_id", tx.ID),
		zap.Int64("account_id", input.AccountID),
		zap.Int64("station_id", station.ID),
		zap.Int64("amount_minor", quote.AmountMinor),
	)
	return tx, nil
}

// FinishCharge releases an occupied station once charging completes.
func (s *ChargeService) FinishCharge(ctx context.Context, stationID int64) (*models.Station, error) {
	station, err := s.registry.GetByID(ctx, stationID)
	if err != nil {
		return nil, err
	}
	if station.Status != models.StationOccupied {
		return nil, models.ErrStationUnavailable
	}
	if err := s.registry.Transition(ctx, stationID, models.StationOccupied, models.StationAvailable); err != nil {
		return nil, err
	}
	station.Status = models.StationAvailable

	if s.cache != nil {
		if err := s.cache.DeleteActive(ctx, stationID); err != nil {
			s.logger.Warn("failed to drop active charge cache", zap.Int64("station_id", stationID), zap.Error(err))
		}
	}
	if s.events != nil {
		s.events.StationChanged(stationID, station.Name, models.StationAvailable)
	}
	return station, nil
}

// TransactionsForAccount returns charge history, newest first.
func (s *ChargeService) TransactionsForAccount(ctx context.Context, accountID int64, limit int) ([]models.Transaction, error) {
	return s.txLog.ListByAccount(ctx, accountID, limit)
}

// compensate credits back a debit whose charge never materialized. Transient
// store errors are retried with exponential backoff; a debited-but-unserved
// account is the worst state this engine can leave behind, so exhaustion is
// logged at error level and counted for alerting.
func (s *ChargeService) compensate(ctx context.Context, accountID, amountMinor, stationID int64) {
	// The credit must outlive the request: the caller may have disconnected
	// while the account is still debited.
	ctx = context.WithoutCancel(ctx)
	ctx, cancel := context.WithTimeout(ctx, compensationTimeout)
	defer cancel()

	backoff := retry.WithMaxRetries(s.compensationAttempts, retry.NewExponential(compensationBackoffBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if _, err := s.ledger.Credit(ctx, accountID, amountMinor); err != nil {
			if models.IsDomainError(err) {
				return err
			}
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		metrics.ObserveCompensation("failed")
		s.logger.Error("compensation failed, account debited without charge",
			zap.Int64("account_id", accountID),
			zap.Int64("amount_minor", amountMinor),
			zap.Int64("station_id", stationID),
			zap.Error(err),
		)
		return
	}
	metrics.ObserveCompensation("ok")
}

func (s *ChargeService) observeRejection(err error) {
	switch {
	case errors.Is(err, models.ErrInsufficientFunds):
		metrics.ObserveChargeAttempt(metrics.OutcomeInsufficientFunds)
	case errors.Is(err, models.ErrAccountNotFound), errors.Is(err, models.ErrStationNotFound):
		metrics.ObserveChargeAttempt(metrics.OutcomeNotFound)
	case errors.Is(err, models.ErrInvalidAmount), errors.Is(err, models.ErrUnknownTariff), errors.Is(err, models.ErrMalformedAmount):
		metrics.ObserveChargeAttempt(metrics.OutcomeInvalidAmount)
	case models.IsDomainError(err):
		metrics.ObserveChargeAttempt(metrics.OutcomeStationUnavailable)
	default:
		metrics.ObserveChargeAttempt(metrics.OutcomeError)
	}
}
