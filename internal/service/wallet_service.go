package service

import (
	"context"

	"go.uber.org/zap"

	"voltcity/internal/models"
)

// WalletService exposes balance reads and top-ups on the account ledger.
type WalletService struct {
	ledger AccountLedger
	logger *zap.Logger
}

// NewWalletService builds service.
func NewWalletService(ledger AccountLedger, logger *zap.Logger) *WalletService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WalletService{ledger: ledger, logger: logger}
}

// Balance returns the current balance in minor units.
func (s *WalletService) Balance(ctx context.Context, accountID int64) (int64, error) {
	return s.ledger.Balance(ctx, accountID)
}

// Credit tops up the wallet and returns the new balance. Non-positive amounts
// are rejected before touching storage.
func (s *WalletService) Credit(ctx context.Context, accountID int64, amountMinor int64) (int64, error) {
	if amountMinor <= 0 {
		return 0, models.ErrInvalidAmount
	}
	newBalance, err := s.ledger.Credit(ctx, accountID, amountMinor)
	if err != nil {
		return 0, err
	}
	s.logger.Info("wallet credited",
		zap.Int64("account_id", accountID),
		zap.Int64("amount_minor", amountMinor),
		zap.Int64("balance_minor", newBalance),
	)
	return newBalance, nil
}
