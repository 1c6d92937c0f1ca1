package models

import "errors"

// Domain rejections. These are expected outcomes returned to callers, never
// fatal faults; anything else bubbling out of a store is an infrastructure
// error and is wrapped instead.
var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrStationNotFound    = errors.New("station not found")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrStateMismatch      = errors.New("station state changed concurrently")
	ErrStationUnavailable = errors.New("station unavailable")
	ErrUnknownTariff      = errors.New("unknown tariff")
)

// IsDomainError reports whether err is one of the expected rejections.
func IsDomainError(err error) bool {
	for _, domain := range []error{
		ErrAccountNotFound,
		ErrStationNotFound,
		ErrInvalidAmount,
		ErrInsufficientFunds,
		ErrStateMismatch,
		ErrStationUnavailable,
		ErrUnknownTariff,
		ErrMalformedAmount,
	} {
		if errors.Is(err, domain) {
			return true
		}
	}
	return false
}
