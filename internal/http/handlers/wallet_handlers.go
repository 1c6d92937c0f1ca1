package handlers

import (
	"encoding/json"
	"net/http"

	"voltcity/internal/models"
	"voltcity/internal/service"
)

type topUpRequest struct {
	AmountMinor int64 `json:"amount_minor"`
	// Amount is the display-format alternative, e.g. "25.00".
	Amount string `json:"amount"`
}

func (r topUpRequest) minorUnits() (int64, error) {
	if r.AmountMinor != 0 {
		return r.AmountMinor, nil
	}
	if r.Amount == "" {
		return 0, nil
	}
	return models.ParseMinor(r.Amount)
}

// NewWalletMeHandler returns GET /wallet/me handler.
func NewWalletMeHandler(svc *service.WalletService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := accountID(w, r)
		if !ok {
			return
		}

		balance, err := svc.Balance(r.Context(), account)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"balance_minor": balance,
			"balance":       models.FormatMinor(balance),
		})
	}
}

// NewWalletTopUpHandler returns POST /wallet/topup handler.
func NewWalletTopUpHandler(svc *service.WalletService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := accountID(w, r)
		if !ok {
			return
		}

		var req topUpRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "BadRequest", "invalid json body")
			return
		}
		amountMinor, err := req.minorUnits()
		if err != nil {
			writeDomainError(w, err)
			return
		}

		balance, err := svc.Credit(r.Context(), account, amountMinor)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"balance_minor": balance,
			"balance":       models.FormatMinor(balance),
		})
	}
}
