package handlers

import (
	"encoding/json"
	"net/http"

	"voltcity/internal/models"
	"voltcity/internal/service"
)

type startChargeRequest struct {
	StationID int64  `json:"station_id"`
	Tariff    string `json:"tariff"`
}

type finishChargeRequest struct {
	StationID int64 `json:"station_id"`
}

// NewStartChargeHandler returns POST /charge handler.
func NewStartChargeHandler(svc *service.ChargeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := accountID(w, r)
		if !ok {
			return
		}

		var req startChargeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "BadRequest", "invalid json body")
			return
		}
		if req.StationID <= 0 {
			writeError(w, http.StatusBadRequest, "BadRequest", "station_id is required")
			return
		}

		tx, err := svc.StartCharge(r.Context(), service.StartChargeInput{
			AccountID: account,
			StationID: req.StationID,
			TariffRef: req.Tariff,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"transaction_id": tx.ID,
			"station_name":   tx.StationName,
			"amount_minor":   tx.AmountMinor,
			"amount":         models.FormatMinor(tx.AmountMinor),
			"energy":         tx.EnergyQuantity,
			"energy_unit":    tx.EnergyUnit,
			"created_at":     tx.CreatedAt,
		})
	}
}

// NewFinishChargeHandler returns POST /charge/finish handler.
func NewFinishChargeHandler(svc *service.ChargeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req finishChargeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "BadRequest", "invalid json body")
			return
		}
		if req.StationID <= 0 {
			writeError(w, http.StatusBadRequest, "BadRequest", "station_id is required")
			return
		}

		station, err := svc.FinishCharge(r.Context(), req.StationID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"station_id": station.ID,
			"status":     station.Status,
		})
	}
}

// NewTransactionsMeHandler returns GET /transactions/me handler.
func NewTransactionsMeHandler(svc *service.ChargeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := accountID(w, r)
		if !ok {
			return
		}

		transactions, err := svc.TransactionsForAccount(r.Context(), account, 50)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"transactions": transactions,
		})
	}
}
