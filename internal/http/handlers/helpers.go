package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"voltcity/internal/models"
)

const userIDHeader = "X-User-ID"

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, map[string]string{"error": kind, "message": message})
}

// writeDomainError maps engine rejections onto HTTP statuses. Anything that
// is not a domain rejection is treated as the storage being unavailable.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrAccountNotFound), errors.Is(err, models.ErrStationNotFound):
		writeError(w, http.StatusNotFound, "NotFound", err.Error())
	case errors.Is(err, models.ErrInsufficientFunds):
		writeError(w, http.StatusPaymentRequired, "InsufficientFunds", err.Error())
	case errors.Is(err, models.ErrStationUnavailable), errors.Is(err, models.ErrStateMismatch):
		writeError(w, http.StatusConflict, "StationUnavailable", err.Error())
	case errors.Is(err, models.ErrInvalidAmount), errors.Is(err, models.ErrMalformedAmount), errors.Is(err, models.ErrUnknownTariff):
		writeError(w, http.StatusUnprocessableEntity, "InvalidAmount", err.Error())
	default:
		writeError(w, http.StatusServiceUnavailable, "StorageUnavailable", "storage unavailable")
	}
}

// accountID extracts the caller's account from the gateway-injected header.
func accountID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.Header.Get(userIDHeader)
	if raw == "" {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "missing user id header")
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "BadRequest", "invalid user id header")
		return 0, false
	}
	return id, true
}
