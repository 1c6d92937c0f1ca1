package handlers

import (
	"encoding/json"
	"net/http"

	"voltcity/internal/service"
)

type toggleStationRequest struct {
	StationID int64 `json:"station_id"`
}

// NewStationsListHandler returns GET /stations handler.
func NewStationsListHandler(svc *service.StationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stations, err := svc.List(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"stations": stations,
		})
	}
}

// NewStationsStatsHandler returns GET /stations/stats handler.
func NewStationsStatsHandler(svc *service.StationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.Stats(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

// NewToggleStationHandler returns POST /stations/toggle handler. The
// capability check (operator role) happens upstream at the gateway.
func NewToggleStationHandler(svc *service.StationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req toggleStationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "BadRequest", "invalid json body")
			return
		}
		if req.StationID <= 0 {
			writeError(w, http.StatusBadRequest, "BadRequest", "station_id is required")
			return
		}

		status, err := svc.Toggle(r.Context(), req.StationID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"station_id": req.StationID,
			"status":     status,
		})
	}
}
