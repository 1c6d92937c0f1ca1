package models

import "time"

// StationStatus is the availability state of a charging station.
type StationStatus string

// Station statuses. Exactly one holds at any instant; the registry's
// compare-and-set transition is the only way status changes.
const (
	StationAvailable StationStatus = "Available"
	StationOccupied  StationStatus = "Occupied"
	StationOffline   StationStatus = "Offline"
)

// Valid reports whether s is a known status.
func (s StationStatus) Valid() bool {
	switch s {
	case StationAvailable, StationOccupied, StationOffline:
		return true
	}
	return false
}

// Station is a physical charging point.
type Station struct {
	ID            int64         `db:"id" json:"id"`
	Name          string        `db:"name" json:"name"`
	Status        StationStatus `db:"status" json:"status"`
	Power         string        `db:"power" json:"power"`
	ConnectorType string        `db:"connector_type" json:"connector_type"`
	Location      string        `db:"location" json:"location,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// StationStats aggregates registry counts for the operator dashboard.
type StationStats struct {
	Total     int `json:"total"`
	Available int `json:"available"`
	Occupied  int `json:"occupied"`
	Offline   int `json:"offline"`
}
