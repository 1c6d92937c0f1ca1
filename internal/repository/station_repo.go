package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"voltcity/internal/models"
)

// StationRepository owns station availability state. Status changes only
// through Transition, a single-row compare-and-set.
type StationRepository struct {
	db *sql.DB
}

// NewStationRepository returns repository.
func NewStationRepository(db *sql.DB) *StationRepository {
	return &StationRepository{db: db}
}

const stationColumns = `id, name, status, power, connector_type, COALESCE(location, ''), created_at, updated_at`

func scanStation(row interface{ Scan(...any) error }) (*models.Station, error) {
	var station models.Station
	err := row.Scan(
		&station.ID,
		&station.Name,
		&station.Status,
		&station.Power,
		&station.ConnectorType,
		&station.Location,
		&station.CreatedAt,
		&station.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &station, nil
}

// GetByID loads a station.
func (r *StationRepository) GetByID(ctx context.Context, id int64) (*models.Station, error) {
	query := `SELECT ` + stationColumns + ` FROM stations WHERE id = $1`
	station, err := scanStation(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrStationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("stations: get: %w", err)
	}
	return station, nil
}

// List returns all stations ordered by name.
func (r *StationRepository) List(ctx context.Context) ([]models.Station, error) {
	query := `SELECT ` + stationColumns + ` FROM stations ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("stations: list: %w", err)
	}
	defer rows.Close()

	var stations []models.Station
	for rows.Next() {
		station, err := scanStation(rows)
		if err != nil {
			return nil, fmt.Errorf("stations: list scan: %w", err)
		}
		stations = append(stations, *station)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stations: list rows: %w", err)
	}
	return stations, nil
}

// Transition applies expected -> next atomically. It mutates nothing and
// returns ErrStateMismatch when a concurrent actor changed the station first.
func (r *StationRepository) Transition(ctx context.Context, id int64, expected, next models.StationStatus) error {
	if !expected.Valid() || !next.Valid() {
		return fmt.Errorf("stations: invalid status %q -> %q", expected, next)
	}
	const query = `
		UPDATE stations
		SET status = $3,
		    updated_at = NOW()
		WHERE id = $1 AND status = $2
	`
	result, err := r.db.ExecContext(ctx, query, id, expected, next)
	if err != nil {
		return fmt.Errorf("stations: transition: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("stations: transition rows: %w", err)
	}
	if affected == 0 {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return models.ErrStateMismatch
	}
	return nil
}

// Stats counts stations per status for the operator dashboard.
func (r *StationRepository) Stats(ctx context.Context) (*models.StationStats, error) {
	const query = `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'Available'),
			COUNT(*) FILTER (WHERE status = 'Occupied'),
			COUNT(*) FILTER (WHERE status = 'Offline')
		FROM stations
	`
	var stats models.StationStats
	err := r.db.QueryRowContext(ctx, query).Scan(
		&stats.Total,
		&stats.Available,
		&stats.Occupied,
		&stats.Offline,
	)
	if err != nil {
		return nil, fmt.Errorf("stations: stats: %w", err)
	}
	return &stats, nil
}

// Upsert persists station metadata. Status is deliberately left out of the
// update set: only Transition may change it.
func (r *StationRepository) Upsert(ctx context.Context, station *models.Station) error {
	const query = `
		INSERT INTO stations (name, status, power, connector_type, location, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NOW(), NOW())
		ON CONFLICT (name) DO UPDATE SET
			power = EXCLUDED.power,
			connector_type = EXCLUDED.connector_type,
			location = EXCLUDED.location,
			updated_at = NOW()
		RETURNING id
	`
	status := station.Status
	if !status.Valid() {
		status = models.StationAvailable
	}
	return r.db.QueryRowContext(ctx, query,
		station.Name,
		status,
		station.Power,
		station.ConnectorType,
		station.Location,
	).Scan(&station.ID)
}
