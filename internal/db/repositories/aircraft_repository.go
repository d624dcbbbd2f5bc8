package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	gormModels "infinite-experiment/hangar/internal/models/gorm"

	"github.com/jmoiron/sqlx"
)

const aircraftColumns = `id, tail_number, COALESCE(make, '') AS make, COALESCE(model, '') AS model,
	year, tach_time, oil_change_date, last_annual, COALESCE(owner, '') AS owner,
	last_flight_id, created_at, updated_at`

// AircraftRepository reads the fleet through sqlx. Queries are written with ?
// placeholders and rebound for the driver in use.
type AircraftRepository struct {
	db *sqlx.DB
}

func NewAircraftRepository(db *sqlx.DB) *AircraftRepository {
	return &AircraftRepository{db: db}
}

func (r *AircraftRepository) List(ctx context.Context) ([]gormModels.Aircraft, error) {
	var aircraft []gormModels.Aircraft

	query := `SELECT ` + aircraftColumns + ` FROM aircraft ORDER BY tail_number ASC`
	if err := r.db.SelectContext(ctx, &aircraft, query); err != nil {
		return nil, fmt.Errorf("failed to list aircraft: %w", err)
	}
	return aircraft, nil
}

func (r *AircraftRepository) GetByID(ctx context.Context, id string) (*gormModels.Aircraft, error) {
	var a gormModels.Aircraft

	query := r.db.Rebind(`SELECT ` + aircraftColumns + ` FROM aircraft WHERE id = ?`)
	if err := r.db.GetContext(ctx, &a, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch aircraft: %w", err)
	}
	return &a, nil
}

// AdvanceTach moves tach_time forward to tachEnd and points last_flight_id at
// the flight. Rows already past tachEnd are left alone; the result reports
// whether a row changed.
func (r *AircraftRepository) AdvanceTach(ctx context.Context, id string, tachEnd float64, flightID string) (bool, error) {
	query := r.db.Rebind(`
		UPDATE aircraft
		SET tach_time = ?, last_flight_id = ?, updated_at = ?
		WHERE id = ? AND tach_time < ?`)

	res, err := r.db.ExecContext(ctx, query, tachEnd, flightID, time.Now().UTC(), id, tachEnd)
	if err != nil {
		return false, fmt.Errorf("failed to advance tach time: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// Ping is used by the health check.
func (r *AircraftRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
