package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	gormModels "infinite-experiment/hangar/internal/models/gorm"

	"gorm.io/gorm"
)

// FlightFilter narrows List. Zero values mean "any".
type FlightFilter struct {
	PilotID    string
	AircraftID string
	From       time.Time
	To         time.Time
	Limit      int
}

type FlightRepository struct {
	db *gorm.DB
}

func NewFlightRepository(db *gorm.DB) *FlightRepository {
	return &FlightRepository{db: db}
}

// List returns matching flights, newest first.
func (r *FlightRepository) List(ctx context.Context, f FlightFilter) ([]gormModels.Flight, error) {
	var flights []gormModels.Flight

	q := r.db.WithContext(ctx).Order("date DESC").Order("id ASC")
	if f.PilotID != "" {
		q = q.Where("pilot_id = ?", f.PilotID)
	}
	if f.AircraftID != "" {
		q = q.Where("aircraft_id = ?", f.AircraftID)
	}
	if !f.From.IsZero() {
		q = q.Where("date >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("date < ?", f.To)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	if err := q.Find(&flights).Error; err != nil {
		return nil, fmt.Errorf("failed to list flights: %w", err)
	}
	return flights, nil
}

func (r *FlightRepository) GetByID(ctx context.Context, id string) (*gormModels.Flight, error) {
	var flight gormModels.Flight

	err := r.db.WithContext(ctx).Where("id = ?", id).First(&flight).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch flight: %w", err)
	}
	return &flight, nil
}

func (r *FlightRepository) Create(ctx context.Context, flight *gormModels.Flight) error {
	if err := r.db.WithContext(ctx).Create(flight).Error; err != nil {
		return fmt.Errorf("failed to create flight: %w", err)
	}
	return nil
}

// Save overwrites every column of an existing flight.
func (r *FlightRepository) Save(ctx context.Context, flight *gormModels.Flight) error {
	if err := r.db.WithContext(ctx).Save(flight).Error; err != nil {
		return fmt.Errorf("failed to update flight: %w", err)
	}
	return nil
}

func (r *FlightRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&gormModels.Flight{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete flight: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
