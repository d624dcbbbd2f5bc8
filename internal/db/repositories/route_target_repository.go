package repositories

import (
	"context"
	"errors"
	"fmt"

	gormModels "infinite-experiment/hangar/internal/models/gorm"

	"gorm.io/gorm"
)

type RouteTargetRepository struct {
	db *gorm.DB
}

func NewRouteTargetRepository(db *gorm.DB) *RouteTargetRepository {
	return &RouteTargetRepository{db: db}
}

// List returns all targets, or only those for route when it is non-empty.
func (r *RouteTargetRepository) List(ctx context.Context, route string) ([]gormModels.RouteTargetTime, error) {
	var targets []gormModels.RouteTargetTime

	q := r.db.WithContext(ctx).Order("route ASC").Order("id ASC")
	if route != "" {
		q = q.Where("route = ?", route)
	}
	if err := q.Find(&targets).Error; err != nil {
		return nil, fmt.Errorf("failed to list route targets: %w", err)
	}
	return targets, nil
}

// Upsert updates the target with the same ID, or failing that the one with the
// same route and qualifiers, and inserts otherwise. created reports an insert.
func (r *RouteTargetRepository) Upsert(ctx context.Context, target *gormModels.RouteTargetTime) (created bool, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing gormModels.RouteTargetTime

		q := tx.Where("route = ?", target.Route)
		if target.ID != "" {
			q = tx.Where("id = ?", target.ID)
		} else {
			q = whereNullable(q, "aircraft_id", target.AircraftID)
			q = whereNullable(q, "pilot_id", target.PilotID)
			q = whereNullable(q, "month", target.Month)
			q = whereNullable(q, "year", target.Year)
		}

		err := q.First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if target.ID != "" {
				return ErrNotFound
			}
			if err := tx.Create(target).Error; err != nil {
				return fmt.Errorf("failed to create route target: %w", err)
			}
			created = true
			return nil
		case err != nil:
			return fmt.Errorf("failed to look up route target: %w", err)
		}

		target.ID = existing.ID
		target.CreatedAt = existing.CreatedAt
		if err := tx.Save(target).Error; err != nil {
			return fmt.Errorf("failed to update route target: %w", err)
		}
		return nil
	})
	return created, err
}

func whereNullable[T any](q *gorm.DB, column string, v *T) *gorm.DB {
	if v == nil {
		return q.Where(column + " IS NULL")
	}
	return q.Where(column+" = ?", *v)
}
