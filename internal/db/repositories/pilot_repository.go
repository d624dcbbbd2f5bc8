package repositories

import (
	"context"
	"errors"
	"fmt"

	gormModels "infinite-experiment/hangar/internal/models/gorm"

	"gorm.io/gorm"
)

type PilotRepository struct {
	db *gorm.DB
}

func NewPilotRepository(db *gorm.DB) *PilotRepository {
	return &PilotRepository{db: db}
}

// List returns pilots ordered by name. Hidden pilots are left out unless asked for.
func (r *PilotRepository) List(ctx context.Context, includeHidden bool) ([]gormModels.Pilot, error) {
	var pilots []gormModels.Pilot

	q := r.db.WithContext(ctx).Order("name ASC")
	if !includeHidden {
		q = q.Where("is_hidden = ?", false)
	}
	if err := q.Find(&pilots).Error; err != nil {
		return nil, fmt.Errorf("failed to list pilots: %w", err)
	}
	return pilots, nil
}

func (r *PilotRepository) GetByID(ctx context.Context, id string) (*gormModels.Pilot, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *PilotRepository) GetByAuthUserID(ctx context.Context, authUserID string) (*gormModels.Pilot, error) {
	return r.first(ctx, "auth_user_id = ?", authUserID)
}

func (r *PilotRepository) GetByEmail(ctx context.Context, email string) (*gormModels.Pilot, error) {
	return r.first(ctx, "LOWER(email) = LOWER(?)", email)
}

func (r *PilotRepository) first(ctx context.Context, where string, arg interface{}) (*gormModels.Pilot, error) {
	var pilot gormModels.Pilot

	err := r.db.WithContext(ctx).Where(where, arg).First(&pilot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch pilot: %w", err)
	}
	return &pilot, nil
}

func (r *PilotRepository) Create(ctx context.Context, pilot *gormModels.Pilot) error {
	if err := r.db.WithContext(ctx).Create(pilot).Error; err != nil {
		return fmt.Errorf("failed to create pilot: %w", err)
	}
	return nil
}

// Update writes the given columns and reloads the row.
func (r *PilotRepository) Update(ctx context.Context, id string, fields map[string]interface{}) (*gormModels.Pilot, error) {
	if len(fields) > 0 {
		res := r.db.WithContext(ctx).Model(&gormModels.Pilot{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return nil, fmt.Errorf("failed to update pilot: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return r.GetByID(ctx, id)
}

// IsAdmin reads the admin flag of the pilot linked to an auth user.
func (r *PilotRepository) IsAdmin(ctx context.Context, authUserID string) (bool, error) {
	var flags []bool

	err := r.db.WithContext(ctx).
		Model(&gormModels.Pilot{}).
		Where("auth_user_id = ? AND is_hidden = ?", authUserID, false).
		Limit(1).
		Pluck("is_admin", &flags).Error
	if err != nil {
		return false, fmt.Errorf("failed to read admin flag: %w", err)
	}
	return len(flags) > 0 && flags[0], nil
}
