package repositories

import (
	"context"
	"errors"
	"fmt"

	"infinite-experiment/hangar/internal/constants"
	gormModels "infinite-experiment/hangar/internal/models/gorm"

	"gorm.io/gorm"
)

type SafetyReportRepository struct {
	db *gorm.DB
}

func NewSafetyReportRepository(db *gorm.DB) *SafetyReportRepository {
	return &SafetyReportRepository{db: db}
}

// List returns reports newest first. A non-empty reporterID restricts the
// result to that pilot's reports.
func (r *SafetyReportRepository) List(ctx context.Context, reporterID string, status constants.ReportStatus) ([]gormModels.SafetyReport, error) {
	var reports []gormModels.SafetyReport

	q := r.db.WithContext(ctx).Order("report_date DESC").Order("id ASC")
	if reporterID != "" {
		q = q.Where("reporter_id = ?", reporterID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("failed to list safety reports: %w", err)
	}
	return reports, nil
}

func (r *SafetyReportRepository) GetByID(ctx context.Context, id string) (*gormModels.SafetyReport, error) {
	var report gormModels.SafetyReport

	err := r.db.WithContext(ctx).Where("id = ?", id).First(&report).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch safety report: %w", err)
	}
	return &report, nil
}

func (r *SafetyReportRepository) Create(ctx context.Context, report *gormModels.SafetyReport) error {
	if err := r.db.WithContext(ctx).Create(report).Error; err != nil {
		return fmt.Errorf("failed to create safety report: %w", err)
	}
	return nil
}

// SetReview stores the review blob and the new status.
func (r *SafetyReportRepository) SetReview(ctx context.Context, id string, status constants.ReportStatus, review gormModels.RawJSON) (*gormModels.SafetyReport, error) {
	res := r.db.WithContext(ctx).
		Model(&gormModels.SafetyReport{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       status,
			"admin_review": review,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to store review: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}
