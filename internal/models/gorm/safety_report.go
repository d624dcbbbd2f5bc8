package gorm

import (
	"time"

	"infinite-experiment/hangar/internal/constants"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SafetyReport is a pilot-submitted safety report. AdminReview is stored as a
// loosely shaped JSON blob; use services.ParseAdminReview to read it.
type SafetyReport struct {
	ID           string                 `gorm:"column:id;primaryKey"`
	ReportDate   time.Time              `gorm:"column:report_date;not null"`
	ReporterID   *string                `gorm:"column:reporter_id;index"`
	ReporterName string                 `gorm:"column:reporter_name"`
	Category     string                 `gorm:"column:category"`
	Description  string                 `gorm:"column:description"`
	Severity     constants.Severity     `gorm:"column:severity;type:varchar(16)"`
	Status       constants.ReportStatus `gorm:"column:status;type:varchar(16);default:submitted"`
	AdminReview  RawJSON                `gorm:"column:admin_review"`
	AircraftID   *string                `gorm:"column:aircraft_id"`
	CreatedAt    time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (SafetyReport) TableName() string {
	return "safety_reports"
}

func (r *SafetyReport) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}
