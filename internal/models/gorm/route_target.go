package gorm

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RouteTargetTime is a comparison baseline for a route. Nil qualifiers match anything.
type RouteTargetTime struct {
	ID         string    `gorm:"column:id;primaryKey"`
	Route      string    `gorm:"column:route;index;not null"`
	TargetTime float64   `gorm:"column:target_time;not null"`
	AircraftID *string   `gorm:"column:aircraft_id"`
	PilotID    *string   `gorm:"column:pilot_id"`
	Month      *int      `gorm:"column:month"`
	Year       *int      `gorm:"column:year"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (RouteTargetTime) TableName() string {
	return "route_target_times"
}

func (t *RouteTargetTime) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}
