package gorm

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Aircraft is a fleet member. Reads go through the sqlx repository, so the db
// tags must match the column names used by GORM.
type Aircraft struct {
	ID            string     `gorm:"column:id;primaryKey" db:"id"`
	TailNumber    string     `gorm:"column:tail_number;uniqueIndex;not null" db:"tail_number"`
	Make          string     `gorm:"column:make" db:"make"`
	Model         string     `gorm:"column:model" db:"model"`
	Year          *int       `gorm:"column:year" db:"year"`
	TachTime      float64    `gorm:"column:tach_time;default:0" db:"tach_time"`
	OilChangeDate *time.Time `gorm:"column:oil_change_date" db:"oil_change_date"`
	LastAnnual    *time.Time `gorm:"column:last_annual" db:"last_annual"`
	Owner         string     `gorm:"column:owner" db:"owner"`
	LastFlightID  *string    `gorm:"column:last_flight_id" db:"last_flight_id"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime" db:"created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime" db:"updated_at"`
}

func (Aircraft) TableName() string {
	return "aircraft"
}

func (a *Aircraft) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}
