package gorm

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Flight is one logged flight. TachEnd >= TachStart is checked by the service.
type Flight struct {
	ID         string    `gorm:"column:id;primaryKey"`
	AircraftID string    `gorm:"column:aircraft_id;index;not null"`
	PilotID    string    `gorm:"column:pilot_id;index;not null"`
	Date       time.Time `gorm:"column:date;not null"`
	TachStart  float64   `gorm:"column:tach_start"`
	TachEnd    float64   `gorm:"column:tach_end"`
	HobbsTime  float64   `gorm:"column:hobbs_time"`
	FuelAdded  float64   `gorm:"column:fuel_added"`
	OilAdded   float64   `gorm:"column:oil_added"`
	Passengers int       `gorm:"column:passengers"`
	Route      string    `gorm:"column:route"`
	Squawks    string    `gorm:"column:squawks"`
	Notes      string    `gorm:"column:notes"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Flight) TableName() string {
	return "flights"
}

func (f *Flight) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return nil
}
