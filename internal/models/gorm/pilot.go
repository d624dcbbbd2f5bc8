package gorm

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Pilot is a portal member. Pilots are hidden, never deleted.
type Pilot struct {
	ID         string    `gorm:"column:id;primaryKey"`
	AuthUserID *string   `gorm:"column:auth_user_id;uniqueIndex"`
	Name       string    `gorm:"column:name;not null"`
	Email      string    `gorm:"column:email;uniqueIndex"`
	IsAdmin    bool      `gorm:"column:is_admin;default:false"`
	IsHidden   bool      `gorm:"column:is_hidden;default:false"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Pilot) TableName() string {
	return "pilots"
}

func (p *Pilot) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}
