package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Activity is a brand campaign run at a city/location over a date range.
type Activity struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	ClientID    *uuid.UUID `gorm:"column:client_id;type:uuid;index"`
	Brand       string     `gorm:"column:brand;not null"`
	City        string     `gorm:"column:city;not null"`
	Location    string     `gorm:"column:location;not null"`
	Description *string    `gorm:"column:description"`
	StartDate   time.Time  `gorm:"column:start_date;type:date;not null"`
	EndDate     time.Time  `gorm:"column:end_date;type:date;not null"`
	CreatedBy   uuid.UUID  `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Activity) TableName() string { return "activities" }

func (a *Activity) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
