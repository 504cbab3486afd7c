package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActivityMapping assigns an activity to a vendor.
type ActivityMapping struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ActivityID uuid.UUID `gorm:"column:activity_id;type:uuid;not null;uniqueIndex:uq_activity_mappings_pair"`
	VendorID   uuid.UUID `gorm:"column:vendor_id;type:uuid;not null;uniqueIndex:uq_activity_mappings_pair;index"`
	Message    *string   `gorm:"column:message"`
	AssignedBy uuid.UUID `gorm:"column:assigned_by;type:uuid;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ActivityMapping) TableName() string { return "activity_mappings" }

func (m *ActivityMapping) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
