package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaskRecord is one field submission: the evidence image, the order id read from
// it (nil when none was found) and the customer context captured by the vendor.
type TaskRecord struct {
	ID               uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	ActivityID       uuid.UUID  `gorm:"column:activity_id;type:uuid;not null;index"`
	VendorID         uuid.UUID  `gorm:"column:vendor_id;type:uuid;not null;index"`
	CustomerName     string     `gorm:"column:customer_name;not null"`
	CustomerPhone    string     `gorm:"column:customer_phone;not null"`
	ProductsSold     string     `gorm:"column:products_sold;not null"`
	SalesOrderNumber string     `gorm:"column:sales_order_number;not null"`
	ImageURL         string     `gorm:"column:image_url;not null"`
	ImageKey         string     `gorm:"column:image_key;not null;index"`
	OrderID          *string    `gorm:"column:order_id"`
	WorkStartedAt    *time.Time `gorm:"column:work_started_at"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime;index"`
}

func (TaskRecord) TableName() string { return "task_mapping" }

func (t *TaskRecord) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// All lists every model for sqlite AutoMigrate in tests and local development.
func All() []any {
	return []any{&Activity{}, &Vendor{}, &ActivityMapping{}, &TaskRecord{}}
}
