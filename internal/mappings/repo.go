package mappings

import (
	"context"
	"time"

	"github.com/cupshup/ops-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PairConstraint names the unique index on (activity_id, vendor_id).
const PairConstraint = "uq_activity_mappings_pair"

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, mapping *models.ActivityMapping) (*models.ActivityMapping, error) {
	if err := r.db.WithContext(ctx).Create(mapping).Error; err != nil {
		return nil, err
	}
	return mapping, nil
}

// Row is a mapping joined with the vendor it points at.
type Row struct {
	ID          uuid.UUID `gorm:"column:id"`
	ActivityID  uuid.UUID `gorm:"column:activity_id"`
	VendorID    uuid.UUID `gorm:"column:vendor_id"`
	VendorName  string    `gorm:"column:vendor_name"`
	VendorEmail string    `gorm:"column:vendor_email"`
	Message     *string   `gorm:"column:message"`
	AssignedBy  uuid.UUID `gorm:"column:assigned_by"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

// ListByActivity returns the activity's assignments, oldest first.
func (r *Repository) ListByActivity(ctx context.Context, activityID uuid.UUID) ([]Row, error) {
	var rows []Row
	err := r.db.WithContext(ctx).
		Table("activity_mappings AS m").
		Select("m.id, m.activity_id, m.vendor_id, v.name AS vendor_name, v.email AS vendor_email, m.message, m.assigned_by, m.created_at").
		Joins("JOIN vendors v ON v.id = m.vendor_id").
		Where("m.activity_id = ?", activityID).
		Order("m.created_at ASC").Order("m.id ASC").
		Scan(&rows).Error
	return rows, err
}

// IsAssigned reports whether the vendor may submit evidence for the activity.
func (r *Repository) IsAssigned(ctx context.Context, activityID, vendorID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ActivityMapping{}).
		Where("activity_id = ? AND vendor_id = ?", activityID, vendorID).
		Count(&count).Error
	return count > 0, err
}
