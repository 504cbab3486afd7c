package activities

import (
	"context"

	"github.com/cupshup/ops-backend/pkg/db/models"
	pkgpagination "github.com/cupshup/ops-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes activity persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an activity repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new activity row.
func (r *Repository) Create(ctx context.Context, activity *models.Activity) (*models.Activity, error) {
	if err := r.db.WithContext(ctx).Create(activity).Error; err != nil {
		return nil, err
	}
	return activity, nil
}

// FindByID returns gorm.ErrRecordNotFound when the activity does not exist.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Activity, error) {
	var activity models.Activity
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&activity).Error; err != nil {
		return nil, err
	}
	return &activity, nil
}

// IsMappedToVendor reports whether the vendor has been assigned the activity.
func (r *Repository) IsMappedToVendor(ctx context.Context, activityID, vendorID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ActivityMapping{}).
		Where("activity_id = ? AND vendor_id = ?", activityID, vendorID).
		Count(&count).Error
	return count > 0, err
}

// List returns activities newest first, narrowed to a client or to the
// activities mapped to a vendor when those are set.
func (r *Repository) List(ctx context.Context, opts listQuery) ([]models.Activity, error) {
	query := r.db.WithContext(ctx).Model(&models.Activity{})

	if opts.clientID != nil {
		query = query.Where("activities.client_id = ?", *opts.clientID)
	}
	if opts.vendorID != nil {
		query = query.Where("EXISTS (SELECT 1 FROM activity_mappings m WHERE m.activity_id = activities.id AND m.vendor_id = ?)", *opts.vendorID)
	}
	if opts.city != "" {
		query = query.Where("LOWER(activities.city) = LOWER(?)", opts.city)
	}

	var rows []models.Activity
	if err := query.Scopes(pkgpagination.Scope("activities", opts.cursor, opts.limit)).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
