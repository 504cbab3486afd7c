package vendors

import (
	"context"

	"github.com/cupshup/ops-backend/pkg/db/models"
	pkgpagination "github.com/cupshup/ops-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EmailConstraint names the unique index on vendors.email.
const EmailConstraint = "uq_vendors_email"

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, vendor *models.Vendor) (*models.Vendor, error) {
	if err := r.db.WithContext(ctx).Create(vendor).Error; err != nil {
		return nil, err
	}
	return vendor, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&vendor).Error; err != nil {
		return nil, err
	}
	return &vendor, nil
}

func (r *Repository) List(ctx context.Context, cursor *pkgpagination.Cursor, limit int) ([]models.Vendor, error) {
	var rows []models.Vendor
	err := r.db.WithContext(ctx).Model(&models.Vendor{}).
		Scopes(pkgpagination.Scope("", cursor, limit)).
		Find(&rows).Error
	return rows, err
}
