package tasks

import (
	"context"
	"time"

	"github.com/cupshup/ops-backend/pkg/db/models"
	pkgpagination "github.com/cupshup/ops-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository reads and writes the task_mapping table.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// InsertTaskRecord is the pipeline's single write.
func (r *Repository) InsertTaskRecord(ctx context.Context, record *models.TaskRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.TaskRecord, error) {
	var task models.TaskRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// MarkWorkStarted sets work_started_at only while it is still null and reports
// whether a row changed.
func (r *Repository) MarkWorkStarted(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.TaskRecord{}).
		Where("id = ? AND work_started_at IS NULL", id).
		Update("work_started_at", at)
	return res.RowsAffected == 1, res.Error
}

func (r *Repository) List(ctx context.Context, filter Filter, cursor *pkgpagination.Cursor, limit int) ([]Row, error) {
	var rows []Row
	err := r.joined(ctx, filter).
		Scopes(pkgpagination.Scope("t", cursor, limit)).
		Scan(&rows).Error
	return rows, err
}

// ListForExport returns up to max rows newest first.
func (r *Repository) ListForExport(ctx context.Context, filter Filter, max int) ([]Row, error) {
	var rows []Row
	err := r.joined(ctx, filter).
		Order("t.created_at DESC").Order("t.id DESC").
		Limit(max).
		Scan(&rows).Error
	return rows, err
}

// ReferencedImageKeys returns the subset of keys that some task record points at.
func (r *Repository) ReferencedImageKeys(ctx context.Context, keys []string) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	var found []string
	err := r.db.WithContext(ctx).Model(&models.TaskRecord{}).
		Where("image_key IN ?", keys).
		Distinct().
		Pluck("image_key", &found).Error
	if err != nil {
		return nil, err
	}
	for _, k := range found {
		out[k] = struct{}{}
	}
	return out, nil
}

func (r *Repository) joined(ctx context.Context, filter Filter) *gorm.DB {
	q := r.db.WithContext(ctx).
		Table("task_mapping AS t").
		Select("t.*, a.brand AS activity_brand, a.city AS activity_city, v.name AS vendor_name").
		Joins("JOIN activities a ON a.id = t.activity_id").
		Joins("LEFT JOIN vendors v ON v.id = t.vendor_id")

	if filter.ActivityID != nil {
		q = q.Where("t.activity_id = ?", *filter.ActivityID)
	}
	if filter.VendorID != nil {
		q = q.Where("t.vendor_id = ?", *filter.VendorID)
	}
	if filter.ClientID != nil {
		q = q.Where("a.client_id = ?", *filter.ClientID)
	}
	if filter.HasOrderID != nil {
		if *filter.HasOrderID {
			q = q.Where("t.order_id IS NOT NULL")
		} else {
			q = q.Where("t.order_id IS NULL")
		}
	}
	return q
}
