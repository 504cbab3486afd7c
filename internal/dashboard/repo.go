package dashboard

import (
	"context"

	"github.com/cupshup/ops-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Scope limits aggregates to one client's activities or one vendor's work.
// The zero value covers everything.
type Scope struct {
	ClientID *uuid.UUID
	VendorID *uuid.UUID
}

func (s Scope) key() string {
	switch {
	case s.ClientID != nil:
		return "client:" + s.ClientID.String()
	case s.VendorID != nil:
		return "vendor:" + s.VendorID.String()
	default:
		return "all"
	}
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Counts(ctx context.Context, scope Scope) (*Counts, error) {
	var out Counts
	db := r.db.WithContext(ctx)

	activities := db.Model(&models.Activity{})
	switch {
	case scope.ClientID != nil:
		activities = activities.Where("client_id = ?", *scope.ClientID)
	case scope.VendorID != nil:
		activities = activities.Where("EXISTS (SELECT 1 FROM activity_mappings m WHERE m.activity_id = activities.id AND m.vendor_id = ?)", *scope.VendorID)
	}
	if err := activities.Count(&out.Activities).Error; err != nil {
		return nil, err
	}

	mappings := db.Table("activity_mappings AS m")
	switch {
	case scope.ClientID != nil:
		mappings = mappings.Joins("JOIN activities a ON a.id = m.activity_id").Where("a.client_id = ?", *scope.ClientID)
	case scope.VendorID != nil:
		mappings = mappings.Where("m.vendor_id = ?", *scope.VendorID)
	}
	if err := mappings.Count(&out.Mappings).Error; err != nil {
		return nil, err
	}

	switch {
	case scope.ClientID != nil:
		err := db.Table("activity_mappings AS m").
			Joins("JOIN activities a ON a.id = m.activity_id").
			Where("a.client_id = ?", *scope.ClientID).
			Distinct("m.vendor_id").
			Count(&out.Vendors).Error
		if err != nil {
			return nil, err
		}
	case scope.VendorID != nil:
		out.Vendors = 1
	default:
		if err := db.Model(&models.Vendor{}).Count(&out.Vendors).Error; err != nil {
			return nil, err
		}
	}

	var tasks struct {
		Total       int64
		WithOrderID int64
		Started     int64
	}
	taskQuery := db.Table("task_mapping AS t").
		Select("COUNT(*) AS total, " +
			"COALESCE(SUM(CASE WHEN t.order_id IS NOT NULL THEN 1 ELSE 0 END), 0) AS with_order_id, " +
			"COALESCE(SUM(CASE WHEN t.work_started_at IS NOT NULL THEN 1 ELSE 0 END), 0) AS started")
	switch {
	case scope.ClientID != nil:
		taskQuery = taskQuery.Joins("JOIN activities a ON a.id = t.activity_id").Where("a.client_id = ?", *scope.ClientID)
	case scope.VendorID != nil:
		taskQuery = taskQuery.Where("t.vendor_id = ?", *scope.VendorID)
	}
	if err := taskQuery.Scan(&tasks).Error; err != nil {
		return nil, err
	}
	out.Tasks = tasks.Total
	out.TasksWithOrderID = tasks.WithOrderID
	out.TasksWithoutOrderID = tasks.Total - tasks.WithOrderID
	out.TasksWorkStarted = tasks.Started
	return &out, nil
}

const leaderboardAll = `
SELECT v.id AS vendor_id, v.name AS vendor_name, v.email AS vendor_email,
       COUNT(DISTINCT m.activity_id) AS mapped_activities,
       (SELECT COUNT(*) FROM task_mapping t WHERE t.vendor_id = v.id) AS task_count
FROM vendors v
JOIN activity_mappings m ON m.vendor_id = v.id
GROUP BY v.id, v.name, v.email
ORDER BY mapped_activities DESC, task_count DESC, v.name ASC
LIMIT ?`

const leaderboardForClient = `
SELECT v.id AS vendor_id, v.name AS vendor_name, v.email AS vendor_email,
       COUNT(DISTINCT m.activity_id) AS mapped_activities,
       (SELECT COUNT(*) FROM task_mapping t JOIN activities ta ON ta.id = t.activity_id
         WHERE t.vendor_id = v.id AND ta.client_id = ?) AS task_count
FROM vendors v
JOIN activity_mappings m ON m.vendor_id = v.id
JOIN activities a ON a.id = m.activity_id
WHERE a.client_id = ?
GROUP BY v.id, v.name, v.email
ORDER BY mapped_activities DESC, task_count DESC, v.name ASC
LIMIT ?`

// MappedActivities ranks vendors by how many activities they are assigned,
// then by tasks logged, then by name.
func (r *Repository) MappedActivities(ctx context.Context, scope Scope, limit int) ([]LeaderboardEntry, error) {
	var rows []LeaderboardEntry
	q := r.db.WithContext(ctx)
	if scope.ClientID != nil {
		q = q.Raw(leaderboardForClient, *scope.ClientID, *scope.ClientID, limit)
	} else {
		q = q.Raw(leaderboardAll, limit)
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows, nil
}
