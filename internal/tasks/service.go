package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cupshup/ops-backend/pkg/auth"
	"github.com/cupshup/ops-backend/pkg/db/models"
	pkgerrors "github.com/cupshup/ops-backend/pkg/errors"
	"github.com/cupshup/ops-backend/pkg/logger"
	pkgpagination "github.com/cupshup/ops-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type tasksRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.TaskRecord, error)
	MarkWorkStarted(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	List(ctx context.Context, filter Filter, cursor *pkgpagination.Cursor, limit int) ([]Row, error)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Service exposes task reads and the work-start update.
type Service interface {
	ListTasks(ctx context.Context, actor auth.Actor, params ListParams) (*ListResult, error)
	StartWork(ctx context.Context, actor auth.Actor, taskID uuid.UUID) (*models.TaskRecord, error)
}

type service struct {
	repo  tasksRepository
	cache cacheInvalidator
	now   func() time.Time
	logg  *logger.Logger
}

// NewService builds the task service. cache may be nil when the dashboard
// cache is disabled.
func NewService(repo tasksRepository, cache cacheInvalidator, now func() time.Time, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("task repository required")
	}
	if now == nil {
		now = time.Now
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, cache: cache, now: now, logg: logg}, nil
}

// ScopeFilter pins the filter to what the actor may see: vendors see their own
// tasks and clients see tasks on their activities.
func ScopeFilter(actor auth.Actor, filter Filter) (Filter, error) {
	switch {
	case actor.IsStaff():
		filter.ClientID = nil
	case actor.IsClient():
		filter.ClientID = actor.ClientID
	case actor.IsVendor():
		if filter.VendorID != nil && *filter.VendorID != *actor.VendorID {
			return Filter{}, pkgerrors.New(pkgerrors.CodeForbidden, "vendors can only read their own tasks")
		}
		filter.VendorID = actor.VendorID
		filter.ClientID = nil
	default:
		return Filter{}, pkgerrors.New(pkgerrors.CodeForbidden, "role cannot read tasks")
	}
	return filter, nil
}

func (s *service) ListTasks(ctx context.Context, actor auth.Actor, params ListParams) (*ListResult, error) {
	filter, err := ScopeFilter(actor, params.Filter)
	if err != nil {
		return nil, err
	}
	cursor, err := pkgpagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.List(ctx, filter, cursor, params.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tasks")
	}
	rows, next := pkgpagination.Trim(rows, params.Limit, cursorOf)
	items := make([]Item, 0, len(rows))
	for _, r := range rows {
		items = append(items, ToItem(r))
	}
	return &ListResult{Items: items, Cursor: next}, nil
}

func (s *service) StartWork(ctx context.Context, actor auth.Actor, taskID uuid.UUID) (*models.TaskRecord, error) {
	if !actor.IsVendor() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only vendors can start work")
	}
	task, err := s.repo.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "task not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup task")
	}
	if task.VendorID != *actor.VendorID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "task not found")
	}
	if task.WorkStartedAt != nil {
		return nil, alreadyStarted(task)
	}

	at := s.now().UTC()
	changed, err := s.repo.MarkWorkStarted(ctx, taskID, at)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record work start")
	}
	if !changed {
		// lost a race with a concurrent start
		current, err := s.repo.FindByID(ctx, taskID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup task")
		}
		return nil, alreadyStarted(current)
	}

	task.WorkStartedAt = &at
	ctx = s.logg.WithTaskID(ctx, taskID.String())
	s.logg.Info(ctx, "task.work_started")
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "dashboard.cache_invalidate_failed")
		}
	}
	return task, nil
}

func alreadyStarted(task *models.TaskRecord) error {
	details := map[string]any{"task_id": task.ID.String()}
	if task.WorkStartedAt != nil {
		details["work_started_at"] = task.WorkStartedAt.UTC().Format(time.RFC3339)
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, "work already started for this task").WithDetails(details)
}
