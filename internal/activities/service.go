package activities

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cupshup/ops-backend/pkg/auth"
	"github.com/cupshup/ops-backend/pkg/db/models"
	pkgerrors "github.com/cupshup/ops-backend/pkg/errors"
	"github.com/cupshup/ops-backend/pkg/logger"
	pkgpagination "github.com/cupshup/ops-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type activitiesRepository interface {
	Create(ctx context.Context, activity *models.Activity) (*models.Activity, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Activity, error)
	IsMappedToVendor(ctx context.Context, activityID, vendorID uuid.UUID) (bool, error)
	List(ctx context.Context, opts listQuery) ([]models.Activity, error)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Service exposes activity creation and role-scoped reads.
type Service interface {
	CreateActivity(ctx context.Context, actor auth.Actor, input CreateInput) (*models.Activity, error)
	GetActivity(ctx context.Context, actor auth.Actor, id uuid.UUID) (*models.Activity, error)
	ListActivities(ctx context.Context, actor auth.Actor, params ListParams) (*ListResult, error)
}

// CreateInput holds the fields staff provide for a new activity. Dates are
// YYYY-MM-DD calendar days.
type CreateInput struct {
	ClientID    *uuid.UUID
	Brand       string
	City        string
	Location    string
	Description *string
	StartDate   string
	EndDate     string
}

type service struct {
	repo  activitiesRepository
	cache cacheInvalidator
	logg  *logger.Logger
}

// NewService builds the activity service. cache may be nil.
func NewService(repo activitiesRepository, cache cacheInvalidator, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("activity repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, cache: cache, logg: logg}, nil
}

func (s *service) CreateActivity(ctx context.Context, actor auth.Actor, input CreateInput) (*models.Activity, error) {
	if !actor.IsStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only cupshup staff can create activities")
	}

	brand := strings.TrimSpace(input.Brand)
	city := strings.TrimSpace(input.City)
	location := strings.TrimSpace(input.Location)
	switch {
	case brand == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "brand is required")
	case city == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "city is required")
	case location == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location is required")
	}

	start, err := time.Parse(dateLayout, strings.TrimSpace(input.StartDate))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "start_date must be YYYY-MM-DD")
	}
	end, err := time.Parse(dateLayout, strings.TrimSpace(input.EndDate))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "end_date must be YYYY-MM-DD")
	}
	if end.Before(start) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end_date must not be before start_date")
	}

	var description *string
	if input.Description != nil {
		if d := strings.TrimSpace(*input.Description); d != "" {
			description = &d
		}
	}

	created, err := s.repo.Create(ctx, &models.Activity{
		ClientID:    input.ClientID,
		Brand:       brand,
		City:        city,
		Location:    location,
		Description: description,
		StartDate:   start,
		EndDate:     end,
		CreatedBy:   actor.UserID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create activity")
	}

	s.invalidate(ctx)
	s.logg.Info(s.logg.WithActivityID(ctx, created.ID.String()), "activity.created")
	return created, nil
}

func (s *service) GetActivity(ctx context.Context, actor auth.Actor, id uuid.UUID) (*models.Activity, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "activity id required")
	}
	activity, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "activity not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup activity")
	}

	visible, err := s.visibleTo(ctx, actor, activity)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "activity not found")
	}
	return activity, nil
}

func (s *service) ListActivities(ctx context.Context, actor auth.Actor, params ListParams) (*ListResult, error) {
	query := listQuery{
		city:  strings.TrimSpace(params.City),
		limit: params.Limit,
	}
	switch {
	case actor.IsStaff():
	case actor.IsClient():
		query.clientID = actor.ClientID
	case actor.IsVendor():
		query.vendorID = actor.VendorID
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role cannot list activities")
	}

	cursor, err := pkgpagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	query.cursor = cursor

	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list activities")
	}

	rows, next := pkgpagination.Trim(rows, params.Limit, cursorOf)
	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, ToItem(row))
	}
	return &ListResult{Items: items, Cursor: next}, nil
}

func (s *service) visibleTo(ctx context.Context, actor auth.Actor, activity *models.Activity) (bool, error) {
	switch {
	case actor.IsStaff():
		return true, nil
	case actor.IsClient():
		return activity.ClientID != nil && *activity.ClientID == *actor.ClientID, nil
	case actor.IsVendor():
		ok, err := s.repo.IsMappedToVendor(ctx, activity.ID, *actor.VendorID)
		if err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check activity mapping")
		}
		return ok, nil
	default:
		return false, nil
	}
}

func (s *service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "dashboard.cache_invalidate_failed")
	}
}
