package mappings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cupshup/ops-backend/pkg/auth"
	"github.com/cupshup/ops-backend/pkg/db"
	"github.com/cupshup/ops-backend/pkg/db/models"
	pkgerrors "github.com/cupshup/ops-backend/pkg/errors"
	"github.com/cupshup/ops-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type mappingsRepository interface {
	Create(ctx context.Context, mapping *models.ActivityMapping) (*models.ActivityMapping, error)
	ListByActivity(ctx context.Context, activityID uuid.UUID) ([]Row, error)
}

type activitiesRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Activity, error)
}

type vendorsRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Service assigns activities to vendors.
type Service interface {
	AssignVendor(ctx context.Context, actor auth.Actor, activityID uuid.UUID, input AssignInput) (*models.ActivityMapping, error)
	ListMappings(ctx context.Context, actor auth.Actor, activityID uuid.UUID) ([]Item, error)
}

type AssignInput struct {
	VendorID uuid.UUID
	Message  *string
}

type Item struct {
	ID          uuid.UUID `json:"id"`
	ActivityID  uuid.UUID `json:"activity_id"`
	VendorID    uuid.UUID `json:"vendor_id"`
	VendorName  string    `json:"vendor_name"`
	VendorEmail string    `json:"vendor_email"`
	Message     *string   `json:"message"`
	AssignedBy  uuid.UUID `json:"assigned_by"`
	CreatedAt   time.Time `json:"created_at"`
}

type service struct {
	repo       mappingsRepository
	activities activitiesRepository
	vendors    vendorsRepository
	cache      cacheInvalidator
	logg       *logger.Logger
}

func NewService(repo mappingsRepository, activities activitiesRepository, vendors vendorsRepository, cache cacheInvalidator, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("mapping repository required")
	}
	if activities == nil {
		return nil, fmt.Errorf("activity repository required")
	}
	if vendors == nil {
		return nil, fmt.Errorf("vendor repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, activities: activities, vendors: vendors, cache: cache, logg: logg}, nil
}

func (s *service) AssignVendor(ctx context.Context, actor auth.Actor, activityID uuid.UUID, input AssignInput) (*models.ActivityMapping, error) {
	if !actor.IsStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only cupshup staff can assign vendors")
	}
	if input.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor_id is required")
	}
	if _, err := s.activity(ctx, activityID); err != nil {
		return nil, err
	}
	if _, err := s.vendors.FindByID(ctx, input.VendorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup vendor")
	}

	var message *string
	if input.Message != nil {
		if m := strings.TrimSpace(*input.Message); m != "" {
			message = &m
		}
	}

	created, err := s.repo.Create(ctx, &models.ActivityMapping{
		ActivityID: activityID,
		VendorID:   input.VendorID,
		Message:    message,
		AssignedBy: actor.UserID,
	})
	if err != nil {
		if db.IsUniqueViolation(err, PairConstraint) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "vendor is already assigned to this activity")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create mapping")
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "dashboard.cache_invalidate_failed")
		}
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"activity_id": activityID.String(),
		"vendor_id":   input.VendorID.String(),
	}), "mapping.created")
	return created, nil
}

func (s *service) ListMappings(ctx context.Context, actor auth.Actor, activityID uuid.UUID) ([]Item, error) {
	activity, err := s.activity(ctx, activityID)
	if err != nil {
		return nil, err
	}
	switch {
	case actor.IsStaff():
	case actor.IsClient() && activity.ClientID != nil && *activity.ClientID == *actor.ClientID:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "mappings are restricted to staff and the owning client")
	}

	rows, err := s.repo.ListByActivity(ctx, activityID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list mappings")
	}
	items := make([]Item, 0, len(rows))
	for _, r := range rows {
		items = append(items, Item(r))
	}
	return items, nil
}

func (s *service) activity(ctx context.Context, id uuid.UUID) (*models.Activity, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "activity id required")
	}
	activity, err := s.activities.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "activity not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup activity")
	}
	return activity, nil
}
