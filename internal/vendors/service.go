package vendors

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/cupshup/ops-backend/pkg/auth"
	"github.com/cupshup/ops-backend/pkg/db"
	"github.com/cupshup/ops-backend/pkg/db/models"
	pkgerrors "github.com/cupshup/ops-backend/pkg/errors"
	"github.com/cupshup/ops-backend/pkg/logger"
	pkgpagination "github.com/cupshup/ops-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type vendorsRepository interface {
	Create(ctx context.Context, vendor *models.Vendor) (*models.Vendor, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
	List(ctx context.Context, cursor *pkgpagination.Cursor, limit int) ([]models.Vendor, error)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Service manages the vendor directory. Only staff may read or write it.
type Service interface {
	CreateVendor(ctx context.Context, actor auth.Actor, input CreateInput) (*models.Vendor, error)
	GetVendor(ctx context.Context, actor auth.Actor, id uuid.UUID) (*models.Vendor, error)
	ListVendors(ctx context.Context, actor auth.Actor, params pkgpagination.Params) (*ListResult, error)
}

type CreateInput struct {
	Name  string
	Email string
	Phone *string
	City  *string
}

type ListResult struct {
	Items  []Item `json:"items"`
	Cursor string `json:"cursor"`
}

type Item struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone"`
	City      *string   `json:"city"`
	CreatedAt time.Time `json:"created_at"`
}

func ToItem(v models.Vendor) Item {
	return Item{ID: v.ID, Name: v.Name, Email: v.Email, Phone: v.Phone, City: v.City, CreatedAt: v.CreatedAt}
}

type service struct {
	repo  vendorsRepository
	cache cacheInvalidator
	logg  *logger.Logger
}

func NewService(repo vendorsRepository, cache cacheInvalidator, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("vendor repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, cache: cache, logg: logg}, nil
}

func (s *service) CreateVendor(ctx context.Context, actor auth.Actor, input CreateInput) (*models.Vendor, error) {
	if !actor.IsStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only cupshup staff can create vendors")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid email is required")
	}

	created, err := s.repo.Create(ctx, &models.Vendor{
		Name:  name,
		Email: email,
		Phone: trimmed(input.Phone),
		City:  trimmed(input.City),
	})
	if err != nil {
		if db.IsUniqueViolation(err, EmailConstraint) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a vendor with this email already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create vendor")
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "dashboard.cache_invalidate_failed")
		}
	}
	s.logg.Info(s.logg.WithVendorID(ctx, created.ID.String()), "vendor.created")
	return created, nil
}

func (s *service) GetVendor(ctx context.Context, actor auth.Actor, id uuid.UUID) (*models.Vendor, error) {
	switch {
	case actor.IsStaff():
	case actor.IsVendor() && *actor.VendorID == id:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor directory is restricted to staff")
	}
	vendor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup vendor")
	}
	return vendor, nil
}

func (s *service) ListVendors(ctx context.Context, actor auth.Actor, params pkgpagination.Params) (*ListResult, error) {
	if !actor.IsStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor directory is restricted to staff")
	}
	cursor, err := pkgpagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, cursor, params.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendors")
	}
	rows, next := pkgpagination.Trim(rows, params.Limit, func(v models.Vendor) pkgpagination.Cursor {
		return pkgpagination.Cursor{CreatedAt: v.CreatedAt, ID: v.ID}
	})
	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, ToItem(row))
	}
	return &ListResult{Items: items, Cursor: next}, nil
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
