package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cupshup/ops-backend/pkg/auth"
	pkgerrors "github.com/cupshup/ops-backend/pkg/errors"
	"github.com/cupshup/ops-backend/pkg/logger"
	pkgredis "github.com/cupshup/ops-backend/pkg/redis"
	"github.com/google/uuid"
)

const (
	versionCounter     = "dashboard_version"
	defaultLeaderboard = 10
	maxLeaderboard     = 100
)

type Counts struct {
	Activities          int64 `json:"activities"`
	Vendors             int64 `json:"vendors"`
	Mappings            int64 `json:"mappings"`
	Tasks               int64 `json:"tasks"`
	TasksWithOrderID    int64 `json:"tasks_with_order_id"`
	TasksWithoutOrderID int64 `json:"tasks_without_order_id"`
	TasksWorkStarted    int64 `json:"tasks_work_started"`
}

type LeaderboardEntry struct {
	Rank             int       `json:"rank" gorm:"-"`
	VendorID         uuid.UUID `json:"vendor_id" gorm:"column:vendor_id"`
	VendorName       string    `json:"vendor_name" gorm:"column:vendor_name"`
	VendorEmail      string    `json:"vendor_email" gorm:"column:vendor_email"`
	MappedActivities int64     `json:"mapped_activities" gorm:"column:mapped_activities"`
	TaskCount        int64     `json:"task_count" gorm:"column:task_count"`
}

type dashboardRepository interface {
	Counts(ctx context.Context, scope Scope) (*Counts, error)
	MappedActivities(ctx context.Context, scope Scope, limit int) ([]LeaderboardEntry, error)
}

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
	CacheKey(parts ...string) string
	CounterKey(name string) string
}

// Service serves dashboard aggregates through a read-through cache. Writers
// call Invalidate, which bumps a version counter embedded in every cache key.
type Service interface {
	Counts(ctx context.Context, actor auth.Actor) (*Counts, error)
	MappedActivities(ctx context.Context, actor auth.Actor, limit int) ([]LeaderboardEntry, error)
	Invalidate(ctx context.Context) error
}

type service struct {
	repo  dashboardRepository
	cache cacheStore
	ttl   time.Duration
	logg  *logger.Logger
}

// NewService builds the dashboard service. A nil cache disables caching.
func NewService(repo dashboardRepository, cache cacheStore, ttl time.Duration, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("dashboard repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, cache: cache, ttl: ttl, logg: logg}, nil
}

func (s *service) Counts(ctx context.Context, actor auth.Actor) (*Counts, error) {
	scope, err := scopeFor(actor, true)
	if err != nil {
		return nil, err
	}
	out, err := cached(ctx, s, "counts", scope.key(), func() (*Counts, error) {
		return s.repo.Counts(ctx, scope)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dashboard counts")
	}
	return out, nil
}

func (s *service) MappedActivities(ctx context.Context, actor auth.Actor, limit int) ([]LeaderboardEntry, error) {
	scope, err := scopeFor(actor, false)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultLeaderboard
	}
	if limit > maxLeaderboard {
		limit = maxLeaderboard
	}
	out, err := cached(ctx, s, fmt.Sprintf("mapped_activities:%d", limit), scope.key(), func() ([]LeaderboardEntry, error) {
		return s.repo.MappedActivities(ctx, scope, limit)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load mapped activities")
	}
	if out == nil {
		out = []LeaderboardEntry{}
	}
	return out, nil
}

func (s *service) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if _, err := s.cache.Incr(ctx, s.cache.CounterKey(versionCounter)); err != nil {
		return fmt.Errorf("bump dashboard cache version: %w", err)
	}
	return nil
}

func scopeFor(actor auth.Actor, vendorsAllowed bool) (Scope, error) {
	switch {
	case actor.IsStaff():
		return Scope{}, nil
	case actor.IsClient():
		return Scope{ClientID: actor.ClientID}, nil
	case actor.IsVendor() && vendorsAllowed:
		return Scope{VendorID: actor.VendorID}, nil
	default:
		return Scope{}, pkgerrors.New(pkgerrors.CodeForbidden, "role cannot view this dashboard")
	}
}

// cached reads name/scope from the cache, falling back to load. Cache errors
// are logged and never fail the request.
func cached[T any](ctx context.Context, s *service, name, scope string, load func() (T, error)) (T, error) {
	if s.cache == nil || s.ttl <= 0 {
		return load()
	}

	version := "0"
	v, err := s.cache.Get(ctx, s.cache.CounterKey(versionCounter))
	switch {
	case err == nil:
		version = v
	case !pkgredis.IsMiss(err):
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "dashboard.cache_unavailable")
		return load()
	}

	key := s.cache.CacheKey("dashboard", "v"+version, name, scope)
	if raw, err := s.cache.Get(ctx, key); err == nil {
		var hit T
		if err := json.Unmarshal([]byte(raw), &hit); err == nil {
			return hit, nil
		}
		s.logg.Warn(s.logg.WithField(ctx, "cache_key", key), "dashboard.cache_corrupt")
	} else if !pkgredis.IsMiss(err) {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "dashboard.cache_read_failed")
	}

	fresh, err := load()
	if err != nil {
		return fresh, err
	}
	if payload, err := json.Marshal(fresh); err == nil {
		if err := s.cache.Set(ctx, key, payload, s.ttl); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "dashboard.cache_write_failed")
		}
	}
	return fresh, nil
}
