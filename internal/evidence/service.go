package evidence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/cupshup/ops-backend/pkg/errors"
	"github.com/cupshup/ops-backend/pkg/logger"
	"github.com/cupshup/ops-backend/pkg/metrics"
)

type assignmentChecker interface {
	IsAssigned(ctx context.Context, activityID, vendorID uuid.UUID) (bool, error)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Service is the entry point the HTTP layer uses to submit evidence.
type Service interface {
	Submit(ctx context.Context, sub Submission) (*Outcome, error)
}

type service struct {
	pipeline    *Pipeline
	assignments assignmentChecker
	cache       cacheInvalidator
	metrics     *metrics.PipelineMetrics
	logg        *logger.Logger
}

// NewService wraps the pipeline with the assignment precondition. cache may be
// nil when the dashboard cache is disabled.
func NewService(pipeline *Pipeline, assignments assignmentChecker, cache cacheInvalidator, m *metrics.PipelineMetrics, logg *logger.Logger) (Service, error) {
	if pipeline == nil {
		return nil, fmt.Errorf("evidence pipeline required")
	}
	if assignments == nil {
		return nil, fmt.Errorf("assignment checker required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{pipeline: pipeline, assignments: assignments, cache: cache, metrics: m, logg: logg}, nil
}

func (s *service) Submit(ctx context.Context, sub Submission) (*Outcome, error) {
	out, err := s.pipeline.RunGated(ctx, sub, s.checkAssignment)
	if err != nil {
		var perr *Error
		if errors.As(err, &perr) {
			return nil, perr.API()
		}
		if apiErr := pkgerrors.As(err); apiErr != nil {
			return nil, apiErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "evidence pipeline")
	}

	s.metrics.IncOrderID(out.OrderID != nil)
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "evidence.cache_invalidate_failed")
		}
	}
	return out, nil
}

// checkAssignment runs only once the submission passed local validation.
func (s *service) checkAssignment(ctx context.Context, sub Submission) error {
	ok, err := s.assignments.IsAssigned(ctx, sub.ActivityID, sub.VendorID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check activity assignment")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeForbidden, "activity is not assigned to this vendor")
	}
	return nil
}
