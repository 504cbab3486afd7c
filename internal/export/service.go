package export

import (
	"context"
	"fmt"
	"time"

	"github.com/cupshup/ops-backend/internal/tasks"
	"github.com/cupshup/ops-backend/pkg/auth"
	pkgerrors "github.com/cupshup/ops-backend/pkg/errors"
	"github.com/cupshup/ops-backend/pkg/logger"
)

const DefaultMaxRows = 10000

type taskSource interface {
	ListForExport(ctx context.Context, filter tasks.Filter, max int) ([]tasks.Row, error)
}

// Service renders task records as an xlsx workbook.
type Service interface {
	ExportTasks(ctx context.Context, actor auth.Actor, filter tasks.Filter) (*Workbook, error)
}

type service struct {
	source  taskSource
	maxRows int
	now     func() time.Time
	logg    *logger.Logger
}

func NewService(source taskSource, maxRows int, now func() time.Time, logg *logger.Logger) (Service, error) {
	if source == nil {
		return nil, fmt.Errorf("task source required")
	}
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	if now == nil {
		now = time.Now
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{source: source, maxRows: maxRows, now: now, logg: logg}, nil
}

// ExportTasks applies the same role scoping as task listing. Exports larger
// than the row cap are rejected rather than truncated.
func (s *service) ExportTasks(ctx context.Context, actor auth.Actor, filter tasks.Filter) (*Workbook, error) {
	scoped, err := tasks.ScopeFilter(actor, filter)
	if err != nil {
		return nil, err
	}
	rows, err := s.source.ListForExport(ctx, scoped, s.maxRows+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tasks for export")
	}
	if len(rows) > s.maxRows {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "export exceeds the row limit; narrow the filters").
			WithDetails(map[string]any{"max_rows": s.maxRows})
	}

	book, err := buildWorkbook(rows, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render export")
	}
	s.logg.Info(s.logg.WithField(ctx, "rows", book.Rows), "export.tasks_rendered")
	return book, nil
}
