package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cupshup/ops-backend/api/responses"
	"github.com/cupshup/ops-backend/api/validators"
	"github.com/cupshup/ops-backend/internal/export"
	"github.com/cupshup/ops-backend/internal/tasks"
	pkgerrors "github.com/cupshup/ops-backend/pkg/errors"
	"github.com/cupshup/ops-backend/pkg/logger"
)

func parseTaskFilter(r *http.Request) (tasks.Filter, error) {
	var filter tasks.Filter
	var err error
	if filter.ActivityID, err = validators.ParseQueryUUID(r, "activity_id"); err != nil {
		return tasks.Filter{}, err
	}
	if filter.VendorID, err = validators.ParseQueryUUID(r, "vendor_id"); err != nil {
		return tasks.Filter{}, err
	}
	if filter.HasOrderID, err = validators.ParseQueryBool(r, "has_order_id"); err != nil {
		return tasks.Filter{}, err
	}
	return filter, nil
}

// TaskList returns task records visible to the caller.
func TaskList(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tasks service unavailable"))
			return
		}

		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter, err := parseTaskFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.ListTasks(r.Context(), actor, tasks.ListParams{Filter: filter, Params: page})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, resp)
	}
}

type taskStartResponse struct {
	ID            uuid.UUID  `json:"id"`
	WorkStartedAt *time.Time `json:"work_started_at"`
}

// TaskStartWork records the moment a vendor started work on a task.
func TaskStartWork(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tasks service unavailable"))
			return
		}

		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		taskID, err := validators.PathUUID(chi.URLParam(r, "taskId"), "task id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		task, err := svc.StartWork(r.Context(), actor, taskID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, taskStartResponse{ID: task.ID, WorkStartedAt: task.WorkStartedAt})
	}
}

// TaskExport streams the filtered task records as an xlsx workbook.
func TaskExport(svc export.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "export service unavailable"))
			return
		}

		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter, err := parseTaskFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		book, err := svc.ExportTasks(r.Context(), actor, filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer book.Close()

		// headers are committed at this point, so a write failure can only be logged
		if err := responses.WriteAttachment(w, book.FileName, export.ContentType, book.Write); err != nil && logg != nil {
			logg.Error(logg.WithField(r.Context(), "rows", book.Rows), "export.write_failed", err)
		}
	}
}
