package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cupshup/ops-backend/api/responses"
	"github.com/cupshup/ops-backend/api/validators"
	"github.com/cupshup/ops-backend/internal/activities"
	pkgerrors "github.com/cupshup/ops-backend/pkg/errors"
	"github.com/cupshup/ops-backend/pkg/logger"
)

type activityCreateRequest struct {
	ClientID    *string `json:"client_id" validate:"omitempty,uuid"`
	Brand       string  `json:"brand" validate:"required,max=255"`
	City        string  `json:"city" validate:"required,max=120"`
	Location    string  `json:"location" validate:"required,max=255"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	StartDate   string  `json:"start_date" validate:"required"`
	EndDate     string  `json:"end_date" validate:"required"`
}

func (r activityCreateRequest) toInput() (activities.CreateInput, error) {
	input := activities.CreateInput{
		Brand:       r.Brand,
		City:        r.City,
		Location:    r.Location,
		Description: r.Description,
		StartDate:   strings.TrimSpace(r.StartDate),
		EndDate:     strings.TrimSpace(r.EndDate),
	}
	if r.ClientID != nil {
		id, err := uuid.Parse(strings.TrimSpace(*r.ClientID))
		if err != nil {
			return activities.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid client_id")
		}
		input.ClientID = &id
	}
	return input, nil
}

// ActivityCreate lets staff create an activation.
func ActivityCreate(svc activities.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "activities service unavailable"))
			return
		}

		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload activityCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreateActivity(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, activities.ToItem(*created))
	}
}

// ActivityList returns the activities visible to the caller.
func ActivityList(svc activities.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "activities service unavailable"))
			return
		}

		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := activities.ListParams{
			City:   validators.SanitizeString(r.URL.Query().Get("city"), 120),
			Params: page,
		}

		resp, err := svc.ListActivities(r.Context(), actor, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, resp)
	}
}

// ActivityDetail returns one activity when the caller may see it.
func ActivityDetail(svc activities.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "activities service unavailable"))
			return
		}

		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		activityID, err := validators.PathUUID(chi.URLParam(r, "activityId"), "activity id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		activity, err := svc.GetActivity(r.Context(), actor, activityID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, activities.ToItem(*activity))
	}
}
