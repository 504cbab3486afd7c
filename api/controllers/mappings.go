package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cupshup/ops-backend/api/responses"
	"github.com/cupshup/ops-backend/api/validators"
	"github.com/cupshup/ops-backend/internal/mappings"
	"github.com/cupshup/ops-backend/pkg/db/models"
	pkgerrors "github.com/cupshup/ops-backend/pkg/errors"
	"github.com/cupshup/ops-backend/pkg/logger"
)

type mappingCreateRequest struct {
	VendorID string  `json:"vendor_id" validate:"required,uuid"`
	Message  *string `json:"message" validate:"omitempty,max=2000"`
}

type mappingResponse struct {
	ID         uuid.UUID `json:"id"`
	ActivityID uuid.UUID `json:"activity_id"`
	VendorID   uuid.UUID `json:"vendor_id"`
	Message    *string   `json:"message"`
	AssignedBy uuid.UUID `json:"assigned_by"`
	CreatedAt  time.Time `json:"created_at"`
}

func mappingResponseFromModel(m *models.ActivityMapping) mappingResponse {
	return mappingResponse{
		ID:         m.ID,
		ActivityID: m.ActivityID,
		VendorID:   m.VendorID,
		Message:    m.Message,
		AssignedBy: m.AssignedBy,
		CreatedAt:  m.CreatedAt,
	}
}

// MappingCreate assigns an activity to a vendor.
func MappingCreate(svc mappings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "mappings service unavailable"))
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

		var payload mappingCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vendorID, err := uuid.Parse(strings.TrimSpace(payload.VendorID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vendor_id"))
			return
		}

		created, err := svc.AssignVendor(r.Context(), actor, activityID, mappings.AssignInput{
			VendorID: vendorID,
			Message:  payload.Message,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, mappingResponseFromModel(created))
	}
}

func MappingList(svc mappings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "mappings service unavailable"))
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

		items, err := svc.ListMappings(r.Context(), actor, activityID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}
