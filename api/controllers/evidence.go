package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/cupshup/ops-backend/api/responses"
	"github.com/cupshup/ops-backend/api/validators"
	"github.com/cupshup/ops-backend/internal/evidence"
	pkgerrors "github.com/cupshup/ops-backend/pkg/errors"
	"github.com/cupshup/ops-backend/pkg/logger"
)

const maxFieldLen = 255

type evidenceForm struct {
	ActivityID       string `json:"activity_id" validate:"required,uuid"`
	CustomerName     string `json:"customer_name" validate:"max=255"`
	CustomerPhone    string `json:"customer_phone" validate:"max=32"`
	ProductsSold     string `json:"products_sold" validate:"max=2000"`
	SalesOrderNumber string `json:"sales_order_number" validate:"max=255"`
}

func readEvidenceForm(r *http.Request) evidenceForm {
	return evidenceForm{
		ActivityID:       validators.SanitizeString(r.FormValue("activity_id"), maxFieldLen),
		CustomerName:     validators.SanitizeString(r.FormValue("customer_name"), maxFieldLen),
		CustomerPhone:    validators.SanitizeString(r.FormValue("customer_phone"), maxFieldLen),
		ProductsSold:     validators.SanitizeString(r.FormValue("products_sold"), 0),
		SalesOrderNumber: validators.SanitizeString(r.FormValue("sales_order_number"), maxFieldLen),
	}
}

// SubmitEvidence runs one multipart evidence submission from a vendor through
// the pipeline.
func SubmitEvidence(svc evidence.Service, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "evidence service unavailable"))
			return
		}

		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !actor.IsVendor() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "vendor context missing"))
			return
		}

		if err := validators.ParseMultipartForm(w, r, maxBytes); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer r.MultipartForm.RemoveAll()

		form := readEvidenceForm(r)
		if err := validators.Struct(form); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sub := evidence.Submission{
			ActivityID:       uuid.MustParse(form.ActivityID),
			VendorID:         *actor.VendorID,
			CustomerName:     form.CustomerName,
			CustomerPhone:    form.CustomerPhone,
			ProductsSold:     form.ProductsSold,
			SalesOrderNumber: form.SalesOrderNumber,
		}

		file, header, err := validators.FormFile(r, "image")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		// a missing file is left to the pipeline, which rejects it before any network call
		if file != nil {
			defer file.Close()
			sub.Image = &evidence.Upload{
				FileName:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Size:        header.Size,
				Body:        file,
			}
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithActivityID(ctx, form.ActivityID)
		}

		out, err := svc.Submit(ctx, sub)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessWithWarnings(w, http.StatusCreated, out, out.Warnings)
	}
}
