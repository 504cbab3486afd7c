package activities

import (
	"time"

	"github.com/cupshup/ops-backend/pkg/db/models"
	pkgpagination "github.com/cupshup/ops-backend/pkg/pagination"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

type ListParams struct {
	City string
	pkgpagination.Params
}

type ListResult struct {
	Items  []Item `json:"items"`
	Cursor string `json:"cursor"`
}

// Item is the API view of an activity. Dates render as calendar days.
type Item struct {
	ID          uuid.UUID  `json:"id"`
	ClientID    *uuid.UUID `json:"client_id"`
	Brand       string     `json:"brand"`
	City        string     `json:"city"`
	Location    string     `json:"location"`
	Description *string    `json:"description"`
	StartDate   string     `json:"start_date"`
	EndDate     string     `json:"end_date"`
	CreatedBy   uuid.UUID  `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type listQuery struct {
	clientID *uuid.UUID
	vendorID *uuid.UUID
	city     string
	limit    int
	cursor   *pkgpagination.Cursor
}

func ToItem(m models.Activity) Item {
	return Item{
		ID:          m.ID,
		ClientID:    m.ClientID,
		Brand:       m.Brand,
		City:        m.City,
		Location:    m.Location,
		Description: m.Description,
		StartDate:   m.StartDate.Format(dateLayout),
		EndDate:     m.EndDate.Format(dateLayout),
		CreatedBy:   m.CreatedBy,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func cursorOf(m models.Activity) pkgpagination.Cursor {
	return pkgpagination.Cursor{CreatedAt: m.CreatedAt, ID: m.ID}
}
