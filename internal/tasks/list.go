package tasks

import (
	"time"

	"github.com/cupshup/ops-backend/pkg/db/models"
	pkgpagination "github.com/cupshup/ops-backend/pkg/pagination"
	"github.com/google/uuid"
)

// Filter narrows task listings and exports. ClientID is set from the caller's
// role, never from the query string.
type Filter struct {
	ActivityID *uuid.UUID
	VendorID   *uuid.UUID
	ClientID   *uuid.UUID
	HasOrderID *bool
}

type ListParams struct {
	Filter
	pkgpagination.Params
}

type ListResult struct {
	Items  []Item `json:"items"`
	Cursor string `json:"cursor"`
}

// Row is a task record joined with its activity and vendor names.
type Row struct {
	models.TaskRecord
	ActivityBrand string  `gorm:"column:activity_brand"`
	ActivityCity  string  `gorm:"column:activity_city"`
	VendorName    *string `gorm:"column:vendor_name"`
}

type Item struct {
	ID               uuid.UUID  `json:"id"`
	ActivityID       uuid.UUID  `json:"activity_id"`
	ActivityBrand    string     `json:"activity_brand"`
	ActivityCity     string     `json:"activity_city"`
	VendorID         uuid.UUID  `json:"vendor_id"`
	VendorName       *string    `json:"vendor_name"`
	CustomerName     string     `json:"customer_name"`
	CustomerPhone    string     `json:"customer_phone"`
	ProductsSold     string     `json:"products_sold"`
	SalesOrderNumber string     `json:"sales_order_number"`
	ImageURL         string     `json:"image_url"`
	OrderID          *string    `json:"order_id"`
	WorkStartedAt    *time.Time `json:"work_started_at"`
	CreatedAt        time.Time  `json:"created_at"`
}

func ToItem(r Row) Item {
	return Item{
		ID:               r.ID,
		ActivityID:       r.ActivityID,
		ActivityBrand:    r.ActivityBrand,
		ActivityCity:     r.ActivityCity,
		VendorID:         r.VendorID,
		VendorName:       r.VendorName,
		CustomerName:     r.CustomerName,
		CustomerPhone:    r.CustomerPhone,
		ProductsSold:     r.ProductsSold,
		SalesOrderNumber: r.SalesOrderNumber,
		ImageURL:         r.ImageURL,
		OrderID:          r.OrderID,
		WorkStartedAt:    r.WorkStartedAt,
		CreatedAt:        r.CreatedAt,
	}
}

func cursorOf(r Row) pkgpagination.Cursor {
	return pkgpagination.Cursor{CreatedAt: r.CreatedAt, ID: r.ID}
}
