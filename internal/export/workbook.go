package export

import (
	"fmt"
	"io"
	"time"

	"github.com/cupshup/ops-backend/internal/tasks"
	"github.com/xuri/excelize/v2"
)

const (
	sheetName   = "Tasks"
	timeLayout  = "2006-01-02 15:04:05"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var headers = []any{
	"Task ID", "Created At (UTC)", "Activity", "City", "Vendor", "Customer Name",
	"Customer Phone", "Products Sold", "Sales Order Number", "Order ID", "Work Started At (UTC)", "Image URL",
}

// Workbook is a rendered task export ready to be streamed.
type Workbook struct {
	file     *excelize.File
	FileName string
	Rows     int
}

func (b *Workbook) Write(w io.Writer) error {
	return b.file.Write(w)
}

func (b *Workbook) Close() error {
	return b.file.Close()
}

func buildWorkbook(rows []tasks.Row, generatedAt time.Time) (*Workbook, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := render(f, rows); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Workbook{
		file:     f,
		FileName: fmt.Sprintf("tasks-%s.xlsx", generatedAt.UTC().Format("20060102-150405")),
		Rows:     len(rows),
	}, nil
}

func render(f *excelize.File, rows []tasks.Row) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F4E78"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	missingStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFF2CC"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("missing order id style: %w", err)
	}

	if err := f.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	last, _ := excelize.ColumnNumberToName(len(headers))
	if err := f.SetCellStyle(sheetName, "A1", last+"1", headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, r := range rows {
		rowNum := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, rowNum)
		values := []any{
			r.ID.String(),
			r.CreatedAt.UTC().Format(timeLayout),
			r.ActivityBrand,
			r.ActivityCity,
			deref(r.VendorName),
			r.CustomerName,
			r.CustomerPhone,
			r.ProductsSold,
			r.SalesOrderNumber,
			deref(r.OrderID),
			formatTime(r.WorkStartedAt),
			r.ImageURL,
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", rowNum, err)
		}
		if r.OrderID == nil {
			orderCell, _ := excelize.CoordinatesToCellName(10, rowNum)
			if err := f.SetCellStyle(sheetName, orderCell, orderCell, missingStyle); err != nil {
				return fmt.Errorf("style row %d: %w", rowNum, err)
			}
		}
	}

	for i := 1; i <= len(headers); i++ {
		col, _ := excelize.ColumnNumberToName(i)
		width := 20.0
		if i == len(headers) {
			width = 60
		}
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return fmt.Errorf("column width: %w", err)
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}
	if len(rows) > 0 {
		if err := f.AutoFilter(sheetName, fmt.Sprintf("A1:%s%d", last, len(rows)+1), nil); err != nil {
			return fmt.Errorf("auto filter: %w", err)
		}
	}
	return nil
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(timeLayout)
}
