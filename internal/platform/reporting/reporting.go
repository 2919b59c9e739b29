// Package reporting renders tabular exports as XLSX workbooks.
package reporting

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"
)

const MIMEXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// TimeLayout is used for every time.Time cell.
const TimeLayout = "2006-01-02 15:04:05"

type Column struct {
	Header string
	Width  float64
}

// Sheet is a single worksheet: a header row followed by Rows. Each row must
// have one value per column; nil leaves the cell empty.
type Sheet struct {
	Name    string
	Columns []Column
	Rows    [][]any
}

// Build renders sheet into an XLSX document with a styled, frozen header row.
func Build(sheet Sheet) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	name := sheet.Name
	if name == "" {
		name = "Sheet1"
	}
	index, err := f.NewSheet(name)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if name != "Sheet1" {
		f.DeleteSheet("Sheet1")
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for i, col := range sheet.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(name, cell, col.Header); err != nil {
			return nil, fmt.Errorf("set header %s: %w", cell, err)
		}
		if err := f.SetCellStyle(name, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("style header %s: %w", cell, err)
		}
		if col.Width > 0 {
			letter, err := excelize.ColumnNumberToName(i + 1)
			if err != nil {
				return nil, err
			}
			if err := f.SetColWidth(name, letter, letter, col.Width); err != nil {
				return nil, fmt.Errorf("set column width: %w", err)
			}
		}
	}

	for r, row := range sheet.Rows {
		if len(row) != len(sheet.Columns) {
			return nil, fmt.Errorf("row %d has %d values, want %d", r, len(row), len(sheet.Columns))
		}
		for c, v := range row {
			if v = cellValue(v); v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(name, cell, v); err != nil {
				return nil, fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}

	if err := f.SetPanes(name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// cellValue normalises pointers and times so the workbook shows readable text.
func cellValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case *string:
		if t == nil || *t == "" {
			return nil
		}
		return *t
	case time.Time:
		if t.IsZero() {
			return nil
		}
		return t.UTC().Format(TimeLayout)
	case *time.Time:
		if t == nil || t.IsZero() {
			return nil
		}
		return t.UTC().Format(TimeLayout)
	case string:
		if t == "" {
			return nil
		}
	}
	return v
}

// Attachment writes data as a downloadable workbook named
// "<prefix>-<yyyymmdd-hhmmss>.xlsx".
func Attachment(c echo.Context, prefix string, data []byte, now time.Time) error {
	filename := fmt.Sprintf("%s-%s.xlsx", prefix, now.UTC().Format("20060102-150405"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Blob(http.StatusOK, MIMEXLSX, data)
}
