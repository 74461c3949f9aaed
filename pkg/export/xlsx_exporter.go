package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSXExporter renders datasets as Excel workbooks.
type XLSXExporter struct{}

// NewXLSXExporter builds an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Render produces a single-sheet workbook with a bold header row.
func (e *XLSXExporter) Render(data Dataset, title string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	if title != "" {
		if err := f.SetCellValue(sheet, "A1", title); err != nil {
			return nil, err
		}
	}
	headerRow := 2
	for col, header := range data.Headers {
		cell, err := excelize.CoordinatesToCellName(col+1, headerRow)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, err
		}
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil && len(data.Headers) > 0 {
		first, _ := excelize.CoordinatesToCellName(1, headerRow)
		last, _ := excelize.CoordinatesToCellName(len(data.Headers), headerRow)
		_ = f.SetCellStyle(sheet, first, last, headerStyle)
	}

	for i, row := range data.Rows {
		for col, header := range data.Headers {
			cell, err := excelize.CoordinatesToCellName(col+1, headerRow+1+i)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, row[header]); err != nil {
				return nil, err
			}
		}
	}
	for col := range data.Headers {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			continue
		}
		if err := f.SetColWidth(sheet, name, name, 18); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
