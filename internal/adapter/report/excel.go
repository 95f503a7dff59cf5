package report

import (
	"github.com/xuri/excelize/v2"

	"github.com/iho/cashdesk/internal/domain"
)

const sheetName = "Report"

func writeExcel(path string, r domain.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	row := 1
	if r.Title != "" {
		if err := f.SetCellValue(sheetName, "A1", r.Title); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetName, "A1", "A1", header); err != nil {
			return err
		}
		row = 3
	}

	if err := setRow(f, row, r.Columns); err != nil {
		return err
	}
	if len(r.Columns) > 0 {
		first, _ := excelize.CoordinatesToCellName(1, row)
		last, _ := excelize.CoordinatesToCellName(len(r.Columns), row)
		if err := f.SetCellStyle(sheetName, first, last, header); err != nil {
			return err
		}
		lastCol, _ := excelize.ColumnNumberToName(len(r.Columns))
		if err := f.SetColWidth(sheetName, "A", lastCol, 18); err != nil {
			return err
		}
	}

	for i, values := range r.Rows {
		if err := setRow(f, row+1+i, values); err != nil {
			return err
		}
	}

	return f.SaveAs(path)
}

func setRow(f *excelize.File, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return f.SetSheetRow(sheetName, cell, &cells)
}
