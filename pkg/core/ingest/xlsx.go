package ingest

import (
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"evalup/pkg/core/finance"
)

// FromXLSX reads a manual-entry workbook. Each sheet (or only sheetName when
// set) is laid out like FromRows expects; years found on several sheets are
// merged, the first sheet winning on conflicts.
func FromXLSX(path, sheetName string) ([]finance.FinancialYear, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}

	sheets := f.Sheets
	if sheetName != "" {
		sheet, ok := f.Sheet[sheetName]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", sheetName)
		}
		sheets = []*xlsx.Sheet{sheet}
	}

	all := records{}
	var lastErr error = ErrNoYearHeader
	for _, sheet := range sheets {
		rs, err := parseRows(sheetRows(sheet))
		if err != nil {
			lastErr = err
			continue
		}
		all.merge(rs)
	}
	if len(all) == 0 {
		return nil, eris.Wrap(lastErr, "xlsx: no usable sheet")
	}
	return all.years(finance.SourceManual), nil
}

func sheetRows(sheet *xlsx.Sheet) [][]string {
	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		if row == nil {
			continue
		}
		rows = append(rows, rowToStrings(row))
	}
	return rows
}

// rowToStrings keeps numeric cells unformatted so that display formats such
// as "#,##0" do not leak thousands separators into the parser.
func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		if cell == nil {
			continue
		}
		if cell.Type() == xlsx.CellTypeNumeric {
			if v, err := cell.Float(); err == nil {
				cells[j] = strconv.FormatFloat(v, 'f', -1, 64)
				continue
			}
		}
		cells[j] = cell.String()
	}
	return cells
}
