package ingest

import (
	"github.com/rotisserie/eris"

	"evalup/pkg/core/finance"
)

var (
	// ErrNoYearHeader is returned when no row carries fiscal years.
	ErrNoYearHeader = eris.New("ingest: no fiscal year header found")
	// ErrNoFinancialData is returned when no known line label is found.
	ErrNoFinancialData = eris.New("ingest: no recognised financial line")
)

// FromRows reads a statement laid out as one label column followed by one
// column per fiscal year. The header row is the first row naming at least
// one year; rows with unknown labels are ignored.
func FromRows(rows [][]string, source finance.Source) ([]finance.FinancialYear, error) {
	rs, err := parseRows(rows)
	if err != nil {
		return nil, err
	}
	return rs.years(source), nil
}

func parseRows(rows [][]string) (records, error) {
	header, columns := findHeader(rows)
	if header < 0 {
		return nil, ErrNoYearHeader
	}

	rs := records{}
	matched := 0
	for _, row := range rows[header+1:] {
		labelCol, label := firstText(row)
		if labelCol < 0 {
			continue
		}
		f, ok := lookupField(label)
		if !ok {
			continue
		}
		for col, year := range columns {
			if col <= labelCol || col >= len(row) {
				continue
			}
			if v, ok := ParseAmount(row[col]); ok {
				rs.get(year).set(f, v)
				matched++
			}
		}
	}
	if matched == 0 {
		return nil, ErrNoFinancialData
	}
	return rs, nil
}

// findHeader returns the index of the header row and its year columns.
func findHeader(rows [][]string) (int, map[int]int) {
	for i, row := range rows {
		columns := map[int]int{}
		for col, cell := range row {
			if col == 0 {
				continue
			}
			if y, ok := parseYear(cell); ok {
				columns[col] = y
			}
		}
		if len(columns) > 0 {
			return i, columns
		}
	}
	return -1, nil
}

// firstText returns the first cell that is not empty and not a number.
func firstText(row []string) (int, string) {
	for i, cell := range row {
		if foldLabel(cell) == "" {
			continue
		}
		if _, ok := ParseAmount(cell); ok {
			return -1, ""
		}
		return i, cell
	}
	return -1, ""
}
