package ingest

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/rotisserie/eris"

	"evalup/pkg/core/finance"
)

// FromCSV reads a manual-entry CSV file. Two layouts are accepted:
//   - wide: a label column followed by one column per year (see FromRows);
//   - long: a header row starting with "annee" (or "year") and one row per
//     fiscal year, columns named after the lines.
//
// The delimiter (';', ',' or tab) is detected from the first line.
func FromCSV(r io.Reader) ([]finance.FinancialYear, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "csv: read input")
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "csv: parse")
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrNoFinancialData
	}

	if yearKeys[foldLabel(rows[0][0])] {
		return fromLongRows(rows)
	}
	return FromRows(rows, finance.SourceManual)
}

// csvLine is one fiscal year in the long layout. Cells stay text so that
// French amounts go through ParseAmount.
type csvLine struct {
	Year             string `csv:"year"`
	Revenue          string `csv:"revenue"`
	OperatingResult  string `csv:"operating_result"`
	DA               string `csv:"depreciation_amortization"`
	EBITDA           string `csv:"ebitda"`
	NetResult        string `csv:"net_result"`
	Equity           string `csv:"equity"`
	Cash             string `csv:"cash"`
	FinancialDebt    string `csv:"financial_debt"`
	Inventory        string `csv:"inventory"`
	TradeReceivables string `csv:"trade_receivables"`
	TradePayables    string `csv:"trade_payables"`
	Provisions       string `csv:"provisions"`
	Payroll          string `csv:"payroll"`
	TotalAssets      string `csv:"total_assets"`
	TotalLiabilities string `csv:"total_liabilities"`
}

func (l csvLine) record() (*record, error) {
	year, ok := parseYear(l.Year)
	if !ok {
		return nil, eris.Errorf("csv: invalid fiscal year %q", l.Year)
	}
	r := newRecord(year)
	cells := []struct {
		f    field
		text string
	}{
		{fieldRevenue, l.Revenue}, {fieldOperatingResult, l.OperatingResult}, {fieldDA, l.DA},
		{fieldEBITDA, l.EBITDA}, {fieldNetResult, l.NetResult}, {fieldEquity, l.Equity},
		{fieldCash, l.Cash}, {fieldFinancialDebt, l.FinancialDebt}, {fieldInventory, l.Inventory},
		{fieldTradeReceivables, l.TradeReceivables}, {fieldTradePayables, l.TradePayables},
		{fieldProvisions, l.Provisions}, {fieldPayroll, l.Payroll},
		{fieldTotalAssets, l.TotalAssets}, {fieldTotalLiabilities, l.TotalLiabilities},
	}
	for _, c := range cells {
		if strings.TrimSpace(c.text) == "" {
			continue
		}
		v, ok := ParseAmount(c.text)
		if !ok {
			return nil, eris.Errorf("csv: year %d: invalid amount %q for %s", year, c.text, c.f)
		}
		r.set(c.f, v)
	}
	return r, nil
}

func fromLongRows(rows [][]string) ([]finance.FinancialYear, error) {
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		folded := foldLabel(h)
		switch {
		case yearKeys[folded]:
			header[i] = "year"
		default:
			if f, ok := labelAliases[folded]; ok {
				header[i] = string(f)
			} else {
				header[i] = folded
			}
		}
	}

	// Re-encode with canonical headers and rows padded to the header width.
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, eris.Wrap(err, "csv: encode header")
	}
	for _, row := range rows[1:] {
		padded := make([]string, len(header))
		copy(padded, row)
		if err := w.Write(padded); err != nil {
			return nil, eris.Wrap(err, "csv: encode row")
		}
	}
	w.Flush()

	var lines []csvLine
	if err := gocsv.UnmarshalBytes(buf.Bytes(), &lines); err != nil {
		return nil, eris.Wrap(err, "csv: decode rows")
	}

	rs := records{}
	for _, l := range lines {
		if strings.TrimSpace(l.Year) == "" {
			continue
		}
		r, err := l.record()
		if err != nil {
			return nil, err
		}
		rs.merge(records{r.year: r})
	}
	years := rs.years(finance.SourceManual)
	if len(years) == 0 {
		return nil, ErrNoFinancialData
	}
	return years, nil
}

func detectDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, count := ',', bytes.Count(line, []byte{','})
	for _, d := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > count {
			best, count = d, n
		}
	}
	return best
}
