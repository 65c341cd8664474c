package ingest

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"

	"evalup/pkg/core/finance"
)

// FromHTMLTable reads every <table> of an HTML document (a saved registry
// page or an exported statement) and merges the years found. charset names
// the document encoding; empty means UTF-8.
func FromHTMLTable(r io.Reader, charset string) ([]finance.FinancialYear, error) {
	if charset != "" && !strings.EqualFold(charset, "utf-8") {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, eris.Wrapf(err, "html: unsupported charset %q", charset)
		}
		r = enc.NewDecoder().Reader(r)
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, eris.Wrap(err, "html: parse document")
	}

	all := records{}
	var lastErr error = ErrNoYearHeader
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		rs, err := parseRows(tableRows(table))
		if err != nil {
			lastErr = err
			return
		}
		all.merge(rs)
	})
	if len(all) == 0 {
		return nil, eris.Wrap(lastErr, "html: no usable table")
	}
	return all.years(finance.SourceDocument), nil
}

// tableRows flattens a table into cell texts, repeating colspan cells so
// that year columns stay aligned.
func tableRows(table *goquery.Selection) [][]string {
	var rows [][]string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
			text := strings.Join(strings.Fields(cell.Text()), " ")
			span := 1
			if v, ok := cell.Attr("colspan"); ok {
				if n, ok := ParseAmount(v); ok && n > 1 && n < 20 {
					span = int(n)
				}
			}
			for i := 0; i < span; i++ {
				cells = append(cells, text)
			}
		})
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	})
	return rows
}
