package ingest

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"evalup/pkg/core/finance"
)

// field is a canonical line of a FinancialYear, plus EBITDA which is only
// used to derive D&A.
type field string

const (
	fieldRevenue          field = "revenue"
	fieldOperatingResult  field = "operating_result"
	fieldDA               field = "depreciation_amortization"
	fieldEBITDA           field = "ebitda"
	fieldNetResult        field = "net_result"
	fieldEquity           field = "equity"
	fieldCash             field = "cash"
	fieldFinancialDebt    field = "financial_debt"
	fieldInventory        field = "inventory"
	fieldTradeReceivables field = "trade_receivables"
	fieldTradePayables    field = "trade_payables"
	fieldProvisions       field = "provisions"
	fieldPayroll          field = "payroll"
	fieldTotalAssets      field = "total_assets"
	fieldTotalLiabilities field = "total_liabilities"
)

// fieldLabels lists the labels accepted for each field, already folded (see
// foldLabel). Canonical snake_case keys fold to their spaced form.
var fieldLabels = []struct {
	field  field
	labels []string
}{
	{fieldRevenue, []string{"revenue", "sales", "chiffre d'affaires", "chiffre d'affaires net", "chiffre affaires", "chiffres d'affaires nets", "ca", "ventes"}},
	{fieldOperatingResult, []string{"operating result", "ebit", "resultat d'exploitation", "resultat exploitation", "rex"}},
	{fieldDA, []string{"depreciation amortization", "d&a", "dotations aux amortissements", "dotations aux amortissements et provisions", "dotations amortissements", "amortissements"}},
	{fieldEBITDA, []string{"ebitda", "ebe", "excedent brut d'exploitation", "excedent brut exploitation"}},
	{fieldNetResult, []string{"net result", "net income", "resultat net", "resultat", "resultat de l'exercice", "benefice ou perte"}},
	{fieldEquity, []string{"equity", "capitaux propres"}},
	{fieldCash, []string{"cash", "tresorerie", "disponibilites"}},
	{fieldFinancialDebt, []string{"financial debt", "dettes financieres", "emprunts et dettes financieres", "emprunts"}},
	{fieldInventory, []string{"inventory", "stocks", "stocks et en-cours"}},
	{fieldTradeReceivables, []string{"trade receivables", "creances clients", "clients et comptes rattaches"}},
	{fieldTradePayables, []string{"trade payables", "dettes fournisseurs", "fournisseurs et comptes rattaches"}},
	{fieldProvisions, []string{"provisions", "provisions pour risques et charges"}},
	{fieldPayroll, []string{"payroll", "charges de personnel", "charges personnel", "masse salariale", "salaires et traitements"}},
	{fieldTotalAssets, []string{"total assets", "total actif", "total bilan"}},
	{fieldTotalLiabilities, []string{"total liabilities", "total dettes"}},
}

var labelAliases = func() map[string]field {
	m := make(map[string]field)
	for _, fl := range fieldLabels {
		for _, l := range fl.labels {
			m[l] = fl.field
		}
	}
	return m
}()

// yearKeys are the column or key names holding the fiscal year.
var yearKeys = map[string]bool{"year": true, "annee": true, "exercice": true, "fiscal year": true}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldLabel lowercases a label, strips accents, footnote markers and
// trailing punctuation, and maps underscores to spaces.
func foldLabel(label string) string {
	s, _, err := transform.String(stripMarks, label)
	if err != nil {
		s = label
	}
	s = strings.ToLower(s)
	s = strings.NewReplacer("_", " ", "\u2019", "'", "\u00a0", " ").Replace(s)
	if i := strings.Index(s, "("); i > 0 {
		s = s[:i]
	}
	s = strings.TrimRight(strings.TrimSpace(s), ":*.")
	return strings.Join(strings.Fields(s), " ")
}

func lookupField(label string) (field, bool) {
	f, ok := labelAliases[foldLabel(label)]
	return f, ok
}

// record accumulates the lines of one fiscal year before conversion.
type record struct {
	year   int
	values map[field]float64
}

func newRecord(year int) *record {
	return &record{year: year, values: make(map[field]float64)}
}

// set keeps the first value seen for a field.
func (r *record) set(f field, v float64) {
	if _, ok := r.values[f]; !ok {
		r.values[f] = v
	}
}

func (r *record) has(f field) bool {
	_, ok := r.values[f]
	return ok
}

// toYear converts the record. D&A is derived as EBITDA minus operating
// result when only those two are known.
func (r *record) toYear(source finance.Source) finance.FinancialYear {
	v := r.values
	y := finance.FinancialYear{
		Year:             r.year,
		Source:           source,
		Revenue:          v[fieldRevenue],
		OperatingResult:  v[fieldOperatingResult],
		NetResult:        v[fieldNetResult],
		Equity:           v[fieldEquity],
		Cash:             v[fieldCash],
		FinancialDebt:    v[fieldFinancialDebt],
		Inventory:        v[fieldInventory],
		TradeReceivables: v[fieldTradeReceivables],
		TradePayables:    v[fieldTradePayables],
		Provisions:       v[fieldProvisions],
	}
	switch {
	case r.has(fieldDA):
		y.DepreciationAmortization = v[fieldDA]
	case r.has(fieldEBITDA) && r.has(fieldOperatingResult):
		y.DepreciationAmortization = v[fieldEBITDA] - v[fieldOperatingResult]
	}
	if r.has(fieldPayroll) {
		y.Payroll = finance.Float(v[fieldPayroll])
	}
	if r.has(fieldTotalAssets) {
		y.TotalAssets = finance.Float(v[fieldTotalAssets])
	}
	if r.has(fieldTotalLiabilities) {
		y.TotalLiabilities = finance.Float(v[fieldTotalLiabilities])
	}
	return y
}

// records is a set of per-year records, merged across tables or sheets.
type records map[int]*record

func (rs records) get(year int) *record {
	r, ok := rs[year]
	if !ok {
		r = newRecord(year)
		rs[year] = r
	}
	return r
}

func (rs records) merge(other records) {
	for year, o := range other {
		r := rs.get(year)
		for f, v := range o.values {
			r.set(f, v)
		}
	}
}

// years returns the records with at least one value, oldest first.
func (rs records) years(source finance.Source) []finance.FinancialYear {
	keys := make([]int, 0, len(rs))
	for y, r := range rs {
		if len(r.values) > 0 {
			keys = append(keys, y)
		}
	}
	sort.Ints(keys)
	out := make([]finance.FinancialYear, 0, len(keys))
	for _, y := range keys {
		out = append(out, rs[y].toYear(source))
	}
	return out
}
