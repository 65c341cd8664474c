package finance

import (
	"sort"

	"github.com/rotisserie/eris"
)

// MaxYears is the number of most recent fiscal years kept by Normalize.
const MaxYears = 3

// ErrDuplicateYear is returned when two records share the same fiscal year.
var ErrDuplicateYear = eris.New("finance: duplicate fiscal year")

// Normalize converts raw per-year records into NormalizedFinancials. Input
// order does not matter; the three most recent years are kept. An empty input
// yields an empty result, which callers detect with HasUsableData.
func Normalize(raw []FinancialYear, hint *RatiosHint) (*NormalizedFinancials, error) {
	years := make([]FinancialYear, len(raw))
	copy(years, raw)
	sort.SliceStable(years, func(i, j int) bool { return years[i].Year < years[j].Year })

	for i := 1; i < len(years); i++ {
		if years[i].Year == years[i-1].Year {
			return nil, eris.Wrapf(ErrDuplicateYear, "year %d", years[i].Year)
		}
	}

	if len(years) > MaxYears {
		years = years[len(years)-MaxYears:]
	}

	nf := &NormalizedFinancials{Years: make([]YearView, 0, len(years))}
	for _, y := range years {
		nf.Years = append(nf.Years, YearView{
			FinancialYear:  y,
			EbitdaReported: y.EBITDA(),
			Ratios:         ComputeRatios(y),
		})
	}

	latest, ok := nf.Latest()
	if !ok {
		return nf, nil
	}
	nf.EbitdaReported = latest.EbitdaReported
	nf.Ratios = latest.Ratios

	// 1. Growth: observed YoY first, hint second
	if len(nf.Years) >= 2 {
		prior := nf.Years[len(nf.Years)-2]
		if g, ok := GrowthRate(latest.Revenue, prior.Revenue); ok {
			nf.Growth = &g
		}
	}
	if nf.Growth == nil && hint != nil && hint.GrowthPct != nil {
		g := *hint.GrowthPct / 100
		nf.Growth = &g
	}

	// 2. CAGR over the kept window
	if len(nf.Years) >= 2 {
		first := nf.Years[0]
		if c, ok := CAGR(latest.Revenue, first.Revenue, latest.Year-first.Year); ok {
			nf.RevenueCAGR = &c
		}
	}

	// 3. Payroll ratio
	if latest.Payroll != nil && latest.Revenue > 0 {
		p := *latest.Payroll / latest.Revenue
		nf.PayrollRatio = &p
	} else if hint != nil && hint.PayrollRatio != nil {
		p := *hint.PayrollRatio
		nf.PayrollRatio = &p
	}

	return nf, nil
}
