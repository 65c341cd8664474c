package valuation

import (
	"fmt"

	"evalup/pkg/core/archetype"
	"evalup/pkg/core/benchmark"
	"evalup/pkg/core/finance"
)

// ebitdaMultipleMethod values normalized EBITDA at the archetype multiple.
// Only a positive EBITDA can be priced this way.
func ebitdaMultipleMethod(ebitda float64, m *benchmark.Range) (MethodResult, bool) {
	if ebitda <= 0 || m == nil {
		return MethodResult{}, false
	}
	r := *m
	return MethodResult{
		Name:         archetype.MethodEBITDAMultiple,
		ValueLow:     ebitda * r.Min,
		ValueHigh:    ebitda * r.Max,
		MultipleUsed: &r,
		Rationale:    fmt.Sprintf("EBITDA normatif de %.0f € × %.1fx–%.1fx", ebitda, r.Min, r.Max),
	}, true
}

// revenueMultipleMethod values revenue at the archetype multiple. It applies
// to archetypes priced on revenue or ARR, and to loss-making companies.
func revenueMultipleMethod(a archetype.Archetype, ebitda, revenue float64, m *benchmark.Range) (MethodResult, bool) {
	if revenue <= 0 || m == nil {
		return MethodResult{}, false
	}
	if !a.PricedOnRevenue() && ebitda > 0 {
		return MethodResult{}, false
	}
	r := *m
	base := "chiffre d'affaires"
	if a.MetricBase == archetype.BaseARR {
		base = "revenu récurrent annuel"
	}
	return MethodResult{
		Name:         archetype.MethodRevenueMultiple,
		ValueLow:     revenue * r.Min,
		ValueHigh:    revenue * r.Max,
		MultipleUsed: &r,
		Rationale:    fmt.Sprintf("%s de %.0f € × %.2fx–%.2fx", capitalize(base), revenue, r.Min, r.Max),
	}, true
}

// netAssetFigure picks the best available net asset value: a supplied
// revaluation, then total assets minus total liabilities, then book equity.
func netAssetFigure(na *NetAssets, latest finance.YearView) (float64, string, bool) {
	if na != nil && (len(na.Assets) > 0 || len(na.Liabilities) > 0) {
		return na.Value(), "Actif net réévalué", true
	}
	if latest.TotalAssets != nil && latest.TotalLiabilities != nil {
		return *latest.TotalAssets - *latest.TotalLiabilities, "Actif net (total actif − total passif)", true
	}
	if latest.Equity > 0 {
		return latest.Equity, "Actif net comptable (capitaux propres)", true
	}
	return 0, "", false
}

// netAssetsMethod applies to asset-heavy archetypes and to those naming NAV
// as a method. A non-positive net asset value is not reported.
func netAssetsMethod(a archetype.Archetype, na *NetAssets, latest finance.YearView) (MethodResult, bool) {
	if !a.AssetHeavy && !a.UsesMethod(archetype.MethodNetAssets) {
		return MethodResult{}, false
	}
	nav, label, ok := netAssetFigure(na, latest)
	if !ok || nav <= 0 {
		return MethodResult{}, false
	}
	return MethodResult{
		Name:      archetype.MethodNetAssets,
		ValueLow:  nav,
		ValueHigh: nav,
		Rationale: fmt.Sprintf("%s : %.0f €", label, nav),
	}, true
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	if r[0] >= 'a' && r[0] <= 'z' {
		r[0] -= 'a' - 'A'
	}
	return string(r)
}
