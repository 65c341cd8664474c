// Package finance holds the canonical per-year financial record and the
// normalizer that derives ratios from it.
package finance

// Source identifies where a FinancialYear came from. All ingestion paths
// converge on the same shape before reaching the valuation engine.
type Source string

const (
	SourceRegistry Source = "registry" // public filing lookup (Pappers)
	SourceDocument Source = "document" // extraction from uploaded documents
	SourceManual   Source = "manual"   // manual form / spreadsheet entry
)

// =============================================================================
// FINANCIAL YEAR
// =============================================================================

// FinancialYear is one fiscal year of a company's accounts (euros).
// Values may legitimately be zero; optional lines are pointers and nil means
// "not supplied", never "zero".
type FinancialYear struct {
	Year   int    `json:"year" yaml:"year"`
	Source Source `json:"source,omitempty" yaml:"source,omitempty"`

	// Income statement
	Revenue                  float64 `json:"revenue" yaml:"revenue"`
	OperatingResult          float64 `json:"operating_result" yaml:"operating_result"`
	DepreciationAmortization float64 `json:"depreciation_amortization" yaml:"depreciation_amortization"`
	NetResult                float64 `json:"net_result" yaml:"net_result"`

	// Balance sheet
	Equity           float64 `json:"equity" yaml:"equity"`
	Cash             float64 `json:"cash" yaml:"cash"`
	FinancialDebt    float64 `json:"financial_debt" yaml:"financial_debt"`
	Inventory        float64 `json:"inventory" yaml:"inventory"`
	TradeReceivables float64 `json:"trade_receivables" yaml:"trade_receivables"`
	TradePayables    float64 `json:"trade_payables" yaml:"trade_payables"`
	Provisions       float64 `json:"provisions" yaml:"provisions"`

	// Optional lines
	Payroll          *float64 `json:"payroll,omitempty" yaml:"payroll,omitempty"`
	TotalAssets      *float64 `json:"total_assets,omitempty" yaml:"total_assets,omitempty"`
	TotalLiabilities *float64 `json:"total_liabilities,omitempty" yaml:"total_liabilities,omitempty"`
}

// EBITDA returns the reported EBITDA: operating result plus D&A.
func (y FinancialYear) EBITDA() float64 {
	return y.OperatingResult + y.DepreciationAmortization
}

// NetDebt returns financial debt minus cash. Negative means a net cash position.
func (y FinancialYear) NetDebt() float64 {
	return y.FinancialDebt - y.Cash
}

// =============================================================================
// DERIVED TYPES
// =============================================================================

// Ratios are the per-year derived ratios. Revenue-denominated ratios are nil
// when revenue is zero; equity-denominated ratios are 0 when equity <= 0.
type Ratios struct {
	NetMargin     *float64 `json:"net_margin,omitempty"`
	EbitdaMargin  *float64 `json:"ebitda_margin,omitempty"`
	DSO           *float64 `json:"dso,omitempty"`            // days
	DPO           *float64 `json:"dpo,omitempty"`            // days
	InventoryDays *float64 `json:"inventory_days,omitempty"` // days
	LeverageRatio float64  `json:"leverage_ratio"`
	ROE           float64  `json:"roe"`
}

// YearView is a FinancialYear together with the figures derived from it.
type YearView struct {
	FinancialYear
	EbitdaReported float64 `json:"ebitda_reported"`
	Ratios         Ratios  `json:"ratios"`
}

// NormalizedFinancials wraps the most recent 1-3 years and the ratios of the
// latest one. It is recomputed from its source years, never stored alone.
type NormalizedFinancials struct {
	Years []YearView `json:"years"` // oldest to newest

	EbitdaReported float64 `json:"ebitda_reported"`
	Ratios

	Growth       *float64 `json:"growth,omitempty"`        // latest YoY revenue growth (fraction)
	RevenueCAGR  *float64 `json:"revenue_cagr,omitempty"`  // over the kept window
	PayrollRatio *float64 `json:"payroll_ratio,omitempty"` // payroll / revenue
}

// RatiosHint carries externally computed figures that cannot be derived from
// the supplied years (e.g. growth when only one year is known).
type RatiosHint struct {
	GrowthPct    *float64 `json:"growth_pct,omitempty"`
	PayrollRatio *float64 `json:"payroll_ratio,omitempty"`
}

// Latest returns the most recent year.
func (n *NormalizedFinancials) Latest() (YearView, bool) {
	if n == nil || len(n.Years) == 0 {
		return YearView{}, false
	}
	return n.Years[len(n.Years)-1], true
}

// HasUsableData reports whether any kept year carries revenue. Without it no
// valuation method can apply.
func (n *NormalizedFinancials) HasUsableData() bool {
	if n == nil {
		return false
	}
	for _, y := range n.Years {
		if y.Revenue > 0 {
			return true
		}
	}
	return false
}

// GrowthPct returns the latest revenue growth in percent.
func (n *NormalizedFinancials) GrowthPct() (float64, bool) {
	if n == nil || n.Growth == nil {
		return 0, false
	}
	return *n.Growth * 100, true
}
