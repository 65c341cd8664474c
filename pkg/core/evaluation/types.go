// Package evaluation runs the full valuation pipeline for one company:
// normalization, retraitements, classification, valuation methods, the bridge
// to a cession price and the diagnostic. Each run yields a fresh Result.
package evaluation

import (
	"evalup/pkg/core/archetype"
	"evalup/pkg/core/benchmark"
	"evalup/pkg/core/bridge"
	"evalup/pkg/core/diagnostic"
	"evalup/pkg/core/finance"
	"evalup/pkg/core/retraitement"
	"evalup/pkg/core/valuation"
)

// Profile is what the user declares about the business, beyond the accounts.
// Percentages are in percent.
type Profile struct {
	Sector       string   `json:"sector" yaml:"sector"`
	NAFCode      string   `json:"naf_code,omitempty" yaml:"naf_code,omitempty"`
	RecurringPct float64  `json:"recurring_pct,omitempty" yaml:"recurring_pct,omitempty"`
	GrowthPct    *float64 `json:"growth_pct,omitempty" yaml:"growth_pct,omitempty"`       // used with a single year
	PayrollRatio *float64 `json:"payroll_ratio,omitempty" yaml:"payroll_ratio,omitempty"` // fraction of revenue

	HasRecurringBilling   bool `json:"has_recurring_billing,omitempty" yaml:"has_recurring_billing,omitempty"`
	HasPhysicalStore      bool `json:"has_physical_store,omitempty" yaml:"has_physical_store,omitempty"`
	HasRealEstateHoldings bool `json:"has_real_estate_holdings,omitempty" yaml:"has_real_estate_holdings,omitempty"`

	// Archetype forces the archetype instead of classifying.
	Archetype archetype.ID `json:"archetype,omitempty" yaml:"archetype,omitempty"`
}

// Input is one evaluation request. All sources of Years share the same shape.
type Input struct {
	Years       []finance.FinancialYear   `json:"years" yaml:"years"`
	Profile     Profile                   `json:"profile" yaml:"profile"`
	Adjustments []retraitement.Adjustment `json:"adjustments,omitempty" yaml:"adjustments,omitempty"`
	Qualitative *bridge.Qualitative       `json:"qualitative,omitempty" yaml:"qualitative,omitempty"`
	NetAssets   *valuation.NetAssets      `json:"net_assets,omitempty" yaml:"net_assets,omitempty"`
	Comparables *valuation.Comparables    `json:"comparables,omitempty" yaml:"comparables,omitempty"`
}

// SectorInfo describes the classification outcome.
type SectorInfo struct {
	Sector          archetype.Sector          `json:"sector"`
	Archetype       archetype.ID              `json:"archetype"`
	ArchetypeName   string                    `json:"archetype_name"`
	Rule            string                    `json:"rule"`
	PrimaryMethod   archetype.Method          `json:"primary_method"`
	SecondaryMethod archetype.Method          `json:"secondary_method"`
	CommonMistakes  []string                  `json:"common_mistakes"`
	KeyFactors      []string                  `json:"key_factors"`
	Benchmark       benchmark.SectorBenchmark `json:"benchmark"`
}

// ScoreBreakdown records the qualitative answers and the factors they produced.
type ScoreBreakdown struct {
	Answers bridge.Qualitative `json:"answers"`
	Factors bridge.Factors     `json:"factors"`
}

// Result is the outcome of one evaluation. When HasValuation is false the
// value bands are zero and must not be displayed.
type Result struct {
	HasValuation     bool                      `json:"has_valuation"`
	EnterpriseValue  valuation.Band            `json:"enterprise_value"`
	CessionPrice     valuation.Band            `json:"cession_price"`
	NetDebt          float64                   `json:"net_debt"`
	Methods          []valuation.MethodResult  `json:"methods"`
	Adjustments      []retraitement.Adjustment `json:"adjustments"`
	Sector           SectorInfo                `json:"sector"`
	QualitativeScore *ScoreBreakdown           `json:"qualitative_score,omitempty"`

	EbitdaReported   float64                       `json:"ebitda_reported"`
	EbitdaNormalized float64                       `json:"ebitda_normalized"`
	Confidence       valuation.Confidence          `json:"confidence"`
	NAVFloorApplied  bool                          `json:"nav_floor_applied"`
	Factors          bridge.Factors                `json:"factors"`
	Bridge           []bridge.Step                 `json:"bridge"`
	Diagnostic       diagnostic.Result             `json:"diagnostic"`
	Financials       *finance.NormalizedFinancials `json:"financials"`

	ReferenceVersion string `json:"reference_version"`
	ReferenceAsOf    int    `json:"reference_as_of"`
}
