// Package valuation computes enterprise-value ranges under each applicable
// method and blends them into one low/mid/high estimate. Every function is
// pure: identical inputs give identical outputs.
package valuation

import (
	"evalup/pkg/core/archetype"
	"evalup/pkg/core/benchmark"
	"evalup/pkg/core/finance"
)

// Defaults for Options.
const (
	DefaultProjectionYears = 5
	DefaultCashConversion  = 0.55
)

// Options tune the DCF projection.
type Options struct {
	ProjectionYears int     `json:"projection_years" yaml:"projection_years"`
	CashConversion  float64 `json:"cash_conversion" yaml:"cash_conversion"` // FCF / EBITDA
}

// DefaultOptions returns the built-in projection settings.
func DefaultOptions() Options {
	return Options{ProjectionYears: DefaultProjectionYears, CashConversion: DefaultCashConversion}
}

func (o Options) withDefaults() Options {
	if o.ProjectionYears <= 0 {
		o.ProjectionYears = DefaultProjectionYears
	}
	if o.CashConversion <= 0 {
		o.CashConversion = DefaultCashConversion
	}
	return o
}

// Line is a labelled amount in euros.
type Line struct {
	Label  string  `json:"label" yaml:"label"`
	Amount float64 `json:"amount" yaml:"amount"`
}

// NetAssets lists revalued assets and liabilities.
type NetAssets struct {
	Assets      []Line `json:"assets" yaml:"assets"`
	Liabilities []Line `json:"liabilities" yaml:"liabilities"`
}

// Value returns the sum of assets minus the sum of liabilities.
func (n NetAssets) Value() float64 {
	assets, liabilities := 0.0, 0.0
	for _, a := range n.Assets {
		assets += a.Amount
	}
	for _, l := range n.Liabilities {
		liabilities += l.Amount
	}
	return assets - liabilities
}

// Comparables carries transaction evidence supplied by the user. An absolute
// price range takes precedence over multiples.
type Comparables struct {
	Source           string    `json:"source,omitempty" yaml:"source,omitempty"`
	EBITDAMultiples  []float64 `json:"ebitda_multiples,omitempty" yaml:"ebitda_multiples,omitempty"`
	RevenueMultiples []float64 `json:"revenue_multiples,omitempty" yaml:"revenue_multiples,omitempty"`
	PriceLow         *float64  `json:"price_low,omitempty" yaml:"price_low,omitempty"`
	PriceHigh        *float64  `json:"price_high,omitempty" yaml:"price_high,omitempty"`
}

// Input gathers everything the methods need.
type Input struct {
	Financials       *finance.NormalizedFinancials
	EbitdaNormalized float64
	Archetype        archetype.Archetype
	Multiples        benchmark.Multiples
	Discount         benchmark.DiscountRate
	NetAssets        *NetAssets
	Comparables      *Comparables
	Options          Options
}

// MethodResult is the range produced by one method. ValueLow <= ValueHigh.
type MethodResult struct {
	Name         archetype.Method `json:"name"`
	Weight       float64          `json:"weight"`
	ValueLow     float64          `json:"value_low"`
	ValueHigh    float64          `json:"value_high"`
	MultipleUsed *benchmark.Range `json:"multiple_used,omitempty"`
	Rationale    string           `json:"rationale"`
	DCF          *DCFDetail       `json:"dcf,omitempty"`
}

// Band is a low/mid/high estimate.
type Band struct {
	Low  float64 `json:"low"`
	Mid  float64 `json:"mid"`
	High float64 `json:"high"`
}

// NewBand orders low and high and computes the midpoint.
func NewBand(low, high float64) Band {
	if low > high {
		low, high = high, low
	}
	return Band{Low: low, Mid: (low + high) / 2, High: high}
}

// Confidence rates how much the blended range can be trusted.
type Confidence string

const (
	ConfidenceHigh   Confidence = "haute"
	ConfidenceMedium Confidence = "moyenne"
	ConfidenceLow    Confidence = "faible"
)

// Estimate is the outcome of ValueCompany. When HasValuation is false no
// method applied and EnterpriseValue is meaningless.
type Estimate struct {
	HasValuation    bool           `json:"has_valuation"`
	EnterpriseValue Band           `json:"enterprise_value"`
	Methods         []MethodResult `json:"methods"`
	NAVFloorApplied bool           `json:"nav_floor_applied"`
	Confidence      Confidence     `json:"confidence"`
}
