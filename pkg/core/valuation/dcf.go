package valuation

import (
	"fmt"
	"math"

	"evalup/pkg/core/archetype"
)

// Bounds applied to the observed growth before it seeds the projection.
const (
	minInitialGrowth = -0.20
	maxInitialGrowth = 0.60
)

// DCFInput encapsulates the inputs of a single-rate DCF run.
type DCFInput struct {
	Revenue        float64 // current revenue
	EbitdaMargin   float64 // normalized EBITDA / revenue, held constant
	InitialGrowth  float64 // year-1 growth, decays linearly to TerminalGrowth
	TerminalGrowth float64 // e.g. 0.02
	WACC           float64
	Years          int
	CashConversion float64
}

// DCFResult holds the outputs of a single-rate DCF run.
type DCFResult struct {
	EnterpriseValue float64
	PVFCF           float64
	PVTerminal      float64
	TerminalValue   float64
	TerminalFCF     float64
	ImpliedMultiple float64 // TV / terminal-year EBITDA
}

// DCFDetail records the assumptions behind a DCF range.
type DCFDetail struct {
	Years          int     `json:"years"`
	InitialGrowth  float64 `json:"initial_growth"`
	TerminalGrowth float64 `json:"terminal_growth"`
	WACCLow        float64 `json:"wacc_low"`
	WACCHigh       float64 `json:"wacc_high"`
	CashConversion float64 `json:"cash_conversion"`
	EbitdaMargin   float64 `json:"ebitda_margin"`
}

// TerminalValue applies the perpetuity-growth formula.
//
// FORMULA: TV = FCF_n × (1 + g) / (WACC − g)
//
// ok is false when WACC <= g, where the formula has no finite value.
func TerminalValue(terminalFCF, wacc, g float64) (float64, bool) {
	if wacc <= g {
		return 0, false
	}
	return terminalFCF * (1 + g) / (wacc - g), true
}

// GrowthPath returns the growth rate of each projected year: year 1 uses
// initial, year n uses terminal, with linear interpolation in between.
func GrowthPath(initial, terminal float64, years int) []float64 {
	path := make([]float64, years)
	for t := 1; t <= years; t++ {
		path[t-1] = initial + (terminal-initial)*float64(t-1)/float64(max(years-1, 1))
	}
	if years == 1 {
		path[0] = terminal
	}
	return path
}

// CalculateDCF discounts projected free cash flows and a terminal value at a
// single WACC. ok is false when the discount rate does not exceed terminal
// growth.
func CalculateDCF(in DCFInput) (DCFResult, bool) {
	if in.WACC <= in.TerminalGrowth || in.Years <= 0 {
		return DCFResult{}, false
	}

	var pvFCF, fcf, ebitda float64
	revenue := in.Revenue
	cumDiscountFactor := 1.0

	for _, g := range GrowthPath(in.InitialGrowth, in.TerminalGrowth, in.Years) {
		// 1. Project revenue and cash flow
		revenue *= 1 + g
		ebitda = revenue * in.EbitdaMargin
		fcf = ebitda * in.CashConversion

		// 2. Discount
		cumDiscountFactor /= 1 + in.WACC
		pvFCF += fcf * cumDiscountFactor
	}

	// 3. Terminal value (Gordon growth) on the final-year cash flow
	tv, _ := TerminalValue(fcf, in.WACC, in.TerminalGrowth)
	pvTerminal := tv * cumDiscountFactor

	implied := 0.0
	if ebitda != 0 {
		implied = tv / ebitda
	}

	return DCFResult{
		EnterpriseValue: pvFCF + pvTerminal,
		PVFCF:           pvFCF,
		PVTerminal:      pvTerminal,
		TerminalValue:   tv,
		TerminalFCF:     fcf,
		ImpliedMultiple: implied,
	}, true
}

// dcfMethod runs the DCF at both ends of the discount band. The high WACC
// gives the low bound.
func dcfMethod(in Input, revenue float64) (MethodResult, bool) {
	opts := in.Options.withDefaults()
	d := in.Discount
	if in.EbitdaNormalized <= 0 || revenue <= 0 || !d.Valid() {
		return MethodResult{}, false
	}

	growth := d.TerminalGrowth
	if in.Financials != nil && in.Financials.Growth != nil {
		growth = *in.Financials.Growth
	}
	growth = math.Min(math.Max(growth, minInitialGrowth), maxInitialGrowth)

	base := DCFInput{
		Revenue:        revenue,
		EbitdaMargin:   in.EbitdaNormalized / revenue,
		InitialGrowth:  growth,
		TerminalGrowth: d.TerminalGrowth,
		Years:          opts.ProjectionYears,
		CashConversion: opts.CashConversion,
	}

	base.WACC = d.WACCHigh
	atHigh, ok := CalculateDCF(base)
	if !ok {
		return MethodResult{}, false
	}
	base.WACC = d.WACCLow
	atLow, ok := CalculateDCF(base)
	if !ok {
		return MethodResult{}, false
	}

	band := NewBand(atHigh.EnterpriseValue, atLow.EnterpriseValue)
	return MethodResult{
		Name:      archetype.MethodDCF,
		ValueLow:  band.Low,
		ValueHigh: band.High,
		Rationale: fmt.Sprintf(
			"Flux de trésorerie actualisés sur %d ans (croissance initiale %.1f %%, WACC %.1f–%.1f %%, croissance perpétuelle %.1f %%)",
			opts.ProjectionYears, growth*100, d.WACCLow*100, d.WACCHigh*100, d.TerminalGrowth*100),
		DCF: &DCFDetail{
			Years:          opts.ProjectionYears,
			InitialGrowth:  growth,
			TerminalGrowth: d.TerminalGrowth,
			WACCLow:        d.WACCLow,
			WACCHigh:       d.WACCHigh,
			CashConversion: opts.CashConversion,
			EbitdaMargin:   base.EbitdaMargin,
		},
	}, true
}
