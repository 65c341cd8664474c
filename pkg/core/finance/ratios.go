package finance

import "math"

const daysPerYear = 365.0

// ComputeRatios derives the ratios of a single year. Zero revenue leaves the
// revenue-denominated ratios nil; equity <= 0 sets leverage and ROE to 0.
func ComputeRatios(y FinancialYear) Ratios {
	ebitda := y.EBITDA()

	r := Ratios{
		NetMargin:     ratioOrNil(y.NetResult, y.Revenue),
		EbitdaMargin:  ratioOrNil(ebitda, y.Revenue),
		DSO:           daysOrNil(y.TradeReceivables, y.Revenue),
		DPO:           daysOrNil(y.TradePayables, y.Revenue),
		InventoryDays: daysOrNil(y.Inventory, y.Revenue),
	}

	// Equity guard: a negative or zero equity base has no meaningful
	// leverage or return.
	if y.Equity > 0 {
		r.LeverageRatio = y.FinancialDebt / y.Equity
		r.ROE = y.NetResult / y.Equity
	} else {
		r.LeverageRatio = 0
		r.ROE = 0
	}

	return r
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func ratioOrNil(numerator, denominator float64) *float64 {
	if denominator == 0 {
		return nil
	}
	v := numerator / denominator
	return &v
}

func daysOrNil(numerator, revenue float64) *float64 {
	if revenue == 0 {
		return nil
	}
	v := numerator / revenue * daysPerYear
	return &v
}

// GrowthRate returns (current - prior) / |prior|. ok is false when prior is 0.
func GrowthRate(current, prior float64) (float64, bool) {
	if prior == 0 {
		return 0, false
	}
	return (current - prior) / math.Abs(prior), true
}

// CAGR returns the compound annual growth between two values. ok is false when
// the inputs do not allow a real-valued rate.
func CAGR(endingValue, beginningValue float64, years int) (float64, bool) {
	if beginningValue <= 0 || endingValue < 0 || years <= 0 {
		return 0, false
	}
	return math.Pow(endingValue/beginningValue, 1.0/float64(years)) - 1, true
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
