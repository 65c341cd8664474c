package valuation

import (
	"fmt"
	"sort"

	"evalup/pkg/core/archetype"
	"evalup/pkg/core/benchmark"
)

// InterquartileRange returns the 25th and 75th percentile of the positive
// values in mults. ok is false when no positive value is present. mults is
// not modified.
func InterquartileRange(mults []float64) (benchmark.Range, bool) {
	vals := make([]float64, 0, len(mults))
	for _, m := range mults {
		if m > 0 {
			vals = append(vals, m)
		}
	}
	if len(vals) == 0 {
		return benchmark.Range{}, false
	}
	sort.Float64s(vals)
	lowIdx := int(float64(len(vals)) * 0.25)
	highIdx := int(float64(len(vals)) * 0.75)
	if highIdx >= len(vals) {
		highIdx = len(vals) - 1
	}
	return benchmark.Range{Min: vals[lowIdx], Max: vals[highIdx]}, true
}

// comparablesMethod prices the company from supplied transaction evidence.
// Without usable evidence the method is absent.
func comparablesMethod(c *Comparables, ebitda, revenue float64) (MethodResult, bool) {
	if c == nil {
		return MethodResult{}, false
	}
	source := c.Source
	if source == "" {
		source = "transactions comparables"
	}

	// 1. Absolute price range
	if c.PriceLow != nil || c.PriceHigh != nil {
		low, high := priceBounds(c.PriceLow, c.PriceHigh)
		if high > 0 {
			band := NewBand(low, high)
			return MethodResult{
				Name:      archetype.MethodComparables,
				ValueLow:  band.Low,
				ValueHigh: band.High,
				Rationale: fmt.Sprintf("Fourchette de prix issue de %s", source),
			}, true
		}
	}

	// 2. EV/EBITDA multiples
	if ebitda > 0 {
		if r, ok := InterquartileRange(c.EBITDAMultiples); ok {
			return MethodResult{
				Name:         archetype.MethodComparables,
				ValueLow:     ebitda * r.Min,
				ValueHigh:    ebitda * r.Max,
				MultipleUsed: &r,
				Rationale:    fmt.Sprintf("Multiples d'EBITDA de %s (%.1fx–%.1fx, quartiles)", source, r.Min, r.Max),
			}, true
		}
	}

	// 3. EV/Revenue multiples
	if revenue > 0 {
		if r, ok := InterquartileRange(c.RevenueMultiples); ok {
			return MethodResult{
				Name:         archetype.MethodComparables,
				ValueLow:     revenue * r.Min,
				ValueHigh:    revenue * r.Max,
				MultipleUsed: &r,
				Rationale:    fmt.Sprintf("Multiples de chiffre d'affaires de %s (%.2fx–%.2fx, quartiles)", source, r.Min, r.Max),
			}, true
		}
	}

	return MethodResult{}, false
}

func priceBounds(low, high *float64) (float64, float64) {
	switch {
	case low != nil && high != nil:
		return *low, *high
	case low != nil:
		return *low, *low
	default:
		return *high, *high
	}
}
