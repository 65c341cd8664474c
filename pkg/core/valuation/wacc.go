package valuation

import (
	"evalup/pkg/core/archetype"
	"evalup/pkg/core/benchmark"
)

// DiscountFor returns the discount band of an archetype's risk tier. Rates
// are reference data, not derived from a cost-of-capital formula.
func DiscountFor(a archetype.Archetype, t *benchmark.Tables) benchmark.DiscountRate {
	return t.DiscountRate(a.RiskTier)
}

