package benchmark

import "evalup/pkg/core/archetype"

// Built-in reference data, French SME transactions.
const (
	DefaultAsOf    = 2025
	DefaultVersion = "2025.1"
)

func rng(lo, hi float64) *Range { return &Range{Min: lo, Max: hi} }

func tri(lo, median, hi float64) Triple { return Triple{Min: lo, Median: median, Max: hi} }

// Default returns a fresh copy of the built-in tables.
func Default() *Tables {
	return &Tables{
		asOf:       DefaultAsOf,
		version:    DefaultVersion,
		multiples:  defaultMultiples(),
		benchmarks: defaultBenchmarks(),
		rates:      defaultRates(),
	}
}

func defaultMultiples() map[archetype.ID]Multiples {
	return map[archetype.ID]Multiples{
		archetype.PreRevenue:             {Revenue: rng(0.5, 1.5)},
		archetype.Patrimoine:             {EBITDA: rng(8, 12)},
		archetype.SaaSHyper:              {Revenue: rng(3, 6)},
		archetype.SaaSMature:             {EBITDA: rng(8, 12), Revenue: rng(2, 4)},
		archetype.Marketplace:            {EBITDA: rng(8, 12), Revenue: rng(1, 2.5)},
		archetype.Ecommerce:              {EBITDA: rng(5, 8), Revenue: rng(0.5, 1.2)},
		archetype.MicroSolo:              {EBITDA: rng(2, 4), Revenue: rng(0.3, 0.8)},
		archetype.ServicesRecurrents:     {EBITDA: rng(6, 9), Revenue: rng(0.8, 1.5)},
		archetype.Conseil:                {EBITDA: rng(4, 7), Revenue: rng(0.5, 1)},
		archetype.Sante:                  {EBITDA: rng(6, 9), Revenue: rng(0.8, 1.5)},
		archetype.HotellerieRestauration: {EBITDA: rng(4, 7), Revenue: rng(0.6, 1.2)},
		archetype.CommerceRetail:         {EBITDA: rng(4, 6.5), Revenue: rng(0.3, 0.8)},
		archetype.BTP:                    {EBITDA: rng(3.5, 6), Revenue: rng(0.2, 0.5)},
		archetype.Transport:              {EBITDA: rng(4, 6), Revenue: rng(0.3, 0.6)},
		archetype.Industrie:              {EBITDA: rng(5, 8), Revenue: rng(0.5, 1)},
		archetype.PMEGenerique:           {EBITDA: rng(4.5, 7), Revenue: rng(0.5, 1)},
	}
}

func defaultBenchmarks() map[archetype.Sector]SectorBenchmark {
	return map[archetype.Sector]SectorBenchmark{
		archetype.SectorTech: {
			NetMargin: tri(0, 0.06, 0.15), EbitdaMargin: tri(0.02, 0.12, 0.25), Growth: tri(0, 0.10, 0.30),
			DSO: tri(30, 55, 90), Leverage: tri(0, 0.5, 1.5),
			MultipleCA: tri(0.6, 1.2, 2.5), MultipleEbitda: tri(5, 8, 12),
		},
		archetype.SectorSaaS: {
			NetMargin: tri(-0.10, 0.05, 0.20), EbitdaMargin: tri(-0.05, 0.15, 0.35), Growth: tri(0.05, 0.25, 0.60),
			DSO: tri(20, 45, 75), Leverage: tri(0, 0.3, 1),
			MultipleCA: tri(1.5, 3, 6), MultipleEbitda: tri(8, 12, 18),
		},
		archetype.SectorMarketplace: {
			NetMargin: tri(-0.05, 0.04, 0.15), EbitdaMargin: tri(0, 0.10, 0.25), Growth: tri(0.05, 0.20, 0.50),
			DSO: tri(10, 30, 60), Leverage: tri(0, 0.4, 1.2),
			MultipleCA: tri(1, 2, 3.5), MultipleEbitda: tri(7, 10, 14),
		},
		archetype.SectorEcommerce: {
			NetMargin: tri(0, 0.03, 0.08), EbitdaMargin: tri(0.01, 0.06, 0.12), Growth: tri(0, 0.10, 0.30),
			DSO: tri(0, 10, 30), Leverage: tri(0, 0.6, 1.5),
			MultipleCA: tri(0.4, 0.8, 1.5), MultipleEbitda: tri(4, 6, 9),
		},
		archetype.SectorConseil: {
			NetMargin: tri(0.03, 0.08, 0.15), EbitdaMargin: tri(0.06, 0.12, 0.20), Growth: tri(0, 0.06, 0.15),
			DSO: tri(45, 65, 90), Leverage: tri(0, 0.3, 1),
			MultipleCA: tri(0.4, 0.8, 1.2), MultipleEbitda: tri(4, 5.5, 7),
		},
		archetype.SectorServices: {
			NetMargin: tri(0.02, 0.06, 0.12), EbitdaMargin: tri(0.05, 0.10, 0.18), Growth: tri(0, 0.05, 0.12),
			DSO: tri(30, 55, 80), Leverage: tri(0, 0.5, 1.5),
			MultipleCA: tri(0.5, 0.9, 1.5), MultipleEbitda: tri(4.5, 6, 8),
		},
		archetype.SectorCommerce: {
			NetMargin: tri(0.01, 0.03, 0.07), EbitdaMargin: tri(0.02, 0.05, 0.10), Growth: tri(-0.02, 0.03, 0.08),
			DSO: tri(0, 15, 45), Leverage: tri(0, 0.7, 2),
			MultipleCA: tri(0.2, 0.5, 0.9), MultipleEbitda: tri(3.5, 5, 7),
		},
		archetype.SectorRestauration: {
			NetMargin: tri(0.01, 0.05, 0.10), EbitdaMargin: tri(0.05, 0.10, 0.18), Growth: tri(-0.02, 0.04, 0.10),
			DSO: tri(0, 5, 15), Leverage: tri(0, 1, 2.5),
			MultipleCA: tri(0.5, 0.9, 1.3), MultipleEbitda: tri(3.5, 5, 7),
		},
		archetype.SectorIndustrie: {
			NetMargin: tri(0.01, 0.05, 0.10), EbitdaMargin: tri(0.05, 0.10, 0.18), Growth: tri(-0.02, 0.04, 0.10),
			DSO: tri(40, 60, 90), Leverage: tri(0, 0.6, 1.8),
			MultipleCA: tri(0.4, 0.7, 1.1), MultipleEbitda: tri(4.5, 6, 8),
		},
		archetype.SectorBTP: {
			NetMargin: tri(0.01, 0.04, 0.08), EbitdaMargin: tri(0.03, 0.07, 0.12), Growth: tri(-0.03, 0.04, 0.10),
			DSO: tri(45, 70, 100), Leverage: tri(0, 0.5, 1.5),
			MultipleCA: tri(0.2, 0.35, 0.6), MultipleEbitda: tri(3.5, 5, 6.5),
		},
		archetype.SectorImmobilier: {
			NetMargin: tri(0.05, 0.20, 0.40), EbitdaMargin: tri(0.30, 0.55, 0.80), Growth: tri(-0.02, 0.02, 0.06),
			DSO: tri(0, 20, 60), Leverage: tri(0, 1.2, 3),
			MultipleCA: tri(3, 6, 10), MultipleEbitda: tri(8, 10, 14),
		},
		archetype.SectorSante: {
			NetMargin: tri(0.02, 0.07, 0.14), EbitdaMargin: tri(0.06, 0.12, 0.20), Growth: tri(0, 0.05, 0.12),
			DSO: tri(20, 45, 75), Leverage: tri(0, 0.6, 1.6),
			MultipleCA: tri(0.6, 1.1, 1.8), MultipleEbitda: tri(6, 8, 11),
		},
		archetype.SectorTransport: {
			NetMargin: tri(0.005, 0.03, 0.07), EbitdaMargin: tri(0.05, 0.10, 0.16), Growth: tri(-0.02, 0.04, 0.10),
			DSO: tri(40, 60, 90), Leverage: tri(0, 1, 2.5),
			MultipleCA: tri(0.25, 0.45, 0.7), MultipleEbitda: tri(3.5, 5, 6.5),
		},
		archetype.SectorAutre: {
			NetMargin: tri(0.01, 0.05, 0.10), EbitdaMargin: tri(0.04, 0.09, 0.15), Growth: tri(-0.02, 0.04, 0.12),
			DSO: tri(30, 55, 90), Leverage: tri(0, 0.6, 1.8),
			MultipleCA: tri(0.4, 0.7, 1.1), MultipleEbitda: tri(4, 5.5, 7.5),
		},
	}
}

// defaultRates are policy choices per risk tier, not derived from a formula.
func defaultRates() map[archetype.RiskTier]DiscountRate {
	return map[archetype.RiskTier]DiscountRate{
		archetype.TierSeed:        {WACCLow: 0.30, WACCHigh: 0.40, TerminalGrowth: 0.02},
		archetype.TierGrowth:      {WACCLow: 0.18, WACCHigh: 0.25, TerminalGrowth: 0.03},
		archetype.TierScaleUp:     {WACCLow: 0.14, WACCHigh: 0.18, TerminalGrowth: 0.025},
		archetype.TierEstablished: {WACCLow: 0.12, WACCHigh: 0.16, TerminalGrowth: 0.02},
		archetype.TierMature:      {WACCLow: 0.10, WACCHigh: 0.14, TerminalGrowth: 0.02},
		archetype.TierMicro:       {WACCLow: 0.16, WACCHigh: 0.22, TerminalGrowth: 0.015},
		archetype.TierAsset:       {WACCLow: 0.08, WACCHigh: 0.11, TerminalGrowth: 0.015},
	}
}
