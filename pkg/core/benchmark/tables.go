// Package benchmark holds the reference tables used by the valuation engine:
// EV multiples per archetype, ratio benchmarks per sector and discount rates
// per risk tier. Tables are immutable once built; lookups return copies and
// fall back to a default entry.
package benchmark

import (
	"github.com/rotisserie/eris"

	"evalup/pkg/core/archetype"
)

// ErrInvalidTable is returned when reference data violates an ordering rule.
var ErrInvalidTable = eris.New("benchmark: invalid reference data")

// Range is a {min, max} interval, typically an EV multiple.
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Mid returns the midpoint of the range.
func (r Range) Mid() float64 { return (r.Min + r.Max) / 2 }

func (r Range) validate(what string) error {
	if r.Min > r.Max {
		return eris.Wrapf(ErrInvalidTable, "%s: min %.4g > max %.4g", what, r.Min, r.Max)
	}
	return nil
}

// Triple is a {min, median, max} benchmark.
type Triple struct {
	Min    float64 `json:"min" yaml:"min"`
	Median float64 `json:"median" yaml:"median"`
	Max    float64 `json:"max" yaml:"max"`
}

func (t Triple) validate(what string) error {
	if t.Min > t.Median || t.Median > t.Max {
		return eris.Wrapf(ErrInvalidTable, "%s: expected min <= median <= max, got %.4g/%.4g/%.4g",
			what, t.Min, t.Median, t.Max)
	}
	return nil
}

// Multiples are the EV multiples available for an archetype. A nil range means
// the metric is not used to price that archetype.
type Multiples struct {
	EBITDA  *Range `json:"ebitda,omitempty" yaml:"ebitda,omitempty"`
	Revenue *Range `json:"revenue,omitempty" yaml:"revenue,omitempty"`
}

func (m Multiples) clone() Multiples {
	out := Multiples{}
	if m.EBITDA != nil {
		r := *m.EBITDA
		out.EBITDA = &r
	}
	if m.Revenue != nil {
		r := *m.Revenue
		out.Revenue = &r
	}
	return out
}

// SectorBenchmark gives the distribution of key ratios within a sector.
// Margins and growth are fractions, DSO is in days, leverage is debt/equity.
type SectorBenchmark struct {
	NetMargin      Triple `json:"net_margin" yaml:"net_margin"`
	EbitdaMargin   Triple `json:"ebitda_margin" yaml:"ebitda_margin"`
	Growth         Triple `json:"growth" yaml:"growth"`
	DSO            Triple `json:"dso" yaml:"dso"`
	Leverage       Triple `json:"leverage" yaml:"leverage"`
	MultipleCA     Triple `json:"multiple_ca" yaml:"multiple_ca"`
	MultipleEbitda Triple `json:"multiple_ebitda" yaml:"multiple_ebitda"`
}

func (b SectorBenchmark) validate(sector string) error {
	checks := []struct {
		name string
		t    Triple
	}{
		{"net_margin", b.NetMargin},
		{"ebitda_margin", b.EbitdaMargin},
		{"growth", b.Growth},
		{"dso", b.DSO},
		{"leverage", b.Leverage},
		{"multiple_ca", b.MultipleCA},
		{"multiple_ebitda", b.MultipleEbitda},
	}
	for _, c := range checks {
		if err := c.t.validate(sector + "." + c.name); err != nil {
			return err
		}
	}
	return nil
}

// DiscountRate is the DCF discount band of a risk tier. The low WACC yields
// the high valuation and vice versa.
type DiscountRate struct {
	WACCLow        float64 `json:"wacc_low" yaml:"wacc_low"`
	WACCHigh       float64 `json:"wacc_high" yaml:"wacc_high"`
	TerminalGrowth float64 `json:"terminal_growth" yaml:"terminal_growth"`
}

// Valid reports whether both WACC bounds exceed terminal growth, the
// condition for a finite terminal value.
func (d DiscountRate) Valid() bool {
	return d.WACCLow > d.TerminalGrowth && d.WACCHigh > d.TerminalGrowth
}

func (d DiscountRate) validate(tier string) error {
	if d.WACCLow > d.WACCHigh {
		return eris.Wrapf(ErrInvalidTable, "%s: wacc_low %.4g > wacc_high %.4g", tier, d.WACCLow, d.WACCHigh)
	}
	return nil
}

// Tables bundles all reference data with the year it reflects.
type Tables struct {
	asOf       int
	version    string
	multiples  map[archetype.ID]Multiples
	benchmarks map[archetype.Sector]SectorBenchmark
	rates      map[archetype.RiskTier]DiscountRate
}

// Fallback keys used when a lookup misses.
const (
	fallbackArchetype = archetype.DefaultID
	fallbackSector    = archetype.SectorAutre
	fallbackTier      = archetype.TierEstablished
)

// AsOf returns the year the multiples reflect.
func (t *Tables) AsOf() int { return t.asOf }

// Version returns the reference data version.
func (t *Tables) Version() string { return t.version }

// Multiples returns the multiples of an archetype, or the default entry.
func (t *Tables) Multiples(id archetype.ID) Multiples {
	if m, ok := t.multiples[id]; ok {
		return m.clone()
	}
	return t.multiples[fallbackArchetype].clone()
}

// Benchmark returns the benchmarks of a sector, or the default entry.
func (t *Tables) Benchmark(s archetype.Sector) SectorBenchmark {
	if b, ok := t.benchmarks[s]; ok {
		return b
	}
	return t.benchmarks[fallbackSector]
}

// DiscountRate returns the discount band of a risk tier, or the default entry.
func (t *Tables) DiscountRate(tier archetype.RiskTier) DiscountRate {
	if d, ok := t.rates[tier]; ok {
		return d
	}
	return t.rates[fallbackTier]
}

// Validate checks every entry and the presence of the fallback entries.
func (t *Tables) Validate() error {
	if _, ok := t.multiples[fallbackArchetype]; !ok {
		return eris.Wrapf(ErrInvalidTable, "missing multiples for %s", fallbackArchetype)
	}
	if _, ok := t.benchmarks[fallbackSector]; !ok {
		return eris.Wrapf(ErrInvalidTable, "missing benchmark for %s", fallbackSector)
	}
	if _, ok := t.rates[fallbackTier]; !ok {
		return eris.Wrapf(ErrInvalidTable, "missing discount rate for %s", fallbackTier)
	}
	for id, m := range t.multiples {
		if m.EBITDA != nil {
			if err := m.EBITDA.validate(string(id) + ".ebitda"); err != nil {
				return err
			}
		}
		if m.Revenue != nil {
			if err := m.Revenue.validate(string(id) + ".revenue"); err != nil {
				return err
			}
		}
	}
	for s, b := range t.benchmarks {
		if err := b.validate(string(s)); err != nil {
			return err
		}
	}
	for tier, d := range t.rates {
		if err := d.validate(string(tier)); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tables) clone() *Tables {
	out := &Tables{
		asOf:       t.asOf,
		version:    t.version,
		multiples:  make(map[archetype.ID]Multiples, len(t.multiples)),
		benchmarks: make(map[archetype.Sector]SectorBenchmark, len(t.benchmarks)),
		rates:      make(map[archetype.RiskTier]DiscountRate, len(t.rates)),
	}
	for k, v := range t.multiples {
		out.multiples[k] = v.clone()
	}
	for k, v := range t.benchmarks {
		out.benchmarks[k] = v
	}
	for k, v := range t.rates {
		out.rates[k] = v
	}
	return out
}
