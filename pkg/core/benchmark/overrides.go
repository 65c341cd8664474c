package benchmark

import (
	"os"
	"path/filepath"
	"strings"

	hjson "github.com/hjson/hjson-go/v4"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v2"

	"evalup/pkg/core/archetype"
)

// Overrides is the on-disk shape of a reference data update. Every field is
// optional; present entries replace the matching built-in values.
type Overrides struct {
	AsOf          int                             `json:"as_of,omitempty" yaml:"as_of,omitempty"`
	Version       string                          `json:"version,omitempty" yaml:"version,omitempty"`
	Multiples     map[string]Multiples            `json:"multiples,omitempty" yaml:"multiples,omitempty"`
	Benchmarks    map[string]BenchmarkOverride    `json:"benchmarks,omitempty" yaml:"benchmarks,omitempty"`
	DiscountRates map[string]DiscountRateOverride `json:"discount_rates,omitempty" yaml:"discount_rates,omitempty"`
}

// BenchmarkOverride replaces individual triples of a sector benchmark.
type BenchmarkOverride struct {
	NetMargin      *Triple `json:"net_margin,omitempty" yaml:"net_margin,omitempty"`
	EbitdaMargin   *Triple `json:"ebitda_margin,omitempty" yaml:"ebitda_margin,omitempty"`
	Growth         *Triple `json:"growth,omitempty" yaml:"growth,omitempty"`
	DSO            *Triple `json:"dso,omitempty" yaml:"dso,omitempty"`
	Leverage       *Triple `json:"leverage,omitempty" yaml:"leverage,omitempty"`
	MultipleCA     *Triple `json:"multiple_ca,omitempty" yaml:"multiple_ca,omitempty"`
	MultipleEbitda *Triple `json:"multiple_ebitda,omitempty" yaml:"multiple_ebitda,omitempty"`
}

// DiscountRateOverride replaces individual fields of a discount band.
type DiscountRateOverride struct {
	WACCLow        *float64 `json:"wacc_low,omitempty" yaml:"wacc_low,omitempty"`
	WACCHigh       *float64 `json:"wacc_high,omitempty" yaml:"wacc_high,omitempty"`
	TerminalGrowth *float64 `json:"terminal_growth,omitempty" yaml:"terminal_growth,omitempty"`
}

// LoadOverrides reads path and merges it over base. The format follows the
// extension: .yaml/.yml via YAML, .hjson/.json via Hjson. base is not
// modified.
func LoadOverrides(base *Tables, path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "benchmark: read overrides %s", path)
	}
	ov, err := ParseOverrides(data, filepath.Ext(path))
	if err != nil {
		return nil, eris.Wrapf(err, "benchmark: parse overrides %s", path)
	}
	return Apply(base, ov)
}

// ParseOverrides decodes data according to the file extension ext.
func ParseOverrides(data []byte, ext string) (*Overrides, error) {
	var ov Overrides
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.UnmarshalStrict(data, &ov); err != nil {
			return nil, eris.Wrap(err, "benchmark: decode yaml")
		}
	case ".hjson", ".json":
		if err := hjson.Unmarshal(data, &ov); err != nil {
			return nil, eris.Wrap(err, "benchmark: decode hjson")
		}
	default:
		return nil, eris.Errorf("benchmark: unsupported overrides format %q", ext)
	}
	return &ov, nil
}

// Apply returns a copy of base with ov merged in. The result is validated.
func Apply(base *Tables, ov *Overrides) (*Tables, error) {
	t := base.clone()
	if ov == nil {
		return t, nil
	}
	if ov.AsOf != 0 {
		t.asOf = ov.AsOf
	}
	if ov.Version != "" {
		t.version = ov.Version
	}

	for key, m := range ov.Multiples {
		id := archetype.ID(key)
		cur := t.multiples[id]
		if m.EBITDA != nil {
			r := *m.EBITDA
			cur.EBITDA = &r
		}
		if m.Revenue != nil {
			r := *m.Revenue
			cur.Revenue = &r
		}
		t.multiples[id] = cur
	}

	for key, b := range ov.Benchmarks {
		s := archetype.Sector(key)
		cur, ok := t.benchmarks[s]
		if !ok {
			cur = t.benchmarks[fallbackSector]
		}
		mergeTriple(&cur.NetMargin, b.NetMargin)
		mergeTriple(&cur.EbitdaMargin, b.EbitdaMargin)
		mergeTriple(&cur.Growth, b.Growth)
		mergeTriple(&cur.DSO, b.DSO)
		mergeTriple(&cur.Leverage, b.Leverage)
		mergeTriple(&cur.MultipleCA, b.MultipleCA)
		mergeTriple(&cur.MultipleEbitda, b.MultipleEbitda)
		t.benchmarks[s] = cur
	}

	for key, d := range ov.DiscountRates {
		tier := archetype.RiskTier(key)
		cur, ok := t.rates[tier]
		if !ok {
			cur = t.rates[fallbackTier]
		}
		if d.WACCLow != nil {
			cur.WACCLow = *d.WACCLow
		}
		if d.WACCHigh != nil {
			cur.WACCHigh = *d.WACCHigh
		}
		if d.TerminalGrowth != nil {
			cur.TerminalGrowth = *d.TerminalGrowth
		}
		t.rates[tier] = cur
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func mergeTriple(dst *Triple, src *Triple) {
	if src != nil {
		*dst = *src
	}
}
