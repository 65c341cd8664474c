// Package diagnostic grades a company's financial health against its sector
// benchmarks. The result is a pure function of the normalized financials and
// the benchmark triples.
package diagnostic

import (
	"math"
	"sort"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"evalup/pkg/core/benchmark"
	"evalup/pkg/core/finance"
)

// DefaultMaxHighlights caps the strengths and concerns lists.
const DefaultMaxHighlights = 3

// InsufficientData is the only concern reported when no ratio can be scored.
const InsufficientData = "données insuffisantes"

// Highlight thresholds on a 0-100 dimension score.
const (
	strengthThreshold = 60.0
	concernThreshold  = 40.0
)

// Grade is the letter grade A to E.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeE Grade = "E"
)

// GradeFor maps a 0-100 score to its grade band. The same banding is used
// wherever the product grades a profile.
func GradeFor(score int) Grade {
	switch {
	case score >= 90:
		return GradeA
	case score >= 75:
		return GradeB
	case score >= 60:
		return GradeC
	case score >= 40:
		return GradeD
	default:
		return GradeE
	}
}

// Dimension names a scored ratio.
type Dimension string

const (
	DimEbitdaMargin Dimension = "ebitda_margin"
	DimNetMargin    Dimension = "net_margin"
	DimGrowth       Dimension = "growth"
	DimDSO          Dimension = "dso"
	DimLeverage     Dimension = "leverage"
)

// DimensionScore is the contribution of one ratio.
type DimensionScore struct {
	Dimension Dimension        `json:"dimension"`
	Value     float64          `json:"value"`
	Weight    float64          `json:"weight"`
	Score     float64          `json:"score"`
	Benchmark benchmark.Triple `json:"benchmark"`
}

// Result is the diagnostic of one company.
type Result struct {
	Grade      Grade            `json:"grade"`
	Score      int              `json:"score"`
	Strengths  []string         `json:"strengths"`
	Concerns   []string         `json:"concerns"`
	Dimensions []DimensionScore `json:"dimensions"`
}

// Options tune the diagnostic output.
type Options struct {
	MaxHighlights int
}

type dimension struct {
	id            Dimension
	weight        float64
	lowerIsBetter bool
	value         func(n *finance.NormalizedFinancials) (float64, bool)
	triple        func(b benchmark.SectorBenchmark) benchmark.Triple
}

// dimensions are listed in tie-break order.
var dimensions = []dimension{
	{
		id: DimEbitdaMargin, weight: 30,
		value:  func(n *finance.NormalizedFinancials) (float64, bool) { return deref(n.EbitdaMargin) },
		triple: func(b benchmark.SectorBenchmark) benchmark.Triple { return b.EbitdaMargin },
	},
	{
		id: DimNetMargin, weight: 20,
		value:  func(n *finance.NormalizedFinancials) (float64, bool) { return deref(n.NetMargin) },
		triple: func(b benchmark.SectorBenchmark) benchmark.Triple { return b.NetMargin },
	},
	{
		id: DimGrowth, weight: 20,
		value:  func(n *finance.NormalizedFinancials) (float64, bool) { return deref(n.Growth) },
		triple: func(b benchmark.SectorBenchmark) benchmark.Triple { return b.Growth },
	},
	{
		id: DimDSO, weight: 15, lowerIsBetter: true,
		value:  func(n *finance.NormalizedFinancials) (float64, bool) { return deref(n.DSO) },
		triple: func(b benchmark.SectorBenchmark) benchmark.Triple { return b.DSO },
	},
	{
		id: DimLeverage, weight: 15, lowerIsBetter: true,
		// leverage is 0 by convention when equity <= 0, which is not a score
		value: func(n *finance.NormalizedFinancials) (float64, bool) {
			latest, ok := n.Latest()
			if !ok || latest.Equity <= 0 {
				return 0, false
			}
			return n.LeverageRatio, true
		},
		triple: func(b benchmark.SectorBenchmark) benchmark.Triple { return b.Leverage },
	},
}

// Diagnose scores every available ratio against the sector triple and
// combines them into a weighted 0-100 score. Missing ratios are skipped and
// the remaining weights renormalized.
func Diagnose(n *finance.NormalizedFinancials, b benchmark.SectorBenchmark, opts Options) Result {
	if opts.MaxHighlights <= 0 {
		opts.MaxHighlights = DefaultMaxHighlights
	}

	res := Result{Strengths: []string{}, Concerns: []string{}, Dimensions: []DimensionScore{}}
	if n == nil || !n.HasUsableData() {
		res.Grade = GradeE
		res.Concerns = []string{InsufficientData}
		return res
	}

	var total, weights float64
	for _, d := range dimensions {
		v, ok := d.value(n)
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		t := d.triple(b)
		s := DimensionScoreOf(v, t, d.lowerIsBetter)
		res.Dimensions = append(res.Dimensions, DimensionScore{
			Dimension: d.id, Value: v, Weight: d.weight, Score: s, Benchmark: t,
		})
		total += s * d.weight
		weights += d.weight
	}

	if weights == 0 {
		res.Grade = GradeE
		res.Concerns = []string{InsufficientData}
		return res
	}

	res.Score = int(math.Round(total / weights))
	res.Grade = GradeFor(res.Score)
	res.Strengths, res.Concerns = highlights(res.Dimensions, opts.MaxHighlights)
	return res
}

// DimensionScoreOf places v on a 0-100 scale: 0 at or below the sector
// minimum, 50 at the median, 100 at or above the maximum, linear in between.
// When lower is better the scale is mirrored.
func DimensionScoreOf(v float64, t benchmark.Triple, lowerIsBetter bool) float64 {
	if lowerIsBetter {
		v = -v
		t = benchmark.Triple{Min: -t.Max, Median: -t.Median, Max: -t.Min}
	}
	switch {
	case v <= t.Min:
		return 0
	case v >= t.Max:
		return 100
	case v < t.Median:
		return 50 * (v - t.Min) / (t.Median - t.Min)
	default:
		return 50 + 50*(v-t.Median)/(t.Max-t.Median)
	}
}

func highlights(scores []DimensionScore, limit int) (strengths, concerns []string) {
	p := message.NewPrinter(language.French)

	var good, bad []DimensionScore
	for _, s := range scores {
		switch {
		case s.Score >= strengthThreshold:
			good = append(good, s)
		case s.Score < concernThreshold:
			bad = append(bad, s)
		}
	}
	sort.SliceStable(good, func(i, j int) bool { return good[i].Score > good[j].Score })
	sort.SliceStable(bad, func(i, j int) bool { return bad[i].Score < bad[j].Score })

	strengths, concerns = []string{}, []string{}
	for i := 0; i < len(good) && i < limit; i++ {
		strengths = append(strengths, describe(p, good[i]))
	}
	for i := 0; i < len(bad) && i < limit; i++ {
		concerns = append(concerns, describe(p, bad[i]))
	}
	return strengths, concerns
}

func describe(p *message.Printer, s DimensionScore) string {
	t := s.Benchmark
	switch s.Dimension {
	case DimEbitdaMargin:
		return p.Sprintf("Marge d'EBITDA de %.1f %% (médiane du secteur %.1f %%)", s.Value*100, t.Median*100)
	case DimNetMargin:
		return p.Sprintf("Marge nette de %.1f %% (médiane du secteur %.1f %%)", s.Value*100, t.Median*100)
	case DimGrowth:
		return p.Sprintf("Croissance du chiffre d'affaires de %.1f %% (médiane du secteur %.1f %%)", s.Value*100, t.Median*100)
	case DimDSO:
		return p.Sprintf("Délai de paiement clients de %.0f jours (médiane du secteur %.0f jours)", s.Value, t.Median)
	case DimLeverage:
		return p.Sprintf("Endettement de %.2fx les capitaux propres (médiane du secteur %.2fx)", s.Value, t.Median)
	}
	return string(s.Dimension)
}

func deref(v *float64) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return *v, true
}
