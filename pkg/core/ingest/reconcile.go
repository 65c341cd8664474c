package ingest

import (
	"math"
	"sort"

	"evalup/pkg/core/finance"
)

// CheckStatus classifies the gap between two sources.
type CheckStatus string

const (
	StatusMatch            CheckStatus = "MATCH"
	StatusImmaterial       CheckStatus = "IMMATERIAL"
	StatusMaterialMismatch CheckStatus = "MATERIAL_MISMATCH"
)

// DefaultTolerancePct is the relative gap, in percent, below which a
// difference is immaterial.
const DefaultTolerancePct = 5.0

// Checkpoint compares one line of one year across two sources.
type Checkpoint struct {
	Year      int         `json:"year"`
	Line      string      `json:"line"`
	Reference float64     `json:"reference"`
	Candidate float64     `json:"candidate"`
	Variance  float64     `json:"variance"`
	Status    CheckStatus `json:"status"`
}

var reconciledLines = []struct {
	name  string
	value func(finance.FinancialYear) float64
}{
	{"revenue", func(y finance.FinancialYear) float64 { return y.Revenue }},
	{"operating_result", func(y finance.FinancialYear) float64 { return y.OperatingResult }},
	{"net_result", func(y finance.FinancialYear) float64 { return y.NetResult }},
	{"equity", func(y finance.FinancialYear) float64 { return y.Equity }},
	{"financial_debt", func(y finance.FinancialYear) float64 { return y.FinancialDebt }},
	{"cash", func(y finance.FinancialYear) float64 { return y.Cash }},
}

// Reconcile compares the candidate (e.g. uploaded documents) against the
// reference (e.g. the public registry) for every year both contain.
func Reconcile(reference, candidate []finance.FinancialYear, tolerancePct float64) []Checkpoint {
	if tolerancePct <= 0 {
		tolerancePct = DefaultTolerancePct
	}
	byYear := make(map[int]finance.FinancialYear, len(candidate))
	for _, y := range candidate {
		byYear[y.Year] = y
	}

	checks := []Checkpoint{}
	for _, ref := range sortedYears(reference) {
		cand, ok := byYear[ref.Year]
		if !ok {
			continue
		}
		for _, line := range reconciledLines {
			r, c := line.value(ref), line.value(cand)
			diff := c - r
			status := StatusMatch
			if diff != 0 {
				pct := math.Inf(1)
				if r != 0 {
					pct = math.Abs(diff/r) * 100
				}
				status = StatusImmaterial
				if pct > tolerancePct {
					status = StatusMaterialMismatch
				}
			}
			checks = append(checks, Checkpoint{
				Year: ref.Year, Line: line.name,
				Reference: r, Candidate: c, Variance: diff, Status: status,
			})
		}
	}
	return checks
}

// Merge combines two sources year by year: years in primary are kept as is,
// years only in fallback are added. The result is sorted by year.
func Merge(primary, fallback []finance.FinancialYear) []finance.FinancialYear {
	seen := make(map[int]bool, len(primary))
	out := make([]finance.FinancialYear, 0, len(primary)+len(fallback))
	for _, y := range primary {
		seen[y.Year] = true
		out = append(out, y)
	}
	for _, y := range fallback {
		if !seen[y.Year] {
			out = append(out, y)
		}
	}
	return sortedYears(out)
}

func sortedYears(years []finance.FinancialYear) []finance.FinancialYear {
	out := make([]finance.FinancialYear, len(years))
	copy(out, years)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}
