package valuation

import (
	"math"

	"evalup/pkg/core/archetype"
)

// Blend weights before renormalization.
const (
	primaryWeight   = 50.0
	secondaryWeight = 30.0
	othersWeight    = 20.0 // shared equally by every other applicable method
)

// ComputeMethods returns the weighted result of every applicable method, in a
// fixed order. Without usable financial data the list is empty.
func ComputeMethods(in Input) []MethodResult {
	out := []MethodResult{}
	if in.Financials == nil || !in.Financials.HasUsableData() {
		return out
	}
	latest, _ := in.Financials.Latest()
	revenue := latest.Revenue
	ebitda := in.EbitdaNormalized

	add := func(r MethodResult, ok bool) {
		if ok {
			out = append(out, r)
		}
	}
	add(ebitdaMultipleMethod(ebitda, in.Multiples.EBITDA))
	add(revenueMultipleMethod(in.Archetype, ebitda, revenue, in.Multiples.Revenue))
	add(dcfMethod(in, revenue))
	add(netAssetsMethod(in.Archetype, in.NetAssets, latest))
	add(comparablesMethod(in.Comparables, ebitda, revenue))

	return AssignWeights(out, in.Archetype)
}

// AssignWeights sets the blend weight of each result: the archetype's primary
// method 50, secondary 30, the others sharing 20, renormalized so the weights
// sum to 100. The last weight absorbs rounding. A single method gets 100.
func AssignWeights(results []MethodResult, a archetype.Archetype) []MethodResult {
	out := make([]MethodResult, len(results))
	copy(out, results)
	switch len(out) {
	case 0:
		return out
	case 1:
		out[0].Weight = 100
		return out
	}

	others := 0
	for _, r := range out {
		if r.Name != a.PrimaryMethod && r.Name != a.SecondaryMethod {
			others++
		}
	}

	raw := make([]float64, len(out))
	sum := 0.0
	for i, r := range out {
		switch r.Name {
		case a.PrimaryMethod:
			raw[i] = primaryWeight
		case a.SecondaryMethod:
			raw[i] = secondaryWeight
		default:
			raw[i] = othersWeight / float64(others)
		}
		sum += raw[i]
	}

	// Work in hundredths of a percent so the total is exact.
	var assigned int64
	for i := range out {
		var bp int64
		if i == len(out)-1 {
			bp = 10_000 - assigned
		} else {
			bp = int64(math.Round(raw[i] / sum * 10_000))
			assigned += bp
		}
		out[i].Weight = float64(bp) / 100
	}
	return out
}

// Blend combines weighted method ranges into one enterprise-value band. For
// asset-heavy archetypes the net asset value floors the low bound, never
// above the high bound.
func Blend(results []MethodResult, a archetype.Archetype) Estimate {
	est := Estimate{Methods: results, Confidence: ConfidenceLow}
	if len(results) == 0 {
		est.Methods = []MethodResult{}
		return est
	}

	var low, high float64
	for _, r := range results {
		low += r.ValueLow * r.Weight / 100
		high += r.ValueHigh * r.Weight / 100
	}
	if low > high {
		low, high = high, low
	}

	if a.AssetHeavy || a.PrimaryMethod == archetype.MethodNetAssets {
		for _, r := range results {
			if r.Name != archetype.MethodNetAssets {
				continue
			}
			floored := math.Min(math.Max(low, r.ValueLow), high)
			if floored != low {
				low = floored
				est.NAVFloorApplied = true
			}
		}
	}

	est.HasValuation = true
	est.EnterpriseValue = NewBand(low, high)
	return est
}

// ValueCompany runs every applicable method, blends them and rates the result.
func ValueCompany(in Input) Estimate {
	est := Blend(ComputeMethods(in), in.Archetype)
	years := 0
	if in.Financials != nil {
		years = len(in.Financials.Years)
	}
	est.Confidence = RateConfidence(est, years)
	return est
}

// RateConfidence scores method count, years of history and the relative
// spread of the blended range.
func RateConfidence(est Estimate, years int) Confidence {
	if !est.HasValuation {
		return ConfidenceLow
	}

	score := 0
	switch n := len(est.Methods); {
	case n >= 3:
		score += 2
	case n == 2:
		score++
	}
	switch {
	case years >= 3:
		score += 2
	case years == 2:
		score++
	}
	if ev := est.EnterpriseValue; ev.Mid > 0 {
		spread := (ev.High - ev.Low) / ev.Mid
		switch {
		case spread <= 0.35:
			score += 2
		case spread <= 0.70:
			score++
		}
	}

	switch {
	case score >= 5:
		return ConfidenceHigh
	case score >= 3:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
