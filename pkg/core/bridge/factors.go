package bridge

import "evalup/pkg/core/archetype"

// Qualitative holds the answers that drive the decotes.
type Qualitative struct {
	// FounderDependence rates reliance on the owner: 0 none, 3 critical.
	FounderDependence int `json:"founder_dependence" yaml:"founder_dependence"`
	// TopClientSharePct is the revenue share of the largest client, in percent.
	TopClientSharePct float64 `json:"top_client_share_pct" yaml:"top_client_share_pct"`
	// RecurringPct is the share of recurring revenue, in percent.
	RecurringPct float64 `json:"recurring_pct" yaml:"recurring_pct"`
	HistoryYears int     `json:"history_years,omitempty" yaml:"history_years,omitempty"`
}

// Illiquidity levels.
const (
	baseIlliquidity      = 0.15
	smallIlliquidity     = 0.20
	noHistoryIlliquidity = 0.25
)

var keyPersonByLevel = [...]float64{0, 0.05, 0.10, 0.20}

// DeriveFactors maps qualitative answers to factors within their bounds.
func DeriveFactors(a archetype.Archetype, q Qualitative) Factors {
	var f Factors

	switch {
	case a.ID == archetype.PreRevenue && q.HistoryYears <= 1:
		f.Illiquidity = noHistoryIlliquidity
	case a.ID == archetype.PreRevenue || a.ID == archetype.MicroSolo:
		f.Illiquidity = smallIlliquidity
	default:
		f.Illiquidity = baseIlliquidity
	}

	level := q.FounderDependence
	if level < 0 {
		level = 0
	}
	if level >= len(keyPersonByLevel) {
		level = len(keyPersonByLevel) - 1
	}
	f.KeyPerson = keyPersonByLevel[level]

	switch share := q.TopClientSharePct; {
	case share >= 50:
		f.ClientConcentration = 0.15
	case share >= 35:
		f.ClientConcentration = 0.10
	case share >= 20:
		f.ClientConcentration = 0.05
	}

	switch r := q.RecurringPct; {
	case r >= 80:
		f.RecurringPremium = 0.10
	case r >= 65:
		f.RecurringPremium = 0.075
	case r >= 50:
		f.RecurringPremium = 0.05
	}

	return f.Clamped()
}
