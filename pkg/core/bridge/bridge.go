// Package bridge converts an enterprise-value range into a cession-price
// range: net debt first, then the recurring-revenue premium, then the
// decotes, each applied multiplicatively to both bounds.
package bridge

import (
	"math"

	"evalup/pkg/core/valuation"
)

// Bounds of each factor, as fractions.
const (
	MaxIlliquidity         = 0.25
	MaxKeyPerson           = 0.20
	MaxClientConcentration = 0.15
	MaxRecurringPremium    = 0.10
)

// Factors are the premium and decotes applied after net debt.
type Factors struct {
	Illiquidity         float64 `json:"illiquidity" yaml:"illiquidity"`
	KeyPerson           float64 `json:"key_person" yaml:"key_person"`
	ClientConcentration float64 `json:"client_concentration" yaml:"client_concentration"`
	RecurringPremium    float64 `json:"recurring_premium" yaml:"recurring_premium"`
}

// Clamped returns f with every factor inside its documented bounds.
func (f Factors) Clamped() Factors {
	return Factors{
		Illiquidity:         clamp(f.Illiquidity, 0, MaxIlliquidity),
		KeyPerson:           clamp(f.KeyPerson, 0, MaxKeyPerson),
		ClientConcentration: clamp(f.ClientConcentration, 0, MaxClientConcentration),
		RecurringPremium:    clamp(f.RecurringPremium, 0, MaxRecurringPremium),
	}
}

// Step is the state of both bounds after one bridge operation.
type Step struct {
	Label string  `json:"label"`
	Rate  float64 `json:"rate,omitempty"`
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
}

// Result is the full bridge from enterprise value to cession price.
type Result struct {
	EnterpriseValue valuation.Band `json:"enterprise_value"`
	NetDebt         float64        `json:"net_debt"`
	Factors         Factors        `json:"factors"`
	Steps           []Step         `json:"steps"`
	CessionPrice    valuation.Band `json:"cession_price"`
}

// BridgeToEquity subtracts netDebt from both bounds (a negative net debt adds
// cash), then applies the premium and the decotes in sequence. A bound that
// is not positive after the debt step is carried unchanged: percentages are
// not applied to a negative equity value.
func BridgeToEquity(ev valuation.Band, netDebt float64, f Factors) Result {
	f = f.Clamped()
	low := ev.Low - netDebt
	high := ev.High - netDebt

	res := Result{EnterpriseValue: ev, NetDebt: netDebt, Factors: f}
	res.Steps = append(res.Steps, Step{Label: "Valeur d'entreprise", Low: ev.Low, High: ev.High})
	res.Steps = append(res.Steps, Step{Label: "Dette financière nette", Low: low, High: high})

	apply := func(label string, rate float64) {
		if rate == 0 {
			return
		}
		low = scale(low, rate)
		high = scale(high, rate)
		res.Steps = append(res.Steps, Step{Label: label, Rate: rate, Low: low, High: high})
	}
	apply("Prime de récurrence", f.RecurringPremium)
	apply("Décote d'illiquidité", -f.Illiquidity)
	apply("Décote homme clé", -f.KeyPerson)
	apply("Décote de concentration clients", -f.ClientConcentration)

	res.CessionPrice = valuation.NewBand(low, high)
	return res
}

// scale multiplies a positive value by (1 + rate).
func scale(v, rate float64) float64 {
	if v <= 0 {
		return v
	}
	return v * (1 + rate)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Min(math.Max(v, lo), hi)
}
