package valuation

import (
	"math"
	"testing"
)

func TestTerminalValue(t *testing.T) {
	// TV = 235,000 * 1.02 / (0.12 - 0.02) = 2,397,000
	tv, ok := TerminalValue(235_000, 0.12, 0.02)
	if !ok {
		t.Fatalf("Expected terminal value to be defined")
	}
	if math.Abs(tv-2_397_000) > 1e-6 {
		t.Errorf("Expected TV 2,397,000, got %f", tv)
	}

	if _, ok := TerminalValue(235_000, 0.02, 0.02); ok {
		t.Errorf("Expected no terminal value when WACC == g")
	}
	if _, ok := TerminalValue(235_000, 0.01, 0.02); ok {
		t.Errorf("Expected no terminal value when WACC < g")
	}
}

func TestGrowthPath(t *testing.T) {
	path := GrowthPath(0.60, 0.02, 5)
	if len(path) != 5 {
		t.Fatalf("Expected 5 years, got %d", len(path))
	}
	if path[0] != 0.60 {
		t.Errorf("Expected year-1 growth 0.60, got %f", path[0])
	}
	if math.Abs(path[4]-0.02) > 1e-12 {
		t.Errorf("Expected final growth 0.02, got %f", path[4])
	}
	for i := 1; i < len(path); i++ {
		if path[i] > path[i-1] {
			t.Errorf("Expected decaying growth, year %d: %f > %f", i+1, path[i], path[i-1])
		}
	}

	single := GrowthPath(0.30, 0.02, 1)
	if len(single) != 1 || single[0] != 0.02 {
		t.Errorf("Expected single year at terminal growth, got %v", single)
	}
}

func TestCalculateDCF_ConstantGrowth(t *testing.T) {
	in := DCFInput{
		Revenue:        1_000_000,
		EbitdaMargin:   0.20,
		InitialGrowth:  0.02,
		TerminalGrowth: 0.02,
		WACC:           0.12,
		Years:          5,
		CashConversion: 0.5,
	}
	res, ok := CalculateDCF(in)
	if !ok {
		t.Fatalf("Expected DCF to run")
	}

	// FCF_t = 1,000,000 * 1.02^t * 0.20 * 0.5
	expectedPV := 0.0
	for y := 1; y <= 5; y++ {
		fcf := 100_000 * math.Pow(1.02, float64(y))
		expectedPV += fcf / math.Pow(1.12, float64(y))
	}
	fcf5 := 100_000 * math.Pow(1.02, 5)
	expectedTV := fcf5 * 1.02 / 0.10
	expectedEV := expectedPV + expectedTV/math.Pow(1.12, 5)

	if math.Abs(res.PVFCF-expectedPV) > 0.01 {
		t.Errorf("Expected PV(FCF) %f, got %f", expectedPV, res.PVFCF)
	}
	if math.Abs(res.TerminalValue-expectedTV) > 0.01 {
		t.Errorf("Expected TV %f, got %f", expectedTV, res.TerminalValue)
	}
	if math.Abs(res.EnterpriseValue-expectedEV) > 0.01 {
		t.Errorf("Expected EV %f, got %f", expectedEV, res.EnterpriseValue)
	}
	// TV / terminal EBITDA = 0.5 * 1.02 / 0.10
	if math.Abs(res.ImpliedMultiple-5.1) > 0.0001 {
		t.Errorf("Expected implied multiple 5.1, got %f", res.ImpliedMultiple)
	}
}

func TestCalculateDCF_GuardsDiscountRate(t *testing.T) {
	in := DCFInput{Revenue: 1_000_000, EbitdaMargin: 0.2, TerminalGrowth: 0.03, WACC: 0.03, Years: 5, CashConversion: 0.55}
	if _, ok := CalculateDCF(in); ok {
		t.Errorf("Expected DCF to be skipped when WACC <= g")
	}

	in.WACC = 0.12
	in.Years = 0
	if _, ok := CalculateDCF(in); ok {
		t.Errorf("Expected DCF to be skipped without projection years")
	}
}

func TestCalculateDCF_LowerRateGivesHigherValue(t *testing.T) {
	in := DCFInput{Revenue: 2_000_000, EbitdaMargin: 0.13, InitialGrowth: 0.10, TerminalGrowth: 0.02, Years: 5, CashConversion: 0.55}

	in.WACC = 0.16
	high, _ := CalculateDCF(in)
	in.WACC = 0.12
	low, _ := CalculateDCF(in)

	if !(low.EnterpriseValue > high.EnterpriseValue) {
		t.Errorf("Expected EV at 12%% (%f) above EV at 16%% (%f)", low.EnterpriseValue, high.EnterpriseValue)
	}
}
