package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalup/pkg/core/finance"
)

func TestReconcile(t *testing.T) {
	reference := []finance.FinancialYear{{
		Year: 2023, Revenue: 1000000, OperatingResult: 100000, NetResult: 50000,
		Equity: 400000, FinancialDebt: 0, Cash: 100000,
	}}
	candidate := []finance.FinancialYear{
		{Year: 2021, Revenue: 1},
		{
			Year: 2023, Revenue: 1030000, OperatingResult: 100000, NetResult: 60000,
			Equity: 400000, FinancialDebt: 10000, Cash: 100000,
		},
	}

	checks := Reconcile(reference, candidate, 0)
	require.Len(t, checks, 6)

	byLine := map[string]Checkpoint{}
	for _, c := range checks {
		assert.Equal(t, 2023, c.Year)
		byLine[c.Line] = c
	}
	assert.Equal(t, StatusImmaterial, byLine["revenue"].Status)
	assert.Equal(t, 30000.0, byLine["revenue"].Variance)
	assert.Equal(t, StatusMatch, byLine["operating_result"].Status)
	assert.Equal(t, StatusMaterialMismatch, byLine["net_result"].Status)
	assert.Equal(t, StatusMaterialMismatch, byLine["financial_debt"].Status)
	assert.Equal(t, StatusMatch, byLine["cash"].Status)
}

func TestReconcile_Tolerance(t *testing.T) {
	reference := []finance.FinancialYear{{Year: 2023, Revenue: 100}}
	candidate := []finance.FinancialYear{{Year: 2023, Revenue: 104}}

	checks := Reconcile(reference, candidate, 2)
	require.NotEmpty(t, checks)
	assert.Equal(t, StatusMaterialMismatch, checks[0].Status)

	checks = Reconcile(reference, candidate, 5)
	assert.Equal(t, StatusImmaterial, checks[0].Status)
}

func TestReconcile_NoOverlap(t *testing.T) {
	checks := Reconcile(
		[]finance.FinancialYear{{Year: 2022}},
		[]finance.FinancialYear{{Year: 2023}}, 5)
	assert.NotNil(t, checks)
	assert.Empty(t, checks)
}

func TestMerge(t *testing.T) {
	primary := []finance.FinancialYear{{Year: 2023, Revenue: 1}, {Year: 2021, Revenue: 1}}
	fallback := []finance.FinancialYear{{Year: 2022, Revenue: 2}, {Year: 2023, Revenue: 2}}

	merged := Merge(primary, fallback)
	require.Len(t, merged, 3)
	assert.Equal(t, []int{2021, 2022, 2023}, []int{merged[0].Year, merged[1].Year, merged[2].Year})
	assert.Equal(t, 1.0, merged[2].Revenue)
	assert.Equal(t, 2.0, merged[1].Revenue)
}
