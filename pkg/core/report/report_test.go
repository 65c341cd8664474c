package report

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalup/pkg/core/archetype"
	"evalup/pkg/core/bridge"
	"evalup/pkg/core/diagnostic"
	"evalup/pkg/core/evaluation"
	"evalup/pkg/core/finance"
	"evalup/pkg/core/retraitement"
	"evalup/pkg/core/valuation"
)

func sampleResult() *evaluation.Result {
	return &evaluation.Result{
		HasValuation:    true,
		EnterpriseValue: valuation.NewBand(1000000, 1400000),
		CessionPrice:    valuation.NewBand(800000, 1200000),
		Methods: []valuation.MethodResult{
			{Name: archetype.MethodEBITDAMultiple, Weight: 100, ValueLow: 1000000, ValueHigh: 1400000},
		},
		Bridge: []bridge.Step{
			{Label: "Valeur d'entreprise", Low: 1000000, High: 1400000},
			{Label: "Décote d'illiquidité", Rate: -0.15, Low: 850000, High: 1190000},
		},
		Adjustments: []retraitement.Adjustment{
			{Kind: retraitement.KindOwnerSalary, Label: "Rémunération | dirigeant", Impact: 40000, Rationale: "Salaire ramené au marché"},
		},
		Sector: evaluation.SectorInfo{
			Sector:         archetype.Sector("services"),
			ArchetypeName:  "PME générique",
			CommonMistakes: []string{"Oublier de retraiter la rémunération du dirigeant"},
		},
		EbitdaReported:   260000,
		EbitdaNormalized: 300000,
		Confidence:       valuation.ConfidenceMedium,
		Diagnostic: diagnostic.Result{
			Grade:     diagnostic.GradeB,
			Score:     78,
			Strengths: []string{"Marge d'EBITDA élevée"},
			Concerns:  []string{},
		},
		ReferenceVersion: "2025.1/2025",
		ReferenceAsOf:    2025,
	}
}

func TestSummary(t *testing.T) {
	md := Summary(sampleResult(), Company{Name: "ACME", SIREN: "443061841", NAFCode: "62.01Z"})

	assert.True(t, strings.HasPrefix(md, "# Évaluation de ACME\n"))
	assert.Contains(t, md, "SIREN : 443061841 · NAF : 62.01Z")
	assert.Contains(t, md, "Profil retenu : **PME générique** (secteur services).")
	assert.Contains(t, md, Euros(1000000))
	assert.Contains(t, md, Euros(1200000))
	assert.Contains(t, md, "Multiple d'EBITDA")
	assert.Contains(t, md, Percent(-0.15))
	assert.Contains(t, md, "Rémunération &#124; dirigeant")
	assert.Contains(t, md, "Indice de confiance : **moyenne**.")
	assert.Contains(t, md, "Note : **B** (78/100).")
	assert.Contains(t, md, "**Points forts**")
	assert.NotContains(t, md, "**Points de vigilance**")
	assert.Contains(t, md, "Oublier de retraiter")
	assert.Contains(t, md, "_Référentiel 2025.1/2025, données de marché 2025._")
}

func TestSummary_NoValuation(t *testing.T) {
	r := &evaluation.Result{
		Diagnostic: diagnostic.Result{Grade: diagnostic.GradeE, Concerns: []string{diagnostic.InsufficientData}},
	}
	md := Summary(r, Company{})

	assert.True(t, strings.HasPrefix(md, "# Évaluation de l'entreprise\n"))
	assert.Contains(t, md, "Aucune méthode de valorisation")
	assert.NotContains(t, md, "Prix de cession")
	assert.NotContains(t, md, "### Méthodes")
	assert.Contains(t, md, diagnostic.InsufficientData)
}

func TestSummary_NilResult(t *testing.T) {
	md := Summary(nil, Company{Name: "ACME"})
	assert.Contains(t, md, "Aucun résultat d'évaluation.")
}

func TestRenderHTML(t *testing.T) {
	md := Summary(sampleResult(), Company{Name: "ACME"})
	out, err := RenderHTML(md)
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(out))
	require.NoError(t, err)

	assert.Equal(t, "Évaluation de ACME", doc.Find("h1").Text())
	// value bands, methods, bridge, adjustments
	assert.Equal(t, 4, doc.Find("table").Length())

	var labels []string
	doc.Find("table").Last().Find("tbody tr td:first-child").Each(func(_ int, s *goquery.Selection) {
		labels = append(labels, s.Text())
	})
	assert.Equal(t, []string{"Rémunération | dirigeant"}, labels)
}

func TestRenderHTML_DropsRawHTML(t *testing.T) {
	out, err := RenderHTML("<script>alert(1)</script>\n\ntexte")
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "<p>texte</p>")
}

func TestSummary_FromEngine(t *testing.T) {
	in := evaluation.Input{
		Years: []finance.FinancialYear{{
			Year: 2023, Revenue: 2000000, OperatingResult: 250000, DepreciationAmortization: 50000,
			NetResult: 180000, Equity: 600000, Cash: 200000, FinancialDebt: 100000,
		}},
		Profile: evaluation.Profile{Sector: "services"},
	}
	r, err := evaluation.NewEngine().Evaluate(in)
	require.NoError(t, err)
	require.True(t, r.HasValuation)

	md := Summary(r, Company{})
	for _, m := range r.Methods {
		assert.Contains(t, md, MethodLabel(m.Name))
	}
	assert.Contains(t, md, Euros(r.CessionPrice.Mid))
}

func TestMethodLabel(t *testing.T) {
	assert.Equal(t, "Actif net réévalué", MethodLabel(archetype.MethodNetAssets))
	assert.Equal(t, "autre", MethodLabel(archetype.Method("autre")))
}
