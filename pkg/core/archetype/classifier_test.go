package archetype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// One example per rule, in cascade order. Reordering DefaultRules breaks this.
var cascadeCases = []struct {
	name string
	in   DiagnosticInput
	want ID
}{
	{"pre_revenue", DiagnosticInput{Sector: "saas", Revenue: 10_000, EBITDA: -50_000, GrowthPct: 300, RecurringPct: 100, HasRecurringBilling: true}, PreRevenue},
	{"patrimoine", DiagnosticInput{Sector: "immobilier", Revenue: 400_000, EBITDA: 250_000}, Patrimoine},
	{"saas_hyper", DiagnosticInput{Sector: "saas", Revenue: 1_200_000, EBITDA: -300_000, GrowthPct: 65, RecurringPct: 92, HasRecurringBilling: true}, SaaSHyper},
	{"saas_mature", DiagnosticInput{Sector: "logiciel", Revenue: 3_000_000, EBITDA: 600_000, GrowthPct: 15, RecurringPct: 85}, SaaSMature},
	{"marketplace", DiagnosticInput{Sector: "marketplace", Revenue: 800_000, EBITDA: 50_000}, Marketplace},
	{"ecommerce", DiagnosticInput{Sector: "E-commerce", Revenue: 1_500_000, EBITDA: 90_000}, Ecommerce},
	{"micro_solo", DiagnosticInput{Sector: "conseil", Revenue: 120_000, EBITDA: 70_000}, MicroSolo},
	{"services_recurrents", DiagnosticInput{Sector: "services", Revenue: 2_000_000, EBITDA: 300_000, RecurringPct: 75}, ServicesRecurrents},
	{"conseil", DiagnosticInput{Sector: "conseil", Revenue: 900_000, EBITDA: 150_000, PayrollRatio: 0.6}, Conseil},
	{"sante", DiagnosticInput{Sector: "santé", Revenue: 1_000_000, EBITDA: 120_000}, Sante},
	{"hotellerie_restauration", DiagnosticInput{Sector: "restaurant", Revenue: 700_000, EBITDA: 80_000}, HotellerieRestauration},
	{"commerce_retail", DiagnosticInput{Sector: "commerce", Revenue: 1_100_000, EBITDA: 70_000}, CommerceRetail},
	{"btp", DiagnosticInput{Sector: "btp", Revenue: 2_500_000, EBITDA: 200_000}, BTP},
	{"transport", DiagnosticInput{NAFCode: "49.41A", Revenue: 3_000_000, EBITDA: 350_000}, Transport},
	{"industrie", DiagnosticInput{Sector: "industrie", Revenue: 5_000_000, EBITDA: 600_000}, Industrie},
	{"default", DiagnosticInput{Sector: "n'importe quoi", Revenue: 1_000_000, EBITDA: 100_000}, PMEGenerique},
}

func TestClassify_CascadeOrder(t *testing.T) {
	c := DefaultClassifier()
	for _, tc := range cascadeCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, c.Classify(tc.in))
		})
	}
}

func TestClassify_RuleIndexesFollowCatalogOrder(t *testing.T) {
	c := DefaultClassifier()
	prev := -1
	for _, tc := range cascadeCases[:len(cascadeCases)-1] {
		m := c.ClassifyWithRule(tc.in)
		assert.Greater(t, m.Index, prev, tc.name)
		prev = m.Index
	}
	m := c.ClassifyWithRule(cascadeCases[len(cascadeCases)-1].in)
	assert.Equal(t, -1, m.Index)
	assert.Equal(t, "default", m.Rule)
}

func TestClassify_HyperGrowthSaaSWinsOverRecurringServices(t *testing.T) {
	in := DiagnosticInput{
		Sector:              "saas",
		Revenue:             1_500_000,
		EBITDA:              -200_000,
		GrowthPct:           65,
		RecurringPct:        92,
		HasRecurringBilling: true,
	}

	// both guards accept the input
	p := NewProfile(in)
	matched := map[string]bool{}
	for _, r := range DefaultRules() {
		matched[r.Name] = r.Match(p)
	}
	require.True(t, matched["saas_hypergrowth"])
	require.True(t, matched["recurring_services"])

	m := DefaultClassifier().ClassifyWithRule(in)
	assert.Equal(t, SaaSHyper, m.Archetype)
	assert.Equal(t, "saas_hypergrowth", m.Rule)
	assert.NotEqual(t, ServicesRecurrents, m.Archetype)
}

func TestClassify_OrderIsTheContract(t *testing.T) {
	in := DiagnosticInput{Sector: "services", Revenue: 1_500_000, EBITDA: -200_000, GrowthPct: 65, RecurringPct: 92, HasRecurringBilling: true}

	rules := DefaultRules()
	var hyper, services Rule
	for _, r := range rules {
		switch r.Archetype {
		case SaaSHyper:
			hyper = r
		case ServicesRecurrents:
			services = r
		}
	}

	assert.Equal(t, SaaSHyper, NewClassifier([]Rule{hyper, services}).Classify(in))
	assert.Equal(t, ServicesRecurrents, NewClassifier([]Rule{services, hyper}).Classify(in))
}

func TestClassify_UnknownSectorFallsBack(t *testing.T) {
	c := DefaultClassifier()
	assert.Equal(t, PMEGenerique, c.Classify(DiagnosticInput{Sector: "???", Revenue: 900_000, EBITDA: 80_000}))
	assert.Equal(t, PMEGenerique, c.Classify(DiagnosticInput{Revenue: 900_000, EBITDA: 80_000}))
	assert.Equal(t, PMEGenerique, NewClassifier(nil).Classify(DiagnosticInput{}))
}

func TestClassify_Deterministic(t *testing.T) {
	c := DefaultClassifier()
	for _, tc := range cascadeCases {
		first := c.ClassifyWithRule(tc.in)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, c.ClassifyWithRule(tc.in))
		}
	}
}

func TestRules_TargetCatalogEntries(t *testing.T) {
	cat := DefaultCatalog()
	for _, r := range DefaultRules() {
		_, ok := cat.Lookup(r.Archetype)
		assert.True(t, ok, r.Name)
	}
}

func TestSectorFromNAF(t *testing.T) {
	cases := map[string]Sector{
		"62.01Z": SectorTech,
		"58.29C": SectorSaaS,
		"47.91A": SectorEcommerce,
		"47.11B": SectorCommerce,
		"56.10A": SectorRestauration,
		"68.20B": SectorImmobilier,
		"43.21A": SectorBTP,
		"86.21Z": SectorSante,
		"70.22Z": SectorConseil,
	}
	for code, want := range cases {
		got, ok := SectorFromNAF(code)
		require.True(t, ok, code)
		assert.Equal(t, want, got, code)
	}

	_, ok := SectorFromNAF("")
	assert.False(t, ok)
	_, ok = SectorFromNAF("99.00Z")
	assert.False(t, ok)
}

func TestResolveSector(t *testing.T) {
	assert.Equal(t, SectorRestauration, ResolveSector("Hôtellerie", ""))
	assert.Equal(t, SectorImmobilier, ResolveSector("real_estate", ""))
	assert.Equal(t, SectorTech, ResolveSector("inconnu", "62.02A"))
	assert.Equal(t, SectorAutre, ResolveSector("inconnu", ""))
}
