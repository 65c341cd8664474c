package archetype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	cat := DefaultCatalog()
	assert.Equal(t, CatalogVersion, cat.Version())

	all := cat.All()
	require.Len(t, all, 16)
	assert.Equal(t, PreRevenue, all[0].ID)
	assert.Equal(t, PMEGenerique, all[len(all)-1].ID)

	for _, a := range all {
		assert.NotEmpty(t, a.Name, a.ID)
		assert.NotEmpty(t, a.PrimaryMethod, a.ID)
		assert.NotEmpty(t, a.SecondaryMethod, a.ID)
		assert.NotEqual(t, a.PrimaryMethod, a.SecondaryMethod, a.ID)
		assert.NotEmpty(t, a.RiskTier, a.ID)
	}
}

func TestCatalog_GetFallsBackToDefault(t *testing.T) {
	cat := DefaultCatalog()
	a := cat.Get("inexistant")
	assert.Equal(t, PMEGenerique, a.ID)

	_, ok := cat.Lookup("inexistant")
	assert.False(t, ok)
}

func TestCatalog_ReturnsCopies(t *testing.T) {
	cat := DefaultCatalog()
	a := cat.Get(SaaSHyper)
	a.KeyFactors[0] = "modifié"
	a.Name = "modifié"

	b := cat.Get(SaaSHyper)
	assert.NotEqual(t, "modifié", b.KeyFactors[0])
	assert.NotEqual(t, "modifié", b.Name)
}

func TestArchetype_Helpers(t *testing.T) {
	cat := DefaultCatalog()
	assert.True(t, cat.Get(SaaSHyper).PricedOnRevenue())
	assert.False(t, cat.Get(Industrie).PricedOnRevenue())
	assert.True(t, cat.Get(Patrimoine).UsesMethod(MethodNetAssets))
	assert.False(t, cat.Get(Conseil).UsesMethod(MethodNetAssets))
}
