// Package archetype holds the versioned catalog of business archetypes and
// the ordered rule list that selects one of them for a company.
package archetype

// CatalogVersion identifies the built-in catalog content.
const CatalogVersion = "2025.1"

// ID identifies an archetype.
type ID string

const (
	PreRevenue             ID = "pre_revenue"
	Patrimoine             ID = "patrimoine"
	SaaSHyper              ID = "saas_hyper"
	SaaSMature             ID = "saas_mature"
	Marketplace            ID = "marketplace"
	Ecommerce              ID = "ecommerce"
	MicroSolo              ID = "micro_solo"
	ServicesRecurrents     ID = "services_recurrents"
	Conseil                ID = "conseil"
	Sante                  ID = "sante"
	HotellerieRestauration ID = "hotellerie_restauration"
	CommerceRetail         ID = "commerce_retail"
	BTP                    ID = "btp"
	Transport              ID = "transport"
	Industrie              ID = "industrie"
	PMEGenerique           ID = "pme_generique"
)

// DefaultID is the archetype used when no rule matches.
const DefaultID = PMEGenerique

// Method names a valuation method.
type Method string

const (
	MethodEBITDAMultiple  Method = "ebitda_multiple"
	MethodRevenueMultiple Method = "revenue_multiple"
	MethodDCF             Method = "dcf"
	MethodNetAssets       Method = "net_assets"
	MethodComparables     Method = "comparables"
)

// MetricBase is the figure an archetype is primarily priced on.
type MetricBase string

const (
	BaseEBITDA    MetricBase = "ebitda"
	BaseRevenue   MetricBase = "revenue"
	BaseARR       MetricBase = "arr"
	BaseNetAssets MetricBase = "net_assets"
)

// RiskTier selects the discount-rate band used by the DCF.
type RiskTier string

const (
	TierSeed        RiskTier = "amorcage"
	TierGrowth      RiskTier = "croissance"
	TierScaleUp     RiskTier = "developpement"
	TierEstablished RiskTier = "etabli"
	TierMature      RiskTier = "mature"
	TierMicro       RiskTier = "micro"
	TierAsset       RiskTier = "patrimonial"
)

// Archetype is a read-only catalog entry.
type Archetype struct {
	ID              ID         `json:"id"`
	Name            string     `json:"name"`
	PrimaryMethod   Method     `json:"primary_method"`
	SecondaryMethod Method     `json:"secondary_method"`
	MetricBase      MetricBase `json:"metric_base"`
	AssetHeavy      bool       `json:"asset_heavy"`
	RiskTier        RiskTier   `json:"risk_tier"`
	CommonMistakes  []string   `json:"common_mistakes,omitempty"`
	KeyFactors      []string   `json:"key_factors,omitempty"`
}

// UsesMethod reports whether m is the primary or secondary method.
func (a Archetype) UsesMethod(m Method) bool {
	return a.PrimaryMethod == m || a.SecondaryMethod == m
}

// PricedOnRevenue reports whether the archetype is priced on revenue or ARR.
func (a Archetype) PricedOnRevenue() bool {
	return a.MetricBase == BaseRevenue || a.MetricBase == BaseARR
}

// Catalog is an immutable set of archetypes. Lookups return copies.
type Catalog struct {
	version string
	order   []ID
	byID    map[ID]Archetype
}

// NewCatalog builds a catalog. The entry with DefaultID must be present for
// Get to have a fallback.
func NewCatalog(version string, entries []Archetype) *Catalog {
	c := &Catalog{version: version, byID: make(map[ID]Archetype, len(entries))}
	for _, a := range entries {
		if _, dup := c.byID[a.ID]; !dup {
			c.order = append(c.order, a.ID)
		}
		c.byID[a.ID] = clone(a)
	}
	return c
}

// Version returns the catalog version string.
func (c *Catalog) Version() string { return c.version }

// Lookup returns the archetype with the given id.
func (c *Catalog) Lookup(id ID) (Archetype, bool) {
	a, ok := c.byID[id]
	if !ok {
		return Archetype{}, false
	}
	return clone(a), true
}

// Get returns the archetype with the given id, or the default entry.
func (c *Catalog) Get(id ID) Archetype {
	if a, ok := c.Lookup(id); ok {
		return a
	}
	a, _ := c.Lookup(DefaultID)
	return a
}

// All returns every archetype in catalog order.
func (c *Catalog) All() []Archetype {
	out := make([]Archetype, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, clone(c.byID[id]))
	}
	return out
}

func clone(a Archetype) Archetype {
	a.CommonMistakes = append([]string(nil), a.CommonMistakes...)
	a.KeyFactors = append([]string(nil), a.KeyFactors...)
	return a
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	return NewCatalog(CatalogVersion, builtin())
}

func builtin() []Archetype {
	return []Archetype{
		{
			ID: PreRevenue, Name: "Pré-revenus / amorçage",
			PrimaryMethod: MethodComparables, SecondaryMethod: MethodRevenueMultiple,
			MetricBase: BaseRevenue, RiskTier: TierSeed,
			CommonMistakes: []string{"Valoriser sur un EBITDA négatif", "Extrapoler un business plan non éprouvé"},
			KeyFactors:     []string{"Traction commerciale", "Équipe fondatrice", "Levées de fonds comparables"},
		},
		{
			ID: Patrimoine, Name: "Holding patrimoniale / immobilier",
			PrimaryMethod: MethodNetAssets, SecondaryMethod: MethodEBITDAMultiple,
			MetricBase: BaseNetAssets, AssetHeavy: true, RiskTier: TierAsset,
			CommonMistakes: []string{"Ignorer la fiscalité latente sur plus-values", "Retenir la valeur comptable des immeubles"},
			KeyFactors:     []string{"Valeur de marché des actifs", "Rendement locatif", "Endettement adossé"},
		},
		{
			ID: SaaSHyper, Name: "SaaS en hypercroissance",
			PrimaryMethod: MethodRevenueMultiple, SecondaryMethod: MethodDCF,
			MetricBase: BaseARR, RiskTier: TierGrowth,
			CommonMistakes: []string{"Appliquer un multiple d'EBITDA à une société déficitaire", "Confondre CA et ARR"},
			KeyFactors:     []string{"Croissance de l'ARR", "Rétention nette", "Churn"},
		},
		{
			ID: SaaSMature, Name: "SaaS mature",
			PrimaryMethod: MethodEBITDAMultiple, SecondaryMethod: MethodRevenueMultiple,
			MetricBase: BaseARR, RiskTier: TierScaleUp,
			CommonMistakes: []string{"Surpondérer le multiple de CA", "Oublier la dette technique"},
			KeyFactors:     []string{"Part récurrente", "Marge d'EBITDA", "Churn"},
		},
		{
			ID: Marketplace, Name: "Place de marché",
			PrimaryMethod: MethodRevenueMultiple, SecondaryMethod: MethodDCF,
			MetricBase: BaseRevenue, RiskTier: TierGrowth,
			CommonMistakes: []string{"Valoriser le volume d'affaires au lieu du revenu net"},
			KeyFactors:     []string{"Take rate", "Liquidité des deux côtés", "Effets de réseau"},
		},
		{
			ID: Ecommerce, Name: "E-commerce",
			PrimaryMethod: MethodEBITDAMultiple, SecondaryMethod: MethodRevenueMultiple,
			MetricBase: BaseRevenue, RiskTier: TierEstablished,
			CommonMistakes: []string{"Ignorer le coût d'acquisition client", "Négliger le stock"},
			KeyFactors:     []string{"Marge brute", "Taux de réachat", "Dépendance aux plateformes publicitaires"},
		},
		{
			ID: MicroSolo, Name: "Micro-entreprise / indépendant",
			PrimaryMethod: MethodEBITDAMultiple, SecondaryMethod: MethodNetAssets,
			MetricBase: BaseEBITDA, RiskTier: TierMicro,
			CommonMistakes: []string{"Oublier de retraiter la rémunération du dirigeant"},
			KeyFactors:     []string{"Transférabilité de la clientèle", "Dépendance au dirigeant"},
		},
		{
			ID: ServicesRecurrents, Name: "Services à revenus récurrents",
			PrimaryMethod: MethodEBITDAMultiple, SecondaryMethod: MethodDCF,
			MetricBase: BaseEBITDA, RiskTier: TierEstablished,
			CommonMistakes: []string{"Traiter les contrats récurrents comme du CA ponctuel"},
			KeyFactors:     []string{"Durée des contrats", "Taux de renouvellement", "Concentration clients"},
		},
		{
			ID: Conseil, Name: "Conseil / services intellectuels",
			PrimaryMethod: MethodEBITDAMultiple, SecondaryMethod: MethodDCF,
			MetricBase: BaseEBITDA, RiskTier: TierEstablished,
			CommonMistakes: []string{"Sous-estimer la dépendance aux associés", "Ignorer le taux d'occupation"},
			KeyFactors:     []string{"Taux de facturation", "Fidélité des consultants", "Portefeuille clients"},
		},
		{
			ID: Sante, Name: "Santé / médico-social",
			PrimaryMethod: MethodEBITDAMultiple, SecondaryMethod: MethodDCF,
			MetricBase: BaseEBITDA, RiskTier: TierMature,
			CommonMistakes: []string{"Négliger le cadre réglementaire et les autorisations"},
			KeyFactors:     []string{"Autorisations d'exercice", "Patientèle", "Convention avec les organismes payeurs"},
		},
		{
			ID: HotellerieRestauration, Name: "Hôtellerie / restauration",
			PrimaryMethod: MethodEBITDAMultiple, SecondaryMethod: MethodNetAssets,
			MetricBase: BaseEBITDA, AssetHeavy: true, RiskTier: TierEstablished,
			CommonMistakes: []string{"Confondre valeur du fonds et valeur des murs"},
			KeyFactors:     []string{"Emplacement", "Bail commercial", "Ticket moyen"},
		},
		{
			ID: CommerceRetail, Name: "Commerce de détail",
			PrimaryMethod: MethodEBITDAMultiple, SecondaryMethod: MethodNetAssets,
			MetricBase: BaseEBITDA, AssetHeavy: true, RiskTier: TierEstablished,
			CommonMistakes: []string{"Valoriser le stock à son prix de vente"},
			KeyFactors:     []string{"Emplacement", "Rotation des stocks", "Bail commercial"},
		},
		{
			ID: BTP, Name: "BTP / construction",
			PrimaryMethod: MethodEBITDAMultiple, SecondaryMethod: MethodNetAssets,
			MetricBase: BaseEBITDA, AssetHeavy: true, RiskTier: TierMature,
			CommonMistakes: []string{"Ignorer le carnet de commandes", "Omettre les garanties décennales"},
			KeyFactors:     []string{"Carnet de commandes", "Parc matériel", "Qualifications"},
		},
		{
			ID: Transport, Name: "Transport / logistique",
			PrimaryMethod: MethodEBITDAMultiple, SecondaryMethod: MethodNetAssets,
			MetricBase: BaseEBITDA, AssetHeavy: true, RiskTier: TierMature,
			CommonMistakes: []string{"Oublier le renouvellement de la flotte"},
			KeyFactors:     []string{"Âge de la flotte", "Contrats cadres", "Coût du carburant"},
		},
		{
			ID: Industrie, Name: "Industrie",
			PrimaryMethod: MethodEBITDAMultiple, SecondaryMethod: MethodDCF,
			MetricBase: BaseEBITDA, AssetHeavy: true, RiskTier: TierMature,
			CommonMistakes: []string{"Sous-estimer les investissements de maintien"},
			KeyFactors:     []string{"Outil de production", "Taux d'utilisation", "Clients donneurs d'ordre"},
		},
		{
			ID: PMEGenerique, Name: "PME généraliste",
			PrimaryMethod: MethodEBITDAMultiple, SecondaryMethod: MethodDCF,
			MetricBase: BaseEBITDA, RiskTier: TierEstablished,
			CommonMistakes: []string{"Appliquer un multiple sans retraiter l'EBITDA"},
			KeyFactors:     []string{"Rentabilité normative", "Dépendance au dirigeant"},
		},
	}
}
