package archetype

// DiagnosticInput describes a company for classification. Percentages are in
// percent (65 means 65 %); PayrollRatio is a fraction of revenue.
type DiagnosticInput struct {
	Sector       string  `json:"sector" yaml:"sector"`
	NAFCode      string  `json:"naf_code,omitempty" yaml:"naf_code,omitempty"`
	Revenue      float64 `json:"revenue" yaml:"revenue"`
	EBITDA       float64 `json:"ebitda" yaml:"ebitda"`
	GrowthPct    float64 `json:"growth_pct" yaml:"growth_pct"`
	RecurringPct float64 `json:"recurring_pct" yaml:"recurring_pct"`
	PayrollRatio float64 `json:"payroll_ratio" yaml:"payroll_ratio"`

	HasRecurringBilling   bool `json:"has_recurring_billing,omitempty" yaml:"has_recurring_billing,omitempty"`
	HasPhysicalStore      bool `json:"has_physical_store,omitempty" yaml:"has_physical_store,omitempty"`
	HasRealEstateHoldings bool `json:"has_real_estate_holdings,omitempty" yaml:"has_real_estate_holdings,omitempty"`
}

// Profile is a DiagnosticInput with its sector resolved.
type Profile struct {
	DiagnosticInput
	Sector Sector
}

// NewProfile resolves the sector of in.
func NewProfile(in DiagnosticInput) Profile {
	return Profile{DiagnosticInput: in, Sector: ResolveSector(in.Sector, in.NAFCode)}
}

// Rule is one guard of the decision list.
type Rule struct {
	Name      string
	Archetype ID
	Match     func(p Profile) bool
}

// Thresholds used by the built-in rules.
const (
	preRevenueCeiling      = 50_000.0
	microRevenueCeiling    = 250_000.0
	hyperGrowthPct         = 40.0
	hyperRecurringPct      = 70.0
	saasRecurringPct       = 60.0
	recurringServicesPct   = 60.0
	consultingPayrollRatio = 0.5
)

// DefaultRules returns the built-in decision list. Order is significant: the
// first matching rule wins.
func DefaultRules() []Rule {
	return []Rule{
		{
			// Almost no revenue and no operating profit yet.
			Name: "pre_revenue", Archetype: PreRevenue,
			Match: func(p Profile) bool {
				return p.Revenue < preRevenueCeiling && p.EBITDA <= 0
			},
		},
		{
			Name: "real_estate_holding", Archetype: Patrimoine,
			Match: func(p Profile) bool {
				return p.HasRealEstateHoldings || p.Sector == SectorImmobilier
			},
		},
		{
			// Subscription software growing fast, usually still loss-making.
			Name: "saas_hypergrowth", Archetype: SaaSHyper,
			Match: func(p Profile) bool {
				return (p.Sector.IsSoftware() || p.HasRecurringBilling) &&
					p.RecurringPct >= hyperRecurringPct &&
					p.GrowthPct >= hyperGrowthPct
			},
		},
		{
			Name: "saas_mature", Archetype: SaaSMature,
			Match: func(p Profile) bool {
				return p.Sector.IsSoftware() && p.RecurringPct >= saasRecurringPct
			},
		},
		{
			Name: "marketplace", Archetype: Marketplace,
			Match: func(p Profile) bool { return p.Sector == SectorMarketplace },
		},
		{
			Name: "ecommerce", Archetype: Ecommerce,
			Match: func(p Profile) bool { return p.Sector == SectorEcommerce },
		},
		{
			Name: "micro_solo", Archetype: MicroSolo,
			Match: func(p Profile) bool { return p.Revenue < microRevenueCeiling },
		},
		{
			Name: "recurring_services", Archetype: ServicesRecurrents,
			Match: func(p Profile) bool {
				return p.RecurringPct >= recurringServicesPct
			},
		},
		{
			Name: "consulting", Archetype: Conseil,
			Match: func(p Profile) bool {
				return p.Sector == SectorConseil ||
					(p.Sector == SectorServices && p.PayrollRatio >= consultingPayrollRatio)
			},
		},
		{
			Name: "health", Archetype: Sante,
			Match: func(p Profile) bool { return p.Sector == SectorSante },
		},
		{
			Name: "hospitality", Archetype: HotellerieRestauration,
			Match: func(p Profile) bool { return p.Sector == SectorRestauration },
		},
		{
			Name: "retail", Archetype: CommerceRetail,
			Match: func(p Profile) bool {
				return p.Sector == SectorCommerce || p.HasPhysicalStore
			},
		},
		{
			Name: "construction", Archetype: BTP,
			Match: func(p Profile) bool { return p.Sector == SectorBTP },
		},
		{
			Name: "transport", Archetype: Transport,
			Match: func(p Profile) bool { return p.Sector == SectorTransport },
		},
		{
			Name: "industry", Archetype: Industrie,
			Match: func(p Profile) bool { return p.Sector == SectorIndustrie },
		},
	}
}

// Match describes which rule selected an archetype. Index is -1 when the
// default applied.
type Match struct {
	Archetype ID     `json:"archetype"`
	Rule      string `json:"rule"`
	Index     int    `json:"index"`
	Sector    Sector `json:"sector"`
}

// Classifier evaluates an ordered rule list.
type Classifier struct {
	rules    []Rule
	fallback ID
}

// NewClassifier builds a classifier over rules, falling back to DefaultID.
func NewClassifier(rules []Rule) *Classifier {
	return &Classifier{rules: append([]Rule(nil), rules...), fallback: DefaultID}
}

// DefaultClassifier uses DefaultRules.
func DefaultClassifier() *Classifier {
	return NewClassifier(DefaultRules())
}

// Classify returns the archetype of the first matching rule.
func (c *Classifier) Classify(in DiagnosticInput) ID {
	return c.ClassifyWithRule(in).Archetype
}

// ClassifyWithRule returns the archetype together with the rule that chose it.
func (c *Classifier) ClassifyWithRule(in DiagnosticInput) Match {
	p := NewProfile(in)
	for i, r := range c.rules {
		if r.Match(p) {
			return Match{Archetype: r.Archetype, Rule: r.Name, Index: i, Sector: p.Sector}
		}
	}
	return Match{Archetype: c.fallback, Rule: "default", Index: -1, Sector: p.Sector}
}

// Rules returns a copy of the rule list.
func (c *Classifier) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}
