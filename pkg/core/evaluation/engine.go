package evaluation

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"evalup/pkg/core/archetype"
	"evalup/pkg/core/benchmark"
	"evalup/pkg/core/bridge"
	"evalup/pkg/core/diagnostic"
	"evalup/pkg/core/finance"
	"evalup/pkg/core/retraitement"
	"evalup/pkg/core/valuation"
)

// Engine evaluates companies against injected reference data. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	catalog    *archetype.Catalog
	classifier *archetype.Classifier
	tables     *benchmark.Tables
	options    valuation.Options
	diagnostic diagnostic.Options
	logger     *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithCatalog replaces the archetype catalog.
func WithCatalog(c *archetype.Catalog) Option { return func(e *Engine) { e.catalog = c } }

// WithClassifier replaces the rule list.
func WithClassifier(c *archetype.Classifier) Option { return func(e *Engine) { e.classifier = c } }

// WithTables replaces the multiples, benchmark and discount tables.
func WithTables(t *benchmark.Tables) Option { return func(e *Engine) { e.tables = t } }

// WithValuationOptions sets the DCF projection settings.
func WithValuationOptions(o valuation.Options) Option { return func(e *Engine) { e.options = o } }

// WithDiagnosticOptions sets the diagnostic settings.
func WithDiagnosticOptions(o diagnostic.Options) Option { return func(e *Engine) { e.diagnostic = o } }

// WithLogger sets the logger. The engine logs at debug level only.
func WithLogger(l *zap.Logger) Option { return func(e *Engine) { e.logger = l } }

// NewEngine builds an engine over the built-in reference data unless
// overridden.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		catalog:    archetype.DefaultCatalog(),
		classifier: archetype.DefaultClassifier(),
		tables:     benchmark.Default(),
		options:    valuation.DefaultOptions(),
		diagnostic: diagnostic.Options{MaxHighlights: diagnostic.DefaultMaxHighlights},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Tables returns the reference tables in use.
func (e *Engine) Tables() *benchmark.Tables { return e.tables }

// Catalog returns the archetype catalog in use.
func (e *Engine) Catalog() *archetype.Catalog { return e.catalog }

// Classify runs the decision list on a diagnostic input.
func (e *Engine) Classify(in archetype.DiagnosticInput) archetype.Match {
	return e.classifier.ClassifyWithRule(in)
}

// Evaluate runs the pipeline. Errors are returned only for malformed input
// (duplicate years, unexplained adjustments); numerically degenerate input
// yields a result with HasValuation false or fewer methods.
func (e *Engine) Evaluate(in Input) (*Result, error) {
	// 1. Normalize
	hint := &finance.RatiosHint{GrowthPct: in.Profile.GrowthPct, PayrollRatio: in.Profile.PayrollRatio}
	nf, err := finance.Normalize(in.Years, hint)
	if err != nil {
		return nil, eris.Wrap(err, "evaluation: normalize")
	}

	// 2. Retraitements
	set := retraitement.NewSet(in.Adjustments...)
	ebitdaNormalized, err := retraitement.Apply(nf.EbitdaReported, set)
	if err != nil {
		return nil, eris.Wrap(err, "evaluation: adjustments")
	}

	// 3. Classification
	latest, _ := nf.Latest()
	match := e.classify(in.Profile, nf, latest, ebitdaNormalized)
	arch := e.catalog.Get(match.Archetype)
	bench := e.tables.Benchmark(match.Sector)

	// 4. Valuation methods
	est := valuation.ValueCompany(valuation.Input{
		Financials:       nf,
		EbitdaNormalized: ebitdaNormalized,
		Archetype:        arch,
		Multiples:        e.tables.Multiples(arch.ID),
		Discount:         valuation.DiscountFor(arch, e.tables),
		NetAssets:        in.NetAssets,
		Comparables:      in.Comparables,
		Options:          e.options,
	})

	res := &Result{
		HasValuation:     est.HasValuation,
		EnterpriseValue:  est.EnterpriseValue,
		NetDebt:          latest.NetDebt(),
		Methods:          est.Methods,
		Adjustments:      set.Items(),
		EbitdaReported:   nf.EbitdaReported,
		EbitdaNormalized: ebitdaNormalized,
		Confidence:       est.Confidence,
		NAVFloorApplied:  est.NAVFloorApplied,
		Bridge:           []bridge.Step{},
		Financials:       nf,
		ReferenceVersion: e.catalog.Version() + "/" + e.tables.Version(),
		ReferenceAsOf:    e.tables.AsOf(),
		Sector: SectorInfo{
			Sector:          match.Sector,
			Archetype:       arch.ID,
			ArchetypeName:   arch.Name,
			Rule:            match.Rule,
			PrimaryMethod:   arch.PrimaryMethod,
			SecondaryMethod: arch.SecondaryMethod,
			CommonMistakes:  arch.CommonMistakes,
			KeyFactors:      arch.KeyFactors,
			Benchmark:       bench,
		},
	}
	if res.Adjustments == nil {
		res.Adjustments = []retraitement.Adjustment{}
	}

	// 5. Bridge
	answers := bridge.Qualitative{RecurringPct: in.Profile.RecurringPct}
	if in.Qualitative != nil {
		answers = *in.Qualitative
	}
	if answers.RecurringPct == 0 {
		answers.RecurringPct = in.Profile.RecurringPct
	}
	if answers.HistoryYears == 0 {
		answers.HistoryYears = len(nf.Years)
	}
	res.Factors = bridge.DeriveFactors(arch, answers)
	if in.Qualitative != nil {
		res.QualitativeScore = &ScoreBreakdown{Answers: answers, Factors: res.Factors}
	}
	if est.HasValuation {
		br := bridge.BridgeToEquity(est.EnterpriseValue, res.NetDebt, res.Factors)
		res.CessionPrice = br.CessionPrice
		res.Bridge = br.Steps
	}

	// 6. Diagnostic
	res.Diagnostic = diagnostic.Diagnose(nf, bench, e.diagnostic)

	e.logger.Debug("evaluation complete",
		zap.String("archetype", string(arch.ID)),
		zap.String("rule", match.Rule),
		zap.Bool("has_valuation", res.HasValuation),
		zap.Int("methods", len(res.Methods)),
		zap.Float64("ev_mid", res.EnterpriseValue.Mid),
		zap.Float64("price_mid", res.CessionPrice.Mid),
	)
	return res, nil
}

func (e *Engine) classify(p Profile, nf *finance.NormalizedFinancials, latest finance.YearView, ebitda float64) archetype.Match {
	in := archetype.DiagnosticInput{
		Sector:                p.Sector,
		NAFCode:               p.NAFCode,
		Revenue:               latest.Revenue,
		EBITDA:                ebitda,
		RecurringPct:          p.RecurringPct,
		HasRecurringBilling:   p.HasRecurringBilling,
		HasPhysicalStore:      p.HasPhysicalStore,
		HasRealEstateHoldings: p.HasRealEstateHoldings,
	}
	if g, ok := nf.GrowthPct(); ok {
		in.GrowthPct = g
	}
	if nf.PayrollRatio != nil {
		in.PayrollRatio = *nf.PayrollRatio
	}

	m := e.classifier.ClassifyWithRule(in)
	if p.Archetype != "" {
		if _, ok := e.catalog.Lookup(p.Archetype); ok {
			m.Archetype, m.Rule, m.Index = p.Archetype, "override", -1
		}
	}
	return m
}
