package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"evalup/pkg/core/evaluation"
	"evalup/pkg/core/ingest"
	"evalup/pkg/core/report"
	"evalup/pkg/core/store"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <siren>",
	Short: "Evaluate a company from its published accounts",
	Long: `Fetch the published accounts of a company from the Pappers registry and
evaluate it. Lookups are cached in Postgres when store.database_url is set,
otherwise in store.cache_dir when set.

With --documents, the accounts read from a statement file are checked
against the registry, year by year; the statement wins for the years it
covers and the registry fills the others.

Examples:
  evalup fetch 443061841
  evalup fetch 443061841 --documents bilan-2024.xlsx --format html --output acme.html`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	f := fetchCmd.Flags()
	f.String("documents", "", "statement file to reconcile with the registry (.xlsx, .csv, .html, .json)")
	f.Float64("tolerance", ingest.DefaultTolerancePct, "reconciliation tolerance in percent")
	f.String("format", "markdown", "output format: markdown, html or json")
	f.String("output", "", "output file path (default: stdout)")
	addProfileFlags(f)

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := zap.L().With(zap.String("command", "fetch"))

	format, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")
	docsPath, _ := cmd.Flags().GetString("documents")
	tolerance, _ := cmd.Flags().GetFloat64("tolerance")

	if err := checkFormat(format); err != nil {
		return err
	}
	siren, err := ingest.ValidateSIREN(args[0])
	if err != nil {
		return err
	}
	if cfg.Pappers.APIKey == "" {
		return eris.New("fetch: pappers.api_key is not set (EVALUP_PAPPERS_API_KEY)")
	}

	registry, closeRegistry, err := newRegistry(ctx, log)
	if err != nil {
		return err
	}
	defer closeRegistry()

	company, err := registry.FetchFinances(ctx, siren)
	if err != nil {
		return eris.Wrapf(err, "fetch: registry lookup %s", siren)
	}
	log.Info("registry accounts fetched",
		zap.String("siren", company.SIREN),
		zap.String("naf", company.NAFCode),
		zap.Int("years", len(company.Years)),
	)

	doc := &document{
		Company: report.Company{Name: company.Name, SIREN: company.SIREN, NAFCode: company.NAFCode},
		Input:   evaluation.Input{Years: company.Years},
	}
	if docsPath != "" {
		stmt, err := loadDocument(docsPath, inputOptions{})
		if err != nil {
			return eris.Wrap(err, "fetch: load documents")
		}
		checks := ingest.Reconcile(company.Years, stmt.Years, tolerance)
		printCheckpoints(cmd.ErrOrStderr(), checks)
		doc.Years = ingest.Merge(stmt.Years, company.Years)
	}
	applyProfileFlags(cmd, doc)

	engine, err := cfg.NewEngine(log)
	if err != nil {
		return err
	}
	res, err := engine.Evaluate(doc.Input)
	if err != nil {
		return eris.Wrap(err, "fetch: evaluate")
	}

	return writeOutput(cmd, outputPath, func(w io.Writer) error {
		return render(w, res, doc.Company, format)
	})
}

// newRegistry wraps the Pappers client in the configured cache.
func newRegistry(ctx context.Context, log *zap.Logger) (ingest.RegistryClient, func(), error) {
	closeFn := func() {}
	var pool store.Pool
	if cfg.Store.DatabaseURL != "" {
		p, err := store.Connect(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, closeFn, err
		}
		if err := store.Migrate(ctx, p); err != nil {
			p.Close()
			return nil, closeFn, err
		}
		pool = p
		closeFn = p.Close
	}

	cache, err := store.NewRegistryCache(pool, cfg.Store.CacheDir)
	if err != nil {
		closeFn()
		return nil, func() {}, err
	}
	return &store.CachedRegistry{
		Client: cfg.NewPappersClient(),
		Cache:  cache,
		TTL:    cfg.Store.CacheTTL(),
		Logger: log,
	}, closeFn, nil
}

func printCheckpoints(out io.Writer, checks []ingest.Checkpoint) {
	if len(checks) == 0 {
		_, _ = fmt.Fprintln(out, "No fiscal year in common with the registry.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "YEAR\tLINE\tREGISTRY\tDOCUMENT\tVARIANCE\tSTATUS")
	_, _ = fmt.Fprintln(w, "----\t----\t--------\t--------\t--------\t------")
	for _, c := range checks {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%.0f\t%.0f\t%.0f\t%s\n",
			c.Year, c.Line, c.Reference, c.Candidate, c.Variance, c.Status)
	}
	_ = w.Flush()
}
