package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"evalup/pkg/core/archetype"
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Show the valuation profile a company falls into",
	Long: `Run the archetype decision list on a few figures and print the
profile, the rule that matched and the valuation methods it implies.

Example:
  evalup classify --sector saas --revenue 3000000 --ebitda 600000 --growth 15 --recurring 85`,
	RunE: runClassify,
}

func init() {
	f := classifyCmd.Flags()
	f.String("sector", "", "business sector")
	f.String("naf", "", "NAF/APE code")
	f.Float64("revenue", 0, "annual revenue in euros")
	f.Float64("ebitda", 0, "annual EBITDA in euros")
	f.Float64("growth", 0, "revenue growth in percent")
	f.Float64("recurring", 0, "share of recurring revenue in percent")
	f.Float64("payroll-ratio", 0, "payroll as a fraction of revenue")
	f.Bool("recurring-billing", false, "revenue is billed by subscription")
	f.Bool("physical-store", false, "the business runs a physical store")
	f.Bool("real-estate", false, "the company holds real estate")

	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, _ []string) error {
	f := cmd.Flags()
	var in archetype.DiagnosticInput
	in.Sector, _ = f.GetString("sector")
	in.NAFCode, _ = f.GetString("naf")
	in.Revenue, _ = f.GetFloat64("revenue")
	in.EBITDA, _ = f.GetFloat64("ebitda")
	in.GrowthPct, _ = f.GetFloat64("growth")
	in.RecurringPct, _ = f.GetFloat64("recurring")
	in.PayrollRatio, _ = f.GetFloat64("payroll-ratio")
	in.HasRecurringBilling, _ = f.GetBool("recurring-billing")
	in.HasPhysicalStore, _ = f.GetBool("physical-store")
	in.HasRealEstateHoldings, _ = f.GetBool("real-estate")

	engine, err := cfg.NewEngine(zap.L())
	if err != nil {
		return err
	}
	match := engine.Classify(in)
	arch := engine.Catalog().Get(match.Archetype)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Archetype:\t%s (%s)\n", arch.ID, arch.Name)
	_, _ = fmt.Fprintf(w, "Sector:\t%s\n", match.Sector)
	_, _ = fmt.Fprintf(w, "Rule:\t%s\n", match.Rule)
	_, _ = fmt.Fprintf(w, "Primary method:\t%s\n", arch.PrimaryMethod)
	if arch.SecondaryMethod != "" {
		_, _ = fmt.Fprintf(w, "Secondary method:\t%s\n", arch.SecondaryMethod)
	}
	_, _ = fmt.Fprintf(w, "Metric base:\t%s\n", arch.MetricBase)
	_, _ = fmt.Fprintf(w, "Risk tier:\t%s\n", arch.RiskTier)
	return w.Flush()
}
