package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"evalup/pkg/core/archetype"
)

func addProfileFlags(f *pflag.FlagSet) {
	f.String("sector", "", "business sector (e.g. btp, conseil, saas)")
	f.String("naf", "", "NAF/APE code, used when the sector is unknown")
	f.String("name", "", "company name for the report")
	f.String("siren", "", "SIREN for the report")
	f.Float64("recurring-pct", 0, "share of recurring revenue, in percent")
	f.Float64("growth-pct", 0, "revenue growth in percent, used with a single year")
	f.String("archetype", "", "force a valuation profile instead of classifying")
}

// applyProfileFlags overrides doc with the profile flags set on the command
// line.
func applyProfileFlags(cmd *cobra.Command, doc *document) {
	f := cmd.Flags()
	if f.Changed("sector") {
		doc.Profile.Sector, _ = f.GetString("sector")
	}
	if f.Changed("naf") {
		doc.Profile.NAFCode, _ = f.GetString("naf")
		doc.Company.NAFCode = doc.Profile.NAFCode
	}
	if f.Changed("name") {
		doc.Company.Name, _ = f.GetString("name")
	}
	if f.Changed("siren") {
		doc.Company.SIREN, _ = f.GetString("siren")
	}
	if f.Changed("recurring-pct") {
		doc.Profile.RecurringPct, _ = f.GetFloat64("recurring-pct")
	}
	if f.Changed("growth-pct") {
		g, _ := f.GetFloat64("growth-pct")
		doc.Profile.GrowthPct = &g
	}
	if f.Changed("archetype") {
		id, _ := f.GetString("archetype")
		doc.Profile.Archetype = archetype.ID(id)
	}
	if doc.Profile.NAFCode == "" {
		doc.Profile.NAFCode = doc.Company.NAFCode
	}
}
