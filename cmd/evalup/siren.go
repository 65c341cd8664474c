package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"evalup/pkg/core/ingest"
)

var sirenCmd = &cobra.Command{
	Use:   "siren <number>",
	Short: "Check a SIREN or SIRET number",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if siren, err := ingest.ValidateSIREN(args[0]); err == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "SIREN %s is valid\n", siren)
			return nil
		}
		if siret, err := ingest.ValidateSIRET(args[0]); err == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "SIRET %s is valid (SIREN %s)\n", siret, siret[:9])
			return nil
		}
		_, err := ingest.ValidateSIREN(args[0])
		return err
	},
}

func init() {
	rootCmd.AddCommand(sirenCmd)
}
