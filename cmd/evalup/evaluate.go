package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"evalup/pkg/core/evaluation"
	"evalup/pkg/core/report"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a company from a file",
	Long: `Evaluate a company from a request document or a financial statement.

Request documents (.json, .yaml, .hjson) hold the company, the years, the
profile, the adjustments and the qualitative answers. Statements (.xlsx,
.csv, .html) hold the years only; pass the profile with flags.

Examples:
  # Full request, Markdown report
  evalup evaluate --input acme.yaml

  # Spreadsheet of accounts, HTML report
  evalup evaluate --input bilans.xlsx --sector btp --name "ACME BTP" --format html

  # Raw extraction output, JSON result
  evalup evaluate --input extraction.txt --sector conseil --format json`,
	RunE: runEvaluate,
}

func init() {
	f := evaluateCmd.Flags()
	f.String("input", "", "input file (.json, .yaml, .hjson, .xlsx, .csv, .html, .txt)")
	f.String("format", "markdown", "output format: markdown, html or json")
	f.String("output", "", "output file path (default: stdout)")
	f.String("sheet", "", "worksheet name for .xlsx input (default: all sheets)")
	f.String("charset", "", "charset of .html input when not declared")
	f.Bool("extraction", false, "read a .json input as extraction output")
	addProfileFlags(f)
	_ = evaluateCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	log := zap.L().With(zap.String("command", "evaluate"))

	path, _ := cmd.Flags().GetString("input")
	format, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")
	sheet, _ := cmd.Flags().GetString("sheet")
	charset, _ := cmd.Flags().GetString("charset")
	extraction, _ := cmd.Flags().GetBool("extraction")

	if err := checkFormat(format); err != nil {
		return err
	}

	doc, err := loadDocument(path, inputOptions{Sheet: sheet, Charset: charset, Extraction: extraction})
	if err != nil {
		return eris.Wrap(err, "evaluate: load input")
	}
	applyProfileFlags(cmd, doc)

	engine, err := cfg.NewEngine(log)
	if err != nil {
		return err
	}
	res, err := engine.Evaluate(doc.Input)
	if err != nil {
		return eris.Wrap(err, "evaluate")
	}
	log.Info("evaluation complete",
		zap.String("input", path),
		zap.Int("years", len(doc.Years)),
		zap.String("archetype", string(res.Sector.Archetype)),
		zap.Bool("has_valuation", res.HasValuation),
	)

	return writeOutput(cmd, outputPath, func(w io.Writer) error {
		return render(w, res, doc.Company, format)
	})
}

func checkFormat(format string) error {
	switch format {
	case "markdown", "html", "json":
		return nil
	}
	return eris.Errorf("--format must be markdown, html or json (got %q)", format)
}

// render writes res in the requested format.
func render(w io.Writer, res *evaluation.Result, company report.Company, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "html":
		out, err := report.RenderHTML(report.Summary(res, company))
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	default:
		_, err := io.WriteString(w, report.Summary(res, company))
		return err
	}
}

// writeOutput sends the output to path, or to the command output when path
// is empty.
func writeOutput(cmd *cobra.Command, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	if err := write(f); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "close %s", path)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", path)
	return nil
}
