package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalup/pkg/core/evaluation"
)

// resetFlags restores every flag to its default so that commands can be
// executed several times in one process.
func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("EVALUP_LOG_LEVEL", "error")
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"evaluate", "classify", "siren", "fetch", "serve"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestEvaluateCommand_Flags(t *testing.T) {
	flag := evaluateCmd.Flags().Lookup("format")
	require.NotNil(t, flag)
	assert.Equal(t, "markdown", flag.DefValue)
	require.NotNil(t, evaluateCmd.Flags().Lookup("input"))
	require.NotNil(t, evaluateCmd.Flags().Lookup("sector"))
}

const yamlRequest = `
company:
  name: ACME
  siren: "443061841"
years:
  - year: 2023
    revenue: 2000000
    operating_result: 250000
    depreciation_amortization: 50000
    net_result: 180000
    equity: 600000
    cash: 200000
    financial_debt: 100000
profile:
  sector: services
adjustments:
  - kind: owner_salary
    impact: 40000
    rationale: Salaire ramené au marché
`

func TestEvaluate_YAMLMarkdown(t *testing.T) {
	path := writeFile(t, "acme.yaml", yamlRequest)

	out, _, err := execute(t, "evaluate", "--input", path)
	require.NoError(t, err)
	assert.Contains(t, out, "# Évaluation de ACME")
	assert.Contains(t, out, "SIREN : 443061841")
	assert.Contains(t, out, "## Valorisation")
	assert.Contains(t, out, "Salaire ramené au marché")
}

func TestEvaluate_HjsonToJSON(t *testing.T) {
	path := writeFile(t, "acme.hjson", `{
  # accounts 2023
  years: [
    {
      year: 2023
      revenue: 2000000
      operating_result: 250000
      depreciation_amortization: 50000
      equity: 600000
    }
  ]
  profile: {
    sector: conseil
  }
}`)

	out, _, err := execute(t, "evaluate", "--input", path, "--format", "json")
	require.NoError(t, err)

	var res evaluation.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.HasValuation)
	assert.Equal(t, 300000.0, res.EbitdaReported)
}

func TestEvaluate_CSVWithProfileFlags(t *testing.T) {
	path := writeFile(t, "bilans.csv", "Poste;2022;2023\n"+
		"Chiffre d'affaires;1 000 000;1 200 000\n"+
		"Résultat d'exploitation;100 000;150 000\n"+
		"Dotations aux amortissements;20 000;25 000\n")
	outPath := filepath.Join(t.TempDir(), "report.html")

	_, errOut, err := execute(t, "evaluate", "--input", path, "--sector", "btp", "--name", "ACME BTP",
		"--format", "html", "--output", outPath)
	require.NoError(t, err)
	assert.Contains(t, errOut, "Report written to")

	html, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), "<h1>Évaluation de ACME BTP</h1>")
	assert.Contains(t, string(html), "<table>")
}

func TestEvaluate_Errors(t *testing.T) {
	_, _, err := execute(t, "evaluate", "--input", writeFile(t, "x.yaml", yamlRequest), "--format", "pdf")
	assert.ErrorContains(t, err, "--format must be")

	_, _, err = execute(t, "evaluate", "--input", writeFile(t, "x.docx", "?"))
	assert.ErrorContains(t, err, "unsupported input format")

	dup := "years:\n  - {year: 2023, revenue: 1}\n  - {year: 2023, revenue: 2}\n"
	_, _, err = execute(t, "evaluate", "--input", writeFile(t, "dup.yaml", dup))
	assert.ErrorContains(t, err, "duplicate fiscal year")
}

func TestSirenCommand(t *testing.T) {
	out, _, err := execute(t, "siren", "443 061 841")
	require.NoError(t, err)
	assert.Equal(t, "SIREN 443061841 is valid\n", out)

	out, _, err = execute(t, "siren", "44306184100047")
	require.NoError(t, err)
	assert.Equal(t, "SIRET 44306184100047 is valid (SIREN 443061841)\n", out)

	_, _, err = execute(t, "siren", "443061842")
	assert.ErrorContains(t, err, "invalid SIREN")
}

func TestClassifyCommand(t *testing.T) {
	out, _, err := execute(t, "classify", "--sector", "btp", "--revenue", "3000000", "--ebitda", "300000")
	require.NoError(t, err)
	assert.Contains(t, out, "Archetype:")
	assert.Contains(t, out, "Sector:")
	assert.Contains(t, out, "btp")
	assert.Contains(t, out, "Primary method:")
}

const pappersBody = `{
  "siren": "443061841",
  "nom_entreprise": "ACME",
  "code_naf": "62.02A",
  "finances": [
    {"annee": 2022, "chiffre_affaires": 1800000, "resultat_exploitation": 200000, "excedent_brut_exploitation": 240000, "capitaux_propres": 500000},
    {"annee": 2023, "chiffre_affaires": 2000000, "resultat_exploitation": 250000, "excedent_brut_exploitation": 300000, "capitaux_propres": 600000}
  ]
}`

func TestFetchCommand(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "secret", r.URL.Query().Get("api_token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(pappersBody))
	}))
	defer srv.Close()

	t.Setenv("EVALUP_PAPPERS_BASE_URL", srv.URL)
	t.Setenv("EVALUP_PAPPERS_API_KEY", "secret")
	t.Setenv("EVALUP_STORE_CACHE_DIR", t.TempDir())

	docs := writeFile(t, "bilan.csv", "Poste;2023;2024\n"+
		"Chiffre d'affaires;2 000 000;2 300 000\n"+
		"Résultat d'exploitation;300 000;320 000\n")

	out, errOut, err := execute(t, "fetch", "443061841", "--documents", docs, "--sector", "conseil")
	require.NoError(t, err)
	assert.Contains(t, out, "# Évaluation de ACME")
	assert.Contains(t, out, "NAF : 62.02A")
	assert.Contains(t, errOut, "MATERIAL_MISMATCH")
	assert.Contains(t, errOut, "MATCH")
	assert.Equal(t, 1, calls)

	// second run is served from the file cache
	_, _, err = execute(t, "fetch", "443061841", "--format", "json")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestFetchCommand_Errors(t *testing.T) {
	t.Setenv("EVALUP_PAPPERS_API_KEY", "")
	_, _, err := execute(t, "fetch", "443061841")
	assert.ErrorContains(t, err, "pappers.api_key")

	t.Setenv("EVALUP_PAPPERS_API_KEY", "secret")
	_, _, err = execute(t, "fetch", "123")
	assert.ErrorContains(t, err, "invalid SIREN")
}
