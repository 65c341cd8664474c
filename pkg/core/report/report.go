// Package report renders an evaluation result as a French Markdown summary
// and, from there, as HTML.
package report

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"evalup/pkg/core/archetype"
	"evalup/pkg/core/evaluation"
	"evalup/pkg/core/valuation"
)

// Company identifies the business in the report header. Every field is optional.
type Company struct {
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	SIREN   string `json:"siren,omitempty" yaml:"siren,omitempty"`
	NAFCode string `json:"naf_code,omitempty" yaml:"naf_code,omitempty"`
}

var methodLabels = map[archetype.Method]string{
	archetype.MethodEBITDAMultiple:  "Multiple d'EBITDA",
	archetype.MethodRevenueMultiple: "Multiple du chiffre d'affaires",
	archetype.MethodDCF:             "Flux de trésorerie actualisés (DCF)",
	archetype.MethodNetAssets:       "Actif net réévalué",
	archetype.MethodComparables:     "Transactions comparables",
}

// MethodLabel returns the French name of a valuation method.
func MethodLabel(m archetype.Method) string {
	if l, ok := methodLabels[m]; ok {
		return l
	}
	return string(m)
}

func printer() *message.Printer { return message.NewPrinter(language.French) }

// Euros formats an amount rounded to the euro with French digit grouping.
func Euros(v float64) string {
	return printer().Sprintf("%.0f €", v)
}

// Percent formats a fraction as a French percentage with one decimal.
func Percent(fraction float64) string {
	return printer().Sprintf("%.1f %%", fraction*100)
}

// Summary writes the French Markdown report of r.
func Summary(r *evaluation.Result, c Company) string {
	var sb strings.Builder

	title := "Évaluation de l'entreprise"
	if c.Name != "" {
		title = "Évaluation de " + c.Name
	}
	sb.WriteString("# " + title + "\n\n")

	var ids []string
	if c.SIREN != "" {
		ids = append(ids, "SIREN : "+c.SIREN)
	}
	if c.NAFCode != "" {
		ids = append(ids, "NAF : "+c.NAFCode)
	}
	if len(ids) > 0 {
		sb.WriteString(strings.Join(ids, " · ") + "\n\n")
	}
	if r == nil {
		sb.WriteString("Aucun résultat d'évaluation.\n")
		return sb.String()
	}

	s := r.Sector
	if s.ArchetypeName != "" {
		sb.WriteString(printer().Sprintf("Profil retenu : **%s** (secteur %s).\n\n", s.ArchetypeName, s.Sector))
	}

	writeValuation(&sb, r)
	writeAdjustments(&sb, r)
	writeDiagnostic(&sb, r)

	if len(s.CommonMistakes) > 0 {
		sb.WriteString("## Points d'attention pour ce profil\n\n")
		for _, m := range s.CommonMistakes {
			sb.WriteString("- " + m + "\n")
		}
		sb.WriteString("\n")
	}

	if r.ReferenceVersion != "" {
		sb.WriteString("_Référentiel " + r.ReferenceVersion + ", données de marché " + strconv.Itoa(r.ReferenceAsOf) + "._\n")
	}
	return sb.String()
}

func writeValuation(sb *strings.Builder, r *evaluation.Result) {
	sb.WriteString("## Valorisation\n\n")
	if !r.HasValuation {
		sb.WriteString("Aucune méthode de valorisation ne s'applique aux données fournies. ")
		sb.WriteString("Complétez le chiffre d'affaires et le résultat d'exploitation pour obtenir une fourchette.\n\n")
		return
	}

	sb.WriteString("| | Bas | Central | Haut |\n")
	sb.WriteString("| --- | ---: | ---: | ---: |\n")
	writeBandRow(sb, "Valeur d'entreprise", r.EnterpriseValue)
	writeBandRow(sb, "Prix de cession", r.CessionPrice)
	sb.WriteString("\n")
	sb.WriteString(printer().Sprintf("Indice de confiance : **%s**.", r.Confidence))
	if r.NAVFloorApplied {
		sb.WriteString(" La borne basse est relevée au niveau de l'actif net réévalué.")
	}
	sb.WriteString("\n\n")

	sb.WriteString("### Méthodes\n\n")
	sb.WriteString("| Méthode | Poids | Bas | Haut |\n")
	sb.WriteString("| --- | ---: | ---: | ---: |\n")
	for _, m := range r.Methods {
		sb.WriteString(printer().Sprintf("| %s | %.0f %% | %s | %s |\n",
			cell(MethodLabel(m.Name)), m.Weight, Euros(m.ValueLow), Euros(m.ValueHigh)))
	}
	sb.WriteString("\n")

	if len(r.Bridge) > 0 {
		sb.WriteString("### De la valeur d'entreprise au prix de cession\n\n")
		sb.WriteString("| Étape | Taux | Bas | Haut |\n")
		sb.WriteString("| --- | ---: | ---: | ---: |\n")
		for _, st := range r.Bridge {
			rate := ""
			if st.Rate != 0 {
				rate = Percent(st.Rate)
			}
			sb.WriteString(printer().Sprintf("| %s | %s | %s | %s |\n", cell(st.Label), rate, Euros(st.Low), Euros(st.High)))
		}
		sb.WriteString("\n")
	}
}

func writeBandRow(sb *strings.Builder, label string, b valuation.Band) {
	sb.WriteString(printer().Sprintf("| %s | %s | %s | %s |\n", label, Euros(b.Low), Euros(b.Mid), Euros(b.High)))
}

func writeAdjustments(sb *strings.Builder, r *evaluation.Result) {
	sb.WriteString("## Retraitements\n\n")
	sb.WriteString(printer().Sprintf("EBITDA publié : %s. EBITDA retraité : %s.\n\n",
		Euros(r.EbitdaReported), Euros(r.EbitdaNormalized)))
	if len(r.Adjustments) == 0 {
		return
	}
	sb.WriteString("| Retraitement | Impact | Justification |\n")
	sb.WriteString("| --- | ---: | --- |\n")
	for _, a := range r.Adjustments {
		label := a.Label
		if label == "" {
			label = string(a.Kind)
		}
		sb.WriteString(printer().Sprintf("| %s | %s | %s |\n", cell(label), Euros(a.Impact), cell(a.Rationale)))
	}
	sb.WriteString("\n")
}

func writeDiagnostic(sb *strings.Builder, r *evaluation.Result) {
	d := r.Diagnostic
	sb.WriteString("## Diagnostic financier\n\n")
	sb.WriteString(printer().Sprintf("Note : **%s** (%d/100).\n\n", d.Grade, d.Score))
	if len(d.Strengths) > 0 {
		sb.WriteString("**Points forts**\n\n")
		for _, s := range d.Strengths {
			sb.WriteString("- " + s + "\n")
		}
		sb.WriteString("\n")
	}
	if len(d.Concerns) > 0 {
		sb.WriteString("**Points de vigilance**\n\n")
		for _, s := range d.Concerns {
			sb.WriteString("- " + s + "\n")
		}
		sb.WriteString("\n")
	}
}

// cell escapes text for a Markdown table cell.
func cell(text string) string {
	text = strings.ReplaceAll(strings.TrimSpace(text), "\n", " ")
	return strings.ReplaceAll(text, "|", "&#124;")
}

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithXHTML()),
)

// RenderHTML converts a Markdown report to an HTML fragment. Raw HTML in the
// input is omitted.
func RenderHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", eris.Wrap(err, "report: render html")
	}
	return buf.String(), nil
}
