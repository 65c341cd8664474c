package archetype

import (
	"strings"
	"unicode"
)

// Sector is a coarse activity category.
type Sector string

const (
	SectorTech         Sector = "tech"
	SectorSaaS         Sector = "saas"
	SectorMarketplace  Sector = "marketplace"
	SectorEcommerce    Sector = "ecommerce"
	SectorConseil      Sector = "conseil"
	SectorServices     Sector = "services"
	SectorCommerce     Sector = "commerce"
	SectorRestauration Sector = "restauration"
	SectorIndustrie    Sector = "industrie"
	SectorBTP          Sector = "btp"
	SectorImmobilier   Sector = "immobilier"
	SectorSante        Sector = "sante"
	SectorTransport    Sector = "transport"
	SectorAutre        Sector = "autre"
)

// sectorAliases maps lowercase labels to sectors. Canonical names map to
// themselves.
var sectorAliases = map[string]Sector{
	"tech":            SectorTech,
	"technologie":     SectorTech,
	"numerique":       SectorTech,
	"informatique":    SectorTech,
	"saas":            SectorSaaS,
	"logiciel":        SectorSaaS,
	"software":        SectorSaaS,
	"marketplace":     SectorMarketplace,
	"place de marche": SectorMarketplace,
	"ecommerce":       SectorEcommerce,
	"e-commerce":      SectorEcommerce,
	"vente en ligne":  SectorEcommerce,
	"conseil":         SectorConseil,
	"consulting":      SectorConseil,
	"services":        SectorServices,
	"service":         SectorServices,
	"commerce":        SectorCommerce,
	"retail":          SectorCommerce,
	"negoce":          SectorCommerce,
	"restauration":    SectorRestauration,
	"restaurant":      SectorRestauration,
	"hotellerie":      SectorRestauration,
	"hotel":           SectorRestauration,
	"industrie":       SectorIndustrie,
	"btp":             SectorBTP,
	"construction":    SectorBTP,
	"batiment":        SectorBTP,
	"immobilier":      SectorImmobilier,
	"real estate":     SectorImmobilier,
	"sante":           SectorSante,
	"medical":         SectorSante,
	"transport":       SectorTransport,
	"logistique":      SectorTransport,
	"autre":           SectorAutre,
}

// ParseSector maps a free label to a sector. ok is false for unknown labels.
func ParseSector(label string) (Sector, bool) {
	s, ok := sectorAliases[foldLabel(label)]
	return s, ok
}

// foldLabel lowercases, trims and strips the French accents used in labels.
func foldLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	r := strings.NewReplacer(
		"é", "e", "è", "e", "ê", "e", "ë", "e",
		"à", "a", "â", "a", "î", "i", "ï", "i",
		"ô", "o", "û", "u", "ù", "u", "ç", "c",
		"_", " ",
	)
	return r.Replace(s)
}

// nafPrefixes maps NAF rev.2 code prefixes (digits only) to sectors. Longer
// prefixes are tried first.
var nafPrefixes = map[string]Sector{
	// 4-digit refinements
	"5821": SectorSaaS,
	"5829": SectorSaaS,
	"4791": SectorEcommerce,
	"6312": SectorMarketplace,
	"6820": SectorImmobilier,

	// Divisions
	"10": SectorIndustrie, "11": SectorIndustrie, "13": SectorIndustrie, "14": SectorIndustrie,
	"15": SectorIndustrie, "16": SectorIndustrie, "17": SectorIndustrie, "18": SectorIndustrie,
	"20": SectorIndustrie, "21": SectorIndustrie, "22": SectorIndustrie, "23": SectorIndustrie,
	"24": SectorIndustrie, "25": SectorIndustrie, "26": SectorIndustrie, "27": SectorIndustrie,
	"28": SectorIndustrie, "29": SectorIndustrie, "30": SectorIndustrie, "31": SectorIndustrie,
	"32": SectorIndustrie, "33": SectorIndustrie,
	"41": SectorBTP, "42": SectorBTP, "43": SectorBTP,
	"45": SectorCommerce, "46": SectorCommerce, "47": SectorCommerce,
	"49": SectorTransport, "50": SectorTransport, "51": SectorTransport, "52": SectorTransport, "53": SectorTransport,
	"55": SectorRestauration, "56": SectorRestauration,
	"58": SectorTech, "62": SectorTech, "63": SectorTech,
	"68": SectorImmobilier,
	"69": SectorConseil, "70": SectorConseil, "71": SectorConseil, "73": SectorConseil, "74": SectorConseil,
	"77": SectorServices, "78": SectorServices, "79": SectorServices, "80": SectorServices,
	"81": SectorServices, "82": SectorServices, "95": SectorServices, "96": SectorServices,
	"75": SectorSante, "86": SectorSante, "87": SectorSante, "88": SectorSante,
}

// SectorFromNAF maps a NAF code such as "62.01Z" to a sector.
func SectorFromNAF(code string) (Sector, bool) {
	digits := make([]rune, 0, 4)
	for _, r := range code {
		if unicode.IsDigit(r) {
			digits = append(digits, r)
		}
	}
	d := string(digits)
	for _, n := range []int{4, 2} {
		if len(d) < n {
			continue
		}
		if s, ok := nafPrefixes[d[:n]]; ok {
			return s, true
		}
	}
	return "", false
}

// ResolveSector returns the declared sector when recognized, otherwise the
// sector implied by the NAF code, otherwise SectorAutre.
func ResolveSector(label, nafCode string) Sector {
	if s, ok := ParseSector(label); ok {
		return s
	}
	if s, ok := SectorFromNAF(nafCode); ok {
		return s
	}
	return SectorAutre
}

// IsSoftware reports whether the sector sells software or digital services.
func (s Sector) IsSoftware() bool {
	return s == SectorSaaS || s == SectorTech
}
