// Package ingest converts every supported source (registry lookup, document
// extraction, spreadsheets, manual tables) into []finance.FinancialYear.
package ingest

import (
	"strings"

	"github.com/rotisserie/eris"
)

// ErrInvalidSIREN is returned for identifiers failing length or checksum.
var ErrInvalidSIREN = eris.New("ingest: invalid SIREN")

// ErrInvalidSIRET is returned for establishment identifiers failing validation.
var ErrInvalidSIRET = eris.New("ingest: invalid SIRET")

// laPosteSIREN identifies La Poste, whose establishments use a digit-sum rule.
const laPosteSIREN = "356000000"

// ValidateSIREN checks a 9-digit company identifier and returns it without
// separators. Spaces, dots and dashes are tolerated.
func ValidateSIREN(raw string) (string, error) {
	siren := stripSeparators(raw)
	if len(siren) != 9 || !allDigits(siren) {
		return "", eris.Wrapf(ErrInvalidSIREN, "%q: expected 9 digits", raw)
	}
	if siren != laPosteSIREN && !luhnValid(siren) {
		return "", eris.Wrapf(ErrInvalidSIREN, "%q: checksum mismatch", raw)
	}
	return siren, nil
}

// ValidateSIRET checks a 14-digit establishment identifier and returns it
// without separators.
func ValidateSIRET(raw string) (string, error) {
	siret := stripSeparators(raw)
	if len(siret) != 14 || !allDigits(siret) {
		return "", eris.Wrapf(ErrInvalidSIRET, "%q: expected 14 digits", raw)
	}
	if strings.HasPrefix(siret, laPosteSIREN) {
		if digitSum(siret)%5 != 0 {
			return "", eris.Wrapf(ErrInvalidSIRET, "%q: checksum mismatch", raw)
		}
		return siret, nil
	}
	if !luhnValid(siret) {
		return "", eris.Wrapf(ErrInvalidSIRET, "%q: checksum mismatch", raw)
	}
	return siret, nil
}

// luhnValid applies the Luhn checksum, doubling every second digit from the right.
func luhnValid(digits string) bool {
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

func digitSum(digits string) int {
	sum := 0
	for i := 0; i < len(digits); i++ {
		sum += int(digits[i] - '0')
	}
	return sum
}

func stripSeparators(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '.', '-', '\u00a0', '\u202f', '\t':
			return -1
		}
		return r
	}, s)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
