// Package retraitement applies normalization adjustments to reported EBITDA.
package retraitement

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Kind names an adjustment. A Set holds at most one adjustment per kind.
type Kind string

const (
	KindOwnerSalary        Kind = "owner_salary"
	KindRent               Kind = "rent"
	KindLeaseReinstatement Kind = "lease_reinstatement"
	KindExceptionalCharges Kind = "exceptional_charges"
	KindOther              Kind = "other"
)

// ErrMissingRationale is returned when a non-zero adjustment carries no rationale.
var ErrMissingRationale = eris.New("retraitement: adjustment without rationale")

// Adjustment is a signed correction to reported EBITDA, in euros.
type Adjustment struct {
	Kind      Kind    `json:"kind" yaml:"kind"`
	Label     string  `json:"label,omitempty" yaml:"label,omitempty"`
	Impact    float64 `json:"impact" yaml:"impact"`
	Rationale string  `json:"rationale,omitempty" yaml:"rationale,omitempty"`
}

// Set is an ordered collection of adjustments keyed by kind. The zero value is
// ready to use. Sums are taken in insertion order so that results are stable.
type Set struct {
	items []Adjustment
}

// NewSet builds a Set from adjustments, later entries replacing earlier
// entries of the same kind.
func NewSet(adjs ...Adjustment) *Set {
	s := &Set{}
	for _, a := range adjs {
		s.Put(a)
	}
	return s
}

// Put adds an adjustment or replaces the existing one of the same kind in place.
func (s *Set) Put(a Adjustment) {
	for i := range s.items {
		if s.items[i].Kind == a.Kind {
			s.items[i] = a
			return
		}
	}
	s.items = append(s.items, a)
}

// Remove deletes the adjustment of the given kind, if any.
func (s *Set) Remove(k Kind) bool {
	for i := range s.items {
		if s.items[i].Kind == k {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

// Get returns the adjustment of the given kind.
func (s *Set) Get(k Kind) (Adjustment, bool) {
	if s == nil {
		return Adjustment{}, false
	}
	for _, a := range s.items {
		if a.Kind == k {
			return a, true
		}
	}
	return Adjustment{}, false
}

// Items returns a copy of the adjustments in insertion order.
func (s *Set) Items() []Adjustment {
	if s == nil {
		return nil
	}
	out := make([]Adjustment, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of adjustments.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// TotalImpact sums the impacts in insertion order.
func (s *Set) TotalImpact() float64 {
	total := 0.0
	if s == nil {
		return total
	}
	for _, a := range s.items {
		total += a.Impact
	}
	return total
}

// Apply returns ebitdaReported plus the sum of impacts. The result is not
// floored: a negative normalized EBITDA is a valid outcome.
func Apply(ebitdaReported float64, s *Set) (float64, error) {
	if s != nil {
		for _, a := range s.items {
			if a.Impact != 0 && strings.TrimSpace(a.Rationale) == "" {
				return 0, eris.Wrapf(ErrMissingRationale, "kind %s", a.Kind)
			}
		}
	}
	return ebitdaReported + s.TotalImpact(), nil
}

// =============================================================================
// BUILDERS
// =============================================================================

// OwnerSalary corrects the owner's remuneration to a market level. An owner
// paid below market yields a negative impact.
func OwnerSalary(actual, market float64) Adjustment {
	return Adjustment{
		Kind:   KindOwnerSalary,
		Label:  "Rémunération du dirigeant",
		Impact: actual - market,
		Rationale: fmt.Sprintf(
			"Rémunération du dirigeant ramenée au niveau de marché (%.0f € versés contre %.0f € normatifs)",
			actual, market),
	}
}

// Rent corrects a non-market rent, typically premises owned by the founder.
func Rent(actual, market float64) Adjustment {
	return Adjustment{
		Kind:   KindRent,
		Label:  "Loyer",
		Impact: actual - market,
		Rationale: fmt.Sprintf(
			"Loyer retraité au prix de marché (%.0f € payés contre %.0f € de marché)",
			actual, market),
	}
}

// LeaseReinstatement adds back lease payments booked as operating charges.
func LeaseReinstatement(annualPayments float64) Adjustment {
	return Adjustment{
		Kind:      KindLeaseReinstatement,
		Label:     "Retraitement du crédit-bail",
		Impact:    annualPayments,
		Rationale: fmt.Sprintf("Redevances de crédit-bail réintégrées (%.0f € par an)", annualPayments),
	}
}

// ExceptionalCharges adds back one-off charges that will not recur.
func ExceptionalCharges(amount float64) Adjustment {
	return Adjustment{
		Kind:      KindExceptionalCharges,
		Label:     "Charges exceptionnelles",
		Impact:    amount,
		Rationale: fmt.Sprintf("Charges non récurrentes neutralisées (%.0f €)", amount),
	}
}
