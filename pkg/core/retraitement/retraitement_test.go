package retraitement

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_OwnerSalary(t *testing.T) {
	s := NewSet(OwnerSalary(20_000, 60_000))

	got, err := Apply(300_000, s)
	require.NoError(t, err)
	assert.Equal(t, 260_000.0, got)
}

func TestApply_EmptySetIsIdentity(t *testing.T) {
	for _, ebitda := range []float64{0, -12_345.67, 300_000, 1e9} {
		got, err := Apply(ebitda, &Set{})
		require.NoError(t, err)
		assert.Equal(t, ebitda, got)

		got, err = Apply(ebitda, nil)
		require.NoError(t, err)
		assert.Equal(t, ebitda, got)
	}
}

func TestApply_SumsEveryImpact(t *testing.T) {
	s := NewSet(
		OwnerSalary(30_000, 70_000),
		Rent(24_000, 36_000),
		LeaseReinstatement(18_500),
		ExceptionalCharges(7_250.5),
	)
	got, err := Apply(120_000, s)
	require.NoError(t, err)

	assert.Equal(t, 120_000+s.TotalImpact(), got)
	assert.Equal(t, 93_750.5, got)
}

func TestApply_NegativeResultIsNotClamped(t *testing.T) {
	got, err := Apply(10_000, NewSet(OwnerSalary(0, 80_000)))
	require.NoError(t, err)
	assert.Equal(t, -70_000.0, got)
}

func TestApply_MissingRationale(t *testing.T) {
	s := NewSet(Adjustment{Kind: KindOther, Impact: 5_000})
	_, err := Apply(100_000, s)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrMissingRationale))
	assert.Contains(t, err.Error(), "other")
}

func TestApply_ZeroImpactNeedsNoRationale(t *testing.T) {
	s := NewSet(Adjustment{Kind: KindOther, Impact: 0})
	got, err := Apply(100_000, s)
	require.NoError(t, err)
	assert.Equal(t, 100_000.0, got)
}

func TestSet_PutReplacesSameKindInPlace(t *testing.T) {
	s := NewSet(OwnerSalary(10, 20), Rent(5, 5))
	s.Put(OwnerSalary(50, 20))

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, KindOwnerSalary, items[0].Kind)
	assert.Equal(t, 30.0, items[0].Impact)
	assert.Equal(t, KindRent, items[1].Kind)
}

func TestSet_RemoveAndItemsCopy(t *testing.T) {
	s := NewSet(OwnerSalary(10, 20), ExceptionalCharges(3))
	items := s.Items()
	items[0].Impact = 999

	a, ok := s.Get(KindOwnerSalary)
	require.True(t, ok)
	assert.Equal(t, -10.0, a.Impact)

	assert.True(t, s.Remove(KindOwnerSalary))
	assert.False(t, s.Remove(KindOwnerSalary))
	assert.Equal(t, 1, s.Len())
}

func TestBuilders_CarryRationale(t *testing.T) {
	for _, a := range []Adjustment{
		OwnerSalary(1, 2), Rent(1, 2), LeaseReinstatement(1), ExceptionalCharges(1),
	} {
		assert.NotEmpty(t, a.Rationale, string(a.Kind))
		assert.NotEmpty(t, a.Label, string(a.Kind))
	}
}
