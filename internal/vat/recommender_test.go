package vat

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestRecommendAboveCeilingForcesStandard(t *testing.T) {
	rec := Recommend(amount("2000000"), decimal.Zero, false)
	require.Equal(t, SchemeStandard, rec.Scheme)
	require.Contains(t, rec.Reason, "ceiling")
}

func TestRecommendSmallTurnoverSuggestsFlatRate(t *testing.T) {
	rec := Recommend(amount("80000"), decimal.Zero, false)
	require.Equal(t, SchemeFlatRate, rec.Scheme)
}

func TestRecommendSmallLimitedCostTraderAvoidsFlatRate(t *testing.T) {
	rec := Recommend(amount("80000"), decimal.Zero, true)
	require.NotEqual(t, SchemeFlatRate, rec.Scheme)
}

func TestRecommendHighUnpaidRatioSuggestsCashBasis(t *testing.T) {
	rec := Recommend(amount("500000"), amount("0.35"), false)
	require.Equal(t, SchemeCashBasis, rec.Scheme)
}

func TestRecommendDefaultsToStandard(t *testing.T) {
	rec := Recommend(amount("500000"), amount("0.05"), false)
	require.Equal(t, SchemeStandard, rec.Scheme)
	require.NotEmpty(t, rec.Reason)
}

func TestRecommendBoundaries(t *testing.T) {
	// Exactly at the ceiling is not above it.
	rec := Recommend(standardCeiling, decimal.Zero, true)
	require.Equal(t, SchemeStandard, rec.Scheme)

	// Exactly 20% unpaid does not tip into cash basis.
	rec = Recommend(amount("500000"), amount("0.20"), false)
	require.Equal(t, SchemeStandard, rec.Scheme)
}
