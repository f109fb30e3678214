package altret

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagecrest/cme-engine/internal/overlay"
	"github.com/sagecrest/cme-engine/internal/track"
)

const (
	testTBill     = 0.0329
	testInflation = 0.0229
)

func TestCompute_HistoricalPremia(t *testing.T) {
	m := New(overlay.New(nil))

	f, err := m.Compute(testTBill, testInflation, nil)
	require.NoError(t, err)

	// Without an equity forecast every factor uses half its historical
	// premium, market included.
	want := testTBill +
		0.30*(0.05*0.5) +
		0.10*(0.02*0.5) +
		0.05*(0.03*0.5) +
		0.05*(0.025*0.5) +
		0.05*(0.025*0.5) +
		0.10*(0.06*0.5) +
		0.01
	assert.InDelta(t, want, f.NominalReturn, 1e-12)
	assert.InDelta(t, f.NominalReturn-testInflation, f.RealReturn, 1e-12)
	assert.Equal(t, 0.01, f.TradingAlpha)
}

func TestCompute_MarketPremiumFromEquity(t *testing.T) {
	m := New(overlay.New(nil))

	usEquity := 0.065
	f, err := m.Compute(testTBill, testInflation, &usEquity)
	require.NoError(t, err)

	wantPremium := usEquity - testTBill
	assert.InDelta(t, 0.30*wantPremium, f.Contributions["market"], 1e-12)

	premium := f.Components["factors"]["premium_market"]
	assert.InDelta(t, wantPremium, premium.Val, 1e-12)
	assert.Equal(t, track.SourceComputed, premium.Source)

	// Non-market factors still use discounted history.
	assert.InDelta(t, 0.10*(0.06*0.5), f.Contributions["momentum"], 1e-12)
}

func TestCompute_BetaOverride(t *testing.T) {
	m := New(overlay.New(map[string]any{
		"absolute_return": map[string]any{"beta_market": 0.50},
	}))

	usEquity := 0.065
	f, err := m.Compute(testTBill, testInflation, &usEquity)
	require.NoError(t, err)

	assert.InDelta(t, 0.50*(usEquity-testTBill), f.Contributions["market"], 1e-12)
	assert.Equal(t, track.SourceOverride, f.Components["factors"]["beta_market"].Source)
}

func TestCompute_PremiumOverrideBeatsEquityDerivation(t *testing.T) {
	m := New(overlay.New(map[string]any{
		"absolute_return": map[string]any{"premium_market": 0.04},
	}))

	usEquity := 0.065
	f, err := m.Compute(testTBill, testInflation, &usEquity)
	require.NoError(t, err)

	premium := f.Components["factors"]["premium_market"]
	assert.Equal(t, 0.04, premium.Val)
	assert.Equal(t, track.SourceOverride, premium.Source)
	assert.InDelta(t, 0.30*0.04, f.Contributions["market"], 1e-12)
}

func TestCompute_AlphaOverride(t *testing.T) {
	m := New(overlay.New(map[string]any{
		"absolute_return": map[string]any{"trading_alpha": 0.0},
	}))

	f, err := m.Compute(testTBill, testInflation, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, f.TradingAlpha)
	assert.Equal(t, track.SourceOverride, f.Components["base"]["trading_alpha"].Source)
}

func TestCompute_ContributionsSum(t *testing.T) {
	m := New(overlay.New(nil))

	f, err := m.Compute(testTBill, testInflation, nil)
	require.NoError(t, err)

	var sum float64
	for _, c := range f.Contributions {
		sum += c
	}
	assert.InDelta(t, f.NominalReturn-testTBill-f.TradingAlpha, sum, 1e-12)
	assert.InDelta(t, sum, f.Components["base"]["factor_total"].Val, 1e-12)
	assert.Len(t, f.Contributions, 6)
}
