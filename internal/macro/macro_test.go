package macro

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagecrest/cme-engine/internal/catalog"
	"github.com/sagecrest/cme-engine/internal/curve"
	"github.com/sagecrest/cme-engine/internal/overlay"
	"github.com/sagecrest/cme-engine/internal/track"
)

func TestForecastRGDP_Defaults(t *testing.T) {
	m := New(overlay.New(nil))

	result, err := m.ForecastRGDP(catalog.RegionUS)
	require.NoError(t, err)

	// productivity 1.2% + demographic(2.1) + adjustment -0.3% + population 0.4%
	want := 0.012 + curve.DemographicEffect(2.1) - 0.003 + 0.004
	assert.InDelta(t, want, result["rgdp_growth"].Val, 1e-12)
	assert.Equal(t, track.SourceComputed, result["rgdp_growth"].Source)
	assert.Equal(t, track.SourceDefault, result["population_growth"].Source)
	assert.Equal(t, track.SourceDefault, result["adjustment"].Source)
}

func TestForecastRGDP_EMAdjustment(t *testing.T) {
	m := New(overlay.New(nil))

	result, err := m.ForecastRGDP(catalog.RegionEM)
	require.NoError(t, err)
	assert.Equal(t, -0.005, result["adjustment"].Val)
}

func TestForecastRGDP_DirectOverride(t *testing.T) {
	m := New(overlay.New(map[string]any{
		"macro": map[string]any{
			"us": map[string]any{"rgdp_growth": 0.005},
		},
	}))

	result, err := m.ForecastRGDP(catalog.RegionUS)
	require.NoError(t, err)

	assert.Equal(t, track.Override(0.005), result["rgdp_growth"])
	// Output per capita is back-computed from the override.
	assert.InDelta(t, 0.005-0.004, result["output_per_capita_growth"].Val, 1e-12)
	// Building blocks that were short-circuited are not reported.
	_, ok := result["productivity_growth"]
	assert.False(t, ok)
}

func TestForecastRGDP_AdjustmentOverride(t *testing.T) {
	m := New(overlay.New(map[string]any{
		"macro": map[string]any{
			"us": map[string]any{"rgdp_adjustment": 0.0},
		},
	}))

	result, err := m.ForecastRGDP(catalog.RegionUS)
	require.NoError(t, err)
	assert.Equal(t, track.Override(0.0), result["adjustment"])
}

func TestForecastInflation_Blend(t *testing.T) {
	m := New(overlay.New(nil))

	result, err := m.ForecastInflation(catalog.RegionUS)
	require.NoError(t, err)

	// 0.30*2.5% + 0.70*2.2% = 2.29%
	assert.InDelta(t, 0.0229, result["inflation_forecast"].Val, 1e-12)
	assert.Equal(t, track.SourceComputed, result["inflation_forecast"].Source)
	assert.Equal(t, track.SourceDefault, result["long_term_inflation"].Source)
}

func TestForecastInflation_DirectOverride(t *testing.T) {
	m := New(overlay.New(map[string]any{
		"macro": map[string]any{
			"em": map[string]any{"inflation_forecast": 0.065},
		},
	}))

	result, err := m.ForecastInflation(catalog.RegionEM)
	require.NoError(t, err)
	assert.Equal(t, track.Override(0.065), result["inflation_forecast"])
}

func TestForecastInflation_LongTermOverride(t *testing.T) {
	m := New(overlay.New(map[string]any{
		"macro": map[string]any{
			"us": map[string]any{"long_term_inflation": 0.03},
		},
	}))

	result, err := m.ForecastInflation(catalog.RegionUS)
	require.NoError(t, err)
	assert.Equal(t, track.SourceOverride, result["long_term_inflation"].Source)
	assert.InDelta(t, 0.30*0.025+0.70*0.03, result["inflation_forecast"].Val, 1e-12)
}

func TestForecastTBill_Blend(t *testing.T) {
	m := New(overlay.New(nil))

	rgdp := 0.02
	inflation := 0.0229
	result, err := m.ForecastTBill(catalog.RegionUS, rgdp, inflation)
	require.NoError(t, err)

	longTerm := math.Max(-0.0075, 0.0+rgdp+inflation)
	want := 0.30*0.0367 + 0.70*longTerm
	assert.InDelta(t, want, result["tbill_forecast"].Val, 1e-12)
	assert.Equal(t, longTerm, result["long_term_tbill"].Val)
}

func TestForecastTBill_FloorBinds(t *testing.T) {
	m := New(overlay.New(nil))

	// Deeply negative growth and inflation push the long-term anchor to
	// the floor.
	result, err := m.ForecastTBill(catalog.RegionJapan, -0.10, -0.05)
	require.NoError(t, err)
	assert.Equal(t, -0.0075, result["long_term_tbill"].Val)
}

func TestForecastTBill_DirectOverride(t *testing.T) {
	m := New(overlay.New(map[string]any{
		"macro": map[string]any{
			"us": map[string]any{"tbill_forecast": 0.02},
		},
	}))

	result, err := m.ForecastTBill(catalog.RegionUS, 0.02, 0.023)
	require.NoError(t, err)
	assert.Equal(t, track.Override(0.02), result["tbill_forecast"])
	_, ok := result["long_term_tbill"]
	assert.False(t, ok)
}

func TestForecast_Full(t *testing.T) {
	m := New(overlay.New(nil))

	f, err := m.Forecast(catalog.RegionUS)
	require.NoError(t, err)

	assert.Equal(t, catalog.RegionUS, f.Region)
	assert.InDelta(t, f.RGDPGrowth+f.Inflation, f.NominalGDPGrowth, 1e-12)
	assert.Contains(t, f.Components, "rgdp")
	assert.Contains(t, f.Components, "inflation")
	assert.Contains(t, f.Components, "tbill")

	// The tbill section reuses the already computed rgdp and inflation.
	assert.Equal(t, f.RGDPGrowth, f.Components["tbill"]["rgdp_forecast"].Val)
	assert.Equal(t, f.Inflation, f.Components["tbill"]["inflation_forecast"].Val)
}

func TestForecast_UnknownRegion(t *testing.T) {
	m := New(overlay.New(nil))
	_, err := m.Forecast(catalog.Region("atlantis"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown region")
}

func TestGlobalRealGDPGrowth(t *testing.T) {
	m := New(overlay.New(nil))

	global, err := m.GlobalRealGDPGrowth()
	require.NoError(t, err)

	// Weighted average of the individual forecasts, renormalized.
	var total, weightSum float64
	for region, w := range catalog.GDPWeights {
		result, err := m.ForecastRGDP(region)
		require.NoError(t, err)
		total += w * result["rgdp_growth"].Val
		weightSum += w
	}
	assert.InDelta(t, total/weightSum, global, 1e-12)

	// EM has the largest weight, so pulling EM growth down moves the
	// global number down.
	stressed := New(overlay.New(map[string]any{
		"macro": map[string]any{"em": map[string]any{"rgdp_growth": 0.0}},
	}))
	lower, err := stressed.GlobalRealGDPGrowth()
	require.NoError(t, err)
	assert.Less(t, lower, global)
}
