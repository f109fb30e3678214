package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagecrest/cme-engine/internal/catalog"
	"github.com/sagecrest/cme-engine/internal/track"
)

func newEngine(t *testing.T, overrides map[string]any, opts Options) *Engine {
	t.Helper()
	e, err := New(overrides, opts)
	require.NoError(t, err)
	return e
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, Options{BaseCurrency: "gbp"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown base currency")

	_, err = New(nil, Options{EquityModel: "capm"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown model")

	e := newEngine(t, nil, Options{})
	assert.Equal(t, "usd", e.BaseCurrency())
	assert.Equal(t, "ra", string(e.EquityModel()))
}

func TestComputeAll_NoOverrideInvariant(t *testing.T) {
	e := newEngine(t, nil, Options{})

	result, err := e.ComputeAll("Base Case")
	require.NoError(t, err)

	assert.Len(t, result.Results, len(catalog.Assets))
	assert.Empty(t, result.OverridesApplied)
	assert.Empty(t, result.FXForecasts)

	// With no overrides, no input anywhere may carry an override or
	// affected tag.
	for asset, r := range result.Results {
		for name, input := range r.Inputs {
			assert.NotEqual(t, string(track.SourceOverride), input.Source,
				"%s input %s", asset, name)
		}
		for name, dep := range r.MacroDependencies {
			assert.NotEqual(t, track.SourceOverride, dep.Source, "%s dep %s", asset, name)
			assert.NotEqual(t, track.SourceAffected, dep.Source, "%s dep %s", asset, name)
		}
	}
}

func TestComputeAll_LiquidityEqualsUSTBill(t *testing.T) {
	e := newEngine(t, nil, Options{})

	result, err := e.ComputeAll("Base Case")
	require.NoError(t, err)

	liquidity := result.Asset(catalog.Liquidity)
	require.NotNil(t, liquidity)

	// Cash is the US T-Bill rate by construction: no FX, no spread.
	assert.Equal(t, result.MacroSummary[catalog.RegionUS].TBillRate, liquidity.NominalReturn)
	assert.Equal(t, liquidity.NominalReturn, liquidity.Components["tbill_rate"])
	assert.InDelta(t, liquidity.NominalReturn-result.MacroSummary[catalog.RegionUS].Inflation,
		liquidity.RealReturn, 1e-12)
}

func TestComputeAll_OverridePrecedence(t *testing.T) {
	e := newEngine(t, map[string]any{
		"macro": map[string]any{
			"us": map[string]any{"inflation_forecast": 0.045},
		},
	}, Options{})

	result, err := e.ComputeAll("Inflation Shock")
	require.NoError(t, err)

	assert.Equal(t, 0.045, result.MacroSummary[catalog.RegionUS].Inflation)

	hy := result.Asset(catalog.BondsHY)
	require.NotNil(t, hy)
	assert.Equal(t, track.SourceOverride, hy.MacroDependencies["inflation"].Source)
	assert.Equal(t, 0.045, hy.MacroDependencies["inflation"].ValueUsed)
}

func TestProvenancePropagation_TBillAffected(t *testing.T) {
	cases := []struct {
		name      string
		overrides map[string]any
	}{
		{"rgdp override", map[string]any{
			"macro": map[string]any{"us": map[string]any{"rgdp_growth": 0.005}},
		}},
		{"inflation override", map[string]any{
			"macro": map[string]any{"us": map[string]any{"inflation_forecast": 0.045}},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEngine(t, tc.overrides, Options{})

			bonds, err := e.ComputeBondsGlobal()
			require.NoError(t, err)

			// T-Bill itself was not overridden, but its building blocks
			// were, so the dependency tag must flip.
			assert.Equal(t, track.SourceAffected, bonds.MacroDependencies["tbill"].Source)
		})
	}
}

func TestProvenancePropagation_DirectTBillOverrideWins(t *testing.T) {
	e := newEngine(t, map[string]any{
		"macro": map[string]any{
			"us": map[string]any{"tbill_forecast": 0.02, "rgdp_growth": 0.005},
		},
	}, Options{})

	bonds, err := e.ComputeBondsGlobal()
	require.NoError(t, err)
	assert.Equal(t, track.SourceOverride, bonds.MacroDependencies["tbill"].Source)
	assert.Equal(t, 0.02, bonds.MacroDependencies["tbill"].ValueUsed)
}

func TestStressOverrides_HYCreditLossAndRealShift(t *testing.T) {
	baseline := newEngine(t, nil, Options{})
	base, err := baseline.ComputeAll("Baseline")
	require.NoError(t, err)

	stressed := newEngine(t, map[string]any{
		"macro":    map[string]any{"us": map[string]any{"inflation_forecast": 0.045}},
		"bonds_hy": map[string]any{"default_rate": 0.08},
	}, Options{})
	stress, err := stressed.ComputeAll("Stress")
	require.NoError(t, err)

	hy := stress.Asset(catalog.BondsHY)
	require.NotNil(t, hy)

	// Credit loss reflects the overridden default rate with the default
	// 40% recovery.
	assert.InDelta(t, 0.08*(1-0.40), hy.Components["credit_loss"], 1e-12)

	// Real return subtracts the overridden US inflation, not EM's.
	baseHY := base.Asset(catalog.BondsHY)
	inflationDelta := 0.045 - base.MacroSummary[catalog.RegionUS].Inflation
	nominalDelta := hy.NominalReturn - baseHY.NominalReturn
	assert.InDelta(t, nominalDelta-inflationDelta, hy.RealReturn-baseHY.RealReturn, 1e-12)
	assert.InDelta(t, hy.NominalReturn-0.045, hy.RealReturn, 1e-12)
}

func TestCacheInvalidation(t *testing.T) {
	e := newEngine(t, nil, Options{})

	before, err := e.ComputeLiquidity()
	require.NoError(t, err)

	// A new override must take effect on the next computation; a stale
	// cache would keep returning the old T-Bill rate.
	e.SetOverrides(map[string]any{
		"macro": map[string]any{"us": map[string]any{"tbill_forecast": 0.02}},
	})
	after, err := e.ComputeLiquidity()
	require.NoError(t, err)

	assert.NotEqual(t, before.NominalReturn, after.NominalReturn)
	assert.Equal(t, 0.02, after.NominalReturn)

	e.ClearOverrides()
	restored, err := e.ComputeLiquidity()
	require.NoError(t, err)
	assert.Equal(t, before.NominalReturn, restored.NominalReturn)
}

func TestSetOverrides_MergesDeep(t *testing.T) {
	e := newEngine(t, map[string]any{
		"macro": map[string]any{"us": map[string]any{"inflation_forecast": 0.045}},
	}, Options{})

	e.SetOverrides(map[string]any{
		"macro": map[string]any{"us": map[string]any{"rgdp_growth": 0.005}},
	})

	overrides := e.Overrides()
	us := overrides["macro"].(map[string]any)["us"].(map[string]any)
	assert.Equal(t, 0.045, us["inflation_forecast"])
	assert.Equal(t, 0.005, us["rgdp_growth"])
}

func TestEURBase_FXApplied(t *testing.T) {
	e := newEngine(t, nil, Options{BaseCurrency: "eur"})

	result, err := e.ComputeAll("EUR View")
	require.NoError(t, err)

	// USD-denominated bonds pick up an FX component for a EUR investor.
	bonds := result.Asset(catalog.BondsGlobal)
	require.NotNil(t, bonds)
	assert.Contains(t, bonds.Components, "fx_return")
	assert.Contains(t, bonds.Inputs, "fx_carry_differential")

	// Euro-denominated equity needs no adjustment.
	europe := result.Asset(catalog.EquityEurope)
	require.NotNil(t, europe)
	assert.NotContains(t, europe.Components, "fx_return")

	// Liquidity follows the base region: eurozone T-Bill.
	liquidity := result.Asset(catalog.Liquidity)
	assert.Equal(t, result.MacroSummary[catalog.RegionEurozone].TBillRate, liquidity.NominalReturn)

	require.Len(t, result.FXForecasts, 3)
	for _, ccy := range []string{"usd", "jpy", "em"} {
		assert.Contains(t, result.FXForecasts, ccy)
	}

	// The fx_return on USD bonds matches the published usd path.
	assert.InDelta(t, result.FXForecasts["usd"].Change, bonds.Components["fx_return"], 1e-12)
}

func TestUSDBase_NoFX(t *testing.T) {
	e := newEngine(t, nil, Options{})

	result, err := e.ComputeAll("USD View")
	require.NoError(t, err)
	assert.Empty(t, result.FXForecasts)

	// Non-USD equity still carries FX for the USD investor.
	japan := result.Asset(catalog.EquityJapan)
	require.NotNil(t, japan)
	assert.Contains(t, japan.Components, "fx_return")

	// USD assets do not.
	us := result.Asset(catalog.EquityUS)
	assert.NotContains(t, us.Components, "fx_return")
}

func TestGKModel_RevenueDependencies(t *testing.T) {
	e := newEngine(t, nil, Options{EquityModel: "gk"})

	result, err := e.ComputeEquity(catalog.EquityUS)
	require.NoError(t, err)

	assert.Contains(t, result.Components, "revenue_growth")
	assert.Contains(t, result.MacroDependencies, "rgdp")
	assert.Contains(t, result.MacroDependencies, "inflation")
	assert.Equal(t, []string{"revenue_growth", "expected_return_nominal"},
		result.MacroDependencies["inflation"].Affects)
}

func TestGKModel_RevenueOverrideBreaksLinkage(t *testing.T) {
	e := newEngine(t, map[string]any{
		"equity_us": map[string]any{"revenue_growth": 0.03},
	}, Options{EquityModel: "gk"})

	result, err := e.ComputeEquity(catalog.EquityUS)
	require.NoError(t, err)

	assert.Equal(t, 0.03, result.Components["revenue_growth"])
	assert.NotContains(t, result.MacroDependencies, "rgdp")
	assert.Equal(t, []string{"expected_return_real"},
		result.MacroDependencies["inflation"].Affects)
}

func TestAbsoluteReturn_EquityLinkage(t *testing.T) {
	e := newEngine(t, nil, Options{})

	result, err := e.ComputeAbsoluteReturn()
	require.NoError(t, err)

	dep, ok := result.MacroDependencies["us_equity_return"]
	require.True(t, ok)
	assert.Equal(t, track.SourceComputed, dep.Source)

	// Overriding US inflation moves US equity, tainting the market factor.
	stressed := newEngine(t, map[string]any{
		"macro": map[string]any{"us": map[string]any{"inflation_forecast": 0.045}},
	}, Options{})
	result, err = stressed.ComputeAbsoluteReturn()
	require.NoError(t, err)
	assert.Equal(t, track.SourceAffected, result.MacroDependencies["us_equity_return"].Source)
}

func TestGlobalGDP_AffectedByRegionalOverride(t *testing.T) {
	e := newEngine(t, map[string]any{
		"macro": map[string]any{"em": map[string]any{"rgdp_growth": 0.0}},
	}, Options{})

	result, err := e.ComputeEquity(catalog.EquityUS)
	require.NoError(t, err)
	assert.Equal(t, track.SourceAffected, result.MacroDependencies["global_gdp_cap"].Source)
}

func TestComputeAsset_UnknownAsset(t *testing.T) {
	e := newEngine(t, nil, Options{})
	_, err := e.ComputeAsset(catalog.AssetClass("crypto"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown asset class")
}

func TestCompare_IndependentScenarios(t *testing.T) {
	base, stress, err := Compare(
		nil,
		map[string]any{"macro": map[string]any{"us": map[string]any{"inflation_forecast": 0.045}}},
		"Baseline", "Inflation Shock", Options{},
	)
	require.NoError(t, err)

	assert.Equal(t, "Baseline", base.ScenarioName)
	assert.Equal(t, "Inflation Shock", stress.ScenarioName)
	assert.NotEqual(t, base.RunID, stress.RunID)
	assert.NotEqual(t,
		base.MacroSummary[catalog.RegionUS].Inflation,
		stress.MacroSummary[catalog.RegionUS].Inflation)
}

func TestScenarioResult_Metadata(t *testing.T) {
	e := newEngine(t, nil, Options{BaseCurrency: "usd", EquityModel: "gk", HorizonYears: 10})

	result, err := e.ComputeAll("Metadata Check")
	require.NoError(t, err)

	assert.Equal(t, "Metadata Check", result.ScenarioName)
	assert.Equal(t, "usd", result.BaseCurrency)
	assert.Equal(t, "gk", result.EquityModel)
	assert.Equal(t, 10, result.HorizonYears)
	assert.NotZero(t, result.RunID)
	assert.False(t, result.GeneratedAt.IsZero())
	assert.Len(t, result.MacroSummary, 4)
	assert.Positive(t, result.GlobalRGDPGrowth)
}
