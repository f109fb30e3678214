// Package engine orchestrates the macro, bond, equity, hedge-fund, and FX
// models into complete scenario results with per-asset macro-dependency
// explanations.
//
// One Engine instance owns one scenario's worth of state: an override
// resolver shared by every model and a macro-forecast cache. Instances are
// not safe for concurrent use; run concurrent scenarios on independent
// instances.
package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sagecrest/cme-engine/internal/altret"
	"github.com/sagecrest/cme-engine/internal/bonds"
	"github.com/sagecrest/cme-engine/internal/catalog"
	"github.com/sagecrest/cme-engine/internal/equity"
	"github.com/sagecrest/cme-engine/internal/fx"
	"github.com/sagecrest/cme-engine/internal/macro"
	"github.com/sagecrest/cme-engine/internal/overlay"
	"github.com/sagecrest/cme-engine/internal/track"
)

// Options configures one engine instance.
type Options struct {
	// BaseCurrency is the currency returns are expressed in ("usd" or
	// "eur"). Defaults to "usd".
	BaseCurrency string
	// EquityModel selects the equity methodology ("ra" or "gk").
	// Defaults to "ra".
	EquityModel string
	// HorizonYears is the forecast horizon. Defaults to 10.
	HorizonYears int
}

// Engine computes capital market expectations across all asset classes.
type Engine struct {
	res        *overlay.Resolver
	base       string
	baseRegion catalog.Region
	kind       equity.Kind
	horizon    int

	macroModel  *macro.Model
	equityModel *equity.Model
	// raEquity always runs the RA methodology; the hedge-fund market
	// premium is derived from it regardless of the selected equity model.
	raEquity  *equity.Model
	govBonds  *bonds.Model
	hyBonds   *bonds.Model
	emBonds   *bonds.Model
	hedgeFund *altret.Model

	cache *forecastCache
}

// New creates an engine over the given override structure.
func New(overrides map[string]any, opts Options) (*Engine, error) {
	if opts.BaseCurrency == "" {
		opts.BaseCurrency = "usd"
	}
	base, err := catalog.ParseBaseCurrency(opts.BaseCurrency)
	if err != nil {
		return nil, eris.Wrap(err, "engine: base currency")
	}

	if opts.EquityModel == "" {
		opts.EquityModel = string(equity.KindRA)
	}
	kind, err := equity.ParseKind(opts.EquityModel)
	if err != nil {
		return nil, eris.Wrap(err, "engine: equity model")
	}

	horizon := opts.HorizonYears
	if horizon == 0 {
		horizon = catalog.HorizonYears
	}
	if horizon < 0 {
		return nil, eris.Errorf("engine: horizon must be positive, got %d", horizon)
	}

	cache, err := newForecastCache()
	if err != nil {
		return nil, err
	}

	res := overlay.New(overrides)
	return &Engine{
		res:         res,
		base:        base,
		baseRegion:  catalog.BaseCurrencyRegion(base),
		kind:        kind,
		horizon:     horizon,
		macroModel:  macro.New(res),
		equityModel: equity.New(res, kind),
		raEquity:    equity.New(res, equity.KindRA),
		govBonds:    bonds.NewGovernment(res),
		hyBonds:     bonds.NewHighYield(res),
		emBonds:     bonds.NewEM(res),
		hedgeFund:   altret.New(res),
		cache:       cache,
	}, nil
}

// BaseCurrency returns the engine's base currency.
func (e *Engine) BaseCurrency() string { return e.base }

// EquityModel returns the selected equity methodology.
func (e *Engine) EquityModel() equity.Kind { return e.kind }

// SetOverrides deep-merges new overrides into the current set and
// invalidates the macro cache.
func (e *Engine) SetOverrides(overrides map[string]any) {
	e.res.Merge(overrides)
	e.cache.invalidate()
}

// ClearOverrides drops every override and invalidates the macro cache.
func (e *Engine) ClearOverrides() {
	e.res.Clear()
	e.cache.invalidate()
}

// Overrides returns a deep copy of the active override structure.
func (e *Engine) Overrides() map[string]any {
	return e.res.Snapshot()
}

// MacroForecasts returns the cached macro forecasts for every region.
func (e *Engine) MacroForecasts() (map[catalog.Region]*macro.Forecast, error) {
	out := make(map[catalog.Region]*macro.Forecast, len(catalog.Regions))
	for _, region := range catalog.Regions {
		f, err := e.cache.forecast(e.macroModel, region)
		if err != nil {
			return nil, err
		}
		out[region] = f
	}
	return out, nil
}

// GlobalRGDPGrowth returns the cached GDP-weighted global growth forecast.
func (e *Engine) GlobalRGDPGrowth() (float64, error) {
	return e.cache.global(e.macroModel)
}

// macroSources maps every macro input path ("region.field") to override or
// default, plus the derived global growth tag. These drive the
// affected_by_override propagation in dependency explanations.
func (e *Engine) macroSources() map[string]track.Source {
	direct := []string{"inflation_forecast", "rgdp_growth", "tbill_forecast"}
	blocks := []string{
		"population_growth", "productivity_growth", "my_ratio",
		"current_headline_inflation", "long_term_inflation",
		"current_tbill", "country_factor",
	}

	sources := map[string]track.Source{}
	for _, region := range catalog.Regions {
		for _, field := range append(append([]string{}, direct...), blocks...) {
			key := string(region) + "." + field
			if e.res.Has("macro." + key) {
				sources[key] = track.SourceOverride
			} else {
				sources[key] = track.SourceDefault
			}
		}
	}

	// Global growth is derived, so any regional growth override taints it.
	globalAffected := false
	for _, region := range catalog.Regions {
		for _, field := range []string{"rgdp_growth", "population_growth", "productivity_growth", "my_ratio"} {
			if sources[string(region)+"."+field] == track.SourceOverride {
				globalAffected = true
			}
		}
	}
	if globalAffected {
		sources["global.rgdp_growth"] = track.SourceAffected
	} else {
		sources["global.rgdp_growth"] = track.SourceComputed
	}

	return sources
}

// depSpec selects which macro dependencies an asset carries.
type depSpec struct {
	assetType string // "liquidity", "bond", "equity", "hedge_fund"
	region    catalog.Region
	tbill     bool
	inflation bool
	gdpCap    bool
}

func (e *Engine) buildMacroDeps(spec depSpec, macros map[catalog.Region]*macro.Forecast, sources map[string]track.Source) (map[string]MacroDependency, error) {
	deps := map[string]MacroDependency{}
	regionMacro := macros[spec.region]

	if spec.tbill {
		source := sources[string(spec.region)+".tbill_forecast"]
		// T-Bill derives from growth and inflation, so overriding either
		// taints an otherwise-default T-Bill.
		if source == track.SourceDefault {
			gdp := sources[string(spec.region)+".rgdp_growth"]
			inf := sources[string(spec.region)+".inflation_forecast"]
			if gdp == track.SourceOverride || inf == track.SourceOverride {
				source = track.SourceAffected
			}
		}

		var impact string
		affects := []string{"expected_return_nominal"}
		switch spec.assetType {
		case "liquidity":
			impact = fmt.Sprintf("T-Bill rate is the direct cash return (%.2f%%)", regionMacro.TBillRate*100)
		case "bond":
			impact = "Base rate for yield calculation"
			affects = []string{"yield", "expected_return_nominal"}
		default:
			impact = "Risk-free rate component"
		}

		deps["tbill"] = MacroDependency{
			MacroInput: string(spec.region) + ".tbill_forecast",
			ValueUsed:  regionMacro.TBillRate,
			Source:     source,
			Affects:    affects,
			Impact:     impact,
		}
	}

	if spec.inflation {
		source := sources[string(spec.region)+".inflation_forecast"]

		var impact string
		affects := []string{"expected_return_real"}
		switch spec.assetType {
		case "equity":
			impact = fmt.Sprintf("Added to real return for nominal (%.2f%%)", regionMacro.Inflation*100)
			affects = []string{"expected_return_nominal"}
		case "bond":
			impact = "Subtracted from nominal for real return"
		default:
			impact = "Inflation forecast for region"
		}

		deps["inflation"] = MacroDependency{
			MacroInput: string(spec.region) + ".inflation_forecast",
			ValueUsed:  regionMacro.Inflation,
			Source:     source,
			Affects:    affects,
			Impact:     impact,
		}
	}

	if spec.gdpCap {
		global, err := e.GlobalRGDPGrowth()
		if err != nil {
			return nil, err
		}
		deps["global_gdp_cap"] = MacroDependency{
			MacroInput: "global.rgdp_growth",
			ValueUsed:  global,
			Source:     sources["global.rgdp_growth"],
			Affects:    []string{"real_eps_growth"},
			Impact:     fmt.Sprintf("Caps EPS growth at %.2f%% (GDP-weighted global average)", global*100),
		}
	}

	return deps, nil
}

// ComputeLiquidity prices cash as the base currency region's T-Bill rate.
func (e *Engine) ComputeLiquidity() (*AssetResult, error) {
	macros, err := e.MacroForecasts()
	if err != nil {
		return nil, err
	}
	sources := e.macroSources()

	regionMacro := macros[e.baseRegion]
	nominal := regionMacro.TBillRate
	real := nominal - regionMacro.Inflation

	deps, err := e.buildMacroDeps(depSpec{
		assetType: "liquidity",
		region:    e.baseRegion,
		tbill:     true,
		inflation: true,
	}, macros, sources)
	if err != nil {
		return nil, err
	}

	// Surface the T-Bill building blocks as this asset's inputs.
	inputs := map[string]track.Flat{}
	for field, v := range regionMacro.Components["tbill"] {
		inputs[field] = track.Flat{Value: v.Val, Source: string(v.Source)}
	}

	return &AssetResult{
		Asset:             catalog.Liquidity.DisplayName(),
		Key:               catalog.Liquidity,
		NominalReturn:     nominal,
		RealReturn:        real,
		Volatility:        catalog.ExpectedVolatility[catalog.Liquidity],
		Components:        map[string]float64{"tbill_rate": nominal},
		Inputs:            inputs,
		MacroDependencies: deps,
	}, nil
}

// bondResult assembles the common bond result shape.
func (e *Engine) bondResult(asset catalog.AssetClass, f *bonds.Forecast, macros map[catalog.Region]*macro.Forecast, sources map[string]track.Source) (*AssetResult, error) {
	// All USD bond sleeves key their dependencies off US macro.
	deps, err := e.buildMacroDeps(depSpec{
		assetType: "bond",
		region:    catalog.RegionUS,
		tbill:     true,
		inflation: true,
	}, macros, sources)
	if err != nil {
		return nil, err
	}

	return &AssetResult{
		Asset:         asset.DisplayName(),
		Key:           asset,
		NominalReturn: f.NominalReturn,
		RealReturn:    f.RealReturn,
		Volatility:    catalog.ExpectedVolatility[asset],
		Components: map[string]float64{
			"yield":       f.YieldComponent,
			"roll_return": f.RollReturn,
			"valuation":   f.ValuationReturn,
			"credit_loss": f.CreditLoss,
		},
		Inputs:            flattenSections(f.Components),
		MacroDependencies: deps,
	}, nil
}

// ComputeBondsGlobal prices developed government bonds off US macro, the
// US sleeve standing in for the developed aggregate.
func (e *Engine) ComputeBondsGlobal() (*AssetResult, error) {
	macros, err := e.MacroForecasts()
	if err != nil {
		return nil, err
	}
	us := macros[catalog.RegionUS]

	f, err := e.govBonds.Compute(us.TBillRate, us.Inflation, e.horizon)
	if err != nil {
		return nil, err
	}
	return e.bondResult(catalog.BondsGlobal, f, macros, e.macroSources())
}

// ComputeBondsHY prices high-yield bonds off US macro.
func (e *Engine) ComputeBondsHY() (*AssetResult, error) {
	macros, err := e.MacroForecasts()
	if err != nil {
		return nil, err
	}
	us := macros[catalog.RegionUS]

	f, err := e.hyBonds.Compute(us.TBillRate, us.Inflation, e.horizon)
	if err != nil {
		return nil, err
	}
	return e.bondResult(catalog.BondsHY, f, macros, e.macroSources())
}

// ComputeBondsEM prices hard-currency EM debt: US T-Bill plus the EM
// spread, US inflation for the real-return subtraction.
func (e *Engine) ComputeBondsEM() (*AssetResult, error) {
	macros, err := e.MacroForecasts()
	if err != nil {
		return nil, err
	}
	us := macros[catalog.RegionUS]

	f, err := e.emBonds.ComputeEM(us.TBillRate, us.Inflation, e.horizon, nil, true)
	if err != nil {
		return nil, err
	}
	return e.bondResult(catalog.BondsEM, f, macros, e.macroSources())
}

// ComputeEquity prices one equity region under the selected methodology.
func (e *Engine) ComputeEquity(asset catalog.AssetClass) (*AssetResult, error) {
	region, ok := catalog.EquityMacroRegion[asset]
	if !ok {
		return nil, eris.Errorf("engine: %q is not an equity asset class", asset)
	}

	macros, err := e.MacroForecasts()
	if err != nil {
		return nil, err
	}
	global, err := e.GlobalRGDPGrowth()
	if err != nil {
		return nil, err
	}
	sources := e.macroSources()
	regionMacro := macros[region]

	f, err := e.equityModel.Compute(asset, regionMacro.Inflation, regionMacro.RGDPGrowth, global, e.horizon)
	if err != nil {
		return nil, err
	}

	var components map[string]float64
	var deps map[string]MacroDependency

	if f.Kind == equity.KindGK {
		components = map[string]float64{
			"dividend_yield":    f.DividendYield,
			"net_buyback_yield": f.NetBuybackYield,
			"revenue_growth":    f.RevenueGrowth,
			"margin_change":     f.MarginChange,
			"valuation_change":  f.ValuationChange,
		}
		deps = e.gkMacroDeps(region, regionMacro, f, sources)
	} else {
		components = map[string]float64{
			"dividend_yield":   f.DividendYield,
			"real_eps_growth":  f.RealEPSGrowth,
			"valuation_change": f.ValuationChange,
		}
		deps, err = e.buildMacroDeps(depSpec{
			assetType: "equity",
			region:    region,
			inflation: true,
			gdpCap:    true,
		}, macros, sources)
		if err != nil {
			return nil, err
		}
	}

	return &AssetResult{
		Asset:             asset.DisplayName(),
		Key:               asset,
		NominalReturn:     f.NominalReturn,
		RealReturn:        f.RealReturn,
		Volatility:        catalog.ExpectedVolatility[asset],
		Components:        components,
		Inputs:            flattenSections(f.Components),
		MacroDependencies: deps,
	}, nil
}

// gkMacroDeps explains the Grinold-Kroner macro linkage: inflation and GDP
// flow through revenue growth unless revenue growth was overridden, in
// which case inflation only affects the real-return back-computation.
func (e *Engine) gkMacroDeps(region catalog.Region, regionMacro *macro.Forecast, f *equity.Forecast, sources map[string]track.Source) map[string]MacroDependency {
	infSource := sources[string(region)+".inflation_forecast"]
	gdpSource := sources[string(region)+".rgdp_growth"]

	if !f.RevenueGrowthComputed {
		return map[string]MacroDependency{
			"inflation": {
				MacroInput: string(region) + ".inflation_forecast",
				ValueUsed:  regionMacro.Inflation,
				Source:     infSource,
				Affects:    []string{"expected_return_real"},
				Impact:     fmt.Sprintf("Used for real return back-computation (%.2f%%)", regionMacro.Inflation*100),
			},
		}
	}

	return map[string]MacroDependency{
		"inflation": {
			MacroInput: string(region) + ".inflation_forecast",
			ValueUsed:  regionMacro.Inflation,
			Source:     infSource,
			Affects:    []string{"revenue_growth", "expected_return_nominal"},
			Impact:     fmt.Sprintf("Flows into revenue growth (%.2f%% of %.2f%%)", regionMacro.Inflation*100, f.RevenueGrowth*100),
		},
		"rgdp": {
			MacroInput: string(region) + ".rgdp_growth",
			ValueUsed:  regionMacro.RGDPGrowth,
			Source:     gdpSource,
			Affects:    []string{"revenue_growth", "expected_return_nominal"},
			Impact:     fmt.Sprintf("Flows into revenue growth (%.2f%% of %.2f%%)", regionMacro.RGDPGrowth*100, f.RevenueGrowth*100),
		},
	}
}

// ComputeAbsoluteReturn prices hedge funds off the base region's T-Bill,
// with the market factor premium derived from the US RA equity forecast.
func (e *Engine) ComputeAbsoluteReturn() (*AssetResult, error) {
	macros, err := e.MacroForecasts()
	if err != nil {
		return nil, err
	}
	global, err := e.GlobalRGDPGrowth()
	if err != nil {
		return nil, err
	}
	sources := e.macroSources()

	baseMacro := macros[e.baseRegion]
	us := macros[catalog.RegionUS]

	// The market premium is a global risk premium, so it always derives
	// from US equity under the RA methodology.
	usEquity, err := e.raEquity.Compute(catalog.EquityUS, us.Inflation, us.RGDPGrowth, global, e.horizon)
	if err != nil {
		return nil, err
	}

	f, err := e.hedgeFund.Compute(baseMacro.TBillRate, baseMacro.Inflation, &usEquity.NominalReturn)
	if err != nil {
		return nil, err
	}

	deps, err := e.buildMacroDeps(depSpec{
		assetType: "hedge_fund",
		region:    e.baseRegion,
		tbill:     true,
		inflation: true,
	}, macros, sources)
	if err != nil {
		return nil, err
	}

	// The market factor inherits any override that moved US equity.
	equitySource := track.SourceComputed
	if sources["us.inflation_forecast"] == track.SourceOverride ||
		sources["global.rgdp_growth"] == track.SourceAffected {
		equitySource = track.SourceAffected
	}
	deps["us_equity_return"] = MacroDependency{
		MacroInput: "us.equity_return",
		ValueUsed:  usEquity.NominalReturn,
		Source:     equitySource,
		Affects:    []string{"factor_return"},
		Impact:     fmt.Sprintf("US equity return (%.2f%%) used for market factor premium", usEquity.NominalReturn*100),
	}

	factorTotal := f.Components["base"]["factor_total"].Val

	return &AssetResult{
		Asset:         catalog.AbsoluteReturn.DisplayName(),
		Key:           catalog.AbsoluteReturn,
		NominalReturn: f.NominalReturn,
		RealReturn:    f.RealReturn,
		Volatility:    catalog.ExpectedVolatility[catalog.AbsoluteReturn],
		Components: map[string]float64{
			"tbill":         f.TBillRate,
			"factor_return": factorTotal,
			"trading_alpha": f.TradingAlpha,
		},
		Inputs:            flattenSections(f.Components),
		MacroDependencies: deps,
	}, nil
}

// ComputeAsset computes one asset class's result, FX-adjusted into the
// base currency.
func (e *Engine) ComputeAsset(asset catalog.AssetClass) (*AssetResult, error) {
	var result *AssetResult
	var err error

	switch asset {
	case catalog.Liquidity:
		result, err = e.ComputeLiquidity()
	case catalog.BondsGlobal:
		result, err = e.ComputeBondsGlobal()
	case catalog.BondsHY:
		result, err = e.ComputeBondsHY()
	case catalog.BondsEM:
		result, err = e.ComputeBondsEM()
	case catalog.EquityUS, catalog.EquityEurope, catalog.EquityJapan, catalog.EquityEM:
		result, err = e.ComputeEquity(asset)
	case catalog.AbsoluteReturn:
		result, err = e.ComputeAbsoluteReturn()
	default:
		return nil, eris.Errorf("engine: unknown asset class %q", asset)
	}
	if err != nil {
		return nil, err
	}

	if err := e.applyFX(result, asset); err != nil {
		return nil, err
	}
	return result, nil
}

// applyFX folds the expected currency move into a result when the asset's
// local currency differs from the base currency.
func (e *Engine) applyFX(result *AssetResult, asset catalog.AssetClass) error {
	local, ok := catalog.LocalCurrency[asset]
	if !ok {
		local = "usd"
	}

	macros, err := e.MacroForecasts()
	if err != nil {
		return err
	}

	change, err := fx.ForAsset(e.base, e.baseRegion, local, macros)
	if err != nil {
		return err
	}
	if change == nil || change.Annual == 0 {
		return nil
	}

	result.NominalReturn += change.Annual
	result.RealReturn += change.Annual
	result.Components["fx_return"] = change.Annual

	for _, field := range []string{
		"home_tbill", "foreign_tbill",
		"home_inflation", "foreign_inflation",
		"carry_differential", "ppp_differential",
	} {
		v := change.Components[field]
		result.Inputs["fx_"+field] = track.Flat{Value: v.Val, Source: string(v.Source)}
	}

	return nil
}

// FXForecasts returns the expected currency paths for a non-USD base
// currency; nil for a USD base.
func (e *Engine) FXForecasts() (map[string]FXSummary, error) {
	if e.base == "usd" {
		return nil, nil
	}

	macros, err := e.MacroForecasts()
	if err != nil {
		return nil, err
	}
	home := macros[e.baseRegion]

	out := map[string]FXSummary{}
	for _, foreign := range []string{"usd", "jpy", "em"} {
		if foreign == e.base {
			continue
		}
		region, err := catalog.CurrencyRegion(foreign)
		if err != nil {
			return nil, err
		}
		change, err := fx.ForecastChange(home, macros[region])
		if err != nil {
			return nil, err
		}
		out[foreign] = FXSummary{
			Change: change.Annual,
			Carry:  change.Components["carry_differential"].Val,
			PPP:    change.Components["ppp_differential"].Val,
		}
	}
	return out, nil
}

// ComputeAll computes every asset class plus the macro and FX summaries.
func (e *Engine) ComputeAll(scenarioName string) (*ScenarioResult, error) {
	results := make(map[catalog.AssetClass]*AssetResult, len(catalog.Assets))
	for _, asset := range catalog.Assets {
		r, err := e.ComputeAsset(asset)
		if err != nil {
			return nil, eris.Wrapf(err, "engine: compute %s", asset)
		}
		results[asset] = r
	}

	macros, err := e.MacroForecasts()
	if err != nil {
		return nil, err
	}
	summary := make(map[catalog.Region]RegionSummary, len(macros))
	for region, f := range macros {
		summary[region] = RegionSummary{
			RGDPGrowth: f.RGDPGrowth,
			Inflation:  f.Inflation,
			TBillRate:  f.TBillRate,
		}
	}

	global, err := e.GlobalRGDPGrowth()
	if err != nil {
		return nil, err
	}

	fxForecasts, err := e.FXForecasts()
	if err != nil {
		return nil, err
	}

	result := &ScenarioResult{
		RunID:            uuid.New(),
		ScenarioName:     scenarioName,
		GeneratedAt:      time.Now().UTC(),
		BaseCurrency:     e.base,
		EquityModel:      string(e.kind),
		HorizonYears:     e.horizon,
		Results:          results,
		MacroSummary:     summary,
		GlobalRGDPGrowth: global,
		FXForecasts:      fxForecasts,
		OverridesApplied: e.res.Snapshot(),
	}

	zap.L().Info("engine: scenario computed",
		zap.String("run_id", result.RunID.String()),
		zap.String("scenario", scenarioName),
		zap.String("base_currency", e.base),
		zap.String("equity_model", string(e.kind)),
		zap.Int("assets", len(results)),
	)

	return result, nil
}

// Compare runs a base and a stress scenario on independent engine
// instances and returns both results.
func Compare(baseOverrides, stressOverrides map[string]any, baseName, stressName string, opts Options) (*ScenarioResult, *ScenarioResult, error) {
	baseEngine, err := New(baseOverrides, opts)
	if err != nil {
		return nil, nil, err
	}
	base, err := baseEngine.ComputeAll(baseName)
	if err != nil {
		return nil, nil, err
	}

	stressEngine, err := New(stressOverrides, opts)
	if err != nil {
		return nil, nil, err
	}
	stress, err := stressEngine.ComputeAll(stressName)
	if err != nil {
		return nil, nil, err
	}

	return base, stress, nil
}
