// Package equity implements two interchangeable equity return models: the
// earnings-yield methodology (dividend yield + blended EPS growth + CAEY
// reversion) and the Grinold-Kroner decomposition. The methodology is a
// run-time choice made once per engine instance.
package equity

import (
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sagecrest/cme-engine/internal/catalog"
	"github.com/sagecrest/cme-engine/internal/overlay"
	"github.com/sagecrest/cme-engine/internal/track"
)

// Kind selects the equity methodology.
type Kind string

const (
	// KindRA is the dividend/earnings/valuation decomposition with CAEY
	// mean reversion.
	KindRA Kind = "ra"
	// KindGK is the Grinold-Kroner decomposition.
	KindGK Kind = "gk"
)

// ParseKind validates an equity-model identifier.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindRA, KindGK:
		return Kind(s), nil
	}
	return "", eris.Errorf("equity: unknown model %q", s)
}

// Forecast holds a complete equity return forecast. The populated
// component fields depend on the methodology.
type Forecast struct {
	Kind Kind

	NominalReturn float64
	RealReturn    float64

	// RA components.
	DividendYield   float64
	RealEPSGrowth   float64
	ValuationChange float64

	// GK components (DividendYield and ValuationChange are shared).
	NetBuybackYield float64
	RevenueGrowth   float64
	MarginChange    float64
	// RevenueGrowthComputed is false when the caller overrode revenue
	// growth directly, breaking the macro linkage.
	RevenueGrowthComputed bool

	// Inflation used to move between real and nominal.
	Inflation float64

	// Components holds the full intermediate tree with provenance.
	Components map[string]map[string]track.Value
}

// Model prices the four equity regions under the selected methodology.
type Model struct {
	res  *overlay.Resolver
	kind Kind
}

// New creates an equity model of the given kind.
func New(res *overlay.Resolver, kind Kind) *Model {
	return &Model{res: res, kind: kind}
}

// Kind returns the selected methodology.
func (m *Model) Kind() Kind { return m.kind }

// Compute produces the forecast for one equity asset class. For the RA
// methodology inflation and globalRGDP drive the result; for GK, inflation
// and the region's own rgdp feed revenue growth.
func (m *Model) Compute(asset catalog.AssetClass, inflation, rgdp, globalRGDP float64, horizon int) (*Forecast, error) {
	if _, ok := catalog.EquityMacroRegion[asset]; !ok {
		return nil, eris.Errorf("equity: %q is not an equity asset class", asset)
	}
	if horizon <= 0 {
		return nil, eris.Errorf("equity: horizon must be positive, got %d", horizon)
	}

	if m.kind == KindGK {
		return m.computeGK(asset, inflation, rgdp, horizon)
	}
	return m.computeRA(asset, inflation, globalRGDP, horizon)
}

func (m *Model) computeRA(asset catalog.AssetClass, inflation, globalRGDP float64, horizon int) (*Forecast, error) {
	inputs := m.res.AssetInputs(asset)

	dividendYield := inputs["dividend_yield"]

	epsResult := blendedEPSGrowth(inputs, globalRGDP)
	eps := epsResult["real_eps_growth"].Val

	valResult := caeyValuation(inputs, horizon)
	valuation := valResult["valuation_change"].Val

	real := dividendYield.Val + eps + valuation
	nominal := real + inflation

	zap.L().Debug("equity: return computed",
		zap.String("asset", string(asset)),
		zap.String("model", string(KindRA)),
		zap.Float64("nominal", nominal),
	)

	return &Forecast{
		Kind:            KindRA,
		NominalReturn:   nominal,
		RealReturn:      real,
		DividendYield:   dividendYield.Val,
		RealEPSGrowth:   eps,
		ValuationChange: valuation,
		Inflation:       inflation,
		Components: map[string]map[string]track.Value{
			"dividend":  {"dividend_yield": dividendYield},
			"eps":       epsResult,
			"valuation": valResult,
		},
	}, nil
}

// blendedEPSGrowth averages country and regional EPS growth and caps the
// blend at global GDP growth. The cap only ever lowers the estimate.
func blendedEPSGrowth(inputs map[string]track.Value, globalRGDP float64) map[string]track.Value {
	country := inputs["real_eps_growth"]
	regional := inputs["regional_eps_growth"]

	blended := catalog.EquityCountryWeight*country.Val + catalog.EquityRegionalWeight*regional.Val

	capped := math.Min(blended, globalRGDP)
	wasCapped := 0.0
	if capped < blended {
		wasCapped = 1.0
	}

	return map[string]track.Value{
		"real_eps_growth":     track.Computed(capped),
		"country_eps_growth":  country,
		"regional_eps_growth": regional,
		"blended_eps_growth":  track.Computed(blended),
		"was_capped":          track.Computed(wasCapped),
		"global_gdp_cap":      track.Computed(globalRGDP),
	}
}

// caeyValuation simulates CAEY reverting toward fair value. The per-year
// change is (fair/current)^(speed/reversion_years)-1; the valuation effect
// is the horizon average of the implied annual price changes. Zero or
// negative earnings yields short-circuit to no valuation effect, since
// those are plausible stress overrides rather than errors.
func caeyValuation(inputs map[string]track.Value, horizon int) map[string]track.Value {
	current := inputs["current_caey"]
	fair := inputs["fair_caey"]
	speed := inputs["reversion_speed"]

	var annualChange, avgValuation float64
	if current.Val > 0 && fair.Val > 0 {
		annualChange = math.Pow(fair.Val/current.Val, speed.Val/catalog.CAEYFullReversionYears) - 1

		var cumulative float64
		caey := current.Val
		for year := 0; year < horizon; year++ {
			next := caey * (1 + annualChange)
			cumulative += caey/next - 1 // price change from the yield move
			caey = next
		}
		avgValuation = cumulative / float64(horizon)
	}

	return map[string]track.Value{
		"valuation_change":     track.Computed(avgValuation),
		"current_caey":         current,
		"fair_caey":            fair,
		"reversion_speed":      speed,
		"caey_annual_change":   track.Computed(annualChange),
		"full_reversion_years": track.Default(catalog.CAEYFullReversionYears),
	}
}

func (m *Model) computeGK(asset catalog.AssetClass, inflation, rgdp float64, horizon int) (*Forecast, error) {
	inputs := m.res.GKAssetInputs(asset)

	dividendYield := inputs["dividend_yield"]
	buyback := inputs["net_buyback_yield"]
	margin := inputs["margin_change"]
	wedge := inputs["revenue_gdp_wedge"]

	// Revenue growth auto-derives from macro unless overridden directly.
	// It has no catalog default, so it must be resolved by path rather
	// than through the bulk input map.
	revenue := track.Computed(inflation + rgdp + wedge.Val)
	revenueComputed := true
	if v, ok := m.res.Lookup(string(asset), "revenue_growth"); ok {
		revenue = track.Override(v)
		revenueComputed = false
	}

	valResult := peValuation(inputs, horizon)
	valuation := valResult["valuation_change"].Val

	nominal := dividendYield.Val + buyback.Val + revenue.Val + margin.Val + valuation
	real := nominal - inflation

	zap.L().Debug("equity: return computed",
		zap.String("asset", string(asset)),
		zap.String("model", string(KindGK)),
		zap.Float64("nominal", nominal),
	)

	return &Forecast{
		Kind:                  KindGK,
		NominalReturn:         nominal,
		RealReturn:            real,
		DividendYield:         dividendYield.Val,
		NetBuybackYield:       buyback.Val,
		RevenueGrowth:         revenue.Val,
		MarginChange:          margin.Val,
		ValuationChange:       valuation,
		RevenueGrowthComputed: revenueComputed,
		Inflation:             inflation,
		Components: map[string]map[string]track.Value{
			"income": {
				"dividend_yield":    dividendYield,
				"net_buyback_yield": buyback,
			},
			"growth": {
				"revenue_growth":    revenue,
				"revenue_gdp_wedge": wedge,
				"margin_change":     margin,
			},
			"valuation": valResult,
		},
	}, nil
}

// peValuation converges the current P/E toward the target P/E over the
// horizon: (target/current)^(1/horizon)-1. Non-positive multiples
// short-circuit to no valuation effect.
func peValuation(inputs map[string]track.Value, horizon int) map[string]track.Value {
	current := inputs["current_pe"]
	target := inputs["target_pe"]

	var valuation float64
	if current.Val > 0 && target.Val > 0 {
		valuation = math.Pow(target.Val/current.Val, 1/float64(horizon)) - 1
	}

	return map[string]track.Value{
		"valuation_change": track.Computed(valuation),
		"current_pe":       current,
		"target_pe":        target,
	}
}

// GKAssetDefaultsApplied reports whether a GK overlay exists for an asset.
// Used by display layers when labeling catalog values.
func GKAssetDefaultsApplied(asset catalog.AssetClass) bool {
	_, ok := catalog.GKAssetOverlay[asset]
	return ok
}
