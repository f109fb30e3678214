// Package macro forecasts real GDP growth, inflation, and T-Bill rates per
// region. These forecasts feed every asset-class model.
package macro

import (
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sagecrest/cme-engine/internal/catalog"
	"github.com/sagecrest/cme-engine/internal/curve"
	"github.com/sagecrest/cme-engine/internal/overlay"
	"github.com/sagecrest/cme-engine/internal/track"
)

// Forecast holds the complete macro forecast for one region.
type Forecast struct {
	Region           catalog.Region
	RGDPGrowth       float64
	Inflation        float64
	TBillRate        float64
	NominalGDPGrowth float64

	// Components holds the full intermediate tree with provenance,
	// keyed by section (rgdp, inflation, tbill) then field.
	Components map[string]map[string]track.Value
}

// Model computes macro forecasts from building blocks, honoring direct
// overrides of any final forecast.
type Model struct {
	res *overlay.Resolver
}

// New creates a macro model over the given resolver.
func New(res *overlay.Resolver) *Model {
	return &Model{res: res}
}

// ForecastRGDP forecasts real GDP growth for a region:
//
//	rgdp = productivity + demographic_effect(my_ratio) + adjustment + population
//
// A direct override of macro.<region>.rgdp_growth short-circuits the
// building blocks.
func (m *Model) ForecastRGDP(region catalog.Region) (map[string]track.Value, error) {
	if _, ok := catalog.MacroDefaults[region]; !ok {
		return nil, eris.Errorf("macro: unknown region %q", region)
	}
	inputs := m.res.MacroInputs(region)

	if v, ok := m.res.Lookup("macro", string(region), "rgdp_growth"); ok {
		population := inputs["population_growth"]
		return map[string]track.Value{
			"rgdp_growth":              track.Override(v),
			"population_growth":        population,
			"output_per_capita_growth": track.Computed(v - population.Val),
		}, nil
	}

	population := inputs["population_growth"]
	productivity := inputs["productivity_growth"]
	myRatio := inputs["my_ratio"]

	demographic := curve.DemographicEffect(myRatio.Val)

	adjustment := m.res.Resolve(catalog.RGDPAdjustment(region), "macro", string(region), "rgdp_adjustment")

	outputPerCapita := productivity.Val + demographic + adjustment.Val
	rgdp := outputPerCapita + population.Val

	return map[string]track.Value{
		"rgdp_growth":              track.Computed(rgdp),
		"population_growth":        population,
		"productivity_growth":      productivity,
		"my_ratio":                 myRatio,
		"demographic_effect":       track.Computed(demographic),
		"adjustment":               adjustment,
		"output_per_capita_growth": track.Computed(outputPerCapita),
	}, nil
}

// ForecastInflation forecasts inflation for a region:
//
//	inflation = 0.30*current_headline + 0.70*long_term + adjustment
//
// A direct override of macro.<region>.inflation_forecast short-circuits
// the blend.
func (m *Model) ForecastInflation(region catalog.Region) (map[string]track.Value, error) {
	if _, ok := catalog.MacroDefaults[region]; !ok {
		return nil, eris.Errorf("macro: unknown region %q", region)
	}
	inputs := m.res.MacroInputs(region)
	currentHeadline := inputs["current_headline_inflation"]

	if v, ok := m.res.Lookup("macro", string(region), "inflation_forecast"); ok {
		return map[string]track.Value{
			"inflation_forecast":         track.Override(v),
			"current_headline_inflation": currentHeadline,
			"long_term_inflation":        track.Computed(v),
		}, nil
	}

	longTerm := m.res.Resolve(catalog.LongTermInflation[region], "macro", string(region), "long_term_inflation")
	adjustment := m.res.Resolve(0.0, "macro", string(region), "inflation_adjustment")

	forecast := catalog.InflationCurrentWeight*currentHeadline.Val +
		catalog.InflationLongTermWeight*longTerm.Val +
		adjustment.Val

	return map[string]track.Value{
		"inflation_forecast":         track.Computed(forecast),
		"current_headline_inflation": currentHeadline,
		"long_term_inflation":        longTerm,
		"adjustment":                 adjustment,
		"current_weight":             track.Default(catalog.InflationCurrentWeight),
		"long_term_weight":           track.Default(catalog.InflationLongTermWeight),
	}, nil
}

// ForecastTBill forecasts the T-Bill rate for a region:
//
//	tbill = 0.30*current + 0.70*max(floor, country_factor + rgdp + inflation)
//
// The rgdp and inflation arguments are the region's already-computed
// forecasts. A direct override of macro.<region>.tbill_forecast
// short-circuits the blend.
func (m *Model) ForecastTBill(region catalog.Region, rgdp, inflation float64) (map[string]track.Value, error) {
	if _, ok := catalog.MacroDefaults[region]; !ok {
		return nil, eris.Errorf("macro: unknown region %q", region)
	}
	inputs := m.res.MacroInputs(region)
	currentTBill := inputs["current_tbill"]

	if v, ok := m.res.Lookup("macro", string(region), "tbill_forecast"); ok {
		return map[string]track.Value{
			"tbill_forecast": track.Override(v),
			"current_tbill":  currentTBill,
		}, nil
	}

	countryFactor := m.res.Resolve(catalog.CountryFactor[region], "macro", string(region), "country_factor")

	longTerm := math.Max(catalog.TBillRateFloor, countryFactor.Val+rgdp+inflation)

	forecast := catalog.TBillCurrentWeight*currentTBill.Val +
		catalog.TBillLongTermWeight*longTerm

	return map[string]track.Value{
		"tbill_forecast":     track.Computed(forecast),
		"current_tbill":      currentTBill,
		"long_term_tbill":    track.Computed(longTerm),
		"country_factor":     countryFactor,
		"rgdp_forecast":      track.Computed(rgdp),
		"inflation_forecast": track.Computed(inflation),
		"rate_floor":         track.Default(catalog.TBillRateFloor),
	}, nil
}

// Forecast computes the complete macro forecast for a region.
func (m *Model) Forecast(region catalog.Region) (*Forecast, error) {
	rgdpResult, err := m.ForecastRGDP(region)
	if err != nil {
		return nil, err
	}
	inflationResult, err := m.ForecastInflation(region)
	if err != nil {
		return nil, err
	}

	rgdp := rgdpResult["rgdp_growth"].Val
	inflation := inflationResult["inflation_forecast"].Val

	tbillResult, err := m.ForecastTBill(region, rgdp, inflation)
	if err != nil {
		return nil, err
	}
	tbill := tbillResult["tbill_forecast"].Val

	zap.L().Debug("macro: forecast computed",
		zap.String("region", string(region)),
		zap.Float64("rgdp_growth", rgdp),
		zap.Float64("inflation", inflation),
		zap.Float64("tbill_rate", tbill),
	)

	return &Forecast{
		Region:           region,
		RGDPGrowth:       rgdp,
		Inflation:        inflation,
		TBillRate:        tbill,
		NominalGDPGrowth: rgdp + inflation,
		Components: map[string]map[string]track.Value{
			"rgdp":      rgdpResult,
			"inflation": inflationResult,
			"tbill":     tbillResult,
		},
	}, nil
}

// GlobalRealGDPGrowth computes the GDP-weighted global growth forecast
// across all regions. Weights are renormalized to sum to one.
func (m *Model) GlobalRealGDPGrowth() (float64, error) {
	var totalWeight float64
	for _, w := range catalog.GDPWeights {
		totalWeight += w
	}

	var global float64
	for region, weight := range catalog.GDPWeights {
		result, err := m.ForecastRGDP(region)
		if err != nil {
			return 0, eris.Wrapf(err, "macro: global growth for region %s", region)
		}
		global += (weight / totalWeight) * result["rgdp_growth"].Val
	}

	return global, nil
}
