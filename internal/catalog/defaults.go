package catalog

import (
	"fmt"
	"sort"
)

// Forecast horizon and blend weights shared across models.
const (
	// HorizonYears is the forecast horizon for every expected return.
	HorizonYears = 10

	// Inflation forecast blend: 30% current headline, 70% long-term anchor.
	InflationCurrentWeight  = 0.30
	InflationLongTermWeight = 0.70

	// T-Bill forecast blend and floor on the long-term component.
	TBillCurrentWeight  = 0.30
	TBillLongTermWeight = 0.70
	TBillRateFloor      = -0.0075

	// Region-class adjustment applied inside output-per-capita growth.
	RGDPAdjustmentDeveloped = -0.003
	RGDPAdjustmentEmerging  = -0.005

	// Monthly reversion rate behind the partial term-premium reversion
	// fraction 1-(1-rate)^(12*horizon).
	MonthlyReversionRate = 0.03

	// Assumed index maturity for the roll-down approximation.
	RollMaturityYears = 10.0

	// Full CAEY reversion period for the earnings-yield valuation model.
	CAEYFullReversionYears = 20.0

	// EPS growth blend between country and regional trends.
	EquityCountryWeight  = 0.50
	EquityRegionalWeight = 0.50

	// Fraction of the spread gap high yield closes over the horizon.
	HYSpreadReversionFraction = 0.50

	// Haircut applied to historical factor premia and trading alpha.
	FactorHistoricalDiscount = 0.50

	// EMHardCurrencySpread is the spread added to the US T-Bill when no
	// EM-specific rate is supplied. The upstream methodology hardcodes
	// this placeholder rather than deriving it from data.
	EMHardCurrencySpread = 0.02
)

// BondTermPremiumBounds are the configured reversion-speed bounds for the
// term-premium path; the speed used is the magnitude of the lower bound.
var BondTermPremiumBounds = [2]float64{-1.0, -0.015}

// BondTermPremiumReversionSpeed is the per-year speed at which the term
// premium steps toward its fair value.
var BondTermPremiumReversionSpeed = -BondTermPremiumBounds[0]

// MacroDefaults holds the baseline macro inputs per region.
var MacroDefaults = map[Region]map[string]float64{
	RegionUS: {
		"current_headline_inflation": 0.025,  // 2.5%
		"current_tbill":              0.0367, // 3-month UST yield
		"population_growth":          0.004,
		"productivity_growth":        0.012,
		"my_ratio":                   2.1,
	},
	RegionEurozone: {
		"current_headline_inflation": 0.022,
		"current_tbill":              0.0204, // 3m Euribor
		"population_growth":          0.001,
		"productivity_growth":        0.010,
		"my_ratio":                   2.3,
	},
	RegionJapan: {
		"current_headline_inflation": 0.020,
		"current_tbill":              0.0075, // BOJ policy rate
		"population_growth":          -0.005,
		"productivity_growth":        0.008,
		"my_ratio":                   2.5,
	},
	RegionEM: {
		"current_headline_inflation": 0.045,
		"current_tbill":              0.060,
		"population_growth":          0.010,
		"productivity_growth":        0.025,
		"my_ratio":                   1.5,
	},
}

// LongTermInflation holds the long-term inflation anchor per region.
var LongTermInflation = map[Region]float64{
	RegionUS:       0.022, // Fed target plus a small buffer
	RegionEurozone: 0.020, // ECB target
	RegionJapan:    0.015,
	RegionEM:       0.035,
}

// CountryFactor holds the liquidity-premium adjustment inside the
// long-term T-Bill anchor per region.
var CountryFactor = map[Region]float64{
	RegionUS:       0.0,
	RegionEurozone: -0.002,
	RegionJapan:    -0.005,
	RegionEM:       0.005,
}

// RGDPAdjustment returns the region-class adjustment used in output per
// capita growth.
func RGDPAdjustment(r Region) float64 {
	if r == RegionEM {
		return RGDPAdjustmentEmerging
	}
	return RGDPAdjustmentDeveloped
}

// GDPWeights are the approximate GDP weights used for the global growth
// aggregate.
var GDPWeights = map[Region]float64{
	RegionUS:       0.26,
	RegionEurozone: 0.15,
	RegionJapan:    0.05,
	RegionEM:       0.40, // includes China, India, etc.
}

// CreditParams hold the default loss assumptions per credit type.
type CreditParams struct {
	DefaultRate    float64
	RecoveryRate   float64
	TransitionRate float64
}

// CreditDefaults holds credit assumptions by credit type.
var CreditDefaults = map[string]CreditParams{
	"investment_grade":  {DefaultRate: 0.001, RecoveryRate: 0.70, TransitionRate: 0.06},
	"high_yield":        {DefaultRate: 0.055, RecoveryRate: 0.40, TransitionRate: 0.01},
	"em_hard_currency":  {DefaultRate: 0.028, RecoveryRate: 0.55, TransitionRate: 0.00},
	"em_local_currency": {DefaultRate: 0.0018, RecoveryRate: 0.40, TransitionRate: 0.00},
}

// EWMAParam configures a smoothing window for one input series.
type EWMAParam struct {
	WindowYears   int
	HalfLifeYears float64
}

// EWMADefaults holds the smoothing parameters per input series.
var EWMADefaults = map[string]EWMAParam{
	"productivity_growth":  {WindowYears: 10, HalfLifeYears: 5},
	"inflation_dm":         {WindowYears: 10, HalfLifeYears: 5},
	"inflation_em":         {WindowYears: 10, HalfLifeYears: 2},
	"tbill_country_factor": {WindowYears: 10, HalfLifeYears: 5},
	"bond_term_premium":    {WindowYears: 50, HalfLifeYears: 20},
	"credit_spread":        {WindowYears: 50, HalfLifeYears: 20},
	"caey_fair_value":      {WindowYears: 50, HalfLifeYears: 20},
}

// AssetDefaults holds the baseline inputs per asset class. Equity entries
// carry the inputs for both equity methodologies; each model reads only
// its own keys.
var AssetDefaults = map[AssetClass]map[string]float64{
	Liquidity: {},

	BondsGlobal: {
		"current_yield":        0.035,
		"duration":             7.0,
		"current_term_premium": 0.01,
		"fair_term_premium":    0.015,
	},

	BondsHY: {
		"current_yield":      0.075,
		"duration":           4.0,
		"credit_spread":      0.0271, // ICE BofA HY OAS
		"fair_credit_spread": 0.04,
		"default_rate":       0.055,
		"recovery_rate":      0.40,
	},

	BondsEM: {
		"current_yield":        0.0577, // BBG EM USD Aggregate Index YTM
		"duration":             5.5,
		"current_term_premium": 0.015,
		"fair_term_premium":    0.02,
		"default_rate":         0.028, // EM hard currency
		"recovery_rate":        0.55,
		"em_inflation_premium": 0.015, // local-currency mode only
	},

	EquityUS: {
		"dividend_yield":      0.0113, // S&P 500 TTM
		"current_caey":        0.0248, // CAPE ~40
		"fair_caey":           0.05,   // CAPE ~20
		"real_eps_growth":     0.018,
		"regional_eps_growth": 0.016, // DM average
		"reversion_speed":     1.0,   // full CAEY mean reversion
		"net_buyback_yield":   0.015,
		"revenue_gdp_wedge":   0.020,
		"margin_change":       -0.005,
		"current_pe":          22.0,
		"target_pe":           20.0,
	},

	EquityEurope: {
		"dividend_yield":      0.030,
		"current_caey":        0.055,
		"fair_caey":           0.055,
		"real_eps_growth":     0.012,
		"regional_eps_growth": 0.016,
		"reversion_speed":     1.0,
		"net_buyback_yield":   0.005,
		"revenue_gdp_wedge":   0.005,
		"margin_change":       0.000,
		"current_pe":          14.0,
		"target_pe":           14.0,
	},

	EquityJapan: {
		"dividend_yield":      0.022,
		"current_caey":        0.055,
		"fair_caey":           0.05,
		"real_eps_growth":     0.008,
		"regional_eps_growth": 0.016,
		"reversion_speed":     1.0,
		"net_buyback_yield":   0.008,
		"revenue_gdp_wedge":   0.005,
		"margin_change":       0.003,
		"current_pe":          15.0,
		"target_pe":           14.5,
	},

	EquityEM: {
		"dividend_yield":      0.030,
		"current_caey":        0.065,
		"fair_caey":           0.06,
		"real_eps_growth":     0.030,
		"regional_eps_growth": 0.028, // EM average
		"reversion_speed":     1.0,
		"net_buyback_yield":   -0.015,
		"revenue_gdp_wedge":   0.005,
		"margin_change":       0.000,
		"current_pe":          12.0,
		"target_pe":           12.0,
	},

	AbsoluteReturn: {
		"beta_market":        0.30,
		"beta_size":          0.10,
		"beta_value":         0.05,
		"beta_profitability": 0.05,
		"beta_investment":    0.05,
		"beta_momentum":      0.10,
		"trading_alpha":      0.01, // 50% of historical ~2%
	},
}

// GKAssetOverlay replaces equity defaults when the Grinold-Kroner model is
// selected. Keys absent here keep their AssetDefaults values.
var GKAssetOverlay = map[AssetClass]map[string]float64{
	EquityUS: {
		"dividend_yield":    0.013, // S&P 500 trailing
		"net_buyback_yield": 0.015, // gross ~3% minus ~1.5% dilution
		"revenue_gdp_wedge": 0.020, // global revenue exposure
		"margin_change":     -0.005,
		"current_pe":        22.0,
		"target_pe":         20.0,
	},
	EquityEurope: {
		"dividend_yield":    0.030,
		"net_buyback_yield": 0.005, // lower buyback culture
		"revenue_gdp_wedge": 0.005,
		"margin_change":     0.000,
		"current_pe":        14.0,
		"target_pe":         14.0,
	},
	EquityJapan: {
		"dividend_yield":    0.022,
		"net_buyback_yield": 0.008, // growing buyback trend
		"revenue_gdp_wedge": 0.005,
		"margin_change":     0.003, // governance reform tailwind
		"current_pe":        15.0,
		"target_pe":         14.5,
	},
	EquityEM: {
		"dividend_yield":    0.030,
		"net_buyback_yield": -0.015, // net dilution from issuance
		"revenue_gdp_wedge": 0.005,
		"margin_change":     0.000,
		"current_pe":        12.0,
		"target_pe":         12.0,
	},
}

// HedgeFundFactors lists the factor model's factors in display order.
var HedgeFundFactors = []string{"market", "size", "value", "profitability", "investment", "momentum"}

// HedgeFundHistoricalPremia holds long-term annualized factor premia.
var HedgeFundHistoricalPremia = map[string]float64{
	"market":        0.05,  // equity risk premium
	"size":          0.02,  // SMB
	"value":         0.03,  // HML
	"profitability": 0.025, // RMW
	"investment":    0.025, // CMA
	"momentum":      0.06,  // UMD
}

// ExpectedVolatility holds long-term volatility estimates per asset class.
var ExpectedVolatility = map[AssetClass]float64{
	Liquidity:      0.01,
	BondsGlobal:    0.06,
	BondsHY:        0.10,
	BondsEM:        0.12,
	EquityUS:       0.16,
	EquityEurope:   0.18,
	EquityJapan:    0.18,
	EquityEM:       0.24,
	AbsoluteReturn: 0.08,
}

// AllDefaults returns the full defaults catalog as a nested structure,
// shaped like the override structure so external layers can display and
// edit it.
func AllDefaults() map[string]any {
	macro := make(map[string]any, len(Regions))
	for _, r := range Regions {
		region := make(map[string]any, len(MacroDefaults[r])+2)
		for k, v := range MacroDefaults[r] {
			region[k] = v
		}
		region["long_term_inflation"] = LongTermInflation[r]
		region["country_factor"] = CountryFactor[r]
		macro[string(r)] = region
	}

	out := map[string]any{"macro": macro}

	for _, a := range Assets {
		if len(AssetDefaults[a]) == 0 {
			continue
		}
		asset := make(map[string]any, len(AssetDefaults[a]))
		for k, v := range AssetDefaults[a] {
			asset[k] = v
		}
		out[string(a)] = asset
	}

	credit := make(map[string]any, len(CreditDefaults))
	for name, p := range CreditDefaults {
		credit[name] = map[string]any{
			"default_rate":    p.DefaultRate,
			"recovery_rate":   p.RecoveryRate,
			"transition_rate": p.TransitionRate,
		}
	}
	out["credit"] = credit

	return out
}

// FlatDefaults returns the defaults catalog as sorted dotted paths, the
// shape the display layers consume.
func FlatDefaults() []FlatDefault {
	var out []FlatDefault
	var walk func(prefix string, node map[string]any)
	walk = func(prefix string, node map[string]any) {
		for k, v := range node {
			path := k
			if prefix != "" {
				path = prefix + "." + k
			}
			switch val := v.(type) {
			case map[string]any:
				walk(path, val)
			case float64:
				out = append(out, FlatDefault{Path: path, Value: val})
			default:
				out = append(out, FlatDefault{Path: path, Value: 0})
			}
		}
	}
	walk("", AllDefaults())

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// FlatDefault is one defaults-catalog entry.
type FlatDefault struct {
	Path  string  `json:"path"`
	Value float64 `json:"value"`
}

func (d FlatDefault) String() string {
	return fmt.Sprintf("%s=%v", d.Path, d.Value)
}
