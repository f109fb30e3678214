package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/sagecrest/cme-engine/internal/catalog"
	"github.com/sagecrest/cme-engine/internal/track"
)

// MacroDependency explains how one macro input flows into an asset's
// result, including whether an override (direct or upstream) touched it.
type MacroDependency struct {
	MacroInput string       `json:"macro_input"`
	ValueUsed  float64      `json:"value_used"`
	Source     track.Source `json:"source"`
	Affects    []string     `json:"affects"`
	Impact     string       `json:"impact"`
}

// AssetResult is the complete result for one asset class.
type AssetResult struct {
	Asset string             `json:"asset_class"`
	Key   catalog.AssetClass `json:"key"`

	NominalReturn float64 `json:"expected_return_nominal"`
	RealReturn    float64 `json:"expected_return_real"`
	Volatility    float64 `json:"expected_volatility"`

	// Components is the named return decomposition (yield, roll_return,
	// valuation, credit_loss for bonds; dividend_yield, real_eps_growth,
	// valuation_change for equities; and so on).
	Components map[string]float64 `json:"components"`

	// Inputs flattens every input used, with provenance, keyed
	// section_field.
	Inputs map[string]track.Flat `json:"inputs_used"`

	MacroDependencies map[string]MacroDependency `json:"macro_dependencies"`
}

// RegionSummary is the per-region macro summary attached to a scenario.
type RegionSummary struct {
	RGDPGrowth float64 `json:"rgdp_growth"`
	Inflation  float64 `json:"inflation"`
	TBillRate  float64 `json:"tbill_rate"`
}

// FXSummary is the expected path of one foreign currency against the base
// currency.
type FXSummary struct {
	Change float64 `json:"fx_change"`
	Carry  float64 `json:"carry_component"`
	PPP    float64 `json:"ppp_component"`
}

// ScenarioResult bundles everything one scenario computation produced.
type ScenarioResult struct {
	RunID        uuid.UUID `json:"run_id"`
	ScenarioName string    `json:"scenario_name"`
	GeneratedAt  time.Time `json:"generated_at"`

	BaseCurrency string `json:"base_currency"`
	EquityModel  string `json:"equity_model"`
	HorizonYears int    `json:"horizon_years"`

	Results map[catalog.AssetClass]*AssetResult `json:"results"`

	MacroSummary     map[catalog.Region]RegionSummary `json:"macro_assumptions"`
	GlobalRGDPGrowth float64                          `json:"global_rgdp_growth"`

	// FXForecasts is populated only for non-USD base currencies.
	FXForecasts map[string]FXSummary `json:"fx_forecasts,omitempty"`

	OverridesApplied map[string]any `json:"overrides_applied"`
}

// Asset returns one asset's result, or nil if absent.
func (s *ScenarioResult) Asset(key catalog.AssetClass) *AssetResult {
	return s.Results[key]
}

// flattenSections converts a component tree into the flat section_field
// input map carried on AssetResult.
func flattenSections(components map[string]map[string]track.Value) map[string]track.Flat {
	out := map[string]track.Flat{}
	for section, fields := range components {
		for field, v := range fields {
			out[section+"_"+field] = track.Flat{Value: v.Val, Source: string(v.Source)}
		}
	}
	return out
}
