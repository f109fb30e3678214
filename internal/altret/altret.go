// Package altret implements the hedge-fund style factor model for the
// absolute-return asset class: T-Bill plus beta-weighted factor premia plus
// trading alpha.
package altret

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sagecrest/cme-engine/internal/catalog"
	"github.com/sagecrest/cme-engine/internal/overlay"
	"github.com/sagecrest/cme-engine/internal/track"
)

// Forecast holds the absolute-return forecast and its factor attribution.
type Forecast struct {
	NominalReturn float64
	RealReturn    float64

	TBillRate    float64
	TradingAlpha float64
	// Contributions holds each factor's beta*premium contribution.
	Contributions map[string]float64

	Inflation float64

	Components map[string]map[string]track.Value
}

// Model computes the factor-based absolute-return forecast.
type Model struct {
	res *overlay.Resolver
}

// New creates an absolute-return model over the given resolver.
func New(res *overlay.Resolver) *Model {
	return &Model{res: res}
}

// Compute produces the forecast. The market premium is derived from the
// supplied equity forecast when available (usEquityNominal non-nil);
// otherwise the discounted historical premium is used, like every other
// factor. Betas, premia, and alpha all honor overrides.
func (m *Model) Compute(tbill, inflation float64, usEquityNominal *float64) (*Forecast, error) {
	inputs := m.res.AssetInputs(catalog.AbsoluteReturn)

	factors := map[string]track.Value{}
	contributions := make(map[string]float64, len(catalog.HedgeFundFactors))

	var total float64
	for _, factor := range catalog.HedgeFundFactors {
		beta := inputs["beta_"+factor]

		var premium track.Value
		if factor == "market" && usEquityNominal != nil {
			premium = m.res.Resolve(*usEquityNominal-tbill, string(catalog.AbsoluteReturn), "premium_market")
			if premium.Source == track.SourceDefault {
				premium = track.Computed(premium.Val)
			}
		} else {
			// Forward-looking premia are haircut from history.
			premium = m.res.Resolve(
				catalog.HedgeFundHistoricalPremia[factor]*catalog.FactorHistoricalDiscount,
				string(catalog.AbsoluteReturn), "premium_"+factor,
			)
		}

		contribution := beta.Val * premium.Val
		contributions[factor] = contribution
		total += contribution

		factors["beta_"+factor] = beta
		factors["premium_"+factor] = premium
		factors["contribution_"+factor] = track.Computed(contribution)
	}

	alpha := inputs["trading_alpha"]
	if alpha == (track.Value{}) {
		return nil, eris.New("altret: trading_alpha missing from asset defaults")
	}

	nominal := tbill + total + alpha.Val

	zap.L().Debug("altret: return computed",
		zap.Float64("nominal", nominal),
		zap.Float64("factor_total", total),
		zap.Float64("alpha", alpha.Val),
	)

	return &Forecast{
		NominalReturn: nominal,
		RealReturn:    nominal - inflation,
		TBillRate:     tbill,
		TradingAlpha:  alpha.Val,
		Contributions: contributions,
		Inflation:     inflation,
		Components: map[string]map[string]track.Value{
			"base": {
				"tbill_forecast": track.Computed(tbill),
				"trading_alpha":  alpha,
				"factor_total":   track.Computed(total),
			},
			"factors": factors,
		},
	}, nil
}
