// Package fx converts asset returns between currencies. The expected
// currency move blends interest-rate carry with purchasing-power parity.
package fx

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sagecrest/cme-engine/internal/catalog"
	"github.com/sagecrest/cme-engine/internal/macro"
	"github.com/sagecrest/cme-engine/internal/track"
)

// Blend weights for the expected annual currency move.
const (
	CarryWeight = 0.30
	PPPWeight   = 0.70
)

// Change is the expected annual appreciation of the foreign currency
// against the home (base) currency, with its components.
type Change struct {
	Annual     float64
	Components map[string]track.Value
}

// ForecastChange computes the expected annual change from the two
// currencies' macro forecasts:
//
//	change = 0.30*(home_tbill - foreign_tbill) + 0.70*(home_inflation - foreign_inflation)
//
// Positive means the foreign currency appreciates, adding to a home
// investor's return on foreign assets.
func ForecastChange(home, foreign *macro.Forecast) (*Change, error) {
	if home == nil || foreign == nil {
		return nil, eris.New("fx: both macro forecasts are required")
	}

	carry := home.TBillRate - foreign.TBillRate
	ppp := home.Inflation - foreign.Inflation
	annual := CarryWeight*carry + PPPWeight*ppp

	zap.L().Debug("fx: change computed",
		zap.String("home", string(home.Region)),
		zap.String("foreign", string(foreign.Region)),
		zap.Float64("annual", annual),
	)

	return &Change{
		Annual: annual,
		Components: map[string]track.Value{
			"fx_annual_change":   track.Computed(annual),
			"carry_differential": track.Computed(carry),
			"ppp_differential":   track.Computed(ppp),
			"home_tbill":         track.Computed(home.TBillRate),
			"foreign_tbill":      track.Computed(foreign.TBillRate),
			"home_inflation":     track.Computed(home.Inflation),
			"foreign_inflation":  track.Computed(foreign.Inflation),
		},
	}, nil
}

// ForAsset computes the FX adjustment for an asset denominated in
// localCurrency held by an investor whose base currency maps to homeRegion.
// "base"-pegged assets and same-currency holdings need no adjustment, so a
// nil Change is returned for them.
func ForAsset(baseCurrency string, homeRegion catalog.Region, localCurrency string, macros map[catalog.Region]*macro.Forecast) (*Change, error) {
	if localCurrency == catalog.CurrencyBase || localCurrency == baseCurrency {
		return nil, nil
	}

	foreignRegion, err := catalog.CurrencyRegion(localCurrency)
	if err != nil {
		return nil, eris.Wrapf(err, "fx: asset currency %q", localCurrency)
	}
	if foreignRegion == homeRegion {
		return nil, nil
	}

	home, ok := macros[homeRegion]
	if !ok {
		return nil, eris.Errorf("fx: no macro forecast for home region %q", homeRegion)
	}
	foreign, ok := macros[foreignRegion]
	if !ok {
		return nil, eris.Errorf("fx: no macro forecast for region %q", foreignRegion)
	}

	return ForecastChange(home, foreign)
}
