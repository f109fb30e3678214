// Package bonds implements the government, high-yield, and emerging-market
// bond return models. All three share one decomposition:
//
//	return = yield + roll + valuation - credit_loss
//
// and differ only in their credit-loss policy and spread dynamics, so the
// shared math lives in one Model parameterized by an injected credit-loss
// function.
package bonds

import (
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sagecrest/cme-engine/internal/catalog"
	"github.com/sagecrest/cme-engine/internal/curve"
	"github.com/sagecrest/cme-engine/internal/overlay"
	"github.com/sagecrest/cme-engine/internal/track"
)

// Forecast holds a complete bond return forecast.
type Forecast struct {
	NominalReturn float64
	RealReturn    float64

	YieldComponent  float64
	RollReturn      float64
	ValuationReturn float64
	CreditLoss      float64

	// Inflation used for the real-return subtraction.
	Inflation float64

	// Components holds the full intermediate tree with provenance,
	// keyed by section (yield, roll, valuation, credit, ...) then field.
	Components map[string]map[string]track.Value
}

// CreditLossFunc computes the expected annual credit loss from the asset's
// tracked inputs. It must return a "credit_loss" entry.
type CreditLossFunc func(inputs map[string]track.Value) map[string]track.Value

// Model is one bond asset class's return model.
type Model struct {
	res        *overlay.Resolver
	asset      catalog.AssetClass
	creditLoss CreditLossFunc

	// High yield also reverts its credit spread toward fair value.
	spreadReversion bool
}

// NewGovernment creates the developed-government bond model. Sovereign
// developed bonds carry zero credit losses by definition.
func NewGovernment(res *overlay.Resolver) *Model {
	return &Model{
		res:   res,
		asset: catalog.BondsGlobal,
		creditLoss: func(map[string]track.Value) map[string]track.Value {
			return map[string]track.Value{
				"credit_loss":   track.Default(0.0),
				"default_rate":  track.Default(0.0),
				"recovery_rate": track.Default(1.0),
			}
		},
	}
}

// NewHighYield creates the high-yield bond model: expected default losses
// plus credit-spread mean reversion.
func NewHighYield(res *overlay.Resolver) *Model {
	return &Model{
		res:             res,
		asset:           catalog.BondsHY,
		creditLoss:      expectedLoss,
		spreadReversion: true,
	}
}

// NewEM creates the emerging-market bond model. Hard-currency and
// local-currency modes are selected per computation via ComputeEM.
func NewEM(res *overlay.Resolver) *Model {
	return &Model{
		res:        res,
		asset:      catalog.BondsEM,
		creditLoss: expectedLoss,
	}
}

// expectedLoss is the shared credit-loss policy:
// loss = default_rate * (1 - recovery_rate).
func expectedLoss(inputs map[string]track.Value) map[string]track.Value {
	defaultRate := inputs["default_rate"]
	recoveryRate := inputs["recovery_rate"]
	return map[string]track.Value{
		"credit_loss":   track.Computed(defaultRate.Val * (1 - recoveryRate.Val)),
		"default_rate":  defaultRate,
		"recovery_rate": recoveryRate,
	}
}

// Asset returns the asset class this model prices.
func (m *Model) Asset() catalog.AssetClass { return m.asset }

// Compute produces the full forecast given the T-Bill and inflation
// forecasts for the asset's pricing region.
func (m *Model) Compute(tbill, inflation float64, horizon int) (*Forecast, error) {
	if horizon <= 0 {
		return nil, eris.Errorf("bonds: horizon must be positive, got %d", horizon)
	}
	inputs := m.res.AssetInputs(m.asset)

	currentYield := inputs["current_yield"]
	duration := inputs["duration"].Val

	yieldResult := m.yieldComponent(inputs, currentYield, tbill, duration, horizon)
	avgYield := yieldResult["avg_yield"].Val
	currentTP := yieldResult["current_term_premium"].Val
	fairTP := yieldResult["fair_term_premium"].Val

	rollResult := rollReturn(duration, currentTP, inputs["duration"])
	roll := rollResult["roll_return"].Val

	valResult := valuationReturn(currentTP, fairTP, duration, horizon)
	valuation := valResult["valuation_return"].Val

	creditResult := m.creditLoss(inputs)
	creditLoss := creditResult["credit_loss"].Val

	nominal := avgYield + roll + valuation - creditLoss

	components := map[string]map[string]track.Value{
		"yield":     yieldResult,
		"roll":      rollResult,
		"valuation": valResult,
		"credit":    creditResult,
	}

	if m.spreadReversion {
		spreadResult := m.spreadValuation(inputs, duration, horizon)
		spreadVal := spreadResult["spread_valuation"].Val
		nominal += spreadVal
		valuation += spreadVal
		components["credit_spread"] = spreadResult
	}

	zap.L().Debug("bonds: return computed",
		zap.String("asset", string(m.asset)),
		zap.Float64("nominal", nominal),
		zap.Float64("yield", avgYield),
		zap.Float64("valuation", valuation),
	)

	return &Forecast{
		NominalReturn:   nominal,
		RealReturn:      nominal - inflation,
		YieldComponent:  avgYield,
		RollReturn:      roll,
		ValuationReturn: valuation,
		CreditLoss:      creditLoss,
		Inflation:       inflation,
		Components:      components,
	}, nil
}

// ComputeEM prices EM bonds. In hard-currency mode the bonds are priced
// off the US T-Bill plus a fixed spread and the supplied inflation is used
// as-is (it should be US inflation); local-currency mode adds an EM
// inflation premium instead. A non-nil emTBill replaces the spread-derived
// rate.
func (m *Model) ComputeEM(usTBill, inflation float64, horizon int, emTBill *float64, hardCurrency bool) (*Forecast, error) {
	inputs := m.res.AssetInputs(m.asset)

	effectiveTBill := usTBill + catalog.EMHardCurrencySpread
	tbillSource := track.Computed(effectiveTBill)
	if emTBill != nil {
		effectiveTBill = *emTBill
		tbillSource = track.Override(effectiveTBill)
	}

	effectiveInflation := inflation
	premium := inputs["em_inflation_premium"]
	if !hardCurrency {
		effectiveInflation += premium.Val
	}

	forecast, err := m.Compute(effectiveTBill, effectiveInflation, horizon)
	if err != nil {
		return nil, err
	}

	emSection := map[string]track.Value{
		"em_tbill":  tbillSource,
		"us_tbill":  track.Computed(usTBill),
		"em_spread": track.Default(catalog.EMHardCurrencySpread),
	}
	if !hardCurrency {
		emSection["em_inflation_premium"] = premium
	}
	forecast.Components["em"] = emSection

	return forecast, nil
}

// yieldComponent forecasts the average yield over the horizon: the T-Bill
// forecast plus the arithmetic mean of a term-premium path that steps
// toward fair value. An overridden current yield shifts the term premium
// by the same delta so yield and term premium stay consistent.
func (m *Model) yieldComponent(inputs map[string]track.Value, currentYield track.Value, tbill, duration float64, horizon int) map[string]track.Value {
	currentTP := inputs["current_term_premium"]
	if currentTP == (track.Value{}) {
		currentTP = track.Default(0.015)
	}

	if currentYield.Source == track.SourceOverride {
		defaultYield := catalog.AssetDefaults[m.asset]["current_yield"]
		delta := currentYield.Val - defaultYield
		currentTP = track.Computed(currentTP.Val + delta)
	}

	fairTP := inputs["fair_term_premium"]
	if fairTP == (track.Value{}) {
		fairTP = track.Default(0.015)
	}

	avgTP := curve.AverageMeanReverting(currentTP.Val, fairTP.Val, catalog.BondTermPremiumReversionSpeed, horizon)
	avgYield := tbill + avgTP

	return map[string]track.Value{
		"current_yield":        currentYield,
		"tbill_forecast":       track.Computed(tbill),
		"current_term_premium": currentTP,
		"fair_term_premium":    fairTP,
		"avg_term_premium":     track.Computed(avgTP),
		"avg_yield":            track.Computed(avgYield),
	}
}

// rollReturn approximates yield-curve roll-down to first order:
// slope = term_premium / maturity, roll = slope * duration.
func rollReturn(duration, termPremium float64, durationInput track.Value) map[string]track.Value {
	slope := termPremium / catalog.RollMaturityYears
	return map[string]track.Value{
		"roll_return":       track.Computed(slope * duration),
		"yield_curve_slope": track.Computed(slope),
		"duration":          durationInput,
	}
}

// valuationReturn prices the term-premium move over the horizon. Only a
// partial reversion fraction of the gap closes; rising premiums mean
// falling prices.
func valuationReturn(currentTP, fairTP, duration float64, horizon int) map[string]track.Value {
	fraction := 1 - math.Pow(1-catalog.MonthlyReversionRate, float64(horizon*12))
	fraction = math.Min(fraction, 1.0)

	expectedChange := (fairTP - currentTP) * fraction
	valuation := -duration * expectedChange / float64(horizon)

	return map[string]track.Value{
		"valuation_return":   track.Computed(valuation),
		"expected_tp_change": track.Computed(expectedChange),
		"reversion_fraction": track.Computed(fraction),
	}
}

// spreadValuation prices high-yield credit-spread reversion: half the gap
// to the fair spread closes over the horizon, and spread widening is a
// price decline.
func (m *Model) spreadValuation(inputs map[string]track.Value, duration float64, horizon int) map[string]track.Value {
	spread := inputs["credit_spread"]
	fairSpread := inputs["fair_credit_spread"]

	change := (fairSpread.Val - spread.Val) * catalog.HYSpreadReversionFraction
	valuation := -duration * change / float64(horizon)

	return map[string]track.Value{
		"current_spread":   spread,
		"fair_spread":      fairSpread,
		"spread_change":    track.Computed(change),
		"spread_valuation": track.Computed(valuation),
	}
}
