// Package catalog defines the closed sets of regions, asset classes, and
// currencies the engine understands, together with every baseline numeric
// assumption. All percentage-like values are decimals (0.025 = 2.5%).
package catalog

import "github.com/rotisserie/eris"

// Region is a macro region. The set is closed; unknown identifiers are
// rejected rather than silently defaulted so that dependency attribution
// can never point at the wrong region.
type Region string

const (
	RegionUS       Region = "us"
	RegionEurozone Region = "eurozone"
	RegionJapan    Region = "japan"
	RegionEM       Region = "em"
)

// Regions lists all macro regions in display order.
var Regions = []Region{RegionUS, RegionEurozone, RegionJapan, RegionEM}

// ParseRegion validates a region identifier.
func ParseRegion(s string) (Region, error) {
	switch Region(s) {
	case RegionUS, RegionEurozone, RegionJapan, RegionEM:
		return Region(s), nil
	}
	return "", eris.Errorf("catalog: unknown region %q", s)
}

// AssetClass is a supported asset class. The set is closed.
type AssetClass string

const (
	Liquidity      AssetClass = "liquidity"
	BondsGlobal    AssetClass = "bonds_global"
	BondsHY        AssetClass = "bonds_hy"
	BondsEM        AssetClass = "bonds_em"
	EquityUS       AssetClass = "equity_us"
	EquityEurope   AssetClass = "equity_europe"
	EquityJapan    AssetClass = "equity_japan"
	EquityEM       AssetClass = "equity_em"
	AbsoluteReturn AssetClass = "absolute_return"
)

// Assets lists all asset classes in display order.
var Assets = []AssetClass{
	Liquidity,
	BondsGlobal,
	BondsHY,
	BondsEM,
	EquityUS,
	EquityEurope,
	EquityJapan,
	EquityEM,
	AbsoluteReturn,
}

// EquityAssets lists the four equity regions in display order.
var EquityAssets = []AssetClass{EquityUS, EquityEurope, EquityJapan, EquityEM}

// ParseAssetClass validates an asset-class identifier.
func ParseAssetClass(s string) (AssetClass, error) {
	for _, a := range Assets {
		if AssetClass(s) == a {
			return a, nil
		}
	}
	return "", eris.Errorf("catalog: unknown asset class %q", s)
}

// displayNames maps asset classes to their human-readable names.
var displayNames = map[AssetClass]string{
	Liquidity:      "Liquidity (Cash)",
	BondsGlobal:    "Bonds Global (Gov)",
	BondsHY:        "Bonds High Yield",
	BondsEM:        "Bonds EM (Hard Currency)",
	EquityUS:       "Equity US",
	EquityEurope:   "Equity Europe",
	EquityJapan:    "Equity Japan",
	EquityEM:       "Equity EM",
	AbsoluteReturn: "Absolute Return (HF)",
}

// DisplayName returns the human-readable name of an asset class.
func (a AssetClass) DisplayName() string {
	if name, ok := displayNames[a]; ok {
		return name
	}
	return string(a)
}

// EquityMacroRegion maps an equity asset class to the macro region whose
// forecasts drive it. Note equity_europe is driven by the eurozone region.
var EquityMacroRegion = map[AssetClass]Region{
	EquityUS:     RegionUS,
	EquityEurope: RegionEurozone,
	EquityJapan:  RegionJapan,
	EquityEM:     RegionEM,
}

// BaseCurrencies are the currencies returns can be expressed in.
var BaseCurrencies = []string{"usd", "eur"}

// ParseBaseCurrency validates a base-currency identifier.
func ParseBaseCurrency(s string) (string, error) {
	for _, c := range BaseCurrencies {
		if s == c {
			return c, nil
		}
	}
	return "", eris.Errorf("catalog: unknown base currency %q", s)
}

// CurrencyBase marks assets denominated in whatever the base currency is;
// they never need an FX adjustment.
const CurrencyBase = "base"

// LocalCurrency maps each asset class to the currency it is denominated
// in. Hard-currency EM debt and the USD-hedged bond sleeves price in USD.
var LocalCurrency = map[AssetClass]string{
	Liquidity:      CurrencyBase,
	BondsGlobal:    "usd",
	BondsHY:        "usd",
	BondsEM:        "usd",
	EquityUS:       "usd",
	EquityEurope:   "eur",
	EquityJapan:    "jpy",
	EquityEM:       "em",
	AbsoluteReturn: CurrencyBase,
}

// currencyRegions maps a currency to the macro region whose forecasts
// drive its FX path.
var currencyRegions = map[string]Region{
	"usd": RegionUS,
	"eur": RegionEurozone,
	"jpy": RegionJapan,
	"em":  RegionEM,
}

// CurrencyRegion returns the macro region for a currency.
func CurrencyRegion(currency string) (Region, error) {
	if r, ok := currencyRegions[currency]; ok {
		return r, nil
	}
	return "", eris.Errorf("catalog: unknown currency %q", currency)
}

// BaseCurrencyRegion returns the macro region backing a base currency.
func BaseCurrencyRegion(baseCurrency string) Region {
	if baseCurrency == "eur" {
		return RegionEurozone
	}
	return RegionUS
}
