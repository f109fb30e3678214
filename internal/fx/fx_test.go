package fx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagecrest/cme-engine/internal/catalog"
	"github.com/sagecrest/cme-engine/internal/macro"
	"github.com/sagecrest/cme-engine/internal/overlay"
)

func forecastAll(t *testing.T) map[catalog.Region]*macro.Forecast {
	t.Helper()
	m := macro.New(overlay.New(nil))
	out := make(map[catalog.Region]*macro.Forecast, len(catalog.Regions))
	for _, region := range catalog.Regions {
		f, err := m.Forecast(region)
		require.NoError(t, err)
		out[region] = f
	}
	return out
}

func TestForecastChange_Blend(t *testing.T) {
	macros := forecastAll(t)
	home, foreign := macros[catalog.RegionUS], macros[catalog.RegionJapan]

	c, err := ForecastChange(home, foreign)
	require.NoError(t, err)

	want := CarryWeight*(home.TBillRate-foreign.TBillRate) +
		PPPWeight*(home.Inflation-foreign.Inflation)
	assert.InDelta(t, want, c.Annual, 1e-12)
	assert.Equal(t, home.TBillRate, c.Components["home_tbill"].Val)
	assert.Equal(t, foreign.Inflation, c.Components["foreign_inflation"].Val)
}

func TestForecastChange_Antisymmetric(t *testing.T) {
	macros := forecastAll(t)
	us, ez := macros[catalog.RegionUS], macros[catalog.RegionEurozone]

	usd, err := ForecastChange(us, ez)
	require.NoError(t, err)
	eur, err := ForecastChange(ez, us)
	require.NoError(t, err)

	// Reversing perspective flips the sign exactly.
	assert.InDelta(t, -usd.Annual, eur.Annual, 1e-12)
}

func TestForecastChange_NilForecast(t *testing.T) {
	macros := forecastAll(t)
	_, err := ForecastChange(nil, macros[catalog.RegionUS])
	require.Error(t, err)
	_, err = ForecastChange(macros[catalog.RegionUS], nil)
	require.Error(t, err)
}

func TestForAsset_BasePeggedSkipsAdjustment(t *testing.T) {
	macros := forecastAll(t)

	c, err := ForAsset("usd", catalog.RegionUS, catalog.CurrencyBase, macros)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestForAsset_SameCurrencySkipsAdjustment(t *testing.T) {
	macros := forecastAll(t)

	c, err := ForAsset("usd", catalog.RegionUS, "usd", macros)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestForAsset_ForeignHolding(t *testing.T) {
	macros := forecastAll(t)

	// A USD investor holding EUR-denominated assets.
	c, err := ForAsset("usd", catalog.RegionUS, "eur", macros)
	require.NoError(t, err)
	require.NotNil(t, c)

	want, err := ForecastChange(macros[catalog.RegionUS], macros[catalog.RegionEurozone])
	require.NoError(t, err)
	assert.Equal(t, want.Annual, c.Annual)
}

func TestForAsset_EURBase(t *testing.T) {
	macros := forecastAll(t)

	// A EUR investor holding USD assets gets the mirror adjustment of a
	// USD investor holding EUR assets.
	eurView, err := ForAsset("eur", catalog.RegionEurozone, "usd", macros)
	require.NoError(t, err)
	require.NotNil(t, eurView)

	usdView, err := ForAsset("usd", catalog.RegionUS, "eur", macros)
	require.NoError(t, err)
	require.NotNil(t, usdView)

	assert.InDelta(t, -usdView.Annual, eurView.Annual, 1e-12)

	// Same-currency equity needs no adjustment for the EUR investor.
	c, err := ForAsset("eur", catalog.RegionEurozone, "eur", macros)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestForAsset_UnknownCurrency(t *testing.T) {
	macros := forecastAll(t)
	_, err := ForAsset("usd", catalog.RegionUS, "gbp", macros)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown currency")
}
