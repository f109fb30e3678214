package calibrate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagecrest/cme-engine/internal/catalog"
	"github.com/sagecrest/cme-engine/internal/curve"
)

func TestSuggest_EWMA(t *testing.T) {
	values := []float64{0.020, 0.022, 0.025, 0.030, 0.032, 0.031}
	f := &SeriesFile{
		Frequency: "annual",
		Series: map[string]SeriesSpec{
			"us_headline_inflation": {
				Target: "macro.us.current_headline_inflation",
				Params: "inflation_dm",
				Values: values,
			},
		},
	}

	suggestions, err := Suggest(f)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)

	s := suggestions[0]
	assert.Equal(t, "us_headline_inflation", s.Name)
	assert.Equal(t, "macro.us.current_headline_inflation", s.Path)
	assert.Equal(t, "ewma", s.Method)

	params := catalog.EWMADefaults["inflation_dm"]
	want, err := curve.EWMA(values, params.HalfLifeYears, params.WindowYears, curve.Annual)
	require.NoError(t, err)
	assert.InDelta(t, want, s.Value, 1e-12)

	prev, err := curve.EWMA(values[:len(values)-1], params.HalfLifeYears, params.WindowYears, curve.Annual)
	require.NoError(t, err)
	assert.InDelta(t, prev, s.Previous, 1e-12)
}

func TestSuggest_Trend(t *testing.T) {
	// Level series growing 2% per year.
	values := make([]float64, 8)
	level := 100.0
	for i := range values {
		values[i] = level
		level *= 1.02
	}

	f := &SeriesFile{
		Frequency: "annual",
		Series: map[string]SeriesSpec{
			"us_productivity": {
				Target: "macro.us.productivity_growth",
				Method: "trend",
				Values: values,
			},
		},
	}

	suggestions, err := Suggest(f)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)

	// Log-linear fit of a constant-growth series recovers log(1.02).
	assert.InDelta(t, 0.0198, suggestions[0].Value, 1e-4)
	assert.InDelta(t, suggestions[0].Value, suggestions[0].Previous, 1e-6)
}

func TestSuggest_SortedByName(t *testing.T) {
	f := &SeriesFile{
		Frequency: "annual",
		Series: map[string]SeriesSpec{
			"z_series": {Target: "macro.us.current_tbill", Params: "tbill_country_factor", Values: []float64{0.04}},
			"a_series": {Target: "macro.em.current_headline_inflation", Params: "inflation_em", Values: []float64{0.05}},
		},
	}

	suggestions, err := Suggest(f)
	require.NoError(t, err)
	require.Len(t, suggestions, 2)
	assert.Equal(t, "a_series", suggestions[0].Name)
	assert.Equal(t, "z_series", suggestions[1].Name)
}

func TestSuggest_Errors(t *testing.T) {
	tests := []struct {
		name string
		file SeriesFile
	}{
		{
			name: "unknown frequency",
			file: SeriesFile{
				Frequency: "weekly",
				Series:    map[string]SeriesSpec{"s": {Target: "a.b", Params: "inflation_dm", Values: []float64{1}}},
			},
		},
		{
			name: "missing target",
			file: SeriesFile{
				Frequency: "annual",
				Series:    map[string]SeriesSpec{"s": {Params: "inflation_dm", Values: []float64{1}}},
			},
		},
		{
			name: "empty values",
			file: SeriesFile{
				Frequency: "annual",
				Series:    map[string]SeriesSpec{"s": {Target: "a.b", Params: "inflation_dm"}},
			},
		},
		{
			name: "unknown params",
			file: SeriesFile{
				Frequency: "annual",
				Series:    map[string]SeriesSpec{"s": {Target: "a.b", Params: "nope", Values: []float64{1}}},
			},
		},
		{
			name: "unknown method",
			file: SeriesFile{
				Frequency: "annual",
				Series:    map[string]SeriesSpec{"s": {Target: "a.b", Method: "median", Values: []float64{1}}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Suggest(&tt.file)
			require.Error(t, err)
		})
	}
}

func TestOverrides(t *testing.T) {
	overrides := Overrides([]Suggestion{
		{Path: "macro.us.current_headline_inflation", Value: 0.031},
		{Path: "macro.us.current_tbill", Value: 0.045},
		{Path: "bonds_hy.credit_spread", Value: 0.042},
	})

	us := overrides["macro"].(map[string]any)["us"].(map[string]any)
	assert.Equal(t, 0.031, us["current_headline_inflation"])
	assert.Equal(t, 0.045, us["current_tbill"])
	assert.Equal(t, 0.042, overrides["bonds_hy"].(map[string]any)["credit_spread"])
}

func TestLoadSeriesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "series.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`frequency: annual
series:
  us_headline_inflation:
    target: macro.us.current_headline_inflation
    params: inflation_dm
    values: [0.021, 0.025, 0.031]
`), 0o644))

	f, err := LoadSeriesFile(path)
	require.NoError(t, err)
	assert.Equal(t, "annual", f.Frequency)
	require.Contains(t, f.Series, "us_headline_inflation")
	assert.Len(t, f.Series["us_headline_inflation"].Values, 3)

	_, err = LoadSeriesFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("frequency: annual\n"), 0o644))
	_, err = LoadSeriesFile(empty)
	require.Error(t, err)
}
