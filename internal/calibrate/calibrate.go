// Package calibrate derives suggested override values from historical
// input series: smoothed current levels via EWMA, or trend growth rates
// for level series. Suggestions target the same dotted paths the override
// layer accepts, so output feeds straight back into scenarios.
package calibrate

import (
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sagecrest/cme-engine/internal/catalog"
	"github.com/sagecrest/cme-engine/internal/curve"
)

// SeriesFile is the YAML input: named series with the override path each
// one calibrates.
type SeriesFile struct {
	// Frequency applies to every series: monthly, quarterly, or annual.
	Frequency string                `yaml:"frequency"`
	Series    map[string]SeriesSpec `yaml:"series"`
}

// SeriesSpec is one historical series.
type SeriesSpec struct {
	// Target is the override path the suggestion applies to, e.g.
	// macro.us.current_headline_inflation.
	Target string `yaml:"target"`
	// Method is "ewma" (smoothed current level, the default) or "trend"
	// (log-linear growth rate of a level series).
	Method string `yaml:"method"`
	// Params names the smoothing parameter set from the catalog, e.g.
	// inflation_dm. Required for ewma; ignored for trend, which uses the
	// full window.
	Params string `yaml:"params"`
	// Values are ordered oldest to newest.
	Values []float64 `yaml:"values"`
}

// Suggestion is one calibrated override value.
type Suggestion struct {
	Name   string  `json:"name"`
	Path   string  `json:"path"`
	Method string  `json:"method"`
	Value  float64 `json:"value"`
	// Previous is the same statistic one period earlier, for direction.
	Previous float64 `json:"previous"`
}

// LoadSeriesFile reads and validates a calibration input file.
func LoadSeriesFile(path string) (*SeriesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "calibrate: read %s", path)
	}

	var f SeriesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "calibrate: parse %s", path)
	}
	if f.Frequency == "" {
		f.Frequency = "monthly"
	}
	if len(f.Series) == 0 {
		return nil, eris.Errorf("calibrate: %s has no series", path)
	}
	return &f, nil
}

// Suggest computes one suggestion per series, sorted by series name.
func Suggest(f *SeriesFile) ([]Suggestion, error) {
	freq, err := parseFrequency(f.Frequency)
	if err != nil {
		return nil, err
	}

	out := make([]Suggestion, 0, len(f.Series))
	for name, spec := range f.Series {
		s, err := suggestOne(name, spec, freq)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	zap.L().Debug("calibrate: suggestions computed", zap.Int("count", len(out)))
	return out, nil
}

func suggestOne(name string, spec SeriesSpec, freq curve.Frequency) (Suggestion, error) {
	if spec.Target == "" {
		return Suggestion{}, eris.Errorf("calibrate: series %q has no target path", name)
	}
	if len(spec.Values) == 0 {
		return Suggestion{}, eris.Errorf("calibrate: series %q has no values", name)
	}

	method := spec.Method
	if method == "" {
		method = "ewma"
	}

	switch method {
	case "ewma":
		params, ok := catalog.EWMADefaults[spec.Params]
		if !ok {
			return Suggestion{}, eris.Errorf("calibrate: series %q: unknown params %q", name, spec.Params)
		}

		smoothed, err := curve.RollingEWMA(spec.Values, params.HalfLifeYears, params.WindowYears, freq)
		if err != nil {
			return Suggestion{}, eris.Wrapf(err, "calibrate: series %q", name)
		}

		s := Suggestion{
			Name:   name,
			Path:   spec.Target,
			Method: method,
			Value:  smoothed[len(smoothed)-1],
		}
		if len(smoothed) > 1 {
			s.Previous = smoothed[len(smoothed)-2]
		} else {
			s.Previous = s.Value
		}
		return s, nil

	case "trend":
		windowYears := (len(spec.Values) + freq.PeriodsPerYear() - 1) / freq.PeriodsPerYear()
		g, err := curve.TrendGrowth(spec.Values, windowYears, freq)
		if err != nil {
			return Suggestion{}, eris.Wrapf(err, "calibrate: series %q", name)
		}

		s := Suggestion{Name: name, Path: spec.Target, Method: method, Value: g}
		s.Previous = s.Value
		if len(spec.Values) > 2 {
			prev, err := curve.TrendGrowth(spec.Values[:len(spec.Values)-1], windowYears, freq)
			if err == nil {
				s.Previous = prev
			}
		}
		return s, nil
	}

	return Suggestion{}, eris.Errorf("calibrate: series %q: unknown method %q", name, method)
}

// Overrides converts suggestions into a nested override structure.
func Overrides(suggestions []Suggestion) map[string]any {
	out := map[string]any{}
	for _, s := range suggestions {
		setPath(out, s.Path, s.Value)
	}
	return out
}

func setPath(m map[string]any, path string, value float64) {
	current := m
	parts := splitPath(path)
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}

func splitPath(path string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			parts = append(parts, path[start:i])
			start = i + 1
		}
	}
	return append(parts, path[start:])
}

func parseFrequency(s string) (curve.Frequency, error) {
	switch s {
	case "monthly":
		return curve.Monthly, nil
	case "quarterly":
		return curve.Quarterly, nil
	case "annual":
		return curve.Annual, nil
	}
	return "", eris.Errorf("calibrate: unknown frequency %q", s)
}
