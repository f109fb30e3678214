// Package scenario provides the preset stress scenarios, override-string
// parsing, and scenario-file loading used by the CLI.
package scenario

import (
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Scenario is a named override set. Scenario files may also pin the base
// currency and equity model; presets leave them to the run configuration.
type Scenario struct {
	Name         string         `yaml:"name"`
	Description  string         `yaml:"description"`
	BaseCurrency string         `yaml:"base_currency"`
	EquityModel  string         `yaml:"equity_model"`
	Overrides    map[string]any `yaml:"overrides"`
}

// presets are the built-in stress scenarios. Values are chosen to be
// severe but historically plausible.
var presets = map[string]Scenario{
	"inflation_shock": {
		Name:        "Inflation Shock",
		Description: "Persistent inflation overshoot across all regions",
		Overrides: map[string]any{
			"macro": map[string]any{
				"us":       map[string]any{"inflation_forecast": 0.045},
				"eurozone": map[string]any{"inflation_forecast": 0.040},
				"japan":    map[string]any{"inflation_forecast": 0.035},
				"em":       map[string]any{"inflation_forecast": 0.065},
			},
		},
	},
	"recession": {
		Name:        "Global Recession",
		Description: "Developed-market growth stall with credit stress and rate cuts",
		Overrides: map[string]any{
			"macro": map[string]any{
				"us":       map[string]any{"rgdp_growth": 0.005, "tbill_forecast": 0.02},
				"eurozone": map[string]any{"rgdp_growth": 0.0},
				"japan":    map[string]any{"rgdp_growth": -0.005},
			},
			"bonds_hy": map[string]any{
				"default_rate":  0.08,
				"recovery_rate": 0.35,
			},
		},
	},
	"equity_valuation_correction": {
		Name:        "Equity Valuation Correction",
		Description: "Earnings yields snap back toward long-run fair values",
		Overrides: map[string]any{
			"equity_us":     map[string]any{"current_caey": 0.05},
			"equity_europe": map[string]any{"current_caey": 0.06},
			"equity_japan":  map[string]any{"current_caey": 0.055},
			"equity_em":     map[string]any{"current_caey": 0.07},
		},
	},
	"rising_rates": {
		Name:        "Rising Rates",
		Description: "Front-end rates reprice higher with a steeper term premium",
		Overrides: map[string]any{
			"macro": map[string]any{
				"us":       map[string]any{"current_tbill": 0.055},
				"eurozone": map[string]any{"current_tbill": 0.045},
			},
			"bonds_global": map[string]any{"fair_term_premium": 0.02},
		},
	},
	"em_stress": {
		Name:        "EM Stress",
		Description: "Emerging-market inflation spike, growth slowdown, and wider spreads",
		Overrides: map[string]any{
			"macro": map[string]any{
				"em": map[string]any{"inflation_forecast": 0.06, "rgdp_growth": 0.02},
			},
			"bonds_em": map[string]any{
				"default_rate":  0.01,
				"current_yield": 0.08,
			},
			"equity_em": map[string]any{
				"dividend_yield":  0.04,
				"real_eps_growth": 0.02,
			},
		},
	},
}

// PresetNames lists the built-in scenarios in display order.
var PresetNames = []string{
	"inflation_shock",
	"recession",
	"equity_valuation_correction",
	"rising_rates",
	"em_stress",
}

// Preset returns a built-in scenario by name.
func Preset(name string) (Scenario, error) {
	s, ok := presets[name]
	if !ok {
		return Scenario{}, eris.Errorf("scenario: unknown preset %q (available: %s)",
			name, strings.Join(PresetNames, ", "))
	}
	// Copy so callers can merge further overrides without mutating the
	// preset.
	s.Overrides = copyTree(s.Overrides)
	return s, nil
}

func copyTree(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if sub, ok := v.(map[string]any); ok {
			out[k] = copyTree(sub)
		} else {
			out[k] = v
		}
	}
	return out
}

// ParseOverride parses one "path=value" override flag, e.g.
// "macro.us.inflation_forecast=0.045", into a nested override structure.
func ParseOverride(s string) (map[string]any, error) {
	path, raw, ok := strings.Cut(s, "=")
	if !ok {
		return nil, eris.Errorf("scenario: override %q must be path=value", s)
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, eris.Errorf("scenario: override %q has an empty path", s)
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return nil, eris.Wrapf(err, "scenario: override %q value", s)
	}

	out := map[string]any{}
	current := out
	parts := strings.Split(path, ".")
	for _, part := range parts[:len(parts)-1] {
		next := map[string]any{}
		current[part] = next
		current = next
	}
	current[parts[len(parts)-1]] = value
	return out, nil
}

// MergeOverrides deep-merges override structures left to right: nested
// maps combine, scalars from later structures win.
func MergeOverrides(structures ...map[string]any) map[string]any {
	out := map[string]any{}
	for _, s := range structures {
		mergeInto(out, s)
	}
	return out
}

func mergeInto(base, updates map[string]any) {
	for k, v := range updates {
		if existing, ok := base[k].(map[string]any); ok {
			if incoming, ok := v.(map[string]any); ok {
				mergeInto(existing, incoming)
				continue
			}
		}
		if sub, ok := v.(map[string]any); ok {
			base[k] = copyTree(sub)
			continue
		}
		base[k] = v
	}
}

// LoadFile reads a scenario from a YAML file:
//
//	name: My Scenario
//	description: optional
//	overrides:
//	  macro:
//	    us:
//	      inflation_forecast: 0.045
func LoadFile(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, eris.Wrapf(err, "scenario: read %s", path)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Scenario{}, eris.Wrapf(err, "scenario: parse %s", path)
	}

	if s.Name == "" {
		return Scenario{}, eris.Errorf("scenario: %s is missing a name", path)
	}
	if s.Overrides == nil {
		s.Overrides = map[string]any{}
	}
	s.Overrides = normalize(s.Overrides)
	return s, nil
}

// normalize converts the map[any]any trees yaml may produce into the
// map[string]any shape the override resolver expects.
func normalize(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch node := v.(type) {
	case map[string]any:
		return normalize(node)
	case map[any]any:
		out := make(map[string]any, len(node))
		for k, val := range node {
			if key, ok := k.(string); ok {
				out[key] = normalizeValue(val)
			}
		}
		return out
	default:
		return v
	}
}
