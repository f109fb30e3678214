// Package overlay resolves caller overrides against the defaults catalog.
// Every lookup returns a tracked value so downstream models can report
// whether each input was a default or a caller override.
package overlay

import (
	"strings"

	"github.com/sagecrest/cme-engine/internal/catalog"
	"github.com/sagecrest/cme-engine/internal/track"
)

// Resolver holds a nested override structure keyed by category, optional
// region, and field name. Unknown paths are inert: they are never
// consulted and never an error, since callers may probe speculative paths.
// No type or range validation happens here; that is the caller's concern.
type Resolver struct {
	overrides map[string]any
}

// New creates a resolver over the given override structure. A nil map
// means no overrides. The structure is deep-copied so later Set or Merge
// calls never touch the caller's map.
func New(overrides map[string]any) *Resolver {
	return &Resolver{overrides: copyTree(overrides)}
}

// Resolve returns the override at the path if one exists, otherwise the
// supplied default, tagged accordingly.
func (r *Resolver) Resolve(def float64, path ...string) track.Value {
	if v, ok := r.Lookup(path...); ok {
		return track.Override(v)
	}
	return track.Default(def)
}

// Lookup walks the override structure by path segments and returns the
// numeric value at a full match. Non-numeric values are treated as absent.
func (r *Resolver) Lookup(path ...string) (float64, bool) {
	var current any = r.overrides
	for _, part := range path {
		node, ok := current.(map[string]any)
		if !ok {
			return 0, false
		}
		current, ok = node[part]
		if !ok {
			return 0, false
		}
	}
	return toFloat(current)
}

// Has reports whether an override exists at a dotted path such as
// "macro.us.inflation_forecast".
func (r *Resolver) Has(path string) bool {
	_, ok := r.Lookup(strings.Split(path, ".")...)
	return ok
}

// Set injects a single override at a dotted path, creating intermediate
// maps as needed.
func (r *Resolver) Set(path string, value float64) {
	parts := strings.Split(path, ".")
	current := r.overrides
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

// Merge deep-merges a partial override structure into the current one:
// nested maps combine recursively, scalars replace.
func (r *Resolver) Merge(updates map[string]any) {
	mergeInto(r.overrides, updates)
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

// Clear removes all overrides.
func (r *Resolver) Clear() {
	r.overrides = map[string]any{}
}

// Snapshot returns a deep copy of the active override structure.
func (r *Resolver) Snapshot() map[string]any {
	return copyTree(r.overrides)
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

// MacroInputs returns every macro input of a region with its provenance.
func (r *Resolver) MacroInputs(region catalog.Region) map[string]track.Value {
	defaults := catalog.MacroDefaults[region]
	out := make(map[string]track.Value, len(defaults))
	for key, def := range defaults {
		out[key] = r.Resolve(def, "macro", string(region), key)
	}
	return out
}

// AssetInputs returns every input of an asset class with its provenance.
func (r *Resolver) AssetInputs(asset catalog.AssetClass) map[string]track.Value {
	return r.assetInputs(asset, catalog.AssetDefaults[asset])
}

// GKAssetInputs returns asset inputs with the Grinold-Kroner defaults
// overlaid onto the base catalog for equity classes.
func (r *Resolver) GKAssetInputs(asset catalog.AssetClass) map[string]track.Value {
	base := catalog.AssetDefaults[asset]
	overlay := catalog.GKAssetOverlay[asset]
	if len(overlay) == 0 {
		return r.assetInputs(asset, base)
	}

	merged := make(map[string]float64, len(base))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overlay {
		merged[k] = v
	}
	return r.assetInputs(asset, merged)
}

func (r *Resolver) assetInputs(asset catalog.AssetClass, defaults map[string]float64) map[string]track.Value {
	out := make(map[string]track.Value, len(defaults))
	for key, def := range defaults {
		out[key] = r.Resolve(def, string(asset), key)
	}
	return out
}

// CreditParams returns the credit assumptions for a credit type with
// provenance, honoring overrides under the "credit" category.
func (r *Resolver) CreditParams(creditType string) map[string]track.Value {
	params, ok := catalog.CreditDefaults[creditType]
	if !ok {
		return nil
	}
	return map[string]track.Value{
		"default_rate":    r.Resolve(params.DefaultRate, "credit", creditType, "default_rate"),
		"recovery_rate":   r.Resolve(params.RecoveryRate, "credit", creditType, "recovery_rate"),
		"transition_rate": r.Resolve(params.TransitionRate, "credit", creditType, "transition_rate"),
	}
}

// Diff is one default-versus-override pair.
type Diff struct {
	Path     string  `json:"path"`
	Default  float64 `json:"default"`
	Override float64 `json:"override"`
}

// DiffDefaults lists every cataloged path whose override differs from its
// default value.
func (r *Resolver) DiffDefaults() []Diff {
	var out []Diff
	for _, d := range catalog.FlatDefaults() {
		if v, ok := r.Lookup(strings.Split(d.Path, ".")...); ok && v != d.Value {
			out = append(out, Diff{Path: d.Path, Default: d.Value, Override: v})
		}
	}
	return out
}

// toFloat coerces the numeric types that appear in decoded YAML/JSON
// override structures.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
