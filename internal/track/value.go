// Package track pairs every number flowing through the forecast pipeline
// with a provenance tag, so callers can see whether a value came from a
// built-in default, a caller override, or was derived along the way.
package track

// Source identifies where a value came from.
type Source string

const (
	// SourceDefault marks a built-in baseline assumption.
	SourceDefault Source = "default"
	// SourceOverride marks a value supplied directly by the caller.
	SourceOverride Source = "override"
	// SourceComputed marks a value derived from other tracked values.
	SourceComputed Source = "computed"
	// SourceAffected marks a default whose computed inputs were overridden.
	// Used only in dependency explanations, never on raw values.
	SourceAffected Source = "affected_by_override"
)

// Value is a number paired with its provenance.
type Value struct {
	Val    float64
	Source Source
}

// Default wraps v as a built-in default.
func Default(v float64) Value { return Value{Val: v, Source: SourceDefault} }

// Override wraps v as a caller-supplied override.
func Override(v float64) Value { return Value{Val: v, Source: SourceOverride} }

// Computed wraps v as a derived value.
func Computed(v float64) Value { return Value{Val: v, Source: SourceComputed} }

// Flat is the flattened value-plus-source record used in final results.
type Flat struct {
	Value  float64 `json:"value"`
	Source string  `json:"source"`
}

// Flat flattens the value for result assembly.
func (v Value) Flat() Flat { return Flat{Value: v.Val, Source: string(v.Source)} }

// Values extracts the raw numbers from a tracked map.
func Values(m map[string]Value) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v.Val
	}
	return out
}

// Sources extracts the provenance tags from a tracked map.
func Sources(m map[string]Value) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = string(v.Source)
	}
	return out
}

// Flatten converts a tracked map into flat records.
func Flatten(m map[string]Value) map[string]Flat {
	out := make(map[string]Flat, len(m))
	for k, v := range m {
		out[k] = v.Flat()
	}
	return out
}
