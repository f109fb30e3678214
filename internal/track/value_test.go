package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors(t *testing.T) {
	assert.Equal(t, Value{0.025, SourceDefault}, Default(0.025))
	assert.Equal(t, Value{0.04, SourceOverride}, Override(0.04))
	assert.Equal(t, Value{0.0123, SourceComputed}, Computed(0.0123))
}

func TestFlat(t *testing.T) {
	f := Override(0.045).Flat()
	assert.Equal(t, 0.045, f.Value)
	assert.Equal(t, "override", f.Source)
}

func TestMapHelpers(t *testing.T) {
	m := map[string]Value{
		"current_tbill":  Default(0.0367),
		"tbill_forecast": Computed(0.0391),
	}

	vals := Values(m)
	assert.Equal(t, 0.0367, vals["current_tbill"])
	assert.Equal(t, 0.0391, vals["tbill_forecast"])

	srcs := Sources(m)
	assert.Equal(t, "default", srcs["current_tbill"])
	assert.Equal(t, "computed", srcs["tbill_forecast"])

	flat := Flatten(m)
	assert.Equal(t, Flat{0.0367, "default"}, flat["current_tbill"])
	assert.Len(t, flat, 2)
}
