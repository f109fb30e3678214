package engine

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sagecrest/cme-engine/internal/catalog"
	"github.com/sagecrest/cme-engine/internal/macro"
)

// forecastCache memoizes per-region macro forecasts and the derived global
// growth number for one engine instance. It must be invalidated whenever
// the override set changes; staleness here would silently misprice every
// asset, so invalidation is explicit rather than TTL-based.
type forecastCache struct {
	regions *lru.Cache[catalog.Region, *macro.Forecast]

	globalRGDP    float64
	globalRGDPSet bool
}

func newForecastCache() (*forecastCache, error) {
	regions, err := lru.New[catalog.Region, *macro.Forecast](len(catalog.Regions))
	if err != nil {
		return nil, eris.Wrap(err, "engine: init macro cache")
	}
	return &forecastCache{regions: regions}, nil
}

// forecast returns the cached forecast for a region, computing and storing
// it on first use.
func (c *forecastCache) forecast(m *macro.Model, region catalog.Region) (*macro.Forecast, error) {
	if f, ok := c.regions.Get(region); ok {
		return f, nil
	}
	f, err := m.Forecast(region)
	if err != nil {
		return nil, err
	}
	c.regions.Add(region, f)
	return f, nil
}

// global returns the cached global real GDP growth, computing it on first
// use.
func (c *forecastCache) global(m *macro.Model) (float64, error) {
	if c.globalRGDPSet {
		return c.globalRGDP, nil
	}
	g, err := m.GlobalRealGDPGrowth()
	if err != nil {
		return 0, err
	}
	c.globalRGDP = g
	c.globalRGDPSet = true
	return g, nil
}

// invalidate drops every cached forecast.
func (c *forecastCache) invalidate() {
	c.regions.Purge()
	c.globalRGDPSet = false
	zap.L().Debug("engine: macro cache invalidated")
}
