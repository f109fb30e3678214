// Package curve provides the smoothing and mean-reversion math shared by
// the macro and asset models: exponentially weighted averages, log-linear
// trend growth, the demographic sigmoid, and mean-reverting path averages.
package curve

import (
	"math"

	"github.com/rotisserie/eris"
)

// Frequency is the sampling frequency of a time series.
type Frequency string

const (
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Annual    Frequency = "annual"
)

// PeriodsPerYear returns the number of observations per year. Unknown
// frequencies fall back to monthly, matching the upstream data convention.
func (f Frequency) PeriodsPerYear() int {
	switch f {
	case Quarterly:
		return 4
	case Annual:
		return 1
	default:
		return 12
	}
}

// EWMA computes an exponentially weighted moving average of data, ordered
// oldest to newest. The half life controls weight decay; windowYears, when
// positive, limits how much trailing data is used.
func EWMA(data []float64, halfLifeYears float64, windowYears int, freq Frequency) (float64, error) {
	if halfLifeYears <= 0 {
		return 0, eris.Errorf("curve: half life must be positive, got %v", halfLifeYears)
	}

	perYear := freq.PeriodsPerYear()
	if windowYears > 0 {
		window := windowYears * perYear
		if len(data) > window {
			data = data[len(data)-window:]
		}
	}
	if len(data) == 0 {
		return 0, eris.New("curve: no data for EWMA")
	}

	// lambda = 0.5^(1/half_life_in_periods); newest observation gets the
	// largest weight.
	lambda := math.Pow(0.5, 1/(halfLifeYears*float64(perYear)))

	n := len(data)
	var sum, totalWeight float64
	for i, d := range data {
		w := math.Pow(lambda, float64(n-1-i))
		sum += d * w
		totalWeight += w
	}

	return sum / totalWeight, nil
}

// RollingEWMA computes the EWMA at every point of the series, using all
// data available up to that point.
func RollingEWMA(data []float64, halfLifeYears float64, windowYears int, freq Frequency) ([]float64, error) {
	out := make([]float64, 0, len(data))
	for i := 1; i <= len(data); i++ {
		v, err := EWMA(data[:i], halfLifeYears, windowYears, freq)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// TrendGrowth fits a log-linear trend to a level series (oldest to newest)
// and returns the annualized growth rate. Non-positive levels are dropped
// before fitting.
func TrendGrowth(data []float64, windowYears int, freq Frequency) (float64, error) {
	perYear := freq.PeriodsPerYear()
	if windowYears > 0 {
		window := windowYears * perYear
		if len(data) > window {
			data = data[len(data)-window:]
		}
	}
	if len(data) < 2 {
		return 0, eris.New("curve: need at least 2 points for trend growth")
	}

	logs := make([]float64, 0, len(data))
	for _, d := range data {
		if d > 0 {
			logs = append(logs, math.Log(d))
		}
	}
	if len(logs) < 2 {
		return 0, eris.New("curve: insufficient positive values for trend growth")
	}

	n := float64(len(logs))
	var xMean, yMean float64
	for i, y := range logs {
		xMean += float64(i)
		yMean += y
	}
	xMean /= n
	yMean /= n

	var num, den float64
	for i, y := range logs {
		dx := float64(i) - xMean
		num += dx * (y - yMean)
		den += dx * dx
	}
	if den == 0 {
		return 0, nil
	}

	return (num / den) * float64(perYear), nil
}

// Demographic sigmoid shape. The effect is zero at the midpoint MY ratio
// and saturates at ±1% for strongly young or old populations.
const (
	demographicMidpoint  = 2.0
	demographicSteepness = 2.0
	demographicScale     = 0.02
)

// DemographicEffect maps a middle-to-young population ratio onto a growth
// effect in the ±1% band. Ratios above the midpoint (aging populations)
// produce a negative effect.
func DemographicEffect(myRatio float64) float64 {
	z := demographicSteepness * (demographicMidpoint - myRatio)
	sigmoid := 1 / (1 + math.Exp(-z))
	return (sigmoid - 0.5) * demographicScale
}

// AverageMeanReverting simulates a value stepping from current toward fair
// at the given per-year reversion speed and returns the arithmetic mean of
// the path over the horizon.
func AverageMeanReverting(current, fair, speed float64, years int) float64 {
	if years <= 0 {
		return current
	}

	var total float64
	value := current
	for i := 0; i < years; i++ {
		total += value
		value += speed * (fair - value)
	}

	return total / float64(years)
}
