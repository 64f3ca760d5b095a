// Package forecast extrapolates short yearly indicator series with an
// ordinary least squares trend line.
package forecast

import (
	"errors"
	"math"
)

// MinHistory is the fewest observed points a forecast is produced from.
const MinHistory = 3

// ErrInsufficientHistory reports a series shorter than MinHistory.
var ErrInsufficientHistory = errors.New("forecast: insufficient history")

// Point is one observed value.
type Point struct {
	Period int     `json:"period"`
	Value  float64 `json:"value"`
}

// ForecastPoint is one point of a forecast run's output.
type ForecastPoint struct {
	Period     int     `json:"period"`
	Value      float64 `json:"value"`
	Historical bool    `json:"is_historical"`
}

// Trend is a fitted line value = Slope*period + Intercept. The fit is kept
// centred on the mean period so predictions near the data stay exact.
type Trend struct {
	Slope      float64 `json:"slope"`
	Intercept  float64 `json:"intercept"`
	R2         float64 `json:"r_squared"`
	meanPeriod float64
	meanValue  float64
}

// At predicts the value at period.
func (t Trend) At(period int) float64 {
	return t.meanValue + t.Slope*(float64(period)-t.meanPeriod)
}

// Fit computes the least squares line through every point, equally weighted.
// Zero variance in period yields a flat line through the mean value.
func Fit(history []Point) Trend {
	n := float64(len(history))
	if n == 0 {
		return Trend{}
	}

	var sumP, sumV float64
	for _, p := range history {
		sumP += float64(p.Period)
		sumV += p.Value
	}
	mp, mv := sumP/n, sumV/n

	var sxx, sxy, syy float64
	for _, p := range history {
		dx := float64(p.Period) - mp
		dy := p.Value - mv
		sxx += dx * dx
		sxy += dx * dy
		syy += dy * dy
	}

	t := Trend{meanPeriod: mp, meanValue: mv}
	if sxx > 0 {
		t.Slope = sxy / sxx
	}
	t.Intercept = mv - t.Slope*mp

	switch {
	case syy == 0:
		t.R2 = 1
	case sxx > 0:
		t.R2 = (sxy * sxy) / (sxx * syy)
	}
	return t
}

// Forecast returns history verbatim followed by horizon extrapolated points
// at last+1 .. last+horizon. Fewer than MinHistory points yields an empty,
// non-nil slice; that is a displayable state, not an error.
func Forecast(history []Point, horizon int) []ForecastPoint {
	out, err := ForecastChecked(history, horizon)
	if err != nil {
		return []ForecastPoint{}
	}
	return out
}

// ForecastChecked is Forecast with the insufficient-history case surfaced as
// ErrInsufficientHistory.
func ForecastChecked(history []Point, horizon int) ([]ForecastPoint, error) {
	if len(history) < MinHistory {
		return nil, ErrInsufficientHistory
	}
	if horizon < 0 {
		horizon = 0
	}

	out := make([]ForecastPoint, 0, len(history)+horizon)
	for _, p := range history {
		out = append(out, ForecastPoint{Period: p.Period, Value: p.Value, Historical: true})
	}

	trend := Fit(history)
	last := history[len(history)-1].Period
	for i := 1; i <= horizon; i++ {
		period := last + i
		out = append(out, ForecastPoint{Period: period, Value: trend.At(period)})
	}
	return out, nil
}

// CompoundGrowthRate is (last/first)^(1/Δperiod) - 1 between the first and
// last points. It is 0 with fewer than two points, a zero first value, no
// elapsed periods, or a sign change between the endpoints.
func CompoundGrowthRate(history []Point) float64 {
	if len(history) < 2 {
		return 0
	}
	first, last := history[0], history[len(history)-1]
	span := last.Period - first.Period
	if first.Value == 0 || span == 0 {
		return 0
	}
	ratio := last.Value / first.Value
	if ratio < 0 {
		return 0
	}
	return math.Pow(ratio, 1/float64(span)) - 1
}
