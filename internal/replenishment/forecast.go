package replenishment

import (
	"math"
	"time"

	"stockpilot/internal/models"
)

const (
	// trendSlopeThreshold is the relative slope below which demand counts as
	// stable rather than trending.
	trendSlopeThreshold = 0.05

	// minWeekdaySamples is how many observations of a weekday the seasonal
	// factor needs before it trusts the ratio.
	minWeekdaySamples = 2
)

// Forecast carries the trend and seasonality fields layered onto a base
// suggestion when a product has enough history.
type Forecast struct {
	PredictedDemand   float64
	SeasonalFactor    float64
	TrendDirection    models.TrendDirection
	TrendStrength     float64
	PatternConfidence float64
	ForecastAccuracy  float64
}

// Confidence combines pattern coverage and backtest accuracy.
func (f Forecast) Confidence() float64 {
	return (f.PatternConfidence + f.ForecastAccuracy) / 2
}

// TrendSlope fits an ordinary least squares line over the series and returns
// its per-day slope.
func TrendSlope(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	nf := float64(n)
	denom := nf*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (nf*sumXY - sumX*sumY) / denom
}

// TrendOf classifies a slope relative to the average demand level. The
// strength is the relative slope magnitude clamped to [0, 1].
func TrendOf(slope, avgDailySales float64) (models.TrendDirection, float64) {
	rel := math.Abs(slope) / math.Max(avgDailySales, avgEpsilon)
	strength := math.Min(rel, 1)
	switch {
	case rel <= trendSlopeThreshold:
		return models.TrendStable, strength
	case slope > 0:
		return models.TrendIncreasing, strength
	default:
		return models.TrendDecreasing, strength
	}
}

// WeekdayFactor is the ratio of this weekday's average sales to the overall
// average. It falls back to 1.0 when the weekday was observed fewer than
// minWeekdaySamples times or when the product has no sales at all, so single
// outlier days cannot dominate the forecast.
func WeekdayFactor(s DailySeries, weekday time.Weekday) float64 {
	overall := AverageDailySales(s)
	if overall <= 0 {
		return 1.0
	}
	var sum float64
	var count int
	for i, v := range s.Values {
		if s.Start.AddDate(0, 0, i).Weekday() == weekday {
			sum += v
			count++
		}
	}
	if count < minWeekdaySamples {
		return 1.0
	}
	return (sum / float64(count)) / overall
}

// BacktestAccuracy withholds the most recent holdoutDays of the series,
// forecasts them from the remainder, and converts the mean absolute
// percentage error into an accuracy score in [0, 100]. Days with zero actual
// sales are skipped; if nothing remains to check against, the score is 0.
func BacktestAccuracy(s DailySeries, holdoutDays int) float64 {
	n := s.Len()
	if holdoutDays <= 0 || n <= holdoutDays {
		return 0
	}
	train := DailySeries{Start: s.Start, Values: s.Values[:n-holdoutDays]}
	avg := AverageDailySales(train)
	slope := TrendSlope(train.Values)
	_, strength := TrendOf(slope, avg)

	var sumAPE float64
	var count int
	for i := n - holdoutDays; i < n; i++ {
		actual := s.Values[i]
		if actual <= 0 {
			continue
		}
		weekday := s.Start.AddDate(0, 0, i).Weekday()
		predicted := avg * WeekdayFactor(train, weekday) * (1 + strength*signOf(slope))
		sumAPE += math.Abs(predicted-actual) / actual
		count++
	}
	if count == 0 {
		return 0
	}
	mape := 100 * sumAPE / float64(count)
	return 100 - clampFloat(mape, 0, 100)
}

// BuildForecast derives the trend and seasonality estimate for a product that
// passed the history gate. avgDailySales comes from the base analysis window;
// the longer series feeds trend fitting, the weekday factor, and the backtest.
func BuildForecast(long DailySeries, avgDailySales float64, today time.Weekday, forecastPeriodDays int) Forecast {
	slope := TrendSlope(long.Values)
	direction, strength := TrendOf(slope, AverageDailySales(long))
	factor := WeekdayFactor(long, today)
	predicted := avgDailySales * factor * (1 + strength*signOf(slope))
	if predicted < 0 {
		predicted = 0
	}
	return Forecast{
		PredictedDemand:   predicted,
		SeasonalFactor:    factor,
		TrendDirection:    direction,
		TrendStrength:     strength,
		PatternConfidence: math.Round(100 * long.Coverage()),
		ForecastAccuracy:  BacktestAccuracy(long, forecastPeriodDays),
	}
}

// NeutralForecast passes the base estimate through untouched. It is the
// transparent fallback for products with too little history to forecast.
func NeutralForecast(avgDailySales float64) Forecast {
	return Forecast{
		PredictedDemand: avgDailySales,
		SeasonalFactor:  1.0,
		TrendDirection:  models.TrendStable,
	}
}

func signOf(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
