package replenishment

import (
	"time"

	"stockpilot/internal/models"
)

// DailySeries is a dense per-day sales series. Values[i] is the quantity sold
// on Start plus i days; days without sales hold zero.
type DailySeries struct {
	Start  time.Time
	Values []float64
}

// BuildDailySeries spreads sparse per-day aggregates over a dense window of
// the given length. Points outside the window are ignored.
func BuildDailySeries(points []models.SalesDailyPoint, start time.Time, days int) DailySeries {
	series := DailySeries{Start: start, Values: make([]float64, days)}
	for _, point := range points {
		idx := int(point.Date.Sub(start).Hours() / 24)
		if idx < 0 || idx >= days {
			continue
		}
		series.Values[idx] += float64(point.Quantity)
	}
	return series
}

// EmptyDailySeries is the degraded input used when the sales history lookup
// fails: a full window of zeroes, indistinguishable from a product that never
// sold.
func EmptyDailySeries(start time.Time, days int) DailySeries {
	return DailySeries{Start: start, Values: make([]float64, days)}
}

func (s DailySeries) Sum() float64 {
	var total float64
	for _, v := range s.Values {
		total += v
	}
	return total
}

// DaysWithSales counts the days that recorded at least one sale. This is the
// coverage numerator for confidence scoring.
func (s DailySeries) DaysWithSales() int {
	count := 0
	for _, v := range s.Values {
		if v > 0 {
			count++
		}
	}
	return count
}

func (s DailySeries) Len() int {
	return len(s.Values)
}

// Tail returns the most recent n days of the series.
func (s DailySeries) Tail(n int) DailySeries {
	if n >= len(s.Values) {
		return s
	}
	offset := len(s.Values) - n
	return DailySeries{
		Start:  s.Start.AddDate(0, 0, offset),
		Values: s.Values[offset:],
	}
}

// Coverage is the share of window days with observed sales, in [0, 1].
func (s DailySeries) Coverage() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	return float64(s.DaysWithSales()) / float64(len(s.Values))
}
