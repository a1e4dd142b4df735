package replenishment

import (
	"testing"
	"time"

	"stockpilot/internal/models"

	"github.com/stretchr/testify/assert"
)

var testWindowStart = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC) // a Monday

func seriesOf(values ...float64) DailySeries {
	return DailySeries{Start: testWindowStart, Values: values}
}

func constSeries(days int, v float64) DailySeries {
	values := make([]float64, days)
	for i := range values {
		values[i] = v
	}
	return DailySeries{Start: testWindowStart, Values: values}
}

func TestAverageDailySales(t *testing.T) {
	assert.Equal(t, 0.0, AverageDailySales(seriesOf()), "empty window has no average")
	assert.InDelta(t, 2.0, AverageDailySales(constSeries(30, 2)), 1e-9)

	// Zero-sale days count toward the window length, not just the sale days.
	assert.InDelta(t, 2.0, AverageDailySales(seriesOf(5, 0, 0, 3)), 1e-9)
}

func TestCoefficientOfVariation(t *testing.T) {
	assert.Equal(t, 0.0, CoefficientOfVariation(seriesOf()), "no sales means no signal, not instability")
	assert.Equal(t, 0.0, CoefficientOfVariation(constSeries(10, 0)))
	assert.Equal(t, 0.0, CoefficientOfVariation(constSeries(10, 2)), "constant demand is perfectly stable")

	// avg 2, population stddev 2 -> CV 1
	assert.InDelta(t, 1.0, CoefficientOfVariation(seriesOf(0, 4)), 1e-9)
	// avg 2, population stddev 1 -> CV 0.5
	assert.InDelta(t, 0.5, CoefficientOfVariation(seriesOf(1, 3)), 1e-9)
}

func TestSalesVelocity(t *testing.T) {
	assert.Equal(t, 0.0, SalesVelocity(seriesOf()))
	assert.InDelta(t, 4.0, SalesVelocity(seriesOf(4)), 1e-9, "single day falls back to the plain average")

	// Older half 1/day, recent half 3/day: the weighted velocity leads the
	// plain average when demand is picking up.
	rising := constSeries(30, 1)
	for i := 15; i < 30; i++ {
		rising.Values[i] = 3
	}
	assert.InDelta(t, 0.6*3+0.4*1, SalesVelocity(rising), 1e-9)
	assert.Greater(t, SalesVelocity(rising), AverageDailySales(rising))

	// Odd length: recent half is the shorter tail.
	assert.InDelta(t, 0.6*5+0.4*1, SalesVelocity(seriesOf(1, 1, 1, 5, 5)), 1e-9)

	// Flat demand: velocity and average agree.
	assert.InDelta(t, 2.0, SalesVelocity(constSeries(30, 2)), 1e-9)
}

func TestDaysOfStockRemaining(t *testing.T) {
	assert.Equal(t, 0.0, DaysOfStockRemaining(0, 5), "out of stock is zero days no matter the velocity")
	assert.Equal(t, 0.0, DaysOfStockRemaining(-3, 5))
	assert.Equal(t, float64(daysRemainingSentinel), DaysOfStockRemaining(10, 0), "stocked but never selling")
	assert.InDelta(t, 5.0, DaysOfStockRemaining(10, 2), 1e-9)
	assert.InDelta(t, 30.0, DaysOfStockRemaining(50, 50.0/30.0), 1e-9)
	assert.Equal(t, float64(daysRemainingSentinel), DaysOfStockRemaining(1000000, 0.001), "projection is capped at the sentinel")
}

func TestClassifyUrgency(t *testing.T) {
	const safety = 7

	// Zero or negative stock is critical regardless of the projection.
	assert.Equal(t, models.UrgencyCritical, ClassifyUrgency(0, float64(daysRemainingSentinel), safety))
	assert.Equal(t, models.UrgencyCritical, ClassifyUrgency(-2, float64(daysRemainingSentinel), safety))

	cases := []struct {
		days float64
		want models.ReorderUrgency
	}{
		{0, models.UrgencyCritical},
		{3.5, models.UrgencyCritical},
		{7, models.UrgencyCritical},
		{7.01, models.UrgencyHigh},
		{14, models.UrgencyHigh},
		{14.5, models.UrgencyMedium},
		{28, models.UrgencyMedium},
		{28.5, models.UrgencyLow},
		{float64(daysRemainingSentinel), models.UrgencyLow},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyUrgency(100, tc.days, safety), "days remaining %.2f", tc.days)
	}

	// Severity never increases as the runway grows.
	prev := models.UrgencyCritical.Rank()
	for days := 0.0; days <= 40; days += 0.25 {
		rank := ClassifyUrgency(100, days, safety).Rank()
		assert.LessOrEqual(t, rank, prev, "urgency must be monotone in days remaining (at %.2f)", days)
		prev = rank
	}
}

func TestRecommendQuantity(t *testing.T) {
	// Out of stock, selling 2/day: reorder level plus a week of cover.
	assert.Equal(t, 24, RecommendQuantity(0, 10, nil, 2, 7))

	// Plenty of stock and no sales: nothing to order, never negative.
	assert.Equal(t, 0, RecommendQuantity(50, 10, nil, 0, 7))

	// Fractional targets round up so the buffer is never undershot.
	assert.Equal(t, 11, RecommendQuantity(0, 0, nil, 1.5, 7))

	// Max stock caps the order at the remaining headroom.
	max := 12
	assert.Equal(t, 4, RecommendQuantity(8, 10, &max, 2, 7))

	// Already over the ceiling: no headroom left.
	assert.Equal(t, 0, RecommendQuantity(15, 10, &max, 2, 7))

	for stock := 0; stock <= 60; stock += 5 {
		assert.GreaterOrEqual(t, RecommendQuantity(stock, 10, nil, 1, 7), 0)
	}
}

func TestConfidenceScore(t *testing.T) {
	assert.Equal(t, 0.0, ConfidenceScore(seriesOf()), "empty window")
	assert.Equal(t, 0.0, ConfidenceScore(constSeries(30, 0)), "no sales at all")

	// Full coverage, perfectly stable demand.
	assert.Equal(t, 100.0, ConfidenceScore(constSeries(30, 2)))

	// Half the days sold 2 units: avg 1, stddev 1, CV 1 -> 100*0.5*0.5.
	half := constSeries(30, 0)
	for i := 0; i < 15; i++ {
		half.Values[i] = 2
	}
	assert.Equal(t, 25.0, ConfidenceScore(half))

	// Six of thirty days: avg 0.4, stddev 0.8, CV 2 -> round(100*0.2/3).
	sparse := constSeries(30, 0)
	for i := 0; i < 6; i++ {
		sparse.Values[i] = 2
	}
	assert.Equal(t, 7.0, ConfidenceScore(sparse))

	// Confidence falls as coverage shrinks.
	assert.Greater(t, ConfidenceScore(constSeries(30, 2)), ConfidenceScore(half))
	assert.Greater(t, ConfidenceScore(half), ConfidenceScore(sparse))
	assert.Greater(t, ConfidenceScore(sparse), ConfidenceScore(constSeries(30, 0)))

	for _, s := range []DailySeries{seriesOf(), half, sparse, constSeries(30, 2), seriesOf(10, 0, 0, 0, 0, 0, 90)} {
		score := ConfidenceScore(s)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 100.0)
	}
}
