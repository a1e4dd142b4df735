package replenishment

import (
	"math"

	"stockpilot/internal/models"
)

const (
	// avgEpsilon guards divisions when average daily sales is zero.
	avgEpsilon = 1e-9

	// daysRemainingSentinel stands in for "effectively unlimited" when a
	// product holds stock but has no sales burning it down.
	daysRemainingSentinel = 9999

	// recentSalesWeight is the smoothing weight the velocity refinement puts
	// on the most recent half of the window.
	recentSalesWeight = 0.6

	// Urgency tier boundaries as multiples of the safety stock window.
	highUrgencyFactor   = 2
	mediumUrgencyFactor = 4
)

// AverageDailySales is total quantity sold divided by the window length,
// counting zero-sale days.
func AverageDailySales(s DailySeries) float64 {
	if s.Len() == 0 {
		return 0
	}
	return s.Sum() / float64(s.Len())
}

// CoefficientOfVariation measures demand stability as stddev over mean.
// A product with no sales at all reports 0: no signal, not perfect stability,
// and the confidence score handles that case through coverage instead.
func CoefficientOfVariation(s DailySeries) float64 {
	avg := AverageDailySales(s)
	if avg <= 0 {
		return 0
	}
	var sumSq float64
	for _, v := range s.Values {
		d := v - avg
		sumSq += d * d
	}
	stdDev := math.Sqrt(sumSq / float64(s.Len()))
	return stdDev / math.Max(avg, avgEpsilon)
}

// SalesVelocity refines the plain average by weighting the recent half of the
// window higher, so a pickup or drop-off in demand shows earlier.
func SalesVelocity(s DailySeries) float64 {
	n := s.Len()
	if n == 0 {
		return 0
	}
	half := n / 2
	if half == 0 {
		return AverageDailySales(s)
	}
	recent := s.Tail(half)
	older := DailySeries{Start: s.Start, Values: s.Values[:n-half]}
	return recentSalesWeight*AverageDailySales(recent) + (1-recentSalesWeight)*AverageDailySales(older)
}

// DaysOfStockRemaining projects how long current stock lasts at the average
// rate. Out-of-stock products report 0 regardless of velocity; stocked
// products that never sell report the sentinel.
func DaysOfStockRemaining(currentStock int, avgDailySales float64) float64 {
	if currentStock <= 0 {
		return 0
	}
	if avgDailySales <= 0 {
		return daysRemainingSentinel
	}
	days := float64(currentStock) / avgDailySales
	if days > daysRemainingSentinel {
		return daysRemainingSentinel
	}
	return days
}

// ClassifyUrgency buckets days-of-stock against multiples of the safety stock
// policy. Zero or negative stock is critical no matter what the velocity says.
func ClassifyUrgency(currentStock int, daysRemaining float64, safetyStockDays int) models.ReorderUrgency {
	if currentStock <= 0 {
		return models.UrgencyCritical
	}
	safety := float64(safetyStockDays)
	switch {
	case daysRemaining <= safety:
		return models.UrgencyCritical
	case daysRemaining <= highUrgencyFactor*safety:
		return models.UrgencyHigh
	case daysRemaining <= mediumUrgencyFactor*safety:
		return models.UrgencyMedium
	default:
		return models.UrgencyLow
	}
}

// RecommendQuantity orders up to reorder level plus a safety buffer at the
// current rate, never negative and never above the max stock ceiling.
func RecommendQuantity(currentStock, reorderLevel int, maxStock *int, avgDailySales float64, safetyStockDays int) int {
	target := float64(reorderLevel) + avgDailySales*float64(safetyStockDays)
	qty := int(math.Ceil(target - float64(currentStock)))
	if qty < 0 {
		qty = 0
	}
	if maxStock != nil {
		headroom := *maxStock - currentStock
		if headroom < 0 {
			headroom = 0
		}
		if qty > headroom {
			qty = headroom
		}
	}
	return qty
}

// ConfidenceScore rates a suggestion in [0, 100] from data coverage and
// demand stability. An empty window scores 0.
func ConfidenceScore(s DailySeries) float64 {
	coverage := s.Coverage()
	if coverage == 0 {
		return 0
	}
	stability := 1 / (1 + CoefficientOfVariation(s))
	return math.Round(100 * coverage * stability)
}
