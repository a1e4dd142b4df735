package models

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ReorderUrgency classifies how soon a product will stock out.
type ReorderUrgency string

const (
	UrgencyCritical ReorderUrgency = "critical"
	UrgencyHigh     ReorderUrgency = "high"
	UrgencyMedium   ReorderUrgency = "medium"
	UrgencyLow      ReorderUrgency = "low"
)

// Rank orders urgencies by severity: critical=3 down to low=0.
func (u ReorderUrgency) Rank() int {
	switch u {
	case UrgencyCritical:
		return 3
	case UrgencyHigh:
		return 2
	case UrgencyMedium:
		return 1
	default:
		return 0
	}
}

// Valid reports whether u is one of the four known urgency tiers.
func (u ReorderUrgency) Valid() bool {
	switch u {
	case UrgencyCritical, UrgencyHigh, UrgencyMedium, UrgencyLow:
		return true
	}
	return false
}

// TrendDirection describes the slope of a product's demand over the
// analysis window.
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendStable     TrendDirection = "stable"
)

// ReorderSuggestion is an ephemeral recommendation for one product. It is
// recomputed on every query and never persisted; there are no db tags on
// purpose.
type ReorderSuggestion struct {
	ProductID    uuid.UUID  `json:"product_id"`
	ProductName  string     `json:"product_name"`
	SKU          string     `json:"sku"`
	Barcode      *string    `json:"barcode,omitempty"`
	CategoryID   *uuid.UUID `json:"category_id,omitempty"`
	CategoryName *string    `json:"category_name,omitempty"`
	SupplierID   *uuid.UUID `json:"supplier_id,omitempty"`
	SupplierName *string    `json:"supplier_name,omitempty"`
	CurrentStock int        `json:"current_stock"`
	ReorderLevel int        `json:"reorder_level"`
	MaxStock     *int       `json:"max_stock,omitempty"`
	CostPrice    float64    `json:"cost_price"`
	Currency     string     `json:"currency"`

	AverageDailySales    float64        `json:"average_daily_sales"`
	SalesVelocity        float64        `json:"sales_velocity"`
	DaysOfStockRemaining float64        `json:"days_of_stock_remaining"`
	RecommendedQuantity  int            `json:"recommended_quantity"`
	Urgency              ReorderUrgency `json:"urgency"`
	LastSaleDate         *time.Time     `json:"last_sale_date,omitempty"`
	Confidence           float64        `json:"confidence"`
}

// MLReorderSuggestion augments a base suggestion with trend and seasonality
// fields. When a product has too little history the base fields stand and the
// ML fields stay at their neutral values.
type MLReorderSuggestion struct {
	ReorderSuggestion

	MLPredictedDemand float64        `json:"ml_predicted_demand"`
	SeasonalFactor    float64        `json:"seasonal_factor"`
	TrendDirection    TrendDirection `json:"trend_direction"`
	TrendStrength     float64        `json:"trend_strength"`
	PatternConfidence float64        `json:"pattern_confidence"`
	ForecastAccuracy  float64        `json:"forecast_accuracy"`
	MLConfidence      float64        `json:"ml_confidence"`
}

// ReorderSuggestionSummary is the roll-up over a filtered suggestion set.
type ReorderSuggestionSummary struct {
	Total                 int     `json:"total"`
	Critical              int     `json:"critical"`
	High                  int     `json:"high"`
	Medium                int     `json:"medium"`
	Low                   int     `json:"low"`
	TotalRecommendedValue float64 `json:"total_recommended_value"`
}

// ReorderSuggestionOptions configures a suggestion query. Zero values are
// replaced with defaults by the engine before any computation.
type ReorderSuggestionOptions struct {
	IncludeInactive     bool             `json:"include_inactive"`
	UrgencyFilter       []ReorderUrgency `json:"urgency_filter,omitempty"`
	SupplierID          *uuid.UUID       `json:"supplier_id,omitempty"`
	CategoryID          *uuid.UUID       `json:"category_id,omitempty"`
	AnalysisPeriodDays  int              `json:"analysis_period_days"`
	SafetyStockDays     int              `json:"safety_stock_days"`
	EnableMLPredictions bool             `json:"enable_ml_predictions"`
	ForecastPeriodDays  int              `json:"forecast_period_days"`
	MinDataPointsForML  int              `json:"min_data_points_for_ml"`
}

// Fingerprint returns a deterministic string identifying the option set.
// Used as part of cache keys for suggestion memoization.
func (o ReorderSuggestionOptions) Fingerprint() string {
	tiers := make([]string, 0, len(o.UrgencyFilter))
	for _, u := range o.UrgencyFilter {
		tiers = append(tiers, string(u))
	}
	sort.Strings(tiers)

	supplier := ""
	if o.SupplierID != nil {
		supplier = o.SupplierID.String()
	}
	category := ""
	if o.CategoryID != nil {
		category = o.CategoryID.String()
	}

	return fmt.Sprintf("inactive=%t;urgency=%s;supplier=%s;category=%s;period=%d;safety=%d;ml=%t;forecast=%d;minpoints=%d",
		o.IncludeInactive, strings.Join(tiers, ","), supplier, category,
		o.AnalysisPeriodDays, o.SafetyStockDays,
		o.EnableMLPredictions, o.ForecastPeriodDays, o.MinDataPointsForML)
}
