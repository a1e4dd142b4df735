package replenishment

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"stockpilot/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// mlHistoryFactor sizes the longer window the forecaster fits on, as a
// multiple of the base analysis period.
const mlHistoryFactor = 2

// ProductSource is the slice of the product store the engine reads.
type ProductSource interface {
	ListForReplenishment(ctx context.Context, tenantID uuid.UUID, includeInactive bool, supplierID, categoryID *uuid.UUID) ([]*models.Product, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Product, error)
}

// SalesSource is the slice of the sales log the engine reads.
type SalesSource interface {
	GetDailySales(ctx context.Context, tenantID, productID uuid.UUID, from, to time.Time) ([]models.SalesDailyPoint, error)
	GetLastSaleDate(ctx context.Context, tenantID, productID uuid.UUID) (*time.Time, error)
}

// Config carries the engine tunables. Zero fields fall back to the
// DefaultConfig values when the engine is constructed.
type Config struct {
	AnalysisPeriodDays  int
	SafetyStockDays     int
	ForecastPeriodDays  int
	MinDataPointsForML  int
	WorkerLimit         int
	SupplierWorkerLimit int
	CollaboratorTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		AnalysisPeriodDays:  30,
		SafetyStockDays:     7,
		ForecastPeriodDays:  7,
		MinDataPointsForML:  14,
		WorkerLimit:         5,
		SupplierWorkerLimit: 3,
		CollaboratorTimeout: 10 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.AnalysisPeriodDays <= 0 {
		c.AnalysisPeriodDays = def.AnalysisPeriodDays
	}
	if c.SafetyStockDays <= 0 {
		c.SafetyStockDays = def.SafetyStockDays
	}
	if c.ForecastPeriodDays <= 0 {
		c.ForecastPeriodDays = def.ForecastPeriodDays
	}
	if c.MinDataPointsForML <= 0 {
		c.MinDataPointsForML = def.MinDataPointsForML
	}
	if c.WorkerLimit <= 0 {
		c.WorkerLimit = def.WorkerLimit
	}
	if c.SupplierWorkerLimit <= 0 {
		c.SupplierWorkerLimit = def.SupplierWorkerLimit
	}
	if c.CollaboratorTimeout <= 0 {
		c.CollaboratorTimeout = def.CollaboratorTimeout
	}
	return c
}

// Engine computes reorder suggestions. It holds no state of its own: every
// query is a pure function of the product snapshots, the sales history and
// the options, so identical inputs always produce identical output.
type Engine struct {
	products ProductSource
	sales    SalesSource
	cfg      Config
	log      *logrus.Logger
	now      func() time.Time
}

func NewEngine(products ProductSource, sales SalesSource, cfg Config, log *logrus.Logger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{
		products: products,
		sales:    sales,
		cfg:      cfg.withDefaults(),
		log:      log,
		now:      time.Now,
	}
}

// NormalizeOptions fills unset options with the engine defaults. The urgency
// filter defaults to the actionable tiers. Callers that key caches on options
// should normalize first so equivalent requests share an entry.
func (e *Engine) NormalizeOptions(opts models.ReorderSuggestionOptions) models.ReorderSuggestionOptions {
	if opts.AnalysisPeriodDays <= 0 {
		opts.AnalysisPeriodDays = e.cfg.AnalysisPeriodDays
	}
	if opts.SafetyStockDays <= 0 {
		opts.SafetyStockDays = e.cfg.SafetyStockDays
	}
	if opts.ForecastPeriodDays <= 0 {
		opts.ForecastPeriodDays = e.cfg.ForecastPeriodDays
	}
	if opts.MinDataPointsForML <= 0 {
		opts.MinDataPointsForML = e.cfg.MinDataPointsForML
	}
	if len(opts.UrgencyFilter) == 0 {
		opts.UrgencyFilter = []models.ReorderUrgency{models.UrgencyCritical, models.UrgencyHigh}
	}
	return opts
}

// GetSuggestions evaluates every product matching the options and returns
// the suggestions left after the urgency filter, ordered most urgent first.
// Per-product data problems degrade that product's suggestion instead of
// failing the batch; only the product listing itself can error.
func (e *Engine) GetSuggestions(ctx context.Context, tenantID uuid.UUID, opts models.ReorderSuggestionOptions) ([]models.ReorderSuggestion, error) {
	opts = e.NormalizeOptions(opts)
	products, err := e.products.ListForReplenishment(ctx, tenantID, opts.IncludeInactive, opts.SupplierID, opts.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("list products for replenishment: %w", err)
	}

	suggestions := make([]models.ReorderSuggestion, len(products))
	e.forEachProduct(len(products), func(i int) {
		suggestions[i] = e.suggestionFor(ctx, tenantID, products[i], opts)
	})

	suggestions = FilterByUrgency(suggestions, opts.UrgencyFilter)
	sortSuggestions(suggestions)
	return suggestions, nil
}

// GetSummary folds the filtered suggestion set into per-tier counts and the
// total monetary value of the recommended orders.
func (e *Engine) GetSummary(ctx context.Context, tenantID uuid.UUID, opts models.ReorderSuggestionOptions) (*models.ReorderSuggestionSummary, error) {
	suggestions, err := e.GetSuggestions(ctx, tenantID, opts)
	if err != nil {
		return nil, err
	}
	summary := Summarize(suggestions)
	return &summary, nil
}

// GetMLSuggestions runs the trend/seasonality forecaster on top of the base
// evaluation. Products with too little history keep their base estimate with
// neutral forecast fields; the gate is a capability check, never an error.
func (e *Engine) GetMLSuggestions(ctx context.Context, tenantID uuid.UUID, opts models.ReorderSuggestionOptions) ([]models.MLReorderSuggestion, error) {
	opts = e.NormalizeOptions(opts)
	products, err := e.products.ListForReplenishment(ctx, tenantID, opts.IncludeInactive, opts.SupplierID, opts.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("list products for replenishment: %w", err)
	}

	suggestions := make([]models.MLReorderSuggestion, len(products))
	e.forEachProduct(len(products), func(i int) {
		suggestions[i] = e.mlSuggestionFor(ctx, tenantID, products[i], opts)
	})

	wanted := tierSet(opts.UrgencyFilter)
	filtered := suggestions[:0]
	for _, s := range suggestions {
		if wanted[s.Urgency] {
			filtered = append(filtered, s)
		}
	}
	sortMLSuggestions(filtered)
	return filtered, nil
}

// SuggestionsFor evaluates exactly the given products, unfiltered. The order
// batcher uses it to rebuild the caller's selection from live data; products
// that cannot be loaded are skipped and logged, not failed.
func (e *Engine) SuggestionsFor(ctx context.Context, tenantID uuid.UUID, productIDs []uuid.UUID, opts models.ReorderSuggestionOptions) []models.ReorderSuggestion {
	opts = e.NormalizeOptions(opts)
	results := make([]*models.ReorderSuggestion, len(productIDs))
	e.forEachProduct(len(productIDs), func(i int) {
		pctx, cancel := context.WithTimeout(ctx, e.cfg.CollaboratorTimeout)
		defer cancel()
		product, err := e.products.GetByID(pctx, tenantID, productIDs[i])
		if err != nil {
			e.log.WithFields(logrus.Fields{
				"tenant_id":  tenantID,
				"product_id": productIDs[i],
			}).WithError(err).Warn("selected product could not be loaded, skipping")
			return
		}
		s := e.suggestionFor(ctx, tenantID, product, opts)
		results[i] = &s
	})

	suggestions := make([]models.ReorderSuggestion, 0, len(productIDs))
	for _, s := range results {
		if s != nil {
			suggestions = append(suggestions, *s)
		}
	}
	return suggestions
}

// forEachProduct fans work out across a bounded worker pool. Each index is
// handled exactly once; slots in the result slice keep product order stable.
func (e *Engine) forEachProduct(n int, fn func(i int)) {
	if n == 0 {
		return
	}
	sem := make(chan struct{}, e.cfg.WorkerLimit)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			fn(i)
		}(i)
	}
	wg.Wait()
}

func (e *Engine) suggestionFor(ctx context.Context, tenantID uuid.UUID, product *models.Product, opts models.ReorderSuggestionOptions) models.ReorderSuggestion {
	series, lastSale := e.fetchHistory(ctx, tenantID, product.ID, opts.AnalysisPeriodDays)
	return BuildSuggestion(product, series, lastSale, opts.SafetyStockDays)
}

func (e *Engine) mlSuggestionFor(ctx context.Context, tenantID uuid.UUID, product *models.Product, opts models.ReorderSuggestionOptions) models.MLReorderSuggestion {
	long, lastSale := e.fetchHistory(ctx, tenantID, product.ID, mlHistoryFactor*opts.AnalysisPeriodDays)
	base := long.Tail(opts.AnalysisPeriodDays)

	ml := models.MLReorderSuggestion{
		ReorderSuggestion: BuildSuggestion(product, base, lastSale, opts.SafetyStockDays),
	}

	if long.DaysWithSales() < opts.MinDataPointsForML {
		// Not enough signal to forecast: keep the base estimate and let its
		// confidence stand in for the model's.
		f := NeutralForecast(ml.AverageDailySales)
		applyForecast(&ml, f)
		ml.MLConfidence = ml.Confidence
		return ml
	}

	f := BuildForecast(long, ml.AverageDailySales, e.now().UTC().Weekday(), opts.ForecastPeriodDays)
	applyForecast(&ml, f)
	ml.MLConfidence = f.Confidence()
	return ml
}

func applyForecast(ml *models.MLReorderSuggestion, f Forecast) {
	ml.MLPredictedDemand = f.PredictedDemand
	ml.SeasonalFactor = f.SeasonalFactor
	ml.TrendDirection = f.TrendDirection
	ml.TrendStrength = f.TrendStrength
	ml.PatternConfidence = f.PatternConfidence
	ml.ForecastAccuracy = f.ForecastAccuracy
}

// fetchHistory loads the dense daily series for the window ending yesterday
// (today is still accumulating sales and would bias the average low). A
// history failure is degraded input: it yields an all-zero series, which
// scores zero confidence downstream.
func (e *Engine) fetchHistory(ctx context.Context, tenantID, productID uuid.UUID, days int) (DailySeries, *time.Time) {
	start := e.windowStart(days)
	end := start.AddDate(0, 0, days)

	hctx, cancel := context.WithTimeout(ctx, e.cfg.CollaboratorTimeout)
	defer cancel()

	points, err := e.sales.GetDailySales(hctx, tenantID, productID, start, end)
	if err != nil {
		e.log.WithFields(logrus.Fields{
			"tenant_id":  tenantID,
			"product_id": productID,
		}).WithError(err).Warn("sales history unavailable, treating as no data")
		return EmptyDailySeries(start, days), nil
	}

	lastSale, err := e.sales.GetLastSaleDate(hctx, tenantID, productID)
	if err != nil {
		e.log.WithFields(logrus.Fields{
			"tenant_id":  tenantID,
			"product_id": productID,
		}).WithError(err).Debug("last sale date unavailable")
		lastSale = nil
	}

	return BuildDailySeries(points, start, days), lastSale
}

// windowStart is midnight UTC, days before today.
func (e *Engine) windowStart(days int) time.Time {
	now := e.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return today.AddDate(0, 0, -days)
}

// BuildSuggestion assembles one product's suggestion from its snapshot and
// sales series. Pure; all the engine's invariants live in the helpers it
// calls.
func BuildSuggestion(product *models.Product, series DailySeries, lastSale *time.Time, safetyStockDays int) models.ReorderSuggestion {
	avg := AverageDailySales(series)
	daysRemaining := DaysOfStockRemaining(product.CurrentStock, avg)

	return models.ReorderSuggestion{
		ProductID:    product.ID,
		ProductName:  product.Name,
		SKU:          product.SKU,
		Barcode:      product.Barcode,
		CategoryID:   product.CategoryID,
		CategoryName: product.CategoryName,
		SupplierID:   product.SupplierID,
		SupplierName: product.SupplierName,
		CurrentStock: product.CurrentStock,
		ReorderLevel: product.ReorderLevel,
		MaxStock:     product.MaxStock,
		CostPrice:    product.CostPrice,
		Currency:     product.Currency,

		AverageDailySales:    avg,
		SalesVelocity:        SalesVelocity(series),
		DaysOfStockRemaining: daysRemaining,
		RecommendedQuantity:  RecommendQuantity(product.CurrentStock, product.ReorderLevel, product.MaxStock, avg, safetyStockDays),
		Urgency:              ClassifyUrgency(product.CurrentStock, daysRemaining, safetyStockDays),
		LastSaleDate:         lastSale,
		Confidence:           ConfidenceScore(series),
	}
}

// FilterByUrgency keeps the suggestions whose urgency is in tiers. An empty
// tier list keeps everything.
func FilterByUrgency(suggestions []models.ReorderSuggestion, tiers []models.ReorderUrgency) []models.ReorderSuggestion {
	if len(tiers) == 0 {
		return suggestions
	}
	wanted := tierSet(tiers)
	filtered := suggestions[:0]
	for _, s := range suggestions {
		if wanted[s.Urgency] {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

// Summarize folds an already-filtered suggestion list into the roll-up the
// dashboard shows. It never recomputes suggestions.
func Summarize(suggestions []models.ReorderSuggestion) models.ReorderSuggestionSummary {
	var summary models.ReorderSuggestionSummary
	summary.Total = len(suggestions)
	for _, s := range suggestions {
		switch s.Urgency {
		case models.UrgencyCritical:
			summary.Critical++
		case models.UrgencyHigh:
			summary.High++
		case models.UrgencyMedium:
			summary.Medium++
		case models.UrgencyLow:
			summary.Low++
		}
		summary.TotalRecommendedValue += float64(s.RecommendedQuantity) * s.CostPrice
	}
	return summary
}

func tierSet(tiers []models.ReorderUrgency) map[models.ReorderUrgency]bool {
	wanted := make(map[models.ReorderUrgency]bool, len(tiers))
	for _, t := range tiers {
		wanted[t] = true
	}
	return wanted
}

// Most urgent first, then soonest stockout, then product id to make the
// order reproducible across runs.
func sortSuggestions(suggestions []models.ReorderSuggestion) {
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestionLess(&suggestions[i], &suggestions[j])
	})
}

func sortMLSuggestions(suggestions []models.MLReorderSuggestion) {
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestionLess(&suggestions[i].ReorderSuggestion, &suggestions[j].ReorderSuggestion)
	})
}

func suggestionLess(a, b *models.ReorderSuggestion) bool {
	if a.Urgency.Rank() != b.Urgency.Rank() {
		return a.Urgency.Rank() > b.Urgency.Rank()
	}
	if a.DaysOfStockRemaining != b.DaysOfStockRemaining {
		return a.DaysOfStockRemaining < b.DaysOfStockRemaining
	}
	return a.ProductID.String() < b.ProductID.String()
}
