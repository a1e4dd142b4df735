package replenishment

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"stockpilot/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// MockProductSource mocks the ProductSource interface for testing
type MockProductSource struct {
	mock.Mock
}

func (m *MockProductSource) ListForReplenishment(ctx context.Context, tenantID uuid.UUID, includeInactive bool, supplierID, categoryID *uuid.UUID) ([]*models.Product, error) {
	args := m.Called(ctx, tenantID, includeInactive, supplierID, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Product), args.Error(1)
}

func (m *MockProductSource) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Product, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

// MockSalesSource mocks the SalesSource interface for testing
type MockSalesSource struct {
	mock.Mock
}

func (m *MockSalesSource) GetDailySales(ctx context.Context, tenantID, productID uuid.UUID, from, to time.Time) ([]models.SalesDailyPoint, error) {
	args := m.Called(ctx, tenantID, productID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SalesDailyPoint), args.Error(1)
}

func (m *MockSalesSource) GetLastSaleDate(ctx context.Context, tenantID, productID uuid.UUID) (*time.Time, error) {
	args := m.Called(ctx, tenantID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

// The clock is pinned to a Tuesday so every window boundary in these tests
// is a fixed date: the 30-day analysis window runs Mar 2 to Apr 1 and the
// doubled forecasting window runs Jan 31 to Apr 1.
var (
	engineTestNow = time.Date(2025, 4, 1, 10, 30, 0, 0, time.UTC)
	baseFrom      = time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	baseTo        = time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	mlFrom        = time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	mlTo          = time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
)

// EngineTestSuite exercises suggestion computation end to end against
// mocked product and sales stores.
type EngineTestSuite struct {
	suite.Suite
	products *MockProductSource
	sales    *MockSalesSource
	engine   *Engine
	tenantID uuid.UUID
	ctx      context.Context
}

func (suite *EngineTestSuite) SetupTest() {
	suite.products = &MockProductSource{}
	suite.sales = &MockSalesSource{}

	log := logrus.New()
	log.SetOutput(io.Discard)

	suite.engine = NewEngine(suite.products, suite.sales, DefaultConfig(), log)
	suite.engine.now = func() time.Time { return engineTestNow }
	suite.tenantID = uuid.New()
	suite.ctx = context.Background()
}

func (suite *EngineTestSuite) TearDownTest() {
	suite.products.AssertExpectations(suite.T())
	suite.sales.AssertExpectations(suite.T())
}

func (suite *EngineTestSuite) makeProduct(name string, stock, reorderLevel int) *models.Product {
	return &models.Product{
		ID:           uuid.New(),
		TenantID:     suite.tenantID,
		Name:         name,
		SKU:          "SKU-" + name,
		CurrentStock: stock,
		ReorderLevel: reorderLevel,
		CostPrice:    10,
		SellingPrice: 15,
		Currency:     "USD",
		IsActive:     true,
	}
}

func (suite *EngineTestSuite) expectList(products ...*models.Product) {
	suite.products.On("ListForReplenishment", mock.Anything, suite.tenantID, false, (*uuid.UUID)(nil), (*uuid.UUID)(nil)).
		Return(products, nil)
}

// expectHistory wires the analysis-window sales lookup for one product.
func (suite *EngineTestSuite) expectHistory(productID uuid.UUID, points []models.SalesDailyPoint, lastSale *time.Time) {
	suite.sales.On("GetDailySales", mock.Anything, suite.tenantID, productID, baseFrom, baseTo).
		Return(points, nil)
	suite.sales.On("GetLastSaleDate", mock.Anything, suite.tenantID, productID).
		Return(lastSale, nil)
}

func constPoints(start time.Time, days, qty int) []models.SalesDailyPoint {
	points := make([]models.SalesDailyPoint, 0, days)
	for i := 0; i < days; i++ {
		points = append(points, models.SalesDailyPoint{Date: start.AddDate(0, 0, i), Quantity: qty})
	}
	return points
}

func (suite *EngineTestSuite) TestGetSuggestions_DefaultFilterKeepsActionableTiers() {
	outOfStock := suite.makeProduct("Rice 5kg", 0, 10)
	slowMover := suite.makeProduct("Wheat Flour", 10, 20)
	healthy := suite.makeProduct("Sugar 1kg", 200, 20)

	suite.expectList(outOfStock, slowMover, healthy)
	suite.expectHistory(outOfStock.ID, []models.SalesDailyPoint{}, nil)
	suite.expectHistory(slowMover.ID, constPoints(baseFrom, 30, 1), nil)
	suite.expectHistory(healthy.ID, constPoints(baseFrom, 30, 1), nil)

	suggestions, err := suite.engine.GetSuggestions(suite.ctx, suite.tenantID, models.ReorderSuggestionOptions{})

	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), suggestions, 2, "low urgency products stay out of the default view")

	assert.Equal(suite.T(), outOfStock.ID, suggestions[0].ProductID)
	assert.Equal(suite.T(), models.UrgencyCritical, suggestions[0].Urgency)
	assert.Equal(suite.T(), 0.0, suggestions[0].DaysOfStockRemaining)
	assert.Equal(suite.T(), 10, suggestions[0].RecommendedQuantity)
	assert.Equal(suite.T(), 0.0, suggestions[0].Confidence, "no history means no confidence")

	assert.Equal(suite.T(), slowMover.ID, suggestions[1].ProductID)
	assert.Equal(suite.T(), models.UrgencyHigh, suggestions[1].Urgency)
	assert.InDelta(suite.T(), 1.0, suggestions[1].AverageDailySales, 1e-9)
	assert.InDelta(suite.T(), 10.0, suggestions[1].DaysOfStockRemaining, 1e-9)
	assert.Equal(suite.T(), 17, suggestions[1].RecommendedQuantity)
	assert.Equal(suite.T(), 100.0, suggestions[1].Confidence)
}

func (suite *EngineTestSuite) TestGetSuggestions_CriticalOnlyFilterAndSummaryAgree() {
	criticalA := suite.makeProduct("Milk 1L", 0, 10)
	criticalB := suite.makeProduct("Butter 500g", 0, 10)
	products := []*models.Product{criticalA, criticalB}
	for _, name := range []string{"Bread", "Eggs 12pk", "Cheese"} {
		products = append(products, suite.makeProduct(name, 10, 20))
	}
	products = append(products, suite.makeProduct("Salt 1kg", 500, 20))

	suite.expectList(products...)
	suite.expectHistory(criticalA.ID, nil, nil)
	suite.expectHistory(criticalB.ID, nil, nil)
	for _, p := range products[2:] {
		suite.expectHistory(p.ID, constPoints(baseFrom, 30, 1), nil)
	}

	opts := models.ReorderSuggestionOptions{UrgencyFilter: []models.ReorderUrgency{models.UrgencyCritical}}

	suggestions, err := suite.engine.GetSuggestions(suite.ctx, suite.tenantID, opts)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), suggestions, 2)
	for _, s := range suggestions {
		assert.Equal(suite.T(), models.UrgencyCritical, s.Urgency)
	}

	summary, err := suite.engine.GetSummary(suite.ctx, suite.tenantID, opts)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 2, summary.Total, "summary counts only what the filter admits")
	assert.Equal(suite.T(), 2, summary.Critical)
	assert.Equal(suite.T(), 0, summary.High)
	assert.Equal(suite.T(), 0, summary.Medium)
	assert.Equal(suite.T(), 0, summary.Low)
	// Two out-of-stock products, each ordering back to reorder level 10 at cost 10.
	assert.InDelta(suite.T(), 200.0, summary.TotalRecommendedValue, 1e-9)
}

func (suite *EngineTestSuite) TestGetSuggestions_ListErrorPropagates() {
	suite.products.On("ListForReplenishment", mock.Anything, suite.tenantID, false, (*uuid.UUID)(nil), (*uuid.UUID)(nil)).
		Return(nil, errors.New("connection refused"))

	suggestions, err := suite.engine.GetSuggestions(suite.ctx, suite.tenantID, models.ReorderSuggestionOptions{})

	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "list products for replenishment")
	assert.Nil(suite.T(), suggestions)
}

func (suite *EngineTestSuite) TestGetSuggestions_HistoryFailureDegradesConfidence() {
	degraded := suite.makeProduct("Cooking Oil", 0, 10)
	healthy := suite.makeProduct("Tea 250g", 0, 10)

	suite.expectList(degraded, healthy)
	suite.sales.On("GetDailySales", mock.Anything, suite.tenantID, degraded.ID, baseFrom, baseTo).
		Return(nil, errors.New("query timeout"))
	lastSale := time.Date(2025, 3, 31, 18, 0, 0, 0, time.UTC)
	suite.expectHistory(healthy.ID, constPoints(baseFrom, 30, 1), &lastSale)

	suggestions, err := suite.engine.GetSuggestions(suite.ctx, suite.tenantID, models.ReorderSuggestionOptions{})

	assert.NoError(suite.T(), err, "one product's data problem must not fail the batch")
	assert.Len(suite.T(), suggestions, 2)

	byID := map[uuid.UUID]models.ReorderSuggestion{}
	for _, s := range suggestions {
		byID[s.ProductID] = s
	}

	d := byID[degraded.ID]
	assert.Equal(suite.T(), models.UrgencyCritical, d.Urgency)
	assert.Equal(suite.T(), 0.0, d.AverageDailySales)
	assert.Equal(suite.T(), 0.0, d.Confidence)
	assert.Nil(suite.T(), d.LastSaleDate)
	assert.Equal(suite.T(), 10, d.RecommendedQuantity, "reorder level still drives the fallback quantity")

	h := byID[healthy.ID]
	assert.Equal(suite.T(), 100.0, h.Confidence)
	assert.Equal(suite.T(), 17, h.RecommendedQuantity)
	assert.NotNil(suite.T(), h.LastSaleDate)
	assert.True(suite.T(), h.LastSaleDate.Equal(lastSale))

	suite.sales.AssertNotCalled(suite.T(), "GetLastSaleDate", mock.Anything, suite.tenantID, degraded.ID)
}

func (suite *EngineTestSuite) TestGetSuggestions_DeterministicOrdering() {
	first := suite.makeProduct("A", 0, 5)
	second := suite.makeProduct("B", 0, 5)
	third := suite.makeProduct("C", 0, 5)
	first.ID = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	second.ID = uuid.MustParse("00000000-0000-0000-0000-000000000002")
	third.ID = uuid.MustParse("00000000-0000-0000-0000-000000000003")

	// Listed out of order; every product ties on urgency and days remaining.
	suite.expectList(third, first, second)
	for _, p := range []*models.Product{first, second, third} {
		suite.expectHistory(p.ID, nil, nil)
	}

	got, err := suite.engine.GetSuggestions(suite.ctx, suite.tenantID, models.ReorderSuggestionOptions{})
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), got, 3)
	assert.Equal(suite.T(), first.ID, got[0].ProductID)
	assert.Equal(suite.T(), second.ID, got[1].ProductID)
	assert.Equal(suite.T(), third.ID, got[2].ProductID)

	again, err := suite.engine.GetSuggestions(suite.ctx, suite.tenantID, models.ReorderSuggestionOptions{})
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), got, again, "identical inputs must produce identical output")
}

func (suite *EngineTestSuite) TestGetSummary_CountsEveryTier() {
	critical := suite.makeProduct("Critical", 2, 10)
	high := suite.makeProduct("High", 10, 10)
	medium := suite.makeProduct("Medium", 20, 10)
	low := suite.makeProduct("Low", 500, 10)

	suite.expectList(critical, high, medium, low)
	for _, p := range []*models.Product{critical, high, medium, low} {
		suite.expectHistory(p.ID, constPoints(baseFrom, 30, 1), nil)
	}

	opts := models.ReorderSuggestionOptions{
		UrgencyFilter: []models.ReorderUrgency{
			models.UrgencyCritical, models.UrgencyHigh, models.UrgencyMedium, models.UrgencyLow,
		},
	}
	summary, err := suite.engine.GetSummary(suite.ctx, suite.tenantID, opts)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 4, summary.Total)
	assert.Equal(suite.T(), 1, summary.Critical)
	assert.Equal(suite.T(), 1, summary.High)
	assert.Equal(suite.T(), 1, summary.Medium)
	assert.Equal(suite.T(), 1, summary.Low)
	// critical orders 15, high orders 7, the rest order nothing; cost 10 each.
	assert.InDelta(suite.T(), 220.0, summary.TotalRecommendedValue, 1e-9)
}

func (suite *EngineTestSuite) TestGetMLSuggestions_SparseHistoryKeepsBaseEstimate() {
	product := suite.makeProduct("Seasonal Item", 5, 10)
	suite.expectList(product)

	// Five scattered sale days in sixty: below the forecasting gate.
	points := constPoints(time.Date(2025, 3, 27, 0, 0, 0, 0, time.UTC), 5, 4)
	suite.sales.On("GetDailySales", mock.Anything, suite.tenantID, product.ID, mlFrom, mlTo).
		Return(points, nil)
	lastSale := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	suite.sales.On("GetLastSaleDate", mock.Anything, suite.tenantID, product.ID).
		Return(&lastSale, nil)

	suggestions, err := suite.engine.GetMLSuggestions(suite.ctx, suite.tenantID, models.ReorderSuggestionOptions{})

	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), suggestions, 1)
	ml := suggestions[0]

	assert.InDelta(suite.T(), 20.0/30.0, ml.AverageDailySales, 1e-9, "base window is the most recent thirty days")
	assert.Equal(suite.T(), models.UrgencyHigh, ml.Urgency)

	assert.InDelta(suite.T(), ml.AverageDailySales, ml.MLPredictedDemand, 1e-9, "fallback forecasts the base rate")
	assert.Equal(suite.T(), 1.0, ml.SeasonalFactor)
	assert.Equal(suite.T(), models.TrendStable, ml.TrendDirection)
	assert.Equal(suite.T(), 0.0, ml.TrendStrength)
	assert.Equal(suite.T(), 0.0, ml.PatternConfidence)
	assert.Equal(suite.T(), 0.0, ml.ForecastAccuracy)
	assert.Equal(suite.T(), ml.Confidence, ml.MLConfidence, "fallback carries the base confidence")
	assert.Greater(suite.T(), ml.MLConfidence, 0.0)
}

func (suite *EngineTestSuite) TestGetMLSuggestions_RichHistoryRunsForecaster() {
	product := suite.makeProduct("Staple Item", 10, 10)
	suite.expectList(product)

	suite.sales.On("GetDailySales", mock.Anything, suite.tenantID, product.ID, mlFrom, mlTo).
		Return(constPoints(mlFrom, 60, 2), nil)
	lastSale := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	suite.sales.On("GetLastSaleDate", mock.Anything, suite.tenantID, product.ID).
		Return(&lastSale, nil)

	suggestions, err := suite.engine.GetMLSuggestions(suite.ctx, suite.tenantID, models.ReorderSuggestionOptions{})

	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), suggestions, 1)
	ml := suggestions[0]

	assert.InDelta(suite.T(), 2.0, ml.AverageDailySales, 1e-9)
	assert.Equal(suite.T(), models.UrgencyCritical, ml.Urgency)

	// Sixty days of flat demand: the forecaster agrees with the base rate
	// and is certain about it.
	assert.InDelta(suite.T(), 2.0, ml.MLPredictedDemand, 1e-9)
	assert.Equal(suite.T(), models.TrendStable, ml.TrendDirection)
	assert.Equal(suite.T(), 0.0, ml.TrendStrength)
	assert.InDelta(suite.T(), 1.0, ml.SeasonalFactor, 1e-9)
	assert.Equal(suite.T(), 100.0, ml.PatternConfidence)
	assert.Equal(suite.T(), 100.0, ml.ForecastAccuracy)
	assert.InDelta(suite.T(), 100.0, ml.MLConfidence, 1e-9)
}

func (suite *EngineTestSuite) TestSuggestionsFor_SkipsUnloadableProducts() {
	product := suite.makeProduct("Orderable", 0, 10)
	missingID := uuid.New()

	suite.products.On("GetByID", mock.Anything, suite.tenantID, product.ID).Return(product, nil)
	suite.products.On("GetByID", mock.Anything, suite.tenantID, missingID).Return(nil, errors.New("not found"))
	suite.expectHistory(product.ID, nil, nil)

	suggestions := suite.engine.SuggestionsFor(suite.ctx, suite.tenantID, []uuid.UUID{missingID, product.ID}, models.ReorderSuggestionOptions{})

	assert.Len(suite.T(), suggestions, 1)
	assert.Equal(suite.T(), product.ID, suggestions[0].ProductID)
	assert.Equal(suite.T(), models.UrgencyCritical, suggestions[0].Urgency)
}

func TestEngineTestSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}
