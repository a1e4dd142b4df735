package services

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

type MockSuggestionEngine struct {
	mock.Mock
}

func (m *MockSuggestionEngine) NormalizeOptions(opts models.ReorderSuggestionOptions) models.ReorderSuggestionOptions {
	args := m.Called(opts)
	return args.Get(0).(models.ReorderSuggestionOptions)
}

func (m *MockSuggestionEngine) GetSuggestions(ctx context.Context, tenantID uuid.UUID, opts models.ReorderSuggestionOptions) ([]models.ReorderSuggestion, error) {
	args := m.Called(ctx, tenantID, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ReorderSuggestion), args.Error(1)
}

func (m *MockSuggestionEngine) GetMLSuggestions(ctx context.Context, tenantID uuid.UUID, opts models.ReorderSuggestionOptions) ([]models.MLReorderSuggestion, error) {
	args := m.Called(ctx, tenantID, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MLReorderSuggestion), args.Error(1)
}

func (m *MockSuggestionEngine) SuggestionsFor(ctx context.Context, tenantID uuid.UUID, productIDs []uuid.UUID, opts models.ReorderSuggestionOptions) []models.ReorderSuggestion {
	args := m.Called(ctx, tenantID, productIDs, opts)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]models.ReorderSuggestion)
}

type MockOrderBatcher struct {
	mock.Mock
}

func (m *MockOrderBatcher) CreateOrders(ctx context.Context, tenantID uuid.UUID, selected []models.ReorderSuggestion, userID uuid.UUID) *models.PurchaseOrderBatchResult {
	args := m.Called(ctx, tenantID, selected, userID)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*models.PurchaseOrderBatchResult)
}

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*models.Product, error) {
	args := m.Called(ctx, tenantID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockCacheService) SetProduct(ctx context.Context, tenantID uuid.UUID, product *models.Product, ttl time.Duration) error {
	args := m.Called(ctx, tenantID, product, ttl)
	return args.Error(0)
}

func (m *MockCacheService) DeleteProduct(ctx context.Context, tenantID, productID uuid.UUID) error {
	args := m.Called(ctx, tenantID, productID)
	return args.Error(0)
}

func (m *MockCacheService) GetSuggestions(ctx context.Context, tenantID uuid.UUID, fingerprint string) ([]models.ReorderSuggestion, error) {
	args := m.Called(ctx, tenantID, fingerprint)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ReorderSuggestion), args.Error(1)
}

func (m *MockCacheService) SetSuggestions(ctx context.Context, tenantID uuid.UUID, fingerprint string, suggestions []models.ReorderSuggestion, ttl time.Duration) error {
	args := m.Called(ctx, tenantID, fingerprint, suggestions, ttl)
	return args.Error(0)
}

func (m *MockCacheService) GetMLSuggestions(ctx context.Context, tenantID uuid.UUID, fingerprint string) ([]models.MLReorderSuggestion, error) {
	args := m.Called(ctx, tenantID, fingerprint)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MLReorderSuggestion), args.Error(1)
}

func (m *MockCacheService) SetMLSuggestions(ctx context.Context, tenantID uuid.UUID, fingerprint string, suggestions []models.MLReorderSuggestion, ttl time.Duration) error {
	args := m.Called(ctx, tenantID, fingerprint, suggestions, ttl)
	return args.Error(0)
}

func (m *MockCacheService) InvalidateSuggestions(ctx context.Context, tenantID uuid.UUID) error {
	args := m.Called(ctx, tenantID)
	return args.Error(0)
}

func (m *MockCacheService) GetDashboard(ctx context.Context, tenantID uuid.UUID) (*models.DashboardMetrics, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DashboardMetrics), args.Error(1)
}

func (m *MockCacheService) SetDashboard(ctx context.Context, tenantID uuid.UUID, metrics *models.DashboardMetrics, ttl time.Duration) error {
	args := m.Called(ctx, tenantID, metrics, ttl)
	return args.Error(0)
}

func (m *MockCacheService) DeleteDashboard(ctx context.Context, tenantID uuid.UUID) error {
	args := m.Called(ctx, tenantID)
	return args.Error(0)
}

func (m *MockCacheService) InvalidateTenantCache(ctx context.Context, tenantID uuid.UUID) error {
	args := m.Called(ctx, tenantID)
	return args.Error(0)
}

func (m *MockCacheService) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockAuditLogRepository struct {
	mock.Mock
}

func (m *MockAuditLogRepository) Create(ctx context.Context, log *models.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockAuditLogRepository) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.AuditLog, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AuditLog), args.Error(1)
}

const reorderTestTTL = 5 * time.Minute

type ReorderServiceTestSuite struct {
	suite.Suite
	mockEngine  *MockSuggestionEngine
	mockBatcher *MockOrderBatcher
	mockCache   *MockCacheService
	mockAudit   *MockAuditLogRepository
	service     ReorderService
	ctx         context.Context
	tenantID    uuid.UUID
	userID      uuid.UUID
	normalized  models.ReorderSuggestionOptions
}

func (suite *ReorderServiceTestSuite) SetupTest() {
	suite.mockEngine = new(MockSuggestionEngine)
	suite.mockBatcher = new(MockOrderBatcher)
	suite.mockCache = new(MockCacheService)
	suite.mockAudit = new(MockAuditLogRepository)

	log := logrus.New()
	log.SetOutput(io.Discard)

	suite.service = NewReorderService(suite.mockEngine, suite.mockBatcher, suite.mockCache, suite.mockAudit, reorderTestTTL, log)
	suite.ctx = context.Background()
	suite.tenantID = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001")
	suite.userID = uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000001")
	suite.normalized = models.ReorderSuggestionOptions{
		UrgencyFilter:      []models.ReorderUrgency{models.UrgencyCritical, models.UrgencyHigh},
		AnalysisPeriodDays: 30,
		SafetyStockDays:    7,
		ForecastPeriodDays: 7,
		MinDataPointsForML: 14,
	}
}

func (suite *ReorderServiceTestSuite) TearDownTest() {
	suite.mockEngine.AssertExpectations(suite.T())
	suite.mockBatcher.AssertExpectations(suite.T())
	suite.mockCache.AssertExpectations(suite.T())
	suite.mockAudit.AssertExpectations(suite.T())
}

func (suite *ReorderServiceTestSuite) sampleSuggestions() []models.ReorderSuggestion {
	return []models.ReorderSuggestion{
		{
			ProductID:           uuid.MustParse("00000000-0000-0000-0000-000000000001"),
			ProductName:         "Basmati Rice 5kg",
			SKU:                 "RICE-5KG",
			CurrentStock:        0,
			ReorderLevel:        10,
			CostPrice:           20,
			RecommendedQuantity: 5,
			Urgency:             models.UrgencyCritical,
		},
		{
			ProductID:           uuid.MustParse("00000000-0000-0000-0000-000000000002"),
			ProductName:         "Toor Dal 1kg",
			SKU:                 "DAL-1KG",
			CurrentStock:        8,
			ReorderLevel:        10,
			CostPrice:           10,
			RecommendedQuantity: 12,
			Urgency:             models.UrgencyHigh,
		},
	}
}

func (suite *ReorderServiceTestSuite) TestGetSuggestions_CacheMiss_ComputesAndStores() {
	// Arrange
	expected := suite.sampleSuggestions()
	fingerprint := suite.normalized.Fingerprint()

	suite.mockEngine.On("NormalizeOptions", models.ReorderSuggestionOptions{}).Return(suite.normalized)
	suite.mockCache.On("GetSuggestions", suite.ctx, suite.tenantID, fingerprint).Return(nil, nil)
	suite.mockEngine.On("GetSuggestions", suite.ctx, suite.tenantID, suite.normalized).Return(expected, nil)
	suite.mockCache.On("SetSuggestions", suite.ctx, suite.tenantID, fingerprint, expected, reorderTestTTL).Return(nil)

	// Act
	result, err := suite.service.GetSuggestions(suite.ctx, suite.tenantID, models.ReorderSuggestionOptions{})

	// Assert
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), expected, result)
}

func (suite *ReorderServiceTestSuite) TestGetSuggestions_CacheHit_SkipsEngine() {
	// Arrange
	cached := suite.sampleSuggestions()
	fingerprint := suite.normalized.Fingerprint()

	suite.mockEngine.On("NormalizeOptions", models.ReorderSuggestionOptions{}).Return(suite.normalized)
	suite.mockCache.On("GetSuggestions", suite.ctx, suite.tenantID, fingerprint).Return(cached, nil)

	// Act
	result, err := suite.service.GetSuggestions(suite.ctx, suite.tenantID, models.ReorderSuggestionOptions{})

	// Assert
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), cached, result)
	suite.mockEngine.AssertNotCalled(suite.T(), "GetSuggestions", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ReorderServiceTestSuite) TestGetSuggestions_CachedEmptyResult_IsServed() {
	// A memoized run that produced no suggestions must not be recomputed:
	// the cache stores an empty slice, which is distinguishable from a miss.
	fingerprint := suite.normalized.Fingerprint()

	suite.mockEngine.On("NormalizeOptions", models.ReorderSuggestionOptions{}).Return(suite.normalized)
	suite.mockCache.On("GetSuggestions", suite.ctx, suite.tenantID, fingerprint).Return([]models.ReorderSuggestion{}, nil)

	result, err := suite.service.GetSuggestions(suite.ctx, suite.tenantID, models.ReorderSuggestionOptions{})

	assert.NoError(suite.T(), err)
	assert.Empty(suite.T(), result)
	suite.mockEngine.AssertNotCalled(suite.T(), "GetSuggestions", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ReorderServiceTestSuite) TestGetSuggestions_EngineError_Propagates() {
	// Arrange
	fingerprint := suite.normalized.Fingerprint()

	suite.mockEngine.On("NormalizeOptions", models.ReorderSuggestionOptions{}).Return(suite.normalized)
	suite.mockCache.On("GetSuggestions", suite.ctx, suite.tenantID, fingerprint).Return(nil, nil)
	suite.mockEngine.On("GetSuggestions", suite.ctx, suite.tenantID, suite.normalized).Return(nil, errors.New("database unavailable"))

	// Act
	result, err := suite.service.GetSuggestions(suite.ctx, suite.tenantID, models.ReorderSuggestionOptions{})

	// Assert
	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), result)
	suite.mockCache.AssertNotCalled(suite.T(), "SetSuggestions", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ReorderServiceTestSuite) TestGetSuggestions_CacheWriteFailure_NonFatal() {
	// Arrange
	expected := suite.sampleSuggestions()
	fingerprint := suite.normalized.Fingerprint()

	suite.mockEngine.On("NormalizeOptions", models.ReorderSuggestionOptions{}).Return(suite.normalized)
	suite.mockCache.On("GetSuggestions", suite.ctx, suite.tenantID, fingerprint).Return(nil, errors.New("redis down"))
	suite.mockEngine.On("GetSuggestions", suite.ctx, suite.tenantID, suite.normalized).Return(expected, nil)
	suite.mockCache.On("SetSuggestions", suite.ctx, suite.tenantID, fingerprint, expected, reorderTestTTL).Return(errors.New("redis down"))

	// Act
	result, err := suite.service.GetSuggestions(suite.ctx, suite.tenantID, models.ReorderSuggestionOptions{})

	// Assert
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), expected, result)
}

func (suite *ReorderServiceTestSuite) TestGetSummary_FoldsCachedSuggestions() {
	// Arrange
	cached := suite.sampleSuggestions()
	fingerprint := suite.normalized.Fingerprint()

	suite.mockEngine.On("NormalizeOptions", models.ReorderSuggestionOptions{}).Return(suite.normalized)
	suite.mockCache.On("GetSuggestions", suite.ctx, suite.tenantID, fingerprint).Return(cached, nil)

	// Act
	summary, err := suite.service.GetSummary(suite.ctx, suite.tenantID, models.ReorderSuggestionOptions{})

	// Assert
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 2, summary.Total)
	assert.Equal(suite.T(), 1, summary.Critical)
	assert.Equal(suite.T(), 1, summary.High)
	assert.Equal(suite.T(), 0, summary.Medium)
	assert.Equal(suite.T(), 0, summary.Low)
	// 5*20 + 12*10
	assert.InDelta(suite.T(), 220.0, summary.TotalRecommendedValue, 1e-9)
	suite.mockEngine.AssertNotCalled(suite.T(), "GetSuggestions", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ReorderServiceTestSuite) TestGetMLSuggestions_CacheMiss_ComputesAndStores() {
	// Arrange
	expected := []models.MLReorderSuggestion{
		{
			ReorderSuggestion: suite.sampleSuggestions()[0],
			MLPredictedDemand: 4.2,
			SeasonalFactor:    1.1,
			TrendDirection:    models.TrendIncreasing,
			TrendStrength:     0.3,
		},
	}
	fingerprint := suite.normalized.Fingerprint()

	suite.mockEngine.On("NormalizeOptions", models.ReorderSuggestionOptions{}).Return(suite.normalized)
	suite.mockCache.On("GetMLSuggestions", suite.ctx, suite.tenantID, fingerprint).Return(nil, nil)
	suite.mockEngine.On("GetMLSuggestions", suite.ctx, suite.tenantID, suite.normalized).Return(expected, nil)
	suite.mockCache.On("SetMLSuggestions", suite.ctx, suite.tenantID, fingerprint, expected, reorderTestTTL).Return(nil)

	// Act
	result, err := suite.service.GetMLSuggestions(suite.ctx, suite.tenantID, models.ReorderSuggestionOptions{})

	// Assert
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), expected, result)
}

func (suite *ReorderServiceTestSuite) TestGetMLSuggestions_CacheHit_SkipsEngine() {
	// Arrange
	cached := []models.MLReorderSuggestion{
		{ReorderSuggestion: suite.sampleSuggestions()[1], TrendDirection: models.TrendStable},
	}
	fingerprint := suite.normalized.Fingerprint()

	suite.mockEngine.On("NormalizeOptions", models.ReorderSuggestionOptions{}).Return(suite.normalized)
	suite.mockCache.On("GetMLSuggestions", suite.ctx, suite.tenantID, fingerprint).Return(cached, nil)

	// Act
	result, err := suite.service.GetMLSuggestions(suite.ctx, suite.tenantID, models.ReorderSuggestionOptions{})

	// Assert
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), cached, result)
	suite.mockEngine.AssertNotCalled(suite.T(), "GetMLSuggestions", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ReorderServiceTestSuite) TestCreateOrders_EmptySelection_Error() {
	// Act
	result, err := suite.service.CreateOrdersFromSuggestions(suite.ctx, suite.tenantID, nil, models.ReorderSuggestionOptions{}, suite.userID)

	// Assert
	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), result)
	suite.mockEngine.AssertNotCalled(suite.T(), "SuggestionsFor", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockBatcher.AssertNotCalled(suite.T(), "CreateOrders", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ReorderServiceTestSuite) TestCreateOrders_Success_AuditsAndInvalidatesDashboard() {
	// Arrange
	suggestions := suite.sampleSuggestions()
	productIDs := []uuid.UUID{suggestions[0].ProductID, suggestions[1].ProductID}
	batchResult := &models.PurchaseOrderBatchResult{
		Success:         true,
		CreatedCount:    2,
		CreatedOrderIDs: []uuid.UUID{uuid.New(), uuid.New()},
	}

	suite.mockEngine.On("NormalizeOptions", models.ReorderSuggestionOptions{}).Return(suite.normalized)
	suite.mockEngine.On("SuggestionsFor", suite.ctx, suite.tenantID, productIDs, suite.normalized).Return(suggestions)
	suite.mockBatcher.On("CreateOrders", suite.ctx, suite.tenantID, suggestions, suite.userID).Return(batchResult)
	suite.mockAudit.On("Create", suite.ctx, mock.MatchedBy(func(entry *models.AuditLog) bool {
		return entry.TenantID == suite.tenantID &&
			entry.Action == models.AuditActionReorderBatch &&
			entry.EntityType == "purchase_order" &&
			entry.ActorID != nil && *entry.ActorID == suite.userID &&
			entry.Detail == "created 2 purchase orders from 2 selected products (0 failed)"
	})).Return(nil)
	suite.mockCache.On("DeleteDashboard", suite.ctx, suite.tenantID).Return(nil)

	// Act
	result, err := suite.service.CreateOrdersFromSuggestions(suite.ctx, suite.tenantID, productIDs, models.ReorderSuggestionOptions{}, suite.userID)

	// Assert
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), result.Success)
	assert.Equal(suite.T(), 2, result.CreatedCount)
	assert.Empty(suite.T(), result.Warnings)
}

func (suite *ReorderServiceTestSuite) TestCreateOrders_UnevaluatedProductsBecomeWarnings() {
	// Arrange
	suggestions := suite.sampleSuggestions()
	missingID := uuid.MustParse("00000000-0000-0000-0000-00000000dead")
	productIDs := []uuid.UUID{suggestions[0].ProductID, suggestions[1].ProductID, missingID}
	batchResult := &models.PurchaseOrderBatchResult{
		Success:      true,
		CreatedCount: 1,
		Warnings:     []string{"Loose Jaggery: product has no supplier, skipped"},
	}

	suite.mockEngine.On("NormalizeOptions", models.ReorderSuggestionOptions{}).Return(suite.normalized)
	suite.mockEngine.On("SuggestionsFor", suite.ctx, suite.tenantID, productIDs, suite.normalized).Return(suggestions)
	suite.mockBatcher.On("CreateOrders", suite.ctx, suite.tenantID, suggestions, suite.userID).Return(batchResult)
	suite.mockAudit.On("Create", suite.ctx, mock.Anything).Return(nil)
	suite.mockCache.On("DeleteDashboard", suite.ctx, suite.tenantID).Return(nil)

	// Act
	result, err := suite.service.CreateOrdersFromSuggestions(suite.ctx, suite.tenantID, productIDs, models.ReorderSuggestionOptions{}, suite.userID)

	// Assert
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), []string{
		"product 00000000-0000-0000-0000-00000000dead: could not be evaluated, skipped",
		"Loose Jaggery: product has no supplier, skipped",
	}, result.Warnings)
}

func (suite *ReorderServiceTestSuite) TestCreateOrders_NothingCreated_NoAuditNoInvalidation() {
	// Arrange
	suggestions := suite.sampleSuggestions()
	productIDs := []uuid.UUID{suggestions[0].ProductID, suggestions[1].ProductID}
	batchResult := &models.PurchaseOrderBatchResult{
		Success:     false,
		FailedCount: 2,
		Errors:      []string{"Acme Traders: order creation failed: connection reset"},
	}

	suite.mockEngine.On("NormalizeOptions", models.ReorderSuggestionOptions{}).Return(suite.normalized)
	suite.mockEngine.On("SuggestionsFor", suite.ctx, suite.tenantID, productIDs, suite.normalized).Return(suggestions)
	suite.mockBatcher.On("CreateOrders", suite.ctx, suite.tenantID, suggestions, suite.userID).Return(batchResult)

	// Act
	result, err := suite.service.CreateOrdersFromSuggestions(suite.ctx, suite.tenantID, productIDs, models.ReorderSuggestionOptions{}, suite.userID)

	// Assert
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), result.Success)
	suite.mockAudit.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
	suite.mockCache.AssertNotCalled(suite.T(), "DeleteDashboard", mock.Anything, mock.Anything)
}

func (suite *ReorderServiceTestSuite) TestCreateOrders_AuditFailure_NonFatal() {
	// Arrange
	suggestions := suite.sampleSuggestions()[:1]
	productIDs := []uuid.UUID{suggestions[0].ProductID}
	batchResult := &models.PurchaseOrderBatchResult{Success: true, CreatedCount: 1}

	suite.mockEngine.On("NormalizeOptions", models.ReorderSuggestionOptions{}).Return(suite.normalized)
	suite.mockEngine.On("SuggestionsFor", suite.ctx, suite.tenantID, productIDs, suite.normalized).Return(suggestions)
	suite.mockBatcher.On("CreateOrders", suite.ctx, suite.tenantID, suggestions, uuid.Nil).Return(batchResult)
	suite.mockAudit.On("Create", suite.ctx, mock.MatchedBy(func(entry *models.AuditLog) bool {
		// An anonymous batch keeps the actor unset.
		return entry.ActorID == nil
	})).Return(errors.New("insert failed"))
	suite.mockCache.On("DeleteDashboard", suite.ctx, suite.tenantID).Return(nil)

	// Act
	result, err := suite.service.CreateOrdersFromSuggestions(suite.ctx, suite.tenantID, productIDs, models.ReorderSuggestionOptions{}, uuid.Nil)

	// Assert
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), result.Success)
	assert.Equal(suite.T(), 1, result.CreatedCount)
}

func TestReorderServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReorderServiceTestSuite))
}
