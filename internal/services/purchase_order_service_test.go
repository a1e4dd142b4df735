package services

import (
	"context"
	"errors"
	"io"
	"testing"

	"stockpilot/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockPurchaseOrderRepository struct {
	mock.Mock
}

func (m *MockPurchaseOrderRepository) CreateWithItems(ctx context.Context, order *models.PurchaseOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockPurchaseOrderRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.PurchaseOrder, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) List(ctx context.Context, tenantID uuid.UUID, status string, limit, offset int) ([]*models.PurchaseOrder, error) {
	args := m.Called(ctx, tenantID, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) MarkReceived(ctx context.Context, tenantID, id uuid.UUID) (*models.PurchaseOrder, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) Cancel(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockPurchaseOrderRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID, status string) (int, error) {
	args := m.Called(ctx, tenantID, status)
	return args.Int(0), args.Error(1)
}

type PurchaseOrderServiceTestSuite struct {
	suite.Suite
	mockOrders *MockPurchaseOrderRepository
	mockAudit  *MockAuditLogRepository
	mockCache  *MockCacheService
	service    PurchaseOrderService
	ctx        context.Context
	tenantID   uuid.UUID
	userID     uuid.UUID
	orderID    uuid.UUID
}

func (suite *PurchaseOrderServiceTestSuite) SetupTest() {
	suite.mockOrders = new(MockPurchaseOrderRepository)
	suite.mockAudit = new(MockAuditLogRepository)
	suite.mockCache = new(MockCacheService)

	log := logrus.New()
	log.SetOutput(io.Discard)

	suite.service = NewPurchaseOrderService(suite.mockOrders, suite.mockAudit, suite.mockCache, log)
	suite.ctx = context.Background()
	suite.tenantID = uuid.New()
	suite.userID = uuid.New()
	suite.orderID = uuid.New()
}

func (suite *PurchaseOrderServiceTestSuite) TearDownTest() {
	suite.mockOrders.AssertExpectations(suite.T())
	suite.mockAudit.AssertExpectations(suite.T())
	suite.mockCache.AssertExpectations(suite.T())
}

func (suite *PurchaseOrderServiceTestSuite) TestReceive_FlipsStatusInvalidatesAndAudits() {
	// Arrange
	received := &models.PurchaseOrder{
		ID:         suite.orderID,
		TenantID:   suite.tenantID,
		Status:     models.PurchaseOrderStatusReceived,
		TotalValue: 480,
		Items: []*models.PurchaseOrderItem{
			{ID: uuid.New(), ProductID: uuid.New(), Quantity: 24, UnitPrice: 20},
		},
	}

	suite.mockOrders.On("MarkReceived", suite.ctx, suite.tenantID, suite.orderID).Return(received, nil)
	suite.mockCache.On("InvalidateTenantCache", suite.ctx, suite.tenantID).Return(nil)
	suite.mockAudit.On("Create", suite.ctx, mock.MatchedBy(func(entry *models.AuditLog) bool {
		return entry.Action == models.AuditActionOrderReceived &&
			entry.EntityID != nil && *entry.EntityID == suite.orderID &&
			entry.ActorID != nil && *entry.ActorID == suite.userID &&
			entry.Detail == "order received with 1 items, total value 480.00"
	})).Return(nil)

	// Act
	order, err := suite.service.Receive(suite.ctx, suite.tenantID, suite.orderID, suite.userID)

	// Assert
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.PurchaseOrderStatusReceived, order.Status)
}

func (suite *PurchaseOrderServiceTestSuite) TestReceive_RepoErrorPropagates() {
	// Arrange
	suite.mockOrders.On("MarkReceived", suite.ctx, suite.tenantID, suite.orderID).Return(nil, errors.New("order is not pending"))

	// Act
	order, err := suite.service.Receive(suite.ctx, suite.tenantID, suite.orderID, suite.userID)

	// Assert
	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), order)
	suite.mockCache.AssertNotCalled(suite.T(), "InvalidateTenantCache", mock.Anything, mock.Anything)
	suite.mockAudit.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
}

func (suite *PurchaseOrderServiceTestSuite) TestReceive_NilOrderIDRejected() {
	// Act
	order, err := suite.service.Receive(suite.ctx, suite.tenantID, uuid.Nil, suite.userID)

	// Assert
	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), order)
	suite.mockOrders.AssertNotCalled(suite.T(), "MarkReceived", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *PurchaseOrderServiceTestSuite) TestReceive_AuditFailureNonFatal() {
	// Arrange
	received := &models.PurchaseOrder{ID: suite.orderID, Status: models.PurchaseOrderStatusReceived}

	suite.mockOrders.On("MarkReceived", suite.ctx, suite.tenantID, suite.orderID).Return(received, nil)
	suite.mockCache.On("InvalidateTenantCache", suite.ctx, suite.tenantID).Return(nil)
	suite.mockAudit.On("Create", suite.ctx, mock.Anything).Return(errors.New("insert failed"))

	// Act
	order, err := suite.service.Receive(suite.ctx, suite.tenantID, suite.orderID, suite.userID)

	// Assert
	assert.NoError(suite.T(), err)
	assert.NotNil(suite.T(), order)
}

func (suite *PurchaseOrderServiceTestSuite) TestCancel_InvalidatesDashboardOnly() {
	// Arrange
	suite.mockOrders.On("Cancel", suite.ctx, suite.tenantID, suite.orderID).Return(nil)
	suite.mockCache.On("DeleteDashboard", suite.ctx, suite.tenantID).Return(nil)
	suite.mockAudit.On("Create", suite.ctx, mock.MatchedBy(func(entry *models.AuditLog) bool {
		return entry.Action == models.AuditActionOrderCancelled
	})).Return(nil)

	// Act
	err := suite.service.Cancel(suite.ctx, suite.tenantID, suite.orderID, suite.userID)

	// Assert
	assert.NoError(suite.T(), err)
	suite.mockCache.AssertNotCalled(suite.T(), "InvalidateTenantCache", mock.Anything, mock.Anything)
}

func (suite *PurchaseOrderServiceTestSuite) TestList_RejectsUnknownStatus() {
	// Act
	orders, err := suite.service.List(suite.ctx, suite.tenantID, "shipped", 10, 0)

	// Assert
	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), orders)
	suite.mockOrders.AssertNotCalled(suite.T(), "List", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *PurchaseOrderServiceTestSuite) TestList_DefaultsPagination() {
	// Arrange
	expected := []*models.PurchaseOrder{{ID: suite.orderID}}

	suite.mockOrders.On("List", suite.ctx, suite.tenantID, models.PurchaseOrderStatusPending, 50, 0).Return(expected, nil)

	// Act
	orders, err := suite.service.List(suite.ctx, suite.tenantID, "pending", 0, -5)

	// Assert
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), expected, orders)
}

func TestPurchaseOrderServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PurchaseOrderServiceTestSuite))
}
