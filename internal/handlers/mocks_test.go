package handlers

import (
	"context"
	"io"

	"catalog-service/internal/clients"
	"catalog-service/internal/middleware"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"catalog-service/internal/variants"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
)

// MockProductStore is a mock implementation of ProductStore
type MockProductStore struct {
	mock.Mock
}

func (m *MockProductStore) CreateProduct(ctx context.Context, tenantID string, product *models.Product) error {
	args := m.Called(ctx, tenantID, product)
	return args.Error(0)
}

func (m *MockProductStore) GetProductByID(ctx context.Context, tenantID string, productID uuid.UUID) (*models.Product, error) {
	args := m.Called(ctx, tenantID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductStore) GetProductBySKU(ctx context.Context, tenantID, sku string) (*models.Product, error) {
	args := m.Called(ctx, tenantID, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductStore) GetProductsByIDs(ctx context.Context, tenantID string, productIDs []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	args := m.Called(ctx, tenantID, productIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]*models.Product), args.Error(1)
}

func (m *MockProductStore) ListProducts(ctx context.Context, tenantID string, page, limit int) ([]models.Product, int64, error) {
	args := m.Called(ctx, tenantID, page, limit)
	return args.Get(0).([]models.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductStore) UpdateVariants(ctx context.Context, tenantID string, productID uuid.UUID, vs []variants.Variant) error {
	args := m.Called(ctx, tenantID, productID, vs)
	return args.Error(0)
}

func (m *MockProductStore) UpsertBySKU(ctx context.Context, tenantID string, products []*models.Product) (*repository.UpsertResult, error) {
	args := m.Called(ctx, tenantID, products)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.UpsertResult), args.Error(1)
}

// MockCartService is a mock implementation of CartService
type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) AddItem(ctx context.Context, tenantID, cartID string, item clients.CartItem) (*clients.CartItemResponse, error) {
	args := m.Called(ctx, tenantID, cartID, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.CartItemResponse), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishStockImported(ctx context.Context, tenantID string, products []*models.Product) error {
	args := m.Called(ctx, tenantID, products)
	return args.Error(0)
}

func (m *MockEventPublisher) PublishVariantsUpdated(ctx context.Context, tenantID string, product *models.Product) error {
	args := m.Called(ctx, tenantID, product)
	return args.Error(0)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// Helper to setup test router with the tenant header middleware
func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.TenantMiddleware())
	return r
}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }
