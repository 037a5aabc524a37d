package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"catalog-service/internal/models"
	"catalog-service/internal/variants"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Cache TTL constants
const (
	ProductCacheTTL = 5 * time.Minute // Single raw product record
)

// ErrProductNotFound is returned when no product matches the tenant and key
var ErrProductNotFound = errors.New("product not found")

type ProductsRepository struct {
	db     *gorm.DB
	redis  *redis.Client
	logger *logrus.Entry
}

// NewProductsRepository creates a repository. redis may be nil, in which case
// reads always go to the database.
func NewProductsRepository(db *gorm.DB, redis *redis.Client, logger *logrus.Logger) *ProductsRepository {
	return &ProductsRepository{
		db:     db,
		redis:  redis,
		logger: logger.WithField("component", "products_repository"),
	}
}

// UpsertResult reports what a bulk upsert did, keyed by SKU
type UpsertResult struct {
	Created []*models.Product
	Updated []*models.Product
}

func productCacheKey(tenantID string, productID uuid.UUID) string {
	return fmt.Sprintf("product:%s:%s", tenantID, productID.String())
}

// invalidateProductCache drops the cached raw record. Failures only mean a
// stale read until the TTL expires, so they are logged and ignored.
func (r *ProductsRepository) invalidateProductCache(ctx context.Context, tenantID string, productID uuid.UUID) {
	if r.redis == nil {
		return
	}
	if err := r.redis.Del(ctx, productCacheKey(tenantID, productID)).Err(); err != nil {
		r.logger.WithError(err).WithField("product_id", productID).Warn("Failed to invalidate product cache")
	}
}

// CreateProduct inserts a new raw product record
func (r *ProductsRepository) CreateProduct(ctx context.Context, tenantID string, product *models.Product) error {
	product.TenantID = tenantID
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// GetProductByID retrieves a raw product record, reading through Redis
func (r *ProductsRepository) GetProductByID(ctx context.Context, tenantID string, productID uuid.UUID) (*models.Product, error) {
	cacheKey := productCacheKey(tenantID, productID)

	if r.redis != nil {
		val, err := r.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var product models.Product
			if err := json.Unmarshal([]byte(val), &product); err == nil {
				return &product, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			r.logger.WithError(err).Debug("Product cache read failed")
		}
	}

	var product models.Product
	err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, productID).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: id=%s", ErrProductNotFound, productID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load product %s: %w", productID, err)
	}

	if r.redis != nil {
		if data, err := json.Marshal(product); err == nil {
			if err := r.redis.Set(ctx, cacheKey, data, ProductCacheTTL).Err(); err != nil {
				r.logger.WithError(err).Debug("Product cache write failed")
			}
		}
	}

	return &product, nil
}

// GetProductBySKU retrieves a raw product record by SKU
func (r *ProductsRepository) GetProductBySKU(ctx context.Context, tenantID, sku string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Where("tenant_id = ? AND sku = ?", tenantID, sku).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: sku=%s", ErrProductNotFound, sku)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load product by sku %s: %w", sku, err)
	}
	return &product, nil
}

// GetProductsByIDs retrieves several records in one query. Missing IDs are
// simply absent from the result.
func (r *ProductsRepository) GetProductsByIDs(ctx context.Context, tenantID string, productIDs []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	result := make(map[uuid.UUID]*models.Product, len(productIDs))
	if len(productIDs) == 0 {
		return result, nil
	}

	var products []models.Product
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND id IN ?", tenantID, productIDs).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	for i := range products {
		result[products[i].ID] = &products[i]
	}
	return result, nil
}

// ListProducts returns one page of a tenant's products, newest first
func (r *ProductsRepository) ListProducts(ctx context.Context, tenantID string, page, limit int) ([]models.Product, int64, error) {
	var products []models.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Product{}).Where("tenant_id = ?", tenantID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

// UpdateVariants replaces a product's size breakdown with vs, written in the
// current format. The separate sizeColorVariants field and the precomputed
// totals are cleared so nothing stale outranks the new breakdown.
func (r *ProductsRepository) UpdateVariants(ctx context.Context, tenantID string, productID uuid.UUID, vs []variants.Variant) error {
	sizes, err := json.Marshal(vs)
	if err != nil {
		return fmt.Errorf("failed to encode variants: %w", err)
	}

	res := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("tenant_id = ? AND id = ?", tenantID, productID).
		Updates(map[string]interface{}{
			"sizes":                 string(sizes),
			"size_color_variants":   nil,
			"total_stock":           nil,
			"total_available_stock": nil,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update variants for %s: %w", productID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: id=%s", ErrProductNotFound, productID)
	}

	r.invalidateProductCache(ctx, tenantID, productID)
	return nil
}

// UpsertBySKU creates or updates products matched by SKU in one transaction.
// Existing records keep their name and price unless the incoming record
// carries new ones; their size and colour columns are replaced.
func (r *ProductsRepository) UpsertBySKU(ctx context.Context, tenantID string, products []*models.Product) (*UpsertResult, error) {
	result := &UpsertResult{}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, incoming := range products {
			incoming.TenantID = tenantID

			var existing models.Product
			err := tx.Where("tenant_id = ? AND sku = ?", tenantID, incoming.SKU).First(&existing).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				if err := tx.Create(incoming).Error; err != nil {
					return fmt.Errorf("failed to create product %s: %w", incoming.SKU, err)
				}
				result.Created = append(result.Created, incoming)
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to look up product %s: %w", incoming.SKU, err)
			}

			updates := map[string]interface{}{
				"sizes":                 incoming.Sizes,
				"size_color_variants":   nil,
				"colors":                incoming.Colors,
				"productcolor":          nil,
				"total_stock":           nil,
				"total_available_stock": nil,
				"quantity":              incoming.Quantity,
			}
			if strings.TrimSpace(incoming.Name) != "" {
				updates["name"] = incoming.Name
			}
			if strings.TrimSpace(incoming.Price) != "" {
				updates["price"] = incoming.Price
			}
			if err := tx.Model(&existing).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update product %s: %w", incoming.SKU, err)
			}
			incoming.ID = existing.ID
			result.Updated = append(result.Updated, incoming)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, p := range result.Updated {
		r.invalidateProductCache(ctx, tenantID, p.ID)
	}
	return result, nil
}
