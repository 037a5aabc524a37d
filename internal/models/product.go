package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"catalog-service/internal/variants"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductStatus represents the status of a product
type ProductStatus string

const (
	ProductStatusDraft    ProductStatus = "DRAFT"
	ProductStatusActive   ProductStatus = "ACTIVE"
	ProductStatusInactive ProductStatus = "INACTIVE"
	ProductStatusArchived ProductStatus = "ARCHIVED"
)

// InventoryStatus represents the inventory status shown on the product banner
type InventoryStatus string

const (
	InventoryStatusInStock    InventoryStatus = "IN_STOCK"
	InventoryStatusOutOfStock InventoryStatus = "OUT_OF_STOCK"
)

// JSON type for PostgreSQL JSONB (object/map)
type JSON map[string]interface{}

func (j JSON) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSON)
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return fmt.Errorf("cannot scan %T into JSON", value)
	}
}

// Product is the raw catalog record. Size and colour data are kept as text
// exactly as the storefront has always written them: usually JSON, sometimes
// a plain comma-separated string. They are only interpreted by the variants
// package.
type Product struct {
	ID                  uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID            string          `json:"tenantId" gorm:"not null;index:idx_products_tenant_id;index:idx_products_tenant_sku,unique"`
	SKU                 string          `json:"sku" gorm:"not null;index:idx_products_tenant_sku,unique"`
	Name                string          `json:"name" gorm:"not null"`
	Description         *string         `json:"description,omitempty"`
	Price               string          `json:"price" gorm:"not null"`
	Status              ProductStatus   `json:"status" gorm:"not null;default:'DRAFT'"`
	Sizes               *string         `json:"sizes,omitempty" gorm:"type:text"`
	SizeColorVariants   *string         `json:"sizeColorVariants,omitempty" gorm:"column:size_color_variants;type:text"`
	Colors              *string         `json:"colors,omitempty" gorm:"type:text"`
	ProductColor        *string         `json:"productcolor,omitempty" gorm:"column:productcolor;type:text"`
	TotalStock          *int            `json:"total_stock,omitempty" gorm:"column:total_stock"`
	TotalAvailableStock *int            `json:"total_available_stock,omitempty" gorm:"column:total_available_stock"`
	Quantity            *int            `json:"quantity,omitempty"` // Flat stock for products without sizes
	Metadata            *JSON           `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`
	DeletedAt           *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// Raw returns the record in the shape the variant resolver reads. Text
// columns are handed over as JSON strings, which the resolver decodes.
func (p *Product) Raw() variants.RawProduct {
	return variants.RawProduct{
		Sizes:               textField(p.Sizes),
		SizeColorVariants:   textField(p.SizeColorVariants),
		Colors:              textField(p.Colors),
		ProductColor:        textField(p.ProductColor),
		TotalStock:          intField(p.TotalStock),
		TotalAvailableStock: intField(p.TotalAvailableStock),
	}
}

// Resolve parses the record's variant data. The model is built fresh on
// every call and never cached.
func (p *Product) Resolve() *variants.Model {
	return variants.Parse(p.Raw())
}

func textField(s *string) json.RawMessage {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	data, err := json.Marshal(*s)
	if err != nil {
		return nil
	}
	return data
}

func intField(n *int) json.RawMessage {
	if n == nil {
		return nil
	}
	data, _ := json.Marshal(*n)
	return data
}

// StoredText converts a request field holding either a native JSON value or
// a string into the text stored in a column. Strings are stored as-is so
// legacy comma-separated colours keep their form.
func StoredText(raw json.RawMessage) *string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return &s
		}
	}
	return &trimmed
}

// CreateProductRequest represents a request to create a new product. Size
// and colour fields accept any of the shapes the resolver understands.
type CreateProductRequest struct {
	Name                string          `json:"name" binding:"required"`
	SKU                 string          `json:"sku" binding:"required"`
	Description         *string         `json:"description,omitempty"`
	Price               string          `json:"price" binding:"required"`
	Status              *ProductStatus  `json:"status,omitempty"`
	Sizes               json.RawMessage `json:"sizes,omitempty" swaggertype:"object"`
	SizeColorVariants   json.RawMessage `json:"sizeColorVariants,omitempty" swaggertype:"object"`
	Colors              json.RawMessage `json:"colors,omitempty" swaggertype:"object"`
	ProductColor        json.RawMessage `json:"productcolor,omitempty" swaggertype:"object"`
	TotalStock          *int            `json:"total_stock,omitempty"`
	TotalAvailableStock *int            `json:"total_available_stock,omitempty"`
	Quantity            *int            `json:"quantity,omitempty"`
	Metadata            *JSON           `json:"metadata,omitempty"`
}

// ToProduct builds the record to persist for tenantID.
func (r *CreateProductRequest) ToProduct(tenantID string) *Product {
	status := ProductStatusDraft
	if r.Status != nil {
		status = *r.Status
	}
	return &Product{
		TenantID:            tenantID,
		SKU:                 strings.TrimSpace(r.SKU),
		Name:                strings.TrimSpace(r.Name),
		Description:         r.Description,
		Price:               r.Price,
		Status:              status,
		Sizes:               StoredText(r.Sizes),
		SizeColorVariants:   StoredText(r.SizeColorVariants),
		Colors:              StoredText(r.Colors),
		ProductColor:        StoredText(r.ProductColor),
		TotalStock:          r.TotalStock,
		TotalAvailableStock: r.TotalAvailableStock,
		Quantity:            r.Quantity,
		Metadata:            r.Metadata,
	}
}

// UpdateVariantsRequest replaces a product's size/colour breakdown
type UpdateVariantsRequest struct {
	Variants []variants.Variant `json:"variants" binding:"required"`
}

// AvailabilityResponse is what size pickers, colour swatches and the stock
// banner render from.
type AvailabilityResponse struct {
	Success         bool                 `json:"success"`
	ProductID       string               `json:"productId"`
	Size            string               `json:"size,omitempty"`
	Sizes           []variants.SizeStock `json:"sizes"`
	Colors          []string             `json:"colors"`
	HasSizes        bool                 `json:"hasSizes"`
	TotalStock      int                  `json:"totalStock"`
	InventoryStatus InventoryStatus      `json:"inventoryStatus"`
}

// StockResponse reports the stock of one size, optionally one colour
type StockResponse struct {
	Success   bool   `json:"success"`
	ProductID string `json:"productId"`
	Size      string `json:"size"`
	Color     string `json:"color,omitempty"`
	Stock     int    `json:"stock"`
}

// StockCheckItem represents a single size/colour stock check request
type StockCheckItem struct {
	ProductID string `json:"productId" binding:"required"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

// StockCheckRequest for checking stock availability
type StockCheckRequest struct {
	Items []StockCheckItem `json:"items" binding:"required,dive"`
}

// StockCheckResult represents stock availability for a single item
type StockCheckResult struct {
	ProductID   string `json:"productId"`
	Size        string `json:"size,omitempty"`
	Color       string `json:"color,omitempty"`
	Available   bool   `json:"available"`
	InStock     int    `json:"inStock"`
	Requested   int    `json:"requested"`
	ProductName string `json:"productName,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// StockCheckResponse for stock check results
type StockCheckResponse struct {
	Success    bool               `json:"success"`
	AllInStock bool               `json:"allInStock"`
	Results    []StockCheckResult `json:"results"`
	Message    *string            `json:"message,omitempty"`
}

// CartItemRequest is a storefront add-to-cart request
type CartItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
	Quantity  int    `json:"quantity"`
}

// CartValidationResponse is returned when a selection passes validation
type CartValidationResponse struct {
	Success   bool   `json:"success"`
	ProductID string `json:"productId"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
	Quantity  int    `json:"quantity"`
	Available int    `json:"available"`
	CartID    string `json:"cartId,omitempty"`
}

// Response types
type PaginationInfo struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"totalPages"`
	HasNext     bool  `json:"hasNext"`
	HasPrevious bool  `json:"hasPrevious"`
}

type ProductResponse struct {
	Success bool     `json:"success"`
	Data    *Product `json:"data"`
	Message *string  `json:"message,omitempty"`
}

type ProductListResponse struct {
	Success    bool            `json:"success"`
	Data       []Product       `json:"data"`
	Pagination *PaginationInfo `json:"pagination"`
}

type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     Error  `json:"error"`
	Timestamp string `json:"timestamp,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Details *JSON  `json:"details,omitempty"`
}
