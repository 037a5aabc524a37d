package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"catalog-service/internal/clients"
	"catalog-service/internal/middleware"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"catalog-service/internal/variants"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ProductStore is the persistence the handlers need
type ProductStore interface {
	CreateProduct(ctx context.Context, tenantID string, product *models.Product) error
	GetProductByID(ctx context.Context, tenantID string, productID uuid.UUID) (*models.Product, error)
	GetProductBySKU(ctx context.Context, tenantID, sku string) (*models.Product, error)
	GetProductsByIDs(ctx context.Context, tenantID string, productIDs []uuid.UUID) (map[uuid.UUID]*models.Product, error)
	ListProducts(ctx context.Context, tenantID string, page, limit int) ([]models.Product, int64, error)
	UpdateVariants(ctx context.Context, tenantID string, productID uuid.UUID, vs []variants.Variant) error
	UpsertBySKU(ctx context.Context, tenantID string, products []*models.Product) (*repository.UpsertResult, error)
}

// CartService accepts items that already passed validation
type CartService interface {
	AddItem(ctx context.Context, tenantID, cartID string, item clients.CartItem) (*clients.CartItemResponse, error)
}

// EventPublisher announces stock changes. A nil *events.Publisher satisfies it.
type EventPublisher interface {
	PublishStockImported(ctx context.Context, tenantID string, products []*models.Product) error
	PublishVariantsUpdated(ctx context.Context, tenantID string, product *models.Product) error
}

// Pagination limits for list endpoints
type Pagination struct {
	DefaultPageSize int
	MaxPageSize     int
}

type ProductsHandler struct {
	store      ProductStore
	cart       CartService
	publisher  EventPublisher
	pagination Pagination
	logger     *logrus.Entry
}

func NewProductsHandler(store ProductStore, cart CartService, publisher EventPublisher, pagination Pagination, logger *logrus.Logger) *ProductsHandler {
	if pagination.DefaultPageSize < 1 {
		pagination.DefaultPageSize = 20
	}
	if pagination.MaxPageSize < pagination.DefaultPageSize {
		pagination.MaxPageSize = pagination.DefaultPageSize
	}
	return &ProductsHandler{
		store:      store,
		cart:       cart,
		publisher:  publisher,
		pagination: pagination,
		logger:     logger.WithField("component", "products_handler"),
	}
}

func errorJSON(c *gin.Context, status int, code, message, field string) {
	c.JSON(status, models.ErrorResponse{
		Success: false,
		Error: models.Error{
			Code:    code,
			Message: message,
			Field:   field,
		},
	})
}

// loadProduct resolves the :id path parameter for the request's tenant and
// writes the error response itself when it cannot.
func (h *ProductsHandler) loadProduct(c *gin.Context, rawID string) (*models.Product, bool) {
	productID, err := uuid.Parse(rawID)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID format", "productId")
		return nil, false
	}

	product, err := h.store.GetProductByID(c.Request.Context(), middleware.GetTenantID(c), productID)
	if errors.Is(err, repository.ErrProductNotFound) {
		errorJSON(c, http.StatusNotFound, "NOT_FOUND", "Product not found", "")
		return nil, false
	}
	if err != nil {
		h.logger.WithError(err).WithField("product_id", productID).Error("Failed to load product")
		errorJSON(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to retrieve product", "")
		return nil, false
	}
	return product, true
}

// GetAvailability returns the purchasable sizes, the colours for the chosen
// size (or all colours) and the whole-product stock banner.
// GET /api/v1/storefront/products/:id/availability?size=M
func (h *ProductsHandler) GetAvailability(c *gin.Context) {
	product, ok := h.loadProduct(c, c.Param("id"))
	if !ok {
		return
	}

	model := product.Resolve()
	size := strings.TrimSpace(c.Query("size"))
	total := model.TotalStock(model.PrecomputedTotal, product.Quantity)

	status := models.InventoryStatusOutOfStock
	if model.InStock(product.Quantity) {
		status = models.InventoryStatusInStock
	}

	c.JSON(http.StatusOK, models.AvailabilityResponse{
		Success:         true,
		ProductID:       product.ID.String(),
		Size:            size,
		Sizes:           model.AvailableSizes(),
		Colors:          model.AvailableColors(size),
		HasSizes:        model.HasSizes(),
		TotalStock:      total,
		InventoryStatus: status,
	})
}

// GetStock returns the stock of one size, in one colour when given.
// GET /api/v1/storefront/products/:id/stock?size=M&color=black
func (h *ProductsHandler) GetStock(c *gin.Context) {
	size := strings.TrimSpace(c.Query("size"))
	if size == "" {
		errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "size is required", "size")
		return
	}

	product, ok := h.loadProduct(c, c.Param("id"))
	if !ok {
		return
	}

	color := strings.TrimSpace(c.Query("color"))
	c.JSON(http.StatusOK, models.StockResponse{
		Success:   true,
		ProductID: product.ID.String(),
		Size:      size,
		Color:     color,
		Stock:     product.Resolve().StockFor(size, color),
	})
}

// availableFor is the figure a purchase of size/color is checked against
func availableFor(model *variants.Model, product *models.Product, size, color string) int {
	if model.HasSizes() {
		return model.StockFor(size, color)
	}
	switch {
	case product.Quantity != nil:
		return max(*product.Quantity, 0)
	case model.PrecomputedTotal != nil:
		return max(*model.PrecomputedTotal, 0)
	}
	return 0
}

// CheckStock checks a batch of size/colour selections
// POST /api/v1/products/inventory/check
func (h *ProductsHandler) CheckStock(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	var req models.StockCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), "")
		return
	}

	ids := make([]uuid.UUID, 0, len(req.Items))
	for _, item := range req.Items {
		if id, err := uuid.Parse(item.ProductID); err == nil {
			ids = append(ids, id)
		}
	}

	products, err := h.store.GetProductsByIDs(c.Request.Context(), tenantID, ids)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load products for stock check")
		errorJSON(c, http.StatusInternalServerError, "STOCK_CHECK_FAILED", "Failed to check stock availability", "")
		return
	}

	results := make([]models.StockCheckResult, 0, len(req.Items))
	allInStock := true
	for _, item := range req.Items {
		result := models.StockCheckResult{
			ProductID: item.ProductID,
			Size:      item.Size,
			Color:     item.Color,
			Requested: item.Quantity,
		}

		id, _ := uuid.Parse(item.ProductID)
		product, found := products[id]
		if !found {
			result.Reason = "product not found"
		} else {
			model := product.Resolve()
			result.ProductName = product.Name
			result.InStock = availableFor(model, product, item.Size, item.Color)
			_, err := model.Validate(variants.Purchase{
				Size:     item.Size,
				Color:    item.Color,
				Quantity: item.Quantity,
			}, product.Quantity)
			if err != nil {
				result.Reason = err.Error()
			} else {
				result.Available = true
			}
		}

		if !result.Available {
			allInStock = false
		}
		results = append(results, result)
	}

	response := models.StockCheckResponse{
		Success:    true,
		AllInStock: allInStock,
		Results:    results,
	}
	if !allInStock {
		message := "Some items are out of stock"
		response.Message = &message
	}

	c.JSON(http.StatusOK, response)
}

// selectionError maps a validation failure to its HTTP error code
func selectionError(c *gin.Context, err error) {
	code := "VALIDATION_ERROR"
	field := ""
	switch {
	case variants.IsIncompatibleSelectionError(err):
		code = "INCOMPATIBLE_SELECTION"
	case variants.IsInsufficientStockError(err):
		code = "INSUFFICIENT_STOCK"
		field = "quantity"
	case variants.IsInvalidQuantityError(err):
		code = "INVALID_QUANTITY"
		field = "quantity"
	}
	errorJSON(c, http.StatusUnprocessableEntity, code, err.Error(), field)
}

// validateSelection binds and validates an add-to-cart request. It writes
// the error response itself and reports false when the request is rejected.
func (h *ProductsHandler) validateSelection(c *gin.Context) (*models.Product, variants.Purchase, int, bool) {
	var req models.CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), "")
		return nil, variants.Purchase{}, 0, false
	}

	product, ok := h.loadProduct(c, req.ProductID)
	if !ok {
		return nil, variants.Purchase{}, 0, false
	}

	model := product.Resolve()
	purchase, err := model.Validate(variants.Purchase{
		Size:     req.Size,
		Color:    req.Color,
		Quantity: req.Quantity,
	}, product.Quantity)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"product_id": product.ID,
			"size":       req.Size,
			"color":      req.Color,
			"quantity":   req.Quantity,
		}).WithError(err).Debug("Cart selection rejected")
		selectionError(c, err)
		return nil, variants.Purchase{}, 0, false
	}

	return product, purchase, availableFor(model, product, purchase.Size, purchase.Color), true
}

// ValidateCartItem checks a selection without touching the cart
// POST /api/v1/storefront/cart/validate
func (h *ProductsHandler) ValidateCartItem(c *gin.Context) {
	product, purchase, available, ok := h.validateSelection(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, models.CartValidationResponse{
		Success:   true,
		ProductID: product.ID.String(),
		Size:      purchase.Size,
		Color:     purchase.Color,
		Quantity:  purchase.Quantity,
		Available: available,
	})
}

// AddCartItem validates a selection and only then forwards it to the cart
// named by the X-Cart-ID header.
// POST /api/v1/storefront/cart/items
func (h *ProductsHandler) AddCartItem(c *gin.Context) {
	product, purchase, available, ok := h.validateSelection(c)
	if !ok {
		return
	}

	cartID := middleware.GetCartID(c)
	_, err := h.cart.AddItem(c.Request.Context(), middleware.GetTenantID(c), cartID, clients.CartItem{
		ProductID: product.ID.String(),
		SKU:       product.SKU,
		Name:      product.Name,
		Price:     product.Price,
		Size:      purchase.Size,
		Color:     purchase.Color,
		Quantity:  purchase.Quantity,
	})
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"product_id": product.ID,
			"cart_id":    cartID,
		}).Error("Cart service rejected item")
		errorJSON(c, http.StatusBadGateway, "CART_SERVICE_ERROR", "Failed to add item to cart", "")
		return
	}

	c.JSON(http.StatusCreated, models.CartValidationResponse{
		Success:   true,
		ProductID: product.ID.String(),
		Size:      purchase.Size,
		Color:     purchase.Color,
		Quantity:  purchase.Quantity,
		Available: available,
		CartID:    cartID,
	})
}

// CreateProduct creates a new product
func (h *ProductsHandler) CreateProduct(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), "")
		return
	}

	product := req.ToProduct(tenantID)
	if err := h.store.CreateProduct(c.Request.Context(), tenantID, product); err != nil {
		h.logger.WithError(err).WithField("sku", product.SKU).Error("Failed to create product")
		errorJSON(c, http.StatusInternalServerError, "CREATE_FAILED", "Failed to create product", "")
		return
	}

	c.JSON(http.StatusCreated, models.ProductResponse{
		Success: true,
		Data:    product,
	})
}

// GetProducts lists a tenant's products
func (h *ProductsHandler) GetProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(h.pagination.DefaultPageSize)))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > h.pagination.MaxPageSize {
		limit = h.pagination.DefaultPageSize
	}

	products, total, err := h.store.ListProducts(c.Request.Context(), middleware.GetTenantID(c), page, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list products")
		errorJSON(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to retrieve products", "")
		return
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	c.JSON(http.StatusOK, models.ProductListResponse{
		Success: true,
		Data:    products,
		Pagination: &models.PaginationInfo{
			Page:        page,
			Limit:       limit,
			Total:       total,
			TotalPages:  totalPages,
			HasNext:     page < totalPages,
			HasPrevious: page > 1,
		},
	})
}

// GetProduct retrieves a single raw product by ID
func (h *ProductsHandler) GetProduct(c *gin.Context) {
	product, ok := h.loadProduct(c, c.Param("id"))
	if !ok {
		return
	}

	c.JSON(http.StatusOK, models.ProductResponse{
		Success: true,
		Data:    product,
	})
}

// GetProductBySKU retrieves a single raw product by SKU
// GET /api/v1/products/sku/:sku
func (h *ProductsHandler) GetProductBySKU(c *gin.Context) {
	sku := strings.TrimSpace(c.Param("sku"))
	if sku == "" {
		errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "sku is required", "sku")
		return
	}

	product, err := h.store.GetProductBySKU(c.Request.Context(), middleware.GetTenantID(c), sku)
	if errors.Is(err, repository.ErrProductNotFound) {
		errorJSON(c, http.StatusNotFound, "NOT_FOUND", "Product not found", "")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("sku", sku).Error("Failed to load product by SKU")
		errorJSON(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to retrieve product", "")
		return
	}

	c.JSON(http.StatusOK, models.ProductResponse{
		Success: true,
		Data:    product,
	})
}

// UpdateVariants replaces a product's size/colour breakdown
// PUT /api/v1/products/:id/variants
func (h *ProductsHandler) UpdateVariants(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID format", "id")
		return
	}

	var req models.UpdateVariantsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), "")
		return
	}
	for i, v := range req.Variants {
		if strings.TrimSpace(v.Size) == "" {
			errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", fmt.Sprintf("variants[%d].size is required", i), "variants")
			return
		}
		for _, cs := range v.ColorStocks {
			if cs.Stock < 0 {
				errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", fmt.Sprintf("variants[%d] has negative stock", i), "variants")
				return
			}
		}
	}

	err = h.store.UpdateVariants(c.Request.Context(), tenantID, productID, req.Variants)
	if errors.Is(err, repository.ErrProductNotFound) {
		errorJSON(c, http.StatusNotFound, "NOT_FOUND", "Product not found", "")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("product_id", productID).Error("Failed to update variants")
		errorJSON(c, http.StatusInternalServerError, "UPDATE_FAILED", "Failed to update variants", "")
		return
	}

	product, ok := h.loadProduct(c, productID.String())
	if !ok {
		return
	}

	if err := h.publisher.PublishVariantsUpdated(c.Request.Context(), tenantID, product); err != nil {
		h.logger.WithError(err).WithField("product_id", productID).Warn("Failed to publish variants update")
	}

	c.JSON(http.StatusOK, models.ProductResponse{
		Success: true,
		Data:    product,
	})
}
