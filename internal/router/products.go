package router

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"metitejidos.com.ar/storefront/pkg/global"
	"metitejidos.com.ar/storefront/pkg/models"
	"metitejidos.com.ar/storefront/pkg/redis"
)

// ListProducts serves the shop page: search, category, price range and sort.
func (h *Handler) ListProducts(c *gin.Context) {
	filter, errs := parseProductFilter(c)
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid product filter", errs))
		return
	}

	products, err := h.products.ListProducts(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(products))
}

func parseProductFilter(c *gin.Context) (models.ProductFilter, []global.ValidationError) {
	var errs []global.ValidationError
	filter := models.ProductFilter{
		Search:   strings.TrimSpace(c.Query("search")),
		Category: models.Category(c.Query("cat")),
		Sort:     models.ProductSort(c.DefaultQuery("sort", string(models.SortNewest))),
	}

	if filter.Category != "" && !filter.Category.Valid() {
		errs = append(errs, global.ValidationError{Field: "cat", Message: "unknown category", Code: "oneof"})
	}
	switch filter.Sort {
	case models.SortNewest, models.SortPriceAsc, models.SortPriceDesc, models.SortNameAsc:
	default:
		errs = append(errs, global.ValidationError{Field: "sort", Message: "unknown sort order", Code: "oneof"})
	}

	parsePrice := func(field string) *decimal.Decimal {
		raw := strings.TrimSpace(c.Query(field))
		if raw == "" {
			return nil
		}
		d, err := decimal.NewFromString(raw)
		if err != nil || d.IsNegative() {
			errs = append(errs, global.ValidationError{Field: field, Message: field + " must be a non-negative number", Code: "gte"})
			return nil
		}
		return &d
	}
	filter.MinPrice = parsePrice("minPrice")
	filter.MaxPrice = parsePrice("maxPrice")

	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		errs = append(errs, global.ValidationError{Field: "minPrice", Message: "minPrice must not exceed maxPrice", Code: "range"})
	}
	return filter, errs
}

// GetProduct retrieves a product by id with Redis caching
func (h *Handler) GetProduct(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	// Try Redis cache first
	if h.cache != nil {
		product, err := h.cache.Get(ctx, id)
		if err == nil {
			c.Header("X-Cache", "HIT")
			c.JSON(http.StatusOK, global.SuccessResponse(product))
			return
		}
		if !errors.Is(err, redis.ErrCacheMiss) {
			h.logger.Warn("product cache read failed", zap.String("product", id), zap.Error(err))
		}
	}

	product, err := h.products.GetProduct(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}

	// Cache for future requests, a failure here does not fail the request
	if h.cache != nil {
		if err := h.cache.Set(ctx, product); err != nil {
			h.logger.Warn("failed to cache product", zap.String("product", id), zap.Error(err))
		}
	}

	c.Header("X-Cache", "MISS")
	c.JSON(http.StatusOK, global.SuccessResponse(product))
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid product data", err)
		return
	}
	errs := global.ValidateStruct(&req)
	if req.Price.IsNegative() {
		errs = append(errs, negativePrice())
	}
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid product data", errs))
		return
	}

	product := req.ToProduct()
	if err := h.products.CreateProduct(c.Request.Context(), product); err != nil {
		h.fail(c, err)
		return
	}

	h.recordAdjustment(c.Request.Context(), product, 0, currentUser(c).ID)
	c.JSON(http.StatusCreated, global.SuccessResponse(product))
}

// UpdateProduct applies a partial update. A stock change is recorded as an
// adjustment movement.
func (h *Handler) UpdateProduct(c *gin.Context) {
	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid product data", err)
		return
	}
	if req.IsEmpty() {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("No updates provided", []global.ValidationError{
			{Field: "body", Message: "Request body must contain at least one field to update", Code: "empty_updates"},
		}))
		return
	}
	errs := global.ValidateStruct(&req)
	if req.Price != nil && req.Price.IsNegative() {
		errs = append(errs, negativePrice())
	}
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid product data", errs))
		return
	}

	ctx := c.Request.Context()
	product, stockBefore, err := h.products.UpdateProduct(ctx, c.Param("id"), &req)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.invalidate(ctx, product)
	if product.Stock != stockBefore {
		h.recordAdjustment(ctx, product, stockBefore, currentUser(c).ID)
	}
	c.JSON(http.StatusOK, global.SuccessResponse(product))
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	ctx := c.Request.Context()
	product, err := h.products.DeleteProduct(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	h.invalidate(ctx, product)
	c.JSON(http.StatusOK, global.MessageResponse("Product removed"))
}

func (h *Handler) invalidate(ctx context.Context, product *models.Product) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Invalidate(ctx, product); err != nil {
		h.logger.Warn("failed to invalidate cached product", zap.String("product", product.ID), zap.Error(err))
	}
}

// invalidateOrdered drops the cached copies of the products an order took
// stock from.
func (h *Handler) invalidateOrdered(ctx context.Context, order *models.Order) {
	for _, item := range order.OrderItems {
		h.invalidate(ctx, &models.Product{ID: item.ProductID})
	}
}

func (h *Handler) recordAdjustment(ctx context.Context, product *models.Product, before int, adminID string) {
	if h.movements == nil || product.Stock == before {
		return
	}
	movement := models.StockMovement{
		ProductID:      product.ID,
		QuantityBefore: before,
		QuantityAfter:  product.Stock,
		Reason:         models.StockReasonAdjustment,
		PerformedBy:    adminID,
	}
	if err := h.movements.Record(ctx, movement); err != nil {
		h.logger.Warn("failed to record stock adjustment",
			zap.String("product", product.ID),
			zap.Error(err))
	}
}

func negativePrice() global.ValidationError {
	return global.ValidationError{Field: "price", Message: "price must not be negative", Code: "gte"}
}
