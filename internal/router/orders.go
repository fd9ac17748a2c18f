package router

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"metitejidos.com.ar/storefront/pkg/global"
	"metitejidos.com.ar/storefront/pkg/models"
)

const defaultTopProducts = 5

// CreateOrder is the order service endpoint used by clients that assemble
// the submission themselves.
func (h *Handler) CreateOrder(c *gin.Context) {
	var sub models.OrderSubmission
	if err := c.ShouldBindJSON(&sub); err != nil {
		badRequest(c, "Invalid order data", err)
		return
	}

	order, err := h.creator.CreateOrder(c.Request.Context(), currentUser(c).ID, &sub)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.invalidateOrdered(c.Request.Context(), order)
	c.JSON(http.StatusCreated, global.SuccessResponse(order))
}

func (h *Handler) ListMyOrders(c *gin.Context) {
	orders, err := h.orders.ListMyOrders(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(orders))
}

// GetOrder is visible to its buyer and to admins.
func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	user := currentUser(c)
	if order.UserID != user.ID && !user.IsAdmin {
		h.fail(c, errForbidden)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(order))
}

func (h *Handler) ListOrders(c *gin.Context) {
	orders, err := h.orders.ListOrders(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(orders))
}

func (h *Handler) MarkDelivered(c *gin.Context) {
	order, err := h.orders.MarkDelivered(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(order))
}

func (h *Handler) MarkPaid(c *gin.Context) {
	order, err := h.orders.MarkPaid(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(order))
}

func (h *Handler) OrderStats(c *gin.Context) {
	stats, err := h.orders.Stats(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(stats))
}

// SalesInsights adds the best sellers and, when configured, an AI summary to
// the stats.
func (h *Handler) SalesInsights(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultTopProducts)))
	if err != nil || limit < 1 || limit > 50 {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid limit", []global.ValidationError{
			{Field: "limit", Message: "limit must be between 1 and 50", Code: "range"},
		}))
		return
	}

	ctx := c.Request.Context()
	stats, err := h.orders.Stats(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	top, err := h.orders.TopProducts(ctx, limit)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, global.SuccessResponse(h.insights.SalesInsights(ctx, stats, top)))
}
