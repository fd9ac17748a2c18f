package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"metitejidos.com.ar/storefront/pkg/cart"
	"metitejidos.com.ar/storefront/pkg/checkout"
	"metitejidos.com.ar/storefront/pkg/global"
	"metitejidos.com.ar/storefront/pkg/models"
)

type cartView struct {
	SessionID string          `json:"sessionId"`
	Items     []cart.Entry    `json:"items"`
	ItemCount int             `json:"itemCount"`
	Total     decimal.Decimal `json:"total"`
	Step      checkout.State  `json:"step"`
}

func newCartView(flow *checkout.Flow) cartView {
	return cartView{
		SessionID: flow.Cart.SessionID,
		Items:     flow.Cart.Entries,
		ItemCount: flow.Cart.ItemCount(),
		Total:     flow.Cart.Total(),
		Step:      flow.State,
	}
}

// loadFlow answers the request itself when the flow cannot be read.
func (h *Handler) loadFlow(c *gin.Context) (*checkout.Flow, bool) {
	flow, err := h.carts.Load(c.Request.Context(), cartSessionFrom(c))
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return flow, true
}

func (h *Handler) saveFlow(c *gin.Context, flow *checkout.Flow) bool {
	if err := h.carts.Save(c.Request.Context(), flow); err != nil {
		h.fail(c, err)
		return false
	}
	return true
}

func (h *Handler) GetCart(c *gin.Context) {
	flow, ok := h.loadFlow(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(newCartView(flow)))
}

// AddCartItem adds against the product's current stock, never a cached copy.
func (h *Handler) AddCartItem(c *gin.Context) {
	var req models.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid cart item", err)
		return
	}

	product, err := h.products.GetProduct(c.Request.Context(), req.ProductID)
	if err != nil {
		h.fail(c, err)
		return
	}
	flow, ok := h.loadFlow(c)
	if !ok {
		return
	}

	added, err := flow.Cart.Add(*product, req.Quantity)
	if err != nil {
		c.JSON(http.StatusConflict, global.APIResponse{
			Success: false,
			Message: err.Error(),
			Data:    cart.Check(product.ID, product.Stock, flow.Cart),
		})
		return
	}
	if added > 0 && !h.saveFlow(c, flow) {
		return
	}

	c.JSON(http.StatusOK, global.SuccessResponse(gin.H{
		"added":        added,
		"availability": cart.Check(product.ID, product.Stock, flow.Cart),
		"cart":         newCartView(flow),
	}))
}

func (h *Handler) UpdateCartItem(c *gin.Context) {
	var req models.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid cart item", err)
		return
	}

	productID := c.Param("productId")
	product, err := h.products.GetProduct(c.Request.Context(), productID)
	if err != nil {
		h.fail(c, err)
		return
	}
	flow, ok := h.loadFlow(c)
	if !ok {
		return
	}

	if _, err := flow.Cart.UpdateQuantity(productID, req.Quantity, product.Stock); err != nil {
		h.fail(c, err)
		return
	}
	if !h.saveFlow(c, flow) {
		return
	}

	c.JSON(http.StatusOK, global.SuccessResponse(gin.H{
		"availability": cart.Check(product.ID, product.Stock, flow.Cart),
		"cart":         newCartView(flow),
	}))
}

// RemoveCartItem is idempotent: removing an absent product returns the cart.
func (h *Handler) RemoveCartItem(c *gin.Context) {
	flow, ok := h.loadFlow(c)
	if !ok {
		return
	}
	if flow.Cart.Remove(c.Param("productId")) && !h.saveFlow(c, flow) {
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(newCartView(flow)))
}

func (h *Handler) ClearCart(c *gin.Context) {
	sessionID := cartSessionFrom(c)
	if err := h.carts.Delete(c.Request.Context(), sessionID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(newCartView(checkout.NewFlow(sessionID))))
}

// GetAvailability reports how many more units this session can add.
func (h *Handler) GetAvailability(c *gin.Context) {
	product, err := h.products.GetProduct(c.Request.Context(), c.Param("productId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	flow, ok := h.loadFlow(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(cart.Check(product.ID, product.Stock, flow.Cart)))
}
