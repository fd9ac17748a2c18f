package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"metitejidos.com.ar/storefront/pkg/checkout"
	"metitejidos.com.ar/storefront/pkg/global"
	"metitejidos.com.ar/storefront/pkg/models"
)

// BeginCheckout moves the session's flow to the checkout step. Anonymous
// buyers get 401 and stay in the cart step.
func (h *Handler) BeginCheckout(c *gin.Context) {
	flow, ok := h.loadFlow(c)
	if !ok {
		return
	}

	if err := flow.Begin(sessionFrom(c)); err != nil {
		h.fail(c, err)
		return
	}
	if !h.saveFlow(c, flow) {
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(newCartView(flow)))
}

func (h *Handler) CancelCheckout(c *gin.Context) {
	flow, ok := h.loadFlow(c)
	if !ok {
		return
	}

	flow.Cancel()
	if !h.saveFlow(c, flow) {
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(newCartView(flow)))
}

// SubmitManualOrder places a cash order for the session's cart. The stored
// cart only changes when the order was created.
func (h *Handler) SubmitManualOrder(c *gin.Context) {
	var addr models.ShippingAddress
	if err := c.ShouldBindJSON(&addr); err != nil {
		badRequest(c, "Invalid shipping address", err)
		return
	}

	flow, ok := h.loadFlow(c)
	if !ok {
		return
	}

	result, err := h.dispatcher.Dispatch(c.Request.Context(), flow, sessionFrom(c), checkout.Cash{Address: addr})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.invalidateOrdered(c.Request.Context(), result.Order)

	if err := h.carts.Save(c.Request.Context(), flow); err != nil {
		h.logger.Warn("order created but cart not cleared",
			zap.String("order", result.Order.ID),
			zap.String("session", flow.Cart.SessionID),
			zap.Error(err))
	}
	c.JSON(http.StatusCreated, global.SuccessResponse(result.Order))
}

// PayWithGateway returns the external checkout URL. The cart is kept until
// the gateway confirms the payment.
func (h *Handler) PayWithGateway(c *gin.Context) {
	flow, ok := h.loadFlow(c)
	if !ok {
		return
	}

	result, err := h.dispatcher.Dispatch(c.Request.Context(), flow, sessionFrom(c), checkout.Gateway{})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(result))
}
