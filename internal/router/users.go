package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"metitejidos.com.ar/storefront/pkg/global"
	"metitejidos.com.ar/storefront/pkg/models"
)

func (h *Handler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid registration data", err)
		return
	}

	resp, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, global.SuccessResponse(resp))
}

func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid login data", err)
		return
	}

	resp, err := h.users.Login(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(resp))
}

func (h *Handler) Me(c *gin.Context) {
	user, err := h.users.Me(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(user))
}

// Logout is acknowledged only; tokens are dropped by the client.
func (h *Handler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, global.MessageResponse("Logged out successfully"))
}
