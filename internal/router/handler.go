package router

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"metitejidos.com.ar/storefront/pkg/ai"
	"metitejidos.com.ar/storefront/pkg/auth"
	"metitejidos.com.ar/storefront/pkg/cart"
	"metitejidos.com.ar/storefront/pkg/checkout"
	"metitejidos.com.ar/storefront/pkg/global"
	"metitejidos.com.ar/storefront/pkg/mongo"
)

const defaultHealthTimeout = 3 * time.Second

var errForbidden = errors.New("forbidden")

// Deps are the collaborators behind the HTTP handlers. Cache, Movements and
// Insights may be nil.
type Deps struct {
	Products   ProductService
	Cache      ProductCache
	Carts      CartStore
	Orders     OrderService
	Creator    checkout.OrderCreator
	Movements  MovementRecorder
	Users      UserService
	Tokens     TokenParser
	Dispatcher *checkout.Dispatcher
	Insights   *ai.Client
	Health     []HealthCheck
	Logger     *zap.Logger
}

type Handler struct {
	products   ProductService
	cache      ProductCache
	carts      CartStore
	orders     OrderService
	creator    checkout.OrderCreator
	movements  MovementRecorder
	users      UserService
	tokens     TokenParser
	dispatcher *checkout.Dispatcher
	insights   *ai.Client
	health     []HealthCheck
	logger     *zap.Logger
}

func NewHandler(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		products:   d.Products,
		cache:      d.Cache,
		carts:      d.Carts,
		orders:     d.Orders,
		creator:    d.Creator,
		movements:  d.Movements,
		users:      d.Users,
		tokens:     d.Tokens,
		dispatcher: d.Dispatcher,
		insights:   d.Insights,
		health:     d.Health,
		logger:     logger,
	}
}

// HealthCheck pings every backing service.
func (h *Handler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), defaultHealthTimeout)
	defer cancel()

	status := map[string]string{"status": "OK"}
	healthy := true
	for _, hc := range h.health {
		if err := hc.Check(ctx); err != nil {
			h.logger.Warn("health check failed", zap.String("dependency", hc.Name), zap.Error(err))
			status[hc.Name] = "Unavailable"
			healthy = false
			continue
		}
		status[hc.Name] = "Connected"
	}

	if !healthy {
		status["status"] = "DEGRADED"
		c.JSON(http.StatusServiceUnavailable, global.APIResponse{Success: false, Data: status, Message: "Dependency check failed"})
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(status))
}

// fail maps a domain error to its HTTP status and envelope.
func (h *Handler) fail(c *gin.Context, err error) {
	var verr *checkout.ValidationError
	var conflict *checkout.StockConflictError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, global.ErrorResponse(verr.Error(), verr.Fields))
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, global.ErrorResponse(conflict.Error(), []global.ValidationError{
			{Field: conflict.ProductID, Message: conflict.Error(), Code: "stock_conflict"},
		}))
	case errors.Is(err, checkout.ErrAuthenticationRequired):
		c.JSON(http.StatusUnauthorized, global.ErrorResponse("Authentication required", nil))
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, global.ErrorResponse("Invalid email or password", nil))
	case errors.Is(err, errForbidden):
		c.JSON(http.StatusForbidden, global.ErrorResponse("Not authorized", nil))
	case errors.Is(err, mongo.ErrNotFound), errors.Is(err, auth.ErrUserNotFound):
		c.JSON(http.StatusNotFound, global.ErrorResponse("Resource not found", nil))
	case errors.Is(err, cart.ErrEntryNotFound):
		c.JSON(http.StatusNotFound, global.ErrorResponse(err.Error(), nil))
	case errors.Is(err, auth.ErrUserAlreadyExists):
		c.JSON(http.StatusConflict, global.ErrorResponse("User already exists", []global.ValidationError{
			{Field: "email", Message: "email is already registered", Code: "duplicate"},
		}))
	case errors.Is(err, cart.ErrOutOfStock):
		c.JSON(http.StatusConflict, global.ErrorResponse(err.Error(), nil))
	case errors.Is(err, cart.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, global.ErrorResponse(err.Error(), []global.ValidationError{
			{Field: "quantity", Message: err.Error(), Code: "min"},
		}))
	case errors.Is(err, checkout.ErrServiceUnavailable):
		c.JSON(http.StatusServiceUnavailable, global.ErrorResponse(err.Error(), nil))
	default:
		h.logger.Error("unhandled error",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Internal server error", nil))
	}
}

// badRequest answers binding and validation failures.
func badRequest(c *gin.Context, message string, err error) {
	c.JSON(http.StatusBadRequest, global.ErrorResponse(message, global.ToValidationErrors(err)))
}
