package router

import (
	"reflect"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"metitejidos.com.ar/storefront/pkg/global"
)

// NewEngine builds the gin engine with middleware and every API route.
func NewEngine(cfg *global.Config, logger *zap.Logger, h *Handler) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	useJSONFieldNames()

	router := gin.New()
	router.Use(RequestLogger(logger), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", CartSessionHeader},
		ExposeHeaders:    []string{"Content-Length", "X-Cache", CartSessionHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(Authenticate(h.tokens))

	InitializeRoutes(router, h)
	return router
}

func InitializeRoutes(router *gin.Engine, h *Handler) {
	api := router.Group("/api")
	{
		api.GET("/health", h.HealthCheck)

		users := api.Group("/users")
		{
			users.POST("/register", h.Register)
			users.POST("/login", h.Login)
			users.POST("/logout", h.Logout)
			users.GET("/me", RequireAuth(), h.Me)
		}

		products := api.Group("/product")
		{
			products.GET("", h.ListProducts)
			products.GET("/:id", h.GetProduct)
			products.POST("", RequireAuth(), AdminOnly(), h.CreateProduct)
			products.PUT("/:id", RequireAuth(), AdminOnly(), h.UpdateProduct)
			products.DELETE("/:id", RequireAuth(), AdminOnly(), h.DeleteProduct)
		}

		cart := api.Group("/cart")
		cart.Use(CartSession())
		{
			cart.GET("", h.GetCart)
			cart.DELETE("", h.ClearCart)
			cart.POST("/items", h.AddCartItem)
			cart.PUT("/items/:productId", h.UpdateCartItem)
			cart.DELETE("/items/:productId", h.RemoveCartItem)
			cart.GET("/availability/:productId", h.GetAvailability)
		}

		checkout := api.Group("/checkout")
		checkout.Use(CartSession())
		{
			checkout.POST("/begin", h.BeginCheckout)
			checkout.POST("/cancel", h.CancelCheckout)
			checkout.POST("/manual", h.SubmitManualOrder)
			checkout.POST("/gateway", h.PayWithGateway)
		}

		orders := api.Group("/order")
		orders.Use(RequireAuth())
		{
			orders.POST("", h.CreateOrder)
			orders.GET("/myorders", h.ListMyOrders)
			orders.GET("/:id", h.GetOrder)

			orders.GET("", AdminOnly(), h.ListOrders)
			orders.PUT("/:id/deliver", AdminOnly(), h.MarkDelivered)
			orders.PUT("/:id/pay", AdminOnly(), h.MarkPaid)
			orders.GET("/stats", AdminOnly(), h.OrderStats)
			orders.GET("/stats/insights", AdminOnly(), h.SalesInsights)
		}
	}
}

// useJSONFieldNames makes gin binding errors name fields as the client
// sends them.
func useJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
}
