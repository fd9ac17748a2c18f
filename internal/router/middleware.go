package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"metitejidos.com.ar/storefront/pkg/checkout"
	"metitejidos.com.ar/storefront/pkg/global"
)

const (
	CartSessionHeader = "X-Cart-Session"

	sessionKey     = "session"
	cartSessionKey = "cartSession"
)

// RequestLogger writes one structured line per request.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error("request", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
	}
}

// Authenticate attaches the request's checkout.Session. A missing or
// invalid bearer token leaves the request anonymous.
func Authenticate(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		var session checkout.Session = checkout.Anonymous{}

		header := c.GetHeader("Authorization")
		if raw, ok := strings.CutPrefix(header, "Bearer "); ok && raw != "" {
			if user, err := tokens.Parse(raw); err == nil {
				session = user
			}
		}

		c.Set(sessionKey, session)
		c.Next()
	}
}

func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := checkout.AsAuthenticated(sessionFrom(c)); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, global.ErrorResponse("Not authorized, no valid token", nil))
			return
		}
		c.Next()
	}
}

func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := checkout.AsAuthenticated(sessionFrom(c))
		if !ok || !user.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, global.ErrorResponse("Not authorized as an admin", nil))
			return
		}
		c.Next()
	}
}

// CartSession resolves the cart owner from the X-Cart-Session header. A
// missing or malformed id starts a new session; the id in use is echoed
// back on the response.
func CartSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(CartSessionHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Header(CartSessionHeader, id)
		c.Set(cartSessionKey, id)
		c.Next()
	}
}

func sessionFrom(c *gin.Context) checkout.Session {
	if v, ok := c.Get(sessionKey); ok {
		if s, ok := v.(checkout.Session); ok {
			return s
		}
	}
	return checkout.Anonymous{}
}

// currentUser is only meaningful behind RequireAuth.
func currentUser(c *gin.Context) checkout.Authenticated {
	user, _ := checkout.AsAuthenticated(sessionFrom(c))
	return user
}

func cartSessionFrom(c *gin.Context) string {
	return c.GetString(cartSessionKey)
}
