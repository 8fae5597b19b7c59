// router.go - Route and middleware setup

package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/stajtakip/dekont_verifier/internal/ratelimit"
)

// NewRouter wires the handler endpoints. limiter may be nil.
func NewRouter(h *Handler, limiter *ratelimit.RateLimiter, allowedOrigins string, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), accessLog(logger), cors(allowedOrigins))
	if limiter != nil {
		router.Use(ratelimit.Middleware(limiter, "/", "/health"))
	}

	// Root endpoint for SSL verification
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	router.GET("/health", h.HealthHandler)

	v1 := router.Group("/api/v1")
	v1.POST("/analyze-dekont", h.AnalyzeDekontHandler)
	v1.POST("/analyze-dekont/batch", h.AnalyzeBatchHandler)

	return router
}

// cors configures allowed origins for production
func cors(allowedOrigins string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func accessLog(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
