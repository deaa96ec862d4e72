package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rcarvalho-pb/billing_system-go/internal/infra/logging"
	"github.com/rcarvalho-pb/billing_system-go/internal/infra/metrics"
)

type RouterConfig struct {
	Handler *InvoiceHandler
	Metrics *metrics.Counters
	Logger  logging.Logger
	// Limiter is optional; nil disables rate limiting.
	Limiter *RateLimiter
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(cfg.Logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1")
	if cfg.Limiter != nil {
		v1.Use(cfg.Limiter.Middleware(cfg.Logger))
	}

	v1.POST("/invoices", cfg.Handler.CreateInvoice)
	v1.GET("/invoices/:guid", cfg.Handler.GetInvoice)
	v1.PUT("/invoices/:guid", cfg.Handler.UpdateInvoice)
	v1.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, cfg.Metrics.Snapshot())
	})

	return r
}

func requestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("http request", map[string]any{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
	}
}
