package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/KeshavWanjale/Book-Store/auth"
	"github.com/KeshavWanjale/Book-Store/cache"
	"github.com/KeshavWanjale/Book-Store/mailer"
	"github.com/KeshavWanjale/Book-Store/middleware"
)

// Deps carries the shared dependencies the route groups wire into handlers.
type Deps struct {
	DB          *gorm.DB
	Tokens      *auth.Tokens
	Mail        *mailer.Dispatcher
	Books       *cache.Books
	BaseURL     string
	AuthLimiter *middleware.RateLimiter
}

// SetupRoutes is the single entry-point that wires up all route groups.
func SetupRoutes(r *gin.Engine, d Deps) {
	// 1️⃣ Public auth routes (no token middleware)
	SetupAuthRoutes(r, d)

	// 2️⃣ User profile routes (JWT-protected)
	SetupUserRoutes(r, d)

	// 3️⃣ Book catalog routes (JWT-protected, writes superuser-only)
	SetupBookRoutes(r, d)

	// cart routes
	SetupCartRoutes(r, d)

	// order routes
	SetupOrderRoutes(r, d)

	// health probe and Prometheus scrape target
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
