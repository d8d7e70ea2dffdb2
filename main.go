package main

import (
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/KeshavWanjale/Book-Store/auth"
	"github.com/KeshavWanjale/Book-Store/cache"
	"github.com/KeshavWanjale/Book-Store/config"
	"github.com/KeshavWanjale/Book-Store/mailer"
	"github.com/KeshavWanjale/Book-Store/metrics"
	"github.com/KeshavWanjale/Book-Store/middleware"
	"github.com/KeshavWanjale/Book-Store/models"
	"github.com/KeshavWanjale/Book-Store/routes"
)

func main() {
	log.Println("✅ Starting application...")

	// Load environment variables
	_ = godotenv.Load()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg := config.Load()

	metrics.MustRegister("book-store")

	// Init DB
	db := initDatabase(cfg)

	// Auto-migrate all tables
	if err := db.AutoMigrate(
		&models.User{},
		&models.Book{},
		&models.Cart{},
		&models.CartItem{},
	); err != nil {
		log.Fatalf("❌ AutoMigrate failed: %v", err)
	}

	// Token minting and verification
	tokens := auth.New(cfg.JWTSecret, cfg.Issuer, cfg.AccessTTL, cfg.RefreshTTL, cfg.VerifyTTL)

	// Verification mail goes through a queue so registration never waits on SMTP
	var m mailer.Mailer = mailer.LogMailer{}
	if cfg.SMTPAddr != "" {
		m = &mailer.SMTPMailer{Addr: cfg.SMTPAddr, User: cfg.SMTPUser, Pass: cfg.SMTPPass, From: cfg.SMTPFrom}
	}
	mail := mailer.NewDispatcher(m, 64)
	defer mail.Close()

	// Catalog cache, optional
	var books *cache.Books
	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Printf("⚠️ Redis unavailable, serving without cache: %v", err)
		} else {
			books = cache.NewBooks(rdb, cfg.CacheTTL)
			log.Println("✅ Redis cache connected")
		}
	}

	// Gin setup
	r := gin.Default()

	// CORS settings
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(middleware.WithMetrics())

	// Setup routes
	routes.SetupRoutes(r, routes.Deps{
		DB:          db,
		Tokens:      tokens,
		Mail:        mail,
		Books:       books,
		BaseURL:     cfg.BaseURL,
		AuthLimiter: middleware.NewRateLimiter(cfg.AuthRateEvery),
	})

	// Start server
	log.Printf("🚀 Server running on port %s...", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// initDatabase sets up the GORM DB connection
func initDatabase(cfg config.Config) *gorm.DB {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatalf("❌ DB connection failed: %v", err)
	}
	return db
}
