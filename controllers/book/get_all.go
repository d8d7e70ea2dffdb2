package bookcontroller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/KeshavWanjale/Book-Store/cache"
	"github.com/KeshavWanjale/Book-Store/models"
)

// GET /books
func GetBooks(db *gorm.DB, books *cache.Books) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cached, ok := books.Get(c.Request.Context()); ok {
			c.JSON(http.StatusOK, cached)
			return
		}

		var all []models.Book
		if err := db.Order("id").Find(&all).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"message": "Failed to fetch books",
				"status":  "error",
			})
			return
		}

		books.Set(c.Request.Context(), all)
		c.JSON(http.StatusOK, all)
	}
}
