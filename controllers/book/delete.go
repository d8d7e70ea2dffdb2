package bookcontroller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/KeshavWanjale/Book-Store/cache"
	"github.com/KeshavWanjale/Book-Store/models"
)

// DELETE /books/:id
func DeleteBook(db *gorm.DB, books *cache.Books) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{
				"message": "Book not found.",
				"status":  "error",
			})
			return
		}

		var book models.Book
		if err := db.First(&book, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{
					"message": "Book not found.",
					"status":  "error",
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{
				"message": "Failed to delete book",
				"status":  "error",
			})
			return
		}

		if err := db.Delete(&book).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"message": "Failed to delete book",
				"status":  "error",
			})
			return
		}

		books.Invalidate(c.Request.Context())
		c.Status(http.StatusNoContent)
	}
}
