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

// PUT /books/:id
func UpdateBook(db *gorm.DB, books *cache.Books) gin.HandlerFunc {
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
				"message": "Failed to update book",
				"status":  "error",
			})
			return
		}

		var input BookInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"message": "Invalid request body",
				"status":  "error",
			})
			return
		}
		if msg := input.validate(); msg != "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"message": msg,
				"status":  "error",
			})
			return
		}

		// Renaming onto another book's name would break the unique index.
		var count int64
		if err := db.Model(&models.Book{}).
			Where("name = ? AND id <> ?", input.Name, book.ID).
			Count(&count).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"message": "Failed to update book",
				"status":  "error",
			})
			return
		}
		if count > 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"message": "book with this name already exists",
				"status":  "error",
			})
			return
		}

		book.Name = input.Name
		book.Author = input.Author
		book.Description = input.Description
		book.Price = *input.Price
		book.Stock = *input.Stock

		if err := db.Save(&book).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"message": "Failed to update book",
				"status":  "error",
			})
			return
		}

		books.Invalidate(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{
			"message": "Book updated successfully",
			"status":  "success",
			"data":    book,
		})
	}
}
