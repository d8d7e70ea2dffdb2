package bookcontroller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/KeshavWanjale/Book-Store/cache"
	"github.com/KeshavWanjale/Book-Store/middleware"
	"github.com/KeshavWanjale/Book-Store/models"
)

// BookInput is the write payload for create and update. Price and stock are
// pointers so a missing field and an explicit zero stay distinguishable.
type BookInput struct {
	Name        string `json:"name"`
	Author      string `json:"author"`
	Description string `json:"description"`
	Price       *int64 `json:"price"`
	Stock       *int64 `json:"stock"`
}

// validate reports the first problem with the payload, empty string if none.
func (in *BookInput) validate() string {
	if in.Name == "" || in.Author == "" {
		return "name and author are required"
	}
	if in.Price == nil || in.Stock == nil {
		return "price and stock are required"
	}
	if *in.Price < 0 || *in.Stock < 0 {
		return "price and stock must be non-negative"
	}
	return ""
}

// POST /books
func CreateBook(db *gorm.DB, books *cache.Books) gin.HandlerFunc {
	return func(c *gin.Context) {
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

		var count int64
		if err := db.Model(&models.Book{}).Where("name = ?", input.Name).Count(&count).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"message": "Failed to create book",
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

		user, _ := middleware.CurrentUser(c)
		book := models.Book{
			Name:        input.Name,
			Author:      input.Author,
			Description: input.Description,
			UserID:      user.ID,
			Price:       *input.Price,
			Stock:       *input.Stock,
		}
		if err := db.Create(&book).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"message": "Failed to create book",
				"status":  "error",
			})
			return
		}

		books.Invalidate(c.Request.Context())
		c.JSON(http.StatusCreated, gin.H{
			"message": "Book created successfully",
			"status":  "success",
			"data":    book,
		})
	}
}
