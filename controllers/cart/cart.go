package cartControllers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/KeshavWanjale/Book-Store/middleware"
	"github.com/KeshavWanjale/Book-Store/models"
)

type CartItemInput struct {
	BookID   uint  `json:"book_id"`
	Quantity int64 `json:"quantity"`
}

// apiError carries the HTTP status a failed step inside a transaction
// should answer with.
type apiError struct {
	status  int
	message string
}

func (e *apiError) Error() string { return e.message }

// recomputeTotals rederives the cart sums from its lines. Totals are never
// written directly from request input.
func recomputeTotals(tx *gorm.DB, cart *models.Cart) error {
	var totals struct {
		TotalQuantity int64
		TotalPrice    int64
	}
	if err := tx.Model(&models.CartItem{}).
		Select("COALESCE(SUM(quantity), 0) AS total_quantity, COALESCE(SUM(price), 0) AS total_price").
		Where("cart_id = ?", cart.ID).
		Scan(&totals).Error; err != nil {
		return err
	}
	cart.TotalQuantity = totals.TotalQuantity
	cart.TotalPrice = totals.TotalPrice
	return tx.Model(cart).Updates(map[string]interface{}{
		"total_quantity": totals.TotalQuantity,
		"total_price":    totals.TotalPrice,
	}).Error
}

// activeCart fetches the caller's open cart.
func activeCart(db *gorm.DB, userID uint) (models.Cart, error) {
	var cart models.Cart
	err := db.Where("user_id = ? AND is_ordered = ?", userID, false).First(&cart).Error
	return cart, err
}

// GET /cart
func GetCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.CurrentUser(c)

		var cart models.Cart
		err := db.Preload("Items").
			Where("user_id = ? AND is_ordered = ?", user.ID, false).
			First(&cart).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"message": "No active cart found for the user",
				"status":  "error",
			})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"message": "An unexpected error occurred",
				"status":  "error",
			})
			return
		}

		slog.Info("active cart fetched", "user_id", user.ID, "cart_id", cart.ID)
		c.JSON(http.StatusOK, gin.H{
			"message": "The active cart of the user is Fetched",
			"status":  "success",
			"cart":    cart,
		})
	}
}

// POST /cart
func AddToCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.CurrentUser(c)

		var input CartItemInput
		_ = c.ShouldBindJSON(&input)
		if input.BookID == 0 || input.Quantity <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"message": "book_id and quantity are required.",
				"status":  "error",
			})
			return
		}

		var book models.Book
		if err := db.First(&book, input.BookID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{
					"message": "Book does not exist in the database.",
					"status":  "error",
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{
				"message": "An error occurred while processing the request.",
				"status":  "error",
			})
			return
		}

		if book.Stock < input.Quantity {
			c.JSON(http.StatusBadRequest, gin.H{
				"message": fmt.Sprintf("Insufficient stock. Only %d available.", book.Stock),
				"status":  "error",
			})
			return
		}

		var cart models.Cart
		var created bool

		err := db.Transaction(func(tx *gorm.DB) error {
			var err error
			cart, err = activeCart(tx, user.ID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				cart = models.Cart{UserID: user.ID}
				err = tx.Create(&cart).Error
			}
			if err != nil {
				return err
			}

			var item models.CartItem
			err = tx.Where("cart_id = ? AND book_id = ?", cart.ID, book.ID).First(&item).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				created = true
				item = models.CartItem{
					CartID:   cart.ID,
					BookID:   book.ID,
					Quantity: input.Quantity,
					Price:    book.Price * input.Quantity,
				}
				if err := tx.Create(&item).Error; err != nil {
					return err
				}
			case err != nil:
				return err
			default:
				newQuantity := item.Quantity + input.Quantity
				if book.Stock < newQuantity {
					return &apiError{
						status:  http.StatusBadRequest,
						message: fmt.Sprintf("Insufficient stock. Only %d available.", book.Stock),
					}
				}
				item.Quantity = newQuantity
				item.Price = book.Price * newQuantity
				if err := tx.Save(&item).Error; err != nil {
					return err
				}
			}

			return recomputeTotals(tx, &cart)
		})
		if err != nil {
			var apiErr *apiError
			if errors.As(err, &apiErr) {
				c.JSON(apiErr.status, gin.H{"message": apiErr.message, "status": "error"})
				return
			}
			slog.Error("add to cart failed", "user_id", user.ID, "book_id", input.BookID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"message": "An error occurred while processing the request.",
				"status":  "error",
			})
			return
		}

		if err := db.Preload("Items").First(&cart, cart.ID).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"message": "An error occurred while processing the request.",
				"status":  "error",
			})
			return
		}

		message := "Cart updated successfully"
		responseStatus := http.StatusOK
		if created {
			message = "New cart created successfully"
			responseStatus = http.StatusCreated
		}
		slog.Info(message, "user_id", user.ID, "cart_id", cart.ID, "book_id", book.ID)
		c.JSON(responseStatus, gin.H{
			"message": message,
			"status":  "success",
			"cart":    cart,
		})
	}
}

// DELETE /cart/:book_id
func RemoveFromCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.CurrentUser(c)
		bookID := c.Param("book_id")

		err := db.Transaction(func(tx *gorm.DB) error {
			cart, err := activeCart(tx, user.ID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &apiError{status: http.StatusNotFound, message: "No active cart found."}
			}
			if err != nil {
				return err
			}

			result := tx.Where("cart_id = ? AND book_id = ?", cart.ID, bookID).Delete(&models.CartItem{})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return &apiError{status: http.StatusNotFound, message: "No such item found in the active cart."}
			}

			return recomputeTotals(tx, &cart)
		})
		if err != nil {
			var apiErr *apiError
			if errors.As(err, &apiErr) {
				c.JSON(apiErr.status, gin.H{"message": apiErr.message, "status": "error"})
				return
			}
			slog.Error("remove from cart failed", "user_id", user.ID, "book_id", bookID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"message": "An unexpected error occurred.",
				"status":  "error",
			})
			return
		}

		slog.Info("cart item deleted", "user_id", user.ID, "book_id", bookID)
		c.Status(http.StatusNoContent)
	}
}
