package orderControllers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/KeshavWanjale/Book-Store/metrics"
	"github.com/KeshavWanjale/Book-Store/middleware"
	"github.com/KeshavWanjale/Book-Store/models"
)

// apiError carries the HTTP status a failed step inside a transaction
// should answer with.
type apiError struct {
	status  int
	message string
}

func (e *apiError) Error() string { return e.message }

// -------- Core Logic --------

// PlaceOrder turns the user's active cart into an order, decrementing book
// stock on the way. Everything happens in one transaction: stock is first
// validated line by line so the caller learns which book is short, then
// decremented with guarded updates so a concurrent order on the same books
// cannot drive stock below zero. A lost race rolls the whole order back.
func PlaceOrder(db *gorm.DB, userID uint) (models.Cart, error) {
	var cart models.Cart
	err := db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND is_ordered = ?", userID, false).First(&cart).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &apiError{status: http.StatusBadRequest, message: "No active cart to order."}
		}
		if err != nil {
			return err
		}

		var items []models.CartItem
		if err := tx.Where("cart_id = ?", cart.ID).Find(&items).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return &apiError{status: http.StatusBadRequest, message: "The cart is empty."}
		}

		// Validate every line before touching anything.
		names := make(map[uint]string, len(items))
		for _, item := range items {
			var book models.Book
			if err := tx.First(&book, item.BookID).Error; err != nil {
				return err
			}
			if item.Quantity > book.Stock {
				return &apiError{
					status:  http.StatusBadRequest,
					message: fmt.Sprintf("Insufficient stock for the book %s.", book.Name),
				}
			}
			names[item.BookID] = book.Name
		}

		// Decrement with a stock guard. RowsAffected == 0 means another
		// order won the race since the validation pass.
		for _, item := range items {
			result := tx.Model(&models.Book{}).
				Where("id = ? AND stock >= ?", item.BookID, item.Quantity).
				UpdateColumn("stock", gorm.Expr("stock - ?", item.Quantity))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return &apiError{
					status:  http.StatusBadRequest,
					message: fmt.Sprintf("Insufficient stock for the book %s.", names[item.BookID]),
				}
			}
		}

		return tx.Model(&cart).Update("is_ordered", true).Error
	})
	return cart, err
}

// CancelOrder restores the stock of every line and removes the ordered cart.
func CancelOrder(db *gorm.DB, userID uint, orderID string) (models.Cart, error) {
	var cart models.Cart
	err := db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND is_ordered = ? AND id = ?", userID, true, orderID).
			First(&cart).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &apiError{status: http.StatusNotFound, message: "No order found to cancel."}
		}
		if err != nil {
			return err
		}

		var items []models.CartItem
		if err := tx.Where("cart_id = ?", cart.ID).Find(&items).Error; err != nil {
			return err
		}

		for _, item := range items {
			if err := tx.Model(&models.Book{}).
				Where("id = ?", item.BookID).
				UpdateColumn("stock", gorm.Expr("stock + ?", item.Quantity)).Error; err != nil {
				return err
			}
		}

		// Delete lines before the cart, cascade is not guaranteed on
		// every driver.
		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&cart).Error
	})
	return cart, err
}

// -------- Handlers --------

// GET /cart/orders
func GetOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.CurrentUser(c)

		var orders []models.Cart
		if err := db.Preload("Items").
			Where("user_id = ? AND is_ordered = ?", user.ID, true).
			Order("id").
			Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"message": "An error occurred while retrieving the orders.",
				"status":  "error",
			})
			return
		}
		if len(orders) == 0 {
			c.JSON(http.StatusNotFound, gin.H{
				"message": "No order Found",
				"status":  "error",
			})
			return
		}

		slog.Info("order details fetched", "user_id", user.ID, "orders", len(orders))
		c.JSON(http.StatusOK, gin.H{
			"message": "Order details fetched successfully.",
			"status":  "success",
			"data":    orders,
		})
	}
}

// POST /cart/orders
func PlaceOrderHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.CurrentUser(c)

		cart, err := PlaceOrder(db, user.ID)
		if err != nil {
			metrics.OrdersTotal.WithLabelValues("place", "failure").Inc()
			var apiErr *apiError
			if errors.As(err, &apiErr) {
				c.JSON(apiErr.status, gin.H{"message": apiErr.message, "status": "error"})
				return
			}
			slog.Error("order placement failed", "user_id", user.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"message": "An error occurred during the ordering process.",
				"status":  "error",
			})
			return
		}

		metrics.OrdersTotal.WithLabelValues("place", "success").Inc()
		slog.Info("order placed", "user_id", user.ID, "order_id", cart.ID)
		broadcastOrderEvent("order_placed", cart)
		c.JSON(http.StatusOK, gin.H{
			"message": "The order placed",
			"status":  "success",
		})
	}
}

// DELETE /cart/orders/:id
func CancelOrderHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.CurrentUser(c)
		orderID := c.Param("id")

		cart, err := CancelOrder(db, user.ID, orderID)
		if err != nil {
			metrics.OrdersTotal.WithLabelValues("cancel", "failure").Inc()
			var apiErr *apiError
			if errors.As(err, &apiErr) {
				c.JSON(apiErr.status, gin.H{"message": apiErr.message, "status": "error"})
				return
			}
			slog.Error("order cancellation failed", "user_id", user.ID, "order_id", orderID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"message": "An error occurred while cancelling the order.",
				"status":  "error",
			})
			return
		}

		metrics.OrdersTotal.WithLabelValues("cancel", "success").Inc()
		slog.Info("order cancelled", "user_id", user.ID, "order_id", cart.ID)
		broadcastOrderEvent("order_cancelled", cart)
		c.JSON(http.StatusOK, gin.H{
			"message": "Order cancelled successfully.",
			"status":  "success",
		})
	}
}
