package routes

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	cartControllers "github.com/KeshavWanjale/Book-Store/controllers/cart"
	orderControllers "github.com/KeshavWanjale/Book-Store/controllers/order"
	"github.com/KeshavWanjale/Book-Store/middleware"
)

// SetupCartRoutes registers the "/cart" endpoints. Requires JWT middleware.
//
// Both DELETE shapes live under one catch-all: gin's tree rejects a static
// segment ("orders") next to a param segment (":book_id") at the same
// position, so the split happens in the dispatch handler below.
func SetupCartRoutes(r *gin.Engine, d Deps) {
	removeItem := cartControllers.RemoveFromCart(d.DB)
	cancelOrder := orderControllers.CancelOrderHandler(d.DB)

	cartGroup := r.Group("/cart")
	cartGroup.Use(middleware.ValidateToken(d.DB, d.Tokens))
	{
		cartGroup.GET("", cartControllers.GetCart(d.DB))    // GET /cart
		cartGroup.POST("", cartControllers.AddToCart(d.DB)) // POST /cart

		// DELETE /cart/:book_id and DELETE /cart/orders/:id
		cartGroup.DELETE("/*path", func(c *gin.Context) {
			p := strings.Trim(c.Param("path"), "/")

			if id, ok := strings.CutPrefix(p, "orders/"); ok {
				if _, err := strconv.ParseUint(id, 10, 64); err != nil {
					c.String(http.StatusNotFound, "404 page not found")
					return
				}
				c.Params = append(c.Params, gin.Param{Key: "id", Value: id})
				cancelOrder(c)
				return
			}

			bookID, err := strconv.ParseUint(p, 10, 64)
			if err != nil {
				c.String(http.StatusNotFound, "404 page not found")
				return
			}
			if bookID == 0 {
				c.JSON(http.StatusBadRequest, gin.H{
					"message": "Item ID is required.",
					"status":  "error",
				})
				return
			}
			c.Params = append(c.Params, gin.Param{Key: "book_id", Value: p})
			removeItem(c)
		})
	}
}
