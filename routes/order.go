package routes

import (
	"github.com/gin-gonic/gin"

	orderControllers "github.com/KeshavWanjale/Book-Store/controllers/order"
	"github.com/KeshavWanjale/Book-Store/middleware"
)

// SetupOrderRoutes registers the order endpoints nested under "/cart/orders".
// DELETE /cart/orders/:id is wired by the cart dispatch in SetupCartRoutes.
func SetupOrderRoutes(r *gin.Engine, d Deps) {
	orders := r.Group("/cart/orders")
	orders.Use(middleware.ValidateToken(d.DB, d.Tokens))
	{
		orders.GET("", orderControllers.GetOrdersHandler(d.DB))   // GET /cart/orders
		orders.POST("", orderControllers.PlaceOrderHandler(d.DB)) // POST /cart/orders
	}

	// websocket endpoint for real-time order updates
	r.GET("/cart/orders/feed", orderControllers.OrderFeedHandler)
}
