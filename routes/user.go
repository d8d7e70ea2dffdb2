package routes

import (
	"github.com/gin-gonic/gin"

	userControllers "github.com/KeshavWanjale/Book-Store/controllers/user"
	"github.com/KeshavWanjale/Book-Store/middleware"
)

// SetupUserRoutes registers the profile endpoints. Requires JWT middleware.
func SetupUserRoutes(r *gin.Engine, d Deps) {
	r.GET("/me", middleware.ValidateToken(d.DB, d.Tokens), userControllers.Me()) // GET /me
}
