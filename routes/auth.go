package routes

import (
	"github.com/gin-gonic/gin"

	userControllers "github.com/KeshavWanjale/Book-Store/controllers/user"
)

// SetupAuthRoutes registers the public registration, login and verification
// endpoints. Registration and login sit behind the credential rate limiter.
func SetupAuthRoutes(r *gin.Engine, d Deps) {
	r.POST("/register", d.AuthLimiter.Limit(), userControllers.Register(d.DB, d.Tokens, d.Mail, d.BaseURL))
	r.POST("/login", d.AuthLimiter.Limit(), userControllers.Login(d.DB, d.Tokens))
	r.POST("/login/refresh", userControllers.Refresh(d.DB, d.Tokens))

	// Email verification link target. The token in the path only passes if it
	// was minted for verification.
	r.GET("/verify/:token", userControllers.Verify(d.DB, d.Tokens))
}
