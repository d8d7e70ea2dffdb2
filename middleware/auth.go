package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/KeshavWanjale/Book-Store/auth"
	"github.com/KeshavWanjale/Book-Store/models"
)

// ContextUserKey is where ValidateToken stores the authenticated models.User.
const ContextUserKey = "user"

// ValidateToken requires a Bearer access token, loads the account behind it
// and stores it in the request context.
func ValidateToken(db *gorm.DB, tokens *auth.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Authorization header is missing",
				"status":  "error",
			})
			return
		}

		raw := strings.TrimPrefix(header, "Bearer ")
		claims, err := tokens.Parse(raw, auth.TokenAccess)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Invalid or expired token",
				"status":  "error",
			})
			return
		}

		var user models.User
		if err := db.First(&user, claims.UserID).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Invalid or expired token",
				"status":  "error",
			})
			return
		}

		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// RequireSuperuser gates catalog mutations. Runs after ValidateToken.
func RequireSuperuser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok || !user.IsSuperuser {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"message": "You do not have permission to perform this action.",
				"status":  "error",
			})
			return
		}
		c.Next()
	}
}

// CurrentUser fetches the account ValidateToken stored on the context.
func CurrentUser(c *gin.Context) (models.User, bool) {
	v, exists := c.Get(ContextUserKey)
	if !exists {
		return models.User{}, false
	}
	user, ok := v.(models.User)
	return user, ok
}
