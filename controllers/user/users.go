package userControllers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/KeshavWanjale/Book-Store/auth"
	"github.com/KeshavWanjale/Book-Store/mailer"
	"github.com/KeshavWanjale/Book-Store/metrics"
	"github.com/KeshavWanjale/Book-Store/middleware"
	"github.com/KeshavWanjale/Book-Store/models"
)

type RegisterInput struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshInput struct {
	Refresh string `json:"refresh"`
}

var (
	emailRe    = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)
	usernameRe = regexp.MustCompile(`^\w{3,30}$`)
	letterRe   = regexp.MustCompile(`[A-Za-z]`)
	digitRe    = regexp.MustCompile(`[0-9]`)
)

// validateRegistration reports the first format violation, empty string if none.
func validateRegistration(in RegisterInput) string {
	if !emailRe.MatchString(in.Email) {
		return "Invalid Email format"
	}
	if !usernameRe.MatchString(in.Username) {
		return "Invalid Username format"
	}
	if len(in.Password) < 8 || !letterRe.MatchString(in.Password) || !digitRe.MatchString(in.Password) {
		return "Invalid Password format"
	}
	return ""
}

// POST /register
func Register(db *gorm.DB, tokens *auth.Tokens, mail *mailer.Dispatcher, baseURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input RegisterInput
		_ = c.ShouldBindJSON(&input)

		if detail := validateRegistration(input); detail != "" {
			metrics.RegistrationsTotal.WithLabelValues("failure").Inc()
			slog.Error("registration rejected", "email", input.Email, "reason", detail)
			c.JSON(http.StatusBadRequest, gin.H{
				"message": "Unexpected error occurred",
				"status":  "error",
				"error":   detail,
			})
			return
		}

		var count int64
		if err := db.Model(&models.User{}).Where("email = ?", input.Email).Count(&count).Error; err != nil {
			metrics.RegistrationsTotal.WithLabelValues("failure").Inc()
			c.JSON(http.StatusInternalServerError, gin.H{
				"message": "An internal error occurred",
				"status":  "error",
			})
			return
		}
		if count > 0 {
			metrics.RegistrationsTotal.WithLabelValues("failure").Inc()
			c.JSON(http.StatusBadRequest, gin.H{
				"message": "Unexpected error occurred",
				"status":  "error",
				"error":   "user with this email already exists",
			})
			return
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			metrics.RegistrationsTotal.WithLabelValues("failure").Inc()
			c.JSON(http.StatusInternalServerError, gin.H{
				"message": "An internal error occurred",
				"status":  "error",
			})
			return
		}

		user := models.User{
			Email:    input.Email,
			Username: input.Username,
			Password: string(hashed),
		}
		if err := db.Create(&user).Error; err != nil {
			metrics.RegistrationsTotal.WithLabelValues("failure").Inc()
			slog.Error("user create failed", "email", input.Email, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"message": "An internal error occurred",
				"status":  "error",
			})
			return
		}

		// The account exists either way; mail trouble must not fail the
		// registration.
		if token, err := tokens.Issue(user.ID, auth.TokenVerify); err != nil {
			slog.Error("verification token mint failed", "user_id", user.ID, "error", err)
		} else {
			verifyURL := fmt.Sprintf("%s/verify/%s", strings.TrimRight(baseURL, "/"), token)
			mail.EnqueueVerification(user.Email, user.Username, verifyURL)
		}

		metrics.RegistrationsTotal.WithLabelValues("success").Inc()
		slog.Info("user registered", "user_id", user.ID, "email", user.Email)
		c.JSON(http.StatusCreated, gin.H{
			"message": "User registered successfully, Please Verify Email!!!",
			"status":  "success",
			"data":    user,
		})
	}
}

// POST /login
func Login(db *gorm.DB, tokens *auth.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input LoginInput
		_ = c.ShouldBindJSON(&input)

		if input.Email == "" || input.Password == "" {
			detail := "Email is required"
			if input.Email != "" {
				detail = "Password is required"
			}
			c.JSON(http.StatusBadRequest, gin.H{
				"message": "Unexpected error occurred",
				"status":  "error",
				"error":   detail,
			})
			return
		}

		var user models.User
		err := db.Where("email = ?", input.Email).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) ||
			(err == nil && bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)) != nil) {
			metrics.LoginsTotal.WithLabelValues("failure").Inc()
			slog.Error("login failed", "email", input.Email)
			c.JSON(http.StatusBadRequest, gin.H{
				"message": "Login failed",
				"status":  "error",
				"error":   "Invalid email or password",
			})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"message": "An internal error occurred",
				"status":  "error",
			})
			return
		}

		access, refresh, err := tokens.IssuePair(user.ID)
		if err != nil {
			metrics.LoginsTotal.WithLabelValues("failure").Inc()
			c.JSON(http.StatusInternalServerError, gin.H{
				"message": "An internal error occurred",
				"status":  "error",
			})
			return
		}

		metrics.LoginsTotal.WithLabelValues("success").Inc()
		slog.Info("login successful", "user_id", user.ID)
		c.JSON(http.StatusOK, gin.H{
			"message": "Login successful!",
			"status":  "success",
			"data":    gin.H{"email": user.Email},
			"refresh": refresh,
			"access":  access,
		})
	}
}

// POST /login/refresh
func Refresh(db *gorm.DB, tokens *auth.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input RefreshInput
		_ = c.ShouldBindJSON(&input)

		if input.Refresh == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"message": "Unexpected error occurred",
				"status":  "error",
				"error":   "Refresh token is required",
			})
			return
		}

		claims, err := tokens.Parse(input.Refresh, auth.TokenRefresh)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"message": "Invalid or expired token",
				"status":  "error",
			})
			return
		}

		var user models.User
		if err := db.First(&user, claims.UserID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"message": "Invalid or expired token",
				"status":  "error",
			})
			return
		}

		access, refresh, err := tokens.IssuePair(user.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"message": "An internal error occurred",
				"status":  "error",
			})
			return
		}

		slog.Info("tokens refreshed", "user_id", user.ID)
		c.JSON(http.StatusOK, gin.H{
			"message": "Token refreshed successfully",
			"status":  "success",
			"refresh": refresh,
			"access":  access,
		})
	}
}

// GET /verify/:token
func Verify(db *gorm.DB, tokens *auth.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := tokens.Parse(c.Param("token"), auth.TokenVerify)
		if err != nil {
			slog.Error("verification failed", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{
				"message": "Invalid or expired token",
				"status":  "error",
			})
			return
		}

		var user models.User
		if err := db.First(&user, claims.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{
					"message": "User not found",
					"status":  "error",
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{
				"message": "An internal error occurred",
				"status":  "error",
			})
			return
		}

		// Re-visiting the link after verification stays a success.
		if !user.IsVerified {
			if err := db.Model(&user).Update("is_verified", true).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{
					"message": "An internal error occurred",
					"status":  "error",
				})
				return
			}
		}

		slog.Info("user verified", "user_id", user.ID)
		c.JSON(http.StatusOK, gin.H{
			"message": "User verification successful",
			"status":  "success",
		})
	}
}

// GET /me
func Me() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"message": "Authorization header is missing",
				"status":  "error",
			})
			return
		}
		c.JSON(http.StatusOK, user)
	}
}
