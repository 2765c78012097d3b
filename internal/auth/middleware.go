package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	apperrors "tenancy-backend/internal/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WebhookSecretHeader carries the shared secret on identity-provider webhooks
const WebhookSecretHeader = "X-Webhook-Secret"

// AuthMiddleware provides JWT authentication middleware
type AuthMiddleware struct {
	validator *TokenValidator
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(validator *TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// RequireAuth validates JWT tokens and sets user context
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": apperrors.ErrMissingToken.Error()})
			c.Abort()
			return
		}

		// Extract token from Bearer header
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := m.validator.ValidateJWT(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token", "details": err.Error()})
			c.Abort()
			return
		}

		userID, _ := claims.UserID()
		c.Set("user_id", userID.String())
		c.Set("email", claims.Email)
		c.Set("auth_claims", claims)

		c.Next()
	}
}

// RequireWebhookSecret rejects requests whose secret header does not match
func RequireWebhookSecret(secret string) gin.HandlerFunc {
	expected := []byte(secret)
	return func(c *gin.Context) {
		got := []byte(c.GetHeader(WebhookSecretHeader))
		if len(expected) == 0 || subtle.ConstantTimeCompare(got, expected) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": apperrors.ErrInvalidWebhookSecret.Error()})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserID is a helper function to extract user ID from context
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, false
	}

	idStr, ok := userID.(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// GetUserEmail is a helper function to extract user email from context
func GetUserEmail(c *gin.Context) (string, bool) {
	email, exists := c.Get("email")
	if !exists {
		return "", false
	}

	emailStr, ok := email.(string)
	return emailStr, ok
}

// GetAuthClaims is a helper function to extract full auth claims from context
func GetAuthClaims(c *gin.Context) (*AuthClaims, bool) {
	claims, exists := c.Get("auth_claims")
	if !exists {
		return nil, false
	}

	authClaims, ok := claims.(*AuthClaims)
	return authClaims, ok
}
