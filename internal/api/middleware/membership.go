package middleware

import (
	"errors"
	"net/http"

	"tenancy-backend/internal/auth"
	"tenancy-backend/internal/database/models"
	apperrors "tenancy-backend/internal/errors"
	"tenancy-backend/internal/service"

	"github.com/gin-gonic/gin"
)

const membershipKey = "membership"

// RequireMembership loads the authenticated user's membership into the context.
// Users without a tenant get 403.
func RequireMembership(memberships service.MembershipServiceInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := auth.GetUserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": apperrors.ErrMissingToken.Error()})
			return
		}

		membership, err := memberships.GetByUserID(c, userID)
		if err != nil {
			if errors.Is(err, apperrors.ErrMembershipNotFound) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": apperrors.ErrUserWithoutMembership.Error()})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load tenant user"})
			return
		}

		c.Set(membershipKey, membership)
		c.Next()
	}
}

// GetMembership returns the acting membership set by RequireMembership
func GetMembership(c *gin.Context) (*models.Membership, bool) {
	value, exists := c.Get(membershipKey)
	if !exists {
		return nil, false
	}
	membership, ok := value.(*models.Membership)
	return membership, ok
}
