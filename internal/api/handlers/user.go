package handlers

import (
	"net/http"

	"tenancy-backend/internal/auth"
	apperrors "tenancy-backend/internal/errors"
	"tenancy-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// UserHandler handles HTTP requests for the authenticated user
type UserHandler struct {
	service service.UserServiceInterface
}

// NewUserHandler creates a new user handler
func NewUserHandler(service service.UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// GetMe handles GET /api/v1/users/me
// @Summary Get current user
// @Description Get the authenticated user with their tenant and role
// @Tags users
// @Produce json
// @Success 200 {object} service.UserResponse "Current user"
// @Failure 401 {object} ErrorResponse "Authentication required"
// @Failure 404 {object} ErrorResponse "User not found"
// @Security BearerAuth
// @Router /users/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: apperrors.ErrMissingToken.Error()})
		return
	}

	user, err := h.service.GetMe(c, userID)
	if err != nil {
		respondError(c, err, "Failed to get user")
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateMe handles PUT /api/v1/users/me
// @Summary Update current user
// @Tags users
// @Accept json
// @Produce json
// @Param user body service.UpdateUserRequest true "Profile fields"
// @Success 200 {object} service.UserResponse "Updated user"
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 401 {object} ErrorResponse "Authentication required"
// @Security BearerAuth
// @Router /users/me [put]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: apperrors.ErrMissingToken.Error()})
		return
	}

	var req service.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	user, err := h.service.UpdateMe(c, userID, &req)
	if err != nil {
		respondError(c, err, "Failed to update user")
		return
	}

	c.JSON(http.StatusOK, user)
}
