package handlers

import (
	"errors"
	"net/http"

	apperrors "tenancy-backend/internal/errors"
	"tenancy-backend/internal/logger"

	"github.com/gin-gonic/gin"
)

// ErrorResponse represents a standard API error response
type ErrorResponse struct {
	Error   string `json:"error" example:"error message"`
	Field   string `json:"field,omitempty" example:"email"`
	Details string `json:"details,omitempty"`
}

// respondError maps service errors onto HTTP statuses. Unknown errors become 500
// with a generic message; the cause is only logged.
func respondError(c *gin.Context, err error, fallback string) {
	var validation *apperrors.ValidationError
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: validation.Message, Field: validation.Field})
	case apperrors.IsAuthentication(err):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
	case apperrors.IsPermission(err), apperrors.IsForbidden(err):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
	case apperrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case apperrors.IsConflict(err):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	default:
		logger.WithContext(c).WithError(err).Error(fallback)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: fallback})
	}
}

func badRequest(c *gin.Context, message string, err error) {
	response := ErrorResponse{Error: message}
	if err != nil {
		response.Details = err.Error()
	}
	c.JSON(http.StatusBadRequest, response)
}
