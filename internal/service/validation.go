package service

import (
	"errors"
	"fmt"
	"strings"

	"tenancy-backend/internal/database/models"
	apperrors "tenancy-backend/internal/errors"

	"github.com/go-playground/validator/v10"
)

// validationError converts validator failures into the first failing field's ValidationError
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			return apperrors.NewValidationError(field, "this field is required")
		case "email":
			return apperrors.NewValidationError(field, "enter a valid email address")
		case "url":
			return apperrors.NewValidationError(field, "enter a valid URL")
		case "max":
			return apperrors.NewValidationError(field, fmt.Sprintf("ensure this field has no more than %s characters", fe.Param()))
		case "min":
			return apperrors.NewValidationError(field, fmt.Sprintf("ensure this field has at least %s characters", fe.Param()))
		default:
			return apperrors.NewValidationError(field, fmt.Sprintf("failed on %s", fe.Tag()))
		}
	}
	return apperrors.NewValidationError("", err.Error())
}

// requireManager fails unless the acting membership may manage the tenant
func requireManager(acting *models.Membership) error {
	if acting == nil {
		return apperrors.ErrUserWithoutMembership
	}
	if !acting.Role.CanManage() {
		return apperrors.ErrOwnerOrAdminRequired
	}
	return nil
}
