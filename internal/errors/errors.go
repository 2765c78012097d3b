package errors

import (
	"errors"
	"fmt"
)

// NotFoundError represents an error when an entity is not found
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Entity)
}

// Is enables errors.Is() comparison for NotFoundError
func (e *NotFoundError) Is(target error) bool {
	t, ok := target.(*NotFoundError)
	if !ok {
		return false
	}
	return e.Entity == t.Entity
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Is enables errors.Is() comparison for ValidationError
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	if !ok {
		return false
	}
	return e.Field == t.Field && e.Message == t.Message
}

// PermissionError is returned when the acting member's role does not allow an operation
type PermissionError struct {
	Message string
}

func (e *PermissionError) Error() string {
	return e.Message
}

// ConflictError is returned when an operation would break a uniqueness rule held by another record
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// ForbiddenError is returned when an operation is not allowed at this time
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	return e.Message
}

// AuthenticationError represents authentication-related errors
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	return e.Message
}

// ConfigurationError represents configuration-related errors
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

// Entity Not Found Errors
var (
	ErrTenantNotFound      = &NotFoundError{Entity: "tenant"}
	ErrTenantLogoNotFound  = &NotFoundError{Entity: "tenant logo"}
	ErrUserNotFound        = &NotFoundError{Entity: "user"}
	ErrMembershipNotFound  = &NotFoundError{Entity: "tenant user"}
	ErrInvitationNotFound  = &NotFoundError{Entity: "invitation"}
	ErrNoPendingInvitation = &NotFoundError{Entity: "pending invitation"}
)

// Membership Errors
var (
	ErrMembershipExists = &ConflictError{Message: "user already belongs to a tenant"}

	ErrOwnerOrAdminRequired  = &PermissionError{Message: "only owners and admins can perform this action"}
	ErrOnlyOwnerTransfers    = &PermissionError{Message: "only the owner can transfer ownership"}
	ErrOnlyOwnerSetsOwner    = &PermissionError{Message: "only the owner can set another user as owner"}
	ErrOwnerCannotChangeRole = &PermissionError{Message: "owner cannot change their role, transfer ownership to another user first"}
	ErrCannotRemoveOwner     = &PermissionError{Message: "cannot delete the owner, transfer ownership to another user first"}
)

// Invitation Errors
var (
	ErrEmailAlreadyMember  = &ValidationError{Field: "email", Message: "the email is already in use"}
	ErrEmailAlreadyInvited = &ValidationError{Field: "email", Message: "an invitation for this email is already pending"}
	ErrInvitationAccepted  = &ValidationError{Message: "invitation has already been accepted"}
	ErrResendCooldown      = &ForbiddenError{Message: "invitation was already sent within the last 24 hours"}
)

// Validation Errors
var (
	ErrInvalidRole         = &ValidationError{Field: "role", Message: "must be one of owner, admin, user"}
	ErrUnsupportedLogoType = &ValidationError{Field: "image", Message: "unsupported image type"}
	ErrLogoTooLarge        = &ValidationError{Field: "image", Message: "image exceeds the maximum allowed size"}
)

// Authentication Errors
var (
	ErrMissingToken          = &AuthenticationError{Message: "authorization header is required"}
	ErrInvalidToken          = &AuthenticationError{Message: "invalid token"}
	ErrInvalidWebhookSecret  = &AuthenticationError{Message: "invalid webhook secret"}
	ErrUserWithoutMembership = &PermissionError{Message: "user does not belong to any tenant"}
)

// Configuration Errors
var (
	ErrLoopsAPIKeyMissing = &ConfigurationError{Message: "LOOPS_API_KEY is not configured"}
	ErrTemplateIDMissing  = &ConfigurationError{Message: "transactional template id is not configured"}
)

// Dispatch Errors
var (
	ErrDispatchQueueFull = errors.New("email dispatch queue is full")
	ErrDispatcherStopped = errors.New("email dispatcher is stopped")
	ErrDeliveryRejected  = errors.New("email delivery rejected by provider")
)

// Helper Functions

// IsNotFound checks if an error is a NotFoundError
func IsNotFound(err error) bool {
	var notFoundErr *NotFoundError
	return errors.As(err, &notFoundErr)
}

// IsValidation checks if an error is a ValidationError
func IsValidation(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// IsPermission checks if an error is a PermissionError
func IsPermission(err error) bool {
	var permErr *PermissionError
	return errors.As(err, &permErr)
}

// IsConflict checks if an error is a ConflictError
func IsConflict(err error) bool {
	var conflictErr *ConflictError
	return errors.As(err, &conflictErr)
}

// IsForbidden checks if an error is a ForbiddenError
func IsForbidden(err error) bool {
	var forbiddenErr *ForbiddenError
	return errors.As(err, &forbiddenErr)
}

// IsAuthentication checks if an error is an AuthenticationError
func IsAuthentication(err error) bool {
	var authErr *AuthenticationError
	return errors.As(err, &authErr)
}

// IsConfiguration checks if an error is a ConfigurationError
func IsConfiguration(err error) bool {
	var configErr *ConfigurationError
	return errors.As(err, &configErr)
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewConflictError creates a new ConflictError
func NewConflictError(message string) error {
	return &ConflictError{Message: message}
}
