package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tenancy-backend/internal/database/models"
	"tenancy-backend/internal/email"
	apperrors "tenancy-backend/internal/errors"
	"tenancy-backend/internal/events"
	"tenancy-backend/internal/logger"
	"tenancy-backend/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserService keeps the local mirror of identity-provider users
type UserService struct {
	repo      repository.UserRepositoryInterface
	publisher events.Publisher
	queue     EmailQueue
	mailer    email.Client
	validator *validator.Validate
}

// NewUserService creates a new user service
func NewUserService(repo repository.UserRepositoryInterface, publisher events.Publisher, queue EmailQueue, mailer email.Client, validator *validator.Validate) *UserService {
	return &UserService{
		repo:      repo,
		publisher: publisher,
		queue:     queue,
		mailer:    mailer,
		validator: validator,
	}
}

// SignUpRequest is the identity reported by the provider for a new account
type SignUpRequest struct {
	UserID    uuid.UUID `json:"id" validate:"required"`
	Email     string    `json:"email" validate:"required,email,max=255"`
	FirstName string    `json:"first_name" validate:"max=30"`
	LastName  string    `json:"last_name" validate:"max=30"`
}

// UpdateUserRequest represents the editable profile fields
type UpdateUserRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=30" example:"Ada"`
	LastName  *string `json:"last_name" validate:"omitempty,max=30" example:"Lovelace"`
}

// UserTenantResponse is the tenant summary embedded in a user
type UserTenantResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

// UserResponse represents the response data for a user
type UserResponse struct {
	ID         uuid.UUID           `json:"id"`
	Email      string              `json:"email"`
	FirstName  string              `json:"first_name"`
	LastName   string              `json:"last_name"`
	Role       string              `json:"role,omitempty"`
	TenantUser *uuid.UUID          `json:"tenant_user,omitempty"`
	Tenant     *UserTenantResponse `json:"tenant,omitempty"`
	CreatedAt  string              `json:"created_at"`
	UpdatedAt  string              `json:"updated_at"`
}

// HandleSignUp mirrors a new identity and announces it so a tenant membership gets set up
func (s *UserService) HandleSignUp(ctx context.Context, req *SignUpRequest) (*UserResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	user := &models.User{
		BaseModel: models.BaseModel{ID: req.UserID},
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
	if err := s.repo.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	event := events.UserSignedUp{
		UserID:    user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
	if err := s.publisher.PublishUserSignedUp(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to set up membership: %w", err)
	}

	s.syncContact(ctx, user)
	return s.GetMe(ctx, user.ID)
}

// HandleDeletion announces that the identity provider removed the user
func (s *UserService) HandleDeletion(ctx context.Context, userID uuid.UUID) error {
	if err := s.publisher.PublishUserDeleted(ctx, events.UserDeleted{UserID: userID}); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// GetMe returns the user with its tenant and role
func (s *UserService) GetMe(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return convertUser(user), nil
}

// UpdateMe changes the user's names and syncs the marketing contact when they changed
func (s *UserService) UpdateMe(ctx context.Context, userID uuid.UUID, req *UpdateUserRequest) (*UserResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	changed := false
	if req.FirstName != nil && *req.FirstName != user.FirstName {
		user.FirstName = *req.FirstName
		changed = true
	}
	if req.LastName != nil && *req.LastName != user.LastName {
		user.LastName = *req.LastName
		changed = true
	}

	if changed {
		if err := s.repo.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
		s.syncContact(ctx, user)
	}

	return convertUser(user), nil
}

func (s *UserService) syncContact(ctx context.Context, user *models.User) {
	contact := email.Contact{
		Email:      user.Email,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		Source:     "app",
		Subscribed: true,
		UserGroup:  "app",
		UserID:     user.ID.String(),
	}
	err := s.queue.Enqueue(email.Job{
		Name:   "contact_sync",
		Fields: map[string]interface{}{"user_id": user.ID},
		Send: func(jobCtx context.Context) error {
			return s.mailer.UpdateContact(jobCtx, contact)
		},
	})
	if err != nil {
		logger.WithContext(ctx).WithError(err).WithField("user_id", user.ID).Warn("Failed to queue contact sync")
	}
}

func convertUser(user *models.User) *UserResponse {
	response := &UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}
	if m := user.Membership; m != nil {
		id := m.ID
		response.TenantUser = &id
		response.Role = string(m.Role)
		if m.Tenant != nil {
			response.Tenant = &UserTenantResponse{ID: m.Tenant.ID, Name: m.Tenant.Name, Slug: m.Tenant.Slug}
		}
	}
	return response
}
