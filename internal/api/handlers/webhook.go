package handlers

import (
	"net/http"

	"tenancy-backend/internal/logger"
	"tenancy-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity provider event types
const (
	EventUserSignedUp = "user.signed_up"
	EventUserDeleted  = "user.deleted"
)

// IdentityEvent is the payload posted by the identity provider
type IdentityEvent struct {
	Type string            `json:"type" binding:"required" example:"user.signed_up"`
	Data IdentityEventUser `json:"data"`
}

// IdentityEventUser is the user carried by an identity event
type IdentityEventUser struct {
	ID        string `json:"id" example:"6f1c1c8e-0a57-4d0b-9a0e-2b1b0a6f3c11"`
	Email     string `json:"email" example:"ada@example.com"`
	FirstName string `json:"first_name" example:"Ada"`
	LastName  string `json:"last_name" example:"Lovelace"`
}

// WebhookHandler receives identity provider events
type WebhookHandler struct {
	users service.UserServiceInterface
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(users service.UserServiceInterface) *WebhookHandler {
	return &WebhookHandler{users: users}
}

// HandleIdentityEvent handles POST /webhooks/identity
// @Summary Identity provider webhook
// @Description Receives user.signed_up and user.deleted events. Authenticated with the X-Webhook-Secret header.
// @Tags webhooks
// @Accept json
// @Produce json
// @Param event body IdentityEvent true "Identity event"
// @Success 200 {object} service.UserResponse "User signed up"
// @Success 204 "User deleted or event ignored"
// @Failure 400 {object} ErrorResponse "Invalid event"
// @Failure 401 {object} ErrorResponse "Invalid webhook secret"
// @Router /webhooks/identity [post]
func (h *WebhookHandler) HandleIdentityEvent(c *gin.Context) {
	var event IdentityEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		badRequest(c, "Invalid event payload", err)
		return
	}

	if event.Type != EventUserSignedUp && event.Type != EventUserDeleted {
		logger.WithContext(c).WithField("type", event.Type).Info("Ignoring identity event")
		c.Status(http.StatusNoContent)
		return
	}

	userID, err := uuid.Parse(event.Data.ID)
	if err != nil {
		badRequest(c, "Invalid user ID: invalid UUID format", nil)
		return
	}

	switch event.Type {
	case EventUserSignedUp:
		user, err := h.users.HandleSignUp(c, &service.SignUpRequest{
			UserID:    userID,
			Email:     event.Data.Email,
			FirstName: event.Data.FirstName,
			LastName:  event.Data.LastName,
		})
		if err != nil {
			respondError(c, err, "Failed to handle sign-up")
			return
		}
		c.JSON(http.StatusOK, user)
	case EventUserDeleted:
		if err := h.users.HandleDeletion(c, userID); err != nil {
			respondError(c, err, "Failed to handle user deletion")
			return
		}
		c.Status(http.StatusNoContent)
	}
}
