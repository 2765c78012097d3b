package handlers

import (
	"net/http"

	"tenancy-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// InvitationHandler handles HTTP requests for invitations
type InvitationHandler struct {
	service service.InvitationServiceInterface
}

// NewInvitationHandler creates a new invitation handler
func NewInvitationHandler(service service.InvitationServiceInterface) *InvitationHandler {
	return &InvitationHandler{service: service}
}

// ListInvitations handles GET /api/v1/invitations
// @Summary List invitations
// @Tags invitations
// @Produce json
// @Success 200 {array} service.InvitationResponse "Invitations of the tenant"
// @Failure 403 {object} ErrorResponse "Owner or admin required"
// @Security BearerAuth
// @Router /invitations [get]
func (h *InvitationHandler) ListInvitations(c *gin.Context) {
	acting, ok := actingMembership(c)
	if !ok {
		return
	}

	invitations, err := h.service.List(c, acting)
	if err != nil {
		respondError(c, err, "Failed to list invitations")
		return
	}

	c.JSON(http.StatusOK, invitations)
}

// CreateInvitation handles POST /api/v1/invitations
// @Summary Invite an email to the tenant
// @Tags invitations
// @Accept json
// @Produce json
// @Param invitation body service.CreateInvitationRequest true "Invitation data"
// @Success 201 {object} service.InvitationResponse "Invitation created"
// @Failure 400 {object} ErrorResponse "Invalid email, already a member or already invited"
// @Failure 403 {object} ErrorResponse "Owner or admin required"
// @Security BearerAuth
// @Router /invitations [post]
func (h *InvitationHandler) CreateInvitation(c *gin.Context) {
	acting, ok := actingMembership(c)
	if !ok {
		return
	}

	var req service.CreateInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	invitation, err := h.service.Create(c, acting, &req)
	if err != nil {
		respondError(c, err, "Failed to create invitation")
		return
	}

	c.JSON(http.StatusCreated, invitation)
}

// ResendInvitation handles POST /api/v1/invitations/:id/resend
// @Summary Resend an invitation email
// @Description Resends at most once per cooldown window (24h by default).
// @Tags invitations
// @Param id path string true "Invitation ID (UUID)"
// @Success 202 "Invitation email queued"
// @Failure 400 {object} ErrorResponse "Invitation already accepted"
// @Failure 403 {object} ErrorResponse "Owner or admin required, or cooldown active"
// @Failure 404 {object} ErrorResponse "Invitation not found"
// @Security BearerAuth
// @Router /invitations/{id}/resend [post]
func (h *InvitationHandler) ResendInvitation(c *gin.Context) {
	acting, ok := actingMembership(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid invitation ID: invalid UUID format", nil)
		return
	}

	if err := h.service.Resend(c, acting, id); err != nil {
		respondError(c, err, "Failed to resend invitation")
		return
	}

	c.Status(http.StatusAccepted)
}
