package handlers

import (
	"net/http"

	"tenancy-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TenantUserHandler handles HTTP requests for the members of a tenant
type TenantUserHandler struct {
	service service.MembershipServiceInterface
}

// NewTenantUserHandler creates a new tenant user handler
func NewTenantUserHandler(service service.MembershipServiceInterface) *TenantUserHandler {
	return &TenantUserHandler{service: service}
}

// ListTenantUsers handles GET /api/v1/tenant-users
// @Summary List tenant users
// @Tags tenant-users
// @Produce json
// @Success 200 {array} service.TenantUserResponse "Members of the tenant"
// @Failure 403 {object} ErrorResponse "User does not belong to any tenant"
// @Security BearerAuth
// @Router /tenant-users [get]
func (h *TenantUserHandler) ListTenantUsers(c *gin.Context) {
	acting, ok := actingMembership(c)
	if !ok {
		return
	}

	users, err := h.service.ListByTenant(c, acting)
	if err != nil {
		respondError(c, err, "Failed to list tenant users")
		return
	}

	c.JSON(http.StatusOK, users)
}

// UpdateTenantUserRole handles PUT /api/v1/tenant-users/:id
// @Summary Change a tenant user's role
// @Description Owners and admins change roles. Setting another user as owner transfers ownership and demotes the current owner to admin.
// @Tags tenant-users
// @Accept json
// @Produce json
// @Param id path string true "Tenant user ID (UUID)"
// @Param role body service.UpdateRoleRequest true "New role"
// @Success 200 {object} service.TenantUserResponse "Updated tenant user"
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 403 {object} ErrorResponse "Not allowed"
// @Failure 404 {object} ErrorResponse "Tenant user not found"
// @Failure 409 {object} ErrorResponse "Concurrent modification"
// @Security BearerAuth
// @Router /tenant-users/{id} [put]
func (h *TenantUserHandler) UpdateTenantUserRole(c *gin.Context) {
	acting, ok := actingMembership(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid tenant user ID: invalid UUID format", nil)
		return
	}

	var req service.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	user, err := h.service.UpdateRole(c, acting, id, req.Role)
	if err != nil {
		respondError(c, err, "Failed to update tenant user")
		return
	}

	c.JSON(http.StatusOK, user)
}

// DeleteTenantUser handles DELETE /api/v1/tenant-users/:id
// @Summary Remove a tenant user
// @Description Owners and admins remove members. The owner cannot be removed.
// @Tags tenant-users
// @Param id path string true "Tenant user ID (UUID)"
// @Success 204 "Tenant user removed"
// @Failure 403 {object} ErrorResponse "Not allowed"
// @Failure 404 {object} ErrorResponse "Tenant user not found"
// @Security BearerAuth
// @Router /tenant-users/{id} [delete]
func (h *TenantUserHandler) DeleteTenantUser(c *gin.Context) {
	acting, ok := actingMembership(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid tenant user ID: invalid UUID format", nil)
		return
	}

	if err := h.service.Remove(c, acting, id); err != nil {
		respondError(c, err, "Failed to remove tenant user")
		return
	}

	c.Status(http.StatusNoContent)
}
