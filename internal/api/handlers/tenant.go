package handlers

import (
	"net/http"

	"tenancy-backend/internal/api/middleware"
	"tenancy-backend/internal/database/models"
	apperrors "tenancy-backend/internal/errors"
	"tenancy-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// TenantHandler handles HTTP requests for the acting member's tenant
type TenantHandler struct {
	service service.TenantServiceInterface
}

// NewTenantHandler creates a new tenant handler
func NewTenantHandler(service service.TenantServiceInterface) *TenantHandler {
	return &TenantHandler{service: service}
}

// actingMembership returns the membership loaded by middleware.RequireMembership
func actingMembership(c *gin.Context) (*models.Membership, bool) {
	membership, ok := middleware.GetMembership(c)
	if !ok {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: apperrors.ErrUserWithoutMembership.Error()})
		return nil, false
	}
	return membership, true
}

// GetTenant handles GET /api/v1/tenant/me
// @Summary Get current tenant
// @Description Get the tenant of the authenticated user with its members and logo
// @Tags tenant
// @Produce json
// @Success 200 {object} service.TenantResponse "Successfully retrieved tenant"
// @Failure 403 {object} ErrorResponse "User does not belong to any tenant"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /tenant/me [get]
func (h *TenantHandler) GetTenant(c *gin.Context) {
	acting, ok := actingMembership(c)
	if !ok {
		return
	}

	tenant, err := h.service.GetForMember(c, acting)
	if err != nil {
		respondError(c, err, "Failed to get tenant")
		return
	}

	c.JSON(http.StatusOK, tenant)
}

// UpdateTenant handles PUT /api/v1/tenant/me
// @Summary Update current tenant
// @Description Update the name and contact fields of the tenant. Owners and admins only.
// @Tags tenant
// @Accept json
// @Produce json
// @Param tenant body service.UpdateTenantRequest true "Tenant data"
// @Success 200 {object} service.TenantResponse "Successfully updated tenant"
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 403 {object} ErrorResponse "Owner or admin required"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /tenant/me [put]
func (h *TenantHandler) UpdateTenant(c *gin.Context) {
	acting, ok := actingMembership(c)
	if !ok {
		return
	}

	var req service.UpdateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	tenant, err := h.service.Update(c, acting, &req)
	if err != nil {
		respondError(c, err, "Failed to update tenant")
		return
	}

	c.JSON(http.StatusOK, tenant)
}

// GetLogo handles GET /api/v1/tenant/logo
// @Summary Get tenant logo
// @Tags tenant
// @Produce json
// @Success 200 {object} service.TenantLogoResponse "Tenant logo"
// @Failure 404 {object} ErrorResponse "Tenant has no logo"
// @Security BearerAuth
// @Router /tenant/logo [get]
func (h *TenantHandler) GetLogo(c *gin.Context) {
	acting, ok := actingMembership(c)
	if !ok {
		return
	}

	logo, err := h.service.GetLogo(c, acting)
	if err != nil {
		respondError(c, err, "Failed to get tenant logo")
		return
	}

	c.JSON(http.StatusOK, logo)
}

// UploadLogo handles POST /api/v1/tenant/logo
// @Summary Upload tenant logo
// @Description Upload an image as the tenant logo, replacing the previous one. Owners and admins only.
// @Tags tenant
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Logo image (png, jpeg, webp, gif, svg; max 5 MiB)"
// @Success 201 {object} service.TenantLogoResponse "Logo stored"
// @Failure 400 {object} ErrorResponse "Missing or invalid image"
// @Failure 403 {object} ErrorResponse "Owner or admin required"
// @Security BearerAuth
// @Router /tenant/logo [post]
func (h *TenantHandler) UploadLogo(c *gin.Context) {
	acting, ok := actingMembership(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, service.MaxLogoSize+1<<20)
	header, err := c.FormFile("image")
	if err != nil {
		badRequest(c, "image file is required", err)
		return
	}
	file, err := header.Open()
	if err != nil {
		badRequest(c, "Failed to read image", err)
		return
	}
	defer file.Close()

	logo, err := h.service.SetLogo(c, acting, &service.LogoUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     file,
	})
	if err != nil {
		respondError(c, err, "Failed to store tenant logo")
		return
	}

	c.JSON(http.StatusCreated, logo)
}

// DeleteLogo handles DELETE /api/v1/tenant/logo
// @Summary Delete tenant logo
// @Tags tenant
// @Success 204 "Logo deleted"
// @Failure 403 {object} ErrorResponse "Owner or admin required"
// @Failure 404 {object} ErrorResponse "Tenant has no logo"
// @Security BearerAuth
// @Router /tenant/logo [delete]
func (h *TenantHandler) DeleteLogo(c *gin.Context) {
	acting, ok := actingMembership(c)
	if !ok {
		return
	}

	if err := h.service.DeleteLogo(c, acting); err != nil {
		respondError(c, err, "Failed to delete tenant logo")
		return
	}

	c.Status(http.StatusNoContent)
}
