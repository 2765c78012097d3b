package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"mime"
	"strings"
	"time"

	"tenancy-backend/internal/database/models"
	apperrors "tenancy-backend/internal/errors"
	"tenancy-backend/internal/logger"
	"tenancy-backend/internal/metrics"
	"tenancy-backend/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

const (
	// MaxLogoSize is the largest accepted tenant logo upload
	MaxLogoSize = 5 << 20

	logoDir          = "tenants/logos"
	fallbackSlugBase = "tenant"

	// suffixes are drawn from [0, space); the space grows tenfold after every
	// slugWidenAfter taken candidates so allocation never runs out
	initialSlugSpace = 1001
	maxSlugSpace     = 1_000_000_000
	slugWidenAfter   = 10
)

var logoExtensions = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/webp":    ".webp",
	"image/gif":     ".gif",
	"image/svg+xml": ".svg",
}

// TenantService is the tenant registry
type TenantService struct {
	repo      repository.TenantRepositoryInterface
	store     FileStore
	validator *validator.Validate
	metrics   *metrics.Metrics
	suffix    func(space int) int
}

// NewTenantService creates a new tenant service
func NewTenantService(repo repository.TenantRepositoryInterface, store FileStore, validator *validator.Validate, m *metrics.Metrics) *TenantService {
	return &TenantService{
		repo:      repo,
		store:     store,
		validator: validator,
		metrics:   m,
		suffix:    rand.IntN,
	}
}

// UpdateTenantRequest represents the editable tenant fields
type UpdateTenantRequest struct {
	Name    string `json:"name" validate:"required,min=1,max=100" example:"Acme"`
	Website string `json:"website" validate:"omitempty,url,max=200" example:"https://acme.example"`
	Phone   string `json:"phone" validate:"max=20" example:"+1-555-0123"`
	Email   string `json:"email" validate:"omitempty,email,max=254" example:"hello@acme.example"`
}

// TenantResponse represents a tenant with its members
type TenantResponse struct {
	ID          uuid.UUID            `json:"id"`
	Name        string               `json:"name"`
	Slug        string               `json:"slug"`
	Logo        string               `json:"logo,omitempty"`
	Website     string               `json:"website"`
	Phone       string               `json:"phone"`
	Email       string               `json:"email"`
	TenantUsers []TenantUserResponse `json:"tenant_users"`
	CreatedAt   string               `json:"created_at"`
	UpdatedAt   string               `json:"updated_at"`
}

// TenantLogoResponse represents a tenant logo
type TenantLogoResponse struct {
	Image       string `json:"image"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	CreatedAt   string `json:"created_at"`
}

// LogoUpload is an image received for a tenant logo
type LogoUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// Create allocates a tenant whose slug is derived from name.
// A taken slug gets a random numeric suffix until a free one is found.
func (s *TenantService) Create(ctx context.Context, name string) (*models.Tenant, error) {
	tenant, err := s.allocate(ctx, name, func(tenant *models.Tenant) error {
		return s.repo.Create(ctx, tenant)
	})
	if err != nil {
		return nil, err
	}
	logger.WithContext(ctx).WithFields(map[string]interface{}{
		"tenant_id": tenant.ID,
		"slug":      tenant.Slug,
	}).Info("Tenant created")
	return tenant, nil
}

// CreateWithOwner allocates a tenant and binds ownerID to it as owner in one transaction.
// Fails with ErrMembershipExists when the user already belongs to a tenant; no tenant is left behind.
func (s *TenantService) CreateWithOwner(ctx context.Context, name string, ownerID uuid.UUID) (*models.Tenant, error) {
	tenant, err := s.allocate(ctx, name, func(tenant *models.Tenant) error {
		return s.repo.CreateWithOwner(ctx, tenant, &models.Membership{UserID: ownerID, Role: models.MembershipRoleOwner})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.MembershipsCreated.WithLabelValues(string(models.MembershipRoleOwner)).Inc()
	logger.WithContext(ctx).WithFields(map[string]interface{}{
		"tenant_id": tenant.ID,
		"slug":      tenant.Slug,
		"owner_id":  ownerID,
	}).Info("Tenant created with owner")
	return tenant, nil
}

// allocate finds a free slug for name and stores the tenant through insert.
// Losing an insert race on the slug draws another candidate.
func (s *TenantService) allocate(ctx context.Context, name string, insert func(*models.Tenant) error) (*models.Tenant, error) {
	name = strings.TrimSpace(name)
	base := slug.Make(name)
	if base == "" {
		base = fallbackSlugBase
	}

	candidate := base
	space := initialSlugSpace
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		exists, err := s.repo.SlugExists(ctx, candidate)
		if err != nil {
			return nil, fmt.Errorf("failed to check tenant slug: %w", err)
		}
		if !exists {
			tenant := &models.Tenant{Name: name, Slug: candidate}
			err := insert(tenant)
			if err == nil {
				s.metrics.TenantsCreated.Inc()
				return tenant, nil
			}
			if errors.Is(err, apperrors.ErrMembershipExists) {
				return nil, err
			}
			if !errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, fmt.Errorf("failed to create tenant: %w", err)
			}
		}
		if attempt%slugWidenAfter == 0 && space < maxSlugSpace {
			space *= 10
		}
		candidate = fmt.Sprintf("%s-%d", base, s.suffix(space))
	}
}

// Delete hard-deletes a tenant together with its memberships and invitations
func (s *TenantService) Delete(ctx context.Context, id uuid.UUID) error {
	logo := s.currentLogo(ctx, id)
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete tenant: %w", err)
	}
	s.removeLogoFile(ctx, logo)
	s.metrics.TenantsDeleted.Inc()
	return nil
}

// DeleteIfEmpty deletes the tenant when no memberships remain, re-counting them under a row lock
func (s *TenantService) DeleteIfEmpty(ctx context.Context, id uuid.UUID) (bool, error) {
	logo := s.currentLogo(ctx, id)
	deleted, err := s.repo.DeleteIfEmpty(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to prune tenant: %w", err)
	}
	if deleted {
		s.removeLogoFile(ctx, logo)
		s.metrics.TenantsDeleted.Inc()
		logger.WithContext(ctx).WithField("tenant_id", id).Info("Tenant deleted after its last member left")
	}
	return deleted, nil
}

// GetByID retrieves a tenant by ID
func (s *TenantService) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	tenant, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTenantNotFound
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return tenant, nil
}

// GetForMember returns the acting member's tenant with its members
func (s *TenantService) GetForMember(ctx context.Context, acting *models.Membership) (*TenantResponse, error) {
	if acting == nil {
		return nil, apperrors.ErrUserWithoutMembership
	}
	return s.loadResponse(ctx, acting.TenantID)
}

// Update changes the tenant's name and contact fields. Owners and admins only.
func (s *TenantService) Update(ctx context.Context, acting *models.Membership, req *UpdateTenantRequest) (*TenantResponse, error) {
	if err := requireManager(acting); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	tenant, err := s.GetByID(ctx, acting.TenantID)
	if err != nil {
		return nil, err
	}

	tenant.Name = strings.TrimSpace(req.Name)
	tenant.Website = req.Website
	tenant.Phone = req.Phone
	tenant.Email = req.Email
	if err := s.repo.Update(ctx, tenant); err != nil {
		return nil, fmt.Errorf("failed to update tenant: %w", err)
	}

	return s.loadResponse(ctx, tenant.ID)
}

// GetLogo returns the tenant's logo
func (s *TenantService) GetLogo(ctx context.Context, acting *models.Membership) (*TenantLogoResponse, error) {
	if acting == nil {
		return nil, apperrors.ErrUserWithoutMembership
	}
	logo, err := s.repo.GetLogo(ctx, acting.TenantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTenantLogoNotFound
		}
		return nil, fmt.Errorf("failed to get tenant logo: %w", err)
	}
	return s.logoResponse(logo), nil
}

// SetLogo stores upload as the tenant's logo, replacing any previous one. Owners and admins only.
func (s *TenantService) SetLogo(ctx context.Context, acting *models.Membership, upload *LogoUpload) (*TenantLogoResponse, error) {
	if err := requireManager(acting); err != nil {
		return nil, err
	}

	contentType, _, err := mime.ParseMediaType(upload.ContentType)
	if err != nil {
		return nil, apperrors.ErrUnsupportedLogoType
	}
	ext, ok := logoExtensions[contentType]
	if !ok {
		return nil, apperrors.ErrUnsupportedLogoType
	}
	if upload.Size > MaxLogoSize {
		return nil, apperrors.ErrLogoTooLarge
	}

	path := fmt.Sprintf("%s/%s-%s%s", logoDir, acting.TenantID, uuid.NewString()[:8], ext)
	written, err := s.store.Save(ctx, path, io.LimitReader(upload.Content, MaxLogoSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to store tenant logo: %w", err)
	}
	if written > MaxLogoSize {
		s.removeFile(ctx, path)
		return nil, apperrors.ErrLogoTooLarge
	}

	logo := &models.TenantLogo{
		TenantID:    acting.TenantID,
		Path:        path,
		ContentType: contentType,
		Size:        written,
	}
	previous, err := s.repo.ReplaceLogo(ctx, logo)
	if err != nil {
		s.removeFile(ctx, path)
		return nil, fmt.Errorf("failed to save tenant logo: %w", err)
	}
	s.removeLogoFile(ctx, previous)

	return s.logoResponse(logo), nil
}

// DeleteLogo removes the tenant's logo. Owners and admins only.
func (s *TenantService) DeleteLogo(ctx context.Context, acting *models.Membership) error {
	if err := requireManager(acting); err != nil {
		return err
	}
	logo, err := s.repo.DeleteLogo(ctx, acting.TenantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrTenantLogoNotFound
		}
		return fmt.Errorf("failed to delete tenant logo: %w", err)
	}
	s.removeLogoFile(ctx, logo)
	return nil
}

func (s *TenantService) loadResponse(ctx context.Context, tenantID uuid.UUID) (*TenantResponse, error) {
	tenant, err := s.repo.GetWithMembers(ctx, tenantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTenantNotFound
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}

	response := &TenantResponse{
		ID:          tenant.ID,
		Name:        tenant.Name,
		Slug:        tenant.Slug,
		Website:     tenant.Website,
		Phone:       tenant.Phone,
		Email:       tenant.Email,
		TenantUsers: make([]TenantUserResponse, len(tenant.Memberships)),
		CreatedAt:   tenant.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   tenant.UpdatedAt.Format(time.RFC3339),
	}
	if tenant.Logo != nil {
		response.Logo = s.store.URL(tenant.Logo.Path)
	}
	for i := range tenant.Memberships {
		response.TenantUsers[i] = *convertMembership(&tenant.Memberships[i])
	}
	return response, nil
}

func (s *TenantService) logoResponse(logo *models.TenantLogo) *TenantLogoResponse {
	return &TenantLogoResponse{
		Image:       s.store.URL(logo.Path),
		ContentType: logo.ContentType,
		Size:        logo.Size,
		CreatedAt:   logo.CreatedAt.Format(time.RFC3339),
	}
}

// currentLogo returns the tenant's logo so its file can be removed after the row is gone
func (s *TenantService) currentLogo(ctx context.Context, tenantID uuid.UUID) *models.TenantLogo {
	logo, err := s.repo.GetLogo(ctx, tenantID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WithContext(ctx).WithError(err).WithField("tenant_id", tenantID).Warn("Failed to look up tenant logo, its file may be left behind")
		}
		return nil
	}
	return logo
}

func (s *TenantService) removeLogoFile(ctx context.Context, logo *models.TenantLogo) {
	if logo != nil {
		s.removeFile(ctx, logo.Path)
	}
}

func (s *TenantService) removeFile(ctx context.Context, path string) {
	if err := s.store.Remove(ctx, path); err != nil {
		logger.WithContext(ctx).WithError(err).WithField("path", path).Warn("Failed to remove media file")
	}
}
