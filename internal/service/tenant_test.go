package service_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"tenancy-backend/internal/database/models"
	apperrors "tenancy-backend/internal/errors"
	"tenancy-backend/internal/metrics"
	"tenancy-backend/internal/mocks"
	"tenancy-backend/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

// TenantServiceTestSuite defines the test suite for TenantService
type TenantServiceTestSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	repo      *mocks.MockTenantRepositoryInterface
	store     *mocks.MockFileStore
	service   *service.TenantService
	ctx       context.Context
	tenantID  uuid.UUID
	owner     *models.Membership
	admin     *models.Membership
	plainUser *models.Membership
}

// SetupTest sets up the test suite
func (suite *TenantServiceTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.repo = mocks.NewMockTenantRepositoryInterface(suite.ctrl)
	suite.store = mocks.NewMockFileStore(suite.ctrl)
	suite.service = service.NewTenantService(suite.repo, suite.store, validator.New(), metrics.New("test", nil))
	suite.ctx = context.Background()

	suite.tenantID = uuid.New()
	suite.owner = membership(suite.tenantID, models.MembershipRoleOwner)
	suite.admin = membership(suite.tenantID, models.MembershipRoleAdmin)
	suite.plainUser = membership(suite.tenantID, models.MembershipRoleUser)
}

// TearDownTest cleans up after each test
func (suite *TenantServiceTestSuite) TearDownTest() {
	suite.ctrl.Finish()
}

func (suite *TenantServiceTestSuite) TestCreate_SlugFromName() {
	suite.repo.EXPECT().SlugExists(suite.ctx, "acme-inc").Return(false, nil)
	suite.repo.EXPECT().Create(suite.ctx, gomock.Any()).Return(nil)

	tenant, err := suite.service.Create(suite.ctx, "  Acme Inc ")

	suite.Require().NoError(err)
	suite.Equal("Acme Inc", tenant.Name)
	suite.Equal("acme-inc", tenant.Slug)
}

func (suite *TenantServiceTestSuite) TestCreate_TakenSlugGetsSuffix() {
	suite.repo.EXPECT().SlugExists(suite.ctx, "acme").Return(true, nil)
	suite.repo.EXPECT().SlugExists(suite.ctx, gomock.Any()).Return(false, nil)
	suite.repo.EXPECT().Create(suite.ctx, gomock.Any()).Return(nil)

	tenant, err := suite.service.Create(suite.ctx, "Acme")

	suite.Require().NoError(err)
	suite.True(strings.HasPrefix(tenant.Slug, "acme-"), tenant.Slug)
	suite.NotEqual("acme", tenant.Slug)
}

func (suite *TenantServiceTestSuite) TestCreate_NameWithoutSlugCharacters() {
	suite.repo.EXPECT().SlugExists(suite.ctx, "tenant").Return(false, nil)
	suite.repo.EXPECT().Create(suite.ctx, gomock.Any()).Return(nil)

	tenant, err := suite.service.Create(suite.ctx, "!!!")

	suite.Require().NoError(err)
	suite.Equal("tenant", tenant.Slug)
}

func (suite *TenantServiceTestSuite) TestCreate_RetriesAfterLostInsertRace() {
	gomock.InOrder(
		suite.repo.EXPECT().SlugExists(suite.ctx, "acme").Return(false, nil),
		suite.repo.EXPECT().Create(suite.ctx, gomock.Any()).Return(gorm.ErrDuplicatedKey),
		suite.repo.EXPECT().SlugExists(suite.ctx, gomock.Any()).Return(false, nil),
		suite.repo.EXPECT().Create(suite.ctx, gomock.Any()).Return(nil),
	)

	tenant, err := suite.service.Create(suite.ctx, "Acme")

	suite.Require().NoError(err)
	suite.True(strings.HasPrefix(tenant.Slug, "acme-"), tenant.Slug)
}

func (suite *TenantServiceTestSuite) TestCreate_SucceedsWhenSuffixRangeIsExhausted() {
	taken := map[string]bool{"adas-team": true}
	for i := 0; i <= 1000; i++ {
		taken[fmt.Sprintf("adas-team-%d", i)] = true
	}
	suite.repo.EXPECT().SlugExists(suite.ctx, gomock.Any()).DoAndReturn(func(_ context.Context, slug string) (bool, error) {
		return taken[slug], nil
	}).AnyTimes()
	suite.repo.EXPECT().Create(suite.ctx, gomock.Any()).Return(nil)

	tenant, err := suite.service.Create(suite.ctx, "Ada's team")

	suite.Require().NoError(err)
	suite.True(strings.HasPrefix(tenant.Slug, "adas-team-"), tenant.Slug)
	suite.False(taken[tenant.Slug], tenant.Slug)
}

func (suite *TenantServiceTestSuite) TestCreate_StorageFailure() {
	suite.repo.EXPECT().SlugExists(suite.ctx, "acme").Return(false, errors.New("connection refused"))

	tenant, err := suite.service.Create(suite.ctx, "Acme")

	suite.Nil(tenant)
	suite.Error(err)
}

func (suite *TenantServiceTestSuite) TestCreateWithOwner() {
	ownerID := uuid.New()
	suite.repo.EXPECT().SlugExists(suite.ctx, "adas-team").Return(false, nil)
	suite.repo.EXPECT().CreateWithOwner(suite.ctx, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, t *models.Tenant, owner *models.Membership) error {
			suite.Equal("adas-team", t.Slug)
			suite.Equal(ownerID, owner.UserID)
			suite.Equal(models.MembershipRoleOwner, owner.Role)
			return nil
		})

	tenant, err := suite.service.CreateWithOwner(suite.ctx, "Ada's team", ownerID)

	suite.Require().NoError(err)
	suite.Equal("Ada's team", tenant.Name)
}

func (suite *TenantServiceTestSuite) TestCreateWithOwner_RetriesTakenSlug() {
	gomock.InOrder(
		suite.repo.EXPECT().SlugExists(suite.ctx, "acme").Return(false, nil),
		suite.repo.EXPECT().CreateWithOwner(suite.ctx, gomock.Any(), gomock.Any()).Return(gorm.ErrDuplicatedKey),
		suite.repo.EXPECT().SlugExists(suite.ctx, gomock.Any()).Return(false, nil),
		suite.repo.EXPECT().CreateWithOwner(suite.ctx, gomock.Any(), gomock.Any()).Return(nil),
	)

	tenant, err := suite.service.CreateWithOwner(suite.ctx, "Acme", uuid.New())

	suite.Require().NoError(err)
	suite.True(strings.HasPrefix(tenant.Slug, "acme-"), tenant.Slug)
}

func (suite *TenantServiceTestSuite) TestCreateWithOwner_UserAlreadyHasMembership() {
	suite.repo.EXPECT().SlugExists(suite.ctx, "acme").Return(false, nil)
	suite.repo.EXPECT().CreateWithOwner(suite.ctx, gomock.Any(), gomock.Any()).Return(apperrors.ErrMembershipExists)

	tenant, err := suite.service.CreateWithOwner(suite.ctx, "Acme", uuid.New())

	suite.Nil(tenant)
	suite.ErrorIs(err, apperrors.ErrMembershipExists)
}

func (suite *TenantServiceTestSuite) TestGetByID_NotFound() {
	id := uuid.New()
	suite.repo.EXPECT().GetByID(suite.ctx, id).Return(nil, gorm.ErrRecordNotFound)

	_, err := suite.service.GetByID(suite.ctx, id)

	suite.ErrorIs(err, apperrors.ErrTenantNotFound)
}

func (suite *TenantServiceTestSuite) TestGetForMember_WithoutMembership() {
	_, err := suite.service.GetForMember(suite.ctx, nil)

	suite.ErrorIs(err, apperrors.ErrUserWithoutMembership)
}

func (suite *TenantServiceTestSuite) TestGetForMember_IncludesMembersAndLogo() {
	suite.repo.EXPECT().GetWithMembers(suite.ctx, suite.tenantID).Return(&models.Tenant{
		BaseModel:   models.BaseModel{ID: suite.tenantID},
		Name:        "Acme",
		Slug:        "acme",
		Memberships: []models.Membership{*suite.owner, *suite.plainUser},
		Logo:        &models.TenantLogo{Path: "tenants/logos/acme.png"},
	}, nil)
	suite.store.EXPECT().URL("tenants/logos/acme.png").Return("/media/tenants/logos/acme.png")

	response, err := suite.service.GetForMember(suite.ctx, suite.plainUser)

	suite.Require().NoError(err)
	suite.Equal("acme", response.Slug)
	suite.Equal("/media/tenants/logos/acme.png", response.Logo)
	suite.Len(response.TenantUsers, 2)
	suite.Equal("owner", response.TenantUsers[0].Role)
}

func (suite *TenantServiceTestSuite) TestUpdate_RequiresManager() {
	_, err := suite.service.Update(suite.ctx, suite.plainUser, &service.UpdateTenantRequest{Name: "New"})

	suite.ErrorIs(err, apperrors.ErrOwnerOrAdminRequired)
}

func (suite *TenantServiceTestSuite) TestUpdate_InvalidWebsite() {
	_, err := suite.service.Update(suite.ctx, suite.admin, &service.UpdateTenantRequest{Name: "New", Website: "not a url"})

	var vErr *apperrors.ValidationError
	suite.Require().ErrorAs(err, &vErr)
	suite.Equal("website", vErr.Field)
}

func (suite *TenantServiceTestSuite) TestUpdate_Success() {
	tenant := &models.Tenant{BaseModel: models.BaseModel{ID: suite.tenantID}, Name: "Old", Slug: "old"}
	suite.repo.EXPECT().GetByID(suite.ctx, suite.tenantID).Return(tenant, nil)
	suite.repo.EXPECT().Update(suite.ctx, gomock.Any()).DoAndReturn(func(_ context.Context, t *models.Tenant) error {
		suite.Equal("New", t.Name)
		suite.Equal("https://acme.example", t.Website)
		suite.Equal("old", t.Slug)
		return nil
	})
	suite.repo.EXPECT().GetWithMembers(suite.ctx, suite.tenantID).Return(tenant, nil)

	response, err := suite.service.Update(suite.ctx, suite.owner, &service.UpdateTenantRequest{
		Name:    " New ",
		Website: "https://acme.example",
	})

	suite.Require().NoError(err)
	suite.Equal("New", response.Name)
	suite.Equal("old", response.Slug)
}

func (suite *TenantServiceTestSuite) TestDeleteIfEmpty_RemovesLogoFile() {
	logo := &models.TenantLogo{Path: "tenants/logos/x.png"}
	suite.repo.EXPECT().GetLogo(suite.ctx, suite.tenantID).Return(logo, nil)
	suite.repo.EXPECT().DeleteIfEmpty(suite.ctx, suite.tenantID).Return(true, nil)
	suite.store.EXPECT().Remove(suite.ctx, logo.Path).Return(nil)

	deleted, err := suite.service.DeleteIfEmpty(suite.ctx, suite.tenantID)

	suite.Require().NoError(err)
	suite.True(deleted)
}

func (suite *TenantServiceTestSuite) TestDeleteIfEmpty_KeepsTenantWithMembers() {
	suite.repo.EXPECT().GetLogo(suite.ctx, suite.tenantID).Return(nil, gorm.ErrRecordNotFound)
	suite.repo.EXPECT().DeleteIfEmpty(suite.ctx, suite.tenantID).Return(false, nil)

	deleted, err := suite.service.DeleteIfEmpty(suite.ctx, suite.tenantID)

	suite.Require().NoError(err)
	suite.False(deleted)
}

func (suite *TenantServiceTestSuite) TestDeleteIfEmpty_LogoLookupFailureStillDeletes() {
	suite.repo.EXPECT().GetLogo(suite.ctx, suite.tenantID).Return(nil, errors.New("connection reset"))
	suite.repo.EXPECT().DeleteIfEmpty(suite.ctx, suite.tenantID).Return(true, nil)

	deleted, err := suite.service.DeleteIfEmpty(suite.ctx, suite.tenantID)

	suite.Require().NoError(err)
	suite.True(deleted)
}

func (suite *TenantServiceTestSuite) TestGetLogo_NotFound() {
	suite.repo.EXPECT().GetLogo(suite.ctx, suite.tenantID).Return(nil, gorm.ErrRecordNotFound)

	_, err := suite.service.GetLogo(suite.ctx, suite.plainUser)

	suite.ErrorIs(err, apperrors.ErrTenantLogoNotFound)
}

func (suite *TenantServiceTestSuite) TestSetLogo_RequiresManager() {
	_, err := suite.service.SetLogo(suite.ctx, suite.plainUser, pngUpload(10))

	suite.ErrorIs(err, apperrors.ErrOwnerOrAdminRequired)
}

func (suite *TenantServiceTestSuite) TestSetLogo_UnsupportedType() {
	upload := pngUpload(10)
	upload.ContentType = "application/pdf"

	_, err := suite.service.SetLogo(suite.ctx, suite.admin, upload)

	suite.ErrorIs(err, apperrors.ErrUnsupportedLogoType)
}

func (suite *TenantServiceTestSuite) TestSetLogo_TooLarge() {
	_, err := suite.service.SetLogo(suite.ctx, suite.admin, pngUpload(service.MaxLogoSize+1))

	suite.ErrorIs(err, apperrors.ErrLogoTooLarge)
}

func (suite *TenantServiceTestSuite) TestSetLogo_ReplacesPreviousFile() {
	previous := &models.TenantLogo{Path: "tenants/logos/old.png"}
	var savedPath string

	suite.store.EXPECT().Save(suite.ctx, gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, path string, r io.Reader) (int64, error) {
			savedPath = path
			return io.Copy(io.Discard, r)
		})
	suite.repo.EXPECT().ReplaceLogo(suite.ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, logo *models.TenantLogo) (*models.TenantLogo, error) {
			suite.Equal(suite.tenantID, logo.TenantID)
			suite.Equal("image/png", logo.ContentType)
			suite.Equal(int64(10), logo.Size)
			return previous, nil
		})
	suite.store.EXPECT().Remove(suite.ctx, previous.Path).Return(nil)
	suite.store.EXPECT().URL(gomock.Any()).DoAndReturn(func(path string) string { return "/media/" + path })

	response, err := suite.service.SetLogo(suite.ctx, suite.owner, pngUpload(10))

	suite.Require().NoError(err)
	suite.True(strings.HasPrefix(savedPath, "tenants/logos/"+suite.tenantID.String()), savedPath)
	suite.True(strings.HasSuffix(savedPath, ".png"), savedPath)
	suite.Equal("/media/"+savedPath, response.Image)
}

func (suite *TenantServiceTestSuite) TestSetLogo_CleansUpWhenRecordFails() {
	suite.store.EXPECT().Save(suite.ctx, gomock.Any(), gomock.Any()).Return(int64(10), nil)
	suite.repo.EXPECT().ReplaceLogo(suite.ctx, gomock.Any()).Return(nil, errors.New("db down"))
	suite.store.EXPECT().Remove(suite.ctx, gomock.Any()).Return(nil)

	_, err := suite.service.SetLogo(suite.ctx, suite.owner, pngUpload(10))

	suite.Error(err)
}

func (suite *TenantServiceTestSuite) TestDeleteLogo_NotFound() {
	suite.repo.EXPECT().DeleteLogo(suite.ctx, suite.tenantID).Return(nil, gorm.ErrRecordNotFound)

	err := suite.service.DeleteLogo(suite.ctx, suite.admin)

	suite.ErrorIs(err, apperrors.ErrTenantLogoNotFound)
}

func membership(tenantID uuid.UUID, role models.MembershipRole) *models.Membership {
	return &models.Membership{
		BaseModel: models.BaseModel{ID: uuid.New()},
		UserID:    uuid.New(),
		TenantID:  tenantID,
		Role:      role,
	}
}

func pngUpload(size int64) *service.LogoUpload {
	content := size
	if content > 16 {
		content = 16
	}
	return &service.LogoUpload{
		Filename:    "logo.png",
		ContentType: "image/png",
		Size:        size,
		Content:     bytes.NewReader(make([]byte, content)),
	}
}

func TestTenantServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TenantServiceTestSuite))
}
