//go:build integration
// +build integration

package repository

import (
	"context"
	"testing"
	"time"

	"tenancy-backend/internal/database/models"
	apperrors "tenancy-backend/internal/errors"
	"tenancy-backend/internal/testutils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// InvitationRepositoryTestSuite tests the InvitationRepository
type InvitationRepositoryTestSuite struct {
	suite.Suite
	baseTestSuite *testutils.BaseTestSuite
	repo          *InvitationRepository
	tenantRepo    *TenantRepository
	factories     *testutils.FactorySet
	ctx           context.Context
}

func (suite *InvitationRepositoryTestSuite) SetupSuite() {
	suite.baseTestSuite = testutils.SetupTestSuite(suite.T())
	suite.repo = NewInvitationRepository(suite.baseTestSuite.DB)
	suite.tenantRepo = NewTenantRepository(suite.baseTestSuite.DB)
	suite.factories = testutils.NewFactorySet()
	suite.ctx = context.Background()
}

func (suite *InvitationRepositoryTestSuite) TearDownSuite() {
	suite.baseTestSuite.TeardownTestSuite()
}

func (suite *InvitationRepositoryTestSuite) SetupTest() {
	suite.baseTestSuite.SetupTest()
}

func (suite *InvitationRepositoryTestSuite) TearDownTest() {
	suite.baseTestSuite.TearDownTest()
}

func (suite *InvitationRepositoryTestSuite) newTenant() *models.Tenant {
	tenant := suite.factories.Tenant.Create()
	suite.Require().NoError(suite.tenantRepo.Create(suite.ctx, tenant))
	return tenant
}

func (suite *InvitationRepositoryTestSuite) TestCreateNormalizesEmail() {
	tenant := suite.newTenant()
	invitation := suite.factories.Invitation.Create(tenant.ID, "  Grace@Test.com ")
	suite.NoError(suite.repo.Create(suite.ctx, invitation))

	found, err := suite.repo.GetByID(suite.ctx, invitation.ID)
	suite.NoError(err)
	suite.Equal("grace@test.com", found.Email)
	suite.Nil(found.LastSentAt)
}

func (suite *InvitationRepositoryTestSuite) TestCreateDuplicatePending() {
	tenant := suite.newTenant()
	suite.NoError(suite.repo.Create(suite.ctx, suite.factories.Invitation.Create(tenant.ID, "grace@test.com")))

	err := suite.repo.Create(suite.ctx, suite.factories.Invitation.Create(tenant.ID, "GRACE@test.com"))
	suite.ErrorIs(err, apperrors.ErrEmailAlreadyInvited)

	other := suite.newTenant()
	suite.NoError(suite.repo.Create(suite.ctx, suite.factories.Invitation.Create(other.ID, "grace@test.com")))
}

func (suite *InvitationRepositoryTestSuite) TestCreateAfterAccepted() {
	tenant := suite.newTenant()
	accepted := suite.factories.Invitation.Create(tenant.ID, "grace@test.com")
	now := time.Now()
	accepted.AcceptedAt = &now
	suite.NoError(suite.repo.Create(suite.ctx, accepted))

	suite.NoError(suite.repo.Create(suite.ctx, suite.factories.Invitation.Create(tenant.ID, "grace@test.com")))
}

func (suite *InvitationRepositoryTestSuite) TestFindOldestPendingByEmail() {
	older := suite.factories.Invitation.Create(suite.newTenant().ID, "grace@test.com")
	older.CreatedAt = time.Now().Add(-time.Hour)
	suite.NoError(suite.repo.Create(suite.ctx, older))

	newer := suite.factories.Invitation.Create(suite.newTenant().ID, "grace@test.com")
	suite.NoError(suite.repo.Create(suite.ctx, newer))

	found, err := suite.repo.FindOldestPendingByEmail(suite.ctx, "Grace@test.com")
	suite.NoError(err)
	suite.Equal(older.ID, found.ID)

	_, err = suite.repo.FindOldestPendingByEmail(suite.ctx, "nobody@test.com")
	suite.ErrorIs(err, gorm.ErrRecordNotFound)
}

func (suite *InvitationRepositoryTestSuite) TestListByTenant() {
	tenant := suite.newTenant()
	suite.NoError(suite.repo.Create(suite.ctx, suite.factories.Invitation.Create(tenant.ID, "a@test.com")))
	suite.NoError(suite.repo.Create(suite.ctx, suite.factories.Invitation.Create(tenant.ID, "b@test.com")))
	suite.NoError(suite.repo.Create(suite.ctx, suite.factories.Invitation.Create(suite.newTenant().ID, "c@test.com")))

	invitations, err := suite.repo.ListByTenant(suite.ctx, tenant.ID)
	suite.NoError(err)
	suite.Len(invitations, 2)
}

func (suite *InvitationRepositoryTestSuite) TestMarkSent() {
	tenant := suite.newTenant()
	invitation := suite.factories.Invitation.Create(tenant.ID, "grace@test.com")
	suite.NoError(suite.repo.Create(suite.ctx, invitation))

	sentAt := time.Now().UTC().Truncate(time.Second)
	suite.NoError(suite.repo.MarkSent(suite.ctx, invitation.ID, sentAt))

	found, err := suite.repo.GetByID(suite.ctx, invitation.ID)
	suite.NoError(err)
	suite.Require().NotNil(found.LastSentAt)
	suite.True(sentAt.Equal(found.LastSentAt.UTC()))

	suite.ErrorIs(suite.repo.MarkSent(suite.ctx, uuid.New(), sentAt), gorm.ErrRecordNotFound)
}

func TestInvitationRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(InvitationRepositoryTestSuite))
}
