package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"tenancy-backend/internal/database/models"
	"tenancy-backend/internal/email"
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

// InvitationServiceTestSuite defines the test suite for InvitationService
type InvitationServiceTestSuite struct {
	suite.Suite
	ctrl        *gomock.Controller
	repo        *mocks.MockInvitationRepositoryInterface
	memberships *mocks.MockMembershipRepositoryInterface
	tenants     *mocks.MockTenantRepositoryInterface
	queue       *mocks.MockEmailQueue
	mailer      *mocks.MockClient
	service     *service.InvitationService
	ctx         context.Context
	now         time.Time
	tenantID    uuid.UUID
	admin       *models.Membership
	member      *models.Membership
}

// SetupTest sets up the test suite
func (suite *InvitationServiceTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.repo = mocks.NewMockInvitationRepositoryInterface(suite.ctrl)
	suite.memberships = mocks.NewMockMembershipRepositoryInterface(suite.ctrl)
	suite.tenants = mocks.NewMockTenantRepositoryInterface(suite.ctrl)
	suite.queue = mocks.NewMockEmailQueue(suite.ctrl)
	suite.mailer = mocks.NewMockClient(suite.ctrl)
	suite.ctx = context.Background()
	suite.now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	suite.service = service.NewInvitationService(
		suite.repo, suite.memberships, suite.tenants, suite.queue, suite.mailer,
		validator.New(), metrics.New("test", nil),
		service.InvitationSettings{TemplateID: "tmpl-invite", ResendCooldown: 24 * time.Hour, SignUpURL: "https://app.example/sign-up"},
		service.WithInvitationClock(func() time.Time { return suite.now }),
	)

	suite.tenantID = uuid.New()
	suite.admin = membership(suite.tenantID, models.MembershipRoleAdmin)
	suite.member = membership(suite.tenantID, models.MembershipRoleUser)
}

// TearDownTest cleans up after each test
func (suite *InvitationServiceTestSuite) TearDownTest() {
	suite.ctrl.Finish()
}

func (suite *InvitationServiceTestSuite) pending(lastSent *time.Time) *models.Invitation {
	return &models.Invitation{
		BaseModel:  models.BaseModel{ID: uuid.New()},
		TenantID:   suite.tenantID,
		Email:      "bob@example.com",
		LastSentAt: lastSent,
	}
}

func (suite *InvitationServiceTestSuite) TestCreate_RequiresManager() {
	_, err := suite.service.Create(suite.ctx, suite.member, &service.CreateInvitationRequest{Email: "bob@example.com"})

	suite.ErrorIs(err, apperrors.ErrOwnerOrAdminRequired)
}

func (suite *InvitationServiceTestSuite) TestCreate_InvalidEmail() {
	_, err := suite.service.Create(suite.ctx, suite.admin, &service.CreateInvitationRequest{Email: "not-an-email"})

	var vErr *apperrors.ValidationError
	suite.Require().ErrorAs(err, &vErr)
	suite.Equal("email", vErr.Field)
}

func (suite *InvitationServiceTestSuite) TestCreate_EmailAlreadyMember() {
	suite.memberships.EXPECT().ExistsByEmail(suite.ctx, "bob@example.com").Return(true, nil)

	_, err := suite.service.Create(suite.ctx, suite.admin, &service.CreateInvitationRequest{Email: "Bob@Example.com"})

	suite.ErrorIs(err, apperrors.ErrEmailAlreadyMember)
}

func (suite *InvitationServiceTestSuite) TestCreate_AlreadyPending() {
	suite.memberships.EXPECT().ExistsByEmail(suite.ctx, "bob@example.com").Return(false, nil)
	suite.repo.EXPECT().Create(suite.ctx, gomock.Any()).Return(apperrors.ErrEmailAlreadyInvited)

	_, err := suite.service.Create(suite.ctx, suite.admin, &service.CreateInvitationRequest{Email: "bob@example.com"})

	suite.ErrorIs(err, apperrors.ErrEmailAlreadyInvited)
}

func (suite *InvitationServiceTestSuite) TestCreate_QueuesEmailAndMarksSentOnDelivery() {
	invitationID := uuid.New()
	var job email.Job

	suite.memberships.EXPECT().ExistsByEmail(suite.ctx, "bob@example.com").Return(false, nil)
	suite.repo.EXPECT().Create(suite.ctx, gomock.Any()).DoAndReturn(func(_ context.Context, i *models.Invitation) error {
		suite.Equal(suite.tenantID, i.TenantID)
		suite.Equal("bob@example.com", i.Email)
		suite.Equal(suite.admin.ID, *i.InvitedByID)
		i.ID = invitationID
		return nil
	})
	suite.queue.EXPECT().Enqueue(gomock.Any()).DoAndReturn(func(j email.Job) error {
		job = j
		return nil
	})

	response, err := suite.service.Create(suite.ctx, suite.admin, &service.CreateInvitationRequest{Email: " Bob@Example.com "})

	suite.Require().NoError(err)
	suite.Equal("bob@example.com", response.Email)
	suite.False(response.IsAccepted)
	suite.Nil(response.LastSentAt)
	suite.Equal("invitation", job.Name)

	jobCtx := context.Background()
	suite.tenants.EXPECT().GetByID(jobCtx, suite.tenantID).Return(&models.Tenant{Name: "Acme"}, nil)
	suite.mailer.EXPECT().SendTransactional(jobCtx, "tmpl-invite", "bob@example.com", map[string]interface{}{
		"email":      "bob@example.com",
		"tenantName": "Acme",
		"signUpUrl":  "https://app.example/sign-up",
	}).Return(nil)
	suite.Require().NoError(job.Send(jobCtx))

	suite.repo.EXPECT().MarkSent(jobCtx, invitationID, suite.now).Return(nil)
	suite.Require().NoError(job.OnDelivered(jobCtx, suite.now))
}

func (suite *InvitationServiceTestSuite) TestCreate_QueueFullStillRecordsInvitation() {
	suite.memberships.EXPECT().ExistsByEmail(suite.ctx, "bob@example.com").Return(false, nil)
	suite.repo.EXPECT().Create(suite.ctx, gomock.Any()).Return(nil)
	suite.queue.EXPECT().Enqueue(gomock.Any()).Return(apperrors.ErrDispatchQueueFull)

	response, err := suite.service.Create(suite.ctx, suite.admin, &service.CreateInvitationRequest{Email: "bob@example.com"})

	suite.Require().NoError(err)
	suite.Nil(response.LastSentAt)
}

func (suite *InvitationServiceTestSuite) TestResend_NeverSent() {
	invitation := suite.pending(nil)
	suite.repo.EXPECT().GetByID(suite.ctx, invitation.ID).Return(invitation, nil)
	suite.queue.EXPECT().Enqueue(gomock.Any()).Return(nil)

	suite.NoError(suite.service.Resend(suite.ctx, suite.admin, invitation.ID))
}

func (suite *InvitationServiceTestSuite) TestResend_WithinCooldown() {
	sent := suite.now.Add(-23 * time.Hour)
	invitation := suite.pending(&sent)
	suite.repo.EXPECT().GetByID(suite.ctx, invitation.ID).Return(invitation, nil)

	err := suite.service.Resend(suite.ctx, suite.admin, invitation.ID)

	suite.ErrorIs(err, apperrors.ErrResendCooldown)
}

func (suite *InvitationServiceTestSuite) TestResend_AfterCooldown() {
	sent := suite.now.Add(-24 * time.Hour)
	invitation := suite.pending(&sent)
	suite.repo.EXPECT().GetByID(suite.ctx, invitation.ID).Return(invitation, nil)
	suite.queue.EXPECT().Enqueue(gomock.Any()).Return(nil)

	suite.NoError(suite.service.Resend(suite.ctx, suite.admin, invitation.ID))
}

func (suite *InvitationServiceTestSuite) TestResend_Accepted() {
	accepted := suite.now.Add(-time.Hour)
	invitation := suite.pending(nil)
	invitation.AcceptedAt = &accepted
	suite.repo.EXPECT().GetByID(suite.ctx, invitation.ID).Return(invitation, nil)

	err := suite.service.Resend(suite.ctx, suite.admin, invitation.ID)

	suite.ErrorIs(err, apperrors.ErrInvitationAccepted)
}

func (suite *InvitationServiceTestSuite) TestResend_OtherTenantIsHidden() {
	invitation := suite.pending(nil)
	invitation.TenantID = uuid.New()
	suite.repo.EXPECT().GetByID(suite.ctx, invitation.ID).Return(invitation, nil)

	err := suite.service.Resend(suite.ctx, suite.admin, invitation.ID)

	suite.ErrorIs(err, apperrors.ErrInvitationNotFound)
}

func (suite *InvitationServiceTestSuite) TestResend_NotFound() {
	id := uuid.New()
	suite.repo.EXPECT().GetByID(suite.ctx, id).Return(nil, gorm.ErrRecordNotFound)

	err := suite.service.Resend(suite.ctx, suite.admin, id)

	suite.ErrorIs(err, apperrors.ErrInvitationNotFound)
}

func (suite *InvitationServiceTestSuite) TestResend_QueueFailureIsReported() {
	invitation := suite.pending(nil)
	suite.repo.EXPECT().GetByID(suite.ctx, invitation.ID).Return(invitation, nil)
	suite.queue.EXPECT().Enqueue(gomock.Any()).Return(apperrors.ErrDispatcherStopped)

	err := suite.service.Resend(suite.ctx, suite.admin, invitation.ID)

	suite.ErrorIs(err, apperrors.ErrDispatcherStopped)
}

func (suite *InvitationServiceTestSuite) TestResend_FailedDeliveryLeavesCooldownOpen() {
	invitation := suite.pending(nil)
	var job email.Job
	suite.repo.EXPECT().GetByID(suite.ctx, invitation.ID).Return(invitation, nil)
	suite.queue.EXPECT().Enqueue(gomock.Any()).DoAndReturn(func(j email.Job) error {
		job = j
		return nil
	})
	suite.Require().NoError(suite.service.Resend(suite.ctx, suite.admin, invitation.ID))

	jobCtx := context.Background()
	suite.tenants.EXPECT().GetByID(jobCtx, suite.tenantID).Return(nil, gorm.ErrRecordNotFound)
	suite.mailer.EXPECT().SendTransactional(jobCtx, "tmpl-invite", "bob@example.com", gomock.Any()).
		Return(errors.New("provider down"))

	suite.Error(job.Send(jobCtx))
	// no MarkSent: OnDelivered only runs after a successful Send
}

func (suite *InvitationServiceTestSuite) TestList_RequiresManager() {
	_, err := suite.service.List(suite.ctx, suite.member)

	suite.ErrorIs(err, apperrors.ErrOwnerOrAdminRequired)
}

func (suite *InvitationServiceTestSuite) TestList() {
	sent := suite.now
	suite.repo.EXPECT().ListByTenant(suite.ctx, suite.tenantID).Return([]models.Invitation{*suite.pending(&sent), *suite.pending(nil)}, nil)

	invitations, err := suite.service.List(suite.ctx, suite.admin)

	suite.Require().NoError(err)
	suite.Require().Len(invitations, 2)
	suite.NotNil(invitations[0].LastSentAt)
	suite.Nil(invitations[1].LastSentAt)
}

func (suite *InvitationServiceTestSuite) TestAccept_FindsOldestPending() {
	invitation := suite.pending(nil)
	suite.repo.EXPECT().FindOldestPendingByEmail(suite.ctx, "bob@example.com").Return(invitation, nil)

	found, err := suite.service.Accept(suite.ctx, "BOB@example.com")

	suite.Require().NoError(err)
	suite.Equal(invitation.ID, found.ID)
}

func (suite *InvitationServiceTestSuite) TestAccept_NoPendingInvitation() {
	suite.repo.EXPECT().FindOldestPendingByEmail(suite.ctx, "carol@example.com").Return(nil, gorm.ErrRecordNotFound)

	_, err := suite.service.Accept(suite.ctx, "carol@example.com")

	suite.ErrorIs(err, apperrors.ErrNoPendingInvitation)
}

func TestInvitationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(InvitationServiceTestSuite))
}
