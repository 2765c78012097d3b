package service_test

import (
	"context"
	"errors"
	"testing"

	"tenancy-backend/internal/database/models"
	"tenancy-backend/internal/email"
	apperrors "tenancy-backend/internal/errors"
	"tenancy-backend/internal/events"
	"tenancy-backend/internal/mocks"
	"tenancy-backend/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

func strPtr(s string) *string {
	return &s
}

// UserServiceTestSuite defines the test suite for UserService
type UserServiceTestSuite struct {
	suite.Suite
	ctrl        *gomock.Controller
	repo        *mocks.MockUserRepositoryInterface
	queue       *mocks.MockEmailQueue
	mailer      *mocks.MockClient
	bus         *events.Bus
	signedUp    []events.UserSignedUp
	deleted     []events.UserDeleted
	userService *service.UserService
	ctx         context.Context
}

// SetupTest sets up the test suite
func (suite *UserServiceTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.repo = mocks.NewMockUserRepositoryInterface(suite.ctrl)
	suite.queue = mocks.NewMockEmailQueue(suite.ctrl)
	suite.mailer = mocks.NewMockClient(suite.ctrl)
	suite.ctx = context.Background()

	suite.signedUp, suite.deleted = nil, nil
	suite.bus = events.NewBus()
	suite.bus.SubscribeUserSignedUp(func(_ context.Context, e events.UserSignedUp) error {
		suite.signedUp = append(suite.signedUp, e)
		return nil
	})
	suite.bus.SubscribeUserDeleted(func(_ context.Context, e events.UserDeleted) error {
		suite.deleted = append(suite.deleted, e)
		return nil
	})

	suite.userService = service.NewUserService(suite.repo, suite.bus, suite.queue, suite.mailer, validator.New())
}

// TearDownTest cleans up after each test
func (suite *UserServiceTestSuite) TearDownTest() {
	suite.ctrl.Finish()
}

func (suite *UserServiceTestSuite) TestHandleSignUp_Validation() {
	_, err := suite.userService.HandleSignUp(suite.ctx, &service.SignUpRequest{UserID: uuid.New(), Email: "nope"})

	var vErr *apperrors.ValidationError
	suite.Require().ErrorAs(err, &vErr)
	suite.Equal("email", vErr.Field)
	suite.Empty(suite.signedUp)
}

func (suite *UserServiceTestSuite) TestHandleSignUp_PublishesAndSyncsContact() {
	userID := uuid.New()
	tenantID := uuid.New()
	var job email.Job

	suite.repo.EXPECT().Upsert(suite.ctx, gomock.Any()).DoAndReturn(func(_ context.Context, u *models.User) error {
		suite.Equal(userID, u.ID)
		u.Email = "ada@example.com"
		return nil
	})
	suite.queue.EXPECT().Enqueue(gomock.Any()).DoAndReturn(func(j email.Job) error {
		job = j
		return nil
	})
	suite.repo.EXPECT().GetByID(suite.ctx, userID).Return(&models.User{
		BaseModel: models.BaseModel{ID: userID},
		Email:     "ada@example.com",
		FirstName: "Ada",
		Membership: &models.Membership{
			BaseModel: models.BaseModel{ID: uuid.New()},
			TenantID:  tenantID,
			Role:      models.MembershipRoleOwner,
			Tenant:    &models.Tenant{BaseModel: models.BaseModel{ID: tenantID}, Name: "Ada's team", Slug: "adas-team"},
		},
	}, nil)

	response, err := suite.userService.HandleSignUp(suite.ctx, &service.SignUpRequest{
		UserID:    userID,
		Email:     "Ada@Example.com",
		FirstName: "Ada",
	})

	suite.Require().NoError(err)
	suite.Equal([]events.UserSignedUp{{UserID: userID, Email: "ada@example.com", FirstName: "Ada"}}, suite.signedUp)
	suite.Equal("owner", response.Role)
	suite.Require().NotNil(response.Tenant)
	suite.Equal("adas-team", response.Tenant.Slug)

	suite.Equal("contact_sync", job.Name)
	suite.mailer.EXPECT().UpdateContact(gomock.Any(), email.Contact{
		Email:      "ada@example.com",
		FirstName:  "Ada",
		Source:     "app",
		Subscribed: true,
		UserGroup:  "app",
		UserID:     userID.String(),
	}).Return(nil)
	suite.NoError(job.Send(context.Background()))
}

func (suite *UserServiceTestSuite) TestHandleSignUp_MembershipSetupFails() {
	suite.bus.SubscribeUserSignedUp(func(context.Context, events.UserSignedUp) error {
		return errors.New("tenant create failed")
	})
	suite.repo.EXPECT().Upsert(suite.ctx, gomock.Any()).Return(nil)

	_, err := suite.userService.HandleSignUp(suite.ctx, &service.SignUpRequest{UserID: uuid.New(), Email: "ada@example.com"})

	suite.Error(err)
}

func (suite *UserServiceTestSuite) TestHandleDeletion_Publishes() {
	userID := uuid.New()

	suite.Require().NoError(suite.userService.HandleDeletion(suite.ctx, userID))

	suite.Equal([]events.UserDeleted{{UserID: userID}}, suite.deleted)
}

func (suite *UserServiceTestSuite) TestGetMe_NotFound() {
	userID := uuid.New()
	suite.repo.EXPECT().GetByID(suite.ctx, userID).Return(nil, gorm.ErrRecordNotFound)

	_, err := suite.userService.GetMe(suite.ctx, userID)

	suite.ErrorIs(err, apperrors.ErrUserNotFound)
}

func (suite *UserServiceTestSuite) TestGetMe_WithoutMembership() {
	userID := uuid.New()
	suite.repo.EXPECT().GetByID(suite.ctx, userID).Return(&models.User{BaseModel: models.BaseModel{ID: userID}, Email: "x@example.com"}, nil)

	response, err := suite.userService.GetMe(suite.ctx, userID)

	suite.Require().NoError(err)
	suite.Nil(response.Tenant)
	suite.Nil(response.TenantUser)
	suite.Empty(response.Role)
}

func (suite *UserServiceTestSuite) TestUpdateMe_ChangedNameSyncsContact() {
	userID := uuid.New()
	suite.repo.EXPECT().GetByID(suite.ctx, userID).Return(&models.User{BaseModel: models.BaseModel{ID: userID}, FirstName: "Ada"}, nil)
	suite.repo.EXPECT().Update(suite.ctx, gomock.Any()).DoAndReturn(func(_ context.Context, u *models.User) error {
		suite.Equal("Augusta", u.FirstName)
		suite.Equal("King", u.LastName)
		return nil
	})
	suite.queue.EXPECT().Enqueue(gomock.Any()).Return(nil)

	response, err := suite.userService.UpdateMe(suite.ctx, userID, &service.UpdateUserRequest{
		FirstName: strPtr("Augusta"),
		LastName:  strPtr("King"),
	})

	suite.Require().NoError(err)
	suite.Equal("Augusta", response.FirstName)
}

func (suite *UserServiceTestSuite) TestUpdateMe_UnchangedSkipsWrite() {
	userID := uuid.New()
	suite.repo.EXPECT().GetByID(suite.ctx, userID).Return(&models.User{BaseModel: models.BaseModel{ID: userID}, FirstName: "Ada"}, nil)

	_, err := suite.userService.UpdateMe(suite.ctx, userID, &service.UpdateUserRequest{FirstName: strPtr("Ada")})

	suite.NoError(err)
}

func (suite *UserServiceTestSuite) TestUpdateMe_TooLong() {
	_, err := suite.userService.UpdateMe(suite.ctx, uuid.New(), &service.UpdateUserRequest{
		FirstName: strPtr("abcdefghijklmnopqrstuvwxyzabcdefg"),
	})

	var vErr *apperrors.ValidationError
	suite.Require().ErrorAs(err, &vErr)
	suite.Equal("firstname", vErr.Field)
}

func TestUserServiceTestSuite(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}
