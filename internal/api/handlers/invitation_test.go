package handlers_test

import (
	"net/http"
	"testing"

	"tenancy-backend/internal/api/handlers"
	"tenancy-backend/internal/database/models"
	apperrors "tenancy-backend/internal/errors"
	"tenancy-backend/internal/mocks"
	"tenancy-backend/internal/service"
	"tenancy-backend/internal/testutils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type InvitationHandlerTestSuite struct {
	suite.Suite
	ctrl        *gomock.Controller
	invitations *mocks.MockInvitationServiceInterface
	memberships *mocks.MockMembershipServiceInterface
	acting      *models.Membership
	http        *testutils.HTTPTestSuite
}

func (suite *InvitationHandlerTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.invitations = mocks.NewMockInvitationServiceInterface(suite.ctrl)
	suite.memberships = mocks.NewMockMembershipServiceInterface(suite.ctrl)

	suite.acting = &models.Membership{
		BaseModel: models.BaseModel{ID: uuid.New()},
		UserID:    uuid.New(),
		TenantID:  uuid.New(),
		Role:      models.MembershipRoleAdmin,
	}
	suite.memberships.EXPECT().GetByUserID(gomock.Any(), suite.acting.UserID).Return(suite.acting, nil).AnyTimes()

	handler := handlers.NewInvitationHandler(suite.invitations)
	suite.http = tenantScopedHTTPTest(suite.acting.UserID, suite.memberships)
	suite.http.Router.GET("/invitations", handler.ListInvitations)
	suite.http.Router.POST("/invitations", handler.CreateInvitation)
	suite.http.Router.POST("/invitations/:id/resend", handler.ResendInvitation)
}

func (suite *InvitationHandlerTestSuite) TearDownTest() {
	suite.ctrl.Finish()
}

func (suite *InvitationHandlerTestSuite) TestListInvitations() {
	suite.invitations.EXPECT().List(gomock.Any(), suite.acting).Return([]service.InvitationResponse{
		{ID: uuid.New(), Email: "bob@example.com"},
	}, nil)

	recorder := suite.http.MakeRequest(http.MethodGet, "/invitations", nil)

	var response []service.InvitationResponse
	testutils.AssertJSONResponse(suite.T(), recorder, http.StatusOK, &response)
	suite.Require().Len(response, 1)
	suite.Equal("bob@example.com", response[0].Email)
}

func (suite *InvitationHandlerTestSuite) TestListInvitations_Forbidden() {
	suite.invitations.EXPECT().List(gomock.Any(), suite.acting).Return(nil, apperrors.ErrOwnerOrAdminRequired)

	recorder := suite.http.MakeRequest(http.MethodGet, "/invitations", nil)

	suite.Equal(http.StatusForbidden, recorder.Code)
}

func (suite *InvitationHandlerTestSuite) TestCreateInvitation() {
	suite.invitations.EXPECT().Create(gomock.Any(), suite.acting, &service.CreateInvitationRequest{Email: "bob@example.com"}).
		Return(&service.InvitationResponse{ID: uuid.New(), Email: "bob@example.com"}, nil)

	recorder := suite.http.MakeRequest(http.MethodPost, "/invitations", map[string]string{"email": "bob@example.com"})

	var response service.InvitationResponse
	testutils.AssertJSONResponse(suite.T(), recorder, http.StatusCreated, &response)
	suite.Equal("bob@example.com", response.Email)
	suite.False(response.IsAccepted)
}

func (suite *InvitationHandlerTestSuite) TestCreateInvitation_AlreadyInvited() {
	suite.invitations.EXPECT().Create(gomock.Any(), suite.acting, gomock.Any()).Return(nil, apperrors.ErrEmailAlreadyInvited)

	recorder := suite.http.MakeRequest(http.MethodPost, "/invitations", map[string]string{"email": "bob@example.com"})

	var response handlers.ErrorResponse
	testutils.AssertJSONResponse(suite.T(), recorder, http.StatusBadRequest, &response)
	suite.Equal("email", response.Field)
}

func (suite *InvitationHandlerTestSuite) TestResendInvitation() {
	id := uuid.New()
	suite.invitations.EXPECT().Resend(gomock.Any(), suite.acting, id).Return(nil)

	recorder := suite.http.MakeRequest(http.MethodPost, "/invitations/"+id.String()+"/resend", nil)

	suite.Equal(http.StatusAccepted, recorder.Code)
}

func (suite *InvitationHandlerTestSuite) TestResendInvitation_Cooldown() {
	id := uuid.New()
	suite.invitations.EXPECT().Resend(gomock.Any(), suite.acting, id).Return(apperrors.ErrResendCooldown)

	recorder := suite.http.MakeRequest(http.MethodPost, "/invitations/"+id.String()+"/resend", nil)

	testutils.AssertErrorResponse(suite.T(), recorder, http.StatusForbidden, "within the last 24 hours")
}

func (suite *InvitationHandlerTestSuite) TestResendInvitation_Accepted() {
	id := uuid.New()
	suite.invitations.EXPECT().Resend(gomock.Any(), suite.acting, id).Return(apperrors.ErrInvitationAccepted)

	recorder := suite.http.MakeRequest(http.MethodPost, "/invitations/"+id.String()+"/resend", nil)

	testutils.AssertErrorResponse(suite.T(), recorder, http.StatusBadRequest, "already been accepted")
}

func (suite *InvitationHandlerTestSuite) TestResendInvitation_NotFound() {
	id := uuid.New()
	suite.invitations.EXPECT().Resend(gomock.Any(), suite.acting, id).Return(apperrors.ErrInvitationNotFound)

	recorder := suite.http.MakeRequest(http.MethodPost, "/invitations/"+id.String()+"/resend", nil)

	suite.Equal(http.StatusNotFound, recorder.Code)
}

func TestInvitationHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(InvitationHandlerTestSuite))
}
