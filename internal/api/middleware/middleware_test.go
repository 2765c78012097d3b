package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tenancy-backend/internal/api/middleware"
	"tenancy-backend/internal/config"
	"tenancy-backend/internal/database/models"
	apperrors "tenancy-backend/internal/errors"
	"tenancy-backend/internal/mocks"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestRequestID_GeneratesWhenMissing(t *testing.T) {
	router := newRouter()
	router.Use(middleware.RequestID())
	var seen string
	router.GET("/", func(c *gin.Context) {
		seen = c.GetString("request_id")
		c.Status(http.StatusOK)
	})

	recorder := serve(router, httptest.NewRequest(http.MethodGet, "/", nil))

	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, recorder.Header().Get(middleware.RequestIDHeader))
}

func TestRequestID_KeepsIncoming(t *testing.T) {
	router := newRouter()
	router.Use(middleware.RequestID())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-123")
	recorder := serve(router, req)

	assert.Equal(t, "req-123", recorder.Header().Get(middleware.RequestIDHeader))
}

func TestRecovery(t *testing.T) {
	router := newRouter()
	router.Use(middleware.Logger(), middleware.Recovery())
	router.GET("/", func(*gin.Context) { panic("boom") })

	recorder := serve(router, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, recorder.Body.String())
}

func TestCORS(t *testing.T) {
	router := newRouter()
	router.Use(middleware.CORS(&config.Config{AllowedOrigins: []string{"https://app.example/"}}))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://app.example")
		recorder := serve(router, req)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "https://app.example", recorder.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("unknown origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example")
		recorder := serve(router, req)

		assert.Empty(t, recorder.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/", nil)
		req.Header.Set("Origin", "https://app.example")
		recorder := serve(router, req)

		assert.Equal(t, http.StatusNoContent, recorder.Code)
	})
}

func TestRequireMembership(t *testing.T) {
	ctrl := gomock.NewController(t)
	memberships := mocks.NewMockMembershipServiceInterface(ctrl)
	userID := uuid.New()

	router := newRouter()
	router.Use(func(c *gin.Context) {
		if c.GetHeader("X-Test-User") != "" {
			c.Set("user_id", c.GetHeader("X-Test-User"))
		}
		c.Next()
	})
	router.Use(middleware.RequireMembership(memberships))
	router.GET("/", func(c *gin.Context) {
		membership, ok := middleware.GetMembership(c)
		require.True(t, ok)
		c.String(http.StatusOK, string(membership.Role))
	})

	request := func(user string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Test-User", user)
		return serve(router, req)
	}

	t.Run("unauthenticated", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, request("").Code)
	})

	t.Run("member", func(t *testing.T) {
		memberships.EXPECT().GetByUserID(gomock.Any(), userID).Return(&models.Membership{Role: models.MembershipRoleAdmin}, nil)

		recorder := request(userID.String())

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "admin", recorder.Body.String())
	})

	t.Run("without tenant", func(t *testing.T) {
		memberships.EXPECT().GetByUserID(gomock.Any(), userID).Return(nil, apperrors.ErrMembershipNotFound)

		recorder := request(userID.String())

		assert.Equal(t, http.StatusForbidden, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "does not belong to any tenant")
	})

	t.Run("lookup failure", func(t *testing.T) {
		memberships.EXPECT().GetByUserID(gomock.Any(), userID).Return(nil, errors.New("db down"))

		assert.Equal(t, http.StatusInternalServerError, request(userID.String()).Code)
	})
}
