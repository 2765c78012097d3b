package handlers_test

import (
	"tenancy-backend/internal/api/middleware"
	"tenancy-backend/internal/service"
	"tenancy-backend/internal/testutils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// authenticatedHTTPTest returns a router that treats every request as coming from userID
func authenticatedHTTPTest(userID uuid.UUID) *testutils.HTTPTestSuite {
	httpSuite := testutils.SetupHTTPTest()
	httpSuite.Router.Use(func(c *gin.Context) {
		c.Set("user_id", userID.String())
		c.Next()
	})
	return httpSuite
}

// tenantScopedHTTPTest additionally resolves the caller's membership through memberships
func tenantScopedHTTPTest(userID uuid.UUID, memberships service.MembershipServiceInterface) *testutils.HTTPTestSuite {
	httpSuite := authenticatedHTTPTest(userID)
	httpSuite.Router.Use(middleware.RequireMembership(memberships))
	return httpSuite
}
