package testutils

import (
	"testing"

	"tenancy-backend/internal/database/models"

	"github.com/stretchr/testify/assert"
)

func TestCreateTenantWithOwner(t *testing.T) {
	tenant, owner, membership := NewFactorySet().CreateTenantWithOwner()

	assert.Equal(t, tenant.ID, membership.TenantID)
	assert.Equal(t, owner.ID, membership.UserID)
	assert.Equal(t, models.MembershipRoleOwner, membership.Role)
	assert.NotEqual(t, NewTenantFactory().Create().Slug, tenant.Slug)
}

func TestInvitationFactorySentAt(t *testing.T) {
	tenant := NewTenantFactory().Create()
	sent := NewInvitationFactory().SentAt(tenant.ID, "bob@example.com", tenant.CreatedAt)

	assert.False(t, sent.IsAccepted())
	assert.Equal(t, tenant.CreatedAt, *sent.LastSentAt)
}
