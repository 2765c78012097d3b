package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	apperrors "tenancy-backend/internal/errors"
	"tenancy-backend/internal/events"
	"tenancy-backend/internal/logger"
	"tenancy-backend/internal/repository"

	"gorm.io/gorm"
)

// LifecycleReactor keeps tenants and memberships consistent with user lifecycle events
type LifecycleReactor struct {
	tenants     TenantServiceInterface
	memberships MembershipServiceInterface
	invitations InvitationServiceInterface
	users       repository.UserRepositoryInterface
}

// NewLifecycleReactor creates a new lifecycle reactor
func NewLifecycleReactor(
	tenants TenantServiceInterface,
	memberships MembershipServiceInterface,
	invitations InvitationServiceInterface,
	users repository.UserRepositoryInterface,
) *LifecycleReactor {
	return &LifecycleReactor{
		tenants:     tenants,
		memberships: memberships,
		invitations: invitations,
		users:       users,
	}
}

// Register subscribes the reactor to bus
func (r *LifecycleReactor) Register(bus *events.Bus) {
	bus.SubscribeUserSignedUp(r.OnUserSignedUp)
	bus.SubscribeUserDeleted(r.OnUserDeleted)
	bus.SubscribeMembershipDeleted(r.OnMembershipDeleted)
}

// OnUserSignedUp gives a new user exactly one membership. A pending invitation joins the
// inviting tenant as a user; otherwise a fresh tenant is created with the user as owner.
// Redelivered events for users that already have a membership are ignored.
func (r *LifecycleReactor) OnUserSignedUp(ctx context.Context, event events.UserSignedUp) error {
	log := logger.WithContext(ctx).WithFields(map[string]interface{}{
		"user_id": event.UserID,
		"email":   event.Email,
	})

	existing, err := r.memberships.GetByUserID(ctx, event.UserID)
	if err == nil {
		log.WithField("tenant_id", existing.TenantID).Info("User already belongs to a tenant, skipping sign-up handling")
		return nil
	}
	if !errors.Is(err, apperrors.ErrMembershipNotFound) {
		return err
	}

	invitation, err := r.invitations.Accept(ctx, event.Email)
	switch {
	case err == nil:
		membership, err := r.memberships.AcceptInvitation(ctx, event.UserID, invitation)
		if err != nil {
			return fmt.Errorf("failed to accept invitation %s: %w", invitation.ID, err)
		}
		log.WithField("tenant_id", membership.TenantID).Info("User joined tenant from invitation")
		return nil
	case !errors.Is(err, apperrors.ErrNoPendingInvitation):
		return err
	}

	tenant, err := r.tenants.CreateWithOwner(ctx, TenantNameFor(event.FirstName, event.Email), event.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrMembershipExists) {
			log.Info("User joined a tenant concurrently, no tenant created")
			return nil
		}
		return err
	}
	log.WithField("tenant_id", tenant.ID).Info("Tenant created for new user")
	return nil
}

// OnUserDeleted removes the user's membership, handing ownership on when needed,
// and deletes the tenant if nobody is left in it.
func (r *LifecycleReactor) OnUserDeleted(ctx context.Context, event events.UserDeleted) error {
	tenantID, err := r.users.Delete(ctx, event.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WithContext(ctx).WithField("user_id", event.UserID).Info("Deleted user was not known locally")
			return nil
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tenantID == nil {
		return nil
	}

	_, err = r.tenants.DeleteIfEmpty(ctx, *tenantID)
	return err
}

// OnMembershipDeleted deletes the tenant once its last membership is gone
func (r *LifecycleReactor) OnMembershipDeleted(ctx context.Context, event events.MembershipDeleted) error {
	_, err := r.tenants.DeleteIfEmpty(ctx, event.TenantID)
	return err
}

// TenantNameFor names the tenant created for a user signing up without an invitation
func TenantNameFor(firstName, email string) string {
	owner := strings.TrimSpace(firstName)
	if owner == "" {
		owner, _, _ = strings.Cut(email, "@")
		if r, size := utf8.DecodeRuneInString(owner); r != utf8.RuneError {
			owner = string(unicode.ToUpper(r)) + owner[size:]
		}
	}
	return owner + "'s team"
}
