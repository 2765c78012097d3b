package events

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishUserSignedUp(t *testing.T) {
	bus := NewBus()
	var order []string

	bus.SubscribeUserSignedUp(func(ctx context.Context, e UserSignedUp) error {
		order = append(order, "first:"+e.Email)
		return nil
	})
	bus.SubscribeUserSignedUp(func(ctx context.Context, e UserSignedUp) error {
		order = append(order, "second:"+e.Email)
		return nil
	})

	err := bus.PublishUserSignedUp(context.Background(), UserSignedUp{UserID: uuid.New(), Email: "ada@example.com"})
	require.NoError(t, err)
	assert.Equal(t, []string{"first:ada@example.com", "second:ada@example.com"}, order)
}

func TestBus_FailuresAreJoined(t *testing.T) {
	bus := NewBus()
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	calls := 0

	bus.SubscribeMembershipDeleted(func(context.Context, MembershipDeleted) error { calls++; return errA })
	bus.SubscribeMembershipDeleted(func(context.Context, MembershipDeleted) error { calls++; return nil })
	bus.SubscribeMembershipDeleted(func(context.Context, MembershipDeleted) error { calls++; return errB })

	err := bus.PublishMembershipDeleted(context.Background(), MembershipDeleted{TenantID: uuid.New()})
	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
}

func TestBus_NoSubscribers(t *testing.T) {
	bus := NewBus()
	assert.NoError(t, bus.PublishUserDeleted(context.Background(), UserDeleted{UserID: uuid.New()}))
}

func TestBus_ImplementsPublisher(t *testing.T) {
	var _ Publisher = NewBus()
}
