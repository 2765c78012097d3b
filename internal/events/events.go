package events

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// UserSignedUp is published once the identity provider reports a new account
type UserSignedUp struct {
	UserID    uuid.UUID
	Email     string
	FirstName string
	LastName  string
}

// UserDeleted is published when the identity provider removes an account
type UserDeleted struct {
	UserID uuid.UUID
}

// MembershipDeleted is published after a membership row is gone
type MembershipDeleted struct {
	MembershipID uuid.UUID
	TenantID     uuid.UUID
}

// Publisher is the side of the bus services depend on
type Publisher interface {
	PublishUserSignedUp(ctx context.Context, event UserSignedUp) error
	PublishUserDeleted(ctx context.Context, event UserDeleted) error
	PublishMembershipDeleted(ctx context.Context, event MembershipDeleted) error
}

// Bus delivers events to subscribers synchronously, in subscription order.
// Every subscriber runs even if an earlier one fails; the failures are joined.
type Bus struct {
	mu                sync.RWMutex
	userSignedUp      []func(context.Context, UserSignedUp) error
	userDeleted       []func(context.Context, UserDeleted) error
	membershipDeleted []func(context.Context, MembershipDeleted) error
}

// NewBus creates an empty event bus
func NewBus() *Bus {
	return &Bus{}
}

// SubscribeUserSignedUp registers a handler for UserSignedUp
func (b *Bus) SubscribeUserSignedUp(handler func(context.Context, UserSignedUp) error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.userSignedUp = append(b.userSignedUp, handler)
}

// SubscribeUserDeleted registers a handler for UserDeleted
func (b *Bus) SubscribeUserDeleted(handler func(context.Context, UserDeleted) error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.userDeleted = append(b.userDeleted, handler)
}

// SubscribeMembershipDeleted registers a handler for MembershipDeleted
func (b *Bus) SubscribeMembershipDeleted(handler func(context.Context, MembershipDeleted) error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.membershipDeleted = append(b.membershipDeleted, handler)
}

// PublishUserSignedUp delivers event to every UserSignedUp subscriber
func (b *Bus) PublishUserSignedUp(ctx context.Context, event UserSignedUp) error {
	b.mu.RLock()
	handlers := append([]func(context.Context, UserSignedUp) error(nil), b.userSignedUp...)
	b.mu.RUnlock()
	return deliver(ctx, handlers, event)
}

// PublishUserDeleted delivers event to every UserDeleted subscriber
func (b *Bus) PublishUserDeleted(ctx context.Context, event UserDeleted) error {
	b.mu.RLock()
	handlers := append([]func(context.Context, UserDeleted) error(nil), b.userDeleted...)
	b.mu.RUnlock()
	return deliver(ctx, handlers, event)
}

// PublishMembershipDeleted delivers event to every MembershipDeleted subscriber
func (b *Bus) PublishMembershipDeleted(ctx context.Context, event MembershipDeleted) error {
	b.mu.RLock()
	handlers := append([]func(context.Context, MembershipDeleted) error(nil), b.membershipDeleted...)
	b.mu.RUnlock()
	return deliver(ctx, handlers, event)
}

func deliver[E any](ctx context.Context, handlers []func(context.Context, E) error, event E) error {
	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
