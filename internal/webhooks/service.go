// Package webhooks keeps the local user table in step with the identity
// provider by handling its signed user lifecycle events.
package webhooks

import (
	"context"
	"errors"
	"fmt"

	"github.com/reloop-app/reloop-backend/internal/logging"
	"github.com/reloop-app/reloop-backend/internal/users"
)

type UserStore interface {
	Create(ctx context.Context, u *users.User) error
	Upsert(ctx context.Context, u *users.User) error
	DeleteByExternalID(ctx context.Context, externalID string) error
}

type Service struct {
	users UserStore
}

func NewService(store UserStore) *Service {
	return &Service{users: store}
}

// UserCreated inserts the user. A redelivery for an existing user refreshes it.
func (s *Service) UserCreated(ctx context.Context, evt *Event) (*users.User, error) {
	if evt.Type != EventUserCreated {
		return nil, fmt.Errorf("%w: %q", ErrUnexpectedEvent, evt.Type)
	}
	u, err := evt.Data.ToUser()
	if err != nil {
		return nil, err
	}

	err = s.users.Create(ctx, u)
	if errors.Is(err, users.ErrUserExists) {
		logging.FromContext(ctx).Info("user already exists, refreshing", "external_id", u.ExternalID)
		err = s.users.Upsert(ctx, u)
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	logging.FromContext(ctx).Info("user created", "user_id", u.ID, "external_id", u.ExternalID)
	return u, nil
}

// UserUpdated upserts the user by external id.
func (s *Service) UserUpdated(ctx context.Context, evt *Event) (*users.User, error) {
	if evt.Type != EventUserUpdated {
		return nil, fmt.Errorf("%w: %q", ErrUnexpectedEvent, evt.Type)
	}
	u, err := evt.Data.ToUser()
	if err != nil {
		return nil, err
	}

	if err := s.users.Upsert(ctx, u); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	logging.FromContext(ctx).Info("user updated", "user_id", u.ID, "external_id", u.ExternalID)
	return u, nil
}

// UserDeleted purges the user and everything they own. Deleting an unknown
// user is not an error.
func (s *Service) UserDeleted(ctx context.Context, evt *Event) error {
	if evt.Type != EventUserDeleted {
		return fmt.Errorf("%w: %q", ErrUnexpectedEvent, evt.Type)
	}
	if evt.Data.ID == "" {
		return ErrMissingUserID
	}

	err := s.users.DeleteByExternalID(ctx, evt.Data.ID)
	if errors.Is(err, users.ErrUserNotFound) {
		logging.FromContext(ctx).Info("user already absent", "external_id", evt.Data.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	logging.FromContext(ctx).Info("user deleted", "external_id", evt.Data.ID)
	return nil
}
