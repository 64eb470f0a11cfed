package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/reloop-app/reloop-backend/internal/logging"
	"github.com/reloop-app/reloop-backend/internal/validation"
)

var ErrInvalidUserID = errors.New("invalid user id")

type Store interface {
	GetByExternalID(ctx context.Context, externalID string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	UpsertDetails(ctx context.Context, d *Details) error
	GetDetails(ctx context.Context, userID string) (*Details, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// AddDetails records the caller's role and account type. Calling it again
// replaces the previous details.
func (s *Service) AddDetails(ctx context.Context, externalID string, req *AddDetailsRequest) (*Details, error) {
	u, err := s.store.GetByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("resolve user: %w", err)
	}

	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	d := &Details{
		UserID:       u.ID,
		Role:         req.Role,
		UserType:     req.UserType,
		DocumentURLs: req.DocumentURLs,
	}
	// Individuals carry no organization data even if the client sent some.
	if req.UserType == UserTypeOrganization {
		d.OrganizationType = req.OrganizationType
		d.DocumentType = req.DocumentType
	} else {
		d.DocumentURLs = nil
	}

	if err := s.store.UpsertDetails(ctx, d); err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("user details saved",
		"user_id", u.ID,
		"role", d.Role,
		"user_type", d.UserType,
	)
	return d, nil
}

// PublicProfile returns the publicly visible part of a user. Users who never
// added details get a profile without role or account type.
func (s *Service) PublicProfile(ctx context.Context, userID string) (*PublicProfile, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, ErrInvalidUserID
	}

	u, err := s.store.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	d, err := s.store.GetDetails(ctx, u.ID)
	if errors.Is(err, ErrDetailsNotFound) {
		d = nil
	} else if err != nil {
		return nil, err
	}
	return NewPublicProfile(u, d), nil
}
