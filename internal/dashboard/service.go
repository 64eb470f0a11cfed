// Package dashboard serves the read-only producer views: totals, own
// listings, incoming pickup requests and profile.
package dashboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/reloop-app/reloop-backend/internal/items/domain"
	"github.com/reloop-app/reloop-backend/internal/users"
	"github.com/reloop-app/reloop-backend/internal/validation"
)

type PickupRequestView struct {
	domain.PickupRequest
	ItemTitle string `json:"itemTitle"`
}

type Overview struct {
	ItemsListed    int                   `json:"itemsListed"`
	ByStatus       map[domain.Status]int `json:"byStatus"`
	PickupRequests int                   `json:"pickupRequests"`
}

type ListingsPage struct {
	Items []domain.ItemListing `json:"items"`
	Total int                  `json:"total"`
}

// Page is the paging query accepted by the list endpoints.
type Page struct {
	Limit  int `form:"limit" json:"limit" validate:"omitempty,min=1"`
	Offset int `form:"offset" json:"offset" validate:"min=0"`
}

// Validate reports every paging violation as a *validation.Error.
func (p Page) Validate() error {
	verr, err := validation.Collect(p)
	if err != nil {
		return err
	}
	if verr == nil {
		verr = &validation.Error{}
	}
	domain.CheckPageLimit(verr, p.Limit)
	return verr.Err()
}

func (p Page) limit() int {
	if p.Limit == 0 {
		return domain.DefaultSearchLimit
	}
	return p.Limit
}

type UserLookup interface {
	GetByExternalID(ctx context.Context, externalID string) (*users.User, error)
}

type Stats interface {
	CountByStatus(ctx context.Context, producerID string) (map[domain.Status]int, error)
	CountPickupRequests(ctx context.Context, producerID string) (int, error)
	ListPickupRequests(ctx context.Context, producerID string, limit, offset int) ([]PickupRequestView, error)
}

type Service struct {
	users    UserLookup
	listings domain.ListingReader
	stats    Stats
}

func NewService(users UserLookup, listings domain.ListingReader, stats Stats) *Service {
	return &Service{users: users, listings: listings, stats: stats}
}

func (s *Service) Profile(ctx context.Context, externalID string) (*users.User, error) {
	u, err := s.users.GetByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	return u, nil
}

func (s *Service) Overview(ctx context.Context, externalID string) (*Overview, error) {
	u, err := s.Profile(ctx, externalID)
	if err != nil {
		return nil, err
	}

	byStatus, err := s.stats.CountByStatus(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	pickups, err := s.stats.CountPickupRequests(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, n := range byStatus {
		total += n
	}
	return &Overview{ItemsListed: total, ByStatus: byStatus, PickupRequests: pickups}, nil
}

// ItemsListed pages through every listing the caller produced, claimed or not.
func (s *Service) ItemsListed(ctx context.Context, externalID string, p Page) (*ListingsPage, error) {
	u, err := s.Profile(ctx, externalID)
	if err != nil {
		return nil, err
	}

	q := domain.SearchQuery{ProducerID: u.ID, IncludeClaimed: true, Limit: p.limit(), Offset: p.Offset}
	items, err := s.listings.FindListings(ctx, q)
	if err != nil {
		return nil, err
	}
	total, err := s.listings.CountListings(ctx, q)
	if err != nil {
		return nil, err
	}
	return &ListingsPage{Items: items, Total: total}, nil
}

func (s *Service) PickupRequests(ctx context.Context, externalID string, p Page) ([]PickupRequestView, error) {
	u, err := s.Profile(ctx, externalID)
	if err != nil {
		return nil, err
	}
	return s.stats.ListPickupRequests(ctx, u.ID, p.limit(), p.Offset)
}
