package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/reloop-app/reloop-backend/internal/items/domain"
	"github.com/reloop-app/reloop-backend/internal/logging"
	"github.com/reloop-app/reloop-backend/internal/users"
	"github.com/reloop-app/reloop-backend/internal/validation"
)

// UserLookup resolves the identity-provider id carried by a bearer token.
type UserLookup interface {
	GetByExternalID(ctx context.Context, externalID string) (*users.User, error)
}

// ItemService handles listing, search, update, delete and pickup requests.
type ItemService struct {
	users UserLookup
	store domain.Store
	now   func() time.Time
}

func NewItemService(users UserLookup, store domain.Store) *ItemService {
	return &ItemService{
		users: users,
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *ItemService) resolveUser(ctx context.Context, externalID string) (*users.User, error) {
	u, err := s.users.GetByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return nil, users.ErrUserNotFound
		}
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	return u, nil
}

// ListItem creates a listing and, when given, its category details in one
// transaction. It returns the new listing id.
func (s *ItemService) ListItem(ctx context.Context, externalID string, req *domain.ListItemRequest) (string, error) {
	user, err := s.resolveUser(ctx, externalID)
	if err != nil {
		return "", err
	}

	details, err := validateListItem(req)
	if err != nil {
		return "", err
	}

	now := s.now()
	listing := &domain.ItemListing{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Address:     req.Address,
		Status:      domain.StatusAvailable,
		ProducerID:  user.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.store.WithinTx(ctx, func(w domain.ListingWriter) error {
		if err := w.CreateListing(ctx, listing); err != nil {
			return err
		}
		if details != nil {
			return w.CreateDetails(ctx, listing.ID, details)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("list item: %w", err)
	}

	logging.FromContext(ctx).Info("item listed",
		"item_id", listing.ID,
		"category", listing.Category,
		"producer_id", user.ID,
		"with_details", details != nil,
	)
	return listing.ID, nil
}

func validateListItem(req *domain.ListItemRequest) (domain.CategoryDetails, error) {
	verr, err := validation.Collect(req)
	if err != nil {
		return nil, err
	}
	if verr == nil {
		verr = &validation.Error{}
	}

	if req.Category != "" && !req.Category.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedCategory, req.Category)
	}

	var details domain.CategoryDetails
	if req.Category != "" && domain.HasPayload(req.SpecificDetails) {
		details, err = decodeInto(verr, "specificDetails", req.Category, req.SpecificDetails)
		if err != nil {
			return nil, err
		}
	}

	if err := verr.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

// decodeInto decodes a variant, folding its field errors into verr under prefix.
func decodeInto(verr *validation.Error, prefix string, c domain.Category, raw []byte) (domain.CategoryDetails, error) {
	d, err := domain.DecodeDetails(c, raw)
	if err == nil {
		return d, nil
	}
	if derr, ok := validation.As(err); ok {
		verr.Merge(prefix, derr)
		return nil, nil
	}
	return nil, err
}

// GetItem returns a listing with its producer and category details.
func (s *ItemService) GetItem(ctx context.Context, itemID string) (*domain.ItemListing, error) {
	if err := checkItemID(itemID); err != nil {
		return nil, err
	}
	return s.store.GetListing(ctx, itemID)
}

func checkItemID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrInvalidItemID
	}
	return nil
}

// UpdateItem applies a partial update. A category change removes the old
// variant row and any supplied details are upserted into the new one, all in
// one transaction.
func (s *ItemService) UpdateItem(ctx context.Context, externalID, itemID string, req *domain.UpdateItemRequest) (*domain.ItemListing, error) {
	user, err := s.resolveUser(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if err := checkItemID(itemID); err != nil {
		return nil, err
	}

	details, err := validateUpdate(req)
	if err != nil {
		return nil, err
	}

	listing, err := s.store.GetListing(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if listing.ProducerID != user.ID {
		return nil, domain.ErrForbidden
	}

	previous := listing.Category
	applyUpdate(listing, req)
	listing.UpdatedAt = s.now()
	categoryChanged := listing.Category != previous

	err = s.store.WithinTx(ctx, func(w domain.ListingWriter) error {
		if err := w.UpdateListing(ctx, listing); err != nil {
			return err
		}
		if categoryChanged {
			if err := w.DeleteDetails(ctx, listing.ID, previous); err != nil {
				return err
			}
		}
		if details != nil {
			return w.UpsertDetails(ctx, listing.ID, details)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}

	switch {
	case details != nil:
		listing.Details = details
	case categoryChanged:
		listing.Details = nil
	}

	logging.FromContext(ctx).Info("item updated",
		"item_id", listing.ID,
		"category_changed", categoryChanged,
		"details_updated", details != nil,
	)
	return listing, nil
}

func validateUpdate(req *domain.UpdateItemRequest) (domain.CategoryDetails, error) {
	verr, err := validation.Collect(req)
	if err != nil {
		return nil, err
	}
	if verr == nil {
		verr = &validation.Error{}
	}

	if req.Category != nil && !req.Category.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedCategory, *req.Category)
	}

	var details domain.CategoryDetails
	if domain.HasPayload(req.CategoryDetails) {
		if req.Category == nil {
			verr.Add("category", "category is required when categoryDetails is provided")
		} else {
			details, err = decodeInto(verr, "categoryDetails", *req.Category, req.CategoryDetails)
			if err != nil {
				return nil, err
			}
		}
	}

	if err := verr.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

func applyUpdate(l *domain.ItemListing, req *domain.UpdateItemRequest) {
	if req.Title != nil {
		l.Title = *req.Title
	}
	if req.Description != nil {
		l.Description = *req.Description
	}
	if req.Category != nil {
		l.Category = *req.Category
	}
	if req.Latitude != nil && req.Longitude != nil {
		l.Latitude, l.Longitude = req.Latitude, req.Longitude
	}
	if req.Address != nil {
		l.Address = req.Address
	}
	if req.Status != nil {
		l.Status = *req.Status
	}
}

// DeleteItem removes the listing, its pickup requests and its variant row.
func (s *ItemService) DeleteItem(ctx context.Context, externalID, itemID string) error {
	user, err := s.resolveUser(ctx, externalID)
	if err != nil {
		return err
	}
	if err := checkItemID(itemID); err != nil {
		return err
	}

	listing, err := s.store.GetListing(ctx, itemID)
	if err != nil {
		return err
	}
	if listing.ProducerID != user.ID {
		return domain.ErrForbidden
	}

	err = s.store.WithinTx(ctx, func(w domain.ListingWriter) error {
		if err := w.DeletePickupRequests(ctx, itemID); err != nil {
			return err
		}
		if err := w.DeleteDetails(ctx, itemID, listing.Category); err != nil {
			return err
		}
		return w.DeleteListing(ctx, itemID)
	})
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	logging.FromContext(ctx).Info("item deleted", "item_id", itemID, "producer_id", user.ID)
	return nil
}
