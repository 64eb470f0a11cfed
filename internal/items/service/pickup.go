package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/reloop-app/reloop-backend/internal/items/domain"
	"github.com/reloop-app/reloop-backend/internal/logging"
	"github.com/reloop-app/reloop-backend/internal/validation"
)

// CreatePickupRequest records a pickup for a listing. Only the listing's
// producer may file one.
func (s *ItemService) CreatePickupRequest(ctx context.Context, externalID string, in *domain.PickupRequestInput) (*domain.PickupRequest, error) {
	user, err := s.resolveUser(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	listing, err := s.store.GetListing(ctx, in.ItemID)
	if err != nil {
		return nil, err
	}
	if listing.ProducerID != user.ID {
		return nil, domain.ErrForbidden
	}

	req := &domain.PickupRequest{
		ID:            uuid.New().String(),
		ItemID:        listing.ID,
		UserID:        user.ID,
		PickupAddress: in.PickupAddress,
		Notes:         in.Notes,
	}
	if in.PreferredPickupDate != nil {
		t, err := time.Parse(time.RFC3339, *in.PreferredPickupDate)
		if err != nil {
			return nil, fmt.Errorf("parse preferred pickup date: %w", err)
		}
		req.ScheduledDate = &t
	}

	err = s.store.WithinTx(ctx, func(w domain.ListingWriter) error {
		return w.CreatePickupRequest(ctx, req)
	})
	if err != nil {
		return nil, fmt.Errorf("create pickup request: %w", err)
	}

	logging.FromContext(ctx).Info("pickup request created",
		"pickup_request_id", req.ID,
		"item_id", req.ItemID,
	)
	return req, nil
}
