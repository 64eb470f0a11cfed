package http

import (
	"context"

	"github.com/reloop-app/reloop-backend/internal/items/domain"
)

// ItemService is the behaviour the handlers need from the service layer.
type ItemService interface {
	ListItem(ctx context.Context, externalID string, req *domain.ListItemRequest) (string, error)
	SearchItems(ctx context.Context, f *domain.SearchFilter) (*domain.SearchResult, error)
	GetItem(ctx context.Context, itemID string) (*domain.ItemListing, error)
	UpdateItem(ctx context.Context, externalID, itemID string, req *domain.UpdateItemRequest) (*domain.ItemListing, error)
	DeleteItem(ctx context.Context, externalID, itemID string) error
	CreatePickupRequest(ctx context.Context, externalID string, in *domain.PickupRequestInput) (*domain.PickupRequest, error)
}

type Handler struct {
	items ItemService
}

func New(items ItemService) *Handler {
	return &Handler{items: items}
}
