package domain

import "context"

type ListingReader interface {
	GetListing(ctx context.Context, id string) (*ItemListing, error)
	FindListings(ctx context.Context, q SearchQuery) ([]ItemListing, error)
	CountListings(ctx context.Context, q SearchQuery) (int, error)
}

// ListingWriter is only handed out inside a transaction.
type ListingWriter interface {
	CreateListing(ctx context.Context, l *ItemListing) error
	UpdateListing(ctx context.Context, l *ItemListing) error
	DeleteListing(ctx context.Context, id string) error
	CreateDetails(ctx context.Context, itemID string, d CategoryDetails) error
	UpsertDetails(ctx context.Context, itemID string, d CategoryDetails) error
	DeleteDetails(ctx context.Context, itemID string, c Category) error
	DeletePickupRequests(ctx context.Context, itemID string) error
	CreatePickupRequest(ctx context.Context, p *PickupRequest) error
}

type Store interface {
	ListingReader
	WithinTx(ctx context.Context, fn func(w ListingWriter) error) error
}
