package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/reloop-app/reloop-backend/internal/items/domain"
	"github.com/reloop-app/reloop-backend/internal/validation"
)

// SearchItems returns one page of unclaimed listings matching f and the
// total number of matches.
func (s *ItemService) SearchItems(ctx context.Context, f *domain.SearchFilter) (*domain.SearchResult, error) {
	q, err := BuildSearchQuery(f)
	if err != nil {
		return nil, err
	}

	items, err := s.store.FindListings(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search items: %w", err)
	}
	total, err := s.store.CountListings(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("count items: %w", err)
	}

	if items == nil {
		items = []domain.ItemListing{}
	}
	return &domain.SearchResult{PaginatedItems: items, Total: total}, nil
}

// BuildSearchQuery validates f and normalizes it for the store.
func BuildSearchQuery(f *domain.SearchFilter) (domain.SearchQuery, error) {
	q := domain.SearchQuery{Limit: domain.DefaultSearchLimit}
	if f == nil {
		return q, nil
	}

	verr, err := validation.Collect(f)
	if err != nil {
		return q, err
	}
	if verr == nil {
		verr = &validation.Error{}
	}

	if f.Category != nil {
		if !f.Category.Valid() {
			return q, fmt.Errorf("%w: %q", domain.ErrUnsupportedCategory, *f.Category)
		}
		q.Category = *f.Category
	}

	if f.Title != nil {
		q.Title = strings.TrimSpace(*f.Title)
	}
	if f.ProducerID != nil {
		q.ProducerID = *f.ProducerID
	}
	if f.CreatedAt != nil {
		q.CreatedFrom, q.CreatedTo = f.CreatedAt.From, f.CreatedAt.To
		if q.CreatedFrom != nil && q.CreatedTo != nil && q.CreatedFrom.After(*q.CreatedTo) {
			verr.Add("createdAt", "createdAt.from must not be after createdAt.to")
		}
	}

	if f.Latitude != nil && f.Longitude != nil && f.MaxDistance != nil {
		box := domain.BoundingBoxAround(*f.Latitude, *f.Longitude, *f.MaxDistance)
		q.Box = &box
	}

	if len(f.SpecificDetails) > 0 {
		checkDetailFilters(verr, q.Category, f.SpecificDetails)
		q.Details = f.SpecificDetails
	}

	if f.Limit != nil {
		domain.CheckPageLimit(verr, *f.Limit)
		q.Limit = *f.Limit
	}
	if f.Offset != nil {
		q.Offset = *f.Offset
	}

	if err := verr.Err(); err != nil {
		return q, err
	}
	return q, nil
}

func checkDetailFilters(verr *validation.Error, c domain.Category, filters map[string]any) {
	if c == "" {
		verr.Add("specificDetails", "category is required when filtering on specificDetails")
		return
	}

	allowed := make(map[string]bool)
	for _, f := range domain.FilterableDetails[c] {
		allowed[f] = true
	}

	for k, v := range filters {
		path := "specificDetails." + k
		if !allowed[k] {
			verr.Add(path, k+" is not a filterable field for "+string(c))
			continue
		}
		switch v.(type) {
		case string, bool, float64:
		default:
			verr.Add(path, k+" must be a string, number or boolean")
		}
	}
}
