package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reloop-app/reloop-backend/internal/items/domain"
	"github.com/reloop-app/reloop-backend/internal/users"
	"github.com/reloop-app/reloop-backend/internal/validation"
)

const (
	annExternal = "ext-ann"
	annID       = "11111111-1111-4111-8111-111111111111"
	bobExternal = "ext-bob"
	bobID       = "22222222-2222-4222-8222-222222222222"
)

func ptr[T any](v T) *T { return &v }

func newTestService() (*ItemService, *fakeStore) {
	store := newFakeStore()
	us := fakeUsers{
		annExternal: {ID: annID, ExternalID: annExternal, Name: "Ann"},
		bobExternal: {ID: bobID, ExternalID: bobExternal, Name: "Bob"},
	}
	svc := NewItemService(us, store)
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return svc, store
}

func ewasteRequest() *domain.ListItemRequest {
	return &domain.ListItemRequest{
		Title:       "Old laptop",
		Description: "Still boots, small dent on the lid",
		Category:    domain.CategoryEWaste,
		Latitude:    ptr(6.9271),
		Longitude:   ptr(79.8612),
		SpecificDetails: json.RawMessage(`{
			"brand":"Dell","model":"XPS 13","condition":"used","warranty":false,
			"quantity":1,"images":["https://img.example/a.png"],"donated":true
		}`),
	}
}

func fieldPaths(t *testing.T, err error) []string {
	t.Helper()
	verr, ok := validation.As(err)
	require.True(t, ok, "expected validation error, got %v", err)
	out := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		out = append(out, f.Path)
	}
	return out
}

func TestListItem_CreatesListingAndDetails(t *testing.T) {
	svc, store := newTestService()

	id, err := svc.ListItem(context.Background(), annExternal, ewasteRequest())
	require.NoError(t, err)

	l, err := store.GetListing(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, annID, l.ProducerID)
	assert.Equal(t, domain.StatusAvailable, l.Status)
	assert.Nil(t, l.ReceiverID)

	ew, ok := l.Details.(*domain.EWasteDetails)
	require.True(t, ok)
	assert.Equal(t, "Dell", ew.Brand)
	assert.Equal(t, 1, store.variantCount(id))
}

func TestListItem_WithoutDetails(t *testing.T) {
	svc, store := newTestService()
	req := ewasteRequest()
	req.SpecificDetails = json.RawMessage(`null`)

	id, err := svc.ListItem(context.Background(), annExternal, req)
	require.NoError(t, err)
	assert.Equal(t, 0, store.variantCount(id))
}

func TestListItem_UnknownUser(t *testing.T) {
	svc, store := newTestService()

	_, err := svc.ListItem(context.Background(), "ext-nobody", ewasteRequest())
	assert.ErrorIs(t, err, users.ErrUserNotFound)
	assert.Empty(t, store.state.listings)
}

func TestListItem_UnsupportedCategory(t *testing.T) {
	svc, store := newTestService()
	req := ewasteRequest()
	req.Category = "SPACESHIP"

	_, err := svc.ListItem(context.Background(), annExternal, req)
	assert.ErrorIs(t, err, domain.ErrUnsupportedCategory)
	assert.Empty(t, store.state.listings)
	assert.Empty(t, store.state.details)
	assert.Zero(t, store.txs)
}

func TestListItem_CollectsAllViolations(t *testing.T) {
	svc, store := newTestService()
	req := ewasteRequest()
	req.Title = "ab"
	req.Longitude = nil
	req.SpecificDetails = json.RawMessage(`{"brand":"D","model":"XPS","condition":"used","quantity":0,"images":["nope"],"donated":true,"amount":10}`)

	_, err := svc.ListItem(context.Background(), annExternal, req)
	assert.ElementsMatch(t, []string{
		"title",
		"longitude",
		"specificDetails.brand",
		"specificDetails.quantity",
		"specificDetails.images[0]",
		"specificDetails.amount",
	}, fieldPaths(t, err))
	assert.Empty(t, store.state.listings)
}

func TestListItem_DetailFailureLeavesNoListing(t *testing.T) {
	svc, store := newTestService()
	store.failOn["CreateDetails"] = errors.New("connection reset")

	_, err := svc.ListItem(context.Background(), annExternal, ewasteRequest())
	assert.ErrorContains(t, err, "connection reset")
	assert.Empty(t, store.state.listings)
	assert.Empty(t, store.state.details[domain.CategoryEWaste])
}

func TestGetItem(t *testing.T) {
	svc, _ := newTestService()
	id, err := svc.ListItem(context.Background(), annExternal, ewasteRequest())
	require.NoError(t, err)

	l, err := svc.GetItem(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, l.ID)

	_, err = svc.GetItem(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, domain.ErrInvalidItemID)

	_, err = svc.GetItem(context.Background(), "33333333-3333-4333-8333-333333333333")
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestUpdateItem_NonOwnerForbidden(t *testing.T) {
	svc, store := newTestService()
	id, err := svc.ListItem(context.Background(), annExternal, ewasteRequest())
	require.NoError(t, err)

	_, err = svc.UpdateItem(context.Background(), bobExternal, id, &domain.UpdateItemRequest{Title: ptr("Hijacked title")})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Equal(t, "Old laptop", store.state.listings[id].Title)
}

func TestUpdateItem_CategoryChangeMovesVariant(t *testing.T) {
	svc, store := newTestService()
	id, err := svc.ListItem(context.Background(), annExternal, ewasteRequest())
	require.NoError(t, err)

	updated, err := svc.UpdateItem(context.Background(), annExternal, id, &domain.UpdateItemRequest{
		Category:        ptr(domain.CategoryFurniture),
		CategoryDetails: json.RawMessage(`{"type":"desk","material":"pine","condition":"good","dimensions":"120x60","images":[],"donated":false,"amount":40}`),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.CategoryFurniture, updated.Category)
	assert.IsType(t, &domain.FurnitureDetails{}, updated.Details)
	assert.Nil(t, store.detailsFor(domain.CategoryEWaste, id))
	assert.NotNil(t, store.detailsFor(domain.CategoryFurniture, id))
	assert.Equal(t, 1, store.variantCount(id))
}

func TestUpdateItem_CategoryChangeWithoutDetails(t *testing.T) {
	svc, store := newTestService()
	id, err := svc.ListItem(context.Background(), annExternal, ewasteRequest())
	require.NoError(t, err)

	updated, err := svc.UpdateItem(context.Background(), annExternal, id, &domain.UpdateItemRequest{
		Category: ptr(domain.CategoryOther),
	})
	require.NoError(t, err)
	assert.Nil(t, updated.Details)
	assert.Equal(t, 0, store.variantCount(id))
}

func TestUpdateItem_DetailsRequireCategory(t *testing.T) {
	svc, _ := newTestService()
	id, err := svc.ListItem(context.Background(), annExternal, ewasteRequest())
	require.NoError(t, err)

	_, err = svc.UpdateItem(context.Background(), annExternal, id, &domain.UpdateItemRequest{
		CategoryDetails: json.RawMessage(`{"brand":"HP"}`),
	})
	assert.Equal(t, []string{"category"}, fieldPaths(t, err))
}

func TestUpdateItem_UpsertFailureRollsBack(t *testing.T) {
	svc, store := newTestService()
	id, err := svc.ListItem(context.Background(), annExternal, ewasteRequest())
	require.NoError(t, err)
	store.failOn["UpsertDetails"] = errors.New("deadlock detected")

	_, err = svc.UpdateItem(context.Background(), annExternal, id, &domain.UpdateItemRequest{
		Title:           ptr("New shiny title"),
		Category:        ptr(domain.CategoryPlastic),
		CategoryDetails: json.RawMessage(`{"type":"PET","weight":3,"recyclable":true,"images":[],"donated":true}`),
	})
	require.Error(t, err)

	l := store.state.listings[id]
	assert.Equal(t, "Old laptop", l.Title)
	assert.Equal(t, domain.CategoryEWaste, l.Category)
	assert.NotNil(t, store.detailsFor(domain.CategoryEWaste, id))
}

func TestUpdateItem_PartialFields(t *testing.T) {
	svc, _ := newTestService()
	id, err := svc.ListItem(context.Background(), annExternal, ewasteRequest())
	require.NoError(t, err)

	updated, err := svc.UpdateItem(context.Background(), annExternal, id, &domain.UpdateItemRequest{
		Status:  ptr(domain.StatusReserved),
		Address: ptr("42 Galle Road"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReserved, updated.Status)
	assert.Equal(t, "Old laptop", updated.Title)
	assert.IsType(t, &domain.EWasteDetails{}, updated.Details)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))
}

func TestDeleteItem(t *testing.T) {
	svc, store := newTestService()
	id, err := svc.ListItem(context.Background(), annExternal, ewasteRequest())
	require.NoError(t, err)
	_, err = svc.CreatePickupRequest(context.Background(), annExternal, &domain.PickupRequestInput{ItemID: id, PickupAddress: "12 Main Street"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteItem(context.Background(), bobExternal, id), domain.ErrForbidden)

	require.NoError(t, svc.DeleteItem(context.Background(), annExternal, id))
	assert.Empty(t, store.state.listings)
	assert.Empty(t, store.state.pickups)
	assert.Equal(t, 0, store.variantCount(id))

	assert.ErrorIs(t, svc.DeleteItem(context.Background(), annExternal, id), domain.ErrItemNotFound)
}

func TestDeleteItem_FailureKeepsEverything(t *testing.T) {
	svc, store := newTestService()
	id, err := svc.ListItem(context.Background(), annExternal, ewasteRequest())
	require.NoError(t, err)
	_, err = svc.CreatePickupRequest(context.Background(), annExternal, &domain.PickupRequestInput{ItemID: id, PickupAddress: "12 Main Street"})
	require.NoError(t, err)
	store.failOn["DeleteListing"] = errors.New("statement timeout")

	require.Error(t, svc.DeleteItem(context.Background(), annExternal, id))
	assert.Len(t, store.state.listings, 1)
	assert.Len(t, store.state.pickups, 1)
	assert.Equal(t, 1, store.variantCount(id))
}

func TestCreatePickupRequest(t *testing.T) {
	svc, store := newTestService()
	id, err := svc.ListItem(context.Background(), annExternal, ewasteRequest())
	require.NoError(t, err)

	t.Run("producer", func(t *testing.T) {
		p, err := svc.CreatePickupRequest(context.Background(), annExternal, &domain.PickupRequestInput{
			ItemID:              id,
			PickupAddress:       "12 Main Street",
			PreferredPickupDate: ptr("2025-02-01T09:30:00Z"),
			Notes:               ptr("ring twice"),
		})
		require.NoError(t, err)
		assert.Equal(t, annID, p.UserID)
		require.NotNil(t, p.ScheduledDate)
		assert.Equal(t, 2025, p.ScheduledDate.Year())
		assert.Contains(t, store.state.pickups, p.ID)
	})

	t.Run("someone else", func(t *testing.T) {
		_, err := svc.CreatePickupRequest(context.Background(), bobExternal, &domain.PickupRequestInput{ItemID: id, PickupAddress: "99 Side Lane"})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("invalid input", func(t *testing.T) {
		_, err := svc.CreatePickupRequest(context.Background(), annExternal, &domain.PickupRequestInput{
			ItemID:              "nope",
			PickupAddress:       "x",
			PreferredPickupDate: ptr("tomorrow"),
		})
		assert.ElementsMatch(t, []string{"itemId", "pickupAddress", "preferredPickupDate"}, fieldPaths(t, err))
	})

	t.Run("missing listing", func(t *testing.T) {
		_, err := svc.CreatePickupRequest(context.Background(), annExternal, &domain.PickupRequestInput{
			ItemID:        "44444444-4444-4444-8444-444444444444",
			PickupAddress: "12 Main Street",
		})
		assert.ErrorIs(t, err, domain.ErrItemNotFound)
	})
}

func seedListings(t *testing.T, svc *ItemService, n int) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		req := ewasteRequest()
		req.Title = fmt.Sprintf("Laptop %02d", i)
		id, err := svc.ListItem(context.Background(), annExternal, req)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func TestSearchItems_PagingAndTotal(t *testing.T) {
	svc, _ := newTestService()
	ids := seedListings(t, svc, 15)

	page, err := svc.SearchItems(context.Background(), &domain.SearchFilter{})
	require.NoError(t, err)
	assert.Len(t, page.PaginatedItems, domain.DefaultSearchLimit)
	assert.Equal(t, 15, page.Total)
	assert.Equal(t, ids[14], page.PaginatedItems[0].ID, "newest first")

	page, err = svc.SearchItems(context.Background(), &domain.SearchFilter{Limit: ptr(4), Offset: ptr(12)})
	require.NoError(t, err)
	assert.Len(t, page.PaginatedItems, 3)
	assert.Equal(t, 15, page.Total)
}

func TestSearchItems_ExcludesClaimed(t *testing.T) {
	svc, store := newTestService()
	ids := seedListings(t, svc, 3)

	claimed := store.state.listings[ids[0]]
	claimed.ReceiverID = ptr(bobID)
	store.state.listings[ids[0]] = claimed

	page, err := svc.SearchItems(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	for _, l := range page.PaginatedItems {
		assert.NotEqual(t, ids[0], l.ID)
	}
}

func TestSearchItems_Geo(t *testing.T) {
	svc, _ := newTestService()
	seedListings(t, svc, 2)

	far := ewasteRequest()
	far.Latitude, far.Longitude = ptr(51.5), ptr(-0.12)
	_, err := svc.ListItem(context.Background(), annExternal, far)
	require.NoError(t, err)

	page, err := svc.SearchItems(context.Background(), &domain.SearchFilter{
		Latitude: ptr(6.9), Longitude: ptr(79.85), MaxDistance: ptr(25.0),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
}

func TestBuildSearchQuery_Validation(t *testing.T) {
	_, err := BuildSearchQuery(&domain.SearchFilter{Limit: ptr(101)})
	assert.Equal(t, []string{"limit"}, fieldPaths(t, err))

	_, err = BuildSearchQuery(&domain.SearchFilter{SpecificDetails: map[string]any{"brand": "Dell"}})
	assert.Equal(t, []string{"specificDetails"}, fieldPaths(t, err))

	_, err = BuildSearchQuery(&domain.SearchFilter{
		Category:        ptr(domain.CategoryEWaste),
		SpecificDetails: map[string]any{"serial": "x", "brand": []any{"a"}},
	})
	assert.ElementsMatch(t, []string{"specificDetails.serial", "specificDetails.brand"}, fieldPaths(t, err))

	_, err = BuildSearchQuery(&domain.SearchFilter{Category: ptr(domain.Category("BOATS"))})
	assert.ErrorIs(t, err, domain.ErrUnsupportedCategory)

	from := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(-time.Hour)
	_, err = BuildSearchQuery(&domain.SearchFilter{CreatedAt: &domain.DateRange{From: &from, To: &to}})
	assert.Equal(t, []string{"createdAt"}, fieldPaths(t, err))

	q, err := BuildSearchQuery(&domain.SearchFilter{
		Title:           ptr("  desk "),
		Category:        ptr(domain.CategoryFurniture),
		SpecificDetails: map[string]any{"material": "oak"},
		Latitude:        ptr(10.0),
		Longitude:       ptr(20.0),
	})
	require.NoError(t, err)
	assert.Equal(t, "desk", q.Title)
	assert.Nil(t, q.Box, "no box without maxDistance")
	assert.Equal(t, domain.DefaultSearchLimit, q.Limit)
}

func TestListItem_GetItemRoundTrip(t *testing.T) {
	svc, _ := newTestService()
	req := &domain.ListItemRequest{
		Title:       "  Oak bookshelf ",
		Description: "Five shelves, a few scratches on the side",
		Category:    domain.CategoryFurniture,
		Latitude:    ptr(-33.8688),
		Longitude:   ptr(151.2093),
		Address:     ptr("7 Harbour Street, Sydney"),
	}

	id, err := svc.ListItem(context.Background(), annExternal, req)
	require.NoError(t, err)

	got, err := svc.GetItem(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, req.Title, got.Title)
	assert.Equal(t, req.Description, got.Description)
	assert.Equal(t, req.Category, got.Category)
	assert.Equal(t, req.Address, got.Address)
	assert.Equal(t, req.Latitude, got.Latitude)
	assert.Equal(t, req.Longitude, got.Longitude)
}

func TestListItem_WithoutDetailsHasNoRelations(t *testing.T) {
	svc, _ := newTestService()

	id, err := svc.ListItem(context.Background(), annExternal, &domain.ListItemRequest{
		Title:       "Old Sofa",
		Description: "Three-seater, free to a good home",
		Category:    domain.CategoryFurniture,
	})
	require.NoError(t, err)

	got, err := svc.GetItem(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAvailable, got.Status)
	assert.Equal(t, annID, got.ProducerID)
	assert.Nil(t, got.Details)

	raw, err := json.Marshal(got)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	for _, key := range []string{"eWaste", "plastic", "stationary", "clothes", "furniture", "food", "other"} {
		require.Contains(t, out, key)
		assert.Nil(t, out[key], key)
	}
}

func TestListItem_RejectsBlankText(t *testing.T) {
	svc, store := newTestService()
	req := ewasteRequest()
	req.Title = "     "
	req.Description = "   x        "

	_, err := svc.ListItem(context.Background(), annExternal, req)
	assert.ElementsMatch(t, []string{"title", "description"}, fieldPaths(t, err))
	assert.Empty(t, store.state.listings)

	id, err := svc.ListItem(context.Background(), annExternal, ewasteRequest())
	require.NoError(t, err)

	_, err = svc.UpdateItem(context.Background(), annExternal, id, &domain.UpdateItemRequest{Title: ptr("      ")})
	assert.Equal(t, []string{"title"}, fieldPaths(t, err))
	assert.Equal(t, "Old laptop", store.state.listings[id].Title)

	_, err = svc.CreatePickupRequest(context.Background(), annExternal, &domain.PickupRequestInput{ItemID: id, PickupAddress: "         "})
	assert.Equal(t, []string{"pickupAddress"}, fieldPaths(t, err))
	assert.Empty(t, store.state.pickups)
}

func TestSearchItems_CategoryPageWithTotal(t *testing.T) {
	svc, _ := newTestService()
	seedListings(t, svc, 2)

	for _, kind := range []string{"rice", "lentils", "bread"} {
		_, err := svc.ListItem(context.Background(), annExternal, &domain.ListItemRequest{
			Title:       "Surplus " + kind,
			Description: "Sealed packs from the pantry",
			Category:    domain.CategoryFood,
			SpecificDetails: json.RawMessage(`{"type":"` + kind + `","expiryDate":"2025-12-01","weight":2,
				"images":["https://img.example/food.png"],"donated":true}`),
		})
		require.NoError(t, err)
	}

	page, err := svc.SearchItems(context.Background(), &domain.SearchFilter{
		Category: ptr(domain.CategoryFood),
		Limit:    ptr(1),
	})
	require.NoError(t, err)
	require.Len(t, page.PaginatedItems, 1)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, domain.CategoryFood, page.PaginatedItems[0].Category)
	assert.IsType(t, &domain.FoodDetails{}, page.PaginatedItems[0].Details)
}

func TestBuildSearchQuery_LimitCap(t *testing.T) {
	q, err := BuildSearchQuery(&domain.SearchFilter{Limit: ptr(domain.MaxSearchLimit)})
	require.NoError(t, err)
	assert.Equal(t, domain.MaxSearchLimit, q.Limit)

	_, err = BuildSearchQuery(&domain.SearchFilter{Limit: ptr(domain.MaxSearchLimit + 1)})
	verr, ok := validation.As(err)
	require.True(t, ok)
	assert.Equal(t, "limit must be at most 100", verr.Fields[0].Message)
}
