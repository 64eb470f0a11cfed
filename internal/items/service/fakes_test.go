package service

import (
	"context"
	"sort"
	"strings"

	"github.com/reloop-app/reloop-backend/internal/items/domain"
	"github.com/reloop-app/reloop-backend/internal/users"
)

type fakeUsers map[string]*users.User

func (f fakeUsers) GetByExternalID(_ context.Context, externalID string) (*users.User, error) {
	if u, ok := f[externalID]; ok {
		return u, nil
	}
	return nil, users.ErrUserNotFound
}

type storeState struct {
	listings map[string]domain.ItemListing
	details  map[domain.Category]map[string]domain.CategoryDetails
	pickups  map[string]domain.PickupRequest
}

func (s storeState) clone() storeState {
	out := storeState{
		listings: make(map[string]domain.ItemListing, len(s.listings)),
		details:  make(map[domain.Category]map[string]domain.CategoryDetails, len(s.details)),
		pickups:  make(map[string]domain.PickupRequest, len(s.pickups)),
	}
	for k, v := range s.listings {
		out.listings[k] = v
	}
	for c, m := range s.details {
		out.details[c] = make(map[string]domain.CategoryDetails, len(m))
		for k, v := range m {
			out.details[c][k] = v
		}
	}
	for k, v := range s.pickups {
		out.pickups[k] = v
	}
	return out
}

// fakeStore keeps everything in memory. WithinTx restores the previous state
// when fn fails, and failOn makes the named writer method return its error.
type fakeStore struct {
	state  storeState
	failOn map[string]error
	txs    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		state: storeState{
			listings: map[string]domain.ItemListing{},
			details:  map[domain.Category]map[string]domain.CategoryDetails{},
			pickups:  map[string]domain.PickupRequest{},
		},
		failOn: map[string]error{},
	}
}

func (s *fakeStore) WithinTx(_ context.Context, fn func(w domain.ListingWriter) error) error {
	s.txs++
	snapshot := s.state.clone()
	if err := fn(s); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

func (s *fakeStore) detailsFor(c domain.Category, id string) domain.CategoryDetails {
	return s.state.details[c][id]
}

func (s *fakeStore) GetListing(_ context.Context, id string) (*domain.ItemListing, error) {
	l, ok := s.state.listings[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	l.Details = s.detailsFor(l.Category, id)
	return &l, nil
}

func (s *fakeStore) match(q domain.SearchQuery) []domain.ItemListing {
	var out []domain.ItemListing
	for _, l := range s.state.listings {
		if !q.IncludeClaimed && l.ReceiverID != nil {
			continue
		}
		if q.Title != "" && !strings.Contains(strings.ToLower(l.Title), strings.ToLower(q.Title)) {
			continue
		}
		if q.Category != "" && l.Category != q.Category {
			continue
		}
		if q.ProducerID != "" && l.ProducerID != q.ProducerID {
			continue
		}
		if q.Box != nil && (l.Latitude == nil || l.Longitude == nil || !inBox(*q.Box, *l.Latitude, *l.Longitude)) {
			continue
		}
		l.Details = s.detailsFor(l.Category, l.ID)
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// inBox mirrors the SQL predicate built from a bounding box.
func inBox(b domain.BoundingBox, lat, lng float64) bool {
	if lat < b.MinLat || lat > b.MaxLat {
		return false
	}
	ranges := b.LongitudeRanges()
	if ranges == nil {
		return true
	}
	for _, r := range ranges {
		if lng >= r[0] && lng <= r[1] {
			return true
		}
	}
	return false
}

func (s *fakeStore) FindListings(_ context.Context, q domain.SearchQuery) ([]domain.ItemListing, error) {
	all := s.match(q)
	if q.Offset >= len(all) {
		return []domain.ItemListing{}, nil
	}
	end := min(q.Offset+q.Limit, len(all))
	return all[q.Offset:end], nil
}

func (s *fakeStore) CountListings(_ context.Context, q domain.SearchQuery) (int, error) {
	return len(s.match(q)), nil
}

func (s *fakeStore) fail(method string) error {
	return s.failOn[method]
}

func (s *fakeStore) CreateListing(_ context.Context, l *domain.ItemListing) error {
	if err := s.fail("CreateListing"); err != nil {
		return err
	}
	stored := *l
	stored.Details = nil
	s.state.listings[l.ID] = stored
	return nil
}

func (s *fakeStore) UpdateListing(_ context.Context, l *domain.ItemListing) error {
	if err := s.fail("UpdateListing"); err != nil {
		return err
	}
	if _, ok := s.state.listings[l.ID]; !ok {
		return domain.ErrItemNotFound
	}
	stored := *l
	stored.Details = nil
	s.state.listings[l.ID] = stored
	return nil
}

func (s *fakeStore) DeleteListing(_ context.Context, id string) error {
	if err := s.fail("DeleteListing"); err != nil {
		return err
	}
	if _, ok := s.state.listings[id]; !ok {
		return domain.ErrItemNotFound
	}
	delete(s.state.listings, id)
	return nil
}

func (s *fakeStore) putDetails(itemID string, d domain.CategoryDetails) {
	if s.state.details[d.Category()] == nil {
		s.state.details[d.Category()] = map[string]domain.CategoryDetails{}
	}
	s.state.details[d.Category()][itemID] = d
}

func (s *fakeStore) CreateDetails(_ context.Context, itemID string, d domain.CategoryDetails) error {
	if err := s.fail("CreateDetails"); err != nil {
		return err
	}
	s.putDetails(itemID, d)
	return nil
}

func (s *fakeStore) UpsertDetails(_ context.Context, itemID string, d domain.CategoryDetails) error {
	if err := s.fail("UpsertDetails"); err != nil {
		return err
	}
	s.putDetails(itemID, d)
	return nil
}

func (s *fakeStore) DeleteDetails(_ context.Context, itemID string, c domain.Category) error {
	if err := s.fail("DeleteDetails"); err != nil {
		return err
	}
	delete(s.state.details[c], itemID)
	return nil
}

func (s *fakeStore) DeletePickupRequests(_ context.Context, itemID string) error {
	if err := s.fail("DeletePickupRequests"); err != nil {
		return err
	}
	for id, p := range s.state.pickups {
		if p.ItemID == itemID {
			delete(s.state.pickups, id)
		}
	}
	return nil
}

func (s *fakeStore) CreatePickupRequest(_ context.Context, p *domain.PickupRequest) error {
	if err := s.fail("CreatePickupRequest"); err != nil {
		return err
	}
	s.state.pickups[p.ID] = *p
	return nil
}

func (s *fakeStore) variantCount(itemID string) int {
	n := 0
	for _, m := range s.state.details {
		if _, ok := m[itemID]; ok {
			n++
		}
	}
	return n
}
