package domain

import (
	"encoding/json"
	"time"

	"github.com/reloop-app/reloop-backend/internal/users"
)

// ItemListing is a post offering goods. Details carries the variant for
// Category, or nil when none was supplied.
type ItemListing struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    Category        `json:"category"`
	Latitude    *float64        `json:"latitude"`
	Longitude   *float64        `json:"longitude"`
	Address     *string         `json:"address"`
	Status      Status          `json:"status"`
	ProducerID  string          `json:"producerId"`
	ReceiverID  *string         `json:"receiverId"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	Producer    *users.User     `json:"producer,omitempty"`
	Details     CategoryDetails `json:"-"`
}

// detailRelations exposes the variant under its own key. Exactly one key is
// non-null for a listing with details.
type detailRelations struct {
	EWaste     *EWasteDetails     `json:"eWaste"`
	Plastic    *PlasticDetails    `json:"plastic"`
	Stationary *StationaryDetails `json:"stationary"`
	Clothes    *ClothesDetails    `json:"clothes"`
	Furniture  *FurnitureDetails  `json:"furniture"`
	Food       *FoodDetails       `json:"food"`
	Other      *OtherDetails      `json:"other"`
}

func relationsOf(d CategoryDetails) detailRelations {
	var r detailRelations
	switch v := d.(type) {
	case *EWasteDetails:
		r.EWaste = v
	case *PlasticDetails:
		r.Plastic = v
	case *StationaryDetails:
		r.Stationary = v
	case *ClothesDetails:
		r.Clothes = v
	case *FurnitureDetails:
		r.Furniture = v
	case *FoodDetails:
		r.Food = v
	case *OtherDetails:
		r.Other = v
	}
	return r
}

func (l ItemListing) MarshalJSON() ([]byte, error) {
	type listing ItemListing
	return json.Marshal(struct {
		listing
		detailRelations
	}{listing(l), relationsOf(l.Details)})
}

// SearchResult is one page of listings plus the unpaginated match count.
type SearchResult struct {
	PaginatedItems []ItemListing `json:"paginatedItems"`
	Total          int           `json:"total"`
}
