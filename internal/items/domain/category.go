package domain

import "fmt"

// Category is the closed set of listing families. Each one has exactly one
// details variant.
type Category string

const (
	CategoryEWaste     Category = "EWASTE"
	CategoryPlastic    Category = "PLASTIC"
	CategoryStationary Category = "STATIONARY"
	CategoryClothes    Category = "CLOTHES"
	CategoryFurniture  Category = "FURNITURE"
	CategoryFood       Category = "FOOD"
	CategoryOther      Category = "OTHER"
)

var Categories = []Category{
	CategoryEWaste,
	CategoryPlastic,
	CategoryStationary,
	CategoryClothes,
	CategoryFurniture,
	CategoryFood,
	CategoryOther,
}

func (c Category) Valid() bool {
	switch c {
	case CategoryEWaste, CategoryPlastic, CategoryStationary, CategoryClothes,
		CategoryFurniture, CategoryFood, CategoryOther:
		return true
	}
	return false
}

func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCategory, s)
	}
	return c, nil
}

// Status is the lifecycle state of a listing.
type Status string

const (
	StatusAvailable Status = "AVAILABLE"
	StatusPending   Status = "PENDING"
	StatusDonated   Status = "DONATED"
	StatusReserved  Status = "RESERVED"
)

var Statuses = []Status{StatusAvailable, StatusPending, StatusDonated, StatusReserved}
