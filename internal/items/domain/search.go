package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/reloop-app/reloop-backend/internal/validation"
)

type DateRange struct {
	From *time.Time `json:"from"`
	To   *time.Time `json:"to"`
}

// SearchFilter is the client-facing search body.
type SearchFilter struct {
	Title           *string        `json:"title" validate:"omitempty,max=100"`
	Category        *Category      `json:"category"`
	Latitude        *float64       `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude       *float64       `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	MaxDistance     *float64       `json:"maxDistance" validate:"omitempty,gt=0"`
	ProducerID      *string        `json:"producerId" validate:"omitempty,uuid"`
	CreatedAt       *DateRange     `json:"createdAt"`
	SpecificDetails map[string]any `json:"specificDetails"`
	Limit           *int           `json:"limit" validate:"omitempty,min=1"`
	Offset          *int           `json:"offset" validate:"omitempty,min=0"`
}

const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 100
)

// CheckPageLimit records a page size above MaxSearchLimit on verr.
func CheckPageLimit(verr *validation.Error, limit int) {
	if limit > MaxSearchLimit {
		verr.Add("limit", fmt.Sprintf("limit must be at most %d", MaxSearchLimit))
	}
}

// SearchQuery is a normalized filter ready for the store.
type SearchQuery struct {
	Title       string
	Category    Category
	ProducerID  string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Box         *BoundingBox
	// Details holds equality filters on variant attributes, keyed by JSON name.
	Details map[string]any
	// IncludeClaimed keeps listings that already have a receiver.
	IncludeClaimed bool
	Limit          int
	Offset         int
}

// FilterableDetails lists the variant attributes usable as equality filters.
var FilterableDetails = map[Category][]string{
	CategoryEWaste:     {"brand", "model", "condition", "warranty", "quantity", "donated", "amount"},
	CategoryPlastic:    {"type", "weight", "recyclable", "donated", "amount"},
	CategoryStationary: {"type", "quantity", "new", "donated", "amount"},
	CategoryClothes:    {"size", "gender", "material", "condition", "quantity", "donated", "amount"},
	CategoryFurniture:  {"type", "material", "condition", "dimensions", "donated", "amount"},
	CategoryFood:       {"type", "weight", "donated", "amount"},
	CategoryOther:      {"condition", "donated", "amount"},
}

// KmPerDegree is the length of one degree of latitude.
const KmPerDegree = 111.12

// BoundingBox is a lat/lng window. MinLng and MaxLng may fall outside
// [-180, 180] when the window crosses the antimeridian.
type BoundingBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
	AllLongitudes  bool
}

// BoundingBoxAround approximates a circle of radius km around (lat, lng).
func BoundingBoxAround(lat, lng, km float64) BoundingBox {
	dLat := km / KmPerDegree
	box := BoundingBox{
		MinLat: math.Max(lat-dLat, -90),
		MaxLat: math.Min(lat+dLat, 90),
	}

	cos := math.Abs(math.Cos(lat * math.Pi / 180))
	if cos < 1e-9 {
		box.AllLongitudes = true
		return box
	}
	dLng := km / (KmPerDegree * cos)
	if dLng >= 180 {
		box.AllLongitudes = true
		return box
	}
	box.MinLng, box.MaxLng = lng-dLng, lng+dLng
	return box
}

// LongitudeRanges splits the window into ranges inside [-180, 180]. It
// returns nil when every longitude matches.
func (b BoundingBox) LongitudeRanges() [][2]float64 {
	switch {
	case b.AllLongitudes:
		return nil
	case b.MinLng < -180:
		return [][2]float64{{b.MinLng + 360, 180}, {-180, b.MaxLng}}
	case b.MaxLng > 180:
		return [][2]float64{{b.MinLng, 180}, {-180, b.MaxLng - 360}}
	default:
		return [][2]float64{{b.MinLng, b.MaxLng}}
	}
}
