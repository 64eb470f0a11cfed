package domain

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"

	"github.com/reloop-app/reloop-backend/internal/validation"
)

type ListItemRequest struct {
	Title           string          `json:"title" validate:"required,notblank,min=3,max=100"`
	Description     string          `json:"description" validate:"required,notblank,min=10,max=1000"`
	Category        Category        `json:"category" validate:"required"`
	Latitude        *float64        `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude       *float64        `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	Address         *string         `json:"address" validate:"omitempty,notblank,min=5,max=255"`
	SpecificDetails json.RawMessage `json:"specificDetails,omitempty"`
}

// UpdateItemRequest is a partial update; nil fields are left untouched.
type UpdateItemRequest struct {
	Title           *string         `json:"title" validate:"omitempty,notblank,min=3,max=100"`
	Description     *string         `json:"description" validate:"omitempty,notblank,min=10,max=1000"`
	Category        *Category       `json:"category"`
	Latitude        *float64        `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude       *float64        `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	Address         *string         `json:"address" validate:"omitempty,notblank,min=5,max=255"`
	Status          *Status         `json:"status" validate:"omitempty,oneof=AVAILABLE PENDING DONATED RESERVED"`
	CategoryDetails json.RawMessage `json:"categoryDetails,omitempty"`
}

type PickupRequestInput struct {
	ItemID              string  `json:"itemId" validate:"required,uuid"`
	PickupAddress       string  `json:"pickupAddress" validate:"required,notblank,min=5,max=255"`
	PreferredPickupDate *string `json:"preferredPickupDate" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Notes               *string `json:"notes" validate:"omitempty,max=1000"`
}

// HasPayload reports whether raw holds something other than an absent or
// null JSON value.
func HasPayload(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

type coordinates interface {
	coords() (lat, lng *float64)
}

func (r ListItemRequest) coords() (*float64, *float64)   { return r.Latitude, r.Longitude }
func (r UpdateItemRequest) coords() (*float64, *float64) { return r.Latitude, r.Longitude }
func (f SearchFilter) coords() (*float64, *float64)      { return f.Latitude, f.Longitude }

// coordinatesPaired requires latitude and longitude to be given together.
func coordinatesPaired(sl validator.StructLevel) {
	c, ok := sl.Current().Interface().(coordinates)
	if !ok {
		return
	}
	lat, lng := c.coords()
	switch {
	case lat != nil && lng == nil:
		sl.ReportError(lng, "longitude", "Longitude", "required_with", "latitude")
	case lng != nil && lat == nil:
		sl.ReportError(lat, "latitude", "Latitude", "required_with", "longitude")
	}
}

func init() {
	validation.RegisterStructValidation(coordinatesPaired,
		ListItemRequest{}, UpdateItemRequest{}, SearchFilter{},
	)
}
