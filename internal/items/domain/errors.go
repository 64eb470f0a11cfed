package domain

import "errors"

var (
	ErrItemNotFound        = errors.New("item not found")
	ErrForbidden           = errors.New("not the owner of this item")
	ErrUnsupportedCategory = errors.New("unsupported category")
	ErrInvalidItemID       = errors.New("invalid or missing item id")
)
