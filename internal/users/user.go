package users

import (
	"errors"
	"time"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

// User mirrors an identity-provider account. ExternalID is the provider's
// stable user id and is what bearer tokens resolve to.
type User struct {
	ID           string    `json:"id"`
	ExternalID   string    `json:"externalId"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PhoneNumber  *string   `json:"phoneNumber,omitempty"`
	ProfileImage *string   `json:"profileImage,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
