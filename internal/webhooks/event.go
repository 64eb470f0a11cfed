package webhooks

import (
	"errors"
	"strings"

	"github.com/reloop-app/reloop-backend/internal/users"
)

const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

var (
	ErrMissingEmail     = errors.New("user payload has no primary email address")
	ErrMissingUserID    = errors.New("user payload has no id")
	ErrUnexpectedEvent  = errors.New("unexpected event type")
	ErrVerification     = errors.New("webhook verification failed")
	ErrEndpointDisabled = errors.New("webhook endpoint has no signing secret")
)

// Secrets holds one signing secret per webhook endpoint.
type Secrets struct {
	UserCreated string
	UserUpdated string
	UserDeleted string
}

// Event is an identity-provider delivery. Only user events are handled.
type Event struct {
	Type string   `json:"type"`
	Data UserData `json:"data"`
}

type EmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

type PhoneNumber struct {
	ID          string `json:"id"`
	PhoneNumber string `json:"phone_number"`
}

type UserData struct {
	ID                    string         `json:"id"`
	FirstName             *string        `json:"first_name"`
	LastName              *string        `json:"last_name"`
	EmailAddresses        []EmailAddress `json:"email_addresses"`
	PrimaryEmailAddressID *string        `json:"primary_email_address_id"`
	PhoneNumbers          []PhoneNumber  `json:"phone_numbers"`
	PrimaryPhoneNumberID  *string        `json:"primary_phone_number_id"`
	ProfileImageURL       *string        `json:"profile_image_url"`
}

// ToUser maps the payload onto a User. The primary email is required; the
// primary phone number is optional.
func (d UserData) ToUser() (*users.User, error) {
	if d.ID == "" {
		return nil, ErrMissingUserID
	}

	u := &users.User{
		ExternalID:   d.ID,
		Name:         fullName(d.FirstName, d.LastName),
		ProfileImage: nonEmpty(d.ProfileImageURL),
	}

	if d.PrimaryEmailAddressID != nil {
		for _, e := range d.EmailAddresses {
			if e.ID == *d.PrimaryEmailAddressID {
				u.Email = e.EmailAddress
				break
			}
		}
	}
	if u.Email == "" {
		return nil, ErrMissingEmail
	}

	if d.PrimaryPhoneNumberID != nil {
		for _, p := range d.PhoneNumbers {
			if p.ID == *d.PrimaryPhoneNumberID {
				u.PhoneNumber = nonEmpty(&p.PhoneNumber)
				break
			}
		}
	}

	return u, nil
}

func fullName(first, last *string) string {
	var parts []string
	for _, p := range []*string{first, last} {
		if p != nil && strings.TrimSpace(*p) != "" {
			parts = append(parts, strings.TrimSpace(*p))
		}
	}
	return strings.Join(parts, " ")
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}
