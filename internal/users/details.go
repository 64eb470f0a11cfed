package users

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/reloop-app/reloop-backend/internal/validation"
)

var ErrDetailsNotFound = errors.New("user details not found")

type (
	Role             string
	UserType         string
	OrganizationType string
	DocumentType     string
)

const (
	RoleProducer Role = "producer"
	RoleReceiver Role = "receiver"

	UserTypeIndividual   UserType = "individual"
	UserTypeOrganization UserType = "organization"
)

// Details is the marketplace profile a user completes after sign-up.
// Organizations must name their type and back it with documents.
type Details struct {
	UserID           string            `json:"userId"`
	Role             Role              `json:"role"`
	UserType         UserType          `json:"userType"`
	OrganizationType *OrganizationType `json:"organizationType,omitempty"`
	DocumentURLs     []string          `json:"document_urls,omitempty"`
	DocumentType     *DocumentType     `json:"documentType,omitempty"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

type AddDetailsRequest struct {
	Role             Role              `json:"role" validate:"required,oneof=producer receiver"`
	UserType         UserType          `json:"userType" validate:"required,oneof=individual organization"`
	OrganizationType *OrganizationType `json:"organizationType" validate:"omitempty,oneof=ngo business government educational"`
	DocumentURLs     []string          `json:"document_urls" validate:"omitempty,dive,url"`
	DocumentType     *DocumentType     `json:"documentType" validate:"omitempty,oneof=registration_certificate tax_certificate license other"`
}

// organizationRequirements applies the extra rules for organization accounts.
func organizationRequirements(sl validator.StructLevel) {
	r := sl.Current().Interface().(AddDetailsRequest)
	if r.UserType != UserTypeOrganization {
		return
	}
	if r.OrganizationType == nil {
		sl.ReportError(r.OrganizationType, "organizationType", "OrganizationType", "required_if", "userType organization")
	}
	if len(r.DocumentURLs) == 0 {
		sl.ReportError(r.DocumentURLs, "document_urls", "DocumentURLs", "required_if", "userType organization")
	}
	if r.DocumentType == nil {
		sl.ReportError(r.DocumentType, "documentType", "DocumentType", "required_if", "userType organization")
	}
}

func init() {
	validation.RegisterStructValidation(organizationRequirements, AddDetailsRequest{})
}

// PublicProfile is what anyone may read about a user. Contact details and
// verification documents stay private.
type PublicProfile struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	ProfileImage     *string           `json:"profileImage,omitempty"`
	Role             *Role             `json:"role,omitempty"`
	UserType         *UserType         `json:"userType,omitempty"`
	OrganizationType *OrganizationType `json:"organizationType,omitempty"`
	MemberSince      time.Time         `json:"memberSince"`
}

func NewPublicProfile(u *User, d *Details) *PublicProfile {
	p := &PublicProfile{
		ID:           u.ID,
		Name:         u.Name,
		ProfileImage: u.ProfileImage,
		MemberSince:  u.CreatedAt,
	}
	if d != nil {
		p.Role = &d.Role
		p.UserType = &d.UserType
		p.OrganizationType = d.OrganizationType
	}
	return p
}
