package customer

import (
	"time"

	"github.com/google/uuid"
)

// Attribute keys used on the customer record. The store itself is
// schemaless; these keys are the contract between the auth flows and
// whatever else reads the record.
const (
	AttrUsername             = "username"
	AttrEmailVerified        = "email_verified"
	AttrVerificationToken    = "verification_token"
	AttrPasswordHash         = "password_hash"
	AttrPasswordResetToken   = "password_reset_token"
	AttrPasswordResetExpires = "password_reset_expires"
	AttrBillingAddress       = "billing_address"
	AttrShippingAddress      = "shipping_address"
	AttrRegistrationComplete = "registration_complete"
	AttrCustomerNumber       = "customer_number"
	AttrWatermarkID          = "watermark_id"
	AttrLandline             = "landline"
	AttrLastP96Purchase      = "last_p96_purchase"
)

// Address is a structured address record stored on the customer attribute map
type Address struct {
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Address1    string `json:"address_1,omitempty"`
	Address2    string `json:"address_2,omitempty"`
	City        string `json:"city,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
	PostalCode  string `json:"postal_code,omitempty"`
	Province    string `json:"province,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Company     string `json:"company,omitempty"`
}

// Customer is the platform customer record as seen by the auth flows.
// The record is owned by the customer store; auth state lives entirely in
// the Attributes map.
type Customer struct {
	ID         uuid.UUID
	Email      string
	FirstName  string
	LastName   string
	Phone      string
	Attributes map[string]any

	// Revision is bumped by the store on every update and checked on
	// conditional writes.
	Revision  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AuthState reads the customer's auth state from its attribute map
func (c Customer) AuthState() AuthState {
	return AuthStateFromAttributes(c.Attributes)
}
