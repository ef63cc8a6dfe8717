package api

// RegisterRequest represents a customer registration submission. The field
// casing matches the storefront client, which sends camelCase names here.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username,omitempty"`
}

// RegisterResponse confirms a registration and carries the new customer id
type RegisterResponse struct {
	Message    string `json:"message"`
	CustomerID string `json:"customer_id"`
}

// VerifyEmailResponse confirms a consumed verification token
type VerifyEmailResponse struct {
	CustomerID string `json:"customer_id"`
	Message    string `json:"message"`
}

// LoginRequest carries the login identifier (email or username) and password
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// CustomerResponse is the public customer projection returned on login
type CustomerResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// LoginResponse carries the authenticated customer and a session token
type LoginResponse struct {
	Customer CustomerResponse `json:"customer"`
	Token    string           `json:"token"`
}

// ForgotPasswordRequest asks for a password reset link
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest consumes a reset token with the replacement password
type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// AddressRequest is one address of a registration-completion submission
type AddressRequest struct {
	Company     string `json:"company,omitempty"`
	Country     string `json:"country"`
	Street      string `json:"street"`
	HouseNumber string `json:"houseNumber,omitempty"`
	FlatNumber  string `json:"flatNumber,omitempty"`
	PostalCode  string `json:"postalCode"`
	City        string `json:"city"`
	State       string `json:"state,omitempty"`
}

// CompleteRegistrationRequest carries the address and phone details that
// finish a customer profile
type CompleteRegistrationRequest struct {
	CustomerID            string         `json:"customer_id"`
	Billing               AddressRequest `json:"billing"`
	Shipping              AddressRequest `json:"shipping"`
	ShippingSameAsBilling bool           `json:"shippingSameAsBilling"`
	MobilePhone           string         `json:"mobilePhone,omitempty"`
	Landline              string         `json:"landline,omitempty"`
}

// CompletedCustomer identifies the customer whose profile was completed
type CompletedCustomer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// CompleteRegistrationResponse confirms a completed profile
type CompleteRegistrationResponse struct {
	Customer CompletedCustomer `json:"customer"`
	Message  string            `json:"message"`
}

// MessageResponse is a bare confirmation message
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string `json:"message"`
}
