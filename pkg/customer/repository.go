package customer

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Common errors for customer repositories
var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrDuplicateEmail   = errors.New("a customer with this email already exists")
	ErrRevisionMismatch = errors.New("customer record was modified concurrently")
)

// CreateCustomerParams holds the fields for a new customer record
type CreateCustomerParams struct {
	Email      string
	FirstName  string
	LastName   string
	Attributes map[string]any
}

// UpdateCustomerParams holds the fields for a conditional customer update.
// Attributes replaces the record's attribute map wholesale; callers are
// expected to build it by merging into the map they read.
type UpdateCustomerParams struct {
	Phone      *string
	Attributes map[string]any
}

// Repository is the customer record store contract. Token and username
// lookups are indexed by the store rather than scanned, so they stay O(1)
// regardless of customer count.
type Repository interface {
	// Create inserts a new customer. Returns ErrDuplicateEmail if the email
	// is already taken.
	Create(ctx context.Context, params CreateCustomerParams) (Customer, error)

	// GetByID returns a customer by id or ErrCustomerNotFound
	GetByID(ctx context.Context, id uuid.UUID) (Customer, error)

	// FindByEmail returns the customer with the given email or ErrCustomerNotFound
	FindByEmail(ctx context.Context, email string) (Customer, error)

	// FindByUsername returns the customer whose username attribute matches
	FindByUsername(ctx context.Context, username string) (Customer, error)

	// FindByVerificationToken returns the customer holding the given
	// verification token
	FindByVerificationToken(ctx context.Context, token string) (Customer, error)

	// FindByResetToken returns the customer holding the given password reset
	// token
	FindByResetToken(ctx context.Context, token string) (Customer, error)

	// Update performs a single conditional write: it replaces the customer's
	// attribute map (and optionally phone) only if the stored revision still
	// matches, returning ErrRevisionMismatch otherwise.
	Update(ctx context.Context, id uuid.UUID, revision int64, params UpdateCustomerParams) (Customer, error)
}
