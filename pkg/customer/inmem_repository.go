package customer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryCustomerRepository implements Repository using in-memory storage.
// Secondary indexes keep email, username, and token lookups O(1).
type InMemoryCustomerRepository struct {
	mu                  sync.RWMutex
	customers           map[uuid.UUID]Customer
	byEmail             map[string]uuid.UUID
	byUsername          map[string]uuid.UUID
	byVerificationToken map[string]uuid.UUID
	byResetToken        map[string]uuid.UUID
}

// NewInMemoryCustomerRepository creates a new in-memory customer repository
func NewInMemoryCustomerRepository() *InMemoryCustomerRepository {
	return &InMemoryCustomerRepository{
		customers:           make(map[uuid.UUID]Customer),
		byEmail:             make(map[string]uuid.UUID),
		byUsername:          make(map[string]uuid.UUID),
		byVerificationToken: make(map[string]uuid.UUID),
		byResetToken:        make(map[string]uuid.UUID),
	}
}

// Create inserts a new customer record
func (r *InMemoryCustomerRepository) Create(ctx context.Context, params CreateCustomerParams) (Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[params.Email]; exists {
		return Customer{}, ErrDuplicateEmail
	}

	now := time.Now().UTC()
	cust := Customer{
		ID:         uuid.New(),
		Email:      params.Email,
		FirstName:  params.FirstName,
		LastName:   params.LastName,
		Attributes: cloneAttributes(params.Attributes),
		Revision:   1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	r.customers[cust.ID] = cust
	r.byEmail[cust.Email] = cust.ID
	r.index(cust)
	return cloneCustomer(cust), nil
}

// GetByID returns a customer by id
func (r *InMemoryCustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cust, ok := r.customers[id]
	if !ok {
		return Customer{}, ErrCustomerNotFound
	}
	return cloneCustomer(cust), nil
}

// FindByEmail returns a customer by email
func (r *InMemoryCustomerRepository) FindByEmail(ctx context.Context, email string) (Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(r.byEmail, email)
}

// FindByUsername returns a customer by its username attribute
func (r *InMemoryCustomerRepository) FindByUsername(ctx context.Context, username string) (Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(r.byUsername, username)
}

// FindByVerificationToken returns the customer holding a verification token
func (r *InMemoryCustomerRepository) FindByVerificationToken(ctx context.Context, token string) (Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(r.byVerificationToken, token)
}

// FindByResetToken returns the customer holding a password reset token
func (r *InMemoryCustomerRepository) FindByResetToken(ctx context.Context, token string) (Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(r.byResetToken, token)
}

// Update conditionally replaces the customer's attribute map
func (r *InMemoryCustomerRepository) Update(ctx context.Context, id uuid.UUID, revision int64, params UpdateCustomerParams) (Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cust, ok := r.customers[id]
	if !ok {
		return Customer{}, ErrCustomerNotFound
	}
	if cust.Revision != revision {
		return Customer{}, ErrRevisionMismatch
	}

	r.unindex(cust)
	cust.Attributes = cloneAttributes(params.Attributes)
	if params.Phone != nil {
		cust.Phone = *params.Phone
	}
	cust.Revision++
	cust.UpdatedAt = time.Now().UTC()
	r.customers[id] = cust
	r.index(cust)
	return cloneCustomer(cust), nil
}

func (r *InMemoryCustomerRepository) lookup(index map[string]uuid.UUID, key string) (Customer, error) {
	if key == "" {
		return Customer{}, ErrCustomerNotFound
	}
	id, ok := index[key]
	if !ok {
		return Customer{}, ErrCustomerNotFound
	}
	cust, ok := r.customers[id]
	if !ok {
		return Customer{}, ErrCustomerNotFound
	}
	return cloneCustomer(cust), nil
}

// index and unindex maintain the attribute-derived secondary indexes and
// must run with the write lock held.
func (r *InMemoryCustomerRepository) index(cust Customer) {
	state := cust.AuthState()
	if state.Username != "" {
		r.byUsername[state.Username] = cust.ID
	}
	if state.VerificationToken != "" {
		r.byVerificationToken[state.VerificationToken] = cust.ID
	}
	if state.PasswordResetToken != "" {
		r.byResetToken[state.PasswordResetToken] = cust.ID
	}
}

func (r *InMemoryCustomerRepository) unindex(cust Customer) {
	state := cust.AuthState()
	if state.Username != "" {
		delete(r.byUsername, state.Username)
	}
	if state.VerificationToken != "" {
		delete(r.byVerificationToken, state.VerificationToken)
	}
	if state.PasswordResetToken != "" {
		delete(r.byResetToken, state.PasswordResetToken)
	}
}

func cloneAttributes(attrs map[string]any) map[string]any {
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}

func cloneCustomer(cust Customer) Customer {
	cust.Attributes = cloneAttributes(cust.Attributes)
	return cust
}
