package customer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolationCode = "23505"

// PostgresCustomerRepository implements Repository using PostgreSQL. The
// attribute map is stored as JSONB; token and username lookups go through
// expression indexes instead of scanning the table.
type PostgresCustomerRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresCustomerRepository creates a new PostgreSQL customer repository
func NewPostgresCustomerRepository(pool *pgxpool.Pool) *PostgresCustomerRepository {
	return &PostgresCustomerRepository{pool: pool}
}

// Migrate creates the customers table and its indexes if they do not exist
func (r *PostgresCustomerRepository) Migrate(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS customers (
			id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			email      TEXT NOT NULL,
			first_name TEXT NOT NULL DEFAULT '',
			last_name  TEXT NOT NULL DEFAULT '',
			phone      TEXT NOT NULL DEFAULT '',
			attributes JSONB NOT NULL DEFAULT '{}'::jsonb,
			revision   BIGINT NOT NULL DEFAULT 1,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE UNIQUE INDEX IF NOT EXISTS customers_email_idx
			ON customers (email);
		CREATE INDEX IF NOT EXISTS customers_username_idx
			ON customers ((attributes->>'username'));
		CREATE INDEX IF NOT EXISTS customers_verification_token_idx
			ON customers ((attributes->>'verification_token'));
		CREATE INDEX IF NOT EXISTS customers_reset_token_idx
			ON customers ((attributes->>'password_reset_token'));
	`
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate customers table: %w", err)
	}
	return nil
}

const customerColumns = `
	id, email, first_name, last_name, phone, attributes, revision, created_at, updated_at
`

// Create inserts a new customer record
func (r *PostgresCustomerRepository) Create(ctx context.Context, params CreateCustomerParams) (Customer, error) {
	attrs, err := json.Marshal(params.Attributes)
	if err != nil {
		return Customer{}, fmt.Errorf("failed to encode attributes: %w", err)
	}

	query := `
		INSERT INTO customers (email, first_name, last_name, attributes)
		VALUES ($1, $2, $3, $4)
		RETURNING` + customerColumns

	row := r.pool.QueryRow(ctx, query, params.Email, params.FirstName, params.LastName, attrs)
	cust, err := scanCustomer(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return Customer{}, ErrDuplicateEmail
		}
		return Customer{}, fmt.Errorf("failed to create customer: %w", err)
	}
	return cust, nil
}

// GetByID returns a customer by id
func (r *PostgresCustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (Customer, error) {
	query := `SELECT` + customerColumns + `FROM customers WHERE id = $1`
	return r.queryOne(ctx, query, id)
}

// FindByEmail returns a customer by email
func (r *PostgresCustomerRepository) FindByEmail(ctx context.Context, email string) (Customer, error) {
	query := `SELECT` + customerColumns + `FROM customers WHERE email = $1`
	return r.queryOne(ctx, query, email)
}

// FindByUsername returns a customer by its username attribute
func (r *PostgresCustomerRepository) FindByUsername(ctx context.Context, username string) (Customer, error) {
	query := `SELECT` + customerColumns + `FROM customers WHERE attributes->>'username' = $1`
	return r.queryOne(ctx, query, username)
}

// FindByVerificationToken returns the customer holding a verification token
func (r *PostgresCustomerRepository) FindByVerificationToken(ctx context.Context, token string) (Customer, error) {
	query := `SELECT` + customerColumns + `FROM customers WHERE attributes->>'verification_token' = $1`
	return r.queryOne(ctx, query, token)
}

// FindByResetToken returns the customer holding a password reset token
func (r *PostgresCustomerRepository) FindByResetToken(ctx context.Context, token string) (Customer, error) {
	query := `SELECT` + customerColumns + `FROM customers WHERE attributes->>'password_reset_token' = $1`
	return r.queryOne(ctx, query, token)
}

// Update conditionally replaces the customer's attribute map
func (r *PostgresCustomerRepository) Update(ctx context.Context, id uuid.UUID, revision int64, params UpdateCustomerParams) (Customer, error) {
	attrs, err := json.Marshal(params.Attributes)
	if err != nil {
		return Customer{}, fmt.Errorf("failed to encode attributes: %w", err)
	}

	query := `
		UPDATE customers
		SET attributes = $3,
			phone      = COALESCE($4, phone),
			revision   = revision + 1,
			updated_at = now()
		WHERE id = $1 AND revision = $2
		RETURNING` + customerColumns

	row := r.pool.QueryRow(ctx, query, id, revision, attrs, params.Phone)
	cust, err := scanCustomer(row)
	if err == nil {
		return cust, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, fmt.Errorf("failed to update customer: %w", err)
	}

	// Distinguish a stale revision from a missing record.
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return Customer{}, getErr
	}
	return Customer{}, ErrRevisionMismatch
}

func (r *PostgresCustomerRepository) queryOne(ctx context.Context, query string, arg any) (Customer, error) {
	cust, err := scanCustomer(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, ErrCustomerNotFound
		}
		return Customer{}, fmt.Errorf("failed to query customer: %w", err)
	}
	return cust, nil
}

func scanCustomer(row pgx.Row) (Customer, error) {
	var cust Customer
	var attrs []byte
	err := row.Scan(
		&cust.ID,
		&cust.Email,
		&cust.FirstName,
		&cust.LastName,
		&cust.Phone,
		&attrs,
		&cust.Revision,
		&cust.CreatedAt,
		&cust.UpdatedAt,
	)
	if err != nil {
		return Customer{}, err
	}

	cust.Attributes = make(map[string]any)
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &cust.Attributes); err != nil {
			return Customer{}, fmt.Errorf("failed to decode attributes: %w", err)
		}
	}
	return cust, nil
}
