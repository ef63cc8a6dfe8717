package authflow

import (
	"context"
	stderrors "errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/icomp-shop/customer-auth/pkg/customer"
	"github.com/icomp-shop/customer-auth/pkg/errors"
	"github.com/icomp-shop/customer-auth/pkg/notification"
	"github.com/icomp-shop/customer-auth/pkg/password"
	"github.com/icomp-shop/customer-auth/pkg/token"
)

// ResetTokenTTL is the validity window of a password reset token
const ResetTokenTTL = time.Hour

// GenericResetMessage is returned from ForgotPassword regardless of whether
// the email resolves to a customer. The response must never vary with
// account existence.
const GenericResetMessage = "If an account exists with this email, a password reset link has been sent"

// AuthFlowService orchestrates the customer authentication flows against the
// customer store, credential hasher, token codec, session service, and
// notification dispatcher.
type AuthFlowService struct {
	repo       customer.Repository
	sessions   *token.SessionService
	hasher     password.Hasher
	codec      *token.Codec
	dispatcher *notification.Dispatcher
	now        func() time.Time
}

// AuthFlowServiceOption is a functional option for configuring AuthFlowService
type AuthFlowServiceOption func(*AuthFlowService)

// WithHasher overrides the credential hasher
func WithHasher(h password.Hasher) AuthFlowServiceOption {
	return func(s *AuthFlowService) {
		s.hasher = h
	}
}

// WithCodec overrides the opaque token codec
func WithCodec(c *token.Codec) AuthFlowServiceOption {
	return func(s *AuthFlowService) {
		s.codec = c
	}
}

// WithDispatcher sets the notification dispatcher. Without one, verification
// and reset emails are skipped.
func WithDispatcher(d *notification.Dispatcher) AuthFlowServiceOption {
	return func(s *AuthFlowService) {
		s.dispatcher = d
	}
}

// WithClock overrides the wall clock, used by tests
func WithClock(now func() time.Time) AuthFlowServiceOption {
	return func(s *AuthFlowService) {
		s.now = now
	}
}

// NewAuthFlowService creates a new AuthFlowService
func NewAuthFlowService(repo customer.Repository, sessions *token.SessionService, opts ...AuthFlowServiceOption) *AuthFlowService {
	s := &AuthFlowService{
		repo:     repo,
		sessions: sessions,
		hasher:   password.NewScryptHasher(),
		codec:    token.NewCodec(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterParams holds a customer registration request
type RegisterParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Username  string
}

// PublicProfile is the customer projection safe to return to clients.
// Password hashes and tokens never appear here.
type PublicProfile struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
}

// LoginResult carries a minted session token and the customer's public profile
type LoginResult struct {
	Token    string
	Customer PublicProfile
}

// AddressParams is one address of a registration-completion request
type AddressParams struct {
	Company     string
	Country     string
	Street      string
	HouseNumber string
	FlatNumber  string
	PostalCode  string
	City        string
	State       string
}

// CompleteRegistrationParams holds a registration-completion request
type CompleteRegistrationParams struct {
	CustomerID            uuid.UUID
	Billing               AddressParams
	Shipping              AddressParams
	ShippingSameAsBilling bool
	MobilePhone           string
	Landline              string
}

// CompleteRegistrationResult identifies the completed customer
type CompleteRegistrationResult struct {
	ID    uuid.UUID
	Email string
}

// Register creates an unverified customer with a hashed password, assigns
// display identifiers, and dispatches a verification email best-effort.
// Email-delivery failure does not fail registration.
func (s *AuthFlowService) Register(ctx context.Context, params RegisterParams) (uuid.UUID, error) {
	if params.Email == "" || params.Password == "" || params.FirstName == "" || params.LastName == "" {
		return uuid.Nil, errors.New(errors.ErrCodeInvalidInput, "Email, password, first name, and last name are required")
	}

	_, err := s.repo.FindByEmail(ctx, params.Email)
	if err == nil {
		return uuid.Nil, errors.New(errors.ErrCodeEmailExists, "A customer with this email already exists")
	}
	if !stderrors.Is(err, customer.ErrCustomerNotFound) {
		return uuid.Nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to check existing customers")
	}

	verificationToken, err := s.codec.Issue(params.Email)
	if err != nil {
		return uuid.Nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to generate verification token")
	}

	passwordHash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return uuid.Nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to hash password")
	}

	customerNumber, err := GenerateCustomerNumber(s.now())
	if err != nil {
		return uuid.Nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to assign customer number")
	}
	watermarkID, err := GenerateWatermarkID()
	if err != nil {
		return uuid.Nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to assign watermark id")
	}

	state := customer.AuthState{
		Username:          params.Username,
		EmailVerified:     false,
		VerificationToken: verificationToken,
		PasswordHash:      passwordHash,
		CustomerNumber:    customerNumber,
		WatermarkID:       watermarkID,
	}

	attrs := state.MergeInto(nil)
	// Seeded empty here, filled in later by the order pipeline.
	attrs[customer.AttrLastP96Purchase] = nil

	created, err := s.repo.Create(ctx, customer.CreateCustomerParams{
		Email:      params.Email,
		FirstName:  params.FirstName,
		LastName:   params.LastName,
		Attributes: attrs,
	})
	if err != nil {
		if stderrors.Is(err, customer.ErrDuplicateEmail) {
			// Lost the race against a concurrent registration.
			return uuid.Nil, errors.New(errors.ErrCodeEmailExists, "A customer with this email already exists")
		}
		return uuid.Nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create customer")
	}

	s.sendVerification(created.Email, verificationToken)
	slog.Info("Customer registered", "customer_id", created.ID, "customer_number", customerNumber)
	return created.ID, nil
}

// VerifyEmail consumes a verification token: the customer becomes verified
// and the token is cleared, so a second submission of the same token fails.
func (s *AuthFlowService) VerifyEmail(ctx context.Context, verificationToken string) (uuid.UUID, error) {
	if verificationToken == "" {
		return uuid.Nil, errors.New(errors.ErrCodeInvalidInput, "Verification token is required")
	}

	cust, err := s.repo.FindByVerificationToken(ctx, verificationToken)
	if err != nil {
		if stderrors.Is(err, customer.ErrCustomerNotFound) {
			return uuid.Nil, errors.New(errors.ErrCodeNotFound, "Invalid or expired verification token")
		}
		return uuid.Nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to look up verification token")
	}

	state := cust.AuthState()
	state.EmailVerified = true
	state.VerificationToken = ""

	if _, err := s.update(ctx, cust, state, nil); err != nil {
		return uuid.Nil, err
	}

	slog.Info("Customer email verified", "customer_id", cust.ID)
	return cust.ID, nil
}

// Login authenticates by email or username and returns a session token with
// the public profile. An unverified customer is rejected with a
// distinguishable error so clients can prompt for re-verification; all other
// failures collapse into one invalid-credentials answer.
func (s *AuthFlowService) Login(ctx context.Context, identifier, plaintext string) (LoginResult, error) {
	if identifier == "" || plaintext == "" {
		return LoginResult{}, errors.New(errors.ErrCodeInvalidInput, "Email/username and password are required")
	}

	cust, err := s.repo.FindByEmail(ctx, identifier)
	if stderrors.Is(err, customer.ErrCustomerNotFound) {
		cust, err = s.repo.FindByUsername(ctx, identifier)
	}
	if err != nil {
		if stderrors.Is(err, customer.ErrCustomerNotFound) {
			return LoginResult{}, invalidCredentials()
		}
		return LoginResult{}, errors.Wrap(err, errors.ErrCodeInternal, "failed to look up customer")
	}

	state := cust.AuthState()
	if !state.EmailVerified {
		return LoginResult{}, errors.New(errors.ErrCodeEmailNotVerified, "Please verify your email before logging in")
	}
	if state.PasswordHash == "" {
		return LoginResult{}, invalidCredentials()
	}

	match, err := s.hasher.Verify(plaintext, state.PasswordHash)
	if err != nil {
		slog.Error("Password verification failed", "customer_id", cust.ID, "err", err)
		return LoginResult{}, invalidCredentials()
	}
	if !match {
		return LoginResult{}, invalidCredentials()
	}

	sessionToken, _, err := s.sessions.Generate(cust.ID.String())
	if err != nil {
		return LoginResult{}, errors.Wrap(err, errors.ErrCodeInternal, "failed to generate session token")
	}

	slog.Info("Customer logged in", "customer_id", cust.ID)
	return LoginResult{
		Token:    sessionToken,
		Customer: publicProfile(cust),
	}, nil
}

// ForgotPassword opens a one-hour reset window and dispatches a reset email.
// The outcome is identical whether or not the email belongs to a customer.
func (s *AuthFlowService) ForgotPassword(ctx context.Context, email string) error {
	if email == "" {
		return errors.New(errors.ErrCodeInvalidInput, "Email is required")
	}

	cust, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if stderrors.Is(err, customer.ErrCustomerNotFound) {
			// Intentionally indistinguishable from the found case.
			return nil
		}
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to look up customer")
	}

	resetToken, err := s.codec.Issue(cust.ID.String(), email)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to generate reset token")
	}

	state := cust.AuthState()
	state.PasswordResetToken = resetToken
	state.PasswordResetExpires = s.now().Add(ResetTokenTTL)

	if _, err := s.update(ctx, cust, state, nil); err != nil {
		return err
	}

	s.sendPasswordReset(cust.Email, resetToken)
	slog.Info("Password reset requested", "customer_id", cust.ID)
	return nil
}

// ResetPassword consumes a reset token: the password hash is replaced and
// both reset fields are cleared in a single write. A token is valid only
// while now < expiry.
func (s *AuthFlowService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if resetToken == "" || newPassword == "" {
		return errors.New(errors.ErrCodeInvalidInput, "Token and password are required")
	}

	cust, err := s.repo.FindByResetToken(ctx, resetToken)
	if err != nil {
		if stderrors.Is(err, customer.ErrCustomerNotFound) {
			return errors.New(errors.ErrCodeNotFound, "Invalid or expired reset token")
		}
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to look up reset token")
	}

	state := cust.AuthState()
	if !state.PasswordResetExpires.IsZero() && !s.now().Before(state.PasswordResetExpires) {
		return errors.New(errors.ErrCodeTokenExpired, "Reset token has expired")
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to hash password")
	}

	state.PasswordHash = passwordHash
	state.PasswordResetToken = ""
	state.PasswordResetExpires = time.Time{}

	if _, err := s.update(ctx, cust, state, nil); err != nil {
		return err
	}

	slog.Info("Password reset completed", "customer_id", cust.ID)
	return nil
}

// CompleteRegistration stores billing and shipping addresses and marks the
// customer profile complete.
//
// Two storefront quirks are kept on purpose because downstream consumers
// depend on the stored shapes: each address takes its first_name from the
// first word of its street line, and with shippingSameAsBilling the billing
// address_1 is overwritten by the shipping street while the shipping record
// reuses the rest of the billing fields.
func (s *AuthFlowService) CompleteRegistration(ctx context.Context, params CompleteRegistrationParams) (CompleteRegistrationResult, error) {
	if params.CustomerID == uuid.Nil {
		return CompleteRegistrationResult{}, errors.New(errors.ErrCodeInvalidInput, "Customer ID is required")
	}

	cust, err := s.repo.GetByID(ctx, params.CustomerID)
	if err != nil {
		if stderrors.Is(err, customer.ErrCustomerNotFound) {
			return CompleteRegistrationResult{}, errors.New(errors.ErrCodeCustomerNotFound, "Customer not found")
		}
		return CompleteRegistrationResult{}, errors.Wrap(err, errors.ErrCodeInternal, "failed to retrieve customer")
	}

	billing := buildAddress(params.Billing, cust, params.MobilePhone, params.Landline)
	if params.ShippingSameAsBilling {
		billing.Address1 = params.Shipping.Street
	}

	shipping := billing
	if !params.ShippingSameAsBilling {
		shipping = buildAddress(params.Shipping, cust, params.MobilePhone, params.Landline)
	}

	state := cust.AuthState()
	state.BillingAddress = &billing
	state.ShippingAddress = &shipping
	state.RegistrationComplete = true
	state.Landline = params.Landline

	var phone *string
	if params.MobilePhone != "" {
		phone = &params.MobilePhone
	}

	if _, err := s.update(ctx, cust, state, phone); err != nil {
		return CompleteRegistrationResult{}, err
	}

	slog.Info("Customer registration completed", "customer_id", cust.ID)
	return CompleteRegistrationResult{ID: cust.ID, Email: cust.Email}, nil
}

// GetProfile returns the public profile for a customer id
func (s *AuthFlowService) GetProfile(ctx context.Context, id uuid.UUID) (PublicProfile, error) {
	cust, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, customer.ErrCustomerNotFound) {
			return PublicProfile{}, errors.New(errors.ErrCodeCustomerNotFound, "Customer not found")
		}
		return PublicProfile{}, errors.Wrap(err, errors.ErrCodeInternal, "failed to retrieve customer")
	}
	return publicProfile(cust), nil
}

// update performs the single conditional write backing every mutation
func (s *AuthFlowService) update(ctx context.Context, cust customer.Customer, state customer.AuthState, phone *string) (customer.Customer, error) {
	updated, err := s.repo.Update(ctx, cust.ID, cust.Revision, customer.UpdateCustomerParams{
		Phone:      phone,
		Attributes: state.MergeInto(cust.Attributes),
	})
	if err != nil {
		return customer.Customer{}, errors.Wrap(err, errors.ErrCodeInternal, "failed to update customer")
	}
	return updated, nil
}

func (s *AuthFlowService) sendVerification(email, verificationToken string) {
	if s.dispatcher == nil {
		slog.Warn("No dispatcher configured, skipping verification email", "to", email)
		return
	}
	s.dispatcher.SendVerification(email, verificationToken)
}

func (s *AuthFlowService) sendPasswordReset(email, resetToken string) {
	if s.dispatcher == nil {
		slog.Warn("No dispatcher configured, skipping password reset email", "to", email)
		return
	}
	s.dispatcher.SendPasswordReset(email, resetToken)
}

func invalidCredentials() *errors.Error {
	return errors.New(errors.ErrCodeInvalidCredentials, "Invalid email/username or password")
}

func publicProfile(cust customer.Customer) PublicProfile {
	return PublicProfile{
		ID:        cust.ID,
		Email:     cust.Email,
		FirstName: cust.FirstName,
		LastName:  cust.LastName,
	}
}

// buildAddress converts a raw address into the stored record. first_name is
// synthesized from the first word of the street line, falling back to the
// customer's first name, then empty.
func buildAddress(in AddressParams, cust customer.Customer, mobilePhone, landline string) customer.Address {
	firstName := firstStreetWord(in.Street)
	if firstName == "" {
		firstName = cust.FirstName
	}

	phone := mobilePhone
	if phone == "" {
		phone = landline
	}

	return customer.Address{
		FirstName:   firstName,
		LastName:    cust.LastName,
		Address1:    in.Street,
		Address2:    in.FlatNumber,
		City:        in.City,
		CountryCode: in.Country,
		PostalCode:  in.PostalCode,
		Province:    in.State,
		Phone:       phone,
		Company:     in.Company,
	}
}

func firstStreetWord(street string) string {
	fields := strings.Fields(street)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
