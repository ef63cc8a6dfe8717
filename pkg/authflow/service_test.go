package authflow

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icomp-shop/customer-auth/pkg/customer"
	"github.com/icomp-shop/customer-auth/pkg/errors"
	"github.com/icomp-shop/customer-auth/pkg/notification"
	"github.com/icomp-shop/customer-auth/pkg/token"
)

type fixture struct {
	svc        *AuthFlowService
	repo       *customer.InMemoryCustomerRepository
	sessions   *token.SessionService
	mock       *notification.MockNotifier
	dispatcher *notification.Dispatcher
	now        time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:     customer.NewInMemoryCustomerRepository(),
		sessions: token.NewSessionService("test-secret"),
		mock:     &notification.MockNotifier{},
		now:      time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
	}
	f.dispatcher = notification.NewDispatcher(f.mock, "http://localhost:3000")
	f.svc = NewAuthFlowService(f.repo, f.sessions,
		WithDispatcher(f.dispatcher),
		WithClock(func() time.Time { return f.now }),
	)
	return f
}

func (f *fixture) register(t *testing.T, email, plaintext string) uuid.UUID {
	t.Helper()
	id, err := f.svc.Register(context.Background(), RegisterParams{
		Email:     email,
		Password:  plaintext,
		FirstName: "Ann",
		LastName:  "Lee",
	})
	require.NoError(t, err)
	return id
}

func (f *fixture) authState(t *testing.T, id uuid.UUID) customer.AuthState {
	t.Helper()
	cust, err := f.repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	return cust.AuthState()
}

func (f *fixture) verify(t *testing.T, id uuid.UUID) {
	t.Helper()
	verifiedID, err := f.svc.VerifyEmail(context.Background(), f.authState(t, id).VerificationToken)
	require.NoError(t, err)
	require.Equal(t, id, verifiedID)
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		id := f.register(t, "a@x.com", "Pw1!")

		state := f.authState(t, id)
		assert.False(t, state.EmailVerified)
		assert.NotEmpty(t, state.PasswordHash)
		assert.NotEqual(t, "Pw1!", state.PasswordHash)
		assert.NotEmpty(t, state.VerificationToken)
		assert.Regexp(t, `^CUST-20260831-\d{5}$`, state.CustomerNumber)
		assert.Regexp(t, `^WM-[0-9A-F]{8}$`, state.WatermarkID)
		assert.False(t, state.RegistrationComplete)

		cust, err := f.repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Contains(t, cust.Attributes, customer.AttrLastP96Purchase)

		f.dispatcher.Flush()
		sent := f.mock.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, notification.EmailVerificationNotification, sent[0].Type)
		assert.Equal(t, "a@x.com", sent[0].Data.To)
		assert.Contains(t, sent[0].Data.Html, state.VerificationToken)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		_, err := f.svc.Register(ctx, RegisterParams{
			Email: "a@x.com", Password: "Other1!", FirstName: "Bob", LastName: "Mann",
		})
		assert.True(t, errors.IsCode(err, errors.ErrCodeEmailExists))
	})

	t.Run("MissingFields", func(t *testing.T) {
		_, err := f.svc.Register(ctx, RegisterParams{Email: "b@x.com", Password: "Pw1!"})
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInput))
	})

	t.Run("UsernameIndexed", func(t *testing.T) {
		_, err := f.svc.Register(ctx, RegisterParams{
			Email: "c@x.com", Password: "Pw1!", FirstName: "Cleo", LastName: "Nile", Username: "cleon",
		})
		require.NoError(t, err)

		cust, err := f.repo.FindByUsername(ctx, "cleon")
		require.NoError(t, err)
		assert.Equal(t, "c@x.com", cust.Email)
	})

	t.Run("EmailFailureStillRegisters", func(t *testing.T) {
		f.mock.FailWith = assert.AnError
		defer func() { f.mock.FailWith = nil }()

		id, err := f.svc.Register(ctx, RegisterParams{
			Email: "d@x.com", Password: "Pw1!", FirstName: "Dee", LastName: "Lite",
		})
		f.dispatcher.Flush()
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, id)
	})
}

func TestVerifyEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.register(t, "a@x.com", "Pw1!")
	verificationToken := f.authState(t, id).VerificationToken

	t.Run("UnknownToken", func(t *testing.T) {
		_, err := f.svc.VerifyEmail(ctx, "no-such-token")
		assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
	})

	t.Run("MissingToken", func(t *testing.T) {
		_, err := f.svc.VerifyEmail(ctx, "")
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInput))
	})

	t.Run("ConsumesToken", func(t *testing.T) {
		verifiedID, err := f.svc.VerifyEmail(ctx, verificationToken)
		require.NoError(t, err)
		assert.Equal(t, id, verifiedID)

		state := f.authState(t, id)
		assert.True(t, state.EmailVerified)
		assert.Empty(t, state.VerificationToken)
	})

	t.Run("SecondUseFails", func(t *testing.T) {
		_, err := f.svc.VerifyEmail(ctx, verificationToken)
		assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
	})
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.register(t, "a@x.com", "Pw1!")

	t.Run("UnverifiedIsForbidden", func(t *testing.T) {
		_, err := f.svc.Login(ctx, "a@x.com", "Pw1!")
		assert.True(t, errors.IsCode(err, errors.ErrCodeEmailNotVerified))
	})

	f.verify(t, id)

	t.Run("Success", func(t *testing.T) {
		result, err := f.svc.Login(ctx, "a@x.com", "Pw1!")
		require.NoError(t, err)
		assert.Equal(t, id, result.Customer.ID)
		assert.Equal(t, "a@x.com", result.Customer.Email)
		assert.Equal(t, "Ann", result.Customer.FirstName)
		assert.Equal(t, "Lee", result.Customer.LastName)

		claims, err := f.sessions.Parse(result.Token)
		require.NoError(t, err)
		assert.Equal(t, id.String(), claims.EntityID)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		_, err := f.svc.Login(ctx, "a@x.com", "wrong")
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidCredentials))
	})

	t.Run("UnknownIdentifier", func(t *testing.T) {
		_, err := f.svc.Login(ctx, "nobody@x.com", "Pw1!")
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidCredentials))
	})

	t.Run("MissingFields", func(t *testing.T) {
		_, err := f.svc.Login(ctx, "a@x.com", "")
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInput))
	})

	t.Run("UsernameFallback", func(t *testing.T) {
		userID, err := f.svc.Register(ctx, RegisterParams{
			Email: "b@x.com", Password: "Pw2!", FirstName: "Bea", LastName: "Orr", Username: "beaorr",
		})
		require.NoError(t, err)
		f.verify(t, userID)

		result, err := f.svc.Login(ctx, "beaorr", "Pw2!")
		require.NoError(t, err)
		assert.Equal(t, "b@x.com", result.Customer.Email)
	})
}

func TestForgotPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.register(t, "a@x.com", "Pw1!")
	f.dispatcher.Flush()
	registeredEmails := len(f.mock.Sent())

	t.Run("UnknownEmailSucceedsQuietly", func(t *testing.T) {
		err := f.svc.ForgotPassword(ctx, "missing@x.com")
		require.NoError(t, err)

		f.dispatcher.Flush()
		assert.Len(t, f.mock.Sent(), registeredEmails, "no email may be sent for unknown addresses")
	})

	t.Run("MissingEmail", func(t *testing.T) {
		err := f.svc.ForgotPassword(ctx, "")
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInput))
	})

	t.Run("OpensResetWindow", func(t *testing.T) {
		err := f.svc.ForgotPassword(ctx, "a@x.com")
		require.NoError(t, err)

		state := f.authState(t, id)
		assert.NotEmpty(t, state.PasswordResetToken)
		assert.True(t, f.now.Add(ResetTokenTTL).Equal(state.PasswordResetExpires))

		f.dispatcher.Flush()
		sent := f.mock.Sent()
		require.Len(t, sent, registeredEmails+1)
		last := sent[len(sent)-1]
		assert.Equal(t, notification.PasswordResetNotification, last.Type)
		assert.Contains(t, last.Data.Html, state.PasswordResetToken)
	})

	t.Run("ReissueOverwritesToken", func(t *testing.T) {
		before := f.authState(t, id).PasswordResetToken
		require.NoError(t, f.svc.ForgotPassword(ctx, "a@x.com"))

		after := f.authState(t, id).PasswordResetToken
		assert.NotEqual(t, before, after)

		// The superseded token no longer resolves.
		_, err := f.repo.FindByResetToken(ctx, before)
		assert.ErrorIs(t, err, customer.ErrCustomerNotFound)
	})
}

func TestResetPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.register(t, "a@x.com", "Pw1!")
	f.verify(t, id)

	t.Run("UnknownToken", func(t *testing.T) {
		err := f.svc.ResetPassword(ctx, "garbage-token", "NewPw1!")
		assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
	})

	t.Run("MissingFields", func(t *testing.T) {
		err := f.svc.ResetPassword(ctx, "", "NewPw1!")
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInput))
	})

	t.Run("ExpiredAtBoundary", func(t *testing.T) {
		require.NoError(t, f.svc.ForgotPassword(ctx, "a@x.com"))
		resetToken := f.authState(t, id).PasswordResetToken

		// The token is valid only while now < expires.
		f.now = f.now.Add(ResetTokenTTL)
		err := f.svc.ResetPassword(ctx, resetToken, "NewPw1!")
		assert.True(t, errors.IsCode(err, errors.ErrCodeTokenExpired))
	})

	t.Run("Success", func(t *testing.T) {
		require.NoError(t, f.svc.ForgotPassword(ctx, "a@x.com"))
		resetToken := f.authState(t, id).PasswordResetToken

		require.NoError(t, f.svc.ResetPassword(ctx, resetToken, "NewPw1!"))

		state := f.authState(t, id)
		assert.Empty(t, state.PasswordResetToken)
		assert.True(t, state.PasswordResetExpires.IsZero())

		_, err := f.svc.Login(ctx, "a@x.com", "Pw1!")
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidCredentials), "old password must stop working")

		_, err = f.svc.Login(ctx, "a@x.com", "NewPw1!")
		assert.NoError(t, err)

		// Consumed token is gone.
		err = f.svc.ResetPassword(ctx, resetToken, "YetAnother1!")
		assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
	})
}

func TestCompleteRegistration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	billing := AddressParams{
		Company:     "Individual Computers",
		Country:     "de",
		Street:      "Hauptstrasse 12",
		HouseNumber: "12",
		FlatNumber:  "3a",
		PostalCode:  "52062",
		City:        "Aachen",
		State:       "NRW",
	}
	shipping := AddressParams{
		Country:    "de",
		Street:     "Ringstrasse 7",
		PostalCode: "10115",
		City:       "Berlin",
		State:      "BE",
	}

	t.Run("UnknownCustomer", func(t *testing.T) {
		_, err := f.svc.CompleteRegistration(ctx, CompleteRegistrationParams{CustomerID: uuid.New()})
		assert.True(t, errors.IsCode(err, errors.ErrCodeCustomerNotFound))
	})

	t.Run("MissingCustomerID", func(t *testing.T) {
		_, err := f.svc.CompleteRegistration(ctx, CompleteRegistrationParams{})
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInput))
	})

	t.Run("SeparateAddresses", func(t *testing.T) {
		id := f.register(t, "a@x.com", "Pw1!")

		result, err := f.svc.CompleteRegistration(ctx, CompleteRegistrationParams{
			CustomerID:  id,
			Billing:     billing,
			Shipping:    shipping,
			MobilePhone: "+4915112345678",
			Landline:    "+49241123456",
		})
		require.NoError(t, err)
		assert.Equal(t, id, result.ID)
		assert.Equal(t, "a@x.com", result.Email)

		state := f.authState(t, id)
		require.NotNil(t, state.BillingAddress)
		require.NotNil(t, state.ShippingAddress)
		assert.True(t, state.RegistrationComplete)
		assert.Equal(t, "+49241123456", state.Landline)

		// first_name is synthesized from the street line.
		assert.Equal(t, "Hauptstrasse", state.BillingAddress.FirstName)
		assert.Equal(t, "Ringstrasse", state.ShippingAddress.FirstName)
		assert.Equal(t, "Lee", state.BillingAddress.LastName)
		assert.Equal(t, "Hauptstrasse 12", state.BillingAddress.Address1)
		assert.Equal(t, "Ringstrasse 7", state.ShippingAddress.Address1)
		assert.Equal(t, "3a", state.BillingAddress.Address2)
		assert.Equal(t, "+4915112345678", state.BillingAddress.Phone)

		cust, err := f.repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "+4915112345678", cust.Phone)
	})

	t.Run("ShippingSameAsBilling", func(t *testing.T) {
		id := f.register(t, "b@x.com", "Pw1!")

		_, err := f.svc.CompleteRegistration(ctx, CompleteRegistrationParams{
			CustomerID:            id,
			Billing:               billing,
			Shipping:              shipping,
			ShippingSameAsBilling: true,
			MobilePhone:           "+4915112345678",
		})
		require.NoError(t, err)

		state := f.authState(t, id)
		require.NotNil(t, state.BillingAddress)
		require.NotNil(t, state.ShippingAddress)

		// Billing address_1 is overwritten by the shipping street; the rest
		// of the shipping record reuses the billing fields.
		assert.Equal(t, "Ringstrasse 7", state.BillingAddress.Address1)
		assert.Equal(t, *state.BillingAddress, *state.ShippingAddress)
		assert.Equal(t, "Aachen", state.ShippingAddress.City)
		assert.Equal(t, "52062", state.ShippingAddress.PostalCode)
	})

	t.Run("LandlineFallbackForAddressPhone", func(t *testing.T) {
		id := f.register(t, "c@x.com", "Pw1!")

		_, err := f.svc.CompleteRegistration(ctx, CompleteRegistrationParams{
			CustomerID: id,
			Billing:    billing,
			Shipping:   shipping,
			Landline:   "+49241123456",
		})
		require.NoError(t, err)

		state := f.authState(t, id)
		assert.Equal(t, "+49241123456", state.BillingAddress.Phone)

		cust, err := f.repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, cust.Phone, "customer phone is only set from the mobile number")
	})

	t.Run("EmptyStreetFallsBackToFirstName", func(t *testing.T) {
		id := f.register(t, "d@x.com", "Pw1!")

		_, err := f.svc.CompleteRegistration(ctx, CompleteRegistrationParams{
			CustomerID: id,
			Billing:    AddressParams{Street: "   ", City: "Aachen"},
			Shipping:   shipping,
		})
		require.NoError(t, err)

		state := f.authState(t, id)
		assert.Equal(t, "Ann", state.BillingAddress.FirstName)
	})
}

func TestRegisterVerifyLoginScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.Register(ctx, RegisterParams{
		Email: "a@x.com", Password: "Pw1!", FirstName: "Ann", LastName: "Lee",
	})
	require.NoError(t, err)

	f.dispatcher.Flush()
	sent := f.mock.Sent()
	require.Len(t, sent, 1)

	// The link in the email carries the stored verification token.
	verificationToken := f.authState(t, id).VerificationToken
	assert.True(t, strings.Contains(sent[0].Data.Text, verificationToken))

	verifiedID, err := f.svc.VerifyEmail(ctx, verificationToken)
	require.NoError(t, err)
	assert.Equal(t, id, verifiedID)

	result, err := f.svc.Login(ctx, "a@x.com", "Pw1!")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, PublicProfile{
		ID:        id,
		Email:     "a@x.com",
		FirstName: "Ann",
		LastName:  "Lee",
	}, result.Customer)
}
