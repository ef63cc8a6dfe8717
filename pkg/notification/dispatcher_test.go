package notification

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherSendVerification(t *testing.T) {
	mock := &MockNotifier{}
	dispatcher := NewDispatcher(mock, "http://localhost:3000")

	dispatcher.SendVerification("a@x.com", "tok/with?chars")
	dispatcher.Flush()

	sent := mock.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, EmailVerificationNotification, sent[0].Type)
	assert.Equal(t, "a@x.com", sent[0].Data.To)
	assert.Equal(t, "Verify your email address", sent[0].Data.Subject)
	assert.Contains(t, sent[0].Data.Html, "http://localhost:3000/auth/verify-email?token=tok%2Fwith%3Fchars")
	assert.Contains(t, sent[0].Data.Text, "This link will expire in 24 hours")
}

func TestDispatcherSendPasswordReset(t *testing.T) {
	mock := &MockNotifier{}
	dispatcher := NewDispatcher(mock, "http://localhost:3000")

	dispatcher.SendPasswordReset("a@x.com", "reset-token")
	dispatcher.Flush()

	sent := mock.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, PasswordResetNotification, sent[0].Type)
	assert.Equal(t, "Reset your password", sent[0].Data.Subject)
	assert.Contains(t, sent[0].Data.Html, "/auth/reset-password?token=reset-token")
	assert.Contains(t, sent[0].Data.Text, "This link will expire in 1 hour")
}

func TestDispatcherDeliveryHook(t *testing.T) {
	sendErr := errors.New("smtp unreachable")
	mock := &MockNotifier{FailWith: sendErr}

	var mu sync.Mutex
	var hookErr error
	var hookTo string
	dispatcher := NewDispatcher(mock, "http://localhost:3000",
		WithDeliveryHook(func(_ NotificationType, to string, err error) {
			mu.Lock()
			defer mu.Unlock()
			hookTo = to
			hookErr = err
		}))

	// A failing notifier must not fail the caller.
	dispatcher.SendVerification("a@x.com", "tok")
	dispatcher.Flush()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "a@x.com", hookTo)
	assert.ErrorIs(t, hookErr, sendErr)
}
