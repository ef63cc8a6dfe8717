package customer

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthStateRoundTrip(t *testing.T) {
	expires := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	state := AuthState{
		Username:             "annlee",
		EmailVerified:        true,
		PasswordHash:         "abcd:ef01",
		PasswordResetToken:   "reset-token",
		PasswordResetExpires: expires,
		BillingAddress: &Address{
			FirstName:   "Hauptstrasse",
			LastName:    "Lee",
			Address1:    "Hauptstrasse 1",
			City:        "Berlin",
			CountryCode: "de",
			PostalCode:  "10115",
		},
		RegistrationComplete: true,
		CustomerNumber:       "CUST-20260301-00042",
		WatermarkID:          "WM-DEADBEEF",
		Landline:             "+49301234567",
	}

	attrs := state.MergeInto(map[string]any{"loyalty_tier": "gold"})

	// Fields the auth flows do not own survive the merge.
	assert.Equal(t, "gold", attrs["loyalty_tier"])
	// Cleared fields are absent, not empty.
	assert.NotContains(t, attrs, AttrVerificationToken)

	decoded := AuthStateFromAttributes(attrs)
	assert.Equal(t, state.Username, decoded.Username)
	assert.True(t, decoded.EmailVerified)
	assert.Equal(t, state.PasswordHash, decoded.PasswordHash)
	assert.Equal(t, state.PasswordResetToken, decoded.PasswordResetToken)
	assert.True(t, expires.Equal(decoded.PasswordResetExpires))
	require.NotNil(t, decoded.BillingAddress)
	assert.Equal(t, *state.BillingAddress, *decoded.BillingAddress)
	assert.Nil(t, decoded.ShippingAddress)
	assert.True(t, decoded.RegistrationComplete)
	assert.Equal(t, state.CustomerNumber, decoded.CustomerNumber)
	assert.Equal(t, state.WatermarkID, decoded.WatermarkID)
	assert.Equal(t, state.Landline, decoded.Landline)
}

func TestAuthStateSurvivesJSONStorage(t *testing.T) {
	state := AuthState{
		EmailVerified: false,
		ShippingAddress: &Address{
			Address1:   "Ringstrasse 7",
			City:       "Aachen",
			PostalCode: "52062",
		},
	}

	attrs := state.MergeInto(nil)

	// Simulate a JSONB round trip through the store.
	data, err := json.Marshal(attrs)
	require.NoError(t, err)
	var stored map[string]any
	require.NoError(t, json.Unmarshal(data, &stored))

	decoded := AuthStateFromAttributes(stored)
	require.NotNil(t, decoded.ShippingAddress)
	assert.Equal(t, "Ringstrasse 7", decoded.ShippingAddress.Address1)
	assert.Equal(t, "Aachen", decoded.ShippingAddress.City)
	assert.False(t, decoded.EmailVerified)
}

func TestAuthStateFromForeignTypedAttributes(t *testing.T) {
	attrs := map[string]any{
		AttrEmailVerified:      "yes", // wrong type, treated as unset
		AttrVerificationToken:  42,
		AttrBillingAddress:     "not an address",
		AttrPasswordResetToken: "tok",
	}

	state := AuthStateFromAttributes(attrs)
	assert.False(t, state.EmailVerified)
	assert.Empty(t, state.VerificationToken)
	assert.Nil(t, state.BillingAddress)
	assert.Equal(t, "tok", state.PasswordResetToken)
}

func TestMergeIntoDoesNotMutateInput(t *testing.T) {
	original := map[string]any{AttrPasswordHash: "old"}
	state := AuthState{PasswordHash: "new"}

	merged := state.MergeInto(original)
	assert.Equal(t, "old", original[AttrPasswordHash])
	assert.Equal(t, "new", merged[AttrPasswordHash])
}
