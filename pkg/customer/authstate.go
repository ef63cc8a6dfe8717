package customer

import (
	"encoding/json"
	"time"
)

// AuthState is the typed view of the authentication fields carried in a
// customer's attribute map. Reading tolerates missing or foreign-typed
// values; writing through MergeInto keeps every attribute the auth flows do
// not own untouched.
type AuthState struct {
	Username             string
	EmailVerified        bool
	VerificationToken    string
	PasswordHash         string
	PasswordResetToken   string
	PasswordResetExpires time.Time // zero when no reset window is open
	BillingAddress       *Address
	ShippingAddress      *Address
	RegistrationComplete bool
	CustomerNumber       string
	WatermarkID          string
	Landline             string
}

// AuthStateFromAttributes decodes the auth state out of an attribute map
func AuthStateFromAttributes(attrs map[string]any) AuthState {
	state := AuthState{
		Username:             stringAttr(attrs, AttrUsername),
		EmailVerified:        boolAttr(attrs, AttrEmailVerified),
		VerificationToken:    stringAttr(attrs, AttrVerificationToken),
		PasswordHash:         stringAttr(attrs, AttrPasswordHash),
		PasswordResetToken:   stringAttr(attrs, AttrPasswordResetToken),
		RegistrationComplete: boolAttr(attrs, AttrRegistrationComplete),
		CustomerNumber:       stringAttr(attrs, AttrCustomerNumber),
		WatermarkID:          stringAttr(attrs, AttrWatermarkID),
		Landline:             stringAttr(attrs, AttrLandline),
	}

	if raw := stringAttr(attrs, AttrPasswordResetExpires); raw != "" {
		if expires, err := time.Parse(time.RFC3339, raw); err == nil {
			state.PasswordResetExpires = expires
		}
	}
	state.BillingAddress = addressAttr(attrs, AttrBillingAddress)
	state.ShippingAddress = addressAttr(attrs, AttrShippingAddress)
	return state
}

// MergeInto writes the auth state into a copy of the given attribute map and
// returns it. Cleared fields (empty token, closed reset window) are removed
// rather than written as empty, matching the record shape other consumers of
// the attribute map expect. The input map is never mutated.
func (s AuthState) MergeInto(attrs map[string]any) map[string]any {
	merged := make(map[string]any, len(attrs)+8)
	for k, v := range attrs {
		merged[k] = v
	}

	setOrDelete(merged, AttrUsername, s.Username)
	merged[AttrEmailVerified] = s.EmailVerified
	setOrDelete(merged, AttrVerificationToken, s.VerificationToken)
	setOrDelete(merged, AttrPasswordHash, s.PasswordHash)
	setOrDelete(merged, AttrPasswordResetToken, s.PasswordResetToken)
	setOrDelete(merged, AttrCustomerNumber, s.CustomerNumber)
	setOrDelete(merged, AttrWatermarkID, s.WatermarkID)
	setOrDelete(merged, AttrLandline, s.Landline)
	merged[AttrRegistrationComplete] = s.RegistrationComplete

	if s.PasswordResetExpires.IsZero() {
		delete(merged, AttrPasswordResetExpires)
	} else {
		merged[AttrPasswordResetExpires] = s.PasswordResetExpires.UTC().Format(time.RFC3339)
	}

	if s.BillingAddress == nil {
		delete(merged, AttrBillingAddress)
	} else {
		merged[AttrBillingAddress] = addressToMap(*s.BillingAddress)
	}
	if s.ShippingAddress == nil {
		delete(merged, AttrShippingAddress)
	} else {
		merged[AttrShippingAddress] = addressToMap(*s.ShippingAddress)
	}
	return merged
}

func setOrDelete(attrs map[string]any, key, value string) {
	if value == "" {
		delete(attrs, key)
		return
	}
	attrs[key] = value
}

func stringAttr(attrs map[string]any, key string) string {
	if v, ok := attrs[key].(string); ok {
		return v
	}
	return ""
}

func boolAttr(attrs map[string]any, key string) bool {
	if v, ok := attrs[key].(bool); ok {
		return v
	}
	return false
}

// addressAttr decodes an address attribute which may be a typed Address or,
// after a round trip through JSON storage, a plain map.
func addressAttr(attrs map[string]any, key string) *Address {
	raw, ok := attrs[key]
	if !ok || raw == nil {
		return nil
	}
	switch v := raw.(type) {
	case Address:
		addr := v
		return &addr
	case *Address:
		addr := *v
		return &addr
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		var addr Address
		if err := json.Unmarshal(data, &addr); err != nil {
			return nil
		}
		return &addr
	}
}

func addressToMap(addr Address) map[string]any {
	data, err := json.Marshal(addr)
	if err != nil {
		return map[string]any{}
	}
	out := make(map[string]any)
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]any{}
	}
	return out
}
