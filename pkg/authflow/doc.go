// Package authflow implements the customer authentication flows: register,
// verify email, login, forgot/reset password, and complete registration.
//
// All authentication state lives in the customer record's attribute map and
// is read and written through the typed view in pkg/customer. Each flow
// performs its reads, merges its changes into the attribute map it read, and
// commits them with a single conditional write, so a failed operation never
// leaves a partially updated record behind.
//
// Known limitations, kept deliberately: there is no rate limiting or
// brute-force protection on login or on the token-consuming endpoints.
package authflow
