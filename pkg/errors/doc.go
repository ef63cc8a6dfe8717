// Package errors provides structured error handling with error codes for the
// customer authentication service.
//
// Every flow operation returns either nil or a *Error carrying one of the
// typed error codes below, so HTTP handlers can map failures to status codes
// without string matching. Underlying causes are wrapped and stay available
// through errors.Is and errors.As, but are never serialized to clients.
//
// Creating errors:
//
//	err := errors.New(errors.ErrCodeCustomerNotFound, "customer not found")
//	err := errors.Wrap(dbErr, errors.ErrCodeInternal, "failed to update customer")
//
// Inspecting errors:
//
//	if errors.IsCode(err, errors.ErrCodeTokenExpired) { ... }
//	status := errors.MapErrorCodeToHTTPStatus(errors.GetCode(err))
package errors
