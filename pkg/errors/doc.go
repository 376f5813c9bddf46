// Package errors provides structured error handling with error codes for simple-storefront.
//
// Every error that can reach a user carries a code and a human-readable message,
// so callers never have to guess at the shape of an upstream failure.
//
// # Basic Usage
//
//	import "github.com/tendant/simple-storefront/pkg/errors"
//
//	// Create a simple error
//	err := errors.New(errors.ErrCodeUserAlreadyExists, "User already exists")
//
//	// Wrap an existing error
//	err := errors.Wrap(netErr, errors.ErrCodeUpstreamFailure, "Registration failed, please try again")
//
// # Inspecting Errors
//
//	if errors.IsCode(err, errors.ErrCodeUserAlreadyExists) {
//		// show a "log in instead" hint
//	}
//
//	// Always returns a non-empty message
//	msg := errors.MessageOf(err, "Something went wrong")
//
// # HTTP Mapping
//
//	status := errors.MapErrorCodeToHTTPStatus(errors.GetCode(err))
//
//	// Remote status codes map back onto error codes
//	code := errors.FromHTTPStatus(resp.StatusCode)
package errors
