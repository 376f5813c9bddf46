package register

import (
	"github.com/tendant/simple-storefront/pkg/errors"
)

// User-facing messages
const (
	MsgPasswordMismatch  = "Passwords do not match"
	MsgRegistered        = "User successfully registered"
	MsgRegistrationError = "Registration failed, please try again"
	MsgSessionSaveFailed = "Unable to save your session, please try again"
	MsgInFlight          = "Registration already in progress"
)

var (
	// ErrPasswordMismatch is returned by Submit when the password and its confirmation differ.
	ErrPasswordMismatch = errors.New(errors.ErrCodePasswordMismatch, MsgPasswordMismatch)

	// ErrSubmissionInFlight is returned by Submit while an earlier submission is unresolved.
	ErrSubmissionInFlight = errors.New(errors.ErrCodeConflict, MsgInFlight)

	// ErrUnmounted is returned when the form was unmounted before the call resolved.
	ErrUnmounted = errors.New(errors.ErrCodeInternal, "form unmounted")

	// ErrNotConfigured is returned when a form is submitted without a registrar or session store.
	ErrNotConfigured = errors.New(errors.ErrCodeInternal, "registration form is not configured")
)
