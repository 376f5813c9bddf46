package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "structured error with message",
			err:      New(ErrCodeUserAlreadyExists, "User already exists"),
			expected: "User already exists",
		},
		{
			name:     "structured error with empty message",
			err:      New(ErrCodeUpstreamFailure, ""),
			expected: "fallback",
		},
		{
			name:     "wrapped structured error",
			err:      fmt.Errorf("calling api: %w", New(ErrCodeConflict, "taken")),
			expected: "taken",
		},
		{
			name:     "plain error",
			err:      errors.New("boom"),
			expected: "fallback",
		},
		{
			name:     "nil error",
			err:      nil,
			expected: "fallback",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MessageOf(tt.err, "fallback"))
		})
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, ErrCodeUpstreamFailure, "Registration failed")

	assert.ErrorIs(t, err, cause)
	assert.True(t, IsCode(err, ErrCodeUpstreamFailure))
	assert.Equal(t, "[UPSTREAM_FAILURE] Registration failed: connection refused", err.Error())
	assert.Nil(t, Wrap(nil, ErrCodeInternal, "ignored"))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrCodeTimeout, GetCode(New(ErrCodeTimeout, "slow")))
	assert.Equal(t, ErrCodeInternal, GetCode(errors.New("plain")))
}

func TestFromHTTPStatus(t *testing.T) {
	tests := []struct {
		status int
		code   ErrorCode
	}{
		{http.StatusBadRequest, ErrCodeRegistrationFailed},
		{http.StatusUnprocessableEntity, ErrCodeRegistrationFailed},
		{http.StatusUnauthorized, ErrCodeUnauthorized},
		{http.StatusConflict, ErrCodeUserAlreadyExists},
		{http.StatusTooManyRequests, ErrCodeRateLimitExceeded},
		{http.StatusServiceUnavailable, ErrCodeTimeout},
		{http.StatusInternalServerError, ErrCodeUpstreamFailure},
		{http.StatusTeapot, ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.code, FromHTTPStatus(tt.status))
		})
	}
}

func TestMapErrorCodeToHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, MapErrorCodeToHTTPStatus(ErrCodePasswordMismatch))
	assert.Equal(t, http.StatusConflict, MapErrorCodeToHTTPStatus(ErrCodeUserAlreadyExists))
	assert.Equal(t, http.StatusBadGateway, MapErrorCodeToHTTPStatus(ErrCodeUpstreamFailure))
	assert.Equal(t, http.StatusInternalServerError, MapErrorCodeToHTTPStatus("UNKNOWN"))
	assert.Equal(t, http.StatusTooManyRequests, RateLimitExceeded("60").HTTPStatusCode())
}
