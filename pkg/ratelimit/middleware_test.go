package ratelimit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-storefront/pkg/errors"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestMiddleware_PerIP(t *testing.T) {
	m := NewMiddleware(&Config{
		PerIPEnabled:    true,
		PerIPCapacity:   2,
		PerIPRefillRate: 1.0 / 60.0,
		IncludeHeaders:  true,
	})
	defer m.Stop()
	h := m.Handler(okHandler)

	send := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/register", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1234").Code)
	rec := send("10.0.0.1:5678")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))

	rec = send("10.0.0.1:9999")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", body["code"])
	assert.Equal(t, MsgTooManyAttempts, body["message"])

	// another client is unaffected
	assert.Equal(t, http.StatusOK, send("10.0.0.2:1234").Code)
}

func TestMiddleware_HandlerWith(t *testing.T) {
	m := NewMiddleware(&Config{
		PerIPEnabled:    true,
		PerIPCapacity:   1,
		PerIPRefillRate: 0.5,
	})
	defer m.Stop()

	var got *errors.Error
	h := m.HandlerWith(func(w http.ResponseWriter, r *http.Request, err *errors.Error) {
		got = err
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("slow down"))
	})(okHandler)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/register", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send().Code)
	assert.Nil(t, got)

	rec := send()
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "slow down", rec.Body.String())
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	require.NotNil(t, got)
	assert.Equal(t, errors.ErrCodeRateLimitExceeded, got.Code)
	assert.Equal(t, MsgTooManyAttempts, got.Message)
	assert.Equal(t, "ip", got.Details["type"])
}

func TestMiddleware_ProxyHeaders(t *testing.T) {
	m := NewMiddleware(&Config{
		PerIPEnabled:      true,
		PerIPCapacity:     1,
		PerIPRefillRate:   0.001,
		TrustProxyHeaders: true,
	})
	defer m.Stop()

	req := httptest.NewRequest(http.MethodPost, "/register", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", m.clientIP(req))

	req = httptest.NewRequest(http.MethodPost, "/register", nil)
	req.Header.Set("X-Real-IP", " 203.0.113.8 ")
	assert.Equal(t, "203.0.113.8", m.clientIP(req))

	untrusted := NewMiddleware(&Config{})
	req.RemoteAddr = "192.0.2.1:4000"
	assert.Equal(t, "192.0.2.1", untrusted.clientIP(req))
}

func TestMiddleware_PerUser(t *testing.T) {
	auth := jwtauth.New("HS256", []byte("secret"), nil)
	_, token, err := auth.Encode(map[string]interface{}{"sub": "42"})
	require.NoError(t, err)

	m := NewMiddleware(&Config{
		PerUserEnabled:    true,
		PerUserCapacity:   1,
		PerUserRefillRate: 0.001,
		BucketTTL:         time.Hour,
	})
	defer m.Stop()
	h := jwtauth.Verifier(auth)(m.Handler(okHandler))

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/register", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send())
	assert.Equal(t, http.StatusTooManyRequests, send())
	assert.Len(t, m.userLimiter.buckets, 1)
}
