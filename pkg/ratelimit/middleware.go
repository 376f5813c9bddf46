package ratelimit

import (
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
	"github.com/tendant/simple-storefront/pkg/errors"
)

// Config holds the registration rate limits.
type Config struct {
	// Per client IP, across all limited routes
	PerIPEnabled    bool
	PerIPCapacity   int
	PerIPRefillRate float64 // tokens per second

	// Per signed-in user, keyed by the session's subject claim
	PerUserEnabled    bool
	PerUserCapacity   int
	PerUserRefillRate float64

	BucketTTL      time.Duration
	IncludeHeaders bool

	// TrustProxyHeaders makes X-Forwarded-For and X-Real-IP decide the client IP.
	TrustProxyHeaders bool
}

// DefaultConfig allows 5 registration attempts per IP in a burst, then one every 12 seconds.
func DefaultConfig() *Config {
	return &Config{
		PerIPEnabled:      true,
		PerIPCapacity:     5,
		PerIPRefillRate:   5.0 / 60.0,
		PerUserEnabled:    true,
		PerUserCapacity:   5,
		PerUserRefillRate: 5.0 / 60.0,
		BucketTTL:         time.Hour,
		IncludeHeaders:    true,
	}
}

type Middleware struct {
	config      *Config
	ipLimiter   *RateLimiter
	userLimiter *RateLimiter
}

func NewMiddleware(config *Config) *Middleware {
	if config == nil {
		config = DefaultConfig()
	}
	m := &Middleware{config: config}
	if config.PerIPEnabled {
		m.ipLimiter = NewRateLimiter(config.PerIPCapacity, config.PerIPRefillRate, config.BucketTTL)
	}
	if config.PerUserEnabled {
		m.userLimiter = NewRateLimiter(config.PerUserCapacity, config.PerUserRefillRate, config.BucketTTL)
	}
	return m
}

// MsgTooManyAttempts is the message shown to a client over the limit.
const MsgTooManyAttempts = "Too many registration attempts. Please try again later."

// ExceededFunc writes the response for a request over the limit. The
// Retry-After header is already set when it runs.
type ExceededFunc func(w http.ResponseWriter, r *http.Request, err *errors.Error)

// Handler rejects requests over the limit with 429 and a JSON error body.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return m.HandlerWith(writeExceededJSON)(next)
}

// HandlerWith is Handler with a custom response for rejected requests.
func (m *Middleware) HandlerWith(onExceeded ExceededFunc) func(http.Handler) http.Handler {
	if onExceeded == nil {
		onExceeded = writeExceededJSON
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := m.clientIP(r)
			if m.ipLimiter != nil && ip != "" && !m.ipLimiter.Allow(ip) {
				m.rateLimitExceeded(w, r, "ip", m.ipLimiter.RetryAfter(ip), onExceeded)
				return
			}

			userID := getUserID(r)
			if m.userLimiter != nil && userID != "" && !m.userLimiter.Allow(userID) {
				m.rateLimitExceeded(w, r, "user", m.userLimiter.RetryAfter(userID), onExceeded)
				return
			}

			if m.config.IncludeHeaders && m.ipLimiter != nil {
				w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", m.config.PerIPCapacity))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m *Middleware) rateLimitExceeded(w http.ResponseWriter, r *http.Request, limitType string, wait time.Duration, onExceeded ExceededFunc) {
	retryAfter := fmt.Sprintf("%d", int(math.Max(1, math.Ceil(wait.Seconds()))))
	slog.Warn("Rate limit exceeded",
		"type", limitType,
		"ip", m.clientIP(r),
		"user", getUserID(r),
		"path", r.URL.Path,
		"method", r.Method,
		"retry_after", retryAfter,
	)

	apiErr := errors.RateLimitExceeded(retryAfter).WithDetail("type", limitType)
	apiErr.Message = MsgTooManyAttempts
	w.Header().Set("Retry-After", retryAfter)
	onExceeded(w, r, apiErr)
}

func writeExceededJSON(w http.ResponseWriter, r *http.Request, err *errors.Error) {
	render.Status(r, err.HTTPStatusCode())
	render.JSON(w, r, map[string]interface{}{
		"status":  "error",
		"code":    err.Code,
		"message": err.Message,
		"details": err.Details,
	})
}

// Stop ends the limiters' cleanup goroutines.
func (m *Middleware) Stop() {
	if m.ipLimiter != nil {
		m.ipLimiter.Stop()
	}
	if m.userLimiter != nil {
		m.userLimiter.Stop()
	}
}

func (m *Middleware) clientIP(r *http.Request) string {
	if m.config.TrustProxyHeaders {
		// X-Forwarded-For can contain multiple IPs, the first one is the client
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			return strings.TrimSpace(strings.Split(xff, ",")[0])
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// getUserID reads the subject of a verified session token, if any.
func getUserID(r *http.Request) string {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil || claims == nil {
		return ""
	}
	if sub, ok := claims["sub"].(string); ok {
		return sub
	}
	return ""
}
