package sessions

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
)

const (
	SESSION_COOKIE_NAME = "storefront_session"
	SESSION_ID_CLAIM    = "sid"
)

// contextKey is a value for use with context.WithValue. It's used as
// a pointer so it fits in an interface{} without allocation.
type contextKey struct {
	name string
}

func (k *contextKey) String() string {
	return "storefront context value " + k.name
}

var (
	SessionKey = &contextKey{"Session"}
)

// CookieManager keeps a reference to the active session in a signed cookie.
// The cookie carries only the session id; the session itself lives in a Repository.
type CookieManager struct {
	auth     *jwtauth.JWTAuth
	Name     string
	Path     string
	HttpOnly bool
	Secure   bool
	SameSite http.SameSite
}

// CookieOption configures a CookieManager
type CookieOption func(*CookieManager)

func WithCookieName(name string) CookieOption {
	return func(m *CookieManager) {
		m.Name = name
	}
}

func WithCookieHttpOnly(httpOnly bool) CookieOption {
	return func(m *CookieManager) {
		m.HttpOnly = httpOnly
	}
}

func WithCookieSecure(secure bool) CookieOption {
	return func(m *CookieManager) {
		m.Secure = secure
	}
}

// NewCookieManager creates a cookie manager signing with HS256
func NewCookieManager(secret string, opts ...CookieOption) *CookieManager {
	m := &CookieManager{
		auth:     jwtauth.New("HS256", []byte(secret), nil),
		Name:     SESSION_COOKIE_NAME,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetCookie writes the session reference cookie
func (m *CookieManager) SetCookie(w http.ResponseWriter, session Session) error {
	claims := map[string]interface{}{
		SESSION_ID_CLAIM: session.ID.String(),
	}
	if session.UserID != "" {
		claims["sub"] = session.UserID
	}
	jwtauth.SetIssuedNow(claims)
	if !session.ExpiresAt.IsZero() {
		jwtauth.SetExpiry(claims, session.ExpiresAt)
	}

	_, tokenString, err := m.auth.Encode(claims)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.Name,
		Path:     m.Path,
		Value:    tokenString,
		Expires:  session.ExpiresAt,
		HttpOnly: m.HttpOnly,
		Secure:   m.Secure,
		SameSite: m.SameSite,
	})
	return nil
}

// ClearCookie expires the session reference cookie
func (m *CookieManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.Name,
		Path:     m.Path,
		Value:    "",
		MaxAge:   -1,
		HttpOnly: m.HttpOnly,
		Secure:   m.Secure,
	})
}

// TokenFromCookie extracts the signed session reference from the request
func (m *CookieManager) TokenFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(m.Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Verifier verifies the session cookie and stores the result on the request context.
// Requests without a valid cookie are passed through unauthenticated.
func (m *CookieManager) Verifier() func(http.Handler) http.Handler {
	return jwtauth.Verify(m.auth, m.TokenFromCookie)
}

// LoadSession resolves the verified session reference into a Session.
// Must be used after Verifier.
func (m *CookieManager) LoadSession(service *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil || token == nil {
				next.ServeHTTP(w, r)
				return
			}

			sid, _ := claims[SESSION_ID_CLAIM].(string)
			sessionID, err := uuid.Parse(sid)
			if err != nil {
				slog.Warn("invalid session id in cookie", "sid", sid, "err", err)
				m.ClearCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			session, err := service.GetSession(r.Context(), sessionID)
			if err != nil {
				slog.Debug("session cookie does not resolve", "session_id", sessionID, "err", err)
				m.ClearCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), session)))
		})
	}
}

// NewContext returns a copy of ctx carrying the session
func NewContext(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, SessionKey, session)
}

// FromContext returns the session loaded by LoadSession, if any
func FromContext(ctx context.Context) (*Session, bool) {
	session, ok := ctx.Value(SessionKey).(*Session)
	return session, ok && session != nil
}
