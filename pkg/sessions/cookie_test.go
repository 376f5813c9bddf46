package sessions

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(cookies *CookieManager, svc *Service, seen **Session) http.Handler {
	r := chi.NewRouter()
	r.Use(cookies.Verifier())
	r.Use(cookies.LoadSession(svc))
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		session, _ := FromContext(r.Context())
		*seen = session
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestCookieManager_RoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewInMemoryRepository())
	cookies := NewCookieManager("test-secret")

	created, err := svc.CreateSession(ctx, Session{UserID: "42", Name: "Ann"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, cookies.SetCookie(rec, *created))
	cookie := sessionCookie(t, rec, SESSION_COOKIE_NAME)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	var seen *Session
	router := newTestRouter(cookies, svc, &seen)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	router.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, seen)
	assert.Equal(t, created.ID, seen.ID)
	assert.Equal(t, "Ann", seen.Name)
}

func TestCookieManager_RoundTripWithoutUserID(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewInMemoryRepository())
	cookies := NewCookieManager("test-secret")

	created, err := svc.CreateSession(ctx, Session{Token: "abc"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, cookies.SetCookie(rec, *created))
	cookie := sessionCookie(t, rec, SESSION_COOKIE_NAME)
	require.NotNil(t, cookie)

	var seen *Session
	router := newTestRouter(cookies, svc, &seen)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	router.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, seen)
	assert.Equal(t, created.ID, seen.ID)
	assert.Equal(t, "abc", seen.Token)
}

func TestCookieManager_NoCookie(t *testing.T) {
	svc := NewService(NewInMemoryRepository())
	cookies := NewCookieManager("test-secret")

	var seen *Session
	router := newTestRouter(cookies, svc, &seen)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, seen)
}

func TestCookieManager_ForeignSignature(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewInMemoryRepository())
	created, err := svc.CreateSession(ctx, Session{UserID: "42"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, NewCookieManager("other-secret").SetCookie(rec, *created))

	var seen *Session
	router := newTestRouter(NewCookieManager("test-secret"), svc, &seen)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(sessionCookie(t, rec, SESSION_COOKIE_NAME))
	router.ServeHTTP(httptest.NewRecorder(), req)

	assert.Nil(t, seen)
}

func TestCookieManager_StaleSessionClearsCookie(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewInMemoryRepository())
	cookies := NewCookieManager("test-secret")

	created, err := svc.CreateSession(ctx, Session{UserID: "42"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, cookies.SetCookie(rec, *created))
	require.NoError(t, svc.DeleteSession(ctx, created.ID))

	var seen *Session
	router := newTestRouter(cookies, svc, &seen)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(sessionCookie(t, rec, SESSION_COOKIE_NAME))
	out := httptest.NewRecorder()
	router.ServeHTTP(out, req)

	assert.Nil(t, seen)
	cleared := sessionCookie(t, out, SESSION_COOKIE_NAME)
	require.NotNil(t, cleared)
	assert.Equal(t, "", cleared.Value)
	assert.True(t, cleared.MaxAge < 0)
}
