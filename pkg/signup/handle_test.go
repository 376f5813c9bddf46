package signup

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() http.Handler {
	r := chi.NewRouter()
	Routes(r, NewHandle(NewSignupService(NewInMemoryRepository(), WithJwtSecret("test-secret"))))
	return r
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandle_RegisterUser(t *testing.T) {
	router := newTestRouter()

	rec := post(t, router, `{"username":"Ann","email":"ann@x.com","password":"p1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp RegisterResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "Ann", resp.Username)
	assert.NotEmpty(t, resp.Token)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Contains(t, raw, "_id")
	assert.Contains(t, raw, "isAdmin")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, TOKEN_COOKIE_NAME, cookies[0].Name)
	assert.Equal(t, resp.Token, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestHandle_RegisterUser_Failures(t *testing.T) {
	router := newTestRouter()
	require.Equal(t, http.StatusCreated, post(t, router, `{"username":"Ann","email":"ann@x.com","password":"p1"}`).Code)

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"duplicate", `{"username":"Ann","email":"ann@x.com","password":"p1"}`, "User already exists"},
		{"missing fields", `{"username":"Ann"}`, "Name, email and password are required"},
		{"malformed", `{"username":`, "Please check your registration information and try again"},
		{"password too long", `{"username":"Bob","email":"bob@x.com","password":"` + strings.Repeat("a", 73) + `"}`, MsgPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, router, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.message, body["message"])
		})
	}
}
