package signup

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/simple-storefront/pkg/errors"
)

const TOKEN_COOKIE_NAME = "jwt"

type Handle struct {
	service      *SignupService
	cookieSecure bool
}

type Option func(*Handle)

func WithCookieSecure(secure bool) Option {
	return func(h *Handle) {
		h.cookieSecure = secure
	}
}

func NewHandle(service *SignupService, opts ...Option) Handle {
	h := Handle{service: service}
	for _, opt := range opts {
		opt(&h)
	}
	return h
}

// RegisterUser handles POST /api/users
func (h Handle) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var request RegisterRequest
	if err := render.DecodeJSON(r.Body, &request); err != nil {
		slog.Error("Failed to decode request body", "error", err)
		h.fail(w, r, http.StatusBadRequest, "Please check your registration information and try again")
		return
	}

	resp, err := h.service.RegisterUser(r.Context(), request)
	if err != nil {
		status := http.StatusBadRequest
		if errors.GetCode(err) == errors.ErrCodeInternal {
			slog.Error("Failed to register user", "error", err)
			status = http.StatusInternalServerError
		}
		h.fail(w, r, status, errors.MessageOf(err, "Failed to register user"))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     TOKEN_COOKIE_NAME,
		Value:    resp.Token,
		Path:     "/",
		MaxAge:   int(h.service.TokenTTL().Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, resp)
}

func (h Handle) fail(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"message": message})
}

func Routes(r chi.Router, h Handle) {
	r.Post("/api/users", h.RegisterUser)
}
