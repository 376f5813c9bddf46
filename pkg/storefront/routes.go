package storefront

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts the storefront pages and the registration endpoints on r.
func Routes(r chi.Router, h *Handle) {
	r.Group(func(r chi.Router) {
		r.Use(h.cookies.Verifier(), h.cookies.LoadSession(h.sessions))

		r.Get("/", h.Landing)
		r.Get("/register", h.RegisterPage)

		// both groups share the limiter's buckets
		r.Group(func(r chi.Router) {
			if h.auditor != nil {
				r.Use(h.auditor.Handler)
			}
			if h.limiter != nil {
				r.Use(h.limiter.HandlerWith(h.formRateLimited))
			}
			r.Post("/register", h.SubmitRegister)
		})
		r.Group(func(r chi.Router) {
			if h.auditor != nil {
				r.Use(h.auditor.Handler)
			}
			if h.limiter != nil {
				r.Use(h.limiter.HandlerWith(h.apiRateLimited))
			}
			r.Post("/api/register", h.SubmitRegisterJSON)
		})
	})
}
