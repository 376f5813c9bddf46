package storefront

import (
	stderrors "errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/tendant/simple-storefront/pkg/audit"
	"github.com/tendant/simple-storefront/pkg/errors"
	"github.com/tendant/simple-storefront/pkg/notification"
	"github.com/tendant/simple-storefront/pkg/ratelimit"
	"github.com/tendant/simple-storefront/pkg/register"
	"github.com/tendant/simple-storefront/pkg/sessions"
)

type Handle struct {
	registrar     register.Registrar
	sessions      *sessions.Service
	cookies       *sessions.CookieManager
	tracker       *register.Tracker
	notifications *notification.NotificationManager
	limiter       *ratelimit.Middleware
	auditor       *audit.Middleware
	logger        *slog.Logger

	welcome sync.WaitGroup
}

type Option func(*Handle)

func WithRegistrar(registrar register.Registrar) Option {
	return func(h *Handle) {
		h.registrar = registrar
	}
}

func WithSessions(service *sessions.Service, cookies *sessions.CookieManager) Option {
	return func(h *Handle) {
		h.sessions = service
		h.cookies = cookies
	}
}

func WithTracker(tracker *register.Tracker) Option {
	return func(h *Handle) {
		h.tracker = tracker
	}
}

// WithNotificationManager enables the welcome email. It is sent only when the
// manager has a welcome notice registered.
func WithNotificationManager(manager *notification.NotificationManager) Option {
	return func(h *Handle) {
		h.notifications = manager
	}
}

func WithRateLimiter(limiter *ratelimit.Middleware) Option {
	return func(h *Handle) {
		h.limiter = limiter
	}
}

// WithAuditor records every registration submit.
func WithAuditor(auditor *audit.Middleware) Option {
	return func(h *Handle) {
		h.auditor = auditor
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handle) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func NewHandle(opts ...Option) *Handle {
	h := &Handle{
		tracker: register.NewTracker(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.sessions == nil {
		h.sessions = sessions.NewService(sessions.NewInMemoryRepository())
	}
	if h.cookies == nil {
		h.cookies = sessions.NewCookieManager(uuid.NewString())
	}
	return h
}

// Wait blocks until pending welcome emails are sent.
func (h *Handle) Wait() {
	h.welcome.Wait()
}

// Landing handles GET /
func (h *Handle) Landing(w http.ResponseWriter, r *http.Request) {
	session, _ := sessions.FromContext(r.Context())
	flashes := notification.PopFlashes(w, r)
	render.HTML(w, r, renderLandingPage(session, flashes))
}

// RegisterPage handles GET /register
func (h *Handle) RegisterPage(w http.ResponseWriter, r *http.Request) {
	nav := &navigator{}
	form := register.NewForm(
		register.WithSessionStore(sessions.NewRequestStore(h.sessions, h.cookies, w, r)),
		register.WithNavigator(nav),
		register.WithRedirect(register.ResolveRedirect(r.URL.Query())),
		register.WithLogger(h.logger),
	)
	form.Mount(r.Context())
	defer form.Unmount()

	if target, ok := nav.Target(); ok {
		redirectTo(w, r, target)
		return
	}

	flashes := notification.PopFlashes(w, r)
	render.HTML(w, r, renderRegisterPage(newRegisterView(form, flashes)))
}

// submission is the outcome of one pass through the form controller.
type submission struct {
	form    *register.Form
	flash   *notification.Flash
	store   *sessions.RequestStore
	target  string
	guarded bool
	err     error
}

func (h *Handle) submit(w http.ResponseWriter, r *http.Request, formID string, fields register.Fields, redirect string) submission {
	flash := notification.NewFlash()
	nav := &navigator{}
	store := sessions.NewRequestStore(h.sessions, h.cookies, w, r)

	form := register.NewForm(
		register.WithID(formID),
		register.WithRegistrar(h.registrar),
		register.WithSessionStore(store),
		register.WithNavigator(nav),
		register.WithNotifier(flash),
		register.WithRedirect(redirect),
		register.WithFields(fields),
		register.WithLogger(h.logger),
	)
	form.Mount(r.Context())
	defer form.Unmount()

	if target, ok := nav.Target(); ok {
		return submission{form: form, flash: flash, store: store, target: target, guarded: true}
	}

	err := form.Submit(r.Context())
	if err == nil {
		h.sendWelcome(fields)
	}
	target, _ := nav.Target()
	return submission{form: form, flash: flash, store: store, target: target, err: err}
}

// SubmitRegister handles POST /register
func (h *Handle) SubmitRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		slog.Warn("Failed to parse registration form", "err", err)
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	fields := register.Fields{
		Name:            r.PostFormValue("name"),
		Email:           r.PostFormValue("email"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirmPassword"),
	}
	redirect := r.PostFormValue("redirect")
	if redirect == "" {
		redirect = register.ResolveRedirect(r.URL.Query())
	}
	formID := formInstanceID(r.PostFormValue("form_id"))

	release, ok := h.tracker.Begin(formID)
	if !ok {
		h.logger.Info("Rejecting overlapping registration submit", "form_id", formID)
		view := registerView{
			FormID:      formID,
			Fields:      fields,
			Redirect:    register.SanitizeRedirect(redirect),
			SubmitLabel: "Registering...",
			Disabled:    true,
			Flashes:     []notification.Message{{Level: notification.LevelError, Text: register.MsgInFlight}},
		}
		if isHTMX(r) {
			// the swapped fragment must stay usable once the first submit resolves
			view.SubmitLabel = "Register"
			view.Disabled = false
		}
		render.Status(r, failureStatus(r, http.StatusConflict))
		render.HTML(w, r, renderRegisterPage(view))
		return
	}
	defer release()

	result := h.submit(w, r, formID, fields, redirect)
	if result.guarded {
		redirectTo(w, r, result.target)
		return
	}

	switch {
	case result.err == nil:
		result.flash.Persist(w)
		redirectTo(w, r, result.target)
	case stderrors.Is(result.err, register.ErrUnmounted):
		h.logger.Info("Client went away during registration", "form_id", formID)
	default:
		render.Status(r, failureStatus(r, http.StatusUnprocessableEntity))
		render.HTML(w, r, renderRegisterPage(newRegisterView(result.form, result.flash.Messages())))
	}
}

// formRateLimited answers a rate limited POST /register with the form and an
// error flash, keeping Retry-After from the limiter.
func (h *Handle) formRateLimited(w http.ResponseWriter, r *http.Request, err *errors.Error) {
	if perr := r.ParseForm(); perr != nil {
		slog.Warn("Failed to parse registration form", "err", perr)
	}
	redirect := r.PostFormValue("redirect")
	if redirect == "" {
		redirect = register.ResolveRedirect(r.URL.Query())
	}

	render.Status(r, failureStatus(r, err.HTTPStatusCode()))
	render.HTML(w, r, renderRegisterPage(registerView{
		FormID:      formInstanceID(r.PostFormValue("form_id")),
		Fields:      register.Fields{Name: r.PostFormValue("name"), Email: r.PostFormValue("email")},
		Redirect:    register.SanitizeRedirect(redirect),
		SubmitLabel: "Register",
		Flashes:     []notification.Message{{Level: notification.LevelError, Text: err.Message}},
	}))
}

// apiRateLimited answers a rate limited POST /api/register in the endpoint's own shape.
func (h *Handle) apiRateLimited(w http.ResponseWriter, r *http.Request, err *errors.Error) {
	render.Status(r, err.HTTPStatusCode())
	render.JSON(w, r, registerResponse{Status: "error", Message: err.Message})
}

// failureStatus keeps htmx requests at 200, since htmx only swaps 2xx responses.
func failureStatus(r *http.Request, status int) int {
	if isHTMX(r) {
		return http.StatusOK
	}
	return status
}

type registerRequest struct {
	register.Fields
	Redirect string `json:"redirect"`
	FormID   string `json:"formId"`
}

type registerResponse struct {
	Status   string                   `json:"status"`
	Message  string                   `json:"message,omitempty"`
	Redirect string                   `json:"redirect,omitempty"`
	User     *sessions.SessionSummary `json:"user,omitempty"`
}

// SubmitRegisterJSON handles POST /api/register
func (h *Handle) SubmitRegisterJSON(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		slog.Warn("Failed to decode registration request", "err", err)
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, registerResponse{Status: "error", Message: "Invalid request body"})
		return
	}

	formID := formInstanceID(req.FormID)
	release, ok := h.tracker.Begin(formID)
	if !ok {
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, registerResponse{Status: "error", Message: register.MsgInFlight})
		return
	}
	defer release()

	result := h.submit(w, r, formID, req.Fields, req.Redirect)
	if result.guarded {
		render.JSON(w, r, registerResponse{Status: "redirect", Redirect: result.target})
		return
	}

	if result.err != nil {
		if stderrors.Is(result.err, register.ErrUnmounted) {
			h.logger.Info("Client went away during registration", "form_id", formID)
			return
		}
		render.Status(r, statusFor(result.err))
		render.JSON(w, r, registerResponse{Status: "error", Message: lastMessage(result.flash, result.err)})
		return
	}

	resp := registerResponse{
		Status:   "success",
		Message:  register.MsgRegistered,
		Redirect: result.target,
	}
	if session, ok := result.store.GetSession(r.Context()); ok {
		summary := session.Summary()
		resp.User = &summary
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, resp)
}

func (h *Handle) sendWelcome(fields register.Fields) {
	if h.notifications == nil || !h.notifications.HasNotice(notification.WelcomeNotice) {
		return
	}
	h.welcome.Add(1)
	go func() {
		defer h.welcome.Done()
		err := h.notifications.Send(notification.WelcomeNotice, notification.NotificationData{
			To: fields.Email,
			Data: map[string]string{
				"Name":  fields.Name,
				"Email": fields.Email,
			},
		})
		if err != nil {
			h.logger.Error("Failed to send welcome email", "email", fields.Email, "err", err)
		}
	}()
}

// formInstanceID keeps submissions without a form id apart from each other.
func formInstanceID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return uuid.NewString()
	}
	return id
}

func statusFor(err error) int {
	switch {
	case stderrors.Is(err, register.ErrPasswordMismatch):
		return http.StatusBadRequest
	case stderrors.Is(err, register.ErrSubmissionInFlight):
		return http.StatusConflict
	}
	return errors.MapErrorCodeToHTTPStatus(errors.GetCode(err))
}

// lastMessage returns the error notice the form raised for err.
func lastMessage(flash *notification.Flash, err error) string {
	messages := flash.Messages()
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Level == notification.LevelError {
			return messages[i].Text
		}
	}
	return errors.MessageOf(err, register.MsgRegistrationError)
}
