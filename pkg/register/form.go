package register

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/tendant/simple-storefront/pkg/errors"
	"github.com/tendant/simple-storefront/pkg/sessions"
)

// Form is the registration form controller. It is safe for concurrent use.
type Form struct {
	id        string
	registrar Registrar
	store     SessionStore
	navigator Navigator
	notifier  Notifier
	logger    *slog.Logger
	listeners []func(State)

	mu        sync.Mutex
	fields    Fields
	redirect  string
	state     State
	mounted   bool
	unmounted bool

	// last target handed to the navigator
	navigatedTo string

	lifetime  context.Context
	cancel    context.CancelFunc
	stopMount func() bool
}

// Option configures a Form
type Option func(*Form)

func WithRegistrar(registrar Registrar) Option {
	return func(f *Form) {
		f.registrar = registrar
	}
}

func WithSessionStore(store SessionStore) Option {
	return func(f *Form) {
		f.store = store
	}
}

func WithNavigator(navigator Navigator) Option {
	return func(f *Form) {
		if navigator != nil {
			f.navigator = navigator
		}
	}
}

func WithNotifier(notifier Notifier) Option {
	return func(f *Form) {
		if notifier != nil {
			f.notifier = notifier
		}
	}
}

// WithRedirect sets the target used after success or when a session already exists.
func WithRedirect(target string) Option {
	return func(f *Form) {
		f.redirect = SanitizeRedirect(target)
	}
}

// WithFields pre-fills the form, e.g. when re-rendering a failed submission.
func WithFields(fields Fields) Option {
	return func(f *Form) {
		f.fields = fields
	}
}

// WithStateListener registers a callback for every state transition.
// Listeners run outside the form lock, in registration order.
func WithStateListener(listener func(State)) Option {
	return func(f *Form) {
		if listener != nil {
			f.listeners = append(f.listeners, listener)
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(f *Form) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithID sets the form instance id. A random id is used otherwise.
func WithID(id string) Option {
	return func(f *Form) {
		if id != "" {
			f.id = id
		}
	}
}

// NewForm creates a form in the Idle state.
func NewForm(opts ...Option) *Form {
	f := &Form{
		navigator: nopNavigator{},
		notifier:  nopNotifier{},
		logger:    slog.Default(),
		redirect:  DefaultRedirect,
		state:     Idle,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.id == "" {
		f.id = uuid.NewString()
	}
	f.lifetime, f.cancel = context.WithCancel(context.Background())
	return f
}

// Mount binds the form lifetime to ctx and runs the session guard. When the
// store is a SessionWatcher the guard runs again on every identity change
// until the form is unmounted.
func (f *Form) Mount(ctx context.Context) {
	f.mu.Lock()
	if f.mounted || f.unmounted {
		f.mu.Unlock()
		return
	}
	f.mounted = true
	f.stopMount = context.AfterFunc(ctx, f.Unmount)
	lifetime := f.lifetime
	store := f.store
	f.mu.Unlock()

	f.Guard(lifetime)

	if watcher, ok := store.(SessionWatcher); ok {
		changes := watcher.WatchSessions(lifetime)
		go func() {
			for range changes {
				f.Guard(lifetime)
			}
		}()
	}
}

// Unmount ends the form lifetime. An in-flight call is cancelled and its
// result, if it still arrives, is ignored.
func (f *Form) Unmount() {
	f.mu.Lock()
	if f.unmounted {
		f.mu.Unlock()
		return
	}
	f.unmounted = true
	stop := f.stopMount
	f.mu.Unlock()

	if stop != nil {
		stop()
	}
	f.cancel()
	f.logger.Debug("registration form unmounted", "form_id", f.id)
}

// SetRedirect changes the redirect target and re-runs the session guard.
func (f *Form) SetRedirect(target string) {
	f.mu.Lock()
	f.redirect = SanitizeRedirect(target)
	lifetime := f.lifetime
	f.mu.Unlock()

	f.Guard(lifetime)
}

// Guard navigates to the redirect target when a session already exists and
// reports whether one does. The form navigates at most once per target.
func (f *Form) Guard(ctx context.Context) bool {
	f.mu.Lock()
	if f.unmounted || f.store == nil || f.state == Submitting {
		f.mu.Unlock()
		return false
	}
	store := f.store
	f.mu.Unlock()

	if _, ok := store.GetSession(ctx); !ok {
		return false
	}

	f.mu.Lock()
	target := f.redirect
	if f.unmounted || f.navigatedTo == target {
		f.mu.Unlock()
		return true
	}
	f.navigatedTo = target
	f.mu.Unlock()

	f.logger.Debug("session present, leaving registration form", "form_id", f.id, "redirect", target)
	f.navigator.NavigateTo(target)
	return true
}

// Submit validates the fields and performs the registration call.
//
// A password mismatch raises one error notification and returns
// ErrPasswordMismatch without calling the registrar. On success the session is
// stored, the user is sent to the redirect target and a success notification
// is raised, in that order. On failure one error notification carrying the
// failure message is raised and the fields are left as typed.
func (f *Form) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.unmounted {
		f.mu.Unlock()
		return ErrUnmounted
	}
	if f.registrar == nil || f.store == nil {
		f.mu.Unlock()
		return ErrNotConfigured
	}
	if f.state == Submitting {
		f.mu.Unlock()
		return ErrSubmissionInFlight
	}
	fields := f.fields
	if fields.Password != fields.ConfirmPassword {
		f.mu.Unlock()
		f.notifier.NotifyError(MsgPasswordMismatch)
		return ErrPasswordMismatch
	}
	f.state = Submitting
	redirect := f.redirect
	lifetime := f.lifetime
	f.mu.Unlock()
	f.emit(Submitting)

	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(lifetime, cancel)
	defer stop()

	f.logger.Info("submitting registration", "form_id", f.id, "email", fields.Email)
	session, err := f.registrar.Register(callCtx, fields.Request())

	if lifetime.Err() != nil {
		f.logger.Info("ignoring registration result after unmount", "form_id", f.id, "error", err)
		f.mu.Lock()
		f.state = Idle
		f.mu.Unlock()
		return ErrUnmounted
	}

	if err != nil {
		f.logger.Error("registration failed", "form_id", f.id, "email", fields.Email, "error", err)
		f.fail(errors.MessageOf(err, MsgRegistrationError))
		return err
	}

	if err := f.store.SetSession(callCtx, session); err != nil {
		f.logger.Error("failed to store session", "form_id", f.id, "user_id", session.UserID, "error", err)
		f.fail(MsgSessionSaveFailed)
		return errors.Wrap(err, errors.ErrCodeInternal, MsgSessionSaveFailed)
	}

	f.mu.Lock()
	f.state = Succeeded
	f.navigatedTo = redirect
	f.mu.Unlock()
	f.emit(Succeeded)

	f.logger.Info("registration succeeded", "form_id", f.id, "user_id", session.UserID, "redirect", redirect)
	f.navigator.NavigateTo(redirect)
	f.notifier.NotifySuccess(MsgRegistered)

	f.setState(Idle)
	return nil
}

func (f *Form) fail(message string) {
	f.setState(Failed)
	f.notifier.NotifyError(message)
	f.setState(Idle)
}

func (f *Form) setState(state State) {
	f.mu.Lock()
	f.state = state
	f.mu.Unlock()
	f.emit(state)
}

func (f *Form) emit(state State) {
	for _, listener := range f.listeners {
		listener(state)
	}
}

func (f *Form) SetName(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fields.Name = name
}

func (f *Form) SetEmail(email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fields.Email = email
}

func (f *Form) SetPassword(password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fields.Password = password
}

func (f *Form) SetConfirmPassword(confirm string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fields.ConfirmPassword = confirm
}

// Fields returns a copy of the current field values.
func (f *Form) Fields() Fields {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fields
}

func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Submitting reports whether a registration call is in flight.
func (f *Form) Submitting() bool {
	return f.State() == Submitting
}

// SubmitDisabled reports whether the submit control must be disabled.
func (f *Form) SubmitDisabled() bool {
	return f.Submitting()
}

// SubmitLabel is the text of the submit control.
func (f *Form) SubmitLabel() string {
	if f.Submitting() {
		return "Registering..."
	}
	return "Register"
}

func (f *Form) Redirect() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.redirect
}

func (f *Form) ID() string {
	return f.id
}

// compile-time checks
var (
	_ SessionStore   = (*sessions.ActiveStore)(nil)
	_ SessionWatcher = (*sessions.ActiveStore)(nil)
	_ SessionStore   = (*sessions.RequestStore)(nil)
)
