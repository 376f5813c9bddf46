package register

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-storefront/pkg/errors"
	"github.com/tendant/simple-storefront/pkg/sessions"
)

// recorder collects side effects from every collaborator in order.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type fakeRegistrar struct {
	rec      *recorder
	session  sessions.Session
	err      error
	block    chan struct{}
	started  chan struct{}
	requests []Request
}

func (f *fakeRegistrar) Register(ctx context.Context, req Request) (sessions.Session, error) {
	f.rec.add("register %s", req.Email)
	f.requests = append(f.requests, req)
	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return sessions.Session{}, ctx.Err()
		}
	}
	return f.session, f.err
}

type fakeStore struct {
	rec     *recorder
	mu      sync.Mutex
	current *sessions.Session
	err     error
	writes  []sessions.Session
}

func (s *fakeStore) GetSession(ctx context.Context) (*sessions.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.current != nil
}

func (s *fakeStore) SetSession(ctx context.Context, session sessions.Session) error {
	s.rec.add("store %s", session.UserID)
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, session)
	s.current = &session
	return nil
}

type fakeNavigator struct{ rec *recorder }

func (n fakeNavigator) NavigateTo(path string) { n.rec.add("navigate %s", path) }

type fakeNotifier struct{ rec *recorder }

func (n fakeNotifier) NotifySuccess(text string) { n.rec.add("success %s", text) }
func (n fakeNotifier) NotifyError(text string)   { n.rec.add("error %s", text) }

func newTestForm(reg *fakeRegistrar, store *fakeStore, rec *recorder, opts ...Option) *Form {
	base := []Option{
		WithRegistrar(reg),
		WithSessionStore(store),
		WithNavigator(fakeNavigator{rec}),
		WithNotifier(fakeNotifier{rec}),
	}
	return NewForm(append(base, opts...)...)
}

func fill(f *Form, name, email, password, confirm string) {
	f.SetName(name)
	f.SetEmail(email)
	f.SetPassword(password)
	f.SetConfirmPassword(confirm)
}

func TestSubmit_PasswordMismatch(t *testing.T) {
	cases := []struct{ password, confirm string }{
		{"p1", "p2"},
		{"p1", ""},
		{"", "p1"},
		{"secret", "Secret"},
		{"pass ", "pass"},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("%q vs %q", tc.password, tc.confirm), func(t *testing.T) {
			rec := &recorder{}
			reg := &fakeRegistrar{rec: rec}
			store := &fakeStore{rec: rec}
			form := newTestForm(reg, store, rec)
			fill(form, "Ann", "ann@x.com", tc.password, tc.confirm)

			err := form.Submit(context.Background())

			assert.ErrorIs(t, err, ErrPasswordMismatch)
			assert.Equal(t, []string{"error Passwords do not match"}, rec.list())
			assert.Empty(t, reg.requests)
			assert.Equal(t, Idle, form.State())
			assert.Equal(t, Fields{"Ann", "ann@x.com", tc.password, tc.confirm}, form.Fields())
		})
	}
}

func TestSubmit_Success(t *testing.T) {
	rec := &recorder{}
	reg := &fakeRegistrar{rec: rec, session: sessions.Session{
		UserID: "42",
		Token:  "abc",
		Data:   map[string]interface{}{"id": "42", "token": "abc"},
	}}
	store := &fakeStore{rec: rec}
	form := newTestForm(reg, store, rec)
	fill(form, "Ann", "ann@x.com", "p1", "p1")

	require.NoError(t, form.Submit(context.Background()))

	assert.Equal(t, []string{
		"register ann@x.com",
		"store 42",
		"navigate /",
		"success User successfully registered",
	}, rec.list())
	require.Len(t, store.writes, 1)
	assert.Equal(t, map[string]interface{}{"id": "42", "token": "abc"}, store.writes[0].Data)
	assert.Equal(t, []Request{{Name: "Ann", Email: "ann@x.com", Password: "p1"}}, reg.requests)
	assert.Equal(t, Idle, form.State())
}

func TestSubmit_SuccessHonoursRedirect(t *testing.T) {
	rec := &recorder{}
	reg := &fakeRegistrar{rec: rec, session: sessions.Session{UserID: "42"}}
	form := newTestForm(reg, &fakeStore{rec: rec}, rec, WithRedirect("/cart"))
	fill(form, "Ann", "ann@x.com", "p1", "p1")

	require.NoError(t, form.Submit(context.Background()))
	assert.Contains(t, rec.list(), "navigate /cart")
}

func TestSubmit_Failure(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		message string
	}{
		{"structured error", errors.New(errors.ErrCodeUserAlreadyExists, "User already exists"), "User already exists"},
		{"structured error without message", errors.New(errors.ErrCodeUpstreamFailure, ""), MsgRegistrationError},
		{"plain error", stderrors.New("connection refused"), MsgRegistrationError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &recorder{}
			reg := &fakeRegistrar{rec: rec, err: tc.err}
			store := &fakeStore{rec: rec}
			form := newTestForm(reg, store, rec)
			fill(form, "Ann", "ann@x.com", "p1", "p1")

			err := form.Submit(context.Background())

			assert.ErrorIs(t, err, tc.err)
			assert.Equal(t, []string{"register ann@x.com", "error " + tc.message}, rec.list())
			assert.Empty(t, store.writes)
			assert.Equal(t, Idle, form.State())
			assert.Equal(t, Fields{"Ann", "ann@x.com", "p1", "p1"}, form.Fields())
		})
	}
}

func TestSubmit_SessionStoreFailure(t *testing.T) {
	rec := &recorder{}
	reg := &fakeRegistrar{rec: rec, session: sessions.Session{UserID: "42"}}
	store := &fakeStore{rec: rec, err: stderrors.New("disk full")}
	form := newTestForm(reg, store, rec)
	fill(form, "Ann", "ann@x.com", "p1", "p1")

	err := form.Submit(context.Background())

	require.Error(t, err)
	assert.Equal(t, MsgSessionSaveFailed, errors.MessageOf(err, ""))
	assert.Equal(t, []string{"register ann@x.com", "store 42", "error " + MsgSessionSaveFailed}, rec.list())
}

func TestSubmit_DisabledWhileInFlight(t *testing.T) {
	rec := &recorder{}
	reg := &fakeRegistrar{
		rec:     rec,
		session: sessions.Session{UserID: "42"},
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}

	var mu sync.Mutex
	var states []State
	form := newTestForm(reg, &fakeStore{rec: rec}, rec, WithStateListener(func(s State) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	}))
	fill(form, "Ann", "ann@x.com", "p1", "p1")

	assert.False(t, form.SubmitDisabled())
	assert.Equal(t, "Register", form.SubmitLabel())

	done := make(chan error, 1)
	go func() { done <- form.Submit(context.Background()) }()
	<-reg.started

	assert.True(t, form.SubmitDisabled())
	assert.Equal(t, "Registering...", form.SubmitLabel())
	assert.ErrorIs(t, form.Submit(context.Background()), ErrSubmissionInFlight)

	close(reg.block)
	require.NoError(t, <-done)

	assert.False(t, form.SubmitDisabled())
	assert.Equal(t, "Register", form.SubmitLabel())
	mu.Lock()
	assert.Equal(t, []State{Submitting, Succeeded, Idle}, states)
	mu.Unlock()
	assert.Len(t, reg.requests, 1)
}

func TestSubmit_FailureStates(t *testing.T) {
	rec := &recorder{}
	var states []State
	form := newTestForm(&fakeRegistrar{rec: rec, err: stderrors.New("boom")}, &fakeStore{rec: rec}, rec,
		WithStateListener(func(s State) { states = append(states, s) }))
	fill(form, "Ann", "ann@x.com", "p1", "p1")

	assert.Error(t, form.Submit(context.Background()))
	assert.Equal(t, []State{Submitting, Failed, Idle}, states)
}

func TestSubmit_LateResultIgnoredAfterUnmount(t *testing.T) {
	rec := &recorder{}
	reg := &fakeRegistrar{
		rec:     rec,
		session: sessions.Session{UserID: "42"},
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	store := &fakeStore{rec: rec}
	form := newTestForm(reg, store, rec)
	form.Mount(context.Background())
	fill(form, "Ann", "ann@x.com", "p1", "p1")

	done := make(chan error, 1)
	go func() { done <- form.Submit(context.Background()) }()
	<-reg.started

	form.Unmount()

	assert.ErrorIs(t, <-done, ErrUnmounted)
	assert.Equal(t, []string{"register ann@x.com"}, rec.list())
	assert.Empty(t, store.writes)
	assert.ErrorIs(t, form.Submit(context.Background()), ErrUnmounted)
}

func TestMount_UnmountsWithContext(t *testing.T) {
	rec := &recorder{}
	form := newTestForm(&fakeRegistrar{rec: rec}, &fakeStore{rec: rec}, rec)

	ctx, cancel := context.WithCancel(context.Background())
	form.Mount(ctx)
	cancel()

	assert.Eventually(t, func() bool {
		return stderrors.Is(form.Submit(context.Background()), ErrUnmounted)
	}, time.Second, 10*time.Millisecond)
}

func TestMount_ExistingSessionRedirects(t *testing.T) {
	rec := &recorder{}
	store := &fakeStore{rec: rec, current: &sessions.Session{UserID: "7"}}
	form := newTestForm(&fakeRegistrar{rec: rec}, store, rec, WithRedirect("/cart"))

	form.Mount(context.Background())
	defer form.Unmount()

	assert.Equal(t, []string{"navigate /cart"}, rec.list())
}

func TestMount_NoSessionStays(t *testing.T) {
	rec := &recorder{}
	form := newTestForm(&fakeRegistrar{rec: rec}, &fakeStore{rec: rec}, rec)

	form.Mount(context.Background())
	defer form.Unmount()

	assert.Empty(t, rec.list())
}

func TestMount_SessionAppearsLater(t *testing.T) {
	rec := &recorder{}
	store := sessions.NewActiveStore()
	form := newTestForm(&fakeRegistrar{rec: rec}, &fakeStore{rec: rec}, rec, WithSessionStore(store))

	form.Mount(context.Background())
	defer form.Unmount()
	assert.Empty(t, rec.list())

	require.NoError(t, store.SetSession(context.Background(), sessions.Session{UserID: "7"}))

	assert.Eventually(t, func() bool {
		return len(rec.list()) == 1 && rec.list()[0] == "navigate /"
	}, time.Second, 10*time.Millisecond)
}

func TestSubmit_WatchedStoreNavigatesOnce(t *testing.T) {
	rec := &recorder{}
	store := sessions.NewActiveStore()
	reg := &fakeRegistrar{rec: rec, session: sessions.Session{UserID: "42"}}
	form := newTestForm(reg, nil, rec, WithSessionStore(store))
	form.Mount(context.Background())
	defer form.Unmount()
	fill(form, "Ann", "ann@x.com", "p1", "p1")

	require.NoError(t, form.Submit(context.Background()))
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, []string{
		"register ann@x.com",
		"navigate /",
		"success User successfully registered",
	}, rec.list())
	current, ok := store.GetSession(context.Background())
	require.True(t, ok)
	assert.Equal(t, "42", current.UserID)
}

func TestSetRedirect_RerunsGuard(t *testing.T) {
	rec := &recorder{}
	store := &fakeStore{rec: rec}
	form := newTestForm(&fakeRegistrar{rec: rec}, store, rec)
	form.Mount(context.Background())
	defer form.Unmount()

	store.current = &sessions.Session{UserID: "7"}
	form.SetRedirect("/orders")

	assert.Equal(t, "/orders", form.Redirect())
	assert.Equal(t, []string{"navigate /orders"}, rec.list())
}

func TestSetRedirect_NavigatesAgainForNewTarget(t *testing.T) {
	rec := &recorder{}
	store := &fakeStore{rec: rec, current: &sessions.Session{UserID: "7"}}
	form := newTestForm(&fakeRegistrar{rec: rec}, store, rec)
	form.Mount(context.Background())
	defer form.Unmount()

	form.SetRedirect("/orders")
	form.SetRedirect("/orders")

	assert.Equal(t, []string{"navigate /", "navigate /orders"}, rec.list())
}

func TestNewForm_Defaults(t *testing.T) {
	form := NewForm()
	assert.NotEmpty(t, form.ID())
	assert.Equal(t, "/", form.Redirect())
	assert.Equal(t, Idle, form.State())
	assert.ErrorIs(t, form.Submit(context.Background()), ErrNotConfigured)

	assert.Equal(t, "abc", NewForm(WithID("abc")).ID())
	assert.Equal(t, "/", NewForm(WithRedirect("https://evil.example")).Redirect())
}

func TestFields_Request(t *testing.T) {
	f := Fields{Name: "Ann", Email: "ann@x.com", Password: "p1", ConfirmPassword: "p1"}
	assert.Equal(t, Request{Name: "Ann", Email: "ann@x.com", Password: "p1"}, f.Request())
}
