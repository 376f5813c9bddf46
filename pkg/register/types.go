package register

import (
	"context"

	"github.com/tendant/simple-storefront/pkg/sessions"
)

// Fields holds the values typed into the form.
type Fields struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Request builds the payload sent to the registrar. The confirmation never leaves the form.
func (f Fields) Request() Request {
	return Request{
		Name:     f.Name,
		Email:    f.Email,
		Password: f.Password,
	}
}

// Request is a registration call payload.
type Request struct {
	Name     string
	Email    string
	Password string
}

// Registrar performs the remote registration call.
type Registrar interface {
	Register(ctx context.Context, req Request) (sessions.Session, error)
}

// SessionStore holds the identity of the current user.
type SessionStore interface {
	GetSession(ctx context.Context) (*sessions.Session, bool)
	SetSession(ctx context.Context, session sessions.Session) error
}

// SessionWatcher is implemented by stores that can signal identity changes.
// The returned channel is closed when ctx is done.
type SessionWatcher interface {
	WatchSessions(ctx context.Context) <-chan struct{}
}

// Navigator moves the user to another page.
type Navigator interface {
	NavigateTo(path string)
}

// Notifier shows transient messages to the user.
type Notifier interface {
	NotifySuccess(text string)
	NotifyError(text string)
}

// State is the submission state of a form.
type State int

const (
	Idle State = iota
	Submitting
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

type nopNavigator struct{}

func (nopNavigator) NavigateTo(string) {}

type nopNotifier struct{}

func (nopNotifier) NotifySuccess(string) {}
func (nopNotifier) NotifyError(string)   {}
