// Package audit provides middleware for auditing registration requests
package audit

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/tendant/simple-storefront/pkg/sessions"
)

// Config holds the configuration for the audit middleware
type Config struct {
	// Source names the service in audit records
	Source string
	// EventType specifies the type of audit events
	EventType string
	// Sink receives the events. Events are logged when nil.
	Sink Sink
}

// Sink records audit events
type Sink interface {
	Record(ctx context.Context, event AuditEvent)
}

// Middleware handles HTTP request auditing
type Middleware struct {
	config Config
}

// NewMiddleware creates a new audit middleware instance
func NewMiddleware(config Config) *Middleware {
	if config.Source == "" {
		config.Source = "storefront"
	}
	if config.EventType == "" {
		config.EventType = "audit.storefront.register"
	}
	if config.Sink == nil {
		config.Sink = LogSink{Logger: slog.Default()}
	}
	return &Middleware{config: config}
}

// AuditEvent represents an audit event
type AuditEvent struct {
	Source    string
	Type      string
	UserID    string
	URI       string
	Method    string
	Status    int
	Duration  time.Duration
	Message   string
	Timestamp time.Time
	Metadata  map[string]interface{}
}

// WithMetadata adds metadata to the audit event
func (e AuditEvent) WithMetadata(key string, value interface{}) AuditEvent {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// Handler audits every request once the response is written. The user is the
// one signed in when the request arrived.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		event := AuditEvent{
			Source:    m.config.Source,
			Type:      m.config.EventType,
			URI:       r.RequestURI,
			Method:    r.Method,
			Timestamp: start,
		}
		if session, ok := sessions.FromContext(r.Context()); ok {
			event.UserID = session.UserID
		} else {
			event.Message = "No session"
		}

		next.ServeHTTP(ww, r)

		event.Status = ww.Status()
		if event.Status == 0 {
			event.Status = http.StatusOK
		}
		event.Duration = time.Since(start)
		if id := middleware.GetReqID(r.Context()); id != "" {
			event = event.WithMetadata("request_id", id)
		}
		m.config.Sink.Record(r.Context(), event)
	})
}

// LogSink writes audit events through slog
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Record(ctx context.Context, event AuditEvent) {
	s.Logger.InfoContext(ctx, "audit",
		"source", event.Source,
		"type", event.Type,
		"user", event.UserID,
		"method", event.Method,
		"uri", event.URI,
		"status", event.Status,
		"duration", event.Duration,
		"message", event.Message,
		"timestamp", event.Timestamp.Format(time.RFC3339),
		"metadata", event.Metadata,
	)
}
