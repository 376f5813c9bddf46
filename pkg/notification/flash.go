package notification

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
)

const FLASH_COOKIE_NAME = "storefront_flash"

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Message is a transient notice shown to the user once.
type Message struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

// Flash collects transient notices raised while handling one request.
type Flash struct {
	mu       sync.Mutex
	messages []Message
}

func NewFlash() *Flash {
	return &Flash{}
}

func (f *Flash) NotifySuccess(text string) {
	f.add(LevelSuccess, text)
}

func (f *Flash) NotifyError(text string) {
	f.add(LevelError, text)
}

func (f *Flash) add(level Level, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, Message{Level: level, Text: text})
}

// Messages returns the notices raised so far.
func (f *Flash) Messages() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Message(nil), f.messages...)
}

// Persist stores the notices in a cookie so they survive a redirect.
func (f *Flash) Persist(w http.ResponseWriter) {
	messages := f.Messages()
	if len(messages) == 0 {
		return
	}
	raw, err := json.Marshal(messages)
	if err != nil {
		slog.Error("Failed to encode flash messages", "err", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     FLASH_COOKIE_NAME,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// PopFlashes returns the notices persisted by a previous response and clears them.
func PopFlashes(w http.ResponseWriter, r *http.Request) []Message {
	cookie, err := r.Cookie(FLASH_COOKIE_NAME)
	if err != nil || cookie.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     FLASH_COOKIE_NAME,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		slog.Warn("Discarding malformed flash cookie", "err", err)
		return nil
	}
	var messages []Message
	if err := json.Unmarshal(raw, &messages); err != nil {
		slog.Warn("Discarding malformed flash cookie", "err", err)
		return nil
	}
	return messages
}
