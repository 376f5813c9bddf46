package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ValidationError is a problem with one configuration field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every field problem found in one pass
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	switch len(e) {
	case 0:
		return ""
	case 1:
		return e[0].Error()
	}
	var b strings.Builder
	b.WriteString("configuration validation failed:")
	for _, err := range e {
		b.WriteString("\n  - ")
		b.WriteString(err.Error())
	}
	return b.String()
}

// CollectErrors drops the nil results of the Require helpers. It returns nil when nothing failed.
func CollectErrors(errs ...*ValidationError) error {
	var out ValidationErrors
	for _, err := range errs {
		if err != nil {
			out = append(out, *err)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func RequireNonEmpty(field, value string) *ValidationError {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}
	return nil
}

func RequirePositive(field string, value int) *ValidationError {
	if value <= 0 {
		return &ValidationError{Field: field, Message: fmt.Sprintf("must be positive, got %d", value)}
	}
	return nil
}

func RequirePositiveFloat(field string, value float64) *ValidationError {
	if value <= 0 {
		return &ValidationError{Field: field, Message: fmt.Sprintf("must be positive, got %g", value)}
	}
	return nil
}

func RequirePositiveDuration(field string, value time.Duration) *ValidationError {
	if value <= 0 {
		return &ValidationError{Field: field, Message: fmt.Sprintf("must be positive, got %s", value)}
	}
	return nil
}

// RequireHTTPURL accepts absolute http and https URLs.
func RequireHTTPURL(field, value string) *ValidationError {
	u, err := url.Parse(value)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return &ValidationError{Field: field, Message: fmt.Sprintf("must be an http(s) URL, got %q", value)}
	}
	return nil
}

func RequireOneOf(field, value string, allowed []string) *ValidationError {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return &ValidationError{Field: field, Message: fmt.Sprintf("must be one of %s, got %q", strings.Join(allowed, ", "), value)}
}

// When runs the check only if cond holds.
func When(cond bool, check func() *ValidationError) *ValidationError {
	if !cond {
		return nil
	}
	return check()
}
