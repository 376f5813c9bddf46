// Package registerclient calls the remote user registration endpoint.
package registerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tendant/simple-storefront/pkg/errors"
	"github.com/tendant/simple-storefront/pkg/register"
	"github.com/tendant/simple-storefront/pkg/sessions"
)

const (
	DefaultPath    = "/api/users"
	DefaultTimeout = 10 * time.Second

	// TokenCookieName is the cookie the backend sets alongside the user payload.
	TokenCookieName = "jwt"
)

type apiRequest struct {
	method       string
	path         string
	headers      map[string]string
	reqBodyObj   interface{}
	successCodes []int
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Client is a register.Registrar backed by the storefront user API.
type Client struct {
	baseURL    string
	path       string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client. Its timeout is left untouched.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithPath sets the registration endpoint path, relative to the base URL.
func WithPath(path string) Option {
	return func(c *Client) {
		if path != "" {
			c.path = "/" + strings.TrimLeft(path, "/")
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		path:    DefaultPath,
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	return c
}

// Register posts the registration payload. Every error it returns is an
// *errors.Error with a non-empty Message.
func (c *Client) Register(ctx context.Context, req register.Request) (sessions.Session, error) {
	resp, body, err := c.submitAPIRequest(ctx, apiRequest{
		method: http.MethodPost,
		path:   c.path,
		reqBodyObj: registerRequest{
			Username: req.Name,
			Email:    req.Email,
			Password: req.Password,
		},
		successCodes: []int{http.StatusOK, http.StatusCreated},
	})
	if err != nil {
		return sessions.Session{}, err
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return sessions.Session{}, errors.Wrap(err, errors.ErrCodeUpstreamFailure, register.MsgRegistrationError)
	}
	if payload == nil {
		return sessions.Session{}, errors.New(errors.ErrCodeUpstreamFailure, register.MsgRegistrationError)
	}

	session := sessionFromPayload(payload)
	if session.Token == "" {
		for _, cookie := range resp.Cookies() {
			if cookie.Name == TokenCookieName && cookie.Value != "" {
				session.Token = cookie.Value
				break
			}
		}
	}

	c.logger.Info("user registered", "user_id", session.UserID, "email", session.Email)
	return session, nil
}

// submitAPIRequest returns the response and its fully read body when the
// status is one of the success codes.
func (c *Client) submitAPIRequest(ctx context.Context, apiReq apiRequest) (*http.Response, []byte, error) {
	var reqBodyReader io.Reader
	if apiReq.reqBodyObj != nil {
		reqBodyBytes, err := json.Marshal(apiReq.reqBodyObj)
		if err != nil {
			return nil, nil, errors.Wrap(err, errors.ErrCodeInternal, register.MsgRegistrationError)
		}
		reqBodyReader = bytes.NewReader(reqBodyBytes)
	}

	url := fmt.Sprintf("%s%s", c.baseURL, apiReq.path)
	req, err := http.NewRequestWithContext(ctx, apiReq.method, url, reqBodyReader)
	if err != nil {
		return nil, nil, errors.Wrap(fmt.Errorf("error creating request %s %s: %w", apiReq.method, apiReq.path, err),
			errors.ErrCodeInternal, register.MsgRegistrationError)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range apiReq.headers {
		req.Header.Add(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("registration request failed", "url", url, "error", err)
		return nil, nil, errors.Wrap(err, errors.ErrCodeUpstreamFailure, register.MsgRegistrationError)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, errors.Wrap(fmt.Errorf("error reading response body: %w", err),
			errors.ErrCodeUpstreamFailure, register.MsgRegistrationError)
	}

	for _, code := range apiReq.successCodes {
		if resp.StatusCode == code {
			return resp, body, nil
		}
	}

	// The status hints at the error kind, the body carries the message.
	apiErr := errors.New(errors.FromHTTPStatus(resp.StatusCode), register.MsgRegistrationError).
		WithDetail("status", resp.StatusCode)
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		switch {
		case errResp.Message != "":
			apiErr.Message = errResp.Message
		case errResp.Error != "":
			apiErr.Message = errResp.Error
		}
	}
	c.logger.Warn("registration rejected", "status", resp.StatusCode, "code", apiErr.Code, "message", apiErr.Message)
	return nil, nil, apiErr
}

func sessionFromPayload(payload map[string]interface{}) sessions.Session {
	return sessions.Session{
		UserID:  firstString(payload, "_id", "id"),
		Name:    firstString(payload, "username", "name"),
		Email:   firstString(payload, "email"),
		Token:   firstString(payload, "token", "access_token"),
		IsAdmin: payload["isAdmin"] == true,
		Data:    payload,
	}
}

// firstString returns the first key present as a string or number.
func firstString(payload map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		switch v := payload[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%v", v)
		case json.Number:
			return v.String()
		}
	}
	return ""
}

var _ register.Registrar = (*Client)(nil)
