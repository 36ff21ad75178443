package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/adeelbandesha/lumina-spark-ai-studio/internal/client/models"
	"github.com/adeelbandesha/lumina-spark-ai-studio/internal/logging"
)

// Responses larger than this are truncated before decoding. The auth API
// only ever returns small JSON objects.
const maxResponseBytes = 1 << 20

// HTTPClient implements Client over the backend's HTTP+JSON contract.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	log     logging.Logger
}

func NewHTTPClient(baseURL string, timeout time.Duration, log logging.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log.With("component", "api"),
	}
}

func (c *HTTPClient) Register(ctx context.Context, req RegisterRequest) error {
	return c.do(ctx, http.MethodPost, "/auth/register", "", req, nil)
}

func (c *HTTPClient) Authenticate(ctx context.Context, creds Credentials) (*AuthResult, error) {
	var res AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", creds, &res); err != nil {
		return nil, err
	}
	if res.Token == "" || res.User == nil || res.User.ID == "" {
		return nil, unexpectedResponse(http.StatusOK)
	}
	return &res, nil
}

func (c *HTTPClient) FetchProfile(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/auth/profile", token, nil, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, unexpectedResponse(http.StatusOK)
	}
	return &user, nil
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, token string, upd models.ProfileUpdate) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodPatch, "/auth/profile", token, upd, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, unexpectedResponse(http.StatusOK)
	}
	return &user, nil
}

func (c *HTTPClient) ChangePassword(ctx context.Context, token, currentPassword, newPassword string) error {
	body := struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}{currentPassword, newPassword}
	return c.do(ctx, http.MethodPost, "/auth/change-password", token, body, nil)
}

func (c *HTTPClient) RequestPasswordReset(ctx context.Context, email string) error {
	body := struct {
		Email string `json:"email"`
	}{email}
	return c.do(ctx, http.MethodPost, "/auth/forgot-password", "", body, nil)
}

func (c *HTTPClient) ConfirmPasswordReset(ctx context.Context, email, resetToken, newPassword string) error {
	body := struct {
		Email    string `json:"email"`
		Token    string `json:"token"`
		Password string `json:"password"`
	}{email, resetToken, newPassword}
	return c.do(ctx, http.MethodPost, "/auth/reset-password", "", body, nil)
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// do runs one request/response cycle and classifies the outcome.
// token, body and out may each be empty/nil.
func (c *HTTPClient) do(ctx context.Context, method, path, token string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &TransportError{Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug(ctx, "request failed", "method", method, "path", path, "err", err)
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &TransportError{Err: err}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		rej := &RejectionError{StatusCode: resp.StatusCode, Reason: rejectionReason(resp.StatusCode, data)}
		c.log.Debug(ctx, "request rejected", "method", method, "path", path, "status", resp.StatusCode)
		return rej
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.log.Debug(ctx, "response decode failed", "method", method, "path", path, "err", err)
		return unexpectedResponse(resp.StatusCode)
	}
	return nil
}

// rejectionReason extracts the server-supplied {error} message, falling back
// to the HTTP status text.
func rejectionReason(status int, body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return http.StatusText(status)
}

// unexpectedResponse covers 2xx bodies that do not decode into the expected
// shape. The backend answered, so this is a rejection, not a transport
// failure.
func unexpectedResponse(status int) *RejectionError {
	return &RejectionError{StatusCode: status, Reason: "unexpected response from server"}
}
