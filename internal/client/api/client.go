/*
Package api is the HTTP client of the EchoSpace auth service.

Every method returns either the decoded success body, an *Error carrying the server's code
and message, or an error wrapping ErrNetwork when the server could not be reached.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"echospace/internal/app/user"
)

// DefaultBaseURL is the address of a locally running server.
const DefaultBaseURL = "http://localhost:4000"

// DefaultTimeout bounds each request.
const DefaultTimeout = 10 * time.Second

// maxResponseSize caps how much of a response body is read.
const maxResponseSize = 1 << 20

// ErrNetwork marks transport failures: connection refused, timeouts, unreadable responses.
var ErrNetwork = errors.New("network error")

// Error is a failure reported by the server.
type Error struct {
	Status  int    `json:"-"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("api error %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// AuthResult is the body of a successful login or registration.
type AuthResult struct {
	User  user.Profile `json:"user"`
	Token string       `json:"token"`
}

// PresignResult is the body of a successful avatar presign request.
type PresignResult struct {
	PresignedURL string `json:"presignedUrl"`
	FileKey      string `json:"fileKey"`
	PublicURL    string `json:"publicUrl"`
}

type Client struct {
	baseURL string
	httpc   *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpc.Timeout = d }
}

// New returns a client for the server at baseURL. An empty baseURL means DefaultBaseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	in := map[string]string{"username": username, "email": email, "password": password}
	var out AuthResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", "", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	in := map[string]string{"email": email, "password": password}
	var out AuthResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the profile of the token's user.
func (c *Client) Me(ctx context.Context, token string) (*user.Profile, error) {
	var out struct {
		User user.Profile `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", token, nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) UpdateProfile(ctx context.Context, token, firstName, lastName, avatar string) (*user.Profile, error) {
	in := map[string]string{"firstName": firstName, "lastName": lastName, "avatar": avatar}
	var out struct {
		User user.Profile `json:"user"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/user/profile", token, in, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// ChangePassword returns the re-issued session token.
func (c *Client) ChangePassword(ctx context.Context, token, currentPassword, newPassword string) (string, error) {
	in := map[string]string{"currentPassword": currentPassword, "newPassword": newPassword}
	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/change-password", token, in, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

func (c *Client) PresignAvatar(ctx context.Context, token, fileName, mimeType string, fileSize int64) (*PresignResult, error) {
	in := map[string]any{"fileName": fileName, "mimeType": mimeType, "fileSize": fileSize}
	var out PresignResult
	if err := c.do(ctx, http.MethodPost, "/api/user/avatar/presign", token, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrNetwork, err)
	}

	if res.StatusCode >= http.StatusBadRequest {
		apiErr := &Error{Status: res.StatusCode}
		if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(res.StatusCode)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrNetwork, err)
	}
	return nil
}
