// Package client is a typed HTTP client for the branchbook REST API. It keeps
// the refresh cookie in a cookie jar and transparently refreshes the access
// token once when a call is rejected with 401 or 403.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/branchbook/branchbook-api/models"
)

// ErrSessionExpired means the access token was rejected and the refresh
// cookie could not replace it. The user has to log in again.
var ErrSessionExpired = errors.New("session expired")

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, http.StatusText(e.Status), e.Message)
}

// IsStatus reports whether err is an *APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type Client struct {
	baseURL string
	http    *http.Client

	mu          sync.Mutex
	accessToken string

	// collapses concurrent refreshes; each one rotates the cookie
	refreshes singleflight.Group
}

// New returns a client for the server at baseURL. A nil httpClient gets a
// default one; a cookie jar is installed when the client has none.
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		httpClient.Jar = jar
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}, nil
}

func (c *Client) AccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken
}

func (c *Client) SetAccessToken(token string) {
	c.mu.Lock()
	c.accessToken = token
	c.mu.Unlock()
}

// Auth

func (c *Client) Register(ctx context.Context, username, password, email string) error {
	var out models.TokenResponse
	req := models.RegisterRequest{Username: username, Password: password, Email: email}
	if err := c.send(ctx, http.MethodPost, "/auth/register", req, &out, ""); err != nil {
		return err
	}
	c.SetAccessToken(out.AccessToken)
	return nil
}

func (c *Client) Login(ctx context.Context, username, password string) error {
	var out models.TokenResponse
	req := models.LoginRequest{Username: username, Password: password}
	if err := c.send(ctx, http.MethodPost, "/auth/login", req, &out, ""); err != nil {
		return err
	}
	c.SetAccessToken(out.AccessToken)
	return nil
}

// Refresh exchanges the refresh cookie for a new access token.
func (c *Client) Refresh(ctx context.Context) error {
	var out models.TokenResponse
	if err := c.send(ctx, http.MethodPost, "/auth/refresh", nil, &out, ""); err != nil {
		return err
	}
	c.SetAccessToken(out.AccessToken)
	return nil
}

func (c *Client) Logout(ctx context.Context) error {
	if err := c.send(ctx, http.MethodPost, "/auth/logout", nil, nil, ""); err != nil {
		return err
	}
	c.SetAccessToken("")
	return nil
}

// do performs an authenticated call, refreshing and retrying once when the
// access token is rejected.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	token := c.AccessToken()
	err := c.send(ctx, method, path, body, out, token)
	if token == "" || !(IsStatus(err, http.StatusUnauthorized) || IsStatus(err, http.StatusForbidden)) {
		return err
	}

	if err := c.refreshAfter(ctx, token); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return ErrSessionExpired
		}
		return err
	}
	return c.send(ctx, method, path, body, out, c.AccessToken())
}

// refreshAfter replaces the rejected token unless another call already has.
func (c *Client) refreshAfter(ctx context.Context, rejected string) error {
	if c.AccessToken() != rejected {
		return nil
	}
	_, err, _ := c.refreshes.Do("refresh", func() (interface{}, error) {
		if c.AccessToken() != rejected {
			return nil, nil
		}
		return nil, c.Refresh(ctx)
	})
	return err
}

func (c *Client) send(ctx context.Context, method, path string, body, out interface{}, token string) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var msg models.MessageResponse
		if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
			msg.Message = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: msg.Message}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
