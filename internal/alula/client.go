package alula

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/daemonp/alula2mqtt/internal/log"
)

const (
	requestTimeout = 15 * time.Second
	connectRetries = 2
	retryBase      = 500 * time.Millisecond
)

// Client talks to the Alula/Cove cloud API. It owns the session tokens and
// transparently re-authenticates once when a call comes back unauthorized.
type Client struct {
	log     *log.Logger
	baseURL string
	httpc   *http.Client

	mu           sync.Mutex
	username     string
	password     string
	accessToken  string
	refreshToken string
}

func NewClient(baseURL string, logger *log.Logger) *Client {
	return &Client{
		log:     logger,
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: requestTimeout},
	}
}

type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
}

// Login authenticates with username/password and stores the session tokens.
func (c *Client) Login(ctx context.Context, username, password string) error {
	c.mu.Lock()
	c.username = username
	c.password = password
	c.mu.Unlock()
	return c.login(ctx)
}

func (c *Client) login(ctx context.Context) error {
	c.mu.Lock()
	body := map[string]string{"email": c.username, "password": c.password}
	c.mu.Unlock()

	var tokens tokenResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", nil, body, &tokens, false); err != nil {
		return err
	}
	c.storeTokens(tokens)
	c.log.Debug("Logged in to Alula API")
	return nil
}

// SetCredentials stores the username/password used when token refresh can
// no longer recover the session.
func (c *Client) SetCredentials(username, password string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.username = username
	c.password = password
}

// RestoreTokens primes the client with a previously persisted refresh token.
// The access token is obtained on the next Refresh call.
func (c *Client) RestoreTokens(refreshToken string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = ""
	c.refreshToken = refreshToken
}

// Refresh exchanges the refresh token for a new token pair. The vendor
// rotates the refresh token on every exchange.
func (c *Client) Refresh(ctx context.Context) error {
	c.mu.Lock()
	refresh := c.refreshToken
	c.mu.Unlock()

	if refresh == "" {
		return &AuthError{Msg: "no refresh token"}
	}

	body := map[string]string{"refreshToken": refresh}
	var tokens tokenResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/refresh", nil, body, &tokens, false); err != nil {
		return err
	}
	c.storeTokens(tokens)
	c.log.Debug("Refreshed Alula session tokens")
	return nil
}

// RefreshToken returns the current refresh token so callers can persist it
// when the vendor rotates it.
func (c *Client) RefreshToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshToken
}

func (c *Client) storeTokens(tokens tokenResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = tokens.AccessToken
	if tokens.RefreshToken != "" {
		c.refreshToken = tokens.RefreshToken
	}
}

func (c *Client) bearer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken
}

// request runs an authenticated call, retrying connection errors with a
// bounded backoff and re-authenticating once on an auth rejection.
func (c *Client) request(ctx context.Context, method, path string, params url.Values, body, out interface{}) error {
	err := c.requestOnce(ctx, method, path, params, body, out)

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		return err
	}

	if rerr := c.reauth(ctx); rerr != nil {
		return err
	}
	return c.requestOnce(ctx, method, path, params, body, out)
}

func (c *Client) requestOnce(ctx context.Context, method, path string, params url.Values, body, out interface{}) error {
	var lastErr error
	for attempt := 0; attempt <= connectRetries; attempt++ {
		if attempt > 0 {
			wait := retryBase << (attempt - 1)
			c.log.Debug("Retrying %s %s after %v", method, path, wait)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return &ConnectionError{Err: ctx.Err()}
			}
		}

		err := c.do(ctx, method, path, params, body, out, true)
		if err == nil {
			return nil
		}
		var connErr *ConnectionError
		if !errors.As(err, &connErr) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

func (c *Client) reauth(ctx context.Context) error {
	if err := c.Refresh(ctx); err == nil {
		return nil
	}
	c.mu.Lock()
	hasLogin := c.username != ""
	c.mu.Unlock()
	if !hasLogin {
		return fmt.Errorf("no credentials available for re-authentication")
	}
	c.log.Debug("Token refresh failed, re-authenticating with password")
	return c.login(ctx)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out interface{}, authed bool) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %v", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+c.bearer())
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return &ConnectionError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return &AuthError{Msg: readAPIMessage(resp.Body)}
	}
	if resp.StatusCode >= 400 {
		return &APIError{Status: resp.StatusCode, Msg: readAPIMessage(resp.Body)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{Status: resp.StatusCode, Msg: fmt.Sprintf("invalid response body: %v", err)}
	}
	return nil
}

func readAPIMessage(r io.Reader) string {
	var payload struct {
		Message string `json:"message"`
		Errors  []struct {
			Detail string `json:"detail"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(io.LimitReader(r, 4096)).Decode(&payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if len(payload.Errors) > 0 && payload.Errors[0].Detail != "" {
			return payload.Errors[0].Detail
		}
	}
	return "request rejected"
}
