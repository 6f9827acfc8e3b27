package railway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/darrenholm/holmdale-rodeo-v3-sub001/internal/helpers"
)

// Client talks to the Railway ticketing backend. Credentials are exchanged
// for a bearer token which is cached for a short TTL and refreshed on expiry
// or a 401; acquisition goes through a single mutex-guarded path so
// concurrent requests never race separate logins.
type Client struct {
	baseURL  string
	email    string
	password string
	tokenTTL time.Duration
	hc       *http.Client
	logger   *slog.Logger

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

func NewClient(baseURL, email, password string, tokenTTL time.Duration, logger *slog.Logger) *Client {
	if tokenTTL <= 0 {
		tokenTTL = 10 * time.Minute
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		email:    email,
		password: password,
		tokenTTL: tokenTTL,
		hc:       &http.Client{Timeout: 15 * time.Second},
		logger:   logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Authenticate exchanges the configured credentials for a fresh bearer
// token, bypassing the cache. Most callers want bearerToken instead.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	return c.LoginAs(ctx, c.email, c.password)
}

// LoginAs verifies arbitrary staff credentials against the backend and
// returns the backend's token. The service-credential cache is untouched.
func (c *Client) LoginAs(ctx context.Context, email, password string) (string, error) {
	body, _ := json.Marshal(loginRequest{Email: email, Password: password})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", &helpers.AuthError{Message: fmt.Sprintf("backend login failed: %v", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &helpers.AuthError{Message: "failed to read login response"}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &helpers.AuthError{Message: fmt.Sprintf("backend login returned %d", resp.StatusCode)}
	}

	var login loginResponse
	if err := json.Unmarshal(respBody, &login); err != nil || login.Token == "" {
		return "", &helpers.AuthError{Message: "backend login returned no token"}
	}

	return login.Token, nil
}

func (c *Client) bearerToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExp) {
		return c.token, nil
	}

	token, err := c.Authenticate(ctx)
	if err != nil {
		return "", err
	}

	c.token = token
	c.tokenExp = time.Now().Add(c.tokenTTL)
	return token, nil
}

// invalidateToken drops the cached token, but only if it is still the one
// the failing request used. A concurrent refresh must not be discarded.
func (c *Client) invalidateToken(used string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == used {
		c.token = ""
	}
}

// Request issues an authenticated call and decodes the JSON reply into out
// (out may be nil). A 401 triggers one token refresh and retry; any other
// non-2xx is surfaced as an UpstreamError carrying status and raw body.
func (c *Client) Request(ctx context.Context, method, path string, body, out any) error {
	token, err := c.bearerToken(ctx)
	if err != nil {
		return err
	}

	status, respBody, err := c.do(ctx, method, path, token, body)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized {
		c.logger.Warn("backend rejected token, refreshing", "method", method, "path", path)
		c.invalidateToken(token)
		token, err = c.bearerToken(ctx)
		if err != nil {
			return err
		}
		status, respBody, err = c.do(ctx, method, path, token, body)
		if err != nil {
			return err
		}
	}

	if status < 200 || status > 299 {
		return &helpers.UpstreamError{Status: status, Body: string(respBody)}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decoding backend response: %w", err)
		}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.hc.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("backend request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("reading backend response: %w", err)
	}

	return resp.StatusCode, respBody, nil
}
