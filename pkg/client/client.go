// Package client is the sharing-aware data access layer used by front ends.
//
// Everything starts from a [Session], obtained with [Client.SignIn]: the
// session carries the caller's identity and hands out the task and note
// stores, user lookup and realtime subscriptions. Signing out tears all of
// it down.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"todoshare/pkg/apperr"
)

var (
	// ErrMissingConfig means the backend URL or API key is absent.
	ErrMissingConfig = errors.New("client: backend URL and API key are required")
	// ErrSignedOut is returned by every call on a session after SignOut.
	ErrSignedOut = errors.New("client: session is signed out")
)

const (
	EnvURL    = "TODOSHARE_URL"
	EnvAPIKey = "TODOSHARE_API_KEY"
)

// Config points a Client at a backend.
type Config struct {
	BaseURL string
	APIKey  string
	// HTTPClient is used for request/response calls. Realtime streams use
	// its transport without the timeout. Defaults to a 30s-timeout client.
	HTTPClient *http.Client
}

// ConfigFromEnv reads TODOSHARE_URL and TODOSHARE_API_KEY.
func ConfigFromEnv() Config {
	return Config{
		BaseURL: os.Getenv(EnvURL),
		APIKey:  os.Getenv(EnvAPIKey),
	}
}

// Client talks to one backend. It holds no identity; see SignIn.
type Client struct {
	base   string
	apiKey string
	http   *http.Client
	stream *http.Client
}

func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" || cfg.APIKey == "" {
		return nil, ErrMissingConfig
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		base:   base,
		apiKey: cfg.APIKey,
		http:   hc,
		stream: &http.Client{Transport: hc.Transport},
	}, nil
}

// StatusError is a non-2xx answer from the backend.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return http.StatusText(e.Status)
	}
	return e.Message
}

// Unwrap maps the status onto the apperr sentinels.
func (e *StatusError) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest:
		return apperr.ErrValidation
	case http.StatusUnauthorized:
		return apperr.ErrUnauthorized
	case http.StatusNotFound:
		return apperr.ErrNotFound
	default:
		return nil
	}
}

func (c *Client) newRequest(ctx context.Context, method, path, token string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.apiKey)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// do sends one request and decodes a JSON answer into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, token, body)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return readStatusError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func readStatusError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body)
	return &StatusError{Status: resp.StatusCode, Message: body.Error}
}

// SignIn opens a session for the identity in token.
func (c *Client) SignIn(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, apperr.ErrUnauthorized
	}
	s := &Session{client: c, token: token, subs: make(map[uint64]func())}
	if err := c.do(ctx, http.MethodPost, "/auth/session", token, nil, &s.info); err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	return s, nil
}
