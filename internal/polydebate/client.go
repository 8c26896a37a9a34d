/**
 * @description
 * HTTP Client for the PolyDebate backend API.
 * One typed method per backend operation; errors are normalized into
 * APIError (backend said no) or UnreachableError (backend not there).
 *
 * @dependencies
 * - net/http
 * - encoding/json
 * - frontend/internal/config
 *
 * @notes
 * - The bearer token is read from the bound TokenStore on every request.
 * - Nothing here retries; every retry is a user action.
 */

package polydebate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/polydebate/frontend/internal/config"
	"github.com/polydebate/frontend/internal/models"
)

const (
	DefaultTimeout = 30 * time.Second
	maxErrorBody   = 64 << 10
)

// TokenStore is the client-persisted half of a session the API client needs
type TokenStore interface {
	Token(ctx context.Context) (string, error)
	SaveSession(ctx context.Context, token string, user *models.User) error
	ClearSession(ctx context.Context) error
}

// Client talks to the PolyDebate backend
type Client struct {
	BaseURL      string
	HTTPClient   *http.Client
	StreamClient *http.Client // no overall timeout, streams are long-lived

	tokens TokenStore
}

// NewClient creates a client from configuration
func NewClient(cfg *config.Config) *Client {
	timeout := cfg.API.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return New(cfg.API.BaseURL, &http.Client{Timeout: timeout})
}

// New creates a client for baseURL using httpClient for request/response calls
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		HTTPClient:   httpClient,
		StreamClient: &http.Client{Transport: httpClient.Transport},
	}
}

// WithTokens returns a shallow copy bound to one session's token store
func (c *Client) WithTokens(ts TokenStore) *Client {
	cp := *c
	cp.tokens = ts
	return &cp
}

// envelope is the {"success","message","data"} wrapper used by auth-era endpoints
type envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	if len(query) > 0 {
		path = path + "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// do handles request construction, auth header, error normalization and decoding
func (c *Client) do(ctx context.Context, method, path string, payload interface{}, out interface{}) error {
	req, err := c.newRequest(ctx, method, path, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return c.transportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, payload interface{}) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read session token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

func (c *Client) transportError(ctx context.Context, err error) error {
	// caller gave up; that is not an outage
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &UnreachableError{BaseURL: c.BaseURL, Err: err}
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil && body.Error.Message != "" {
		apiErr.Code = body.Error.Code
		apiErr.Message = body.Error.Message
		return apiErr
	}

	apiErr.Message = genericStatusMessage(resp.StatusCode)
	return apiErr
}

// Health pings GET /api/health
func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, "/api/health", nil, nil)
}
