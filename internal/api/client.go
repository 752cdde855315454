// Package api is the REST client for the school administration backend. It
// owns authentication headers, error normalisation and the mapping of wire
// shapes onto the entity package.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jehnsen/admin-suite/internal/session"
)

// DefaultBaseURL is the backend address used when none is configured.
const DefaultBaseURL = "http://localhost:8000/api"

// Observer receives one observation per backend round trip. Status is 0 for
// network failures.
type Observer interface {
	ObserveBackend(method, resource string, status int, elapsed time.Duration)
}

// Client talks to the backend.
type Client struct {
	baseURL        string
	http           *http.Client
	sessions       session.Store
	logger         *slog.Logger
	observer       Observer
	onUnauthorized func(context.Context)
	group          singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying http client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithSessionStore sets where the auth slice is kept.
func WithSessionStore(store session.Store) Option {
	return func(c *Client) {
		if store != nil {
			c.sessions = store
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver attaches a metrics observer.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithUnauthorizedHook runs fn after a 401 has purged the session.
func WithUnauthorizedHook(fn func(context.Context)) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// New constructs a Client. An empty baseURL falls back to DefaultBaseURL.
func New(baseURL string, opts ...Option) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: 30 * time.Second},
		sessions: session.NewMemoryStore(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured backend address.
func (c *Client) BaseURL() string { return c.baseURL }

// Sessions exposes the auth store.
func (c *Client) Sessions() session.Store { return c.sessions }

type request struct {
	method  string
	path    string
	query   url.Values
	body    any
	headers map[string]string
	// shareKey collapses identical in-flight calls when non-empty.
	shareKey string
}

// do performs the round trip and returns the raw 2xx body.
func (c *Client) do(ctx context.Context, req request) ([]byte, error) {
	if req.shareKey == "" {
		return c.roundTrip(ctx, req)
	}
	token := session.Token(ctx, c.sessions)
	ch := c.group.DoChan(token+"|"+req.shareKey, func() (interface{}, error) {
		return c.roundTrip(context.WithoutCancel(ctx), req)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

func (c *Client) roundTrip(ctx context.Context, req request) ([]byte, error) {
	endpoint := c.baseURL + req.path
	if len(req.query) > 0 {
		endpoint += "?" + req.query.Encode()
	}
	var body io.Reader
	if req.body != nil {
		raw, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("api: encode %s %s: %w", req.method, req.path, err)
		}
		body = bytes.NewReader(raw)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("api: build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}
	token := session.Token(ctx, c.sessions)
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resource := resourceOf(req.path)
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.observe(req.method, resource, 0, start)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.Warn("backend unreachable", slog.String("method", req.method), slog.String("path", req.path), slog.Any("error", err))
		return nil, networkError(c.baseURL)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	c.observe(req.method, resource, resp.StatusCode, start)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, networkError(c.baseURL)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := decodeError(resp.StatusCode, payload)
		if resp.StatusCode == http.StatusUnauthorized && token != "" {
			// a caller's own token failing says nothing about the stored session
			if _, scoped := session.FromContext(ctx); !scoped {
				c.evict(ctx)
			}
		}
		c.logger.Debug("backend error", slog.String("method", req.method), slog.String("path", req.path), slog.Int("status", apiErr.Status), slog.String("message", apiErr.Message))
		return nil, apiErr
	}
	return payload, nil
}

func (c *Client) evict(ctx context.Context) {
	if err := c.sessions.Clear(ctx); err != nil {
		c.logger.Error("purge session", slog.Any("error", err))
	}
	c.logger.Info("session evicted after 401")
	if c.onUnauthorized != nil {
		c.onUnauthorized(ctx)
	}
}

func (c *Client) observe(method, resource string, status int, start time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveBackend(method, resource, status, time.Since(start))
}

// getJSON fetches path and decodes the body into dest. Identical concurrent
// GETs share one round trip.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dest any) error {
	key := http.MethodGet + " " + path
	if len(query) > 0 {
		key += "?" + query.Encode()
	}
	raw, err := c.do(ctx, request{method: http.MethodGet, path: path, query: query, shareKey: key})
	if err != nil {
		return err
	}
	return decodeBody(raw, dest)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, body, dest any) error {
	raw, err := c.do(ctx, request{method: method, path: path, body: body})
	if err != nil {
		return err
	}
	if dest == nil {
		return nil
	}
	return decodeBody(raw, dest)
}

func decodeBody(raw []byte, dest any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return errors.New("api: empty response body")
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("api: decode response: %w", err)
	}
	return nil
}

// resourceOf returns the first path segment, used as a low-cardinality label.
func resourceOf(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		return trimmed[:i]
	}
	if trimmed == "" {
		return "root"
	}
	return trimmed
}
