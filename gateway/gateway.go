// Package gateway is the single configured HTTP client for the remote exam
// scheduling API. Every request passes through the same hook chain: default
// headers, request id and credential attachment before sending; metrics and
// expiry detection after the response arrives.
package gateway

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
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jmcleod/examflow/internal/uuid"
	"github.com/jmcleod/examflow/storage"
)

// Persisted keys shared with the session package. They are always written
// and removed together, except that a profile update rewrites only UserKey.
const (
	TokenKey = "token"
	UserKey  = "user"
)

const (
	authScheme      = "Token"
	requestIDHeader = "X-Request-ID"
	userAgent       = "examflow-client/1.0"
)

// RequestHook runs immediately before a request is sent. Returning an error
// aborts the send.
type RequestHook func(req *http.Request) error

// ResponseHook runs immediately after a response is received and before it
// is returned to the caller.
type ResponseHook func(resp *http.Response)

// ExpiryFunc is notified once for every response that reports an expired or
// invalid credential (HTTP 401).
type ExpiryFunc func()

// Gateway holds the fixed outbound configuration. It reads and clears the
// persisted credential but does not own the in-memory session.
type Gateway struct {
	base    *url.URL
	client  *http.Client
	store   storage.Store
	headers http.Header
	logger  *slog.Logger
	metrics *metrics

	before []RequestHook
	after  []ResponseHook

	mu       sync.RWMutex
	onExpiry []ExpiryFunc
}

// Option configures the Gateway.
type Option func(*Gateway)

// WithHTTPClient replaces the underlying client. Timeouts are whatever the
// supplied client enforces; the gateway adds none.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) {
		g.client = c
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// WithHeader adds a default header sent with every request.
func WithHeader(key, value string) Option {
	return func(g *Gateway) {
		g.headers.Set(key, value)
	}
}

// WithExpiryHandler registers fn to run when a response reports HTTP 401.
// The owner of top-level navigation uses it to send the user to login.
func WithExpiryHandler(fn ExpiryFunc) Option {
	return func(g *Gateway) {
		g.onExpiry = append(g.onExpiry, fn)
	}
}

// WithRequestHook appends a hook after the built-in request hooks.
func WithRequestHook(h RequestHook) Option {
	return func(g *Gateway) {
		g.before = append(g.before, h)
	}
}

// WithResponseHook appends a hook after the built-in response hooks.
func WithResponseHook(h ResponseHook) Option {
	return func(g *Gateway) {
		g.after = append(g.after, h)
	}
}

// WithMetrics registers request and expiry counters on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(g *Gateway) {
		g.metrics = newMetrics(reg)
	}
}

// New creates a Gateway for the API rooted at baseURL (for example
// "http://localhost:8000/api"). store is where the credential is persisted.
func New(baseURL string, store storage.Store, opts ...Option) (*Gateway, error) {
	if store == nil {
		return nil, errors.New("gateway: store is required")
	}
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("gateway: parsing base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("gateway: base url %q must be absolute http(s)", baseURL)
	}

	g := &Gateway{
		base:    base,
		client:  &http.Client{},
		store:   store,
		headers: http.Header{},
	}
	g.headers.Set("Content-Type", "application/json")
	g.headers.Set("Accept", "application/json")
	g.headers.Set("User-Agent", userAgent)

	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}

	// Built-in hooks always run first.
	g.before = append([]RequestHook{g.applyDefaultHeaders, g.attachRequestID, g.attachCredential}, g.before...)
	g.after = append([]ResponseHook{g.recordMetrics, g.detectExpiry}, g.after...)
	return g, nil
}

// OnExpiry registers an additional expiry handler after construction.
func (g *Gateway) OnExpiry(fn ExpiryFunc) {
	g.mu.Lock()
	g.onExpiry = append(g.onExpiry, fn)
	g.mu.Unlock()
}

// URL resolves an API path (for example "/auth/login/") against the base URL.
func (g *Gateway) URL(path string, query url.Values) string {
	u := *g.base
	u.Path = strings.TrimRight(g.base.Path, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	} else {
		u.RawQuery = ""
	}
	return u.String()
}

// Send runs the request hooks, sends req and runs the response hooks. Non-2xx
// responses are returned as-is; only transport failures produce an error.
func (g *Gateway) Send(req *http.Request) (*http.Response, error) {
	for _, h := range g.before {
		if err := h(req); err != nil {
			return nil, err
		}
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.metrics.transportError(req.Method)
		g.logger.Debug("gateway: request failed", "method", req.Method, "url", req.URL.Redacted(), "error", err)
		return nil, err
	}

	for _, h := range g.after {
		h(resp)
	}
	return resp, nil
}

// Do sends a JSON request to path and decodes a JSON response into out.
// in and out may be nil. Non-2xx statuses are returned as *StatusError.
func (g *Gateway) Do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding %s %s request: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.URL(path, query), body)
	if err != nil {
		return fmt.Errorf("building %s %s request: %w", method, path, err)
	}

	resp, err := g.Send(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s %s response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: data}
	}

	if out != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding %s %s response: %w", method, path, err)
		}
	}
	return nil
}

func (g *Gateway) applyDefaultHeaders(req *http.Request) error {
	for k, v := range g.headers {
		if req.Header.Get(k) == "" {
			req.Header[k] = append([]string(nil), v...)
		}
	}
	return nil
}

func (g *Gateway) attachRequestID(req *http.Request) error {
	if req.Header.Get(requestIDHeader) == "" {
		req.Header.Set(requestIDHeader, uuid.New())
	}
	return nil
}

// attachCredential reads the persisted credential at send time so that a
// login or expiry elsewhere is reflected on the very next request.
func (g *Gateway) attachCredential(req *http.Request) error {
	token, err := g.store.Get(TokenKey)
	switch {
	case err == nil && token != "":
		req.Header.Set("Authorization", authScheme+" "+token)
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		g.logger.Warn("gateway: reading credential failed, sending anonymously", "error", err)
	}
	return nil
}

func (g *Gateway) recordMetrics(resp *http.Response) {
	g.metrics.response(resp.Request.Method, resp.StatusCode)
}

// detectExpiry clears the persisted session and notifies the expiry handlers.
// Repeated 401s re-clear already-cleared state, which is a no-op.
func (g *Gateway) detectExpiry(resp *http.Response) {
	if resp.StatusCode != http.StatusUnauthorized {
		return
	}

	if err := g.store.Delete(TokenKey, UserKey); err != nil {
		g.logger.Error("gateway: clearing expired session failed", "error", err)
	}
	g.metrics.expired()
	g.logger.Warn("gateway: credential rejected, session cleared",
		"method", resp.Request.Method, "url", resp.Request.URL.Redacted())

	g.mu.RLock()
	handlers := append([]ExpiryFunc(nil), g.onExpiry...)
	g.mu.RUnlock()
	for _, fn := range handlers {
		fn()
	}
}
