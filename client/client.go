package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultSignOutPath is the server's logout endpoint
const DefaultSignOutPath = "/api/auth/logout"

// Client is the HTTP client every UI call goes through
type Client struct {
	baseURL      string
	signOutPath  string
	store        Store
	invalidation *Invalidation
	http         *http.Client
}

// Option configures a Client
type Option func(*clientOptions)

type clientOptions struct {
	base        http.RoundTripper
	timeout     time.Duration
	traceID     func(context.Context) string
	logger      *slog.Logger
	inv         *Invalidation
	signOutPath string
}

// WithBaseTransport sets the RoundTripper the interceptor wraps
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(o *clientOptions) { o.base = rt }
}

// WithTimeout bounds every call
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.timeout = d }
}

// WithTraceID forwards the id returned by fn as X-Trace-ID
func WithTraceID(fn func(context.Context) string) Option {
	return func(o *clientOptions) { o.traceID = fn }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *clientOptions) { o.logger = logger }
}

// WithInvalidation shares an existing broker
func WithInvalidation(inv *Invalidation) Option {
	return func(o *clientOptions) { o.inv = inv }
}

func WithSignOutPath(path string) Option {
	return func(o *clientOptions) { o.signOutPath = path }
}

// New returns a Client for baseURL backed by store
func New(baseURL string, store Store, opts ...Option) *Client {
	o := clientOptions{
		timeout:     30 * time.Second,
		signOutPath: DefaultSignOutPath,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.inv == nil {
		o.inv = NewInvalidation()
	}

	return &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		signOutPath:  o.signOutPath,
		store:        store,
		invalidation: o.inv,
		http: &http.Client{
			Timeout: o.timeout,
			Transport: &Transport{
				Base:         o.base,
				Store:        store,
				Invalidation: o.inv,
				TraceID:      o.traceID,
				Logger:       o.logger,
			},
		},
	}
}

// Store returns the shared session store
func (c *Client) Store() Store {
	return c.store
}

// Invalidation returns the broker fired on 401
func (c *Client) Invalidation() *Invalidation {
	return c.invalidation
}

// Do sends req. Transport failures and non-2xx responses are returned as
// *Error; on success the caller owns the response body.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, NormalizeError(nil, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, NormalizeError(resp, nil)
	}
	return resp, nil
}

// JSON sends in as the request body, when not nil, and decodes the response
// into out, when not nil.
func (c *Client) JSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return NormalizeError(nil, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return NormalizeError(nil, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NormalizeError(nil, err)
	}
	return nil
}

// SignOut tells the server the session is over
func (c *Client) SignOut(ctx context.Context) error {
	return c.JSON(ctx, http.MethodPost, c.signOutPath, nil, nil)
}
