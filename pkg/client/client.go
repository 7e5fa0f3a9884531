// Package client provides the transport used by the console to talk to the
// admin REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Request describes a single REST call. Build it with NewRequest; a Request is
// treated as immutable once constructed.
type Request struct {
	Method string
	URL    string
	Params map[string]string
	Data   interface{}
}

// NewRequest returns a Request holding its own copy of params.
func NewRequest(method, url string, params map[string]string, data interface{}) Request {
	var p map[string]string
	if len(params) > 0 {
		p = make(map[string]string, len(params))
		for k, v := range params {
			p[k] = v
		}
	}
	return Request{Method: method, URL: url, Params: p, Data: data}
}

// Get is shorthand for a GET request with query params.
func Get(url string, params map[string]string) Request {
	return NewRequest(http.MethodGet, url, params, nil)
}

// Response is the raw outcome of a successful (2xx) request.
type Response struct {
	StatusCode int
	Data       []byte
}

// Transport issues requests against the REST API.
type Transport interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// TransportFunc adapts a plain function to the Transport interface.
type TransportFunc func(ctx context.Context, req Request) (*Response, error)

// Do calls f(ctx, req).
func (f TransportFunc) Do(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

// HTTP is a Transport backed by net/http.
type HTTP struct {
	baseURL    string
	token      string
	session    string
	httpClient *http.Client
}

// Option configures an HTTP transport.
type Option func(*HTTP)

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(h *HTTP) { h.httpClient.Timeout = d }
}

// WithToken sends "Authorization: Bearer <token>" on every request.
func WithToken(token string) Option {
	return func(h *HTTP) { h.token = token }
}

// WithSession sends the given value as the JSESSIONID cookie.
func WithSession(session string) Option {
	return func(h *HTTP) { h.session = session }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTP) { h.httpClient = c }
}

// New creates an HTTP transport pointing at the given base URL
// (e.g. "http://localhost:8080").
func New(baseURL string, opts ...Option) *HTTP {
	h := &HTTP{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// BaseURL returns the API root this transport talks to.
func (h *HTTP) BaseURL() string {
	return h.baseURL
}

// Do executes req and returns the response body for 2xx statuses. Non-2xx
// statuses yield an *APIError; network failures yield a *TransportError.
func (h *HTTP) Do(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := h.newHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := h.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Method: req.Method, URL: req.URL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: req.Method, URL: req.URL, Err: fmt.Errorf("read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(resp.StatusCode, body)
	}
	return &Response{StatusCode: resp.StatusCode, Data: body}, nil
}

// newHTTPRequest builds the net/http request for req.
// Data, when present, is JSON-encoded as the body.
func (h *HTTP) newHTTPRequest(ctx context.Context, req Request) (*http.Request, error) {
	var reqBody io.Reader
	if req.Data != nil {
		buf, err := json.Marshal(req.Data)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	target := h.baseURL + req.URL
	if len(req.Params) > 0 {
		q := url.Values{}
		for k, v := range req.Params {
			q.Set(k, v)
		}
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + q.Encode()
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if reqBody != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.New().String())
	if h.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+h.token)
	}
	if h.session != "" {
		httpReq.AddCookie(&http.Cookie{Name: "JSESSIONID", Value: h.session})
	}
	return httpReq, nil
}

// DoJSON runs req on t and decodes the response body into target (when
// target is non-nil and the body is not empty).
func DoJSON(ctx context.Context, t Transport, req Request, target interface{}) error {
	resp, err := t.Do(ctx, req)
	if err != nil {
		return err
	}
	if target != nil && len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, target); err != nil {
			return fmt.Errorf("decode response body: %w", err)
		}
	}
	return nil
}
