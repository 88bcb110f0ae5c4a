// Package client is the transport base the SDK packages share: base URL,
// bearer injection, envelope decoding, and the error mapping every caller
// relies on.
package client

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
)

const (
	// DefaultTimeout bounds every outbound request. Exceeding it is treated
	// identically to a network failure.
	DefaultTimeout = 30 * time.Second

	maxResponseBytes = 4 << 20
)

// Client issues requests against the backend. All SDK packages share one
// instance so they share the token store and timeout policy.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore
}

// Options configures New. BaseURL is required; everything else has a
// default.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	TokenStore TokenStore
	HTTPClient *http.Client
}

func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New("client: base URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("client: invalid base URL: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	httpClient.Timeout = timeout

	tokens := opts.TokenStore
	if tokens == nil {
		tokens = NewMemoryTokenStore()
	}

	return &Client{baseURL: base, http: httpClient, tokens: tokens}, nil
}

// Tokens exposes the shared credential slot so the session store can write
// it.
func (c *Client) Tokens() TokenStore {
	return c.tokens
}

// BaseURL returns the configured backend origin.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request describes one backend call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any

	// Out receives the decoded payload. When the envelope carries a "data"
	// field it is decoded from that field; otherwise the whole body is
	// decoded into Out so named-collection responses work too.
	Out any

	// Credentials marks a login attempt: a 401 then means the submitted
	// credentials were rejected, not that an existing session expired.
	Credentials bool

	// Token overrides the store-held token for this one request. Used by
	// the session store's best-effort logout after the slot is cleared.
	Token string
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Do performs the request and maps the outcome per the transport contract:
// no response at all is ErrUnreachable; 401 is ErrSessionExpired (or
// ErrInvalidCredentials for login attempts); any other non-2xx becomes a
// *BackendError carrying the server's message.
func (c *Client) Do(ctx context.Context, req Request) error {
	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("client: encode request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return fmt.Errorf("client: build request: %w", err)
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	token := req.Token
	if token == "" {
		token = c.tokens.Token()
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	var env envelope
	if len(raw) > 0 {
		// A malformed body on an error status still maps by status; only a
		// malformed success body is a server-response problem.
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
			return fmt.Errorf("%w: %v", ErrInvalidServerResponse, err)
		}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if req.Credentials {
			return ErrInvalidCredentials
		}
		return ErrSessionExpired
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &BackendError{Status: resp.StatusCode, Message: env.Message}
	}

	if req.Out == nil {
		return nil
	}
	payload := []byte(env.Data)
	if len(payload) == 0 || string(payload) == "null" {
		payload = raw
	}
	if len(payload) == 0 {
		return fmt.Errorf("%w: empty body", ErrInvalidServerResponse)
	}
	if err := json.Unmarshal(payload, req.Out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidServerResponse, err)
	}
	return nil
}

// Get is shorthand for Do with GET and a decoded payload.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query, Out: out})
}

// Post is shorthand for Do with POST.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body, Out: out})
}

// Put is shorthand for Do with PUT.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body, Out: out})
}

// Delete is shorthand for Do with DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path})
}
