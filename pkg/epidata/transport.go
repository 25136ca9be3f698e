package epidata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Transport performs one GET against the API and returns the decoded
// envelope. Implementations are chosen at construction time.
type Transport interface {
	Get(ctx context.Context, endpoint string, query url.Values) (*Envelope, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, endpoint string, query url.Values) (*Envelope, error)

// Get calls f.
func (f TransportFunc) Get(ctx context.Context, endpoint string, query url.Values) (*Envelope, error) {
	return f(ctx, endpoint, query)
}

// HTTPTransport is the net/http implementation of Transport.
type HTTPTransport struct {
	client    *http.Client
	userAgent string
}

// TransportOption applies a configuration option to the HTTPTransport.
type TransportOption func(*HTTPTransport)

// WithHTTPClient sets the underlying http.Client.
func WithHTTPClient(c *http.Client) TransportOption {
	return func(t *HTTPTransport) {
		if c != nil {
			t.client = c
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) TransportOption {
	return func(t *HTTPTransport) {
		if ua != "" {
			t.userAgent = ua
		}
	}
}

// NewHTTPTransport creates an HTTPTransport. The default http.Client has
// no timeout; pass WithHTTPClient to bound requests.
func NewHTTPTransport(opts ...TransportOption) *HTTPTransport {
	t := &HTTPTransport{
		client:    &http.Client{},
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Get performs the request. The body is decoded whatever the HTTP status,
// since the API reports its own errors inside the envelope.
func (t *HTTPTransport) Get(ctx context.Context, endpoint string, query url.Values) (*Envelope, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid endpoint %q: %w", ErrTransport, endpoint, err)
	}
	merged := u.Query()
	for k, vs := range query {
		merged[k] = vs
	}
	u.RawQuery = merged.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", ErrTransport, err)
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: HTTP %d: %w", ErrDecode, resp.StatusCode, err)
	}
	return &env, nil
}
