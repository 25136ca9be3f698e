// Package epidata is a client for the Delphi Epidata API.
//
// Every data source has one method on Client. A method validates its query
// synchronously and returns a *ValidationError without touching the
// network; otherwise it dispatches a single GET and later delivers
// (result, message, epidata) to the supplied Completion exactly once.
//
//	c := epidata.New()
//	done, out := epidata.Collect()
//	err := c.Fluview(ctx, epidata.FluviewQuery{
//		Regions:  epidata.Values("nat"),
//		Epiweeks: epidata.Of(epidata.NewRange(201440, 201501)),
//	}, done)
//	if err != nil { ... }
//	resp := <-out
package epidata

import (
	"net/http"
	"time"

	"github.com/okian/epidata/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// DefaultBaseURL is the public Epidata endpoint.
const DefaultBaseURL = "https://delphi.cmu.edu/epidata/api.php"

// DefaultUserAgent identifies this client to the API.
const DefaultUserAgent = "epidata-go/1.0"

const tracerName = "github.com/okian/epidata/pkg/epidata"

// Client issues requests against one Epidata endpoint. It holds no
// per-request state and is safe for concurrent use.
type Client struct {
	baseURL   string
	transport Transport
	logger    logger.Logger
	tracer    trace.Tracer

	// Used only to build the default transport.
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	rate       float64
	burst      int64
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithTransport injects the Transport. It takes precedence over the
// HTTP-specific options below.
func WithTransport(t Transport) Option {
	return func(c *Client) {
		if t != nil {
			c.transport = t
		}
	}
}

// WithClient sets the http.Client used by the default transport.
func WithClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds each request of the default transport.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithClientUserAgent sets the User-Agent of the default transport.
func WithClientUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithRateLimit wraps the transport in a token bucket allowing rate
// requests per second with bursts of burst.
func WithRateLimit(rate float64, burst int64) Option {
	return func(c *Client) {
		if rate > 0 {
			c.rate = rate
			c.burst = burst
		}
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		if tp != nil {
			c.tracer = tp.Tracer(tracerName)
		}
	}
}

// New constructs a Client with default configuration.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		logger:    logger.Nop(),
		tracer:    otel.GetTracerProvider().Tracer(tracerName),
		userAgent: DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.transport == nil {
		hc := c.httpClient
		if hc == nil {
			hc = &http.Client{}
		}
		if c.timeout > 0 {
			cp := *hc
			cp.Timeout = c.timeout
			hc = &cp
		}
		c.transport = NewHTTPTransport(WithHTTPClient(hc), WithUserAgent(c.userAgent))
	}
	if c.rate > 0 {
		c.transport = NewRateLimitedTransport(c.transport, c.rate, c.burst)
	}

	return c
}

// BaseURL returns the endpoint requests are sent to.
func (c *Client) BaseURL() string { return c.baseURL }
