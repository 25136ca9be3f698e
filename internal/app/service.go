// Package service owns the long-lived pieces behind the epidata CLI: the
// API client, optional tracing export, the telemetry server and the
// periodic fetch scheduler.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/okian/epidata/internal/adapters/http/telemetry"
	"github.com/okian/epidata/internal/config"
	"github.com/okian/epidata/pkg/epidata"
	"github.com/okian/epidata/pkg/logger"
	"github.com/okian/epidata/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

const shutdownTimeout = 10 * time.Second

// Run status labels.
const (
	statusOK    = "ok"
	statusError = "error"
)

// Sentinel kinds for service errors.
var (
	ErrNotStarted      = errors.New("service not started")
	ErrInvalidInterval = errors.New("schedule interval must be positive")
	ErrSchedule        = errors.New("schedule job failed")
	ErrTracing         = errors.New("tracing setup failed")
)

// Job is one unit of periodic work against the API.
type Job func(ctx context.Context, c *epidata.Client) error

// Service wires the client to its operational surroundings.
type Service struct {
	mu sync.RWMutex

	// Core components
	client         *epidata.Client
	tracerProvider *sdktrace.TracerProvider
	telemetry      *telemetry.Server
	scheduler      *gocron.Scheduler

	// Configuration
	baseURL        string
	userAgent      string
	timeout        time.Duration
	rate           float64
	burst          int64
	metricsAddr    string
	jaegerEndpoint string
	serviceName    string
	transport      epidata.Transport

	// State
	started  bool
	runs     atomic.Int64
	failures atomic.Int64

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig applies every client and telemetry setting from cfg.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg == nil {
			return
		}
		for _, opt := range []Option{
			WithBaseURL(cfg.BaseURL),
			WithUserAgent(cfg.UserAgent),
			WithTimeout(cfg.Timeout()),
			WithRateLimit(cfg.RateLimit, cfg.RateBurst),
			WithMetricsAddr(cfg.MetricsAddr),
			WithJaegerEndpoint(cfg.JaegerEndpoint),
			WithServiceName(cfg.ServiceName),
		} {
			opt(s)
		}
	}
}

// WithBaseURL sets the API endpoint.
func WithBaseURL(u string) Option {
	return func(s *Service) {
		if u != "" {
			s.baseURL = u
		}
	}
}

// WithUserAgent sets the User-Agent sent to the API.
func WithUserAgent(ua string) Option {
	return func(s *Service) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// WithTimeout bounds each API request.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithRateLimit caps API requests per second.
func WithRateLimit(rate float64, burst int64) Option {
	return func(s *Service) {
		if rate > 0 {
			s.rate = rate
			s.burst = burst
		}
	}
}

// WithMetricsAddr enables the telemetry server on addr.
func WithMetricsAddr(addr string) Option {
	return func(s *Service) {
		s.metricsAddr = addr
	}
}

// WithJaegerEndpoint enables span export to a Jaeger collector.
func WithJaegerEndpoint(endpoint string) Option {
	return func(s *Service) {
		s.jaegerEndpoint = endpoint
	}
}

// WithServiceName sets the tracing service name.
func WithServiceName(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.serviceName = name
		}
	}
}

// WithTransport replaces the client's HTTP transport.
func WithTransport(t epidata.Transport) Option {
	return func(s *Service) {
		s.transport = t
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		baseURL:     epidata.DefaultBaseURL,
		userAgent:   epidata.DefaultUserAgent,
		serviceName: "epidata",
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start builds the client and starts the optional tracing export,
// telemetry server and the scheduler.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting epidata service...", logger.String("base_url", s.baseURL))

	clientOpts := []epidata.Option{
		epidata.WithBaseURL(s.baseURL),
		epidata.WithClientUserAgent(s.userAgent),
		epidata.WithTimeout(s.timeout),
		epidata.WithRateLimit(s.rate, s.burst),
		epidata.WithLogger(s.logger.Named("client")),
	}
	if s.transport != nil {
		clientOpts = append(clientOpts, epidata.WithTransport(s.transport))
	}

	if s.jaegerEndpoint != "" {
		tp, err := newTracerProvider(s.serviceName, s.jaegerEndpoint)
		if err != nil {
			return err
		}
		s.tracerProvider = tp
		clientOpts = append(clientOpts, epidata.WithTracerProvider(tp))
		s.logger.Info(ctx, "exporting traces to jaeger", logger.String("endpoint", s.jaegerEndpoint))
	}

	s.client = epidata.New(clientOpts...)

	if s.metricsAddr != "" {
		s.telemetry = telemetry.New(s.metricsAddr,
			telemetry.WithLogger(s.logger.Named("telemetry")),
			telemetry.WithStats(s))
		if err := s.telemetry.Start(ctx); err != nil {
			s.telemetry = nil
			s.shutdownTracing(ctx, s.tracerProvider)
			s.tracerProvider = nil
			return err
		}
	}

	s.scheduler = gocron.NewScheduler(time.UTC)
	s.scheduler.SingletonModeAll()
	s.scheduler.StartAsync()

	s.started = true
	s.logger.Info(ctx, "epidata service started",
		logger.Bool("telemetry", s.telemetry != nil),
		logger.Bool("tracing", s.tracerProvider != nil),
	)

	return nil
}

func newTracerProvider(serviceName, endpoint string) (*sdktrace.TracerProvider, error) {
	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(endpoint)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTracing, err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
		)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp, nil
}

// Client returns the API client. It is nil until Start succeeds.
func (s *Service) Client() *epidata.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

// TelemetryAddr returns the bound telemetry address, or "" when disabled.
func (s *Service) TelemetryAddr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.telemetry == nil {
		return ""
	}
	return s.telemetry.Addr()
}

// Run executes job once, recording its outcome under name.
func (s *Service) Run(ctx context.Context, name string, job Job) error {
	client := s.Client()
	if client == nil {
		return ErrNotStarted
	}
	return s.runJob(ctx, name, client, job)
}

// Schedule runs job every interval, first after one interval has passed,
// until ctx is done or the service stops. Overlapping runs of a job are
// skipped.
func (s *Service) Schedule(ctx context.Context, name string, every time.Duration, job Job) error {
	if every <= 0 {
		return ErrInvalidInterval
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return ErrNotStarted
	}

	client := s.client
	_, err := s.scheduler.Every(every).Tag(name).WaitForSchedule().Do(func() {
		if ctx.Err() != nil {
			return
		}
		_ = s.runJob(ctx, name, client, job)
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSchedule, name, err)
	}

	s.logger.Info(ctx, "scheduled periodic fetch",
		logger.String("job", name),
		logger.Duration("every", every))
	return nil
}

func (s *Service) runJob(ctx context.Context, name string, client *epidata.Client, job Job) error {
	start := time.Now()
	err := job(ctx, client)
	s.runs.Add(1)

	if err != nil {
		s.failures.Add(1)
		metrics.RecordScheduledRun(name, statusError)
		s.logger.Warn(ctx, "fetch failed",
			logger.String("job", name),
			logger.Duration("elapsed", time.Since(start)),
			logger.Error(err))
		return err
	}

	metrics.RecordScheduledRun(name, statusOK)
	s.logger.Debug(ctx, "fetch completed",
		logger.String("job", name),
		logger.Duration("elapsed", time.Since(start)))
	return nil
}

// Stop gracefully shuts down the service. Components are released outside
// the lock so in-flight telemetry requests can still read stats.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	scheduler, tel, tp := s.scheduler, s.telemetry, s.tracerProvider
	s.scheduler, s.telemetry, s.tracerProvider = nil, nil, nil
	s.started = false
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping epidata service...")

	if scheduler != nil {
		scheduler.Stop()
		scheduler.Clear()
	}

	if tel != nil {
		if err := tel.Shutdown(ctx); err != nil {
			s.logger.Error(ctx, "telemetry shutdown failed", logger.Error(err))
		}
	}

	s.shutdownTracing(ctx, tp)

	s.logger.Info(ctx, "epidata service stopped")
}

func (s *Service) shutdownTracing(ctx context.Context, tp *sdktrace.TracerProvider) {
	if tp == nil {
		return
	}
	if err := tp.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "trace provider shutdown failed", logger.Error(err))
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := 0
	if s.scheduler != nil {
		jobs = s.scheduler.Len()
	}

	return map[string]any{
		"started":        s.started,
		"base_url":       s.baseURL,
		"scheduled_jobs": jobs,
		"runs":           s.runs.Load(),
		"failures":       s.failures.Load(),
		"tracing":        s.tracerProvider != nil,
	}
}
