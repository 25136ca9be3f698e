package epidata

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/okian/epidata/pkg/logger"
	"github.com/okian/epidata/pkg/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Request outcome labels.
const (
	outcomeSuccess   = "success"
	outcomeTruncated = "truncated"
	outcomeFailure   = "failure"
	outcomeNoResults = "no_results"
	outcomeUnknown   = "unknown"
	outcomeOther     = "other"
)

// Dispatch sends params to the API on a new goroutine and delivers the
// outcome to done exactly once. It performs no validation. Transport and
// decode failures, including a cancelled ctx, surface as
// (ResultUnknown, "unknown error", nil). A nil done discards the outcome.
func (c *Client) Dispatch(ctx context.Context, done Completion, params Params) {
	if done == nil {
		done = func(int, string, json.RawMessage) {}
	}
	go func() {
		resp := c.roundTrip(ctx, params)
		done(resp.Result, resp.Message, resp.Epidata)
	}()
}

// roundTrip performs one request synchronously.
func (c *Client) roundTrip(ctx context.Context, params Params) Response {
	source := params.Source()
	requestID := uuid.NewString()
	ctx = logger.WithRequestID(ctx, requestID)

	ctx, span := c.tracer.Start(ctx, "epidata."+source,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("epidata.source", source),
			attribute.String("epidata.request_id", requestID),
		))
	defer span.End()

	metrics.IncRequestsInFlight()
	defer metrics.DecRequestsInFlight()

	start := time.Now()
	env, err := c.transport.Get(ctx, c.baseURL, params.Values())
	elapsedMs := float64(time.Since(start).Milliseconds())
	metrics.RecordRequestDuration(source, elapsedMs)

	if err != nil {
		kind := errorKind(err)
		c.logger.Warn(ctx, "epidata request failed",
			logger.Source(source),
			logger.String("kind", kind),
			logger.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.RecordTransportError(source, kind)
		metrics.RecordRequest(source, outcomeUnknown)
		return unknownResponse()
	}

	resp := env.normalize()
	span.SetAttributes(attribute.Int("epidata.result", resp.Result))
	if resp.Result == ResultUnknown {
		span.SetStatus(codes.Error, resp.Message)
	}
	metrics.RecordRequest(source, outcome(resp.Result))

	c.logger.Debug(ctx, "epidata request completed",
		logger.Source(source),
		logger.Int("result", resp.Result),
		logger.String("message", resp.Message),
		logger.Float64("elapsed_ms", elapsedMs))

	return resp
}

func outcome(result int) string {
	switch result {
	case ResultSuccess:
		return outcomeSuccess
	case ResultTruncated:
		return outcomeTruncated
	case ResultFailure:
		return outcomeFailure
	case ResultNoResults:
		return outcomeNoResults
	case ResultUnknown:
		return outcomeUnknown
	default:
		return outcomeOther
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "context"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrTransport):
		return "transport"
	default:
		return "other"
	}
}
