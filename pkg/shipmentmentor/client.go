// Package shipmentmentor provides a client for the Shipment Mentor tracking API.
package shipmentmentor

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// Version is reported in the User-Agent header.
const Version = "0.1.0"

// Operation names, used in errors, logs and spans.
const (
	OpSendShipment   = "SendShipment"
	OpUpdateShipment = "UpdateShipment"
	OpAddTracking    = "AddTracking"
)

// Config holds Shipment Mentor configuration.
type Config struct {
	AccessToken string
	// Environment is "sandbox" or anything else for production.
	Environment string
	// BaseURL overrides the environment endpoint when set.
	BaseURL string
	// Timeout is forwarded to the HTTP layer. Zero imposes none.
	Timeout time.Duration
	UseMock bool
}

// Client is the Shipment Mentor client. It validates and normalizes
// payloads, then delegates the call to the underlying APIClient.
// A Client is immutable and safe for concurrent use.
type Client struct {
	env         Environment
	accessToken string
	baseURL     string
	apiClient   APIClient
	logger      *otelzap.Logger
	tracer      trace.Tracer
}

// New creates a new client. It never fails: a missing access token is
// reported by every call, whatever the APIClient.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = ResolveEnvironment(cfg.Environment).BaseURL()
	}

	var apiClient APIClient
	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL:     cfg.BaseURL,
			AccessToken: cfg.AccessToken,
			Timeout:     cfg.Timeout,
		})
	}

	return NewWithAPIClient(cfg, apiClient, logger, tracer)
}

// NewWithAPIClient creates a new client with a custom API client.
// This is useful for injecting mock clients in tests.
func NewWithAPIClient(cfg Config, apiClient APIClient, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	if logger == nil {
		logger = otelzap.New(zap.NewNop())
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("")
	}

	env := ResolveEnvironment(cfg.Environment)
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = env.BaseURL()
	}

	return &Client{
		env:         env,
		accessToken: cfg.AccessToken,
		baseURL:     baseURL,
		apiClient:   apiClient,
		logger:      logger,
		tracer:      tracer,
	}
}

// Environment returns the resolved environment.
func (c *Client) Environment() Environment {
	return c.env
}

// BaseURL returns the resolved API endpoint.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SendShipment validates s and creates the shipment.
func (c *Client) SendShipment(ctx context.Context, s *Shipment) (json.RawMessage, error) {
	ctx, span := c.startSpan(ctx, OpSendShipment)
	defer span.End()

	payload, err := ValidateShipment(s)
	if err != nil {
		return nil, c.fail(ctx, span, OpSendShipment, err)
	}
	if err := c.checkToken(); err != nil {
		return nil, c.fail(ctx, span, OpSendShipment, err)
	}

	c.logger.Ctx(ctx).Info("Sending shipment",
		zap.String("courier", payload.Courier),
		zap.String("status", payload.Status),
		zap.Int("parcel_count", len(payload.Parcels)),
	)

	result, err := c.apiClient.CreateShipment(ctx, payload)
	if err != nil {
		return nil, c.fail(ctx, span, OpSendShipment, err)
	}
	return result, nil
}

// UpdateShipment validates u and posts the status update.
func (c *Client) UpdateShipment(ctx context.Context, u *ShipmentUpdate) (json.RawMessage, error) {
	ctx, span := c.startSpan(ctx, OpUpdateShipment)
	defer span.End()

	payload, err := ValidateShipmentUpdate(u)
	if err != nil {
		return nil, c.fail(ctx, span, OpUpdateShipment, err)
	}
	if err := c.checkToken(); err != nil {
		return nil, c.fail(ctx, span, OpUpdateShipment, err)
	}

	span.SetAttributes(attribute.String("shipmentmentor.tid", payload.TID))
	c.logger.Ctx(ctx).Info("Updating shipment",
		zap.String("tid", payload.TID),
		zap.String("status", payload.Status),
	)

	result, err := c.apiClient.UpdateShipment(ctx, payload)
	if err != nil {
		return nil, c.fail(ctx, span, OpUpdateShipment, err)
	}
	return result, nil
}

// AddTracking validates t and registers the tracking entry.
func (c *Client) AddTracking(ctx context.Context, t *Tracking) (json.RawMessage, error) {
	ctx, span := c.startSpan(ctx, OpAddTracking)
	defer span.End()

	payload, err := ValidateTracking(t)
	if err != nil {
		return nil, c.fail(ctx, span, OpAddTracking, err)
	}
	if err := c.checkToken(); err != nil {
		return nil, c.fail(ctx, span, OpAddTracking, err)
	}

	span.SetAttributes(attribute.String("shipmentmentor.tid", payload.TID))
	c.logger.Ctx(ctx).Info("Adding tracking", zap.String("tid", payload.TID))

	result, err := c.apiClient.AddTracking(ctx, payload)
	if err != nil {
		return nil, c.fail(ctx, span, OpAddTracking, err)
	}
	return result, nil
}

func (c *Client) startSpan(ctx context.Context, op string) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, "shipmentmentor."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("shipmentmentor.operation", op),
			attribute.String("shipmentmentor.environment", string(c.env)),
		),
	)
}

func (c *Client) checkToken() error {
	if c.accessToken == "" {
		return newError(KindConfiguration, "access token is not configured").withCause(ErrMissingAccessToken)
	}
	return nil
}

// fail returns err tagged with op, records it on the span and logs it.
func (c *Client) fail(ctx context.Context, span trace.Span, op string, err error) error {
	var smErr *Error
	if errors.As(err, &smErr) {
		// Tag a copy: the APIClient may hand back a shared value such as a sentinel.
		tagged := *smErr
		if tagged.Op == "" {
			tagged.Op = op
		}
		smErr = &tagged
		err = smErr
	} else {
		smErr = newError(KindTransport, "").withOp(op).withCause(err)
		err = smErr
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, string(smErr.Kind))

	c.logger.Ctx(ctx).Error("Shipment Mentor API error",
		zap.String("operation", op),
		zap.String("kind", string(smErr.Kind)),
		zap.Int("status_code", smErr.StatusCode),
		zap.Error(err),
	)
	return err
}
