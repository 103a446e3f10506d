// Package skynet provides a client for the Skynet courier API.
package skynet

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/tournevent/skynet/pkg/skynet"

// Credentials identify a Skynet account. They are sent with every token request.
type Credentials struct {
	Username      string
	Password      string
	SystemID      string
	AccountNumber string
}

// Config holds Skynet client configuration.
type Config struct {
	Credentials

	BaseURL string        // Defaults to DefaultBaseURL
	Timeout time.Duration // Defaults to 30s

	// TokenPayload defaults to TokenPayloadString.
	TokenPayload TokenPayload

	// TokenCacheTTL reuses a token across calls for this long. Zero fetches a token per call.
	TokenCacheTTL time.Duration

	UseMock bool // When true, uses MockTransport
}

// Client is the Skynet API client. It is safe for concurrent use
// when its Transport is.
type Client struct {
	config    Config
	transport Transport
	tokens    tokenCache
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new Skynet client.
// If cfg.UseMock is true, it uses a mock transport for testing.
// Otherwise, it uses the resty transport.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var transport Transport

	if cfg.UseMock {
		transport = NewMockTransport()
	} else {
		transport = NewRestyTransport(RestyTransportConfig{
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
		})
	}

	return NewWithTransport(cfg, transport, logger, tracer)
}

// NewWithTransport creates a new Skynet client with a custom transport.
func NewWithTransport(cfg Config, transport Transport, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	if cfg.TokenPayload == "" {
		cfg.TokenPayload = TokenPayloadString
	}
	if logger == nil {
		logger = otelzap.New(zap.NewNop())
	}
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	return &Client{
		config:    cfg,
		transport: transport,
		tokens:    newTokenCache(cfg.TokenCacheTTL),
		logger:    logger,
		tracer:    tracer,
	}
}

// SecurityToken requests a new security token with the stored credentials.
// A non-2xx answer is returned as a Response, not an error.
func (c *Client) SecurityToken(ctx context.Context) (resp *Response, err error) {
	ctx, span := c.startSpan(ctx, OpSecurityToken)
	defer func() { endSpan(span, resp, err) }()

	c.logger.Ctx(ctx).Debug("Requesting Skynet security token",
		zap.String("username", c.config.Username),
		zap.String("system_id", c.config.SystemID),
	)

	return c.post(ctx, OpSecurityToken, PathSecurityToken, map[string]any{
		"Username":      c.config.Username,
		"Password":      c.config.Password,
		"SystemId":      c.config.SystemID,
		"AccountNumber": c.config.AccountNumber,
	})
}

// ValidateSuburbAndPostalCode checks a "suburb" and "postal-code" pair.
// Skynet answers with a bare true or false.
func (c *Client) ValidateSuburbAndPostalCode(ctx context.Context, location Params) (resp *Response, err error) {
	ctx, span := c.startSpan(ctx, OpValidateSuburb)
	defer func() { endSpan(span, resp, err) }()

	body := make(map[string]any, len(validateSuburbFields))
	if err := apply(body, location, validateSuburbFields); err != nil {
		return nil, fmt.Errorf("%s: %w", OpValidateSuburb, err)
	}

	c.logger.Ctx(ctx).Info("Validating Skynet suburb",
		zap.String("suburb", location.String("suburb")),
		zap.String("postal_code", location.String("postal-code")),
	)

	return c.post(ctx, OpValidateSuburb, PathValidateSuburb, body)
}

// PostalCodesFromSuburb lists the postal codes registered for a suburb.
func (c *Client) PostalCodesFromSuburb(ctx context.Context, suburb string) (resp *Response, err error) {
	ctx, span := c.startSpan(ctx, OpPostalCodes)
	defer func() { endSpan(span, resp, err) }()

	c.logger.Ctx(ctx).Info("Getting Skynet postal codes", zap.String("suburb", suburb))

	token, err := c.token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", OpPostalCodes, err)
	}

	return c.post(ctx, OpPostalCodes, PathPostalCodes, map[string]any{
		securityTokenWireName: token,
		"suburbName":          suburb,
	})
}

// Quote prices a single parcel between two cities.
func (c *Client) Quote(ctx context.Context, parcel Params) (resp *Response, err error) {
	ctx, span := c.startSpan(ctx, OpQuote)
	defer func() { endSpan(span, resp, err) }()

	if err := checkRequired(parcel, quoteFields, quoteParcelFields); err != nil {
		return nil, fmt.Errorf("%s: %w", OpQuote, err)
	}

	c.logger.Ctx(ctx).Info("Getting Skynet quote",
		zap.String("from_city", parcel.String("collect-city")),
		zap.String("to_city", parcel.String("deliver-city")),
		zap.String("service_type", parcel.String("service-type")),
	)

	token, err := c.token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", OpQuote, err)
	}

	body := map[string]any{
		securityTokenWireName: token,
		"AccountNumber":       c.config.AccountNumber,
	}
	if err := apply(body, parcel, quoteFields); err != nil {
		return nil, fmt.Errorf("%s: %w", OpQuote, err)
	}
	parcels, err := singleParcel(parcel, quoteParcelFields)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", OpQuote, err)
	}
	body["ParcelList"] = parcels

	return c.post(ctx, OpQuote, PathQuote, body)
}

// DeliveryETA estimates delivery time between two locations.
func (c *Client) DeliveryETA(ctx context.Context, locations Params) (resp *Response, err error) {
	ctx, span := c.startSpan(ctx, OpDeliveryETA)
	defer func() { endSpan(span, resp, err) }()

	if err := checkRequired(locations, deliveryETAFields); err != nil {
		return nil, fmt.Errorf("%s: %w", OpDeliveryETA, err)
	}

	c.logger.Ctx(ctx).Info("Getting Skynet delivery ETA",
		zap.String("from_suburb", locations.String("from-suburb")),
		zap.String("to_suburb", locations.String("to-suburb")),
	)

	token, err := c.token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", OpDeliveryETA, err)
	}

	body := map[string]any{
		securityTokenWireName: token,
		"AccountNumber":       c.config.AccountNumber,
	}
	if err := apply(body, locations, deliveryETAFields); err != nil {
		return nil, fmt.Errorf("%s: %w", OpDeliveryETA, err)
	}

	return c.post(ctx, OpDeliveryETA, PathDeliveryETA, body)
}

// CreateWaybill books a collection for a single parcel.
// Optional fields that are not supplied are sent as null or their vendor default.
func (c *Client) CreateWaybill(ctx context.Context, waybill Params) (resp *Response, err error) {
	ctx, span := c.startSpan(ctx, OpCreateWaybill)
	defer func() { endSpan(span, resp, err) }()

	if err := checkRequired(waybill, waybillFields, waybillParcelFields); err != nil {
		return nil, fmt.Errorf("%s: %w", OpCreateWaybill, err)
	}

	c.logger.Ctx(ctx).Info("Creating Skynet waybill",
		zap.String("customer_reference", waybill.String("customer-reference")),
		zap.String("collection_date", waybill.String("collection-date")),
		zap.String("from_suburb", waybill.String("from-suburb")),
		zap.String("to_suburb", waybill.String("to-suburb")),
	)

	token, err := c.token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", OpCreateWaybill, err)
	}

	body := map[string]any{
		securityTokenWireName: token,
		"AccountNumber":       c.config.AccountNumber,
	}
	if err := apply(body, waybill, waybillFields); err != nil {
		return nil, fmt.Errorf("%s: %w", OpCreateWaybill, err)
	}
	parcels, err := singleParcel(waybill, waybillParcelFields)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", OpCreateWaybill, err)
	}
	body["ParcelList"] = parcels

	return c.post(ctx, OpCreateWaybill, PathCreateWaybill, body)
}

// WaybillPOD fetches the proof-of-delivery image for a waybill.
func (c *Client) WaybillPOD(ctx context.Context, waybillNumber string) (resp *Response, err error) {
	ctx, span := c.startSpan(ctx, OpWaybillPOD)
	defer func() { endSpan(span, resp, err) }()

	c.logger.Ctx(ctx).Info("Getting Skynet waybill POD", zap.String("waybill_number", waybillNumber))

	token, err := c.token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", OpWaybillPOD, err)
	}

	return c.post(ctx, OpWaybillPOD, PathWaybillPOD, map[string]any{
		securityTokenWireName: token,
		"WaybillNumber":       waybillNumber,
	})
}

// TrackWaybill fetches tracking events. It needs no token.
func (c *Client) TrackWaybill(ctx context.Context, waybillNumber string) (resp *Response, err error) {
	ctx, span := c.startSpan(ctx, OpTrackWaybill)
	defer func() { endSpan(span, resp, err) }()

	c.logger.Ctx(ctx).Info("Tracking Skynet waybill", zap.String("waybill_number", waybillNumber))

	raw, err := c.transport.Get(ctx, PathTrackWaybill, map[string]string{
		trackWaybillReferenceKey: waybillNumber,
	})
	if err != nil {
		c.logger.Ctx(ctx).Error("Skynet transport error", zap.String("operation", OpTrackWaybill), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", OpTrackWaybill, err)
	}
	return c.wrap(ctx, OpTrackWaybill, raw), nil
}

// Invoke runs the named operation with kebab-case params.
// PostalCodesFromSuburb reads "suburb"; WaybillPOD and TrackWaybill read "waybill-number".
func (c *Client) Invoke(ctx context.Context, op string, p Params) (*Response, error) {
	switch op {
	case OpSecurityToken:
		return c.SecurityToken(ctx)
	case OpValidateSuburb:
		return c.ValidateSuburbAndPostalCode(ctx, p)
	case OpPostalCodes:
		if _, ok := p.lookup("suburb"); !ok {
			return nil, fmt.Errorf("%s: %w", op, &FieldError{Field: "suburb"})
		}
		return c.PostalCodesFromSuburb(ctx, p.String("suburb"))
	case OpQuote:
		return c.Quote(ctx, p)
	case OpDeliveryETA:
		return c.DeliveryETA(ctx, p)
	case OpCreateWaybill:
		return c.CreateWaybill(ctx, p)
	case OpWaybillPOD, OpTrackWaybill:
		if _, ok := p.lookup("waybill-number"); !ok {
			return nil, fmt.Errorf("%s: %w", op, &FieldError{Field: "waybill-number"})
		}
		if op == OpWaybillPOD {
			return c.WaybillPOD(ctx, p.String("waybill-number"))
		}
		return c.TrackWaybill(ctx, p.String("waybill-number"))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, op)
	}
}

// token returns the SecurityToken field value for an authenticated request.
func (c *Client) token(ctx context.Context) (any, error) {
	if payload, ok := c.tokens.Get(); ok {
		return payload, nil
	}

	resp, err := c.SecurityToken(ctx)
	if err != nil {
		return nil, err
	}

	if !resp.Successful() {
		return nil, NewAPIError(OpSecurityToken, fmt.Sprintf("TOKEN_HTTP_%d", resp.Status()), "security token request rejected").
			WithStatusCode(resp.Status()).
			WithCause(ErrAuthenticationFailed)
	}

	token, ok := resp.JSONField(securityTokenWireName)
	if !ok || token == "" {
		return nil, NewAPIError(OpSecurityToken, "TOKEN_MISSING", "response carries no SecurityToken").
			WithStatusCode(resp.Status()).
			WithCause(ErrAuthenticationFailed)
	}

	var payload any = token
	if c.config.TokenPayload == TokenPayloadResponse {
		payload, _ = resp.JSON()
	}
	c.tokens.Set(payload)
	return payload, nil
}

func (c *Client) post(ctx context.Context, op, path string, body map[string]any) (*Response, error) {
	raw, err := c.transport.Post(ctx, path, body)
	if err != nil {
		c.logger.Ctx(ctx).Error("Skynet transport error", zap.String("operation", op), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c.wrap(ctx, op, raw), nil
}

func (c *Client) wrap(ctx context.Context, op string, raw RawResponse) *Response {
	resp := NewResponse(raw)
	c.logger.Ctx(ctx).Debug("Skynet response",
		zap.String("operation", op),
		zap.Int("status", resp.Status()),
		zap.Int("body_bytes", len(raw.Body())),
	)
	return resp
}

func (c *Client) startSpan(ctx context.Context, op string) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, "skynet."+op, trace.WithSpanKind(trace.SpanKindClient))
}

func endSpan(span trace.Span, resp *Response, err error) {
	if resp != nil {
		span.SetAttributes(attribute.Int("http.response.status_code", resp.Status()))
		if resp.Failed() {
			span.SetStatus(codes.Error, resp.String())
		}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
