package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/folio/pkg/auth"
)

// Default tracer name for folio.
const defaultTracerName = "folio"

// Span names.
const (
	SpanLogin         = "folio.auth.Login"
	SpanPasswordReset = "folio.auth.RequestPasswordReset"
)

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "folio").
	TracerName string

	// IncludeUserID includes the user ID of a successful login.
	// Disabled by default.
	IncludeUserID bool

	// TracerProvider overrides the global provider.
	TracerProvider trace.TracerProvider

	// Filter determines which operations to trace by span name.
	// If nil, all operations are traced.
	Filter func(ctx context.Context, op string) bool

	// AttributeExtractor adds custom attributes to each span.
	AttributeExtractor func(ctx context.Context, op string) []attribute.KeyValue

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithIncludeUserID enables including the user ID in login spans.
func WithIncludeUserID(include bool) OTelOption {
	return func(c *OTelConfig) {
		c.IncludeUserID = include
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithFilter sets a filter function for operations.
func WithFilter(filter func(ctx context.Context, op string) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(ctx context.Context, op string) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

// defaultOTelConfig returns the default OpenTelemetry configuration.
func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName:    defaultTracerName,
		IncludeUserID: false,
	}
}

// OpenTelemetry creates middleware that traces every auth backend call.
//
// Each span records the result status and success flag; failed calls
// record the error. The wrapped backend receives a context carrying the
// span, so its own calls join the trace.
//
// The tracer uses the global OpenTelemetry tracer provider unless
// WithTracerProvider is given. Configure it in main() before serving:
//
//	otel.SetTracerProvider(tp)
func OpenTelemetry(opts ...OTelOption) Middleware {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}

	if config.TracerProvider != nil {
		config.tracer = config.TracerProvider.Tracer(config.TracerName)
	} else {
		config.tracer = otel.Tracer(config.TracerName)
	}

	return func(next auth.API) auth.API {
		return Funcs{
			LoginFunc: func(ctx context.Context, identifier, password string) (auth.LoginResult, error) {
				if config.Filter != nil && !config.Filter(ctx, SpanLogin) {
					return next.Login(ctx, identifier, password)
				}

				spanCtx, span := config.start(ctx, SpanLogin)
				defer span.End()

				res, err := next.Login(spanCtx, identifier, password)

				span.SetAttributes(
					attribute.Int("folio.auth.status", res.Status),
					attribute.Bool("folio.auth.success", res.Success),
				)
				if config.IncludeUserID && res.User != nil {
					span.SetAttributes(attribute.String("folio.user_id", res.User.ID))
				}
				finish(span, err)
				return res, err
			},
			ResetFunc: func(ctx context.Context, email string) (auth.ResetResult, error) {
				if config.Filter != nil && !config.Filter(ctx, SpanPasswordReset) {
					return next.RequestPasswordReset(ctx, email)
				}

				spanCtx, span := config.start(ctx, SpanPasswordReset)
				defer span.End()

				res, err := next.RequestPasswordReset(spanCtx, email)
				span.SetAttributes(attribute.Bool("folio.auth.success", res.Success))
				finish(span, err)
				return res, err
			},
		}
	}
}

func (c *OTelConfig) start(ctx context.Context, op string) (context.Context, trace.Span) {
	var attrs []attribute.KeyValue
	if c.AttributeExtractor != nil {
		attrs = c.AttributeExtractor(ctx, op)
	}
	return c.tracer.Start(ctx, op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}

// SpanFromContext retrieves the current trace span from the context.
//
//	span := middleware.SpanFromContext(ctx)
//	span.SetAttributes(attribute.Int("folio.retries", 1))
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}
