// Package middleware provides observability for folio's auth backend.
//
// A Middleware wraps an auth.API and is applied with Chain; the first
// middleware given is the outermost:
//
//	api := middleware.Chain(auth.NewMockAPI(),
//	    middleware.OpenTelemetry(),
//	    middleware.Prometheus(),
//	    middleware.Recover(logger),
//	)
//	sessions := auth.NewStore(api, store)
//
// # OpenTelemetry
//
// OpenTelemetry starts a span for every Login and RequestPasswordReset
// call, records the result status and any error, and hands the wrapped
// backend a context carrying the span.
//
//	middleware.OpenTelemetry(
//	    middleware.WithTracerName("folio"),
//	    middleware.WithIncludeUserID(true),
//	)
//
// # Prometheus Metrics
//
// Prometheus counts login attempts by status, observes backend latency and
// counts reset requests. The transport records client and websocket
// figures through RecordClientConnect, RecordCommands and
// RecordWebSocketError.
//
//	http.Handle("/metrics", promhttp.Handler())
package middleware
