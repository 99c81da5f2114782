package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for server lifecycle and HTTP spans.
const (
	AttrBindIP     = "server.bind_ip"
	AttrPort       = "server.port"
	AttrTLS        = "server.tls"
	AttrBackground = "server.background"
	AttrState      = "server.state"
	AttrExitCode   = "server.exit_code"
	AttrSignal     = "process.signal"

	AttrClientAddr = "client.address"
	AttrRoute      = "http.route"
	AttrMethod     = "http.request.method"
	AttrStatusCode = "http.response.status_code"
	AttrRequestID  = "http.request_id"
)

// Span names.
const (
	SpanServerStart = "server.start"
	SpanServerStop  = "server.stop"
	SpanHTTPRequest = "http.request"
)

// Event names recorded on the lifecycle spans.
const (
	EventCredentials = "credentials.ready"
	EventDetached    = "process.detached"
	EventListening   = "server.listening"
	EventStopping    = "server.stopping"
)

func BindIP(ip string) attribute.KeyValue   { return attribute.String(AttrBindIP, ip) }
func Port(port int) attribute.KeyValue      { return attribute.Int(AttrPort, port) }
func TLS(enabled bool) attribute.KeyValue   { return attribute.Bool(AttrTLS, enabled) }
func Background(b bool) attribute.KeyValue  { return attribute.Bool(AttrBackground, b) }
func State(state string) attribute.KeyValue { return attribute.String(AttrState, state) }
func ExitCode(code int) attribute.KeyValue  { return attribute.Int(AttrExitCode, code) }
func Signal(name string) attribute.KeyValue { return attribute.String(AttrSignal, name) }

func ClientAddr(addr string) attribute.KeyValue { return attribute.String(AttrClientAddr, addr) }
func Route(route string) attribute.KeyValue     { return attribute.String(AttrRoute, route) }
func Method(method string) attribute.KeyValue   { return attribute.String(AttrMethod, method) }
func StatusCode(code int) attribute.KeyValue    { return attribute.Int(AttrStatusCode, code) }
func RequestID(id string) attribute.KeyValue    { return attribute.String(AttrRequestID, id) }

// StartServerSpan starts the span covering server startup up to the moment
// the listener is accepting or startup fails.
func StartServerSpan(ctx context.Context, bindIP string, port int, tls, background bool) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanServerStart,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(BindIP(bindIP), Port(port), TLS(tls), Background(background)),
	)
}

// StartStopSpan starts the span for a requested shutdown. signal is the
// name of the signal that asked for it, or "" for any other request.
func StartStopSpan(ctx context.Context, state, signal string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{State(state)}
	if signal != "" {
		attrs = append(attrs, Signal(signal))
	}
	return StartSpan(ctx, SpanServerStop,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// StartHTTPSpan starts a server span for one HTTP request.
func StartHTTPSpan(ctx context.Context, method, clientAddr string) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanHTTPRequest,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(Method(method), ClientAddr(clientAddr)),
	)
}
