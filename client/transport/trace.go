package transport

import (
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Trace starts a client span named "HTTP <METHOD>" for every request and
// injects its context into the outgoing headers with the global
// propagator. The span ends once response headers arrive; status codes
// of 400 and above mark it as an error. A nil tracer records nothing.
func Trace(tracer trace.Tracer, next http.RoundTripper) http.RoundTripper {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("")
	}
	next = nextOrDefault(next)

	return Func(func(r *http.Request) (*http.Response, error) {
		ctx, span := tracer.Start(r.Context(), "HTTP "+r.Method,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				attribute.String("http.request.method", r.Method),
				attribute.String("url.full", r.URL.Redacted()),
				attribute.String("server.address", r.URL.Hostname()),
			),
		)
		defer span.End()

		r = r.Clone(ctx)
		otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(r.Header))

		resp, err := next.RoundTrip(r)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}

		span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
		if resp.StatusCode >= http.StatusBadRequest {
			span.SetStatus(codes.Error, strconv.Itoa(resp.StatusCode))
		}

		return resp, nil
	})
}
