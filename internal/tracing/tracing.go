// Package tracing: провайдер OpenTelemetry для корреляции логов.
//
// Экспортёра нет: спаны нужны ради trace_id/span_id, которые pkg/logger
// достаёт из контекста и пишет в каждую запись.
package tracing

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentation = "github.com/Msaabiam/Global-Bus"

// Setup регистрирует глобальный провайдер. При enabled=false остаётся no-op
// провайдер otel, и контексты не получают валидных спанов.
func Setup(enabled bool) (shutdown func(context.Context) error) {
	if !enabled {
		return func(context.Context) error { return nil }
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown
}

// Tracer берёт трейсер из текущего глобального провайдера.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentation)
}

// Start открывает спан с заданным именем.
func Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// Middleware открывает серверный спан на каждый HTTP-запрос, продолжая
// входящий traceparent, если он есть.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := Tracer().Start(ctx, r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", r.Method),
				attribute.String("url.path", r.URL.Path),
			),
		)
		defer span.End()

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
