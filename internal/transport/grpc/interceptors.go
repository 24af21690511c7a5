package grpcx

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/Msaabiam/Global-Bus/internal/tracing"
	"github.com/Msaabiam/Global-Bus/pkg/logger"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const defaultCallTimeout = 10 * time.Second

// UnaryServerInterceptor: спан, recovery, лог и таймаут, если у вызова нет deadline.
func UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, defaultCallTimeout)
			defer cancel()
		}
		ctx, span := startRPC(ctx, info.FullMethod)
		defer observe(ctx, span, "unary", info.FullMethod, time.Now(), &err)

		return handler(ctx, req)
	}
}

// StreamServerInterceptor нужен для Health/Watch.
func StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		ctx, span := startRPC(ss.Context(), info.FullMethod)
		defer observe(ctx, span, "stream", info.FullMethod, time.Now(), &err)

		return handler(srv, &tracedStream{ServerStream: ss, ctx: ctx})
	}
}

func startRPC(ctx context.Context, method string) (context.Context, trace.Span) {
	return tracing.Tracer().Start(ctx, method,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String("rpc.method", method)),
	)
}

// observe закрывает спан, превращает панику в codes.Internal и пишет итог вызова.
// Вызывается только через defer: recover работает лишь в отложенной функции.
func observe(ctx context.Context, span trace.Span, kind, method string, start time.Time, errp *error) {
	if r := recover(); r != nil {
		logger.WithCtx(ctx).Error("grpc panic",
			"kind", kind, "method", method, "panic", r, "stack", string(debug.Stack()))
		*errp = status.Error(codes.Internal, "internal server error")
	}

	code := status.Code(*errp)
	span.SetAttributes(attribute.String("rpc.grpc.status_code", code.String()))
	span.End()

	level := slog.LevelDebug
	if code == codes.Internal || code == codes.Unknown {
		level = slog.LevelError
	}
	logger.WithCtx(ctx).Log(ctx, level, "grpc call",
		"kind", kind, "method", method,
		"dur_ms", time.Since(start).Milliseconds(), "code", code.String())
}

// tracedStream подменяет контекст стрима, чтобы обработчик видел спан.
type tracedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *tracedStream) Context() context.Context { return s.ctx }
