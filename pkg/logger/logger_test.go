package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/Msaabiam/Global-Bus/pkg/logger"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestDetectEnv(t *testing.T) {
	t.Setenv("APP_ENV", "")
	if got := logger.DetectEnv(); got != logger.EnvDev {
		t.Fatalf("default should be dev, got %q", got)
	}

	t.Setenv("APP_ENV", "staging")
	if got := logger.DetectEnv(); got != logger.EnvStage {
		t.Fatalf("expected stage, got %q", got)
	}

	t.Setenv("APP_ENV", "production")
	if got := logger.DetectEnv(); got != logger.EnvProd {
		t.Fatalf("expected prod, got %q", got)
	}
}

func TestInit_DevStd_TextOutput(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWriter(&buf, logger.Config{
		Service: "global-bus",
		Version: "v0.0.1",
		Env:     logger.EnvDev,
		Backend: logger.BackendStd,
		Level:   slog.LevelDebug,
	})
	slog.Info("bus departed", "room", "city-tour")

	out := buf.String()
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Fatalf("expected text output in dev/std, got JSON: %s", out)
	}
	for _, want := range []string{"bus departed", "service=global-bus", "env=dev", "room=city-tour"} {
		if !strings.Contains(out, want) {
			t.Fatalf("%q missing: %s", want, out)
		}
	}
}

func TestInit_ProdZap_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWriter(&buf, logger.Config{
		Service:          "global-bus",
		Version:          "1.2.3",
		Env:              logger.EnvProd,
		Backend:          logger.BackendZap,
		Level:            slog.LevelInfo,
		SampleInitial:    100000,
		SampleThereafter: 100000,
	})
	slog.Info("booted", slog.String("k", "v"))

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("expected JSON line, got %s, err=%v", buf.String(), err)
	}
	if m["msg"] != "booted" {
		t.Fatalf("msg mismatch: %v", m["msg"])
	}
	if m["service"] != "global-bus" || m["env"] != "prod" || m["version"] != "1.2.3" {
		t.Fatalf("attrs missing: %v", m)
	}
	if m["level"] != "INFO" {
		t.Fatalf("level mismatch: %v", m["level"])
	}
	if m["k"] != "v" {
		t.Fatalf("custom field missing: %v", m["k"])
	}
	if m["logger"] != "global-bus" {
		t.Fatalf("zap logger name: %v", m["logger"])
	}
}

func TestInit_DebugLowersLevel(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWriter(&buf, logger.Config{Env: logger.EnvDev, Backend: logger.BackendStd, Debug: true})
	slog.Debug("vote discarded")
	if !strings.Contains(buf.String(), "vote discarded") {
		t.Fatalf("debug line missing: %s", buf.String())
	}
}

func TestAttrsFromCtx(t *testing.T) {
	if attrs := logger.AttrsFromCtx(context.Background()); attrs != nil {
		t.Fatalf("expected no attrs without span, got %v", attrs)
	}

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	attrs := logger.AttrsFromCtx(ctx)
	if len(attrs) != 2 || attrs[0].Key != "trace_id" || attrs[1].Key != "span_id" {
		t.Fatalf("trace attrs mismatch: %v", attrs)
	}

	var buf bytes.Buffer
	logger.InitWriter(&buf, logger.Config{Env: logger.EnvProd, Backend: logger.BackendZap, SampleInitial: 1000})
	logger.WithCtx(ctx).Info("with trace")

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("expected JSON, got: %s, err=%v", buf.String(), err)
	}
	if m["trace_id"] == nil || m["span_id"] == nil {
		t.Fatalf("trace_id/span_id missing in log: %v", m)
	}
}

func TestDomainAttrs(t *testing.T) {
	var buf bytes.Buffer
	l := logger.InitWriter(&buf, logger.Config{Env: logger.EnvDev, Backend: logger.BackendStd})

	l.Warn("vote discarded",
		logger.Room("r1"), logger.Passenger("p1"), logger.Poll("poll-1"),
		logger.Conn("c1"), logger.Err(nil))

	out := buf.String()
	for _, want := range []string{"room=r1", "passenger=p1", "poll=poll-1", "conn=c1", "err=\"\""} {
		if !strings.Contains(out, want) {
			t.Fatalf("%q missing: %s", want, out)
		}
	}
}
