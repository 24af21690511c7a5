package http

import (
	"net/http"
	"time"

	"github.com/Msaabiam/Global-Bus/internal/metrics"
	"github.com/Msaabiam/Global-Bus/internal/tracing"
	"github.com/Msaabiam/Global-Bus/internal/transport/logger"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type RouterConfig struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
}

func NewRouter(h *Handler, wsHandler http.HandlerFunc, cfg RouterConfig) http.Handler {
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(tracing.Middleware)
	r.Use(logger.WithRequestLoggerCtx)
	r.Use(logger.RequestLogger)
	r.Use(middlewareChi.Recoverer)

	// WS endpoint: без таймаута и сжатия, соединение живёт долго
	r.Get("/ws", wsHandler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
		api.Use(middlewareChi.Compress(5))
		api.Use(middlewareChi.Timeout(cfg.RequestTimeout))

		api.Post("/rooms", h.OpenRoom)
		api.Route("/rooms/{room}", func(rr chi.Router) {
			rr.Get("/", h.GetRoom)
			rr.Patch("/bus-style", h.UpdateBusStyle)
			rr.Get("/passengers", h.ListPassengers)
			rr.Get("/messages", h.ListMessages)
			rr.Get("/active-poll", h.ActivePoll)
		})

		api.Post("/passengers", h.CreatePassenger)
		api.Route("/passengers/{id}", func(pr chi.Router) {
			pr.Get("/", h.GetPassenger)
			pr.Patch("/xp", h.UpdateXP)
		})

		api.Post("/polls", h.StartPoll)
	})

	return r
}
