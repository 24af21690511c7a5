// Package app собирает процесс: хранилище, сервисы, WS, HTTP и gRPC.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Msaabiam/Global-Bus/config"
	"github.com/Msaabiam/Global-Bus/internal/repository"
	"github.com/Msaabiam/Global-Bus/internal/service"
	grpcx "github.com/Msaabiam/Global-Bus/internal/transport/grpc"
	httpx "github.com/Msaabiam/Global-Bus/internal/transport/http"
	"github.com/Msaabiam/Global-Bus/internal/transport/ws"
)

type App struct {
	store    repository.Store
	wsServer *ws.Server
	http     *httpx.Server
	grpc     *grpcx.Server
	handler  http.Handler
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := OpenStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	a, err := NewWithStore(cfg, store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return a, nil
}

// NewWithStore: сборка поверх готового хранилища (удобно в тестах).
func NewWithStore(cfg *config.Config, store repository.Store) (*App, error) {
	policy, ok := service.WinnerPolicyByName(cfg.Session.WinnerPolicy)
	if !ok {
		return nil, fmt.Errorf("unknown winner policy %q", cfg.Session.WinnerPolicy)
	}

	// --- WS Hub ---
	hub := ws.NewHub()

	// --- services ---
	roomSvc := service.NewRoomService(store.Rooms(), hub)
	passengerSvc := service.NewPassengerService(store.Rooms(), store.Passengers())
	chatSvc := service.NewChatService(store.Messages(), cfg.Session.MaxMessageLen, cfg.Session.HistoryLimit)
	pollSvc := service.NewPollService(store.Rooms(), store.Polls(), hub, hub, service.WithWinnerPolicy(policy))

	// --- WS Server ---
	wsServer := ws.NewServer(hub, passengerSvc, chatSvc, pollSvc, ws.Config{
		PingEvery: cfg.Session.PingEvery,
		SendQueue: cfg.Session.SendQueue,
	})

	// --- HTTP ---
	handler := httpx.NewRouter(
		httpx.NewHandler(roomSvc, passengerSvc, chatSvc, pollSvc),
		wsServer.HandleWS,
		httpx.RouterConfig{
			AllowedOrigins: cfg.HTTP.AllowedOrigins,
			RequestTimeout: cfg.HTTP.RequestTimeout,
		},
	)

	return &App{
		store:    store,
		wsServer: wsServer,
		handler:  handler,
		http: httpx.NewServer(httpx.Config{
			Addr:            cfg.HTTP.Addr,
			ReadTimeout:     cfg.HTTP.ReadTimeout,
			WriteTimeout:    cfg.HTTP.WriteTimeout,
			IdleTimeout:     cfg.HTTP.IdleTimeout,
			ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
		}, handler),
		grpc: grpcx.NewServer(cfg.GRPC.Addr),
	}, nil
}

// Handler: корневой HTTP-обработчик.
func (a *App) Handler() http.Handler { return a.handler }

// Run блокирует до отмены ctx или падения одного из серверов.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() { errCh <- a.http.Run(ctx) }()
	go func() { errCh <- a.grpc.Run(ctx) }()

	first := <-errCh
	if first != nil {
		slog.Error("server error", "err", first)
	}
	cancel()
	a.wsServer.Shutdown()
	second := <-errCh

	slog.Info("stopped")
	return errors.Join(first, second)
}

func (a *App) Close() error {
	return a.store.Close()
}
