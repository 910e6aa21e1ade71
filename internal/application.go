package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ccooksey/bsi-server/internal/auth"
	"github.com/ccooksey/bsi-server/internal/config"
	"github.com/ccooksey/bsi-server/internal/othello"
	"github.com/ccooksey/bsi-server/internal/relay"
	"github.com/ccooksey/bsi-server/internal/repository"
	"github.com/ccooksey/bsi-server/internal/repository/storage"
	"github.com/ccooksey/bsi-server/internal/usecase"
	"github.com/ccooksey/bsi-server/transport/rest"
	"github.com/ccooksey/bsi-server/transport/websocket"
)

const shutdownTimeout = 10 * time.Second

var ErrAddrNotFound = errors.New("redis address string is empty")

type tokenIntrospector interface {
	Introspect(ctx context.Context, token string) (string, error)
}

// RunApp - runs the application until SIGINT or SIGTERM.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err := redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	sqlStorage, err := storage.NewSQLStorage(ctx, conf.Storage.Driver, conf.Storage.DSN)
	if err != nil {
		return fmt.Errorf("could not open roster storage: %w", err)
	}

	defer func() {
		if err := sqlStorage.Close(); err != nil {
			log.Error("could not close roster storage", "error", err)
		}
	}()

	if err = sqlStorage.Init(ctx); err != nil {
		return fmt.Errorf("could not init roster storage: %w", err)
	}

	introspector := newIntrospector(log, conf.Auth)

	hub := relay.New(logger, introspector, relay.Options{
		HeartbeatInterval: conf.HeartbeatInterval,
		AuthTimeout:       conf.Auth.Timeout,
	})
	defer hub.Shutdown()

	gameRepo := repository.NewGameRepository(redisStorage.Connection)
	rosterRepo := repository.NewRosterRepository(sqlStorage.Connection)

	othelloManager := usecase.NewOthelloManager(logger, gameRepo, othello.NewEngine(nil), hub)
	rosterManager := usecase.NewRosterManager(logger, rosterRepo, hub)

	router := rest.NewRouter(logger, rest.Deps{
		Introspector:   introspector,
		Othello:        othelloManager,
		Roster:         rosterManager,
		Realtime:       websocket.New(logger, hub, conf.AllowedOrigins),
		AllowedOrigins: conf.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + conf.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort, "tls", conf.TLS.Enabled())

		var httpErr error
		if conf.TLS.Enabled() {
			httpErr = srv.ListenAndServeTLS(conf.TLS.CertPath, conf.TLS.KeyPath)
		} else {
			httpErr = srv.ListenAndServe()
		}

		if httpErr != nil && !errors.Is(httpErr, http.ErrServerClosed) {
			httpErrCh <- httpErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	// hijacked websocket connections are not tracked by Shutdown; the deferred hub.Shutdown closes them
	if err = srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown: %w", err)
	}

	return nil
}

func newIntrospector(log *slog.Logger, conf config.Auth) tokenIntrospector {
	if conf.Mode == config.AuthModeJWT {
		log.Warn("using local JWT verification, not for production")
		return auth.NewJWTIntrospector(conf.JWTSecret)
	}

	return auth.NewHTTPIntrospector(conf.IntrospectionURL, conf.ClientID, conf.ClientSecret, conf.Timeout)
}
