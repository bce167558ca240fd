package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	charmlog "charm.land/log/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"

	"github.com/immoalbania/immo/auth"
	"github.com/immoalbania/immo/cockroach"
	"github.com/immoalbania/immo/cockroach/migrator"
	"github.com/immoalbania/immo/config"
	"github.com/immoalbania/immo/realtime"
	"github.com/immoalbania/immo/service"
	"github.com/immoalbania/immo/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	errLogger := slog.New(charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
	}))
	infoLogger := slog.New(charmlog.NewWithOptions(os.Stdout, charmlog.Options{
		ReportTimestamp: true,
	}))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	dbPool, err := pgxpool.New(context.Background(), cfg.CockroachURL)
	if err != nil {
		return fmt.Errorf("open cockroach connection pool: %w", err)
	}

	defer dbPool.Close()

	if err := dbPool.Ping(context.Background()); err != nil {
		return fmt.Errorf("ping cockroach: %w", err)
	}

	migrationStart := time.Now()
	infoLogger.Info("starting cockroach migrations")

	if err := migrator.Migrate(context.Background(), dbPool, cockroach.MigrationsFS); err != nil {
		return fmt.Errorf("migrate cockroach schema: %w", err)
	}

	infoLogger.Info("finished cockroach migrations", "took", time.Since(migrationStart))

	codec, err := auth.NewCodec(cfg.TokenKey, cfg.TokenTTL)
	if err != nil {
		return fmt.Errorf("create token codec: %w", err)
	}

	hub := realtime.NewHub(errLogger, cfg.SessionBuffer)

	var broadcast realtime.Broadcaster = hub
	if cfg.NATSURL != "" {
		natsConn, err := nats.Connect(cfg.NATSURL, nats.Name("immo"))
		if err != nil {
			return fmt.Errorf("connect to nats: %w", err)
		}
		defer natsConn.Close()

		nb, err := realtime.NewNATSBroadcaster(natsConn, hub, errLogger)
		if err != nil {
			return fmt.Errorf("subscribe to nats: %w", err)
		}
		defer nb.Close()

		broadcast = nb
		infoLogger.Info("cross-instance event delivery enabled", "nats_url", cfg.NATSURL)
	}

	svc := service.New(&service.Config{
		Cockroach:         cockroach.New(dbPool),
		Broadcast:         broadcast,
		Auth:              codec,
		BaseCtx:           context.Background(),
		BackgroundTimeout: cfg.BackgroundTimeout,
	})

	go func() {
		for err := range svc.Errs() {
			errLogger.Error("service error", "error", err)
		}
	}()

	handler := &web.Handler{
		Logger:  errLogger,
		Service: svc,
		Hub:     hub,
	}
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: handler,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		infoLogger.Info("starting immo chat server", "url", fmt.Sprintf("http://localhost:%d", cfg.Port))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("start immo chat server: %w", err)
		}
	case <-ctx.Done():
		infoLogger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown immo chat server: %w", err)
		}
	}

	return svc.Close()
}
