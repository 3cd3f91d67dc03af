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

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"

	"github.com/neomorfeo/dancepair/internal/adapter/cache"
	"github.com/neomorfeo/dancepair/internal/adapter/fsm"
	"github.com/neomorfeo/dancepair/internal/adapter/mail"
	oteladapter "github.com/neomorfeo/dancepair/internal/adapter/otel"
	riveradapter "github.com/neomorfeo/dancepair/internal/adapter/river"
	"github.com/neomorfeo/dancepair/internal/adapter/sqlite"
	"github.com/neomorfeo/dancepair/internal/app"
	"github.com/neomorfeo/dancepair/internal/config"

	handler "github.com/neomorfeo/dancepair/internal/adapter/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("dancepair stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load("")
	if err != nil {
		return err
	}

	logger := config.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---
	providers, err := oteladapter.Setup(ctx, oteladapter.Config{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: cfg.Telemetry.ServiceVersion,
		Environment:    cfg.Telemetry.Environment,
		Exporter:       cfg.Telemetry.Exporter,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRatio:    cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown", "error", err)
		}
	}()

	// --- Adapters (out) ---
	db, err := oteladapter.OpenDB(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	store, err := sqlite.NewFromDB(db)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}

	users := cache.NewDirectory(store.Users(), cfg.Directory.CacheTTL)
	if err := oteladapter.RegisterCacheMetrics(users); err != nil {
		return fmt.Errorf("cache metrics: %w", err)
	}
	workshopRepo := oteladapter.NewTracingWorkshopRepository(store.Workshops())
	enrollments := oteladapter.NewTracingEnrollmentStore(store.Enrollments())

	renderer, err := mail.NewRenderer()
	if err != nil {
		return fmt.Errorf("mail templates: %w", err)
	}
	sender, err := newSender(ctx, cfg.Mail, logger)
	if err != nil {
		return fmt.Errorf("mail sender: %w", err)
	}

	worker := riveradapter.NewNotificationWorker(renderer, sender, logger)
	queue, err := riveradapter.Setup(ctx, db, worker, cfg.Queue.MaxWorkers, logger)
	if err != nil {
		return fmt.Errorf("river: %w", err)
	}
	// The queue outlives ctx so it can drain during shutdown.
	if err := queue.Start(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("river start: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := queue.Stop(stopCtx); err != nil {
			logger.Error("river stop", "error", err)
		}
	}()

	emitter, err := oteladapter.NewTracingEmitter(riveradapter.NewEmitter(queue))
	if err != nil {
		return fmt.Errorf("emitter: %w", err)
	}

	// --- Application ---
	pairing := app.NewPairingService(users, workshopRepo, enrollments, emitter, fsm.New(), logger)
	workshops := app.NewWorkshopService(workshopRepo, enrollments, users, emitter, logger)

	// --- Adapters (in) ---
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(otelchi.Middleware(cfg.Telemetry.ServiceName, otelchi.WithChiRoutes(router)))
	router.Use(middleware.Logger)

	api := humachi.New(router, huma.DefaultConfig("dancepair", cfg.Telemetry.ServiceVersion))
	handler.Register(api, handler.Services{Pairing: pairing, Workshops: workshops, Users: users})

	// --- Server ---
	srv := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("dancepair listening", "addr", srv.Addr, "docs", "/docs")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("stopped")
	return nil
}

// newSender picks the delivery channel for rendered notifications.
func newSender(ctx context.Context, cfg config.MailConfig, logger *slog.Logger) (mail.Sender, error) {
	switch cfg.Sender {
	case "ses":
		return mail.NewSESSender(ctx, mail.SESConfig{
			Region:    cfg.Region,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			From:      cfg.From,
		})
	case "log", "":
		return mail.NewLogSender(logger), nil
	default:
		return nil, fmt.Errorf("unsupported mail sender %q", cfg.Sender)
	}
}
