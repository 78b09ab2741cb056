package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	rcache "salon-service/internal/cache"
	"salon-service/internal/config"
	availCreate "salon-service/internal/http-server/handlers/availability/create"
	availDelete "salon-service/internal/http-server/handlers/availability/delete"
	availGet "salon-service/internal/http-server/handlers/availability/get"
	availUpdate "salon-service/internal/http-server/handlers/availability/update"
	blockCreate "salon-service/internal/http-server/handlers/blocked_slots/create"
	blockDelete "salon-service/internal/http-server/handlers/blocked_slots/delete"
	blockGet "salon-service/internal/http-server/handlers/blocked_slots/get"
	bookingCreate "salon-service/internal/http-server/handlers/bookings/create"
	bookingGet "salon-service/internal/http-server/handlers/bookings/get"
	bookingUpdate "salon-service/internal/http-server/handlers/bookings/update"
	reviewCreate "salon-service/internal/http-server/handlers/reviews/create"
	reviewGet "salon-service/internal/http-server/handlers/reviews/get"
	svcCreate "salon-service/internal/http-server/handlers/services/create"
	svcDelete "salon-service/internal/http-server/handlers/services/delete"
	svcGet "salon-service/internal/http-server/handlers/services/get"
	svcUpdate "salon-service/internal/http-server/handlers/services/update"
	settingsGet "salon-service/internal/http-server/handlers/settings/get"
	settingsUpdate "salon-service/internal/http-server/handlers/settings/update"
	slotsAvailable "salon-service/internal/http-server/handlers/slots/available"
	"salon-service/internal/lock"
	"salon-service/internal/metrics"
	svc "salon-service/internal/service"
	"salon-service/internal/storage/postgres"
	"salon-service/pkg/handlers/slogpretty"
	"salon-service/pkg/middleware/mwLogger"
	"salon-service/pkg/sl"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {

	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting API", slog.String("env", cfg.Env))
	log.Debug("Debug messages are enabled")

	metrics.Register()

	storage, err := postgres.New(cfg.StoragePath)
	if err != nil {
		log.Error("Failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	locker, err := lock.NewRedisLock(cfg.RedisAddr)
	if err != nil {
		log.Error("Failed to init redis lock", sl.Err(err))
		os.Exit(1)
	}

	cache, err := rcache.NewRedisCache(cfg.RedisAddr, cfg.Cache.Prefix)
	if err != nil {
		log.Error("Failed to init redis cache", sl.Err(err))
		os.Exit(1)
	}

	service := svc.NewService(storage, locker, cache, cfg.Booking, cfg.Cache.TTL)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(mwLogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)
	router.Use(CORS)

	// Weekly availability
	router.Post("/availability", availCreate.New(log, service))
	router.Get("/availability", availGet.New(log, service))
	router.Put("/availability/{id}", availUpdate.New(log, service))
	router.Delete("/availability/{id}", availDelete.New(log, service))

	// Blocked slots
	router.Post("/blocked-slots", blockCreate.New(log, service))
	router.Get("/blocked-slots", blockGet.New(log, service))
	router.Delete("/blocked-slots/{id}", blockDelete.New(log, service))

	// Services
	router.Post("/services", svcCreate.New(log, service))
	router.Get("/services", svcGet.New(log, service))
	router.Get("/services/{id}", svcGet.New(log, service))
	router.Put("/services/{id}", svcUpdate.New(log, service))
	router.Delete("/services/{id}", svcDelete.New(log, service))

	// Bookings
	router.Post("/bookings/available-slots", slotsAvailable.New(log, service))
	router.Post("/bookings", bookingCreate.New(log, service))
	router.Get("/bookings", bookingGet.New(log, service))
	router.Get("/bookings/{id}", bookingGet.New(log, service))
	router.Patch("/bookings/{id}", bookingUpdate.New(log, service))

	// Reviews
	router.Post("/reviews", reviewCreate.New(log, service))
	router.Get("/reviews", reviewGet.New(log, service))

	// Site settings
	router.Get("/settings", settingsGet.New(log, service))
	router.Put("/settings", settingsUpdate.New(log, service))

	router.Handle("/metrics", promhttp.Handler())
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	serv := &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	serverErrCh := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", slog.String("addr", cfg.Address))
		if err := serv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		} else {
			serverErrCh <- nil
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case err := <-serverErrCh:
		if err != nil {
			log.Error("HTTP server stopped unexpectedly", sl.Err(err))
		} else {
			log.Info("HTTP server stopped gracefully")
		}
	}

	shutdownTimeout := cfg.HTTPServer.ShutdownTimeout

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info("Shutting down HTTP server", slog.String("timeout", shutdownTimeout.String()))

	if err := serv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", sl.Err(err))
	} else {
		log.Info("Server shutdown complete")
	}

	if storage != nil {
		if err := storage.Close(); err != nil {
			log.Error("Failed to close storage", sl.Err(err))
		} else {
			log.Info("Storage closed")
		}
	}

	if locker != nil {
		if err := locker.Close(); err != nil {
			log.Error("Failed to close locker", sl.Err(err))
		} else {
			log.Info("Locker closed")
		}
	}

	if cache != nil {
		if err := cache.Close(); err != nil {
			log.Error("Failed to close cache", sl.Err(err))
		} else {
			log.Info("Cache closed")
		}
	}

	log.Info("Shutdown finished, server stopped")

}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger
	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
