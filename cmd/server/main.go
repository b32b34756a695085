package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/quickmart/pos-server/internal/config"
	"github.com/quickmart/pos-server/internal/database"
	"github.com/quickmart/pos-server/internal/handler"
	"github.com/quickmart/pos-server/internal/jobs"
	"github.com/quickmart/pos-server/internal/middleware"
	"github.com/quickmart/pos-server/internal/redis"
	"github.com/quickmart/pos-server/internal/repository"
	"github.com/quickmart/pos-server/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("ENV") == "production"
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	staffRepo := repository.NewStaffRepository(db.DB)
	staffSessionRepo := repository.NewStaffSessionRepository(db.DB)
	scannerSessionRepo := repository.NewScannerSessionRepository(db.DB)
	scanEventRepo := repository.NewScanEventRepository(db.DB)
	productRepo := repository.NewProductRepository(db.DB)
	billRepo := repository.NewBillRepository(db.DB)
	notificationRepo := repository.NewNotificationRepository(db.DB)

	notificationService := service.NewNotificationService(notificationRepo, redisClient, cfg.NotificationTTL())
	productService := service.NewProductService(productRepo, notificationService)
	scannerService := service.NewScannerService(
		db, scannerSessionRepo, scanEventRepo, productService, notificationService,
		cfg.ScannerTTL(), cfg.ScanQueueMaxDepth,
	)
	billService := service.NewBillService(db, billRepo, productRepo, notificationService)
	authService := service.NewAuthService(staffRepo, staffSessionRepo, cfg.StaffSessionTTL())

	sessionMiddleware := middleware.NewSessionMiddleware(authService)
	scanRateLimit := middleware.NewRedisRateLimitMiddleware(redisClient.Client, cfg.ScanRateLimitPerMin)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(isProduction)

	authHandler := handler.NewAuthHandler(authService, isProduction)
	scannerHandler := handler.NewScannerHandler(scannerService)
	productHandler := handler.NewProductHandler(productService)
	billHandler := handler.NewBillHandler(billService)
	notificationHandler := handler.NewNotificationHandler(notificationService)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)
	r.Use(securityHeadersMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Mount("/auth", authHandler.Routes())

		r.Group(func(r chi.Router) {
			r.Use(sessionMiddleware.Handler)
			r.Mount("/scanner", scannerHandler.Routes(scanRateLimit.Handler))
			r.Mount("/products", productHandler.Routes())
			r.Mount("/bills", billHandler.Routes())
			r.Mount("/notifications", notificationHandler.Routes())
		})
	})

	cleanupJob := jobs.NewCleanupJob(
		scannerSessionRepo, staffSessionRepo, notificationRepo,
		config.CleanupJobInterval,
	)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
