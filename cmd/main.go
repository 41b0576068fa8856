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

	"github.com/clubarena/clubarena/brackets"
	"github.com/clubarena/clubarena/config"
	"github.com/clubarena/clubarena/db"
	"github.com/clubarena/clubarena/handlers"
	"github.com/clubarena/clubarena/repositories"
	api "github.com/clubarena/clubarena/routes"
	"github.com/clubarena/clubarena/services"
	"github.com/clubarena/clubarena/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	uploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize object storage uploader", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("object storage uploader initialized")

	wsHub := brackets.NewHub()
	go wsHub.Run()
	logger.Info("websocket hub started")

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	eventRepo := repositories.NewPostgresEventRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	calendarRepo := repositories.NewPostgresCalendarRepository(dbConn)
	reportRepo := repositories.NewPostgresReportRepository(dbConn)

	var notifier services.Notifier
	if cfg.SMTPHost != "" && cfg.AdminEmail != "" {
		notifier = services.NewSMTPNotifier(cfg)
	} else {
		logger.Info("SMTP not configured, admin notifications go to the log")
		notifier = &services.LogNotifier{Logger: logger}
	}

	authService := services.NewAuthService(userRepo, cfg.JWTSecretKey)
	eventService := services.NewEventService(eventRepo, reportRepo, userRepo, uploader, logger)
	bracketService := services.NewBracketService(
		eventRepo,
		matchRepo,
		userRepo,
		brackets.NewSingleEliminationGenerator(),
		wsHub,
		logger,
	)
	matchService := services.NewMatchService(matchRepo, eventRepo, userRepo, wsHub, logger)
	calendarService := services.NewCalendarService(calendarRepo, userRepo, notifier, logger)

	authHandler := handlers.NewAuthHandler(authService)
	bracketHandler := handlers.NewBracketHandler(bracketService)
	eventHandler := handlers.NewEventHandler(eventService)
	matchHandler := handlers.NewMatchHandler(matchService)
	calendarHandler := handlers.NewCalendarHandler(calendarService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub)

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		authHandler,
		bracketHandler,
		eventHandler,
		matchHandler,
		calendarHandler,
		webSocketHandler,
		cfg.JWTSecretKey,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
	}
	logger.Info("application exited")
}
