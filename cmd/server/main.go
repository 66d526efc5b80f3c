package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"google.golang.org/api/option"

	"github.com/driveturbo/transcriber/internal/auth"
	"github.com/driveturbo/transcriber/internal/cleanup"
	"github.com/driveturbo/transcriber/internal/config"
	"github.com/driveturbo/transcriber/internal/handlers"
	"github.com/driveturbo/transcriber/internal/logging"
	"github.com/driveturbo/transcriber/internal/pipeline"
	"github.com/driveturbo/transcriber/internal/speech"
	"github.com/driveturbo/transcriber/internal/staging"
	"github.com/driveturbo/transcriber/internal/storage"
	"github.com/driveturbo/transcriber/internal/transcode"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, false)
	logger.Info("initializing components")

	if err := cleanup.EnsureTempDirExists(cfg.Pipeline.TempDir); err != nil {
		logger.Fatal("failed to create temp directory", "error", err)
	}

	ctx := context.Background()
	cred := buildCredential(cfg)

	speechClient, err := speech.NewClient(ctx, cred, logger)
	if err != nil {
		logger.Fatal("failed to initialize speech client", "error", err)
	}

	var store pipeline.ObjectStore
	if cfg.Pipeline.StagingMode == config.StagingDurable {
		ts, err := cred.TokenSource(ctx)
		if err != nil {
			logger.Fatal("failed to build storage credentials", "error", err)
		}
		objectStore, err := staging.NewObjectStore(ctx, cfg.Storage.Bucket, logger, option.WithTokenSource(ts))
		if err != nil {
			logger.Fatal("failed to initialize object store", "error", err)
		}
		store = objectStore
		logger.Info("durable staging enabled", "bucket", cfg.Storage.Bucket)
	}

	var history *storage.HistoryDB
	if cfg.Storage.Database != "" {
		history, err = storage.NewHistoryDB(cfg.Storage.Database)
		if err != nil {
			logger.Fatal("failed to initialize database", "error", err)
		}
		defer history.Close()
	}

	var transcoder pipeline.Transcoder
	if cfg.Pipeline.TranscodeEnabled {
		transcoder = transcode.New(logger)
		logger.Info("transcoding enabled", "target", "FLAC 16kHz mono")
	}

	opts := pipeline.Options{
		TranscodeEnabled:           cfg.Pipeline.TranscodeEnabled,
		StagingMode:                cfg.Pipeline.StagingMode,
		MaxUploadBytes:             cfg.MaxFileSizeBytes(),
		TempDir:                    cfg.Pipeline.TempDir,
		LanguageCode:               cfg.Speech.LanguageCode,
		AlternativeLanguageCodes:   cfg.Speech.AlternativeLanguageCodes,
		Model:                      cfg.Speech.Model,
		UseEnhanced:                cfg.Speech.UseEnhanced,
		EnableAutomaticPunctuation: cfg.Speech.EnableAutomaticPunctuation,
	}
	pipe := pipeline.New(opts, transcoder, store, speechClient, logger)

	cleanupScheduler := cleanup.NewScheduler(
		cfg.Pipeline.TempDir,
		time.Duration(cfg.Cleanup.IntervalMinutes)*time.Minute,
		time.Duration(cfg.Cleanup.MaxAgeHours)*time.Hour,
		logger,
	)
	cleanupScheduler.Start()
	defer cleanupScheduler.Stop()

	jwtService := auth.NewJWTService(cfg.Secrets.JWTSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)
	verifier := auth.BcryptVerifier{
		Username:     cfg.Secrets.Username,
		PasswordHash: cfg.Secrets.PasswordHash,
	}

	app := fiber.New(fiber.Config{
		BodyLimit: cfg.Pipeline.MaxFileSizeMB * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Output: io.MultiWriter(os.Stdout, logger.Ring()),
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	loginHandler := handlers.NewLoginHandler(verifier, jwtService, logger)
	processHandler := handlers.NewProcessHandler(pipe, history, logger)
	transcribeHandler := handlers.NewTranscribeHandler(speechClient, store, opts, logger)
	logsHandler := handlers.NewLogsHandler(logger.Ring())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})
	app.Post("/login", loginHandler.Handle)

	authorized := app.Group("/", auth.Middleware(jwtService))
	authorized.Post("/process", processHandler.Handle)
	authorized.Post("/transcribe", transcribeHandler.Handle)
	authorized.Get("/logs", logsHandler.Handle)
	authorized.Get("/ws/logs", websocket.New(logsHandler.Stream))

	if history != nil {
		historyHandler := handlers.NewHistoryHandler(history)
		authorized.Get("/history", historyHandler.List)
		authorized.Get("/history/:id", historyHandler.Get)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("server starting", "addr", addr,
		"transcode", cfg.Pipeline.TranscodeEnabled, "staging", cfg.Pipeline.StagingMode)

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		logger.Info("shutting down gracefully")
		app.Shutdown()
	}()

	if err := app.Listen(addr); err != nil {
		logger.Fatal("server failed", "error", err)
	}
}

// buildCredential selects the configured credential variant. Both variants
// produce the same recognize/long-running capability.
func buildCredential(cfg *config.Config) speech.Credential {
	if cfg.Speech.CredentialMode == config.CredentialOAuthRefresh {
		return speech.OAuthRefreshCredential{
			ClientID:     cfg.Secrets.ClientID,
			ClientSecret: cfg.Secrets.ClientSecret,
			RefreshToken: cfg.Secrets.RefreshToken,
		}
	}
	return speech.ServiceAccountCredential{
		JSON: []byte(cfg.Secrets.ServiceAccountJSON),
		File: cfg.Secrets.ServiceAccountFile,
	}
}
